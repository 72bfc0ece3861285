/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package shell

import (
	"context"
	"fmt"

	"github.com/typstudio/editorkit/ipc"
	"github.com/typstudio/editorkit/log"
)

// PreviewState is a state of the document preview.
type PreviewState int

// Preview states.
const (
	PreviewStateIdle PreviewState = iota
	PreviewStateCompiling
	PreviewStateCompileError
)

func (s PreviewState) String() string {
	switch s {
	case PreviewStateIdle:
		return "idle"
	case PreviewStateCompiling:
		return "compiling"
	case PreviewStateCompileError:
		return "compile error"
	}
	return fmt.Sprintf("PreviewState(%d)", int(s))
}

// Modal is a dialog shown by the shell.
type Modal interface {
	ModalTitle() string
}

// InputModal asks the user for a line of text.
// Callback receives the entered text or nil when the dialog was dismissed.
type InputModal struct {
	Title       string
	Placeholder string
	Callback    func(content *string)
}

// ModalTitle implements Modal.
func (m InputModal) ModalTitle() string {
	return m.Title
}

// Submit calls the callback with the entered content.
func (m InputModal) Submit(content string) {
	if m.Callback != nil {
		m.Callback(&content)
	}
}

// Dismiss calls the callback with nil.
func (m InputModal) Dismiss() {
	if m.Callback != nil {
		m.Callback(nil)
	}
}

// State is a snapshot of the shell.
// SelectedFile is empty when no file is selected.
type State struct {
	SelectedFile   string
	Modals         []Modal
	PreviewState   PreviewState
	PreviewVisible bool
}

// Shell holds the observable shell state.
type Shell struct {
	*Store[State]
}

// New creates a new Shell with no selected file, no modals and an idle visible preview.
func New() *Shell {
	return &Shell{Store: NewStore(State{PreviewState: PreviewStateIdle, PreviewVisible: true})}
}

// Follow applies backend view events of the source to the shell.
func (s *Shell) Follow(src ipc.EventSource) (unsubscribe func()) {
	return ipc.OnTogglePreviewVisibility(src, func(context.Context, ipc.TogglePreviewVisibilityEvent) error {
		s.TogglePreviewVisible()
		return nil
	})
}

// SelectFile selects the file with the given path. An empty path clears the selection.
func (s *Shell) SelectFile(path string) {
	s.Update(func(st State) State {
		st.SelectedFile = path
		return st
	})
}

// CreateModal appends the modal to the queue.
func (s *Shell) CreateModal(m Modal) {
	s.Update(func(st State) State {
		modals := make([]Modal, 0, len(st.Modals)+1)
		st.Modals = append(append(modals, st.Modals...), m)
		return st
	})
}

// PopModal removes the oldest modal from the queue. It does nothing when the queue is empty.
func (s *Shell) PopModal() {
	s.Update(func(st State) State {
		if len(st.Modals) == 0 {
			return st
		}
		st.Modals = append([]Modal(nil), st.Modals[1:]...)
		return st
	})
}

// CurrentModal returns the modal that should be shown, the oldest one.
func (s *Shell) CurrentModal() (Modal, bool) {
	st := s.Get()
	if len(st.Modals) == 0 {
		return nil, false
	}
	return st.Modals[0], true
}

// SetPreviewState sets the state of the preview.
func (s *Shell) SetPreviewState(ps PreviewState) {
	s.Update(func(st State) State {
		st.PreviewState = ps
		return st
	})
}

// SetPreviewVisible shows or hides the preview.
func (s *Shell) SetPreviewVisible(visible bool) {
	s.Update(func(st State) State {
		st.PreviewVisible = visible
		return st
	})
}

// TogglePreviewVisible flips the preview visibility.
func (s *Shell) TogglePreviewVisible() {
	s.Update(func(st State) State {
		st.PreviewVisible = !st.PreviewVisible
		return st
	})
}

// ProjectStore holds the project opened in the backend. The value is nil when no project is open.
type ProjectStore struct {
	*Store[*ipc.Project]
}

// NewProjectStore creates a new ProjectStore with no project.
func NewProjectStore() *ProjectStore {
	return &ProjectStore{Store: NewStore[*ipc.Project](nil)}
}

// Follow keeps the store in sync with project_changed events of the source.
func (ps *ProjectStore) Follow(src ipc.EventSource, logger log.FieldLogger) (unsubscribe func()) {
	if logger == nil {
		logger = log.NewDisabledLogger()
	}
	return ipc.OnProjectChanged(src, func(_ context.Context, ev ipc.ProjectChangeEvent) error {
		if ev.Project != nil {
			logger.Info("project opened", log.String("root", ev.Project.Root))
		} else {
			logger.Info("project closed")
		}
		ps.Set(ev.Project)
		return nil
	})
}
