/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/typstudio/editorkit/ipc"
	"github.com/typstudio/editorkit/log"
	"github.com/typstudio/editorkit/preview"
	"github.com/typstudio/editorkit/shell"
)

const syncFlushTimeout = 10 * time.Second

type syncOptions struct {
	renderDir string
	serveDiag bool
}

func newSyncCommand(st *rootState) *cobra.Command {
	var opts syncOptions
	cmd := &cobra.Command{
		Use:   "sync <project-file> <local-file>",
		Short: "Push changes of a local file to the backend and follow the preview",
		Long: "Watch the local file and push its content to the project file on every change.\n" +
			"Writes never overlap: changes made during a write are coalesced into one follow-up write.\n" +
			"With --render-dir every page of each compiled document is rendered into that directory.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd.Context(), st.app, args[0], args[1], opts)
		},
	}
	cmd.Flags().StringVar(&opts.renderDir, "render-dir", "", "directory for rendered pages")
	cmd.Flags().BoolVar(&opts.serveDiag, "serve-diag", false, "serve metrics and health while syncing")
	return cmd
}

func runSync(ctx context.Context, a *app, projectPath, localPath string, opts syncOptions) error {
	ctx, cancel := signalContext(ctx)
	defer cancel()

	listener, err := a.newListener()
	if err != nil {
		return err
	}
	sh := shell.New()
	sh.SelectFile(projectPath)
	defer sh.Follow(listener)()
	projects := shell.NewProjectStore()
	defer projects.Follow(listener, a.logger)()

	syncer, err := a.newSynchronizer(sh)
	if err != nil {
		return err
	}
	defer syncer.Follow(listener)()

	var stateMu sync.Mutex
	var lastState shell.PreviewState = -1
	defer sh.Subscribe(func(s shell.State) {
		stateMu.Lock()
		defer stateMu.Unlock()
		if s.PreviewState == lastState {
			return
		}
		lastState = s.PreviewState
		a.logger.Info("preview state changed", log.String("state", s.PreviewState.String()))
		if s.PreviewState == shell.PreviewStateIdle && opts.renderDir != "" {
			go renderAllPages(ctx, a.logger, syncer, opts.renderDir)
		}
	})()

	fatalErr := make(chan error, 1)
	if opts.serveDiag {
		stop := runDiagServer(a, listener, fatalErr)
		defer stop()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()
	// Editors may replace the file on save, so watch its directory.
	if err = watcher.Add(filepath.Dir(localPath)); err != nil {
		return fmt.Errorf("watch %s: %w", localPath, err)
	}

	// Pending edits must outlive the signal so they can be flushed on exit.
	editCtx := context.WithoutCancel(ctx)
	push := func() {
		content, readErr := os.ReadFile(localPath)
		if readErr != nil {
			a.logger.Warn("failed to read local file", log.String("path", localPath), log.Error(readErr))
			return
		}
		syncer.EditAsync(editCtx, projectPath, string(content))
	}
	push()

	listenerDone := make(chan error, 1)
	go func() { listenerDone <- listener.Run(ctx) }()

	absLocal, _ := filepath.Abs(localPath)
	for {
		select {
		case <-ctx.Done():
			flushCtx, flushCancel := context.WithTimeout(context.Background(), syncFlushTimeout)
			defer flushCancel()
			if waitErr := syncer.Wait(flushCtx); waitErr != nil {
				a.logger.Warn("pending edits were not flushed", log.Error(waitErr))
			}
			return <-listenerDone
		case err = <-fatalErr:
			cancel()
			<-listenerDone
			return fmt.Errorf("diagnostics server: %w", err)
		case ev, ok := <-watcher.Events:
			if !ok {
				return errors.New("file watcher stopped")
			}
			if evAbs, _ := filepath.Abs(ev.Name); evAbs != absLocal {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				push()
			}
		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return errors.New("file watcher stopped")
			}
			a.logger.Warn("file watcher error", log.Error(watchErr))
		}
	}
}

func renderAllPages(ctx context.Context, logger log.FieldLogger, syncer *preview.Synchronizer, dir string) {
	doc, ok := syncer.Document()
	if !ok {
		return
	}
	for page := 1; page <= doc.Pages; page++ {
		p, err := syncer.RenderPage(ctx, page, 0)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				logger.Warn("failed to render page", log.Int("page", page), log.Error(err))
			}
			return
		}
		name := filepath.Join(dir, fmt.Sprintf("%s-%03d.png", shortHash(doc), page))
		if err = os.WriteFile(name, p.Image, 0o644); err != nil {
			logger.Warn("failed to save rendered page", log.String("file", name), log.Error(err))
			return
		}
	}
	logger.Info("document rendered", log.Int("pages", doc.Pages), log.String("dir", dir))
}

func shortHash(doc ipc.Document) string {
	const n = 8
	if len(doc.Hash) > n {
		return doc.Hash[:n]
	}
	return doc.Hash
}
