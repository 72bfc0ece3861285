/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package completion

import (
	"context"
	"fmt"
	"time"

	"github.com/typstudio/editorkit/ipc"
	"github.com/typstudio/editorkit/log"
)

// TriggerCharacters are the characters that open the completion list automatically.
var TriggerCharacters = []string{" ", "(", "[", "{", "$", "@", "#", "."}

// TriggerKind tells how completion was requested.
type TriggerKind int

// Trigger kinds.
const (
	// TriggerInvoke means the user requested completion explicitly.
	TriggerInvoke TriggerKind = iota
	// TriggerCharacter means one of TriggerCharacters was typed.
	TriggerCharacter
	// TriggerIncomplete means the previous list was incomplete and is being refreshed.
	TriggerIncomplete
)

// IsTriggerCharacter reports whether typing s should open the completion list.
func IsTriggerCharacter(s string) bool {
	for _, c := range TriggerCharacters {
		if c == s {
			return true
		}
	}
	return false
}

// Request is a completion request from the editor.
type Request struct {
	Path     string
	Content  string
	Position Position
	Trigger  TriggerKind
}

// Suggestion is a single editor suggestion.
type Suggestion struct {
	Label      string
	Kind       SuggestionKind
	InsertText string
	// InsertAsSnippet is always true: insert texts may contain numbered placeholders.
	InsertAsSnippet bool
	Detail          string
	Range           Range
}

// List is a list of suggestions.
type List struct {
	Suggestions []Suggestion
}

// Autocompleter is implemented by *ipc.Backend.
type Autocompleter interface {
	Autocomplete(ctx context.Context, path, content string, offset int, explicit bool) (ipc.CompleteResponse, error)
}

var _ Autocompleter = (*ipc.Backend)(nil)

// ProviderOpts provides options for NewProviderWithOpts.
type ProviderOpts struct {
	Logger log.FieldLogger
}

// Provider produces editor suggestions from backend completions.
type Provider struct {
	backend Autocompleter
	logger  log.FieldLogger
}

// NewProvider creates a new Provider.
func NewProvider(backend Autocompleter) *Provider {
	return NewProviderWithOpts(backend, ProviderOpts{})
}

// NewProviderWithOpts creates a new Provider with options.
func NewProviderWithOpts(backend Autocompleter, opts ProviderOpts) *Provider {
	if opts.Logger == nil {
		opts.Logger = log.NewDisabledLogger()
	}
	return &Provider{backend: backend, logger: opts.Logger}
}

// Provide returns suggestions for the request. Every suggestion replaces the text
// between the position where the backend completions start and the cursor.
func (p *Provider) Provide(ctx context.Context, req Request) (List, error) {
	offset := OffsetAt(req.Content, req.Position)
	explicit := req.Trigger == TriggerInvoke

	startTime := time.Now()
	resp, err := p.backend.Autocomplete(ctx, req.Path, req.Content, offset, explicit)
	if err != nil {
		return List{}, fmt.Errorf("autocomplete %s at offset %d: %w", req.Path, offset, err)
	}
	p.logger.Debug("completed",
		log.String("path", req.Path),
		log.Int("offset", offset),
		log.Bool("explicit", explicit),
		log.Int("completions", len(resp.Completions)),
		log.DurationIn(time.Since(startTime), time.Millisecond),
	)

	rng := Range{Start: PositionAt(req.Content, resp.Offset), End: PositionAt(req.Content, offset)}
	list := List{Suggestions: make([]Suggestion, 0, len(resp.Completions))}
	for _, c := range resp.Completions {
		s := Suggestion{
			Label:           c.Label,
			Kind:            KindOf(c.Kind),
			InsertText:      InsertText(c),
			InsertAsSnippet: true,
			Range:           rng,
		}
		if c.Detail != nil {
			s.Detail = *c.Detail
		}
		list.Suggestions = append(list.Suggestions, s)
	}
	return list, nil
}
