/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package ipc

import (
	"context"
	"fmt"
)

// Document describes a successfully compiled document.
type Document struct {
	Pages  int     `json:"pages"`
	Hash   string  `json:"hash"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// DiagnosticSeverity is a severity of a source diagnostic.
type DiagnosticSeverity string

// Diagnostic severities.
const (
	DiagnosticSeverityError   DiagnosticSeverity = "error"
	DiagnosticSeverityWarning DiagnosticSeverity = "warning"
)

// Range is a byte range in the source.
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// SourceDiagnostic is an error or a warning reported by the compiler.
type SourceDiagnostic struct {
	Range    Range              `json:"range"`
	Severity DiagnosticSeverity `json:"severity"`
	Message  string             `json:"message"`
	Hints    []string           `json:"hints"`
}

// CompileEvent is the payload of the typst_compile event.
// Document is set when the compilation succeeded, Diagnostics when it failed.
type CompileEvent struct {
	Document    *Document          `json:"document"`
	Diagnostics []SourceDiagnostic `json:"diagnostics"`
}

// Succeeded reports whether the event carries a compiled document.
func (e CompileEvent) Succeeded() bool {
	return e.Document != nil
}

// RenderResponse is a rendered page.
// Image is a base64-encoded PNG as returned by the backend.
type RenderResponse struct {
	Image  string  `json:"image"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Nonce  uint64  `json:"nonce"`
}

// CompletionKind is a kind of the backend completion.
type CompletionKind int

// Completion kinds.
const (
	CompletionKindSyntax CompletionKind = iota + 1
	CompletionKindFunction
	CompletionKindParameter
	CompletionKindConstant
	CompletionKindSymbol
	CompletionKindType
)

// String returns a human-readable name of the kind.
func (k CompletionKind) String() string {
	switch k {
	case CompletionKindSyntax:
		return "syntax"
	case CompletionKindFunction:
		return "function"
	case CompletionKindParameter:
		return "parameter"
	case CompletionKindConstant:
		return "constant"
	case CompletionKindSymbol:
		return "symbol"
	case CompletionKindType:
		return "type"
	}
	return fmt.Sprintf("unknown(%d)", int(k))
}

// Completion is a single completion proposed by the backend.
// Apply is a snippet with ${...} placeholders; nil means the label should be inserted.
type Completion struct {
	Kind   CompletionKind `json:"kind"`
	Label  string         `json:"label"`
	Apply  *string        `json:"apply"`
	Detail *string        `json:"detail"`
}

// CompleteResponse is the result of the typst_autocomplete command.
// Offset is the byte offset in the content where the completions start.
type CompleteResponse struct {
	Offset      int          `json:"offset"`
	Completions []Completion `json:"completions"`
}

type renderArgs struct {
	Page  int     `json:"page"`
	Scale float64 `json:"scale"`
	Nonce uint64  `json:"nonce"`
}

type autocompleteArgs struct {
	Path     string `json:"path"`
	Content  string `json:"content"`
	Offset   int    `json:"offset"`
	Explicit bool   `json:"explicit"`
}

// Compile compiles the document with the given path using content as its source.
func (b *Backend) Compile(ctx context.Context, path, content string) (RenderResponse, error) {
	var resp RenderResponse
	err := b.invoker.Invoke(ctx, CommandTypstCompile, pathContentArgs{Path: path, Content: content}, &resp)
	return resp, err
}

// Render renders the page (1-based) of the last compiled document.
// The backend addresses pages by 0-based index.
// The nonce is echoed back by the backend and lets callers discard stale responses.
func (b *Backend) Render(ctx context.Context, page int, scale float64, nonce uint64) (RenderResponse, error) {
	if page < 1 {
		return RenderResponse{}, fmt.Errorf("page should be >= 1, got %d", page)
	}
	if scale <= 0 {
		return RenderResponse{}, fmt.Errorf("scale should be > 0, got %v", scale)
	}
	var resp RenderResponse
	err := b.invoker.Invoke(ctx, CommandTypstRender, renderArgs{Page: page - 1, Scale: scale, Nonce: nonce}, &resp)
	return resp, err
}

// Autocomplete asks the backend for completions at the byte offset in content.
// Explicit is true when completion was requested by the user rather than by a trigger character.
func (b *Backend) Autocomplete(
	ctx context.Context, path, content string, offset int, explicit bool,
) (CompleteResponse, error) {
	var resp CompleteResponse
	args := autocompleteArgs{Path: path, Content: content, Offset: offset, Explicit: explicit}
	if err := b.invoker.Invoke(ctx, CommandTypstAutocomplete, args, &resp); err != nil {
		return CompleteResponse{}, err
	}
	return resp, nil
}
