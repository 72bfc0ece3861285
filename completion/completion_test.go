/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package completion

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/typstudio/editorkit/ipc"
	"github.com/typstudio/editorkit/log"
	"github.com/typstudio/editorkit/log/logtest"
)

type mockAutocompleter struct {
	resp ipc.CompleteResponse
	err  error

	gotPath     string
	gotContent  string
	gotOffset   int
	gotExplicit bool
}

func (m *mockAutocompleter) Autocomplete(
	_ context.Context, path, content string, offset int, explicit bool,
) (ipc.CompleteResponse, error) {
	m.gotPath, m.gotContent, m.gotOffset, m.gotExplicit = path, content, offset, explicit
	return m.resp, m.err
}

func strPtr(s string) *string { return &s }

func TestProvider_Provide(t *testing.T) {
	content := "= Intro\n#set text(fo"
	backend := &mockAutocompleter{resp: ipc.CompleteResponse{
		Offset: 18,
		Completions: []ipc.Completion{
			{Kind: ipc.CompletionKindParameter, Label: "font", Apply: strPtr("font: ${}"), Detail: strPtr("A font family.")},
			{Kind: ipc.CompletionKindParameter, Label: "fill", Apply: strPtr("")},
			{Kind: ipc.CompletionKindSymbol, Label: "forall"},
		},
	}}
	logger := logtest.NewRecorder()
	provider := NewProviderWithOpts(backend, ProviderOpts{Logger: logger})

	list, err := provider.Provide(context.Background(), Request{
		Path:     "/main.typ",
		Content:  content,
		Position: Position{Line: 2, Column: 13},
		Trigger:  TriggerCharacter,
	})
	require.NoError(t, err)
	require.Equal(t, "/main.typ", backend.gotPath)
	require.Equal(t, content, backend.gotContent)
	require.Equal(t, len(content), backend.gotOffset)
	require.False(t, backend.gotExplicit)

	wantRange := Range{Start: Position{Line: 2, Column: 11}, End: Position{Line: 2, Column: 13}}
	require.Equal(t, []Suggestion{
		{
			Label: "font", Kind: SuggestionKindVariable, InsertText: "font: ${1:}",
			InsertAsSnippet: true, Detail: "A font family.", Range: wantRange,
		},
		{Label: "fill", Kind: SuggestionKindVariable, InsertText: "fill", InsertAsSnippet: true, Range: wantRange},
		{Label: "forall", Kind: SuggestionKindKeyword, InsertText: "forall", InsertAsSnippet: true, Range: wantRange},
	}, list.Suggestions)

	entry, found := logger.FindEntry("completed")
	require.True(t, found)
	require.Equal(t, log.LevelDebug, entry.Level)
	field, found := entry.FindField("completions")
	require.True(t, found)
	require.Equal(t, 3, int(field.Int))
}

func TestProvider_ExplicitInvoke(t *testing.T) {
	backend := &mockAutocompleter{}
	list, err := NewProvider(backend).Provide(context.Background(), Request{
		Path: "a.typ", Content: "#", Position: Position{Line: 1, Column: 2}, Trigger: TriggerInvoke,
	})
	require.NoError(t, err)
	require.True(t, backend.gotExplicit)
	require.Equal(t, 1, backend.gotOffset)
	require.Empty(t, list.Suggestions)
}

func TestProvider_BackendError(t *testing.T) {
	backend := &mockAutocompleter{err: errors.New("no project opened")}
	_, err := NewProvider(backend).Provide(context.Background(), Request{
		Path: "a.typ", Content: "#lo", Position: Position{Line: 1, Column: 4},
	})
	require.EqualError(t, err, "autocomplete a.typ at offset 3: no project opened")
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		kind ipc.CompletionKind
		want SuggestionKind
	}{
		{ipc.CompletionKindSyntax, SuggestionKindSnippet},
		{ipc.CompletionKindFunction, SuggestionKindFunction},
		{ipc.CompletionKindParameter, SuggestionKindVariable},
		{ipc.CompletionKindConstant, SuggestionKindConstant},
		{ipc.CompletionKindSymbol, SuggestionKindKeyword},
		{ipc.CompletionKindType, SuggestionKindClass},
		{ipc.CompletionKind(42), SuggestionKindSnippet},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			require.Equal(t, tt.want, KindOf(tt.kind))
		})
	}
	require.Equal(t, "class", SuggestionKindClass.String())
}

func TestSnippetText(t *testing.T) {
	require.Equal(t, "heading", SnippetText("heading"))
	require.Equal(t, "#let ${1:name} = ${2:value}", SnippetText("#let ${name} = ${value}"))
	require.Equal(t, "table(${1:}, ${2:})${3:}", SnippetText("table(${}, ${})${}"))
	require.Equal(t, "$x$", SnippetText("$x$"))
}

func TestInsertText(t *testing.T) {
	require.Equal(t, "lorem", InsertText(ipc.Completion{Label: "lorem"}))
	require.Equal(t, "lorem", InsertText(ipc.Completion{Label: "lorem", Apply: strPtr("")}))
	require.Equal(t, "lorem(${1:30})", InsertText(ipc.Completion{Label: "lorem", Apply: strPtr("lorem(${30})")}))
}

func TestTriggerCharacters(t *testing.T) {
	for _, c := range []string{" ", "(", "[", "{", "$", "@", "#", "."} {
		require.True(t, IsTriggerCharacter(c), c)
	}
	require.False(t, IsTriggerCharacter("a"))
	require.False(t, IsTriggerCharacter(""))
}

func TestOffsetPositionConversion(t *testing.T) {
	content := "= Größe\n\n$ a + b $\nend"

	tests := []struct {
		name   string
		pos    Position
		offset int
	}{
		{"start", Position{1, 1}, 0},
		{"after multi-byte runes", Position{1, 8}, len("= Größe")},
		{"empty line", Position{2, 1}, len("= Größe\n")},
		{"third line", Position{3, 3}, len("= Größe\n\n$ ")},
		{"end", Position{4, 4}, len(content)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.offset, OffsetAt(content, tt.pos))
			require.Equal(t, tt.pos, PositionAt(content, tt.offset))
		})
	}

	t.Run("clamping", func(t *testing.T) {
		require.Equal(t, 0, OffsetAt(content, Position{0, 5}))
		require.Equal(t, len("= Größe"), OffsetAt(content, Position{1, 100}))
		require.Equal(t, len(content), OffsetAt(content, Position{10, 1}))
		require.Equal(t, Position{1, 1}, PositionAt(content, -5))
		require.Equal(t, Position{4, 4}, PositionAt(content, len(content)+10))
		// Offset inside "ö" points at the rune itself.
		require.Equal(t, Position{1, 5}, PositionAt(content, len("= Gr")+1))
	})
}
