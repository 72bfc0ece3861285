/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package completion

import (
	"strconv"
	"strings"

	"github.com/typstudio/editorkit/ipc"
)

// SuggestionKind is a kind of the editor suggestion. It selects the icon shown next to it.
type SuggestionKind int

// Suggestion kinds.
const (
	SuggestionKindSnippet SuggestionKind = iota
	SuggestionKindFunction
	SuggestionKindVariable
	SuggestionKindConstant
	SuggestionKindKeyword
	SuggestionKindClass
)

var suggestionKindNames = [...]string{"snippet", "function", "variable", "constant", "keyword", "class"}

func (k SuggestionKind) String() string {
	if k < 0 || int(k) >= len(suggestionKindNames) {
		return "snippet"
	}
	return suggestionKindNames[k]
}

// KindOf maps the backend completion kind to the editor suggestion kind.
// Unknown kinds are shown as snippets.
func KindOf(kind ipc.CompletionKind) SuggestionKind {
	switch kind {
	case ipc.CompletionKindFunction:
		return SuggestionKindFunction
	case ipc.CompletionKindParameter:
		return SuggestionKindVariable
	case ipc.CompletionKindConstant:
		return SuggestionKindConstant
	case ipc.CompletionKindSymbol:
		return SuggestionKindKeyword
	case ipc.CompletionKindType:
		return SuggestionKindClass
	default:
		return SuggestionKindSnippet
	}
}

// SnippetText numbers the placeholders of a backend snippet: every "${" becomes "${N:"
// with N counting from 1 in order of appearance.
func SnippetText(apply string) string {
	const placeholder = "${"
	if !strings.Contains(apply, placeholder) {
		return apply
	}
	var sb strings.Builder
	sb.Grow(len(apply) + 8)
	n := 0
	for {
		i := strings.Index(apply, placeholder)
		if i < 0 {
			sb.WriteString(apply)
			return sb.String()
		}
		n++
		sb.WriteString(apply[:i+len(placeholder)])
		sb.WriteString(strconv.Itoa(n))
		sb.WriteByte(':')
		apply = apply[i+len(placeholder):]
	}
}

// InsertText returns the text inserted for the completion: the numbered snippet,
// or the label when the completion has no snippet.
func InsertText(c ipc.Completion) string {
	if c.Apply == nil || *c.Apply == "" {
		return c.Label
	}
	return SnippetText(*c.Apply)
}
