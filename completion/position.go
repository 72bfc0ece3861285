/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package completion

import (
	"strings"
	"unicode/utf8"
)

// Position is a 1-based line and column in the text. Columns count runes.
type Position struct {
	Line   int
	Column int
}

// Range is a span of text between two positions.
type Range struct {
	Start Position
	End   Position
}

// OffsetAt converts the position to a byte offset in content.
// Lines and columns beyond the content are clamped.
func OffsetAt(content string, pos Position) int {
	if pos.Line < 1 {
		return 0
	}
	offset := 0
	for line := 1; line < pos.Line; line++ {
		i := strings.IndexByte(content[offset:], '\n')
		if i < 0 {
			return len(content)
		}
		offset += i + 1
	}
	lineEnd := len(content)
	if i := strings.IndexByte(content[offset:], '\n'); i >= 0 {
		lineEnd = offset + i
	}
	for col := 1; col < pos.Column && offset < lineEnd; col++ {
		_, size := utf8.DecodeRuneInString(content[offset:lineEnd])
		offset += size
	}
	return offset
}

// PositionAt converts a byte offset in content to a position.
// Offsets outside the content are clamped. Offsets inside a multi-byte rune are moved to its start.
func PositionAt(content string, offset int) Position {
	if offset < 0 {
		offset = 0
	}
	if offset > len(content) {
		offset = len(content)
	}
	for offset > 0 && offset < len(content) && !utf8.RuneStart(content[offset]) {
		offset--
	}
	pos := Position{Line: 1, Column: 1}
	for _, r := range content[:offset] {
		if r == '\n' {
			pos.Line++
			pos.Column = 1
			continue
		}
		pos.Column++
	}
	return pos
}
