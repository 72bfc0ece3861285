/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package logtest

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/typstudio/editorkit/log"
)

func TestRecorder(t *testing.T) {
	rec := NewRecorder()
	rec.With(log.String("path", "main.typ")).Warn("compile failed", log.Int("diagnostics", 2))
	rec.Debug("completed")

	require.Len(t, rec.Entries(), 2)

	entry, found := rec.FindEntry("compile failed")
	require.True(t, found)
	require.Equal(t, log.LevelWarn, entry.Level)

	field, found := entry.FindField("diagnostics")
	require.True(t, found)
	require.Equal(t, 2, int(field.Int))
	field, found = entry.FindField("path")
	require.True(t, found)
	require.Equal(t, "main.typ", string(field.Bytes))
	_, found = entry.FindField("nonce")
	require.False(t, found)

	entry, found = rec.FindEntry("completed")
	require.True(t, found)
	require.Equal(t, log.LevelDebug, entry.Level)

	rec.WithLevel(log.LevelInfo).Debug("filtered out")
	_, found = rec.FindEntry("filtered out")
	require.False(t, found)

	rec.Debug("completed")
	require.Equal(t, 2, rec.Count("completed"))
	require.Zero(t, rec.Count("unknown"))

	rec.Reset()
	require.Empty(t, rec.Entries())
}
