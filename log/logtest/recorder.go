/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package logtest provides a recording logger for inspecting log output in tests.
package logtest

import (
	"sync"
	"time"

	"github.com/ssgreg/logf"

	"github.com/typstudio/editorkit/log"
)

// RecordedEntry is a logged entry with its own and derived (With) fields merged.
type RecordedEntry struct {
	Fields []log.Field
	Level  log.Level
	Time   time.Time
	Text   string
}

// FindField returns the first field with the key.
func (re *RecordedEntry) FindField(key string) (*log.Field, bool) {
	for i := range re.Fields {
		if re.Fields[i].Key == key {
			return &re.Fields[i], true
		}
	}
	return nil, false
}

// journal is shared by a Recorder and all loggers derived from it.
type journal struct {
	mu      sync.RWMutex
	entries []RecordedEntry
}

//nolint:gocritic // logf.EntryWriter passes entries by value
func (j *journal) WriteEntry(e logf.Entry) {
	fields := make([]log.Field, 0, len(e.Fields)+len(e.DerivedFields))
	fields = append(fields, e.Fields...)
	fields = append(fields, e.DerivedFields...)
	entry := RecordedEntry{Fields: fields, Level: levels[e.Level], Time: e.Time, Text: e.Text}

	j.mu.Lock()
	j.entries = append(j.entries, entry)
	j.mu.Unlock()
}

func (j *journal) filter(match func(*RecordedEntry) bool) []RecordedEntry {
	j.mu.RLock()
	defer j.mu.RUnlock()
	var res []RecordedEntry
	for i := range j.entries {
		if match(&j.entries[i]) {
			res = append(res, j.entries[i])
		}
	}
	return res
}

// Recorder is a log.FieldLogger that keeps every entry at debug level and above in memory.
type Recorder struct {
	*log.LogfAdapter
	journal *journal
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	j := &journal{}
	return &Recorder{&log.LogfAdapter{Logger: logf.NewLogger(logf.LevelDebug, j)}, j}
}

// With returns a Recorder with additional fields that records into the same journal.
func (r *Recorder) With(fs ...log.Field) log.FieldLogger {
	return &Recorder{r.LogfAdapter.With(fs...).(*log.LogfAdapter), r.journal}
}

// WithLevel returns a Recorder with an additional level check that records into the same journal.
func (r *Recorder) WithLevel(level log.Level) log.FieldLogger {
	return &Recorder{r.LogfAdapter.WithLevel(level).(*log.LogfAdapter), r.journal}
}

// Entries returns a copy of all recorded entries.
func (r *Recorder) Entries() []RecordedEntry {
	return r.journal.filter(func(*RecordedEntry) bool { return true })
}

// FindEntry returns the first entry with the message.
func (r *Recorder) FindEntry(msg string) (RecordedEntry, bool) {
	found := r.journal.filter(func(e *RecordedEntry) bool { return e.Text == msg })
	if len(found) == 0 {
		return RecordedEntry{}, false
	}
	return found[0], true
}

// Count returns how many entries have the message.
func (r *Recorder) Count(msg string) int {
	return len(r.journal.filter(func(e *RecordedEntry) bool { return e.Text == msg }))
}

// Reset drops all recorded entries.
func (r *Recorder) Reset() {
	r.journal.mu.Lock()
	r.journal.entries = nil
	r.journal.mu.Unlock()
}

var levels = map[logf.Level]log.Level{
	logf.LevelError: log.LevelError,
	logf.LevelWarn:  log.LevelWarn,
	logf.LevelInfo:  log.LevelInfo,
	logf.LevelDebug: log.LevelDebug,
}
