package testutils

import "sync"

// TestingT is the subset of testing.T used by the helpers
type TestingT interface {
	Errorf(format string, args ...any)
}

// FieldsToMap converts alternating key/value log fields to a map,
// reporting malformed entries through t.
func FieldsToMap(t TestingT, fields []any) map[string]any {
	fieldsMap := make(map[string]any)

	for i := 0; i < len(fields); i += 2 {
		if i+1 >= len(fields) {
			t.Errorf("Malformed fields slice: missing value for key at index %d", i)
			continue
		}

		key, ok := fields[i].(string)
		if !ok {
			t.Errorf("Malformed fields slice: key at index %d is not a string, got %T", i, fields[i])
			continue
		}

		fieldsMap[key] = fields[i+1]
	}

	return fieldsMap
}

// LogEntry is one call captured by RecordingLogger
type LogEntry struct {
	Level  string
	Msg    string
	Fields []any
}

// RecordingLogger satisfies logging.Logger and keeps every call
type RecordingLogger struct {
	mu      sync.Mutex
	entries []LogEntry
}

func (r *RecordingLogger) record(level, msg string, fields []any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, LogEntry{Level: level, Msg: msg, Fields: fields})
}

func (r *RecordingLogger) Debug(msg string, fields ...any) { r.record("debug", msg, fields) }
func (r *RecordingLogger) Info(msg string, fields ...any)  { r.record("info", msg, fields) }
func (r *RecordingLogger) Warn(msg string, fields ...any)  { r.record("warn", msg, fields) }
func (r *RecordingLogger) Error(msg string, fields ...any) { r.record("error", msg, fields) }

// Entries returns a snapshot of the captured calls
func (r *RecordingLogger) Entries() []LogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]LogEntry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Count returns how many calls were made at level
func (r *RecordingLogger) Count(level string) int {
	n := 0
	for _, e := range r.Entries() {
		if e.Level == level {
			n++
		}
	}
	return n
}
