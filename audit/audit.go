// Package audit records an append-only trail of every engine action:
// what was attempted, by whom, and whether it was granted, denied,
// succeeded or failed. Recording never alters the outcome of the
// operation being recorded.
package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// Outcomes attached to entries. An access check records granted or
// denied; the operation itself records ok or error.
const (
	OutcomeGranted = "granted"
	OutcomeDenied  = "denied"
	OutcomeOK      = "ok"
	OutcomeError   = "error"
)

// Entry is one audit record. Detail is free text: the table touched,
// the grant issued, the error message.
type Entry struct {
	Time    time.Time `json:"time"`
	User    string    `json:"user"`
	Action  string    `json:"action"`
	Detail  string    `json:"detail,omitempty"`
	Outcome string    `json:"outcome"`
}

// Log is an append-only audit trail. With a path it appends one JSON
// line per entry; without one it keeps entries in memory only.
type Log struct {
	mu      sync.Mutex
	path    string
	entries []Entry
}

// NewLog creates an audit log backed by the file at path. An empty
// path keeps the log in memory only.
func NewLog(path string) *Log {
	return &Log{path: path}
}

// Record appends one entry. Failures to write the backing file are
// swallowed: auditing must never fail the operation it describes.
func (l *Log) Record(user, action, detail, outcome string) {
	entry := Entry{
		Time:    time.Now().UTC(),
		User:    user,
		Action:  action,
		Detail:  detail,
		Outcome: outcome,
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, entry)

	if l.path == "" {
		return
	}
	line, err := json.Marshal(entry)
	if err != nil {
		return
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	fmt.Fprintln(f, string(line))
}

// ReadLatest returns the most recent entries, newest first. n <= 0
// returns everything.
func (l *Log) ReadLatest(n int) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	total := len(l.entries)
	if n <= 0 || n > total {
		n = total
	}

	out := make([]Entry, n)
	for i := 0; i < n; i++ {
		out[i] = l.entries[total-1-i]
	}
	return out
}

// Load reads previously written entries back from the backing file so
// ReadLatest covers earlier runs. Missing files are not an error;
// malformed lines are skipped.
func (l *Log) Load() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.path == "" {
		return nil
	}
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("opening audit log: %w", err)
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry Entry
		if json.Unmarshal(scanner.Bytes(), &entry) != nil {
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading audit log: %w", err)
	}

	l.entries = append(entries, l.entries...)
	return nil
}
