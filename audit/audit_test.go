package audit

import (
	"path/filepath"
	"testing"
)

func TestRecordAndReadLatest(t *testing.T) {
	log := NewLog("")

	log.Record("aether", "login", "", OutcomeOK)
	log.Record("ada", "select", "table users", OutcomeGranted)
	log.Record("ada", "insert", "table users", OutcomeDenied)

	entries := log.ReadLatest(2)
	if len(entries) != 2 {
		t.Fatalf("Got %d entries, expected 2", len(entries))
	}
	// Newest first
	if entries[0].Action != "insert" || entries[0].Outcome != OutcomeDenied {
		t.Errorf("Unexpected first entry: %+v", entries[0])
	}
	if entries[1].Action != "select" {
		t.Errorf("Unexpected second entry: %+v", entries[1])
	}

	if got := len(log.ReadLatest(0)); got != 3 {
		t.Errorf("ReadLatest(0) returned %d entries, expected all 3", got)
	}
	if got := len(log.ReadLatest(100)); got != 3 {
		t.Errorf("ReadLatest(100) returned %d entries, expected 3", got)
	}
}

func TestFileBackedLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")

	log := NewLog(path)
	log.Record("aether", "create_table", "table users", OutcomeOK)
	log.Record("aether", "save", "file db.aether", OutcomeOK)

	// A fresh log over the same file sees earlier runs after Load
	reopened := NewLog(path)
	if err := reopened.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	entries := reopened.ReadLatest(0)
	if len(entries) != 2 {
		t.Fatalf("Got %d entries after reload, expected 2", len(entries))
	}
	if entries[0].Action != "save" || entries[1].Action != "create_table" {
		t.Errorf("Unexpected order after reload: %+v", entries)
	}
	if entries[0].User != "aether" {
		t.Errorf("Unexpected user: %q", entries[0].User)
	}
}

func TestLoadUnreadableFile(t *testing.T) {
	// A directory at the log path cannot be read as a log; Load must
	// say so instead of quietly starting empty
	log := NewLog(t.TempDir())
	if err := log.Load(); err == nil {
		t.Error("Expected an error loading a directory as an audit log")
	}
}

func TestLoadMissingFile(t *testing.T) {
	log := NewLog(filepath.Join(t.TempDir(), "nope.log"))
	if err := log.Load(); err != nil {
		t.Errorf("Load of missing file failed: %v", err)
	}
	if len(log.ReadLatest(0)) != 0 {
		t.Error("Expected no entries")
	}
}
