package db

import (
	"path/filepath"
	"testing"
)

func TestOpenMemory(t *testing.T) {
	d, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() error: %v", err)
	}
	defer d.Close()

	// Verify tables exist by counting rows in each one.
	tables := []string{
		"intake_sessions", "intake_messages", "audit_entries",
		"expert_selections", "meeting_counts",
	}

	for _, table := range tables {
		var count int
		err := d.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count)
		if err != nil {
			t.Errorf("table %s: %v", table, err)
		}
	}
}

func TestMigrateIdempotent(t *testing.T) {
	d, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() error: %v", err)
	}
	defer d.Close()

	// Running migrate again should not fail.
	if err := d.migrate(); err != nil {
		t.Fatalf("second migrate() error: %v", err)
	}
}

func TestOpenCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "casebrief.db")
	d, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer d.Close()

	if d.Path() != path {
		t.Errorf("Path() = %q, want %q", d.Path(), path)
	}
	if _, err := d.Exec(`INSERT INTO intake_sessions (id) VALUES ('s1')`); err != nil {
		t.Fatalf("insert: %v", err)
	}
}

func TestMessageRoleConstraint(t *testing.T) {
	d, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() error: %v", err)
	}
	defer d.Close()

	if _, err := d.Exec(`INSERT INTO intake_sessions (id) VALUES ('s1')`); err != nil {
		t.Fatal(err)
	}
	if _, err := d.Exec(`INSERT INTO intake_messages (id, session_id, seq, role, content) VALUES ('m1', 's1', 1, 'user', 'hi')`); err != nil {
		t.Fatal(err)
	}
	if _, err := d.Exec(`INSERT INTO intake_messages (id, session_id, seq, role, content) VALUES ('m2', 's1', 2, 'robot', 'hi')`); err == nil {
		t.Error("expected role check constraint to reject 'robot'")
	}
}
