package database

import (
	"testing"
	"testing/fstest"
)

func TestMigrationVersion(t *testing.T) {
	tests := []struct {
		name    string
		version int
		ok      bool
	}{
		{"001_initial_schema.sql", 1, true},
		{"012_add_index.sql", 12, true},
		{"README.md", 0, false},
		{"001_initial_schema.sql.bak", 0, false},
		{"000_zero.sql", 0, false},
		{"abc_initial.sql", 0, false},
		{"001.sql", 0, false},
	}
	for _, tc := range tests {
		v, ok := migrationVersion(tc.name)
		if v != tc.version || ok != tc.ok {
			t.Errorf("%s: expected (%d, %v), got (%d, %v)", tc.name, tc.version, tc.ok, v, ok)
		}
	}
}

func TestListMigrations_SortedAndFiltered(t *testing.T) {
	fsys := fstest.MapFS{
		"010_later.sql":          {Data: []byte("SELECT 1")},
		"002_second.sql":         {Data: []byte("SELECT 1")},
		"001_initial_schema.sql": {Data: []byte("SELECT 1")},
		"notes.txt":              {Data: []byte("x")},
		"archive/003_old.sql":    {Data: []byte("SELECT 1")},
	}

	got, err := listMigrations(fsys)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []int{1, 2, 10}
	if len(got) != len(want) {
		t.Fatalf("expected %d migrations, got %+v", len(want), got)
	}
	for i, m := range got {
		if m.version != want[i] {
			t.Errorf("position %d: expected version %d, got %d", i, want[i], m.version)
		}
	}
}

func TestListMigrations_DuplicateVersion(t *testing.T) {
	fsys := fstest.MapFS{
		"001_a.sql": {Data: []byte("SELECT 1")},
		"001_b.sql": {Data: []byte("SELECT 1")},
	}
	if _, err := listMigrations(fsys); err == nil {
		t.Fatal("expected duplicate version error")
	}
}
