package secrets

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestEnvStoreLookup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "secrets.env")
	if err := os.WriteFile(path, []byte("FILE_ONLY_KEY=from-file\nSHADOWED_KEY=from-file\nBLANK_KEY=\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SHADOWED_KEY", "from-env")

	store, err := NewEnvStore(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name    string
		key     string
		want    string
		wantErr bool
	}{
		{"file value", "FILE_ONLY_KEY", "from-file", false},
		{"env wins over file", "SHADOWED_KEY", "from-env", false},
		{"blank counts as missing", "BLANK_KEY", "", true},
		{"absent", "NO_SUCH_SECRET_KEY", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.Lookup(tt.key)
			if tt.wantErr {
				if !errors.Is(err, ErrNotFound) {
					t.Fatalf("expected ErrNotFound, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewEnvStoreMissingFile(t *testing.T) {
	store, err := NewEnvStore(filepath.Join(t.TempDir(), "absent.env"))
	if err != nil {
		t.Fatalf("missing file should be tolerated, got %v", err)
	}
	if _, err := store.Lookup("NO_SUCH_SECRET_KEY"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStatic(t *testing.T) {
	s := Static{"KEY": " abc "}
	if v, err := s.Lookup("KEY"); err != nil || v != "abc" {
		t.Errorf("got %q, %v", v, err)
	}
	if _, err := s.Lookup("OTHER"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
