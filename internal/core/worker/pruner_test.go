package worker

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestPrune_RemovesOnlyExpiredDumps(t *testing.T) {
	dir := t.TempDir()

	old := filepath.Join(dir, "employees_20240101_000000.json")
	fresh := filepath.Join(dir, "employees_20250601_000000.json")
	unrelated := filepath.Join(dir, "notes.json")
	for _, path := range []string{old, fresh, unrelated} {
		if err := os.WriteFile(path, []byte("[]"), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	stale := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(old, stale, stale); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	p := NewPruner(dir, 24*time.Hour)
	p.prune()

	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Error("expired dump not removed")
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Errorf("fresh dump removed: %v", err)
	}
	if _, err := os.Stat(unrelated); err != nil {
		t.Errorf("unrelated file removed: %v", err)
	}
}
