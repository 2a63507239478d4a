// Package worker holds background maintenance loops that run beside the
// classification passes.
package worker

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Pruner deletes old snapshot dumps based on retention policy. Zero retention
// keeps every dump.
type Pruner struct {
	dir       string
	retention time.Duration
}

// NewPruner creates a new Pruner worker for a dump directory.
func NewPruner(dir string, retention time.Duration) *Pruner {
	return &Pruner{dir: dir, retention: retention}
}

// Start runs the pruner loop.
func (p *Pruner) Start(ctx context.Context) {
	if p.retention <= 0 || p.dir == "" {
		return // Retention disabled
	}

	// Check interval: 10% of the retention period, clamped to [1m, 1h]
	interval := min(p.retention/10, 1*time.Hour)
	interval = max(interval, 1*time.Minute)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Initial prune
	p.prune()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.prune()
		}
	}
}

func (p *Pruner) prune() {
	cutoff := time.Now().Add(-p.retention)

	matches, err := filepath.Glob(filepath.Join(p.dir, "employees_*.json"))
	if err != nil {
		slog.Error("[Pruner] failed to list snapshot dumps", "dir", p.dir, "error", err)
		return
	}

	var removed int
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(path); err != nil {
				slog.Error("[Pruner] failed to remove snapshot dump", "path", path, "error", err)
				continue
			}
			removed++
		}
	}
	if removed > 0 {
		slog.Info("[Pruner] removed expired snapshot dumps", "count", removed, "dir", p.dir)
	}
}
