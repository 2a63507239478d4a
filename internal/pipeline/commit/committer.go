// Package commit applies validated per-record writes to the live table, with
// an optional full-table backup taken once before the first write of a pass.
package commit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/hrops/registry/internal/core/domain"
	"github.com/hrops/registry/internal/infra/storage"
	"github.com/hrops/registry/internal/pipeline/metrics"
	"github.com/hrops/registry/internal/pipeline/synthesize"
)

// Config holds the committer settings for a run.
type Config struct {
	BackupBeforeUpdate bool
	BackupDirectory    string
}

// Stats summarizes the write phase of one pass.
type Stats struct {
	Committed   int
	WriteFailed int
	FailedIDs   []int64
	Backup      *storage.BackupHandle
}

// Committer is the sole writer of persisted state. Writes are strictly
// sequential so backup-then-write ordering and partial-failure accounting
// stay deterministic.
type Committer struct {
	store storage.TableStore
	cfg   Config
}

func New(store storage.TableStore, cfg Config) *Committer {
	return &Committer{store: store, cfg: cfg}
}

// Commit applies the validated results one row at a time. A row whose id no
// longer resolves is reported write-failed and skipped; the rest of the queue
// proceeds. Only a backup failure (when backups are enabled) aborts the pass.
func (c *Committer) Commit(ctx context.Context, snapshot []domain.Employee, results []synthesize.Result) (Stats, error) {
	var stats Stats

	queue := make([]synthesize.Result, 0, len(results))
	for _, r := range results {
		if r.State == domain.StateValidated && !r.Updates.Empty() {
			queue = append(queue, r)
		}
	}
	if len(queue) == 0 {
		return stats, nil
	}

	if c.cfg.BackupBeforeUpdate {
		handle, err := c.store.Backup(ctx)
		if err != nil {
			return stats, fmt.Errorf("failed to back up table before commit: %w", err)
		}
		stats.Backup = handle
		metrics.BackupsCreated.Inc()
		slog.Info("Table backup created", "backup", handle.Location)

		if c.cfg.BackupDirectory != "" {
			if err := dumpSnapshot(c.cfg.BackupDirectory, snapshot); err != nil {
				slog.Warn("Could not write snapshot dump", "error", err)
			}
		}
	}

	for _, r := range queue {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		if err := c.store.Write(ctx, r.ID, r.Updates); err != nil {
			if !errors.Is(err, storage.ErrRowNotFound) {
				slog.Error("Row write failed", "id", r.ID, "error", err)
			} else {
				slog.Warn("Row no longer addressable, skipping", "id", r.ID)
			}
			stats.WriteFailed++
			stats.FailedIDs = append(stats.FailedIDs, r.ID)
			metrics.RecordOutcomes.WithLabelValues(metrics.OutcomeWriteFailed).Inc()
			continue
		}

		stats.Committed++
		metrics.RecordOutcomes.WithLabelValues(metrics.OutcomeCommitted).Inc()
		slog.Info("Committed record",
			"id", r.ID,
			"department", r.Employee.Department,
			"designation", r.Employee.Designation,
			"salary_band", r.Employee.SalaryBand,
			"confidence", r.Employee.ConfidenceScore)
	}

	return stats, nil
}

// dumpSnapshot writes the pre-commit snapshot as a timestamped JSON file,
// mirroring the table backup for offline inspection.
func dumpSnapshot(dir string, snapshot []domain.Employee) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	name := fmt.Sprintf("employees_%s.json", time.Now().UTC().Format("20060102_150405"))
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, name), data, 0o644)
}
