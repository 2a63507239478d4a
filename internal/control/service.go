// Package control wires the registry pipeline together and manages its
// lifecycle: periodic classification passes, the HTTP health/metrics
// endpoint, and graceful shutdown.
package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"

	"github.com/hrops/registry/internal/core/config"
	"github.com/hrops/registry/internal/core/domain"
	"github.com/hrops/registry/internal/core/rules"
	"github.com/hrops/registry/internal/core/worker"
	"github.com/hrops/registry/internal/infra/decision"
	redisclient "github.com/hrops/registry/internal/infra/redis"
	"github.com/hrops/registry/internal/infra/storage"
	"github.com/hrops/registry/internal/infra/storage/memory"
	"github.com/hrops/registry/internal/infra/storage/postgres"
	"github.com/hrops/registry/internal/pipeline/commit"
	"github.com/hrops/registry/internal/pipeline/metrics"
	"github.com/hrops/registry/internal/pipeline/plan"
	"github.com/hrops/registry/internal/pipeline/synthesize"
)

// ErrRunInProgress is returned when another process holds the run lock.
var ErrRunInProgress = errors.New("another classification run is in progress")

// runLockTTL bounds how long a crashed run can block its successors.
const runLockTTL = 30 * time.Minute

// Config holds the application configuration.
type Config struct {
	Port       int
	Database   postgres.Config
	Redis      redisclient.Config
	Decision   config.DecisionConfig
	Processing config.ProcessingConfig
	Rules      rules.Thresholds
	DryRun     bool
}

// Summary is the user-visible result of one pass. Every pass ends with one;
// there is no silent partial success.
type Summary struct {
	RunID        string        `json:"run_id"`
	Scanned      int           `json:"scanned"`
	Skipped      int           `json:"skipped"`
	Planned      int           `json:"planned"`
	Committed    int           `json:"committed"`
	Unresolvable int           `json:"unresolvable"`
	WriteFailed  int           `json:"write_failed"`
	InvalidDate  int           `json:"invalid_date"`
	Backup       string        `json:"backup,omitempty"`
	Started      time.Time     `json:"started"`
	Duration     time.Duration `json:"duration"`
}

// Service owns the pipeline components and runs classification passes.
type Service struct {
	cfg        Config
	store      storage.TableStore
	classifier decision.Classifier
	planner    *plan.Planner
	synth      *synthesize.Synthesizer
	committer  *commit.Committer
	redis      *redisclient.Client
	server     *Server
	pruner     *worker.Pruner

	mu          sync.Mutex
	lastSummary *Summary
}

// NewService creates a Service with all dependencies initialized from config.
func NewService(cfg Config) (*Service, error) {
	var store storage.TableStore

	if cfg.Database.URL != "" {
		db, err := postgres.NewDB(context.Background(), cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to init db: %w", err)
		}
		if err := goose.SetDialect("postgres"); err != nil {
			return nil, err
		}
		if err := goose.Up(db.DB.DB, "migrations"); err != nil {
			return nil, fmt.Errorf("failed to migrate db: %w", err)
		}
		store = postgres.NewEmployeeRepo(db)
		slog.Info("Using PostgreSQL storage")
	} else {
		store = memory.NewStore(nil)
		slog.Warn("No database configured, using in-memory storage")
	}

	classifier, err := newClassifier(cfg)
	if err != nil {
		return nil, err
	}

	var redisClient *redisclient.Client
	if cfg.Redis.URL != "" {
		redisClient, err = redisclient.NewClient(cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to init redis: %w", err)
		}
		slog.Info("Run lock enabled via Redis")
	}

	return newService(cfg, store, classifier, redisClient), nil
}

// newService wires a Service from explicit dependencies. Tests use this to
// inject stores and classifiers.
func newService(cfg Config, store storage.TableStore, classifier decision.Classifier, redisClient *redisclient.Client) *Service {
	s := &Service{
		cfg:        cfg,
		store:      store,
		classifier: classifier,
		planner:    plan.New(cfg.Rules),
		synth:      synthesize.New(classifier, cfg.Rules),
		committer: commit.New(store, commit.Config{
			BackupBeforeUpdate: cfg.Processing.BackupEnabled(),
			BackupDirectory:    cfg.Processing.BackupDirectory,
		}),
		redis:  redisClient,
		pruner: worker.NewPruner(cfg.Processing.BackupDirectory, cfg.Processing.BackupRetention),
	}
	s.server = NewServer(s, cfg.Port)
	return s
}

func newClassifier(cfg Config) (decision.Classifier, error) {
	provider := providerName(cfg.Decision.Provider)

	var inner decision.Classifier
	switch provider {
	case "gemini":
		g, err := decision.NewGemini(context.Background(), decision.GeminiConfig{
			APIKey:  cfg.Decision.APIKey,
			Model:   cfg.Decision.Model,
			Timeout: cfg.Decision.Timeout,
		}, cfg.Rules)
		if err != nil {
			return nil, fmt.Errorf("failed to init gemini provider: %w", err)
		}
		inner = g
	case "baseline":
		inner = decision.NewBaseline(cfg.Rules)
	default:
		return nil, fmt.Errorf("unknown decision provider %q", cfg.Decision.Provider)
	}

	instrumented := decision.NewInstrumented(inner, provider)
	return decision.NewRetrying(instrumented, decision.RetryConfig{
		MaxAttempts:  cfg.Decision.RetryCount,
		InitialDelay: cfg.Decision.RetryDelay,
	}), nil
}

// providerName normalizes the configured provider for wiring and metric
// labels. Empty means the offline baseline.
func providerName(p string) string {
	if p == "" {
		return "baseline"
	}
	return p
}

// Start launches the HTTP server and the pass loop. Non-blocking.
func (s *Service) Start(ctx context.Context) error {
	go func() {
		if err := s.server.Start(); err != nil {
			slog.Error("HTTP server stopped", "error", err)
		}
	}()

	go s.pruner.Start(ctx)
	go s.loop(ctx)
	return nil
}

// Stop shuts the HTTP server down gracefully.
func (s *Service) Stop(ctx context.Context) error {
	return s.server.Stop(ctx)
}

func (s *Service) loop(ctx context.Context) {
	// First pass immediately, then on every tick.
	if _, err := s.RunPass(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("Classification pass failed", "error", err)
	}

	ticker := time.NewTicker(s.cfg.Processing.ScanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.RunPass(ctx); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("Classification pass failed", "error", err)
			}
		}
	}
}

// RunPass executes one full scan-plan-classify-commit pass over the table.
func (s *Service) RunPass(ctx context.Context) (*Summary, error) {
	runID := uuid.NewString()

	if s.redis != nil {
		ok, err := s.redis.AcquireRunLock(ctx, runID, runLockTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to acquire run lock: %w", err)
		}
		if !ok {
			return nil, ErrRunInProgress
		}
		defer func() {
			releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.redis.ReleaseRunLock(releaseCtx, runID); err != nil {
				slog.Warn("Could not release run lock", "error", err)
			}
		}()
	}

	started := time.Now()
	slog.Info("Starting classification pass", "run_id", runID)

	snapshot, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load table: %w", err)
	}

	planned := s.planner.Plan(snapshot, started)
	summary := &Summary{
		RunID:       runID,
		Scanned:     len(snapshot),
		Skipped:     planned.Skipped,
		Planned:     len(planned.Changes),
		InvalidDate: len(planned.InvalidDate),
		Started:     started,
	}
	metrics.RecordOutcomes.WithLabelValues(metrics.OutcomeSkipped).Add(float64(planned.Skipped))
	metrics.RecordOutcomes.WithLabelValues(metrics.OutcomeInvalidDate).Add(float64(len(planned.InvalidDate)))

	if s.cfg.DryRun {
		for _, c := range planned.Changes {
			slog.Info("Would classify", "id", c.Employee.ID, "name", c.Employee.Name, "reasons", c.Reasons)
		}
		s.finish(summary)
		return summary, nil
	}

	results := s.synth.Run(ctx, planned.Changes, s.cfg.Processing.Concurrency)
	for _, r := range results {
		if r.State == domain.StateUnresolvable {
			slog.Error("Record unresolvable", "id", r.ID, "error", r.Err)
			summary.Unresolvable++
			metrics.RecordOutcomes.WithLabelValues(metrics.OutcomeUnresolvable).Inc()
		}
	}
	if err := ctx.Err(); err != nil {
		s.finish(summary)
		return summary, err
	}

	stats, err := s.committer.Commit(ctx, snapshot, results)
	summary.Committed = stats.Committed
	summary.WriteFailed = stats.WriteFailed
	if stats.Backup != nil {
		summary.Backup = stats.Backup.Location
	}
	if err != nil {
		// An aborted commit phase still ends with a recorded summary.
		s.finish(summary)
		return summary, err
	}

	s.finish(summary)
	return summary, nil
}

func (s *Service) finish(summary *Summary) {
	summary.Duration = time.Since(summary.Started)
	metrics.PassDuration.Observe(summary.Duration.Seconds())
	metrics.LastPassTimestamp.SetToCurrentTime()

	s.mu.Lock()
	s.lastSummary = summary
	s.mu.Unlock()

	slog.Info("Classification pass finished",
		"run_id", summary.RunID,
		"scanned", summary.Scanned,
		"skipped", summary.Skipped,
		"committed", summary.Committed,
		"unresolvable", summary.Unresolvable,
		"write_failed", summary.WriteFailed,
		"invalid_date", summary.InvalidDate,
		"duration", summary.Duration.Round(time.Millisecond))
}

// LastSummary returns the most recent pass summary, if any.
func (s *Service) LastSummary() *Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSummary
}

// ResetProcessed clears the processed flag on every row so the next pass
// reclassifies the whole table.
func (s *Service) ResetProcessed(ctx context.Context) (int64, error) {
	return s.store.ResetProcessed(ctx)
}
