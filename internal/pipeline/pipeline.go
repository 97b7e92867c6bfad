// Run one scrape: pick a batch source, merge into the stored dataset, write outputs
// Only one run per output directory at a time (flock)

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"pulse-job-scraper/internal/config"
	"pulse-job-scraper/internal/dedup"
	"pulse-job-scraper/internal/fixture"
	"pulse-job-scraper/internal/models"
	"pulse-job-scraper/internal/output"
	"pulse-job-scraper/internal/scraper"
	"pulse-job-scraper/internal/scraper/pulse"
	"pulse-job-scraper/internal/store"
	"pulse-job-scraper/internal/telegram"

	"github.com/gofrs/flock"
)

// ErrAlreadyRunning means another run holds the output directory lock.
var ErrAlreadyRunning = errors.New("another scrape is already running")

const lockFile = ".scrape.lock"

// Notifier receives the outcome of a run. *telegram.Bot satisfies it.
type Notifier interface {
	SendSummary(s telegram.Summary) error
	SendError(err error) error
}

// Result describes a completed run.
type Result struct {
	Source   models.BatchSource
	Fallback bool
	Batch    int
	Stats    dedup.Stats
	Output   output.Summary
}

type Runner struct {
	cfg        *config.Config
	logger     *log.Logger
	live       scraper.Source
	reconciler *dedup.Reconciler
	emitter    *output.Emitter
	notifier   Notifier
	now        func() time.Time
}

type Option func(*Runner)

// WithLiveSource replaces the browser-backed source.
func WithLiveSource(s scraper.Source) Option {
	return func(r *Runner) { r.live = s }
}

func WithNotifier(n Notifier) Option {
	return func(r *Runner) { r.notifier = n }
}

func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

func New(cfg *config.Config, logger *log.Logger, opts ...Option) *Runner {
	r := &Runner{
		cfg:        cfg,
		logger:     logger,
		live:       pulse.NewSource(cfg, logger),
		reconciler: dedup.NewReconciler(cfg.Retention.PruneAfter, logger),
		emitter:    output.NewEmitter(cfg, logger),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the whole pipeline once. On error no output file has been changed.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	start := r.now()

	if err := os.MkdirAll(r.cfg.Output.Dir, 0o755); err != nil {
		return Result{}, fmt.Errorf("create output dir: %w", err)
	}
	lock := flock.New(filepath.Join(r.cfg.Output.Dir, lockFile))
	locked, err := lock.TryLock()
	if err != nil {
		return Result{}, fmt.Errorf("lock output dir: %w", err)
	}
	if !locked {
		return Result{}, ErrAlreadyRunning
	}
	defer lock.Unlock()

	res, err := r.run(ctx)
	if err != nil {
		r.logger.Printf("❌ Run failed: %v", err)
		r.notifyError(err)
		return res, err
	}

	r.logger.Printf("✅ Run complete: %d jobs from %s source in %s", res.Batch, res.Source, r.now().Sub(start).Round(time.Millisecond))
	r.notifySummary(res, r.now().Sub(start))
	return res, nil
}

func (r *Runner) run(ctx context.Context) (Result, error) {
	batch, source, fellBack, err := r.collect(ctx)
	if err != nil {
		return Result{}, err
	}

	paths := store.PathsFor(r.cfg.Output)
	existing, err := store.Load(paths)
	if err != nil {
		return Result{}, err
	}
	r.logger.Printf("📚 Loaded %d stored jobs from %s", len(existing.Jobs), paths.Dataset)

	now := r.now()
	merged, stats := r.reconciler.Merge(existing, batch, now)
	merged.Meta.TenantID = r.cfg.Tenant.ID
	merged.Meta.Source = source

	summary, err := r.emitter.Emit(ctx, merged, now)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Source:   source,
		Fallback: fellBack,
		Batch:    len(batch),
		Stats:    stats,
		Output:   summary,
	}, nil
}

// collect picks the batch source: a forced fixture, else the live render with the
// fallback fixture substituted on render, navigation or extraction failure.
func (r *Runner) collect(ctx context.Context) ([]models.JobRecord, models.BatchSource, bool, error) {
	fb := r.cfg.Fallback
	if fb.ForceFixture != "" {
		src := fixture.NewSource(fb.ForceFixture, r.cfg.Tenant, r.logger)
		r.logger.Printf("📂 Using fixture %s instead of the live listing", src.Path())
		batch, err := src.Batch(ctx)
		return batch, src.Name(), false, err
	}

	batch, err := r.live.Batch(ctx)
	if err == nil {
		return batch, r.live.Name(), false, nil
	}
	if !scraper.IsFallbackEligible(err) {
		return nil, "", false, err
	}
	if fb.Disabled {
		r.logger.Printf("❌ Live scrape failed and fallback is disabled: %v", err)
		return nil, "", false, err
	}

	src := fixture.NewSource(fb.FixturePath, r.cfg.Tenant, r.logger)
	r.logger.Printf("⚠️ Live scrape failed (%v); activating fixture fallback %s", err, src.Path())
	batch, fbErr := src.Batch(ctx)
	if fbErr != nil {
		return nil, "", false, fmt.Errorf("%w (fixture fallback failed: %v)", err, fbErr)
	}
	return batch, src.Name(), true, nil
}

func (r *Runner) notifySummary(res Result, took time.Duration) {
	if r.notifier == nil {
		return
	}
	err := r.notifier.SendSummary(telegram.Summary{
		Tenant:    r.cfg.Tenant.Name,
		Source:    string(res.Source),
		Fallback:  res.Fallback,
		Batch:     res.Batch,
		Inserted:  res.Stats.Inserted,
		Updated:   res.Stats.Updated,
		Changed:   res.Stats.Changed,
		Total:     res.Output.Records,
		FeedItems: res.Output.FeedItems,
		Duration:  took,
	})
	if err != nil {
		r.logger.Printf("⚠️ Failed to send run summary: %v", err)
	}
}

func (r *Runner) notifyError(runErr error) {
	if r.notifier == nil {
		return
	}
	if err := r.notifier.SendError(runErr); err != nil {
		r.logger.Printf("⚠️ Failed to send failure notice: %v", err)
	}
}
