package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"github.com/robfig/cron/v3"

	"reelscript/internal/config"
	"reelscript/internal/logging"
	"reelscript/internal/pipeline"
	"reelscript/internal/services"
)

// housekeepingSchedule prunes stale media once an hour.
const housekeepingSchedule = "@hourly"

// Scraper runs a scrape batch. *pipeline.Runner implements it.
type Scraper interface {
	Run(ctx context.Context, req pipeline.Request) (pipeline.Summary, error)
}

// Server is the API front end. *api.Server implements it.
type Server interface {
	Start(ctx context.Context) error
	Stop()
	Addr() string
}

// Daemon coordinates the API server and scheduled scrapes and enforces
// single-instance execution.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	scraper Scraper
	server  Server
	now     func() time.Time

	lockPath string
	lock     *flock.Flock

	mu        sync.Mutex
	scheduler *cron.Cron
	scrapeID  cron.EntryID
	lastRun   time.Time
	lastBatch []pipeline.Summary

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool               `json:"running"`
	LockFilePath string             `json:"lock_file"`
	APIAddress   string             `json:"api_address"`
	Schedule     string             `json:"schedule,omitempty"`
	NextRun      time.Time          `json:"next_run,omitzero"`
	LastRun      time.Time          `json:"last_run,omitzero"`
	LastBatches  []pipeline.Summary `json:"last_batches,omitempty"`
}

// New constructs a daemon. server may be nil to run schedules only.
func New(cfg *config.Config, scraper Scraper, server Server, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || scraper == nil {
		return nil, errors.New("daemon requires config and scraper")
	}
	if cfg.Schedule.Enabled {
		if _, err := ParseSchedule(cfg.Schedule.Cron); err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "daemon", "schedule", err.Error(), nil)
		}
	}
	lockPath := cfg.LockPath()
	return &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		scraper:  scraper,
		server:   server,
		now:      time.Now,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock, starts the API server and schedules.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	if err := os.MkdirAll(filepath.Dir(d.lockPath), 0o755); err != nil {
		return fmt.Errorf("ensure lock directory: %w", err)
	}
	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another reelscript daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	if d.server != nil {
		if err := d.server.Start(runCtx); err != nil {
			cancel()
			_ = d.lock.Unlock()
			return fmt.Errorf("start api: %w", err)
		}
	}

	scheduler := cron.New(
		cron.WithParser(scheduleParser),
		cron.WithLogger(cronLogger{logger: d.logger}),
		cron.WithChain(cron.Recover(cronLogger{logger: d.logger}), cron.SkipIfStillRunning(cronLogger{logger: d.logger})),
	)
	var scrapeID cron.EntryID
	if d.cfg.Schedule.Enabled {
		scrapeID, err = scheduler.AddFunc(d.cfg.Schedule.Cron, func() { d.RunScheduled(runCtx) })
		if err != nil {
			cancel()
			d.stopServer()
			_ = d.lock.Unlock()
			return fmt.Errorf("schedule scrapes: %w", err)
		}
	}
	if d.cfg.Transcription.MediaRetentionDays > 0 {
		if _, err := scheduler.AddFunc(housekeepingSchedule, d.PruneMedia); err != nil {
			cancel()
			d.stopServer()
			_ = d.lock.Unlock()
			return fmt.Errorf("schedule housekeeping: %w", err)
		}
	}
	scheduler.Start()

	d.mu.Lock()
	d.scheduler = scheduler
	d.scrapeID = scrapeID
	d.mu.Unlock()
	d.cancel = cancel
	d.running.Store(true)

	attrs := []logging.Attr{
		logging.String("lock", d.lockPath),
		logging.Bool("schedule_enabled", d.cfg.Schedule.Enabled),
	}
	if d.server != nil {
		attrs = append(attrs, logging.String("api", d.server.Addr()))
	}
	d.logger.Info("reelscript daemon started", logging.Args(attrs...)...)
	return nil
}

// Stop cancels in-flight work, waits for running jobs and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}

	d.mu.Lock()
	scheduler := d.scheduler
	d.scheduler = nil
	d.mu.Unlock()
	if scheduler != nil {
		<-scheduler.Stop().Done()
	}

	d.stopServer()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("reelscript daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	return nil
}

func (d *Daemon) stopServer() {
	if d.server != nil {
		d.server.Stop()
	}
}

// RunScheduled scrapes every configured keyword in order. A blocked scrape
// ends the tick; other failures are logged and the next keyword runs.
func (d *Daemon) RunScheduled(ctx context.Context) []pipeline.Summary {
	started := d.now()
	summaries := make([]pipeline.Summary, 0, len(d.cfg.Schedule.Keywords))
	for _, keyword := range d.cfg.Schedule.Keywords {
		if ctx.Err() != nil {
			break
		}
		summary, err := d.scraper.Run(ctx, pipeline.Request{
			Keyword:       keyword,
			Top:           d.cfg.Schedule.Top,
			MinEngagement: d.cfg.Schedule.MinEngagement,
		})
		summaries = append(summaries, summary)
		if err != nil {
			logging.WarnWithContext(d.logger, "scheduled scrape failed", "scheduled_scrape_failed",
				logging.Keyword(keyword),
				logging.Error(err),
				logging.String(logging.FieldImpact, "pool not refreshed for this keyword"),
			)
			if errors.Is(err, services.ErrScrapeBlocked) {
				break
			}
			continue
		}
		d.logger.Info("scheduled scrape complete",
			logging.Keyword(keyword),
			logging.String(logging.FieldBatchID, summary.BatchID),
			logging.Int("usable", summary.Usable),
			logging.Int("failed", summary.Failed),
		)
	}

	d.mu.Lock()
	d.lastRun = started
	d.lastBatch = summaries
	d.mu.Unlock()
	return summaries
}

// PruneMedia removes downloaded media older than the configured retention.
func (d *Daemon) PruneMedia() {
	removed := logging.PruneOlderThan(d.logger,
		logging.Days(d.cfg.Transcription.MediaRetentionDays), d.now(),
		logging.RetentionTarget{Dir: d.cfg.Paths.MediaDir, Recursive: true},
	)
	if removed > 0 {
		d.logger.Info("media pruned", logging.Int("files", removed))
	}
}

// Status returns a snapshot of the daemon state.
func (d *Daemon) Status() Status {
	st := Status{
		Running:      d.running.Load(),
		LockFilePath: d.lockPath,
	}
	if d.server != nil {
		st.APIAddress = d.server.Addr()
	}
	if d.cfg.Schedule.Enabled {
		st.Schedule = d.cfg.Schedule.Cron
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.scheduler != nil && d.scrapeID != 0 {
		st.NextRun = d.scheduler.Entry(d.scrapeID).Next
	}
	st.LastRun = d.lastRun
	st.LastBatches = append([]pipeline.Summary(nil), d.lastBatch...)
	return st
}
