package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/karloscodes/cartridge"

	"studiodash/internal/config"
)

// Job is a unit of periodic background work.
type Job interface {
	Run() error
}

type scheduledJob struct {
	name     string
	interval time.Duration
	job      Job
}

// Scheduler runs registered jobs on their own tickers. It implements
// cartridge.BackgroundWorker.
type Scheduler struct {
	logger    *slog.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	isRunning bool
	jobs      []scheduledJob
	tickers   []*time.Ticker
	wg        sync.WaitGroup

	// One job at a time; SQLite serialises writers anyway.
	processingMutex sync.Mutex
	isProcessing    bool
}

// NewScheduler creates a scheduler with the retention job registered.
func NewScheduler(dbManager cartridge.DBManager, logger *slog.Logger, cfg *config.Config) *Scheduler {
	s := NewEmptyScheduler(logger)
	interval := time.Duration(cfg.JobIntervalSeconds) * time.Second
	s.Register("import_retention", interval, NewRetentionJob(dbManager, logger, cfg.ImportRetentionDays))
	return s
}

// NewEmptyScheduler creates a scheduler without jobs.
func NewEmptyScheduler(logger *slog.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Register adds a job. Jobs registered after Start are not scheduled.
func (s *Scheduler) Register(name string, interval time.Duration, job Job) {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	s.jobs = append(s.jobs, scheduledJob{name: name, interval: interval, job: job})
}

// executeJobSafely runs a job only if no other job is currently executing
func (s *Scheduler) executeJobSafely(jobName string, run func() error) {
	s.processingMutex.Lock()
	if s.isProcessing {
		s.logger.Debug("Skipping job execution - previous job still running", slog.String("job", jobName))
		s.processingMutex.Unlock()
		return
	}
	s.isProcessing = true
	s.processingMutex.Unlock()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Panic recovered in background job",
				slog.String("job", jobName),
				slog.Any("panic", r))
		}

		s.processingMutex.Lock()
		s.isProcessing = false
		s.processingMutex.Unlock()
	}()

	if err := run(); err != nil {
		s.logger.Error("Error executing job", slog.String("job", jobName), slog.Any("error", err))
	}
}

// Start runs every job once and then on its interval.
func (s *Scheduler) Start() error {
	if s.isRunning {
		s.logger.Info("Background jobs already running.")
		return nil
	}
	s.isRunning = true

	for _, sj := range s.jobs {
		s.logger.Info("Starting job", slog.String("job", sj.name), slog.Duration("interval", sj.interval))
		ticker := time.NewTicker(sj.interval)
		s.tickers = append(s.tickers, ticker)

		s.wg.Add(1)
		go func(sj scheduledJob, ticker *time.Ticker) {
			defer s.wg.Done()
			s.executeJobSafely(sj.name, sj.job.Run)

			for {
				select {
				case <-ticker.C:
					s.executeJobSafely(sj.name, sj.job.Run)
				case <-s.ctx.Done():
					s.logger.Info("Job stopped", slog.String("job", sj.name))
					return
				}
			}
		}(sj, ticker)
	}

	s.logger.Info("Background jobs started", slog.Int("jobs", len(s.jobs)))
	return nil
}

// Stop halts all background jobs and waits for running ones to return.
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping background jobs...")
	for _, t := range s.tickers {
		t.Stop()
	}
	s.cancel()
	s.wg.Wait()
	s.isRunning = false
	s.logger.Info("Background jobs stopped")
}

// IsRunning returns whether jobs are currently running
func (s *Scheduler) IsRunning() bool {
	return s.isRunning
}

// RunNow executes a registered job synchronously, e.g. from the CLI.
func (s *Scheduler) RunNow(name string) bool {
	for _, sj := range s.jobs {
		if sj.name == name {
			s.executeJobSafely(sj.name, sj.job.Run)
			return true
		}
	}
	return false
}
