// Package maintenance runs the server's periodic housekeeping on a cron
// schedule: purging expired refresh tokens, dropping idle rate-limit
// buckets and probing the database for the health endpoints.
package maintenance

import (
	"context"
	"fmt"
	"time"

	"github.com/hubpessoal/hub/internal/logging"
	"github.com/robfig/cron/v3"
)

const (
	probeTimeout  = 5 * time.Second
	purgeTimeout  = time.Minute
	sweepSchedule = "@every 10m"
)

type TokenPurger interface {
	PurgeExpiredTokens(ctx context.Context, now time.Time) (int64, error)
}

type LimiterSweeper interface {
	Cleanup(idle time.Duration) int
}

type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthReporter interface {
	SetServing(ok bool)
}

// Recorder is the metrics side; *metrics.Metrics satisfies it.
type Recorder interface {
	AddPurgedTokens(n int64)
	SetDatabaseUp(up bool)
}

type Config struct {
	PurgeSchedule string
	ProbeInterval time.Duration
	LimiterIdle   time.Duration
}

// Jobs are the things being maintained. Any of them may be nil.
type Jobs struct {
	Tokens   TokenPurger
	Limiter  LimiterSweeper
	DB       Pinger
	Health   HealthReporter
	Recorder Recorder
}

type Scheduler struct {
	cfg    Config
	jobs   Jobs
	logger logging.Logger
	cron   *cron.Cron
	now    func() time.Time
	up     bool
}

func New(cfg Config, jobs Jobs, l logging.Logger) *Scheduler {
	logger := l.With("module", "maintenance")
	cl := cronLogger{l: logger}
	return &Scheduler{
		cfg:    cfg,
		jobs:   jobs,
		logger: logger,
		cron:   cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		now:    time.Now,
		up:     true,
	}
}

// Start registers the jobs, runs one probe right away and starts the
// scheduler. Jobs run with ctx's values.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.jobs.Tokens != nil {
		if _, err := s.cron.AddFunc(s.cfg.PurgeSchedule, func() { s.PurgeTokens(ctx) }); err != nil {
			return fmt.Errorf("purge schedule %q: %w", s.cfg.PurgeSchedule, err)
		}
	}
	if s.jobs.Limiter != nil && s.cfg.LimiterIdle > 0 {
		if _, err := s.cron.AddFunc(sweepSchedule, s.SweepLimiters); err != nil {
			return err
		}
	}
	if s.jobs.DB != nil && s.cfg.ProbeInterval > 0 {
		every := cron.Every(s.cfg.ProbeInterval)
		s.cron.Schedule(every, cron.FuncJob(func() { s.Probe(ctx) }))
		s.Probe(ctx)
	}

	s.cron.Start()
	return nil
}

// Stop halts scheduling; the returned context is done when running jobs
// have finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) PurgeTokens(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, purgeTimeout)
	defer cancel()

	n, err := s.jobs.Tokens.PurgeExpiredTokens(ctx, s.now())
	if err != nil {
		s.logger.Error(ctx, "refresh token purge failed", "error", err)
		return
	}
	if s.jobs.Recorder != nil {
		s.jobs.Recorder.AddPurgedTokens(n)
	}
	if n > 0 {
		s.logger.Info(ctx, "expired refresh tokens purged", "count", n)
	}
}

func (s *Scheduler) SweepLimiters() {
	if n := s.jobs.Limiter.Cleanup(s.cfg.LimiterIdle); n > 0 {
		s.logger.Debug(context.Background(), "idle rate limiters dropped", "count", n)
	}
}

// Probe pings the database and publishes the result. Only transitions are
// logged.
func (s *Scheduler) Probe(ctx context.Context) {
	pctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	err := s.jobs.DB.PingContext(pctx)
	up := err == nil

	if s.jobs.Health != nil {
		s.jobs.Health.SetServing(up)
	}
	if s.jobs.Recorder != nil {
		s.jobs.Recorder.SetDatabaseUp(up)
	}

	switch {
	case !up && s.up:
		s.logger.Warn(ctx, "database probe failed", "error", err)
	case up && !s.up:
		s.logger.Info(ctx, "database reachable again")
	}
	s.up = up
}

// cronLogger routes cron's own messages into our logger.
type cronLogger struct {
	l logging.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug(context.Background(), msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error(context.Background(), msg, append(keysAndValues, "error", err)...)
}
