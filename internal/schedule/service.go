// Package schedule triggers the poster in-process on a cron expression.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/memohai/sprout/internal/poster"
)

// Runner is the job the schedule triggers.
type Runner interface {
	Run(ctx context.Context) (poster.Result, error)
}

// Service owns the cron scheduler.
type Service struct {
	cron   *cron.Cron
	spec   string
	runner Runner
	logger *slog.Logger
}

// NewService creates a schedule for spec (standard five-field cron). An empty
// spec leaves the schedule disabled.
func NewService(log *slog.Logger, runner Runner, spec string, loc *time.Location) *Service {
	if log == nil {
		log = slog.Default()
	}
	if loc == nil {
		loc = time.UTC
	}
	logger := log.With(slog.String("service", "schedule"))
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.SkipIfStillRunning(cronLogger{logger: logger})),
	)
	return &Service{
		cron:   c,
		spec:   strings.TrimSpace(spec),
		runner: runner,
		logger: logger,
	}
}

// Enabled reports whether a cron expression is configured.
func (s *Service) Enabled() bool {
	return s.spec != ""
}

// Start registers the job and starts the scheduler.
func (s *Service) Start(_ context.Context) error {
	if !s.Enabled() {
		s.logger.Info("schedule disabled")
		return nil
	}
	if _, err := s.cron.AddFunc(s.spec, s.trigger); err != nil {
		return fmt.Errorf("invalid cron %q: %w", s.spec, err)
	}
	s.cron.Start()
	s.logger.Info("schedule started", slog.String("cron", s.spec))
	return nil
}

// Stop stops the scheduler and waits for a running job, bounded by ctx.
func (s *Service) Stop(ctx context.Context) error {
	if !s.Enabled() {
		return nil
	}
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) trigger() {
	result, err := s.runner.Run(context.Background())
	if err != nil {
		s.logger.Error("scheduled post failed", slog.Any("error", err))
		return
	}
	s.logger.Info("scheduled post finished", slog.String("result", string(result)))
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, slog.Any("error", err))...)
}
