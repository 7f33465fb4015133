/*
scheduler.go - Cron schedule for detection and the monthly cycle

PURPOSE:
  Runs the scheduled jobs in-process on cron expressions evaluated in the
  configured time zone (Australia/Brisbane by default):
  - exception check:   every rule, daily
  - payment follow-up: overdue invoice rule, daily
  - monthly cycle:     pending reconciliations for last month, on the 1st

DESIGN:
  - robfig/cron with SkipIfStillRunning, so a slow run is never stacked
  - Jobs go through the Handler, which serialises them with HTTP-triggered
    runs
  - Job errors are logged; the schedule keeps going

USAGE:
  scheduler, err := NewScheduler(handler, cfg, logger)
  scheduler.Start()
  // ... later
  <-scheduler.Stop().Done()

SEE ALSO:
  - exceptions.go: the same jobs over HTTP
*/
package api

import (
	"context"
	"fmt"
	"time"

	"github.com/propertyfriends/pf-engine/period"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// ScheduleConfig holds the cron expressions. An empty expression disables
// that job.
type ScheduleConfig struct {
	Enabled         bool
	ExceptionCheck  string
	PaymentFollowup string
	MonthlyCycle    string
	Location        *time.Location
}

// DefaultScheduleConfig returns the production schedule.
func DefaultScheduleConfig() ScheduleConfig {
	loc, err := time.LoadLocation("Australia/Brisbane")
	if err != nil {
		loc = time.UTC
	}
	return ScheduleConfig{
		Enabled:         true,
		ExceptionCheck:  "0 7 * * *",
		PaymentFollowup: "0 9 * * *",
		MonthlyCycle:    "0 2 1 * *",
		Location:        loc,
	}
}

// Scheduler runs the jobs on their cron schedules.
type Scheduler struct {
	Handler *Handler
	Enabled bool

	cron   *cron.Cron
	logger logrus.FieldLogger
	loc    *time.Location
}

// NewScheduler registers the configured jobs. It fails on a malformed cron
// expression.
func NewScheduler(h *Handler, cfg ScheduleConfig, logger logrus.FieldLogger) (*Scheduler, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	s := &Scheduler{
		Handler: h,
		Enabled: cfg.Enabled,
		logger:  logger.WithField("component", "scheduler"),
		loc:     cfg.Location,
	}
	s.cron = cron.New(
		cron.WithLocation(cfg.Location),
		cron.WithChain(cron.Recover(cronLogger{s.logger}), cron.SkipIfStillRunning(cronLogger{s.logger})),
	)

	jobs := []struct {
		name string
		spec string
		run  func(context.Context) error
	}{
		{"exception_check", cfg.ExceptionCheck, s.ExceptionCheck},
		{"payment_followup", cfg.PaymentFollowup, s.PaymentFollowup},
		{"monthly_cycle", cfg.MonthlyCycle, s.MonthlyCycle},
	}
	for _, j := range jobs {
		if j.spec == "" {
			continue
		}
		j := j
		if _, err := s.cron.AddFunc(j.spec, func() { s.runJob(j.name, j.run) }); err != nil {
			return nil, fmt.Errorf("invalid %s schedule %q: %w", j.name, j.spec, err)
		}
	}
	return s, nil
}

// Start begins running jobs. A disabled scheduler does nothing.
func (s *Scheduler) Start() {
	if !s.Enabled {
		s.logger.Info("scheduler disabled, not starting")
		return
	}
	s.cron.Start()
	s.logger.WithField("jobs", len(s.cron.Entries())).Info("scheduler started")
}

// Stop stops scheduling and returns a context done when running jobs end.
func (s *Scheduler) Stop() context.Context {
	ctx := s.cron.Stop()
	s.logger.Info("scheduler stopped")
	return ctx
}

// Entries returns the registered cron entries.
func (s *Scheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}

func (s *Scheduler) runJob(name string, run func(context.Context) error) {
	start := time.Now()
	log := s.logger.WithField("job", name)
	if err := run(context.Background()); err != nil {
		log.WithError(err).Error("scheduled job failed")
		return
	}
	log.WithField("duration", time.Since(start).String()).Info("scheduled job complete")
}

// ExceptionCheck runs every detection rule.
func (s *Scheduler) ExceptionCheck(ctx context.Context) error {
	summary, err := s.Handler.CheckExceptions(ctx)
	s.logger.WithField("total", summary.Total).Debug("exception check summary")
	return err
}

// PaymentFollowup runs the overdue invoice rule.
func (s *Scheduler) PaymentFollowup(ctx context.Context) error {
	_, err := s.Handler.FollowUpPayments(ctx)
	return err
}

// MonthlyCycle creates last month's pending reconciliations. Last month is
// taken in the scheduler's time zone.
func (s *Scheduler) MonthlyCycle(ctx context.Context) error {
	p := period.Of(s.Handler.now().In(s.loc)).Previous()
	_, err := s.Handler.RunCycle(ctx, p)
	return err
}

// cronLogger adapts logrus to cron.Logger.
type cronLogger struct {
	logger logrus.FieldLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.WithFields(fields(keysAndValues)).Debug(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.WithError(err).WithFields(fields(keysAndValues)).Error(msg)
}

func fields(kv []any) logrus.Fields {
	f := logrus.Fields{}
	for i := 0; i+1 < len(kv); i += 2 {
		f[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return f
}
