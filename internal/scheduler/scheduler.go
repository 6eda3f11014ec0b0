// Package scheduler runs update checks on a fixed interval.
package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
)

var ErrNoInterval = errors.New("scheduler: interval must be positive")

// Checker starts a check. Updaters created with updater.WithScheduled
// satisfy it.
type Checker interface {
	Name() string
	Check(ctx context.Context, force bool) bool
}

// Scheduler periodically asks its checkers to run. A checker that is still
// busy with the previous round simply skips the tick.
type Scheduler struct {
	interval time.Duration
	checkers []Checker
	log      logrus.FieldLogger
}

// New creates a scheduler ticking every interval.
func New(interval time.Duration, log logrus.FieldLogger, checkers ...Checker) *Scheduler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Scheduler{interval: interval, checkers: checkers, log: log}
}

// Run checks once immediately and then on every tick until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.interval <= 0 {
		return ErrNoInterval
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	for _, c := range s.checkers {
		if !c.Check(ctx, false) {
			s.log.WithField("updater", c.Name()).Debug("Skipped scheduled check")
		}
	}
}
