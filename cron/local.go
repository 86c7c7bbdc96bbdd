package cron

import (
	"context"
	"fmt"
	"time"

	robfig "github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// LocalScheduler runs the periodic tasks in-process, for single-instance deployments.
type LocalScheduler struct {
	c      *robfig.Cron
	logger *zap.Logger
}

// NewLocalScheduler registers every entry of s. A run still in progress when its next tick fires is skipped.
func NewLocalScheduler(jobs *Jobs, s Schedule, loc *time.Location, logger *zap.Logger) (*LocalScheduler, error) {
	entries, err := jobs.entries(s)
	if err != nil {
		return nil, err
	}
	cl := cronLogger{logger.Sugar()}
	c := robfig.New(
		robfig.WithLocation(loc),
		robfig.WithLogger(cl),
		robfig.WithChain(robfig.Recover(cl), robfig.SkipIfStillRunning(cl)),
	)
	for _, e := range entries {
		spec, taskType := e[0], e[1]
		if _, err := c.AddFunc(spec, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			_ = jobs.Run(ctx, taskType)
		}); err != nil {
			return nil, fmt.Errorf("register %s (%s): %w", taskType, spec, err)
		}
	}
	return &LocalScheduler{c: c, logger: logger}, nil
}

func (l *LocalScheduler) Start() {
	l.c.Start()
	l.logger.Info("local scheduler started", zap.Int("entries", len(l.c.Entries())))
}

// Stop waits for running jobs to finish or ctx to end.
func (l *LocalScheduler) Stop(ctx context.Context) {
	select {
	case <-l.c.Stop().Done():
	case <-ctx.Done():
	}
}

// cronLogger satisfies robfig's Logger.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
