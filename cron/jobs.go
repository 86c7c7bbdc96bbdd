package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lendmark/models"
	"lendmark/utils"

	"go.uber.org/zap"
)

// Task types.
const (
	TypeLifecycleFinish = "lifecycle:finish"
	TypeLifecycleExpire = "lifecycle:expire"
	TypeAlertsPush      = "alerts:push"
)

// LifecyclePasses is the sweeper surface the scheduler drives.
type LifecyclePasses interface {
	RunFinishPass(ctx context.Context, now time.Time) (models.SweepResult, error)
	RunExpirePass(ctx context.Context, now time.Time) (models.SweepResult, error)
}

// AlertPusher is the notification surface the scheduler drives.
type AlertPusher interface {
	PushDueAlerts(ctx context.Context) (int, error)
}

// Schedule holds the cron specs for each periodic task. An empty AlertPush disables alert pushes.
type Schedule struct {
	Finish    string
	Expire    string
	AlertPush string
}

// Jobs runs the periodic tasks. Each run reads the clock once.
type Jobs struct {
	sweeper LifecyclePasses
	alerts  AlertPusher
	clock   utils.Clock
	logger  *zap.Logger
}

// NewJobs builds the job set. alerts may be nil.
func NewJobs(sweeper LifecyclePasses, alerts AlertPusher, clock utils.Clock, logger *zap.Logger) *Jobs {
	return &Jobs{sweeper: sweeper, alerts: alerts, clock: clock, logger: logger}
}

// Run executes the task of the given type.
func (j *Jobs) Run(ctx context.Context, taskType string) error {
	start := time.Now()
	var (
		res models.SweepResult
		err error
	)
	switch taskType {
	case TypeLifecycleFinish:
		res, err = j.sweeper.RunFinishPass(ctx, j.clock.Now())
	case TypeLifecycleExpire:
		res, err = j.sweeper.RunExpirePass(ctx, j.clock.Now())
	case TypeAlertsPush:
		if j.alerts == nil {
			return nil
		}
		res.Transitioned, err = j.alerts.PushDueAlerts(ctx)
	default:
		return fmt.Errorf("unknown task type %q", taskType)
	}

	if err != nil {
		j.logger.Error("scheduled task failed", zap.String("task", taskType), zap.Error(err))
		return err
	}
	j.logger.Info("scheduled task complete", zap.String("task", taskType),
		zap.Int("changed", res.Transitioned), zap.Int("skipped", res.Skipped),
		zap.Duration("took", time.Since(start)))
	return nil
}

// entries lists the enabled (spec, task type) pairs.
func (j *Jobs) entries(s Schedule) ([][2]string, error) {
	if s.Finish == "" || s.Expire == "" {
		return nil, errors.New("finish and expire schedules are required")
	}
	out := [][2]string{{s.Finish, TypeLifecycleFinish}, {s.Expire, TypeLifecycleExpire}}
	if s.AlertPush != "" && j.alerts != nil {
		out = append(out, [2]string{s.AlertPush, TypeAlertsPush})
	}
	return out, nil
}
