package cron

import (
	"context"
	"fmt"
	"time"

	"lendmark/config"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// RedisOpt builds the asynq connection settings for the queue DB.
func RedisOpt(cfg *config.Config) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisQueueDB,
	}
}

// NewServeMux routes every task type to jobs.
func NewServeMux(jobs *Jobs) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	for _, t := range []string{TypeLifecycleFinish, TypeLifecycleExpire, TypeAlertsPush} {
		taskType := t
		mux.HandleFunc(taskType, func(ctx context.Context, _ *asynq.Task) error {
			return jobs.Run(ctx, taskType)
		})
	}
	return mux
}

// Worker consumes scheduled tasks from Redis.
type Worker struct {
	srv    *asynq.Server
	mux    *asynq.ServeMux
	logger *zap.Logger
}

func NewWorker(redisOpt asynq.RedisClientOpt, jobs *Jobs, logger *zap.Logger) *Worker {
	srv := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 2,
			Queues: map[string]int{
				"default": 1,
			},
			Logger: zapAdapter{logger.Sugar()},
		},
	)
	return &Worker{srv: srv, mux: NewServeMux(jobs), logger: logger}
}

// Start runs the worker, retrying startup with a growing delay.
func (w *Worker) Start() error {
	const maxAttempts = 5

	var err error
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		if err = w.srv.Start(w.mux); err == nil {
			w.logger.Info("async worker started")
			return nil
		}
		w.logger.Warn("failed to start worker", zap.Int("attempt", attempts), zap.Error(err))
		time.Sleep(time.Duration(attempts*2) * time.Second)
	}
	return fmt.Errorf("worker did not start after %d attempts: %w", maxAttempts, err)
}

func (w *Worker) Shutdown() {
	w.srv.Shutdown()
}

// Scheduler enqueues the periodic tasks on their cron specs.
type Scheduler struct {
	scheduler *asynq.Scheduler
	logger    *zap.Logger
}

// NewScheduler registers every entry of s. Specs are standard cron expressions or descriptors
// such as "@every 30m" and are evaluated in loc.
func NewScheduler(redisOpt asynq.RedisClientOpt, jobs *Jobs, s Schedule, loc *time.Location, logger *zap.Logger) (*Scheduler, error) {
	entries, err := jobs.entries(s)
	if err != nil {
		return nil, err
	}
	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{
		Location: loc,
		Logger:   zapAdapter{logger.Sugar()},
		PostEnqueueFunc: func(info *asynq.TaskInfo, err error) {
			if err != nil {
				logger.Warn("failed to enqueue scheduled task", zap.Error(err))
			}
		},
	})
	for _, e := range entries {
		spec, taskType := e[0], e[1]
		// Unique keeps a slow pass from piling up duplicates in the queue.
		id, err := scheduler.Register(spec, asynq.NewTask(taskType, nil),
			asynq.MaxRetry(3), asynq.Unique(10*time.Minute))
		if err != nil {
			return nil, fmt.Errorf("register %s (%s): %w", taskType, spec, err)
		}
		logger.Info("scheduled task registered", zap.String("task", taskType), zap.String("spec", spec), zap.String("entryId", id))
	}
	return &Scheduler{scheduler: scheduler, logger: logger}, nil
}

func (s *Scheduler) Start() error {
	return s.scheduler.Start()
}

func (s *Scheduler) Shutdown() {
	s.scheduler.Shutdown()
}

// zapAdapter satisfies asynq.Logger.
type zapAdapter struct {
	s *zap.SugaredLogger
}

func (a zapAdapter) Debug(args ...interface{}) { a.s.Debug(args...) }
func (a zapAdapter) Info(args ...interface{})  { a.s.Info(args...) }
func (a zapAdapter) Warn(args ...interface{})  { a.s.Warn(args...) }
func (a zapAdapter) Error(args ...interface{}) { a.s.Error(args...) }
func (a zapAdapter) Fatal(args ...interface{}) { a.s.Fatal(args...) }
