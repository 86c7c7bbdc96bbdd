package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"lendmark/config"
	"lendmark/cron"
	"lendmark/handlers"
	"lendmark/middleware"
	"lendmark/routes"
	"lendmark/utils"

	"github.com/gin-gonic/gin"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "lendmark: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags := pflag.NewFlagSet("lendmark", pflag.ContinueOnError)
	config.RegisterFlags(flags)
	if err := flags.Parse(args); err != nil {
		return err
	}

	cfg, err := config.LoadConfig(flags)
	if err != nil {
		return err
	}
	logger, err := utils.InitializeLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch cfg.Mode {
	case "sweep":
		return runSweep(ctx, a)
	case "worker":
		return runWorker(ctx, a)
	default:
		return runServer(ctx, a)
	}
}

// runSweep performs one lifecycle sweep, for an external cron.
func runSweep(ctx context.Context, a *app) error {
	res, err := a.sweeper.RunLifecycleSweep(ctx, a.clock.Now())
	if err != nil {
		return fmt.Errorf("lifecycle sweep: %w", err)
	}
	a.logger.Info("lifecycle sweep complete",
		zap.Int("finished", res.Finished), zap.Int("expired", res.Expired), zap.Int("skipped", res.Skipped))
	return nil
}

func (a *app) jobs() (*cron.Jobs, cron.Schedule) {
	s := cron.Schedule{Finish: a.cfg.FinishSweepSpec, Expire: a.cfg.ExpireSweepSpec}
	var alerts cron.AlertPusher
	if a.cfg.AlertPushEnabled {
		alerts = a.notifications
		s.AlertPush = a.cfg.AlertPushSpec
	}
	return cron.NewJobs(a.sweeper, alerts, a.clock, a.logger.Named("cron")), s
}

// startLocalScheduler runs the periodic tasks in-process; the returned func stops it.
func startLocalScheduler(a *app) (func(), error) {
	jobs, schedule := a.jobs()
	local, err := cron.NewLocalScheduler(jobs, schedule, a.loc, a.logger.Named("cron"))
	if err != nil {
		return nil, err
	}
	local.Start()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		local.Stop(ctx)
	}, nil
}

// runWorker consumes and schedules the periodic tasks until ctx ends.
func runWorker(ctx context.Context, a *app) error {
	if a.cfg.SchedulerMode == "local" {
		stopLocal, err := startLocalScheduler(a)
		if err != nil {
			return err
		}
		defer stopLocal()
		<-ctx.Done()
		return nil
	}

	jobs, schedule := a.jobs()
	redisOpt := cron.RedisOpt(a.cfg)

	worker := cron.NewWorker(redisOpt, jobs, a.logger.Named("worker"))
	if err := worker.Start(); err != nil {
		return err
	}
	defer worker.Shutdown()

	scheduler, err := cron.NewScheduler(redisOpt, jobs, schedule, a.loc, a.logger.Named("scheduler"))
	if err != nil {
		return err
	}
	if err := scheduler.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer scheduler.Shutdown()

	<-ctx.Done()
	a.logger.Info("worker is shutting down...")
	return nil
}

func runServer(ctx context.Context, a *app) error {
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	a.health.Start(ctx)

	if a.cfg.SchedulerMode == "local" {
		stopLocal, err := startLocalScheduler(a)
		if err != nil {
			return err
		}
		defer stopLocal()
	}

	router := gin.New()
	router.Use(utils.ErrorHandler(a.logger))
	router.Use(middleware.AccessLog(a.logger.Named("http")))
	router.Use(middleware.RateLimitMiddleware(a.cfg.MaxRequestsPerMin))

	reservationHandler := handlers.NewReservationHandler(a.engine, a.reservations)
	notificationHandler := handlers.NewNotificationHandler(a.notifications)
	occupancyHandler := handlers.NewOccupancyHandler(a.occupancy, a.clock)
	lifecycleHandler := handlers.NewLifecycleHandler(a.sweeper, a.clock)

	handlerBundle := &handlers.HandlerBundle{
		// Reservation endpoints.
		RequestReservationHandler: reservationHandler.RequestReservationHandler,
		ListReservationsHandler:   reservationHandler.ListReservationsHandler,
		GetReservationHandler:     reservationHandler.GetReservationHandler,

		// Notification endpoints.
		ListNotificationsHandler: notificationHandler.ListNotificationsHandler,
		MarkNotificationRead:     notificationHandler.MarkReadHandler,

		// Occupancy endpoints.
		BuildingOccupancyHandler: occupancyHandler.BuildingOccupancyHandler,
		AllOccupancyHandler:      occupancyHandler.AllOccupancyHandler,

		// Admin endpoints.
		LifecycleSweepHandler: lifecycleHandler.SweepHandler,
		AdminToken:            a.cfg.AdminToken,

		HealthHandler: handlers.HealthHandler(a.health),
	}
	routes.RegisterRoutes(router, handlerBundle)

	srv := &http.Server{
		Addr:              "0.0.0.0:" + a.cfg.AppPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("Starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed to start: %w", err)
		}
	case <-ctx.Done():
	}
	a.logger.Info("server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	a.logger.Info("server stopped gracefully")
	return nil
}
