package main

import (
	"context"
	"fmt"
	"time"

	"lendmark/config"
	"lendmark/database"
	buildingRepo "lendmark/database/repository/building"
	reservationRepo "lendmark/database/repository/reservation"
	"lendmark/services/booking"
	"lendmark/services/keylock"
	"lendmark/services/lifecycle"
	"lendmark/services/notification"
	"lendmark/services/occupancy"
	"lendmark/utils"

	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// app holds the wired components shared by every run mode.
type app struct {
	cfg    *config.Config
	loc    *time.Location
	clock  utils.Clock
	logger *zap.Logger

	mongoClient *mongo.Client
	cacheClient *redis.Client
	lockClient  *redis.Client

	reservations reservationRepo.Repository
	buildings    buildingRepo.BuildingRepository

	engine        *booking.Engine
	sweeper       *lifecycle.Sweeper
	notifications *notification.DefaultNotificationService
	occupancy     *occupancy.DefaultOccupancyService
	health        *utils.HealthMonitor
}

// usesRedis reports whether any configured component needs Redis.
func usesRedis(cfg *config.Config) bool {
	return cfg.StoreBackend == "mongo" || cfg.LockBackend == "redis" ||
		cfg.SchedulerMode == "asynq" || cfg.AlertPushEnabled
}

func newApp(cfg *config.Config, logger *zap.Logger) (*app, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, loc: loc, clock: utils.SystemClock{Loc: loc}, logger: logger}

	if err := a.initStores(); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.initServices(); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) initStores() error {
	switch a.cfg.StoreBackend {
	case "mongo":
		client, db, err := database.InitDB(a.cfg, a.logger)
		if err != nil {
			return err
		}
		a.mongoClient = client
		repo, err := reservationRepo.NewMongoReservationRepo(db, a.cfg.StoreTimeout, a.logger)
		if err != nil {
			return err
		}
		a.reservations = repo
		a.buildings = buildingRepo.NewMongoBuildingRepo(db, a.cfg.StoreTimeout)
	default:
		a.logger.Warn("using in-memory stores; data is lost on exit")
		a.reservations = reservationRepo.NewMemoryReservationRepo()
		a.buildings = buildingRepo.NewMemoryBuildingRepo()
	}

	if usesRedis(a.cfg) {
		var err error
		if a.cacheClient, err = utils.NewRedisClient(a.cfg, a.cfg.RedisCacheDB); err != nil {
			return err
		}
		if a.lockClient, err = utils.NewRedisClient(a.cfg, a.cfg.RedisLockDB); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) initServices() error {
	var locker keylock.Locker = keylock.NewKeyedMutex()
	if a.cfg.LockBackend == "redis" {
		locker = keylock.NewRedisLocker(a.lockClient, a.cfg.BookingLockTTL, a.logger)
	}

	// The engine only sees the create path and the sweeper only the transition path.
	var creator reservationRepo.Creator = a.reservations
	var transitioner reservationRepo.Transitioner = a.reservations
	var reader reservationRepo.Reader = a.reservations

	a.engine = booking.NewEngine(creator, locker, a.clock, a.logger.Named("booking"), a.cfg.BookingLockWait, a.cfg.BookingHoldLimit())
	a.sweeper = lifecycle.NewSweeper(transitioner, a.loc, a.logger.Named("lifecycle"))

	var (
		reads  notification.ReadState = notification.NewMemoryReadState()
		sent   notification.SentLedger
		cache  occupancy.Cache
		pusher notification.Pusher
	)
	if a.cacheClient != nil {
		rs := notification.NewRedisReadState(a.cacheClient, a.cfg.ReadStateTTL)
		reads, sent = rs, rs
		cache = occupancy.NewRedisCache(a.cacheClient, a.cfg.OccupancyCacheTTL)
	}
	if a.cfg.AlertPushEnabled {
		fcm, err := utils.InitFirebaseMessaging(context.Background(), a.cfg.FirebaseCredentials)
		if err != nil {
			return err
		}
		if pusher, err = notification.NewFCMPusher(fcm, a.logger.Named("push")); err != nil {
			return err
		}
	}

	notifications, err := notification.NewDefaultNotificationService(
		reader,
		a.buildings,
		reads,
		notification.NewDeriver(a.loc, a.logger.Named("notification")),
		a.clock,
		a.logger.Named("notification"),
		notification.Options{Sent: sent, Pusher: pusher},
	)
	if err != nil {
		return fmt.Errorf("notification service: %w", err)
	}
	a.notifications = notifications
	a.occupancy = occupancy.NewDefaultOccupancyService(a.buildings, reader, cache, a.loc, a.logger.Named("occupancy"))

	redisClients := map[string]*redis.Client{}
	if a.cacheClient != nil {
		redisClients["cache"] = a.cacheClient
		redisClients["lock"] = a.lockClient
	}
	a.health = utils.NewHealthMonitor(redisClients, a.mongoClient, time.Minute, a.logger)
	return nil
}

func (a *app) Close() {
	for _, c := range []*redis.Client{a.cacheClient, a.lockClient} {
		if c != nil {
			_ = c.Close()
		}
	}
	if a.mongoClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.mongoClient.Disconnect(ctx); err != nil {
			a.logger.Warn("mongo disconnect failed", zap.Error(err))
		}
	}
}
