package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`
	AdminToken        string `mapstructure:"ADMIN_TOKEN"`

	// Storage.
	StoreBackend string        `mapstructure:"STORE_BACKEND"`
	DatabaseURL  string        `mapstructure:"DATABASE_URL"`
	DatabaseName string        `mapstructure:"DATABASE_NAME"`
	StoreTimeout time.Duration `mapstructure:"STORE_TIMEOUT"`

	// Redis configuration.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB  int    `mapstructure:"REDIS_CACHE_DB"`
	RedisLockDB   int    `mapstructure:"REDIS_LOCK_DB"`
	RedisQueueDB  int    `mapstructure:"REDIS_QUEUE_DB"`

	// Calendar dates and the period grid are interpreted in this zone.
	Timezone string `mapstructure:"TIMEZONE"`

	// Booking admission.
	LockBackend     string        `mapstructure:"LOCK_BACKEND"`
	BookingLockTTL  time.Duration `mapstructure:"BOOKING_LOCK_TTL"`
	BookingLockWait time.Duration `mapstructure:"BOOKING_LOCK_WAIT"`

	// Scheduling.
	SchedulerMode   string `mapstructure:"SCHEDULER_MODE"`
	FinishSweepSpec string `mapstructure:"FINISH_SWEEP_SPEC"`
	ExpireSweepSpec string `mapstructure:"EXPIRE_SWEEP_SPEC"`

	// Notifications.
	AlertPushEnabled    bool          `mapstructure:"ALERT_PUSH_ENABLED"`
	AlertPushSpec       string        `mapstructure:"ALERT_PUSH_SPEC"`
	FirebaseCredentials string        `mapstructure:"FIREBASE_CREDENTIALS"`
	ReadStateTTL        time.Duration `mapstructure:"READ_STATE_TTL"`

	OccupancyCacheTTL time.Duration `mapstructure:"OCCUPANCY_CACHE_TTL"`

	// Mode is set from the command line only: server, worker or sweep.
	Mode string `mapstructure:"MODE"`
}

// LockTTLMargin is the slack kept between the booking critical section and the lock lease.
const LockTTLMargin = time.Second

// AppConfig is the configuration loaded by the last successful LoadConfig call.
var AppConfig Config

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	v.SetDefault("ADMIN_TOKEN", "")
	v.SetDefault("STORE_BACKEND", "mongo")
	v.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	v.SetDefault("DATABASE_NAME", "lendmark")
	v.SetDefault("STORE_TIMEOUT", 5*time.Second)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_CACHE_DB", 0)
	v.SetDefault("REDIS_LOCK_DB", 1)
	v.SetDefault("REDIS_QUEUE_DB", 2)
	v.SetDefault("TIMEZONE", "Asia/Seoul")
	v.SetDefault("LOCK_BACKEND", "redis")
	v.SetDefault("BOOKING_LOCK_TTL", 15*time.Second)
	v.SetDefault("BOOKING_LOCK_WAIT", 3*time.Second)
	v.SetDefault("SCHEDULER_MODE", "asynq")
	v.SetDefault("FINISH_SWEEP_SPEC", "@every 30m")
	v.SetDefault("EXPIRE_SWEEP_SPEC", "@daily")
	v.SetDefault("ALERT_PUSH_ENABLED", false)
	v.SetDefault("ALERT_PUSH_SPEC", "@every 1m")
	v.SetDefault("FIREBASE_CREDENTIALS", "")
	v.SetDefault("READ_STATE_TTL", 24*time.Hour)
	v.SetDefault("OCCUPANCY_CACHE_TTL", time.Minute)
	v.SetDefault("MODE", "server")
}

// RegisterFlags declares the command-line flags that override file and environment values.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "path to a config.yaml file")
	fs.String("mode", "server", "run mode: server, worker or sweep")
	fs.String("port", "", "HTTP listen port (overrides APP_PORT)")
}

// LoadConfig reads config.yaml (from the --config flag, "." or "./config"), overlays environment
// variables and flags, and validates the result. fs may be nil.
func LoadConfig(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	path := ""
	if fs != nil {
		path, _ = fs.GetString("config")
		if f := fs.Lookup("mode"); f != nil {
			if err := v.BindPFlag("MODE", f); err != nil {
				return nil, err
			}
		}
		if f := fs.Lookup("port"); f != nil && f.Changed {
			if err := v.BindPFlag("APP_PORT", f); err != nil {
				return nil, err
			}
		}
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		log.Println("No config file found, using environment variables only")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	AppConfig = cfg
	return &cfg, nil
}

// Validate rejects unknown backend and mode names and a lock lease too short to cover one
// admission check plus one insert at STORE_TIMEOUT each.
func (c *Config) Validate() error {
	checks := []struct {
		key, value string
		allowed    []string
	}{
		{"STORE_BACKEND", c.StoreBackend, []string{"mongo", "memory"}},
		{"LOCK_BACKEND", c.LockBackend, []string{"redis", "memory"}},
		{"SCHEDULER_MODE", c.SchedulerMode, []string{"asynq", "local"}},
		{"MODE", c.Mode, []string{"server", "worker", "sweep"}},
	}
	for _, chk := range checks {
		if !contains(chk.allowed, chk.value) {
			return fmt.Errorf("invalid %s %q: want one of %s", chk.key, chk.value, strings.Join(chk.allowed, ", "))
		}
	}
	if c.StoreTimeout <= 0 || c.BookingLockWait <= 0 || c.BookingLockTTL <= 0 {
		return fmt.Errorf("STORE_TIMEOUT, BOOKING_LOCK_WAIT and BOOKING_LOCK_TTL must be positive")
	}
	if floor := 2*c.StoreTimeout + LockTTLMargin; c.BookingLockTTL <= floor {
		return fmt.Errorf("BOOKING_LOCK_TTL %v must exceed twice STORE_TIMEOUT plus %v (%v)", c.BookingLockTTL, LockTTLMargin, floor)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// BookingHoldLimit caps the store work done while a booking key is held, leaving LockTTLMargin
// before the lease expires.
func (c *Config) BookingHoldLimit() time.Duration {
	return c.BookingLockTTL - LockTTLMargin
}

// Location resolves TIMEZONE.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
