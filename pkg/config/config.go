package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"reservations/pkg/client"
	"reservations/pkg/logger"
	"reservations/pkg/model"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     string
	LogLevel string

	StoreBackend string

	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	SQLitePath string

	LockBackend     string
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	LockTTL         time.Duration
	LockWaitTimeout time.Duration

	KafkaBrokers       []string
	BookingEventsTopic string

	TimeZone      string
	BusinessStart string
	BusinessEnd   string
	SlotDuration  time.Duration
	SeedResources bool

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Derived from TimeZone, BusinessStart and BusinessEnd by Load.
	Location            *time.Location
	BusinessStartOffset time.Duration
	BusinessEndOffset   time.Duration

	Log    *logger.Logger
	Client *client.Client
}

// Load reads an optional .env file and the process environment, validates the
// result and exits the process on invalid configuration.
func Load(serviceName string) *Config {
	dotEnvErr := godotenv.Load()

	cfg := FromEnv()
	cfg.Log = logger.New(logger.Config{
		Level:     cfg.LogLevel,
		Format:    logger.JSON,
		AddSource: true,
		Service:   serviceName,
	})
	cfg.Client = client.NewClient()

	if dotEnvErr != nil && !errors.Is(dotEnvErr, fs.ErrNotExist) {
		cfg.Log.Warn("Failed to load .env file", "error", dotEnvErr)
	}

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.resolve()
	cfg.LogConfiguration()
	return cfg
}

// FromEnv builds a Config from environment variables and defaults without
// validating it.
func FromEnv() *Config {
	return &Config{
		Port:     getEnvStr(EnvPort, DefaultPort),
		LogLevel: strings.ToLower(getEnvStr(EnvLogLevel, DefaultLogLevel)),

		StoreBackend: strings.ToLower(getEnvStr(EnvStoreBackend, DefaultStoreBackend)),

		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		SQLitePath: getEnvStr(EnvSQLitePath, DefaultSQLitePath),

		LockBackend:     strings.ToLower(getEnvStr(EnvLockBackend, DefaultLockBackend)),
		RedisAddr:       getEnvStr(EnvRedisAddr, DefaultRedisAddr),
		RedisPassword:   getEnvStr(EnvRedisPassword, ""),
		RedisDB:         getEnvNum(EnvRedisDB, DefaultRedisDB),
		LockTTL:         getEnvDuration(EnvLockTTL, DefaultLockTTL),
		LockWaitTimeout: getEnvDuration(EnvLockWaitTimeout, DefaultLockWaitTimeout),

		KafkaBrokers:       getEnvList(EnvKafkaBrokers),
		BookingEventsTopic: getEnvStr(EnvBookingEventsTopic, DefaultBookingEventsTopic),

		TimeZone:      getEnvStr(EnvTimeZone, DefaultTimeZone),
		BusinessStart: getEnvStr(EnvBusinessStart, DefaultBusinessStart),
		BusinessEnd:   getEnvStr(EnvBusinessEnd, DefaultBusinessEnd),
		SlotDuration:  getEnvDuration(EnvSlotDuration, DefaultSlotDuration),
		SeedResources: getEnvBool(EnvSeedResources, DefaultSeedResources),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),
	}
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) SetRedis() {
	cfg.Client.SetRedis(cfg.Log, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
}

func (cfg *Config) SetSQLite() {
	cfg.Client.SetSQLite(cfg.Log, cfg.SQLitePath)
}

// SetClients opens the connections the selected backends need.
func (cfg *Config) SetClients() {
	switch cfg.StoreBackend {
	case StoreMongo:
		cfg.SetMongo()
	case StoreSQLite:
		cfg.SetSQLite()
	}
	if cfg.LockBackend == LockRedis {
		cfg.SetRedis()
	}
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}
	if !logger.ValidLevel(cfg.LogLevel) {
		errors = append(errors, fmt.Sprintf("LogLevel must be one of debug, info, warn, error, got: %s", cfg.LogLevel))
	}

	switch cfg.StoreBackend {
	case StoreMongo:
		if cfg.MongoURI == "" {
			errors = append(errors, "MongoURI cannot be empty")
		} else if len(cfg.MongoURI) < 10 || !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
			errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactMongoURI(cfg.MongoURI)))
		}
		if cfg.MongoDatabaseName == "" {
			errors = append(errors, "MongoDatabaseName cannot be empty")
		}
		if cfg.MongoConnTimeout <= 0 {
			errors = append(errors, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
		}
	case StoreSQLite:
		if cfg.SQLitePath == "" {
			errors = append(errors, "SQLitePath cannot be empty")
		}
	default:
		errors = append(errors, fmt.Sprintf("StoreBackend must be 'mongo' or 'sqlite', got: %s", cfg.StoreBackend))
	}

	switch cfg.LockBackend {
	case LockNone:
	case LockMongo:
		if cfg.StoreBackend != StoreMongo {
			errors = append(errors, "LockBackend 'mongo' requires StoreBackend 'mongo'")
		}
	case LockRedis:
		if cfg.RedisAddr == "" {
			errors = append(errors, "RedisAddr cannot be empty when LockBackend is 'redis'")
		}
		if cfg.RedisDB < 0 {
			errors = append(errors, fmt.Sprintf("RedisDB cannot be negative, got: %d", cfg.RedisDB))
		}
	default:
		errors = append(errors, fmt.Sprintf("LockBackend must be 'none', 'mongo' or 'redis', got: %s", cfg.LockBackend))
	}
	if cfg.LockBackend != LockNone {
		if cfg.LockTTL <= 0 {
			errors = append(errors, fmt.Sprintf("LockTTL must be positive, got: %s", cfg.LockTTL))
		}
		if cfg.LockWaitTimeout <= 0 {
			errors = append(errors, fmt.Sprintf("LockWaitTimeout must be positive, got: %s", cfg.LockWaitTimeout))
		}
	}

	if len(cfg.KafkaBrokers) > 0 && cfg.BookingEventsTopic == "" {
		errors = append(errors, "BookingEventsTopic cannot be empty when KafkaBrokers are set")
	}

	if _, err := time.LoadLocation(cfg.TimeZone); err != nil {
		errors = append(errors, fmt.Sprintf("TimeZone must be a valid IANA zone, got: %s", cfg.TimeZone))
	}
	start, startErr := model.ParseClock(cfg.BusinessStart)
	if startErr != nil {
		errors = append(errors, fmt.Sprintf("BusinessStart must be in HH:MM format (00:00-23:59), got: %s", cfg.BusinessStart))
	}
	end, endErr := model.ParseClock(cfg.BusinessEnd)
	if endErr != nil {
		errors = append(errors, fmt.Sprintf("BusinessEnd must be in HH:MM format (00:00-24:00), got: %s", cfg.BusinessEnd))
	}
	if startErr == nil && endErr == nil && start >= end {
		errors = append(errors, fmt.Sprintf("BusinessStart (%s) must be before BusinessEnd (%s)", cfg.BusinessStart, cfg.BusinessEnd))
	}
	if cfg.SlotDuration < time.Minute {
		errors = append(errors, fmt.Sprintf("SlotDuration must be at least 1m, got: %s", cfg.SlotDuration))
	}

	if cfg.RateLimitWindow <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitWindow must be positive, got: %s", cfg.RateLimitWindow))
	}
	if cfg.RequestTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("RequestTimeout must be positive, got: %s", cfg.RequestTimeout))
	}
	if cfg.IdempotencyTTL <= 0 {
		errors = append(errors, fmt.Sprintf("IdempotencyTTL must be positive, got: %s", cfg.IdempotencyTTL))
	}
	if cfg.ReadTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ReadTimeout must be positive, got: %s", cfg.ReadTimeout))
	}
	if cfg.WriteTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("WriteTimeout must be positive, got: %s", cfg.WriteTimeout))
	}
	if cfg.IdleTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("IdleTimeout must be positive, got: %s", cfg.IdleTimeout))
	}
	if cfg.ShutdownTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ShutdownTimeout must be positive, got: %s", cfg.ShutdownTimeout))
	}
	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

// resolve fills the derived fields. Only call it after Validate succeeded.
func (cfg *Config) resolve() {
	cfg.Location, _ = time.LoadLocation(cfg.TimeZone)
	cfg.BusinessStartOffset, _ = model.ParseClock(cfg.BusinessStart)
	cfg.BusinessEndOffset, _ = model.ParseClock(cfg.BusinessEnd)
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"port", cfg.Port,
		"log_level", cfg.LogLevel,
		"store_backend", cfg.StoreBackend,
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"sqlite_path", cfg.SQLitePath,
		"lock_backend", cfg.LockBackend,
		"redis_addr", cfg.RedisAddr,
		"redis_password_set", cfg.RedisPassword != "",
		"lock_ttl", cfg.LockTTL,
		"lock_wait_timeout", cfg.LockWaitTimeout,
		"kafka_brokers", cfg.KafkaBrokers,
		"booking_events_topic", cfg.BookingEventsTopic,
		"time_zone", cfg.TimeZone,
		"business_start", cfg.BusinessStart,
		"business_end", cfg.BusinessEnd,
		"slot_duration", cfg.SlotDuration,
		"seed_resources", cfg.SeedResources,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
	)
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

// getEnvList splits a comma separated value, dropping blanks.
func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown()
}
