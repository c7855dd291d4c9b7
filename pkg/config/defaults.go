package config

import "time"

const (
	StoreMongo  = "mongo"
	StoreSQLite = "sqlite"

	LockNone  = "none"
	LockMongo = "mongo"
	LockRedis = "redis"
)

const (
	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultStoreBackend = StoreMongo

	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "reservations"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultSQLitePath = "reservations.db"

	DefaultLockBackend     = LockNone
	DefaultRedisAddr       = "localhost:6379"
	DefaultRedisDB         = 0
	DefaultLockTTL         = 10 * time.Second
	DefaultLockWaitTimeout = 3 * time.Second

	DefaultBookingEventsTopic = "booking-events"

	DefaultTimeZone      = "UTC"
	DefaultBusinessStart = "08:00"
	DefaultBusinessEnd   = "18:00"
	DefaultSlotDuration  = 1 * time.Hour
	DefaultSeedResources = false

	DefaultRateLimitRequests = 60
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
)
