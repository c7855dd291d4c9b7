package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg := FromEnv()

	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, StoreMongo, cfg.StoreBackend)
	assert.Equal(t, LockNone, cfg.LockBackend)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, DefaultSlotDuration, cfg.SlotDuration)
	require.NoError(t, cfg.Validate())
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv(EnvStoreBackend, "SQLite")
	t.Setenv(EnvSQLitePath, "/tmp/bookings.db")
	t.Setenv(EnvLockBackend, "redis")
	t.Setenv(EnvRedisDB, "2")
	t.Setenv(EnvKafkaBrokers, "kafka-1:9092, ,kafka-2:9092")
	t.Setenv(EnvSlotDuration, "30m")
	t.Setenv(EnvSeedResources, "true")
	t.Setenv(EnvRequestTimeout, "not-a-duration")

	cfg := FromEnv()

	assert.Equal(t, StoreSQLite, cfg.StoreBackend)
	assert.Equal(t, "/tmp/bookings.db", cfg.SQLitePath)
	assert.Equal(t, LockRedis, cfg.LockBackend)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 30*time.Minute, cfg.SlotDuration)
	assert.True(t, cfg.SeedResources)
	assert.Equal(t, DefaultRequestTimeout, cfg.RequestTimeout)
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		wantMsg string
	}{
		{"bad port", func(c *Config) { c.Port = "70000" }, "Port must be between"},
		{"unknown store", func(c *Config) { c.StoreBackend = "postgres" }, "StoreBackend must be"},
		{"bad mongo uri", func(c *Config) { c.MongoURI = "http://localhost" }, "MongoURI must start with"},
		{"mongo lock on sqlite", func(c *Config) {
			c.StoreBackend = StoreSQLite
			c.LockBackend = LockMongo
		}, "requires StoreBackend 'mongo'"},
		{"unknown lock", func(c *Config) { c.LockBackend = "etcd" }, "LockBackend must be"},
		{"bad zone", func(c *Config) { c.TimeZone = "Mars/Olympus" }, "TimeZone must be a valid IANA zone"},
		{"bad clock", func(c *Config) { c.BusinessStart = "8am" }, "BusinessStart must be in HH:MM"},
		{"inverted hours", func(c *Config) {
			c.BusinessStart = "18:00"
			c.BusinessEnd = "08:00"
		}, "must be before BusinessEnd"},
		{"tiny slot", func(c *Config) { c.SlotDuration = time.Second }, "SlotDuration must be at least"},
		{"kafka without topic", func(c *Config) {
			c.KafkaBrokers = []string{"localhost:9092"}
			c.BookingEventsTopic = ""
		}, "BookingEventsTopic cannot be empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := FromEnv()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestValidate_AggregatesErrors(t *testing.T) {
	cfg := FromEnv()
	cfg.Port = "0"
	cfg.ReadTimeout = 0
	cfg.MaxRequestSize = -1

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1. Port")
	assert.Contains(t, err.Error(), "ReadTimeout must be positive")
	assert.Contains(t, err.Error(), "MaxRequestSize must be positive")
}

func TestResolve(t *testing.T) {
	cfg := FromEnv()
	cfg.BusinessStart = "07:30"
	cfg.BusinessEnd = "17:15"
	require.NoError(t, cfg.Validate())

	cfg.resolve()

	assert.Equal(t, time.UTC, cfg.Location)
	assert.Equal(t, 7*time.Hour+30*time.Minute, cfg.BusinessStartOffset)
	assert.Equal(t, 17*time.Hour+15*time.Minute, cfg.BusinessEndOffset)
}

func TestRedactMongoURI(t *testing.T) {
	got := redactMongoURI("mongodb://admin:secret@db:27017/reservations")
	assert.Equal(t, "mongodb://***:***@db:27017/reservations", got)
}
