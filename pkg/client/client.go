package client

import (
	"context"
	"database/sql"
	"time"

	"reservations/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const shutdownTimeout = 5 * time.Second

// Client holds the process-wide connections. Each is nil until its Set* method runs.
type Client struct {
	Mongo  *mongo.Client
	Redis  *redis.Client
	SQLite *sql.DB

	log *logger.Logger
}

func NewClient() *Client {
	return &Client{}
}

func (c *Client) SetMongo(log *logger.Logger, mongoURI string, mongoConnTimeout time.Duration) {
	c.log = log
	ctx, cancel := context.WithTimeout(context.Background(), mongoConnTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		log.Fatal("Failed to connect to MongoDB",
			"error", err,
		)
	}

	if err := client.Ping(ctx, nil); err != nil {
		log.Fatal("Failed to ping MongoDB", "error", err)
	}

	log.Info("Successfully connected to MongoDB")
	c.Mongo = client
}

func (c *Client) SetRedis(log *logger.Logger, addr, password string, db int) {
	c.log = log
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatal("Failed to ping Redis", "error", err, "addr", addr)
	}

	log.Info("Successfully connected to Redis", "addr", addr)
	c.Redis = rdb
}

func (c *Client) SetSQLite(log *logger.Logger, path string) {
	c.log = log
	db, err := OpenSQLite(path)
	if err != nil {
		log.Fatal("Failed to open SQLite database", "error", err, "path", path)
	}

	log.Info("Successfully opened SQLite database", "path", path)
	c.SQLite = db
}

// GracefulShutdown closes every open connection, logging failures.
func (c *Client) GracefulShutdown() {
	if c.Mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := c.Mongo.Disconnect(ctx); err != nil {
			c.logError("Failed to disconnect from MongoDB", err)
		}
		cancel()
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			c.logError("Failed to close Redis client", err)
		}
	}
	if c.SQLite != nil {
		if err := c.SQLite.Close(); err != nil {
			c.logError("Failed to close SQLite database", err)
		}
	}
}

func (c *Client) logError(msg string, err error) {
	if c.log != nil {
		c.log.Error(msg, "error", err)
	}
}
