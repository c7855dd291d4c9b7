package main

import (
	"context"
	"time"
	_ "time/tzdata"

	availabilityhandler "reservations/internal/availability/handler"
	availabilityservice "reservations/internal/availability/service"
	"reservations/internal/bookings/events"
	bookinghandler "reservations/internal/bookings/handler"
	bookingservice "reservations/internal/bookings/service"
	bookingvalidator "reservations/internal/bookings/validator"
	"reservations/internal/conflict"
	resourcehandler "reservations/internal/resources/handler"
	resourceservice "reservations/internal/resources/service"
	resourcevalidator "reservations/internal/resources/validator"
	"reservations/internal/store"
	"reservations/internal/store/mongostore"
	"reservations/internal/store/sqlstore"
	"reservations/pkg/app"
	"reservations/pkg/config"
	"reservations/pkg/kafka"
	kafka_middleware "reservations/pkg/kafka/middleware"
	"reservations/pkg/lock"
)

const (
	ServiceName = "reservations"
	initTimeout = 60 * time.Second
)

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetClients()

	cfg.Log.Info("Starting Reservations service", "store", cfg.StoreBackend, "lock", cfg.LockBackend)

	st := initStore(cfg)
	publisher := initPublisher(cfg)
	detector := conflict.NewDetector(st)

	resources := resourceservice.NewResourceService(st, resourcevalidator.NewResourceValidator(cfg.Log), cfg)
	bookings := bookingservice.NewBookingService(
		st,
		detector,
		initLocker(cfg),
		bookingvalidator.NewBookingValidator(cfg.Log),
		publisher,
		cfg,
	)
	availability := availabilityservice.NewAvailabilityService(st, detector, cfg)

	if cfg.SeedResources {
		ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
		if _, err := resources.Seed(ctx); err != nil {
			cfg.Log.Error("Failed to seed resources", "error", err)
		}
		cancel()
	}

	serverApp := app.NewApplication()
	serverApp.SetApp(cfg, st,
		resourcehandler.NewResourceHandler(resources, cfg),
		bookinghandler.NewBookingHandler(bookings, cfg),
		availabilityhandler.NewAvailabilityHandler(availability, cfg),
	)
	serverApp.OnShutdown(publisher)
	serverApp.Run()
}

func initStore(cfg *config.Config) store.Store {
	var st store.Store
	switch cfg.StoreBackend {
	case config.StoreSQLite:
		st = sqlstore.New(cfg.Client.SQLite, cfg.Log)
	default:
		st = mongostore.NewStore(cfg)
	}

	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()
	if err := st.Init(ctx); err != nil {
		cfg.Log.Fatal("Failed to initialize store", "backend", cfg.StoreBackend, "error", err)
	}
	return st
}

func initLocker(cfg *config.Config) lock.Locker {
	switch cfg.LockBackend {
	case config.LockMongo:
		return lock.New(lock.NewMongoBackend(cfg.Client.Mongo.Database(cfg.MongoDatabaseName)), cfg.LockTTL, cfg.LockWaitTimeout, cfg.Log)
	case config.LockRedis:
		return lock.New(lock.NewRedisBackend(cfg.Client.Redis), cfg.LockTTL, cfg.LockWaitTimeout, cfg.Log)
	default:
		return lock.Noop()
	}
}

func initPublisher(cfg *config.Config) events.Publisher {
	if len(cfg.KafkaBrokers) == 0 {
		cfg.Log.Info("Kafka brokers not configured, booking events disabled")
		return events.Noop()
	}

	producer, err := kafka.NewProducer(kafka.NewConfig(cfg.KafkaBrokers, cfg.BookingEventsTopic), cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))

	cfg.Log.Info("Booking events enabled", "topic", cfg.BookingEventsTopic, "brokers", cfg.KafkaBrokers)
	return events.NewKafkaPublisher(producer, ServiceName, cfg.Log)
}
