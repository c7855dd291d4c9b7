package main

import (
	"context"
	"fmt"
	"time"

	"reservations/internal/store"
	"reservations/internal/store/mongostore"
	"reservations/internal/store/sqlstore"
	"reservations/pkg/config"
)

const JobName = "reservations-migration"

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()
	cfg := config.Load(JobName)
	cfg.SetClients()
	cfg.Log.Info("Starting migration job", "store", cfg.StoreBackend)
	defer cfg.GracefulShutdown()

	var st store.Store
	if cfg.StoreBackend == config.StoreSQLite {
		st = sqlstore.New(cfg.Client.SQLite, cfg.Log)
	} else {
		st = mongostore.NewStore(cfg)
	}

	if err := st.Init(ctx); err != nil {
		cfg.Log.Fatal("Migration failed", "error", err)
	}
	fmt.Println("Migration completed successfully.")
}
