package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/spf13/viper"

	"github.com/eunoia-atlas/backend/internal/config"
	"github.com/eunoia-atlas/backend/internal/database"
	"github.com/eunoia-atlas/backend/internal/services"
	"github.com/eunoia-atlas/backend/internal/xrpl"
)

func main() {
	// Initialize config
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	viper.BindEnv("database.url", "POSTGRES_URL")
	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.name", "DATABASE_NAME")
	viper.BindEnv("database.ssl_mode", "DATABASE_SSL_MODE")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("No .env file found, relying on environment: %v", err)
	}

	cfg := config.Load()

	db := database.InitDatabase()
	defer database.CloseDB()

	if err := database.EnsureSchema(db); err != nil {
		log.Fatalf("Failed to ensure schema: %v", err)
	}

	ledger := xrpl.NewClient(cfg.RPCURL, cfg.FaucetURL, cfg.SubmitTimeout)
	memoService := services.NewMemoService(cfg.CharityNames())
	recordStore := services.NewRecordStore(db)

	listener := services.NewListenerService(
		ledger,
		recordStore,
		memoService,
		cfg.WatchedAddresses(),
		cfg.PollInterval,
		cfg.ErrorBackoff,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("Listener starting, watching %d address(es)", len(cfg.WatchedAddresses()))
	listener.Run(ctx)
	log.Println("Listener stopped")
}
