package main

import (
	"context"
	"flag"
	"time"

	"github.com/evyataryagoni/cepcache/internal/config"
	"github.com/evyataryagoni/cepcache/internal/logger"
	"github.com/evyataryagoni/cepcache/internal/store"
)

// This tool loads postal records from CSV into the configured datastore
// Usage: go run ./cmd/seed [-file data/ceps.csv]
func main() {
	appConfig := config.Load()

	filePath := flag.String("file", appConfig.DatastorePath, "CSV file to load (code,street,neighborhood,city,state)")
	flag.Parse()

	log := logger.New(logger.Config{
		Level:  appConfig.LogLevel,
		Pretty: appConfig.LogPretty,
	}).WithComponent("seed")

	var dataStore store.Store
	var err error

	switch appConfig.DatastoreType {
	case "mysql":
		dataStore, err = store.NewMySQLStore(appConfig.MySQLDSN)
	case "redis":
		log.Info().Str("addr", appConfig.RedisAddr).Msg("Connecting to Redis")
		dataStore, err = store.NewRedisStore(appConfig.RedisAddr, appConfig.RedisPassword, appConfig.RedisDB)
	default:
		log.Fatal().Str("type", appConfig.DatastoreType).Msg("Seeding needs a persistent datastore (mysql or redis)")
	}
	if err != nil {
		log.Fatal().Err(err).Str("type", appConfig.DatastoreType).Msg("Failed to connect to datastore")
	}
	defer dataStore.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	log.Info().Str("path", *filePath).Msg("Loading data from CSV")
	result, err := store.SeedFromCSV(ctx, dataStore, *filePath)
	if err != nil {
		log.Error().Err(err).Int("inserted", result.Inserted).Msg("Failed to load CSV data")
		return
	}

	log.Info().
		Int("inserted", result.Inserted).
		Int("skipped", result.Skipped).
		Msg("Data loaded successfully")
}
