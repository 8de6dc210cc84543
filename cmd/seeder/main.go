package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"sync"
	"sync/atomic"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"homefinder/internal/adapters/observability"
	"homefinder/internal/app"
	"homefinder/internal/shared"
	mysqlrepo "homefinder/internal/storage/mysql"
)

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	path := cfg.SeedFile
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	log.Info().Str("file", path).Int("workers", cfg.SeedWorkers).Msg("seeder starting")

	raw, err := os.ReadFile(path)
	if err != nil {
		log.Fatal().Err(err).Msg("read seed file failed")
	}
	var records []map[string]any
	if err := json.Unmarshal(raw, &records); err != nil {
		log.Fatal().Err(err).Msg("seed file must be a JSON array of objects")
	}

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)
	workers := cfg.SeedWorkers
	if workers <= 0 {
		workers = 1
	}
	sem := semaphore.NewWeighted(int64(workers))
	var wg sync.WaitGroup
	var failed atomic.Int64

	for i, rec := range records {
		p := app.MapProperty(rec)
		if p.HouseName == "" {
			log.Warn().Int("index", i).Msg("skipping record without a name")
			continue
		}

		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)

			id, err := repo.UpsertProperty(ctx, p)
			if err != nil {
				failed.Add(1)
				log.Warn().Str("name", p.HouseName).Err(err).Msg("seed failed")
				return
			}
			log.Info().Int64("id", id).Str("name", p.HouseName).Bool("mapped", p.Lat != nil).Msg("seed ok")
		}()
	}

	wg.Wait()
	if n := failed.Load(); n > 0 {
		log.Fatal().Int64("failed", n).Msg("seeding finished with errors")
	}
	log.Info().Int("records", len(records)).Msg("seeding completed")
}
