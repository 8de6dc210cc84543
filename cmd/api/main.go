package main

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	server "homefinder/internal/adapters/http_server"
	"homefinder/internal/adapters/memcache"
	"homefinder/internal/adapters/observability"
	"homefinder/internal/adapters/osrm"
	redisad "homefinder/internal/adapters/redis"
	"homefinder/internal/app"
	"homefinder/internal/domain"
	"homefinder/internal/shared"
	mysqlrepo "homefinder/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	// db
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")

	// deps
	repo := mysqlrepo.New(db)
	client, err := osrm.New(cfg.OSRMBase, cfg.OSRMProfile, cfg.OSRMMinInterval,
		osrm.WithCache(matrixCache(cfg), cfg.MatrixCacheTTL),
		osrm.WithHTTPClient(&http.Client{Timeout: cfg.OSRMTimeout}),
		osrm.WithFlightTimeout(cfg.OSRMTimeout+10*time.Second),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize routing client")
	}
	var matrix domain.MatrixClient = client
	if cfg.OSRMBreaker {
		matrix = osrm.NewBreaker(client, 5, 30*time.Second)
	}
	sel := app.NewSelectionService(repo, matrix, cfg.DefaultLimit, cfg.MaxLimit)

	log.Info().
		Str("routing", cfg.OSRMBase).
		Str("profile", cfg.OSRMProfile).
		Dur("min_interval", cfg.OSRMMinInterval).
		Str("cache", cfg.MatrixCache).
		Bool("breaker", cfg.OSRMBreaker).
		Msg("selection service ready")

	// http
	srv := server.New(cfg.HTTPTimeout)
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(server.NewHandlers(sel))

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 5 * time.Second}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}

// matrixCache picks the shared Redis cache when configured and reachable, else the in-process LRU.
func matrixCache(cfg shared.Config) domain.Cache {
	if cfg.MatrixCache == "redis" {
		rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		err := rc.Ping(ctx)
		if err == nil {
			return rc
		}
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable, using in-memory matrix cache")
		_ = rc.Close()
	}
	return memcache.New(cfg.MatrixCacheSize)
}
