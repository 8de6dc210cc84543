package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	LogLevel    string
	HTTPAddr    string
	HTTPTimeout time.Duration
	MetricsAddr string
	MySQLDSN    string
	RedisAddr   string
	RedisDB     int
	RedisPass   string

	OSRMBase        string
	OSRMProfile     string
	OSRMMinInterval time.Duration
	OSRMTimeout     time.Duration
	OSRMBreaker     bool

	MatrixCache     string // memory|redis
	MatrixCacheSize int
	MatrixCacheTTL  time.Duration

	DefaultLimit int
	MaxLimit     int

	SeedFile    string
	SeedWorkers int
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:          env("APP_ENV", "prod"),
		LogLevel:        env("LOG_LEVEL", "info"),
		HTTPAddr:        env("HTTP_ADDR", ":8080"),
		HTTPTimeout:     time.Duration(atoi("HTTP_TIMEOUT_SECONDS", 30)) * time.Second,
		MetricsAddr:     env("METRICS_ADDR", ""),
		MySQLDSN:        env("MYSQL_DSN", "root:root@tcp(localhost:3306)/homefinder?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:       env("REDIS_ADDR", "localhost:6379"),
		RedisPass:       env("REDIS_PASSWORD", ""),
		RedisDB:         atoi("REDIS_DB", 0),
		OSRMBase:        env("OSRM_BASE_URL", "https://router.project-osrm.org"),
		OSRMProfile:     env("OSRM_PROFILE", "driving"),
		OSRMMinInterval: time.Duration(atoi("OSRM_MIN_INTERVAL_MS", 200)) * time.Millisecond,
		OSRMTimeout:     time.Duration(atoi("OSRM_TIMEOUT_SECONDS", 20)) * time.Second,
		OSRMBreaker:     env("OSRM_BREAKER", "on") != "off",
		MatrixCache:     env("MATRIX_CACHE", "memory"),
		MatrixCacheSize: atoi("MATRIX_CACHE_SIZE", 10000),
		MatrixCacheTTL:  time.Duration(atoi("MATRIX_CACHE_TTL_SECONDS", 86400)) * time.Second,
		DefaultLimit:    atoi("SELECT_DEFAULT_LIMIT", 100),
		MaxLimit:        atoi("SELECT_MAX_LIMIT", 500),
		SeedFile:        env("SEED_FILE", "seed/properties.json"),
		SeedWorkers:     atoi("SEED_WORKERS", 4),
	}
	if c.OSRMMinInterval < 200*time.Millisecond {
		log.Warn().Dur("interval", c.OSRMMinInterval).Msg("OSRM_MIN_INTERVAL_MS below 200ms floor, using 200ms")
		c.OSRMMinInterval = 200 * time.Millisecond
	}
	if c.MatrixCache != "memory" && c.MatrixCache != "redis" {
		log.Warn().Str("cache", c.MatrixCache).Msg("unknown MATRIX_CACHE, using memory")
		c.MatrixCache = "memory"
	}
	if c.MaxLimit < c.DefaultLimit {
		c.MaxLimit = c.DefaultLimit
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
