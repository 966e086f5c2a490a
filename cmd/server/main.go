package main

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/perfect-perfect/just-tech-news/internal/db"
	"github.com/perfect-perfect/just-tech-news/internal/server"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(),
	}))
	slog.SetDefault(logger)

	cfg := db.Config{
		DriverName:      envOr("DB_DRIVER", "sqlite3"),
		MaxOpenConns:    25,
		MaxIdleConns:    10,
		ConnMaxLifetime: 5 * time.Minute,
		DefaultTimeout:  10 * time.Second,
		Hooks: []db.Hook{
			db.NewLogHook(db.LogHookConfig{
				Logger:             logger,
				SlowQueryThreshold: 200 * time.Millisecond,
			}),
		},
	}
	switch cfg.DriverName {
	case "sqlite3":
		cfg.DSN = db.SQLiteDSN(envOr("DB_PATH", "just-tech-news.db"))
	default:
		cfg.DSN = os.Getenv("DATABASE_URL")
		if cfg.DSN == "" {
			logger.Error("DATABASE_URL is required for driver", "driver", cfg.DriverName)
			os.Exit(1)
		}
	}

	database, err := db.Open(cfg)
	if err != nil {
		logger.Error("database open failed", "error", err)
		os.Exit(1)
	}
	defer database.Close()
	logger.Info("database connected", "driver", cfg.DriverName, "stats", database.Stats())

	srv, err := server.New(database, envOr("WEB_DIR", "web"), logger)
	if err != nil {
		logger.Error("server init failed", "error", err)
		os.Exit(1)
	}
	if hours := os.Getenv("SESSION_TTL"); hours != "" {
		if d, err := time.ParseDuration(hours + "h"); err == nil && d > 0 {
			srv.SessionTTL = d
		}
	}

	port := envOr("PORT", "8080")
	logger.Info("listening", "port", port)
	if err := http.ListenAndServe(":"+port, srv); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func logLevel() slog.Level {
	if os.Getenv("LOG_DEBUG") != "" {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}
