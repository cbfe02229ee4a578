// Command transcached serves the EduFlow translation cache over HTTP.
package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/eduflow/transcache"
	"github.com/eduflow/transcache/config"
	"github.com/eduflow/transcache/httpapi"
	"github.com/eduflow/transcache/metrics"
	"github.com/eduflow/transcache/provider"
	"github.com/eduflow/transcache/tier"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("transcached exited with error: %v", err)
	}
}

func run() error {
	configPath := flag.String("config", "", "Path to YAML config file (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer logger.Sync()

	metrics.Register()

	logger.Info("loaded config",
		zap.String("addr", cfg.HTTP.Addr),
		zap.Bool("redis_configured", cfg.Redis.URL != ""),
		zap.Bool("database_configured", cfg.Database.URL != ""),
		zap.Bool("provider_configured", cfg.Provider.OpenAIAPIKey != ""),
		zap.String("version", transcache.FullVersion()),
	)

	// ----- Local tier (always present) -----
	local := tier.NewLocal(tier.LocalConfig{
		Path:   cfg.Cache.SnapshotPath,
		MaxAge: cfg.Cache.MaxAge,
		Logger: logger,
	})

	opts := []transcache.Option{
		transcache.WithLogger(logger),
		transcache.WithFlushEvery(cfg.Cache.FlushEvery),
		transcache.WithLookupObserver(metrics.ObserveLookup),
	}

	// ----- Fast tier (optional) -----
	if cfg.Redis.URL != "" {
		fast, err := tier.NewRedis(tier.RedisConfig{
			URL:       cfg.Redis.URL,
			TTL:       cfg.Redis.TTLSeconds,
			KeyPrefix: cfg.Redis.KeyPrefix,
		})
		if err != nil {
			// Fail fast: a configured tier that cannot connect is a
			// deployment error, not a runtime degradation.
			logger.Error("redis connection failed", zap.Error(err))
			return err
		}
		defer fast.Close()

		logger.Info("redis connection established")
		opts = append(opts, transcache.WithFastTier(fast))
	}

	// ----- Durable tier (optional) -----
	if cfg.Database.URL != "" {
		db, err := sql.Open("pgx", cfg.Database.URL)
		if err != nil {
			logger.Error("database open failed", zap.Error(err))
			return err
		}
		defer db.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = db.PingContext(pingCtx)
		cancel()
		if err != nil {
			logger.Error("database connection failed", zap.Error(err))
			return err
		}

		logger.Info("database connection established")
		opts = append(opts, transcache.WithDurableTier(tier.NewPostgres(db)))
	}

	cache := transcache.New(local, opts...)

	// ----- Upstream provider (optional) -----
	var translator transcache.WordTranslator
	if cfg.Provider.OpenAIAPIKey != "" {
		openAI := provider.NewOpenAIProvider(provider.OpenAIConfig{
			APIKey: cfg.Provider.OpenAIAPIKey,
			Model:  cfg.Provider.Model,
		})
		limited := transcache.NewRateLimitedTranslator(openAI, transcache.RateLimitConfig{
			RequestsPerMinute: cfg.Provider.RequestsPerMinute,
		})
		translator = transcache.NewRetryableTranslator(limited, transcache.DefaultRetryConfig())
	}

	// ----- Router + server -----
	handler := httpapi.NewHandler(cache, translator, logger)
	router := httpapi.NewRouter(handler, logger)

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info("starting transcached", zap.String("addr", srv.Addr))

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", zap.Error(err))
		}
	}()

	// ----- Graceful shutdown -----
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
		return err
	}

	// One last flush so nothing written since the previous flush point
	// is lost across the restart.
	if err := local.SaveSnapshot(); err != nil {
		logger.Warn("final snapshot flush failed", zap.Error(err))
	}

	logger.Info("server shutdown complete")
	return nil
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zcfg zap.Config
	if cfg.Development {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
	}

	if cfg.Level != "" {
		level, err := zap.ParseAtomicLevel(cfg.Level)
		if err != nil {
			return nil, err
		}
		zcfg.Level = level
	}

	return zcfg.Build()
}
