package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/AIS170/SENG3011-OMEGA/internal/api/handlers"
	"github.com/AIS170/SENG3011-OMEGA/internal/dataset"
	"github.com/AIS170/SENG3011-OMEGA/internal/ingest"
	"github.com/AIS170/SENG3011-OMEGA/internal/metrics"
	"github.com/AIS170/SENG3011-OMEGA/internal/middleware/ratelimit"
	"github.com/AIS170/SENG3011-OMEGA/internal/middleware/requestid"
	"github.com/AIS170/SENG3011-OMEGA/internal/middleware/security"
	"github.com/AIS170/SENG3011-OMEGA/internal/retrieval"
	"github.com/AIS170/SENG3011-OMEGA/internal/storage"
	"github.com/AIS170/SENG3011-OMEGA/internal/storage/object"
	redisstore "github.com/AIS170/SENG3011-OMEGA/internal/storage/redis"
	"github.com/AIS170/SENG3011-OMEGA/internal/storage/sqlite"
	"github.com/AIS170/SENG3011-OMEGA/internal/ticker"
	"github.com/AIS170/SENG3011-OMEGA/pkg/config"
	appLogger "github.com/AIS170/SENG3011-OMEGA/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting Omega Retrieval API Server")

	metrics.Init()

	records, err := newRecordStore(cfg)
	if err != nil {
		appLogger.Fatal("Failed to create record store", zap.Error(err))
	}
	defer records.Close()

	objects, err := object.NewFSStore(cfg.ObjectStore.Root)
	if err != nil {
		appLogger.Fatal("Failed to create object store", zap.Error(err))
	}

	buckets := map[dataset.Kind]string{
		dataset.KindFinance: cfg.Buckets.Finance,
		dataset.KindNews:    cfg.Buckets.News,
		dataset.KindSport:   cfg.Buckets.Sport,
	}

	retrievalService := retrieval.NewService(records, objects, buckets)
	ingestService := ingest.NewService(objects, buckets)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New())
	app.Use(security.Headers())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	var limiter *ratelimit.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = ratelimit.New(ratelimit.Config{
			MaxRequestsPerMinute: cfg.RateLimit.MaxRequestsPerMinute,
			Logger:               appLogger.L(),
		})
		app.Use(limiter.Middleware())
	}

	retrievalHandler := handlers.NewRetrievalHandler(retrievalService)
	ingestHandler := handlers.NewIngestHandler(ingestService)

	app.Post("/v1/register", retrievalHandler.Register)
	app.Get("/v1/retrieve/:username/:stockname", retrievalHandler.RetrieveV1)
	app.Get("/v2/retrieve/:username/:kind/:stockname", retrievalHandler.RetrieveV2)
	app.Delete("/v1/delete/:username/:filename", retrievalHandler.Delete)
	app.Get("/v1/list/:username", retrievalHandler.List)

	app.Post("/v1/collect/:username/:kind/:stockname", ingestHandler.Upload)
	app.Delete("/v1/collect/:username/:kind/:stockname", ingestHandler.Delete)
	app.Get("/v1/collect/:username/:kind", ingestHandler.List)

	if cfg.Ticker.Enabled {
		tickerClient := ticker.NewClient(cfg.Ticker.BaseURL, time.Duration(cfg.Ticker.TimeoutSec)*time.Second)
		tickerHandler := handlers.NewTickerHandler(tickerClient)
		app.Get("/v1/ticker", tickerHandler.Lookup)
	}

	app.Get("/metrics", metrics.MetricsHandler())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	app.Get("/ready", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ready",
		})
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	if limiter != nil {
		limiter.Stop()
	}
	app.Shutdown()
	appLogger.Info("Server stopped")
}

func newRecordStore(cfg *config.Config) (storage.RecordStore, error) {
	switch cfg.Storage.Driver {
	case "redis":
		return redisstore.NewClient(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(cfg.Storage.SQLitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		client, err := sqlite.NewClient(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, err
		}
		if err := client.InitSchema(); err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
