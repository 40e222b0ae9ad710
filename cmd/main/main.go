package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"sync"
	"syscall"
	"time"

	"polyring/internal/api"
	"polyring/internal/config"
	"polyring/internal/logging"
	"polyring/internal/postgres"
	"polyring/internal/redis"
	"polyring/internal/service/polygon"
	"polyring/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/go-logr/logr"
	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, logCloser := setupLogging(cfg)
	defer logCloser.Close()

	db, rdb := initializeDatabaseAndCache(cfg, logger)
	defer closeConnections(db, rdb, logger)

	svc := initializeServices(cfg, db, rdb, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	wg := worker.StartAllWorkers(ctx, svc, worker.Intervals{
		Cache: cfg.CacheFlushInterval,
		Store: cfg.StoreFlushInterval,
	}, logger.WithName("worker"))

	reportMemoryStats(ctx, logger)

	if err := runAPIServer(ctx, cfg, svc, logger); err != nil {
		logger.Error(err, "API server failed")
	}

	shutdown(svc, wg, logger)
}

func setupLogging(cfg config.Config) (logr.Logger, io.Closer) {
	logger, closer, err := logging.Setup(cfg.LogFile, cfg.LogVerbosity)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	return logger.WithName("polyring"), closer
}

func initializeDatabaseAndCache(cfg config.Config, logger logr.Logger) (*gorm.DB, *goredis.Client) {
	// Initialize PostgreSQL
	db, err := postgres.Open(cfg.DBUrl, logger.WithName("postgres"))
	if err != nil {
		logger.Error(err, "Failed to connect to PostgreSQL")
		os.Exit(1)
	}
	logger.Info("Connected to PostgreSQL")

	// Initialize Redis
	rdb, err := redis.Open(cfg.RedisUrl)
	if err != nil {
		logger.Error(err, "Failed to connect to Redis")
		os.Exit(1)
	}
	logger.Info("Connected to Redis")

	return db, rdb
}

func initializeServices(cfg config.Config, db *gorm.DB, rdb *goredis.Client, logger logr.Logger) *polygon.PolygonService {
	svc := polygon.NewService(
		postgres.NewPolygonRepository(db, logger.WithName("repository")),
		redis.NewPolygonCache(rdb, logger.WithName("cache")),
		polygon.WithLogger(logger.WithName("polygons")),
		polygon.WithStorePrecision(cfg.StorePrecision),
		polygon.WithShards(cfg.StorageShards),
	)

	// Load data from PostgreSQL and Redis
	if err := svc.Init(context.Background()); err != nil {
		logger.Error(err, "Failed to initialize polygon service")
		os.Exit(1)
	}
	return svc
}

func runAPIServer(ctx context.Context, cfg config.Config, svc *polygon.PolygonService, logger logr.Logger) error {
	if cfg.LogVerbosity == 0 {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize Gin router
	r := gin.New()
	r.Use(gin.Recovery())

	// Configure API routes
	info := map[string]string{
		"service":          "polyring",
		"port":             cfg.Port,
		"defaultPrecision": strconv.Itoa(cfg.DefaultPrecision),
	}
	api.SetupRouter(r, info, svc, cfg.DefaultPrecision)

	srv := &http.Server{
		Addr:              cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: config.ReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("API server listening", "addr", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("Shutdown signal received, stopping API server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func shutdown(svc *polygon.PolygonService, wg *sync.WaitGroup, logger logr.Logger) {
	wg.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()

	if err := worker.FlushAll(ctx, svc); err != nil {
		logger.Error(err, "Final flush failed")
		return
	}
	logger.Info("Final flush complete")
}

func reportMemoryStats(ctx context.Context, logger logr.Logger) {
	ticker := time.NewTicker(30 * time.Second)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				var m runtime.MemStats
				runtime.ReadMemStats(&m)
				logger.V(1).Info("memory stats",
					"allocMiB", m.Alloc/1024/1024,
					"totalAllocMiB", m.TotalAlloc/1024/1024,
					"sysMiB", m.Sys/1024/1024,
					"numGC", m.NumGC)
			}
		}
	}()
}

func closeConnections(db *gorm.DB, rdb *goredis.Client, logger logr.Logger) {
	if err := postgres.Close(db); err != nil {
		logger.Error(err, "Error closing PostgreSQL connection")
	}

	if err := rdb.Close(); err != nil {
		logger.Error(err, "Error closing Redis connection")
	}

	logger.Info("PostgreSQL and Redis connections closed")
}
