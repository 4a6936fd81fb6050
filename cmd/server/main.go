package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"oci-registry-service/internal/adapters/primary/http/handlers"
	"oci-registry-service/internal/adapters/primary/http/middleware"
	"oci-registry-service/internal/adapters/secondary/kube"
	"oci-registry-service/internal/adapters/secondary/layout"
	"oci-registry-service/internal/adapters/secondary/postgres"
	"oci-registry-service/internal/adapters/secondary/redis"
	"oci-registry-service/internal/adapters/secondary/upstream"
	"oci-registry-service/internal/config"
	output "oci-registry-service/internal/core/ports/output"
	"oci-registry-service/internal/core/services"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	initLogger(cfg)

	// Create database pool
	poolCfg, err := pgxpool.ParseConfig(cfg.Database.DSN())
	if err != nil {
		log.Fatalf("parse db config: %v", err)
	}
	poolCfg.MaxConns = int32(cfg.Database.MaxOpenConns)
	poolCfg.MinConns = int32(cfg.Database.MaxIdleConns)
	poolCfg.MaxConnLifetime = cfg.Database.ConnMaxLifetime

	pool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		log.Fatalf("create db pool: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(context.Background()); err != nil {
		log.Fatalf("ping db: %v", err)
	}
	if err := postgres.Migrate(context.Background(), pool); err != nil {
		log.Fatalf("migrate db: %v", err)
	}
	log.Info("database connection established")

	// ============================================================================
	// Hexagonal Architecture Wiring
	// ============================================================================

	// Secondary Adapters (Output Ports)
	metadataRepo := postgres.NewMetadataRepository(pool)

	blobStore, err := layout.NewBlobStore(cfg.Storage.Root)
	if err != nil {
		log.Fatalf("open blob store: %v", err)
	}

	// Manifest cache (Optional - based on config)
	var manifestCache output.ManifestCache
	if cfg.Redis.Enabled {
		rdb, err := redis.NewClient(context.Background(), &cfg.Redis)
		if err != nil {
			log.Warnf("Redis client init failed (continuing without manifest cache): %v", err)
		} else {
			defer rdb.Close()
			manifestCache = redis.NewManifestCache(rdb, cfg.Redis.TTL)
			log.Info("manifest cache initialized")
		}
	} else {
		log.Info("manifest cache disabled")
	}

	// Upstream registry (Optional - based on config)
	var upstreamClient output.UpstreamClient
	if cfg.Upstream.Enabled {
		upstreamClient = upstream.NewClient(&cfg.Upstream)
		log.WithField("url", cfg.Upstream.URL).Info("pull-through enabled")
	} else {
		log.Info("pull-through disabled")
	}

	// Cluster client (Optional - based on config)
	var clusterClient output.ClusterClient
	if cfg.Kubernetes.Enabled {
		client, err := kube.NewClusterClient(&cfg.Kubernetes)
		if err != nil {
			log.Warnf("Kubernetes client init failed (continuing without image inventory): %v", err)
		} else {
			clusterClient = client
			log.Info("Kubernetes client initialized")
		}
	} else {
		log.Info("Kubernetes integration disabled")
	}

	// Core Services (Application Layer)
	registrySvc := services.NewRegistryService(metadataRepo, blobStore, manifestCache, upstreamClient)
	blobSvc := services.NewBlobService(metadataRepo, blobStore, upstreamClient)
	validationSvc := services.NewValidationService(blobStore)
	inventorySvc := services.NewInventoryService(clusterClient, metadataRepo)

	// Primary Adapter (HTTP Handlers)
	h := handlers.New(registrySvc, blobSvc, validationSvc, inventorySvc)

	// Setup router
	router := gin.New()
	router.Use(middleware.RequestID(), middleware.Logging(), gin.Recovery())

	h.RegisterRoutes(router.Group("/v2"))
	h.RegisterAPIRoutes(router.Group("/api/v1/oci"))

	// Health check with DB ping
	router.GET("/healthz", func(c *gin.Context) {
		if err := pool.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		log.Infof("starting registry on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server forced shutdown: %v", err)
	}

	log.Info("server stopped")
}

func initLogger(cfg *config.Config) {
	level, err := log.ParseLevel(cfg.Logger.Level)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if cfg.Logger.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}
