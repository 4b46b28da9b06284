package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/memeboard/memeboard/handlers"
	"github.com/memeboard/memeboard/internal/board"
	"github.com/memeboard/memeboard/internal/config"
	"github.com/memeboard/memeboard/internal/sessions"
	"github.com/memeboard/memeboard/internal/store"
	"github.com/memeboard/memeboard/internal/uploads"
	"github.com/memeboard/memeboard/pkg/logger"
	"github.com/memeboard/memeboard/pkg/metrics"
	"github.com/memeboard/memeboard/pkg/middleware"
)

var startTime = time.Now()

func main() {
	// initialize logging (can be controlled with LOG_LEVEL env: debug|info|warn|error|fatal)
	logger.Init(os.Getenv("LOG_LEVEL"))
	logger.Debugf("startup: LOG_LEVEL=%s", logger.LevelString())

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: data_file=%s upload_dir=%s redis=%v minio=%v",
		cfg.Store.DataFile, cfg.Uploads.Dir, cfg.Redis.Host != "", cfg.Uploads.MinIOEndpoint != "")

	// document store: create the file on first run
	st := store.NewFileStore(cfg.Store.DataFile)
	if err := st.Init(); err != nil {
		logger.Fatalf("failed to initialize document store: %v", err)
	}

	// image storage: MinIO when configured, local disk otherwise
	var files uploads.Store
	if cfg.Uploads.MinIOEndpoint != "" {
		m, err := uploads.NewMinIO(uploads.MinIOConfig{
			Endpoint:  cfg.Uploads.MinIOEndpoint,
			AccessKey: cfg.Uploads.MinIOAccessKey,
			SecretKey: cfg.Uploads.MinIOSecretKey,
			UseSSL:    cfg.Uploads.MinIOUseSSL,
			Bucket:    cfg.Uploads.MinIOBucket,
		})
		if err != nil {
			logger.Fatalf("failed to connect to MinIO: %v", err)
		}
		files = m
		logger.Infof("using MinIO image storage (%s/%s)", cfg.Uploads.MinIOEndpoint, cfg.Uploads.MinIOBucket)
	} else {
		d, err := uploads.NewDisk(cfg.Uploads.Dir)
		if err != nil {
			logger.Fatalf("failed to prepare upload dir: %v", err)
		}
		files = d
	}

	svc := board.NewService(st, files)

	ctx := context.Background()

	// Redis is optional: it backs the logout blacklist. Without it, logout
	// only clears the cookie client-side.
	var redisClient *redis.Client
	if cfg.Redis.Host != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.Redis.Host + ":" + cfg.Redis.Port, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := redisClient.Ping(ctx).Err(); err == nil {
			sessions.SetBlacklistClient(redisClient)
			logger.Infof("connected to Redis for session blacklist: %s:%s", cfg.Redis.Host, cfg.Redis.Port)
		} else {
			logger.Warnf("failed to connect to Redis (%s:%s): %v", cfg.Redis.Host, cfg.Redis.Port, err)
			redisClient = nil
		}
	}

	// bootstrap the first administrator when configured
	if cfg.Admin.Username != "" && cfg.Admin.Password != "" {
		if err := svc.EnsureAdmin(ctx, cfg.Admin.Username, cfg.Admin.Password); err != nil {
			logger.Fatalf("failed to bootstrap admin %q: %v", cfg.Admin.Username, err)
		}
		logger.Infof("admin account %q present", cfg.Admin.Username)
	}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(middleware.Session(cfg))

	// Basic health endpoint
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	// readiness: the service is ready when the document store is readable
	r.GET("/ready", func(c *gin.Context) {
		deps := map[string]bool{}
		ready := true
		if _, err := st.Load(); err != nil {
			deps["store"] = false
			ready = false
		} else {
			deps["store"] = true
		}
		if cfg.Redis.Host != "" {
			deps["redis"] = redisClient != nil
			if !deps["redis"] {
				ready = false
			}
		} else {
			deps["redis"] = true
		}
		status := gin.H{"deps": deps, "uptime": time.Since(startTime).String()}
		if !ready {
			status["status"] = "not_ready"
			c.JSON(http.StatusServiceUnavailable, status)
			return
		}
		status["status"] = "ready"
		c.JSON(http.StatusOK, status)
	})

	root := r.Group("/")
	handlers.NewAuthHandler(cfg, svc).Register(root)
	handlers.NewMemeHandler(cfg, svc).Register(root)

	// Expose Prometheus metrics
	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	logger.Infof("starting memeboard on %s", addr)
	if err := r.Run(addr); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}
