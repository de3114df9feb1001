package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/Cube-Core-Pro/cube-core-backend-sub016/internal/analyzer"
	"github.com/Cube-Core-Pro/cube-core-backend-sub016/internal/collector"
	"github.com/Cube-Core-Pro/cube-core-backend-sub016/internal/core"
	"github.com/Cube-Core-Pro/cube-core-backend-sub016/internal/monitor"
	"github.com/Cube-Core-Pro/cube-core-backend-sub016/internal/optimizer"
	"github.com/Cube-Core-Pro/cube-core-backend-sub016/internal/storage"
	"github.com/Cube-Core-Pro/cube-core-backend-sub016/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const maxHistoryLimit = 500

func main() {
	// Get config path from environment variable, default to configs/sysopt.yaml
	configPath := os.Getenv("SYSOPT_CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/sysopt.yaml"
	}

	config, err := core.LoadConfig(configPath)
	if err != nil {
		fmt.Printf("Config load failed: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Initialize(config.App.LogLevel, config.App.Environment); err != nil {
		fmt.Printf("Logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	db, err := storage.NewPostgresClient(config.GetDatabaseURL(), logger.Log)
	if err != nil {
		logger.Fatal("Database connection failed", zap.Error(err))
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.Health(ctx); err != nil {
		logger.Fatal("Database health check failed", zap.Error(err))
	}
	if err := db.InitSchema(ctx); err != nil {
		logger.Fatal("Schema init failed", zap.Error(err))
	}

	cache, err := storage.NewRedisClient(config.Redis.Addr, config.Redis.Password, config.Redis.DB, logger.Log)
	if err != nil {
		logger.Fatal("Redis connection failed", zap.Error(err))
	}
	defer cache.Close()

	col := collector.New(
		config.Collector.DiskPath,
		config.Collector.NetworkCapacityMbps,
		db.ProbeLatency,
		cache.ProbeLatency,
		logger.Log,
	)

	opt := optimizer.New(optimizer.Deps{
		MeasureDataStore:  col.MeasureDataStore,
		MeasureMemory:     col.MeasureMemory,
		MeasureCPU:        col.MeasureCPU,
		MeasureCache:      col.MeasureCache,
		MeasureNetwork:    col.MeasureNetwork,
		RefreshStatistics: db.RefreshStatistics,
		EvictTempKeys: func(ctx context.Context) error {
			_, err := cache.EvictTempKeys(ctx)
			return err
		},
	}, logger.Log)

	mon := monitor.New(monitor.Config{
		HealthInterval:   config.HealthInterval(),
		OptimizeInterval: config.OptimizeInterval(),
		CacheTTL:         config.CacheTTL(),
		HistoryRetention: config.Monitor.HistoryRetention,
		PoolAcquiredConns: func() int32 {
			return db.GetPoolStats().AcquiredConns()
		},
	}, col, opt, db, cache, logger.Log)

	if err := mon.Start(); err != nil {
		logger.Fatal("Monitor start failed", zap.Error(err))
	}

	if config.App.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery(), ginLogger())

	router.GET("/health", healthHandler(config))
	router.GET("/ready", readyHandler(db, cache))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	so := router.Group("/system-optimization")
	{
		so.GET("/health", getSystemHealthHandler(mon))
		so.POST("/optimize", optimizeHandler(mon))

		// History endpoints
		so.GET("/history", getHistoryHandler(db))
		so.GET("/optimizations", getOptimizationRunsHandler(db))
		so.GET("/trends", getTrendsHandler(db, config))
		so.GET("/anomalies", getAnomaliesHandler(db))
	}

	srv := &http.Server{
		Addr:           fmt.Sprintf(":%d", config.Server.Port),
		Handler:        router,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   30 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		logger.Info("HTTP server started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	srv.Shutdown(shutdownCtx)
	mon.Stop()
	db.Close()
	cache.Close()
}

func healthHandler(config *core.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"service":   config.App.Name,
			"version":   config.App.Version,
			"timestamp": time.Now().Format(time.RFC3339),
		})
	}
}

func readyHandler(db *storage.PostgresClient, cache *storage.RedisClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		if err := db.Health(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not_ready",
				"reason": "database unavailable",
			})
			return
		}

		if err := cache.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not_ready",
				"reason": "cache unavailable",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "ready",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	}
}

func getSystemHealthHandler(mon *monitor.Monitor) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
		defer cancel()

		report := mon.BuildReport(ctx)
		c.JSON(http.StatusOK, report)
	}
}

func optimizeHandler(mon *monitor.Monitor) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
		defer cancel()

		optimizations, err := mon.RunOptimization(ctx)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Optimization pass failed",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"optimizations": optimizations,
			"count":         len(optimizations),
			"timestamp":     time.Now().Format(time.RFC3339),
		})
	}
}

func getOptimizationRunsHandler(db *storage.PostgresClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		limitStr := c.DefaultQuery("limit", "20")

		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid limit parameter. Use a positive integer",
			})
			return
		}
		if limit > maxHistoryLimit {
			limit = maxHistoryLimit
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		runs, err := db.RecentOptimizationRuns(ctx, limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to retrieve optimization runs",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"optimizations": runs,
			"count":         len(runs),
			"timestamp":     time.Now().Format(time.RFC3339),
		})
	}
}

func getHistoryHandler(db *storage.PostgresClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		limitStr := c.DefaultQuery("limit", "20")

		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid limit parameter. Use a positive integer",
			})
			return
		}
		if limit > maxHistoryLimit {
			limit = maxHistoryLimit
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		records, err := db.RecentHealthRecords(ctx, limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to retrieve health history",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"history":   records,
			"count":     len(records),
			"timestamp": time.Now().Format(time.RFC3339),
		})
	}
}

func getTrendsHandler(db *storage.PostgresClient, config *core.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		samplesStr := c.DefaultQuery("samples", "60")

		samples, err := strconv.Atoi(samplesStr)
		if err != nil || samples < 2 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid samples parameter. Use an integer of at least 2",
			})
			return
		}
		if samples > maxHistoryLimit {
			samples = maxHistoryLimit
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		scores, err := db.RecentScores(ctx, samples)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to retrieve score history",
			})
			return
		}

		trend, err := analyzer.AnalyzeTrend(scores, config.HealthInterval())
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Not enough history for trend analysis",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"trend":     trend,
			"timestamp": time.Now().Format(time.RFC3339),
		})
	}
}

func getAnomaliesHandler(db *storage.PostgresClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		samplesStr := c.DefaultQuery("samples", "120")

		samples, err := strconv.Atoi(samplesStr)
		if err != nil || samples < 1 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid samples parameter. Use a positive integer",
			})
			return
		}
		if samples > maxHistoryLimit {
			samples = maxHistoryLimit
		}

		thresholdStr := c.DefaultQuery("threshold", "0")
		threshold, err := strconv.ParseFloat(thresholdStr, 64)
		if err != nil || threshold < 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid threshold parameter. Use a non-negative number",
			})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		scores, err := db.RecentScores(ctx, samples)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to retrieve score history",
			})
			return
		}

		report := analyzer.DetectAnomalies(scores, threshold)
		c.JSON(http.StatusOK, gin.H{
			"anomalies": report,
			"timestamp": time.Now().Format(time.RFC3339),
		})
	}
}

func ginLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		duration := time.Since(start)

		logger.Info("HTTP Request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", duration),
			zap.String("ip", c.ClientIP()),
		)
	}
}
