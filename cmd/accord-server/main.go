// Command accord-server runs the negotiation orchestration service: session
// lifecycle over HTTP, a websocket event stream, the advisory analysis
// surface, and Prometheus metrics.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"dev.accord.negotiation/internal/cache"
	"dev.accord.negotiation/internal/config"
	"dev.accord.negotiation/internal/handlers"
	"dev.accord.negotiation/internal/llm"
	"dev.accord.negotiation/internal/services"
)

const version = "1.0.0"

func main() {
	// A missing .env is the normal production case.
	_ = godotenv.Load()

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	if level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		log.SetLevel(level)
	}

	cfg := config.Load()
	gin.SetMode(resolveGinMode(cfg.Server.Mode))

	var redis *cache.RedisClient
	if cfg.Session.CacheEnabled {
		redis = cache.NewRedisClient(cfg.Redis)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redis.Ping(ctx); err != nil {
			log.WithError(err).Warn("Redis unreachable, oracle caching disabled")
			redis = nil
		}
		cancel()
	}

	var oracle llm.Oracle = llm.NewHTTPOracle(cfg.Oracle, log)
	if redis != nil {
		oracle = cache.NewCachingOracle(oracle, redis, cfg.Session.CacheTTL, log)
	}

	registry := services.NewModuleRegistry(cfg.Modules, oracle, log)
	negotiationService := services.NewNegotiationService(registry, cfg.Session, log)
	advisorService := services.NewAdvisorService(oracle, cfg.Modules.TheoryOfMind, redis, log)

	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	handlers.NewHealthHandler(redis, version).RegisterRoutes(router)

	v1 := router.Group("/v1")
	handlers.NewNegotiationHandler(negotiationService, log).RegisterRoutes(v1)
	handlers.NewAdvisorHandler(advisorService, log).RegisterRoutes(v1)
	handlers.NewStreamHandler(negotiationService, log).RegisterRoutes(v1)

	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.WithFields(logrus.Fields{
			"addr":    server.Addr,
			"version": version,
			"modules": cfg.Modules.Enabled,
		}).Info("Accord server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Forced shutdown")
	}
	if redis != nil {
		if err := redis.Close(); err != nil {
			log.WithError(err).Warn("Redis close")
		}
	}
}

func resolveGinMode(mode string) string {
	switch mode {
	case "debug":
		return gin.DebugMode
	case "test":
		return gin.TestMode
	default:
		return gin.ReleaseMode
	}
}
