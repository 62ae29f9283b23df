package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"lg/nutri-coach-go-api/internal/config"
	"lg/nutri-coach-go-api/internal/logging"
	"lg/nutri-coach-go-api/internal/ratelimit"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to load config: %v\n", err)
		os.Exit(1)
	}
	log := logging.New(cfg, "api")
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("[main] invalid config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := getDBPool(ctx, cfg.DB.URL)
	if err != nil {
		log.WithError(err).Fatal("[main] database unavailable")
	}
	defer pool.Close()
	log.Info("[main] DB pool ready")

	limiter, closeLimiter := newLimiter(cfg, log)
	defer closeLimiter()

	h := &Handler{
		db:      pool,
		log:     log,
		limiter: limiter,
		openAI: openAIConfig{
			BaseURL: cfg.OpenAI.BaseURL,
			APIKey:  cfg.OpenAI.APIKey,
			Model:   cfg.OpenAI.Model,
		},
		now: time.Now,
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.SetTrustedProxies(nil)
	h.registerRoutes(router)

	srv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Server.Port), Handler: router}
	go func() {
		log.WithField("port", cfg.Server.Port).Info("[main] listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("[main] server failed")
		}
	}()

	<-ctx.Done()
	log.Info("[main] shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("[main] shutdown")
	}
}

// newLimiter uses Redis when redis.addr is configured so every API instance
// shares one quota, and falls back to the in-process limiter otherwise.
func newLimiter(cfg *config.Config, log *logrus.Logger) (ratelimit.Limiter, func()) {
	limits := ratelimit.Limits{PerMinute: cfg.RateLimit.PerMinute, PerHour: cfg.RateLimit.PerHour}
	if cfg.Redis.Addr == "" {
		log.Info("[newLimiter] using in-memory rate limiter")
		return ratelimit.NewMemory(limits, time.Now), func() {}
	}

	r, err := ratelimit.NewRedis(ratelimit.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, limits)
	if err != nil {
		log.WithError(err).Warn("[newLimiter] redis unavailable, using in-memory rate limiter")
		return ratelimit.NewMemory(limits, time.Now), func() {}
	}
	log.WithField("addr", cfg.Redis.Addr).Info("[newLimiter] using redis rate limiter")
	return r, func() { r.Close() }
}
