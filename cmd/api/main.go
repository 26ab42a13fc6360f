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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/pagegraph/pagegraph/internal/api"
	"github.com/pagegraph/pagegraph/internal/crawler"
	"github.com/pagegraph/pagegraph/internal/jobs"
	"github.com/pagegraph/pagegraph/internal/platform/config"
	"github.com/pagegraph/pagegraph/internal/platform/logger"
	"github.com/pagegraph/pagegraph/internal/platform/metrics"
	"github.com/pagegraph/pagegraph/internal/platform/middleware"
	"github.com/pagegraph/pagegraph/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)

	var st store.Store = store.NewMemory()
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		st = store.NewRedis(client)
		log.Info("using redis store", "addr", cfg.RedisAddr)
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	engine := crawler.NewEngine(time.Duration(cfg.FetchTimeoutSeconds)*time.Second, log)
	runner := jobs.NewRunner(st, engine, log, m)
	service := api.NewService(st, runner, log)
	transport := api.NewTransport(service, log)

	mux := http.NewServeMux()
	transport.RegisterRoutes(mux)
	mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	handler := middleware.RequestID(middleware.Logging(log)(mux))

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server listening", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown failed", "error", err)
	}
	log.Info("server stopped")
}
