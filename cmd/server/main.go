package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"company_sync/internal/app/di"
	"company_sync/internal/app/router"
	companyhandler "company_sync/internal/feature/companies/transport/handler"
	"company_sync/internal/feature/companies/usecase"
	"company_sync/internal/platform/config"
	infradb "company_sync/internal/platform/db"
	"company_sync/internal/platform/metrics"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()
	if err := cfg.Require(config.SectionDB); err != nil {
		log.Fatal(err)
	}

	// db
	db, err := infradb.OpenDB(cfg)
	if err != nil {
		log.Fatal(err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal(err)
	}
	defer func() {
		if err := sqlDB.Close(); err != nil {
			slog.Error("failed to close database", "error", err)
		}
	}()

	// Usecase
	statusUC := usecase.NewStatusUsecase(di.NewCompanyStore(db))

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		metrics.NewStatusCollector(statusUC),
	)

	// JWT_SECRETチェック（未設定なら管理APIは 500 を返す）
	if cfg.JWT.Secret == "" {
		slog.Warn("JWT_SECRET is not set; admin endpoints are disabled")
	}

	// ルータ生成
	r := router.NewRouter(router.Deps{
		Status:    companyhandler.NewStatusHandler(statusUC),
		Ping:      sqlDB.PingContext,
		Metrics:   promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		JWTSecret: cfg.JWT.Secret,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}
}
