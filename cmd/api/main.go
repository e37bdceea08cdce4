package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/matrixlabs/ai-converter/internal/adapters/http"
	"github.com/matrixlabs/ai-converter/internal/bootstrap"
	"github.com/matrixlabs/ai-converter/internal/config"
	"github.com/matrixlabs/ai-converter/internal/observability/logging"
	"github.com/matrixlabs/ai-converter/internal/observability/metrics"
)

const serviceName = "converter-api"

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.New(serviceName, cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	serverMetrics := metrics.NewHTTPServerMetrics(serviceName)
	app.Advisor.SetObserver(func(outcome string, duration time.Duration) {
		serverMetrics.RecordAdvisorCall(serviceName, outcome, duration)
	})
	router := httpadapter.NewRouter(
		app.ConvertUC,
		app.SubmitUC,
		app.JobsUC,
		serverMetrics,
		httpadapter.RouterConfig{
			Service:             serviceName,
			MaxUploadSize:       cfg.MaxFileSize,
			ConfidenceThreshold: cfg.DefaultConfidenceThreshold,
			UseAIByDefault:      cfg.UseAIByDefault,
		},
	).Handler()

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("api listening on :%s", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("api server error: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("api shutdown error: %v", err)
	}
}
