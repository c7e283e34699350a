package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/connectbase/member-search/internal/bootstrap"
	"github.com/connectbase/member-search/internal/config"
	"github.com/connectbase/member-search/internal/observability/logging"
	"github.com/connectbase/member-search/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger("member-search-indexer", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger, nil)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	indexerMetrics := metrics.NewIndexerMetrics("member-search-indexer")
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", indexerMetrics.Handler())
		if err := http.ListenAndServe(":"+cfg.IndexerMetricsPort, mux); err != nil && err != http.ErrServerClosed {
			logger.Error("indexer_metrics_server_error", "error", err)
		}
	}()

	logger.Info("indexer_subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeMemberUpdated(ctx, func(handlerCtx context.Context, membershipID string) error {
		indexCtx, cancel := context.WithTimeout(handlerCtx, 2*time.Minute)
		defer cancel()

		indexerMetrics.StartIndex()
		start := time.Now()
		indexErr := app.IndexUC.IndexByMembershipID(indexCtx, membershipID)
		indexerMetrics.FinishIndex("member-search-indexer", time.Since(start), indexErr)
		return indexErr
	})
	if err != nil {
		log.Fatalf("indexer subscribe error: %v", err)
	}
}
