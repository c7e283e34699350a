package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/connectbase/member-search/internal/config"
	"github.com/connectbase/member-search/internal/core/ports"
	"github.com/connectbase/member-search/internal/core/usecase"
	"github.com/connectbase/member-search/internal/extract"
	"github.com/connectbase/member-search/internal/infrastructure/provider/failover"
	"github.com/connectbase/member-search/internal/infrastructure/provider/openai"
	"github.com/connectbase/member-search/internal/infrastructure/queue/nats"
	"github.com/connectbase/member-search/internal/infrastructure/relevance/qdrant"
	"github.com/connectbase/member-search/internal/infrastructure/resilience"
	"github.com/connectbase/member-search/internal/infrastructure/session/memory"
	"github.com/connectbase/member-search/internal/infrastructure/store/postgres"
	"github.com/connectbase/member-search/internal/observability/metrics"
)

type App struct {
	Config config.Config

	Queue    *nats.Queue
	Members  *postgres.MemberRepository
	Vectors  *qdrant.Client
	QueryUC  ports.DirectoryQueryService
	IndexUC  ports.ProfileIndexer
	Sessions ports.SessionStore

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger, searchMetrics *metrics.SearchMetrics) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	members := postgres.NewMemberRepository(db)
	if err := members.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	queue, err := nats.New(cfg.NATSURL, cfg.NATSSubject)
	if err != nil {
		return nil, fmt.Errorf("init member event queue: %w", err)
	}

	executor := resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:        cfg.RetryMaxAttempts,
		RetryInitialBackoff:     cfg.RetryInitialBackoff,
		RetryMaxBackoff:         cfg.RetryMaxBackoff,
		BreakerEnabled:          true,
		BreakerMinRequests:      uint32(cfg.BreakerMinRequests),
		BreakerFailureRatio:     cfg.BreakerFailureRatio,
		BreakerOpenTimeout:      cfg.BreakerOpenTimeout,
		BreakerHalfOpenMaxCalls: uint32(cfg.BreakerHalfOpenMaxCalls),
		OnStateChange: func(operation, from, to string) {
			if searchMetrics != nil {
				searchMetrics.RecordBreakerTransition("member-search", operation, from, to)
			}
		},
	})

	providers := buildProviders(cfg)
	embedProviders := make([]failover.EmbeddingProvider, 0, len(providers))
	chatProviders := make([]failover.UnderstandingProvider, 0, len(providers))
	for _, p := range providers {
		embedProviders = append(embedProviders, p)
		chatProviders = append(chatProviders, p)
	}

	chainEmbedder := failover.NewEmbedder(executor, logger, embedProviders...)
	understander := failover.NewUnderstander(executor, logger, chatProviders...)
	embedder := failover.NewCachedEmbedder(chainEmbedder, cfg.EmbedCacheTTL)
	if searchMetrics != nil {
		chainEmbedder.WithObserver(func(provider, operation string, duration time.Duration, err error) {
			searchMetrics.RecordProviderCall("member-search", provider, operation, duration, err)
		})
		understander.WithObserver(func(provider, operation string, duration time.Duration, err error) {
			searchMetrics.RecordProviderCall("member-search", provider, operation, duration, err)
		})
		embedder.WithLookupObserver(func(hit bool) {
			searchMetrics.RecordEmbedCacheLookup("member-search", hit)
		})
	}

	vectors := qdrant.New(qdrant.Config{
		BaseURL:    cfg.QdrantURL,
		Collection: cfg.QdrantCollection,
		VectorSize: cfg.EmbedDimensions,
	})

	sessions := memory.NewStore(cfg.SessionIdleTTL, cfg.SessionMaxTurns)
	extractor, err := extract.NewExtractor()
	if err != nil {
		return nil, fmt.Errorf("init entity extractor: %w", err)
	}

	understandUC := usecase.NewUnderstandUseCase(extractor, understander, sessions, logger)
	searchUC := usecase.NewSearchUseCase(embedder, vectors, members, members, usecase.SearchWeights{
		Semantic:        cfg.SemanticWeight,
		Lexical:         cfg.LexicalWeight,
		ExactMatchBoost: cfg.ExactMatchBoost,
		TopK:            cfg.SearchTopK,
		DefaultPageSize: cfg.DefaultPageSize,
	}, logger)
	composer := usecase.NewComposer(cfg.ClarifyThreshold, cfg.DefaultPageSize)
	queryUC := usecase.NewQueryService(understandUC, searchUC, composer, sessions, logger)
	indexUC := usecase.NewIndexProfileUseCase(members, embedder, vectors, logger)

	return &App{
		Config:   cfg,
		Queue:    queue,
		Members:  members,
		Vectors:  vectors,
		QueryUC:  queryUC,
		IndexUC:  indexUC,
		Sessions: sessions,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func buildProviders(cfg config.Config) []*openai.Client {
	providers := []*openai.Client{
		openai.New(openai.Config{
			Name:              cfg.PrimaryProviderName,
			APIKey:            cfg.PrimaryAPIKey,
			BaseURL:           cfg.PrimaryBaseURL,
			ChatModel:         cfg.PrimaryChatModel,
			EmbedModel:        cfg.PrimaryEmbedModel,
			Dimensions:        cfg.EmbedDimensions,
			Timeout:           cfg.ProviderTimeout,
			RequestsPerSecond: cfg.PrimaryRequestsPerSec,
		}),
	}
	if cfg.HasFallbackProvider() {
		providers = append(providers, openai.New(openai.Config{
			Name:              cfg.FallbackProviderName,
			APIKey:            cfg.FallbackAPIKey,
			BaseURL:           cfg.FallbackBaseURL,
			ChatModel:         cfg.FallbackChatModel,
			EmbedModel:        cfg.FallbackEmbedModel,
			Dimensions:        cfg.EmbedDimensions,
			Timeout:           cfg.ProviderTimeout,
			RequestsPerSecond: cfg.FallbackRequestsPerSec,
		}))
	}
	return providers
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
