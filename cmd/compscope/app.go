package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/compscope/internal/config"
	"github.com/kailas-cloud/compscope/internal/db"
	dbRedis "github.com/kailas-cloud/compscope/internal/db/redis"
	"github.com/kailas-cloud/compscope/internal/domain"
	"github.com/kailas-cloud/compscope/internal/domain/keyword"
	domtask "github.com/kailas-cloud/compscope/internal/domain/task"
	logpkg "github.com/kailas-cloud/compscope/internal/logger"
	"github.com/kailas-cloud/compscope/internal/metrics"
	analysisrepo "github.com/kailas-cloud/compscope/internal/repository/analysis"
	businessrepo "github.com/kailas-cloud/compscope/internal/repository/business"
	"github.com/kailas-cloud/compscope/internal/repository/embcache"
	taskrepo "github.com/kailas-cloud/compscope/internal/repository/task"
	"github.com/kailas-cloud/compscope/internal/transport/dataforseo"
	openaiEmb "github.com/kailas-cloud/compscope/internal/transport/openai"
	"github.com/kailas-cloud/compscope/internal/transport/scraper"
	analysisuc "github.com/kailas-cloud/compscope/internal/usecase/analysis"
	"github.com/kailas-cloud/compscope/internal/usecase/discovery"
	embeddinguc "github.com/kailas-cloud/compscope/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/compscope/internal/usecase/health"
	"github.com/kailas-cloud/compscope/internal/usecase/intersection"
	"github.com/kailas-cloud/compscope/internal/usecase/opportunity"
	"github.com/kailas-cloud/compscope/internal/usecase/ranking"
	taskuc "github.com/kailas-cloud/compscope/internal/usecase/task"
)

// app is the wired service graph shared by all commands.
type app struct {
	cfg         config.Config
	env         string
	logger      *zap.Logger
	store       db.Store
	businesses  *businessrepo.Repo
	tasks       *taskrepo.Repo
	analysis    *analysisuc.Service
	opportunity *opportunity.Service
	health      *healthuc.Service
}

// newApp loads configuration, connects to the store and builds every
// component. Call close when done.
func newApp(ctx context.Context) (*app, error) {
	env := config.GetEnv()
	cfg, err := config.Load(env)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	metrics.Register()

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
		DB:       cfg.Database.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("create database store: %w", err)
	}
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return nil, fmt.Errorf("database not ready: %w", err)
	}
	logger.Info("Connected to database", zap.Strings("addrs", cfg.Database.Addrs))

	a := &app{cfg: cfg, env: env, logger: logger, store: store}
	a.build()
	return a, nil
}

func (a *app) build() {
	cfg, logger := a.cfg, a.logger
	prefix := cfg.Database.KeyPrefix

	embedder := buildEmbedder(&cfg, a.store, logger)

	seo := dataforseo.New(dataforseo.Config{
		BaseURL:        cfg.DataForSEO.BaseURL,
		Login:          cfg.DataForSEO.Login,
		Password:       cfg.DataForSEO.Password,
		Timeout:        time.Duration(cfg.DataForSEO.TimeoutSec) * time.Second,
		RequestsPerSec: cfg.DataForSEO.RequestsPerSec,
		MaxFailures:    cfg.DataForSEO.MaxFailures,
		BreakerOpen:    time.Duration(cfg.DataForSEO.BreakerOpenSec) * time.Second,
		Logger:         logpkg.Component(logger, "dataforseo"),
	})

	fetcher := scraper.New(scraper.Config{
		ReaderBaseURL:  cfg.Scraper.ReaderBaseURL,
		ReaderAPIKey:   cfg.Scraper.ReaderAPIKey,
		Timeout:        time.Duration(cfg.Scraper.TimeoutSec) * time.Second,
		MaxChars:       cfg.Scraper.MaxChars,
		UserAgent:      cfg.Scraper.UserAgent,
		RequestsPerSec: cfg.Scraper.RequestsPerSec,
		Logger:         logpkg.Component(logger, "scraper"),
	})

	r := cfg.Ranking
	filter := discovery.NewFilter(discovery.FilterOptions{
		ExtraBlocklist:  r.ExtraBlocklist,
		MaxETV:          r.MaxETV,
		MaxKeywordCount: r.MaxKeywordCount,
	})
	discoverySvc := discovery.New(seo, seo, filter, logpkg.Component(logger, "discovery"))
	rankingSvc := ranking.New(fetcher, embedder, ranking.Options{
		TopNDomain:         r.TopNDomain,
		TopNLocation:       r.TopNLocation,
		LocationFetchLimit: r.LocationFetchLimit,
	}, logpkg.Component(logger, "ranking"))
	intersectionSvc := intersection.New(seo, embedder, r.SimilarityChunkSize, logpkg.Component(logger, "intersection"))
	a.opportunity = opportunity.New(seo, r.BucketCap, logpkg.Component(logger, "opportunity"))

	a.businesses = businessrepo.New(a.store, prefix)
	a.tasks = taskrepo.New(a.store, prefix, time.Duration(cfg.Tasks.TTLHours)*time.Hour)

	a.analysis = analysisuc.New(
		a.businesses,
		analysisrepo.New(a.store, prefix),
		discoverySvc,
		rankingSvc,
		intersectionSvc,
		a.opportunity,
		embedder,
		analysisuc.Options{
			DiscoveryLimit:    r.DiscoveryLimit,
			IntersectionLimit: r.IntersectionLimit,
			IdeasLimit:        r.IdeasLimit,
			MapsDepth:         r.MapsDepth,
			Select: keyword.SelectOptions{
				K:         r.TargetK,
				Threshold: r.OverlapThreshold,
			},
		},
		logpkg.Component(logger, "analysis"),
	)

	a.health = healthuc.New(a.store, map[string]healthuc.Checker{
		"embedding": newEmbeddingHealthChecker(embedder),
		"seo_data":  seo,
	}, logpkg.Component(logger, "health"))
}

// jobs maps task kinds to analysis runs.
func (a *app) jobs() taskuc.Jobs {
	wrap := func(run func(context.Context, string) (analysisuc.Report, error)) taskuc.Job {
		return func(ctx context.Context, businessID string) ([]string, error) {
			rep, err := run(ctx, businessID)
			return rep.Warnings, err
		}
	}
	return taskuc.Jobs{
		domtask.KindCompetitors:         wrap(a.analysis.RunCompetitors),
		domtask.KindLocationCompetitors: wrap(a.analysis.RunLocationCompetitors),
		domtask.KindKeywords:            wrap(a.analysis.RunKeywords),
		domtask.KindTargets:             wrap(a.analysis.RunTargets),
		domtask.KindOpportunities:       wrap(a.analysis.RunOpportunities),
	}
}

func (a *app) close() {
	a.store.Close()
	_ = a.logger.Sync()
}

// embeddingHealthChecker wraps domain.Embedder to implement health.Checker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instrumented.
func buildEmbedder(cfg *config.Config, store db.Store, logger *zap.Logger) domain.Embedder {
	ec := cfg.Embedding
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     ec.APIKey,
		BaseURL:    ec.BaseURL,
		Model:      ec.Model,
		Dimensions: ec.Dimensions,
		Provider:   ec.Provider,
		Logger:     logger,
	})

	var embedder domain.Embedder = base
	if store != nil {
		embedder = embcache.New(base, store, embcache.Options{
			KeyPrefix: cfg.Database.KeyPrefix,
			Model:     ec.Model,
			TTL:       time.Duration(ec.CacheTTLHour) * time.Hour,
		}, metrics.EmbeddingCacheTotal, logger)
	}

	return embeddinguc.NewInstrumentedEmbedder(embedder, ec.Provider, ec.Model, ec.MaxBatchSize, logger)
}
