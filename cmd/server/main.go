package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"vouch/internal/decision"
	decisionhandler "vouch/internal/decision/handler"
	decisionmetrics "vouch/internal/decision/metrics"
	httpapi "vouch/internal/http"
	"vouch/internal/ledger"
	ledgerhandler "vouch/internal/ledger/handler"
	ledgermetrics "vouch/internal/ledger/metrics"
	"vouch/internal/ledger/store/memory"
	ledgerpg "vouch/internal/ledger/store/postgres"
	"vouch/internal/platform/config"
	"vouch/internal/platform/httpserver"
	"vouch/internal/platform/logger"
	"vouch/internal/platform/postgres"
	platformredis "vouch/internal/platform/redis"
	"vouch/internal/sources"
	sourcemetrics "vouch/internal/sources/metrics"
	"vouch/internal/token"
	"vouch/internal/trust"
	id "vouch/pkg/domain"
	"vouch/pkg/platform/events"
)

// main wires dependencies and keeps the server lifecycle small. Business
// logic lives in the internal service packages.
func main() {
	_ = godotenv.Load()

	cfg := config.FromEnv()
	log := logger.New()
	slog.SetDefault(log)

	if err := run(context.Background(), cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	oracle, err := id.ParseAgentID(cfg.Ledger.Oracle)
	if err != nil {
		return fmt.Errorf("oracle identity: %w", err)
	}
	owner, err := id.ParseAgentID(cfg.Ledger.Owner)
	if err != nil {
		return fmt.Errorf("owner identity: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)

	// Event pipeline. The ledger publishes in process and a worker always
	// drains the stream; with brokers configured it relays to Kafka, without
	// them events are dropped after delivery. The worker must run in every
	// configuration or ledger writes stall once the buffer fills.
	channel := events.NewChannelPublisher(cfg.Ledger.EventBuffer)
	defer channel.Close()
	var publisher events.Publisher = channel
	var sink events.Publisher = events.Discard
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPub, err := events.NewKafkaPublisher(ctx, events.KafkaConfig{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
		}, log)
		if err != nil {
			return fmt.Errorf("kafka publisher: %w", err)
		}
		defer kafkaPub.Close()
		sink = kafkaPub
	}
	worker := events.NewWorker(channel.Subscribe(), sink, log)
	g.Go(func() error {
		if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("event worker: %w", err)
		}
		return nil
	})

	// Ledger stores. An empty Postgres URL selects in-memory stores for
	// development; durable deployments set VOUCH_POSTGRES_URL.
	var (
		requests     ledger.RequestStore
		confidential ledger.ConfidentialStore
		reviews      ledger.ReviewStore
		identities   ledger.IdentityStore
	)
	if cfg.Postgres.URL != "" {
		db, err := postgres.Open(ctx, cfg.Postgres)
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		defer db.Close()
		if err := ledgerpg.EnsureSchema(ctx, db); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
		identityStore, err := ledgerpg.NewIdentityStore(ctx, db, oracle, owner)
		if err != nil {
			return fmt.Errorf("seed identities: %w", err)
		}
		requests = ledgerpg.NewRequestStore(db)
		confidential = ledgerpg.NewConfidentialStore(db)
		reviews = ledgerpg.NewReviewStore(db)
		identities = identityStore
		log.Info("using postgres ledger stores")
	} else {
		requests = memory.NewRequestStore()
		confidential = memory.NewConfidentialStore()
		reviews = memory.NewReviewStore()
		identities = memory.NewIdentityStore(oracle, owner)
		log.Info("using in-memory ledger stores")
	}

	ledgerService := ledger.NewService(requests, confidential, reviews, identities,
		publisher, log, ledgermetrics.New())

	// Price sources. Redis caching is optional; a nil cache always misses.
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	var cache *sources.SampleCache
	if redisClient != nil {
		defer redisClient.Close()
		cache = sources.NewSampleCache(redisClient.Client, cfg.Sources.CacheTTL, log)
	}

	registry := sources.NewRegistry()
	quality, err := registerFeeds(registry, cfg.Sources, log)
	if err != nil {
		return fmt.Errorf("price feeds: %w", err)
	}
	aggregator := sources.NewAggregator(registry, quality, cache,
		cfg.Sources.ProviderTimeout, log, sourcemetrics.New())

	blender := trust.NewBlender(trust.NewMemoryBaselineStore(nil), ledgerService, log)
	decisionService := decision.NewService(aggregator, blender, log, decisionmetrics.New())

	tokens := token.NewService(cfg.Server.JWTSigningKey, cfg.Server.JWTIssuer, cfg.Server.JWTAudience)

	router := httpapi.NewRouter(httpapi.Deps{
		Ledger:    ledgerhandler.New(ledgerService, log),
		Decision:  decisionhandler.New(decisionService, log),
		Verifier:  tokens,
		Providers: registry,
		Logger:    log,
	})

	srv := httpserver.New(cfg.Server.Addr, router)
	g.Go(func() error {
		log.Info("server listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// registerFeeds populates the registry from VOUCH_PRICE_FEEDS (name=url
// pairs). With no feeds configured it refuses to start unless VOUCH_DEV_FEEDS
// explicitly opts in to the built-in static development providers, so a
// deployment that forgets the feed list cannot serve fabricated prices.
func registerFeeds(registry *sources.Registry, cfg config.Sources, log *slog.Logger) (sources.QualityProvider, error) {
	if len(cfg.Feeds) == 0 {
		if !cfg.DevFallback {
			return nil, errors.New("no price feeds configured, set VOUCH_PRICE_FEEDS or opt in to development feeds with VOUCH_DEV_FEEDS=true")
		}
		log.Warn("no price feeds configured, using development providers")
		return registerDevFeeds(registry)
	}

	client := &http.Client{Timeout: cfg.ProviderTimeout}
	for _, feed := range cfg.Feeds {
		name, url, ok := strings.Cut(feed, "=")
		if !ok || name == "" || url == "" {
			return nil, fmt.Errorf("malformed feed entry %q, want name=url", feed)
		}
		if err := registry.Register(sources.NewHTTPPriceProvider(name, url, client)); err != nil {
			return nil, err
		}
	}
	// External feeds carry prices only. Quality and deal metadata default to
	// neutral values until a dedicated quality feed exists.
	return &sources.StaticQualityProvider{Name: "quality-defaults"}, nil
}

func registerDevFeeds(registry *sources.Registry) (sources.QualityProvider, error) {
	samplePrices := []struct {
		name   string
		prices map[id.ItemID]uint64
	}{
		{"dev-retail-a", map[id.ItemID]uint64{"demo-item": 1050}},
		{"dev-retail-b", map[id.ItemID]uint64{"demo-item": 1095}},
		{"dev-retail-c", map[id.ItemID]uint64{"demo-item": 1180}},
	}
	for _, feed := range samplePrices {
		provider := &sources.StaticPriceProvider{Name: feed.name, Prices: feed.prices}
		if err := registry.Register(provider); err != nil {
			return nil, err
		}
	}
	quality := &sources.StaticQualityProvider{
		Name: "dev-quality",
		Qualities: map[id.ItemID]sources.ProductQuality{
			"demo-item": {Rating: 4.6, ReviewCount: 8200, ReturnRate: 3},
		},
		Deals: map[id.ItemID]sources.DealMetadata{
			"demo-item": {Cashback: 20, Coupon: 0, ShippingFee: 45},
		},
	}
	return quality, nil
}
