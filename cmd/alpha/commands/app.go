package commands

import (
	"context"
	"fmt"

	"github.com/alphaquant/alpha/backend/internal/advisor"
	"github.com/alphaquant/alpha/backend/internal/external/coingecko"
	"github.com/alphaquant/alpha/backend/internal/external/wikipedia"
	"github.com/alphaquant/alpha/backend/internal/external/yahoo"
	"github.com/alphaquant/alpha/backend/internal/keylock"
	"github.com/alphaquant/alpha/backend/internal/marketdata"
	"github.com/alphaquant/alpha/backend/internal/model"
	"github.com/alphaquant/alpha/backend/internal/pipeline"
	"github.com/alphaquant/alpha/backend/internal/scoring"
	"github.com/alphaquant/alpha/backend/internal/universe"
	"github.com/alphaquant/alpha/backend/pkg/config"
	"github.com/alphaquant/alpha/backend/pkg/database"
	"github.com/alphaquant/alpha/backend/pkg/httputil"
	"github.com/alphaquant/alpha/backend/pkg/logger"
	"github.com/alphaquant/alpha/backend/pkg/redis"
)

// cryptoUniverseSize is how many top-cap crypto assets join the universe
const cryptoUniverseSize = 100

// application is the fully wired object graph shared by all commands
type application struct {
	cfg    *config.Config
	logger *logger.Logger
	db     *database.DB
	redis  *redis.Client

	resolver    *universe.Resolver
	store       *marketdata.Store
	manager     *model.Manager
	engine      *scoring.Engine
	recommender *advisor.Recommender
	assessor    *advisor.Assessor
	refresher   *pipeline.Refresher
}

// newApplication loads config and wires every component, creating the
// database schema when missing.
func newApplication(ctx context.Context) (*application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	redisClient, err := redis.New(cfg)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	httpClient := httputil.New(cfg, log).WithRateLimit(cfg.Sources.RequestsPerSecond)

	wikiClient := wikipedia.NewClient(httpClient, log, cfg.Sources.IndexConstituentsURL)
	geckoClient := coingecko.NewClient(httpClient, log, cfg.Sources.CoinGeckoBaseURL)
	yahooClient := yahoo.NewClient(httpClient, log, cfg.Sources.YahooBaseURL)

	resolver := universe.NewResolver(log,
		universe.NewEquityIndexSource(wikiClient),
		universe.NewCryptoMarketSource(geckoClient, cryptoUniverseSize),
		universe.NewSupplementalSource(),
	)

	barsRepo := marketdata.NewPostgresRepository(db.Pool)
	if err := barsRepo.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure bars schema: %w", err)
	}
	store := marketdata.NewStore(yahooClient, barsRepo, log)

	modelRepo := model.NewPostgresRepository(db.Pool)
	if err := modelRepo.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure models schema: %w", err)
	}

	locks := keylock.New()
	manager := model.NewManager(store, modelRepo, locks, log)
	engine := scoring.NewEngine(store, manager, log)

	cache := redis.NewCache(redisClient, "alpha")
	recommender := advisor.NewRecommender(resolver, engine, cfg.Pipeline.Workers, log)
	assessor := advisor.NewAssessor(yahooClient, cache, engine, log)
	refresher := pipeline.NewRefresher(resolver, store, manager, locks, cfg.Pipeline, log)

	return &application{
		cfg:         cfg,
		logger:      log,
		db:          db,
		redis:       redisClient,
		resolver:    resolver,
		store:       store,
		manager:     manager,
		engine:      engine,
		recommender: recommender,
		assessor:    assessor,
		refresher:   refresher,
	}, nil
}

// Close releases the application's connections
func (a *application) Close() {
	a.db.Close()
	if err := a.redis.Close(); err != nil {
		a.logger.WithError(err).Warn("Redis close failed")
	}
}
