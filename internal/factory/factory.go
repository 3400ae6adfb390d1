package factory

import (
	"errors"
	"io"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/codebattle-go/internal/dependencies/clock"
	"github.com/mcoot/codebattle-go/internal/dependencies/random"
	"github.com/mcoot/codebattle-go/internal/pubsub"
	"github.com/mcoot/codebattle-go/internal/services/auth"
	"github.com/mcoot/codebattle-go/internal/services/battle"
	"github.com/mcoot/codebattle-go/internal/services/challenge"
	"github.com/mcoot/codebattle-go/internal/services/matchmaking"
	"github.com/mcoot/codebattle-go/internal/services/rating"
	"github.com/mcoot/codebattle-go/internal/services/relay"
	"github.com/mcoot/codebattle-go/internal/storage"
	"github.com/mcoot/codebattle-go/internal/storage/memory"
	redisstorage "github.com/mcoot/codebattle-go/internal/storage/redis"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// PubSub carries live progress events between participants
	PubSub pubsub.PubSub

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	RatingService    *rating.Service
	ChallengeService *challenge.Service
	Matchmaking      *matchmaking.Controller
	BattleManager    *battle.Manager
	RelayFactory     *relay.Factory
	AuthService      *auth.Service
}

// Config holds configuration for the application factory
type Config struct {
	// ChallengesPath is the path to the challenge catalog file (optional)
	// If empty, challenges must be seeded manually
	ChallengesPath string
	// AuthConfig holds configuration for the auth service (optional)
	// If zero value, defaults to auth.DefaultConfig()
	AuthConfig auth.Config
	// MatchmakingConfig holds matchmaking settings (optional)
	// If zero value, defaults to matchmaking.DefaultConfig()
	MatchmakingConfig matchmaking.Config
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
}

// New creates a new application with all dependencies wired. The pub/sub
// backend follows the storage backend: Redis storage gets a Redis bus on a
// dedicated connection, memory storage gets an in-process bus.
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create storage and pub/sub based on type
	var store storage.Storage
	var bus pubsub.PubSub
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
		bus = pubsub.NewMemoryBus(logger)
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore

		// Subscriptions block a connection, so the bus gets its own client
		opts, err := redis.ParseURL(cfg.RedisConfig.URL)
		if err != nil {
			return nil, err
		}
		bus = pubsub.NewRedisBus(redis.NewClient(opts), logger)
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	// Create external dependencies
	clk := clock.New()
	rnd := random.New()

	// Use default configs if not provided
	authCfg := cfg.AuthConfig
	if authCfg.SessionDuration == 0 {
		authCfg = auth.DefaultConfig()
	}
	mmCfg := cfg.MatchmakingConfig
	if mmCfg.TickInterval == 0 {
		mmCfg = matchmaking.DefaultConfig()
	}

	return newWithDependencies(store, bus, clk, rnd, authCfg, mmCfg, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	bus pubsub.PubSub,
	clk clock.Clock,
	rnd random.Random,
	authCfg auth.Config,
	mmCfg matchmaking.Config,
	logger *slog.Logger,
) *App {
	// Create services
	ratingService := rating.New()
	challengeService := challenge.New(store, rnd, logger)
	relayFactory := relay.NewFactory(bus, store, clk, relay.DefaultConfig(), logger)
	battleManager := battle.NewManager(store, bus, challengeService, ratingService, relayFactory, clk, logger)
	matchmakingController := matchmaking.NewController(store, ratingService, challengeService, clk, rnd, mmCfg, logger)
	authService := auth.New(store, clk, authCfg)

	return &App{
		Storage:          store,
		PubSub:           bus,
		Clock:            clk,
		Random:           rnd,
		RatingService:    ratingService,
		ChallengeService: challengeService,
		Matchmaking:      matchmakingController,
		BattleManager:    battleManager,
		RelayFactory:     relayFactory,
		AuthService:      authService,
	}
}
