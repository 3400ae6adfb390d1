package relay

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/codebattle-go/internal/dependencies/clock"
	"github.com/mcoot/codebattle-go/internal/model"
	"github.com/mcoot/codebattle-go/internal/pubsub"
	"github.com/mcoot/codebattle-go/internal/storage"
)

// OfflineThreshold is how long without any progress refresh before the
// opponent is considered offline. Disconnection never pauses the match
// timer; this only drives the online indicator.
const OfflineThreshold = 30 * time.Second

// Handler receives opponent progress updates. It is called from relay
// goroutines; session implementations forward into their own inbox.
type Handler func(event model.ProgressEvent)

// Observer delivers one participant's progress by some mechanism. Run
// blocks until the context is cancelled.
type Observer interface {
	Run(ctx context.Context)
}

// Relay keeps a session's view of its opponent current. It runs a push
// observer (pub/sub) for low latency and a poll observer (storage reads)
// as a correction mechanism for missed push events. Teardown releases
// both on every exit path.
type Relay struct {
	observers []Observer
	logger    *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRelay builds a relay over the given observers. Tests substitute
// deterministic fake observers here.
func NewRelay(logger *slog.Logger, observers ...Observer) *Relay {
	return &Relay{
		observers: observers,
		logger:    logger,
	}
}

// Start launches all observers. Calling Start on a started relay is a no-op.
func (r *Relay) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	for _, obs := range r.observers {
		r.wg.Add(1)
		go func(obs Observer) {
			defer r.wg.Done()
			obs.Run(runCtx)
		}(obs)
	}
}

// Stop tears down all observers and waits for them to exit. Idempotent.
func (r *Relay) Stop() {
	r.mu.Lock()
	cancel := r.cancel
	r.cancel = nil
	r.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	r.wg.Wait()
}

// Provider builds relays for battle sessions
type Provider interface {
	NewRelay(matchID model.MatchID, opponentID model.PlayerID, handler Handler) *Relay
}

// Config holds relay timing settings
type Config struct {
	// PollInterval is how often the poll observer reads the authoritative
	// progress snapshot
	PollInterval time.Duration

	// ResubscribeMin/Max bound the push observer's backoff when the
	// subscription fails
	ResubscribeMin time.Duration
	ResubscribeMax time.Duration
}

// DefaultConfig returns default relay configuration
func DefaultConfig() Config {
	return Config{
		PollInterval:   10 * time.Second,
		ResubscribeMin: time.Second,
		ResubscribeMax: 30 * time.Second,
	}
}

// Factory is the production Provider: push over the event bus plus poll
// against storage
type Factory struct {
	bus     pubsub.PubSub
	storage storage.Storage
	clock   clock.Clock
	cfg     Config
	logger  *slog.Logger
}

// Ensure Factory implements Provider
var _ Provider = (*Factory)(nil)

// NewFactory creates a relay factory
func NewFactory(bus pubsub.PubSub, storage storage.Storage, clock clock.Clock, cfg Config, logger *slog.Logger) *Factory {
	return &Factory{
		bus:     bus,
		storage: storage,
		clock:   clock,
		cfg:     cfg,
		logger:  logger.With(slog.String("component", "relay")),
	}
}

// NewRelay builds the standard push+poll relay for a match
func (f *Factory) NewRelay(matchID model.MatchID, opponentID model.PlayerID, handler Handler) *Relay {
	logger := f.logger.With(
		slog.String("match_id", string(matchID)),
		slog.String("opponent_id", string(opponentID)),
	)

	push := NewPushObserver(f.bus, matchID, opponentID, handler, f.cfg, logger)
	poll := NewPollObserver(f.storage, f.clock, matchID, opponentID, handler, f.cfg.PollInterval, logger)
	return NewRelay(logger, push, poll)
}
