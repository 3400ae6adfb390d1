package factory

import (
	"context"
	"time"

	"github.com/mcoot/codebattle-go/internal/dependencies/mocks"
	"github.com/mcoot/codebattle-go/internal/model"
	"github.com/mcoot/codebattle-go/internal/pubsub"
	"github.com/mcoot/codebattle-go/internal/services/auth"
	"github.com/mcoot/codebattle-go/internal/services/matchmaking"
	"github.com/mcoot/codebattle-go/internal/storage/memory"
	"github.com/mcoot/codebattle-go/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	store := memory.New()
	bus := pubsub.NewMemoryBus(testutil.NopLogger())
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	app := newWithDependencies(
		store,
		bus,
		mockClock,
		mockRandom,
		auth.DefaultConfig(),
		matchmaking.DefaultConfig(),
		testutil.NopLogger(),
	)

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}

// SeedTestChallenges loads a small challenge catalog for testing
func (t *TestApp) SeedTestChallenges() error {
	now := t.MockClock.Now()
	challenges := []*model.Challenge{
		{ID: "fizzbuzz", Title: "FizzBuzz", Prompt: "Print fizz and buzz.", Difficulty: model.DifficultyEasy, CreatedAt: now},
		{ID: "reverse-string", Title: "Reverse a String", Prompt: "Reverse the input string.", Difficulty: model.DifficultyEasy, CreatedAt: now},
		{ID: "two-sum", Title: "Two Sum", Prompt: "Find two numbers summing to a target.", Difficulty: model.DifficultyMedium, CreatedAt: now},
		{ID: "lru-cache", Title: "LRU Cache", Prompt: "Implement an LRU cache.", Difficulty: model.DifficultyMedium, CreatedAt: now},
		{ID: "word-ladder", Title: "Word Ladder", Prompt: "Shortest transformation sequence.", Difficulty: model.DifficultyHard, CreatedAt: now},
		{ID: "median-streams", Title: "Median of Streams", Prompt: "Running median over a stream.", Difficulty: model.DifficultyHard, CreatedAt: now},
	}
	return t.ChallengeService.Seed(context.Background(), challenges)
}
