package pubsub

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/codebattle-go/internal/model"
	"github.com/mcoot/codebattle-go/internal/testutil"
)

type RedisBusSuite struct {
	suite.Suite
	mini   *miniredis.Miniredis
	client *redis.Client
	bus    *RedisBus
	ctx    context.Context
}

func TestRedisBusSuite(t *testing.T) {
	suite.Run(t, new(RedisBusSuite))
}

func (s *RedisBusSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())
	s.client = redis.NewClient(&redis.Options{Addr: s.mini.Addr()})
	s.bus = NewRedisBus(s.client, testutil.NopLogger())
	s.ctx = context.Background()
}

func (s *RedisBusSuite) TearDownTest() {
	_ = s.client.Close()
	s.mini.Close()
}

func (s *RedisBusSuite) TestPublishDeliversToSubscriber() {
	topic := model.ProgressTopic("match-1")
	sub, err := s.bus.Subscribe(s.ctx, topic)
	s.Require().NoError(err)
	defer sub.Close()

	event := model.ProgressEvent{
		MatchID:             "match-1",
		PlayerID:            "p1",
		ChallengeIndex:      0,
		ChallengesCompleted: 1,
		SentAt:              time.Now().UTC(),
	}
	s.Require().NoError(s.bus.Publish(s.ctx, topic, event))

	select {
	case received := <-sub.Events():
		s.Equal(model.MatchID("match-1"), received.MatchID)
		s.Equal(model.PlayerID("p1"), received.PlayerID)
		s.Equal(1, received.ChallengesCompleted)
	case <-time.After(2 * time.Second):
		s.Fail("expected event was not delivered")
	}
}

func (s *RedisBusSuite) TestTopicsAreIsolated() {
	sub, err := s.bus.Subscribe(s.ctx, model.ProgressTopic("match-1"))
	s.Require().NoError(err)
	defer sub.Close()

	event := model.ProgressEvent{MatchID: "match-2", PlayerID: "p1"}
	s.Require().NoError(s.bus.Publish(s.ctx, model.ProgressTopic("match-2"), event))

	select {
	case <-sub.Events():
		s.Fail("event leaked across topics")
	case <-time.After(100 * time.Millisecond):
	}
}

func (s *RedisBusSuite) TestMalformedPayloadIsDropped() {
	topic := model.ProgressTopic("match-1")
	sub, err := s.bus.Subscribe(s.ctx, topic)
	s.Require().NoError(err)
	defer sub.Close()

	// Raw publish bypassing the bus encoding
	s.Require().NoError(s.client.Publish(s.ctx, topic, "not-json").Err())

	event := model.ProgressEvent{MatchID: "match-1", PlayerID: "p1", ChallengesCompleted: 3}
	s.Require().NoError(s.bus.Publish(s.ctx, topic, event))

	// The malformed message is skipped and the next valid one arrives
	select {
	case received := <-sub.Events():
		s.Equal(3, received.ChallengesCompleted)
	case <-time.After(2 * time.Second):
		s.Fail("expected event was not delivered")
	}
}

func (s *RedisBusSuite) TestSlowSubscriberDropsRatherThanBlocking() {
	topic := model.ProgressTopic("match-1")
	sub, err := s.bus.Subscribe(s.ctx, topic)
	s.Require().NoError(err)

	// Overfill the buffer without draining; the decoder must drop the
	// overflow instead of blocking on the full channel
	for i := 0; i < subscriberBuffer+5; i++ {
		event := model.ProgressEvent{MatchID: "match-1", PlayerID: "p1", ChallengesCompleted: i}
		s.Require().NoError(s.bus.Publish(s.ctx, topic, event))
	}

	s.Require().NoError(sub.Close())

	// A blocked decoder would never close the channel; drain to the end
	received := 0
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, open := <-sub.Events():
			if !open {
				s.LessOrEqual(received, subscriberBuffer)
				return
			}
			received++
		case <-deadline:
			s.Fail("events channel was not closed after subscription close")
			return
		}
	}
}

func (s *RedisBusSuite) TestCloseEndsEventStream() {
	sub, err := s.bus.Subscribe(s.ctx, model.ProgressTopic("match-1"))
	s.Require().NoError(err)

	s.Require().NoError(sub.Close())
	s.NoError(sub.Close())

	select {
	case _, open := <-sub.Events():
		s.False(open)
	case <-time.After(2 * time.Second):
		s.Fail("events channel was not closed")
	}
}
