package redis

import (
	"fmt"

	"github.com/mcoot/codebattle-go/internal/model"
)

// Key prefix for all battle-related data
const keyPrefix = "codebattle"

// Key generation functions for each entity type

// playerKey returns the Redis key for a Player
func playerKey(id model.PlayerID) string {
	return fmt.Sprintf("%s:player:%s", keyPrefix, id)
}

// registeredPlayerKey returns the Redis key for a RegisteredPlayer
func registeredPlayerKey(playerID model.PlayerID) string {
	return fmt.Sprintf("%s:registered_player:%s", keyPrefix, playerID)
}

// usernameIndexKey returns the Redis key for the username -> player_id index
func usernameIndexKey(username string) string {
	return fmt.Sprintf("%s:idx:username:%s", keyPrefix, username)
}

// profileKey returns the Redis key for a RatingProfile
func profileKey(playerID model.PlayerID) string {
	return fmt.Sprintf("%s:profile:%s", keyPrefix, playerID)
}

// challengeKey returns the Redis key for a Challenge
func challengeKey(id model.ChallengeID) string {
	return fmt.Sprintf("%s:challenge:%s", keyPrefix, id)
}

// challengeIndexKey returns the Redis key for the LIST of challenge IDs
func challengeIndexKey() string {
	return fmt.Sprintf("%s:idx:challenges", keyPrefix)
}

// matchKey returns the Redis key for a MatchRecord
func matchKey(id model.MatchID) string {
	return fmt.Sprintf("%s:match:%s", keyPrefix, id)
}

// progressKey returns the Redis key for a ParticipantProgress snapshot
func progressKey(matchID model.MatchID, playerID model.PlayerID) string {
	return fmt.Sprintf("%s:progress:%s:%s", keyPrefix, matchID, playerID)
}

// historyKey returns the Redis key for a player's match history LIST
func historyKey(playerID model.PlayerID) string {
	return fmt.Sprintf("%s:history:%s", keyPrefix, playerID)
}
