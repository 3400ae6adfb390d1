package model

import "errors"

// Common errors used across the application
var (
	// Player errors
	ErrPlayerNotFound  = errors.New("player not found")
	ErrProfileNotFound = errors.New("rating profile not found")

	// Matchmaking errors
	ErrAlreadyQueued = errors.New("player is already in the matchmaking queue")
	ErrNotQueued     = errors.New("player is not in the matchmaking queue")
	ErrQueuedInMatch = errors.New("player is already in an active match")

	// Match errors
	ErrMatchNotFound   = errors.New("match not found")
	ErrNotParticipant  = errors.New("player is not a participant in this match")
	ErrMatchNotActive  = errors.New("match is not active")
	ErrMatchCompleted  = errors.New("match is already completed")
	ErrSessionNotFound = errors.New("no battle session for this match and player")

	// Challenge errors
	ErrChallengeNotFound = errors.New("challenge not found")
	ErrNoChallenges      = errors.New("no challenges available")

	// Progress errors
	ErrProgressNotFound = errors.New("participant progress not found")
)
