package api

import (
	"github.com/shopspring/decimal"

	"github.com/MJE43/mindful-arcade/internal/challenge"
	"github.com/MJE43/mindful-arcade/internal/games"
)

// APIError is the structured error body returned by every failing route.
type APIError struct {
	Type      string         `json:"type"`
	Message   string         `json:"message"`
	Context   map[string]any `json:"context,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
	Timestamp string         `json:"timestamp,omitempty"`
}

// Error implements the error interface
func (e APIError) Error() string {
	return e.Message
}

// Error types
const (
	// Input validation errors
	ErrTypeInvalidParams = "invalid_params"
	ErrTypeValidation    = "validation_error"
	ErrTypeUnauthorized  = "unauthorized"

	// Game-related errors
	ErrTypeGameNotFound      = "game_not_found"
	ErrTypeUnsupportedAction = "unsupported_action"

	// Challenge errors
	ErrTypeChallengeNotFound = "challenge_not_found"
	ErrTypeNotEligible       = "not_eligible"
	ErrTypeAlreadyClaimed    = "already_claimed"

	// System errors
	ErrTypeTimeout            = "timeout"
	ErrTypeInternal           = "internal_error"
	ErrTypeServiceUnavailable = "service_unavailable"
)

// ErrorCategory groups error types for logging.
type ErrorCategory string

const (
	CategoryValidation ErrorCategory = "validation"
	CategoryGame       ErrorCategory = "game"
	CategoryChallenge  ErrorCategory = "challenge"
	CategorySystem     ErrorCategory = "system"
	CategoryTimeout    ErrorCategory = "timeout"
)

// GetErrorCategory returns the category for an error type
func GetErrorCategory(errType string) ErrorCategory {
	switch errType {
	case ErrTypeInvalidParams, ErrTypeValidation, ErrTypeUnauthorized:
		return CategoryValidation
	case ErrTypeGameNotFound, ErrTypeUnsupportedAction:
		return CategoryGame
	case ErrTypeChallengeNotFound, ErrTypeNotEligible, ErrTypeAlreadyClaimed:
		return CategoryChallenge
	case ErrTypeTimeout:
		return CategoryTimeout
	default:
		return CategorySystem
	}
}

// VersionInfo contains build information
type VersionInfo struct {
	ArcadeVersion string `json:"arcade_version"`
	GitCommit     string `json:"git_commit,omitempty"`
	BuildTime     string `json:"build_time,omitempty"`
}

// GamesResponse lists the hosted games
type GamesResponse struct {
	Games         []games.GameSpec `json:"games"`
	ArcadeVersion string           `json:"arcade_version"`
}

// GameStateResponse is a snapshot of one engine
type GameStateResponse struct {
	Game  games.GameSpec `json:"game"`
	State any            `json:"state"`
}

// ActionRequest is the optional body of POST /games/{id}/{action}
type ActionRequest struct {
	Value int `json:"value"`
}

// ScoreRequest reports a score from an external host
type ScoreRequest struct {
	GameID string `json:"game_id" validate:"required,oneof=focus memory reaction mindful"`
	Score  *int   `json:"score" validate:"required,min=0"`
}

// ScoresResponse lists the best score per game
type ScoresResponse struct {
	Scores map[string]int `json:"scores"`
}

// ChallengesResponse lists today's challenges and the lifetime token total
type ChallengesResponse struct {
	Challenges   []challenge.Status `json:"challenges"`
	TokensEarned decimal.Decimal    `json:"tokens_earned"`
}

// AchievementsResponse lists the achievement states
type AchievementsResponse struct {
	Achievements []challenge.AchievementStatus `json:"achievements"`
	Unlocked     int                           `json:"unlocked"`
}
