package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("store: not found")
	// ErrDuplicate is returned when a claim was already recorded for the day.
	ErrDuplicate = errors.New("store: duplicate")
)

// DB represents the persistence interface of the arcade
type DB interface {
	Close() error
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error

	SaveBest(ctx context.Context, game string, score int) error
	GetBest(ctx context.Context, game string) (*BestScore, error)
	ListBest(ctx context.Context) ([]BestScore, error)

	SaveAttempt(ctx context.Context, attempt *Attempt) error
	ListAttempts(ctx context.Context, query AttemptsQuery) (*AttemptsPage, error)
	CountAttempts(ctx context.Context) (map[string]int, error)
	MaxNonces(ctx context.Context) (map[string]uint64, error)

	SaveClaim(ctx context.Context, claim *Claim) error
	ListClaims(ctx context.Context) ([]Claim, error)
}

// BestScore is the highest score recorded for a game
type BestScore struct {
	Game      string    `json:"game"`
	Score     int       `json:"score"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Attempt is one finished game
type Attempt struct {
	ID        string          `json:"id"`
	Game      string          `json:"game"`
	Score     int             `json:"score"`
	Details   json.RawMessage `json:"details,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// AttemptsQuery represents query parameters for listing attempts
type AttemptsQuery struct {
	Game    string `json:"game,omitempty"`
	Page    int    `json:"page"`
	PerPage int    `json:"perPage"`
}

// AttemptsPage represents a paginated attempts response
type AttemptsPage struct {
	Attempts   []Attempt `json:"attempts"`
	TotalCount int       `json:"totalCount"`
	Page       int       `json:"page"`
	PerPage    int       `json:"perPage"`
	TotalPages int       `json:"totalPages"`
}

// Claim records a daily challenge reward taken on a given day
type Claim struct {
	ID          int64           `json:"id"`
	ChallengeID string          `json:"challenge_id"`
	Day         string          `json:"day"` // YYYY-MM-DD
	Reward      decimal.Decimal `json:"reward"`
	ClaimedAt   time.Time       `json:"claimed_at"`
}
