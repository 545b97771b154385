package challenge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/MJE43/mindful-arcade/internal/store"
)

// DayLayout formats the claim day.
const DayLayout = "2006-01-02"

// Scores is the read side of the score board.
type Scores interface {
	All() map[string]int
}

// ClaimStore persists claims. store.SQLiteDB satisfies it.
type ClaimStore interface {
	SaveClaim(ctx context.Context, claim *store.Claim) error
	ListClaims(ctx context.Context) ([]store.Claim, error)
}

// Tracker evaluates challenges and achievements and records reward claims.
type Tracker struct {
	scores Scores
	claims ClaimStore
	rules  *Rules
	now    func() time.Time
	log    *zap.Logger
}

// NewTracker builds a tracker over scores and claims using the built-in
// achievement set.
func NewTracker(scores Scores, claims ClaimStore, log *zap.Logger) (*Tracker, error) {
	rules, err := CompileRules(Achievements())
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Tracker{
		scores: scores,
		claims: claims,
		rules:  rules,
		now:    time.Now,
		log:    log,
	}, nil
}

func (t *Tracker) today() string {
	return t.now().UTC().Format(DayLayout)
}

// List returns today's challenge statuses, with Claimed set for rewards
// already taken today.
func (t *Tracker) List(ctx context.Context) ([]Status, error) {
	statuses := Evaluate(t.scores.All())
	claims, err := t.claims.ListClaims(ctx)
	if err != nil {
		return nil, fmt.Errorf("challenge: list claims: %w", err)
	}

	today := t.today()
	claimed := make(map[string]bool)
	for _, c := range claims {
		if c.Day == today {
			claimed[c.ChallengeID] = true
		}
	}
	for i := range statuses {
		statuses[i].Claimed = claimed[statuses[i].ID]
	}
	return statuses, nil
}

// Claim takes the reward for challenge id. The best score must meet the
// target and each challenge pays out once per UTC day.
func (t *Tracker) Claim(ctx context.Context, id string) (*store.Claim, error) {
	c, ok := Find(id)
	if !ok {
		return nil, ErrUnknownChallenge
	}
	if t.scores.All()[id] < c.Target {
		return nil, ErrNotEligible
	}

	claim := &store.Claim{
		ChallengeID: id,
		Day:         t.today(),
		Reward:      c.Reward,
		ClaimedAt:   t.now().UTC(),
	}
	if err := t.claims.SaveClaim(ctx, claim); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrAlreadyClaimed
		}
		return nil, fmt.Errorf("challenge: save claim: %w", err)
	}
	t.log.Info("challenge claimed",
		zap.String("challenge", id),
		zap.String("reward", c.Reward.String()),
	)
	return claim, nil
}

// TokensEarned sums every reward ever claimed.
func (t *Tracker) TokensEarned(ctx context.Context) (decimal.Decimal, error) {
	claims, err := t.claims.ListClaims(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("challenge: list claims: %w", err)
	}
	total := decimal.Zero
	for _, c := range claims {
		total = total.Add(c.Reward)
	}
	return total, nil
}

// Achievements evaluates the achievement rules against the current scores.
func (t *Tracker) Achievements(ctx context.Context) ([]AchievementStatus, error) {
	return t.rules.Evaluate(ctx, t.scores.All())
}
