package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

const (
	defaultPerPage = 50
	maxPerPage     = 500
)

// SQLiteDB implements the DB interface using SQLite
type SQLiteDB struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteDB opens or creates the database at path. Call Migrate before use.
func NewSQLiteDB(path string) (*SQLiteDB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite is not concurrent for writes

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	return &SQLiteDB{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

// Open is NewSQLiteDB followed by Migrate.
func Open(ctx context.Context, path string) (*SQLiteDB, error) {
	s, err := NewSQLiteDB(path)
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection
func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

// Ping checks the connection.
func (s *SQLiteDB) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Migrate creates tables and indexes. It is safe to run repeatedly.
func (s *SQLiteDB) Migrate(ctx context.Context) error {
	baseMigrations := []string{
		`CREATE TABLE IF NOT EXISTS best_scores (
			game TEXT PRIMARY KEY,
			score INTEGER NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS attempts (
			id TEXT PRIMARY KEY,
			game TEXT NOT NULL,
			score INTEGER NOT NULL,
			details TEXT,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS claims (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			challenge_id TEXT NOT NULL,
			day TEXT NOT NULL,
			reward TEXT NOT NULL,
			claimed_at TIMESTAMP NOT NULL,
			UNIQUE(challenge_id, day)
		)`,
	}
	indexMigrations := []string{
		`CREATE INDEX IF NOT EXISTS idx_attempts_created_at ON attempts(created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_attempts_game_created ON attempts(game, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_claims_day ON claims(day)`,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	for _, q := range baseMigrations {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			tx.Rollback()
			return fmt.Errorf("base migration failed: %w", err)
		}
	}
	for _, q := range indexMigrations {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			tx.Rollback()
			return fmt.Errorf("index migration failed: %w", err)
		}
	}
	return tx.Commit()
}

// --------- Best scores ---------

// SaveBest records score for game if it beats the stored value.
func (s *SQLiteDB) SaveBest(ctx context.Context, game string, score int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO best_scores(game, score, updated_at) VALUES(?, ?, ?)
		ON CONFLICT(game) DO UPDATE SET
			score=excluded.score,
			updated_at=excluded.updated_at
		WHERE excluded.score > best_scores.score`,
		game, score, s.now())
	if err != nil {
		return fmt.Errorf("failed to save best score: %w", err)
	}
	return nil
}

// GetBest returns the best score for game or ErrNotFound.
func (s *SQLiteDB) GetBest(ctx context.Context, game string) (*BestScore, error) {
	var b BestScore
	err := s.db.QueryRowContext(ctx,
		`SELECT game, score, updated_at FROM best_scores WHERE game=?`, game).
		Scan(&b.Game, &b.Score, &b.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get best score: %w", err)
	}
	return &b, nil
}

// ListBest returns every best score ordered by game id.
func (s *SQLiteDB) ListBest(ctx context.Context) ([]BestScore, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT game, score, updated_at FROM best_scores ORDER BY game`)
	if err != nil {
		return nil, fmt.Errorf("failed to query best scores: %w", err)
	}
	defer rows.Close()

	var out []BestScore
	for rows.Next() {
		var b BestScore
		if err := rows.Scan(&b.Game, &b.Score, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan best score: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// --------- Attempts ---------

// SaveAttempt stores a finished game. A missing id or timestamp is filled in.
func (s *SQLiteDB) SaveAttempt(ctx context.Context, attempt *Attempt) error {
	if attempt.ID == "" {
		attempt.ID = uuid.New().String()
	}
	if attempt.CreatedAt.IsZero() {
		attempt.CreatedAt = s.now()
	}
	var details sql.NullString
	if len(attempt.Details) > 0 {
		details = sql.NullString{String: string(attempt.Details), Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO attempts(id, game, score, details, created_at) VALUES(?, ?, ?, ?, ?)`,
		attempt.ID, attempt.Game, attempt.Score, details, attempt.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to save attempt: %w", err)
	}
	return nil
}

// ListAttempts retrieves attempts newest first with pagination and filtering
func (s *SQLiteDB) ListAttempts(ctx context.Context, query AttemptsQuery) (*AttemptsPage, error) {
	whereClause := ""
	args := []any{}
	if query.Game != "" {
		whereClause = "WHERE game = ?"
		args = append(args, query.Game)
	}

	var totalCount int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM attempts "+whereClause, args...).Scan(&totalCount); err != nil {
		return nil, fmt.Errorf("failed to get total count: %w", err)
	}

	if query.PerPage <= 0 {
		query.PerPage = defaultPerPage
	}
	if query.PerPage > maxPerPage {
		query.PerPage = maxPerPage
	}
	if query.Page <= 0 {
		query.Page = 1
	}
	totalPages := (totalCount + query.PerPage - 1) / query.PerPage
	offset := (query.Page - 1) * query.PerPage

	args = append(args, query.PerPage, offset)
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, game, score, details, created_at
		FROM attempts `+whereClause+`
		ORDER BY created_at DESC, id
		LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query attempts: %w", err)
	}
	defer rows.Close()

	attempts := []Attempt{}
	for rows.Next() {
		var a Attempt
		var details sql.NullString
		if err := rows.Scan(&a.ID, &a.Game, &a.Score, &details, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan attempt: %w", err)
		}
		if details.Valid {
			a.Details = []byte(details.String)
		}
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating attempts: %w", err)
	}

	return &AttemptsPage{
		Attempts:   attempts,
		TotalCount: totalCount,
		Page:       query.Page,
		PerPage:    query.PerPage,
		TotalPages: totalPages,
	}, nil
}

// CountAttempts returns the number of attempts per game.
func (s *SQLiteDB) CountAttempts(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT game, COUNT(*) FROM attempts GROUP BY game`)
	if err != nil {
		return nil, fmt.Errorf("failed to count attempts: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var game string
		var n int
		if err := rows.Scan(&game, &n); err != nil {
			return nil, fmt.Errorf("failed to scan attempt count: %w", err)
		}
		out[game] = n
	}
	return out, rows.Err()
}

// MaxNonces returns the highest stream nonce recorded per game. Games whose
// attempts carry no round are absent.
func (s *SQLiteDB) MaxNonces(ctx context.Context) (map[string]uint64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT game, MAX(COALESCE(
			json_extract(details, '$.round.nonce'),
			json_extract(details, '$.trial.round.nonce')
		)) AS nonce
		FROM attempts
		WHERE details IS NOT NULL
		GROUP BY game
		HAVING nonce IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("failed to query nonces: %w", err)
	}
	defer rows.Close()

	out := make(map[string]uint64)
	for rows.Next() {
		var game string
		var nonce int64
		if err := rows.Scan(&game, &nonce); err != nil {
			return nil, fmt.Errorf("failed to scan nonce: %w", err)
		}
		out[game] = uint64(nonce)
	}
	return out, rows.Err()
}

// --------- Claims ---------

// SaveClaim records a challenge reward. A second claim for the same challenge
// and day returns ErrDuplicate.
func (s *SQLiteDB) SaveClaim(ctx context.Context, claim *Claim) error {
	if claim.ClaimedAt.IsZero() {
		claim.ClaimedAt = s.now()
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO claims(challenge_id, day, reward, claimed_at) VALUES(?, ?, ?, ?)
		ON CONFLICT(challenge_id, day) DO NOTHING`,
		claim.ChallengeID, claim.Day, claim.Reward.String(), claim.ClaimedAt.UTC())
	if err != nil {
		if isConstraintErr(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to save claim: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to save claim: %w", err)
	}
	if n == 0 {
		return ErrDuplicate
	}
	if id, err := res.LastInsertId(); err == nil {
		claim.ID = id
	}
	return nil
}

// ListClaims returns all claims, oldest first.
func (s *SQLiteDB) ListClaims(ctx context.Context) ([]Claim, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, challenge_id, day, reward, claimed_at FROM claims ORDER BY claimed_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query claims: %w", err)
	}
	defer rows.Close()

	var out []Claim
	for rows.Next() {
		var c Claim
		if err := rows.Scan(&c.ID, &c.ChallengeID, &c.Day, &c.Reward, &c.ClaimedAt); err != nil {
			return nil, fmt.Errorf("failed to scan claim: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// --------- helpers ---------

func isConstraintErr(err error) bool {
	// modernc sqlite reports "constraint failed" or "UNIQUE constraint failed".
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "constraint failed") || strings.Contains(msg, "unique constraint")
}
