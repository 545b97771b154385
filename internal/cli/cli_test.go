package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"github.com/MJE43/mindful-arcade/internal/auth"
	"github.com/MJE43/mindful-arcade/internal/config"
	"github.com/MJE43/mindful-arcade/internal/store"
)

// testEnv writes a config pointing at a temp database.
func testEnv(t *testing.T, extra string) (configPath, dbPath string) {
	t.Helper()
	keyring.MockInit()
	dir := t.TempDir()
	dbPath = filepath.Join(dir, "arcade.db")
	configPath = filepath.Join(dir, "config.yaml")
	body := fmt.Sprintf("db_path: %q\nlog_level: error\n%s", dbPath, extra)
	require.NoError(t, os.WriteFile(configPath, []byte(body), 0o600))
	return configPath, dbPath
}

func run(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand(&RootOptions{Tokens: auth.NewTokenStore("mindful-cli-test", "")})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	assert.Equal(t, "mindful", cmd.Use)

	for _, name := range []string{"serve", "play", "scores", "token", "config"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)
}

func TestInvalidFormat(t *testing.T) {
	cfg, _ := testEnv(t, "")
	_, err := run(t, context.Background(), "scores", "--config", cfg, "--format", "xml")
	assert.ErrorContains(t, err, "invalid format")
}

func TestInvalidConfig(t *testing.T) {
	cfg, _ := testEnv(t, "memory_pairs: 20\n")
	_, err := run(t, context.Background(), "scores", "--config", cfg)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func seed(t *testing.T, dbPath string) {
	t.Helper()
	ctx := context.Background()
	db, err := store.Open(ctx, dbPath)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.SaveBest(ctx, "reaction", 720))
	require.NoError(t, db.SaveAttempt(ctx, &store.Attempt{Game: "reaction", Score: 720}))
	require.NoError(t, db.SaveAttempt(ctx, &store.Attempt{Game: "reaction", Score: 600}))
	require.NoError(t, db.SaveAttempt(ctx, &store.Attempt{Game: "mindful", Score: 5}))
}

func TestScoresText(t *testing.T) {
	cfg, dbPath := testEnv(t, "")
	seed(t, dbPath)

	out, err := run(t, context.Background(), "scores", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "GAME")
	assert.Regexp(t, `Reaction Time\s+720\s+2`, out)
	assert.Regexp(t, `Math Lightning\s+-\s+0`, out)
}

func TestScoresJSON(t *testing.T) {
	cfg, dbPath := testEnv(t, "")
	seed(t, dbPath)

	out, err := run(t, context.Background(), "scores", "--config", cfg, "--format", "json")
	require.NoError(t, err)

	var rows []ScoreRow
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 4)
	byGame := map[string]ScoreRow{}
	for _, r := range rows {
		byGame[r.Game] = r
	}
	require.NotNil(t, byGame["reaction"].Best)
	assert.Equal(t, 720, *byGame["reaction"].Best)
	assert.Nil(t, byGame["focus"].Best)
	assert.Equal(t, 1, byGame["mindful"].Attempts)
}

func TestScoresHistory(t *testing.T) {
	cfg, dbPath := testEnv(t, "")
	seed(t, dbPath)

	out, err := run(t, context.Background(), "scores", "--config", cfg, "--history", "--game", "reaction", "-n", "1", "--format", "json")
	require.NoError(t, err)

	var page store.AttemptsPage
	require.NoError(t, json.Unmarshal([]byte(out), &page))
	assert.Equal(t, 2, page.TotalCount)
	assert.Len(t, page.Attempts, 1)

	_, err = run(t, context.Background(), "scores", "--config", cfg, "--history", "--game", "chess")
	assert.Error(t, err)
}

func TestScoresForOneGame(t *testing.T) {
	cfg, dbPath := testEnv(t, "")
	seed(t, dbPath)
	ctx := context.Background()

	out, err := run(t, ctx, "scores", "--config", cfg, "--game", "reaction")
	require.NoError(t, err)
	assert.Equal(t, "Reaction Time: best 720 points over 2 attempts\n", out)

	out, err = run(t, ctx, "scores", "--config", cfg, "--game", "mindful", "--format", "json")
	require.NoError(t, err)
	var row ScoreRow
	require.NoError(t, json.Unmarshal([]byte(out), &row))
	assert.Equal(t, "mindful", row.Game)
	assert.Nil(t, row.Best)
	assert.Equal(t, 1, row.Attempts)

	out, err = run(t, ctx, "scores", "--config", cfg, "--game", "focus")
	require.NoError(t, err)
	assert.Equal(t, "Math Lightning: no score yet\n", out)
}

func TestConfigInit(t *testing.T) {
	keyring.MockInit()
	t.Setenv("MINDFUL_MEMORY_PAIRS", "4")
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	ctx := context.Background()

	out, err := run(t, ctx, "config", "init", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "memory_pairs: 4\n")
	require.NoError(t, os.Unsetenv("MINDFUL_MEMORY_PAIRS"))
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.MemoryPairs)

	_, err = run(t, ctx, "config", "init", "--config", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	_, err = run(t, ctx, "config", "init", "--config", path, "--force")
	assert.NoError(t, err)
}

func TestTokenLifecycle(t *testing.T) {
	cfg, _ := testEnv(t, "")
	ctx := context.Background()

	_, err := run(t, ctx, "token", "delete", "--config", cfg)
	require.NoError(t, err)

	_, err = run(t, ctx, "token", "show", "--config", cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, auth.ErrNotFound))

	out, err := run(t, ctx, "token", "rotate", "--config", cfg)
	require.NoError(t, err)
	rotated := string(bytes.TrimSpace([]byte(out)))
	assert.Len(t, rotated, 43)

	out, err = run(t, ctx, "token", "show", "--config", cfg, "--format", "json")
	require.NoError(t, err)
	var shown struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &shown))
	assert.Equal(t, rotated, shown.Token)
}

func freeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return addr
}

func TestServeStopsOnCancel(t *testing.T) {
	cfg, _ := testEnv(t, "shutdown_timeout: 1s\n")
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	_, err := run(t, ctx, "serve", "--config", cfg, "--addr", freeAddr(t), "--no-auth")
	assert.NoError(t, err)
}

func TestServeGeneratesToken(t *testing.T) {
	cfg, _ := testEnv(t, "")
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	out, err := run(t, ctx, "serve", "--config", cfg, "--addr", freeAddr(t))
	require.NoError(t, err)
	assert.Contains(t, out, "Generated a new API token")
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("x")))
	wrapped := fmt.Errorf("outer: %w", WrapExitError(ExitCommandError, "inner", nil))
	assert.Equal(t, ExitCommandError, GetExitCode(wrapped))
}
