package cli

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/MJE43/mindful-arcade/internal/app"
	"github.com/MJE43/mindful-arcade/internal/logging"
	"github.com/MJE43/mindful-arcade/internal/tui"
)

const playLogName = "play.log"

// NewPlayCommand creates the play command.
func NewPlayCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Play in the terminal",
		Long: `Open the terminal arcade. Logs go to play.log next to the database
so they do not disturb the screen.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cmd, rootOpts)
		},
	}
}

func runPlay(cmd *cobra.Command, opts *RootOptions) error {
	cfg := opts.cfg
	if err := cfg.EnsureDataDir(); err != nil {
		return WrapExitError(ExitCommandError, "failed to prepare data directory", err)
	}

	logPath := filepath.Join(filepath.Dir(cfg.DBPath), playLogName)
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open log file", err)
	}
	defer f.Close()

	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid log level", err)
	}
	log := logging.NewWriter(f, level)
	defer log.Sync()

	a, err := app.Open(cmd.Context(), app.Options{Config: cfg, Logger: log})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open arcade", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Error("close arcade", zap.Error(err))
		}
	}()

	p := tea.NewProgram(tui.New(a.Arcade(), log),
		tea.WithAltScreen(),
		tea.WithContext(cmd.Context()),
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.OutOrStdout()),
	)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run terminal ui: %w", err)
	}
	return nil
}
