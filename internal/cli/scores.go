package cli

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/MJE43/mindful-arcade/internal/app"
	"github.com/MJE43/mindful-arcade/internal/games"
	"github.com/MJE43/mindful-arcade/internal/store"
)

// ScoresOptions holds flags for the scores command.
type ScoresOptions struct {
	*RootOptions
	History bool
	Game    string
	Limit   int
}

// ScoreRow is one line of the scores table.
type ScoreRow struct {
	Game     string `json:"game"`
	Title    string `json:"title"`
	Best     *int   `json:"best"`
	Attempts int    `json:"attempts"`
}

// NewScoresCommand creates the scores command.
func NewScoresCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ScoresOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "scores",
		Short: "Show best scores or recent attempts",
		Example: `  mindful scores
  mindful scores --game memory
  mindful scores --history --game reaction --limit 5
  mindful scores --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScores(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.History, "history", false, "list recent attempts instead of best scores")
	cmd.Flags().StringVar(&opts.Game, "game", "", "show one game, or filter history by game id")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "number of attempts to list")

	return cmd
}

func runScores(cmd *cobra.Command, opts *ScoresOptions) error {
	if opts.Game != "" {
		if _, ok := games.Lookup(opts.Game); !ok {
			return WrapExitError(ExitCommandError, "unknown game", fmt.Errorf("%q", opts.Game))
		}
	}

	a, err := app.Open(cmd.Context(), app.Options{Config: opts.cfg})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open arcade", err)
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	if opts.History {
		page, err := a.DB().ListAttempts(cmd.Context(), store.AttemptsQuery{Game: opts.Game, PerPage: opts.Limit})
		if err != nil {
			return err
		}
		return writeOutput(out, opts.Format, page, func(w io.Writer) error {
			return writeHistory(w, page)
		})
	}

	if opts.Game != "" {
		return writeGameBest(cmd, a, opts)
	}

	counts, err := a.DB().CountAttempts(cmd.Context())
	if err != nil {
		return err
	}
	best := a.Arcade().Scores()
	var rows []ScoreRow
	for _, g := range a.Arcade().Games() {
		row := ScoreRow{Game: g.ID, Title: g.Title, Attempts: counts[g.ID]}
		if v, ok := best[g.ID]; ok {
			row.Best = &v
		}
		rows = append(rows, row)
	}
	return writeOutput(out, opts.Format, rows, func(w io.Writer) error {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "GAME\tBEST\tATTEMPTS")
		for _, r := range rows {
			b := "-"
			if r.Best != nil {
				b = fmt.Sprint(*r.Best)
			}
			fmt.Fprintf(tw, "%s\t%s\t%d\n", r.Title, b, r.Attempts)
		}
		return tw.Flush()
	})
}

// writeGameBest reads one game's stored best score and attempt count.
func writeGameBest(cmd *cobra.Command, a *app.App, opts *ScoresOptions) error {
	ctx := cmd.Context()
	spec, _ := games.Lookup(opts.Game)
	row := ScoreRow{Game: spec.ID, Title: spec.Title}

	best, err := a.DB().GetBest(ctx, opts.Game)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		return err
	default:
		row.Best = &best.Score
	}
	counts, err := a.DB().CountAttempts(ctx)
	if err != nil {
		return err
	}
	row.Attempts = counts[opts.Game]

	return writeOutput(cmd.OutOrStdout(), opts.Format, row, func(w io.Writer) error {
		if row.Best == nil {
			_, err := fmt.Fprintf(w, "%s: no score yet\n", row.Title)
			return err
		}
		_, err := fmt.Fprintf(w, "%s: best %d %s over %d attempts\n", row.Title, *row.Best, spec.MetricLabel, row.Attempts)
		return err
	})
}

func writeHistory(w io.Writer, page *store.AttemptsPage) error {
	if len(page.Attempts) == 0 {
		_, err := fmt.Fprintln(w, "No attempts yet.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tGAME\tSCORE")
	for _, at := range page.Attempts {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", at.CreatedAt.Local().Format("2006-01-02 15:04"), at.Game, at.Score)
	}
	fmt.Fprintf(tw, "\n%d of %d\t\t\n", len(page.Attempts), page.TotalCount)
	return tw.Flush()
}
