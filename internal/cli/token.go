package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/MJE43/mindful-arcade/internal/auth"
)

// NewTokenCommand creates the token command group.
func NewTokenCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage the HTTP API bearer token",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := rootOpts.Tokens.Get()
			if errors.Is(err, auth.ErrNotFound) {
				return WrapExitError(ExitFailure, "no token stored; run: mindful token rotate", err)
			}
			if err != nil {
				return err
			}
			return printToken(cmd.OutOrStdout(), rootOpts.Format, token, false)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "rotate",
		Short: "Replace the stored token with a new one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := auth.GenerateToken()
			if err != nil {
				return err
			}
			if err := rootOpts.Tokens.Set(token); err != nil {
				return WrapExitError(ExitCommandError, "failed to store token", err)
			}
			return printToken(cmd.OutOrStdout(), rootOpts.Format, token, true)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete",
		Short: "Remove the stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rootOpts.Tokens.Delete(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Token deleted.")
			return nil
		},
	})

	return cmd
}

func printToken(w io.Writer, format, token string, created bool) error {
	data := map[string]any{"token": token, "created": created}
	return writeOutput(w, format, data, func(w io.Writer) error {
		_, err := fmt.Fprintln(w, token)
		return err
	})
}
