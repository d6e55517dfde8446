package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hackfolio/hackfolio/internal/config"
)

func newLockoutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lockout",
		Short: "Inspect and clear failed-login lockouts",
	}
	cmd.AddCommand(newLockoutListCmd())
	cmd.AddCommand(newLockoutClearCmd())
	return cmd
}

func newLockoutListCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List client addresses with failed admin logins",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(_ *config.YAMLConfig, store *config.Store) error {
				entries, err := store.ListRateLimits(context.Background())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if jsonOutput {
					return writeJSON(out, entries)
				}
				if len(entries) == 0 {
					fmt.Fprintln(out, "No failed login attempts recorded.")
					return nil
				}

				now := time.Now()
				fmt.Fprintf(out, "%-40s %-8s %-8s %-20s\n", "ADDRESS", "FAILED", "LOCKED", "LAST ATTEMPT")
				for _, e := range entries {
					locked := "no"
					if e.LockedAt(now) {
						locked = "yes"
					}
					last := e.LastAttempt
					fmt.Fprintf(out, "%-40s %-8d %-8s %-20s\n", e.IPAddress, e.FailedAttempts, locked, formatTime(&last))
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newLockoutClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear <address>",
		Short: "Reset the failed-login counter for a client address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(_ *config.YAMLConfig, store *config.Store) error {
				if err := store.DeleteRateLimit(context.Background(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared lockout for %s\n", args[0])
				return nil
			})
		},
	}
}
