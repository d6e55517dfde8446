package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hackfolio/hackfolio/internal/config"
	"github.com/hackfolio/hackfolio/internal/service"
)

func newAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Read the admin audit trail",
	}
	cmd.AddCommand(newAuditListCmd())
	return cmd
}

func newAuditListCmd() *cobra.Command {
	var (
		action     string
		limit      int
		offset     int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List audit entries, newest first",
		Example: `  hackfolio audit list --action admin_login --limit 20`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 1 {
				return fmt.Errorf("--limit must be at least 1")
			}
			return withStore(func(_ *config.YAMLConfig, store *config.Store) error {
				audit := service.NewAuditLogger(store, cliLogger())
				entries, total, err := audit.List(context.Background(), config.AuditFilter{
					Action: action,
					Limit:  limit,
					Offset: offset,
				})
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if jsonOutput {
					return writeJSON(out, entries)
				}
				if len(entries) == 0 {
					fmt.Fprintln(out, "No audit entries.")
					return nil
				}

				fmt.Fprintf(out, "%-20s %-20s %-16s %s\n", "TIME", "ACTION", "ADDRESS", "DATA")
				for _, e := range entries {
					created := e.CreatedAt
					fmt.Fprintf(out, "%-20s %-20s %-16s %s\n", formatTime(&created), e.Action, e.IPAddress, string(e.Data))
				}
				fmt.Fprintf(out, "\nShowing %d of %d\n", len(entries), total)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&action, "action", "", "Only entries with this action (e.g. admin_login)")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum entries to show")
	cmd.Flags().IntVar(&offset, "offset", 0, "Entries to skip")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
