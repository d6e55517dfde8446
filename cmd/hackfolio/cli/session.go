package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hackfolio/hackfolio/internal/config"
)

func newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage admin sessions",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "purge",
		Short: "Delete expired admin sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(cfg *config.YAMLConfig, store *config.Store) error {
				authSvc, err := newAuthService(cfg, store, cliLogger())
				if err != nil {
					return err
				}
				n, err := authSvc.Sessions().Purge(context.Background())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Purged %d expired session(s)\n", n)
				return nil
			})
		},
	})
	return cmd
}
