package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/hackfolio/hackfolio/internal/config"
	"github.com/hackfolio/hackfolio/internal/model"
	"github.com/hackfolio/hackfolio/internal/service"
)

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage admin users",
		Long:  "Create, list, deactivate and reactivate the operator accounts that sign in to the admin API.",
	}

	cmd.AddCommand(newAdminCreateCmd())
	cmd.AddCommand(newAdminListCmd())
	cmd.AddCommand(newAdminSetActiveCmd("deactivate", false))
	cmd.AddCommand(newAdminSetActiveCmd("activate", true))

	return cmd
}

// ---------- admin create ----------

func newAdminCreateCmd() *cobra.Command {
	var (
		username      string
		passwordStdin bool
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new admin user",
		Example: `  hackfolio admin create --username admin            # prompts for password
  printf '%s' "$PW" | hackfolio admin create --username admin --password-stdin`,
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readNewPassword(passwordStdin)
			if err != nil {
				return err
			}
			return runAdminCreate(cmd, username, password)
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Admin username (required)")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin instead of prompting")
	cmd.MarkFlagRequired("username")

	return cmd
}

func readNewPassword(fromStdin bool) (string, error) {
	if fromStdin {
		data, err := readAllTrimmed(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return data, nil
	}

	fmt.Print("Password: ")
	pwBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	fmt.Println()

	fmt.Print("Confirm password: ")
	confirmBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", fmt.Errorf("failed to read confirmation: %w", err)
	}
	fmt.Println()

	if string(pwBytes) != string(confirmBytes) {
		return "", fmt.Errorf("passwords do not match")
	}
	return string(pwBytes), nil
}

func runAdminCreate(cmd *cobra.Command, username, password string) error {
	return withStore(func(cfg *config.YAMLConfig, store *config.Store) error {
		authSvc, err := newAuthService(cfg, store, cliLogger())
		if err != nil {
			return err
		}
		ctx := context.Background()
		admin, err := authSvc.CreateAdmin(ctx, username, password)
		switch {
		case errors.Is(err, service.ErrPasswordTooShort):
			return fmt.Errorf("password must be at least %d characters", service.MinPasswordLength)
		case errors.Is(err, service.ErrAdminExists):
			return fmt.Errorf("admin %q already exists", username)
		case err != nil:
			return err
		}
		authSvc.Audit().Record(ctx, model.ActionAdminUserCreated,
			map[string]string{"username": admin.Username, "source": "cli"}, "cli", "hackfolio/"+versionString())

		fmt.Fprintf(cmd.OutOrStdout(), "Created admin user %q\n", admin.Username)
		return nil
	})
}

// ---------- admin list ----------

func newAdminListCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all admin users",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdminList(cmd, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runAdminList(cmd *cobra.Command, jsonOutput bool) error {
	return withStore(func(_ *config.YAMLConfig, store *config.Store) error {
		admins, err := store.ListAdmins(context.Background())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		if jsonOutput {
			return writeJSON(out, admins)
		}

		if len(admins) == 0 {
			fmt.Fprintln(out, "No admin users configured. Use 'hackfolio admin create' to create one.")
			return nil
		}

		fmt.Fprintf(out, "%-6s %-24s %-8s %-20s\n", "ID", "USERNAME", "ACTIVE", "LAST LOGIN")
		fmt.Fprintf(out, "%-6s %-24s %-8s %-20s\n", "--", "--------", "------", "----------")
		for _, a := range admins {
			active := "yes"
			if !a.IsActive {
				active = "no"
			}
			fmt.Fprintf(out, "%-6d %-24s %-8s %-20s\n", a.ID, a.Username, active, formatTime(a.LastLogin))
		}
		return nil
	})
}

// ---------- admin deactivate / activate ----------

func newAdminSetActiveCmd(use string, active bool) *cobra.Command {
	short := "Disable an admin and revoke their sessions"
	if active {
		short = "Re-enable a deactivated admin"
	}
	return &cobra.Command{
		Use:   use + " <username>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(_ *config.YAMLConfig, store *config.Store) error {
				err := store.SetAdminActive(context.Background(), args[0], active)
				if errors.Is(err, config.ErrNotFound) {
					return fmt.Errorf("no admin named %q", args[0])
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Admin %q %sd\n", args[0], use)
				return nil
			})
		},
	}
}
