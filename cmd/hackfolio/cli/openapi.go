package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hackfolio/hackfolio/internal/openapi"
)

func newOpenAPICmd() *cobra.Command {
	var (
		baseURL    string
		outputFile string
	)

	cmd := &cobra.Command{
		Use:   "openapi",
		Short: "Generate the OpenAPI specification",
		Long:  `Generate the OpenAPI 3.1 specification of the hackfolio HTTP API.`,
		Example: `  hackfolio openapi                 # print to stdout
  hackfolio openapi -o openapi.json # write to file`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if baseURL == "" {
				cfg, err := loadConfig()
				if err != nil {
					return err
				}
				baseURL = cfg.Server.BaseURL
			}

			spec, err := json.MarshalIndent(openapi.Generate(baseURL, versionString()), "", "  ")
			if err != nil {
				return fmt.Errorf("marshal spec: %w", err)
			}
			if outputFile == "" {
				fmt.Fprintln(cmd.OutOrStdout(), string(spec))
				return nil
			}
			if err := os.WriteFile(outputFile, append(spec, '\n'), 0644); err != nil {
				return fmt.Errorf("write %s: %w", outputFile, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", outputFile)
			return nil
		},
	}

	cmd.Flags().StringVar(&baseURL, "base-url", "", "Server URL in the spec (default: server.base_url)")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Write spec to file instead of stdout")

	return cmd
}
