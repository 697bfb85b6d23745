package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Antonpb/alfaapp/internal/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the upload page and HTTP API",
	Long: `Serve starts the HTTP server with the upload page, the analysis API,
health probes and the Prometheus endpoint. It stops on SIGINT or SIGTERM.

Example:
  alfaapp serve
  alfaapp serve --config /etc/alfaapp/config.yaml`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	application, err := app.NewApplication(cfg, frontendFS)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}

	return application.Run(cmd.Context())
}
