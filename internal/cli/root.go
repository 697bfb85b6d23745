package cli

import (
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/Antonpb/alfaapp/internal/config"
)

var (
	cfgFile string
	verbose bool

	// frontendFS holds the upload page served by `serve`
	frontendFS fs.FS
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "alfaapp",
	Short: "Alfa underwriting analysis of Resights and ReData exports",
	Long: `alfaapp analyses property transaction and rent-level exports.

It checks an uploaded workbook against the selected data source, derives the
price or rent per square metre, reports the mean and renders a plot, a
marker map and an optional PDF report.

Run it as a web service with "alfaapp serve" or analyse a single file with
"alfaapp analyze".`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command. frontend is the embedded upload page and
// may be nil.
func Execute(frontend fs.FS) error {
	frontendFS = frontend
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: config.yaml or configs/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the config file named by --config and applies --verbose
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}
