// Command catalogctl loads the configured product sources and queries the
// catalog from the terminal.
package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/grocerygrid/backend/config"
	"github.com/grocerygrid/backend/internal/logging"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	sourceFlag   string
	verboseFlag  bool
	noColorFlag  bool
	jsonFlag     bool
	loadedConfig *config.Config
	logger       zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:           "catalogctl",
	Short:         "Query the GroceryGrid product catalog",
	Long:          "catalogctl loads retailer product exports, normalizes them and filters, sorts and pages the result.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if noColorFlag {
			color.NoColor = true
		}

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		loadedConfig = cfg

		level := "warn"
		if verboseFlag {
			level = "debug"
		}
		logger = logging.New(logging.Config{
			Level:       level,
			Format:      "console",
			Output:      os.Stderr,
			ServiceName: "catalogctl",
		})

		if sourceFlag == "" {
			sourceFlag = cfg.Catalog.DefaultSource
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&sourceFlag, "source", "s", "", "source to load (name or \"all\"; defaults to catalog.default_source)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().BoolVar(&noColorFlag, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVar(&jsonFlag, "json", false, "print JSON instead of a table")

	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(optionsCmd)
	rootCmd.AddCommand(sourcesCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
