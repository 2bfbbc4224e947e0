package main

import (
	"fmt"
	"os"

	"insightviz/internal/config"
	"insightviz/internal/logging"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "insightviz",
	Short: "Business insight visualization backend",
	Long: `insightviz turns tabular business data into chart images and a PDF report.
A language model suggests the charts and writes the summary.`,
	SilenceUsage: true,
	RunE:         runServe,
}

// Execute runs the root command. Without a subcommand the server starts.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd, renderCmd, configCmd)
}

// loadConfig reads the configuration and sets up logging from it.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if debug {
		cfg.LogLevel = "debug"
	}
	logging.Init(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Output: os.Stdout,
	})
	return cfg, nil
}
