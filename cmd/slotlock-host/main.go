package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"slotlock/host/config"
)

var (
	configPath string
	verbose    bool

	logger  *slog.Logger
	profile *config.File
)

var rootCmd = &cobra.Command{
	Use:           "slotlock-host",
	Short:         "Host tools for the storage-slot lock",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

		if configPath == "" {
			profile = config.Default()
			return nil
		}
		var err error
		profile, err = config.Load(configPath)
		if err != nil {
			return err
		}
		logger.Debug("loaded board profile", "path", configPath)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "board profile (.yaml, .yml or .toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(consoleCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(reloadCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
