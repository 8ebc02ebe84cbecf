package main

import (
	"fmt"
	"os"

	"github.com/cuemby/findex/internal/config"
	"github.com/cuemby/findex/internal/index"
	"github.com/cuemby/findex/internal/log"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

var cfg = config.Default()

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "findex",
	Short:   "findex is an interactive client for a local file content index",
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"findex version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))
	config.BindFlags(rootCmd.PersistentFlags(), &cfg)
	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(rmCmd)
}

func initLogging() {
	log.Init(log.Config{
		Level:      log.Level(cfg.LogLevel),
		JSONOutput: cfg.LogJSON,
	})
}

func openDatabase() (*index.Database, error) {
	return index.Open(cfg.Path, index.CreateIfMissing)
}
