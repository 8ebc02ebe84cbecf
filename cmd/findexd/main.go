package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cuemby/findex/internal/config"
	"github.com/cuemby/findex/internal/index"
	"github.com/cuemby/findex/internal/log"
	"github.com/cuemby/findex/internal/metrics"
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
	Use:   "findexd",
	Short: "findexd runs the local file content index as a background daemon",
	Long: `findexd opens a single index database file and keeps its metrics and
health endpoints up for the duration of the process. It does not add,
remove or replace documents itself.`,
	Version: Version,
	RunE:    runDaemon,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"findexd version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	config.BindFlags(rootCmd.PersistentFlags(), &cfg)
	cobra.OnInitialize(initLogging)
}

func initLogging() {
	log.Init(log.Config{
		Level:      log.Level(cfg.LogLevel),
		JSONOutput: cfg.LogJSON,
	})
}

func runDaemon(cmd *cobra.Command, args []string) error {
	db, err := index.Open(cfg.Path, index.CreateIfMissing)
	if err != nil {
		return fmt.Errorf("open index: %w", err)
	}
	defer db.Close()

	openLog := log.WithPath(db.Path())
	openLog.Info().Msg("index opened")

	collector := metrics.NewCollector(db)
	collector.Start()
	defer collector.Stop()

	metrics.SetVersion(Version)
	metrics.RegisterComponent("kvstore", true, "open")
	metrics.RegisterComponent("index", true, "ready")

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		mux.Handle("/healthz", metrics.HealthHandler())
		mux.Handle("/readyz", metrics.ReadyHandler())
		mux.Handle("/livez", metrics.LivenessHandler())
		go func() {
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				log.Errorf("metrics server error", err)
			}
		}()
		log.Logger.Info().Str("addr", cfg.MetricsAddr).Msg("metrics endpoint listening")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	<-sigCh
	log.Info("shutting down")
	// Pause briefly before the deferred collector Stop and database
	// Close run.
	time.Sleep(100 * time.Millisecond)
	return nil
}
