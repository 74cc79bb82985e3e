package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/artpar/typekit/adapters/metrics"
	"github.com/artpar/typekit/core/loader"
	"github.com/artpar/typekit/core/registry"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Resolve schemas and hot-reload on changes",
	Long: `Load all schema dirs and keep watching them. When a schema file
changes, the registry is rebuilt and swapped in atomically; if the new
schemas fail to resolve, the previous registry stays active.

Runs until interrupted.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := setupLogger(cfg)

	var obs registry.Observer
	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		collector = metrics.New()
		obs = collector
	}

	holder, err := loader.NewHolder(loader.Config{
		Dirs:     cfg.Schema.Dirs,
		Logger:   logger,
		Observer: obs,
		Debounce: cfg.Schema.Debounce,
	})
	if err != nil {
		return err
	}
	defer holder.Stop()

	holder.OnSwap(func(reg *registry.Registry) {
		if collector != nil {
			collector.ObserveSwap(reg)
		}
		logger.Info().
			Int("templates", len(reg.Templates())).
			Int("resolved", reg.ResolvedCount()).
			Msg("registry swapped")
	})

	if err := holder.WatchDirs(); err != nil {
		return err
	}

	reg := holder.Get()
	logger.Info().
		Strs("dirs", cfg.Schema.Dirs).
		Int("templates", len(reg.Templates())).
		Int("resolved", reg.ResolvedCount()).
		Msg("watching schema dirs")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info().Msg("shutting down")
	return nil
}
