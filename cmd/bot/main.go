package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"InvestArena/internal/catalog"
	"InvestArena/internal/config"
	"InvestArena/internal/store"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.DateTime})

	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("investarena failed")
		return 1
	}
	return 0
}

func rootCmd() *cobra.Command {
	var (
		cfgPath string
		debug   bool
		cfg     *config.Config
	)
	root := &cobra.Command{
		Use:           "investarena",
		Short:         "Telegram investment game bot",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
			if debug {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
			var err error
			cfg, err = config.Load(cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return nil
		},
	}

	defaultPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultPath = v
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", defaultPath, "path to config file")
	root.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	getCfg := func() *config.Config { return cfg }
	serve := serveCmd(getCfg)
	root.AddCommand(serve, tokensCmd(getCfg), reportCmd(getCfg))
	root.RunE = serve.RunE
	return root
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Database.Driver {
	case "postgres":
		st, err := store.ConnectPostgres(ctx, cfg.Database.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		log.Info().Msg("using postgres storage")
		return st, nil
	default:
		st, err := store.NewSQLiteStore(cfg.Database.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		log.Info().Str("path", cfg.Database.SQLitePath).Msg("using sqlite storage")
		return st, nil
	}
}

func loadCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	if cfg.CatalogPath == "" {
		return catalog.Default(), nil
	}
	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}
	log.Info().Str("path", cfg.CatalogPath).Int("positions", len(cat.Positions)).
		Int("rounds", cat.RoundCount()).Msg("catalog loaded")
	return cat, nil
}
