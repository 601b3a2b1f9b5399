package main

import (
	"context"
	"image"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"InvestArena/internal/api"
	"InvestArena/internal/bot"
	"InvestArena/internal/config"
	"InvestArena/internal/game"
	"InvestArena/internal/joincode"
	"InvestArena/internal/notifier"
	"InvestArena/internal/scheduler"
	"InvestArena/internal/sheets"
)

func serveCmd(getCfg func() *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the bot (default)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), getCfg())
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	log.Info().Msg("InvestArena starting")

	cat, err := loadCatalog(cfg)
	if err != nil {
		return err
	}
	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.Proxy)
	tn.MaxRetries = cfg.Telegram.MaxRetries

	var mirror game.Mirror
	if cfg.Sheets.URL != "" {
		m, err := sheets.New(ctx, cfg.Sheets.URL, cfg.Sheets.CredentialsFile)
		if err != nil {
			log.Warn().Err(err).Msg("spreadsheet mirror disabled")
		} else {
			mirror = m
			log.Info().Msg("spreadsheet mirror enabled")
		}
	}

	dispatch := game.NewDispatcher(tn, cfg.Broadcast.RatePerSecond, cfg.Broadcast.Concurrency)
	ctrl := game.New(cat, st, dispatch, mirror)
	if err := ctrl.Load(ctx); err != nil {
		return err
	}

	renderer := joincode.DefaultRenderer()
	renderer.Size = cfg.JoinCode.Size
	renderer.Offset = image.Pt(cfg.JoinCode.OffsetX, cfg.JoinCode.OffsetY)
	if cfg.JoinCode.Template != "" {
		tpl, err := joincode.LoadTemplate(cfg.JoinCode.Template)
		if err != nil {
			log.Warn().Err(err).Msg("join code template not loaded, rendering bare codes")
		} else {
			renderer.Template = tpl
		}
	}
	router := bot.New(ctrl, tn, st, renderer, cfg.Telegram.AdminIDs)

	sched := scheduler.NewScheduler(ctx, ctrl, cfg.Schedule.SnapshotFile)
	if err := sched.RegisterAll(cfg.Schedule.SnapshotCron, cfg.Schedule.ResyncCron); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	go func() {
		if err := api.ListenAndServe(ctx, cfg.HTTP.Addr, api.New(ctrl).Handler()); err != nil {
			log.Error().Err(err).Msg("status server")
		}
	}()

	go tn.StartPolling(ctx, router.HandleUpdate)
	log.Info().Int("admins", len(cfg.Telegram.AdminIDs)).Msg("InvestArena is running. Press Ctrl+C to stop.")

	<-ctx.Done()
	log.Info().Msg("shutdown signal received, stopping...")
	if err := sched.SnapshotNow(); err != nil {
		log.Error().Err(err).Msg("final snapshot")
	}
	log.Info().Msg("InvestArena stopped")
	return nil
}
