package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"InvestArena/internal/config"
	"InvestArena/internal/joincode"
	"InvestArena/internal/notifier"
)

func tokensCmd(getCfg func() *config.Config) *cobra.Command {
	var (
		count   int
		zipPath string
		noQR    bool
	)
	cmd := &cobra.Command{
		Use:   "tokens",
		Short: "Create registration tokens and print their QR codes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := getCfg()
			if count < 1 {
				return fmt.Errorf("--count must be positive")
			}
			if cfg.Telegram.BotToken == "" {
				return fmt.Errorf("telegram.bot_token is required to build deep links")
			}
			ctx := cmd.Context()

			username, err := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.Proxy).Username(ctx)
			if err != nil {
				return err
			}
			st, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			tokens, err := joincode.NewTokens(count)
			if err != nil {
				return err
			}
			if err := st.CreateTokens(ctx, tokens); err != nil {
				return fmt.Errorf("store tokens: %w", err)
			}

			out := cmd.OutOrStdout()
			accent := color.New(color.FgCyan, color.Bold)
			for _, tok := range tokens {
				link := joincode.Link(username, tok)
				accent.Fprintf(out, "%s  ", tok)
				fmt.Fprintln(out, link)
				if !noQR {
					joincode.PrintTerminal(out, link)
				}
			}

			if zipPath != "" {
				data, err := joincode.DefaultRenderer().Archive(username, tokens)
				if err != nil {
					return err
				}
				if err := os.WriteFile(zipPath, data, 0o644); err != nil {
					return err
				}
				color.New(color.FgGreen).Fprintf(out, "wrote %d codes to %s\n", len(tokens), zipPath)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 1, "number of tokens")
	cmd.Flags().StringVar(&zipPath, "zip", "", "also write PNG codes into this zip file")
	cmd.Flags().BoolVar(&noQR, "no-qr", false, "do not print terminal QR codes")
	return cmd
}
