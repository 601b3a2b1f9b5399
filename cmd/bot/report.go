package main

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"InvestArena/internal/calculator"
	"InvestArena/internal/catalog"
	"InvestArena/internal/config"
	"InvestArena/internal/model"
	"InvestArena/internal/notifier"
	"InvestArena/internal/store"
)

func reportCmd(getCfg func() *config.Config) *cobra.Command {
	var snapshotPath string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the leaderboard and position history from storage or a snapshot file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := getCfg()
			ctx := cmd.Context()
			cat, err := loadCatalog(cfg)
			if err != nil {
				return err
			}

			var (
				teams []*model.Team
				g     *model.Game
			)
			if snapshotPath != "" {
				snap, err := store.ReadSnapshot(snapshotPath)
				if err != nil {
					return err
				}
				if snap == nil {
					return fmt.Errorf("snapshot %s not found", snapshotPath)
				}
				teams, g = snap.Teams, snap.Game
				if g == nil {
					g = model.NewGame()
				}
				color.New(color.FgHiBlack).Fprintf(cmd.OutOrStdout(), "snapshot taken %s\n", snap.TakenAt.Format(time.DateTime))
			} else {
				st, err := openStore(ctx, cfg)
				if err != nil {
					return err
				}
				defer st.Close()

				if teams, err = st.LoadTeams(ctx); err != nil {
					return err
				}
				if g, err = st.LoadGame(ctx); err != nil {
					return err
				}
			}
			writeReport(cmd.OutOrStdout(), cat, teams, g)
			return nil
		},
	}
	cmd.Flags().StringVar(&snapshotPath, "snapshot", "", "read state from this snapshot file instead of the database")
	return cmd
}

func writeReport(out io.Writer, cat *catalog.Catalog, teams []*model.Team, g *model.Game) {
	header := color.New(color.FgCyan, color.Bold)
	place := color.New(color.FgYellow, color.Bold)
	muted := color.New(color.FgHiBlack)
	up := color.New(color.FgGreen)
	down := color.New(color.FgRed)

	status := "idle"
	switch {
	case g.AwaitingCoefficient:
		status = "waiting for custom coefficient"
	case g.Started:
		status = "round open"
	case g.QuizActive:
		status = "quiz running"
	}
	header.Fprintf(out, "Round %d/%d (%s)\n\n", g.Round, cat.RoundCount(), status)

	header.Fprintln(out, "Leaderboard")
	for _, r := range calculator.Rank(teams) {
		place.Fprintf(out, "%3d. ", r.Place)
		fmt.Fprintf(out, "%-24s %10s ", r.Name, notifier.Money(r.Total))
		muted.Fprintf(out, "[%s]\n", r.TeamID)
	}

	for _, p := range cat.Positions {
		entries := g.History.Entries(p.ID)
		if len(entries) == 0 {
			continue
		}
		header.Fprintf(out, "\n%s ", p.Name)
		muted.Fprintf(out, "%s\n", p.Describe())
		for _, e := range entries {
			c := muted
			if e.Coefficient != nil {
				c = down
				if *e.Coefficient >= 1 {
					c = up
				}
			}
			fmt.Fprintf(out, "  round %d: ", e.Round)
			c.Fprintf(out, "%sx", e.CoefficientText())
			fmt.Fprintf(out, " (%d investors)\n", e.Investors)
		}
	}
}
