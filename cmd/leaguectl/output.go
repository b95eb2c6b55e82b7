package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/Dosada05/chess-league/models"
	"github.com/Dosada05/chess-league/services"
)

func printStandings(w io.Writer, standings []models.PlayerStanding) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tMEMBER\tRATING\tPLAYED\tREQUIRED\tW\tD\tL")
	for i, s := range standings {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\t%d\t%d\t%d\n",
			i+1, s.Name, s.Rating, s.GamesPlayed, s.GamesRequired, s.Wins, s.Draws, s.Losses)
	}
	tw.Flush()
}

func printFixtures(w io.Writer, fixtures []*models.Fixture) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tEVENT\tROUND\tWHITE\tBLACK\tDEADLINE\tTIME\tRESULT")
	for _, f := range fixtures {
		result := "-"
		if f.Fulfilled() {
			result = fmt.Sprintf("%s (%s)", *f.Outcome, *f.GameID)
		}
		fmt.Fprintf(tw, "%d\t%d\t%d\t%s\t%s\t%s\t%s\t%s\n",
			f.ID, f.EventID, f.RoundNumber, f.White, f.Black,
			f.Deadline.Format(models.DateLayout), f.TimeControl(), result)
	}
	tw.Flush()
}

func printReplay(w io.Writer, results []services.ReplayResult) {
	if len(results) == 0 {
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "GAME\tROUND\tWHITE\tBLACK\tSTATUS")
	for _, r := range results {
		status := "accepted"
		switch {
		case r.Err != nil:
			status = "error: " + r.Err.Error()
		case r.Report != nil && !r.Report.Accepted:
			failed := make([]string, 0, 5)
			for _, c := range r.Report.Failed() {
				failed = append(failed, string(c))
			}
			status = "rejected: " + strings.Join(failed, ", ")
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n", r.Game.GameID, r.Game.Round, r.Game.White, r.Game.Black, status)
	}
	tw.Flush()
}
