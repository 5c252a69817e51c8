package main

import (
	"fmt"
	"log"
	"math/rand"
	"os"
	"strings"

	"courtside/internal/config"
	"courtside/internal/domain"
	"courtside/internal/sim"

	"github.com/urfave/cli/v2"
)

const maxPointsPerMatch = 10000

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "courtside-sim",
		Usage: "simulate tennis matches with the scoring engine",
		Commands: []*cli.Command{
			newRunCommand(),
			newFormatsCommand(),
		},
	}
}

func newRunCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "play a series of simulated matches and print a summary",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format", Value: string(config.Defaults().DefaultFormat), Usage: "match format id"},
			&cli.IntFlag{Name: "matches", Aliases: []string{"n"}, Value: 100, Usage: "number of matches"},
			&cli.Int64Flag{Name: "seed", Usage: "rng seed (0 seeds from the clock)"},
			&cli.Float64Flag{Name: "serve-win", Value: sim.DefaultServeWinProbability, Usage: "probability the server wins a point"},
			&cli.Float64Flag{Name: "edge", Usage: "shift every point toward A (positive) or B (negative)"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "print every scoreline"},
		},
		Action: func(c *cli.Context) error {
			format, ok := domain.Format(domain.FormatID(c.String("format")))
			if !ok {
				return fmt.Errorf("unknown format %q (try: %s)", c.String("format"), formatList())
			}
			if c.Int("matches") <= 0 {
				return fmt.Errorf("matches must be positive")
			}

			var rng *rand.Rand
			if seed := c.Int64("seed"); seed != 0 {
				rng = rand.New(rand.NewSource(seed))
			}
			simulator := sim.New(rng, sim.Tuning{
				ServeWinProbability: c.Float64("serve-win"),
				Edge:                c.Float64("edge"),
			})

			report := simulator.Series(format, c.Int("matches"), maxPointsPerMatch)
			if c.Bool("verbose") {
				for i, line := range report.Scorelines {
					fmt.Fprintf(c.App.Writer, "%4d  %s\n", i+1, line)
				}
			}
			printReport(c, report)
			return nil
		},
	}
}

func newFormatsCommand() *cli.Command {
	return &cli.Command{
		Name:  "formats",
		Usage: "list the supported match formats",
		Action: func(c *cli.Context) error {
			for _, id := range domain.FormatIDs() {
				f := domain.MustFormat(id)
				deciding := "full set"
				if f.SuperTiebreak {
					deciding = fmt.Sprintf("super tiebreak to %d", f.SuperTiebreakPoints)
				}
				fmt.Fprintf(c.App.Writer, "%-16s first to %d sets, deciding set: %s\n", id, f.SetsToWin, deciding)
			}
			return nil
		},
	}
}

func printReport(c *cli.Context, r sim.Report) {
	w := c.App.Writer
	fmt.Fprintf(w, "format:          %s\n", r.Format)
	fmt.Fprintf(w, "matches:         %d (%d unfinished)\n", r.Matches, r.Unfinished)
	fmt.Fprintf(w, "wins A / B:      %d / %d\n", r.Wins[domain.SideA], r.Wins[domain.SideB])
	fmt.Fprintf(w, "avg points:      %.1f\n", r.AveragePoints())
	fmt.Fprintf(w, "tiebreaks:       %d\n", r.Tiebreaks)
	fmt.Fprintf(w, "super tiebreaks: %d\n", r.SuperTiebreaks)
}

func formatList() string {
	ids := domain.FormatIDs()
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = string(id)
	}
	return strings.Join(names, ", ")
}
