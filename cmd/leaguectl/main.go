// Command leaguectl administers the chess league from the command line.
//
// Usage:
//
//	leaguectl migrate
//	leaguectl bootstrap --league league.yaml [--lichess]
//	leaguectl standings
//	leaguectl fixtures --event 1 [--open]
//	leaguectl token --subject arbiter --role admin --ttl 24h
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Dosada05/chess-league/app"
	"github.com/Dosada05/chess-league/config"
	"github.com/Dosada05/chess-league/logger"
	"github.com/Dosada05/chess-league/middleware"
	"github.com/Dosada05/chess-league/repositories"
)

func main() {
	root := &cobra.Command{
		Use:           "leaguectl",
		Short:         "Chess league administration CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(migrateCmd())
	root.AddCommand(bootstrapCmd())
	root.AddCommand(standingsCmd())
	root.AddCommand(fixturesCmd())
	root.AddCommand(tokenCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(app.Options{}, func(ctx context.Context, a *app.App, log *zap.Logger) error {
				if err := a.Migrate(ctx); err != nil {
					return err
				}
				log.Info("schema applied")
				return nil
			})
		},
	}
}

func bootstrapCmd() *cobra.Command {
	var (
		leaguePath    string
		importLichess bool
	)
	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Create members and an event from a league file and replay its history",
		RunE: func(cmd *cobra.Command, args []string) error {
			lf, err := config.LoadLeagueFile(leaguePath)
			if err != nil {
				return err
			}
			return withApp(app.Options{Migrate: true}, func(ctx context.Context, a *app.App, log *zap.Logger) error {
				start := time.Now()
				summary, err := runBootstrap(ctx, a, lf, importLichess, log)
				if err != nil {
					return err
				}
				printReplay(cmd.OutOrStdout(), summary.Replay)
				log.Info("bootstrap finished",
					zap.Int64("event_id", summary.Event.ID),
					zap.Int("fixtures", summary.Fixtures),
					zap.Int("replayed", len(summary.Replay)),
					zap.Duration("duration", time.Since(start).Round(time.Millisecond)),
				)

				standings, err := a.League.ComputeStandings(ctx)
				if err != nil {
					return err
				}
				printStandings(cmd.OutOrStdout(), standings)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&leaguePath, "league", "league.yaml", "Path to the league YAML file")
	cmd.Flags().BoolVar(&importLichess, "lichess", false, "Import lichess profiles for the listed members")
	return cmd
}

func standingsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "standings",
		Short: "Print the current standings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(app.Options{}, func(ctx context.Context, a *app.App, log *zap.Logger) error {
				standings, err := a.League.ComputeStandings(ctx)
				if err != nil {
					return err
				}
				printStandings(cmd.OutOrStdout(), standings)
				return nil
			})
		},
	}
}

func fixturesCmd() *cobra.Command {
	var (
		eventID  int64
		onlyOpen bool
		member   string
	)
	cmd := &cobra.Command{
		Use:   "fixtures",
		Short: "Print the fixtures of an event",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(app.Options{}, func(ctx context.Context, a *app.App, log *zap.Logger) error {
				filter := repositories.FixtureFilter{MemberID: member, OnlyOpen: onlyOpen}
				if eventID > 0 {
					filter.EventID = &eventID
				}
				fixtures, err := a.League.ListFixtures(ctx, filter)
				if err != nil {
					return err
				}
				printFixtures(cmd.OutOrStdout(), fixtures)
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&eventID, "event", 0, "Event ID (0 = all events)")
	cmd.Flags().BoolVar(&onlyOpen, "open", false, "Only fixtures without a recorded game")
	cmd.Flags().StringVar(&member, "member", "", "Only fixtures involving this member")
	return cmd
}

func tokenCmd() *cobra.Command {
	var (
		subject string
		role    string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a signed API token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			token, err := middleware.NewAuthenticator(cfg.JWTSecretKey, nil).IssueToken(subject, role, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "arbiter", "Token subject")
	cmd.Flags().StringVar(&role, "role", middleware.RoleAdmin, "Role claim (admin, viewer)")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	return cmd
}

// withApp handles config loading, wiring and context cancellation.
func withApp(opts app.Options, fn func(ctx context.Context, a *app.App, log *zap.Logger) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := config.LoadCommon()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.LogLevel, "console")
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	a, err := app.New(ctx, cfg, log, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(ctx, a, log)
}
