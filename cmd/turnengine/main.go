// Command turnengine runs a small walk-the-line game on top of the
// turn engine: moves go through the command executor, events through
// the dispatcher, and state plus an event journal land in SQLite.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/cobra"
	"github.com/terraskye/turnengine"
	"github.com/terraskye/turnengine/fixtures"
	"github.com/terraskye/turnengine/sqlite"
)

type config struct {
	DBPath     string `env:"TURNENGINE_DB" envDefault:"turnengine.db"`
	GameID     string `env:"TURNENGINE_GAME_ID" envDefault:"demo"`
	Goal       int    `env:"TURNENGINE_GOAL" envDefault:"5"`
	MaxHistory int    `env:"TURNENGINE_MAX_HISTORY" envDefault:"100"`
	LogLevel   string `env:"TURNENGINE_LOG_LEVEL" envDefault:"info"`
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "turnengine",
		Short:         "Turn-based game engine demo",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newDemoCmd(), newJournalCmd())
	return root
}

func loadConfig() (config, error) {
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func newDemoCmd() *cobra.Command {
	var withUndo bool

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Walk the counter to its goal, journaling every event",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := newLogger(cfg.LogLevel)

			store, err := sqlite.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer store.Close()

			dispatcher := turnengine.NewDispatcher(turnengine.WithDispatcherLogger(logger))
			dispatcher.Use(turnengine.NewLoggingMiddleware(logger))
			for _, eventType := range []turnengine.EventType{
				turnengine.EventGameStarted,
				turnengine.EventMoveMade,
				turnengine.EventMoveUndone,
				turnengine.EventMoveRedone,
				turnengine.EventCheckmateDetected,
				turnengine.EventGameEnded,
				turnengine.EventTurnChanged,
			} {
				dispatcher.SubscribeContext(eventType, store.JournalHandler(),
					turnengine.WithPriority(turnengine.PriorityCritical),
					turnengine.WithHandlerName("journal"),
				)
			}
			dispatcher.Subscribe(turnengine.EventGameEnded, func(event turnengine.Event) error {
				fmt.Fprintf(cmd.OutOrStdout(), "game over: %v wins (%v)\n", event.Data["winner"], event.Data["reason"])
				return nil
			}, turnengine.WithHandlerName("announcer"))

			agg := fixtures.NewCounterAggregate(cfg.GameID, cfg.Goal)
			session := turnengine.NewSession(agg, fixtures.WalkOracle{},
				turnengine.WithStore(store),
				turnengine.WithLogger(logger),
				turnengine.WithDispatcher(dispatcher),
				turnengine.WithExecutor(turnengine.NewExecutor(turnengine.WithMaxHistory(cfg.MaxHistory))),
			)

			ctx := cmd.Context()
			if err := session.Restore(ctx); err != nil && !errors.Is(err, turnengine.ErrNotFound) {
				return err
			}
			session.Start(ctx)

			for !agg.Terminal() {
				move := turnengine.Move{To: strconv.Itoa(agg.Position + 1)}
				outcome := session.MakeMove(ctx, move)
				report(cmd, fmt.Sprintf("move to %s", move.To), outcome)
				if !outcome.Success {
					return fmt.Errorf("move rejected: %s", outcome.Message)
				}

				if withUndo && agg.Position == 2 {
					report(cmd, "undo", session.Undo(ctx))
					report(cmd, "redo", session.Redo(ctx))
					withUndo = false
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&withUndo, "with-undo", true, "undo and redo one move along the way")
	return cmd
}

func report(cmd *cobra.Command, action string, outcome turnengine.Outcome) {
	status := "ok"
	if !outcome.Success {
		status = "failed"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%-12s %s: %s\n", action, status, outcome.Message)
	for _, warning := range outcome.Warnings {
		fmt.Fprintf(cmd.OutOrStdout(), "  warning: %s\n", warning)
	}
}

func newJournalCmd() *cobra.Command {
	var (
		eventType string
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "journal",
		Short: "List journaled events",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			store, err := sqlite.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer store.Close()

			it, err := store.Journal(cmd.Context(), turnengine.EventType(eventType), limit)
			if err != nil {
				return err
			}
			for it.Next(cmd.Context()) {
				entry := it.Value()
				var fields []string
				if decoded, err := entry.Decode(); err == nil {
					if data, ok := decoded.(map[string]any); ok {
						for key, value := range data {
							fields = append(fields, fmt.Sprintf("%s=%v", key, value))
						}
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%6d  %s  %-24s %s\n",
					entry.Seq,
					entry.OccurredAt.Format("2006-01-02 15:04:05"),
					entry.Type,
					strings.Join(fields, " "),
				)
			}
			return it.Err()
		},
	}
	cmd.Flags().StringVar(&eventType, "type", "", "only show events of this type")
	cmd.Flags().IntVar(&limit, "limit", 0, "only show the most recent N events")
	return cmd
}
