package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abdabkim/webdevacademy/internal/infrastructure/clock"
	"github.com/abdabkim/webdevacademy/internal/jobs"
	"github.com/abdabkim/webdevacademy/internal/metrics"
	"github.com/abdabkim/webdevacademy/internal/streak"
)

var streakCmd = &cobra.Command{
	Use:   "streak",
	Short: "Learning streak maintenance",
}

var streakRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Recompute the streak of every user now, outside of the nightly schedule",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		StreakUseCase := streak.NewStreakUseCase(streak.NewStreakRepository(a.conn), clock.NewSystemClock(), metrics.New())
		scheduler := jobs.NewScheduler(StreakUseCase, a.logger, a.option.Jobs.Timeout)

		ctx, cancel := context.WithTimeout(a.context(context.Background()), a.option.Jobs.Timeout)
		defer cancel()
		n := scheduler.RefreshStreaks(ctx)
		fmt.Fprintf(cmd.OutOrStdout(), "refreshed %d streaks\n", n)
		return ctx.Err()
	},
}

func init() {
	streakCmd.AddCommand(streakRefreshCmd)
}
