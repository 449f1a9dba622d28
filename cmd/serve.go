package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/abdabkim/webdevacademy/internal/catalog"
	infra "github.com/abdabkim/webdevacademy/internal/infrastructure"
	"github.com/abdabkim/webdevacademy/internal/infrastructure/clock"
	"github.com/abdabkim/webdevacademy/internal/infrastructure/driver"
	"github.com/abdabkim/webdevacademy/internal/infrastructure/schema"
	"github.com/abdabkim/webdevacademy/internal/infrastructure/uuid"
	"github.com/abdabkim/webdevacademy/internal/interfaces/rest"
	"github.com/abdabkim/webdevacademy/internal/jobs"
	"github.com/abdabkim/webdevacademy/internal/metrics"
	"github.com/abdabkim/webdevacademy/internal/progress"
	"github.com/abdabkim/webdevacademy/internal/review"
	"github.com/abdabkim/webdevacademy/internal/streak"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the nightly jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		migrate, _ := cmd.Flags().GetBool("migrate")
		return serve(cmd.Context(), a, migrate)
	},
}

func init() {
	serveCmd.Flags().Bool("migrate", true, "create missing tables before serving")
}

func newKV(option *infra.AppConfig) driver.KeyValueDB {
	if option.KVStore.Driver == "redis" {
		return driver.NewRedisClient(option.KVStore.Host, option.KVStore.Port, option.KVStore.Password)
	}
	return driver.NewMemoryKV()
}

func serve(parent context.Context, a *app, migrate bool) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(a.context(parent), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if migrate {
		if err := schema.Migrate(ctx, a.conn); err != nil {
			return fmt.Errorf("failed to migrate: %w", err)
		}
	}

	cat, err := catalog.Default()
	if err != nil {
		return err
	}

	var (
		option = a.option
		kv     = newKV(option)
		clk    = clock.NewSystemClock()
		m      = metrics.New()

		StreakUseCase   = streak.NewStreakUseCase(streak.NewStreakRepository(a.conn), clk, m)
		ProgressUseCase = progress.NewProgressUseCase(progress.NewProgressRepository(a.conn), StreakUseCase, clk, m)
		ReviewUseCase   = review.NewReviewUseCase(
			review.NewFlashCardRepository(a.conn),
			uuid.NewNanoIDGenerator(option.Security.IDLength, uuid.CardAlphabet),
			clk,
			m,
		)
	)
	if rc, ok := kv.(*driver.RedisClient); ok {
		defer rc.Close()
	}

	server := rest.NewServer(option, &rest.Dependencies{
		Conn:            a.conn,
		KV:              kv,
		Catalog:         cat,
		ProgressUseCase: ProgressUseCase,
		StreakUseCase:   StreakUseCase,
		ReviewUseCase:   ReviewUseCase,
		Metrics:         m,
		Logger:          a.logger,
	})

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return rest.Serve(ctx, server, fmt.Sprintf("%s:%d", option.Host, option.Port), a.logger)
	})
	if option.Jobs.Enabled {
		scheduler := jobs.NewScheduler(StreakUseCase, a.logger, option.Jobs.Timeout)
		if err := scheduler.Start(option.Jobs.StreakRefreshAt); err != nil {
			stop()
			g.Wait()
			return err
		}
		a.logger.Debug("Next streak refresh", zap.Time("jobs.next_run", scheduler.NextRun()))
		g.Go(func() error {
			<-ctx.Done()
			scheduler.Stop()
			return nil
		})
	}
	return g.Wait()
}
