package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	infra "github.com/abdabkim/webdevacademy/internal/infrastructure"
	"github.com/abdabkim/webdevacademy/internal/infrastructure/driver"
	"github.com/abdabkim/webdevacademy/internal/infrastructure/logging"
)

var rootCmd = &cobra.Command{
	Use:           "webdevacademy",
	Short:         "Web development academy learning backend",
	Long:          "Tracks course progress, lesson unlocking, learning streaks and flashcard reviews for the academy frontend.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute run the command line
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	infra.RegisterFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(streakCmd)
	rootCmd.AddCommand(tokenCmd)
}

// app process wide resources shared by the subcommands
type app struct {
	option *infra.AppConfig
	logger *zap.Logger
	conn   driver.ITransactionalDB
}

func bootstrap(cmd *cobra.Command) (*app, error) {
	option, err := infra.LoadConfig(cmd.Flags())
	if err != nil {
		return nil, err
	}

	logger, err := logging.NewLogger(&logging.Config{
		FilePath: option.Logging.FilePath,
		Level:    option.Logging.Level,
		AppID:    option.AppID,
		Env:      option.Env,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	conn, err := driver.GetDBConnection(&driver.DBConfig{
		User:     option.Database.User,
		Password: option.Database.Password,
		MaxConn:  option.Database.MaxConn,
		Protocol: option.Database.Protocol,
		Driver:   option.Database.Driver,
		Host:     option.Database.Host,
		Port:     option.Database.Port,
		Query:    option.Database.Query,
		Schema:   option.Database.Schema,
	})
	if err != nil {
		logger.Sync()
		return nil, fmt.Errorf("failed to create DB connection: %w", err)
	}
	logger.Debug("Created DB connection",
		zap.String("db.driver", option.Database.Driver),
		zap.String("db.schema", option.Database.Schema),
		zap.String("db.host", option.Database.Host),
	)
	return &app{option, logger, conn}, nil
}

func (a *app) close() {
	if err := a.conn.Close(context.Background()); err != nil {
		a.logger.Warn("Failed to close DB connection", zap.Error(err))
	}
	a.logger.Sync()
}

func (a *app) context(parent context.Context) context.Context {
	return logging.SetLoggerInContext(parent, a.logger)
}
