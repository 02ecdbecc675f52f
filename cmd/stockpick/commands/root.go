package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/stockpick/internal/pipeline"
	"github.com/wonny/stockpick/pkg/config"
	"github.com/wonny/stockpick/pkg/logger"
)

var (
	// Global flags
	env       string
	verbose   bool
	logFormat string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "stockpick",
	Short: "Daily A-share best-candidate picker",
	Long: `stockpick CLI

장 마감 후 전 종목 시세를 받아 기술 지표로 점수를 매기고
최고 점수 종목 하나를 기록합니다. 예측 기간이 지난 기록은
실제 가격으로 검증합니다.

Usage:
  go run ./cmd/stockpick [command]

Examples:
  go run ./cmd/stockpick analyze
  go run ./cmd/stockpick validate
  go run ./cmd/stockpick records list --limit 10
  go run ./cmd/stockpick scheduler start
  go run ./cmd/stockpick api --scheduler`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&env, "env", "", "environment override (development|staging|production|test)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format override (json|console)")
}

// loadConfig loads config and applies global flag overrides
func loadConfig() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if env != "" {
		cfg.Env = env
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	if logFormat != "" {
		cfg.LogFormat = logFormat
	}
	return cfg, logger.New(cfg), nil
}

// buildApp loads config and wires the production collaborators
func buildApp(ctx context.Context) (*config.Config, *logger.Logger, *pipeline.App, error) {
	cfg, log, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}

	app, err := pipeline.Build(ctx, cfg, log)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("build pipeline: %w", err)
	}
	return cfg, log, app, nil
}
