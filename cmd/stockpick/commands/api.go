package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/stockpick/internal/api"
	"github.com/wonny/stockpick/internal/api/handlers"
	"github.com/wonny/stockpick/internal/scheduler"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `읽기 전용 REST API 서버를 시작합니다.

Endpoints:
  GET  /health                    - Health check (DB, breaker)
  GET  /api/predictions           - 예측 기록 (?limit=&symbol=)
  GET  /api/predictions/validation - 현재 시점 검증 결과 (발송 없음)
  GET  /api/jobs                  - 작업 통계 (--scheduler)
  GET  /api/jobs/{name}/history   - 작업 실행 이력 (--scheduler)
  POST /api/jobs/{name}/run       - 작업 즉시 실행 (--scheduler)

Example:
  go run ./cmd/stockpick api
  go run ./cmd/stockpick api --port 8080 --scheduler`,
	RunE: runAPIServer,
}

var (
	apiPort      string
	apiScheduler bool
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본 PORT)")
	apiCmd.Flags().BoolVar(&apiScheduler, "scheduler", false, "스케줄러를 같은 프로세스에서 실행")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "=== stockpick API Server ===")

	cfg, log, app, err := buildApp(cmd.Context())
	if err != nil {
		return err
	}
	defer app.Close()

	if apiPort != "" {
		cfg.Port = apiPort
	}

	h := api.Handlers{
		Health:      handlers.NewHealthHandler("stockpick", app.Store, app.Provider, app.CacheEnabled()),
		Predictions: handlers.NewPredictionHandler(app.Store, app.Validator, log),
	}

	var sched *scheduler.Scheduler
	if apiScheduler {
		sched, err = newScheduler(cfg, app.Pipeline, log)
		if err != nil {
			return fmt.Errorf("init scheduler: %w", err)
		}
		h.Jobs = handlers.NewJobHandler(sched, log)
		sched.Start()
		defer sched.Stop()
	}

	server := api.New(cfg, log, api.NewRouter(h, log))

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	log.WithFields(map[string]interface{}{
		"port":      cfg.Port,
		"scheduler": apiScheduler,
	}).Info("API server started")
	PrintSuccess(out, fmt.Sprintf("Server running on http://localhost:%s", cfg.Port))
	fmt.Fprintln(out, "\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
