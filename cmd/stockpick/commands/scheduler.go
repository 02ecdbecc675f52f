package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/stockpick/internal/pipeline"
	"github.com/wonny/stockpick/internal/scheduler"
	"github.com/wonny/stockpick/internal/scheduler/jobs"
	"github.com/wonny/stockpick/pkg/config"
	"github.com/wonny/stockpick/pkg/logger"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `매일 분석/검증을 실행하는 스케줄러를 관리합니다.

Subcommands:
  start   - 스케줄러 시작
  list    - 등록된 작업과 다음 실행 시각

Example:
  go run ./cmd/stockpick scheduler start
  go run ./cmd/stockpick scheduler list`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		Long: `스케줄러를 시작하고 두 작업을 등록합니다.

등록되는 작업:
- analysis: 매일 ANALYSIS_TIME (기본 15:30)
- validation: 매일 VALIDATION_TIME (기본 18:00)

실패한 실행은 다음 예정 시각까지 재시도하지 않습니다.
스케줄러는 Ctrl+C로 종료할 수 있습니다.`,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록된 작업 목록",
		RunE:  listJobs,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
}

// newScheduler creates a scheduler with both daily jobs registered
func newScheduler(cfg *config.Config, runner jobs.Runner, log *logger.Logger) (*scheduler.Scheduler, error) {
	sched := scheduler.New(cfg.Location(), log)
	if err := jobs.Register(sched, runner, cfg.Pipeline.AnalysisTime, cfg.Pipeline.ValidationTime, log); err != nil {
		return nil, fmt.Errorf("register jobs: %w", err)
	}
	return sched, nil
}

func runScheduler(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "=== stockpick Scheduler ===")

	cfg, log, app, err := buildApp(cmd.Context())
	if err != nil {
		return err
	}
	defer app.Close()

	sched, err := newScheduler(cfg, app.Pipeline, log)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	sched.Start()

	PrintSuccess(out, "Scheduler started successfully")
	fmt.Fprintln(out, "\nRegistered jobs:")
	printJobs(cmd, cfg, sched)
	fmt.Fprintln(out, "\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Fprintln(out, "\nShutting down scheduler...")
	sched.Stop()
	fmt.Fprintln(out, "Scheduler stopped")

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	// 목록만 필요하므로 실행기는 연결하지 않음
	sched, err := newScheduler(cfg, pipeline.New(pipeline.Deps{}, cfg.Location(), log), log)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Registered jobs:")
	printJobs(cmd, cfg, sched)
	return nil
}

func printJobs(cmd *cobra.Command, cfg *config.Config, sched *scheduler.Scheduler) {
	out := cmd.OutOrStdout()
	now := time.Now().In(cfg.Location())
	for _, st := range sched.GetJobStats() {
		next := "-"
		if t, err := scheduler.NextAfter(st.Schedule, now); err == nil {
			next = t.Format(timeLayout)
		}
		fmt.Fprintf(out, "  - %-10s  %-16s  next %s\n", st.JobName, st.Schedule, next)
	}
}
