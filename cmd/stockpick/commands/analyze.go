package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "분석 1회 실행",
	Long: `전 종목 시세를 받아 최고 점수 종목을 선택하고 기록합니다.

이 명령어는:
- 전 종목 시세 조회
- 종목별 일봉으로 지표 계산 및 점수화
- 최고 점수 종목을 예측 기록에 추가
- 매수 조건 충족 시 메일 알림

Example:
  go run ./cmd/stockpick analyze
  go run ./cmd/stockpick analyze --timeout 20m`,
	RunE: runAnalyze,
}

var analyzeTimeout time.Duration

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().DurationVar(&analyzeTimeout, "timeout", 30*time.Minute, "분석 전체 제한 시간")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, analyzeTimeout)
	defer cancel()

	_, log, app, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	out := cmd.OutOrStdout()
	PrintHeader(out, "Stock Analysis", time.Now())

	res, err := app.Pipeline.RunAnalysis(ctx)
	if err != nil {
		log.WithError(err).Error("Analysis failed")
		PrintError(out, err.Error())
		return fmt.Errorf("analysis: %w", err)
	}

	PrintAnalysis(out, res)
	return nil
}
