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

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "예측 검증 1회 실행",
	Long: `예측 기간이 지난 기록을 실제 가격과 비교합니다.

이 명령어는:
- 예측 기록 전체 조회
- N 거래일 후 종가 조회
- 방향 적중 여부 판정 및 정확도 집계
- 검증 결과 메일 발송

Example:
  go run ./cmd/stockpick validate`,
	RunE: runValidate,
}

var validateTimeout time.Duration

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().DurationVar(&validateTimeout, "timeout", 10*time.Minute, "검증 전체 제한 시간")
}

func runValidate(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, validateTimeout)
	defer cancel()

	_, log, app, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	out := cmd.OutOrStdout()
	PrintHeader(out, "Prediction Validation", time.Now())

	run, err := app.Pipeline.RunValidation(ctx)
	if err != nil {
		log.WithError(err).Error("Validation failed")
		PrintError(out, err.Error())
		return fmt.Errorf("validation: %w", err)
	}

	PrintValidation(out, run)
	return nil
}
