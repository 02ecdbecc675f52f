package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/stockpick/internal/contracts"
	"github.com/wonny/stockpick/internal/record"
	"github.com/wonny/stockpick/pkg/database"
)

// recordsCmd represents the records command
var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "예측 기록 조회",
	Long: `예측 기록 저장소를 조회합니다.

Subcommands:
  list   - 최근 기록 목록
  check  - 저장소 연결 확인

Example:
  go run ./cmd/stockpick records list --limit 10
  go run ./cmd/stockpick records list --symbol sh600519
  go run ./cmd/stockpick records check`,
}

var (
	recordsListCmd = &cobra.Command{
		Use:   "list",
		Short: "최근 기록 목록",
		RunE:  listRecords,
	}

	recordsCheckCmd = &cobra.Command{
		Use:   "check",
		Short: "저장소 연결 확인",
		RunE:  checkRecords,
	}

	recordsLimit  int
	recordsSymbol string
)

func init() {
	rootCmd.AddCommand(recordsCmd)
	recordsCmd.AddCommand(recordsListCmd)
	recordsCmd.AddCommand(recordsCheckCmd)

	recordsListCmd.Flags().IntVar(&recordsLimit, "limit", 20, "표시할 최근 기록 수 (0 = 전체)")
	recordsListCmd.Flags().StringVar(&recordsSymbol, "symbol", "", "종목 필터 (예: sh600519)")
}

func openStore(ctx context.Context) (record.Store, error) {
	cfg, log, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return record.Open(ctx, cfg, log)
}

func listRecords(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	recs, err := store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load records: %w", err)
	}
	recs = filterSymbol(recs, recordsSymbol)

	out := cmd.OutOrStdout()
	if len(recs) == 0 {
		PrintWarning(out, "No prediction records")
		return nil
	}

	shown := record.Tail(recs, recordsLimit)
	PrintRecords(out, shown)
	fmt.Fprintf(out, "\n%d of %d records\n", len(shown), len(recs))
	return nil
}

func filterSymbol(recs []contracts.PredictionRecord, symbol string) []contracts.PredictionRecord {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return recs
	}
	out := make([]contracts.PredictionRecord, 0, len(recs))
	for _, r := range recs {
		if r.Symbol == symbol {
			out = append(out, r)
		}
	}
	return out
}

func checkRecords(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	out := cmd.OutOrStdout()
	store, err := openStore(ctx)
	if err != nil {
		PrintError(out, err.Error())
		return err
	}
	defer store.Close()

	if checker, ok := store.(interface {
		HealthCheck(ctx context.Context) database.HealthStatus
	}); ok {
		status := checker.HealthCheck(ctx)
		if !status.Healthy {
			PrintError(out, "Database unhealthy: "+status.Error)
			return fmt.Errorf("database unhealthy: %s", status.Error)
		}
		PrintSuccess(out, "Database connection healthy")
		PrintKeyValue(out, "Response Time", status.ResponseTime.String(), 13)
		PrintKeyValue(out, "Connections", fmt.Sprintf("%d/%d (idle %d)", status.TotalConns, status.MaxConns, status.IdleConns), 13)
	}

	recs, err := store.Load(ctx)
	if err != nil {
		PrintError(out, err.Error())
		return fmt.Errorf("load records: %w", err)
	}
	if csv, ok := store.(*record.CSVStore); ok {
		PrintKeyValue(out, "File", csv.Path(), 13)
	}
	PrintKeyValue(out, "Records", fmt.Sprint(len(recs)), 13)
	PrintSuccess(out, "Record store readable")
	return nil
}
