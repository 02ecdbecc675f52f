package record

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gocarina/gocsv"

	"github.com/wonny/stockpick/internal/contracts"
	"github.com/wonny/stockpick/pkg/logger"
)

// 구버전 파일의 중국어 헤더
var legacyHeader = []string{"日期", "股票代码", "股票名称", "评分", "最新价", "预测趋势", "RSI", "MACD快线", "MACD慢线", "5日均线"}

const utf8BOM = "\ufeff"

// CSVStore keeps records in a flat file with a fixed header
type CSVStore struct {
	path   string
	mu     sync.Mutex
	logger *logger.Logger
}

// NewCSVStore creates a store backed by path. The file is created on first append.
func NewCSVStore(path string, log *logger.Logger) *CSVStore {
	if log == nil {
		log = logger.NewNop()
	}
	return &CSVStore{path: path, logger: log.WithComponent("record.csv")}
}

// Path returns the backing file path
func (s *CSVStore) Path() string {
	return s.path
}

// Append writes one row, plus the header when the file is new or empty
func (s *CSVStore) Append(ctx context.Context, rec contracts.PredictionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create record dir: %w", err)
		}
	}

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open record file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat record file: %w", err)
	}

	rows := []*contracts.PredictionRecord{&rec}
	var buf bytes.Buffer
	if info.Size() == 0 {
		err = gocsv.Marshal(rows, &buf)
	} else {
		err = gocsv.MarshalWithoutHeaders(rows, &buf)
	}
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	if _, err := f.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("append record: %w", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"path":   s.path,
		"symbol": rec.Symbol,
		"date":   rec.Date,
	}).Info("prediction record appended")
	return nil
}

// Load reads every record. A missing file is an empty store.
func (s *CSVStore) Load(ctx context.Context) ([]contracts.PredictionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	data, err := os.ReadFile(s.path)
	s.mu.Unlock()

	if errors.Is(err, fs.ErrNotExist) {
		s.logger.WithField("path", s.path).Warn("record file does not exist yet")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read record file: %w", err)
	}

	data = normalizeHeader(data)
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var rows []*contracts.PredictionRecord
	if err := gocsv.Unmarshal(bytes.NewReader(data), &rows); err != nil {
		return nil, fmt.Errorf("decode record file %s: %w", s.path, err)
	}

	out := make([]contracts.PredictionRecord, 0, len(rows))
	for _, r := range rows {
		if r == nil {
			continue
		}
		out = append(out, *r)
	}
	return out, nil
}

// Close is a no-op for the file store
func (s *CSVStore) Close() error {
	return nil
}

// normalizeHeader strips a BOM and maps the legacy header onto the current one
func normalizeHeader(data []byte) []byte {
	data = bytes.TrimPrefix(data, []byte(utf8BOM))

	end := bytes.IndexByte(data, '\n')
	if end < 0 {
		end = len(data)
	}
	first := strings.TrimRight(string(data[:end]), "\r")
	if first != strings.Join(legacyHeader, ",") {
		return data
	}

	out := make([]byte, 0, len(data))
	out = append(out, strings.Join(contracts.RecordHeader, ",")...)
	out = append(out, data[end:]...)
	return out
}
