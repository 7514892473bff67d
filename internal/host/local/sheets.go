package local

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ppiankov/riskform/internal/host"
	"github.com/ppiankov/riskform/internal/model"
)

// CSVSheets implements host.TabularSink by writing one directory per
// spreadsheet and one CSV file per sheet
type CSVSheets struct {
	dir    string
	logger *zap.Logger
}

// NewCSVSheets creates a sink rooted at dir
func NewCSVSheets(dir string, logger *zap.Logger) *CSVSheets {
	return &CSVSheets{dir: dir, logger: logger}
}

// CreateSpreadsheet creates the spreadsheet directory
func (s *CSVSheets) CreateSpreadsheet(ctx context.Context, title string) (host.Spreadsheet, error) {
	id := uuid.NewString()
	dir := filepath.Join(s.dir, sanitizeFilename(title)+"-"+id[:8])

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create spreadsheet dir: %w", err)
	}

	return &csvSpreadsheet{id: id, dir: dir, logger: s.logger}, nil
}

type csvSpreadsheet struct {
	id     string
	dir    string
	logger *zap.Logger
}

func (s *csvSpreadsheet) ID() string { return s.id }

func (s *csvSpreadsheet) URL() string {
	abs, err := filepath.Abs(s.dir)
	if err != nil {
		return s.dir
	}
	return abs
}

// AddSheet writes <name>.csv. CSV carries no formatting, so style is only logged.
func (s *csvSpreadsheet) AddSheet(ctx context.Context, name string, header []string, rows [][]string, style model.SheetStyle) (err error) {
	path := filepath.Join(s.dir, sanitizeFilename(name)+".csv")

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create sheet file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close sheet file: %w", closeErr)
		}
	}()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}

	s.logger.Debug("Sheet written",
		zap.String("path", path),
		zap.Int("rows", len(rows)),
		zap.Int("frozen_rows", style.FrozenRows),
		zap.Int("frozen_columns", style.FrozenColumns))

	return nil
}

// sanitizeFilename replaces characters that are unsafe in file names
func sanitizeFilename(s string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		" ", "-",
	)
	s = replacer.Replace(s)

	if len(s) > 100 {
		s = s[:100]
	}
	if s == "" {
		s = "sheet"
	}
	return s
}
