// Package reader decodes downloaded artifacts into raw row tables.
//
// Readers are format-preserving: cell values stay strings and no type
// coercion happens here. Three strategies cover the portal formats:
// spreadsheet exports, compressed archives of spreadsheets, and paginated
// HTML fragments.
package reader

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/sayouzone/sayou-healthcare/internal/healthdata"
)

// SpreadsheetConfig controls sheet decoding.
type SpreadsheetConfig struct {
	Kind healthdata.RecordKind
	// KeyColumn names the header whose empty value marks a row as a
	// formatting artifact (totals, spacer rows). Such rows are skipped,
	// not errored.
	KeyColumn string
}

// SpreadsheetReader decodes the first sheet of an Excel artifact. The
// header row supplies field names; every following non-blank row becomes
// one RawRow.
type SpreadsheetReader struct {
	cfg    SpreadsheetConfig
	logger *zap.Logger
}

// NewSpreadsheet builds a SpreadsheetReader.
func NewSpreadsheet(cfg SpreadsheetConfig, logger *zap.Logger) *SpreadsheetReader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SpreadsheetReader{cfg: cfg, logger: logger}
}

// Read decodes the artifact into a single raw table.
func (r *SpreadsheetReader) Read(_ context.Context, artifact healthdata.RawArtifact) ([]healthdata.RawTable, error) {
	file, err := excelize.OpenReader(bytes.NewReader(artifact.Body))
	if err != nil {
		return nil, fmt.Errorf("open spreadsheet %q: %w", artifact.Name, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			r.logger.Warn("close spreadsheet", zap.String("artifact", artifact.Name), zap.Error(cerr))
		}
	}()

	sheet := file.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("spreadsheet %q has no sheets", artifact.Name)
	}
	cells, err := file.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	rows := r.mapRows(cells)
	return []healthdata.RawTable{{
		Kind:   r.cfg.Kind,
		Origin: artifact.Name,
		Rows:   rows,
	}}, nil
}

func (r *SpreadsheetReader) mapRows(cells [][]string) []healthdata.RawRow {
	var header []string
	var rows []healthdata.RawRow
	for _, cell := range cells {
		if blankRow(cell) {
			continue
		}
		if header == nil {
			header = cell
			continue
		}
		row := healthdata.RawRow{}
		for i, name := range header {
			if name == "" {
				continue
			}
			if i < len(cell) {
				row[name] = cell[i]
			} else {
				row[name] = ""
			}
		}
		if r.cfg.KeyColumn != "" && row[r.cfg.KeyColumn] == "" {
			continue
		}
		rows = append(rows, row)
	}
	return rows
}

func blankRow(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}
