// Package readers extracts raw rows from custodian export files.
//
// A reader is format-specific (CSV or spreadsheet) but source-aware: it
// honors the source's header-row offset and, for workbooks, its sheet
// name with a first-sheet fallback. Output rows keep original column
// names verbatim; mapping correctness depends on exact-name matches, so
// no normalization happens here.
package readers

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/MalyanDon/data-pipeline-sub002/internal/models"
	"github.com/MalyanDon/data-pipeline-sub002/internal/sources"
	pkgerrors "github.com/MalyanDon/data-pipeline-sub002/pkg/errors"
)

// Reader extracts raw rows from a file according to a source config.
// It returns the data rows, any non-fatal warnings (e.g. a sheet
// fallback), and an error when the file cannot be read at all.
type Reader interface {
	ReadRaw(path string, cfg *sources.SourceConfig) ([]models.RawRow, []string, error)
}

// ForFile returns the reader appropriate for the file's extension.
func ForFile(path string) (Reader, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return NewCSVReader(), nil
	case ".xlsx", ".xls":
		return NewExcelReader(), nil
	default:
		return nil, pkgerrors.FormatError(
			pkgerrors.CodeInvalidFormat,
			path,
			"unsupported file extension",
			nil,
		)
	}
}

// rowsFromMatrix converts a header-plus-data cell matrix into RawRows,
// starting at headerRow. Blank rows are dropped; short rows are padded
// with empty strings via NewRawRow.
func rowsFromMatrix(path string, matrix [][]string, headerRow int) ([]models.RawRow, error) {
	if len(matrix) <= headerRow {
		return nil, pkgerrors.FormatError(
			pkgerrors.CodeMissingHeader,
			path,
			formatHeaderRow(headerRow),
			nil,
		)
	}

	headers := make([]string, len(matrix[headerRow]))
	for i, h := range matrix[headerRow] {
		headers[i] = strings.TrimSpace(h)
	}

	rows := make([]models.RawRow, 0, len(matrix)-headerRow-1)
	for _, cells := range matrix[headerRow+1:] {
		row := models.NewRawRow(headers, cells)
		if row.IsEmpty() {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func formatHeaderRow(headerRow int) string {
	// Detail string for the format error; offset is 0-based.
	return "header row offset " + strconv.Itoa(headerRow)
}
