package readers

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/MalyanDon/data-pipeline-sub002/internal/models"
	"github.com/MalyanDon/data-pipeline-sub002/internal/sources"
	pkgerrors "github.com/MalyanDon/data-pipeline-sub002/pkg/errors"
	"github.com/MalyanDon/data-pipeline-sub002/pkg/logger"
)

// ExcelReader reads workbook custodian exports (.xlsx, .xls).
type ExcelReader struct {
	logger logger.Logger
}

// NewExcelReader creates a workbook reader.
func NewExcelReader() *ExcelReader {
	return &ExcelReader{
		logger: logger.GetGlobalLogger().WithComponent("excel_reader"),
	}
}

// ReadRaw opens the workbook and reads cfg.SheetName, falling back to
// the first sheet (with a warning) when the named sheet is absent or no
// sheet name is configured. Row cfg.HeaderRow supplies column names;
// every subsequent non-blank row becomes a RawRow.
func (r *ExcelReader) ReadRaw(path string, cfg *sources.SourceConfig) ([]models.RawRow, []string, error) {
	book, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, pkgerrors.FormatError(
			pkgerrors.CodeUnreadableFile, path, "cannot open workbook", err)
	}
	defer book.Close()

	var warnings []string

	sheet, warning, err := r.resolveSheet(book, path, cfg)
	if err != nil {
		return nil, nil, err
	}
	if warning != "" {
		warnings = append(warnings, warning)
		r.logger.WithFields(logger.Fields{
			"file":   path,
			"source": cfg.Name,
		}).Warn(warning)
	}

	matrix, err := book.GetRows(sheet)
	if err != nil {
		return nil, nil, pkgerrors.FormatError(
			pkgerrors.CodeUnreadableFile, path,
			fmt.Sprintf("cannot read sheet %q", sheet), err)
	}

	rows, err := rowsFromMatrix(path, matrix, cfg.HeaderRow)
	if err != nil {
		return nil, nil, err
	}

	r.logger.WithFields(logger.Fields{
		"file":   path,
		"source": cfg.Name,
		"sheet":  sheet,
		"rows":   len(rows),
	}).Debug("Read workbook sheet")

	return rows, warnings, nil
}

// resolveSheet picks the configured sheet if the workbook has it, else
// the first sheet. Returns a warning string when falling back from a
// configured name.
func (r *ExcelReader) resolveSheet(book *excelize.File, path string, cfg *sources.SourceConfig) (string, string, error) {
	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return "", "", pkgerrors.FormatError(
			pkgerrors.CodeMissingSheet, path, cfg.SheetName,
			fmt.Errorf("workbook has no sheets"))
	}

	if cfg.SheetName == "" {
		return sheets[0], "", nil
	}

	for _, sheet := range sheets {
		if sheet == cfg.SheetName {
			return sheet, "", nil
		}
	}

	warning := fmt.Sprintf("sheet %q not found, falling back to first sheet %q", cfg.SheetName, sheets[0])
	return sheets[0], warning, nil
}
