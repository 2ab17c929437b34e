package readers

import (
	"encoding/csv"
	"io"
	"os"

	"github.com/MalyanDon/data-pipeline-sub002/internal/models"
	"github.com/MalyanDon/data-pipeline-sub002/internal/sources"
	pkgerrors "github.com/MalyanDon/data-pipeline-sub002/pkg/errors"
	"github.com/MalyanDon/data-pipeline-sub002/pkg/logger"
)

// CSVReader reads delimiter-separated custodian exports.
type CSVReader struct {
	delimiter rune
	logger    logger.Logger
}

// NewCSVReader creates a CSV reader with comma delimiting.
func NewCSVReader() *CSVReader {
	return &CSVReader{
		delimiter: ',',
		logger:    logger.GetGlobalLogger().WithComponent("csv_reader"),
	}
}

// ReadRaw reads the file, treating row cfg.HeaderRow as column names and
// every subsequent non-blank row as data. Rows shorter than the header
// are padded with empty strings.
func (r *CSVReader) ReadRaw(path string, cfg *sources.SourceConfig) ([]models.RawRow, []string, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, pkgerrors.FileError(pkgerrors.CodeFileNotFound, path, err)
		}
		if os.IsPermission(err) {
			return nil, nil, pkgerrors.FileError(pkgerrors.CodeFilePermission, path, err)
		}
		return nil, nil, pkgerrors.FileError(pkgerrors.CodeDirectoryError, path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.Comma = r.delimiter
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var matrix [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, pkgerrors.FormatError(
				pkgerrors.CodeInvalidFormat, path, "unparseable CSV content", err)
		}
		matrix = append(matrix, record)
	}

	rows, err := rowsFromMatrix(path, matrix, cfg.HeaderRow)
	if err != nil {
		return nil, nil, err
	}

	r.logger.WithFields(logger.Fields{
		"file":   path,
		"source": cfg.Name,
		"rows":   len(rows),
	}).Debug("Read CSV file")

	return rows, nil, nil
}
