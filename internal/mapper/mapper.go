// Package mapper converts raw custodian rows into unified holding
// records and applies the structural validation gate.
//
// The mapper is the only component that knows both the per-custodian
// column shapes and the unified schema; everything upstream deals in raw
// rows, everything downstream in UnifiedHoldingRecords.
package mapper

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MalyanDon/data-pipeline-sub002/internal/models"
	"github.com/MalyanDon/data-pipeline-sub002/internal/sources"
	"github.com/MalyanDon/data-pipeline-sub002/pkg/logger"
)

// DefaultBatchSize is the number of rows mapped per batch. Batching is
// purely for bounded memory accounting and progress logging; it has no
// effect on the mapped output.
const DefaultBatchSize = 1000

// Mapper transforms raw rows into unified records for one source.
type Mapper struct {
	batchSize int
	logger    logger.Logger
}

// NewMapper creates a mapper with the given batch size; zero or
// negative means DefaultBatchSize.
func NewMapper(batchSize int) *Mapper {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Mapper{
		batchSize: batchSize,
		logger:    logger.GetGlobalLogger().WithComponent("mapper"),
	}
}

// MapRows maps every raw row and splits the output into validated
// records and validation errors. A row that fails mapping or the
// identity check becomes a ValidationError carrying its original
// 0-based data-row index and raw payload; it never aborts the batch.
func (m *Mapper) MapRows(
	rows []models.RawRow,
	cfg *sources.SourceConfig,
	fileName string,
	recordDate time.Time,
) ([]*models.UnifiedHoldingRecord, []*models.ValidationError) {

	records := make([]*models.UnifiedHoldingRecord, 0, len(rows))
	var invalid []*models.ValidationError

	tracker := logger.NewProgressTracker(logger.ProgressConfig{
		Operation: fmt.Sprintf("map %s", fileName),
		Total:     int64(len(rows)),
		Logger:    m.logger,
	})

	for start := 0; start < len(rows); start += m.batchSize {
		end := start + m.batchSize
		if end > len(rows) {
			end = len(rows)
		}

		for i, row := range rows[start:end] {
			index := start + i
			record, err := m.mapRow(row, cfg, fileName, recordDate)
			if err != nil {
				invalid = append(invalid, &models.ValidationError{
					RowIndex: index,
					Raw:      row,
					Reason:   err.Error(),
				})
				continue
			}
			if err := record.Validate(); err != nil {
				invalid = append(invalid, &models.ValidationError{
					RowIndex: index,
					Raw:      row,
					Reason:   err.Error(),
				})
				continue
			}
			records = append(records, record)
		}

		tracker.Add(int64(end - start))
	}
	tracker.Complete()

	m.logger.WithFields(logger.Fields{
		"file":    fileName,
		"source":  cfg.Name,
		"total":   len(rows),
		"valid":   len(records),
		"invalid": len(invalid),
	}).Info("Mapped raw rows")

	return records, invalid
}

// mapRow resolves every target field of the unified schema from one raw
// row. A panic while coercing a cell is recovered and reported as the
// row's error rather than taking down the whole file.
func (m *Mapper) mapRow(
	row models.RawRow,
	cfg *sources.SourceConfig,
	fileName string,
	recordDate time.Time,
) (record *models.UnifiedHoldingRecord, err error) {

	defer func() {
		if r := recover(); r != nil {
			record = nil
			err = fmt.Errorf("unexpected error mapping row: %v", r)
		}
	}()

	record = &models.UnifiedHoldingRecord{
		SourceSystem: cfg.Name,
		FileName:     fileName,
		RecordDate:   recordDate,
	}

	record.ClientReference = resolveText(row, cfg.FieldMappings[sources.FieldClientReference])
	record.ClientName = resolveText(row, cfg.FieldMappings[sources.FieldClientName])
	record.InstrumentISIN = resolveText(row, cfg.FieldMappings[sources.FieldInstrumentISIN])
	record.InstrumentName = resolveText(row, cfg.FieldMappings[sources.FieldInstrumentName])
	record.InstrumentCode = resolveText(row, cfg.FieldMappings[sources.FieldInstrumentCode])

	record.BlockedQuantity = resolveQuantity(row, cfg.FieldMappings[sources.FieldBlockedQuantity])
	record.PendingBuyQuantity = resolveQuantity(row, cfg.FieldMappings[sources.FieldPendingBuyQuantity])
	record.PendingSellQuantity = resolveQuantity(row, cfg.FieldMappings[sources.FieldPendingSellQuantity])
	record.TotalPosition = resolveQuantity(row, cfg.FieldMappings[sources.FieldTotalPosition])
	record.SaleableQuantity = resolveQuantity(row, cfg.FieldMappings[sources.FieldSaleableQuantity])

	return record, nil
}

// resolveText resolves a text-valued field mapping: omitted fields are
// empty, literals are used verbatim, column lookups are trimmed.
func resolveText(row models.RawRow, mapping sources.FieldMapping) string {
	switch mapping.Kind {
	case sources.MappingLiteral:
		return mapping.Literal
	case sources.MappingColumn:
		return strings.TrimSpace(row.Get(mapping.Column))
	case sources.MappingSum:
		// Sum mappings are only meaningful for quantities; joining the
		// trimmed parts keeps a misdeclared config visible instead of
		// silently empty.
		parts := make([]string, 0, len(mapping.Columns))
		for _, col := range mapping.Columns {
			if v := strings.TrimSpace(row.Get(col)); v != "" {
				parts = append(parts, v)
			}
		}
		return strings.Join(parts, " ")
	default:
		return ""
	}
}

// resolveQuantity resolves a numeric field mapping with locale-agnostic
// parsing; non-numeric cells and missing columns contribute zero.
func resolveQuantity(row models.RawRow, mapping sources.FieldMapping) decimal.Decimal {
	switch mapping.Kind {
	case sources.MappingLiteral:
		return models.ParseQuantity(mapping.Literal)
	case sources.MappingColumn:
		return models.ParseQuantity(row.Get(mapping.Column))
	case sources.MappingSum:
		total := decimal.Zero
		for _, col := range mapping.Columns {
			total = total.Add(models.ParseQuantity(row.Get(col)))
		}
		return total
	default:
		return decimal.Zero
	}
}
