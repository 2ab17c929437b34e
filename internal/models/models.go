// Package models defines the canonical record types shared across the
// holdings normalization pipeline.
//
// The central type is UnifiedHoldingRecord, the single schema every
// custodian export is mapped onto. RawRow carries the untranslated shape
// of a source row between the reader and the mapper; ValidationError and
// ProcessingSummary carry diagnostics through to the run report.
package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// RawRow is an ordered mapping from source column name to raw cell value.
// Column names are kept verbatim from the source file; the mapper relies
// on exact-name matches. RawRows are ephemeral: produced by a reader,
// consumed by the mapper, then discarded.
type RawRow struct {
	Columns []string
	Values  map[string]string
}

// NewRawRow builds a RawRow from parallel header and cell slices.
// Missing trailing cells become empty strings.
func NewRawRow(headers, cells []string) RawRow {
	row := RawRow{
		Columns: headers,
		Values:  make(map[string]string, len(headers)),
	}
	for i, h := range headers {
		if i < len(cells) {
			row.Values[h] = cells[i]
		} else {
			row.Values[h] = ""
		}
	}
	return row
}

// Get returns the raw value for a column, or empty string if absent.
func (r RawRow) Get(column string) string {
	return r.Values[column]
}

// IsEmpty reports whether every cell in the row is blank.
func (r RawRow) IsEmpty() bool {
	for _, v := range r.Values {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// UnifiedHoldingRecord is the canonical holdings schema. One record per
// client position per instrument, regardless of which custodian exported
// it. Immutable once created by the mapper.
type UnifiedHoldingRecord struct {
	ClientReference     string          `json:"client_reference" db:"client_reference"`
	ClientName          string          `json:"client_name" db:"client_name"`
	InstrumentISIN      string          `json:"instrument_isin" db:"instrument_isin"`
	InstrumentName      string          `json:"instrument_name" db:"instrument_name"`
	InstrumentCode      string          `json:"instrument_code" db:"instrument_code"`
	BlockedQuantity     decimal.Decimal `json:"blocked_quantity" db:"blocked_quantity"`
	PendingBuyQuantity  decimal.Decimal `json:"pending_buy_quantity" db:"pending_buy_quantity"`
	PendingSellQuantity decimal.Decimal `json:"pending_sell_quantity" db:"pending_sell_quantity"`
	TotalPosition       decimal.Decimal `json:"total_position" db:"total_position"`
	SaleableQuantity    decimal.Decimal `json:"saleable_quantity" db:"saleable_quantity"`
	SourceSystem        string          `json:"source_system" db:"source_system"`
	FileName            string          `json:"file_name" db:"file_name"`
	RecordDate          time.Time       `json:"record_date" db:"record_date"`
}

// Validate checks the identity invariant: client reference, client name
// and ISIN must each be non-empty after trimming. This is deliberately
// the only structural check; per-field format validation is left to the
// quality report so throughput is not spent on it.
func (r *UnifiedHoldingRecord) Validate() error {
	if strings.TrimSpace(r.ClientReference) == "" {
		return fmt.Errorf("client_reference cannot be empty")
	}
	if strings.TrimSpace(r.ClientName) == "" {
		return fmt.Errorf("client_name cannot be empty")
	}
	if strings.TrimSpace(r.InstrumentISIN) == "" {
		return fmt.Errorf("instrument_isin cannot be empty")
	}
	return nil
}

// ReconciliationSum returns blocked + pending_buy + pending_sell + saleable,
// the quantity the total position is expected to reconcile against.
func (r *UnifiedHoldingRecord) ReconciliationSum() decimal.Decimal {
	return r.BlockedQuantity.
		Add(r.PendingBuyQuantity).
		Add(r.PendingSellQuantity).
		Add(r.SaleableQuantity)
}

// IsFormulaCompliant reports whether the record satisfies the position
// reconciliation formula within the given fractional tolerance. Records
// with a non-positive total position are treated as compliant; the
// formula is only meaningful for held positions.
func (r *UnifiedHoldingRecord) IsFormulaCompliant(tolerance decimal.Decimal) bool {
	if !r.TotalPosition.IsPositive() {
		return true
	}
	diff := r.TotalPosition.Sub(r.ReconciliationSum()).Abs()
	return diff.LessThanOrEqual(r.TotalPosition.Mul(tolerance))
}

// String returns a compact representation for logging.
func (r *UnifiedHoldingRecord) String() string {
	return fmt.Sprintf("Holding{Client: %s, ISIN: %s, Total: %s, Source: %s, Date: %s}",
		r.ClientReference, r.InstrumentISIN, r.TotalPosition.String(),
		r.SourceSystem, r.RecordDate.Format("2006-01-02"))
}

// MarshalJSON renders quantities as plain strings and the record date as
// a date-only value.
func (r *UnifiedHoldingRecord) MarshalJSON() ([]byte, error) {
	type Alias UnifiedHoldingRecord
	return json.Marshal(&struct {
		BlockedQuantity     string `json:"blocked_quantity"`
		PendingBuyQuantity  string `json:"pending_buy_quantity"`
		PendingSellQuantity string `json:"pending_sell_quantity"`
		TotalPosition       string `json:"total_position"`
		SaleableQuantity    string `json:"saleable_quantity"`
		RecordDate          string `json:"record_date"`
		*Alias
	}{
		BlockedQuantity:     r.BlockedQuantity.String(),
		PendingBuyQuantity:  r.PendingBuyQuantity.String(),
		PendingSellQuantity: r.PendingSellQuantity.String(),
		TotalPosition:       r.TotalPosition.String(),
		SaleableQuantity:    r.SaleableQuantity.String(),
		RecordDate:          r.RecordDate.Format("2006-01-02"),
		Alias:               (*Alias)(r),
	})
}

// ValidationError records a row that failed the identity check. It keeps
// the original row index and raw payload for diagnosis; it is surfaced in
// the run summary and never persisted.
type ValidationError struct {
	RowIndex int    `json:"row_index"`
	Raw      RawRow `json:"raw"`
	Reason   string `json:"reason"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("row %d: %s", e.RowIndex, e.Reason)
}

// FileResult holds the outcome of a single file's pipeline.
type FileResult struct {
	FileName     string        `json:"file_name"`
	SourceSystem string        `json:"source_system"`
	RecordDate   time.Time     `json:"record_date"`
	TotalRows    int           `json:"total_rows"`
	ValidRows    int           `json:"valid_rows"`
	ErrorRows    int           `json:"error_rows"`
	Inserted     int           `json:"inserted"`
	Duration     time.Duration `json:"duration"`
	Warnings     []string      `json:"warnings,omitempty"`

	// ValidationErrors lists the rows excluded by the identity check,
	// with their original indexes and raw payloads.
	ValidationErrors []*ValidationError `json:"validation_errors,omitempty"`

	// Err is set when the file's pipeline failed outright (format error,
	// rolled-back transaction). A failed file contributes no records.
	Err error `json:"-"`
}

// Failed reports whether the file's pipeline failed.
func (fr *FileResult) Failed() bool {
	return fr.Err != nil
}

// ProcessingSummary aggregates the outcome of a full run: one FileResult
// per selected file plus run-level counters. Built incrementally by the
// orchestrator, finalized by the quality reporter.
type ProcessingSummary struct {
	Files         []*FileResult             `json:"files"`
	TotalFiles    int                       `json:"total_files"`
	FailedFiles   int                       `json:"failed_files"`
	TotalRows     int                       `json:"total_rows"`
	ValidRows     int                       `json:"valid_rows"`
	ErrorRows     int                       `json:"error_rows"`
	TotalInserted int                       `json:"total_inserted"`
	Duration      time.Duration             `json:"duration"`
	Quality       map[string]QualityMetrics `json:"quality,omitempty"`
}

// NewProcessingSummary creates an empty summary.
func NewProcessingSummary() *ProcessingSummary {
	return &ProcessingSummary{
		Files: make([]*FileResult, 0),
	}
}

// Merge folds a file result into the aggregate counters. Callers must
// serialize Merge calls; the orchestrator merges results sequentially
// after each pipeline completes.
func (ps *ProcessingSummary) Merge(fr *FileResult) {
	ps.Files = append(ps.Files, fr)
	ps.TotalFiles++
	if fr.Failed() {
		ps.FailedFiles++
		return
	}
	ps.TotalRows += fr.TotalRows
	ps.ValidRows += fr.ValidRows
	ps.ErrorRows += fr.ErrorRows
	ps.TotalInserted += fr.Inserted
}

// QualityMetrics holds the per-source post-load statistics computed by
// the quality reporter.
type QualityMetrics struct {
	TotalRecords          int             `json:"total_records"`
	PositiveRecords       int             `json:"positive_records"`
	MeanTotalPosition     decimal.Decimal `json:"mean_total_position"`
	MeanSaleableQuantity  decimal.Decimal `json:"mean_saleable_quantity"`
	FormulaComplianceRate float64         `json:"formula_compliance_rate"`
}

// ParseQuantity parses a raw cell into a decimal quantity. Thousands
// separators, currency symbols and surrounding whitespace are stripped
// first. Non-numeric content parses to zero: custodian exports routinely
// put "-", "NA" or blanks in quantity cells and those are genuine zeros
// for our purposes.
func ParseQuantity(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}

	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, "₹", "")
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, " ", "")

	// Accounting-style negatives: (123.45)
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s = "-" + s[1:len(s)-1]
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
