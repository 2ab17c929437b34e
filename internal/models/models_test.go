package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestNewRawRow(t *testing.T) {
	headers := []string{"A", "B", "C"}
	cells := []string{"1", "2"}

	row := NewRawRow(headers, cells)

	if got := row.Get("A"); got != "1" {
		t.Errorf("Expected A=1, got %q", got)
	}
	if got := row.Get("C"); got != "" {
		t.Errorf("Expected missing trailing cell to be empty, got %q", got)
	}
	if got := row.Get("missing"); got != "" {
		t.Errorf("Expected unknown column to be empty, got %q", got)
	}
	if len(row.Columns) != 3 {
		t.Errorf("Expected 3 columns, got %d", len(row.Columns))
	}
}

func TestRawRow_IsEmpty(t *testing.T) {
	tests := []struct {
		name  string
		cells []string
		want  bool
	}{
		{"all blank", []string{"", "  ", "\t"}, true},
		{"one value", []string{"", "x", ""}, false},
		{"no cells", []string{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := NewRawRow([]string{"A", "B", "C"}, tt.cells)
			if got := row.IsEmpty(); got != tt.want {
				t.Errorf("IsEmpty() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUnifiedHoldingRecord_Validate(t *testing.T) {
	valid := func() *UnifiedHoldingRecord {
		return &UnifiedHoldingRecord{
			ClientReference: "CL001",
			ClientName:      "Acme",
			InstrumentISIN:  "INE000A01011",
		}
	}

	tests := []struct {
		name    string
		modify  func(*UnifiedHoldingRecord)
		wantErr bool
	}{
		{"valid record", func(r *UnifiedHoldingRecord) {}, false},
		{"empty client reference", func(r *UnifiedHoldingRecord) { r.ClientReference = "" }, true},
		{"whitespace client reference", func(r *UnifiedHoldingRecord) { r.ClientReference = "   " }, true},
		{"empty client name", func(r *UnifiedHoldingRecord) { r.ClientName = "" }, true},
		{"empty isin", func(r *UnifiedHoldingRecord) { r.InstrumentISIN = "\t" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := valid()
			tt.modify(record)
			err := record.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestUnifiedHoldingRecord_IsFormulaCompliant(t *testing.T) {
	tolerance := decimal.NewFromFloat(0.01)

	tests := []struct {
		name     string
		blocked  string
		buy      string
		sell     string
		saleable string
		total    string
		want     bool
	}{
		{"exact match", "15", "0", "0", "85", "100", true},
		{"within one percent", "15", "0", "0", "84.5", "100", true},
		{"exactly one percent off", "15", "0", "0", "84", "100", true},
		{"beyond one percent", "15", "0", "0", "80", "100", false},
		{"zero total always compliant", "10", "0", "0", "0", "0", true},
		{"negative total always compliant", "0", "0", "0", "0", "-5", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := &UnifiedHoldingRecord{
				BlockedQuantity:     decimal.RequireFromString(tt.blocked),
				PendingBuyQuantity:  decimal.RequireFromString(tt.buy),
				PendingSellQuantity: decimal.RequireFromString(tt.sell),
				SaleableQuantity:    decimal.RequireFromString(tt.saleable),
				TotalPosition:       decimal.RequireFromString(tt.total),
			}
			if got := record.IsFormulaCompliant(tolerance); got != tt.want {
				t.Errorf("IsFormulaCompliant() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain integer", "100", "100"},
		{"decimal", "12.34", "12.34"},
		{"thousands separators", "1,234,567.89", "1234567.89"},
		{"surrounding whitespace", "  42  ", "42"},
		{"internal spaces", "1 234", "1234"},
		{"currency symbol", "₹1,000", "1000"},
		{"accounting negative", "(123.45)", "-123.45"},
		{"empty", "", "0"},
		{"dash placeholder", "-", "0"},
		{"not a number", "NA", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseQuantity(tt.input)
			want := decimal.RequireFromString(tt.want)
			if !got.Equal(want) {
				t.Errorf("ParseQuantity(%q) = %s, want %s", tt.input, got, want)
			}
		})
	}
}

func TestProcessingSummary_Merge(t *testing.T) {
	summary := NewProcessingSummary()

	summary.Merge(&FileResult{
		FileName:  "a.csv",
		TotalRows: 10,
		ValidRows: 8,
		ErrorRows: 2,
		Inserted:  8,
	})
	summary.Merge(&FileResult{
		FileName: "b.csv",
		Err:      &ValidationError{RowIndex: 0, Reason: "boom"},
	})

	if summary.TotalFiles != 2 {
		t.Errorf("Expected 2 total files, got %d", summary.TotalFiles)
	}
	if summary.FailedFiles != 1 {
		t.Errorf("Expected 1 failed file, got %d", summary.FailedFiles)
	}
	if summary.TotalRows != 10 {
		t.Errorf("Expected failed file to contribute no rows, got %d", summary.TotalRows)
	}
	if summary.TotalInserted != 8 {
		t.Errorf("Expected 8 inserted, got %d", summary.TotalInserted)
	}
}

func TestUnifiedHoldingRecord_String(t *testing.T) {
	record := &UnifiedHoldingRecord{
		ClientReference: "CL001",
		InstrumentISIN:  "INE000A01011",
		TotalPosition:   decimal.NewFromInt(100),
		SourceSystem:    "axis",
		RecordDate:      time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
	}

	want := "Holding{Client: CL001, ISIN: INE000A01011, Total: 100, Source: axis, Date: 2026-08-31}"
	if got := record.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
