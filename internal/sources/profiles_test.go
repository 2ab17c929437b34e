package sources

import (
	"testing"
	"time"
)

// Each production profile is the contract with one custodian's export
// format; the table below pins detection, date extraction and the
// mapping shape per entry so upstream drift fails a named test case.
func TestDefaultRegistry_Profiles(t *testing.T) {
	registry := DefaultRegistry()

	tests := []struct {
		source       string
		filename     string
		wantDate     string
		sheetName    string
		headerRow    int
		sumFields    []TargetField
		omitFields   []TargetField
		literalName  bool
	}{
		{
			source:     "axis",
			filename:   "AXIS_HOLDINGS_31-08-2026.xlsx",
			wantDate:   "2026-08-31",
			sheetName:  "Holdings",
			headerRow:  0,
			sumFields:  []TargetField{FieldBlockedQuantity, FieldPendingBuyQuantity, FieldPendingSellQuantity},
			omitFields: []TargetField{FieldInstrumentCode},
		},
		{
			source:    "hdfc",
			filename:  "HDFC_Holding_Report_31082026.xlsx",
			wantDate:  "2026-08-31",
			sheetName: "Holding Report",
			headerRow: 2,
		},
		{
			source:     "icici",
			filename:   "ICICI_EOD_2026-08-31.csv",
			wantDate:   "2026-08-31",
			headerRow:  0,
			omitFields: []TargetField{FieldInstrumentCode},
		},
		{
			source:    "kotak",
			filename:  "Kotak_Holdings_31.08.2026.xlsx",
			wantDate:  "2026-08-31",
			sheetName: "Client Holdings",
			headerRow: 1,
			sumFields: []TargetField{FieldBlockedQuantity},
		},
		{
			source:    "nuvama",
			filename:  "NUVAMA_POS_08-31-2026.xlsx",
			wantDate:  "2026-08-31",
			sheetName: "Sheet1",
			headerRow: 0,
		},
		{
			source:      "orbis",
			filename:    "ORBIS_DUMP_31_08_2026.xlsx",
			wantDate:    "2026-08-31",
			sheetName:   "Holdings Dump",
			headerRow:   0,
			omitFields:  []TargetField{FieldInstrumentCode},
			literalName: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			cfg, found := registry.Detect(tt.filename)
			if !found {
				t.Fatalf("Detect(%q) found no source", tt.filename)
			}
			if cfg.Name != tt.source {
				t.Fatalf("Detect(%q) = %s, want %s", tt.filename, cfg.Name, tt.source)
			}

			if err := cfg.Validate(); err != nil {
				t.Errorf("Profile failed validation: %v", err)
			}

			date, err := cfg.ExtractDate(tt.filename)
			if err != nil {
				t.Fatalf("ExtractDate(%q) failed: %v", tt.filename, err)
			}
			want, _ := time.Parse("2006-01-02", tt.wantDate)
			if !date.Equal(want) {
				t.Errorf("ExtractDate(%q) = %s, want %s",
					tt.filename, date.Format("2006-01-02"), tt.wantDate)
			}

			if cfg.SheetName != tt.sheetName {
				t.Errorf("SheetName = %q, want %q", cfg.SheetName, tt.sheetName)
			}
			if cfg.HeaderRow != tt.headerRow {
				t.Errorf("HeaderRow = %d, want %d", cfg.HeaderRow, tt.headerRow)
			}

			for _, field := range tt.sumFields {
				if cfg.FieldMappings[field].Kind != MappingSum {
					t.Errorf("Expected %s to be a sum mapping", field)
				}
			}
			for _, field := range tt.omitFields {
				if cfg.FieldMappings[field].Kind != MappingOmit {
					t.Errorf("Expected %s to be omitted", field)
				}
			}
			if tt.literalName && cfg.FieldMappings[FieldClientName].Kind != MappingLiteral {
				t.Error("Expected client name to be a literal mapping")
			}
		})
	}
}

func TestDefaultRegistry_AxisMapping(t *testing.T) {
	registry := DefaultRegistry()
	cfg, err := registry.Get("axis")
	if err != nil {
		t.Fatalf("Get(axis) failed: %v", err)
	}

	blocked := cfg.FieldMappings[FieldBlockedQuantity]
	if len(blocked.Columns) != 2 || blocked.Columns[0] != "DematLockedQty" || blocked.Columns[1] != "PhysicalLocked" {
		t.Errorf("Unexpected blocked quantity columns: %v", blocked.Columns)
	}

	if cfg.FieldMappings[FieldClientReference].Column != "UCC" {
		t.Errorf("Expected client reference from UCC, got %q", cfg.FieldMappings[FieldClientReference].Column)
	}
	if cfg.FieldMappings[FieldTotalPosition].Column != "NetBalance" {
		t.Errorf("Expected total position from NetBalance, got %q", cfg.FieldMappings[FieldTotalPosition].Column)
	}
}

func TestDefaultRegistry_NuvamaMatchesLegacyBranding(t *testing.T) {
	registry := DefaultRegistry()

	cfg, found := registry.Detect("EDELWEISS_POS_08-31-2026.xlsx")
	if !found {
		t.Fatal("Expected legacy Edelweiss filename to be detected")
	}
	if cfg.Name != "nuvama" {
		t.Errorf("Detect = %s, want nuvama", cfg.Name)
	}
}

func TestDefaultRegistry_SourceOrder(t *testing.T) {
	registry := DefaultRegistry()
	want := []string{"axis", "hdfc", "icici", "kotak", "nuvama", "orbis"}

	got := registry.Sources()
	if len(got) != len(want) {
		t.Fatalf("Expected %d sources, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Source[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}
