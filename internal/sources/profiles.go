package sources

import "regexp"

// DefaultRegistry returns the production custodian profiles in detection
// priority order. These tables are the contract with each custodian's
// export format: when a custodian renames a column the mapping here is
// what has to change, and the per-source tests plus the quality report's
// formula compliance rate are what catch the drift.
func DefaultRegistry() *Registry {
	registry, err := NewRegistry(
		axisConfig(),
		hdfcConfig(),
		iciciConfig(),
		kotakConfig(),
		nuvamaConfig(),
		orbisConfig(),
	)
	if err != nil {
		// The built-in profiles are fixed at build time; failing to
		// construct them is a programming error.
		panic(err)
	}
	return registry
}

// axisConfig: e.g. AXIS_HOLDINGS_31-08-2026.xlsx. Blocked and pending
// quantities are split across demat/physical and outstanding/in-process
// columns and must be summed.
func axisConfig() *SourceConfig {
	return &SourceConfig{
		Name:        "axis",
		FilePattern: regexp.MustCompile(`(?i)axis`),
		Extensions:  []string{".xlsx", ".csv"},
		SheetName:   "Holdings",
		HeaderRow:   0,
		DatePattern: regexp.MustCompile(`(\d{2})-(\d{2})-(\d{4})`),
		DateOrder:   DateOrderDMY,
		FieldMappings: map[TargetField]FieldMapping{
			FieldClientReference:     Column("UCC"),
			FieldClientName:          Column("ClientName"),
			FieldInstrumentISIN:      Column("ISIN"),
			FieldInstrumentName:      Column("SecurityName"),
			FieldInstrumentCode:      Omit(),
			FieldBlockedQuantity:     Sum("DematLockedQty", "PhysicalLocked"),
			FieldPendingBuyQuantity:  Sum("PurchaseOutstanding", "PurchaseUnderProcess"),
			FieldPendingSellQuantity: Sum("SaleOutstanding", "SaleUnderProcess"),
			FieldTotalPosition:       Column("NetBalance"),
			FieldSaleableQuantity:    Column("DematFree"),
		},
	}
}

// hdfcConfig: e.g. HDFC_Holding_Report_31082026.xlsx. The export carries
// two banner rows above the header.
func hdfcConfig() *SourceConfig {
	return &SourceConfig{
		Name:        "hdfc",
		FilePattern: regexp.MustCompile(`(?i)hdfc`),
		Extensions:  []string{".xlsx", ".xls"},
		SheetName:   "Holding Report",
		HeaderRow:   2,
		DatePattern: regexp.MustCompile(`(\d{2})(\d{2})(\d{4})`),
		DateOrder:   DateOrderDMY,
		FieldMappings: map[TargetField]FieldMapping{
			FieldClientReference:     Column("Client Code"),
			FieldClientName:          Column("Client Name"),
			FieldInstrumentISIN:      Column("ISIN Code"),
			FieldInstrumentName:      Column("Scrip Name"),
			FieldInstrumentCode:      Column("Scrip Code"),
			FieldBlockedQuantity:     Column("Pledge Qty"),
			FieldPendingBuyQuantity:  Column("Buy Pending Qty"),
			FieldPendingSellQuantity: Column("Sell Pending Qty"),
			FieldTotalPosition:       Column("Total Qty"),
			FieldSaleableQuantity:    Column("Free Qty"),
		},
	}
}

// iciciConfig: e.g. ICICI_EOD_2026-08-31.csv. CSV only, ISO dates. The
// export has no instrument code column.
func iciciConfig() *SourceConfig {
	return &SourceConfig{
		Name:        "icici",
		FilePattern: regexp.MustCompile(`(?i)icici`),
		Extensions:  []string{".csv"},
		HeaderRow:   0,
		DatePattern: regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})`),
		DateOrder:   DateOrderYMD,
		FieldMappings: map[TargetField]FieldMapping{
			FieldClientReference:     Column("MATCHACCT"),
			FieldClientName:          Column("ACCT_NAME"),
			FieldInstrumentISIN:      Column("ISIN"),
			FieldInstrumentName:      Column("SECURITY"),
			FieldInstrumentCode:      Omit(),
			FieldBlockedQuantity:     Column("LOCKED_QTY"),
			FieldPendingBuyQuantity:  Column("PUR_PEND_QTY"),
			FieldPendingSellQuantity: Column("SALE_PEND_QTY"),
			FieldTotalPosition:       Column("NET_QTY"),
			FieldSaleableQuantity:    Column("FREE_QTY"),
		},
	}
}

// kotakConfig: e.g. Kotak_Holdings_31.08.2026.xlsx with a title row
// above the header. Pledged and frozen quantities are reported apart.
func kotakConfig() *SourceConfig {
	return &SourceConfig{
		Name:        "kotak",
		FilePattern: regexp.MustCompile(`(?i)kotak`),
		Extensions:  []string{".xlsx"},
		SheetName:   "Client Holdings",
		HeaderRow:   1,
		DatePattern: regexp.MustCompile(`(\d{2})\.(\d{2})\.(\d{4})`),
		DateOrder:   DateOrderDMY,
		FieldMappings: map[TargetField]FieldMapping{
			FieldClientReference:     Column("Client Id"),
			FieldClientName:          Column("Name of Client"),
			FieldInstrumentISIN:      Column("ISIN"),
			FieldInstrumentName:      Column("Instrument Name"),
			FieldInstrumentCode:      Column("Instrument Id"),
			FieldBlockedQuantity:     Sum("Pledged Quantity", "Frozen Quantity"),
			FieldPendingBuyQuantity:  Column("Pending Buy Quantity"),
			FieldPendingSellQuantity: Column("Pending Sell Quantity"),
			FieldTotalPosition:       Column("Total Quantity"),
			FieldSaleableQuantity:    Column("Available Quantity"),
		},
	}
}

// nuvamaConfig: e.g. NUVAMA_POS_08-31-2026.xlsx. Formerly Edelweiss; the
// pattern matches both names since older uploads still carry the old
// branding. The filename date is month-first.
func nuvamaConfig() *SourceConfig {
	return &SourceConfig{
		Name:        "nuvama",
		FilePattern: regexp.MustCompile(`(?i)nuvama|edelweiss`),
		Extensions:  []string{".xlsx", ".csv"},
		SheetName:   "Sheet1",
		HeaderRow:   0,
		DatePattern: regexp.MustCompile(`(\d{2})-(\d{2})-(\d{4})`),
		DateOrder:   DateOrderMDY,
		FieldMappings: map[TargetField]FieldMapping{
			FieldClientReference:     Column("Client Code"),
			FieldClientName:          Column("Client Name"),
			FieldInstrumentISIN:      Column("ISIN No"),
			FieldInstrumentName:      Column("Security Name"),
			FieldInstrumentCode:      Column("Security Code"),
			FieldBlockedQuantity:     Column("Blocked Qty"),
			FieldPendingBuyQuantity:  Column("Pending Buy"),
			FieldPendingSellQuantity: Column("Pending Sell"),
			FieldTotalPosition:       Column("Holding Qty"),
			FieldSaleableQuantity:    Column("Saleable Qty"),
		},
	}
}

// orbisConfig: e.g. ORBIS_DUMP_31_08_2026.xlsx. The omnibus export has
// no per-client name column, so the client name is a fixed sentinel.
func orbisConfig() *SourceConfig {
	return &SourceConfig{
		Name:        "orbis",
		FilePattern: regexp.MustCompile(`(?i)orbis`),
		Extensions:  []string{".xlsx"},
		SheetName:   "Holdings Dump",
		HeaderRow:   0,
		DatePattern: regexp.MustCompile(`(\d{2})_(\d{2})_(\d{4})`),
		DateOrder:   DateOrderDMY,
		FieldMappings: map[TargetField]FieldMapping{
			FieldClientReference:     Column("Account No"),
			FieldClientName:          Literal("ORBIS OMNIBUS"),
			FieldInstrumentISIN:      Column("ISIN"),
			FieldInstrumentName:      Column("Instrument"),
			FieldInstrumentCode:      Omit(),
			FieldBlockedQuantity:     Column("Blocked"),
			FieldPendingBuyQuantity:  Column("Inflow Pending"),
			FieldPendingSellQuantity: Column("Outflow Pending"),
			FieldTotalPosition:       Column("Position"),
			FieldSaleableQuantity:    Column("Available"),
		},
	}
}
