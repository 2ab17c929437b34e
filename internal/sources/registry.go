// Package sources holds the static per-custodian configuration registry.
//
// Each custodian exports holdings in its own layout: different filename
// conventions, sheet names, header offsets, date encodings and column
// names. A SourceConfig captures everything the pipeline needs to know
// about one custodian; the Registry resolves a filename to its config.
//
// The registry is immutable after construction. DefaultRegistry returns
// the production set of custodian profiles; each entry is independently
// unit tested so an upstream format change shows up as a failing table
// entry rather than a silent mis-mapping.
package sources

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/MalyanDon/data-pipeline-sub002/pkg/errors"
)

// TargetField names a field of the unified holdings schema that a
// custodian column maps onto.
type TargetField string

const (
	FieldClientReference     TargetField = "client_reference"
	FieldClientName          TargetField = "client_name"
	FieldInstrumentISIN      TargetField = "instrument_isin"
	FieldInstrumentName      TargetField = "instrument_name"
	FieldInstrumentCode      TargetField = "instrument_code"
	FieldBlockedQuantity     TargetField = "blocked_quantity"
	FieldPendingBuyQuantity  TargetField = "pending_buy_quantity"
	FieldPendingSellQuantity TargetField = "pending_sell_quantity"
	FieldTotalPosition       TargetField = "total_position"
	FieldSaleableQuantity    TargetField = "saleable_quantity"
)

// TargetFields lists every field of the unified schema in declaration
// order. Every SourceConfig must map all of them (Omit counts).
var TargetFields = []TargetField{
	FieldClientReference,
	FieldClientName,
	FieldInstrumentISIN,
	FieldInstrumentName,
	FieldInstrumentCode,
	FieldBlockedQuantity,
	FieldPendingBuyQuantity,
	FieldPendingSellQuantity,
	FieldTotalPosition,
	FieldSaleableQuantity,
}

// MappingKind discriminates the FieldMapping variants.
type MappingKind int

const (
	// MappingOmit leaves the target field at its zero value.
	MappingOmit MappingKind = iota
	// MappingLiteral uses a constant value verbatim.
	MappingLiteral
	// MappingColumn reads a single source column.
	MappingColumn
	// MappingSum sums the numeric values of several source columns.
	MappingSum
)

// FieldMapping describes how one target field is derived from a source
// row. Exactly one variant applies, selected by Kind.
type FieldMapping struct {
	Kind    MappingKind
	Literal string
	Column  string
	Columns []string
}

// Omit declares a target field intentionally unmapped for a source.
func Omit() FieldMapping {
	return FieldMapping{Kind: MappingOmit}
}

// Literal declares a constant value, used where a custodian genuinely
// does not export an identity field.
func Literal(value string) FieldMapping {
	return FieldMapping{Kind: MappingLiteral, Literal: value}
}

// Column declares a direct single-column lookup.
func Column(name string) FieldMapping {
	return FieldMapping{Kind: MappingColumn, Column: name}
}

// Sum declares that the target quantity is the sum of several source
// columns, for custodians that split one logical quantity across raw
// columns. Missing columns contribute zero.
func Sum(names ...string) FieldMapping {
	return FieldMapping{Kind: MappingSum, Columns: names}
}

// DateOrder fixes the ordering of the three date components captured
// from a filename. It is declared per source; the pipeline never guesses
// component order from magnitude.
type DateOrder string

const (
	DateOrderDMY DateOrder = "DMY"
	DateOrderMDY DateOrder = "MDY"
	DateOrderYMD DateOrder = "YMD"
)

// SourceConfig is the immutable per-custodian profile. Loaded once at
// startup and injected into the locator, reader and mapper.
type SourceConfig struct {
	// Name identifies the custodian; stored as source_system on every
	// record loaded from its files.
	Name string

	// FilePattern matches candidate filenames, case-insensitively.
	FilePattern *regexp.Regexp

	// Extensions lists accepted file extensions including the dot.
	Extensions []string

	// SheetName selects the workbook sheet to read. Empty means first
	// sheet; a named sheet missing from the file also falls back to the
	// first sheet with a warning.
	SheetName string

	// HeaderRow is the 0-based row index holding column names.
	HeaderRow int

	// DatePattern extracts the record date from the filename. It must
	// contain exactly three capture groups, interpreted per DateOrder.
	DatePattern *regexp.Regexp

	// DateOrder gives the day/month/year ordering of the capture groups.
	DateOrder DateOrder

	// FieldMappings maps every unified-schema field to its derivation.
	FieldMappings map[TargetField]FieldMapping
}

// Validate checks that the config is internally consistent.
func (c *SourceConfig) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("source name cannot be empty")
	}
	if c.FilePattern == nil {
		return fmt.Errorf("source %s: file pattern is required", c.Name)
	}
	if len(c.Extensions) == 0 {
		return fmt.Errorf("source %s: at least one extension is required", c.Name)
	}
	if c.HeaderRow < 0 {
		return fmt.Errorf("source %s: header row cannot be negative", c.Name)
	}
	if c.DatePattern == nil {
		return fmt.Errorf("source %s: date pattern is required", c.Name)
	}
	if c.DatePattern.NumSubexp() != 3 {
		return fmt.Errorf("source %s: date pattern must have exactly 3 capture groups, has %d",
			c.Name, c.DatePattern.NumSubexp())
	}
	switch c.DateOrder {
	case DateOrderDMY, DateOrderMDY, DateOrderYMD:
	default:
		return fmt.Errorf("source %s: invalid date order %q", c.Name, c.DateOrder)
	}
	for _, field := range TargetFields {
		if _, ok := c.FieldMappings[field]; !ok {
			return fmt.Errorf("source %s: no mapping declared for field %s", c.Name, field)
		}
	}
	return nil
}

// AcceptsExtension reports whether the filename carries one of the
// extensions configured for this source.
func (c *SourceConfig) AcceptsExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, accepted := range c.Extensions {
		if ext == strings.ToLower(accepted) {
			return true
		}
	}
	return false
}

// ExtractDate extracts the record date from a filename using the
// source's date pattern and fixed component ordering. Out-of-range
// components are an error, never reinterpreted: a filename whose date
// cannot be read unambiguously is unusable.
func (c *SourceConfig) ExtractDate(filename string) (time.Time, error) {
	match := c.DatePattern.FindStringSubmatch(filename)
	if match == nil {
		return time.Time{}, pkgerrors.ValidationError(
			pkgerrors.CodeInvalidDate,
			"record_date",
			filename,
			nil,
		).WithContext("source", c.Name)
	}

	parts := make([]int, 3)
	for i := 0; i < 3; i++ {
		n, err := strconv.Atoi(match[i+1])
		if err != nil {
			return time.Time{}, pkgerrors.ValidationError(
				pkgerrors.CodeInvalidDate, "record_date", match[i+1], err,
			).WithContext("source", c.Name)
		}
		parts[i] = n
	}

	var day, month, year int
	switch c.DateOrder {
	case DateOrderDMY:
		day, month, year = parts[0], parts[1], parts[2]
	case DateOrderMDY:
		month, day, year = parts[0], parts[1], parts[2]
	case DateOrderYMD:
		year, month, day = parts[0], parts[1], parts[2]
	}

	if year < 100 {
		year += 2000
	}
	if month < 1 || month > 12 || day < 1 || day > 31 || year < 1990 || year > 2100 {
		return time.Time{}, pkgerrors.ValidationError(
			pkgerrors.CodeInvalidDate,
			"record_date",
			fmt.Sprintf("%02d/%02d/%04d (%s)", parts[0], parts[1], parts[2], c.DateOrder),
			nil,
		).WithSuggestion("check the filename date and the date order configured for this source").
			WithContext("source", c.Name)
	}

	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if date.Day() != day || date.Month() != time.Month(month) {
		// time.Date normalizes impossible dates like Feb 30; reject them.
		return time.Time{}, pkgerrors.ValidationError(
			pkgerrors.CodeInvalidDate,
			"record_date",
			fmt.Sprintf("%04d-%02d-%02d", year, month, day),
			nil,
		).WithContext("source", c.Name)
	}

	return date, nil
}

// Registry is the fixed-priority table of custodian configurations.
type Registry struct {
	order   []string
	configs map[string]*SourceConfig
}

// NewRegistry builds a registry from configs in priority order. Every
// config is validated; duplicate names are rejected.
func NewRegistry(configs ...*SourceConfig) (*Registry, error) {
	r := &Registry{
		configs: make(map[string]*SourceConfig, len(configs)),
	}
	for _, cfg := range configs {
		if err := cfg.Validate(); err != nil {
			return nil, pkgerrors.ConfigurationError(
				pkgerrors.CodeInvalidConfig, "source_registry", cfg.Name, err)
		}
		if _, exists := r.configs[cfg.Name]; exists {
			return nil, pkgerrors.ConfigurationError(
				pkgerrors.CodeInvalidConfig, "source_registry", cfg.Name,
				fmt.Errorf("duplicate source name %q", cfg.Name))
		}
		r.order = append(r.order, cfg.Name)
		r.configs[cfg.Name] = cfg
	}
	return r, nil
}

// Detect tests the filename against each configured pattern in priority
// order and returns the first match. The filename's extension must also
// be accepted by the source.
func (r *Registry) Detect(filename string) (*SourceConfig, bool) {
	base := filepath.Base(filename)
	for _, name := range r.order {
		cfg := r.configs[name]
		if cfg.FilePattern.MatchString(base) && cfg.AcceptsExtension(base) {
			return cfg, true
		}
	}
	return nil, false
}

// Get returns the config for a source by name.
func (r *Registry) Get(name string) (*SourceConfig, error) {
	cfg, ok := r.configs[name]
	if !ok {
		return nil, pkgerrors.ConfigurationError(
			pkgerrors.CodeUnknownSource, "source_registry", name, nil)
	}
	return cfg, nil
}

// Sources returns the configured source names in priority order.
func (r *Registry) Sources() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
