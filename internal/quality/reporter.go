// Package quality computes the post-load data-quality report.
//
// The headline number per source is the formula compliance rate: the
// fraction of positive-position records whose total position reconciles
// against the sum of its component quantities within tolerance. A drop
// in this rate is the primary signal that a custodian changed its export
// format and the field mapping has silently gone stale.
package quality

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/MalyanDon/data-pipeline-sub002/internal/loader"
	"github.com/MalyanDon/data-pipeline-sub002/internal/models"
	pkgerrors "github.com/MalyanDon/data-pipeline-sub002/pkg/errors"
	"github.com/MalyanDon/data-pipeline-sub002/pkg/logger"
)

// DefaultTolerance is the fractional tolerance for the reconciliation
// formula: 1% of total position.
var DefaultTolerance = decimal.NewFromFloat(0.01)

// Reporter aggregates per-source quality metrics for one record date.
type Reporter struct {
	db        *sqlx.DB
	tolerance decimal.Decimal
	logger    logger.Logger
}

// NewReporter creates a Reporter. A zero tolerance means
// DefaultTolerance.
func NewReporter(db *sqlx.DB, tolerance decimal.Decimal) *Reporter {
	if tolerance.IsZero() {
		tolerance = DefaultTolerance
	}
	return &Reporter{
		db:        db,
		tolerance: tolerance,
		logger:    logger.GetGlobalLogger().WithComponent("quality_reporter"),
	}
}

// Report computes per-source metrics for every record loaded under the
// given record date.
func (r *Reporter) Report(ctx context.Context, recordDate time.Time) (map[string]models.QualityMetrics, error) {
	query := fmt.Sprintf(`SELECT source_system, blocked_quantity, pending_buy_quantity,
		pending_sell_quantity, total_position, saleable_quantity
		FROM %s WHERE record_date = $1`, loader.TableName)

	var records []*models.UnifiedHoldingRecord
	if err := r.db.SelectContext(ctx, &records, query, recordDate); err != nil {
		return nil, pkgerrors.LoadError(pkgerrors.CodeConnectionFailed, "quality report query", err).
			WithContext("record_date", recordDate.Format("2006-01-02"))
	}

	metrics := ComputeMetrics(records, r.tolerance)

	for source, m := range metrics {
		r.logger.WithFields(logger.Fields{
			"source":                  source,
			"total_records":           m.TotalRecords,
			"positive_records":        m.PositiveRecords,
			"formula_compliance_rate": fmt.Sprintf("%.4f", m.FormulaComplianceRate),
		}).Info("Source quality metrics")
	}

	return metrics, nil
}

// ComputeMetrics derives per-source quality metrics from loaded records.
// Non-compliant records stay counted; a record that fails the formula
// only lowers its source's compliance rate.
func ComputeMetrics(records []*models.UnifiedHoldingRecord, tolerance decimal.Decimal) map[string]models.QualityMetrics {
	type accumulator struct {
		total       int
		positive    int
		compliant   int
		sumTotal    decimal.Decimal
		sumSaleable decimal.Decimal
	}

	accs := make(map[string]*accumulator)
	for _, rec := range records {
		acc, ok := accs[rec.SourceSystem]
		if !ok {
			acc = &accumulator{}
			accs[rec.SourceSystem] = acc
		}
		acc.total++
		acc.sumTotal = acc.sumTotal.Add(rec.TotalPosition)
		acc.sumSaleable = acc.sumSaleable.Add(rec.SaleableQuantity)
		if rec.TotalPosition.IsPositive() {
			acc.positive++
			if rec.IsFormulaCompliant(tolerance) {
				acc.compliant++
			}
		}
	}

	metrics := make(map[string]models.QualityMetrics, len(accs))
	for source, acc := range accs {
		m := models.QualityMetrics{
			TotalRecords:    acc.total,
			PositiveRecords: acc.positive,
		}
		if acc.total > 0 {
			n := decimal.NewFromInt(int64(acc.total))
			m.MeanTotalPosition = acc.sumTotal.DivRound(n, 4)
			m.MeanSaleableQuantity = acc.sumSaleable.DivRound(n, 4)
		}
		if acc.positive > 0 {
			m.FormulaComplianceRate = float64(acc.compliant) / float64(acc.positive)
		} else {
			// No positive positions means nothing to reconcile; report
			// full compliance rather than a spurious zero.
			m.FormulaComplianceRate = 1.0
		}
		metrics[source] = m
	}

	return metrics
}
