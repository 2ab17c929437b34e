// Package pipeline orchestrates the full normalization run: file
// selection, then bounded-concurrency per-file pipelines, then the
// post-load quality report.
//
// Each selected file runs read, map, validate, load as
// one sequential pipeline. Up to Workers pipelines run at a time; a
// failing file is recorded against that file only and never cancels its
// siblings. Results are merged into the aggregate summary sequentially
// after the pipelines finish, so no counters are mutated concurrently.
package pipeline

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MalyanDon/data-pipeline-sub002/internal/locator"
	"github.com/MalyanDon/data-pipeline-sub002/internal/mapper"
	"github.com/MalyanDon/data-pipeline-sub002/internal/models"
	"github.com/MalyanDon/data-pipeline-sub002/internal/readers"
	"github.com/MalyanDon/data-pipeline-sub002/internal/sources"
	"github.com/MalyanDon/data-pipeline-sub002/pkg/logger"
)

// DefaultWorkers is the default number of concurrent file pipelines.
const DefaultWorkers = 4

// PartitionLoader is the sink contract the orchestrator depends on.
type PartitionLoader interface {
	EnsureSchema(ctx context.Context) error
	Load(ctx context.Context, records []*models.UnifiedHoldingRecord, source string, recordDate time.Time) (int, error)
}

// QualityReporter produces the per-source metrics appended to the run
// summary after all loads complete.
type QualityReporter interface {
	Report(ctx context.Context, recordDate time.Time) (map[string]models.QualityMetrics, error)
}

// ReaderFactory resolves the format-specific reader for a file.
type ReaderFactory func(path string) (readers.Reader, error)

// Config holds orchestrator settings.
type Config struct {
	// Workers is K: the maximum number of file pipelines in flight.
	// The database pool must be sized >= Workers separately.
	Workers int

	// BatchSize is passed through to the mapper.
	BatchSize int
}

// DefaultConfig returns the default orchestrator settings.
func DefaultConfig() *Config {
	return &Config{
		Workers:   DefaultWorkers,
		BatchSize: mapper.DefaultBatchSize,
	}
}

// Orchestrator runs one full normalization pass over a directory.
type Orchestrator struct {
	locator   *locator.Locator
	mapper    *mapper.Mapper
	loader    PartitionLoader
	reporter  QualityReporter
	readerFor ReaderFactory
	workers   int
	logger    logger.Logger
}

// NewOrchestrator wires the pipeline components together. The reporter
// may be nil, in which case the summary carries no quality section.
func NewOrchestrator(
	registry *sources.Registry,
	partitionLoader PartitionLoader,
	reporter QualityReporter,
	cfg *Config,
) *Orchestrator {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Orchestrator{
		locator:   locator.NewLocator(registry),
		mapper:    mapper.NewMapper(cfg.BatchSize),
		loader:    partitionLoader,
		reporter:  reporter,
		readerFor: readers.ForFile,
		workers:   workers,
		logger:    logger.GetGlobalLogger().WithComponent("orchestrator"),
	}
}

// Run executes one full pass: schema init, latest-file selection, the
// per-file pipelines, then the quality report. The run always returns a
// summary; per-file failures are recorded inside it, and only setup
// failures (unreadable directory, schema init) surface as errors.
func (o *Orchestrator) Run(ctx context.Context, dir string) (*models.ProcessingSummary, error) {
	start := time.Now()
	summary := models.NewProcessingSummary()

	if err := o.loader.EnsureSchema(ctx); err != nil {
		return nil, err
	}

	candidates, err := o.locator.SelectLatestFiles(dir)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		o.logger.WithField("directory", dir).Info("No matching files found, nothing to load")
		summary.Duration = time.Since(start)
		return summary, nil
	}

	o.logger.WithFields(logger.Fields{
		"files":   len(candidates),
		"workers": o.workers,
	}).Info("Starting file pipelines")

	// Each goroutine writes only its own slot; merging happens after
	// Wait, sequentially.
	results := make([]*models.FileResult, len(candidates))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(o.workers)
	for i, candidate := range candidates {
		i, candidate := i, candidate
		group.Go(func() error {
			results[i] = o.processFile(groupCtx, candidate)
			return nil
		})
	}
	// Pipelines never return errors into the group; failures are
	// captured per file.
	_ = group.Wait()

	for _, result := range results {
		summary.Merge(result)
	}

	o.appendQualityMetrics(ctx, summary, candidates)

	summary.Duration = time.Since(start)
	o.logger.WithFields(logger.Fields{
		"files":    summary.TotalFiles,
		"failed":   summary.FailedFiles,
		"inserted": summary.TotalInserted,
		"duration": summary.Duration.String(),
	}).Info("Run complete")

	return summary, nil
}

// processFile runs one file's pipeline end to end. Every failure mode is
// captured into the FileResult; this function never panics the run.
func (o *Orchestrator) processFile(ctx context.Context, candidate locator.Candidate) *models.FileResult {
	start := time.Now()
	result := &models.FileResult{
		FileName:     candidate.FileName,
		SourceSystem: candidate.Source.Name,
		RecordDate:   candidate.RecordDate,
	}
	log := o.logger.WithFields(logger.Fields{
		"file":   candidate.FileName,
		"source": candidate.Source.Name,
	})

	reader, err := o.readerFor(candidate.Path)
	if err != nil {
		log.WithError(err).Error("No reader for file")
		result.Err = err
		result.Duration = time.Since(start)
		return result
	}

	rows, warnings, err := reader.ReadRaw(candidate.Path, candidate.Source)
	if err != nil {
		log.WithError(err).Error("Failed to read file")
		result.Err = err
		result.Duration = time.Since(start)
		return result
	}
	result.Warnings = warnings
	result.TotalRows = len(rows)

	records, invalid := o.mapper.MapRows(rows, candidate.Source, candidate.FileName, candidate.RecordDate)
	result.ValidRows = len(records)
	result.ErrorRows = len(invalid)
	result.ValidationErrors = invalid

	inserted, err := o.loader.Load(ctx, records, candidate.Source.Name, candidate.RecordDate)
	if err != nil {
		log.WithError(err).Error("Failed to load partition, rolled back")
		result.Err = err
		result.Duration = time.Since(start)
		return result
	}
	result.Inserted = inserted
	result.Duration = time.Since(start)

	log.WithFields(logger.Fields{
		"rows":     result.TotalRows,
		"valid":    result.ValidRows,
		"errors":   result.ErrorRows,
		"inserted": result.Inserted,
		"duration": result.Duration.String(),
	}).Info("File pipeline complete")

	return result
}

// appendQualityMetrics runs the quality reporter once per distinct
// record date among the loaded files and folds the per-source metrics
// into the summary. Reporting failures are logged, not fatal: the run
// summary is still produced.
func (o *Orchestrator) appendQualityMetrics(
	ctx context.Context,
	summary *models.ProcessingSummary,
	candidates []locator.Candidate,
) {
	if o.reporter == nil {
		return
	}

	dates := make(map[time.Time]bool)
	for _, c := range candidates {
		dates[c.RecordDate] = true
	}

	summary.Quality = make(map[string]models.QualityMetrics)
	for date := range dates {
		metrics, err := o.reporter.Report(ctx, date)
		if err != nil {
			o.logger.WithError(err).WithField("record_date", date.Format("2006-01-02")).
				Warn("Quality report failed")
			continue
		}
		for source, m := range metrics {
			summary.Quality[source] = m
		}
	}
}
