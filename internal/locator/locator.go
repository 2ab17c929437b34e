// Package locator scans an upload directory and selects, per custodian,
// the single most recently dated file to process.
package locator

import (
	"os"
	"path/filepath"
	"time"

	"github.com/MalyanDon/data-pipeline-sub002/internal/sources"
	pkgerrors "github.com/MalyanDon/data-pipeline-sub002/pkg/errors"
	"github.com/MalyanDon/data-pipeline-sub002/pkg/logger"
)

// Candidate is a file selected for processing: its path, the custodian
// it was classified as, and the record date extracted from its name.
type Candidate struct {
	Path       string
	FileName   string
	Source     *sources.SourceConfig
	RecordDate time.Time
}

// Locator selects the latest file per source from a directory.
type Locator struct {
	registry *sources.Registry
	logger   logger.Logger
}

// NewLocator creates a Locator over the given source registry.
func NewLocator(registry *sources.Registry) *Locator {
	return &Locator{
		registry: registry,
		logger:   logger.GetGlobalLogger().WithComponent("file_locator"),
	}
}

// SelectLatestFiles scans the directory and returns one Candidate per
// distinct source found, keeping the file with the latest extractable
// record date. Files that match no source, or whose date cannot be
// extracted, are skipped and logged, not treated as errors. An empty
// result means there is nothing to load; the caller decides whether
// that ends the run.
//
// Ties on record date keep the first file seen in directory order.
func (l *Locator) SelectLatestFiles(dir string) ([]Candidate, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, pkgerrors.FileError(pkgerrors.CodeDirectoryError, dir, err)
	}

	best := make(map[string]Candidate)
	var order []string

	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		name := entry.Name()

		cfg, ok := l.registry.Detect(name)
		if !ok {
			l.logger.WithField("file", name).Debug("No source matches file, skipping")
			continue
		}

		recordDate, err := cfg.ExtractDate(name)
		if err != nil {
			l.logger.WithFields(logger.Fields{
				"file":   name,
				"source": cfg.Name,
			}).WithError(err).Warn("Unusable file: no record date extractable, skipping")
			continue
		}

		candidate := Candidate{
			Path:       filepath.Join(dir, name),
			FileName:   name,
			Source:     cfg,
			RecordDate: recordDate,
		}

		current, seen := best[cfg.Name]
		if !seen {
			best[cfg.Name] = candidate
			order = append(order, cfg.Name)
			continue
		}
		if candidate.RecordDate.After(current.RecordDate) {
			l.logger.WithFields(logger.Fields{
				"source":   cfg.Name,
				"replaced": current.FileName,
				"kept":     name,
			}).Debug("Newer file found for source")
			best[cfg.Name] = candidate
		}
	}

	selected := make([]Candidate, 0, len(best))
	for _, source := range order {
		selected = append(selected, best[source])
	}

	l.logger.WithFields(logger.Fields{
		"directory": dir,
		"selected":  len(selected),
	}).Info("Latest-file selection complete")

	return selected, nil
}
