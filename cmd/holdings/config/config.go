// Package config assembles runtime settings for the holdings CLI into
// the component configurations the pipeline consumes.
package config

import (
	"fmt"
	"os"

	"github.com/MalyanDon/data-pipeline-sub002/internal/pipeline"
	"github.com/MalyanDon/data-pipeline-sub002/pkg/logger"
)

// Defaults for CLI flags. The pool default is deliberately larger than
// the worker default so concurrent file pipelines never queue on
// database connections.
const (
	DefaultUploadDir = "/tmp/holdings-uploads"
	DefaultWorkers   = 4
	DefaultBatchSize = 1000
	DefaultPoolSize  = 8
)

// RunConfig carries everything one ingest invocation needs.
type RunConfig struct {
	Directory string
	DSN       string
	Workers   int
	BatchSize int
	PoolSize  int
}

// Validate checks the run configuration for usable values.
func (c *RunConfig) Validate() error {
	if c.Directory == "" {
		return fmt.Errorf("input directory is required")
	}
	info, err := os.Stat(c.Directory)
	if err != nil {
		return fmt.Errorf("input directory is not accessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("input path is not a directory: %s", c.Directory)
	}
	if c.DSN == "" {
		return fmt.Errorf("database DSN is required")
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive")
	}
	if c.PoolSize < c.Workers {
		return fmt.Errorf("pool size (%d) must be at least the worker count (%d)", c.PoolSize, c.Workers)
	}
	return nil
}

// PipelineConfig derives the orchestrator configuration.
func (c *RunConfig) PipelineConfig() *pipeline.Config {
	return &pipeline.Config{
		Workers:   c.Workers,
		BatchSize: c.BatchSize,
	}
}

// LoggerConfig builds the logger configuration for the CLI.
func LoggerConfig(verbose bool) *logger.Config {
	cfg := logger.DefaultConfig()
	if verbose {
		cfg.Level = logger.DebugLevel
	}
	return cfg
}
