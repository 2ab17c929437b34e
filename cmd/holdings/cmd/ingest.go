package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MalyanDon/data-pipeline-sub002/cmd/holdings/config"
	"github.com/MalyanDon/data-pipeline-sub002/internal/loader"
	"github.com/MalyanDon/data-pipeline-sub002/internal/pipeline"
	"github.com/MalyanDon/data-pipeline-sub002/internal/quality"
	"github.com/MalyanDon/data-pipeline-sub002/internal/sources"
	"github.com/MalyanDon/data-pipeline-sub002/pkg/logger"
)

// Flags for the ingest command
var (
	inputDir  string
	dsn       string
	workers   int
	batchSize int
	poolSize  int
)

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Run one normalization pass over an upload directory",
	Long: `Ingest scans the upload directory, selects the most recent file
per custodian, normalizes each file into the unified holdings schema and
loads it into the database, replacing the file's (source, record date)
partition. A per-source quality report is produced after all loads.

Each file is processed independently; one malformed file never blocks
the others, and the run always finishes with a processing summary.

Examples:
  holdings ingest --dir /tmp/holdings-uploads --dsn postgres://holdings@localhost/holdings
  holdings ingest --dir ./uploads --workers 8 --pool-size 16
  HOLDINGS_DSN=postgres://... holdings ingest`,

	PreRunE: validateIngestFlags,
	RunE:    runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().StringVarP(&inputDir, "dir", "d", config.DefaultUploadDir, "directory holding custodian export files")
	ingestCmd.Flags().StringVar(&dsn, "dsn", "", "Postgres DSN for the holdings sink (required)")
	ingestCmd.Flags().IntVarP(&workers, "workers", "w", config.DefaultWorkers, "max concurrent file pipelines")
	ingestCmd.Flags().IntVar(&batchSize, "batch-size", config.DefaultBatchSize, "rows per mapping batch and per insert chunk")
	ingestCmd.Flags().IntVar(&poolSize, "pool-size", config.DefaultPoolSize, "database connection pool size (>= workers)")

	viper.BindPFlag("dir", ingestCmd.Flags().Lookup("dir"))
	viper.BindPFlag("dsn", ingestCmd.Flags().Lookup("dsn"))
	viper.BindPFlag("workers", ingestCmd.Flags().Lookup("workers"))
	viper.BindPFlag("batch-size", ingestCmd.Flags().Lookup("batch-size"))
	viper.BindPFlag("pool-size", ingestCmd.Flags().Lookup("pool-size"))
}

func validateIngestFlags(cmd *cobra.Command, args []string) error {
	// Viper values allow overrides from config file and environment.
	inputDir = viper.GetString("dir")
	dsn = viper.GetString("dsn")
	workers = viper.GetInt("workers")
	batchSize = viper.GetInt("batch-size")
	poolSize = viper.GetInt("pool-size")

	runConfig := buildRunConfig()
	return runConfig.Validate()
}

func buildRunConfig() *config.RunConfig {
	return &config.RunConfig{
		Directory: inputDir,
		DSN:       dsn,
		Workers:   workers,
		BatchSize: batchSize,
		PoolSize:  poolSize,
	}
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	log, err := logger.NewLogger(config.LoggerConfig(viper.GetBool("verbose")))
	if err != nil {
		return fmt.Errorf("failed to configure logging: %w", err)
	}
	logger.SetGlobalLogger(log)

	runConfig := buildRunConfig()

	db, err := loader.Connect(runConfig.DSN, runConfig.PoolSize)
	if err != nil {
		return fmt.Errorf("failed to connect to holdings sink: %w", err)
	}
	defer db.Close()

	registry := sources.DefaultRegistry()
	batchLoader := loader.NewLoader(db, runConfig.BatchSize)
	reporter := quality.NewReporter(db, decimal.Zero)

	orchestrator := pipeline.NewOrchestrator(registry, batchLoader, reporter, runConfig.PipelineConfig())

	summary, err := orchestrator.Run(ctx, runConfig.Directory)
	if err != nil {
		return fmt.Errorf("ingest run failed: %w", err)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(summary); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}

	for _, file := range summary.Files {
		if file.Failed() {
			fmt.Fprintf(os.Stderr, "FAILED %s (%s): %v\n", file.FileName, file.SourceSystem, file.Err)
		}
	}

	return nil
}
