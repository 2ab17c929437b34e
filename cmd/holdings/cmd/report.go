package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MalyanDon/data-pipeline-sub002/cmd/holdings/config"
	"github.com/MalyanDon/data-pipeline-sub002/internal/loader"
	"github.com/MalyanDon/data-pipeline-sub002/internal/quality"
	"github.com/MalyanDon/data-pipeline-sub002/pkg/logger"
)

var (
	reportDate string
	reportDSN  string
)

// reportCmd recomputes the per-source quality metrics for an already
// loaded record date without rerunning ingestion.
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Produce the per-source quality report for a record date",
	Long: `Report computes, per custodian, the total record count, positive
position count, mean quantities and the formula compliance rate for an
already loaded record date.

Examples:
  holdings report --date 2026-08-31 --dsn postgres://holdings@localhost/holdings`,

	PreRunE: validateReportFlags,
	RunE:    runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringVar(&reportDate, "date", "", "record date (YYYY-MM-DD, required)")
	reportCmd.Flags().StringVar(&reportDSN, "dsn", "", "Postgres DSN for the holdings sink (required)")

	viper.BindPFlag("report-date", reportCmd.Flags().Lookup("date"))
	viper.BindPFlag("report-dsn", reportCmd.Flags().Lookup("dsn"))
}

func validateReportFlags(cmd *cobra.Command, args []string) error {
	reportDate = viper.GetString("report-date")
	reportDSN = viper.GetString("report-dsn")

	if reportDate == "" {
		return fmt.Errorf("date is required")
	}
	if _, err := time.Parse("2006-01-02", reportDate); err != nil {
		return fmt.Errorf("invalid date format, use YYYY-MM-DD: %w", err)
	}
	if reportDSN == "" {
		return fmt.Errorf("dsn is required")
	}
	return nil
}

func runReport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	log, err := logger.NewLogger(config.LoggerConfig(viper.GetBool("verbose")))
	if err != nil {
		return fmt.Errorf("failed to configure logging: %w", err)
	}
	logger.SetGlobalLogger(log)

	recordDate, _ := time.Parse("2006-01-02", reportDate)

	db, err := loader.Connect(reportDSN, config.DefaultPoolSize)
	if err != nil {
		return fmt.Errorf("failed to connect to holdings sink: %w", err)
	}
	defer db.Close()

	reporter := quality.NewReporter(db, decimal.Zero)
	metrics, err := reporter.Report(ctx, recordDate)
	if err != nil {
		return fmt.Errorf("quality report failed: %w", err)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(metrics); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	return nil
}
