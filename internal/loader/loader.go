// Package loader persists validated holding records into the relational
// sink with transactional, idempotent partition replacement.
package loader

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/MalyanDon/data-pipeline-sub002/internal/models"
	pkgerrors "github.com/MalyanDon/data-pipeline-sub002/pkg/errors"
	"github.com/MalyanDon/data-pipeline-sub002/pkg/logger"
)

// TableName is the unified holdings sink table.
const TableName = "unified_holdings"

// DefaultChunkSize bounds the number of rows per INSERT statement.
const DefaultChunkSize = 1000

// insertColumns is the column order used by every chunked insert.
var insertColumns = []string{
	"client_reference",
	"client_name",
	"instrument_isin",
	"instrument_name",
	"instrument_code",
	"blocked_quantity",
	"pending_buy_quantity",
	"pending_sell_quantity",
	"total_position",
	"saleable_quantity",
	"source_system",
	"file_name",
	"record_date",
}

// Connect opens the Postgres sink and configures the connection pool.
// The pool size should be at least the orchestrator's worker count so
// concurrent file pipelines don't queue on connections.
func Connect(dsn string, maxConns int) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, pkgerrors.LoadError(pkgerrors.CodeConnectionFailed, "connect", err)
	}
	if maxConns > 0 {
		db.SetMaxOpenConns(maxConns)
		db.SetMaxIdleConns(maxConns)
	}
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

// Loader writes validated records into the sink table.
type Loader struct {
	db        *sqlx.DB
	chunkSize int
	logger    logger.Logger
}

// NewLoader creates a Loader; chunkSize <= 0 means DefaultChunkSize.
func NewLoader(db *sqlx.DB, chunkSize int) *Loader {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Loader{
		db:        db,
		chunkSize: chunkSize,
		logger:    logger.GetGlobalLogger().WithComponent("batch_loader"),
	}
}

// EnsureSchema creates the sink table and its indexes if absent. Safe to
// run on every invocation.
func (l *Loader) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements() {
		if _, err := l.db.ExecContext(ctx, stmt); err != nil {
			return pkgerrors.LoadError(pkgerrors.CodeSchemaError, "ensure schema", err)
		}
	}
	l.logger.Debug("Sink schema verified")
	return nil
}

// Load replaces the (source, recordDate) partition with the given
// records in a single transaction: delete the existing partition, then
// bulk-insert in bounded chunks. Either every record becomes visible or
// none do; any failure rolls the whole file back.
func (l *Loader) Load(
	ctx context.Context,
	records []*models.UnifiedHoldingRecord,
	source string,
	recordDate time.Time,
) (int, error) {

	log := l.logger.WithFields(logger.Fields{
		"source":      source,
		"record_date": recordDate.Format("2006-01-02"),
		"records":     len(records),
	})

	tx, err := l.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, pkgerrors.LoadError(pkgerrors.CodeTransactionFailed, "begin transaction", err)
	}
	defer tx.Rollback()

	deleted, err := l.deletePartition(ctx, tx, source, recordDate)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		log.WithField("deleted", deleted).Info("Replaced existing partition")
	}

	inserted := 0
	for _, chunk := range chunkRecords(records, l.chunkSize) {
		query, args := buildInsert(chunk)
		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return 0, pkgerrors.LoadError(pkgerrors.CodeInsertFailed, "insert chunk", err).
				WithContext("source", source).
				WithContext("chunk_size", len(chunk))
		}
		n, err := result.RowsAffected()
		if err != nil {
			return 0, pkgerrors.LoadError(pkgerrors.CodeInsertFailed, "count inserted rows", err)
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, pkgerrors.LoadError(pkgerrors.CodeTransactionFailed, "commit", err).
			WithContext("source", source)
	}

	log.WithField("inserted", inserted).Info("Partition loaded")
	return inserted, nil
}

func (l *Loader) deletePartition(
	ctx context.Context,
	tx *sqlx.Tx,
	source string,
	recordDate time.Time,
) (int64, error) {
	result, err := tx.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE source_system = $1 AND record_date = $2`, TableName),
		source, recordDate)
	if err != nil {
		return 0, pkgerrors.LoadError(pkgerrors.CodeTransactionFailed, "delete partition", err).
			WithContext("source", source)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, pkgerrors.LoadError(pkgerrors.CodeTransactionFailed, "count deleted rows", err)
	}
	return deleted, nil
}

// chunkRecords splits records into slices of at most size, preserving
// input order.
func chunkRecords(records []*models.UnifiedHoldingRecord, size int) [][]*models.UnifiedHoldingRecord {
	if size <= 0 {
		size = DefaultChunkSize
	}
	var chunks [][]*models.UnifiedHoldingRecord
	for start := 0; start < len(records); start += size {
		end := start + size
		if end > len(records) {
			end = len(records)
		}
		chunks = append(chunks, records[start:end])
	}
	return chunks
}

// buildInsert constructs a multi-row positional INSERT for one chunk.
func buildInsert(chunk []*models.UnifiedHoldingRecord) (string, []interface{}) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("INSERT INTO %s (%s) VALUES ",
		TableName, strings.Join(insertColumns, ", ")))

	args := make([]interface{}, 0, len(chunk)*len(insertColumns))
	for i, record := range chunk {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(")
		for j := range insertColumns {
			if j > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "$%d", i*len(insertColumns)+j+1)
		}
		sb.WriteString(")")

		args = append(args,
			record.ClientReference,
			record.ClientName,
			record.InstrumentISIN,
			record.InstrumentName,
			record.InstrumentCode,
			record.BlockedQuantity,
			record.PendingBuyQuantity,
			record.PendingSellQuantity,
			record.TotalPosition,
			record.SaleableQuantity,
			record.SourceSystem,
			record.FileName,
			record.RecordDate,
		)
	}

	return sb.String(), args
}

func schemaStatements() []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id BIGSERIAL PRIMARY KEY,
			client_reference TEXT NOT NULL,
			client_name TEXT NOT NULL,
			instrument_isin TEXT NOT NULL,
			instrument_name TEXT,
			instrument_code TEXT,
			blocked_quantity NUMERIC(20,4) NOT NULL DEFAULT 0,
			pending_buy_quantity NUMERIC(20,4) NOT NULL DEFAULT 0,
			pending_sell_quantity NUMERIC(20,4) NOT NULL DEFAULT 0,
			total_position NUMERIC(20,4) NOT NULL DEFAULT 0,
			saleable_quantity NUMERIC(20,4) NOT NULL DEFAULT 0,
			source_system TEXT NOT NULL,
			file_name TEXT NOT NULL,
			record_date DATE NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, TableName),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%[1]s_client_isin ON %[1]s (client_reference, instrument_isin)`, TableName),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%[1]s_isin ON %[1]s (instrument_isin)`, TableName),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%[1]s_partition ON %[1]s (source_system, record_date)`, TableName),
	}
}
