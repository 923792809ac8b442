package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"go.uber.org/zap"

	"github.com/ekaya-inc/hospital-assistant/pkg/apperrors"
	"github.com/ekaya-inc/hospital-assistant/pkg/logging"
	"github.com/ekaya-inc/hospital-assistant/pkg/query"
)

// Row is one result row. Keys keep the column order of the SELECT so JSON
// output matches what the database returned.
type Row = *orderedmap.OrderedMap[string, any]

// ColumnInfo describes one column in the public schema.
type ColumnInfo struct {
	Column   string `json:"column"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
}

// Schema maps table name to its columns, ordered by table name then ordinal position.
type Schema = *orderedmap.OrderedMap[string, []ColumnInfo]

// migrationsTable is golang-migrate's bookkeeping table; it is hidden from Schema.
const migrationsTable = "schema_migrations"

const schemaQuery = `
	SELECT table_name, column_name, data_type, is_nullable
	FROM information_schema.columns
	WHERE table_schema = 'public'
	ORDER BY table_name, ordinal_position`

// QueryExecutor runs read-only statements against the pool.
// Every call acquires its own connection and releases it before returning.
type QueryExecutor struct {
	db     *DB
	logger *zap.Logger
}

// NewQueryExecutor creates an executor over db.
func NewQueryExecutor(db *DB, logger *zap.Logger) *QueryExecutor {
	return &QueryExecutor{
		db:     db,
		logger: logger.Named("executor"),
	}
}

// Query runs stmt and returns all rows in order.
// Failures are wrapped with apperrors.ErrDatabase; nothing is retried.
func (e *QueryExecutor) Query(ctx context.Context, stmt *query.Statement) ([]Row, error) {
	conn, err := e.db.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: acquire connection: %w", apperrors.ErrDatabase, err)
	}
	defer conn.Release()

	start := time.Now()
	rows, err := conn.Query(ctx, stmt.SQL, stmt.Params...)
	if err != nil {
		e.logger.Error("Query failed",
			zap.String("sql", logging.SanitizeStatement(stmt.SQL)),
			zap.String("error", logging.SanitizeError(err)))
		return nil, fmt.Errorf("%w: %w", apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	result, err := collectRows(rows)
	if err != nil {
		e.logger.Error("Reading rows failed",
			zap.String("sql", logging.SanitizeStatement(stmt.SQL)),
			zap.String("error", logging.SanitizeError(err)))
		return nil, fmt.Errorf("%w: %w", apperrors.ErrDatabase, err)
	}

	e.logger.Debug("Query executed",
		zap.String("sql", logging.SanitizeStatement(stmt.SQL)),
		zap.Int("params", len(stmt.Params)),
		zap.Int("rows", len(result)),
		zap.Duration("elapsed", time.Since(start)))

	return result, nil
}

// collectRows drains rows into ordered maps keyed by column name.
func collectRows(rows pgx.Rows) ([]Row, error) {
	fields := rows.FieldDescriptions()
	result := make([]Row, 0)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		row := orderedmap.New[string, any]()
		for i, fd := range fields {
			row.Set(fd.Name, values[i])
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Ping checks connectivity and returns the database server time.
func (e *QueryExecutor) Ping(ctx context.Context) (time.Time, error) {
	conn, err := e.db.Acquire(ctx)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: acquire connection: %w", apperrors.ErrDatabase, err)
	}
	defer conn.Release()

	var now time.Time
	if err := conn.QueryRow(ctx, "SELECT NOW()").Scan(&now); err != nil {
		return time.Time{}, fmt.Errorf("%w: %w", apperrors.ErrDatabase, err)
	}
	return now, nil
}

// Schema returns the columns of every table in the public schema.
func (e *QueryExecutor) Schema(ctx context.Context) (Schema, error) {
	conn, err := e.db.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: acquire connection: %w", apperrors.ErrDatabase, err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, schemaQuery)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	schema := orderedmap.New[string, []ColumnInfo]()
	for rows.Next() {
		var table, column, dataType, nullable string
		if err := rows.Scan(&table, &column, &dataType, &nullable); err != nil {
			return nil, fmt.Errorf("%w: %w", apperrors.ErrDatabase, err)
		}
		if table == migrationsTable {
			continue
		}
		cols, _ := schema.Get(table)
		schema.Set(table, append(cols, ColumnInfo{
			Column:   column,
			Type:     dataType,
			Nullable: nullable == "YES",
		}))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrDatabase, err)
	}
	return schema, nil
}
