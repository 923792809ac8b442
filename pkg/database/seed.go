package database

import (
	"context"
	_ "embed"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"go.uber.org/zap"
)

//go:embed seed.sql
var seedSQL string

// HospitalTables lists the domain tables in dependency order.
var HospitalTables = []string{"patients", "doctors", "appointments", "medical_records"}

// SeedSampleData inserts the sample hospital rows when the patients table is
// empty. It returns false without writing when data is already present.
func SeedSampleData(ctx context.Context, db *DB, logger *zap.Logger) (bool, error) {
	var existing int64
	if err := db.QueryRow(ctx, "SELECT COUNT(*) FROM patients").Scan(&existing); err != nil {
		return false, fmt.Errorf("failed to count patients: %w", err)
	}
	if existing > 0 {
		logger.Info("Sample data already present, skipping seed", zap.Int64("patients", existing))
		return false, nil
	}

	tx, err := db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin seed transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, seedSQL); err != nil {
		return false, fmt.Errorf("failed to insert sample data: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit sample data: %w", err)
	}

	logger.Info("Inserted sample data")
	return true, nil
}

// TableCounts returns the row count of each hospital table, in HospitalTables order.
func TableCounts(ctx context.Context, db *DB) (*orderedmap.OrderedMap[string, int64], error) {
	counts := orderedmap.New[string, int64]()
	for _, table := range HospitalTables {
		var n int64
		// Table names come from the fixed list above, never from input.
		if err := db.QueryRow(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", table, err)
		}
		counts.Set(table, n)
	}
	return counts, nil
}
