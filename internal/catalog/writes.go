package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// DeleteItemColors removes every color record of an item.
func (q queries) DeleteItemColors(ctx context.Context, itemID int64) error {
	if _, err := q.exec(ctx, "DELETE FROM item_colors WHERE item_id = ?", itemID); err != nil {
		return fmt.Errorf("delete item colors: %w", err)
	}
	return nil
}

// InsertItemColor creates a color record and returns its identifier.
func (q queries) InsertItemColor(ctx context.Context, record ColorRecord) (int64, error) {
	var id int64
	err := q.queryRow(ctx,
		`INSERT INTO item_colors (item_id, color, definition_id, hex, coverage_pct, coverage_sqin, lpi, angle, sequence, plate_code)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		record.ItemID,
		record.Color,
		nullableInt64(record.DefinitionID),
		nullableString(record.Hex),
		nullableFloat(record.CoveragePercent),
		nullableFloat(record.CoverageSqIn),
		nullableFloat(record.LPI),
		nullableFloat(record.Angle),
		nullableInt(record.Sequence),
		nullableString(record.PlateCode),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert item color %q: %w", record.Color, err)
	}
	return id, nil
}

// UpdateItemColor rewrites the mutable fields of an existing record.
func (q queries) UpdateItemColor(ctx context.Context, record ColorRecord) error {
	res, err := q.exec(ctx,
		`UPDATE item_colors SET definition_id = ?, hex = ?, coverage_pct = ?, coverage_sqin = ?, lpi = ?, angle = ?, sequence = ?, plate_code = ?
		 WHERE id = ?`,
		nullableInt64(record.DefinitionID),
		nullableString(record.Hex),
		nullableFloat(record.CoveragePercent),
		nullableFloat(record.CoverageSqIn),
		nullableFloat(record.LPI),
		nullableFloat(record.Angle),
		nullableInt(record.Sequence),
		nullableString(record.PlateCode),
		record.ID,
	)
	if err != nil {
		return fmt.Errorf("update item color %d: %w", record.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update item color %d: record vanished", record.ID)
	}
	return nil
}

// UpdateItemDocument stores the artwork path and disclaimer read from a
// coverage document. An empty disclaimer clears the stored one.
func (q queries) UpdateItemDocument(ctx context.Context, itemID int64, artworkPath, disclaimer string) error {
	if _, err := q.exec(ctx,
		"UPDATE items SET artwork_path = ?, disclaimer = ? WHERE id = ?",
		nullableString(artworkPath), nullableString(strings.TrimSpace(disclaimer)), itemID,
	); err != nil {
		return fmt.Errorf("update item %d: %w", itemID, err)
	}
	return nil
}

// AppendLog writes a job log entry and returns its sequence number.
func (q queries) AppendLog(ctx context.Context, entry LogEntry) (int64, error) {
	created := entry.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	var seq int64
	err := q.queryRow(ctx,
		"INSERT INTO job_log (job_id, item_id, log_type, message, created_at) VALUES (?, ?, ?, ?, ?) RETURNING id",
		entry.JobID, nullableInt64(entry.ItemID), entry.Type, entry.Message, created.UTC().Format(time.RFC3339Nano),
	).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("append job log: %w", err)
	}
	return seq, nil
}
