package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"inkflow/internal/services"
)

const colorColumns = "ic.id, ic.item_id, ic.color, ic.definition_id, d.name, ic.hex, ic.coverage_pct, ic.coverage_sqin, ic.lpi, ic.angle, ic.sequence, ic.plate_code"

const colorFrom = " FROM item_colors ic LEFT JOIN color_definitions d ON d.id = ic.definition_id"

// Job loads a job by identifier.
func (q queries) Job(ctx context.Context, id int64) (Job, error) {
	var (
		job        Job
		duplicated sql.NullInt64
	)
	err := q.queryRow(ctx,
		"SELECT id, name, workflow, duplicated_from FROM jobs WHERE id = ?", id,
	).Scan(&job.ID, &job.Name, &job.Workflow, &duplicated)
	if errors.Is(err, sql.ErrNoRows) {
		return Job{}, services.Wrap(services.ErrNotFound, "catalog", "job", fmt.Sprintf("job %d does not exist", id), nil)
	}
	if err != nil {
		return Job{}, fmt.Errorf("load job %d: %w", id, err)
	}
	job.DuplicatedFrom = int64Ptr(duplicated)
	return job, nil
}

// Item loads an item by job and its number within the job.
func (q queries) Item(ctx context.Context, jobID int64, number int) (Item, error) {
	var (
		item                                     Item
		location, nineDigit, disclaimer, artwork sql.NullString
	)
	err := q.queryRow(ctx,
		`SELECT id, job_id, num_in_job, size_name, coating, substrate, print_location, nine_digit, disclaimer, artwork_path
		 FROM items WHERE job_id = ? AND num_in_job = ?`, jobID, number,
	).Scan(&item.ID, &item.JobID, &item.Number, &item.Size, &item.Coating, &item.Substrate,
		&location, &nineDigit, &disclaimer, &artwork)
	if errors.Is(err, sql.ErrNoRows) {
		return Item{}, services.Wrap(services.ErrNotFound, "catalog", "item",
			fmt.Sprintf("an ink coverage was sent for %d-%d, but no such item exists", jobID, number), nil)
	}
	if err != nil {
		return Item{}, fmt.Errorf("load item %d-%d: %w", jobID, number, err)
	}
	item.PrintLocation = location.String
	item.NineDigit = nineDigit.String
	item.Disclaimer = disclaimer.String
	item.ArtworkPath = artwork.String
	return item, nil
}

// ItemColors lists an item's color records, sequenced records first.
func (q queries) ItemColors(ctx context.Context, itemID int64) ([]ColorRecord, error) {
	rows, err := q.query(ctx,
		"SELECT "+colorColumns+colorFrom+
			" WHERE ic.item_id = ? ORDER BY CASE WHEN ic.sequence IS NULL THEN 1 ELSE 0 END, ic.sequence, ic.id", itemID)
	if err != nil {
		return nil, fmt.Errorf("list item colors: %w", err)
	}
	defer rows.Close()

	var records []ColorRecord
	for rows.Next() {
		record, err := scanColor(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item color: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate item colors: %w", err)
	}
	return records, nil
}

// LowCarbonBlack returns the item's low-carbon black record, or nil.
func (q queries) LowCarbonBlack(ctx context.Context, itemID int64) (*ColorRecord, error) {
	row := q.queryRow(ctx,
		"SELECT "+colorColumns+colorFrom+" WHERE ic.item_id = ? AND d.name = ? ORDER BY ic.id LIMIT 1",
		itemID, LowCarbonBlackName)
	record, err := scanColor(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup low-carbon black: %w", err)
	}
	return &record, nil
}

// ColorDefinition finds a definition by case-insensitive name and coating,
// returning nil when none exists.
func (q queries) ColorDefinition(ctx context.Context, name, coating string) (*ColorDefinition, error) {
	var def ColorDefinition
	err := q.queryRow(ctx,
		"SELECT id, name, coating FROM color_definitions WHERE LOWER(name) = LOWER(?) AND coating = ? ORDER BY id LIMIT 1",
		name, coating,
	).Scan(&def.ID, &def.Name, &def.Coating)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup color definition %q: %w", name, err)
	}
	return &def, nil
}

// BannedSubstitution returns the first banned-substitution entry for a
// definition, or nil.
func (q queries) BannedSubstitution(ctx context.Context, definitionID int64) (*BannedSubstitution, error) {
	var ban BannedSubstitution
	err := q.queryRow(ctx,
		"SELECT id, definition_id, substitute, active FROM banned_substitutions WHERE definition_id = ? ORDER BY id LIMIT 1",
		definitionID,
	).Scan(&ban.ID, &ban.DefinitionID, &ban.Substitute, &ban.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup banned substitution: %w", err)
	}
	return &ban, nil
}

// JobLog returns the most recent log entries for a job, newest first.
func (q queries) JobLog(ctx context.Context, jobID int64, limit int) ([]LogEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := q.query(ctx,
		"SELECT id, job_id, item_id, log_type, message, created_at FROM job_log WHERE job_id = ? ORDER BY id DESC LIMIT ?",
		jobID, limit)
	if err != nil {
		return nil, fmt.Errorf("list job log: %w", err)
	}
	defer rows.Close()

	var entries []LogEntry
	for rows.Next() {
		var (
			entry   LogEntry
			itemID  sql.NullInt64
			created sql.NullString
		)
		if err := rows.Scan(&entry.Seq, &entry.JobID, &itemID, &entry.Type, &entry.Message, &created); err != nil {
			return nil, fmt.Errorf("scan job log: %w", err)
		}
		entry.ItemID = int64Ptr(itemID)
		entry.CreatedAt = parseTime(created)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate job log: %w", err)
	}
	return entries, nil
}

func scanColor(scanner interface{ Scan(dest ...any) error }) (ColorRecord, error) {
	var (
		record                     ColorRecord
		definitionID, sequence     sql.NullInt64
		definitionName, hex, plate sql.NullString
		pct, sqin, lpi, angle      sql.NullFloat64
	)
	if err := scanner.Scan(
		&record.ID,
		&record.ItemID,
		&record.Color,
		&definitionID,
		&definitionName,
		&hex,
		&pct,
		&sqin,
		&lpi,
		&angle,
		&sequence,
		&plate,
	); err != nil {
		return ColorRecord{}, err
	}
	record.DefinitionID = int64Ptr(definitionID)
	record.DefinitionName = definitionName.String
	record.Hex = hex.String
	record.CoveragePercent = float64Ptr(pct)
	record.CoverageSqIn = float64Ptr(sqin)
	record.LPI = float64Ptr(lpi)
	record.Angle = float64Ptr(angle)
	if sequence.Valid {
		seq := int(sequence.Int64)
		record.Sequence = &seq
	}
	record.PlateCode = plate.String
	return record, nil
}

func parseTime(value sql.NullString) time.Time {
	if !value.Valid {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05.999999999-07:00", "2006-01-02 15:04:05"} {
		if ts, err := time.Parse(layout, value.String); err == nil {
			return ts
		}
	}
	return time.Time{}
}
