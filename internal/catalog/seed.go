package catalog

import (
	"context"
	"fmt"
)

// The Create* helpers populate a local catalog. Production data arrives
// through the job-tracking system; these serve fixtures and `inkflow`
// smoke tests against SQLite.

// CreateJob inserts a job with an explicit identifier.
func (q queries) CreateJob(ctx context.Context, job Job) error {
	if _, err := q.exec(ctx,
		"INSERT INTO jobs (id, name, workflow, duplicated_from) VALUES (?, ?, ?, ?)",
		job.ID, job.Name, job.Workflow, nullableInt64(job.DuplicatedFrom),
	); err != nil {
		return fmt.Errorf("create job %d: %w", job.ID, err)
	}
	return nil
}

// CreateItem inserts an item and returns its identifier.
func (q queries) CreateItem(ctx context.Context, item Item) (int64, error) {
	coating := item.Coating
	if coating == "" {
		coating = CoatingCoated
	}
	var id int64
	err := q.queryRow(ctx,
		`INSERT INTO items (job_id, num_in_job, size_name, coating, substrate, print_location, nine_digit, disclaimer, artwork_path)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		item.JobID, item.Number, item.Size, coating, item.Substrate,
		nullableString(item.PrintLocation), nullableString(item.NineDigit),
		nullableString(item.Disclaimer), nullableString(item.ArtworkPath),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create item %d-%d: %w", item.JobID, item.Number, err)
	}
	return id, nil
}

// CreateColorDefinition inserts a library color and returns its identifier.
func (q queries) CreateColorDefinition(ctx context.Context, def ColorDefinition) (int64, error) {
	var id int64
	err := q.queryRow(ctx,
		"INSERT INTO color_definitions (name, coating) VALUES (?, ?) RETURNING id",
		def.Name, def.Coating,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create color definition %q: %w", def.Name, err)
	}
	return id, nil
}

// CreateBannedSubstitution flags a definition as unreachable.
func (q queries) CreateBannedSubstitution(ctx context.Context, ban BannedSubstitution) (int64, error) {
	var id int64
	err := q.queryRow(ctx,
		"INSERT INTO banned_substitutions (definition_id, substitute, active) VALUES (?, ?, ?) RETURNING id",
		ban.DefinitionID, ban.Substitute, ban.Active,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create banned substitution: %w", err)
	}
	return id, nil
}
