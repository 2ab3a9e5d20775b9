package testsupport

import (
	"context"
	"testing"

	"inkflow/internal/catalog"
	"inkflow/internal/config"
)

// MustOpenCatalog opens the configured SQLite catalog and registers cleanup.
func MustOpenCatalog(t testing.TB, cfg *config.Config) *catalog.Store {
	t.Helper()

	store, err := catalog.OpenSQLite(context.Background(), cfg.Database.Path)
	if err != nil {
		t.Fatalf("catalog.OpenSQLite: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// SeedItem creates the job (when missing) and an item, returning the item id.
func SeedItem(t testing.TB, store *catalog.Store, job catalog.Job, item catalog.Item) int64 {
	t.Helper()

	ctx := context.Background()
	if _, err := store.Job(ctx, job.ID); err != nil {
		if err := store.CreateJob(ctx, job); err != nil {
			t.Fatalf("CreateJob: %v", err)
		}
	}
	item.JobID = job.ID
	id, err := store.CreateItem(ctx, item)
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	return id
}

// SeedColors inserts color records for an item.
func SeedColors(t testing.TB, store *catalog.Store, itemID int64, records ...catalog.ColorRecord) {
	t.Helper()

	for _, record := range records {
		record.ItemID = itemID
		if _, err := store.InsertItemColor(context.Background(), record); err != nil {
			t.Fatalf("InsertItemColor %s: %v", record.Color, err)
		}
	}
}

// ItemColors lists an item's records or fails the test.
func ItemColors(t testing.TB, store *catalog.Store, itemID int64) []catalog.ColorRecord {
	t.Helper()

	records, err := store.ItemColors(context.Background(), itemID)
	if err != nil {
		t.Fatalf("ItemColors: %v", err)
	}
	return records
}
