package catalog_test

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"inkflow/internal/catalog"
)

func TestInTxRollbackWithPostgresPlaceholders(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	store := catalog.OpenDB(db, "pgx")
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM item_colors WHERE item_id = $1")).
		WithArgs(int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO item_colors")).
		WithArgs(int64(42), "Warm Red", nil, "#f94226", nil, nil, nil, nil, int64(1), "123456789 1A").
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	seq := 1
	err = store.InTx(ctx, func(tx *catalog.Tx) error {
		if err := tx.DeleteItemColors(ctx, 42); err != nil {
			return err
		}
		_, err := tx.InsertItemColor(ctx, catalog.ColorRecord{ItemID: 42, Color: "Warm Red", Hex: "#f94226", Sequence: &seq, PlateCode: "123456789 1A"})
		return err
	})
	if err == nil {
		t.Fatal("expected insert failure to surface")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestInTxCommitsOnSuccess(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	store := catalog.OpenDB(db, "pgx")
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO job_log (job_id, item_id, log_type, message, created_at) VALUES ($1, $2, $3, $4, $5) RETURNING id")).
		WithArgs(int64(12345), int64(9), catalog.LogTypeCoverage, "Ink coverage for item 2 completed.", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(77)))
	mock.ExpectCommit()

	var seq int64
	itemID := int64(9)
	err = store.InTx(ctx, func(tx *catalog.Tx) error {
		var err error
		seq, err = tx.AppendLog(ctx, catalog.LogEntry{JobID: 12345, ItemID: &itemID, Type: catalog.LogTypeCoverage, Message: "Ink coverage for item 2 completed."})
		return err
	})
	if err != nil {
		t.Fatalf("InTx: %v", err)
	}
	if seq != 77 {
		t.Fatalf("expected sequence 77, got %d", seq)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
