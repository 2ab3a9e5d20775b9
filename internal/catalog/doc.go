// Package catalog is the color-tracking data store adapter.
//
// It reads jobs, items, color definitions, and banned substitutions, and
// writes item color records and job log entries. Two drivers are supported:
// a local SQLite file (modernc.org/sqlite) whose schema this package
// bootstraps, and the production Postgres database (pgx) whose schema is
// managed elsewhere. Queries are written with ? placeholders and rebound
// for Postgres.
//
// All writes for one coverage document go through InTx so a failure leaves
// nothing behind.
package catalog
