// Package reconcile maps a coverage document's printing inks onto an item's
// color records.
//
// The mapping rules differ by production workflow. Each workflow is a
// Strategy selected once per document: replace-all recreates the item's
// records from the document, while the two strict strategies only update
// records that already exist and reject the document when the inks and
// records disagree. Banned-substitution and frequency rules apply on top.
//
// Reconcile never writes. It returns a Result listing every violation it
// found; callers commit the mapped records with Result.Apply inside a
// transaction only when the result carries no violations.
package reconcile
