// Package outcome decides where a claimed coverage document ends up and
// performs the logging, notification, and proof side effects that go with
// that decision.
//
// Dispositions:
//
//	committed  records written; file deleted, retained, or archived; proof requested
//	cancelled  nothing written; file deleted, retained, or archived
//	rejected   reconciliation violations; file quarantined, job logged, artists notified
//	malformed  unreadable document or unknown job/item; file quarantined
//	failed     unexpected error; file quarantined, support notified
//	retry      I/O failure; file returned to intake for the next run
package outcome
