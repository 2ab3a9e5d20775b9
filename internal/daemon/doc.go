// Package daemon runs the queue watcher: the long-lived inkflow process that
// processes the intake queue in batches.
//
// It holds a flock-based run lock so only one instance consumes a queue,
// returns documents abandoned in processing on start, polls the intake
// directory on a fixed interval, and periodically prunes retained documents
// and old log files. Stopping the daemon lets the in-flight document finish
// before the lock is released.
//
// Per-document behavior lives in the pipeline package; keep this package to
// lifecycle and scheduling.
package daemon
