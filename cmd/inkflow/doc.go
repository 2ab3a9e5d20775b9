// Command inkflow ingests ink coverage documents into the color catalog.
//
// "inkflow run" processes one batch from the intake queue and exits;
// "inkflow watch" keeps polling until interrupted. Both hold the run lock so
// only one process consumes a queue. The remaining commands inspect and
// repair the queue (queue list, queue requeue, queue recover), parse a
// single document without touching the catalog, show a job's log, and verify
// readiness (check, test-notify). "inkflow tail" prints or follows the log file.
package main
