// Package intake implements the directory queue coverage documents flow
// through.
//
// Documents arrive in the intake directory. A Claim moves one into the
// processing directory with a no-replace rename and fsyncs both parents;
// the move is the at-most-once guarantee, so every queue directory must
// share a volume with intake. From processing a document ends in exactly
// one place: deleted, the processed directory, the invalid directory, or
// back in intake when it was never really handled.
package intake
