// Package logs reads the inkflow log file for the CLI.
//
// Last returns the trailing lines of the log with bounded memory, optionally
// narrowed to lines mentioning one document or correlation id. Follow keeps
// polling for appended lines until its context ends and starts over from the
// top when the file is truncated or replaced by rotation.
package logs
