package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrIO                = errors.New("i/o error")
	ErrMalformedDocument = errors.New("malformed document")
	ErrViolation         = errors.New("reconciliation violation")
	ErrNotFound          = errors.New("not found")
	ErrConfiguration     = errors.New("configuration error")
	ErrInternal          = errors.New("internal error")
)

// FailureKind names the error class a document failure belongs to.
type FailureKind string

const (
	KindIO            FailureKind = "io"
	KindMalformed     FailureKind = "malformed"
	KindViolation     FailureKind = "violation"
	KindNotFound      FailureKind = "not_found"
	KindConfiguration FailureKind = "configuration"
	KindInternal      FailureKind = "internal"
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrInternal
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Classify maps an error onto its failure kind. Unmarked errors are internal.
func Classify(err error) FailureKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrIO):
		return KindIO
	case errors.Is(err, ErrMalformedDocument):
		return KindMalformed
	case errors.Is(err, ErrViolation):
		return KindViolation
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrConfiguration):
		return KindConfiguration
	default:
		return KindInternal
	}
}

// Quarantines reports whether a failure of this kind moves the document to
// the invalid directory. I/O failures leave the file for the next run.
func (k FailureKind) Quarantines() bool {
	return k != "" && k != KindIO
}

// Details returns the failure kind and the message without the marker prefix.
func Details(err error) (FailureKind, string) {
	if err == nil {
		return "", ""
	}
	kind := Classify(err)
	msg := err.Error()
	for _, marker := range []error{ErrIO, ErrMalformedDocument, ErrViolation, ErrNotFound, ErrConfiguration, ErrInternal} {
		prefix := marker.Error() + ": "
		if strings.HasPrefix(msg, prefix) {
			msg = strings.TrimPrefix(msg, prefix)
			break
		}
	}
	return kind, msg
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
