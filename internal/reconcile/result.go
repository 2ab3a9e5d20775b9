package reconcile

import (
	"context"
	"fmt"
	"strings"

	"inkflow/internal/catalog"
	"inkflow/internal/services"
)

// ViolationKind classifies a rule breach.
type ViolationKind string

const (
	ViolationUnknownWorkflow ViolationKind = "unknown_workflow"
	ViolationNoPrintLocation ViolationKind = "no_print_location"
	ViolationCountMismatch   ViolationKind = "count_mismatch"
	ViolationNoMatch         ViolationKind = "no_match"
	ViolationDuplicateMatch  ViolationKind = "duplicate_match"
	ViolationLPICeiling      ViolationKind = "lpi_ceiling"
	ViolationBannedColor     ViolationKind = "banned_color"
)

// Violation is one reason a document cannot be committed.
type Violation struct {
	Kind    ViolationKind
	Ink     string
	Message string
}

// Result is the outcome of one reconciliation pass.
type Result struct {
	Workflow Workflow
	// Replace deletes the item's existing records before Creates are inserted.
	Replace    bool
	Creates    []catalog.ColorRecord
	Updates    []catalog.ColorRecord
	Violations []Violation
}

// OK reports whether the result may be committed.
func (r Result) OK() bool { return len(r.Violations) == 0 }

// Records lists every mapped record in ink order.
func (r Result) Records() []catalog.ColorRecord {
	out := make([]catalog.ColorRecord, 0, len(r.Creates)+len(r.Updates))
	out = append(out, r.Creates...)
	return append(out, r.Updates...)
}

// Message renders the violations as a numbered list, one per line.
func (r Result) Message() string {
	if r.OK() {
		return ""
	}
	lines := make([]string, 0, len(r.Violations))
	for i, v := range r.Violations {
		lines = append(lines, fmt.Sprintf("%d) %s", i+1, v.Message))
	}
	return strings.Join(lines, "\n")
}

// Err returns nil for a clean result, otherwise an ErrViolation carrying
// the aggregated message.
func (r Result) Err() error {
	if r.OK() {
		return nil
	}
	return services.Wrap(services.ErrViolation, "reconcile", string(r.Workflow), r.Message(), nil)
}

// Writer is the transactional write surface Apply needs.
type Writer interface {
	DeleteItemColors(ctx context.Context, itemID int64) error
	InsertItemColor(ctx context.Context, record catalog.ColorRecord) (int64, error)
	UpdateItemColor(ctx context.Context, record catalog.ColorRecord) error
}

// Apply writes the mapped records. It refuses results that carry
// violations so a rejected document never mutates the catalog.
func (r Result) Apply(ctx context.Context, w Writer, itemID int64) error {
	if err := r.Err(); err != nil {
		return err
	}
	if r.Replace {
		if err := w.DeleteItemColors(ctx, itemID); err != nil {
			return err
		}
	}
	for _, record := range r.Creates {
		if _, err := w.InsertItemColor(ctx, record); err != nil {
			return err
		}
	}
	for _, record := range r.Updates {
		if err := w.UpdateItemColor(ctx, record); err != nil {
			return err
		}
	}
	return nil
}
