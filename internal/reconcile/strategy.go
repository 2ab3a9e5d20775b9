package reconcile

import (
	"context"
	"fmt"
	"math"
	"strings"

	"inkflow/internal/catalog"
	"inkflow/internal/coverage"
)

// Catalog is the read side of the color data the strategies consult.
type Catalog interface {
	ColorDefinition(ctx context.Context, name, coating string) (*catalog.ColorDefinition, error)
	BannedSubstitution(ctx context.Context, definitionID int64) (*catalog.BannedSubstitution, error)
	LowCarbonBlack(ctx context.Context, itemID int64) (*catalog.ColorRecord, error)
}

// Input is everything one reconciliation pass needs about a document.
type Input struct {
	Job      catalog.Job
	Item     catalog.Item
	Inks     []coverage.InkChannel
	Existing []catalog.ColorRecord
}

// Mapping is a strategy's answer for one ink: the record the ink's data
// lands on, and whether that record is created rather than updated.
type Mapping struct {
	Record catalog.ColorRecord
	Create bool
}

// Strategy resolves one ink against an item.
type Strategy interface {
	Workflow() Workflow
	// Replaces reports whether the item's existing records are discarded.
	Replaces() bool
	// Strict strategies require ink and record counts to agree and enforce
	// the screen frequency ceiling.
	Strict() bool
	// Resolve maps one ink. A nil Violation with a nil error means the
	// Mapping is usable.
	Resolve(ctx context.Context, cat Catalog, in Input, ink coverage.InkChannel) (Mapping, *Violation, error)
}

// StrategyFor returns the implementation of a workflow.
func StrategyFor(w Workflow) (Strategy, error) {
	switch w {
	case ReplaceAll:
		return replaceAll{}, nil
	case StrictSimple:
		return strictSimple{}, nil
	case StrictAliased:
		return strictAliased{}, nil
	default:
		return nil, fmt.Errorf("unknown reconciliation strategy %q", w)
	}
}

func noMatch(ink coverage.InkChannel, item catalog.Item) *Violation {
	return &Violation{
		Kind:    ViolationNoMatch,
		Ink:     ink.Name,
		Message: fmt.Sprintf("No match could be found for the ink named %s on item %d.", ink.Name, item.Number),
	}
}

func sameAngle(record *float64, angle float64) bool {
	return record != nil && math.Abs(*record-angle) < 1e-6
}

// findByName returns the first record whose color matches name and whose
// angle matches, falling back to a record with no angle recorded yet.
func findByName(records []catalog.ColorRecord, name string, angle float64) (catalog.ColorRecord, bool) {
	var fallback *catalog.ColorRecord
	for i := range records {
		if !strings.EqualFold(records[i].Color, name) {
			continue
		}
		if sameAngle(records[i].Angle, angle) {
			return records[i], true
		}
		if records[i].Angle == nil && fallback == nil {
			fallback = &records[i]
		}
	}
	if fallback != nil {
		return *fallback, true
	}
	return catalog.ColorRecord{}, false
}
