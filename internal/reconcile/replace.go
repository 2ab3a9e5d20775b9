package reconcile

import (
	"context"
	"strings"

	"inkflow/internal/coverage"
)

// replaceAll recreates the item's records from the document in ink order.
type replaceAll struct{}

func (replaceAll) Workflow() Workflow { return ReplaceAll }
func (replaceAll) Replaces() bool     { return true }
func (replaceAll) Strict() bool       { return false }

func (replaceAll) Resolve(_ context.Context, _ Catalog, in Input, ink coverage.InkChannel) (Mapping, *Violation, error) {
	mapping := Mapping{Create: true}
	mapping.Record.ItemID = in.Item.ID
	mapping.Record.Color = ink.Name
	return mapping, nil, nil
}

// PlateCode derives the plate requisition code for a sequence position on
// an item. Positions one through ten get the letters A through J; anything
// else is X. Items without a nine-digit prefix keep the separating space,
// matching codes already stored for such items.
func PlateCode(nineDigit string, sequence int) string {
	letter := "X"
	if sequence >= 1 && sequence <= 10 {
		letter = string(rune('A' + sequence - 1))
	}
	return strings.TrimSpace(nineDigit) + " 1" + letter
}
