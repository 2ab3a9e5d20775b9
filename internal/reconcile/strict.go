package reconcile

import (
	"context"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"inkflow/internal/catalog"
	"inkflow/internal/coverage"
)

// strictSimple updates existing records matched by color name and angle.
type strictSimple struct{}

func (strictSimple) Workflow() Workflow { return StrictSimple }
func (strictSimple) Replaces() bool     { return false }
func (strictSimple) Strict() bool       { return true }

func (strictSimple) Resolve(_ context.Context, _ Catalog, in Input, ink coverage.InkChannel) (Mapping, *Violation, error) {
	record, ok := findByName(in.Existing, ink.Name, ink.Angle)
	if !ok {
		return Mapping{}, noMatch(ink, in.Item), nil
	}
	return Mapping{Record: record}, nil, nil
}

// processCodes are the internal color codes process inks are stored under
// on aliased items.
var processCodes = map[string]string{
	"Black":   "90985234",
	"Cyan":    "90985253",
	"Magenta": "90984629",
	"Yellow":  "90985250",
}

// strictAliased matches like strictSimple after translating process inks
// to their internal codes. Process black prefers the item's low-carbon
// black record when one exists.
type strictAliased struct{}

func (strictAliased) Workflow() Workflow { return StrictAliased }
func (strictAliased) Replaces() bool     { return false }
func (strictAliased) Strict() bool       { return true }

func (strictAliased) Resolve(ctx context.Context, cat Catalog, in Input, ink coverage.InkChannel) (Mapping, *Violation, error) {
	if ink.IsProcess() {
		process := cases.Title(language.Und).String(strings.TrimSpace(ink.RawName))
		if code, ok := processCodes[process]; ok {
			return resolveProcess(ctx, cat, in, ink, process, code)
		}
	}
	if record, ok := findByName(in.Existing, ink.Name, ink.Angle); ok {
		return Mapping{Record: record}, nil, nil
	}
	for _, record := range in.Existing {
		if record.DefinitionName != "" && strings.EqualFold(record.DefinitionName, ink.Name) {
			return Mapping{Record: record}, nil, nil
		}
	}
	return Mapping{}, noMatch(ink, in.Item), nil
}

func resolveProcess(ctx context.Context, cat Catalog, in Input, ink coverage.InkChannel, process, code string) (Mapping, *Violation, error) {
	if process == "Black" {
		lcb, err := cat.LowCarbonBlack(ctx, in.Item.ID)
		if err != nil {
			return Mapping{}, nil, err
		}
		if lcb != nil {
			return Mapping{Record: existingOr(in.Existing, *lcb)}, nil, nil
		}
	}
	definition := coverage.ProcessPrefix + process
	for _, record := range in.Existing {
		if strings.EqualFold(record.Color, code) && strings.EqualFold(record.DefinitionName, definition) {
			return Mapping{Record: record}, nil, nil
		}
	}
	return Mapping{}, noMatch(ink, in.Item), nil
}

// existingOr prefers the copy of record already loaded for the item.
func existingOr(records []catalog.ColorRecord, record catalog.ColorRecord) catalog.ColorRecord {
	for _, existing := range records {
		if existing.ID == record.ID {
			return existing
		}
	}
	return record
}
