package coverage

import (
	"fmt"
	"strings"

	"inkflow/internal/services"
)

// LegacyBookMarker identifies inks from the legacy library, whose names
// arrive as "<library> <number> <coating>".
const LegacyBookMarker = "ppasc"

// ProcessPrefix is prepended to process ink names.
const ProcessPrefix = "Process "

var technicalInks = map[string]struct{}{
	"template": {},
	"die":      {},
	"disc":     {},
}

// ResolveInkName produces the canonical catalog name for a raw ink entry.
func ResolveInkName(book, name, inkType string) (string, error) {
	name = strings.TrimSpace(name)
	if strings.Contains(book, LegacyBookMarker) {
		tokens := strings.Split(name, " ")
		if len(tokens) != 3 {
			return "", services.Wrap(services.ErrMalformedDocument, "classify", "ink name",
				fmt.Sprintf("proper ink name could not be determined for %s in the ink book %s", name, book), nil)
		}
		name = tokens[1]
	}
	if strings.Contains(strings.ToLower(inkType), "process") {
		return ProcessPrefix + name, nil
	}
	return name, nil
}

// IsImportable reports whether a canonical ink name is a printing ink.
// Die lines, templates, and disc layers are technical inks.
func IsImportable(name string) bool {
	lowered := strings.ToLower(strings.TrimSpace(name))
	if _, ok := technicalInks[lowered]; ok {
		return false
	}
	return !strings.Contains(lowered, "template")
}

// ImportableInks returns the document's printing inks in document order.
func ImportableInks(doc *Document) []InkChannel {
	if doc == nil {
		return nil
	}
	out := make([]InkChannel, 0, len(doc.Inks))
	for _, ink := range doc.Inks {
		if IsImportable(ink.Name) {
			out = append(out, ink)
		}
	}
	return out
}
