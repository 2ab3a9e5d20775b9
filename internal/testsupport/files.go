package testsupport

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Ink describes one ink entry in a generated coverage document.
type Ink struct {
	Book    string
	Name    string
	Type    string
	Angle   float64
	LPI     float64
	R, G, B float64
	// Percent and MM2 are written only when HasCoverage is set.
	HasCoverage bool
	Percent     float64
	MM2         float64
}

// Coverage describes a generated coverage document.
type Coverage struct {
	Artwork    string
	Disclaimer string
	Proofer    string
	Cancelled  bool
	Inks       []Ink
}

// WriteCoverage writes a coverage document named name into dir and returns
// its path.
func WriteCoverage(t testing.TB, dir, name string, doc Coverage) string {
	t.Helper()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(CoverageXML(doc)), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// CoverageXML renders doc in the prepress XMP layout.
func CoverageXML(doc Coverage) string {
	artwork := doc.Artwork
	if artwork == "" {
		artwork = `file://\\prepress\jobs\art.pdf`
	}
	encoded := url.PathEscape(url.PathEscape(artwork))

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<x:xmpmeta xmlns:x="adobe:ns:meta/">
 <rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#">
  <rdf:Description rdf:about=""
    xmlns:dc="http://purl.org/dc/elements/1.1/"
    xmlns:egPrF="http://ns.esko-graphics.com/prflow/1.0/"
    xmlns:stRef="http://ns.adobe.com/xap/1.0/sType/ResourceRef#"
    xmlns:egGr="http://ns.esko-graphics.com/grinfo/1.0/"
    xmlns:egInk="http://ns.esko-graphics.com/inkinfo/1.0/">
`)
	if doc.Disclaimer != "" {
		fmt.Fprintf(&b, "   <dc:description><rdf:Alt><rdf:li xml:lang=\"x-default\">%s</rdf:li></rdf:Alt></dc:description>\n", xmlEscape(doc.Disclaimer))
	}
	fmt.Fprintf(&b, "   <egPrF:DerivedFrom rdf:parseType=\"Resource\"><stRef:instanceID>%s</stRef:instanceID></egPrF:DerivedFrom>\n", xmlEscape(encoded))
	if doc.Proofer != "" {
		fmt.Fprintf(&b, "   <egPrF:proofer>%s</egPrF:proofer>\n", xmlEscape(doc.Proofer))
	}
	if doc.Cancelled {
		b.WriteString("   <egPrF:cancelled>true</egPrF:cancelled>\n")
	}
	b.WriteString("   <egGr:inks>\n    <rdf:Seq>\n")
	for _, ink := range doc.Inks {
		b.WriteString("     <rdf:li rdf:parseType=\"Resource\">\n")
		if ink.Book != "" {
			fmt.Fprintf(&b, "      <egInk:book>%s</egInk:book>\n", xmlEscape(ink.Book))
		}
		fmt.Fprintf(&b, "      <egInk:name>%s</egInk:name>\n", xmlEscape(ink.Name))
		if ink.Type != "" {
			fmt.Fprintf(&b, "      <egInk:type>%s</egInk:type>\n", xmlEscape(ink.Type))
		}
		fmt.Fprintf(&b, "      <egInk:angle>%g</egInk:angle>\n", ink.Angle)
		fmt.Fprintf(&b, "      <egInk:r>%g</egInk:r>\n      <egInk:g>%g</egInk:g>\n      <egInk:b>%g</egInk:b>\n", ink.R, ink.G, ink.B)
		fmt.Fprintf(&b, "      <egInk:frequency>%g</egInk:frequency>\n", ink.LPI)
		if ink.HasCoverage {
			fmt.Fprintf(&b, "      <egInk:pct>%g</egInk:pct>\n      <egInk:mm2>%g</egInk:mm2>\n", ink.Percent, ink.MM2)
		}
		b.WriteString("     </rdf:li>\n")
	}
	b.WriteString("    </rdf:Seq>\n   </egGr:inks>\n  </rdf:Description>\n </rdf:RDF>\n</x:xmpmeta>\n")
	return b.String()
}

func xmlEscape(value string) string {
	return strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;").Replace(value)
}
