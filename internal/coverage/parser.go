package coverage

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/ianaindex"

	"inkflow/internal/services"
)

// Parser reads coverage documents from disk.
type Parser struct {
	// Extension expected on document file names; defaults to .xml.
	Extension string
}

// ParseFile parses the document at path with the default extension.
func ParseFile(path string) (*Document, error) {
	return Parser{}.ParseFile(path)
}

// ParseFile derives identifiers from the file name and parses the XML body.
func (p Parser) ParseFile(path string) (*Document, error) {
	name, err := ParseFileName(path, p.Extension)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, services.Wrap(services.ErrIO, "parse", "open", path, err)
	}
	defer file.Close()

	doc, err := Parse(file)
	if err != nil {
		return nil, err
	}
	doc.Path = path
	doc.File = name
	return doc, nil
}

// Parse reads the XML body of a coverage document. Identifiers are left
// zero; ParseFile fills them from the file name.
func Parse(r io.Reader) (*Document, error) {
	root, err := readTree(r)
	if err != nil {
		return nil, malformed("xml", err.Error())
	}

	doc := &Document{Cancelled: root.find("cancelled") != nil}
	if desc := root.find("description"); desc != nil {
		if items := desc.listItems(); len(items) > 0 {
			doc.Disclaimer = items[0].value()
		}
	}
	if title := root.find("title"); title != nil {
		if items := title.listItems(); len(items) > 0 {
			doc.Title = items[0].value()
		} else {
			doc.Title = title.value()
		}
	}
	if proofer := root.find("proofer"); proofer != nil {
		doc.Proofer = proofer.value()
	}

	// A cancelled document is informational only: nothing in it is required.
	if doc.Cancelled {
		if derived := root.find("DerivedFrom"); derived != nil {
			if ref := derived.find("instanceID"); ref != nil {
				if artwork, err := decodeArtworkPath(ref.value()); err == nil {
					doc.ArtworkPath = artwork
				}
			}
		}
		if inksNode := root.find("inks"); inksNode != nil {
			for i, entry := range inksNode.listItems() {
				if ink, err := parseInk(i+1, entry, nil); err == nil {
					doc.Inks = append(doc.Inks, ink)
				}
			}
		}
		return doc, nil
	}

	derived := root.find("DerivedFrom")
	if derived == nil {
		return nil, malformed("artwork", "missing DerivedFrom reference")
	}
	ref := derived.find("instanceID")
	if ref == nil || ref.value() == "" {
		return nil, malformed("artwork", "missing DerivedFrom/instanceID")
	}
	artwork, err := decodeArtworkPath(ref.value())
	if err != nil {
		return nil, malformed("artwork", err.Error())
	}
	doc.ArtworkPath = artwork

	inksNode := root.find("inks")
	if inksNode == nil {
		return nil, malformed("inks", "missing inks list")
	}
	var coverage []*node
	if cov := root.find("coverage"); cov != nil {
		coverage = cov.listItems()
	}

	for i, entry := range inksNode.listItems() {
		var cov *node
		if i < len(coverage) {
			cov = coverage[i]
		}
		ink, err := parseInk(i+1, entry, cov)
		if err != nil {
			return nil, err
		}
		doc.Inks = append(doc.Inks, ink)
	}
	return doc, nil
}

func parseInk(index int, entry, cov *node) (InkChannel, error) {
	ink := InkChannel{Index: index}
	ink.RawName = entry.childValue("name")
	if ink.RawName == "" {
		return ink, malformed(fmt.Sprintf("ink %d", index), "missing name")
	}
	ink.Book = entry.childValue("book")
	ink.Type = entry.childValue("type")
	if ink.Type == "" {
		ink.Type = "UNK"
	}
	name, err := ResolveInkName(ink.Book, ink.RawName, ink.Type)
	if err != nil {
		return ink, err
	}
	ink.Name = name

	label := fmt.Sprintf("ink %d (%s)", index, ink.RawName)
	required := []struct {
		field string
		dst   *float64
	}{
		{"angle", &ink.Angle},
		{"r", &ink.R},
		{"g", &ink.G},
		{"b", &ink.B},
		{"frequency", &ink.LPI},
	}
	for _, req := range required {
		raw := entry.childValue(req.field)
		if raw == "" {
			return ink, malformed(label, "missing "+req.field)
		}
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return ink, malformed(label, fmt.Sprintf("%s %q is not a number", req.field, raw))
		}
		*req.dst = value
	}

	ink.CoveragePercent = optionalFloat(entry, cov, "pct")
	ink.CoverageMM2 = optionalFloat(entry, cov, "mm2")
	return ink, nil
}

// optionalFloat prefers a value inline on the ink entry, then the parallel
// coverage list entry. Missing or unparsable values mean no coverage data.
func optionalFloat(entry, cov *node, field string) *float64 {
	for _, source := range []*node{entry, cov} {
		if source == nil {
			continue
		}
		raw := source.childValue(field)
		if raw == "" {
			continue
		}
		if value, err := strconv.ParseFloat(raw, 64); err == nil {
			return &value
		}
	}
	return nil
}

// decodeArtworkPath undoes the double URL encoding prepress applies and
// normalizes Windows separators.
func decodeArtworkPath(raw string) (string, error) {
	decoded := strings.TrimSpace(raw)
	for i := 0; i < 2; i++ {
		next, err := url.PathUnescape(decoded)
		if err != nil {
			return "", fmt.Errorf("decode instanceID: %w", err)
		}
		decoded = next
	}
	return strings.ReplaceAll(decoded, `\`, "/"), nil
}

func malformed(element, reason string) error {
	return services.Wrap(services.ErrMalformedDocument, "parse", element, reason, nil)
}

// node is a namespace-agnostic element tree. Attributes are folded in as
// leaf children so RDF shorthand and element forms read the same way.
type node struct {
	name     string
	text     strings.Builder
	children []*node
}

func readTree(r io.Reader) (*node, error) {
	decoder := xml.NewDecoder(r)
	decoder.Strict = false
	decoder.CharsetReader = charsetReader
	root := &node{name: "#document"}
	stack := []*node{root}
	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			child := &node{name: t.Name.Local}
			for _, attr := range t.Attr {
				if attr.Name.Space == "xmlns" || attr.Name.Local == "xmlns" {
					continue
				}
				leaf := &node{name: attr.Name.Local}
				leaf.text.WriteString(attr.Value)
				child.children = append(child.children, leaf)
			}
			parent := stack[len(stack)-1]
			parent.children = append(parent.children, child)
			stack = append(stack, child)
		case xml.EndElement:
			if len(stack) > 1 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			stack[len(stack)-1].text.Write(t)
		}
	}
	if len(root.children) == 0 {
		return nil, errors.New("document has no root element")
	}
	return root, nil
}

// charsetReader accepts documents declaring a non-UTF-8 encoding, which some
// RIP exports do.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := ianaindex.IANA.Encoding(label)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", label, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("unsupported charset %q", label)
	}
	return enc.NewDecoder().Reader(input), nil
}

func (n *node) value() string {
	return strings.TrimSpace(n.text.String())
}

// find returns the first descendant with the given local name, depth first.
func (n *node) find(name string) *node {
	for _, child := range n.children {
		if child.name == name {
			return child
		}
		if found := child.find(name); found != nil {
			return found
		}
	}
	return nil
}

// childValue returns the text of the first descendant named name.
func (n *node) childValue(name string) string {
	if found := n.find(name); found != nil {
		return found.value()
	}
	return ""
}

// listItems returns the outermost li descendants in document order.
func (n *node) listItems() []*node {
	var items []*node
	var walk func(*node)
	walk = func(cur *node) {
		for _, child := range cur.children {
			if child.name == "li" {
				items = append(items, child)
				continue
			}
			walk(child)
		}
	}
	walk(n)
	return items
}
