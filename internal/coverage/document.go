package coverage

import "strings"

// Document is the parsed, read-only form of one coverage file.
type Document struct {
	Path        string
	File        FileName
	ArtworkPath string
	Inks        []InkChannel
	Disclaimer  string
	Cancelled   bool
	Proofer     string
	Title       string
}

// JobID returns the job identifier from the file name.
func (d *Document) JobID() int64 { return d.File.Job }

// ItemNumber returns the item number within the job.
func (d *Document) ItemNumber() int { return d.File.Item }

// InkNames lists the canonical names of every channel in document order.
func (d *Document) InkNames() []string {
	names := make([]string, 0, len(d.Inks))
	for _, ink := range d.Inks {
		names = append(names, ink.Name)
	}
	return names
}

// InkChannel is one ink entry of a coverage document. Coverage values are
// optional; some technical and duplicate-angle inks carry none.
type InkChannel struct {
	Index   int
	Book    string
	RawName string
	Type    string
	// Name is the canonical name produced by ResolveInkName.
	Name            string
	Angle           float64
	R, G, B         float64
	LPI             float64
	CoveragePercent *float64
	CoverageMM2     *float64
}

// IsProcess reports whether the channel is a CMYK-derived process ink.
func (c InkChannel) IsProcess() bool {
	return strings.Contains(strings.ToLower(c.Type), "process")
}

// HasCoverage reports whether the document supplied coverage data for this channel.
func (c InkChannel) HasCoverage() bool {
	return c.CoveragePercent != nil || c.CoverageMM2 != nil
}

// CoverageSquareInches converts the coverage area into square inches.
func (c InkChannel) CoverageSquareInches() (float64, bool) {
	if c.CoverageMM2 == nil {
		return 0, false
	}
	return SquareInches(*c.CoverageMM2), true
}

// Hex returns the channel's display color as #rrggbb.
func (c InkChannel) Hex() string {
	return HexFromRGB(c.R, c.G, c.B)
}
