package catalog

import "time"

// Coating abbreviations stored on items and color definitions.
const (
	CoatingCoated   = "C"
	CoatingUncoated = "U"
)

// Job log entry types.
const (
	LogTypeCoverage = "ink_coverage"
	LogTypeError    = "error"
	LogTypeInfo     = "info"
)

// LowCarbonBlackName is the definition name of the low-carbon black ink
// substituted for process black on cartons.
const LowCarbonBlackName = "Low-Carbon Black"

// Job is a production job.
type Job struct {
	ID             int64
	Name           string
	Workflow       string
	DuplicatedFrom *int64
}

// IsPressChange reports whether the job was duplicated from an earlier job
// to change presses.
func (j Job) IsPressChange() bool {
	return j.DuplicatedFrom != nil
}

// Item is one printed piece within a job.
type Item struct {
	ID            int64
	JobID         int64
	Number        int
	Size          string
	Coating       string
	Substrate     string
	PrintLocation string
	NineDigit     string
	Disclaimer    string
	ArtworkPath   string
}

// ColorDefinition is a library color for one coating.
type ColorDefinition struct {
	ID      int64
	Name    string
	Coating string
}

// BannedSubstitution flags a definition the plant cannot hit, with the
// recommended replacement.
type BannedSubstitution struct {
	ID           int64
	DefinitionID int64
	Substitute   string
	Active       bool
}

// ColorRecord is one ink on an item.
type ColorRecord struct {
	ID              int64
	ItemID          int64
	Color           string
	DefinitionID    *int64
	DefinitionName  string
	Hex             string
	CoveragePercent *float64
	CoverageSqIn    *float64
	LPI             *float64
	Angle           *float64
	Sequence        *int
	PlateCode       string
}

// LogEntry is a job log line. Seq increases monotonically across all entries.
type LogEntry struct {
	Seq       int64
	JobID     int64
	ItemID    *int64
	Type      string
	Message   string
	CreatedAt time.Time
}
