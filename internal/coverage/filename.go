package coverage

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"inkflow/internal/services"
)

// DefaultExtension is the extension coverage documents carry.
const DefaultExtension = ".xml"

// FileName is the decoded form of <job>-<item>[ <suffix>][_<marker>].<ext>.
type FileName struct {
	Job    int64
	Item   int
	Suffix string
	Marker string
}

var fileNamePattern = regexp.MustCompile(`^([0-9]+)-([0-9]+)(?: ([^_]+))?(?:_(.+))?$`)

// ParseFileName decodes a coverage file name. ext defaults to
// DefaultExtension and is compared case-insensitively.
func ParseFileName(name, ext string) (FileName, error) {
	base := filepath.Base(name)
	if ext == "" {
		ext = DefaultExtension
	}
	gotExt := filepath.Ext(base)
	if !strings.EqualFold(gotExt, ext) {
		return FileName{}, malformedName(base, fmt.Sprintf("expected %s extension", ext))
	}
	stem := strings.TrimSuffix(base, gotExt)
	match := fileNamePattern.FindStringSubmatch(stem)
	if match == nil {
		return FileName{}, malformedName(base, "expected <job>-<item>[ <suffix>][_<marker>]")
	}
	job, err := strconv.ParseInt(match[1], 10, 64)
	if err != nil || job <= 0 {
		return FileName{}, malformedName(base, "job identifier out of range")
	}
	item, err := strconv.Atoi(match[2])
	if err != nil || item <= 0 {
		return FileName{}, malformedName(base, "item number out of range")
	}
	return FileName{Job: job, Item: item, Suffix: match[3], Marker: match[4]}, nil
}

// HasMarker reports whether any underscore-delimited marker token equals
// token, ignoring case.
func (f FileName) HasMarker(token string) bool {
	token = strings.TrimSpace(token)
	if token == "" || f.Marker == "" {
		return false
	}
	for _, part := range strings.Split(f.Marker, "_") {
		fields := strings.Fields(part)
		if len(fields) > 0 && strings.EqualFold(fields[0], token) {
			return true
		}
	}
	return false
}

// String renders the job-item pair as operators write it.
func (f FileName) String() string {
	return fmt.Sprintf("%d-%d", f.Job, f.Item)
}

func malformedName(name, reason string) error {
	return services.Wrap(services.ErrMalformedDocument, "parse", "file name", fmt.Sprintf("%q: %s", name, reason), nil)
}
