package intake

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"inkflow/internal/config"
	"inkflow/internal/fileutil"
	"inkflow/internal/logging"
	"inkflow/internal/services"
)

// ErrAlreadyClaimed reports that the document left intake before this
// process could claim it.
var ErrAlreadyClaimed = errors.New("document already claimed")

// Dirs names the four queue directories.
type Dirs struct {
	Intake     string
	Processing string
	Processed  string
	Invalid    string
}

// PendingDocument is a file observed in one of the queue directories.
type PendingDocument struct {
	Name         string
	Path         string
	Size         int64
	ModTime      time.Time
	DiscoveredAt time.Time
}

// Claim is a document this process owns. Path points into processing.
type Claim struct {
	Name      string
	Path      string
	Source    string
	ClaimedAt time.Time
}

// Queue moves documents between the queue directories.
type Queue struct {
	dirs      Dirs
	extension string
	logger    *slog.Logger
	now       func() time.Time
}

// New returns a Queue over dirs that only considers files with extension.
func New(dirs Dirs, extension string, logger *slog.Logger) *Queue {
	if logger == nil {
		logger = logging.NewNop()
	}
	ext := strings.ToLower(strings.TrimSpace(extension))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return &Queue{dirs: dirs, extension: ext, logger: logger, now: time.Now}
}

// NewFromConfig builds a Queue from the intake settings.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) *Queue {
	return New(Dirs{
		Intake:     cfg.Paths.IntakeDir,
		Processing: cfg.Intake.ProcessingDir,
		Processed:  cfg.Intake.ProcessedDir,
		Invalid:    cfg.Intake.InvalidDir,
	}, cfg.Intake.Extension, logger)
}

// Dirs returns the queue layout.
func (q *Queue) Dirs() Dirs { return q.dirs }

// Pending lists documents waiting in intake, oldest first.
func (q *Queue) Pending() ([]PendingDocument, error) {
	return q.list(q.dirs.Intake)
}

// Invalid lists quarantined documents, oldest first.
func (q *Queue) Invalid() ([]PendingDocument, error) {
	return q.list(q.dirs.Invalid)
}

// Processing lists documents currently claimed or abandoned mid-claim.
func (q *Queue) Processing() ([]PendingDocument, error) {
	return q.list(q.dirs.Processing)
}

func (q *Queue) list(dir string) ([]PendingDocument, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, services.Wrap(services.ErrIO, "intake", "list", dir, err)
	}
	now := q.now()
	docs := make([]PendingDocument, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() || !q.accepts(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// Claimed by someone else between ReadDir and Info.
			continue
		}
		docs = append(docs, PendingDocument{
			Name:         entry.Name(),
			Path:         filepath.Join(dir, entry.Name()),
			Size:         info.Size(),
			ModTime:      info.ModTime(),
			DiscoveredAt: now,
		})
	}
	sort.SliceStable(docs, func(i, j int) bool {
		if !docs[i].ModTime.Equal(docs[j].ModTime) {
			return docs[i].ModTime.Before(docs[j].ModTime)
		}
		return docs[i].Name < docs[j].Name
	})
	return docs, nil
}

// accepts filters out OS artifacts and files of other types.
func (q *Queue) accepts(name string) bool {
	if IsArtifact(name) {
		return false
	}
	if q.extension == "" {
		return true
	}
	return strings.EqualFold(filepath.Ext(name), q.extension)
}

var artifactNames = map[string]struct{}{
	"thumbs.db":   {},
	"desktop.ini": {},
	"icon\r":      {},
}

// IsArtifact reports whether name is an operating system or editor file
// that never holds a coverage document.
func IsArtifact(name string) bool {
	if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "~$") {
		return true
	}
	_, ok := artifactNames[strings.ToLower(name)]
	return ok
}

// Claim moves doc from intake into processing. It returns
// ErrAlreadyClaimed when the file is gone from intake.
func (q *Queue) Claim(doc PendingDocument) (Claim, error) {
	src := filepath.Join(q.dirs.Intake, doc.Name)
	for attempt := 0; attempt < 3; attempt++ {
		dst := fileutil.AvailableName(q.dirs.Processing, doc.Name)
		err := fileutil.MoveDurable(src, dst)
		switch {
		case err == nil:
			claim := Claim{Name: filepath.Base(dst), Path: dst, Source: src, ClaimedAt: q.now()}
			q.logger.Debug("document claimed",
				logging.String(logging.FieldDocument, doc.Name),
				logging.String("path", dst),
				logging.String(logging.FieldEventType, "document_claimed"),
			)
			return claim, nil
		case errors.Is(err, fileutil.ErrExists):
			continue
		case errors.Is(err, fs.ErrNotExist):
			return Claim{}, ErrAlreadyClaimed
		default:
			return Claim{}, services.Wrap(services.ErrIO, "intake", "claim", doc.Name, err)
		}
	}
	return Claim{}, services.Wrap(services.ErrIO, "intake", "claim", doc.Name, fileutil.ErrExists)
}

// Delete removes a claimed document.
func (q *Queue) Delete(c Claim) error {
	if err := os.Remove(c.Path); err != nil {
		return services.Wrap(services.ErrIO, "intake", "delete", c.Name, err)
	}
	if err := fileutil.SyncDir(q.dirs.Processing); err != nil {
		return services.Wrap(services.ErrIO, "intake", "delete", c.Name, err)
	}
	return nil
}

// MoveToProcessed retains a handled document and returns its new path.
func (q *Queue) MoveToProcessed(c Claim) (string, error) {
	return q.moveClaim(c, q.dirs.Processed, "retain")
}

// MoveToInvalid quarantines a document and returns its new path.
func (q *Queue) MoveToInvalid(c Claim) (string, error) {
	return q.moveClaim(c, q.dirs.Invalid, "quarantine")
}

// Release returns a claimed document to intake for the next run.
func (q *Queue) Release(c Claim) (string, error) {
	return q.moveClaim(c, q.dirs.Intake, "release")
}

func (q *Queue) moveClaim(c Claim, dir, op string) (string, error) {
	name := originalName(c)
	for attempt := 0; attempt < 3; attempt++ {
		dst := fileutil.AvailableName(dir, name)
		err := fileutil.MoveDurable(c.Path, dst)
		if err == nil {
			return dst, nil
		}
		if !errors.Is(err, fileutil.ErrExists) {
			return "", services.Wrap(services.ErrIO, "intake", op, c.Name, err)
		}
	}
	return "", services.Wrap(services.ErrIO, "intake", op, c.Name, fmt.Errorf("no free name in %s", dir))
}

func originalName(c Claim) string {
	if c.Source != "" {
		return filepath.Base(c.Source)
	}
	return c.Name
}

// Requeue moves a quarantined document back into intake so the next run
// picks it up.
func (q *Queue) Requeue(name string) (string, error) {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "", fmt.Errorf("requeue: document name required")
	}
	src := filepath.Join(q.dirs.Invalid, name)
	if _, err := os.Stat(src); err != nil {
		return "", services.Wrap(services.ErrNotFound, "intake", "requeue", name, err)
	}
	return q.moveClaim(Claim{Name: name, Path: src}, q.dirs.Intake, "requeue")
}

// RecoverProcessing moves documents left in processing by an interrupted
// run back into intake. It returns the recovered paths.
func (q *Queue) RecoverProcessing() ([]string, error) {
	docs, err := q.list(q.dirs.Processing)
	if err != nil {
		return nil, err
	}
	recovered := make([]string, 0, len(docs))
	for _, doc := range docs {
		dst, err := q.moveClaim(Claim{Name: doc.Name, Path: doc.Path}, q.dirs.Intake, "recover")
		if err != nil {
			return recovered, err
		}
		q.logger.Info("recovered interrupted document",
			logging.String(logging.FieldDocument, doc.Name),
			logging.String("path", dst),
			logging.String(logging.FieldEventType, "document_recovered"),
		)
		recovered = append(recovered, dst)
	}
	return recovered, nil
}
