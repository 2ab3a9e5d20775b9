package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"inkflow/internal/catalog"
	"inkflow/internal/config"
	"inkflow/internal/coverage"
	"inkflow/internal/intake"
	"inkflow/internal/notifications"
	"inkflow/internal/proof"
	"inkflow/internal/testsupport"
)

type recordingNotifier struct {
	mu      sync.Mutex
	events  []notifications.Event
	last    notifications.Payload
	ctxErrs []error
}

func (n *recordingNotifier) Publish(ctx context.Context, event notifications.Event, payload notifications.Payload) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if event == notifications.EventBatchCompleted {
		return nil
	}
	n.events = append(n.events, event)
	n.last = payload
	n.ctxErrs = append(n.ctxErrs, ctx.Err())
	return nil
}

type recordingProof struct {
	requests []proof.Request
}

func (p *recordingProof) Trigger(_ context.Context, req proof.Request) error {
	p.requests = append(p.requests, req)
	return nil
}

func (p *recordingProof) Close() error { return nil }

type fixture struct {
	cfg      *config.Config
	store    *catalog.Store
	queue    *intake.Queue
	notifier *recordingNotifier
	proof    *recordingProof
	runner   *Runner
}

func newFixture(t *testing.T, opts ...testsupport.ConfigOption) *fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	f := &fixture{
		cfg:      cfg,
		store:    testsupport.MustOpenCatalog(t, cfg),
		queue:    intake.NewFromConfig(cfg, nil),
		notifier: &recordingNotifier{},
		proof:    &recordingProof{},
	}
	runner, err := New(cfg, Deps{
		Store:    f.store,
		Queue:    f.queue,
		Notifier: f.notifier,
		Proof:    f.proof,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	f.runner = runner
	return f
}

func (f *fixture) drop(t *testing.T, name string, doc testsupport.Coverage) {
	t.Helper()
	testsupport.WriteCoverage(t, f.cfg.Paths.IntakeDir, name, doc)
}

func (f *fixture) run(t *testing.T) Summary {
	t.Helper()
	summary, err := f.runner.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	return summary
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func dirEntries(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir %s: %v", dir, err)
	}
	var names []string
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			names = append(names, entry.Name())
		}
	}
	return names
}

func foodserviceItem() catalog.Item {
	return catalog.Item{Number: 2, Size: "16oz Hot Cup", Coating: catalog.CoatingCoated, PrintLocation: "Plant 1", NineDigit: "111222333"}
}

func replaceAllDocument() testsupport.Coverage {
	return testsupport.Coverage{
		Disclaimer: "Colors shown are approximate.",
		Proofer:    "Epson 9900",
		Inks: []testsupport.Ink{
			{Book: "pantone+ solid coated", Name: "Warm Red", Type: "pantone", Angle: 15, LPI: 65, R: 1, HasCoverage: true, Percent: 12.5, MM2: 1000},
			{Book: "process", Name: "Black", Type: "process", Angle: 75, LPI: 150},
			{Name: "Die", Angle: 0, LPI: 0, R: 1, B: 1},
		},
	}
}

// Replace-all item with two existing records receives a three-ink document
// with one technical ink.
func TestScenarioReplaceAllRecreatesRecords(t *testing.T) {
	f := newFixture(t)
	itemID := testsupport.SeedItem(t, f.store, catalog.Job{ID: 12345, Workflow: "Foodservice"}, foodserviceItem())
	testsupport.SeedColors(t, f.store, itemID, catalog.ColorRecord{Color: "Old Blue"}, catalog.ColorRecord{Color: "Old Green"})
	if _, err := f.store.CreateColorDefinition(context.Background(), catalog.ColorDefinition{Name: "Warm Red", Coating: "C"}); err != nil {
		t.Fatalf("CreateColorDefinition: %v", err)
	}
	f.drop(t, "12345-2.xml", replaceAllDocument())

	summary := f.run(t)
	if summary.Committed != 1 || summary.Handled() != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	records := testsupport.ItemColors(t, f.store, itemID)
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	red, black := records[0], records[1]
	if red.Color != "Warm Red" || *red.Sequence != 1 || red.PlateCode != "111222333 1A" {
		t.Fatalf("unexpected first record: %+v", red)
	}
	if red.DefinitionName != "Warm Red" || red.Hex != "#ff0000" || red.CoveragePercent == nil || *red.CoveragePercent != 12.5 {
		t.Fatalf("unexpected first record data: %+v", red)
	}
	if black.Color != "Process Black" || *black.Sequence != 2 || black.PlateCode != "111222333 1B" {
		t.Fatalf("unexpected second record: %+v", black)
	}
	if black.CoveragePercent != nil || black.CoverageSqIn != nil {
		t.Fatalf("expected absent coverage to stay absent, got %+v", black)
	}

	item, err := f.store.Item(context.Background(), 12345, 2)
	if err != nil {
		t.Fatalf("Item: %v", err)
	}
	if item.Disclaimer != "Colors shown are approximate." || item.ArtworkPath != "file:////prepress/jobs/art.pdf" {
		t.Fatalf("unexpected item document fields: %+v", item)
	}

	entries, err := f.store.JobLog(context.Background(), 12345, 10)
	if err != nil {
		t.Fatalf("JobLog: %v", err)
	}
	if len(entries) != 1 || entries[0].Message != "Ink coverage for item 2 completed." || entries[0].Type != catalog.LogTypeCoverage {
		t.Fatalf("unexpected job log: %+v", entries)
	}

	if exists(filepath.Join(f.cfg.Paths.IntakeDir, "12345-2.xml")) || len(dirEntries(t, f.cfg.Intake.ProcessingDir)) != 0 {
		t.Fatal("expected document deleted after commit")
	}
	if len(f.proof.requests) != 1 || f.proof.requests[0].ItemID != itemID || f.proof.requests[0].Proofer != "Epson 9900" {
		t.Fatalf("expected one proof request, got %+v", f.proof.requests)
	}
}

// Strict item with three records receives only two importable inks.
func TestScenarioStrictCountMismatchQuarantines(t *testing.T) {
	f := newFixture(t)
	item := foodserviceItem()
	itemID := testsupport.SeedItem(t, f.store, catalog.Job{ID: 500, Workflow: "Beverage"}, item)
	angle := func(v float64) *float64 { return &v }
	testsupport.SeedColors(t, f.store, itemID,
		catalog.ColorRecord{Color: "Red", Angle: angle(15)},
		catalog.ColorRecord{Color: "Blue", Angle: angle(45)},
		catalog.ColorRecord{Color: "Green", Angle: angle(75)},
	)
	f.drop(t, "500-2.xml", testsupport.Coverage{Inks: []testsupport.Ink{
		{Name: "Red", Type: "pantone", Angle: 15, LPI: 65},
		{Name: "Blue", Type: "pantone", Angle: 45, LPI: 65},
		{Name: "Template", Angle: 0, LPI: 0},
	}})

	summary := f.run(t)
	if summary.Rejected != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	for _, record := range testsupport.ItemColors(t, f.store, itemID) {
		if record.Hex != "" || record.LPI != nil {
			t.Fatalf("expected record untouched, got %+v", record)
		}
	}
	if got := dirEntries(t, f.cfg.Intake.InvalidDir); len(got) != 1 || got[0] != "500-2.xml" {
		t.Fatalf("expected document quarantined, got %v", got)
	}
	entries, err := f.store.JobLog(context.Background(), 500, 10)
	if err != nil {
		t.Fatalf("JobLog: %v", err)
	}
	if len(entries) != 1 || !strings.Contains(entries[0].Message, "Mis-match in ink count between the ink coverage (2) and the item in the database (3)") {
		t.Fatalf("unexpected job log: %+v", entries)
	}
	if len(f.notifier.events) != 1 || f.notifier.events[0] != notifications.EventCoverageRejected {
		t.Fatalf("expected rejection notification, got %v", f.notifier.events)
	}
	if len(f.proof.requests) != 0 {
		t.Fatal("rejected document must not trigger a proof")
	}
}

func TestScenarioNoProofMarkerCommitsWithoutTrigger(t *testing.T) {
	f := newFixture(t, testsupport.WithRetainPolicy(config.RetainKeep))
	itemID := testsupport.SeedItem(t, f.store, catalog.Job{ID: 12345, Workflow: "Foodservice"}, foodserviceItem())
	f.drop(t, "12345-2_nojdf.xml", replaceAllDocument())

	summary := f.run(t)
	if summary.Committed != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if len(testsupport.ItemColors(t, f.store, itemID)) != 2 {
		t.Fatal("expected records committed")
	}
	if len(f.proof.requests) != 0 {
		t.Fatalf("expected no proof request, got %+v", f.proof.requests)
	}
	if got := dirEntries(t, f.cfg.Intake.ProcessedDir); len(got) != 1 || got[0] != "12345-2_nojdf.xml" {
		t.Fatalf("expected document retained, got %v", got)
	}
}

func TestScenarioCancelledDocumentIsHandledWithoutChanges(t *testing.T) {
	f := newFixture(t)
	itemID := testsupport.SeedItem(t, f.store, catalog.Job{ID: 12345, Workflow: "Beverage"}, foodserviceItem())
	testsupport.SeedColors(t, f.store, itemID, catalog.ColorRecord{Color: "Red"})
	doc := replaceAllDocument()
	doc.Cancelled = true
	f.drop(t, "12345-2.xml", doc)

	summary := f.run(t)
	if summary.Cancelled != 1 || summary.Rejected != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	records := testsupport.ItemColors(t, f.store, itemID)
	if len(records) != 1 || records[0].Hex != "" {
		t.Fatalf("expected records untouched, got %+v", records)
	}
	if len(dirEntries(t, f.cfg.Intake.InvalidDir)) != 0 || len(dirEntries(t, f.cfg.Paths.IntakeDir)) != 0 {
		t.Fatal("expected cancelled document disposed as handled")
	}
	if len(f.notifier.events)+len(f.proof.requests) != 0 {
		t.Fatal("cancelled document must not notify or trigger proofs")
	}
}

func TestMalformedAndUnknownDocumentsAreIsolated(t *testing.T) {
	f := newFixture(t)
	itemID := testsupport.SeedItem(t, f.store, catalog.Job{ID: 12345, Workflow: "Foodservice"}, foodserviceItem())

	if err := os.WriteFile(filepath.Join(f.cfg.Paths.IntakeDir, "12345-1.xml"), []byte("<not-xml"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(f.cfg.Paths.IntakeDir, "notes.xml"), []byte("<x/>"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	f.drop(t, "999-1.xml", replaceAllDocument())
	f.drop(t, "12345-2.xml", replaceAllDocument())

	summary := f.run(t)
	if summary.Malformed != 3 || summary.Committed != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if got := dirEntries(t, f.cfg.Intake.InvalidDir); len(got) != 3 {
		t.Fatalf("expected three quarantined documents, got %v", got)
	}
	if len(testsupport.ItemColors(t, f.store, itemID)) != 2 {
		t.Fatal("expected the good document committed despite earlier failures")
	}
}

func TestPanicIsRecoveredAndBatchContinues(t *testing.T) {
	f := newFixture(t)
	testsupport.SeedItem(t, f.store, catalog.Job{ID: 12345, Workflow: "Foodservice"}, foodserviceItem())
	f.drop(t, "12345-1.xml", replaceAllDocument())
	f.drop(t, "12345-2.xml", replaceAllDocument())

	parser := coverage.Parser{}
	f.runner.parse = func(path string) (*coverage.Document, error) {
		if strings.HasSuffix(path, "12345-1.xml") {
			panic("unexpected nil")
		}
		return parser.ParseFile(path)
	}

	summary := f.run(t)
	if summary.Failed != 1 || summary.Committed != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if got := dirEntries(t, f.cfg.Intake.InvalidDir); len(got) != 1 || got[0] != "12345-1.xml" {
		t.Fatalf("expected panicking document quarantined, got %v", got)
	}
	if len(f.notifier.events) != 1 || f.notifier.events[0] != notifications.EventInternalError {
		t.Fatalf("expected internal error notification, got %v", f.notifier.events)
	}
}

func TestDocumentTimeoutStillRoutesOutcome(t *testing.T) {
	f := newFixture(t)
	testsupport.SeedItem(t, f.store, catalog.Job{ID: 12345, Workflow: "Foodservice"}, foodserviceItem())
	f.drop(t, "12345-2.xml", replaceAllDocument())

	f.runner.timeout = 50 * time.Millisecond
	parser := coverage.Parser{}
	f.runner.parse = func(path string) (*coverage.Document, error) {
		time.Sleep(100 * time.Millisecond)
		return parser.ParseFile(path)
	}

	summary := f.run(t)
	if summary.Failed != 1 || summary.Committed != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if got := dirEntries(t, f.cfg.Intake.InvalidDir); len(got) != 1 || got[0] != "12345-2.xml" {
		t.Fatalf("expected timed out document quarantined, got %v", got)
	}
	if len(f.notifier.events) != 1 || f.notifier.events[0] != notifications.EventInternalError {
		t.Fatalf("expected internal error notification, got %v", f.notifier.events)
	}
	if err := f.notifier.ctxErrs[0]; err != nil {
		t.Fatalf("notification published on a finished context: %v", err)
	}
}

func TestFailFastSurfacesInternalErrors(t *testing.T) {
	f := newFixture(t, testsupport.WithFailFast())
	f.drop(t, "12345-2.xml", replaceAllDocument())
	boom := errors.New("boom")
	f.runner.parse = func(string) (*coverage.Document, error) { return nil, boom }

	_, err := f.runner.RunOnce(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected raw error surfaced, got %v", err)
	}
	if got := dirEntries(t, f.cfg.Intake.ProcessingDir); len(got) != 1 {
		t.Fatalf("expected document left in processing for inspection, got %v", got)
	}
}

func TestCancelledContextDrainsWithoutClaiming(t *testing.T) {
	f := newFixture(t)
	f.drop(t, "12345-2.xml", replaceAllDocument())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := f.runner.RunOnce(ctx)
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if !summary.Drained || summary.Handled() != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if got := dirEntries(t, f.cfg.Paths.IntakeDir); len(got) != 1 {
		t.Fatalf("expected document left in intake, got %v", got)
	}
}

func TestRecoverReturnsAbandonedClaims(t *testing.T) {
	f := newFixture(t)
	testsupport.WriteCoverage(t, f.cfg.Intake.ProcessingDir, "12345-2.xml", replaceAllDocument())

	recovered, err := f.runner.Recover()
	if err != nil {
		t.Fatalf("Recover: %v", err)
	}
	if len(recovered) != 1 || !exists(filepath.Join(f.cfg.Paths.IntakeDir, "12345-2.xml")) {
		t.Fatalf("expected claim recovered, got %v", recovered)
	}
}

func TestSuccessLogSequenceIsMonotonic(t *testing.T) {
	f := newFixture(t)
	testsupport.SeedItem(t, f.store, catalog.Job{ID: 12345, Workflow: "Foodservice"}, foodserviceItem())

	var last int64
	for i := 0; i < 3; i++ {
		f.drop(t, "12345-2.xml", replaceAllDocument())
		f.run(t)
		entries, err := f.store.JobLog(context.Background(), 12345, 1)
		if err != nil || len(entries) != 1 {
			t.Fatalf("JobLog = %v, %v", entries, err)
		}
		if entries[0].Seq <= last {
			t.Fatalf("expected increasing sequence, got %d after %d", entries[0].Seq, last)
		}
		last = entries[0].Seq
	}
}
