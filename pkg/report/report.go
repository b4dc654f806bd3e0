package report

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	errs "udacimak/pkg/errors"
	"udacimak/pkg/logger"
	"udacimak/pkg/storage"
)

// FileName is the report written into the course root when something failed
const FileName = "render-report.json"

// Version of the report format
const Version = 1

// Entry is a single non-fatal failure
type Entry struct {
	Kind      errs.Kind `json:"kind"`
	Component string    `json:"component"`
	URI       string    `json:"uri,omitempty"`
	Path      string    `json:"path,omitempty"`
	Message   string    `json:"message"`
	Time      time.Time `json:"time"`
}

// Report summarises one render run
type Report struct {
	RunID      string    `json:"run_id"`
	Source     string    `json:"source"`
	Target     string    `json:"target"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
	Downloaded int       `json:"downloaded"`
	Skipped    int       `json:"skipped"`
	Bytes      int64     `json:"bytes"`
	Lessons    int       `json:"lessons"`
	Failures   []Entry   `json:"failures"`
	Version    int       `json:"version"`
}

// Collector accumulates failures and counters from concurrent downloads.
// A nil *Collector ignores everything, so components can run without one.
type Collector struct {
	mu     sync.Mutex
	report Report
	logger logger.Logger
}

// NewCollector starts a report for rendering source into target
func NewCollector(source, target string, log logger.Logger) *Collector {
	c := &Collector{logger: logger.OrDefault(log)}
	c.Begin(source, target)
	return c
}

// Begin discards everything collected so far and starts a new run for
// rendering source into target
func (c *Collector) Begin(source, target string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.report = Report{
		RunID:     uuid.NewString(),
		Source:    source,
		Target:    target,
		StartedAt: time.Now(),
		Failures:  []Entry{},
		Version:   Version,
	}
}

// RunID returns the identifier of this run
func (c *Collector) RunID() string {
	if c == nil {
		return ""
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.report.RunID
}

// Record adds a failure. component names what failed (image, video, lesson, ...),
// uri is the remote reference and path the local place it belonged to.
func (c *Collector) Record(component, uri, path string, err error) {
	if c == nil || err == nil {
		return
	}

	entry := Entry{
		Kind:      errs.KindOf(err),
		Component: component,
		URI:       uri,
		Path:      path,
		Message:   err.Error(),
		Time:      time.Now(),
	}

	c.mu.Lock()
	c.report.Failures = append(c.report.Failures, entry)
	runID := c.report.RunID
	c.mu.Unlock()

	c.logger.WithError(err).WarnWithFields("Recorded failure", map[string]interface{}{
		"run_id":    runID,
		"component": component,
		"kind":      string(entry.Kind),
		"uri":       uri,
	})
}

// AddDownload counts a finished download of size bytes
func (c *Collector) AddDownload(size int64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.report.Downloaded++
	c.report.Bytes += size
}

// AddSkipped counts an asset that was already present
func (c *Collector) AddSkipped() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.report.Skipped++
}

// AddLesson counts a rendered lesson
func (c *Collector) AddLesson() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.report.Lessons++
}

// HasFailures reports whether any failure was recorded
func (c *Collector) HasFailures() bool {
	if c == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.report.Failures) > 0
}

// Snapshot returns a copy of the report so far
func (c *Collector) Snapshot() Report {
	if c == nil {
		return Report{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	r := c.report
	r.Failures = append([]Entry(nil), c.report.Failures...)
	return r
}

// Finish stamps the end time and returns the final report
func (c *Collector) Finish() Report {
	if c == nil {
		return Report{}
	}
	c.mu.Lock()
	c.report.FinishedAt = time.Now()
	c.mu.Unlock()
	return c.Snapshot()
}

// Save writes the report as dir/render-report.json when failures were recorded,
// and removes a stale report otherwise. It returns the path written, if any.
func (c *Collector) Save(store *storage.Manager, dir string) (string, error) {
	if c == nil {
		return "", nil
	}
	path := filepath.Join(dir, FileName)
	r := c.Snapshot()

	if len(r.Failures) == 0 {
		return "", store.Remove(path)
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}
	if err := store.WriteFile(path, data); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}

	c.logger.InfoWithFields("Render report saved", map[string]interface{}{
		"run_id":   r.RunID,
		"path":     path,
		"failures": len(r.Failures),
	})
	return path, nil
}

// Load reads a saved report
func Load(store *storage.Manager, path string) (*Report, error) {
	data, err := store.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, &errs.Error{Kind: errs.KindParsing, Message: "invalid report", URI: path, Err: err}
	}
	return &r, nil
}

// CountByKind groups failures by error kind
func (r Report) CountByKind() map[errs.Kind]int {
	counts := make(map[errs.Kind]int)
	for _, f := range r.Failures {
		counts[f.Kind]++
	}
	return counts
}

// Summary renders a short human readable description of the run
func (r Report) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s lessons, %s assets downloaded (%s), %s already present",
		humanize.Comma(int64(r.Lessons)),
		humanize.Comma(int64(r.Downloaded)),
		humanize.Bytes(uint64(r.Bytes)),
		humanize.Comma(int64(r.Skipped)))

	if !r.FinishedAt.IsZero() {
		fmt.Fprintf(&b, " in %s", r.FinishedAt.Sub(r.StartedAt).Round(time.Second))
	}

	if len(r.Failures) == 0 {
		b.WriteString(", no failures")
		return b.String()
	}

	counts := r.CountByKind()
	kinds := make([]string, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)

	fmt.Fprintf(&b, ", %d failures (", len(r.Failures))
	for i, k := range kinds {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s: %d", k, counts[errs.Kind(k)])
	}
	b.WriteString(")")
	return b.String()
}

// StartDownload implements fetch.ProgressReporter
func (c *Collector) StartDownload(name string) {}

// SkipDownload implements fetch.ProgressReporter
func (c *Collector) SkipDownload(name string) { c.AddSkipped() }

// Progress implements fetch.ProgressReporter. Only finished sizes are counted.
func (c *Collector) Progress(name string, downloaded, total int64) {}

// CompleteDownload implements fetch.ProgressReporter
func (c *Collector) CompleteDownload(name string, size int64) { c.AddDownload(size) }

// FailDownload implements fetch.ProgressReporter. Failures are recorded by
// callers through Record, which knows the URI and the component.
func (c *Collector) FailDownload(name string, err error) {}
