package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

// ProgressDisplay prints a single-line download status. It implements
// fetch.ProgressReporter.
type ProgressDisplay struct {
	mu        sync.Mutex
	out       io.Writer
	label     string
	verbose   bool
	inline    bool
	started   int
	completed int
	skipped   int
	failed    int
	bytes     int64
	current   string
	// bytes transferred for current; currentSize is -1 when unknown
	currentDone int64
	currentSize int64
	startTime   time.Time
	lineLength  int
}

// NewProgressDisplay creates a display writing to out. When out is not a
// terminal, or verbose is set, every event is printed on its own line.
func NewProgressDisplay(out io.Writer, label string, verbose bool) *ProgressDisplay {
	return &ProgressDisplay{
		out:       out,
		label:     label,
		verbose:   verbose,
		inline:    isTerminal(out) && !verbose,
		startTime: time.Now(),
	}
}

// SetLabel changes the prefix shown on the status line
func (p *ProgressDisplay) SetLabel(label string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.label = label
}

// StartDownload marks the start of a new download
func (p *ProgressDisplay) StartDownload(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.started++
	p.current = name
	p.currentDone, p.currentSize = 0, -1
	if p.inline {
		p.printLine()
	}
}

// SkipDownload marks an asset that already existed on disk
func (p *ProgressDisplay) SkipDownload(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.skipped++
	if p.verbose {
		fmt.Fprintf(p.out, "%s %s (exists)\n", Dim("-"), name)
	}
}

// Progress updates the byte count of an in-flight download
func (p *ProgressDisplay) Progress(name string, downloaded, total int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current = name
	p.currentDone, p.currentSize = downloaded, total
	if p.inline {
		p.printLine()
	}
}

// CompleteDownload marks a download as complete
func (p *ProgressDisplay) CompleteDownload(name string, size int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.completed++
	p.bytes += size
	switch {
	case p.inline:
		p.printLine()
	case p.verbose:
		fmt.Fprintf(p.out, "%s %s %s\n", Green("✓"), name, Dim(humanize.Bytes(uint64(size))))
	}
}

// FailDownload marks a download as failed
func (p *ProgressDisplay) FailDownload(name string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.failed++
	if p.inline {
		p.printLine()
		return
	}
	fmt.Fprintf(p.out, "%s %s: %v\n", Red("✗"), name, err)
}

// Status returns the current status line without control characters
func (p *ProgressDisplay) Status() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status()
}

func (p *ProgressDisplay) status() string {
	parts := []string{
		fmt.Sprintf("%d/%d assets", p.completed+p.failed, p.started),
		humanize.Bytes(uint64(p.bytes)),
	}
	if p.skipped > 0 {
		parts = append(parts, fmt.Sprintf("%d cached", p.skipped))
	}
	if p.failed > 0 {
		parts = append(parts, Red(fmt.Sprintf("%d failed", p.failed)))
	}
	if p.current != "" {
		current := truncate(p.current, 40)
		if p.currentDone > 0 {
			current += " " + transferred(p.currentDone, p.currentSize)
		}
		parts = append(parts, current)
	}
	line := strings.Join(parts, " • ")
	if p.label != "" {
		line = Cyan(p.label) + " " + line
	}
	return line
}

func (p *ProgressDisplay) printLine() {
	line := p.status()
	pad := ""
	if n := p.lineLength - len(line); n > 0 {
		pad = strings.Repeat(" ", n)
	}
	p.lineLength = len(line)
	fmt.Fprintf(p.out, "\r%s%s", line, pad)
}

// Complete prints the final totals
func (p *ProgressDisplay) Complete() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.inline {
		fmt.Fprintln(p.out)
	}
	fmt.Fprintf(p.out, "%s Downloaded %d assets (%s) in %s\n",
		Green("✓"),
		p.completed,
		humanize.Bytes(uint64(p.bytes)),
		time.Since(p.startTime).Round(time.Second),
	)
	if p.skipped > 0 {
		fmt.Fprintf(p.out, "  %s %d already present\n", Dim("•"), p.skipped)
	}
	if p.failed > 0 {
		fmt.Fprintf(p.out, "  %s %d downloads failed\n", Dim("•"), p.failed)
	}
}

func transferred(done, total int64) string {
	if total <= 0 {
		return humanize.Bytes(uint64(done))
	}
	return fmt.Sprintf("%s/%s", humanize.Bytes(uint64(done)), humanize.Bytes(uint64(total)))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
