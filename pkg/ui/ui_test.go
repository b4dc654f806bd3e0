package ui

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordingSender struct {
	titles []string
	err    error
}

func (r *recordingSender) Send(title, message string) error {
	r.titles = append(r.titles, title)
	return r.err
}

func TestColorsDisabled(t *testing.T) {
	SetColor(false)
	assert.Equal(t, "plain", Red("plain"))

	SetColor(true)
	defer SetColor(false)
	assert.Equal(t, "\033[31mplain\033[0m", Red("plain"))
}

func TestPrintHelpers(t *testing.T) {
	SetColor(false)
	var buf bytes.Buffer
	old := Output
	Output = &buf
	defer func() { Output = old }()

	PrintError("render failed", errors.New("boom"))
	PrintWarning("careful")
	PrintInfo("Source", "/tmp/course")

	assert.Equal(t, "render failed: boom\ncareful\nSource: /tmp/course\n", buf.String())
}

func TestProgressDisplayVerbose(t *testing.T) {
	SetColor(false)
	var buf bytes.Buffer
	p := NewProgressDisplay(&buf, "Lesson", true)

	p.StartDownload("a.png")
	p.CompleteDownload("a.png", 2048)
	p.StartDownload("b.png")
	p.FailDownload("b.png", errors.New("404"))
	p.SkipDownload("c.png")

	out := buf.String()
	assert.Contains(t, out, "✓ a.png 2.0 kB")
	assert.Contains(t, out, "✗ b.png: 404")
	assert.Contains(t, out, "- c.png (exists)")

	status := p.Status()
	assert.Contains(t, status, "Lesson 2/2 assets")
	assert.Contains(t, status, "1 cached")
	assert.Contains(t, status, "1 failed")

	buf.Reset()
	p.Complete()
	assert.Contains(t, buf.String(), "Downloaded 1 assets (2.0 kB)")
	assert.Contains(t, buf.String(), "1 downloads failed")
}

func TestProgressDisplayQuietNonTerminal(t *testing.T) {
	SetColor(false)
	var buf bytes.Buffer
	p := NewProgressDisplay(&buf, "", false)

	p.StartDownload("a.png")
	p.CompleteDownload("a.png", 10)
	assert.Empty(t, buf.String())

	p.FailDownload("b.png", errors.New("timeout"))
	assert.Equal(t, "✗ b.png: timeout\n", buf.String())
}

func TestProgressDisplayShowsBytes(t *testing.T) {
	SetColor(false)
	var buf bytes.Buffer
	p := NewProgressDisplay(&buf, "", false)

	p.StartDownload("video.mp4")
	assert.Contains(t, p.Status(), "video.mp4")
	assert.NotContains(t, p.Status(), "kB")

	p.Progress("video.mp4", 1500, 3000)
	assert.Contains(t, p.Status(), "video.mp4 1.5 kB/3.0 kB")

	p.Progress("video.mp4", 2000, -1)
	assert.Contains(t, p.Status(), "video.mp4 2.0 kB")
	assert.NotContains(t, p.Status(), "kB/")
	assert.Empty(t, buf.String())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}

func TestNotifier(t *testing.T) {
	SetColor(false)
	var buf bytes.Buffer
	sender := &recordingSender{err: errors.New("no display")}
	n := NewNotifierWith(&buf, sender)

	n.SendSuccess("Render complete", "3 lessons")
	n.SendError("Render failed", "bad tree")

	assert.Equal(t, "\nRender complete: 3 lessons\n\nRender failed: bad tree\n", buf.String())
	assert.Equal(t, []string{"Render complete", "Render failed"}, sender.titles)

	quiet := NewNotifierWith(&buf, nil)
	quiet.SendSuccess("x", "y")
}
