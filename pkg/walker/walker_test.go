package walker

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "udacimak/pkg/errors"
	"udacimak/pkg/fetch"
	"udacimak/pkg/logger"
	"udacimak/pkg/render"
	"udacimak/pkg/report"
	"udacimak/pkg/storage"
	"udacimak/pkg/youtube"
)

type passthroughMedia struct{}

func (passthroughMedia) Localize(ctx context.Context, fragment, dir, label string) (string, error) {
	return fragment, nil
}

type fakeImages struct{}

func (fakeImages) Fetch(ctx context.Context, uri, dir, filename string) (*fetch.LocalAsset, error) {
	if filename == "" {
		filename = filepath.Base(uri)
	}
	return &fetch.LocalAsset{Filename: filename}, nil
}

type fakeVideos struct {
	mu       sync.Mutex
	prefixes []string
}

func (f *fakeVideos) FetchVideo(ctx context.Context, id, dir, prefix, title string) (*youtube.Video, error) {
	if id == "" {
		return nil, nil
	}
	f.mu.Lock()
	f.prefixes = append(f.prefixes, prefix)
	f.mu.Unlock()
	return &youtube.Video{Filename: prefix + ". " + title + "-" + id + ".mp4"}, nil
}

type fixture struct {
	store  *storage.Manager
	walker *Walker
	videos *fakeVideos
	report *report.Collector
	log    *logger.TestLogger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:  storage.NewManager(afero.NewMemMapFs()),
		videos: &fakeVideos{},
		log:    logger.NewTestLogger(),
	}
	f.report = report.NewCollector("", "", f.log)

	r, err := render.New(render.Dependencies{
		Media:  passthroughMedia{},
		Images: fakeImages{},
		Videos: f.videos,
		Report: f.report,
	}, nil, f.log)
	require.NoError(t, err)

	f.walker = New(f.store, r, f.report, f.log)
	require.NoError(t, f.store.MkdirAll("/out"))
	return f
}

func (f *fixture) write(t *testing.T, p, data string) {
	t.Helper()
	require.NoError(t, f.store.WriteFile(p, []byte(data)))
}

func (f *fixture) read(t *testing.T, p string) string {
	t.Helper()
	data, err := f.store.ReadFile(p)
	require.NoError(t, err)
	return string(data)
}

const lessonJSON = `{"data": {"lesson": {
	"id": 100, "title": "%s", "summary": "About *this*", "duration": 600,
	"concepts": [
		{"id": 1, "title": "Welcome", "atoms": [
			{"id": 11, "semantic_type": "TextAtom", "text": "Hello **there**"},
			{"id": 12, "title": "Intro", "semantic_type": "VideoAtom", "video": {"youtube_id": "vid1"}}
		]},
		{"id": 2, "title": "Welcome", "atoms": [
			{"id": 21, "semantic_type": "HologramAtom"}
		]}
	],
	"resources": {"files": [{"name": "Slides", "uri": "https://example.com/slides.pdf"}]}
}}}`

func lesson(title string) string {
	return strings.Replace(lessonJSON, "%s", title, 1)
}

func TestRenderTreeChecks(t *testing.T) {
	f := newFixture(t)
	f.write(t, "/src/Course/data.json", `{"data": {"course": {"title": "C"}}}`)
	f.write(t, "/taken/data.json", `{}`)
	f.write(t, "/bare/readme.txt", `nothing`)
	f.write(t, "/odd/data.json", `{"data": {"lesson": {}}}`)

	tests := []struct {
		name           string
		source, target string
		kind           errs.Kind
	}{
		{"same directory", "/src/Course", "/src/Course/", errs.KindTargetConflict},
		{"missing target", "/src/Course", "/nowhere", errs.KindInvalidSourceTree},
		{"missing source", "/src/Missing", "/out", errs.KindInvalidSourceTree},
		{"target holds course data", "/src/Course", "/taken", errs.KindTargetConflict},
		{"target would hold source", "/src/Course", "/src", errs.KindTargetConflict},
		{"no data.json", "/bare", "/out", errs.KindInvalidSourceTree},
		{"unknown root", "/odd", "/out", errs.KindInvalidSourceTree},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.walker.RenderTree(context.Background(), tt.source, tt.target)
			require.Error(t, err)
			assert.Equal(t, tt.kind, errs.KindOf(err))
			assert.True(t, errs.IsFatal(err))
		})
	}

	require.NoError(t, f.store.MkdirAll("/src/Course/out"))
	err := f.walker.RenderTree(context.Background(), "/src/Course", "/src/Course/out")
	assert.True(t, errs.Is(err, errs.KindTargetConflict))
}

func TestRenderTreeCourse(t *testing.T) {
	f := newFixture(t)
	f.write(t, "/src/Intro to Go/data.json", `{"data": {"course": {"key": "ud1", "title": "Intro to Go", "summary": "Learn Go"}}}`)
	f.write(t, "/src/Intro to Go/Lesson 2/data.json", lesson("Second"))
	f.write(t, "/src/Intro to Go/Lesson 1/data.json", lesson("First"))
	require.NoError(t, f.store.MkdirAll("/src/Intro to Go/no lesson here"))

	require.NoError(t, f.walker.RenderTree(context.Background(), "/src/Intro to Go", "/out"))

	summary := f.read(t, "/out/Intro to Go/index.html")
	assert.Contains(t, summary, "<h1>Intro to Go</h1>")
	assert.Contains(t, summary, "Learn Go")
	assert.Less(t, strings.Index(summary, "Lesson%201/index.html"), strings.Index(summary, "Lesson%202/index.html"))
	assert.NotContains(t, summary, "no lesson here")

	page := f.read(t, "/out/Intro to Go/Lesson 1/index.html")
	assert.Contains(t, page, "<h1>First</h1>")
	assert.Contains(t, page, "10 min")
	assert.Contains(t, page, "<strong>there</strong>")
	assert.Contains(t, page, `id="welcome"`)
	assert.Contains(t, page, `id="welcome-2"`)
	assert.Contains(t, page, "<code>HologramAtom</code>")
	assert.Contains(t, page, `href="https://example.com/slides.pdf"`)
	assert.Contains(t, page, `src="01.02.%20Intro-vid1.mp4"`)

	assert.True(t, f.store.Exists("/out/Intro to Go/assets/css", "udacimak.css"))
	assert.True(t, f.store.Exists("/out/Intro to Go/Lesson 2", "index.html"))
	assert.Equal(t, []string{"01.02", "01.02"}, f.videos.prefixes)

	r := f.report.Snapshot()
	assert.Equal(t, 2, r.Lessons)
	assert.Empty(t, r.Failures)
	assert.False(t, f.store.Exists("/out/Intro to Go", report.FileName))
}

func TestRenderTreeNanodegree(t *testing.T) {
	f := newFixture(t)
	root := "/src/Deep Learning"
	f.write(t, root+"/data.json", `{"data": {"nanodegree": {"key": "nd101", "title": "Deep Learning", "hero_image": {"url": "https://img.example.com/hero.jpg"}}}}`)
	f.write(t, root+"/Part 01 Basics/Module 02 Networks/Perceptrons/data.json", lesson("Perceptrons"))
	f.write(t, root+"/Extras/Module 1/Bonus/data.json", lesson("Bonus"))
	f.write(t, root+"/Part 02/Misc/Broken/data.json", `{not json`)

	require.NoError(t, f.walker.RenderTree(context.Background(), root, "/out"))

	out := "/out/Deep Learning"
	assert.True(t, f.store.Exists(out+"/Part 01-Module 02-Perceptrons", "index.html"))
	assert.True(t, f.store.Exists(out+"/null-Module 1-Bonus", "index.html"))
	assert.False(t, f.store.Exists(out+"/Part 02-null-Broken", "index.html"))

	summary := f.read(t, out+"/index.html")
	assert.Contains(t, summary, "<h2>Part 01 Basics</h2>")
	assert.Contains(t, summary, "<h3>Module 02 Networks</h3>")
	assert.Contains(t, summary, `src="img/hero.jpg"`)

	r := f.report.Snapshot()
	assert.Equal(t, 2, r.Lessons)
	require.Len(t, r.Failures, 1)
	assert.Equal(t, "lesson", r.Failures[0].Component)
	assert.Equal(t, errs.KindParsing, r.Failures[0].Kind)

	saved, err := report.Load(f.store, filepath.Join(out, report.FileName))
	require.NoError(t, err)
	assert.Len(t, saved.Failures, 1)
}

func TestRenderTreeReplacesAssets(t *testing.T) {
	f := newFixture(t)
	f.write(t, "/src/C/data.json", `{"data": {"course": {"title": "C"}}}`)
	f.write(t, "/out/C/assets/stale.css", "old")

	require.NoError(t, f.walker.RenderTree(context.Background(), "/src/C", "/out"))
	assert.False(t, f.store.Exists("/out/C/assets", "stale.css"))
	assert.True(t, f.store.Exists("/out/C/assets/js", "udacimak.js"))
}

func TestRenderTreeCancelled(t *testing.T) {
	f := newFixture(t)
	f.write(t, "/src/C/data.json", `{"data": {"course": {"title": "C"}}}`)
	f.write(t, "/src/C/L1/data.json", lesson("L1"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := f.walker.RenderTree(ctx, "/src/C", "/out")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRenderAll(t *testing.T) {
	f := newFixture(t)
	f.write(t, "/courses/A/data.json", `{"data": {"course": {"title": "A"}}}`)
	f.write(t, "/courses/A/L1/data.json", lesson("L1"))
	f.write(t, "/courses/B/data.json", `{"data": {}}`)
	require.NoError(t, f.store.MkdirAll("/courses/not a course"))

	err := f.walker.RenderAll(context.Background(), "/courses", "/out")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "B:")
	assert.True(t, errs.Is(err, errs.KindInvalidSourceTree))
	assert.True(t, f.store.Exists("/out/A/L1", "index.html"))

	err = f.walker.RenderAll(context.Background(), "/courses/not a course", "/out")
	assert.True(t, errs.Is(err, errs.KindInvalidSourceTree))
}

func TestLessonDirName(t *testing.T) {
	assert.Equal(t, "Part 3-module 12-Lesson", LessonDirName("Part 3 - Intro", "module 12: x", "Lesson"))
	assert.Equal(t, "null-null-Lesson", LessonDirName("Intro", "Basics", "Lesson"))
}

func TestVideoPrefix(t *testing.T) {
	assert.Equal(t, "01.02", VideoPrefix(1, 2))
	assert.Equal(t, "12.100", VideoPrefix(12, 100))
}

func TestUniqueAnchor(t *testing.T) {
	seen := map[string]int{}
	assert.Equal(t, "what-is-go", uniqueAnchor(seen, "What is Go?", 1))
	assert.Equal(t, "what-is-go-2", uniqueAnchor(seen, "What is Go?", 2))
	assert.Equal(t, "concept-3", uniqueAnchor(seen, "", 3))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "", formatDuration(0))
	assert.Equal(t, "1 min", formatDuration(30))
	assert.Equal(t, "10 min", formatDuration(600))
}
