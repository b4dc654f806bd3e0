package report

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "udacimak/pkg/errors"
	"udacimak/pkg/logger"
	"udacimak/pkg/storage"
)

func TestCollectorRecord(t *testing.T) {
	log := logger.NewTestLogger()
	c := NewCollector("/src", "/out", log)
	require.NotEmpty(t, c.RunID())

	c.Record("image", "https://example.com/a.png", "/out/course/lesson/img", &errs.Error{Kind: errs.KindNotFound, Code: 404})
	c.Record("video", "", "", nil)

	r := c.Snapshot()
	require.Len(t, r.Failures, 1)
	assert.Equal(t, errs.KindNotFound, r.Failures[0].Kind)
	assert.Equal(t, "image", r.Failures[0].Component)
	assert.Equal(t, "https://example.com/a.png", r.Failures[0].URI)
	assert.True(t, c.HasFailures())
	assert.True(t, log.HasMessage("Recorded failure"))
}

func TestCollectorConcurrentUse(t *testing.T) {
	c := NewCollector("/src", "/out", logger.NewNopLogger())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.AddDownload(10)
			c.Record("media", "u", "p", errors.New("boom"))
		}()
	}
	wg.Wait()

	r := c.Finish()
	assert.Equal(t, 50, r.Downloaded)
	assert.Equal(t, int64(500), r.Bytes)
	assert.Len(t, r.Failures, 50)
	assert.Equal(t, errs.KindUnknown, r.Failures[0].Kind)
	assert.False(t, r.FinishedAt.IsZero())
}

func TestNilCollectorIsSafe(t *testing.T) {
	var c *Collector
	c.Record("image", "u", "p", errors.New("x"))
	c.AddDownload(1)
	c.AddSkipped()
	c.AddLesson()
	assert.False(t, c.HasFailures())
	path, err := c.Save(nil, "/out")
	assert.NoError(t, err)
	assert.Empty(t, path)
}

func TestSaveAndLoad(t *testing.T) {
	store := storage.NewManager(afero.NewMemMapFs())
	c := NewCollector("/src", "/out", logger.NewNopLogger())
	c.Record("video", "https://www.youtube.com/watch?v=x", "/out/c/l", &errs.Error{Kind: errs.KindVideoPrivate})

	path, err := c.Save(store, "/out/c")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/out/c", FileName), path)

	loaded, err := Load(store, path)
	require.NoError(t, err)
	assert.Equal(t, c.RunID(), loaded.RunID)
	require.Len(t, loaded.Failures, 1)
	assert.Equal(t, errs.KindVideoPrivate, loaded.Failures[0].Kind)
	assert.Equal(t, Version, loaded.Version)
}

func TestSaveWithoutFailuresRemovesStaleReport(t *testing.T) {
	store := storage.NewManager(afero.NewMemMapFs())
	require.NoError(t, store.WriteFile("/out/c/"+FileName, []byte("{}")))

	c := NewCollector("/src", "/out", logger.NewNopLogger())
	path, err := c.Save(store, "/out/c")
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.False(t, store.Exists("/out/c", FileName))
}

func TestSummary(t *testing.T) {
	r := Report{
		Lessons:    3,
		Downloaded: 1200,
		Bytes:      5 * 1000 * 1000,
		Skipped:    2,
		Failures: []Entry{
			{Kind: errs.KindNotFound},
			{Kind: errs.KindNotFound},
			{Kind: errs.KindVideoPrivate},
		},
	}

	s := r.Summary()
	assert.Contains(t, s, "3 lessons")
	assert.Contains(t, s, "1,200 assets downloaded (5.0 MB)")
	assert.Contains(t, s, "3 failures (not_found: 2, video_private: 1)")

	assert.Contains(t, Report{}.Summary(), "no failures")
}

func TestCollectorBegin(t *testing.T) {
	c := NewCollector("/a", "/out/a", logger.NewNopLogger())
	first := c.RunID()
	c.Record("image", "https://example.com/x.png", "", errs.New(errs.KindNotFound, "gone"))
	c.AddLesson()

	c.Begin("/b", "/out/b")
	r := c.Snapshot()
	assert.NotEqual(t, first, r.RunID)
	assert.Equal(t, "/b", r.Source)
	assert.Empty(t, r.Failures)
	assert.Zero(t, r.Lessons)

	var nilCollector *Collector
	nilCollector.Begin("/x", "/y")
}

func TestCollectorBeginDuringRecord(t *testing.T) {
	c := NewCollector("/a", "/out/a", logger.NewNopLogger())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			c.Record("image", "u", "p", errors.New("boom"))
			_ = c.RunID()
		}()
		go func() {
			defer wg.Done()
			c.Begin("/b", "/out/b")
		}()
	}
	wg.Wait()

	assert.NotEmpty(t, c.RunID())
	assert.Equal(t, "/b", c.Snapshot().Source)
}
