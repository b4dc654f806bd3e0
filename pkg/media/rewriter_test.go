package media

import (
	"context"
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "udacimak/pkg/errors"
	"udacimak/pkg/fetch"
	"udacimak/pkg/logger"
	"udacimak/pkg/report"
	"udacimak/pkg/storage"
)

// fakeFetcher writes a file for every reference it is asked for
type fakeFetcher struct {
	mu    sync.Mutex
	store *storage.Manager
	refs  []fetch.MediaReference
	fail  map[string]error
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{store: storage.NewManager(afero.NewMemMapFs()), fail: map[string]error{}}
}

func (f *fakeFetcher) FetchReference(ctx context.Context, ref fetch.MediaReference) (*fetch.LocalAsset, error) {
	f.mu.Lock()
	f.refs = append(f.refs, ref)
	f.mu.Unlock()

	if err, ok := f.fail[ref.URI]; ok {
		return nil, err
	}
	if err := f.store.WriteFile(ref.Dir+"/"+ref.Filename, []byte(ref.URI)); err != nil {
		return nil, err
	}
	return &fetch.LocalAsset{Path: ref.Dir + "/" + ref.Filename, Filename: ref.Filename}, nil
}

func (f *fakeFetcher) filenames() map[string]fetch.MediaReference {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]fetch.MediaReference)
	for _, r := range f.refs {
		out[r.URI] = r
	}
	return out
}

func newTestRewriter(f *fakeFetcher, rep *report.Collector) *Rewriter {
	return NewRewriter(f, 3, rep, logger.NewNopLogger())
}

func TestLocalizeWithoutReferencesIsUnchanged(t *testing.T) {
	f := newFakeFetcher()
	r := newTestRewriter(f, nil)

	in := "<p>Some   <b>text</b> with https://example.com/a.png in it</p>\n<img alt=x>"
	out, err := r.Localize(context.Background(), in, "/lesson", "atom1")
	require.NoError(t, err)

	assert.Equal(t, in, out)
	assert.Empty(t, f.refs)
	assert.False(t, f.store.IsDir("/lesson/media"))
}

func TestLocalizeRewritesImagesAndVideos(t *testing.T) {
	f := newFakeFetcher()
	r := newTestRewriter(f, nil)

	in := `<p><img src="https://example.com/images/a.png" alt="a"></p>` +
		`<video><source src="//videos.example.com/clip"></video>` +
		`<img src="http://lh3.googleusercontent.com/AbCd">`

	out, err := r.Localize(context.Background(), in, "/lesson", "12345")
	require.NoError(t, err)

	assert.Contains(t, out, `<img src="media/a.png" alt="a"/>`)
	assert.Contains(t, out, `<source src="media/unnamed-12345-0.mp4"/>`)
	assert.Contains(t, out, `<img src="media/unnamed-12345-2.gif"/>`)

	refs := f.filenames()
	require.Len(t, refs, 3)
	assert.Equal(t, "/lesson/media", refs["https://example.com/images/a.png"].Dir)
	assert.Equal(t, fetch.KindVideo, refs["https://videos.example.com/clip"].Kind)
	assert.Equal(t, 1, refs["https://example.com/images/a.png"].Index)
}

func TestLocalizeSyntheticNamesNeverCollide(t *testing.T) {
	f := newFakeFetcher()
	r := newTestRewriter(f, nil)

	in := `<video><source src="https://v.example.com/one"></video>` +
		`<img src="https://i.example.com/one"><img src="https://i.example.com/two">`

	_, err := r.Localize(context.Background(), in, "/lesson", "lbl")
	require.NoError(t, err)

	names := map[string]bool{}
	for _, ref := range f.filenames() {
		assert.False(t, names[ref.Filename], "duplicate name %s", ref.Filename)
		names[ref.Filename] = true
	}
	assert.Len(t, names, 3)
}

func TestLocalizeOnlyTouchesSrcAttributes(t *testing.T) {
	f := newFakeFetcher()
	r := newTestRewriter(f, nil)

	in := `<p>See https://example.com/a.png</p><img src="https://example.com/a.png" title="https://example.com/a.png">`
	out, err := r.Localize(context.Background(), in, "/lesson", "x")
	require.NoError(t, err)

	assert.Contains(t, out, `<p>See https://example.com/a.png</p>`)
	assert.Contains(t, out, `src="media/a.png"`)
	assert.Contains(t, out, `title="https://example.com/a.png"`)
}

func TestLocalizeDownloadsRepeatedURIOnce(t *testing.T) {
	f := newFakeFetcher()
	r := newTestRewriter(f, nil)

	in := `<img src="https://example.com/a.png"><img src="https://example.com/a.png">`
	out, err := r.Localize(context.Background(), in, "/lesson", "x")
	require.NoError(t, err)

	assert.Len(t, f.refs, 1)
	assert.Equal(t, `<img src="media/a.png"/><img src="media/a.png"/>`, out)
}

func TestLocalizeFailureKeepsRemoteURI(t *testing.T) {
	f := newFakeFetcher()
	f.fail["https://example.com/missing.png"] = &errs.Error{Kind: errs.KindNotFound, Code: 404}
	rep := report.NewCollector("/src", "/out", logger.NewNopLogger())
	r := newTestRewriter(f, rep)

	in := `<img src="https://example.com/missing.png"><img src="https://example.com/ok.png">`
	out, err := r.Localize(context.Background(), in, "/lesson", "x")
	require.NoError(t, err)

	assert.Contains(t, out, `<img src="https://example.com/missing.png"/>`)
	assert.Contains(t, out, `<img src="media/ok.png"/>`)

	failures := rep.Snapshot().Failures
	require.Len(t, failures, 1)
	assert.Equal(t, errs.KindNotFound, failures[0].Kind)
	assert.Equal(t, "image", failures[0].Component)
	assert.Equal(t, "https://example.com/missing.png", failures[0].URI)
}

func TestLocalizeSkipsLocalAndInlineSources(t *testing.T) {
	f := newFakeFetcher()
	r := newTestRewriter(f, nil)

	in := `<img src="img/local.png"><img src="data:image/png;base64,AAAA">`
	out, err := r.Localize(context.Background(), in, "/lesson", "x")
	require.NoError(t, err)

	assert.Equal(t, in, out)
	assert.Empty(t, f.refs)
}

func TestLocalizeBareHostIsRemote(t *testing.T) {
	f := newFakeFetcher()
	r := newTestRewriter(f, nil)

	out, err := r.Localize(context.Background(), `<img src="video.udacity-data.com/topher/a.png">`, "/lesson", "x")
	require.NoError(t, err)

	assert.Equal(t, `<img src="media/a.png"/>`, out)
	ref, ok := f.filenames()["https://video.udacity-data.com/topher/a.png"]
	require.True(t, ok)
	assert.Equal(t, "a.png", ref.Filename)

	assert.True(t, isRemote("cdn.example.com:8080/a.gif"))
	assert.False(t, isRemote("media/a.png"))
	assert.False(t, isRemote("a.png"))
	assert.False(t, isRemote("../img/a.png"))
}

func TestLocalizeFragmentsSharingLabelGetDistinctFiles(t *testing.T) {
	f := newFakeFetcher()
	r := newTestRewriter(f, nil)
	ctx := context.Background()

	first, err := r.Localize(ctx, `<img src="https://host/description-image" alt="a">`, "/lesson", "42")
	require.NoError(t, err)
	second, err := r.Localize(ctx, `<img src="https://host/feedback-image" alt="b">`, "/lesson", "42")
	require.NoError(t, err)

	assert.Contains(t, first, `src="media/unnamed-42-0.gif"`)
	assert.Contains(t, second, `src="media/unnamed-42-0-1.gif"`)

	data, err := f.store.ReadFile("/lesson/media/unnamed-42-0.gif")
	require.NoError(t, err)
	assert.Equal(t, "https://host/description-image", string(data))
	data, err = f.store.ReadFile("/lesson/media/unnamed-42-0-1.gif")
	require.NoError(t, err)
	assert.Equal(t, "https://host/feedback-image", string(data))

	again, err := r.Localize(ctx, `<img src="https://host/feedback-image">`, "/lesson", "42")
	require.NoError(t, err)
	assert.Contains(t, again, `src="media/unnamed-42-0-1.gif"`)
}

func TestLocalizeSameBasenameFromDifferentURIs(t *testing.T) {
	f := newFakeFetcher()
	r := newTestRewriter(f, nil)

	in := `<img src="https://a.example.com/x.png"><img src="https://b.example.com/x.png">`
	out, err := r.Localize(context.Background(), in, "/lesson", "7")
	require.NoError(t, err)

	assert.Equal(t, `<img src="media/x.png"/><img src="media/x-1.png"/>`, out)
	data, err := f.store.ReadFile("/lesson/media/x-1.png")
	require.NoError(t, err)
	assert.Equal(t, "https://b.example.com/x.png", string(data))
}

type countingFetcher struct {
	mu    sync.Mutex
	calls int
	gate  chan struct{}
}

func (c *countingFetcher) FetchReference(ctx context.Context, ref fetch.MediaReference) (*fetch.LocalAsset, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	<-c.gate
	return &fetch.LocalAsset{Filename: ref.Filename}, nil
}

func TestFetchReferenceCollapsesConcurrentRequests(t *testing.T) {
	c := &countingFetcher{gate: make(chan struct{})}
	r := NewRewriter(c, 2, nil, logger.NewNopLogger())
	ref := fetch.MediaReference{URI: "https://example.com/a.png", Dir: "/lesson/media", Filename: "a.png"}

	var wg sync.WaitGroup
	started := make(chan struct{}, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			started <- struct{}{}
			asset, err := r.FetchReference(context.Background(), ref)
			assert.NoError(t, err)
			assert.Equal(t, "a.png", asset.Filename)
		}()
	}
	<-started
	<-started
	close(c.gate)
	wg.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	assert.GreaterOrEqual(t, c.calls, 1)
	assert.LessOrEqual(t, c.calls, 2)
}

func TestLocalizeEmptyFragment(t *testing.T) {
	r := newTestRewriter(newFakeFetcher(), nil)
	out, err := r.Localize(context.Background(), "", "/lesson", "x")
	require.NoError(t, err)
	assert.Equal(t, "", out)
}
