// Package media localizes images and videos referenced from rendered HTML.
package media

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/sync/singleflight"

	"udacimak/internal/downloader"
	"udacimak/pkg/fetch"
	"udacimak/pkg/logger"
	"udacimak/pkg/naming"
	"udacimak/pkg/report"
)

var bareHost = regexp.MustCompile(`^[a-z0-9-]+(?:\.[a-z0-9-]+)*\.[a-z]{2,}(?::\d+)?/`)

// Dir is the subdirectory of a lesson that localized media is stored in
const Dir = "media"

// Fetcher downloads a single media reference
type Fetcher interface {
	FetchReference(ctx context.Context, ref fetch.MediaReference) (*fetch.LocalAsset, error)
}

// Rewriter downloads the media of HTML fragments and points them at the local copies
type Rewriter struct {
	fetcher Fetcher
	workers int
	group   singleflight.Group
	names   *naming.Registry
	report  *report.Collector
	logger  logger.Logger
}

// NewRewriter creates a rewriter downloading through fetcher with at most workers parallel downloads
func NewRewriter(fetcher Fetcher, workers int, rep *report.Collector, log logger.Logger) *Rewriter {
	if workers < 1 {
		workers = 1
	}
	return &Rewriter{
		fetcher: fetcher,
		workers: workers,
		names:   naming.NewRegistry(),
		report:  rep,
		logger:  logger.OrDefault(log),
	}
}

// reference is one matched src attribute
type reference struct {
	attr *html.Attribute
	ref  fetch.MediaReference
}

// FetchReference downloads ref, collapsing concurrent requests for the same local file
func (r *Rewriter) FetchReference(ctx context.Context, ref fetch.MediaReference) (*fetch.LocalAsset, error) {
	key := filepath.Join(ref.Dir, ref.Filename)
	v, err, _ := r.group.Do(key, func() (interface{}, error) {
		return r.fetcher.FetchReference(ctx, ref)
	})
	if err != nil {
		return nil, err
	}
	asset, _ := v.(*fetch.LocalAsset)
	return asset, nil
}

// Localize downloads every <video><source src> and <img src> in fragment into
// dir/media and rewrites those src attributes to media/<file>.
//
// Videos are numbered first, then images, with a single running index so
// synthetic names never collide. A reference that fails to download keeps its
// remote URI. A fragment without remote references is returned unchanged.
func (r *Rewriter) Localize(ctx context.Context, fragment, dir, label string) (string, error) {
	if strings.TrimSpace(fragment) == "" {
		return fragment, nil
	}

	nodes, err := html.ParseFragment(strings.NewReader(fragment), &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	})
	if err != nil {
		return fragment, fmt.Errorf("failed to parse html: %w", err)
	}

	root := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	for _, n := range nodes {
		root.AppendChild(n)
	}

	refs := r.collect(goquery.NewDocumentFromNode(root), dir, label)
	if len(refs) == 0 {
		return fragment, nil
	}

	jobs := make([]downloader.AssetJob, 0, len(refs))
	first := make(map[string]int)
	for _, ref := range refs {
		if _, seen := first[ref.ref.URI]; seen {
			continue
		}
		first[ref.ref.URI] = len(jobs)
		jobs = append(jobs, downloader.AssetJob{Ref: ref.ref})
	}

	pool := downloader.NewWorkerPool(ctx, r.workers, r, r.logger)
	results := pool.Run(jobs)

	for _, ref := range refs {
		result := results[first[ref.ref.URI]]
		if result.Error != nil || result.Asset == nil {
			continue
		}
		ref.attr.Val = Dir + "/" + result.Asset.Filename
	}
	for _, result := range results {
		if result.Error != nil {
			r.report.Record(string(result.Job.Ref.Kind), result.Job.Ref.URI, result.Job.Ref.Dir, result.Error)
		}
	}

	var buf bytes.Buffer
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return fragment, fmt.Errorf("failed to render html: %w", err)
		}
	}
	return buf.String(), nil
}

// collect finds the remote media references in document order, videos first
func (r *Rewriter) collect(doc *goquery.Document, dir, label string) []reference {
	var refs []reference
	index := 0
	mediaDir := filepath.Join(dir, Dir)

	add := func(kind fetch.MediaKind, defaultExt string) func(int, *goquery.Selection) {
		return func(_ int, s *goquery.Selection) {
			i := index
			index++

			attr := srcAttr(s.Get(0))
			if attr == nil || !isRemote(attr.Val) {
				return
			}

			uri := naming.NormalizeURI(attr.Val)
			filename := naming.FromURI(uri)
			if !naming.HasExt(uri) || filename == "" {
				filename = naming.Synthetic(label, i, defaultExt)
			}
			filename = r.names.Claim(mediaDir, filename, uri)

			refs = append(refs, reference{
				attr: attr,
				ref: fetch.MediaReference{
					URI:      uri,
					Dir:      mediaDir,
					Filename: filename,
					Index:    i,
					Kind:     kind,
				},
			})
		}
	}

	doc.Find("video source[src]").Each(add(fetch.KindVideo, ".mp4"))
	doc.Find("img[src]").Each(add(fetch.KindImage, ".gif"))
	return refs
}

func srcAttr(n *html.Node) *html.Attribute {
	if n == nil {
		return nil
	}
	for i := range n.Attr {
		if n.Attr[i].Namespace == "" && n.Attr[i].Key == "src" {
			return &n.Attr[i]
		}
	}
	return nil
}

// isRemote reports whether src points at a network location rather than a
// local path or inline data. Scheme-less sources count as remote when they
// start with a dotted host name, e.g. video.udacity-data.com/a.png.
func isRemote(src string) bool {
	s := strings.ToLower(strings.TrimSpace(src))
	return strings.HasPrefix(s, "http://") ||
		strings.HasPrefix(s, "https://") ||
		strings.HasPrefix(s, "ftp://") ||
		strings.HasPrefix(s, "//") ||
		bareHost.MatchString(s)
}
