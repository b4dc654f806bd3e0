package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"path/filepath"
	"time"

	"udacimak/pkg/config"
	errs "udacimak/pkg/errors"
	"udacimak/pkg/logger"
	"udacimak/pkg/naming"
	"udacimak/pkg/ratelimit"
	"udacimak/pkg/retry"
	"udacimak/pkg/storage"
)

// Client downloads remote assets into the output tree
type Client struct {
	httpClient  *http.Client
	headers     map[string]string
	store       *storage.Manager
	limiter     ratelimit.Limiter
	maxAttempts int
	backoff     retry.BackoffStrategy
	progress    ProgressReporter
	logger      logger.Logger
}

// NewClient creates an asset client. A nil limiter disables rate limiting.
func NewClient(store *storage.Manager, cfg *config.DownloadConfig, limiter ratelimit.Limiter, log logger.Logger) *Client {
	if cfg == nil {
		cfg = &config.DefaultConfig().Download
	}
	if limiter == nil {
		limiter = ratelimit.Unlimited{}
	}

	attempts := cfg.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: newTransport(),
		},
		headers: map[string]string{
			"User-Agent": cfg.UserAgent,
			"Origin":     cfg.Origin,
			"Referer":    cfg.Referer,
			"Accept":     "*/*",
		},
		store:       store,
		limiter:     limiter,
		maxAttempts: attempts,
		backoff:     retry.DefaultExponentialBackoff(),
		progress:    nopProgress{},
		logger:      logger.OrDefault(log),
	}
}

func newTransport() *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 100
	t.MaxIdleConnsPerHost = 20
	t.IdleConnTimeout = 30 * time.Second
	t.ResponseHeaderTimeout = 30 * time.Second
	return t
}

// SetHeader sets a custom header sent with every request
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// SetHTTPClient replaces the underlying HTTP client
func (c *Client) SetHTTPClient(hc *http.Client) {
	c.httpClient = hc
}

// SetBackoff replaces the delay strategy between retries
func (c *Client) SetBackoff(b retry.BackoffStrategy) {
	c.backoff = b
}

// SetProgress registers a progress reporter
func (c *Client) SetProgress(p ProgressReporter) {
	if p == nil {
		p = nopProgress{}
	}
	c.progress = p
}

// Store returns the storage manager assets are written to
func (c *Client) Store() *storage.Manager {
	return c.store
}

// Fetch downloads uri into dir/filename unless that file already exists.
// An empty uri means there is nothing to fetch and returns nil, nil.
// When filename is empty it is derived from the URI path.
func (c *Client) Fetch(ctx context.Context, uri, dir, filename string) (*LocalAsset, error) {
	uri = naming.NormalizeURI(uri)
	if uri == "" {
		return nil, nil
	}

	if filename == "" {
		filename = naming.FromURI(uri)
	} else {
		filename = naming.Sanitize(filename)
	}
	if filename == "" {
		return nil, &errs.Error{Kind: errs.KindParsing, Message: "cannot derive a file name", URI: uri}
	}

	asset := &LocalAsset{Path: filepath.Join(dir, filename), Filename: filename}

	if c.store.Exists(dir, filename) {
		asset.State = StateAlreadyPresent
		c.progress.SkipDownload(filename)
		logger.LogAsset(c.logger, "file", uri, filename, true, nil)
		return asset, nil
	}

	c.progress.StartDownload(filename)

	size, err := retry.DoWithResult(func() (int64, error) {
		return c.download(ctx, uri, dir, filename)
	}, &retry.Config{
		MaxAttempts: c.maxAttempts,
		Backoff:     c.backoff,
		RetryIf:     retry.DefaultRetryIf,
		Context:     ctx,
		Logger:      c.logger,
	})
	if err != nil {
		c.progress.FailDownload(filename, err)
		logger.LogAsset(c.logger, "file", uri, filename, false, err)
		return nil, err
	}

	asset.State = StateDownloaded
	asset.Size = size
	c.progress.CompleteDownload(filename, size)
	logger.LogAsset(c.logger, "file", uri, filename, false, nil)
	return asset, nil
}

// FetchReference downloads a media reference found in HTML
func (c *Client) FetchReference(ctx context.Context, ref MediaReference) (*LocalAsset, error) {
	return c.Fetch(ctx, ref.URI, ref.Dir, ref.Filename)
}

// download performs one GET and streams the body to disk
func (c *Client) download(ctx context.Context, uri, dir, filename string) (int64, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	resp, err := c.get(ctx, uri)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	body := &countingReader{r: resp.Body, name: filename, total: resp.ContentLength, progress: c.progress}
	n, err := c.store.Save(body, dir, filename)
	if err != nil {
		if ctx.Err() != nil {
			return n, ctx.Err()
		}
		return n, &errs.Error{Kind: errs.KindNetwork, Message: "failed to store response body", URI: uri, Err: err}
	}
	return n, nil
}

// countingReader reports the running byte count of a response body
type countingReader struct {
	r        io.Reader
	name     string
	total    int64
	read     int64
	progress ProgressReporter
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		c.read += int64(n)
		c.progress.Progress(c.name, c.read, c.total)
	}
	return n, err
}

// get sends the request and maps transport failures and status codes to errors
func (c *Client) get(ctx context.Context, uri string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, &errs.Error{Kind: errs.KindParsing, Message: "invalid URI", URI: uri, Err: err}
	}
	for key, value := range c.headers {
		if value != "" {
			req.Header.Set(key, value)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := float64(time.Since(start).Milliseconds())

	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		e := &errs.Error{Kind: errs.KindNetwork, Message: "request failed", URI: uri, Err: err}
		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
			e.DNS = true
			e.Message = "host not found"
		}
		return nil, e
	}

	logger.LogRequest(c.logger, req.Method, uri, resp.StatusCode, duration)

	if err := statusError(resp.StatusCode, uri); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp, nil
}

func statusError(code int, uri string) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound || code == http.StatusGone:
		return &errs.Error{Kind: errs.KindNotFound, Message: "asset not found", URI: uri, Code: code}
	case errs.IsRetryableStatusCode(code):
		return &errs.Error{Kind: errs.KindServerError, Message: fmt.Sprintf("server returned status %d", code), URI: uri, Code: code}
	default:
		return &errs.Error{Kind: errs.KindUnknown, Message: fmt.Sprintf("unexpected status %d", code), URI: uri, Code: code}
	}
}
