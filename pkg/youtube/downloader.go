package youtube

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"udacimak/pkg/config"
	errs "udacimak/pkg/errors"
	"udacimak/pkg/fetch"
	"udacimak/pkg/logger"
	"udacimak/pkg/naming"
	"udacimak/pkg/ratelimit"
	"udacimak/pkg/storage"
)

// Video is a downloaded video and its caption tracks
type Video struct {
	// Filename is relative to the lesson directory.
	Filename  string
	Subtitles []Subtitle
}

// Downloader fetches YouTube videos into lesson directories
type Downloader struct {
	runner        Runner
	store         *storage.Manager
	throttle      *ratelimit.Throttle
	subtitles     *Subtitles
	qualities     []string
	withSubtitles bool
	verbose       bool
	progress      fetch.ProgressReporter
	logger        logger.Logger
}

// NewDownloader creates a video downloader. A nil throttle means no spacing between downloads.
func NewDownloader(runner Runner, store *storage.Manager, throttle *ratelimit.Throttle, cfg *config.Config, log logger.Logger) *Downloader {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if throttle == nil {
		throttle = ratelimit.NewThrottle(0)
	}
	log = logger.OrDefault(log)

	qualities := cfg.Video.Qualities
	if len(qualities) == 0 {
		qualities = []string{"worst"}
	}

	return &Downloader{
		runner:        runner,
		store:         store,
		throttle:      throttle,
		subtitles:     NewSubtitles(runner, store, cfg.Render.YtdlpVerbose, log),
		qualities:     qualities,
		withSubtitles: cfg.Render.Subtitles,
		verbose:       cfg.Render.YtdlpVerbose,
		logger:        log,
	}
}

// SetProgress registers a progress reporter for video downloads
func (d *Downloader) SetProgress(p fetch.ProgressReporter) {
	d.progress = p
}

// Subtitles returns the subtitle fetcher used by the downloader
func (d *Downloader) Subtitles() *Subtitles {
	return d.subtitles
}

// FetchVideo downloads video id into dir as "<prefix>. <title>-<id>.mp4".
// An existing file is reused together with its local subtitles. An empty id returns nil.
func (d *Downloader) FetchVideo(ctx context.Context, id, dir, prefix, title string) (*Video, error) {
	if strings.TrimSpace(id) == "" {
		return nil, nil
	}

	base := naming.VideoBase(prefix, title, id)
	filename := base + ".mp4"
	log := d.logger.WithFields(map[string]interface{}{
		"video_id": id,
		"file":     filename,
	})

	if d.store.Exists(dir, filename) {
		log.Info("Video already exists, skipping download")
		if d.progress != nil {
			d.progress.SkipDownload(filename)
		}
		return &Video{Filename: filename, Subtitles: d.subtitles.FindLocal(base, dir)}, nil
	}

	if err := d.store.MkdirAll(dir); err != nil {
		return nil, err
	}

	var lastErr error
	for i, quality := range d.qualities {
		err := d.download(ctx, id, dir, filename, quality)
		if err == nil {
			lastErr = nil
			break
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err

		if i < len(d.qualities)-1 {
			log.WithError(err).WarnWithFields("Video download failed, trying next quality", map[string]interface{}{
				"quality": quality,
				"next":    d.qualities[i+1],
			})
		}
	}
	if lastErr != nil {
		if d.progress != nil {
			d.progress.FailDownload(filename, lastErr)
		}
		return nil, classify(id, lastErr)
	}

	log.Info("Downloaded video")

	video := &Video{Filename: filename}
	if d.withSubtitles {
		subtitles, err := d.subtitles.Fetch(ctx, id, base, dir)
		if err != nil {
			log.WithError(err).Error("Failed to download subtitles")
		}
		video.Subtitles = subtitles
	}

	d.throttle.Mark()
	return video, nil
}

// download makes one attempt at a quality tier through a hidden temporary file
func (d *Downloader) download(ctx context.Context, id, dir, filename, quality string) error {
	if remaining := d.throttle.Remaining(); remaining > 0 {
		d.logger.InfoWithFields("Delaying video download", map[string]interface{}{
			"seconds": fmt.Sprintf("%.1f", remaining.Seconds()),
		})
	}
	if err := d.throttle.Wait(ctx); err != nil {
		return err
	}

	temp := storage.TempName(dir, filename)
	final := filepath.Join(dir, filename)

	if d.progress != nil {
		d.progress.StartDownload(filename)
	}

	var size int64
	err := d.runner.Run(ctx, Request{
		URL:     fmt.Sprintf(WatchURL, id),
		Output:  temp,
		Format:  quality,
		Verbose: d.verbose,
	}, func(downloaded, total int64) {
		size = downloaded
		if d.progress != nil {
			d.progress.Progress(filename, downloaded, total)
		}
	})
	if err != nil {
		_ = d.store.Remove(temp)
		return err
	}

	if err := d.store.Rename(temp, final); err != nil {
		_ = d.store.Remove(temp)
		return err
	}

	if d.progress != nil {
		d.progress.CompleteDownload(filename, size)
	}
	return nil
}

// classify maps a yt-dlp failure to a video error kind, keeping the cause
func classify(id string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	msg := strings.ToLower(err.Error())
	e := &errs.Error{URI: fmt.Sprintf(WatchURL, id), Err: err}

	switch {
	case strings.Contains(msg, "unavailable") || strings.Contains(msg, "removed"):
		e.Kind = errs.KindVideoUnavailable
		e.Message = fmt.Sprintf("youtube video %s is unavailable, it may have been deleted", id)
	case strings.Contains(msg, "sign in") || strings.Contains(msg, "private"):
		e.Kind = errs.KindVideoPrivate
		e.Message = fmt.Sprintf("youtube video %s is private and cannot be downloaded", id)
	default:
		e.Kind = errs.KindVideoDownloadFailed
		e.Message = fmt.Sprintf("youtube video %s download failed", id)
	}
	return e
}
