package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/afero"

	"udacimak/pkg/config"
	"udacimak/pkg/fetch"
	"udacimak/pkg/logger"
	"udacimak/pkg/media"
	"udacimak/pkg/ratelimit"
	"udacimak/pkg/render"
	"udacimak/pkg/report"
	"udacimak/pkg/storage"
	"udacimak/pkg/walker"
	"udacimak/pkg/youtube"
)

// pipeline is every component a render needs, wired together
type pipeline struct {
	store    *storage.Manager
	client   *fetch.Client
	videos   *youtube.Downloader
	throttle *ratelimit.Throttle
	report   *report.Collector
	walker   *walker.Walker
}

// newPipeline wires the asset client, video downloader, media rewriter,
// renderer and walker over fs. progress may be nil.
func newPipeline(fs afero.Fs, cfg *config.Config, runner youtube.Runner, progress fetch.ProgressReporter, log logger.Logger) (*pipeline, error) {
	store := storage.NewManager(fs)
	collector := report.NewCollector("", "", log)

	var limiter ratelimit.Limiter
	if rpm := cfg.RateLimit.RequestsPerMinute; rpm > 0 {
		limiter = ratelimit.NewTokenBucket(rpm, time.Minute)
	}

	reporter := fetch.MultiProgress(progress, collector)

	client := fetch.NewClient(store, &cfg.Download, limiter, log)
	client.SetProgress(reporter)

	throttle := ratelimit.NewThrottle(time.Duration(cfg.Render.DelayYoutube) * time.Second)
	videos := youtube.NewDownloader(runner, store, throttle, cfg, log)
	videos.SetProgress(reporter)

	rewriter := media.NewRewriter(client, cfg.Download.ConcurrentDownloads, collector, log)

	renderer, err := render.New(render.Dependencies{
		Media:  rewriter,
		Images: client,
		Videos: videos,
		Report: collector,
	}, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	w := walker.New(store, renderer, collector, log)
	if cfg.Render.AssetsDir != "" {
		w.SetAssets(os.DirFS(cfg.Render.AssetsDir))
	}

	return &pipeline{
		store:    store,
		client:   client,
		videos:   videos,
		throttle: throttle,
		report:   collector,
		walker:   w,
	}, nil
}

// ytdlpRunner resolves the yt-dlp executable, installing it when configured to
func ytdlpRunner(ctx context.Context, cfg *config.Config, log logger.Logger) (youtube.Runner, error) {
	executable := cfg.Video.Executable
	if executable == "" && cfg.Video.Install {
		path, err := youtube.Install(ctx)
		if err != nil {
			return nil, err
		}
		log.WithField("path", path).Info("Using installed yt-dlp")
		executable = path
	}
	return youtube.NewYtdlpRunner(executable), nil
}
