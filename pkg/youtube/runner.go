package youtube

import (
	"context"
	"fmt"
	"time"

	"github.com/lrstanley/go-ytdlp"
)

// WatchURL is the page yt-dlp is pointed at for a video id
const WatchURL = "https://www.youtube.com/watch?v=%s"

// EmbedURL is the player used when a video could not be downloaded
const EmbedURL = "https://www.youtube.com/embed/%s"

// Request describes a single yt-dlp invocation
type Request struct {
	URL    string
	Output string
	// Format is the quality selector, e.g. "worst" or "best[height<=720]".
	Format string
	// SubtitlesOnly skips the video and writes English vtt subtitles instead.
	SubtitlesOnly bool
	Verbose       bool
}

// ProgressFunc receives byte counts while a download is running
type ProgressFunc func(downloaded, total int64)

// Runner executes yt-dlp. Tests substitute a fake that writes files directly.
type Runner interface {
	Run(ctx context.Context, req Request, progress ProgressFunc) error
}

// YtdlpRunner drives the yt-dlp binary through go-ytdlp
type YtdlpRunner struct {
	executable string
}

// NewYtdlpRunner creates a runner. An empty executable uses the one on PATH
// or the one installed by go-ytdlp.
func NewYtdlpRunner(executable string) *YtdlpRunner {
	return &YtdlpRunner{executable: executable}
}

// Install downloads a yt-dlp binary when none is available
func Install(ctx context.Context) (string, error) {
	resolved, err := ytdlp.Install(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to install yt-dlp: %w", err)
	}
	return resolved.Executable, nil
}

func (r *YtdlpRunner) command(req Request) *ytdlp.Command {
	dl := ytdlp.New().
		Output(req.Output).
		NoWarnings().
		NoCheckCertificates()

	if req.SubtitlesOnly {
		dl = dl.SkipDownload().
			WriteSubs().
			WriteAutoSubs().
			SubLangs("en").
			SubFormat("vtt")
	} else {
		format := req.Format
		if format == "" {
			format = "best"
		}
		dl = dl.Format(format).PreferFreeFormats()
	}

	if req.Verbose {
		dl = dl.Verbose()
	}
	if r.executable != "" {
		dl = dl.SetExecutable(r.executable)
	}
	return dl
}

// Run executes a single yt-dlp invocation
func (r *YtdlpRunner) Run(ctx context.Context, req Request, progress ProgressFunc) error {
	dl := r.command(req)

	if progress != nil {
		dl.ProgressFunc(500*time.Millisecond, func(update ytdlp.ProgressUpdate) {
			progress(int64(update.DownloadedBytes), int64(update.TotalBytes))
		})
	}

	result, err := dl.Run(ctx, req.URL)
	if err != nil {
		if result != nil && result.Stderr != "" {
			return fmt.Errorf("%w: %s", err, result.Stderr)
		}
		return err
	}
	return nil
}
