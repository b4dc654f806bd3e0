package youtube

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"udacimak/pkg/logger"
	"udacimak/pkg/storage"
)

// Subtitle is a caption track stored next to a video
type Subtitle struct {
	Filename string
	Lang     string
	Default  bool
}

const defaultLang = "en"

var (
	subtitleExt     = regexp.MustCompile(`\.(vtt|srt|sbv|sub|mpsub|lrc|cap|smi|sami|rs|ttml|dfxp)$`)
	subtitleLang    = regexp.MustCompile(`\.([a-z]{2,3}(-[a-z]{2,3})?)\.(vtt|srt|sbv|sub|mpsub|lrc|cap|smi|sami|rs|ttml|dfxp)$`)
	downloadedTrack = regexp.MustCompile(`\.(vtt|srt)$`)
)

// parseSubtitle returns the track for a file name, detecting its language
func parseSubtitle(name string) Subtitle {
	lang := defaultLang
	if m := subtitleLang.FindStringSubmatch(strings.ToLower(name)); m != nil {
		lang = m[1]
	}
	return Subtitle{
		Filename: name,
		Lang:     lang,
		Default:  lang == "en" || lang == "en-us",
	}
}

// Subtitles fetches and finds caption tracks
type Subtitles struct {
	runner  Runner
	store   *storage.Manager
	verbose bool
	logger  logger.Logger
}

// NewSubtitles creates a subtitle fetcher
func NewSubtitles(runner Runner, store *storage.Manager, verbose bool, log logger.Logger) *Subtitles {
	return &Subtitles{runner: runner, store: store, verbose: verbose, logger: logger.OrDefault(log)}
}

// Fetch downloads the English tracks of video id as "<base>.<lang>.vtt" into dir.
// An empty id returns nil.
func (s *Subtitles) Fetch(ctx context.Context, id, base, dir string) ([]Subtitle, error) {
	if strings.TrimSpace(id) == "" {
		return nil, nil
	}

	s.logger.InfoWithFields("Downloading subtitles", map[string]interface{}{
		"video_id": id,
		"file":     base,
	})

	err := s.runner.Run(ctx, Request{
		URL:           fmt.Sprintf(WatchURL, id),
		Output:        filepath.Join(dir, base+".%(ext)s"),
		SubtitlesOnly: true,
		Verbose:       s.verbose,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to download subtitles for %s: %w", base, err)
	}

	return s.scan(base, dir, downloadedTrack), nil
}

// FindLocal lists the subtitle files already stored for base, without any network access
func (s *Subtitles) FindLocal(base, dir string) []Subtitle {
	return s.scan(base, dir, subtitleExt)
}

func (s *Subtitles) scan(base, dir string, ext *regexp.Regexp) []Subtitle {
	entries, err := s.store.ReadDir(dir)
	if err != nil {
		return nil
	}

	var subtitles []Subtitle
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, base) || !ext.MatchString(strings.ToLower(name)) {
			continue
		}
		subtitles = append(subtitles, parseSubtitle(name))
	}
	return subtitles
}
