// Package render turns course atoms into HTML fragments, downloading the
// media they reference on the way.
package render

import (
	"context"
	"fmt"
	"html/template"
	"strings"

	"udacimak/pkg/config"
	"udacimak/pkg/course"
	"udacimak/pkg/fetch"
	"udacimak/pkg/logger"
	"udacimak/pkg/markdown"
	"udacimak/pkg/naming"
	"udacimak/pkg/report"
	"udacimak/pkg/templates"
	"udacimak/pkg/youtube"
)

// ImageDir is the lesson subdirectory holding atom images
const ImageDir = "img"

// Localizer downloads the media of an HTML fragment and rewrites it to the local copies
type Localizer interface {
	Localize(ctx context.Context, fragment, dir, label string) (string, error)
}

// ImageFetcher downloads a single file
type ImageFetcher interface {
	Fetch(ctx context.Context, uri, dir, filename string) (*fetch.LocalAsset, error)
}

// VideoFetcher downloads a YouTube video with its subtitles
type VideoFetcher interface {
	FetchVideo(ctx context.Context, id, dir, prefix, title string) (*youtube.Video, error)
}

// Dependencies are the collaborators a Renderer downloads through
type Dependencies struct {
	Media  Localizer
	Images ImageFetcher
	Videos VideoFetcher
	// Report receives every non-fatal failure. It may be nil.
	Report *report.Collector
}

// Renderer renders atoms. It is safe for concurrent use as long as its
// dependencies are.
type Renderer struct {
	deps           Dependencies
	tpl            *templates.Set
	md             *markdown.Converter
	images         *naming.Registry
	userQuizAnswer bool
	logger         logger.Logger
}

// New creates a renderer using the embedded templates
func New(deps Dependencies, cfg *config.Config, log logger.Logger) (*Renderer, error) {
	if deps.Media == nil || deps.Images == nil || deps.Videos == nil {
		return nil, fmt.Errorf("renderer needs media, image and video fetchers")
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	tpl, err := templates.Default()
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	return &Renderer{
		deps:           deps,
		tpl:            tpl,
		md:             markdown.New(),
		images:         naming.NewRegistry(),
		userQuizAnswer: cfg.Render.UserQuizAnswer,
		logger:         logger.OrDefault(log),
	}, nil
}

// Templates returns the template set used by the renderer
func (r *Renderer) Templates() *templates.Set {
	return r.tpl
}

// Render converts a to HTML. dir is the lesson directory the media is saved
// into and prefix ("01.02") orders the video files of the lesson.
//
// Failed downloads never fail the render: they are recorded in the report and
// the remote reference is kept. Errors are returned only for template
// failures and cancellation.
func (r *Renderer) Render(ctx context.Context, a course.Atom, dir, prefix string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	switch a := a.(type) {
	case *course.TextAtom:
		return r.renderText(ctx, a, dir)
	case *course.ImageAtom:
		return r.renderImage(ctx, a, dir)
	case *course.VideoAtom:
		return r.renderVideo(ctx, a, dir, prefix)
	case *course.EmbeddedFrameAtom:
		return r.tpl.Render("atom.embeddedFrame", frameData{URI: a.ExternalURI})
	case *course.TaskListAtom:
		return r.renderTaskList(ctx, a, dir, prefix)
	case *course.ReflectAtom:
		return r.renderReflect(ctx, a, dir, prefix)
	case *course.RadioQuizAtom:
		return r.renderChoice(ctx, "atom.radioQuiz", a.Base(), a.Question, true, dir)
	case *course.CheckboxQuizAtom:
		return r.renderChoice(ctx, "atom.checkboxQuiz", a.Base(), a.Question, false, dir)
	case *course.MatchingQuizAtom:
		return r.renderMatching(a)
	case *course.ValidatedQuizAtom:
		return r.renderValidated(ctx, a, dir)
	case *course.QuizAtom:
		return r.renderQuiz(ctx, a, dir, prefix)
	case *course.WorkspaceAtom:
		return r.renderWorkspace(a)
	case *course.UnknownAtom:
		return r.renderUnknown(a, dir)
	default:
		return r.renderUnknown(&course.UnknownAtom{}, dir)
	}
}

// ErrorNotice renders the inline notice shown in place of an atom that failed
func (r *Renderer) ErrorNotice(err error) string {
	out, terr := r.tpl.Render("atom.error", map[string]string{"Message": err.Error()})
	if terr != nil {
		return "<p>" + template.HTMLEscapeString(err.Error()) + "</p>"
	}
	return out
}

// markdown converts src without touching its media
func (r *Renderer) markdown(src string) (template.HTML, error) {
	out, err := r.md.Convert(src)
	if err != nil {
		return "", fmt.Errorf("failed to convert markdown: %w", err)
	}
	return template.HTML(out), nil
}

// text converts src and localizes the media it references, labelling
// synthetic file names with label
func (r *Renderer) text(ctx context.Context, src, dir, label string) (template.HTML, error) {
	out, err := r.md.Convert(src)
	if err != nil {
		return "", fmt.Errorf("failed to convert markdown: %w", err)
	}
	if out == "" {
		return "", nil
	}

	localized, err := r.deps.Media.Localize(ctx, out, dir, label)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		r.deps.Report.Record("text", "", dir, err)
		r.logger.WithError(err).WithField("label", label).Warn("Keeping remote media")
		return template.HTML(out), nil
	}
	return template.HTML(localized), nil
}

// video downloads YouTube video id and renders the player. An empty id
// renders nothing; a failed download falls back to the YouTube player.
func (r *Renderer) video(ctx context.Context, id, dir, prefix, title string) (template.HTML, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", nil
	}

	v, err := r.deps.Videos.FetchVideo(ctx, id, dir, prefix, title)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		uri := fmt.Sprintf(youtube.WatchURL, id)
		r.deps.Report.Record("video", uri, dir, err)
		r.logger.WithError(err).WithField("video_id", id).Warn("Video not downloaded, linking to YouTube")
		return r.tpl.HTML("atom.embeddedFrame", frameData{URI: fmt.Sprintf(youtube.EmbedURL, id)})
	}
	if v == nil {
		return "", nil
	}

	src := &videoSource{Src: v.Filename}
	for _, s := range v.Subtitles {
		src.Subtitles = append(src.Subtitles, subtitleTrack{Src: s.Filename, Srclang: s.Lang, Default: s.Default})
	}
	return r.tpl.HTML("atom.video", videoData{Video: src})
}

func videoID(v *course.Video) string {
	if v == nil {
		return ""
	}
	return v.YoutubeID
}

// Text converts Markdown and localizes the media it references into dir
func (r *Renderer) Text(ctx context.Context, src, dir, label string) (template.HTML, error) {
	return r.text(ctx, src, dir, label)
}

// Markdown converts Markdown without downloading anything
func (r *Renderer) Markdown(src string) (template.HTML, error) {
	return r.markdown(src)
}

// Video downloads a YouTube video into dir and renders its player
func (r *Renderer) Video(ctx context.Context, v *course.Video, dir, prefix, title string) (template.HTML, error) {
	return r.video(ctx, videoID(v), dir, prefix, title)
}

// Image downloads uri into dir/img and returns the src to use, which is the
// remote uri when the download failed
func (r *Renderer) Image(ctx context.Context, uri, dir string) (string, error) {
	return r.fetchImage(ctx, naming.NormalizeURI(uri), dir, "")
}
