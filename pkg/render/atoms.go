package render

import (
	"context"
	"fmt"
	"html/template"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"udacimak/pkg/course"
	errs "udacimak/pkg/errors"
	"udacimak/pkg/fetch"
	"udacimak/pkg/naming"
)

func (r *Renderer) renderText(ctx context.Context, a *course.TextAtom, dir string) (string, error) {
	text, err := r.text(ctx, a.Text, dir, a.ID.String())
	if err != nil {
		return "", err
	}
	return r.tpl.Render("atom.text", textData{Text: text})
}

// validURI reports whether s is an absolute URI
func validURI(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	u, err := url.Parse(s)
	return err == nil && u.Scheme != "" && (u.Host != "" || u.Opaque != "")
}

// imageURI picks the first valid URI of the image atom
func imageURI(a *course.ImageAtom) string {
	return lo.FindOrElse([]string{a.URL, a.NonGoogleURL}, "", validURI)
}

// imageName is the local file name forced on images whose url has no extension
func imageName(a *course.ImageAtom) string {
	if naming.HasExt(a.URL) {
		return ""
	}
	id := a.ID.String()
	if id == "" {
		id = a.Key
	}
	return naming.Sanitize(id + ".gif")
}

// fetchImage downloads uri into dir/img. On failure the remote uri is
// returned so the page still shows the image when online.
func (r *Renderer) fetchImage(ctx context.Context, uri, dir, filename string) (string, error) {
	if uri == "" {
		return "", nil
	}

	imgDir := filepath.Join(dir, ImageDir)
	normalized := naming.NormalizeURI(uri)
	if filename == "" {
		filename = naming.FromURI(normalized)
	}
	filename = r.images.Claim(imgDir, filename, normalized)

	asset, err := r.deps.Images.Fetch(ctx, uri, imgDir, filename)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		r.deps.Report.Record(string(fetch.KindImage), uri, imgDir, err)
		r.logger.WithError(err).WithField("uri", uri).Warn("Image not downloaded, keeping remote link")
		return uri, nil
	}
	if asset == nil {
		return uri, nil
	}
	return ImageDir + "/" + asset.Filename, nil
}

func (r *Renderer) renderImage(ctx context.Context, a *course.ImageAtom, dir string) (string, error) {
	var data imageData
	data.Alt = a.Caption
	if a.Alt != "" && a.Caption == "" {
		data.Alt = a.Alt
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		file, err := r.fetchImage(gctx, imageURI(a), dir, imageName(a))
		data.File = file
		return err
	})
	g.Go(func() error {
		caption, err := r.markdown(a.Caption)
		data.Caption = caption
		return err
	})
	if err := g.Wait(); err != nil {
		return "", err
	}

	return r.tpl.Render("atom.image", data)
}

func (r *Renderer) renderVideo(ctx context.Context, a *course.VideoAtom, dir, prefix string) (string, error) {
	out, err := r.video(ctx, videoID(a.Video), dir, prefix, a.Title)
	return string(out), err
}

func (r *Renderer) renderTaskList(ctx context.Context, a *course.TaskListAtom, dir, prefix string) (string, error) {
	var data taskListData
	label := a.ID.String()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		video, err := r.video(gctx, videoID(a.VideoFeedback), dir, prefix, a.Title)
		data.Video = video
		return err
	})
	g.Go(func() error {
		var err error
		if data.Description, err = r.text(gctx, a.Description, dir, label+"-description"); err != nil {
			return err
		}
		data.PositiveFeedback, err = r.text(gctx, a.PositiveFeedback, dir, label+"-feedback")
		return err
	})
	g.Go(func() error {
		for i, t := range a.TaskTexts() {
			html, err := r.markdown(t)
			if err != nil {
				return err
			}
			data.Tasks = append(data.Tasks, task{ID: fmt.Sprintf("%s--%d", a.Key, i), Task: html})
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return "", err
	}

	data.HasFeedback = data.Video != "" || data.PositiveFeedback != ""
	return r.tpl.Render("atom.taskList", data)
}

// unknownQuestion is shown for question types a reflect atom cannot render
const unknownQuestion = "<p>Unknown question type. Please contact the developer to make it compatible with this atom type!</p>"

func (r *Renderer) renderReflect(ctx context.Context, a *course.ReflectAtom, dir, prefix string) (string, error) {
	var data reflectData
	label := a.ID.String()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		video, err := r.video(gctx, videoID(a.Answer.Video), dir, prefix, a.Title)
		data.Video = video
		return err
	})
	g.Go(func() error {
		var err error
		if data.Title, err = r.markdown(a.Question.Title); err != nil {
			return err
		}
		if a.Question.SemanticType == course.TypeTextQuestion {
			data.Question, err = r.text(gctx, a.Question.Text, dir, label+"-question")
		} else {
			data.Question = template.HTML(unknownQuestion)
		}
		if err != nil {
			return err
		}
		data.Answer, err = r.text(gctx, a.Answer.Text, dir, label+"-answer")
		return err
	})
	if err := g.Wait(); err != nil {
		return "", err
	}

	return r.tpl.Render("atom.reflect", data)
}

func (r *Renderer) renderUnknown(a *course.UnknownAtom, dir string) (string, error) {
	semanticType := a.Base().SemanticType
	if a.Err != nil {
		r.deps.Report.Record("atom", "", dir, errs.Wrap(errs.KindParsing, a.Err, "atom "+a.Base().ID.String()))
		r.logger.WithError(a.Err).WithField("atom", a.Base().ID.String()).Warn("Atom could not be decoded")
	} else {
		r.logger.WithField("type", semanticType).Warn("Unsupported atom type")
	}
	return r.tpl.Render("atom.unknown", unknownData{SemanticType: semanticType})
}
