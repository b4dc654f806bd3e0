package render

import (
	"context"
	"html/template"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"udacimak/pkg/course"
	"udacimak/pkg/naming"
)

func (r *Renderer) renderQuiz(ctx context.Context, a *course.QuizAtom, dir, prefix string) (string, error) {
	var data quizData
	label := a.ID.String()

	if in := a.Instruction; in != nil {
		var err error
		if data.Instruction, err = r.text(ctx, in.Text, dir, label+"-instruction"); err != nil {
			return "", err
		}
		if data.InstructionVideo, err = r.video(ctx, videoID(in.Video), dir, prefix, a.Title); err != nil {
			return "", err
		}
	}

	question, err := r.question(ctx, a, dir)
	if err != nil {
		return "", err
	}
	data.Question = question

	if _, ok := a.Question.(*course.ProgrammingQuestion); ok && r.userQuizAnswer {
		data.UserAnswer = r.userAnswer(a.UserState)
	}

	if data.Answer, err = r.text(ctx, a.Answer.Text, dir, label+"-answer"); err != nil {
		return "", err
	}
	if data.AnswerVideo, err = r.video(ctx, videoID(a.Answer.Video), dir, prefix, a.Title); err != nil {
		return "", err
	}

	return r.tpl.Render("atom.quiz", data)
}

// question renders the question of a quiz atom by its own type
func (r *Renderer) question(ctx context.Context, a *course.QuizAtom, dir string) (template.HTML, error) {
	switch q := a.Question.(type) {
	case *course.ImageFormQuestion:
		return r.imageForm(ctx, q, dir)
	case *course.ProgrammingQuestion:
		return r.tpl.HTML("atom.quiz.programmingQuestion", programmingData{
			ID:    "question",
			Files: codeFiles(a.ID.String(), q.InitialCodeFiles),
		})
	case *course.CodeGradedQuestion:
		title, err := r.markdown(q.Title)
		if err != nil {
			return "", err
		}
		prompt, err := r.text(ctx, q.Prompt, dir, a.ID.String()+"-question")
		if err != nil {
			return "", err
		}
		return r.tpl.HTML("atom.quiz.codeGradedQuestion", codeGradedData{Title: title, Prompt: prompt})
	case *course.IFrameQuestion:
		var files template.HTML
		if len(q.InitialCodeFiles) > 0 {
			var err error
			files, err = r.tpl.HTML("atom.quiz.programmingQuestion", programmingData{
				ID:    "question",
				Files: codeFiles(a.ID.String(), q.InitialCodeFiles),
			})
			if err != nil {
				return "", err
			}
		}
		return r.tpl.HTML("atom.quiz.iframeQuestion", frameData{URI: q.ExternalIframeURI, Files: files})
	case *course.TextQuestion:
		text, err := r.text(ctx, q.Text, dir, a.ID.String()+"-question")
		if err != nil {
			return "", err
		}
		return r.tpl.HTML("atom.quiz.textQuestion", textData{Text: text})
	default:
		r.logger.WithField("atom", a.ID.String()).Warn("Unsupported quiz question type")
		return template.HTML(unknownQuestion), nil
	}
}

// imageForm downloads the background as img/<evaluation id>.gif while the
// widgets are rendered
func (r *Renderer) imageForm(ctx context.Context, q *course.ImageFormQuestion, dir string) (template.HTML, error) {
	data := imageFormData{Alt: q.AltText}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		uri := strings.TrimSpace(q.BackgroundImage)
		if uri == "" {
			return nil
		}
		src, err := r.fetchImage(gctx, uri, dir, naming.Sanitize(q.EvaluationID+".gif"))
		data.SrcImg = src
		return err
	})
	g.Go(func() error {
		var b strings.Builder
		for _, w := range q.Widgets {
			html, err := r.tpl.Render("atom.quiz.widget", newWidgetData(w))
			if err != nil {
				return err
			}
			b.WriteString(html)
		}
		data.HTMLWidgets = template.HTML(b.String())
		return nil
	})
	if err := g.Wait(); err != nil {
		return "", err
	}

	return r.tpl.HTML("atom.quiz.imageFormQuestion", data)
}

func newWidgetData(w course.Widget) widgetData {
	data := widgetData{
		Group:        w.Group,
		Label:        w.Label,
		Marker:       w.Marker,
		Model:        w.Model,
		IsTextArea:   w.IsTextArea,
		Tabindex:     w.Tabindex,
		InitialValue: w.InitialText(),
	}
	if p := w.Placement; p != nil {
		data.Placement = &placement{X: p.X, Y: p.Y, Width: p.Width, Height: p.Height}
	}
	return data
}

// fileID turns a file name into an element id by replacing its first "."
// and its first " " with "-"
func fileID(name string) string {
	name = strings.Replace(name, ".", "-", 1)
	return strings.Replace(name, " ", "-", 1)
}

// codeFiles prepares the tabs of a code question, the first one active
func codeFiles(prefix string, files []course.CodeFile) []codeFile {
	return lo.Map(files, func(f course.CodeFile, i int) codeFile {
		return codeFile{
			Active:     lo.Ternary(i == 0, " active show", ""),
			ID:         prefix + "-" + fileID(f.Name),
			IsSelected: i == 0,
			Name:       f.Name,
			Text:       f.Text,
		}
	})
}

// userAnswer renders the learner's saved code. Missing or malformed state renders nothing.
func (r *Renderer) userAnswer(state *course.UserState) template.HTML {
	if state == nil {
		return ""
	}
	files, err := state.Files()
	if err != nil {
		r.logger.WithError(err).WithField("node_key", state.NodeKey).Debug("No saved answer")
		return ""
	}

	out, err := r.tpl.HTML("atom.quiz.programmingQuestion", programmingData{
		ID:    "user-answer",
		Files: codeFiles("user-answer-"+state.NodeKey, files),
	})
	if err != nil {
		r.logger.WithError(err).Warn("Failed to render saved answer")
		return ""
	}
	return out
}

// workspaceUnavailable is rendered for a workspace atom without data
const workspaceUnavailable = "(No Workspace data available)"

func (r *Renderer) renderWorkspace(a *course.WorkspaceAtom) (string, error) {
	if a == nil {
		return workspaceUnavailable, nil
	}

	cfg := a.Config()
	data := workspaceData{
		Kind:        cfg.Kind,
		DefaultPath: cfg.DefaultPath,
		OpenFiles:   cfg.OpenFiles,
	}
	code, err := r.markdown(cfg.UserCode)
	if err != nil {
		return "", err
	}
	data.UserCode = code

	return r.tpl.Render("atom.workspace", data)
}
