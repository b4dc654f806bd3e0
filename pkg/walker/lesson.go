package walker

import (
	"context"
	"fmt"
	"html/template"
	"math"
	"path/filepath"
	"strconv"

	"github.com/gosimple/slug"
	"github.com/samber/lo"

	"udacimak/pkg/course"
	"udacimak/pkg/logger"
	"udacimak/pkg/render"
	"udacimak/pkg/report"
	"udacimak/pkg/storage"
	"udacimak/pkg/templates"
)

// PageName is the file every rendered directory is browsed through
const PageName = "index.html"

type link struct {
	Name string
	URI  string
}

type conceptSection struct {
	Index     int
	Anchor    string
	Title     string
	Atoms     []template.HTML
	Resources []link
}

type projectBlock struct {
	Title       string
	Image       template.HTML
	Summary     template.HTML
	Description template.HTML
}

type labBlock struct {
	Title       string
	Objective   template.HTML
	Overview    template.HTML
	Takeaways   []template.HTML
	Video       template.HTML
	Details     template.HTML
	ReviewVideo template.HTML
}

type lessonPage struct {
	Title       string
	CourseTitle string
	Assets      string
	Duration    string
	Summary     template.HTML
	Video       template.HTML
	Concepts    []conceptSection
	Project     *projectBlock
	Lab         *labBlock
	Resources   []link
}

// LessonWriter renders a single lesson folder into an index.html page
type LessonWriter struct {
	store    *storage.Manager
	renderer *render.Renderer
	report   *report.Collector
	logger   logger.Logger
}

// NewLessonWriter creates a lesson writer
func NewLessonWriter(store *storage.Manager, renderer *render.Renderer, rep *report.Collector, log logger.Logger) *LessonWriter {
	return &LessonWriter{
		store:    store,
		renderer: renderer,
		report:   rep,
		logger:   logger.OrDefault(log),
	}
}

// VideoPrefix orders the videos of a lesson by concept and atom, both 1-based
func VideoPrefix(concept, atom int) string {
	return fmt.Sprintf("%02d.%02d", concept, atom)
}

// Write renders the lesson document of source into target/index.html.
// Atoms are rendered one at a time; an atom that fails is replaced by an
// error notice and recorded.
func (lw *LessonWriter) Write(ctx context.Context, source, target, courseTitle string) error {
	lesson, err := course.ReadLesson(lw.store, source)
	if err != nil {
		return err
	}
	if err := lw.store.MkdirAll(target); err != nil {
		return err
	}

	page := lessonPage{
		Title:       lesson.Title,
		CourseTitle: courseTitle,
		Assets:      "../" + templates.AssetsDir,
		Duration:    formatDuration(lesson.Duration),
		Resources:   resourceLinks(lesson.Resources),
	}
	label := lesson.ID.String()

	if page.Summary, err = lw.renderer.Text(ctx, lesson.Summary, target, label+"-summary"); err != nil {
		return err
	}
	if page.Video, err = lw.renderer.Video(ctx, lesson.Video, target, VideoPrefix(0, 0), lesson.Title); err != nil {
		return err
	}

	anchors := make(map[string]int)
	for i, c := range lesson.Concepts {
		section := conceptSection{
			Index:     i + 1,
			Anchor:    uniqueAnchor(anchors, c.Title, i+1),
			Title:     c.Title,
			Resources: resourceLinks(c.Resources),
		}

		for j, a := range c.Atoms {
			html, err := lw.renderer.Render(ctx, a, target, VideoPrefix(i+1, j+1))
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				lw.report.Record("atom", "", target, err)
				lw.logger.WithError(err).WithFields(map[string]interface{}{
					"concept": c.Title,
					"atom":    a.Base().ID.String(),
				}).Warn("Failed to render atom")
				html = lw.renderer.ErrorNotice(err)
			}
			section.Atoms = append(section.Atoms, template.HTML(html))
		}
		page.Concepts = append(page.Concepts, section)
	}

	if lesson.Project != nil {
		if page.Project, err = lw.project(ctx, lesson.Project, target); err != nil {
			return err
		}
	}
	if lesson.Lab != nil {
		if page.Lab, err = lw.lab(ctx, lesson.Lab, target); err != nil {
			return err
		}
	}

	out, err := lw.renderer.Templates().Render("lesson", page)
	if err != nil {
		return err
	}
	return lw.store.WriteFile(filepath.Join(target, PageName), []byte(out))
}

func (lw *LessonWriter) project(ctx context.Context, p *course.Project, dir string) (*projectBlock, error) {
	block := &projectBlock{Title: p.Title}
	var err error

	if p.Image != nil && p.Image.URL != "" {
		src, err := lw.renderer.Image(ctx, p.Image.URL, dir)
		if err != nil {
			return nil, err
		}
		if src != "" {
			block.Image = template.HTML(`<img class="img-fluid" src="` + template.HTMLEscapeString(src) + `" alt="">`)
		}
	}
	if block.Summary, err = lw.renderer.Text(ctx, p.Summary, dir, p.Key+"-summary"); err != nil {
		return nil, err
	}
	if block.Description, err = lw.renderer.Text(ctx, p.Description, dir, p.Key+"-description"); err != nil {
		return nil, err
	}
	return block, nil
}

func (lw *LessonWriter) lab(ctx context.Context, l *course.Lab, dir string) (*labBlock, error) {
	block := &labBlock{Title: l.Title}
	var err error

	if block.Objective, err = lw.renderer.Text(ctx, l.EvaluationObjective, dir, l.Key+"-objective"); err != nil {
		return nil, err
	}
	if o := l.Overview; o != nil {
		if block.Overview, err = lw.renderer.Text(ctx, o.Summary, dir, l.Key+"-overview"); err != nil {
			return nil, err
		}
		for _, t := range o.KeyTakeaways {
			html, err := lw.renderer.Markdown(t)
			if err != nil {
				return nil, err
			}
			block.Takeaways = append(block.Takeaways, html)
		}
		if block.Video, err = lw.renderer.Video(ctx, o.Video, dir, "lab", l.Title); err != nil {
			return nil, err
		}
	}
	if l.Details != nil {
		if block.Details, err = lw.renderer.Text(ctx, l.Details.Text, dir, l.Key+"-details"); err != nil {
			return nil, err
		}
	}
	if block.ReviewVideo, err = lw.renderer.Video(ctx, l.ReviewVideo, dir, "lab-review", l.Title); err != nil {
		return nil, err
	}
	return block, nil
}

// uniqueAnchor slugs title, falling back to the concept number, and
// suffixes repeats so every anchor of a page is distinct
func uniqueAnchor(seen map[string]int, title string, index int) string {
	anchor := slug.Make(title)
	if anchor == "" {
		anchor = "concept-" + strconv.Itoa(index)
	}
	seen[anchor]++
	if n := seen[anchor]; n > 1 {
		anchor = anchor + "-" + strconv.Itoa(n)
	}
	return anchor
}

func resourceLinks(r *course.Resources) []link {
	if r == nil {
		return nil
	}
	files := lo.Filter(r.Files, func(f course.ResourceFile, _ int) bool {
		return f.URI != ""
	})
	return lo.Map(files, func(f course.ResourceFile, _ int) link {
		return link{Name: lo.Ternary(f.Name != "", f.Name, f.URI), URI: f.URI}
	})
}

// formatDuration turns a duration in seconds into "N min"
func formatDuration(seconds float64) string {
	if seconds <= 0 {
		return ""
	}
	minutes := int(math.Ceil(seconds / 60))
	return fmt.Sprintf("%d min", minutes)
}
