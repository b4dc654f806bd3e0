package walker

import (
	"context"
	"html/template"
	"net/url"
	"path/filepath"

	"udacimak/pkg/course"
)

type summaryLesson struct {
	Title string
	Href  string
}

type summaryModule struct {
	Title   string
	Lessons []summaryLesson
}

type summaryPart struct {
	Title   string
	Modules []summaryModule
}

type summaryPage struct {
	Title   string
	Image   string
	Summary template.HTML
	Parts   []summaryPart
	Lessons []summaryLesson
}

// lessonHref links the summary page to a lesson directory
func lessonHref(job lessonJob) string {
	return "./" + url.PathEscape(filepath.Base(job.Target)) + "/" + PageName
}

func summaryLessons(jobs []lessonJob) []summaryLesson {
	out := make([]summaryLesson, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, summaryLesson{Title: job.Title, Href: lessonHref(job)})
	}
	return out
}

// writeSummary writes dir/index.html listing every lesson of the plan
func (w *Walker) writeSummary(ctx context.Context, root *course.Root, p *plan, dir string) error {
	page := summaryPage{
		Title:   root.Title(),
		Lessons: summaryLessons(p.Lessons),
	}
	if page.Title == "" {
		page.Title = filepath.Base(dir)
	}

	var err error
	switch {
	case root.Nanodegree != nil:
		nd := root.Nanodegree
		if page.Summary, err = w.renderer.Text(ctx, nd.Summary, dir, nd.Key); err != nil {
			return err
		}
		if nd.HeroImage != nil {
			if page.Image, err = w.renderer.Image(ctx, nd.HeroImage.URL, dir); err != nil {
				return err
			}
		}
	case root.Course != nil:
		if page.Summary, err = w.renderer.Text(ctx, root.Course.Summary, dir, root.Course.Key); err != nil {
			return err
		}
	}

	for _, part := range p.Parts {
		sp := summaryPart{Title: part.Title}
		for _, m := range part.Modules {
			sp.Modules = append(sp.Modules, summaryModule{Title: m.Title, Lessons: summaryLessons(m.Lessons)})
		}
		page.Parts = append(page.Parts, sp)
	}

	out, err := w.renderer.Templates().Render("summary", page)
	if err != nil {
		return err
	}
	return w.store.WriteFile(filepath.Join(dir, PageName), []byte(out))
}
