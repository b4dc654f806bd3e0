// Package walker renders a downloaded course folder into a browsable tree of
// HTML pages, one directory per lesson.
package walker

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"regexp"
	"strings"

	"udacimak/pkg/course"
	errs "udacimak/pkg/errors"
	"udacimak/pkg/logger"
	"udacimak/pkg/render"
	"udacimak/pkg/report"
	"udacimak/pkg/storage"
	"udacimak/pkg/templates"
)

var (
	partPrefix   = regexp.MustCompile(`(?i)Part \d+`)
	modulePrefix = regexp.MustCompile(`(?i)Module \d+`)
)

// Walker renders course folders. Lessons are rendered one after another.
type Walker struct {
	store    *storage.Manager
	renderer *render.Renderer
	lessons  *LessonWriter
	report   *report.Collector
	assets   fs.FS
	logger   logger.Logger
}

// New creates a walker writing through store. rep may be nil.
func New(store *storage.Manager, renderer *render.Renderer, rep *report.Collector, log logger.Logger) *Walker {
	log = logger.OrDefault(log)
	return &Walker{
		store:    store,
		renderer: renderer,
		lessons:  NewLessonWriter(store, renderer, rep, log),
		report:   rep,
		assets:   templates.Assets(),
		logger:   log,
	}
}

// SetAssets replaces the static files copied into every rendered course
func (w *Walker) SetAssets(fsys fs.FS) {
	w.assets = fsys
}

// lessonJob is a lesson folder and the directory it renders into
type lessonJob struct {
	Source string
	Target string
	Title  string
}

type planModule struct {
	Title   string
	Lessons []lessonJob
}

type planPart struct {
	Title   string
	Modules []planModule
}

// plan is the list of lessons of a course folder, in rendering order
type plan struct {
	Parts   []planPart
	Lessons []lessonJob
}

func (p *plan) all() []lessonJob {
	jobs := append([]lessonJob(nil), p.Lessons...)
	for _, part := range p.Parts {
		for _, m := range part.Modules {
			jobs = append(jobs, m.Lessons...)
		}
	}
	return jobs
}

// RenderTree renders the course folder source into target/<name of source>.
//
// Invalid folders and conflicting targets are fatal and returned as
// InvalidSourceTree or TargetConflict errors. Failing lessons are recorded
// and the walk goes on.
func (w *Walker) RenderTree(ctx context.Context, source, target string) error {
	source = filepath.Clean(source)
	target = filepath.Clean(target)
	name := filepath.Base(source)

	kind, err := w.check(source, target, name)
	if err != nil {
		return err
	}

	root, err := course.ReadRoot(w.store, source)
	if err != nil {
		return err
	}

	dir, err := w.makeRootDir(target, name)
	if err != nil {
		return err
	}
	w.report.Begin(source, dir)

	log := w.logger.WithFields(map[string]interface{}{
		"course": name,
		"kind":   kind.String(),
	})
	log.Info("Rendering course")

	p, err := w.plan(kind, source, dir)
	if err != nil {
		return err
	}

	if err := w.writeSummary(ctx, root, p, dir); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		w.report.Record("summary", "", dir, err)
		log.WithError(err).Error("Failed to write summary page")
	}

	jobs := p.all()
	for i, job := range jobs {
		if err := ctx.Err(); err != nil {
			return err
		}

		log.InfoWithFields("Rendering lesson", map[string]interface{}{
			"lesson": job.Title,
			"index":  i + 1,
			"total":  len(jobs),
		})
		if err := w.lessons.Write(ctx, job.Source, job.Target, root.Title()); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w.report.Record("lesson", "", job.Source, err)
			log.WithError(err).WithField("lesson", job.Title).Error("Failed to render lesson")
			continue
		}
		w.report.AddLesson()
	}

	rep := w.report.Finish()
	if _, err := w.report.Save(w.store, dir); err != nil {
		log.WithError(err).Warn("Failed to save render report")
	}
	log.InfoWithFields("Completed course", map[string]interface{}{
		"summary": rep.Summary(),
		"output":  dir,
	})
	return nil
}

// check validates the folders and classifies the course, in this order:
// same folder, missing target, missing source, target inside the course
// data, missing data.json, unknown root document
func (w *Walker) check(source, target, name string) (course.Kind, error) {
	if source == target {
		return course.KindUnknown, &errs.Error{
			Kind:    errs.KindTargetConflict,
			Message: "target directory must not be the same as the source directory",
			URI:     target,
		}
	}
	if !w.store.IsDir(target) {
		return course.KindUnknown, &errs.Error{
			Kind:    errs.KindInvalidSourceTree,
			Message: fmt.Sprintf("target directory doesn't exist, please create %q", target),
			URI:     target,
		}
	}
	if !w.store.IsDir(source) {
		return course.KindUnknown, &errs.Error{
			Kind:    errs.KindInvalidSourceTree,
			Message: "path to the downloaded course doesn't exist",
			URI:     source,
		}
	}
	if w.store.Exists(target, course.DataFile) || filepath.Join(target, name) == source || within(source, target) {
		return course.KindUnknown, &errs.Error{
			Kind:    errs.KindTargetConflict,
			Message: "choose a target directory outside the folder holding the downloaded course data",
			URI:     target,
		}
	}
	if !w.store.Exists(source, course.DataFile) {
		return course.KindUnknown, &errs.Error{
			Kind:    errs.KindInvalidSourceTree,
			Message: fmt.Sprintf("%s doesn't contain %s, is it a downloaded course?", source, course.DataFile),
			URI:     source,
		}
	}

	data, err := w.store.ReadFile(filepath.Join(source, course.DataFile))
	if err != nil {
		return course.KindUnknown, errs.Wrap(errs.KindInvalidSourceTree, err, "cannot read "+course.DataFile)
	}
	return course.Classify(data)
}

// within reports whether p lies below dir
func within(dir, p string) bool {
	rel, err := filepath.Rel(dir, p)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// makeRootDir creates target/name with a fresh copy of the assets
func (w *Walker) makeRootDir(target, name string) (string, error) {
	dir := filepath.Join(target, name)
	if err := w.store.MkdirAll(dir); err != nil {
		return "", err
	}

	assets := filepath.Join(dir, templates.AssetsDir)
	if err := w.store.RemoveAll(assets); err != nil {
		return "", fmt.Errorf("failed to remove old assets: %w", err)
	}
	if err := w.store.CopyFS(w.assets, ".", assets); err != nil {
		return "", fmt.Errorf("failed to copy assets: %w", err)
	}
	return dir, nil
}

// subdirs lists the directories of dir sorted by name
func (w *Walker) subdirs(dir string) ([]string, error) {
	infos, err := w.store.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, info := range infos {
		if info.IsDir() && !strings.HasPrefix(info.Name(), ".") {
			names = append(names, info.Name())
		}
	}
	return names, nil
}

// isLesson reports whether dir holds a lesson document
func (w *Walker) isLesson(dir string) bool {
	if w.store.Exists(dir, course.DataFile) {
		return true
	}
	w.logger.WithField("dir", dir).Warn("Skipping folder without " + course.DataFile)
	return false
}

// prefix returns the first match of re in name, or "null" without a match
func prefix(re *regexp.Regexp, name string) string {
	if m := re.FindString(name); m != "" {
		return m
	}
	return "null"
}

// LessonDirName is the output directory of a Nanodegree lesson
func LessonDirName(part, module, lesson string) string {
	return fmt.Sprintf("%s-%s-%s", prefix(partPrefix, part), prefix(modulePrefix, module), lesson)
}

// plan maps the folders of source onto output directories below dir
func (w *Walker) plan(kind course.Kind, source, dir string) (*plan, error) {
	p := &plan{}

	children, err := w.subdirs(source)
	if err != nil {
		return nil, errs.Wrap(errs.KindInvalidSourceTree, err, "cannot list "+source)
	}

	if kind == course.KindCourse {
		for _, name := range children {
			src := filepath.Join(source, name)
			if !w.isLesson(src) {
				continue
			}
			p.Lessons = append(p.Lessons, lessonJob{Source: src, Target: filepath.Join(dir, name), Title: name})
		}
		return p, nil
	}

	for _, partName := range children {
		part := planPart{Title: partName}
		modules, err := w.subdirs(filepath.Join(source, partName))
		if err != nil {
			return nil, errs.Wrap(errs.KindInvalidSourceTree, err, "cannot list "+partName)
		}

		for _, moduleName := range modules {
			module := planModule{Title: moduleName}
			lessons, err := w.subdirs(filepath.Join(source, partName, moduleName))
			if err != nil {
				return nil, errs.Wrap(errs.KindInvalidSourceTree, err, "cannot list "+moduleName)
			}

			for _, lessonName := range lessons {
				src := filepath.Join(source, partName, moduleName, lessonName)
				if !w.isLesson(src) {
					continue
				}
				module.Lessons = append(module.Lessons, lessonJob{
					Source: src,
					Target: filepath.Join(dir, LessonDirName(partName, moduleName, lessonName)),
					Title:  lessonName,
				})
			}
			part.Modules = append(part.Modules, module)
		}
		p.Parts = append(p.Parts, part)
	}
	return p, nil
}

// RenderAll renders every course folder directly below parent. A failing
// course is logged and the others are still rendered; the failures are
// returned together.
func (w *Walker) RenderAll(ctx context.Context, parent, target string) error {
	names, err := w.subdirs(parent)
	if err != nil {
		return errs.Wrap(errs.KindInvalidSourceTree, err, "cannot list "+parent)
	}

	var failed []error
	rendered := 0
	for _, name := range names {
		source := filepath.Join(parent, name)
		if !w.store.Exists(source, course.DataFile) {
			continue
		}
		if err := w.RenderTree(ctx, source, target); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w.logger.WithError(err).WithField("course", name).Error("Failed to render course")
			failed = append(failed, fmt.Errorf("%s: %w", name, err))
			continue
		}
		rendered++
	}

	if rendered == 0 && len(failed) == 0 {
		return errs.New(errs.KindInvalidSourceTree, fmt.Sprintf("no downloaded course found in %s", parent))
	}
	return errors.Join(failed...)
}
