// Package templates holds the embedded HTML templates and the static
// assets copied next to every rendered course.
package templates

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"strings"
	"sync"
)

//go:embed html/*.html
var htmlFiles embed.FS

//go:embed assets
var assetFiles embed.FS

// AssetsDir is the directory the assets are copied into
const AssetsDir = "assets"

// Set is a parsed collection of templates addressed by id
type Set struct {
	templates map[string]*template.Template
}

var (
	defaultSet  *Set
	defaultErr  error
	defaultOnce sync.Once
)

// Default returns the embedded templates, parsed once
func Default() (*Set, error) {
	defaultOnce.Do(func() {
		defaultSet, defaultErr = Parse(htmlFiles, "html")
	})
	return defaultSet, defaultErr
}

// Parse loads every dir/*.html of fsys. The id of a template is its file
// name without the extension, e.g. "atom.quiz.widget".
func Parse(fsys fs.FS, dir string) (*Set, error) {
	matches, err := fs.Glob(fsys, path.Join(dir, "*.html"))
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no templates in %s", dir)
	}

	s := &Set{templates: make(map[string]*template.Template, len(matches))}
	for _, m := range matches {
		data, err := fs.ReadFile(fsys, m)
		if err != nil {
			return nil, fmt.Errorf("failed to read template %s: %w", m, err)
		}
		id := strings.TrimSuffix(path.Base(m), ".html")
		t, err := template.New(id).Option("missingkey=zero").Parse(string(data))
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", id, err)
		}
		s.templates[id] = t
	}
	return s, nil
}

// Has reports whether a template with the id exists
func (s *Set) Has(id string) bool {
	_, ok := s.templates[id]
	return ok
}

// Render executes the template id with data. Surrounding whitespace is trimmed.
func (s *Set) Render(id string, data interface{}) (string, error) {
	t, ok := s.templates[id]
	if !ok {
		return "", fmt.Errorf("unknown template %q", id)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", id, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// HTML is Render for fragments embedded into other templates
func (s *Set) HTML(id string, data interface{}) (template.HTML, error) {
	out, err := s.Render(id, data)
	return template.HTML(out), err
}

// Assets returns the static files (css, js) rooted at their directory
func Assets() fs.FS {
	sub, err := fs.Sub(assetFiles, AssetsDir)
	if err != nil {
		panic(err)
	}
	return sub
}
