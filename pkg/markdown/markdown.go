// Package markdown converts Udacity Markdown into HTML with goldmark.
package markdown

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

var (
	mathquillSpan = regexp.MustCompile(`(?is)<span class=['"]mathquill['"]>(.*?)</span>`)
	lineBreaks    = regexp.MustCompile(`\r\n|\r|\n`)
	placeholder   = regexp.MustCompile(`UDACIMAKMATH(\d+)END`)
)

// Converter turns Markdown into HTML. It is safe for concurrent use.
type Converter struct {
	md goldmark.Markdown
}

// New creates a converter with GitHub flavoured Markdown, raw HTML passthrough
// and links opening in a new window
func New() *Converter {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(
			parser.WithASTTransformers(util.Prioritized(newWindowLinks{}, 100)),
		),
		goldmark.WithRendererOptions(
			html.WithUnsafe(),
		),
	)
	return &Converter{md: md}
}

// Convert renders src as HTML. Empty input gives empty output.
//
// Mathquill spans are lifted out before parsing so that LaTeX backslashes and
// underscores survive untouched, then put back with line breaks removed.
func (c *Converter) Convert(src string) (string, error) {
	if strings.TrimSpace(src) == "" {
		return "", nil
	}

	var math []string
	src = mathquillSpan.ReplaceAllStringFunc(src, func(m string) string {
		inner := mathquillSpan.FindStringSubmatch(m)[1]
		math = append(math, lineBreaks.ReplaceAllString(inner, ""))
		return fmt.Sprintf("UDACIMAKMATH%dEND", len(math)-1)
	})

	var buf bytes.Buffer
	if err := c.md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("failed to convert markdown: %w", err)
	}

	out := buf.String()
	if len(math) > 0 {
		out = placeholder.ReplaceAllStringFunc(out, func(m string) string {
			i, err := strconv.Atoi(placeholder.FindStringSubmatch(m)[1])
			if err != nil || i >= len(math) {
				return m
			}
			return `<span class="mathquill ud-math">` + math[i] + `</span>`
		})
	}
	return out, nil
}

// newWindowLinks sets target="_blank" on every link
type newWindowLinks struct{}

func (newWindowLinks) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.Kind() {
		case ast.KindLink, ast.KindAutoLink:
			n.SetAttributeString("target", []byte("_blank"))
		}
		return ast.WalkContinue, nil
	})
}
