package markdown

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
)

// Options tune Markdown rendering.
type Options struct {
	// Extensions by name; empty selects gfm, linkify and tasklist.
	Extensions []string
	HardWraps  bool
	// SafeMode drops raw HTML embedded in the Markdown source.
	SafeMode bool
}

// Renderer converts Markdown to HTML. It holds a single goldmark engine and
// is safe for concurrent use.
type Renderer struct {
	engine goldmark.Markdown
}

// NewRenderer builds a Renderer for opts. Headings always get generated ids.
func NewRenderer(opts Options) *Renderer {
	var htmlOpts []renderer.Option
	if opts.HardWraps {
		htmlOpts = append(htmlOpts, html.WithHardWraps())
	}
	if !opts.SafeMode {
		htmlOpts = append(htmlOpts, html.WithUnsafe())
	}
	engine := goldmark.New(
		goldmark.WithExtensions(extenders(opts.Extensions)...),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(htmlOpts...),
	)
	return &Renderer{engine: engine}
}

// Render returns the HTML for source.
func (r *Renderer) Render(source []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.engine.Convert(source, &buf); err != nil {
		return nil, fmt.Errorf("markdown render: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderString is Render for string bodies.
func (r *Renderer) RenderString(source string) (string, error) {
	out, err := r.Render([]byte(source))
	if err != nil {
		return "", err
	}
	return string(out), nil
}

var extensionRegistry = map[string]goldmark.Extender{
	"gfm":           extension.GFM,
	"table":         extension.Table,
	"tables":        extension.Table,
	"strikethrough": extension.Strikethrough,
	"linkify":       extension.Linkify,
	"autolink":      extension.Linkify,
	"tasklist":      extension.TaskList,
	"definition":    extension.DefinitionList,
	"footnote":      extension.Footnote,
}

// SupportedExtension reports whether name is a known extension.
func SupportedExtension(name string) bool {
	_, ok := extensionRegistry[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

var defaultExtensions = []string{"gfm", "linkify", "tasklist"}

// extenders resolves names in order. Unknown names and aliases of an
// extension already selected are skipped.
func extenders(names []string) []goldmark.Extender {
	if len(names) == 0 {
		names = defaultExtensions
	}
	out := make([]goldmark.Extender, 0, len(names))
	for _, name := range names {
		ext, ok := extensionRegistry[strings.ToLower(strings.TrimSpace(name))]
		if ok && !slices.Contains(out, ext) {
			out = append(out, ext)
		}
	}
	return out
}
