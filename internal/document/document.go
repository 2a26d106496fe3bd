// Package document parses article files: a YAML front matter block between
// two "---" lines followed by an HTML (or Markdown) body.
package document

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"
)

const (
	Delimiter = "---"

	FieldTitle = "title"
	FieldSlug  = "slug"
)

var utf8BOM = []byte("\xef\xbb\xbf")

var errNotMapping = errors.New("front matter is not a mapping")

var yamlFormat = frontmatter.NewFormat(Delimiter, Delimiter, unmarshalMapping)

// Document is a parsed article. Metadata is copied on every access, so a
// Document never changes after Parse returns it.
type Document struct {
	Path     string
	Body     string
	metadata map[string]any
}

// New builds a Document from already parsed parts.
func New(path string, metadata map[string]any, body string) *Document {
	return &Document{Path: path, Body: body, metadata: cloneMap(metadata)}
}

// Metadata returns a deep copy of the front matter mapping.
func (d *Document) Metadata() map[string]any {
	if d == nil {
		return map[string]any{}
	}
	out := cloneMap(d.metadata)
	if out == nil {
		out = map[string]any{}
	}
	return out
}

// Get returns the raw front matter value for key.
func (d *Document) Get(key string) (any, bool) {
	if d == nil {
		return nil, false
	}
	value, ok := d.metadata[key]
	return cloneValue(value), ok
}

// String returns the trimmed string value for key, or "" when absent or not
// a string.
func (d *Document) String(key string) string {
	if d == nil {
		return ""
	}
	value, _ := d.metadata[key].(string)
	return strings.TrimSpace(value)
}

// Title returns the front matter title.
func (d *Document) Title() string { return d.String(FieldTitle) }

// Slug returns the explicit front matter slug, if any.
func (d *Document) Slug() string { return d.String(FieldSlug) }

// Parse splits source into front matter and body. The first line must be the
// opening delimiter; the body is everything after the closing delimiter line.
func Parse(source []byte) (*Document, error) {
	source = bytes.TrimPrefix(source, utf8BOM)
	if !utf8.Valid(source) {
		return nil, &MalformedDocumentError{Reason: "content is not valid UTF-8"}
	}
	if !startsWithDelimiter(source) {
		return nil, &MalformedDocumentError{Reason: "missing opening delimiter"}
	}

	var metadata map[string]any
	body, err := frontmatter.MustParse(bytes.NewReader(source), &metadata, yamlFormat)
	if err != nil {
		if errors.Is(err, frontmatter.ErrNotFound) {
			return nil, &MalformedDocumentError{Reason: "missing closing delimiter"}
		}
		return nil, &MalformedDocumentError{Reason: "invalid YAML", Err: err}
	}

	doc := &Document{Body: string(body), metadata: metadata}
	if !doc.has(FieldTitle) && !doc.has(FieldSlug) {
		return nil, &MissingRequiredFieldError{Fields: []string{FieldTitle, FieldSlug}}
	}
	return doc, nil
}

// Load reads and parses the file at path.
func Load(path string) (*Document, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("payload document: read %s: %w", path, err)
	}
	return parseAt(path, source)
}

// LoadFS reads and parses name from fsys. The returned Path is name.
func LoadFS(fsys fs.FS, name string) (*Document, error) {
	source, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("payload document: read %s: %w", name, err)
	}
	return parseAt(name, source)
}

// IsMarkdown reports whether the document was loaded from a Markdown file.
func (d *Document) IsMarkdown() bool {
	if d == nil {
		return false
	}
	switch strings.ToLower(filepath.Ext(d.Path)) {
	case ".md", ".markdown":
		return true
	default:
		return false
	}
}

func (d *Document) has(key string) bool {
	value, ok := d.metadata[key]
	if !ok || value == nil {
		return false
	}
	if s, isString := value.(string); isString {
		return strings.TrimSpace(s) != ""
	}
	return true
}

func parseAt(path string, source []byte) (*Document, error) {
	doc, err := Parse(source)
	if err != nil {
		return nil, withPath(err, path)
	}
	doc.Path = path
	return doc, nil
}

func startsWithDelimiter(source []byte) bool {
	line, _, _ := bytes.Cut(source, []byte("\n"))
	return string(bytes.TrimSpace(line)) == Delimiter
}

func unmarshalMapping(data []byte, v any) error {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return err
	}
	if len(node.Content) == 0 || node.Content[0].Kind != yaml.MappingNode {
		return errNotMapping
	}
	return node.Content[0].Decode(v)
}

func cloneMap(input map[string]any) map[string]any {
	if input == nil {
		return nil
	}
	out := make(map[string]any, len(input))
	for key, value := range input {
		out[key] = cloneValue(value)
	}
	return out
}

func cloneValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		return cloneMap(typed)
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return value
	}
}
