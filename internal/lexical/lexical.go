// Package lexical converts HTML fragments into the Lexical rich text JSON
// structure stored by Payload richText fields.
package lexical

import (
	"encoding/json"
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Text format bits.
const (
	FormatBold   = 1
	FormatItalic = 2
	FormatCode   = 16
)

const (
	TypeRoot      = "root"
	TypeParagraph = "paragraph"
	TypeHeading   = "heading"
	TypeQuote     = "quote"
	TypeList      = "list"
	TypeListItem  = "listitem"
	TypeText      = "text"
	TypeLink      = "link"

	directionLTR = "ltr"
	nodeVersion  = 1
)

// Node is an element or text node in a Lexical tree.
type Node interface {
	NodeType() string
}

// Element is a block node with children.
type Element struct {
	Type     string
	Tag      string
	ListType string
	Start    int
	Children []Node
}

// NodeType implements Node.
func (e *Element) NodeType() string { return e.Type }

// MarshalJSON renders the element with the fixed Lexical attributes.
func (e *Element) MarshalJSON() ([]byte, error) {
	children := e.Children
	if children == nil {
		children = []Node{}
	}
	return json.Marshal(struct {
		Type      string `json:"type"`
		Tag       string `json:"tag,omitempty"`
		ListType  string `json:"listType,omitempty"`
		Start     int    `json:"start,omitempty"`
		Format    string `json:"format"`
		Indent    int    `json:"indent"`
		Version   int    `json:"version"`
		Children  []Node `json:"children"`
		Direction string `json:"direction"`
	}{
		Type:      e.Type,
		Tag:       e.Tag,
		ListType:  e.ListType,
		Start:     e.Start,
		Format:    "",
		Version:   nodeVersion,
		Children:  children,
		Direction: directionLTR,
	})
}

// Text is a run of text. A non-empty URL turns it into a link node.
type Text struct {
	Text   string
	Format int
	URL    string
}

// NodeType implements Node.
func (t *Text) NodeType() string {
	if t.URL != "" {
		return TypeLink
	}
	return TypeText
}

// LinkFields is the fields payload of a link node.
type LinkFields struct {
	LinkType string `json:"linkType"`
	URL      string `json:"url"`
}

// MarshalJSON renders the text node with the fixed Lexical attributes.
func (t *Text) MarshalJSON() ([]byte, error) {
	var fields *LinkFields
	if t.URL != "" {
		fields = &LinkFields{LinkType: "custom", URL: t.URL}
	}
	return json.Marshal(struct {
		Mode    string      `json:"mode"`
		Text    string      `json:"text"`
		Type    string      `json:"type"`
		Style   string      `json:"style"`
		Detail  int         `json:"detail"`
		Format  int         `json:"format"`
		Version int         `json:"version"`
		Fields  *LinkFields `json:"fields,omitempty"`
	}{
		Mode:    "normal",
		Text:    t.Text,
		Type:    t.NodeType(),
		Format:  t.Format,
		Version: nodeVersion,
		Fields:  fields,
	})
}

// Document is the top level value stored in a richText field.
type Document struct {
	Root *Element `json:"root"`
}

// Map returns the document as generic JSON values.
func (d *Document) Map() (map[string]any, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

var blockTypes = map[atom.Atom]string{
	atom.P:          TypeParagraph,
	atom.H1:         TypeHeading,
	atom.H2:         TypeHeading,
	atom.H3:         TypeHeading,
	atom.H4:         TypeHeading,
	atom.H5:         TypeHeading,
	atom.H6:         TypeHeading,
	atom.Blockquote: TypeQuote,
	atom.Li:         TypeListItem,
}

var listTypes = map[atom.Atom]string{
	atom.Ul: "bullet",
	atom.Ol: "number",
}

var skipped = map[atom.Atom]bool{
	atom.Script: true,
	atom.Style:  true,
	atom.Iframe: true,
}

// FromHTML converts an HTML fragment. Block tags map to Lexical blocks,
// inline formatting sets text format bits, and anchors become link nodes.
// Container tags like div or section are transparent. script, style and
// iframe are dropped with their content. Text outside any block is wrapped
// in a paragraph and blocks left without content are removed.
func FromHTML(src string) (*Document, error) {
	c := &converter{root: &Element{Type: TypeRoot}}
	z := html.NewTokenizer(strings.NewReader(src))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return nil, err
			}
			c.flush()
			c.root.Children = prune(c.root.Children)
			return &Document{Root: c.root}, nil
		case html.TextToken:
			if c.skipDepth == 0 {
				c.text(string(z.Text()))
			}
		case html.StartTagToken:
			c.start(z)
		case html.EndTagToken:
			name, _ := z.TagName()
			c.end(atom.Lookup(name))
		}
	}
}

type converter struct {
	root      *Element
	stack     []*Element
	buffer    strings.Builder
	bold      int
	italic    int
	code      int
	link      string
	skipDepth int
}

func (c *converter) start(z *html.Tokenizer) {
	name, hasAttr := z.TagName()
	tag := atom.Lookup(name)
	if c.skipDepth > 0 {
		c.skipDepth++
		return
	}
	if skipped[tag] {
		c.skipDepth = 1
		return
	}
	c.flush()

	if kind, ok := blockTypes[tag]; ok {
		node := &Element{Type: kind}
		if kind == TypeHeading {
			node.Tag = tag.String()
		}
		c.push(node)
		return
	}
	if kind, ok := listTypes[tag]; ok {
		c.push(&Element{Type: TypeList, ListType: kind, Start: 1, Tag: tag.String()})
		return
	}
	switch tag {
	case atom.Strong, atom.B:
		c.bold++
	case atom.Em, atom.I:
		c.italic++
	case atom.Code:
		c.code++
	case atom.A:
		for hasAttr {
			var key, val []byte
			key, val, hasAttr = z.TagAttr()
			if string(key) == "href" {
				c.link = string(val)
				break
			}
		}
	}
}

func (c *converter) end(tag atom.Atom) {
	if c.skipDepth > 0 {
		c.skipDepth--
		return
	}
	c.flush()

	_, block := blockTypes[tag]
	_, list := listTypes[tag]
	switch {
	case block || list:
		if n := len(c.stack); n > 0 {
			c.stack = c.stack[:n-1]
		}
	case tag == atom.Strong || tag == atom.B:
		c.bold = max(c.bold-1, 0)
	case tag == atom.Em || tag == atom.I:
		c.italic = max(c.italic-1, 0)
	case tag == atom.Code:
		c.code = max(c.code-1, 0)
	case tag == atom.A:
		c.link = ""
	}
}

func (c *converter) text(data string) {
	if strings.TrimSpace(data) != "" {
		c.buffer.WriteString(data)
	}
}

func (c *converter) flush() {
	text := strings.TrimSpace(c.buffer.String())
	c.buffer.Reset()
	if text == "" {
		return
	}
	node := &Text{Text: text, Format: c.format(), URL: c.link}
	if n := len(c.stack); n > 0 {
		parent := c.stack[n-1]
		parent.Children = append(parent.Children, node)
		return
	}
	c.root.Children = append(c.root.Children, &Element{Type: TypeParagraph, Children: []Node{node}})
}

func (c *converter) format() int {
	format := 0
	if c.bold > 0 {
		format |= FormatBold
	}
	if c.italic > 0 {
		format |= FormatItalic
	}
	if c.code > 0 {
		format |= FormatCode
	}
	return format
}

func (c *converter) push(node *Element) {
	parent := c.root
	if n := len(c.stack); n > 0 {
		parent = c.stack[n-1]
	}
	parent.Children = append(parent.Children, node)
	c.stack = append(c.stack, node)
}

func prune(nodes []Node) []Node {
	out := make([]Node, 0, len(nodes))
	for _, node := range nodes {
		el, ok := node.(*Element)
		if !ok {
			out = append(out, node)
			continue
		}
		el.Children = prune(el.Children)
		if len(el.Children) > 0 {
			out = append(out, el)
		}
	}
	return out
}
