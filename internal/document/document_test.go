package document

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"testing/fstest"

	"gopkg.in/yaml.v3"
)

const sample = `---
title: Lake Como Sunset
featuredImage: images/lake-como-sunset.jpg
tags:
  - italy
  - lakes
seo:
  description: Evening on the lake
  score: 7
published: true
---
<p>The sun sets over <strong>Como</strong>.</p>
`

func TestParseSplitsMetadataAndBody(t *testing.T) {
	doc, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if doc.Title() != "Lake Como Sunset" {
		t.Fatalf("unexpected title %q", doc.Title())
	}
	if doc.Slug() != "" {
		t.Fatalf("expected no slug, got %q", doc.Slug())
	}
	if doc.Body != "<p>The sun sets over <strong>Como</strong>.</p>\n" {
		t.Fatalf("unexpected body %q", doc.Body)
	}
	seo, ok := doc.Metadata()["seo"].(map[string]any)
	if !ok || seo["score"] != 7 {
		t.Fatalf("expected nested mapping, got %#v", doc.Metadata()["seo"])
	}
}

func TestParseFidelity(t *testing.T) {
	doc, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	encoded, err := yaml.Marshal(doc.Metadata())
	if err != nil {
		t.Fatalf("marshal metadata: %v", err)
	}
	var roundTrip map[string]any
	if err := yaml.Unmarshal(encoded, &roundTrip); err != nil {
		t.Fatalf("unmarshal metadata: %v", err)
	}

	var original map[string]any
	block, _, _ := strings.Cut(strings.TrimPrefix(sample, "---\n"), "---\n")
	if err := yaml.Unmarshal([]byte(block), &original); err != nil {
		t.Fatalf("unmarshal original block: %v", err)
	}

	if !reflect.DeepEqual(roundTrip, original) {
		t.Fatalf("metadata changed on round trip\nwant %#v\ngot  %#v", original, roundTrip)
	}
}

func TestMetadataIsCopiedOnAccess(t *testing.T) {
	doc, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	meta := doc.Metadata()
	meta["title"] = "changed"
	meta["seo"].(map[string]any)["score"] = 1
	meta["tags"].([]any)[0] = "france"

	again := doc.Metadata()
	if again["title"] != "Lake Como Sunset" || again["seo"].(map[string]any)["score"] != 7 || again["tags"].([]any)[0] != "italy" {
		t.Fatalf("document mutated through metadata copy: %#v", again)
	}
}

func TestParseAcceptsSlugOnlyAndKeepsBodyVerbatim(t *testing.T) {
	src := "\xef\xbb\xbf---\r\nslug: italy/venice-guide\r\n---\r\n\r\n  <h1>Venice</h1>\r\n---\r\n"
	doc, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if doc.Slug() != "italy/venice-guide" {
		t.Fatalf("unexpected slug %q", doc.Slug())
	}
	if doc.Body != "\r\n  <h1>Venice</h1>\r\n---\r\n" {
		t.Fatalf("unexpected body %q", doc.Body)
	}
}

func TestParseMalformed(t *testing.T) {
	cases := map[string]string{
		"no opening":     "title: x\n---\n<p></p>",
		"leading blank":  "\n---\ntitle: x\n---\n",
		"no closing":     "---\ntitle: x\n<p>body</p>\n",
		"scalar block":   "---\njust a string\n---\n",
		"list block":     "---\n- a\n- b\n---\n",
		"empty block":    "---\n---\n<p></p>",
		"invalid yaml":   "---\ntitle: [unterminated\n---\n",
		"invalid utf8":   "---\ntitle: \xff\n---\n",
		"empty document": "",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(src))
			var malformed *MalformedDocumentError
			if !errors.As(err, &malformed) {
				t.Fatalf("expected MalformedDocumentError, got %v", err)
			}
			if !errors.Is(err, ErrMalformedDocument) {
				t.Fatalf("expected error to match ErrMalformedDocument, got %v", err)
			}
		})
	}
}

func TestParseMissingRequiredField(t *testing.T) {
	for name, src := range map[string]string{
		"no title or slug": "---\nauthor: someone\n---\n<p></p>",
		"blank values":     "---\ntitle: '  '\nslug: ''\n---\n",
		"null title":       "---\ntitle:\n---\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(src))
			var missing *MissingRequiredFieldError
			if !errors.As(err, &missing) {
				t.Fatalf("expected MissingRequiredFieldError, got %v", err)
			}
			if !errors.Is(err, ErrMissingRequiredField) {
				t.Fatalf("expected sentinel match, got %v", err)
			}
		})
	}
}

func TestLoadAttachesPath(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "rome.html")
	if err := os.WriteFile(good, []byte("---\ntitle: Rome\n---\n<p>Rome</p>"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	doc, err := Load(good)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if doc.Path != good {
		t.Fatalf("expected path %s, got %s", good, doc.Path)
	}

	bad := filepath.Join(dir, "bad.html")
	if err := os.WriteFile(bad, []byte("<p>no front matter</p>"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	_, err = Load(bad)
	var malformed *MalformedDocumentError
	if !errors.As(err, &malformed) || malformed.Path != bad {
		t.Fatalf("expected malformed error carrying path, got %v", err)
	}
}

func TestLoadFSAndMarkdownDetection(t *testing.T) {
	fsys := fstest.MapFS{
		"guides/milan.md": &fstest.MapFile{Data: []byte("---\ntitle: Milan\n---\n# Milan\n")},
	}
	doc, err := LoadFS(fsys, "guides/milan.md")
	if err != nil {
		t.Fatalf("LoadFS returned error: %v", err)
	}
	if !doc.IsMarkdown() {
		t.Fatal("expected markdown document")
	}
	if New("a.html", nil, "").IsMarkdown() {
		t.Fatal("expected html document")
	}
}
