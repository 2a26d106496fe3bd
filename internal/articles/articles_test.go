package articles

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-payload-sync/internal/categories"
	"github.com/goliatone/go-payload-sync/internal/document"
	"github.com/goliatone/go-payload-sync/internal/lexical"
	"github.com/goliatone/go-payload-sync/internal/media"
	"github.com/goliatone/go-payload-sync/internal/rest"
	"github.com/goliatone/go-payload-sync/internal/slugs"
	"github.com/goliatone/go-payload-sync/internal/validation"
	"github.com/goliatone/go-payload-sync/pkg/testsupport"
)

type fixture struct {
	server   *testsupport.PayloadServer
	client   *rest.Client
	uploader *Uploader
	dir      string
}

func newFixture(t *testing.T, cfg BuilderConfig, opts ...BuilderOption) *fixture {
	t.Helper()
	server := testsupport.NewPayloadServer(t)
	client, err := rest.New(server.URL)
	require.NoError(t, err)
	opts = append([]BuilderOption{
		WithMediaResolver(media.NewResolver(client, media.Config{})),
		WithCategoryResolver(categories.NewResolver(client, categories.Config{})),
	}, opts...)
	builder := NewBuilder(cfg, opts...)
	return &fixture{
		server:   server,
		client:   client,
		uploader: NewUploader(client, builder, UploaderConfig{}),
		dir:      t.TempDir(),
	}
}

func (f *fixture) write(t *testing.T, files map[string]string) {
	t.Helper()
	testsupport.WriteTree(t, f.dir, files)
}

func (f *fixture) path(rel string) string {
	return filepath.Join(f.dir, filepath.FromSlash(rel))
}

func TestUploadFileCreatesThenUpdates(t *testing.T) {
	f := newFixture(t, BuilderConfig{Defaults: map[string]any{"status": "draft", "author": "editor"}})
	f.write(t, map[string]string{
		"lake-como.html": testsupport.Article("title: Lake Como Sunset\nstatus: published", "\n  <p>Golden hour.</p>\n\n"),
	})
	ctx := context.Background()

	first, err := f.uploader.UploadFile(ctx, f.path("lake-como.html"), UploadOptions{})
	require.NoError(t, err)
	second, err := f.uploader.UploadFile(ctx, f.path("lake-como.html"), UploadOptions{})
	require.NoError(t, err)

	assert.Equal(t, ActionCreated, first.Action)
	assert.Equal(t, ActionUpdated, second.Action)
	assert.Equal(t, "lake-como-sunset", first.Slug)
	assert.Equal(t, f.path("lake-como.html"), first.Path)
	assert.Equal(t, first.Document["id"], second.Document["id"])

	posts := f.server.Docs("posts")
	require.Len(t, posts, 1)
	assert.Equal(t, "lake-como-sunset", posts[0]["slug"])
	assert.Equal(t, "<p>Golden hour.</p>", posts[0]["content"])
	assert.Equal(t, "published", posts[0]["status"])
	assert.Equal(t, "editor", posts[0]["author"])
	assert.Equal(t, 1, f.server.Count(http.MethodPost, "posts"))
	assert.Equal(t, 1, f.server.Count(http.MethodPatch, "posts"))
}

func TestUploadFileResolvesFeaturedImageAndCategories(t *testing.T) {
	f := newFixture(t, BuilderConfig{})
	f.write(t, map[string]string{
		"como.html": testsupport.Article(`title: Como
featuredImage: images/lake-como-sunset.jpg
featuredImageCaption: Sunset over the lake
categories: [Italy, Lakes]`, "<p>Body</p>"),
		"images/lake-como-sunset.jpg": "jpeg",
	})
	f.server.Seed("categories", map[string]any{"slug": "italy", "title": "Italy"})

	res, err := f.uploader.UploadFile(context.Background(), f.path("como.html"), UploadOptions{})
	require.NoError(t, err)

	post := f.server.Docs("posts")[0]
	mediaDocs := f.server.Docs("media")
	require.Len(t, mediaDocs, 1)
	assert.Equal(t, mediaDocs[0]["id"], post["featuredImage"])
	assert.Equal(t, "Lake Como Sunset", mediaDocs[0]["alt"])
	assert.Equal(t, "Sunset over the lake", mediaDocs[0]["caption"])
	assert.NotContains(t, post, "featuredImageAlt")
	assert.NotContains(t, post, "featuredImageCaption")

	cats := f.server.Docs("categories")
	require.Len(t, cats, 2)
	assert.Equal(t, []any{cats[0]["id"], cats[1]["id"]}, post["categories"])
	assert.Equal(t, 1, f.server.Count(http.MethodGet, "categories"))
	assert.Equal(t, ActionCreated, res.Action)
}

func TestUpsertAmbiguousSlug(t *testing.T) {
	f := newFixture(t, BuilderConfig{})
	f.server.Seed("posts",
		map[string]any{"slug": "rome", "title": "Rome"},
		map[string]any{"slug": "rome", "title": "Rome again"},
	)
	upserter := NewUpserter(f.client, "posts", "", nil)

	_, err := upserter.Upsert(context.Background(), "rome", map[string]any{"slug": "rome"})

	var ambiguous *AmbiguousSlugError
	require.ErrorAs(t, err, &ambiguous)
	assert.True(t, errors.Is(err, ErrAmbiguousSlug))
	assert.Equal(t, "posts", ambiguous.Collection)
	assert.Equal(t, "rome", ambiguous.Slug)
	assert.Equal(t, []any{"posts-1", "posts-2"}, ambiguous.IDs)
	assert.Contains(t, err.Error(), "posts-1, posts-2")
	assert.Equal(t, 0, f.server.Count(http.MethodPost, "posts"))
	assert.Equal(t, 0, f.server.Count(http.MethodPatch, "posts"))
}

func TestUploadFileAppliesPrefixOnce(t *testing.T) {
	f := newFixture(t, BuilderConfig{})
	f.write(t, map[string]string{
		"venice.html": testsupport.Article("title: Venice\nslug: italy/venice-guide", "<p>Canals</p>"),
		"milan.html":  testsupport.Article("title: Milan", "<p>Duomo</p>"),
	})

	venice, err := f.uploader.UploadFile(context.Background(), f.path("venice.html"), UploadOptions{SlugPrefix: "Italy"})
	require.NoError(t, err)
	milan, err := f.uploader.UploadFile(context.Background(), f.path("milan.html"), UploadOptions{SlugPrefix: "Italy"})
	require.NoError(t, err)

	assert.Equal(t, "italy/venice-guide", venice.Slug)
	assert.Equal(t, "italy/milan", milan.Slug)
	assert.Equal(t, "italy/milan", f.server.Docs("posts")[1]["slug"])
}

func TestUploadDirectoryPrefixesAndOrder(t *testing.T) {
	f := newFixture(t, BuilderConfig{})
	f.write(t, map[string]string{
		"italy/rome-activities.html":         testsupport.Article("title: Rome Activities", "<p>Rome</p>"),
		"italy/venice.html":                  testsupport.Article("title: Venice\nslug: italy/venice-guide", "<p>Venice</p>"),
		"Switzerland Adventures/zurich.html": testsupport.Article("title: Zürich Local Culture", "<p>Zurich</p>"),
		"root.html":                          testsupport.Article("title: Root Page", "<p>Root</p>"),
		"notes.txt":                          "not an article",
	})

	batch, err := f.uploader.UploadDirectory(context.Background(), f.dir, DefaultDirectoryOptions())
	require.NoError(t, err)
	require.NoError(t, batch.Err())

	var slugsSeen []string
	for _, res := range batch.Results {
		slugsSeen = append(slugsSeen, res.Slug)
	}
	assert.Equal(t, []string{
		"switzerland-adventures/zurich-local-culture",
		"italy/rome-activities",
		"italy/venice-guide",
		"root-page",
	}, slugsSeen)
	assert.Len(t, f.server.Docs("posts"), 4)
}

func TestUploadDirectoryNonRecursive(t *testing.T) {
	f := newFixture(t, BuilderConfig{})
	f.write(t, map[string]string{
		"top.md":          testsupport.Article("title: Top", "# Hello"),
		"nested/deep.md":  testsupport.Article("title: Deep", "# Deep"),
		"nested/skip.htm": testsupport.Article("title: Skip", "x"),
	})

	batch, err := f.uploader.UploadDirectory(context.Background(), f.dir, DirectoryOptions{Pattern: "*.md"})
	require.NoError(t, err)

	require.Len(t, batch.Results, 1)
	assert.Equal(t, "top", batch.Results[0].Slug)
	assert.Contains(t, f.server.Docs("posts")[0]["content"], "<h1")
}

func TestUploadDirectoryErrorPolicies(t *testing.T) {
	files := map[string]string{
		"a.html": testsupport.Article("title: Alpha", "<p>a</p>"),
		"b.html": "<p>no front matter</p>",
		"c.html": testsupport.Article("title: Gamma", "<p>c</p>"),
	}

	t.Run("abort", func(t *testing.T) {
		f := newFixture(t, BuilderConfig{})
		f.write(t, files)

		batch, err := f.uploader.UploadDirectory(context.Background(), f.dir, DefaultDirectoryOptions())

		var fileErr *FileError
		require.ErrorAs(t, err, &fileErr)
		assert.Equal(t, f.path("b.html"), fileErr.Path)
		var malformed *document.MalformedDocumentError
		assert.ErrorAs(t, err, &malformed)
		require.Len(t, batch.Results, 1)
		assert.Len(t, f.server.Docs("posts"), 1)
	})

	t.Run("continue", func(t *testing.T) {
		f := newFixture(t, BuilderConfig{})
		f.write(t, files)
		opts := DefaultDirectoryOptions()
		opts.ErrorPolicy = ContinueOnError

		batch, err := f.uploader.UploadDirectory(context.Background(), f.dir, opts)

		require.NoError(t, err)
		assert.Len(t, batch.Results, 2)
		require.Len(t, batch.Errors, 1)
		assert.Equal(t, f.path("b.html"), batch.Errors[0].Path)
		assert.ErrorIs(t, batch.Err(), document.ErrMalformedDocument)
		assert.Len(t, f.server.Docs("posts"), 2)
	})
}

func TestUploadDirectoryRejectsUnsluggableFolder(t *testing.T) {
	f := newFixture(t, BuilderConfig{})
	f.write(t, map[string]string{
		"!!!/x.html":   testsupport.Article("title: Shared", "<p>a</p>"),
		"italy/x.html": testsupport.Article("title: Shared", "<p>b</p>"),
	})
	opts := DefaultDirectoryOptions()
	opts.ErrorPolicy = ContinueOnError

	batch, err := f.uploader.UploadDirectory(context.Background(), f.dir, opts)

	require.NoError(t, err)
	require.Len(t, batch.Errors, 1)
	assert.Equal(t, f.path("!!!/x.html"), batch.Errors[0].Path)
	assert.ErrorIs(t, batch.Err(), slugs.ErrEmptySlug)
	posts := f.server.Docs("posts")
	require.Len(t, posts, 1)
	assert.Equal(t, "italy/shared", posts[0]["slug"])
}

func TestUploadDirectoryRejectsFiles(t *testing.T) {
	f := newFixture(t, BuilderConfig{})
	f.write(t, map[string]string{"one.html": testsupport.Article("title: One", "")})

	_, err := f.uploader.UploadDirectory(context.Background(), f.path("one.html"), DefaultDirectoryOptions())
	assert.ErrorIs(t, err, ErrNotDirectory)
}

func TestDryRunSkipsWrites(t *testing.T) {
	f := newFixture(t, BuilderConfig{})
	f.write(t, map[string]string{
		"como.html": testsupport.Article("title: Como\nfeaturedImage: como.jpg\ncategories: [Lakes]", "<p>x</p>"),
		"como.jpg":  "jpeg",
		"rome.html": testsupport.Article("title: Rome", "<p>y</p>"),
	})
	f.server.Seed("posts", map[string]any{"slug": "rome", "title": "Rome"})
	opts := DefaultDirectoryOptions()
	opts.DryRun = true

	batch, err := f.uploader.UploadDirectory(context.Background(), f.dir, opts)

	require.NoError(t, err)
	require.Len(t, batch.Results, 2)
	assert.Equal(t, ActionSkipped, batch.Results[0].Action)
	assert.Equal(t, ActionCreated, batch.Results[0].Planned)
	assert.Equal(t, "como.jpg", batch.Results[0].Document["featuredImage"])
	assert.Equal(t, ActionUpdated, batch.Results[1].Planned)
	for _, req := range f.server.Requests() {
		assert.Equal(t, http.MethodGet, req.Method, "unexpected %s %s", req.Method, req.Collection)
	}
}

func TestBuilderLexicalBody(t *testing.T) {
	builder := NewBuilder(BuilderConfig{BodyFormat: BodyLexical, BodyField: "body"})
	doc := document.New("guide.md", map[string]any{"title": "Guide"}, "## Step one\n\nGo **now**")

	slug, fields, err := builder.Build(context.Background(), doc)

	require.NoError(t, err)
	assert.Equal(t, "guide", slug)
	tree, ok := fields["body"].(*lexical.Document)
	require.True(t, ok, "expected lexical document, got %T", fields["body"])
	require.Len(t, tree.Root.Children, 2)
	heading := tree.Root.Children[0].(*lexical.Element)
	assert.Equal(t, "h2", heading.Tag)
}

func TestBuilderSanitizesAndValidates(t *testing.T) {
	validator, err := validation.Compile(map[string]any{
		"type":     "object",
		"required": []any{"excerpt"},
	})
	require.NoError(t, err)
	builder := NewBuilder(BuilderConfig{Sanitize: true}, WithValidator(validator))

	doc := document.New("a.html", map[string]any{"title": "A"}, `<p>Hi<script>x()</script></p>`)
	_, _, err = builder.Build(context.Background(), doc)
	var payloadErr *validation.PayloadValidationError
	require.ErrorAs(t, err, &payloadErr)

	plain := NewBuilder(BuilderConfig{Sanitize: true})
	_, fields, err := plain.Build(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, "<p>Hi</p>", fields["content"])
}

func TestUploadFileHonoursCustomSlugField(t *testing.T) {
	server := testsupport.NewPayloadServer(t)
	client, err := rest.New(server.URL)
	require.NoError(t, err)
	builder := NewBuilder(BuilderConfig{SlugField: "handle"})
	uploader := NewUploader(client, builder, UploaderConfig{SlugField: "handle"})
	dir := t.TempDir()
	testsupport.WriteTree(t, dir, map[string]string{
		"como.html":  testsupport.Article("title: Lake Como Sunset\nhandle: \" como-2024 \"", "<p>x</p>"),
		"garda.html": testsupport.Article("title: Lake Garda", "<p>y</p>"),
	})
	ctx := context.Background()

	first, err := uploader.UploadFile(ctx, filepath.Join(dir, "como.html"), UploadOptions{})
	require.NoError(t, err)
	again, err := uploader.UploadFile(ctx, filepath.Join(dir, "como.html"), UploadOptions{})
	require.NoError(t, err)
	derived, err := uploader.UploadFile(ctx, filepath.Join(dir, "garda.html"), UploadOptions{})
	require.NoError(t, err)

	assert.Equal(t, "como-2024", first.Slug)
	assert.Equal(t, ActionCreated, first.Action)
	assert.Equal(t, ActionUpdated, again.Action)
	assert.Equal(t, "lake-garda", derived.Slug)

	posts := server.Docs("posts")
	require.Len(t, posts, 2)
	handles := []any{posts[0]["handle"], posts[1]["handle"]}
	assert.ElementsMatch(t, []any{"como-2024", "lake-garda"}, handles)
	assert.NotContains(t, posts[0], "slug")
}

func TestBuilderRequiresSluggableTitle(t *testing.T) {
	builder := NewBuilder(BuilderConfig{})

	_, _, err := builder.Build(context.Background(), document.New("x.html", map[string]any{"title": "!!!"}, ""))

	assert.ErrorIs(t, err, ErrSlugRequired)
}

func TestParseErrorPolicy(t *testing.T) {
	p, err := ParseErrorPolicy("continue")
	require.NoError(t, err)
	assert.Equal(t, ContinueOnError, p)
	assert.Equal(t, "continue", p.String())

	p, err = ParseErrorPolicy("")
	require.NoError(t, err)
	assert.Equal(t, AbortOnError, p)

	_, err = ParseErrorPolicy("retry")
	assert.Error(t, err)
}
