package media

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-payload-sync/internal/rest"
	"github.com/goliatone/go-payload-sync/pkg/testsupport"
)

func newResolver(t *testing.T, server *testsupport.PayloadServer, cfg Config) *Resolver {
	t.Helper()
	client, err := rest.New(server.URL)
	require.NoError(t, err)
	return NewResolver(client, cfg)
}

func TestResolveUploadsWithFilenameFallbacks(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteTree(t, dir, map[string]string{
		"posts/como.html":                   "",
		"posts/images/lake-como-sunset.jpg": "jpeg",
	})
	server := testsupport.NewPayloadServer(t)
	resolver := newResolver(t, server, Config{})

	got, err := resolver.Resolve(context.Background(), Reference{
		Path:        "images/lake-como-sunset.jpg",
		ArticlePath: filepath.Join(dir, "posts", "como.html"),
	})

	require.NoError(t, err)
	assert.True(t, got.Uploaded)
	assert.False(t, got.Updated)
	assert.Equal(t, "media-1", got.ID)

	docs := server.Docs("media")
	require.Len(t, docs, 1)
	assert.Equal(t, "lake-como-sunset.jpg", docs[0]["filename"])
	assert.Equal(t, "Lake Como Sunset", docs[0]["alt"])
	assert.Equal(t, "Lake Como Sunset", docs[0]["caption"])

	lookup := server.Requests()[0]
	assert.Equal(t, http.MethodGet, lookup.Method)
	assert.Equal(t, "lake-como-sunset.jpg", lookup.Query.Get("where[filename][equals]"))
	assert.Equal(t, "1", lookup.Query.Get("limit"))
}

func TestResolveReusesExistingMedia(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteTree(t, dir, map[string]string{"lake.jpg": "jpeg"})
	server := testsupport.NewPayloadServer(t)
	seeded := server.Seed("media", map[string]any{"filename": "lake.jpg", "alt": "Lake", "caption": "Lake"})
	resolver := newResolver(t, server, Config{Root: dir})

	got, err := resolver.Resolve(context.Background(), Reference{Path: "/lake.jpg"})

	require.NoError(t, err)
	assert.Equal(t, seeded[0]["id"], got.ID)
	assert.False(t, got.Uploaded)
	assert.False(t, got.Updated)
	assert.Equal(t, 0, server.Count(http.MethodPost, "media"))
	assert.Equal(t, 0, server.Count(http.MethodPatch, "media"))
	assert.Equal(t, filepath.Join(dir, "lake.jpg"), got.LocalPath)
}

func TestResolveUpdatesWhenExplicitValuesDiffer(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteTree(t, dir, map[string]string{"lake.jpg": "jpeg"})
	server := testsupport.NewPayloadServer(t)
	server.Seed("media", map[string]any{"filename": "lake.jpg", "alt": "Lake", "caption": "Lake"})
	resolver := newResolver(t, server, Config{Root: dir})

	got, err := resolver.Resolve(context.Background(), Reference{
		Path:    "lake.jpg",
		Alt:     "Lake Como at dusk",
		Caption: "Lake",
	})

	require.NoError(t, err)
	assert.True(t, got.Updated)
	require.Equal(t, 1, server.Count(http.MethodPatch, "media"))
	var patch testsupport.RecordedRequest
	for _, req := range server.Requests() {
		if req.Method == http.MethodPatch {
			patch = req
		}
	}
	assert.Equal(t, map[string]any{"alt": "Lake Como at dusk"}, patch.Body)
	assert.Equal(t, "Lake Como at dusk", server.Docs("media")[0]["alt"])
}

func TestResolveExplicitValuesBeatDefaults(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteTree(t, dir, map[string]string{"hero.png": "png"})
	server := testsupport.NewPayloadServer(t)
	resolver := newResolver(t, server, Config{
		Root:     dir,
		Defaults: map[string]any{"alt": "Article cover", "folder": "covers"},
	})

	_, err := resolver.Resolve(context.Background(), Reference{Path: "hero.png", Caption: "The hero"})

	require.NoError(t, err)
	doc := server.Docs("media")[0]
	assert.Equal(t, "Article cover", doc["alt"])
	assert.Equal(t, "The hero", doc["caption"])
	assert.Equal(t, "covers", doc["folder"])
}

func TestResolveMissingFile(t *testing.T) {
	server := testsupport.NewPayloadServer(t)
	resolver := newResolver(t, server, Config{Root: t.TempDir()})

	_, err := resolver.Resolve(context.Background(), Reference{Path: "missing.jpg"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMediaNotFound))
	assert.Empty(t, server.Requests())
}

func TestResolvePropagatesUploadFailure(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteTree(t, dir, map[string]string{"hero.png": "png"})
	server := testsupport.NewPayloadServer(t)
	server.FailNext(http.MethodPost, "media", http.StatusRequestEntityTooLarge)
	resolver := newResolver(t, server, Config{Root: dir})

	_, err := resolver.Resolve(context.Background(), Reference{Path: "hero.png"})

	var httpErr *rest.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusRequestEntityTooLarge, httpErr.StatusCode)
}

func TestLocatePathOrder(t *testing.T) {
	root := t.TempDir()
	articles := t.TempDir()
	testsupport.WriteTree(t, root, map[string]string{"shared.jpg": "root"})
	testsupport.WriteTree(t, articles, map[string]string{
		"shared.jpg": "article",
		"local.jpg":  "article",
		"post.html":  "",
	})
	article := filepath.Join(articles, "post.html")

	got, err := LocatePath("shared.jpg", article, root)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "shared.jpg"), got)

	got, err = LocatePath(`\local.jpg`, article, root)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(articles, "local.jpg"), got)

	direct := filepath.Join(articles, "local.jpg")
	got, err = LocatePath(direct, "", "")
	require.NoError(t, err)
	assert.Equal(t, direct, got)

	require.NoError(t, os.Mkdir(filepath.Join(articles, "folder.jpg"), 0o755))
	_, err = LocatePath("folder.jpg", article, "")
	assert.ErrorIs(t, err, ErrMediaNotFound)

	_, err = LocatePath("  ", article, root)
	assert.ErrorIs(t, err, ErrMediaNotFound)
}

func TestStripCompanionFields(t *testing.T) {
	meta := map[string]any{
		"title":                "Lake Como",
		"featuredImage":        "lake.jpg",
		"featuredImageAlt":     " The lake ",
		"featuredImageCaption": 42,
	}

	alt, caption := StripCompanionFields(meta)

	assert.Equal(t, "The lake", alt)
	assert.Empty(t, caption)
	assert.Equal(t, map[string]any{"title": "Lake Como", "featuredImage": "lake.jpg"}, meta)
}

func TestResolveRequiresClient(t *testing.T) {
	_, err := NewResolver(nil, Config{}).Resolve(context.Background(), Reference{Path: "x"})
	assert.ErrorIs(t, err, ErrClientRequired)
}
