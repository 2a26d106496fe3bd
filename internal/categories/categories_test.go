package categories

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-payload-sync/internal/rest"
	"github.com/goliatone/go-payload-sync/pkg/interfaces"
	"github.com/goliatone/go-payload-sync/pkg/testsupport"
)

func newResolver(t *testing.T, server *testsupport.PayloadServer, cfg Config) *Resolver {
	t.Helper()
	client, err := rest.New(server.URL)
	require.NoError(t, err)
	return NewResolver(client, cfg)
}

func sameDoc(a, b interfaces.Document) bool {
	return reflect.ValueOf(a).UnsafePointer() == reflect.ValueOf(b).UnsafePointer()
}

func TestEnsureBatchesLookupAndCreatesMissing(t *testing.T) {
	// Arrange
	server := testsupport.NewPayloadServer(t)
	existing := server.Seed("categories", map[string]any{"slug": "italy", "title": "Italy"})
	resolver := newResolver(t, server, Config{Defaults: map[string]any{"kind": "travel"}})

	// Act
	res, err := resolver.Ensure(context.Background(), []string{"Italy", "Lakes", " italy ", "Food & Wine", "Lakes"})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 1, server.Count(http.MethodGet, "categories"), "exactly one batched lookup")
	assert.Equal(t, 2, server.Count(http.MethodPost, "categories"))
	assert.Equal(t, []string{"lakes", "food-wine"}, res.Created)

	require.Len(t, res.Documents, 3)
	assert.Equal(t, existing[0]["id"], res.Documents[0]["id"])
	assert.Equal(t, "lakes", res.Documents[1]["slug"])
	assert.Equal(t, "Lakes", res.Documents[1]["title"])
	assert.Equal(t, "travel", res.Documents[1]["kind"])
	assert.Equal(t, "food-wine", res.Documents[2]["slug"])
	assert.Equal(t, "Food & Wine", res.Documents[2]["title"])

	require.Len(t, res.ForInput, 5)
	assert.True(t, sameDoc(res.ForInput[0], res.ForInput[2]))
	assert.True(t, sameDoc(res.ForInput[1], res.ForInput[4]))
	assert.True(t, sameDoc(res.ForInput[3], res.Documents[2]))
	assert.Len(t, res.IDs(), 3)

	lookup := server.Requests()[0]
	assert.Equal(t, "italy", lookup.Query.Get("where[slug][in][0]"))
	assert.Equal(t, "lakes", lookup.Query.Get("where[slug][in][1]"))
	assert.Equal(t, "food-wine", lookup.Query.Get("where[slug][in][2]"))
	assert.Equal(t, "3", lookup.Query.Get("limit"))
}

func TestEnsureTwiceCreatesNothingNew(t *testing.T) {
	server := testsupport.NewPayloadServer(t)
	resolver := newResolver(t, server, Config{})
	ctx := context.Background()

	first, err := resolver.Ensure(ctx, []string{"Rome", "Venice"})
	require.NoError(t, err)
	second, err := resolver.Ensure(ctx, []string{"Venice", "Rome", "Rome"})
	require.NoError(t, err)

	assert.Empty(t, second.Created)
	assert.Len(t, server.Docs("categories"), 2)
	assert.Equal(t, first.Documents[1]["id"], second.Documents[0]["id"])
	assert.Equal(t, 2, server.Count(http.MethodGet, "categories"))
}

func TestEnsureCustomFields(t *testing.T) {
	server := testsupport.NewPayloadServer(t)
	resolver := newResolver(t, server, Config{Collection: "tags", SlugField: "handle", LabelField: "name"})

	res, err := resolver.Ensure(context.Background(), []string{"Street Food"})

	require.NoError(t, err)
	assert.Equal(t, "street-food", res.Documents[0]["handle"])
	assert.Equal(t, "Street Food", res.Documents[0]["name"])
	assert.Equal(t, "street-food", server.Requests()[0].Query.Get("where[handle][in][0]"))
}

func TestEnsureValidationAndEmptyInput(t *testing.T) {
	server := testsupport.NewPayloadServer(t)
	resolver := newResolver(t, server, Config{})
	ctx := context.Background()

	_, err := resolver.Ensure(ctx, []string{"Rome", "  "})
	assert.ErrorIs(t, err, ErrCategoryNameEmpty)

	res, err := resolver.Ensure(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Documents)

	assert.Empty(t, server.Requests(), "no request for invalid or empty input")

	_, err = (&Resolver{}).Ensure(ctx, []string{"x"})
	assert.ErrorIs(t, err, ErrClientRequired)
}

func TestEnsurePropagatesHTTPErrors(t *testing.T) {
	server := testsupport.NewPayloadServer(t)
	server.FailNext(http.MethodPost, "categories", http.StatusBadRequest)
	resolver := newResolver(t, server, Config{})

	_, err := resolver.Ensure(context.Background(), []string{"Rome"})

	var httpErr *rest.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusBadRequest, httpErr.StatusCode)
}

func TestNames(t *testing.T) {
	names, ok := Names([]any{"Rome", "Venice"})
	assert.True(t, ok)
	assert.Equal(t, []string{"Rome", "Venice"}, names)

	names, ok = Names("Rome")
	assert.True(t, ok)
	assert.Equal(t, []string{"Rome"}, names)

	_, ok = Names([]any{"Rome", 3})
	assert.False(t, ok)

	_, ok = Names(map[string]any{})
	assert.False(t, ok)
}
