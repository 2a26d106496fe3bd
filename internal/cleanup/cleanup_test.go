package cleanup

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-payload-sync/internal/rest"
	"github.com/goliatone/go-payload-sync/pkg/interfaces"
	"github.com/goliatone/go-payload-sync/pkg/testsupport"
)

func seed(server *testsupport.PayloadServer, collection string, n int) {
	for i := 0; i < n; i++ {
		server.Seed(collection, map[string]any{"slug": fmt.Sprintf("%s-%d", collection, i)})
	}
}

func newCleaner(t *testing.T, server *testsupport.PayloadServer, opts ...Option) *Cleaner {
	t.Helper()
	client, err := rest.New(server.URL)
	require.NoError(t, err)
	return New(client, opts...)
}

func TestCleanDeletesEverythingInFixedOrder(t *testing.T) {
	server := testsupport.NewPayloadServer(t)
	seed(server, "posts", 7)
	seed(server, "media", 3)
	seed(server, "categories", 2)
	cleaner := newCleaner(t, server, WithConfig(Config{PageSize: 3}))

	report, err := cleaner.Clean(context.Background(), Targets{Roles: []Role{RoleCategories, RolePosts, RoleMedia}})

	require.NoError(t, err)
	assert.Equal(t, []string{"posts", "media", "categories"}, report.Order)
	assert.Equal(t, map[string]int{"posts": 7, "media": 3, "categories": 2}, report.Counts)
	assert.Equal(t, 12, report.Total())
	assert.Empty(t, server.Docs("posts"))
	assert.Empty(t, server.Docs("media"))
	assert.Empty(t, server.Docs("categories"))

	var order []string
	for _, req := range server.Requests() {
		if req.Method != http.MethodDelete {
			continue
		}
		if n := len(order); n == 0 || order[n-1] != req.Collection {
			order = append(order, req.Collection)
		}
	}
	assert.Equal(t, []string{"posts", "media", "categories"}, order)
}

func TestCleanSubsetAndOverrides(t *testing.T) {
	server := testsupport.NewPayloadServer(t)
	seed(server, "articles", 2)
	seed(server, "media", 2)

	report, err := newCleaner(t, server).Clean(context.Background(), Targets{
		Roles:       []Role{RolePosts},
		Collections: map[Role]string{RolePosts: "articles"},
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"articles"}, report.Order)
	assert.Equal(t, 2, report.Total())
	assert.Len(t, server.Docs("media"), 2)
}

func TestCleanEmptyCollections(t *testing.T) {
	server := testsupport.NewPayloadServer(t)

	report, err := newCleaner(t, server).Clean(context.Background(), AllTargets())

	require.NoError(t, err)
	assert.Equal(t, 0, report.Total())
	assert.Equal(t, map[string]int{"posts": 0, "media": 0, "categories": 0}, report.Counts)
}

func TestCleanStopsOnDeleteFailure(t *testing.T) {
	server := testsupport.NewPayloadServer(t)
	seed(server, "posts", 1)
	seed(server, "media", 2)
	server.FailNext(http.MethodDelete, "media", http.StatusForbidden)

	report, err := newCleaner(t, server).Clean(context.Background(), AllTargets())

	var httpErr *rest.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusForbidden, httpErr.StatusCode)
	assert.Equal(t, map[string]int{"posts": 1, "media": 0}, report.Counts)
	assert.Len(t, server.Docs("categories"), 0)
	assert.Equal(t, 0, server.Count(http.MethodGet, "categories"))
}

func TestCleanUnknownRole(t *testing.T) {
	server := testsupport.NewPayloadServer(t)

	_, err := newCleaner(t, server).Clean(context.Background(), Targets{Roles: []Role{"users"}})

	assert.ErrorIs(t, err, ErrUnknownRole)
	_, err = ParseRole("pages")
	assert.ErrorIs(t, err, ErrUnknownRole)
}

type stuckClient struct {
	interfaces.PayloadClient
	deletes int
}

func (s *stuckClient) FindPage(context.Context, string, interfaces.Query) (*interfaces.Page, error) {
	return &interfaces.Page{Docs: []interfaces.Document{{"id": 1}}}, nil
}

func (s *stuckClient) Delete(context.Context, string, any) error {
	s.deletes++
	return nil
}

func TestCleanDetectsStalledCollection(t *testing.T) {
	client := &stuckClient{}

	report, err := New(client).Clean(context.Background(), Targets{Roles: []Role{RoleMedia}})

	assert.ErrorIs(t, err, ErrCleanupStalled)
	assert.Equal(t, 1, client.deletes)
	assert.Equal(t, 1, report.Counts["media"])
}
