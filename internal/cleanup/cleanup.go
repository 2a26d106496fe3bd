// Package cleanup deletes every document from the article, media and
// category collections, in an order that keeps references valid.
package cleanup

import (
	"context"
	"errors"
	"fmt"

	"github.com/goliatone/go-payload-sync/internal/logging"
	"github.com/goliatone/go-payload-sync/pkg/interfaces"
)

// Role is the part a collection plays. Roles always run posts, then media,
// then categories.
type Role string

const (
	RolePosts      Role = "posts"
	RoleMedia      Role = "media"
	RoleCategories Role = "categories"
)

// Roles lists every role in processing order.
var Roles = []Role{RolePosts, RoleMedia, RoleCategories}

const (
	DefaultPageSize = 100
	// DefaultMaxPages bounds the pages fetched per collection.
	DefaultMaxPages = 10000
)

var (
	ErrClientRequired = errors.New("payload cleanup: client is required")
	ErrUnknownRole    = errors.New("payload cleanup: unknown role")
	ErrCleanupStalled = errors.New("payload cleanup: collection keeps returning deleted documents")
)

// Targets selects roles to clean and optional collection names for them.
type Targets struct {
	Roles []Role
	// Collections overrides the collection name per role.
	Collections map[Role]string
}

// AllTargets selects every role with default collection names.
func AllTargets() Targets {
	return Targets{Roles: append([]Role(nil), Roles...)}
}

// Collection returns the collection name for role.
func (t Targets) Collection(role Role) string {
	if name := t.Collections[role]; name != "" {
		return name
	}
	return string(role)
}

// Report counts deletions per collection.
type Report struct {
	Counts map[string]int
	// Order lists cleaned collections in processing order.
	Order []string
}

// Total returns the number of deleted documents.
func (r *Report) Total() int {
	total := 0
	for _, n := range r.Counts {
		total += n
	}
	return total
}

// Config tunes paging.
type Config struct {
	PageSize int
	MaxPages int
}

// Cleaner deletes documents page by page.
type Cleaner struct {
	client interfaces.PayloadClient
	cfg    Config
	logger interfaces.Logger
}

// Option customises a Cleaner.
type Option func(*Cleaner)

// WithLogger sets the logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(c *Cleaner) { c.logger = logging.Ensure(logger) }
}

// WithConfig sets paging limits. Zero values keep the defaults.
func WithConfig(cfg Config) Option {
	return func(c *Cleaner) {
		if cfg.PageSize > 0 {
			c.cfg.PageSize = cfg.PageSize
		}
		if cfg.MaxPages > 0 {
			c.cfg.MaxPages = cfg.MaxPages
		}
	}
}

// New returns a Cleaner.
func New(client interfaces.PayloadClient, opts ...Option) *Cleaner {
	c := &Cleaner{
		client: client,
		cfg:    Config{PageSize: DefaultPageSize, MaxPages: DefaultMaxPages},
		logger: logging.NoOp(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Clean empties the selected collections, posts first, then media, then
// categories, regardless of the order in targets. The first failed delete
// stops the run; the partial report is returned with the error.
func (c *Cleaner) Clean(ctx context.Context, targets Targets) (*Report, error) {
	if c == nil || c.client == nil {
		return nil, ErrClientRequired
	}
	selected := map[Role]bool{}
	for _, role := range targets.Roles {
		if !validRole(role) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownRole, role)
		}
		selected[role] = true
	}

	report := &Report{Counts: map[string]int{}}
	for _, role := range Roles {
		if !selected[role] {
			continue
		}
		collection := targets.Collection(role)
		report.Order = append(report.Order, collection)
		report.Counts[collection] = 0
		n, err := c.cleanCollection(ctx, collection)
		report.Counts[collection] = n
		if err != nil {
			return report, err
		}
		c.logger.Debug("cleanup.collection.done", "collection", collection, "deleted", n)
	}
	return report, nil
}

func (c *Cleaner) cleanCollection(ctx context.Context, collection string) (int, error) {
	deleted := 0
	attempted := map[string]bool{}
	for pages := 0; ; pages++ {
		if pages >= c.cfg.MaxPages {
			return deleted, fmt.Errorf("%w: %s after %d pages", ErrCleanupStalled, collection, pages)
		}
		page, err := c.client.FindPage(ctx, collection, interfaces.Query{Limit: c.cfg.PageSize, Page: 1})
		if err != nil {
			return deleted, fmt.Errorf("payload cleanup: list %s: %w", collection, err)
		}
		if len(page.Docs) == 0 {
			return deleted, nil
		}

		fresh := 0
		for _, doc := range page.Docs {
			id, ok := interfaces.DocumentID(doc)
			if !ok {
				continue
			}
			key := interfaces.IDString(id)
			if attempted[key] {
				continue
			}
			attempted[key] = true
			fresh++
			if err := c.client.Delete(ctx, collection, id); err != nil {
				return deleted, fmt.Errorf("payload cleanup: delete %s/%s: %w", collection, key, err)
			}
			deleted++
			c.logger.Debug("cleanup.document.deleted", "collection", collection, "id", key)
		}
		if fresh == 0 {
			return deleted, fmt.Errorf("%w: %s", ErrCleanupStalled, collection)
		}
	}
}

func validRole(role Role) bool {
	for _, r := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

// ParseRole maps a role name to a Role.
func ParseRole(name string) (Role, error) {
	role := Role(name)
	if !validRole(role) {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, name)
	}
	return role, nil
}
