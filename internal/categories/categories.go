// Package categories makes sure taxonomy documents exist before articles
// reference them.
package categories

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"

	"github.com/goliatone/go-payload-sync/internal/slugs"
	"github.com/goliatone/go-payload-sync/pkg/interfaces"
)

const (
	DefaultCollection = "categories"
	DefaultSlugField  = "slug"
	DefaultLabelField = "title"
)

var (
	ErrClientRequired    = errors.New("payload categories: client is required")
	ErrCategoryNameEmpty = errors.New("payload categories: category name is empty")
	ErrDocumentIDMissing = errors.New("payload categories: document has no id")
)

// Config selects the collection and field names.
type Config struct {
	Collection string
	SlugField  string
	LabelField string
	Defaults   map[string]any
	Depth      *int
}

// Resolver creates missing categories. It performs one lookup per Ensure
// call no matter how many names are passed.
type Resolver struct {
	client interfaces.PayloadClient
	cfg    Config
}

// NewResolver returns a resolver, filling unset config fields with defaults.
func NewResolver(client interfaces.PayloadClient, cfg Config) *Resolver {
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}
	if cfg.SlugField == "" {
		cfg.SlugField = DefaultSlugField
	}
	if cfg.LabelField == "" {
		cfg.LabelField = DefaultLabelField
	}
	cfg.Defaults = maps.Clone(cfg.Defaults)
	return &Resolver{client: client, cfg: cfg}
}

// Resolution is the outcome of Ensure.
type Resolution struct {
	// Documents holds one document per distinct slug in first-appearance order.
	Documents []interfaces.Document
	// ForInput holds one document per input name. Names sharing a slug share
	// the same document value.
	ForInput []interfaces.Document
	// Created lists the slugs that had to be created.
	Created []string
}

// IDs returns the ids of Documents in order.
func (r *Resolution) IDs() []any {
	if r == nil {
		return nil
	}
	ids := make([]any, 0, len(r.Documents))
	for _, doc := range r.Documents {
		if id, ok := interfaces.DocumentID(doc); ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// Ensure looks up every distinct slug derived from names with a single
// any-of query and creates exactly the ones that are missing.
func (r *Resolver) Ensure(ctx context.Context, names []string) (*Resolution, error) {
	if r == nil || r.client == nil {
		return nil, ErrClientRequired
	}

	inputSlugs := make([]string, len(names))
	labels := map[string]string{}
	var order []string
	for i, name := range names {
		label := strings.TrimSpace(name)
		if label == "" {
			return nil, fmt.Errorf("%w (position %d)", ErrCategoryNameEmpty, i)
		}
		slug, err := slugs.Slugify(label)
		if err != nil {
			return nil, fmt.Errorf("payload categories: slug for %q: %w", label, err)
		}
		inputSlugs[i] = slug
		if _, seen := labels[slug]; !seen {
			labels[slug] = label
			order = append(order, slug)
		}
	}

	res := &Resolution{Documents: []interfaces.Document{}, ForInput: []interfaces.Document{}}
	if len(order) == 0 {
		return res, nil
	}

	values := make([]any, len(order))
	for i, slug := range order {
		values[i] = slug
	}
	found, err := r.client.Find(ctx, r.cfg.Collection, interfaces.Query{
		Where: []interfaces.Condition{interfaces.In(r.cfg.SlugField, values...)},
		Limit: len(order),
		Depth: r.cfg.Depth,
	})
	if err != nil {
		return nil, fmt.Errorf("payload categories: lookup %s: %w", r.cfg.Collection, err)
	}

	bySlug := make(map[string]interfaces.Document, len(order))
	for _, doc := range found {
		slug := interfaces.StringField(doc, r.cfg.SlugField)
		if _, dup := bySlug[slug]; slug == "" || dup {
			continue
		}
		bySlug[slug] = doc
	}

	for _, slug := range order {
		if _, ok := bySlug[slug]; ok {
			continue
		}
		payload := maps.Clone(r.cfg.Defaults)
		if payload == nil {
			payload = map[string]any{}
		}
		payload[r.cfg.SlugField] = slug
		payload[r.cfg.LabelField] = labels[slug]
		created, err := r.client.Create(ctx, r.cfg.Collection, payload)
		if err != nil {
			return nil, fmt.Errorf("payload categories: create %s: %w", slug, err)
		}
		if _, ok := interfaces.DocumentID(created); !ok {
			return nil, fmt.Errorf("%w: %s", ErrDocumentIDMissing, slug)
		}
		bySlug[slug] = created
		res.Created = append(res.Created, slug)
	}

	for _, slug := range order {
		res.Documents = append(res.Documents, bySlug[slug])
	}
	for _, slug := range inputSlugs {
		res.ForInput = append(res.ForInput, bySlug[slug])
	}
	return res, nil
}

// Names extracts category names from a front matter value: a single string
// or a list of strings.
func Names(value any) ([]string, bool) {
	switch typed := value.(type) {
	case string:
		if strings.TrimSpace(typed) == "" {
			return nil, true
		}
		return []string{typed}, true
	case []string:
		return append([]string(nil), typed...), true
	case []any:
		names := make([]string, 0, len(typed))
		for _, item := range typed {
			name, ok := item.(string)
			if !ok {
				return nil, false
			}
			names = append(names, name)
		}
		return names, true
	default:
		return nil, false
	}
}
