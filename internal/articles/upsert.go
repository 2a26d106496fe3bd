package articles

import (
	"context"
	"fmt"

	"github.com/goliatone/go-payload-sync/internal/logging"
	"github.com/goliatone/go-payload-sync/pkg/interfaces"
)

// Action is what an upload did to the remote collection.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionSkipped Action = "skipped"
)

// Result describes one upserted article.
type Result struct {
	Document interfaces.Document
	Action   Action
	// Planned is the action a dry run would have taken.
	Planned Action
	Slug    string
	Path    string
}

// Upserter creates or updates documents keyed by slug.
type Upserter struct {
	client     interfaces.PayloadClient
	collection string
	slugField  string
	logger     interfaces.Logger
}

// NewUpserter returns an Upserter for collection.
func NewUpserter(client interfaces.PayloadClient, collection, slugField string, logger interfaces.Logger) *Upserter {
	if slugField == "" {
		slugField = DefaultSlugField
	}
	return &Upserter{
		client:     client,
		collection: collection,
		slugField:  slugField,
		logger:     logging.Ensure(logger),
	}
}

// Collection returns the target collection.
func (u *Upserter) Collection() string { return u.collection }

// Lookup returns the single document holding slug, or nil when there is none.
func (u *Upserter) Lookup(ctx context.Context, slug string) (interfaces.Document, error) {
	if u == nil || u.client == nil {
		return nil, ErrClientRequired
	}
	matches, err := u.client.Find(ctx, u.collection, interfaces.Query{
		Where: []interfaces.Condition{interfaces.Equals(u.slugField, slug)},
		Limit: 2,
	})
	if err != nil {
		return nil, fmt.Errorf("payload articles: lookup %s: %w", slug, err)
	}
	switch len(matches) {
	case 0:
		return nil, nil
	case 1:
		if _, ok := interfaces.DocumentID(matches[0]); !ok {
			return nil, fmt.Errorf("%w: %s", ErrDocumentIDMissing, slug)
		}
		return matches[0], nil
	default:
		ids := make([]any, 0, len(matches))
		for _, match := range matches {
			id, _ := interfaces.DocumentID(match)
			ids = append(ids, id)
		}
		return nil, &AmbiguousSlugError{Collection: u.collection, Slug: slug, IDs: ids}
	}
}

// Upsert creates the document when no document holds slug and replaces the
// fields of the one that does. Several matches fail with
// *AmbiguousSlugError before any write.
func (u *Upserter) Upsert(ctx context.Context, slug string, fields map[string]any) (*Result, error) {
	existing, err := u.Lookup(ctx, slug)
	if err != nil {
		return nil, err
	}
	logger := logging.WithArticleContext(u.logger, "", slug, u.collection)

	if existing == nil {
		created, err := u.client.Create(ctx, u.collection, fields)
		if err != nil {
			return nil, fmt.Errorf("payload articles: create %s: %w", slug, err)
		}
		logger.Debug("articles.upsert.created", "id", interfaces.IDString(idOf(created)))
		return &Result{Document: created, Action: ActionCreated, Planned: ActionCreated, Slug: slug}, nil
	}

	id, _ := interfaces.DocumentID(existing)
	updated, err := u.client.Update(ctx, u.collection, id, fields)
	if err != nil {
		return nil, fmt.Errorf("payload articles: update %s: %w", slug, err)
	}
	logger.Debug("articles.upsert.updated", "id", interfaces.IDString(id))
	return &Result{Document: updated, Action: ActionUpdated, Planned: ActionUpdated, Slug: slug}, nil
}

// Plan performs the lookup only and reports what Upsert would do.
func (u *Upserter) Plan(ctx context.Context, slug string, fields map[string]any) (*Result, error) {
	existing, err := u.Lookup(ctx, slug)
	if err != nil {
		return nil, err
	}
	planned := ActionCreated
	if existing != nil {
		planned = ActionUpdated
	}
	return &Result{Document: fields, Action: ActionSkipped, Planned: planned, Slug: slug}, nil
}

func idOf(doc interfaces.Document) any {
	id, _ := interfaces.DocumentID(doc)
	return id
}
