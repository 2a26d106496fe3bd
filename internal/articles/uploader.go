package articles

import (
	"context"

	"github.com/goliatone/go-payload-sync/internal/document"
	"github.com/goliatone/go-payload-sync/internal/logging"
	"github.com/goliatone/go-payload-sync/internal/slugs"
	"github.com/goliatone/go-payload-sync/pkg/interfaces"
)

const DefaultCollection = "posts"

// UploaderConfig names the target collection and its slug field.
type UploaderConfig struct {
	Collection string
	SlugField  string
}

// UploadOptions tune a single file upload.
type UploadOptions struct {
	// SlugPrefix is prepended to the built slug unless the slug already
	// starts with it.
	SlugPrefix string
	// DryRun performs the slug lookup only.
	DryRun bool
}

// Uploader loads article files, builds their payloads and upserts them.
type Uploader struct {
	builder   Builder
	upserter  *Upserter
	slugField string
	logger    interfaces.Logger
}

// UploaderOption customises an Uploader.
type UploaderOption func(*Uploader)

// WithUploaderLogger sets the logger.
func WithUploaderLogger(logger interfaces.Logger) UploaderOption {
	return func(u *Uploader) { u.logger = logging.Ensure(logger) }
}

// NewUploader returns an Uploader writing to cfg.Collection.
func NewUploader(client interfaces.PayloadClient, builder Builder, cfg UploaderConfig, opts ...UploaderOption) *Uploader {
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}
	if cfg.SlugField == "" {
		cfg.SlugField = DefaultSlugField
	}
	u := &Uploader{
		builder:   builder,
		slugField: cfg.SlugField,
		logger:    logging.NoOp(),
	}
	for _, opt := range opts {
		opt(u)
	}
	u.upserter = NewUpserter(client, cfg.Collection, cfg.SlugField, u.logger)
	return u
}

// Collection returns the target collection.
func (u *Uploader) Collection() string { return u.upserter.Collection() }

// UploadFile loads the article at path and upserts it.
func (u *Uploader) UploadFile(ctx context.Context, path string, opts UploadOptions) (*Result, error) {
	doc, err := document.Load(path)
	if err != nil {
		return nil, err
	}
	return u.UploadDocument(ctx, doc, opts)
}

// UploadDocument upserts an already parsed document.
func (u *Uploader) UploadDocument(ctx context.Context, doc *document.Document, opts UploadOptions) (*Result, error) {
	if opts.DryRun {
		ctx = ContextWithDryRun(ctx)
	}
	slug, fields, err := u.builder.Build(ctx, doc)
	if err != nil {
		return nil, err
	}
	if opts.SlugPrefix != "" {
		if slug, err = slugs.WithPrefix(opts.SlugPrefix, slug); err != nil {
			return nil, err
		}
	}
	fields[u.slugField] = slug

	logger := logging.WithArticleContext(u.logger, doc.Path, slug, u.Collection())
	var res *Result
	if opts.DryRun {
		res, err = u.upserter.Plan(ctx, slug, fields)
	} else {
		res, err = u.upserter.Upsert(ctx, slug, fields)
	}
	if err != nil {
		logger.Error("articles.upload.failed", "error", err)
		return nil, err
	}
	res.Path = doc.Path
	logger.Debug("articles.upload.done", "action", string(res.Action), "planned", string(res.Planned))
	return res, nil
}
