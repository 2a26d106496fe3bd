package articles

import (
	"context"
	"fmt"
	"maps"
	"strings"

	"github.com/goliatone/go-payload-sync/internal/categories"
	"github.com/goliatone/go-payload-sync/internal/document"
	"github.com/goliatone/go-payload-sync/internal/lexical"
	"github.com/goliatone/go-payload-sync/internal/logging"
	"github.com/goliatone/go-payload-sync/internal/markdown"
	"github.com/goliatone/go-payload-sync/internal/media"
	"github.com/goliatone/go-payload-sync/internal/slugs"
	"github.com/goliatone/go-payload-sync/internal/validation"
	"github.com/goliatone/go-payload-sync/pkg/interfaces"
)

const (
	DefaultSlugField          = "slug"
	DefaultBodyField          = "content"
	DefaultFeaturedImageField = "featuredImage"
	DefaultCategoriesField    = "categories"
)

// BodyFormat selects how the article body is stored.
type BodyFormat string

const (
	BodyHTML    BodyFormat = "html"
	BodyLexical BodyFormat = "lexical"
)

// Builder turns a parsed document into the slug and field map sent to the
// API.
type Builder interface {
	Build(ctx context.Context, doc *document.Document) (slug string, fields map[string]any, err error)
}

// BuilderConfig configures DefaultBuilder. Empty field names use the
// package defaults; set CategoriesField to "-" to leave categories alone.
type BuilderConfig struct {
	SlugField          string
	BodyField          string
	FeaturedImageField string
	CategoriesField    string
	Defaults           map[string]any
	BodyFormat         BodyFormat
	Sanitize           bool
	Markdown           markdown.Options
}

// DefaultBuilder implements Builder.
type DefaultBuilder struct {
	cfg        BuilderConfig
	media      *media.Resolver
	categories *categories.Resolver
	validator  *validation.Validator
	renderer   *markdown.Renderer
	sanitizer  *markdown.Sanitizer
	logger     interfaces.Logger
}

var _ Builder = (*DefaultBuilder)(nil)

// BuilderOption customises a DefaultBuilder.
type BuilderOption func(*DefaultBuilder)

// WithMediaResolver replaces featured image paths with media ids.
func WithMediaResolver(resolver *media.Resolver) BuilderOption {
	return func(b *DefaultBuilder) { b.media = resolver }
}

// WithCategoryResolver replaces category names with category ids.
func WithCategoryResolver(resolver *categories.Resolver) BuilderOption {
	return func(b *DefaultBuilder) { b.categories = resolver }
}

// WithValidator checks built fields before they are returned.
func WithValidator(validator *validation.Validator) BuilderOption {
	return func(b *DefaultBuilder) { b.validator = validator }
}

// WithBuilderLogger sets the logger.
func WithBuilderLogger(logger interfaces.Logger) BuilderOption {
	return func(b *DefaultBuilder) { b.logger = logging.Ensure(logger) }
}

// NewBuilder returns a DefaultBuilder.
func NewBuilder(cfg BuilderConfig, opts ...BuilderOption) *DefaultBuilder {
	if cfg.SlugField == "" {
		cfg.SlugField = DefaultSlugField
	}
	if cfg.BodyField == "" {
		cfg.BodyField = DefaultBodyField
	}
	if cfg.FeaturedImageField == "" {
		cfg.FeaturedImageField = DefaultFeaturedImageField
	}
	if cfg.CategoriesField == "" {
		cfg.CategoriesField = DefaultCategoriesField
	}
	if cfg.BodyFormat == "" {
		cfg.BodyFormat = BodyHTML
	}
	cfg.Defaults = maps.Clone(cfg.Defaults)

	b := &DefaultBuilder{
		cfg:      cfg,
		renderer: markdown.NewRenderer(cfg.Markdown),
		logger:   logging.NoOp(),
	}
	if cfg.Sanitize {
		b.sanitizer = markdown.NewSanitizer()
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// SlugField returns the field the slug is written to.
func (b *DefaultBuilder) SlugField() string { return b.cfg.SlugField }

// Build overlays the front matter on the defaults, derives the slug, converts
// the body and resolves featured image and category references. In a dry run
// context references are left as written.
func (b *DefaultBuilder) Build(ctx context.Context, doc *document.Document) (string, map[string]any, error) {
	metadata := doc.Metadata()
	alt, caption := media.StripCompanionFields(metadata)

	fields := maps.Clone(b.cfg.Defaults)
	if fields == nil {
		fields = map[string]any{}
	}
	maps.Copy(fields, metadata)

	slug, err := b.slug(doc, fields)
	if err != nil {
		return "", nil, err
	}
	fields[b.cfg.SlugField] = slug

	body, err := b.body(doc)
	if err != nil {
		return "", nil, err
	}
	fields[b.cfg.BodyField] = body

	if !DryRunFromContext(ctx) {
		if err := b.resolveFeaturedImage(ctx, doc, fields, alt, caption); err != nil {
			return "", nil, err
		}
		if err := b.resolveCategories(ctx, fields); err != nil {
			return "", nil, err
		}
	}

	if err := b.validator.Validate(fields); err != nil {
		return "", nil, fmt.Errorf("payload articles: %s: %w", doc.Path, err)
	}
	return slug, fields, nil
}

// slug returns the value already set under the slug field by the defaults or
// the front matter, or derives one from the title.
func (b *DefaultBuilder) slug(doc *document.Document, fields map[string]any) (string, error) {
	if explicit, ok := fields[b.cfg.SlugField].(string); ok {
		if explicit = strings.TrimSpace(explicit); explicit != "" {
			return explicit, nil
		}
	}
	slug, err := slugs.Slugify(doc.Title())
	if err != nil {
		return "", fmt.Errorf("%w: %s: title %q: %v", ErrSlugRequired, doc.Path, doc.Title(), err)
	}
	return slug, nil
}

func (b *DefaultBuilder) body(doc *document.Document) (any, error) {
	body := strings.TrimSpace(doc.Body)
	if doc.IsMarkdown() {
		rendered, err := b.renderer.RenderString(body)
		if err != nil {
			return nil, fmt.Errorf("payload articles: %s: %w", doc.Path, err)
		}
		body = strings.TrimSpace(rendered)
	}
	if b.sanitizer != nil {
		body = b.sanitizer.Sanitize(body)
	}
	if b.cfg.BodyFormat != BodyLexical {
		return body, nil
	}
	tree, err := lexical.FromHTML(body)
	if err != nil {
		return nil, fmt.Errorf("payload articles: %s: lexical: %w", doc.Path, err)
	}
	return tree, nil
}

func (b *DefaultBuilder) resolveFeaturedImage(ctx context.Context, doc *document.Document, fields map[string]any, alt, caption string) error {
	if b.media == nil {
		return nil
	}
	ref, ok := fields[b.cfg.FeaturedImageField].(string)
	if !ok || strings.TrimSpace(ref) == "" {
		return nil
	}
	resolved, err := b.media.Resolve(ctx, media.Reference{
		Path:        ref,
		ArticlePath: doc.Path,
		Alt:         alt,
		Caption:     caption,
	})
	if err != nil {
		return err
	}
	b.logger.Debug("articles.media.resolved",
		"article_path", doc.Path,
		"media_id", resolved.ID,
		"uploaded", resolved.Uploaded,
		"updated", resolved.Updated,
	)
	fields[b.cfg.FeaturedImageField] = resolved.ID
	return nil
}

func (b *DefaultBuilder) resolveCategories(ctx context.Context, fields map[string]any) error {
	if b.categories == nil || b.cfg.CategoriesField == "-" {
		return nil
	}
	names, ok := categories.Names(fields[b.cfg.CategoriesField])
	if !ok || len(names) == 0 {
		return nil
	}
	res, err := b.categories.Ensure(ctx, names)
	if err != nil {
		return err
	}
	fields[b.cfg.CategoriesField] = res.IDs()
	return nil
}

type dryRunKey struct{}

// ContextWithDryRun marks ctx so builders skip remote side effects.
func ContextWithDryRun(ctx context.Context) context.Context {
	return context.WithValue(ctx, dryRunKey{}, true)
}

// DryRunFromContext reports whether ctx was marked by ContextWithDryRun.
func DryRunFromContext(ctx context.Context) bool {
	dry, _ := ctx.Value(dryRunKey{}).(bool)
	return dry
}
