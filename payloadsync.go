package payloadsync

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/goliatone/go-payload-sync/internal/articles"
	"github.com/goliatone/go-payload-sync/internal/categories"
	"github.com/goliatone/go-payload-sync/internal/cleanup"
	"github.com/goliatone/go-payload-sync/internal/commands/synccmd"
	"github.com/goliatone/go-payload-sync/internal/credentials"
	"github.com/goliatone/go-payload-sync/internal/logging"
	"github.com/goliatone/go-payload-sync/internal/logging/console"
	"github.com/goliatone/go-payload-sync/internal/logging/gologger"
	"github.com/goliatone/go-payload-sync/internal/markdown"
	"github.com/goliatone/go-payload-sync/internal/media"
	"github.com/goliatone/go-payload-sync/internal/rest"
	"github.com/goliatone/go-payload-sync/internal/validation"
	"github.com/goliatone/go-payload-sync/pkg/interfaces"
)

// Module wires the REST client, resolvers, article uploader and cleaner for
// a single Payload instance.
type Module struct {
	cfg        Config
	provider   interfaces.LoggerProvider
	client     *rest.Client
	media      *media.Resolver
	categories *categories.Resolver
	builder    *articles.DefaultBuilder
	uploader   *articles.Uploader
	cleaner    *cleanup.Cleaner
}

// Option customises New.
type Option func(*moduleOptions)

type moduleOptions struct {
	provider   interfaces.LoggerProvider
	httpClient *http.Client
	validator  *validation.Validator
}

// WithLoggerProvider replaces the provider selected by Config.Logging.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(o *moduleOptions) { o.provider = provider }
}

// WithHTTPClient sets the HTTP client used for API calls.
func WithHTTPClient(client *http.Client) Option {
	return func(o *moduleOptions) { o.httpClient = client }
}

// WithValidator sets the payload validator, overriding Articles.SchemaFile.
func WithValidator(validator *validation.Validator) Option {
	return func(o *moduleOptions) { o.validator = validator }
}

// New validates cfg and builds a Module. No request is sent.
func New(cfg Config, opts ...Option) (*Module, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	options := moduleOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	provider := options.provider
	if provider == nil {
		built, err := NewLoggerProvider(cfg.Logging)
		if err != nil {
			return nil, err
		}
		provider = built
	}

	clientOpts := []rest.Option{
		rest.WithAPIPrefix(cfg.Payload.APIPrefix),
		rest.WithTokenType(cfg.Payload.TokenType),
		rest.WithLogger(logging.RESTLogger(provider)),
	}
	if cfg.Payload.Token != "" {
		clientOpts = append(clientOpts, rest.WithToken(cfg.Payload.Token))
	}
	if options.httpClient != nil {
		clientOpts = append(clientOpts, rest.WithHTTPClient(options.httpClient))
	} else if cfg.Payload.Timeout > 0 {
		clientOpts = append(clientOpts, rest.WithTimeout(cfg.Payload.Timeout))
	}
	if cfg.Payload.Depth != nil {
		clientOpts = append(clientOpts, rest.WithDepth(*cfg.Payload.Depth))
	}
	client, err := rest.New(cfg.Payload.BaseURL, clientOpts...)
	if err != nil {
		return nil, err
	}

	validator := options.validator
	if validator == nil && strings.TrimSpace(cfg.Articles.SchemaFile) != "" {
		validator, err = validation.LoadFile(cfg.Articles.SchemaFile)
		if err != nil {
			return nil, fmt.Errorf("payload sync: load schema %s: %w", cfg.Articles.SchemaFile, err)
		}
	}

	m := &Module{cfg: cfg, provider: provider, client: client}
	m.media = media.NewResolver(client, media.Config{
		Collection:    cfg.Collections.Media,
		FilenameField: cfg.Media.FilenameField,
		AltField:      cfg.Media.AltField,
		CaptionField:  cfg.Media.CaptionField,
		Root:          cfg.Media.Root,
		Defaults:      cfg.Media.Defaults,
		Depth:         cfg.Payload.Depth,
	})
	m.categories = categories.NewResolver(client, categories.Config{
		Collection: cfg.Collections.Categories,
		SlugField:  cfg.Categories.SlugField,
		LabelField: cfg.Categories.LabelField,
		Defaults:   cfg.Categories.Defaults,
		Depth:      cfg.Payload.Depth,
	})

	articlesLogger := logging.ArticlesLogger(provider)
	builderOpts := []articles.BuilderOption{
		articles.WithMediaResolver(m.media),
		articles.WithCategoryResolver(m.categories),
		articles.WithBuilderLogger(articlesLogger),
	}
	if validator != nil {
		builderOpts = append(builderOpts, articles.WithValidator(validator))
	}
	m.builder = articles.NewBuilder(articles.BuilderConfig{
		SlugField:          cfg.Articles.SlugField,
		BodyField:          cfg.Articles.BodyField,
		FeaturedImageField: cfg.Articles.FeaturedImageField,
		CategoriesField:    cfg.Articles.CategoriesField,
		Defaults:           cfg.Articles.Defaults,
		BodyFormat:         articles.BodyFormat(strings.ToLower(strings.TrimSpace(cfg.Articles.BodyFormat))),
		Sanitize:           cfg.Articles.Sanitize,
		Markdown: markdown.Options{
			Extensions: cfg.Articles.Markdown.Extensions,
			HardWraps:  cfg.Articles.Markdown.HardWraps,
			SafeMode:   cfg.Articles.Markdown.SafeMode,
		},
	}, builderOpts...)

	m.uploader = articles.NewUploader(client, m.builder, articles.UploaderConfig{
		Collection: cfg.Collections.Posts,
		SlugField:  cfg.Articles.SlugField,
	}, articles.WithUploaderLogger(articlesLogger))

	m.cleaner = cleanup.New(client,
		cleanup.WithLogger(logging.CleanupLogger(provider)),
		cleanup.WithConfig(cleanup.Config{PageSize: cfg.Cleanup.PageSize, MaxPages: cfg.Cleanup.MaxPages}),
	)
	return m, nil
}

// NewLoggerProvider builds the provider named by cfg.Provider. An empty
// provider selects the console logger.
func NewLoggerProvider(cfg LoggingConfig) (interfaces.LoggerProvider, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "console":
		return console.NewProvider(console.Options{MinLevel: console.ParseLevel(cfg.Level)}), nil
	case "gologger":
		provider, err := gologger.NewProvider(gologger.Config{
			Level:     cfg.Level,
			Format:    cfg.Format,
			AddSource: cfg.AddSource,
			Focus:     cfg.Focus,
		})
		if err != nil {
			return nil, err
		}
		return provider, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, cfg.Provider)
	}
}

// Config returns the configuration the module was built with.
func (m *Module) Config() Config { return m.cfg }

// Client exposes the REST client.
func (m *Module) Client() *rest.Client { return m.client }

// Uploader exposes the article uploader.
func (m *Module) Uploader() *articles.Uploader { return m.uploader }

// Cleaner exposes the cleanup utility.
func (m *Module) Cleaner() *cleanup.Cleaner { return m.cleaner }

// Logger returns the module logger registered under name.
func (m *Module) Logger(name string) interfaces.Logger {
	return logging.ModuleLogger(m.provider, name)
}

// CredentialsConfig maps the credential section onto the resolver config.
func (m *Module) CredentialsConfig() credentials.Config {
	return CredentialsFromConfig(m.cfg.Credentials)
}

// CredentialsFromConfig maps cfg onto the resolver config, keeping the
// PAYLOADCMS_* names for any empty list.
func CredentialsFromConfig(cfg CredentialsConfig) credentials.Config {
	out := credentials.DefaultConfig()
	out.EnvFile = cfg.EnvFile
	if len(cfg.EmailVars) > 0 {
		out.EmailVars = cfg.EmailVars
	}
	if len(cfg.PasswordVars) > 0 {
		out.PasswordVars = cfg.PasswordVars
	}
	if len(cfg.URLVars) > 0 {
		out.URLVars = cfg.URLVars
	}
	return out
}

// Login resolves credentials, filling empty values of explicit from the
// environment and the .env file, and authenticates. The token is kept on
// the client for every later call.
func (m *Module) Login(ctx context.Context, explicit Credentials) (*LoginResult, error) {
	credCfg := m.CredentialsConfig()
	creds, err := credentials.Resolve(credCfg, explicit)
	if err != nil {
		return nil, err
	}
	if err := creds.Require(credCfg); err != nil {
		return nil, err
	}
	collection := m.cfg.Credentials.UserCollection
	if collection == "" {
		collection = rest.DefaultUserCollection
	}
	return m.client.Login(ctx, creds.LoginRequest(collection))
}

// UploadArticle creates or updates the article stored at path.
func (m *Module) UploadArticle(ctx context.Context, path string, opts UploadOptions) (*Result, error) {
	return m.uploader.UploadFile(ctx, path, opts)
}

// UploadDirectory uploads every matching article under dir.
func (m *Module) UploadDirectory(ctx context.Context, dir string, opts DirectoryOptions) (*BatchResult, error) {
	return m.uploader.UploadDirectory(ctx, dir, opts)
}

// DirectoryOptions returns the directory options from Config.Upload.
func (m *Module) DirectoryOptions() (DirectoryOptions, error) {
	opts := articles.DefaultDirectoryOptions()
	if m.cfg.Upload.Pattern != "" {
		opts.Pattern = m.cfg.Upload.Pattern
	}
	opts.Recursive = m.cfg.Upload.Recursive
	opts.DryRun = m.cfg.Upload.DryRun
	if m.cfg.Upload.ErrorPolicy != "" {
		policy, err := articles.ParseErrorPolicy(m.cfg.Upload.ErrorPolicy)
		if err != nil {
			return DirectoryOptions{}, err
		}
		opts.ErrorPolicy = policy
	}
	return opts, nil
}

// EnsureCategories returns a category for every name, creating the missing
// ones.
func (m *Module) EnsureCategories(ctx context.Context, names []string) (*CategoryResolution, error) {
	return m.categories.Ensure(ctx, names)
}

// ResolveMedia returns the media document for ref, uploading or updating it
// as needed.
func (m *Module) ResolveMedia(ctx context.Context, ref MediaReference) (*ResolvedMedia, error) {
	return m.media.Resolve(ctx, ref)
}

// Clean deletes every document in the target collections.
func (m *Module) Clean(ctx context.Context, targets CleanupTargets) (*CleanupReport, error) {
	return m.cleaner.Clean(ctx, targets)
}

// CleanupTargets returns every role mapped to the configured collections.
func (m *Module) CleanupTargets() CleanupTargets {
	targets := cleanup.AllTargets()
	targets.Collections = map[cleanup.Role]string{
		cleanup.RolePosts:      m.cfg.Collections.Posts,
		cleanup.RoleMedia:      m.cfg.Collections.Media,
		cleanup.RoleCategories: m.cfg.Collections.Categories,
	}
	return targets
}

// RegisterCommands builds the upload file, upload directory and cleanup
// handlers over this module and registers them with opts.Registry and
// opts.Dispatcher. Handlers log through the module provider unless
// opts.LoggerProvider is set. Cleanup commands that leave a role's
// collection unset use Config.Collections.
func (m *Module) RegisterCommands(opts RegistrationOptions) (*RegistrationResult, error) {
	if opts.LoggerProvider == nil {
		opts.LoggerProvider = m.provider
	}
	return synccmd.RegisterCommands(synccmd.Services{
		Uploader: m.uploader,
		Cleaner:  configuredCleaner{m},
	}, opts)
}

type configuredCleaner struct {
	m *Module
}

func (c configuredCleaner) Clean(ctx context.Context, targets CleanupTargets) (*CleanupReport, error) {
	merged := make(map[cleanup.Role]string, len(cleanup.Roles))
	for role, name := range c.m.CleanupTargets().Collections {
		merged[role] = name
	}
	for role, name := range targets.Collections {
		if name != "" {
			merged[role] = name
		}
	}
	targets.Collections = merged
	return c.m.cleaner.Clean(ctx, targets)
}
