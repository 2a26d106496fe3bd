package runtimeconfig

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var ErrPayloadURLInvalid = errors.New("payload config: base url must be an absolute http(s) url")
var ErrTokenTypeInvalid = errors.New("payload config: token type must be Bearer or JWT")
var ErrTimeoutInvalid = errors.New("payload config: timeout must be zero or positive")
var ErrCollectionRequired = errors.New("payload config: collection names are required")
var ErrFieldNameRequired = errors.New("payload config: field names are required")
var ErrBodyFormatInvalid = errors.New("payload config: body format must be html or lexical")
var ErrErrorPolicyInvalid = errors.New("payload config: error policy must be abort or continue")
var ErrPatternInvalid = errors.New("payload config: upload pattern is invalid")
var ErrCleanupPagingInvalid = errors.New("payload config: cleanup page size and max pages must be positive")
var ErrLoggingProviderUnknown = errors.New("payload config: logging provider is invalid")
var ErrLoggingLevelInvalid = errors.New("payload config: logging level is invalid")
var ErrLoggingFormatInvalid = errors.New("payload config: logging format is invalid")

// Config aggregates everything needed to talk to a Payload instance and sync
// article files into it.
type Config struct {
	Payload     PayloadConfig
	Credentials CredentialsConfig
	Collections CollectionsConfig
	Articles    ArticlesConfig
	Media       MediaConfig
	Categories  CategoriesConfig
	Upload      UploadConfig
	Cleanup     CleanupConfig
	Logging     LoggingConfig
}

// PayloadConfig describes the REST endpoint.
type PayloadConfig struct {
	BaseURL   string
	APIPrefix string
	// Token is an already issued API token. Empty means log in with
	// credentials when required.
	Token     string
	TokenType string
	Timeout   time.Duration
	// Depth is sent with reads when set.
	Depth *int
}

// CredentialsConfig names the dotenv file and variables holding login data.
type CredentialsConfig struct {
	EnvFile        string
	EmailVars      []string
	PasswordVars   []string
	URLVars        []string
	UserCollection string
}

// CollectionsConfig names the collections used by uploads and cleanup.
type CollectionsConfig struct {
	Posts      string
	Media      string
	Categories string
}

// ArticlesConfig controls payload building.
type ArticlesConfig struct {
	SlugField          string
	BodyField          string
	FeaturedImageField string
	CategoriesField    string
	Defaults           map[string]any
	BodyFormat         string
	Sanitize           bool
	// SchemaFile, when set, is a JSON schema every payload must satisfy.
	SchemaFile string
	Markdown   MarkdownConfig
}

// MarkdownConfig mirrors markdown.Options.
type MarkdownConfig struct {
	Extensions []string
	HardWraps  bool
	SafeMode   bool
}

// MediaConfig controls featured image handling.
type MediaConfig struct {
	Root          string
	FilenameField string
	AltField      string
	CaptionField  string
	Defaults      map[string]any
}

// CategoriesConfig controls category lookup and creation.
type CategoriesConfig struct {
	SlugField  string
	LabelField string
	Defaults   map[string]any
}

// UploadConfig holds directory upload defaults.
type UploadConfig struct {
	Pattern     string
	Recursive   bool
	ErrorPolicy string
	DryRun      bool
}

// CleanupConfig tunes cleanup paging.
type CleanupConfig struct {
	PageSize int
	MaxPages int
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string
	Level     string
	Format    string
	AddSource bool
	Focus     []string
}

// DefaultConfig returns defaults for a local Payload instance.
func DefaultConfig() Config {
	return Config{
		Payload: PayloadConfig{
			BaseURL:   "http://localhost:3000",
			APIPrefix: "api",
			TokenType: "Bearer",
			Timeout:   30 * time.Second,
		},
		Credentials: CredentialsConfig{
			EmailVars:      []string{"PAYLOADCMS_EMAIL"},
			PasswordVars:   []string{"PAYLOADCMS_PASSWORD"},
			URLVars:        []string{"PAYLOADCMS_URL"},
			UserCollection: "users",
		},
		Collections: CollectionsConfig{
			Posts:      "posts",
			Media:      "media",
			Categories: "categories",
		},
		Articles: ArticlesConfig{
			SlugField:          "slug",
			BodyField:          "content",
			FeaturedImageField: "featuredImage",
			CategoriesField:    "categories",
			Defaults:           map[string]any{},
			BodyFormat:         "html",
		},
		Media: MediaConfig{
			FilenameField: "filename",
			AltField:      "alt",
			CaptionField:  "caption",
			Defaults:      map[string]any{},
		},
		Categories: CategoriesConfig{
			SlugField:  "slug",
			LabelField: "title",
			Defaults:   map[string]any{},
		},
		Upload: UploadConfig{
			Pattern:     "*.html",
			Recursive:   true,
			ErrorPolicy: "abort",
		},
		Cleanup: CleanupConfig{
			PageSize: 100,
			MaxPages: 10000,
		},
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "info",
		},
	}
}

// Validate performs consistency checks and reports the first failure as one
// of the package sentinel errors.
func (cfg Config) Validate() error {
	checks := []struct {
		sentinel error
		value    any
		rules    []validation.Rule
	}{
		{ErrPayloadURLInvalid, cfg.Payload.BaseURL, []validation.Rule{validation.Required, validation.By(httpURL)}},
		{ErrTokenTypeInvalid, cfg.Payload.TokenType, []validation.Rule{validation.In("Bearer", "JWT")}},
		{ErrTimeoutInvalid, int64(cfg.Payload.Timeout), []validation.Rule{validation.Min(int64(0))}},
		{ErrCollectionRequired, cfg.Collections.Posts, []validation.Rule{validation.Required}},
		{ErrCollectionRequired, cfg.Collections.Media, []validation.Rule{validation.Required}},
		{ErrCollectionRequired, cfg.Collections.Categories, []validation.Rule{validation.Required}},
		{ErrFieldNameRequired, cfg.Articles.SlugField, []validation.Rule{validation.Required}},
		{ErrFieldNameRequired, cfg.Articles.BodyField, []validation.Rule{validation.Required}},
		{ErrBodyFormatInvalid, cfg.Articles.BodyFormat, []validation.Rule{validation.In("html", "lexical")}},
		{ErrErrorPolicyInvalid, cfg.Upload.ErrorPolicy, []validation.Rule{validation.In("abort", "continue")}},
		{ErrPatternInvalid, cfg.Upload.Pattern, []validation.Rule{validation.By(globPattern)}},
		{ErrCleanupPagingInvalid, cfg.Cleanup.PageSize, []validation.Rule{validation.Required, validation.Min(1)}},
		{ErrCleanupPagingInvalid, cfg.Cleanup.MaxPages, []validation.Rule{validation.Required, validation.Min(1)}},
	}
	for _, check := range checks {
		if err := validation.Validate(check.value, check.rules...); err != nil {
			return fmt.Errorf("%w: %v", check.sentinel, err)
		}
	}

	provider := normalizeProvider(cfg.Logging.Provider)
	if provider != "" && !isSupportedProvider(provider) {
		return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
	}
	if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
		return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
	}
	if provider == "gologger" {
		if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
			return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
		}
	}
	return nil
}

func httpURL(value any) error {
	raw, _ := value.(string)
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return validation.NewError("payload.config.base_url", "must be an absolute http(s) url")
	}
	return nil
}

func globPattern(value any) error {
	pattern, _ := value.(string)
	if strings.ContainsAny(pattern, `/\`) {
		return validation.NewError("payload.config.pattern", "must match base names only")
	}
	if strings.Count(pattern, "[") != strings.Count(pattern, "]") {
		return validation.NewError("payload.config.pattern", "has an unterminated character class")
	}
	return nil
}

func normalizeProvider(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}

func isSupportedProvider(provider string) bool {
	switch provider {
	case "console", "gologger":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}
