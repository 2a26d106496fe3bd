package logging

import (
	"context"
	"strings"

	"github.com/goliatone/go-payload-sync/pkg/interfaces"
)

const (
	rootModule     = "payload"
	restModule     = "payload.rest"
	articlesModule = "payload.articles"
	cleanupModule  = "payload.cleanup"
	commandsModule = "payload.commands"
)

const (
	fieldArticlePath = "article_path"
	fieldSlug        = "slug"
	fieldCollection  = "collection"
)

// ModuleLogger returns a logger scoped to module, falling back to a no-op
// logger when provider is nil. The module name is attached as a field.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module == "" {
		module = rootModule
	}
	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}
	return WithFields(logger, map[string]any{"module": module})
}

// RESTLogger returns the logger namespace used by the HTTP client.
func RESTLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, restModule)
}

// ArticlesLogger returns the logger namespace used by article uploads.
func ArticlesLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, articlesModule)
}

// CleanupLogger returns the logger namespace used by collection cleanup.
func CleanupLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, cleanupModule)
}

// CommandsLogger returns the logger namespace used by command handlers.
func CommandsLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, commandsModule)
}

// WithArticleContext adds article path, slug, and collection fields to
// logger, skipping empty values.
func WithArticleContext(logger interfaces.Logger, path, slug, collection string) interfaces.Logger {
	fields := map[string]any{}
	if trimmed := strings.TrimSpace(path); trimmed != "" {
		fields[fieldArticlePath] = trimmed
	}
	if trimmed := strings.TrimSpace(slug); trimmed != "" {
		fields[fieldSlug] = trimmed
	}
	if trimmed := strings.TrimSpace(collection); trimmed != "" {
		fields[fieldCollection] = trimmed
	}
	return WithFields(logger, fields)
}

// NoOp returns a logger that discards everything.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ interfaces.Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger { return n }

func (n noopLogger) WithContext(context.Context) interfaces.Logger { return n }
