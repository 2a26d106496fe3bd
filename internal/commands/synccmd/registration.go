package synccmd

import (
	"errors"

	"github.com/goliatone/go-payload-sync/internal/commands"
	"github.com/goliatone/go-payload-sync/pkg/interfaces"
)

// CommandRegistry records command handlers so hosts can expose them via CLI
// or a message bus.
type CommandRegistry interface {
	RegisterCommand(handler any) error
}

// CommandDispatcher subscribes command handlers to a dispatcher.
type CommandDispatcher interface {
	RegisterCommand(handler any) (CommandSubscription, error)
}

// CommandSubscription allows hosts to tear down dispatcher subscriptions.
type CommandSubscription interface {
	Unsubscribe()
}

// Services are the sync operations handlers are built for. A nil field
// skips its handlers.
type Services struct {
	Uploader interface {
		FileUploader
		DirectoryUploader
	}
	Cleaner Cleaner
}

// RegistrationOptions configures where handlers are registered.
type RegistrationOptions struct {
	Registry       CommandRegistry
	Dispatcher     CommandDispatcher
	LoggerProvider interfaces.LoggerProvider
}

// RegistrationResult holds the constructed handlers and dispatcher
// subscriptions.
type RegistrationResult struct {
	Handlers      []any
	Subscriptions []CommandSubscription
}

// RegisterCommands builds the upload and cleanup handlers for services and
// registers them with the configured registry and dispatcher.
func RegisterCommands(services Services, opts RegistrationOptions) (*RegistrationResult, error) {
	result := &RegistrationResult{
		Handlers:      make([]any, 0, 3),
		Subscriptions: make([]CommandSubscription, 0),
	}

	var errs error
	register := func(handler any) {
		result.Handlers = append(result.Handlers, handler)
		if opts.Registry != nil {
			if err := opts.Registry.RegisterCommand(handler); err != nil {
				errs = errors.Join(errs, err)
			}
		}
		if opts.Dispatcher != nil {
			subscription, err := opts.Dispatcher.RegisterCommand(handler)
			if err != nil {
				errs = errors.Join(errs, err)
			} else if subscription != nil {
				result.Subscriptions = append(result.Subscriptions, subscription)
			}
		}
	}

	if services.Uploader != nil {
		articlesLogger := commands.CommandLogger(opts.LoggerProvider, "articles")
		register(NewUploadFileHandler(services.Uploader, articlesLogger, nil))
		register(NewUploadDirectoryHandler(services.Uploader, articlesLogger, nil))
	}
	if services.Cleaner != nil {
		register(NewCleanupHandler(services.Cleaner, commands.CommandLogger(opts.LoggerProvider, "cleanup"), nil))
	}

	if len(result.Handlers) == 0 {
		return result, errors.New("no command handlers registered; provide an uploader or a cleaner")
	}
	return result, errs
}
