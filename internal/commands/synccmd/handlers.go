package synccmd

import (
	"context"

	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-payload-sync/internal/articles"
	"github.com/goliatone/go-payload-sync/internal/cleanup"
	"github.com/goliatone/go-payload-sync/internal/commands"
	"github.com/goliatone/go-payload-sync/internal/logging"
	"github.com/goliatone/go-payload-sync/pkg/interfaces"
)

const (
	uploadFileOperation      = "articles.upload_file"
	uploadDirectoryOperation = "articles.upload_directory"
	cleanupOperation         = "cleanup.run"
)

var (
	_ command.Commander[UploadFileCommand]      = (*UploadFileHandler)(nil)
	_ command.Commander[UploadDirectoryCommand] = (*UploadDirectoryHandler)(nil)
	_ command.Commander[CleanupCommand]         = (*CleanupHandler)(nil)
)

// FileUploader uploads one article file.
type FileUploader interface {
	UploadFile(ctx context.Context, path string, opts articles.UploadOptions) (*articles.Result, error)
}

// DirectoryUploader uploads a directory of article files.
type DirectoryUploader interface {
	UploadDirectory(ctx context.Context, dir string, opts articles.DirectoryOptions) (*articles.BatchResult, error)
}

// Cleaner empties collections.
type Cleaner interface {
	Clean(ctx context.Context, targets cleanup.Targets) (*cleanup.Report, error)
}

// UploadFileHandler runs UploadFileCommand.
type UploadFileHandler struct {
	inner *commands.Handler[UploadFileCommand]
}

// NewUploadFileHandler binds uploader. onResult, when set, receives the
// upload result.
func NewUploadFileHandler(uploader FileUploader, logger interfaces.Logger, onResult func(*articles.Result), opts ...commands.HandlerOption[UploadFileCommand]) *UploadFileHandler {
	baseLogger := logging.Ensure(logger)
	exec := func(ctx context.Context, msg UploadFileCommand) error {
		res, err := uploader.UploadFile(ctx, msg.Path, articles.UploadOptions{SlugPrefix: msg.SlugPrefix, DryRun: msg.DryRun})
		if err != nil {
			return err
		}
		logging.WithFields(baseLogger, logging.ContextFields(ctx)).Info("articles.command.upload_file.completed",
			"slug", res.Slug,
			"action", string(res.Action),
			"planned", string(res.Planned),
		)
		if onResult != nil {
			onResult(res)
		}
		return nil
	}

	handlerOpts := []commands.HandlerOption[UploadFileCommand]{
		commands.WithLogger[UploadFileCommand](baseLogger),
		commands.WithOperation[UploadFileCommand](uploadFileOperation),
		commands.WithMessageFields(func(msg UploadFileCommand) map[string]any {
			fields := map[string]any{"article_path": msg.Path}
			if msg.SlugPrefix != "" {
				fields["slug_prefix"] = msg.SlugPrefix
			}
			if msg.DryRun {
				fields["dry_run"] = true
			}
			return fields
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[UploadFileCommand](baseLogger)),
	}
	return &UploadFileHandler{inner: commands.NewHandler(exec, append(handlerOpts, opts...)...)}
}

// Execute satisfies command.Commander[UploadFileCommand].
func (h *UploadFileHandler) Execute(ctx context.Context, msg UploadFileCommand) error {
	return h.inner.Execute(ctx, msg)
}

// UploadDirectoryHandler runs UploadDirectoryCommand.
type UploadDirectoryHandler struct {
	inner *commands.Handler[UploadDirectoryCommand]
}

// NewUploadDirectoryHandler binds uploader. onResult, when set, receives the
// batch result, also when the run stopped early.
func NewUploadDirectoryHandler(uploader DirectoryUploader, logger interfaces.Logger, onResult func(*articles.BatchResult), opts ...commands.HandlerOption[UploadDirectoryCommand]) *UploadDirectoryHandler {
	baseLogger := logging.Ensure(logger)
	exec := func(ctx context.Context, msg UploadDirectoryCommand) error {
		dirOpts := DirectoryOptions(msg)
		batch, err := uploader.UploadDirectory(ctx, msg.Directory, dirOpts)
		if batch != nil {
			logging.WithFields(baseLogger, logging.ContextFields(ctx)).Info("articles.command.upload_directory.completed",
				"uploaded", len(batch.Results),
				"failed", len(batch.Errors),
				"dry_run", msg.DryRun,
			)
			if onResult != nil {
				onResult(batch)
			}
		}
		if err != nil {
			return err
		}
		return batch.Err()
	}

	handlerOpts := []commands.HandlerOption[UploadDirectoryCommand]{
		commands.WithLogger[UploadDirectoryCommand](baseLogger),
		commands.WithOperation[UploadDirectoryCommand](uploadDirectoryOperation),
		commands.WithMessageFields(func(msg UploadDirectoryCommand) map[string]any {
			fields := map[string]any{"directory": msg.Directory}
			if msg.Pattern != "" {
				fields["pattern"] = msg.Pattern
			}
			if msg.ContinueOnError {
				fields["error_policy"] = articles.ContinueOnError.String()
			}
			if msg.DryRun {
				fields["dry_run"] = true
			}
			return fields
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[UploadDirectoryCommand](baseLogger)),
	}
	return &UploadDirectoryHandler{inner: commands.NewHandler(exec, append(handlerOpts, opts...)...)}
}

// Execute satisfies command.Commander[UploadDirectoryCommand].
func (h *UploadDirectoryHandler) Execute(ctx context.Context, msg UploadDirectoryCommand) error {
	return h.inner.Execute(ctx, msg)
}

// DirectoryOptions maps msg onto articles.DirectoryOptions.
func DirectoryOptions(msg UploadDirectoryCommand) articles.DirectoryOptions {
	opts := articles.DefaultDirectoryOptions()
	if msg.Pattern != "" {
		opts.Pattern = msg.Pattern
	}
	opts.Recursive = !msg.NoRecurse
	if msg.ContinueOnError {
		opts.ErrorPolicy = articles.ContinueOnError
	}
	opts.DryRun = msg.DryRun
	return opts
}

// CleanupHandler runs CleanupCommand.
type CleanupHandler struct {
	inner *commands.Handler[CleanupCommand]
}

// NewCleanupHandler binds cleaner. onReport, when set, receives the report,
// also a partial one when a delete failed.
func NewCleanupHandler(cleaner Cleaner, logger interfaces.Logger, onReport func(*cleanup.Report), opts ...commands.HandlerOption[CleanupCommand]) *CleanupHandler {
	baseLogger := logging.Ensure(logger)
	exec := func(ctx context.Context, msg CleanupCommand) error {
		targets := Targets(msg)
		report, err := cleaner.Clean(ctx, targets)
		if report != nil {
			logging.WithFields(baseLogger, logging.ContextFields(ctx)).Info("cleanup.command.run.completed",
				"deleted", report.Total(),
				"collections", report.Order,
			)
			if onReport != nil {
				onReport(report)
			}
		}
		return err
	}

	handlerOpts := []commands.HandlerOption[CleanupCommand]{
		commands.WithLogger[CleanupCommand](baseLogger),
		commands.WithOperation[CleanupCommand](cleanupOperation),
		commands.WithMessageFields(func(msg CleanupCommand) map[string]any {
			return map[string]any{"roles": msg.Roles}
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[CleanupCommand](baseLogger)),
	}
	return &CleanupHandler{inner: commands.NewHandler(exec, append(handlerOpts, opts...)...)}
}

// Execute satisfies command.Commander[CleanupCommand].
func (h *CleanupHandler) Execute(ctx context.Context, msg CleanupCommand) error {
	return h.inner.Execute(ctx, msg)
}

// Targets maps msg onto cleanup.Targets. Roles are assumed validated.
func Targets(msg CleanupCommand) cleanup.Targets {
	targets := cleanup.Targets{Collections: map[cleanup.Role]string{}}
	for _, name := range msg.Roles {
		targets.Roles = append(targets.Roles, cleanup.Role(name))
	}
	for name, collection := range msg.Collections {
		targets.Collections[cleanup.Role(name)] = collection
	}
	return targets
}
