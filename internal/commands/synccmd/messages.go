package synccmd

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	uploadFileMessageType      = "payload.articles.upload_file"
	uploadDirectoryMessageType = "payload.articles.upload_directory"
	cleanupMessageType         = "payload.cleanup.run"
)

var roleNames = []any{"posts", "media", "categories"}

// UploadFileCommand uploads a single article file.
type UploadFileCommand struct {
	// Path is the article file to upload.
	Path string `json:"path"`
	// SlugPrefix is prepended to the article slug unless already present.
	SlugPrefix string `json:"slug_prefix,omitempty"`
	// DryRun performs lookups only.
	DryRun bool `json:"dry_run,omitempty"`
}

// Type implements command.Message.
func (UploadFileCommand) Type() string { return uploadFileMessageType }

// Validate ensures a path is present before handlers execute.
func (cmd UploadFileCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.Path, validation.Required, validation.By(notBlank("payload.articles.upload_file.path_required", "path is required"))),
	)
}

// UploadDirectoryCommand uploads every matching article under Directory.
type UploadDirectoryCommand struct {
	Directory string `json:"directory"`
	// Pattern is matched against base names; empty means *.html.
	Pattern string `json:"pattern,omitempty"`
	// NoRecurse limits the walk to Directory itself.
	NoRecurse bool `json:"no_recurse,omitempty"`
	// ContinueOnError records failures and keeps going instead of stopping.
	ContinueOnError bool `json:"continue_on_error,omitempty"`
	DryRun          bool `json:"dry_run,omitempty"`
}

// Type implements command.Message.
func (UploadDirectoryCommand) Type() string { return uploadDirectoryMessageType }

// Validate ensures directory input is present before handlers execute.
func (cmd UploadDirectoryCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.Directory, validation.Required, validation.By(notBlank("payload.articles.upload_directory.directory_required", "directory is required"))),
		validation.Field(&cmd.Pattern, validation.By(func(value any) error {
			if strings.ContainsAny(value.(string), `/\`) {
				return validation.NewError("payload.articles.upload_directory.pattern_invalid", "pattern must match base names only")
			}
			return nil
		})),
	)
}

// CleanupCommand deletes every document of the selected roles.
type CleanupCommand struct {
	// Roles lists posts, media or categories. They always run in that order.
	Roles []string `json:"roles"`
	// Collections overrides the collection name per role.
	Collections map[string]string `json:"collections,omitempty"`
}

// Type implements command.Message.
func (CleanupCommand) Type() string { return cleanupMessageType }

// Validate ensures only known roles are requested.
func (cmd CleanupCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.Roles, validation.Required, validation.Each(validation.In(roleNames...))),
		validation.Field(&cmd.Collections, validation.By(func(value any) error {
			for role := range value.(map[string]string) {
				if err := validation.Validate(role, validation.In(roleNames...)); err != nil {
					return validation.NewError("payload.cleanup.run.collection_role", "unknown role "+role)
				}
			}
			return nil
		})),
	)
}

func notBlank(code, message string) func(value any) error {
	return func(value any) error {
		if strings.TrimSpace(value.(string)) == "" {
			return validation.NewError(code, message)
		}
		return nil
	}
}
