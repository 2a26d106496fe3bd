package payloadsync

import (
	"github.com/goliatone/go-payload-sync/internal/articles"
	"github.com/goliatone/go-payload-sync/internal/categories"
	"github.com/goliatone/go-payload-sync/internal/cleanup"
	"github.com/goliatone/go-payload-sync/internal/commands/synccmd"
	"github.com/goliatone/go-payload-sync/internal/credentials"
	"github.com/goliatone/go-payload-sync/internal/media"
	"github.com/goliatone/go-payload-sync/internal/rest"
	"github.com/goliatone/go-payload-sync/internal/runtimeconfig"
)

type (
	Config            = runtimeconfig.Config
	PayloadConfig     = runtimeconfig.PayloadConfig
	CredentialsConfig = runtimeconfig.CredentialsConfig
	CollectionsConfig = runtimeconfig.CollectionsConfig
	ArticlesConfig    = runtimeconfig.ArticlesConfig
	MarkdownConfig    = runtimeconfig.MarkdownConfig
	MediaConfig       = runtimeconfig.MediaConfig
	CategoriesConfig  = runtimeconfig.CategoriesConfig
	UploadConfig      = runtimeconfig.UploadConfig
	CleanupConfig     = runtimeconfig.CleanupConfig
	LoggingConfig     = runtimeconfig.LoggingConfig
)

type (
	Credentials        = credentials.Credentials
	LoginResult        = rest.LoginResult
	UploadOptions      = articles.UploadOptions
	DirectoryOptions   = articles.DirectoryOptions
	ErrorPolicy        = articles.ErrorPolicy
	Result             = articles.Result
	BatchResult        = articles.BatchResult
	Action             = articles.Action
	CategoryResolution = categories.Resolution
	MediaReference     = media.Reference
	ResolvedMedia      = media.Resolved
	CleanupTargets     = cleanup.Targets
	CleanupReport      = cleanup.Report
	CleanupRole        = cleanup.Role
)

// Command messages and registration types for hosts that run sync operations
// through a go-command registry or dispatcher.
type (
	UploadFileCommand      = synccmd.UploadFileCommand
	UploadDirectoryCommand = synccmd.UploadDirectoryCommand
	CleanupCommand         = synccmd.CleanupCommand
	CommandRegistry        = synccmd.CommandRegistry
	CommandDispatcher      = synccmd.CommandDispatcher
	CommandSubscription    = synccmd.CommandSubscription
	RegistrationOptions    = synccmd.RegistrationOptions
	RegistrationResult     = synccmd.RegistrationResult
)

const (
	AbortOnError    = articles.AbortOnError
	ContinueOnError = articles.ContinueOnError
)

// DefaultConfig returns defaults for a local Payload instance.
func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}
