package bootstrap

import (
	"context"
	"fmt"
	"strings"

	payloadsync "github.com/goliatone/go-payload-sync"
	"github.com/goliatone/go-payload-sync/internal/commands"
	"github.com/goliatone/go-payload-sync/internal/commands/synccmd"
	"github.com/goliatone/go-payload-sync/internal/credentials"
	"github.com/goliatone/go-payload-sync/pkg/interfaces"
)

// Options captures configuration shared by the sync CLIs. Empty values keep
// the defaults from payloadsync.DefaultConfig.
type Options struct {
	BaseURL        string
	Email          string
	Password       string
	Token          string
	APIPrefix      string
	UserCollection string
	EnvFile        string
	// ExtraEnvPrefixes adds <PREFIX>_EMAIL, <PREFIX>_PASSWORD and <PREFIX>_URL
	// ahead of the PAYLOADCMS_* variables, in the order given.
	ExtraEnvPrefixes []string
	Verbose          bool
	// CommandModule names the command logger, e.g. "articles".
	CommandModule  string
	Configure      func(*payloadsync.Config)
	LoggerProvider interfaces.LoggerProvider
}

// Uploader uploads single files and directories.
type Uploader interface {
	synccmd.FileUploader
	synccmd.DirectoryUploader
}

// Module holds what a CLI needs to run one command.
type Module struct {
	Module   *payloadsync.Module
	Uploader Uploader
	Cleaner  synccmd.Cleaner
	Logger   interfaces.Logger
	BaseURL  string
	// Authenticate logs in unless a token was configured.
	Authenticate func(ctx context.Context) error
	Collections  payloadsync.CollectionsConfig
}

// BuildModule resolves credentials and constructs a payloadsync module.
func BuildModule(opts Options) (*Module, error) {
	cfg := payloadsync.DefaultConfig()
	if trimmed := strings.TrimSpace(opts.APIPrefix); trimmed != "" {
		cfg.Payload.APIPrefix = trimmed
	}
	if trimmed := strings.TrimSpace(opts.UserCollection); trimmed != "" {
		cfg.Credentials.UserCollection = trimmed
	}
	cfg.Credentials.EnvFile = strings.TrimSpace(opts.EnvFile)
	var emailVars, passwordVars, urlVars []string
	for _, prefix := range opts.ExtraEnvPrefixes {
		prefix = strings.ToUpper(strings.TrimSpace(prefix))
		if prefix == "" {
			continue
		}
		emailVars = append(emailVars, prefix+"_EMAIL")
		passwordVars = append(passwordVars, prefix+"_PASSWORD")
		urlVars = append(urlVars, prefix+"_URL")
	}
	cfg.Credentials.EmailVars = append(emailVars, cfg.Credentials.EmailVars...)
	cfg.Credentials.PasswordVars = append(passwordVars, cfg.Credentials.PasswordVars...)
	cfg.Credentials.URLVars = append(urlVars, cfg.Credentials.URLVars...)
	if opts.Verbose {
		cfg.Logging.Level = "debug"
	}
	if opts.Configure != nil {
		opts.Configure(&cfg)
	}

	creds, err := credentials.Resolve(payloadsync.CredentialsFromConfig(cfg.Credentials), credentials.Credentials{
		Email:    opts.Email,
		Password: opts.Password,
		BaseURL:  opts.BaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("resolve credentials: %w", err)
	}
	if creds.BaseURL != "" {
		cfg.Payload.BaseURL = creds.BaseURL
	}
	token := strings.TrimSpace(opts.Token)
	if token != "" {
		cfg.Payload.Token = token
	}

	provider := opts.LoggerProvider
	if provider == nil {
		provider, err = payloadsync.NewLoggerProvider(cfg.Logging)
		if err != nil {
			return nil, err
		}
	}

	module, err := payloadsync.New(cfg, payloadsync.WithLoggerProvider(provider))
	if err != nil {
		return nil, fmt.Errorf("initialise payload sync module: %w", err)
	}

	return &Module{
		Module:   module,
		Uploader: module.Uploader(),
		Cleaner:  module.Cleaner(),
		Logger:   commands.CommandLogger(provider, opts.CommandModule),
		BaseURL:  cfg.Payload.BaseURL,
		Authenticate: func(ctx context.Context) error {
			if token != "" {
				return nil
			}
			_, err := module.Login(ctx, creds)
			return err
		},
		Collections: cfg.Collections,
	}, nil
}
