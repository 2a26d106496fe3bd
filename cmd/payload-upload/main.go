package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	payloadsync "github.com/goliatone/go-payload-sync"
	"github.com/goliatone/go-payload-sync/cmd/internal/bootstrap"
	"github.com/goliatone/go-payload-sync/internal/articles"
	"github.com/goliatone/go-payload-sync/internal/commands/synccmd"
)

var (
	moduleBuilder           = bootstrap.BuildModule
	stdout        io.Writer = os.Stdout
)

func main() {
	if err := runUpload(os.Args[1:]); err != nil {
		log.Fatalf("payload upload: %v", err)
	}
}

func runUpload(args []string) error {
	fs := flag.NewFlagSet("payload-upload", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: payload-upload [flags] PATH\n\nPATH is an article file or a directory of articles.\n\n")
		fs.PrintDefaults()
	}
	baseURL := fs.String("url", "", "Payload base URL (defaults to $PAYLOADCMS_URL)")
	email := fs.String("email", "", "Login email (defaults to $PAYLOADCMS_EMAIL)")
	password := fs.String("password", "", "Login password (defaults to $PAYLOADCMS_PASSWORD)")
	token := fs.String("token", "", "Use this token instead of logging in")
	apiPrefix := fs.String("api-prefix", "", "REST API prefix (default \"api\")")
	userCollection := fs.String("user-collection", "", "Auth collection used for login (default \"users\")")
	envFile := fs.String("env-file", "", "dotenv file with credentials (defaults to $ENV_PATH or .env)")
	collection := fs.String("collection", "", "Posts collection (default \"posts\")")
	prefix := fs.String("prefix", "", "Slug prefix for a single file upload")
	pattern := fs.String("pattern", "", "Glob matched against file names in directory mode (default \"*.html\")")
	noRecurse := fs.Bool("no-recurse", false, "Do not descend into subdirectories")
	continueOnError := fs.Bool("continue", false, "Keep uploading after a file fails")
	dryRun := fs.Bool("dry-run", false, "Look up articles without writing anything")
	bodyFormat := fs.String("body-format", "", "Article body format: html or lexical")
	mediaRoot := fs.String("media-root", "", "Directory searched for featured images")
	schemaFile := fs.String("schema", "", "JSON schema file the article payload must satisfy")
	sanitize := fs.Bool("sanitize", false, "Sanitize article HTML before upload")
	verbose := fs.Bool("v", false, "Verbose logging")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return errors.New("exactly one PATH is required")
	}
	target := fs.Arg(0)
	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("stat %s: %w", target, err)
	}

	module, err := moduleBuilder(bootstrap.Options{
		BaseURL:        *baseURL,
		Email:          *email,
		Password:       *password,
		Token:          *token,
		APIPrefix:      *apiPrefix,
		UserCollection: *userCollection,
		EnvFile:        *envFile,
		Verbose:        *verbose,
		CommandModule:  "articles",
		Configure: func(cfg *payloadsync.Config) {
			if trimmed := strings.TrimSpace(*collection); trimmed != "" {
				cfg.Collections.Posts = trimmed
			}
			if trimmed := strings.TrimSpace(*bodyFormat); trimmed != "" {
				cfg.Articles.BodyFormat = strings.ToLower(trimmed)
			}
			if trimmed := strings.TrimSpace(*mediaRoot); trimmed != "" {
				cfg.Media.Root = trimmed
			}
			if trimmed := strings.TrimSpace(*schemaFile); trimmed != "" {
				cfg.Articles.SchemaFile = trimmed
			}
			cfg.Articles.Sanitize = cfg.Articles.Sanitize || *sanitize
		},
	})
	if err != nil {
		return fmt.Errorf("bootstrap module: %w", err)
	}

	ctx := context.Background()
	if err := module.Authenticate(ctx); err != nil {
		return fmt.Errorf("authenticate: %w", err)
	}

	if !info.IsDir() {
		handler := synccmd.NewUploadFileHandler(module.Uploader, module.Logger, printResult)
		cmd := synccmd.UploadFileCommand{Path: target, SlugPrefix: *prefix, DryRun: *dryRun}
		if err := handler.Execute(ctx, cmd); err != nil {
			return fmt.Errorf("execute upload command: %w", err)
		}
		return nil
	}

	handler := synccmd.NewUploadDirectoryHandler(module.Uploader, module.Logger, printBatch)
	cmd := synccmd.UploadDirectoryCommand{
		Directory:       target,
		Pattern:         *pattern,
		NoRecurse:       *noRecurse,
		ContinueOnError: *continueOnError,
		DryRun:          *dryRun,
	}
	if err := handler.Execute(ctx, cmd); err != nil {
		return fmt.Errorf("execute upload command: %w", err)
	}
	return nil
}

func printResult(res *articles.Result) {
	action := string(res.Action)
	if res.Action == articles.ActionSkipped && res.Planned != "" {
		action = "would be " + string(res.Planned)
	}
	fmt.Fprintf(stdout, "%s %s (%s)\n", res.Slug, action, res.Path)
}

func printBatch(batch *articles.BatchResult) {
	for _, res := range batch.Results {
		printResult(res)
	}
	for _, failure := range batch.Errors {
		fmt.Fprintf(stdout, "FAILED %s: %v\n", failure.Path, failure.Err)
	}
	fmt.Fprintf(stdout, "%d uploaded, %d failed\n", len(batch.Results), len(batch.Errors))
}
