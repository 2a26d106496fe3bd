package main

import (
	"bufio"
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
	"github.com/goliatone/go-payload-sync/internal/cleanup"
	"github.com/goliatone/go-payload-sync/internal/commands/synccmd"
)

var (
	moduleBuilder           = bootstrap.BuildModule
	stdin         io.Reader = os.Stdin
	stdout        io.Writer = os.Stdout
)

var errNothingSelected = errors.New("no collection selected")

func main() {
	if err := runClean(os.Args[1:]); err != nil {
		log.Fatalf("payload clean: %v", err)
	}
}

func runClean(args []string) error {
	fs := flag.NewFlagSet("payload-clean", flag.ExitOnError)
	baseURL := fs.String("url", "", "Payload base URL (defaults to $PAYLOAD_URL or $PAYLOADCMS_URL)")
	email := fs.String("email", "", "Login email (defaults to $PAYLOAD_EMAIL or $PAYLOADCMS_EMAIL)")
	password := fs.String("password", "", "Login password (defaults to $PAYLOAD_PASSWORD or $PAYLOADCMS_PASSWORD)")
	apiPrefix := fs.String("api-prefix", "", "REST API prefix (default \"api\")")
	userCollection := fs.String("user-collection", "", "Auth collection used for login (default \"users\")")
	envFile := fs.String("env-file", "", "dotenv file with credentials (defaults to $ENV_PATH or .env)")
	postsCollection := fs.String("posts", "posts", "Posts collection name")
	mediaCollection := fs.String("media", "media", "Media collection name")
	categoriesCollection := fs.String("categories", "categories", "Categories collection name")
	skipPosts := fs.Bool("skip-posts", false, "Do not clean posts")
	skipMedia := fs.Bool("skip-media", false, "Do not clean media")
	skipCategories := fs.Bool("skip-categories", false, "Do not clean categories")
	onlyPosts := fs.Bool("only-posts", false, "Only clean posts")
	onlyMedia := fs.Bool("only-media", false, "Only clean media")
	onlyCategories := fs.Bool("only-categories", false, "Only clean categories")
	verbose := fs.Bool("v", false, "Verbose logging")
	yes := fs.Bool("y", false, "Skip the confirmation prompt")

	if err := fs.Parse(args); err != nil {
		return err
	}

	roles := selectRoles(
		map[cleanup.Role]bool{cleanup.RolePosts: *skipPosts, cleanup.RoleMedia: *skipMedia, cleanup.RoleCategories: *skipCategories},
		map[cleanup.Role]bool{cleanup.RolePosts: *onlyPosts, cleanup.RoleMedia: *onlyMedia, cleanup.RoleCategories: *onlyCategories},
	)
	if len(roles) == 0 {
		return errNothingSelected
	}
	collections := map[string]string{
		string(cleanup.RolePosts):      strings.TrimSpace(*postsCollection),
		string(cleanup.RoleMedia):      strings.TrimSpace(*mediaCollection),
		string(cleanup.RoleCategories): strings.TrimSpace(*categoriesCollection),
	}

	module, err := moduleBuilder(bootstrap.Options{
		BaseURL:          *baseURL,
		Email:            *email,
		Password:         *password,
		APIPrefix:        *apiPrefix,
		UserCollection:   *userCollection,
		EnvFile:          *envFile,
		ExtraEnvPrefixes: []string{"PAYLOAD"},
		Verbose:          *verbose,
		CommandModule:    "cleanup",
		Configure: func(cfg *payloadsync.Config) {
			cfg.Collections.Posts = collections[string(cleanup.RolePosts)]
			cfg.Collections.Media = collections[string(cleanup.RoleMedia)]
			cfg.Collections.Categories = collections[string(cleanup.RoleCategories)]
		},
	})
	if err != nil {
		return fmt.Errorf("bootstrap module: %w", err)
	}

	printPlan(module.BaseURL, roles, collections)
	if !*yes {
		confirmed, err := confirm(stdin)
		if err != nil {
			return err
		}
		if !confirmed {
			fmt.Fprintln(stdout, "Cancelled.")
			return nil
		}
	}

	ctx := context.Background()
	if err := module.Authenticate(ctx); err != nil {
		return fmt.Errorf("authenticate: %w", err)
	}

	handler := synccmd.NewCleanupHandler(module.Cleaner, module.Logger, printReport)
	cmd := synccmd.CleanupCommand{Roles: roles, Collections: collections}
	if err := handler.Execute(ctx, cmd); err != nil {
		return fmt.Errorf("execute cleanup command: %w", err)
	}
	return nil
}

// selectRoles applies the only-* flags when any is set and the skip-* flags
// otherwise.
func selectRoles(skip, only map[cleanup.Role]bool) []string {
	restrict := false
	for _, set := range only {
		restrict = restrict || set
	}
	var roles []string
	for _, role := range cleanup.Roles {
		if (restrict && only[role]) || (!restrict && !skip[role]) {
			roles = append(roles, string(role))
		}
	}
	return roles
}

func printPlan(baseURL string, roles []string, collections map[string]string) {
	fmt.Fprintf(stdout, "Base URL: %s\nCollections to clean:\n", baseURL)
	selected := map[string]bool{}
	for _, role := range roles {
		selected[role] = true
	}
	for _, role := range cleanup.Roles {
		name := string(role)
		if selected[name] {
			fmt.Fprintf(stdout, "  + %s: %s\n", name, collections[name])
		} else {
			fmt.Fprintf(stdout, "  - %s: skipped\n", name)
		}
	}
}

func confirm(in io.Reader) (bool, error) {
	fmt.Fprint(stdout, "This permanently deletes every document in the selected collections.\nAre you sure you want to continue? (yes/no): ")
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("read confirmation: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "yes", "y":
		return true, nil
	default:
		return false, nil
	}
}

func printReport(report *cleanup.Report) {
	for _, collection := range report.Order {
		fmt.Fprintf(stdout, "%s: %d deleted\n", collection, report.Counts[collection])
	}
	fmt.Fprintf(stdout, "Total documents deleted: %d\n", report.Total())
}
