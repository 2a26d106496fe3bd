package articles

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
)

const DefaultPattern = "*.html"

// ErrorPolicy decides what a directory upload does after a failed file.
type ErrorPolicy int

const (
	// AbortOnError stops at the first failure.
	AbortOnError ErrorPolicy = iota
	// ContinueOnError records the failure and moves on.
	ContinueOnError
)

// String returns the policy name used in configuration.
func (p ErrorPolicy) String() string {
	if p == ContinueOnError {
		return "continue"
	}
	return "abort"
}

// ParseErrorPolicy maps "abort" and "continue" to an ErrorPolicy.
func ParseErrorPolicy(name string) (ErrorPolicy, error) {
	switch name {
	case "", "abort":
		return AbortOnError, nil
	case "continue":
		return ContinueOnError, nil
	default:
		return AbortOnError, fmt.Errorf("payload articles: unknown error policy %q", name)
	}
}

// DirectoryOptions tune UploadDirectory.
type DirectoryOptions struct {
	// Pattern is matched against file base names.
	Pattern     string
	Recursive   bool
	ErrorPolicy ErrorPolicy
	DryRun      bool
}

// DefaultDirectoryOptions matches *.html files in every subdirectory and
// aborts on the first failure.
func DefaultDirectoryOptions() DirectoryOptions {
	return DirectoryOptions{Pattern: DefaultPattern, Recursive: true, ErrorPolicy: AbortOnError}
}

// BatchResult collects the outcome of a directory upload.
type BatchResult struct {
	// Results holds successful uploads in traversal order.
	Results []*Result
	Errors  []FileError
}

// Err joins the recorded file errors, or returns nil.
func (b *BatchResult) Err() error {
	if b == nil || len(b.Errors) == 0 {
		return nil
	}
	errs := make([]error, len(b.Errors))
	for i := range b.Errors {
		errs[i] = &b.Errors[i]
	}
	return errors.Join(errs...)
}

// UploadDirectory uploads every matching file under dir, one at a time in
// relative path order. A file's slug is prefixed with its directory relative
// to dir, so "italy/rome.html" becomes "italy/<slug>".
func (u *Uploader) UploadDirectory(ctx context.Context, dir string, opts DirectoryOptions) (*BatchResult, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("payload articles: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, dir)
	}
	if opts.Pattern == "" {
		opts.Pattern = DefaultPattern
	}
	if _, err := path.Match(opts.Pattern, ""); err != nil {
		return nil, fmt.Errorf("payload articles: pattern %q: %w", opts.Pattern, err)
	}

	files, err := collectFiles(os.DirFS(dir), opts.Pattern, opts.Recursive)
	if err != nil {
		return nil, fmt.Errorf("payload articles: walk %s: %w", dir, err)
	}
	u.logger.Debug("articles.directory.start", "dir", dir, "files", len(files), "policy", opts.ErrorPolicy.String())

	batch := &BatchResult{}
	for _, rel := range files {
		if err := ctx.Err(); err != nil {
			return batch, err
		}
		prefix := path.Dir(rel)
		if prefix == "." {
			prefix = ""
		}
		full := filepath.Join(dir, filepath.FromSlash(rel))
		res, err := u.UploadFile(ctx, full, UploadOptions{SlugPrefix: prefix, DryRun: opts.DryRun})
		if err != nil {
			fileErr := FileError{Path: full, Err: err}
			if opts.ErrorPolicy != ContinueOnError {
				return batch, &fileErr
			}
			u.logger.Debug("articles.directory.file_failed", "article_path", full, "error", err)
			batch.Errors = append(batch.Errors, fileErr)
			continue
		}
		batch.Results = append(batch.Results, res)
	}
	u.logger.Debug("articles.directory.done", "dir", dir, "uploaded", len(batch.Results), "failed", len(batch.Errors))
	return batch, nil
}

func collectFiles(fsys fs.FS, pattern string, recursive bool) ([]string, error) {
	var files []string
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != "." && !recursive {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if ok, _ := path.Match(pattern, d.Name()); ok {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
