package articles

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-payload-sync/pkg/interfaces"
)

var (
	ErrAmbiguousSlug     = errors.New("payload articles: slug matches more than one document")
	ErrDocumentIDMissing = errors.New("payload articles: matched document has no id")
	ErrNotDirectory      = errors.New("payload articles: not a directory")
	ErrSlugRequired      = errors.New("payload articles: slug could not be derived")
	ErrClientRequired    = errors.New("payload articles: client is required")
)

// AmbiguousSlugError reports a slug that matched several documents. No write
// is attempted in that case.
type AmbiguousSlugError struct {
	Collection string
	Slug       string
	IDs        []any
}

func (e *AmbiguousSlugError) Error() string {
	ids := make([]string, len(e.IDs))
	for i, id := range e.IDs {
		ids[i] = interfaces.IDString(id)
	}
	return fmt.Sprintf("payload articles: slug %q matches %d documents in %s (ids: %s)",
		e.Slug, len(e.IDs), e.Collection, strings.Join(ids, ", "))
}

func (e *AmbiguousSlugError) Unwrap() error {
	return ErrAmbiguousSlug
}

// FileError ties an upload failure to the file that caused it.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}
