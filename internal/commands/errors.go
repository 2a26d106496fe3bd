package commands

import (
	"context"
	"errors"
	"net/http"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-payload-sync/internal/articles"
	"github.com/goliatone/go-payload-sync/internal/document"
	"github.com/goliatone/go-payload-sync/internal/rest"
	"github.com/goliatone/go-payload-sync/internal/validation"
)

const (
	commandValidationCode   = "COMMAND_VALIDATION_FAILED"
	commandContextCanceled  = "COMMAND_CONTEXT_CANCELED"
	commandContextTimeout   = "COMMAND_CONTEXT_TIMEOUT"
	commandContextErrorCode = "COMMAND_CONTEXT_ERROR"
	commandExecuteFailed    = "COMMAND_EXECUTION_FAILED"

	CodeMalformedDocument = "PAYLOAD_MALFORMED_DOCUMENT"
	CodeMissingField      = "PAYLOAD_MISSING_REQUIRED_FIELD"
	CodeHTTPError         = "PAYLOAD_HTTP_ERROR"
	CodeAuthentication    = "PAYLOAD_AUTHENTICATION_FAILED"
	CodeAmbiguousSlug     = "PAYLOAD_AMBIGUOUS_SLUG"
	CodeSchemaValidation  = "PAYLOAD_SCHEMA_VALIDATION"
)

// Classify converts sync errors into go-errors values carrying a category
// and text code. Errors that are already classified are returned unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}

	var (
		malformed *document.MalformedDocumentError
		missing   *document.MissingRequiredFieldError
		authErr   *rest.AuthenticationError
		ambiguous *articles.AmbiguousSlugError
		httpErr   *rest.HTTPError
		schemaErr *validation.PayloadValidationError
		fileErr   *articles.FileError
	)
	meta := map[string]any{}
	if errors.As(err, &fileErr) {
		meta["path"] = fileErr.Path
	}

	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return wrapContextError(err)
	case errors.As(err, &malformed):
		meta["path"] = malformed.Path
		return goerrors.Wrap(err, goerrors.CategoryValidation, "malformed document").
			WithTextCode(CodeMalformedDocument).WithMetadata(meta)
	case errors.As(err, &missing):
		meta["path"] = missing.Path
		meta["fields"] = missing.Fields
		return goerrors.Wrap(err, goerrors.CategoryValidation, "required front matter field missing").
			WithTextCode(CodeMissingField).WithMetadata(meta)
	case errors.As(err, &schemaErr):
		meta["issues"] = len(schemaErr.Issues)
		return goerrors.Wrap(err, goerrors.CategoryValidation, "payload failed schema validation").
			WithTextCode(CodeSchemaValidation).WithMetadata(meta)
	case errors.As(err, &authErr):
		return goerrors.Wrap(err, goerrors.CategoryAuth, "authentication failed").
			WithTextCode(CodeAuthentication).WithMetadata(meta)
	case errors.As(err, &ambiguous):
		meta["collection"] = ambiguous.Collection
		meta["slug"] = ambiguous.Slug
		meta["ids"] = ambiguous.IDs
		return goerrors.Wrap(err, goerrors.CategoryConflict, "slug matches several documents").
			WithTextCode(CodeAmbiguousSlug).WithMetadata(meta)
	case errors.As(err, &httpErr):
		meta["status"] = httpErr.StatusCode
		meta["method"] = httpErr.Method
		meta["url"] = httpErr.URL
		return goerrors.Wrap(err, httpCategory(httpErr.StatusCode), "payload request failed").
			WithCode(httpErr.StatusCode).WithTextCode(CodeHTTPError).WithMetadata(meta)
	default:
		return wrapExecuteError(err)
	}
}

// TextCode returns the go-errors text code carried by err, if any.
func TextCode(err error) string {
	var classified *goerrors.Error
	if errors.As(err, &classified) {
		return classified.TextCode
	}
	return ""
}

func httpCategory(status int) goerrors.Category {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return goerrors.CategoryAuth
	case status == http.StatusNotFound:
		return goerrors.CategoryNotFound
	case status == http.StatusConflict:
		return goerrors.CategoryConflict
	case status >= 500:
		return goerrors.CategoryExternal
	default:
		return goerrors.CategoryBadInput
	}
}

func wrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryValidation, "command validation failed").
		WithTextCode(commandValidationCode)
}

func wrapContextError(err error) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}
	switch {
	case errors.Is(err, context.Canceled):
		return goerrors.Wrap(err, goerrors.CategoryCommand, "command execution cancelled").
			WithTextCode(commandContextCanceled)
	case errors.Is(err, context.DeadlineExceeded):
		return goerrors.Wrap(err, goerrors.CategoryCommand, "command execution deadline exceeded").
			WithTextCode(commandContextTimeout)
	default:
		return goerrors.Wrap(err, goerrors.CategoryCommand, "command context error").
			WithTextCode(commandContextErrorCode)
	}
}

func wrapExecuteError(err error) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryCommand, "command execution failed").
		WithTextCode(commandExecuteFailed)
}
