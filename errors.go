package payloadsync

import (
	"github.com/goliatone/go-payload-sync/internal/articles"
	"github.com/goliatone/go-payload-sync/internal/cleanup"
	"github.com/goliatone/go-payload-sync/internal/document"
	"github.com/goliatone/go-payload-sync/internal/rest"
	"github.com/goliatone/go-payload-sync/internal/runtimeconfig"
	"github.com/goliatone/go-payload-sync/internal/validation"
)

var (
	ErrPayloadURLInvalid      = runtimeconfig.ErrPayloadURLInvalid
	ErrTokenTypeInvalid       = runtimeconfig.ErrTokenTypeInvalid
	ErrTimeoutInvalid         = runtimeconfig.ErrTimeoutInvalid
	ErrCollectionRequired     = runtimeconfig.ErrCollectionRequired
	ErrFieldNameRequired      = runtimeconfig.ErrFieldNameRequired
	ErrBodyFormatInvalid      = runtimeconfig.ErrBodyFormatInvalid
	ErrErrorPolicyInvalid     = runtimeconfig.ErrErrorPolicyInvalid
	ErrPatternInvalid         = runtimeconfig.ErrPatternInvalid
	ErrCleanupPagingInvalid   = runtimeconfig.ErrCleanupPagingInvalid
	ErrLoggingProviderUnknown = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid    = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid   = runtimeconfig.ErrLoggingFormatInvalid
)

var (
	ErrMalformedDocument    = document.ErrMalformedDocument
	ErrMissingRequiredField = document.ErrMissingRequiredField
	ErrHTTP                 = rest.ErrHTTP
	ErrAuthentication       = rest.ErrAuthentication
	ErrAmbiguousSlug        = articles.ErrAmbiguousSlug
	ErrNotDirectory         = articles.ErrNotDirectory
	ErrSchemaValidation     = validation.ErrSchemaValidation
	ErrCleanupStalled       = cleanup.ErrCleanupStalled
)

type (
	MalformedDocumentError    = document.MalformedDocumentError
	MissingRequiredFieldError = document.MissingRequiredFieldError
	HTTPError                 = rest.HTTPError
	AuthenticationError       = rest.AuthenticationError
	AmbiguousSlugError        = articles.AmbiguousSlugError
	FileError                 = articles.FileError
	PayloadValidationError    = validation.PayloadValidationError
)
