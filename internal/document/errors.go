package document

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMalformedDocument    = errors.New("payload document: malformed front matter")
	ErrMissingRequiredField = errors.New("payload document: required field missing")
)

// MalformedDocumentError reports a missing delimiter or a front matter block
// that is not a YAML mapping.
type MalformedDocumentError struct {
	Path   string
	Reason string
	Err    error
}

func (e *MalformedDocumentError) Error() string {
	if e == nil {
		return ErrMalformedDocument.Error()
	}
	var b strings.Builder
	b.WriteString(ErrMalformedDocument.Error())
	if e.Path != "" {
		fmt.Fprintf(&b, ": %s", e.Path)
	}
	if e.Reason != "" {
		fmt.Fprintf(&b, ": %s", e.Reason)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *MalformedDocumentError) Unwrap() []error {
	if e == nil || e.Err == nil {
		return []error{ErrMalformedDocument}
	}
	return []error{ErrMalformedDocument, e.Err}
}

// MissingRequiredFieldError reports front matter carrying none of Fields.
type MissingRequiredFieldError struct {
	Path   string
	Fields []string
}

func (e *MissingRequiredFieldError) Error() string {
	if e == nil {
		return ErrMissingRequiredField.Error()
	}
	msg := fmt.Sprintf("%s: one of %s is required", ErrMissingRequiredField.Error(), strings.Join(e.Fields, ", "))
	if e.Path != "" {
		msg += " in " + e.Path
	}
	return msg
}

func (e *MissingRequiredFieldError) Unwrap() error {
	return ErrMissingRequiredField
}

func withPath(err error, path string) error {
	var malformed *MalformedDocumentError
	if errors.As(err, &malformed) && malformed.Path == "" {
		malformed.Path = path
	}
	var missing *MissingRequiredFieldError
	if errors.As(err, &missing) && missing.Path == "" {
		missing.Path = path
	}
	return err
}
