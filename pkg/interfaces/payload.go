package interfaces

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Document is a JSON document as returned by the Payload REST API. The client
// only reads the id and the fields it matched on; the server owns the rest.
type Document = map[string]any

// Operator names a Payload where-clause operator.
type Operator string

const (
	OpEquals Operator = "equals"
	OpIn     Operator = "in"
)

// Condition is a single where clause.
type Condition struct {
	Field    string
	Operator Operator
	Values   []any
}

// Equals matches documents whose field equals value.
func Equals(field string, value any) Condition {
	return Condition{Field: field, Operator: OpEquals, Values: []any{value}}
}

// In matches documents whose field equals any of values.
func In(field string, values ...any) Condition {
	return Condition{Field: field, Operator: OpIn, Values: append([]any(nil), values...)}
}

// Query describes a collection lookup. Zero values are omitted from the
// request so the server defaults apply.
type Query struct {
	Where []Condition
	Limit int
	Page  int
	Depth *int
	Sort  string
}

// Page is one page of a collection listing.
type Page struct {
	Docs        []Document `json:"docs"`
	TotalDocs   int        `json:"totalDocs"`
	Limit       int        `json:"limit"`
	Page        int        `json:"page"`
	TotalPages  int        `json:"totalPages"`
	HasNextPage bool       `json:"hasNextPage"`
}

// PayloadClient is the subset of the REST client used by the resolvers and
// orchestrators. The rest.Client satisfies it; tests supply fakes.
type PayloadClient interface {
	Find(ctx context.Context, collection string, query Query) ([]Document, error)
	FindPage(ctx context.Context, collection string, query Query) (*Page, error)
	Create(ctx context.Context, collection string, payload map[string]any) (Document, error)
	Update(ctx context.Context, collection string, id any, payload map[string]any) (Document, error)
	Delete(ctx context.Context, collection string, id any) error
	UploadFile(ctx context.Context, collection, filePath string, fields map[string]any) (Document, error)
}

// DocumentID returns the id of doc and whether it carries a usable one.
func DocumentID(doc Document) (any, bool) {
	if doc == nil {
		return nil, false
	}
	id, ok := doc["id"]
	if !ok || id == nil {
		return nil, false
	}
	if s, isString := id.(string); isString && strings.TrimSpace(s) == "" {
		return nil, false
	}
	return id, true
}

// IDString renders an id the way it appears in a request path.
func IDString(id any) string {
	switch v := id.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprint(v)
	default:
		return fmt.Sprint(v)
	}
}

// StringField returns doc[field] when it is a string.
func StringField(doc Document, field string) string {
	if doc == nil {
		return ""
	}
	value, _ := doc[field].(string)
	return value
}
