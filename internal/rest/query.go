package rest

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/goliatone/go-payload-sync/pkg/interfaces"
)

// encodeQuery renders q in the bracket syntax Payload parses with qs:
// where[field][equals]=v and where[field][in][0]=a&where[field][in][1]=b.
func encodeQuery(q interfaces.Query, defaultDepth *int) url.Values {
	values := url.Values{}
	for _, cond := range q.Where {
		op := cond.Operator
		if op == "" {
			op = interfaces.OpEquals
		}
		key := fmt.Sprintf("where[%s][%s]", cond.Field, op)
		switch op {
		case interfaces.OpIn:
			for i, v := range cond.Values {
				values.Set(fmt.Sprintf("%s[%d]", key, i), formatValue(v))
			}
		default:
			if len(cond.Values) > 0 {
				values.Set(key, formatValue(cond.Values[0]))
			}
		}
	}
	if q.Limit > 0 {
		values.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Page > 0 {
		values.Set("page", strconv.Itoa(q.Page))
	}
	if q.Sort != "" {
		values.Set("sort", q.Sort)
	}
	depth := q.Depth
	if depth == nil {
		depth = defaultDepth
	}
	if depth != nil {
		values.Set("depth", strconv.Itoa(*depth))
	}
	return values
}

func formatValue(v any) string {
	switch typed := v.(type) {
	case string:
		return typed
	case json.Number:
		return typed.String()
	case bool:
		return strconv.FormatBool(typed)
	case nil:
		return ""
	default:
		return interfaces.IDString(typed)
	}
}
