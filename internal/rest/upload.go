package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"slices"

	"github.com/goliatone/go-payload-sync/pkg/interfaces"
)

// FileField is the multipart part name Payload upload collections read.
const FileField = "file"

// UploadFile posts filePath to an upload-enabled collection as multipart
// form data. String fields are sent as-is, other values JSON encoded.
func (c *Client) UploadFile(ctx context.Context, collection, filePath string, fields map[string]any) (interfaces.Document, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("payload rest: open upload %s: %w", filePath, err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	for _, key := range slices.Sorted(maps.Keys(fields)) {
		value, err := formValue(fields[key])
		if err != nil {
			return nil, fmt.Errorf("payload rest: encode upload field %s: %w", key, err)
		}
		if value == nil {
			continue
		}
		if err := writer.WriteField(key, *value); err != nil {
			return nil, fmt.Errorf("payload rest: write upload field %s: %w", key, err)
		}
	}

	part, err := writer.CreateFormFile(FileField, filepath.Base(filePath))
	if err != nil {
		return nil, fmt.Errorf("payload rest: create upload part: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("payload rest: copy upload %s: %w", filePath, err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("payload rest: finalise upload: %w", err)
	}

	var out map[string]any
	if err := c.do(ctx, http.MethodPost, c.endpoint(collection), encodeQuery(interfaces.Query{}, c.depth), &body, writer.FormDataContentType(), &out); err != nil {
		return nil, err
	}
	return unwrapDoc(out), nil
}

func formValue(value any) (*string, error) {
	switch typed := value.(type) {
	case nil:
		return nil, nil
	case string:
		return &typed, nil
	case json.Number:
		s := typed.String()
		return &s, nil
	default:
		encoded, err := json.Marshal(typed)
		if err != nil {
			return nil, err
		}
		s := string(encoded)
		return &s, nil
	}
}
