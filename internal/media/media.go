// Package media resolves featured image references to media documents,
// reusing uploads by filename.
package media

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-payload-sync/internal/slugs"
	"github.com/goliatone/go-payload-sync/pkg/interfaces"
)

const (
	DefaultCollection    = "media"
	DefaultFilenameField = "filename"
	DefaultAltField      = "alt"
	DefaultCaptionField  = "caption"

	// Companion front matter fields. They describe the featured image and
	// never reach the article payload.
	FieldFeaturedImageAlt     = "featuredImageAlt"
	FieldFeaturedImageCaption = "featuredImageCaption"
)

var (
	ErrClientRequired    = errors.New("payload media: client is required")
	ErrMediaNotFound     = errors.New("payload media: file not found")
	ErrDocumentIDMissing = errors.New("payload media: document has no id")
)

// Config selects the media collection, field names, and local lookup root.
type Config struct {
	Collection    string
	FilenameField string
	AltField      string
	CaptionField  string
	// Root is searched for relative paths before the article directory.
	Root string
	// Defaults are sent with every upload. Explicit alt/caption values win
	// over them; filename derived fallbacks do not.
	Defaults map[string]any
	Depth    *int
}

// Reference points at a local image. Alt and Caption are explicit values
// from front matter and may be empty.
type Reference struct {
	Path        string
	ArticlePath string
	Alt         string
	Caption     string
}

// Resolved is the media document an article should link to.
type Resolved struct {
	ID        any
	Document  interfaces.Document
	LocalPath string
	Uploaded  bool
	Updated   bool
}

// Resolver finds or uploads media documents.
type Resolver struct {
	client interfaces.PayloadClient
	cfg    Config
}

// NewResolver returns a Resolver, filling unset config fields with defaults.
func NewResolver(client interfaces.PayloadClient, cfg Config) *Resolver {
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}
	if cfg.FilenameField == "" {
		cfg.FilenameField = DefaultFilenameField
	}
	if cfg.AltField == "" {
		cfg.AltField = DefaultAltField
	}
	if cfg.CaptionField == "" {
		cfg.CaptionField = DefaultCaptionField
	}
	cfg.Defaults = maps.Clone(cfg.Defaults)
	return &Resolver{client: client, cfg: cfg}
}

// Collection returns the media collection name.
func (r *Resolver) Collection() string { return r.cfg.Collection }

// Resolve returns the media document for ref. An existing document with the
// same filename is reused; it is updated only when an explicit alt or caption
// differs from the stored value. Otherwise the file is uploaded with explicit
// or filename derived alt and caption.
func (r *Resolver) Resolve(ctx context.Context, ref Reference) (*Resolved, error) {
	if r == nil || r.client == nil {
		return nil, ErrClientRequired
	}
	localPath, err := LocatePath(ref.Path, ref.ArticlePath, r.cfg.Root)
	if err != nil {
		return nil, err
	}
	filename := filepath.Base(localPath)
	alt := strings.TrimSpace(ref.Alt)
	caption := strings.TrimSpace(ref.Caption)

	found, err := r.client.Find(ctx, r.cfg.Collection, interfaces.Query{
		Where: []interfaces.Condition{interfaces.Equals(r.cfg.FilenameField, filename)},
		Limit: 1,
		Depth: r.cfg.Depth,
	})
	if err != nil {
		return nil, fmt.Errorf("payload media: lookup %s: %w", filename, err)
	}

	if len(found) > 0 {
		existing := found[0]
		id, ok := interfaces.DocumentID(existing)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrDocumentIDMissing, filename)
		}
		changes := map[string]any{}
		if alt != "" && interfaces.StringField(existing, r.cfg.AltField) != alt {
			changes[r.cfg.AltField] = alt
		}
		if caption != "" && interfaces.StringField(existing, r.cfg.CaptionField) != caption {
			changes[r.cfg.CaptionField] = caption
		}
		if len(changes) == 0 {
			return &Resolved{ID: id, Document: existing, LocalPath: localPath}, nil
		}
		updated, err := r.client.Update(ctx, r.cfg.Collection, id, changes)
		if err != nil {
			return nil, fmt.Errorf("payload media: update %s: %w", filename, err)
		}
		if _, ok := interfaces.DocumentID(updated); !ok {
			updated = existing
		}
		return &Resolved{ID: id, Document: updated, LocalPath: localPath, Updated: true}, nil
	}

	fields := r.uploadFields(filename, alt, caption)
	uploaded, err := r.client.UploadFile(ctx, r.cfg.Collection, localPath, fields)
	if err != nil {
		return nil, fmt.Errorf("payload media: upload %s: %w", filename, err)
	}
	id, ok := interfaces.DocumentID(uploaded)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDocumentIDMissing, filename)
	}
	return &Resolved{ID: id, Document: uploaded, LocalPath: localPath, Uploaded: true}, nil
}

func (r *Resolver) uploadFields(filename, alt, caption string) map[string]any {
	fields := map[string]any{}
	fallback := slugs.TitleFromFilename(filename)
	if fallback != "" {
		fields[r.cfg.AltField] = fallback
		fields[r.cfg.CaptionField] = fallback
	}
	maps.Copy(fields, r.cfg.Defaults)
	if alt != "" {
		fields[r.cfg.AltField] = alt
	}
	if caption != "" {
		fields[r.cfg.CaptionField] = caption
	}
	return fields
}

// LocatePath finds the local file for a featured image value: the value
// itself when it names a file, then root/value, then the article's
// directory/value. Leading separators are stripped for the joined lookups.
func LocatePath(value, articlePath, root string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("%w: empty path", ErrMediaNotFound)
	}
	if isFile(value) {
		return value, nil
	}
	cleaned := strings.TrimLeft(value, `/\`)
	var bases []string
	if root != "" {
		bases = append(bases, root)
	}
	if articlePath != "" {
		bases = append(bases, filepath.Dir(articlePath))
	}
	for _, base := range bases {
		candidate := filepath.Join(base, filepath.FromSlash(cleaned))
		if isFile(candidate) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: %q relative to %q", ErrMediaNotFound, value, articlePath)
}

// StripCompanionFields deletes the featured image alt and caption fields
// from metadata and returns their string values.
func StripCompanionFields(metadata map[string]any) (alt, caption string) {
	alt, _ = metadata[FieldFeaturedImageAlt].(string)
	caption, _ = metadata[FieldFeaturedImageCaption].(string)
	delete(metadata, FieldFeaturedImageAlt)
	delete(metadata, FieldFeaturedImageCaption)
	return strings.TrimSpace(alt), strings.TrimSpace(caption)
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
