// Package slugs derives URL-safe identifiers from titles, category names,
// directory paths and filenames.
package slugs

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"github.com/goliatone/go-slug"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ErrEmptySlug is returned when text holds no characters a slug can keep.
var ErrEmptySlug = errors.New("payload slugs: slug cannot be derived from empty text")

const Separator = "/"

var (
	invalidRun   = regexp.MustCompile(`[^a-z0-9]+`)
	segmentSplit = regexp.MustCompile(`[\\/]+`)
	wordSplit    = regexp.MustCompile(`[\s\-_.]+`)
	canonical    = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
)

// Slugify lowercases text, folds diacritics to ASCII and collapses every run
// of other characters into a single hyphen. Slugify(Slugify(x)) == Slugify(x).
func Slugify(text string) (string, error) {
	candidate := collapse(fold(text))
	if candidate == "" {
		return "", ErrEmptySlug
	}
	// go-slug gets the last word; its output is forced back into the
	// canonical alphabet so the result stays idempotent.
	if normalized, err := slug.Normalize(candidate); err == nil {
		if cleaned := collapse(strings.ToLower(normalized)); cleaned != "" {
			candidate = cleaned
		}
	}
	return candidate, nil
}

// SlugifyPath slugifies each segment of a slash or backslash separated path
// and joins the segments with Separator. Empty segments are dropped.
func SlugifyPath(value string) (string, error) {
	parts := segmentSplit.Split(value, -1)
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		s, err := Slugify(part)
		if err != nil {
			return "", err
		}
		out = append(out, s)
	}
	return strings.Join(out, Separator), nil
}

// WithPrefix prepends the normalised prefix to slug unless slug already
// lives under it. A prefix segment with no usable characters is an
// ErrEmptySlug error.
func WithPrefix(prefix, slug string) (string, error) {
	normalized, err := SlugifyPath(prefix)
	if err != nil {
		return "", fmt.Errorf("prefix %q: %w", prefix, err)
	}
	if normalized == "" || slug == normalized || strings.HasPrefix(slug, normalized+Separator) {
		return slug, nil
	}
	return normalized + Separator + strings.TrimLeft(slug, Separator), nil
}

// TitleFromFilename turns a file name into words: directory and extension are
// dropped, separators become spaces, and each word is title-cased.
// "media/lake-como-sunset.jpg" becomes "Lake Como Sunset".
func TitleFromFilename(name string) string {
	base := path.Base(filepath.ToSlash(name))
	base = strings.TrimSuffix(base, path.Ext(base))
	caser := cases.Title(language.Und)
	words := make([]string, 0, 4)
	for _, word := range wordSplit.Split(base, -1) {
		if word == "" {
			continue
		}
		words = append(words, caser.String(word))
	}
	return strings.Join(words, " ")
}

// IsValid reports whether value is a canonical slug, optionally made of
// several segments joined by Separator.
func IsValid(value string) bool {
	if value == "" {
		return false
	}
	for _, segment := range strings.Split(value, Separator) {
		if !canonical.MatchString(segment) {
			return false
		}
	}
	return true
}

func fold(text string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	folded, _, err := transform.String(t, text)
	if err != nil {
		folded = text
	}
	return strings.ToLower(folded)
}

func collapse(value string) string {
	return strings.Trim(invalidRun.ReplaceAllString(value, "-"), "-")
}
