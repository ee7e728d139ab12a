// Package sanitize normalizes and validates user-supplied upload fields
// before they reach the coordinator: filenames, tag names, free-text
// metadata, and the file bytes themselves.
package sanitize

import (
	"encoding/hex"
	"errors"
	"fmt"
	"html"
	"path"
	"regexp"
	"strings"
)

var (
	filenamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+\.[A-Za-z]+$`)
	tagPattern      = regexp.MustCompile(`^[a-z0-9-]+$`)
)

var ErrUnknownFiletype = errors.New("unknown or disallowed filetype")

// Filename validates an upload filename: letters, digits, underscore,
// dash, one extension, no spaces or path separators.
func Filename(name string) (string, error) {
	name = strings.TrimSpace(name)
	if !filenamePattern.MatchString(name) {
		return "", fmt.Errorf("invalid filename %q: must match %s", name, filenamePattern)
	}
	return name, nil
}

// TagName lowercases and validates a tag name: lowercase alphanumeric
// plus dash.
func TagName(name string) (string, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if !tagPattern.MatchString(name) {
		return "", fmt.Errorf("invalid tag name %q: must match %s", name, tagPattern)
	}
	return name, nil
}

// HTML escapes free-text metadata (descriptions, alt text) so it is safe
// to echo back into markup.
func HTML(s string) string {
	return html.EscapeString(strings.TrimSpace(s))
}

// SniffImageType identifies a file by the magic number in its first four
// bytes. Only jpeg, png, and gif are recognized.
func SniffImageType(data []byte) string {
	if len(data) < 4 {
		return "unknown"
	}
	switch hex.EncodeToString(data[:4]) {
	case "ffd8ffe0", "ffd8ffe1", "ffd8ffe2":
		return "jpeg"
	case "89504e47":
		return "png"
	case "47494638":
		return "gif"
	default:
		return "unknown"
	}
}

// CheckImage verifies the file's magic number is an allowed image type
// and that the filename extension agrees with it.
func CheckImage(filename string, data []byte) error {
	kind := SniffImageType(data)
	if kind == "unknown" {
		return ErrUnknownFiletype
	}

	ext := strings.ToLower(strings.TrimPrefix(path.Ext(filename), "."))
	ok := false
	switch kind {
	case "jpeg":
		ok = ext == "jpg" || ext == "jpeg"
	case "png":
		ok = ext == "png"
	case "gif":
		ok = ext == "gif"
	}
	if !ok {
		return fmt.Errorf("%w: extension %q does not match content type %s", ErrUnknownFiletype, ext, kind)
	}
	return nil
}
