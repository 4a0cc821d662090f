package errors

import (
	"strings"
	"unicode"
)

// maxPageNameLength bounds page titles accepted from the command line or
// extracted from fetched HTML.
const maxPageNameLength = 256

// BannedPageChars are characters that mark namespaced or fragment links
// (File:, Talk:, #anchors, percent-escapes) which are never crawled.
const BannedPageChars = ":#%"

// ValidatePageName validates a wiki page title before it is used as a node
// name or interpolated into a fetch URL.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters
//   - No backslashes, and not "." or ".." on its own
//   - None of [BannedPageChars]
//   - Maximum length of 256 bytes
func ValidatePageName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidPage, "page name cannot be empty")
	}

	if len(name) > maxPageNameLength {
		return New(ErrCodeInvalidPage, "page name too long (max %d characters)", maxPageNameLength)
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPage, "page name contains invalid control characters")
		}
	}

	if strings.ContainsAny(name, BannedPageChars) {
		return New(ErrCodeInvalidPage, "page name contains namespace or fragment characters: %q", name)
	}

	if name == "." || name == ".." || strings.Contains(name, "\\") {
		return New(ErrCodeInvalidPage, "page name is not a valid title: %q", name)
	}

	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}
