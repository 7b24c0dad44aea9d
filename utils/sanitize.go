package utils

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	sanitizer     = bluemonday.UGCPolicy()
	textSanitizer = bluemonday.StrictPolicy()
)

// Sanitize cleans HTML content to prevent XSS attacks.
func Sanitize(input string) string {
	return sanitizer.Sanitize(input)
}

// SanitizeText strips every tag from a plain-text field and trims it. The
// entities bluemonday emits are decoded again so that "Tom & Jerry" is stored
// as typed and cleaning an already clean value changes nothing.
func SanitizeText(input string) string {
	stripped := textSanitizer.Sanitize(html.UnescapeString(input))
	return strings.TrimSpace(html.UnescapeString(stripped))
}
