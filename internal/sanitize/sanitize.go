package sanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var policy = bluemonday.StrictPolicy()

// Text strips all HTML from user-facing strings.
func Text(s string) string {
	return strings.TrimSpace(policy.Sanitize(s))
}
