package extract

import (
	"net/url"
	"strings"
)

// urlAttrs are attribute names treated as URL-bearing by default. Fields
// reading other attributes opt in with FieldSpec.URL.
var urlAttrs = map[string]struct{}{
	"href": {},
	"src":  {},
}

// NormalizeURL resolves value against base, returning an absolute URL string.
// Already-absolute, scheme-relative and fragment-only values all follow the
// standard reference-resolution rules. If value is not parseable as a URL it
// is returned unchanged; normalization never fails.
func NormalizeURL(base *url.URL, value string) string {
	u, err := url.Parse(value)
	if err != nil {
		return value
	}
	if base == nil {
		return u.String()
	}
	return base.ResolveReference(u).String()
}

// fieldWantsURL reports whether a field's value should be run through URL
// normalization. The explicit per-field mark wins regardless of extraction
// mode; otherwise only attribute reads from a known URL-bearing attribute
// qualify, never text mode.
func fieldWantsURL(f FieldSpec) bool {
	if f.URL {
		return true
	}
	if f.Extract != ExtractAttr {
		return false
	}
	_, ok := urlAttrs[strings.ToLower(f.Attr)]
	return ok
}
