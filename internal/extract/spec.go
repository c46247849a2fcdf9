package extract

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// Extraction modes for FieldSpec.Extract.
const (
	ExtractText = "text"
	ExtractAttr = "attr"
)

// FieldSpec is one extraction rule: a named selector evaluated relative to
// the item scope, plus how to pull a value out of the first match.
type FieldSpec struct {
	Name     string `json:"name"`
	Selector string `json:"selector,omitempty"` // empty => extract from the item node itself
	Extract  string `json:"extract"`            // "text" or "attr"
	Attr     string `json:"attr,omitempty"`     // used when Extract == "attr"
	URL      bool   `json:"url,omitempty"`      // force base-URL resolution for this field
}

// Request describes one full extraction: the repeating item scope, the
// ordered field rules, and URL resolution settings.
//
// ItemSelector may be empty, in which case the whole document is a single
// implicit item.
type Request struct {
	ItemSelector string
	Fields       []FieldSpec
	BaseURL      string
	ResolveURLs  bool
}

// SelectorSyntaxError reports a selector string the underlying CSS grammar
// rejects. It is detected at compile time, before any item is processed, so
// a request that cannot succeed never produces partial output.
type SelectorSyntaxError struct {
	Field    string // empty for the item selector
	Selector string
	Err      error
}

func (e *SelectorSyntaxError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid item selector %q: %v", e.Selector, e.Err)
	}
	return fmt.Sprintf("invalid selector %q for field %q: %v", e.Selector, e.Field, e.Err)
}

func (e *SelectorSyntaxError) Unwrap() error { return e.Err }

// compiledField pairs a FieldSpec with its compiled matcher.
// matcher is nil for self-referential fields (empty selector).
type compiledField struct {
	spec    FieldSpec
	matcher goquery.Matcher
}

// Compiled is a validated Request ready to run against documents. All
// selectors have been compiled and field names checked, so running it can
// no longer fail on configuration.
type Compiled struct {
	items   goquery.Matcher // nil => whole document is the single item
	fields  []compiledField
	base    *url.URL
	resolve bool
}

// FieldNames returns the declared field names in order.
func (c *Compiled) FieldNames() []string {
	names := make([]string, len(c.fields))
	for i, f := range c.fields {
		names[i] = f.spec.Name
	}
	return names
}

// Compile validates the request and compiles every selector eagerly.
//
// Errors:
//   - *SelectorSyntaxError for any selector the CSS grammar rejects.
//   - Plain errors for structural problems: no fields, duplicate names,
//     unknown extraction mode, attr mode without an attribute name, or an
//     unparseable base URL.
func (r Request) Compile() (*Compiled, error) {
	if len(r.Fields) == 0 {
		return nil, fmt.Errorf("request has no fields")
	}

	c := &Compiled{resolve: r.ResolveURLs}

	if s := strings.TrimSpace(r.ItemSelector); s != "" {
		m, err := cascadia.Compile(s)
		if err != nil {
			return nil, &SelectorSyntaxError{Selector: s, Err: err}
		}
		c.items = m
	}

	if s := strings.TrimSpace(r.BaseURL); s != "" {
		base, err := url.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("parse base url %q: %w", s, err)
		}
		c.base = base
	}

	seen := make(map[string]struct{}, len(r.Fields))
	for _, f := range r.Fields {
		if f.Name == "" {
			return nil, fmt.Errorf("field with empty name")
		}
		if _, dup := seen[f.Name]; dup {
			return nil, fmt.Errorf("duplicate field name %q", f.Name)
		}
		seen[f.Name] = struct{}{}

		switch f.Extract {
		case ExtractText:
		case ExtractAttr:
			if f.Attr == "" {
				return nil, fmt.Errorf("field %q: attr mode requires an attribute name", f.Name)
			}
		default:
			return nil, fmt.Errorf("field %q: unknown extraction mode %q", f.Name, f.Extract)
		}

		cf := compiledField{spec: f}
		if sel := strings.TrimSpace(f.Selector); sel != "" {
			m, err := cascadia.Compile(sel)
			if err != nil {
				return nil, &SelectorSyntaxError{Field: f.Name, Selector: sel, Err: err}
			}
			cf.matcher = m
		}
		c.fields = append(c.fields, cf)
	}

	return c, nil
}

// ParseFieldSpec parses the CLI mini-grammar "name:selector@mode", where
// mode is either "text" or an attribute name.
//
// Examples:
//
//	title:h3 a@title
//	price:.price_color@text
//	link:h3 a@href
//
// The selector part may be empty ("link:@href") to extract from the item
// node itself.
func ParseFieldSpec(s string) (FieldSpec, error) {
	name, rest, ok := strings.Cut(s, ":")
	if !ok || strings.TrimSpace(name) == "" {
		return FieldSpec{}, fmt.Errorf("field %q: expected name:selector@mode", s)
	}

	at := strings.LastIndex(rest, "@")
	if at < 0 {
		return FieldSpec{}, fmt.Errorf("field %q: missing @mode (use @text or @<attribute>)", s)
	}
	selector := rest[:at]
	mode := strings.TrimSpace(rest[at+1:])
	if mode == "" {
		return FieldSpec{}, fmt.Errorf("field %q: empty mode after @", s)
	}

	f := FieldSpec{
		Name:     strings.TrimSpace(name),
		Selector: strings.TrimSpace(selector),
	}
	if mode == ExtractText {
		f.Extract = ExtractText
	} else {
		f.Extract = ExtractAttr
		f.Attr = mode
	}
	return f, nil
}

// LegacyName is the implicit field name used by LegacyRequest.
const LegacyName = "value"

// LegacyRequest builds the single-field "collect all X" request: every node
// matched by selector becomes an item, and one self-referential field named
// "value" is extracted per item. When attr is empty the field is the node's
// text content.
func LegacyRequest(selector, attr, baseURL string, resolveURLs bool) Request {
	f := FieldSpec{Name: LegacyName, Extract: ExtractText}
	if attr != "" {
		f.Extract = ExtractAttr
		f.Attr = attr
	}
	return Request{
		ItemSelector: selector,
		Fields:       []FieldSpec{f},
		BaseURL:      baseURL,
		ResolveURLs:  resolveURLs,
	}
}
