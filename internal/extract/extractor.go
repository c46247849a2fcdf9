package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// extractField pulls one field value out of an item.
//
// The field selector is resolved within the item's subtree only; when it
// matches more than one node the first match in document order wins. A nil
// matcher means the field reads from the item node itself.
//
// Returns ok=false when the selector matches nothing or the attribute is
// missing. Missing fields are expected in scraped content and are never
// errors.
func extractField(item *goquery.Selection, f compiledField) (string, bool) {
	sel := item
	if f.matcher != nil {
		sel = item.FindMatcher(f.matcher).First()
		if sel.Length() == 0 {
			return "", false
		}
	}

	switch f.spec.Extract {
	case ExtractAttr:
		return sel.Attr(f.spec.Attr)
	default:
		return collapseSpace(sel.Text()), true
	}
}

// collapseSpace folds runs of whitespace into single spaces and trims the
// ends, so multi-line markup yields a flat, readable value.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
