package extract

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// PrintSelector prints either outer HTML or text of all matches for a
// selector. This backs the command's "-probe" mode for interactively
// finding the right item and field selectors.
func PrintSelector(w io.Writer, html, selector string, textOnly bool) error {
	m, err := cascadia.Compile(selector)
	if err != nil {
		return &SelectorSyntaxError{Selector: selector, Err: err}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return fmt.Errorf("parse html: %w", err)
	}

	doc.FindMatcher(m).Each(func(_ int, s *goquery.Selection) {
		if textOnly {
			fmt.Fprintln(w, collapseSpace(s.Text()))
			fmt.Fprintln(w)
			return
		}
		out, err := goquery.OuterHtml(s)
		if err != nil {
			in, _ := s.Html()
			fmt.Fprintln(w, in)
			fmt.Fprintln(w)
			return
		}
		fmt.Fprintln(w, out)
		fmt.Fprintln(w)
	})
	return nil
}
