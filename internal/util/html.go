package util

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// StripHTML flattens remote-supplied rich text (titles and intros
// sometimes carry <em> highlight markup) to plain text. Falls back to
// the input unchanged if it does not parse.
func StripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	return strings.TrimSpace(doc.Text())
}
