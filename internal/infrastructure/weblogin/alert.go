package weblogin

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// detectAlert looks for a non-empty, non-hidden element matching selector in
// an HTML snapshot and returns its normalized text.
func detectAlert(html, selector string) (string, bool, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", false, err
	}

	var text string
	doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if isHidden(s) {
			return true
		}
		t := strings.Join(strings.Fields(s.Text()), " ")
		if t == "" {
			return true
		}
		text = t
		return false
	})
	return text, text != "", nil
}

// isHidden reports whether the element or an ancestor is hidden by markup
func isHidden(s *goquery.Selection) bool {
	for n := s; n.Length() > 0; n = n.Parent() {
		if _, ok := n.Attr("hidden"); ok {
			return true
		}
		if v, _ := n.Attr("aria-hidden"); v == "true" {
			return true
		}
		style, _ := n.Attr("style")
		style = strings.ReplaceAll(strings.ToLower(style), " ", "")
		if strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") {
			return true
		}
	}
	return false
}
