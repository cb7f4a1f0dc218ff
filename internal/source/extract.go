package source

import (
	"strings"

	"golang.org/x/net/html"
)

// maxExtractRunes bounds the text kept from a fetched page. External
// content is a reference excerpt, not a mirror.
const maxExtractRunes = 500

// firstParagraphText parses an HTML page and returns the first substantial
// paragraph's visible text, bounded to maxExtractRunes. Returns "" when no
// paragraph qualifies.
func firstParagraphText(htmlBody []byte) string {
	doc, err := html.Parse(strings.NewReader(string(htmlBody)))
	if err != nil {
		return ""
	}

	var found string
	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe", "nav", "header", "footer":
				return false
			case "p":
				text := collapseWhitespace(visibleText(n))
				// Skip boilerplate stubs like "Jump to navigation"
				if len(text) >= 80 {
					found = text
					return true
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}
	walk(doc)

	return truncateRunes(found, maxExtractRunes)
}

// visibleText concatenates the text nodes under n, skipping non-content
// elements.
func visibleText(n *html.Node) string {
	var buf strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe", "sup":
				return
			}
		}
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
			buf.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)

	return buf.String()
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncateRunes cuts s at the last word boundary within limit runes,
// appending an ellipsis when anything was dropped.
func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	cut := string(runes[:limit])
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "..."
}
