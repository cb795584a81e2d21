// Package stock probes product pages and detects out-of-stock → in-stock
// transitions. The classifier is a pure function over page markup; the
// prober owns the HTTP fetch; the poller owns per-product state and cadence.
package stock

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// unavailablePhrases are tested against the page's visible text, lower-cased.
// Any match overrides the presence of a purchase control: stores often keep a
// disabled "add to cart" button on sold-out pages.
var unavailablePhrases = []string{
	"out of stock",
	"sold out",
	"currently unavailable",
	"notify me",
	"coming soon",
}

// Classification is the outcome of classifying one page.
type Classification struct {
	InStock bool
	// Quantity is the advertised available quantity, when the page exposes
	// one. Nil when absent or unparsable.
	Quantity *int
}

// Classify decides availability from raw page markup. Pure: no network, no
// clock. Unparsable or empty markup classifies as out of stock — corrupt
// input must never produce an alert.
//
// A page counts as in stock only when both signals agree: a purchase-action
// control exists AND no unavailability phrase appears in the visible text.
// Either signal alone is unreliable.
func Classify(markup string) Classification {
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil || doc == nil {
		return Classification{}
	}

	hasCart := findCartButton(doc)
	text := strings.ToLower(collectText(doc))

	unavailable := false
	for _, phrase := range unavailablePhrases {
		if strings.Contains(text, phrase) {
			unavailable = true
			break
		}
	}

	return Classification{
		InStock:  hasCart && !unavailable,
		Quantity: findQuantity(doc),
	}
}

// findCartButton looks for an add-to-cart affordance: a button with the
// stable data-testid attribute, or any button whose text mentions it.
func findCartButton(n *html.Node) bool {
	if n.Type == html.ElementNode && n.DataAtom == atom.Button {
		if attrVal(n, "data-testid") == "add-to-cart" {
			return true
		}
		if strings.Contains(strings.ToLower(collectText(n)), "add to cart") {
			return true
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if findCartButton(c) {
			return true
		}
	}
	return false
}

// findQuantity extracts the advertised quantity from a dedicated element.
// Missing or unparsable quantity returns nil rather than failing the
// classification.
func findQuantity(n *html.Node) *int {
	if n.Type == html.ElementNode && attrVal(n, "data-testid") == "quantity-available" {
		fields := strings.Fields(collectText(n))
		if len(fields) > 0 {
			if q, err := strconv.Atoi(fields[0]); err == nil {
				return &q
			}
		}
		return nil
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if q := findQuantity(c); q != nil {
			return q
		}
	}
	return nil
}

func attrVal(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// collectText extracts the visible text of a subtree, skipping script and
// style content.
func collectText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				if sb.Len() > 0 {
					sb.WriteByte(' ')
				}
				sb.WriteString(text)
			}
		}
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript:
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
