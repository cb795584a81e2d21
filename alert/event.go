// Package alert routes restock events from all producers through the
// deduplication gate to the outbound sink.
package alert

import (
	"net/url"

	"github.com/google/uuid"
)

// Source identifies which producer observed a restock. The constant values
// are the wire values carried in the outbound payload.
type Source string

const (
	// SourceChat marks events observed by the chat listener.
	SourceChat Source = "discord"
	// SourcePoller marks events observed by the page poller.
	SourcePoller Source = "store_poller"
)

// storeSearchURL is the canonical product search used when an event carries
// no page URL (chat events usually don't).
const storeSearchURL = "https://store.ui.com/us/en/search?q="

// Event is a normalized restock observation crossing the router boundary.
// Constructed by a producer, consumed exactly once by the Router.
type Event struct {
	// ID correlates log lines for one event across router and sink.
	ID     string
	Name   string
	SKU    string
	Source Source
	// Quantity is the advertised quantity, when known.
	Quantity *int
	// URL is the product page, when known.
	URL string
	// Message is the raw chat text that triggered the event, when any.
	Message string
}

// NewEvent creates an Event with a fresh correlation ID.
func NewEvent(src Source, name, sku string) Event {
	return Event{
		ID:     uuid.NewString(),
		Name:   name,
		SKU:    sku,
		Source: src,
	}
}

// SearchURL returns the canonical store search URL for a SKU.
func SearchURL(sku string) string {
	return storeSearchURL + url.QueryEscape(sku)
}
