package stock

// Product is one product to monitor. Immutable after startup.
type Product struct {
	// SKU is the unique product identifier. Stored as configured;
	// compared case-insensitively everywhere.
	SKU string `yaml:"sku" json:"sku"`
	// Name is the human-readable label used in alerts.
	Name string `yaml:"name" json:"name"`
	// URL is the product page to poll.
	URL string `yaml:"url" json:"url"`
}

// Snapshot is the result of one probe of a product page. Transient:
// produced and consumed within a single poll cycle.
type Snapshot struct {
	SKU      string `json:"sku"`
	Name     string `json:"name"`
	URL      string `json:"url"`
	InStock  bool   `json:"in_stock"`
	Quantity *int   `json:"quantity,omitempty"`
}
