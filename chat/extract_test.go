package chat

import "testing"

func TestExtractProductName_KnownSKU(t *testing.T) {
	// WHAT: Known SKUs map to their product names, case-insensitively.
	cases := map[string]string{
		"UVC-G6-180":       "G6 180",
		"uvc-g6-pro-entry": "G6 Pro Entry",
		"UTR":              "UniFi Travel Router",
	}
	for sku, want := range cases {
		if got := ExtractProductName(sku, "whatever"); got != want {
			t.Errorf("%s: got %q, want %q", sku, got, want)
		}
	}
}

func TestExtractProductName_ParenPattern(t *testing.T) {
	// WHAT: "Name (SKU)" in the message yields the name.
	got := ExtractProductName("UDM-SE", "Dream Machine SE (UDM-SE) is back in stock!")
	if got != "Dream Machine SE" {
		t.Errorf("got %q", got)
	}
}

func TestExtractProductName_DashPattern(t *testing.T) {
	// WHAT: "Name - SKU" in the message yields the name.
	got := ExtractProductName("USW-PRO-24", "Pro 24 Switch - USW-PRO-24 available now")
	if got != "Pro 24 Switch" {
		t.Errorf("got %q", got)
	}
}

func TestExtractProductName_FallbackToRole(t *testing.T) {
	// WHAT: With no known mapping and no pattern match, the role name stands in.
	// WHY: The role name is typically the SKU, which is still identifying.
	if got := ExtractProductName("U7-PRO", "restock happening"); got != "U7-PRO" {
		t.Errorf("got %q", got)
	}
}

func TestExtractProductName_RegexMetacharsInSKU(t *testing.T) {
	// WHAT: SKUs containing regex metacharacters do not break extraction.
	// WHY: Role names are untrusted input into a compiled pattern.
	if got := ExtractProductName("U7 (beta)", "no match here"); got != "U7 (beta)" {
		t.Errorf("got %q", got)
	}
}
