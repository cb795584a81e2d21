package stock

import "testing"

const inStockPage = `<html><body>
<h1>Dream Router</h1>
<button data-testid="add-to-cart">Add to Cart</button>
<span data-testid="quantity-available">7 available</span>
</body></html>`

const soldOutPage = `<html><body>
<h1>Dream Router</h1>
<button data-testid="add-to-cart" disabled>Add to Cart</button>
<p>Sold Out — notify me when available</p>
</body></html>`

func TestClassify_InStock(t *testing.T) {
	// WHAT: A page with a purchase control and no unavailability phrase is in stock.
	// WHY: Core positive path of the classifier.
	got := Classify(inStockPage)
	if !got.InStock {
		t.Error("expected in stock")
	}
	if got.Quantity == nil || *got.Quantity != 7 {
		t.Errorf("quantity: got %v, want 7", got.Quantity)
	}
}

func TestClassify_UnavailablePhraseOverridesCartButton(t *testing.T) {
	// WHAT: An unavailability phrase marks the page out of stock even when a
	// purchase control is present.
	// WHY: Stores keep a disabled add-to-cart button on sold-out pages; either
	// signal alone is unreliable.
	if got := Classify(soldOutPage); got.InStock {
		t.Error("expected out of stock despite cart button")
	}
}

func TestClassify_CartButtonByText(t *testing.T) {
	// WHAT: A button matched by case-insensitive text counts as a purchase control.
	// WHY: The structural attribute is not guaranteed to be present.
	page := `<html><body><button class="buy">ADD TO CART</button></body></html>`
	if got := Classify(page); !got.InStock {
		t.Error("expected in stock via button text")
	}
}

func TestClassify_NoCartButton(t *testing.T) {
	// WHAT: A page without any purchase control is out of stock.
	// WHY: The control is a required signal.
	page := `<html><body><p>Great product, ships soon.</p></body></html>`
	if got := Classify(page); got.InStock {
		t.Error("expected out of stock without cart button")
	}
}

func TestClassify_GarbageMarkupFailsSafe(t *testing.T) {
	// WHAT: Unparsable or empty markup classifies as out of stock.
	// WHY: Corrupt input must never produce an alert.
	for _, markup := range []string{"", "\x00\x01<<<>>>", "not html at all"} {
		if got := Classify(markup); got.InStock {
			t.Errorf("markup %q: expected out of stock", markup)
		}
	}
}

func TestClassify_PhraseInUnrelatedCopyStillSuppresses(t *testing.T) {
	// WHAT: Phrases anywhere in the visible text suppress the alert.
	// WHY: Fail-safe bias — a false negative costs one cycle, a false positive
	// fires a spurious alert.
	page := `<html><body>
	<button data-testid="add-to-cart">Add to Cart</button>
	<footer>Accessories coming soon</footer>
	</body></html>`
	if got := Classify(page); got.InStock {
		t.Error("expected out of stock")
	}
}

func TestClassify_QuantityUnparsable(t *testing.T) {
	// WHAT: An unparsable quantity yields nil without failing the classification.
	// WHY: Quantity is best-effort metadata.
	page := `<html><body>
	<button data-testid="add-to-cart">Add to Cart</button>
	<span data-testid="quantity-available">plenty</span>
	</body></html>`
	got := Classify(page)
	if !got.InStock {
		t.Error("expected in stock")
	}
	if got.Quantity != nil {
		t.Errorf("quantity: got %v, want nil", *got.Quantity)
	}
}

func TestClassify_IgnoresScriptText(t *testing.T) {
	// WHAT: Phrases inside script tags do not count as visible text.
	// WHY: Analytics snippets routinely mention stock states.
	page := `<html><body>
	<button data-testid="add-to-cart">Add to Cart</button>
	<script>trackEvent("sold out banner hidden")</script>
	</body></html>`
	if got := Classify(page); !got.InStock {
		t.Error("expected in stock, script text should be ignored")
	}
}
