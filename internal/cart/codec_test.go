package cart

import (
	"testing"

	"storefront/internal/domain"
)

func TestDecodeCartMalformed(t *testing.T) {
	cases := []string{
		"",
		"not json",
		`{"items":`,
		`[1,2,3]`,
	}
	for _, raw := range cases {
		if got := decodeCart(raw); got != nil {
			t.Fatalf("decode %q: expected nil, got %+v", raw, got)
		}
	}
}

func TestDecodeCartRoundTrip(t *testing.T) {
	c := domain.EmptyCart()
	c.Items = append(c.Items, domain.CartItem{Product: domain.Product{ID: 7, Name: "Mug", PriceCents: 1000}, Quantity: 2})
	c.Recalculate()

	raw, err := encodeCart(c)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got := decodeCart(raw)
	if got == nil {
		t.Fatalf("decode returned nil")
	}
	if len(got.Items) != 1 || got.Items[0].Product.ID != 7 || got.TotalItems != 2 || got.TotalAmountCents != 2000 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestDecodeCartSanitizes(t *testing.T) {
	// Stale aggregates, a non-positive quantity and a duplicate product id
	// must not survive decoding.
	raw := `{
		"items":[
			{"product":{"id":1,"priceCents":100},"quantity":2},
			{"product":{"id":2,"priceCents":50},"quantity":0},
			{"product":{"id":1,"priceCents":100},"quantity":9}
		],
		"totalItems":999,
		"totalAmountCents":12345
	}`
	got := decodeCart(raw)
	if got == nil {
		t.Fatalf("decode returned nil")
	}
	if len(got.Items) != 1 || got.Items[0].Product.ID != 1 || got.Items[0].Quantity != 2 {
		t.Fatalf("unexpected items: %+v", got.Items)
	}
	if got.TotalItems != 2 || got.TotalAmountCents != 200 {
		t.Fatalf("aggregates not recomputed: %+v", got)
	}
}

func TestCloneCartIsDeep(t *testing.T) {
	c := domain.EmptyCart()
	c.Items = append(c.Items, domain.CartItem{Product: domain.Product{ID: 1, PriceCents: 100}, Quantity: 1})
	c.Recalculate()

	cl := cloneCart(c)
	cl.Items[0].Quantity = 50

	if c.Items[0].Quantity != 1 {
		t.Fatalf("clone shares item storage with source")
	}
}
