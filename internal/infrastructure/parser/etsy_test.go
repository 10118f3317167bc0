package parser

import (
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"

	"OrdersParser/internal/domain"
)

const etsyOrderHTML = `<html><head><link rel="canonical" href="https://www.etsy.com/your/orders/sold"></head><body>
<span id="order-details-order-info" class="display-inline-block">
  <a class="strong">3012345678</a> from <a class="text-gray-darker">StickalzShop</a>
</span>
<div class="address break-word"><p>
  <span class="name">Jane Doe</span>
  <span class="first-line">12 Main St</span>
  <span class="city">Austin</span>
  <span class="state">TX</span>
  <span class="zip">73301</span>
  <span class="country-name">United States</span>
</p></div>
<div class="flag-img flag-img-right text-right vertical-align-top hide-xs hide-sm">
  <p class="text-body-smaller text-gray-lightest mt-xs-1">Buyer notification sent Mar 5, 2024</p>
</div>
<div class="pl-xs-1 mr-xs-2"><p class="text-truncate">USPS® First Class</p></div>
<div class="col-xs-9 wt-wrap"><a href="https://www.etsy.com/track/1">9400111899223100001234</a></div>
<div class="strong text-body-smaller"><span data-test-id="unsanitize">Standard Shipping</span></div>
<div class="wt-flex-md-1 text-right"><strong class="mr-xs-1">$4.10</strong></div>
<ul>
  <li class="col-group wt-p-xs-0 wt-mt-xs-1 wt-mb-xs-1"><div class="col-xs-9">Item total</div><div class="col-xs-3 text-right wt-pr-xs-0">$45.00</div></li>
  <li class="col-group wt-p-xs-0 wt-mt-xs-1 wt-mb-xs-1"><div class="col-xs-9">Shipping price</div><div class="col-xs-3 text-right wt-pr-xs-0">$5.00</div></li>
</ul>
<div class="order-detail-buyer-note"><pre class="note"><span data-test-id="unsanitize">Please hurry</span></pre></div>
<table><tbody>
  <tr class="col-group pl-xs-0 pt-xs-3 pr-xs-0 pb-xs-3 bb-xs-1">
    <td>
      <a href="https://www.etsy.com/listing/111/mountain-mural?ref=sold">
      <div class="flag-body prose">
        <span data-test-id="unsanitize">Mountain Wall Mural (Large)</span>
        <ul><li>Size: 12x8 inches</li><li>Color: Blue</li></ul>
      </div></a>
      <span class="mb-xs-1"><p><span data-test-id="unsanitize">MNT-01</span></p></span>
    </td>
    <td class="col-xs-2 pl-xs-0 text-center">2</td>
  </tr>
  <tr class="col-group pl-xs-0 pt-xs-3 pr-xs-0 pb-xs-3 bb-xs-1">
    <td>
      <a href="https://www.etsy.com/listing/222/forest-decal">
      <div class="flag-body prose">
        <span data-test-id="unsanitize">Forest Decal (Small) FRS-22</span>
        <ul><li>Size: 24x36</li></ul>
      </div></a>
    </td>
    <td class="col-xs-2 pl-xs-0 text-center">x</td>
  </tr>
</tbody></table>
</body></html>`

func parseDoc(t *testing.T, raw string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc
}

func TestEtsyParserOrderFields(t *testing.T) {
	t.Parallel()

	p := NewEtsyParser(nil)
	order := p.Parse(parseDoc(t, etsyOrderHTML), etsyOrderHTML)

	if order.Mode != domain.MatchBySize {
		t.Fatalf("expected size matching for etsy")
	}
	if order.OrderID.Value != "3012345678" {
		t.Fatalf("unexpected order id %+v", order.OrderID)
	}
	if order.Store.Value != "StickalzShop" {
		t.Fatalf("unexpected store %+v", order.Store)
	}
	if order.Address.Value != "Jane Doe\n12 Main St\nAustin, TX 73301\nUnited States" {
		t.Fatalf("unexpected address %q", order.Address.Value)
	}
	if order.PostalService.Value != "USPS" {
		t.Fatalf("unexpected carrier %+v", order.PostalService)
	}
	if order.ShippingSpeed.Value != "Standard" {
		t.Fatalf("unexpected speed %+v", order.ShippingSpeed)
	}
	if !strings.HasSuffix(order.TrackLink.Value, "qtc_tLabels1=9400111899223100001234") {
		t.Fatalf("unexpected tracking link %q", order.TrackLink.Value)
	}
	if want := time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC); !order.ShipBy.Value.Equal(want) {
		t.Fatalf("unexpected ship-by %+v", order.ShipBy)
	}
	if order.ItemsTotal.Value != 45 || order.ShippingPrice.Value != 5 || order.ShippingTotal.Value != 4.10 {
		t.Fatalf("unexpected money: items=%+v price=%+v total=%+v", order.ItemsTotal, order.ShippingPrice, order.ShippingTotal)
	}
	if order.AdditionalInfo != "Buyer's message: Please hurry" {
		t.Fatalf("unexpected additional info %q", order.AdditionalInfo)
	}
}

func TestEtsyParserItems(t *testing.T) {
	t.Parallel()

	order := NewEtsyParser(nil).Parse(parseDoc(t, etsyOrderHTML), etsyOrderHTML)
	if len(order.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(order.Items))
	}

	first := order.Items[0]
	if first.SKU.Value != "MNT-01" {
		t.Fatalf("unexpected sku %+v", first.SKU)
	}
	if first.ListingLink.Value != "https://www.etsy.com/listing/111/mountain-mural" {
		t.Fatalf("unexpected listing link %q", first.ListingLink.Value)
	}
	if first.Quantity.Value != 2 {
		t.Fatalf("unexpected quantity %+v", first.Quantity)
	}
	if first.Customization != "Size: 12x8 inches \nColor: Blue" {
		t.Fatalf("unexpected customization %q", first.Customization)
	}
	if !first.Size.OK() || first.Size.Value.Smaller() != 8 {
		t.Fatalf("unexpected size %+v", first.Size)
	}

	second := order.Items[1]
	if second.SKU.Value != "FRS-22" {
		t.Fatalf("expected sku from title, got %+v", second.SKU)
	}
	if second.Quantity.State != domain.FieldMalformed {
		t.Fatalf("expected malformed quantity, got %+v", second.Quantity)
	}
	if second.Size.Value.Smaller() != 24 {
		t.Fatalf("unexpected size %+v", second.Size)
	}

	resolved := domain.Order{Parsed: order}
	if got := resolved.SmallerDimension(); !got.OK() || got.Value != 8 {
		t.Fatalf("expected smaller dimension 8, got %+v", got)
	}
}

func TestEtsyParserEmptyDocument(t *testing.T) {
	t.Parallel()

	raw := `<html><body><p>etsy.com</p></body></html>`
	order := NewEtsyParser(nil).Parse(parseDoc(t, raw), raw)
	if order.OrderID.OK() || order.Address.OK() || order.ItemsTotal.OK() {
		t.Fatalf("expected degraded fields, got %+v", order)
	}
	if len(order.Items) != 0 {
		t.Fatalf("expected no items, got %d", len(order.Items))
	}
}

func TestEtsySKUFromTitleTakesLastWord(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Forest Decal FRS-22":          "FRS-22",
		"Forest Decal FRS-22 (Small)":  "(Small)",
		"Name Sign Custom Lettering A": "A",
	}
	for title, want := range cases {
		if got := etsySKUFromTitle(domain.Ok(title)); got.Value != want {
			t.Fatalf("sku from %q = %+v, want %s", title, got, want)
		}
	}
	if got := etsySKUFromTitle(domain.Missing[string]("absent")); got.OK() {
		t.Fatalf("expected no sku without a title, got %+v", got)
	}
}
