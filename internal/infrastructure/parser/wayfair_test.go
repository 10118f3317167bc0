package parser

import (
	"strings"
	"testing"
	"time"
)

const wayfairOrderHTML = `<html><body>
<a href="https://partners.wayfair.com/v/landing/index">Partner Home</a>
<h1 data-hb-id="Heading">CS123456789</h1>
<strong data-tag-default="order-details_orderDetails_strong">Supplier</strong>
<strong data-tag-default="order-details_orderDetails_strong">Stickalz LLC</strong>
<strong data-tag-default="order-details_orderDetails_Text">PO Date</strong>
<strong data-tag-default="order-details_orderDetails_Text">03/15/2024</strong>
<strong data-tag-default="order-details_orderDetails_Text">Retail</strong>
<strong data-tag-default="order-details_orderDetails_Text">Open</strong>
<strong data-tag-default="order-details_orderDetails_Text">$120.50</strong>
<strong data-tag-default="order-details_orderDetails_Text">Dropship</strong>
<strong data-tag-default="order-details_orderDetails_Text">FedEx</strong>
<strong data-tag-default="order-details_orderDetails_Text">Parcel</strong>
<strong data-tag-default="order-details_orderDetails_Text">FedEx Home Delivery</strong>
<div data-tag-default="order-details_orderDetails_Text_46"><p>Ann Lee</p><p>4 Park Ln</p><p>Boston, MA 02101</p></div>
<p data-tag-default="order-details_orderDetails_Text">Tracking Number(s)</p>
<p data-tag-default="order-details_orderDetails_Text">771200001111, 771200002222</p>
<a href="https://www.wayfair.com/decor/pdp/botanical-mural-w001.html?piid=1">Listing</a>
<table>
<thead><tr><th>Item</th><th>Part Number</th><th>Quantity</th><th>Customization Text</th></tr></thead>
<tbody data-hb-id="TableBody">
<tr data-hb-id="TableRow">
  <td><div class="b62nt5ct"><p data-tag-default="order-details_useOrderItemsTableColumns_Text" data-hb-id="Text">Botanical Mural</p></div></td>
  <td><div class="b62nt513e b62nt5hp b62nt59r b62nt51bd"><p class="b62nt5bl b62nt518y">BOT-12x8 matte green peel and stick</p></div></td>
  <td class="b62nt5ix b62nt5l b62nt51bx b62nt5196 b62nt512h b62nt51d7 _9pl4ko0">
    <p data-tag-default="order-details_useOrderItemsTableColumns_Text" data-hb-id="Text">$60.25</p>
    <p data-tag-default="order-details_useOrderItemsTableColumns_Text" data-hb-id="Text">Each</p>
    <p data-tag-default="order-details_useOrderItemsTableColumns_Text" data-hb-id="Text">2</p>
  </td>
  <td>Hello World</td>
</tr>
</tbody>
</table>
</body></html>`

func TestWayfairParser(t *testing.T) {
	t.Parallel()

	order := NewWayfairParser(nil).Parse(parseDoc(t, wayfairOrderHTML), wayfairOrderHTML)

	if order.OrderID.Value != "CS123456789" || order.Store.Value != "Stickalz LLC" {
		t.Fatalf("unexpected header: %+v %+v", order.OrderID, order.Store)
	}
	if order.Address.Value != "Ann Lee\n4 Park Ln\nBoston, MA 02101" {
		t.Fatalf("unexpected address %q", order.Address.Value)
	}
	if want := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC); !order.ShipBy.Value.Equal(want) {
		t.Fatalf("unexpected ship-by %+v", order.ShipBy)
	}
	if order.ItemsTotal.Value != 120.5 || order.ShippingTotal.Value != 0 || order.ShippingPrice.Value != 0 {
		t.Fatalf("unexpected money %+v %+v %+v", order.ItemsTotal, order.ShippingTotal, order.ShippingPrice)
	}
	if order.PostalService.Value != "FedEx" || order.ShippingSpeed.Value != "Home Delivery" {
		t.Fatalf("unexpected shipping: %+v %+v", order.PostalService, order.ShippingSpeed)
	}
	if order.TrackID.Value != "771200001111\n771200002222" {
		t.Fatalf("unexpected tracking %q", order.TrackID.Value)
	}
	if links := strings.Split(order.TrackLink.Value, "\n\n"); len(links) != 2 {
		t.Fatalf("expected one link per tracking number, got %q", order.TrackLink.Value)
	}

	if len(order.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(order.Items))
	}
	item := order.Items[0]
	if item.Title.Value != "Botanical Mural" || item.SKU.Value != "BOT-12x8 matte green peel and stick" {
		t.Fatalf("unexpected item %+v", item)
	}
	if item.Quantity.Value != 2 {
		t.Fatalf("unexpected quantity %+v", item.Quantity)
	}
	if item.ListingLink.Value != "https://www.wayfair.com/decor/pdp/botanical-mural-w001.html" {
		t.Fatalf("unexpected listing %q", item.ListingLink.Value)
	}
	want := "Material: Peel and Stick\nSize: 12x8 inches\nColor: Matte Green\nPersonalization: Hello World"
	if item.Customization != want {
		t.Fatalf("unexpected customization:\n%q\nwant\n%q", item.Customization, want)
	}
}

func TestWayfairParserLateOrderShiftsCarrier(t *testing.T) {
	t.Parallel()

	raw := strings.Replace(wayfairOrderHTML,
		`<strong data-tag-default="order-details_orderDetails_Text">FedEx</strong>`,
		`<strong data-tag-default="order-details_orderDetails_Text">Order Not Processed On Time</strong>`, 1)
	raw = strings.Replace(raw, "FedEx Home Delivery", "UPS", 1)

	order := NewWayfairParser(nil).Parse(parseDoc(t, raw), raw)
	if order.PostalService.Value != "UPS" {
		t.Fatalf("expected carrier from the later slot, got %+v", order.PostalService)
	}
}

func TestWayfairParserTrackingPending(t *testing.T) {
	t.Parallel()

	raw := strings.Replace(wayfairOrderHTML,
		`<p data-tag-default="order-details_orderDetails_Text">771200001111, 771200002222</p>`, "", 1)

	order := NewWayfairParser(nil).Parse(parseDoc(t, raw), raw)
	if order.TrackID.OK() || order.TrackLink.OK() {
		t.Fatalf("expected pending tracking to be missing, got %+v %+v", order.TrackID, order.TrackLink)
	}
}
