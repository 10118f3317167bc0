package parser

import (
	"strings"
	"testing"
	"time"

	"OrdersParser/internal/domain"
)

const overstockOrderHTML = `<html><body>
<a href="https://edge.supplieroasis.com/dashboard/">Dashboard</a>
<div id="soId"><h6>PO #</h6><p>PO-1</p></div>
<div id="soId"><h6>Retailer Order #</h6><p>OS-998877</p></div>
<div id="soChannel"><h6>Channel</h6><p>Overstock</p></div>
<div id="soShippingAddress"><p>Tom Hill<br>8 River Rd<br>Denver, CO 80014</p></div>
<div id="soShipMethod"><p>Ground</p></div>
<a href="https://www.overstock.com/Home-Garden/City-Skyline/123/product.html?option=2">Listing</a>
<table class="table table-hover data-table"><tbody>
<tr>
  <td id="lineQuantityCell">2</td>
  <td id="lineProductCell">Wall Decal - Matte Black<p class="listing-title">City Skyline Decal 22x46</p><div>SKY-2246</div></td>
  <td id="lineFirstCostCell">$40.00</td>
</tr>
<tr>
  <td id="lineQuantityCell">1</td>
  <td id="lineProductCell">Sticker<p class="listing-title">Moon Sticker</p><div>MOON-1</div></td>
  <td id="lineFirstCostCell">$9.50</td>
</tr>
</tbody></table>
<div class="existingShipments">Ship by 4/9/2024 <span class="carrierCode existing_carrier">UPS</span> <span class="existing_tracking_number">1Z555</span> <a href="https://edge.supplieroasis.com/shipments/1">View</a></div>
</body></html>`

func TestOverstockParser(t *testing.T) {
	t.Parallel()

	order := NewOverstockParser(nil).Parse(parseDoc(t, overstockOrderHTML), overstockOrderHTML)

	if order.OrderID.Value != "OS-998877" {
		t.Fatalf("expected retailer order number, got %+v", order.OrderID)
	}
	if order.Store.Value != "Overstock" || order.ShippingSpeed.Value != "Ground" {
		t.Fatalf("unexpected store/speed %+v %+v", order.Store, order.ShippingSpeed)
	}
	if order.Address.Value != "Tom Hill\n8 River Rd\nDenver, CO 80014" {
		t.Fatalf("unexpected address %q", order.Address.Value)
	}
	if order.ItemsTotal.Value != 49.5 {
		t.Fatalf("unexpected items total %+v", order.ItemsTotal)
	}
	if want := time.Date(2024, time.April, 9, 0, 0, 0, 0, time.UTC); !order.ShipBy.Value.Equal(want) {
		t.Fatalf("unexpected ship-by %+v", order.ShipBy)
	}
	if !strings.Contains(order.TrackLink.Value, "InquiryNumber1=1Z555") {
		t.Fatalf("unexpected tracking link %q", order.TrackLink.Value)
	}

	if len(order.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(order.Items))
	}
	first := order.Items[0]
	if first.Title.Value != "City Skyline Decal 22x46" || first.SKU.Value != "SKY-2246" || first.Quantity.Value != 2 {
		t.Fatalf("unexpected first item %+v", first)
	}
	if first.Customization != "Size: 22x46 inches\nColor: Matte Black" {
		t.Fatalf("unexpected customization %q", first.Customization)
	}
	if first.ListingLink.Value != "https://www.overstock.com/Home-Garden/City-Skyline/123/product.html" {
		t.Fatalf("unexpected listing %q", first.ListingLink.Value)
	}

	second := order.Items[1]
	if second.Customization != "" || second.Size.OK() {
		t.Fatalf("expected no derived attributes, got %+v", second)
	}
	if second.ListingLink.State != domain.FieldMissing {
		t.Fatalf("expected missing listing link for second item, got %+v", second.ListingLink)
	}
}

func TestOverstockTrackingFallsBackToShipmentLink(t *testing.T) {
	t.Parallel()

	raw := strings.Replace(overstockOrderHTML, ">UPS<", ">OnTrac<", 1)
	order := NewOverstockParser(nil).Parse(parseDoc(t, raw), raw)
	if order.TrackLink.Value != "https://edge.supplieroasis.com/shipments/1" {
		t.Fatalf("expected shipment link, got %+v", order.TrackLink)
	}
}
