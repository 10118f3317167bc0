package parser

import (
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"OrdersParser/internal/channel"
	"OrdersParser/internal/domain"
)

var (
	overstockListingExpr = regexp.MustCompile(`https://www\.(?:overstock|bedbathandbeyond)\.com/[^?\s"'<>]+`)
	overstockDateExpr    = regexp.MustCompile(`\b(\d{1,2}/\d{1,2}/\d{4})\b`)
)

// OverstockParser reads CommerceHub supplier portal orders for Overstock and
// Bed Bath & Beyond.
type OverstockParser struct {
	log fieldLogger
}

var _ channel.Parser = (*OverstockParser)(nil)

// NewOverstockParser builds the Overstock variant.
func NewOverstockParser(logger *slog.Logger) *OverstockParser {
	return &OverstockParser{log: fieldLogger{logger: logger}}
}

// Channel identifies the variant.
func (p *OverstockParser) Channel() domain.Channel { return domain.ChannelOverstock }

// Markers identify supplier portal pages.
func (p *OverstockParser) Markers() []string {
	return []string{"https://edge.supplieroasis.com/dashboard/"}
}

// Parse extracts the order and its line items.
func (p *OverstockParser) Parse(doc *goquery.Document, raw string) domain.ParsedOrder {
	root := doc.Selection
	shipments := root.Find("div.existingShipments").First()

	carrier := report(p.log, "postal_service", overstockCarrier(root))
	tracking := report(p.log, "track_id", textField(root.Find("span.existing_tracking_number"), "tracking number"))
	pageLink := attrField(shipments.Find("a[href]"), "href", "shipment link")

	order := domain.ParsedOrder{
		Channel:       domain.ChannelOverstock,
		Mode:          domain.MatchSequential,
		OrderID:       report(p.log, "order_id", overstockOrderID(root)),
		Store:         report(p.log, "store", textField(root.Find("div#soChannel p"), "store title")),
		Address:       report(p.log, "address", overstockAddress(root)),
		TrackID:       tracking,
		PostalService: carrier,
		ShippingSpeed: report(p.log, "shipping_speed", textField(root.Find("div#soShipMethod p"), "shipping speed")),
		TrackLink:     report(p.log, "track_link", trackingLinkField(carrier, tracking, pageLink)),
		ShipBy:        overstockShipBy(shipments),
		ItemsTotal:    report(p.log, "items_total", overstockItemsTotal(root)),
		ShippingTotal: domain.Ok(0.0),
		ShippingPrice: domain.Ok(0.0),
	}

	links := listingLinks(raw, overstockListingExpr)
	root.Find("table.table.table-hover.data-table").First().Find("td#lineProductCell").Each(func(i int, cell *goquery.Selection) {
		sku := report(p.log, "sku", textField(cell.Find("div"), "sku"))
		size := sizeFromText(strings.Join(strippedStrings(cell), " "))

		order.Items = append(order.Items, domain.ParsedItem{
			Title:         report(p.log, "title", textField(cell.Find("p.listing-title"), "listing title")),
			SKU:           sku,
			ListingLink:   listingAt(links, i),
			Quantity:      report(p.log, "quantity", quantityOf(cell.PrevAllFiltered("td#lineQuantityCell").First(), "quantity")),
			Customization: productCustomization("", size, overstockColor(cell), ""),
			Size:          size,
		})
	})

	return order
}

// overstockOrderID picks the soId block labelled with the retailer order number.
func overstockOrderID(root *goquery.Selection) domain.Field[string] {
	result := domain.Missing[string]("retailer order number not found")
	root.Find("div#soId").EachWithBreak(func(_ int, block *goquery.Selection) bool {
		if cleanText(block.Find("h6").First().Text()) != "Retailer Order #" {
			return true
		}
		result = textField(block.Find("p"), "order id")
		return false
	})
	return result
}

func overstockAddress(root *goquery.Selection) domain.Field[string] {
	block := root.Find("div#soShippingAddress p").First()
	if block.Length() == 0 {
		return domain.Missing[string]("address block not found")
	}
	lines := childTexts(block)
	if len(lines) == 0 {
		return domain.Missing[string]("address block has no text")
	}
	return domain.Ok(strings.Join(lines, "\n"))
}

// overstockItemsTotal sums the first-cost cell of every line.
func overstockItemsTotal(root *goquery.Selection) domain.Field[float64] {
	cells := root.Find("td#lineFirstCostCell")
	if cells.Length() == 0 {
		return domain.Missing[float64]("no cost cells")
	}
	total := domain.Ok(0.0)
	cells.EachWithBreak(func(_ int, td *goquery.Selection) bool {
		amount := parseMoney(td.Text())
		if !amount.OK() {
			total = amount
			return false
		}
		total.Value += amount.Value
		return true
	})
	return total
}

func overstockCarrier(root *goquery.Selection) domain.Field[string] {
	carrier := textField(root.Find("span.carrierCode.existing_carrier"), "postal service")
	if !carrier.OK() {
		return carrier
	}
	return domain.Ok(normalizeCarrier(carrier.Value))
}

func overstockShipBy(shipments *goquery.Selection) domain.Field[time.Time] {
	if shipments.Length() == 0 {
		return domain.Missing[time.Time]("shipment block not found")
	}
	m := overstockDateExpr.FindStringSubmatch(strings.Join(strippedStrings(shipments), " "))
	if m == nil {
		return domain.Missing[time.Time]("no date in shipment block")
	}
	return parseDate(m[1], "1/2/2006")
}

// overstockColor reads the colour after " - " in the cell's leading text.
func overstockColor(cell *goquery.Selection) string {
	_, color, ok := strings.Cut(ownText(cell), " - ")
	if !ok {
		return ""
	}
	if i := strings.Index(color, " - "); i >= 0 {
		color = color[:i]
	}
	return titleCase(color)
}
