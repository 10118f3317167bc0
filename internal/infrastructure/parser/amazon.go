package parser

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"OrdersParser/internal/channel"
	"OrdersParser/internal/domain"
)

var amazonSKUExpr = regexp.MustCompile(`SKU:\s*(\S+)`)

// AmazonParser reads Seller Central order pages.
type AmazonParser struct {
	log fieldLogger
}

var _ channel.Parser = (*AmazonParser)(nil)

// NewAmazonParser builds the Amazon variant.
func NewAmazonParser(logger *slog.Logger) *AmazonParser {
	return &AmazonParser{log: fieldLogger{logger: logger}}
}

// Channel identifies the variant.
func (p *AmazonParser) Channel() domain.Channel { return domain.ChannelAmazon }

// Markers identify Amazon pages; saved pages do not always keep the domain.
func (p *AmazonParser) Markers() []string { return []string{"amazon.com", "Order ID"} }

// Parse extracts the order and its line items.
func (p *AmazonParser) Parse(doc *goquery.Document, _ string) domain.ParsedOrder {
	root := doc.Selection
	proceeds := root.Find("div.a-row.a-spacing-none.order-details-bordered-box-sale-proceeds").First()
	shipment := root.Find("div.a-box-group.a-spacing-top-micro").First()
	columns := shipment.Find("div.a-column.a-span3")

	speed := report(p.log, "shipping_speed", amazonShippingSpeed(root))
	carrier := report(p.log, "postal_service", textField(columns.Eq(1), "postal service"))
	tracking := report(p.log, "track_id", textField(firstOf(root,
		`a.a-popover-trigger.a-declarative[data-test-id="tracking-id-value"]`,
		`span[data-test-id="tracking-id-value"]`,
	), "tracking number"))

	order := domain.ParsedOrder{
		Channel:       domain.ChannelAmazon,
		Mode:          domain.MatchSequential,
		OrderID:       report(p.log, "order_id", textField(root.Find(`div.a-row.a-spacing-mini span.a-text-bold[data-test-id="order-id-value"]`), "order id")),
		Store:         report(p.log, "store", amazonStore(root)),
		Address:       report(p.log, "address", amazonAddress(root)),
		TrackID:       tracking,
		PostalService: carrier,
		ShippingSpeed: speed,
		TrackLink:     report(p.log, "track_link", trackingLinkField(carrier, tracking, domain.Field[string]{})),
		ShipBy:        parseDate(textField(columns.Eq(0), "ship-by date").Value, "Mon, Jan 2, 2006"),
		ItemsTotal:    report(p.log, "items_total", moneyOf(proceeds.Find(`td.a-text-right.a-align-bottom span[class*="a-color-"]`), "items total")),
		ShippingTotal: report(p.log, "shipping_total", moneyOf(shipment.Find(`span[class*="a-color-"]`), "label cost")),
		ShippingPrice: report(p.log, "shipping_price", amazonShippingPrice(proceeds)),
	}
	order.AdditionalInfo = nonDefaultSpeed(speed, "Standard", "Free")

	rows := root.Find("table.a-keyvalue").First().Find("tbody tr")
	rows.Each(func(_ int, row *goquery.Selection) {
		if row.Find("td").Length() == 0 {
			return
		}
		title := amazonTitle(row)
		var sku domain.Field[string]
		if m := amazonSKUExpr.FindStringSubmatch(cleanText(row.Text())); m != nil {
			sku = domain.Ok(m[1])
		} else {
			sku = skuFromTitle(title)
		}

		order.Items = append(order.Items, domain.ParsedItem{
			Title:         report(p.log, "title", title),
			SKU:           report(p.log, "sku", sku),
			ListingLink:   report(p.log, "listing_link", attrField(row.Find("a[href]"), "href", "listing link")),
			Quantity:      report(p.log, "quantity", amazonQuantity(row)),
			Customization: amazonCustomization(row),
			Size:          sizeFromText(title.Value),
		})
	})

	return order
}

func amazonStore(root *goquery.Selection) domain.Field[string] {
	return textField(firstOf(root,
		"div.dropdown-account-switcher-header-label span.dropdown-account-switcher-header-label-global",
		"button.partner-dropdown-button span b",
	), "store title")
}

func amazonTitle(row *goquery.Selection) domain.Field[string] {
	title := textField(row.Find("div.more-info-column-word-wrap-break-word"), "listing title")
	if !title.OK() {
		return title
	}
	if trimmed := strings.Trim(title.Value, `"`); trimmed != "" {
		return domain.Ok(trimmed)
	}
	return domain.Missing[string]("listing title is empty")
}

// amazonQuantity reads the first cell whose only content is text.
func amazonQuantity(row *goquery.Selection) domain.Field[int] {
	result := domain.Missing[int]("quantity cell not found")
	row.Find("td").EachWithBreak(func(_ int, td *goquery.Selection) bool {
		if td.Children().Length() > 0 || cleanText(td.Text()) == "" {
			return true
		}
		result = parseQuantity(td.Text())
		return false
	})
	return result
}

// amazonCustomization skips the three header divs of the expander block.
func amazonCustomization(row *goquery.Selection) string {
	block := row.Find("div.a-row.a-expander-container.a-expander-extend-container").First()
	if block.Length() == 0 {
		return ""
	}
	var b strings.Builder
	block.Find("div").Each(func(i int, div *goquery.Selection) {
		if i < 3 {
			return
		}
		b.WriteString(div.Text())
		b.WriteString("\n")
	})
	return cleanText(b.String())
}

func amazonShippingPrice(proceeds *goquery.Selection) domain.Field[float64] {
	if proceeds.Length() == 0 {
		return domain.Missing[float64]("sale proceeds box not found")
	}
	if !strings.Contains(proceeds.Text(), "Shipping total") {
		return domain.Ok(0.0)
	}
	return moneyOf(proceeds.Find("td").Eq(3).Find(`span[class*="a-color-"]`), "shipping price")
}

// amazonShippingSpeed reads the unclassed span of the service value.
func amazonShippingSpeed(root *goquery.Selection) domain.Field[string] {
	spans := root.Find(`span[data-test-id="order-summary-shipping-service-value"] span`).FilterFunction(func(_ int, s *goquery.Selection) bool {
		class, _ := s.Attr("class")
		return strings.TrimSpace(class) == ""
	})
	return textField(spans, "shipping speed")
}

// amazonAddress collects every direct child of the address block, text nodes included.
func amazonAddress(root *goquery.Selection) domain.Field[string] {
	block := root.Find(`div[data-test-id="shipping-section-buyer-address"]`).First()
	if block.Length() == 0 {
		return domain.Missing[string]("address block not found")
	}
	var parts []string
	for c := block.Nodes[0].FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.CommentNode {
			continue
		}
		if text := nodeText(c); text != "" {
			parts = append(parts, text)
		}
	}
	phone := cleanText(root.Find(`span[data-test-id="shipping-section-phone"]`).First().Text())
	return formatAddress(parts, phone)
}
