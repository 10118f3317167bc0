package parser

import (
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"OrdersParser/internal/channel"
	"OrdersParser/internal/domain"
)

// EbayParser reads Seller Hub order pages. The pages do not name the store
// or the carrier, so the store comes from configuration and the carrier is
// inferred from the tracking number.
type EbayParser struct {
	store  string
	log    fieldLogger
	logger *slog.Logger
}

var _ channel.Parser = (*EbayParser)(nil)

// NewEbayParser builds the eBay variant for the given store name.
func NewEbayParser(store string, logger *slog.Logger) *EbayParser {
	return &EbayParser{store: strings.TrimSpace(store), log: fieldLogger{logger: logger}, logger: logger}
}

// Channel identifies the variant.
func (p *EbayParser) Channel() domain.Channel { return domain.ChannelEbay }

// Markers identify eBay pages.
func (p *EbayParser) Markers() []string { return []string{"https://www.ebay.com"} }

// Parse extracts the order and its line items.
func (p *EbayParser) Parse(doc *goquery.Document, _ string) domain.ParsedOrder {
	root := doc.Selection
	earnings := root.Find("div.earnings").First()

	tracking := report(p.log, "track_id", ebayTracking(root))
	carrier := report(p.log, "postal_service", carrierFromTracking(tracking))
	speed := report(p.log, "shipping_speed", ebayShippingSpeed(root))

	store := domain.Missing[string]("ebay store name is not configured")
	if p.store != "" {
		store = domain.Ok(p.store)
	}

	order := domain.ParsedOrder{
		Channel:        domain.ChannelEbay,
		Mode:           domain.MatchSequential,
		OrderID:        report(p.log, "order_id", textField(root.Find("div.order-info dd.info-value"), "order id")),
		Store:          store,
		Address:        report(p.log, "address", ebayAddress(root)),
		TrackID:        tracking,
		PostalService:  carrier,
		ShippingSpeed:  speed,
		TrackLink:      report(p.log, "track_link", trackingLinkField(carrier, tracking, domain.Field[string]{})),
		ShipBy:         domain.Missing[time.Time]("ebay pages carry no ship-by date"),
		ShipByUnlisted: true,
		ItemsTotal:     report(p.log, "items_total", moneyOf(earnings.Find("dd.amount span.sh-bold"), "items total")),
		ShippingTotal:  report(p.log, "shipping_total", ebayLabelCost(earnings)),
		ShippingPrice:  report(p.log, "shipping_price", ebayShippingPrice(root)),
		ReportedTotal:  moneyOf(earnings.Find("div.total div.value span.sh-bold"), "order earnings"),
	}
	order.AdditionalInfo = nonDefaultSpeed(speed, "Standard")

	note := textField(root.Find("div.note.buyer div.note-content"), "buyer note")

	root.Find("div.item-info").First().Find("div.lineItemCardInfo__summary").Each(func(_ int, card *goquery.Selection) {
		title := report(p.log, "title", textField(card.Find("span.PSEUDOLINK"), "listing title"))
		size := ""
		if aspects := card.Find("div.lineItemCardInfo__aspects.spaceTop span.sh-bold"); aspects.Length() > 1 {
			size = cleanText(aspects.Eq(1).Text())
		}
		customization := ""
		if size != "" {
			customization = "Size: " + size
		}
		customization = joinNonEmpty("\n", customization, note.Or(""))

		order.Items = append(order.Items, domain.ParsedItem{
			Title:         title,
			SKU:           report(p.log, "sku", ebaySKU(card, title)),
			ListingLink:   report(p.log, "listing_link", attrField(card.Find("div.details a[href]"), "href", "listing link")),
			Quantity:      report(p.log, "quantity", quantityOf(card.Find("div.quantity__value span.sh-bold"), "quantity")),
			Customization: customization,
			Size:          sizeFromText(size),
		})
	})

	p.checkReportedTotal(order)
	return order
}

// checkReportedTotal warns when the page's own total disagrees with the computed one.
func (p *EbayParser) checkReportedTotal(order domain.ParsedOrder) {
	if p.logger == nil || !order.ReportedTotal.OK() {
		return
	}
	computed := order.ItemsTotal.Or(0) + order.ShippingPrice.Or(0) - order.ShippingTotal.Or(0)
	if math.Abs(computed-order.ReportedTotal.Value) > 0.005 {
		p.logger.Warn("ebay earnings differ from computed total",
			"order_id", order.OrderID.Or(domain.SentinelError),
			"reported", order.ReportedTotal.Value,
			"computed", computed)
	}
}

func ebayTracking(root *goquery.Selection) domain.Field[string] {
	info := root.Find("div.shipping-info div.tracking-info").First()
	if info.Length() == 0 {
		return domain.Missing[string]("tracking block not found")
	}
	return textField(firstOf(info, "button.fake-link", "div.value"), "tracking number")
}

// ebayShippingSpeed folds eBay service names into the sheet's speed tiers.
func ebayShippingSpeed(root *goquery.Selection) domain.Field[string] {
	service := textField(root.Find("div.shipping-info div.ship-itm dd.info-value"), "shipping service")
	if !service.OK() {
		return service
	}
	s := service.Value
	switch {
	case strings.Contains(s, "Priority"):
		return domain.Ok("Expedited")
	case strings.Contains(s, "2nd Day"), strings.Contains(s, "Second Day"):
		return domain.Ok("Second Day")
	case strings.Contains(s, "Next Day"), strings.Contains(s, "Express"):
		return domain.Ok("Next Day")
	default:
		return domain.Ok("Standard")
	}
}

// ebayLabelCost reads the seller's label purchase from the last earnings line.
func ebayLabelCost(earnings *goquery.Selection) domain.Field[float64] {
	lines := earnings.Find("div.level-2")
	if lines.Length() == 0 {
		return domain.Missing[float64]("earnings breakdown not found")
	}
	last := lines.Last()
	if !strings.Contains(last.Text(), "Shipping label") {
		return domain.Ok(0.0)
	}
	return moneyOf(last.Find("span.sh-secondary"), "label cost")
}

func ebayShippingPrice(root *goquery.Selection) domain.Field[float64] {
	lines := root.Find("div.buyer-paid").First().Find("div.level-2")
	if lines.Length() < 2 {
		return domain.Missing[float64]("buyer paid breakdown not found")
	}
	line := lines.Eq(1)
	if !strings.Contains(line.Text(), "Shipping") {
		return domain.Ok(0.0)
	}
	return moneyOf(line.Find("div.value"), "shipping price")
}

func ebayAddress(root *goquery.Selection) domain.Field[string] {
	buttons := root.Find("div.shipping-address button.tooltip__host.clickable")
	if buttons.Length() == 0 {
		return domain.Missing[string]("address block not found")
	}
	var parts []string
	buttons.Each(func(_ int, b *goquery.Selection) {
		if text := strings.Join(strippedStrings(b), ""); text != "" {
			parts = append(parts, text)
		}
	})
	phone := cleanText(root.Find("div.phone.ship-itm button.tooltip__host.clickable").First().Text())
	return formatAddress(parts, phone)
}

// ebaySKU prefers the MPN item specific and falls back to the title.
func ebaySKU(card *goquery.Selection, title domain.Field[string]) domain.Field[string] {
	result := skuFromTitle(title)
	card.Find("div.data-items div.info-item").EachWithBreak(func(_ int, item *goquery.Selection) bool {
		text := item.Text()
		if !strings.Contains(text, "MPN") && !strings.Contains(text, "Manufacturer Part Number") {
			return true
		}
		if mpn := textField(item.Find("dd.info-value"), "mpn"); mpn.OK() {
			result = mpn
		}
		return false
	})
	return result
}
