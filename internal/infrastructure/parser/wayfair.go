package parser

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"OrdersParser/internal/channel"
	"OrdersParser/internal/domain"
)

var (
	wayfairListingExpr = regexp.MustCompile(`https://www\.wayfair\.com/[^?\s"'<>]+`)
	sizeInSKUExpr      = regexp.MustCompile(`\d+\s*x\s*\d+`)
	nonLetterExpr      = regexp.MustCompile(`[^a-z\s]`)
)

const (
	wayfairDetailText   = `strong[data-tag-default="order-details_orderDetails_Text"]`
	wayfairDetailStrong = `strong[data-tag-default="order-details_orderDetails_strong"]`
	wayfairItemText     = `p[data-tag-default="order-details_useOrderItemsTableColumns_Text"][data-hb-id="Text"]`
	wayfairQuantityCell = "td.b62nt5ix.b62nt5l.b62nt51bx.b62nt5196.b62nt512h.b62nt51d7._9pl4ko0"
	wayfairNotOnTime    = "Order Not Processed On Time"
)

// WayfairParser reads Wayfair Partner Home purchase orders. Order details are
// a flat run of labelled strong tags, read by position.
type WayfairParser struct {
	log fieldLogger
}

var _ channel.Parser = (*WayfairParser)(nil)

// NewWayfairParser builds the Wayfair variant.
func NewWayfairParser(logger *slog.Logger) *WayfairParser {
	return &WayfairParser{log: fieldLogger{logger: logger}}
}

// Channel identifies the variant.
func (p *WayfairParser) Channel() domain.Channel { return domain.ChannelWayfair }

// Markers identify Wayfair pages.
func (p *WayfairParser) Markers() []string {
	return []string{"https://partners.wayfair.com/v/landing/index"}
}

// Parse extracts the order and its line items.
func (p *WayfairParser) Parse(doc *goquery.Document, raw string) domain.ParsedOrder {
	root := doc.Selection
	details := root.Find(wayfairDetailText)

	carrier := report(p.log, "postal_service", wayfairPostalService(details))
	tracking := report(p.log, "track_id", wayfairTracking(root))

	order := domain.ParsedOrder{
		Channel:       domain.ChannelWayfair,
		Mode:          domain.MatchSequential,
		OrderID:       report(p.log, "order_id", textField(root.Find(`h1[data-hb-id="Heading"]`), "order id")),
		Store:         report(p.log, "store", textField(root.Find(wayfairDetailStrong).Last(), "store title")),
		Address:       report(p.log, "address", wayfairAddress(root)),
		TrackID:       tracking,
		PostalService: carrier,
		ShippingSpeed: report(p.log, "shipping_speed", wayfairShippingSpeed(details)),
		TrackLink:     report(p.log, "track_link", wayfairTrackingLinks(carrier, tracking)),
		ShipBy:        parseDate(details.Eq(1).Text(), "01/02/2006"),
		ItemsTotal:    report(p.log, "items_total", moneyOf(details.Eq(4), "items total")),
		ShippingTotal: domain.Ok(0.0),
		ShippingPrice: domain.Ok(0.0),
	}

	personalization := wayfairColumnIndex(root, "Customization Text")
	links := listingLinks(raw, wayfairListingExpr)

	root.Find(`tbody[data-hb-id="TableBody"]`).First().Find(`tr[data-hb-id="TableRow"]`).Each(func(i int, row *goquery.Selection) {
		title := report(p.log, "title", joinedText(row.Find(wayfairItemText).FilterFunction(func(_ int, s *goquery.Selection) bool {
			return s.ParentsFiltered("div.b62nt5ct").Length() > 0
		}), "listing title"))

		sku := report(p.log, "sku", joinedText(row.Find("p.b62nt5bl.b62nt518y").FilterFunction(func(_ int, s *goquery.Selection) bool {
			return s.ParentsFiltered("div.b62nt513e.b62nt5hp.b62nt59r.b62nt51bd").Length() > 0
		}), "sku"))

		size := sizeFromText(sku.Value)
		var personal string
		if personalization >= 0 {
			personal = cleanText(row.Find("td").Eq(personalization).Text())
		}

		order.Items = append(order.Items, domain.ParsedItem{
			Title:         title,
			SKU:           sku,
			ListingLink:   listingAt(links, i),
			Quantity:      report(p.log, "quantity", wayfairQuantity(row)),
			Customization: productCustomization(materialFromSKU(sku.Value), size, colorFromSKU(sku.Value), personal),
			Size:          size,
		})
	})

	return order
}

func wayfairPostalService(details *goquery.Selection) domain.Field[string] {
	carrier := textField(details.Eq(6), "postal service")
	if carrier.OK() && carrier.Value == wayfairNotOnTime {
		carrier = textField(details.Eq(8), "postal service")
	}
	if !carrier.OK() {
		return carrier
	}
	return domain.Ok(normalizeCarrier(carrier.Value))
}

func wayfairShippingSpeed(details *goquery.Selection) domain.Field[string] {
	speed := textField(details.Eq(8), "shipping speed")
	if speed.OK() && strings.HasPrefix(speed.Value, carrierFedEx) {
		if rest := strings.TrimSpace(strings.TrimPrefix(speed.Value, carrierFedEx)); rest != "" {
			return domain.Ok(rest)
		}
	}
	return speed
}

func wayfairAddress(root *goquery.Selection) domain.Field[string] {
	block := root.Find(`div[data-tag-default="order-details_orderDetails_Text_46"]`).First()
	if block.Length() == 0 {
		return domain.Missing[string]("address block not found")
	}
	lines := strippedStrings(block)
	if len(lines) == 0 {
		return domain.Missing[string]("address block has no text")
	}
	return domain.Ok(strings.Join(lines, "\n"))
}

// wayfairTracking reads the last detail paragraph; several numbers are
// listed comma separated and come back one per line.
func wayfairTracking(root *goquery.Selection) domain.Field[string] {
	text := textField(root.Find(`p[data-tag-default="order-details_orderDetails_Text"]`).Last(), "tracking number")
	if !text.OK() {
		return text
	}
	if text.Value == "Tracking Number(s)" {
		return domain.Missing[string]("tracking number not yet assigned")
	}
	return domain.Ok(strings.ReplaceAll(text.Value, ", ", "\n"))
}

// wayfairTrackingLinks builds one link per distinct tracking number, in page order.
func wayfairTrackingLinks(carrier, tracking domain.Field[string]) domain.Field[string] {
	if !tracking.OK() {
		return domain.Missing[string]("no tracking number")
	}
	if !carrier.OK() {
		return domain.Missing[string]("no carrier for tracking link")
	}
	seen := make(map[string]struct{})
	var links []string
	for _, number := range strings.Split(tracking.Value, "\n") {
		link, ok := trackingLink(carrier.Value, strings.TrimSpace(number))
		if !ok {
			return domain.Missing[string]("no tracking template for carrier " + carrier.Value)
		}
		if _, dup := seen[link]; dup {
			continue
		}
		seen[link] = struct{}{}
		links = append(links, link)
	}
	return domain.Ok(strings.Join(links, "\n\n"))
}

// wayfairColumnIndex finds a header cell by text, or -1.
func wayfairColumnIndex(root *goquery.Selection, header string) int {
	idx := -1
	root.Find("thead").First().Find("th").EachWithBreak(func(i int, th *goquery.Selection) bool {
		if cleanText(th.Text()) == header {
			idx = i
			return false
		}
		return true
	})
	return idx
}

func wayfairQuantity(row *goquery.Selection) domain.Field[int] {
	cells := row.Find(wayfairItemText).FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.ParentsFiltered(wayfairQuantityCell).Length() > 0
	})
	if cells.Length() < 3 {
		return domain.Missing[int]("quantity cell not found")
	}
	return parseQuantity(cells.Eq(2).Text())
}

// joinedText concatenates the text of every node in sel.
func joinedText(sel *goquery.Selection, what string) domain.Field[string] {
	if sel.Length() == 0 {
		return domain.Missing[string](what + " not found")
	}
	var b strings.Builder
	sel.Each(func(_ int, s *goquery.Selection) {
		b.WriteString(cleanText(s.Text()))
	})
	if b.Len() == 0 {
		return domain.Missing[string](what + " is empty")
	}
	return domain.Ok(b.String())
}

// colorFromSKU reads up to two words after the size in a part number,
// e.g. "MURAL-12x8 matte black" gives "Matte Black".
func colorFromSKU(sku string) string {
	lower := strings.ToLower(sku)
	loc := sizeInSKUExpr.FindStringIndex(lower)
	if loc == nil {
		return ""
	}
	rest := wallpaperExpr.ReplaceAllString(lower[loc[1]:], "")
	words := strings.Fields(nonLetterExpr.ReplaceAllString(rest, ""))
	if len(words) > 2 {
		words = words[:2]
	}
	return titleCase(strings.Join(words, " "))
}

// productCustomization folds derived product attributes into the
// customization cell, one "Label: value" per line.
func productCustomization(material string, size domain.Field[domain.SizeSpec], color, personalization string) string {
	var lines []string
	if material != "" {
		lines = append(lines, "Material: "+material)
	}
	if size.OK() {
		lines = append(lines, "Size: "+size.Value.String()+" inches")
	}
	if color != "" {
		lines = append(lines, "Color: "+titleCase(color))
	}
	if personalization != "" {
		lines = append(lines, "Personalization: "+personalization)
	}
	return strings.Join(lines, "\n")
}
