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
	etsyListingExpr = regexp.MustCompile(`https://www\.etsy\.com/listing/[^?\s"'<>]+`)
	etsyNoticeDate  = regexp.MustCompile(`\b\w{3}\s\d{1,2},\s\d{4}\b`)
)

// EtsyParser reads Etsy order-detail pages. Items are matched to artwork by size.
type EtsyParser struct {
	log fieldLogger
}

var _ channel.Parser = (*EtsyParser)(nil)

// NewEtsyParser builds the Etsy variant.
func NewEtsyParser(logger *slog.Logger) *EtsyParser {
	return &EtsyParser{log: fieldLogger{logger: logger}}
}

// Channel identifies the variant.
func (p *EtsyParser) Channel() domain.Channel { return domain.ChannelEtsy }

// Markers identify Etsy pages.
func (p *EtsyParser) Markers() []string { return []string{"etsy.com"} }

// Parse extracts the order and its line items.
func (p *EtsyParser) Parse(doc *goquery.Document, raw string) domain.ParsedOrder {
	root := doc.Selection
	info := root.Find("span#order-details-order-info.display-inline-block")

	speed := report(p.log, "shipping_speed", etsyShippingSpeed(root))
	carrier := report(p.log, "postal_service", etsyPostalService(root))
	tracking := report(p.log, "track_id", textField(root.Find("div.col-xs-9.wt-wrap a"), "tracking number"))
	pageLink := attrField(root.Find("div.col-xs-9.wt-wrap a"), "href", "tracking anchor")

	order := domain.ParsedOrder{
		Channel:       domain.ChannelEtsy,
		Mode:          domain.MatchBySize,
		OrderID:       report(p.log, "order_id", textField(info.Find(`a.strong, a[classname="strong"]`), "order id")),
		Store:         report(p.log, "store", textField(info.Find(`a.text-gray-darker, a[classname="text-gray-darker"]`), "store title")),
		Address:       report(p.log, "address", etsyAddress(root)),
		TrackID:       tracking,
		PostalService: carrier,
		ShippingSpeed: speed,
		TrackLink:     report(p.log, "track_link", trackingLinkField(carrier, tracking, pageLink)),
		ShipBy:        etsyShipBy(root),
		ItemsTotal:    report(p.log, "items_total", etsyItemsTotal(root)),
		ShippingTotal: report(p.log, "shipping_total", etsyShippingTotal(root)),
		ShippingPrice: report(p.log, "shipping_price", etsyShippingPrice(root)),
	}
	order.AdditionalInfo = joinNonEmpty("\n",
		etsyGiftDetails(root),
		etsyVAT(root),
		etsyBuyerNote(root),
		nonDefaultSpeed(speed, "Standard", "Free"),
	)

	links := listingLinks(raw, etsyListingExpr)
	root.Find("tr.col-group.pl-xs-0.pt-xs-3.pr-xs-0.pb-xs-3.bb-xs-1").Each(func(i int, row *goquery.Selection) {
		body := row.Find("div.flag-body.prose")
		title := report(p.log, "title", textField(body.Find(`span[data-test-id="unsanitize"]`), "listing title"))

		sku := textField(row.Find(`span.mb-xs-1 p span[data-test-id="unsanitize"]`), "sku")
		if !sku.OK() {
			sku = etsySKUFromTitle(title)
		}

		bullets := body.Find("li")
		lines := make([]string, 0, bullets.Length())
		bullets.Each(func(_ int, li *goquery.Selection) {
			lines = append(lines, cleanText(li.Text()))
		})

		order.Items = append(order.Items, domain.ParsedItem{
			Title:         title,
			SKU:           report(p.log, "sku", sku),
			ListingLink:   listingAt(links, i),
			Quantity:      report(p.log, "quantity", quantityOf(row.Find("td.col-xs-2.pl-xs-0.text-center"), "quantity")),
			Customization: strings.Join(lines, " \n"),
			Size:          report(p.log, "size", etsySize(bullets)),
		})
	})

	return order
}

// etsySKUFromTitle falls back to the last word of the listing title.
func etsySKUFromTitle(title domain.Field[string]) domain.Field[string] {
	if !title.OK() {
		return domain.Missing[string]("no title to derive sku from")
	}
	words := strings.Fields(title.Value)
	if len(words) == 0 {
		return domain.Malformed[string]("title has no sku word")
	}
	return domain.Ok(words[len(words)-1])
}

// etsySize reads the first two numbers of the first customization bullet.
func etsySize(bullets *goquery.Selection) domain.Field[domain.SizeSpec] {
	if bullets.Length() == 0 {
		return domain.Missing[domain.SizeSpec]("no customization bullets")
	}
	text := cleanText(bullets.First().Text())
	tokens := domain.SizeTokens(text)
	if len(tokens) < 2 {
		return domain.Malformed[domain.SizeSpec]("no size in " + text)
	}
	spec, err := domain.NewSizeSpec(tokens[0], tokens[1])
	if err != nil {
		return domain.Malformed[domain.SizeSpec](err.Error())
	}
	return domain.Ok(spec)
}

func etsyAddress(root *goquery.Selection) domain.Field[string] {
	block := root.Find("div.address.break-word p").First()
	if block.Length() == 0 {
		return domain.Missing[string]("address block not found")
	}
	parts := map[string]string{}
	block.Find("span").Each(func(_ int, span *goquery.Selection) {
		class, _ := span.Attr("class")
		first, _, _ := strings.Cut(strings.TrimSpace(class), " ")
		if first != "" {
			if _, seen := parts[first]; !seen {
				parts[first] = cleanText(span.Text())
			}
		}
	})
	return domain.Ok(parts["name"] + "\n" + parts["first-line"] + "\n" +
		parts["city"] + ", " + parts["state"] + " " + parts["zip"] + "\n" +
		parts["country-name"])
}

func etsyShipBy(root *goquery.Selection) domain.Field[time.Time] {
	block := firstOf(root,
		"div.flag-img.flag-img-right.text-right.vertical-align-top.hide-xs.hide-sm",
		"div.wt-text-title",
	)
	notice := textField(block.Find("p.text-body-smaller.text-gray-lightest.mt-xs-1"), "ship-by notice")
	if !notice.OK() {
		return domain.Missing[time.Time](notice.Reason)
	}
	if !strings.Contains(notice.Value, "Buyer notification") {
		return domain.Missing[time.Time]("notice carries no ship-by date")
	}
	match := etsyNoticeDate.FindString(notice.Value)
	if match == "" {
		return domain.Malformed[time.Time]("no date in notice")
	}
	return parseDate(match, "Jan 2, 2006")
}

func etsyItemsTotal(root *goquery.Selection) domain.Field[float64] {
	row := root.Find("li.col-group.wt-p-xs-0.wt-mt-xs-1.wt-mb-xs-1").First()
	if row.Length() == 0 {
		return domain.Missing[float64]("payment summary not found")
	}
	return moneyOf(row.Find("div.col-xs-3.text-right.wt-pr-xs-0"), "items total")
}

func etsyShippingPrice(root *goquery.Selection) domain.Field[float64] {
	result := domain.Missing[float64]("shipping price row not found")
	root.Find("li.col-group.wt-p-xs-0.wt-mt-xs-1.wt-mb-xs-1").EachWithBreak(func(_ int, li *goquery.Selection) bool {
		if !strings.Contains(li.Text(), "Shipping price") {
			return true
		}
		result = moneyOf(li.Find("div.col-xs-3.text-right.wt-pr-xs-0"), "shipping price")
		return false
	})
	return result
}

// etsyShippingTotal sums every label purchase shown on the page.
func etsyShippingTotal(root *goquery.Selection) domain.Field[float64] {
	total := 0.0
	var bad domain.Field[float64]
	root.Find("div.wt-flex-md-1.text-right strong.mr-xs-1").Each(func(_ int, s *goquery.Selection) {
		amount := parseMoney(s.Text())
		if !amount.OK() {
			bad = amount
			return
		}
		total += amount.Value
	})
	if bad.State == domain.FieldMalformed {
		return bad
	}
	return domain.Ok(total)
}

// etsyPostalService reads the carrier of an Etsy-bought label, or the last
// word of the "Shipped with/Shipping via" line for labels bought elsewhere.
func etsyPostalService(root *goquery.Selection) domain.Field[string] {
	label := root.Find("div.pl-xs-1.mr-xs-2 p.text-truncate").First()
	if label.Length() > 0 {
		word, _, _ := strings.Cut(cleanText(label.Text()), " ")
		if word = normalizeCarrier(word); word != "" {
			return domain.Ok(word)
		}
	}

	result := domain.Missing[string]("postal service not found")
	root.Find("div.display-inline-block p").EachWithBreak(func(_ int, para *goquery.Selection) bool {
		text := cleanText(para.Text())
		if !strings.Contains(text, "Shipped") && !strings.Contains(text, "Shipping") {
			return true
		}
		words := strings.Fields(text)
		if len(words) > 0 {
			result = domain.Ok(normalizeCarrier(words[len(words)-1]))
		}
		return false
	})
	return result
}

func etsyShippingSpeed(root *goquery.Selection) domain.Field[string] {
	speed := textField(root.Find(`div.strong.text-body-smaller span[data-test-id="unsanitize"]`), "shipping speed")
	if speed.OK() && speed.Value == "Standard Shipping" {
		return domain.Ok("Standard")
	}
	return speed
}

func etsyGiftDetails(root *goquery.Selection) string {
	if cleanText(root.Find("h4.mb-xs-2").First().Text()) != "Gift details" {
		return ""
	}
	var lines []string
	root.Find("div.col-xs-12.col-md-6.pl-xs-0").First().Find("span.ml-xs-1.text-gray").Each(func(_ int, s *goquery.Selection) {
		if text := cleanText(s.Text()); text != "" {
			lines = append(lines, text)
		}
	})
	return strings.Join(lines, "\n")
}

func etsyVAT(root *goquery.Selection) string {
	badge := cleanText(root.Find("span.wt-badge.wt-ml-xs-1.wt-badge--notificationPrimary").First().Text())
	if badge != "VAT Collected" {
		return ""
	}
	block := root.Find("div.panel.mb-xs-0.mt-xs-2 div.wt-panel.wt-display-block.wt-p-xs-3.text-body-smaller.wt-bg-gray p").First()
	return strings.Join(strippedStrings(block), " ")
}

func etsyBuyerNote(root *goquery.Selection) string {
	note := textField(root.Find(`div.order-detail-buyer-note pre.note span[data-test-id="unsanitize"]`), "buyer note")
	if !note.OK() {
		return ""
	}
	return "Buyer's message: " + note.Value
}
