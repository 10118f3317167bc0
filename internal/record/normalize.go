// Package record turns parser output into canonical spreadsheet rows.
package record

import (
	"time"

	"OrdersParser/internal/domain"
)

// DateLayout is the day-first layout used for Date and Ship-By Date cells.
const DateLayout = "02.01.2006"

// Normalize builds one row per parsed item. Order-level fields are copied
// into every row; links[i] is the artwork link of item i. It never fails:
// degraded fields render as sentinels and are listed in OrderItem.Degraded.
func Normalize(parsed domain.ParsedOrder, label string, links []string, now time.Time) []domain.OrderItem {
	items := make([]domain.OrderItem, 0, len(parsed.Items))
	for i, item := range parsed.Items {
		var r renderer

		row := domain.OrderItem{
			AdditionalInfo: parsed.AdditionalInfo,
			Date:           now.Format(DateLayout),
			Store:          r.text(domain.ColStore, parsed.Store),
			Channel:        parsed.Channel,
			SKU:            r.text(domain.ColSKU, item.SKU),
			ListingLink:    r.text(domain.ColListingLink, item.ListingLink),
			OrderID:        r.text(domain.ColOrderID, parsed.OrderID),
			Title:          r.text(domain.ColTitle, item.Title),
			Address:        r.text(domain.ColAddress, parsed.Address),
			Quantity:       item.Quantity,
			Customization:  item.Customization,
			FileLink:       r.link(domain.ColFileLink, linkAt(links, i)),
			LabelLink:      r.link(domain.ColLabelLink, label),
			TrackID:        r.text(domain.ColTrackID, parsed.TrackID),
			ShipBy:         r.shipBy(parsed, now),
			PostalService:  r.carrier(parsed.PostalService),
			ShippingSpeed:  r.text(domain.ColShippingSpeed, parsed.ShippingSpeed),
			TrackLink:      r.text(domain.ColTrackLink, parsed.TrackLink),
			ItemsTotal:     r.money(domain.ColItemsTotal, parsed.ItemsTotal),
			ShippingTotal:  r.money(domain.ColShippingTotal, parsed.ShippingTotal),
			ShippingPrice:  r.money(domain.ColShippingPrice, parsed.ShippingPrice),
		}
		if !item.Quantity.OK() {
			r.mark(domain.ColQuantity)
		}
		row.Total = Total(row.ItemsTotal, row.ShippingPrice, row.ShippingTotal)
		row.Degraded = r.degraded
		items = append(items, row)
	}
	return items
}

// Total is what the seller keeps: items plus shipping charged minus label cost.
func Total(itemsTotal, shippingPrice, shippingTotal float64) float64 {
	return itemsTotal + shippingPrice - shippingTotal
}

func linkAt(links []string, i int) string {
	if i < len(links) {
		return links[i]
	}
	return ""
}

type renderer struct {
	degraded []string
}

func (r *renderer) mark(column string) {
	r.degraded = append(r.degraded, column)
}

func (r *renderer) text(column string, f domain.Field[string]) string {
	if f.OK() {
		return f.Value
	}
	r.mark(column)
	return domain.SentinelError
}

// carrier renders an unrecognised carrier as Unknown and an absent one as an error.
func (r *renderer) carrier(f domain.Field[string]) string {
	switch f.State {
	case domain.FieldOK:
		return f.Value
	case domain.FieldMalformed:
		r.mark(domain.ColPostalService)
		return domain.SentinelUnknown
	default:
		r.mark(domain.ColPostalService)
		return domain.SentinelError
	}
}

func (r *renderer) link(column, link string) string {
	if link == "" || link == domain.SentinelFileNotFound {
		r.mark(column)
		return domain.SentinelFileNotFound
	}
	return link
}

// date falls back to the processing date.
func (r *renderer) date(column string, f domain.Field[time.Time], now time.Time) string {
	if f.OK() {
		return f.Value.Format(DateLayout)
	}
	r.mark(column)
	return now.Format(DateLayout)
}

func (r *renderer) shipBy(parsed domain.ParsedOrder, now time.Time) string {
	if parsed.ShipByUnlisted && parsed.ShipBy.State == domain.FieldMissing {
		return now.Format(DateLayout)
	}
	return r.date(domain.ColShipBy, parsed.ShipBy, now)
}

// money defaults to 0 so the total stays computable.
func (r *renderer) money(column string, f domain.Field[float64]) float64 {
	if f.OK() {
		return f.Value
	}
	r.mark(column)
	return 0
}
