package record

import (
	"slices"
	"testing"
	"time"

	"OrdersParser/internal/domain"
)

var processedAt = time.Date(2024, time.March, 1, 10, 0, 0, 0, time.UTC)

func sampleOrder() domain.ParsedOrder {
	return domain.ParsedOrder{
		Channel:       domain.ChannelEtsy,
		OrderID:       domain.Ok("3012345678"),
		Store:         domain.Ok("StickalzShop"),
		Address:       domain.Ok("Jane Doe\n12 Main St"),
		TrackID:       domain.Ok("9400"),
		PostalService: domain.Ok("USPS"),
		ShippingSpeed: domain.Ok("Standard"),
		TrackLink:     domain.Ok("https://tools.usps.com/go/TrackConfirmAction_input?qtc_tLabels1=9400"),
		ShipBy:        domain.Ok(time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC)),
		ItemsTotal:    domain.Ok(45.0),
		ShippingTotal: domain.Ok(4.10),
		ShippingPrice: domain.Ok(5.0),
		Items: []domain.ParsedItem{
			{Title: domain.Ok("Mountain"), SKU: domain.Ok("MNT-01"), ListingLink: domain.Ok("https://etsy/1"), Quantity: domain.Ok(2)},
			{Title: domain.Ok("Forest"), SKU: domain.Ok("FRS-22"), ListingLink: domain.Ok("https://etsy/2"), Quantity: domain.Ok(1)},
		},
	}
}

func TestNormalizeSharesOrderFields(t *testing.T) {
	t.Parallel()

	rows := Normalize(sampleOrder(), "https://drive/label", []string{"https://drive/a", "https://drive/b"}, processedAt)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	for i, row := range rows {
		if row.OrderID != "3012345678" || row.Address != "Jane Doe\n12 Main St" || row.LabelLink != "https://drive/label" {
			t.Fatalf("row %d lost order-level fields: %+v", i, row)
		}
		if row.Date != "01.03.2024" || row.ShipBy != "05.03.2024" {
			t.Fatalf("row %d: unexpected dates %q %q", i, row.Date, row.ShipBy)
		}
		if len(row.Degraded) != 0 {
			t.Fatalf("row %d: unexpected degraded fields %v", i, row.Degraded)
		}
	}
	if rows[0].FileLink != "https://drive/a" || rows[1].FileLink != "https://drive/b" {
		t.Fatalf("file links not per item: %q %q", rows[0].FileLink, rows[1].FileLink)
	}
	if rows[0].SKU == rows[1].SKU {
		t.Fatalf("items must keep distinct skus")
	}
}

func TestNormalizeTotalInvariant(t *testing.T) {
	t.Parallel()

	order := sampleOrder()
	order.ShippingPrice = domain.Malformed[float64]("bad amount")

	for _, row := range Normalize(order, "", nil, processedAt) {
		if row.Total != row.ItemsTotal+row.ShippingPrice-row.ShippingTotal {
			t.Fatalf("total invariant broken: %+v", row)
		}
		if row.ShippingPrice != 0 {
			t.Fatalf("malformed money must default to 0, got %v", row.ShippingPrice)
		}
		if !slices.Contains(row.Degraded, domain.ColShippingPrice) {
			t.Fatalf("expected shipping price to be flagged, got %v", row.Degraded)
		}
	}
}

func TestNormalizeSentinels(t *testing.T) {
	t.Parallel()

	order := sampleOrder()
	order.OrderID = domain.Missing[string]("absent")
	order.PostalService = domain.Malformed[string]("unrecognised prefix")
	order.ShipBy = domain.Missing[time.Time]("absent")
	order.Items = order.Items[:1]
	order.Items[0].Quantity = domain.Malformed[int]("x")

	rows := Normalize(order, domain.SentinelFileNotFound, nil, processedAt)
	row := rows[0]

	if row.OrderID != domain.SentinelError {
		t.Fatalf("expected !ERROR! order id, got %q", row.OrderID)
	}
	if row.PostalService != domain.SentinelUnknown {
		t.Fatalf("expected Unknown carrier, got %q", row.PostalService)
	}
	if row.ShipBy != "01.03.2024" {
		t.Fatalf("expected ship-by to default to processing date, got %q", row.ShipBy)
	}
	if row.FileLink != domain.SentinelFileNotFound || row.LabelLink != domain.SentinelFileNotFound {
		t.Fatalf("expected File Not Found links, got %q %q", row.FileLink, row.LabelLink)
	}
	if got := row.Values()[domain.ColQuantity]; got != domain.SentinelError {
		t.Fatalf("expected !ERROR! quantity cell, got %v", got)
	}
	for _, col := range []string{domain.ColOrderID, domain.ColPostalService, domain.ColShipBy, domain.ColFileLink, domain.ColLabelLink, domain.ColQuantity} {
		if !slices.Contains(row.Degraded, col) {
			t.Fatalf("expected %s in degraded list %v", col, row.Degraded)
		}
	}
}

func TestNormalizeFillsEveryColumn(t *testing.T) {
	t.Parallel()

	rows := Normalize(domain.ParsedOrder{Items: []domain.ParsedItem{{}}}, "", nil, processedAt)
	values := rows[0].Values()
	for _, col := range domain.Columns {
		if _, ok := values[col]; !ok {
			t.Fatalf("column %s missing from row", col)
		}
	}
}

func TestNormalizeUnlistedShipByIsNotDegraded(t *testing.T) {
	t.Parallel()

	order := sampleOrder()
	order.Channel = domain.ChannelEbay
	order.ShipBy = domain.Missing[time.Time]("ebay pages carry no ship-by date")
	order.ShipByUnlisted = true

	for _, row := range Normalize(order, "https://drive/label", []string{"https://drive/1", "https://drive/2"}, processedAt) {
		if row.ShipBy != "01.03.2024" {
			t.Fatalf("expected processing date, got %q", row.ShipBy)
		}
		if len(row.Degraded) != 0 {
			t.Fatalf("expected no degraded fields, got %v", row.Degraded)
		}
	}

	order.ShipBy = domain.Malformed[time.Time]("bad date")
	rows := Normalize(order, "https://drive/label", nil, processedAt)
	if !slices.Contains(rows[0].Degraded, domain.ColShipBy) {
		t.Fatalf("malformed ship-by must still be flagged, got %v", rows[0].Degraded)
	}
}
