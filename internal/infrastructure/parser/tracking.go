package parser

import (
	"strings"

	"OrdersParser/internal/domain"
)

const (
	carrierUSPS  = "USPS"
	carrierUPS   = "UPS"
	carrierFedEx = "FedEx"
	carrierDHL   = "DHL"
)

var trackingTemplates = map[string]string{
	carrierUSPS:  "https://tools.usps.com/go/TrackConfirmAction_input?qtc_tLabels1=%s",
	carrierUPS:   "https://www.ups.com/track?TypeOfInquiryNumber=T&InquiryNumber1=%s&loc=en_US&requester=ST/trackdetails",
	carrierFedEx: "https://www.fedex.com/apps/fedextrack/?tracknumbers=%s",
	carrierDHL:   "https://www.dhl.com/us-en/home/tracking/tracking-express.html?submit=1&tracking-id=%s",
}

// normalizeCarrier maps marketplace carrier labels to the short names.
func normalizeCarrier(name string) string {
	name = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(name), "®"))
	switch name {
	case "US Mail":
		return carrierUSPS
	case "United Parcel Service":
		return carrierUPS
	}
	return name
}

// trackingLink builds the public tracking URL for a known carrier.
func trackingLink(carrier, number string) (string, bool) {
	tmpl, ok := trackingTemplates[normalizeCarrier(carrier)]
	if !ok || strings.TrimSpace(number) == "" {
		return "", false
	}
	return strings.Replace(tmpl, "%s", number, 1), true
}

// trackingLinkField resolves the link from carrier and number, falling back to
// a link found on the page.
func trackingLinkField(carrier, number, pageLink domain.Field[string]) domain.Field[string] {
	if carrier.OK() && number.OK() {
		if link, ok := trackingLink(carrier.Value, number.Value); ok {
			return domain.Ok(link)
		}
	}
	if pageLink.OK() {
		return pageLink
	}
	if !number.OK() {
		return domain.Missing[string]("no tracking number")
	}
	return domain.Missing[string]("no tracking template for carrier")
}

// carrierFromTracking guesses the carrier from the tracking number prefix.
// This is a heuristic over a closed table and can be wrong for carriers it
// has never seen; unknown prefixes come back Malformed.
func carrierFromTracking(number domain.Field[string]) domain.Field[string] {
	if !number.OK() {
		return domain.Missing[string]("no tracking number")
	}
	n := number.Value
	switch {
	case strings.HasPrefix(n, "1Z"):
		return domain.Ok(carrierUPS)
	case hasAnyPrefix(n, "92", "93", "94"):
		return domain.Ok(carrierUSPS)
	case hasAnyPrefix(n, "2", "6"):
		return domain.Ok(carrierFedEx)
	case hasAnyPrefix(n, "15", "99", "74"):
		return domain.Ok(carrierDHL)
	}
	return domain.Malformed[string]("unrecognised tracking prefix in " + n)
}

func hasAnyPrefix(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
