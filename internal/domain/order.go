package domain

import (
	"errors"
	"strings"
	"time"
)

// Sentinel cell values an operator can grep for.
const (
	SentinelError        = "!ERROR!"
	SentinelUnknown      = "Unknown"
	SentinelFileNotFound = "File Not Found"
)

// ErrLabelNotFound is returned by label uploaders when no local label exists.
var ErrLabelNotFound = errors.New("shipping label not found")

var (
	// ErrFileStoreUnavailable wraps collaborator failures of the file store.
	ErrFileStoreUnavailable = errors.New("file store unavailable")
	// ErrTransient marks collaborator failures worth retrying.
	ErrTransient = errors.New("transient collaborator failure")
	// ErrNoDocuments is returned when the input holds no order documents.
	ErrNoDocuments = errors.New("no order documents in input")
)

// Channel names a supported marketplace.
type Channel string

const (
	ChannelEtsy      Channel = "Etsy"
	ChannelAmazon    Channel = "Amazon"
	ChannelEbay      Channel = "Ebay"
	ChannelWayfair   Channel = "Wayfair"
	ChannelOverstock Channel = "Overstock"
)

// MatchMode selects how candidate files are bound to line items.
type MatchMode uint8

const (
	// MatchSequential hands out candidates in list order, one per item.
	MatchSequential MatchMode = iota
	// MatchBySize binds each item to the first unused candidate of equal size.
	MatchBySize
)

// CandidateFile is one file-store search hit.
type CandidateFile struct {
	ID   string
	Name string
	Link string
}

// ParsedItem holds per-line-item extraction results.
type ParsedItem struct {
	Title         Field[string]
	SKU           Field[string]
	ListingLink   Field[string]
	Quantity      Field[int]
	Customization string
	Size          Field[SizeSpec]
}

// ParsedOrder is everything a channel parser read from one document.
// Order-level fields are shared by every item.
type ParsedOrder struct {
	Channel        Channel
	Mode           MatchMode
	OrderID        Field[string]
	Store          Field[string]
	Address        Field[string]
	TrackID        Field[string]
	PostalService  Field[string]
	ShippingSpeed  Field[string]
	TrackLink      Field[string]
	ShipBy         Field[time.Time]
	// ShipByUnlisted marks pages that never show a ship-by date; the
	// processing date stands in without flagging the row.
	ShipByUnlisted bool
	ItemsTotal     Field[float64]
	ShippingTotal  Field[float64]
	ShippingPrice  Field[float64]
	ReportedTotal  Field[float64]
	AdditionalInfo string
	Items          []ParsedItem
}

// FirstSKU returns the first usable SKU among the items.
func (p ParsedOrder) FirstSKU() Field[string] {
	for _, item := range p.Items {
		if item.SKU.OK() && item.SKU.Value != SentinelError {
			return item.SKU
		}
	}
	return Missing[string]("no item carries a sku")
}

// Key identifies the order across batches.
func (p ParsedOrder) Key() (string, bool) {
	if !p.OrderID.OK() {
		return "", false
	}
	return string(p.Channel) + ":" + p.OrderID.Value, true
}

// Order is a parsed order together with its artwork candidates.
type Order struct {
	Parsed     ParsedOrder
	Candidates []CandidateFile
}

// Extension returns the suffix of the first real candidate, or Unknown.
func (o Order) Extension() string {
	for _, file := range o.Candidates {
		if file.Name == "" || file.Name == SentinelFileNotFound {
			continue
		}
		idx := strings.LastIndex(file.Name, ".")
		if idx < 0 || idx == len(file.Name)-1 {
			return SentinelUnknown
		}
		return file.Name[idx+1:]
	}
	return SentinelUnknown
}

// SmallerDimension returns min(width, height) used to pick a print roll.
// Size-matched channels read it from the items, others from the first candidate's name.
func (o Order) SmallerDimension() Field[float64] {
	if o.Parsed.Mode == MatchBySize {
		for _, item := range o.Parsed.Items {
			if item.Size.OK() {
				return Ok(item.Size.Value.Smaller())
			}
		}
		return Malformed[float64]("no item size recovered")
	}

	for _, file := range o.Candidates {
		if file.Name == "" || file.Name == SentinelFileNotFound {
			continue
		}
		spec := ParseSizeSpec(fileNameSizeWord(file.Name))
		if !spec.OK() {
			return Malformed[float64](spec.Reason)
		}
		return Ok(spec.Value.Smaller())
	}
	return Malformed[float64]("no candidate file to read a size from")
}

// Column headers of the output sheet, in order.
const (
	ColStatus         = "Status"
	ColAdditionalInfo = "Additional Info"
	ColDate           = "Date"
	ColStore          = "Store"
	ColChannel        = "Channel"
	ColSKU            = "SKU"
	ColListingLink    = "Listing Link"
	ColOrderID        = "Order ID"
	ColTitle          = "Title"
	ColAddress        = "Address"
	ColQuantity       = "Quantity"
	ColCustomization  = "Customization Info"
	ColFileLink       = "File Link"
	ColLabelLink      = "Shipping Label Link"
	ColTrackID        = "Track ID"
	ColShipBy         = "Ship-By Date"
	ColPostalService  = "Postal Service"
	ColShippingSpeed  = "Shipping Speed"
	ColTrackLink      = "Track Package Link"
	ColItemsTotal     = "Items Total"
	ColShippingTotal  = "Shipping Total"
	ColShippingPrice  = "Shipping Price"
	ColTotal          = "Total"
)

// Columns lists every canonical key in sheet order.
var Columns = []string{
	ColStatus, ColAdditionalInfo, ColDate, ColStore, ColChannel, ColSKU, ColListingLink,
	ColOrderID, ColTitle, ColAddress, ColQuantity, ColCustomization, ColFileLink, ColLabelLink,
	ColTrackID, ColShipBy, ColPostalService, ColShippingSpeed, ColTrackLink,
	ColItemsTotal, ColShippingTotal, ColShippingPrice, ColTotal,
}

// OrderItem is one canonical output row. It is never mutated after creation.
type OrderItem struct {
	Status         string
	AdditionalInfo string
	Date           string
	Store          string
	Channel        Channel
	SKU            string
	ListingLink    string
	OrderID        string
	Title          string
	Address        string
	Quantity       Field[int]
	Customization  string
	FileLink       string
	LabelLink      string
	TrackID        string
	ShipBy         string
	PostalService  string
	ShippingSpeed  string
	TrackLink      string
	ItemsTotal     float64
	ShippingTotal  float64
	ShippingPrice  float64
	Total          float64
	// Degraded names the columns that hold a sentinel or a defaulted value.
	Degraded []string
}

// Values renders the row keyed by column header.
func (i OrderItem) Values() map[string]any {
	var quantity any = SentinelError
	if i.Quantity.OK() {
		quantity = i.Quantity.Value
	}
	return map[string]any{
		ColStatus:         i.Status,
		ColAdditionalInfo: i.AdditionalInfo,
		ColDate:           i.Date,
		ColStore:          i.Store,
		ColChannel:        string(i.Channel),
		ColSKU:            i.SKU,
		ColListingLink:    i.ListingLink,
		ColOrderID:        i.OrderID,
		ColTitle:          i.Title,
		ColAddress:        i.Address,
		ColQuantity:       quantity,
		ColCustomization:  i.Customization,
		ColFileLink:       i.FileLink,
		ColLabelLink:      i.LabelLink,
		ColTrackID:        i.TrackID,
		ColShipBy:         i.ShipBy,
		ColPostalService:  i.PostalService,
		ColShippingSpeed:  i.ShippingSpeed,
		ColTrackLink:      i.TrackLink,
		ColItemsTotal:     i.ItemsTotal,
		ColShippingTotal:  i.ShippingTotal,
		ColShippingPrice:  i.ShippingPrice,
		ColTotal:          i.Total,
	}
}

// AppendResult describes where the writer placed an order.
type AppendResult struct {
	Sheet    string
	FirstRow int
	LastRow  int
}

// ProcessedOrder is persisted for deduplication across batches.
type ProcessedOrder struct {
	Key         string
	Channel     Channel
	OrderID     string
	Sheet       string
	Items       int
	RunID       string
	ProcessedAt time.Time
}
