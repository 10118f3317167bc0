package ports

import (
	"context"

	"OrdersParser/internal/domain"
)

// FileStore searches the artwork/label store by name predicates.
// An empty result is not an error.
type FileStore interface {
	Search(ctx context.Context, query domain.FileQuery) ([]domain.CandidateFile, error)
}

// LabelUploader publishes the local {orderID}.pdf label and removes the local copy.
// It returns domain.ErrLabelNotFound when no local label exists.
type LabelUploader interface {
	UploadLabel(ctx context.Context, orderID string) (string, error)
}

// SheetWriter appends one order's rows to the fulfilment spreadsheet.
type SheetWriter interface {
	Append(ctx context.Context, items []domain.OrderItem, extension string, smaller domain.Field[float64]) (domain.AppendResult, error)
}

// OrderLedger remembers written orders so a batch can be re-run safely.
type OrderLedger interface {
	AlreadyProcessed(ctx context.Context, keys []string) (map[string]bool, error)
	SaveProcessed(ctx context.Context, order domain.ProcessedOrder) error
}
