package matcher

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"OrdersParser/internal/domain"
	"OrdersParser/internal/metrics"
	"OrdersParser/internal/ports"
)

// Matcher finds artwork and shipping labels for parsed orders.
type Matcher struct {
	store    ports.FileStore
	uploader ports.LabelUploader
	logger   *slog.Logger
}

// New builds a matcher. A nil uploader skips the upload step.
func New(store ports.FileStore, uploader ports.LabelUploader, logger *slog.Logger) *Matcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Matcher{store: store, uploader: uploader, logger: logger.With("component", "matcher")}
}

// SearchArtwork looks up artwork by order id, then by SKU when nothing matched.
func (m *Matcher) SearchArtwork(ctx context.Context, orderID, sku domain.Field[string]) []domain.CandidateFile {
	if files := m.search(ctx, "artwork_by_order", orderID, domain.ArtworkQuery); len(files) > 0 {
		return files
	}
	return m.search(ctx, "artwork_by_sku", sku, domain.ArtworkQuery)
}

// ResolveLabel returns a link to the order's shipping label or File Not Found.
func (m *Matcher) ResolveLabel(ctx context.Context, orderID domain.Field[string]) string {
	if !searchable(orderID) {
		return domain.SentinelFileNotFound
	}

	if m.uploader != nil {
		link, err := m.uploader.UploadLabel(ctx, orderID.Value)
		switch {
		case err == nil:
			metrics.FileStoreRequests.WithLabelValues("label_upload", "ok").Inc()
			m.logger.Info("shipping label uploaded", "order_id", orderID.Value, "link", link)
			return link
		case errors.Is(err, domain.ErrLabelNotFound):
			metrics.FileStoreRequests.WithLabelValues("label_upload", "not_found").Inc()
		default:
			metrics.FileStoreRequests.WithLabelValues("label_upload", "error").Inc()
			m.logger.Warn("upload shipping label", "order_id", orderID.Value, "error", err)
		}
	}

	files := m.search(ctx, "label_search", orderID, func(string) domain.FileQuery {
		return domain.LabelQuery(orderID.Value)
	})
	if len(files) == 0 || files[0].Link == "" {
		return domain.SentinelFileNotFound
	}
	return files[0].Link
}

// Assign binds candidates to items; every item gets a link or File Not Found.
func (m *Matcher) Assign(mode domain.MatchMode, files []domain.CandidateFile, items []domain.ParsedItem) []string {
	pool := NewPool(files)
	links := make([]string, len(items))
	for i, item := range items {
		var (
			file domain.CandidateFile
			ok   bool
		)
		switch mode {
		case domain.MatchBySize:
			if item.Size.OK() {
				file, ok = pool.TakeMatching(item.Size.Value.Tokens)
			}
		default:
			file, ok = pool.TakeNext()
		}
		if !ok || file.Link == "" {
			links[i] = domain.SentinelFileNotFound
			continue
		}
		links[i] = file.Link
	}
	if unused := pool.Remaining(); unused > 0 {
		m.logger.Debug("candidate files left unassigned", "count", unused, "candidates", pool.Len())
	}
	return links
}

func (m *Matcher) search(ctx context.Context, op string, term domain.Field[string], build func(string) domain.FileQuery) []domain.CandidateFile {
	if m.store == nil || !searchable(term) {
		return nil
	}
	query := build(term.Value)
	files, err := m.store.Search(ctx, query)
	if err != nil {
		metrics.FileStoreRequests.WithLabelValues(op, "error").Inc()
		m.logger.Warn("file store search failed", "operation", op, "query", query.String(), "error", err)
		return nil
	}
	result := "ok"
	if len(files) == 0 {
		result = "empty"
	}
	metrics.FileStoreRequests.WithLabelValues(op, result).Inc()
	m.logger.Debug("file store search", "operation", op, "query", query.String(), "hits", len(files))
	return files
}

// searchable rejects blank and sentinel terms, which would match everything.
func searchable(term domain.Field[string]) bool {
	if !term.OK() {
		return false
	}
	v := strings.TrimSpace(term.Value)
	return v != "" && v != domain.SentinelError && v != domain.SentinelFileNotFound
}
