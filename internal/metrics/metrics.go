package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Registry is the dedicated Prometheus registry for batch runs.
	Registry = prometheus.NewRegistry()
	// Documents counts processed documents by channel and outcome.
	Documents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "orders_documents_total", Help: "Documents processed by channel and outcome."},
		[]string{"channel", "outcome"},
	)
	// DegradedFields counts cells written as a sentinel or a default.
	DegradedFields = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "orders_degraded_fields_total", Help: "Output cells holding a sentinel or defaulted value."},
		[]string{"channel", "field"},
	)
	// FileStoreRequests counts file store calls by operation and result.
	FileStoreRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "orders_file_store_requests_total", Help: "File store calls by operation and result."},
		[]string{"operation", "result"},
	)
	// RowsWritten counts spreadsheet rows by sheet.
	RowsWritten = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "orders_rows_written_total", Help: "Rows appended per sheet."},
		[]string{"sheet"},
	)
	// BatchDuration records whole-batch wall time in seconds.
	BatchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "orders_batch_duration_seconds", Help: "Batch duration in seconds.", Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600}},
	)
)

var regOnce sync.Once

// RegisterDefault registers the collectors on Registry.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(Documents)
		Registry.MustRegister(DegradedFields)
		Registry.MustRegister(FileStoreRequests)
		Registry.MustRegister(RowsWritten)
		Registry.MustRegister(BatchDuration)
	})
}

// WriteTextfile dumps Registry in the node_exporter textfile format.
func WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics dir: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, Registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
