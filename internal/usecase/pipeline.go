package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"

	"OrdersParser/internal/channel"
	"OrdersParser/internal/domain"
	"OrdersParser/internal/matcher"
	"OrdersParser/internal/metrics"
	"OrdersParser/internal/ports"
	"OrdersParser/internal/record"
)

const documentTerminator = "</html>"

// PipelineDeps wires the router, matcher and driven adapters into the batch pipeline.
type PipelineDeps struct {
	Router  *channel.Router
	Matcher *matcher.Matcher
	Writer  ports.SheetWriter
	Ledger  ports.OrderLedger
	Logger  *slog.Logger
	Clock   func() time.Time
	// Force re-processes orders the ledger already knows.
	Force bool
}

// Pipeline implements the order-snapshot workflow.
type Pipeline struct {
	router  *channel.Router
	matcher *matcher.Matcher
	writer  ports.SheetWriter
	ledger  ports.OrderLedger
	logger  *slog.Logger
	clock   func() time.Time
	force   bool
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	m := deps.Matcher
	if m == nil {
		m = matcher.New(nil, nil, logger)
	}
	return &Pipeline{
		router:  deps.Router,
		matcher: m,
		writer:  deps.Writer,
		ledger:  deps.Ledger,
		logger:  logger.With("component", "pipeline"),
		clock:   clock,
		force:   deps.Force,
	}
}

// BatchReport summarises one run for the operator.
type BatchReport struct {
	RunID      string
	Documents  int
	Classified int
	Skipped    int
	Duplicates int
	Written    int
	Failed     int
	Rows       int
	Degraded   int
	Sheets     map[string]int
}

// String renders the report as a short multi-line summary.
func (r BatchReport) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "run %s: %d documents, %d classified, %d skipped, %d duplicates\n",
		r.RunID, r.Documents, r.Classified, r.Skipped, r.Duplicates)
	fmt.Fprintf(&b, "orders written: %d, failed: %d, rows: %d (%d with degraded fields)",
		r.Written, r.Failed, r.Rows, r.Degraded)
	names := make([]string, 0, len(r.Sheets))
	for name := range r.Sheets {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&b, "\n  %s: %d rows", name, r.Sheets[name])
	}
	return b.String()
}

// SplitBatch cuts a concatenated input on the closing html tag. Blank
// fragments are dropped; the terminator stays attached to each document.
func SplitBatch(input string) []string {
	parts := strings.Split(input, documentTerminator)
	docs := make([]string, 0, len(parts))
	for i, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		if i < len(parts)-1 {
			part += documentTerminator
		}
		docs = append(docs, part)
	}
	return docs
}

// ProcessBatch runs every document in input through the pipeline.
// Per-document failures are logged and counted; only cancellation and an
// empty input are returned as errors.
func (p *Pipeline) ProcessBatch(ctx context.Context, input string) (BatchReport, error) {
	started := p.clock()
	report := BatchReport{RunID: uuid.NewString(), Sheets: map[string]int{}}
	logger := p.logger.With("run_id", report.RunID)

	docs := SplitBatch(input)
	report.Documents = len(docs)
	if len(docs) == 0 {
		return report, domain.ErrNoDocuments
	}
	if p.router == nil {
		return report, errors.New("pipeline has no channel router")
	}

	for i, raw := range docs {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("process batch: %w", err)
		}
		p.processDocument(ctx, logger.With("document", i+1), report.RunID, raw, &report)
	}

	metrics.BatchDuration.Observe(p.clock().Sub(started).Seconds())
	logger.Info("batch finished",
		"documents", report.Documents,
		"written", report.Written,
		"skipped", report.Skipped,
		"duplicates", report.Duplicates,
		"failed", report.Failed)
	return report, nil
}

func (p *Pipeline) processDocument(ctx context.Context, logger *slog.Logger, runID, raw string, report *BatchReport) {
	parser, ok := p.router.Classify(raw)
	if !ok {
		report.Skipped++
		metrics.Documents.WithLabelValues("unknown", "skipped").Inc()
		logger.Warn("document matches no channel, skipping")
		return
	}
	report.Classified++
	ch := parser.Channel()
	logger = logger.With("channel", string(ch))

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		report.Failed++
		metrics.Documents.WithLabelValues(string(ch), "failed").Inc()
		logger.Error("parse document", "error", err)
		return
	}

	parsed := parser.Parse(doc, raw)
	key, hasKey := parsed.Key()
	if hasKey {
		logger = logger.With("order_id", parsed.OrderID.Value)
	}
	if len(parsed.Items) == 0 {
		logger.Warn("order has no line items")
	}

	if hasKey && p.ledger != nil && !p.force {
		seen, err := p.ledger.AlreadyProcessed(ctx, []string{key})
		if err != nil {
			logger.Warn("check processed orders", "error", err)
		} else if seen[key] {
			report.Duplicates++
			metrics.Documents.WithLabelValues(string(ch), "duplicate").Inc()
			logger.Info("order already written, skipping")
			return
		}
	}

	label := p.matcher.ResolveLabel(ctx, parsed.OrderID)
	candidates := p.matcher.SearchArtwork(ctx, parsed.OrderID, parsed.FirstSKU())
	links := p.matcher.Assign(parsed.Mode, candidates, parsed.Items)
	items := record.Normalize(parsed, label, links, p.clock())

	order := domain.Order{Parsed: parsed, Candidates: candidates}
	extension := order.Extension()
	smaller := order.SmallerDimension()

	for _, item := range items {
		if len(item.Degraded) == 0 {
			continue
		}
		report.Degraded++
		for _, col := range item.Degraded {
			metrics.DegradedFields.WithLabelValues(string(ch), col).Inc()
		}
		logger.Warn("row has degraded fields", "sku", item.SKU, "fields", item.Degraded)
	}

	if p.writer == nil {
		logger.Info("dry run, order not written", "rows", len(items), "extension", extension, "smaller", smaller.Or(0))
		report.Rows += len(items)
		metrics.Documents.WithLabelValues(string(ch), "dry_run").Inc()
		return
	}

	result, err := p.writer.Append(ctx, items, extension, smaller)
	if err != nil {
		report.Failed++
		metrics.Documents.WithLabelValues(string(ch), "failed").Inc()
		logger.Error("append order to workbook", "error", err)
		return
	}
	report.Written++
	report.Rows += len(items)
	report.Sheets[result.Sheet] += len(items)
	metrics.Documents.WithLabelValues(string(ch), "written").Inc()
	metrics.RowsWritten.WithLabelValues(result.Sheet).Add(float64(len(items)))
	logger.Info("order written", "sheet", result.Sheet, "first_row", result.FirstRow, "last_row", result.LastRow)

	if hasKey && p.ledger != nil {
		err = p.ledger.SaveProcessed(ctx, domain.ProcessedOrder{
			Key:         key,
			Channel:     ch,
			OrderID:     parsed.OrderID.Value,
			Sheet:       result.Sheet,
			Items:       len(items),
			RunID:       runID,
			ProcessedAt: p.clock(),
		})
		if err != nil {
			logger.Warn("persist processed order", "error", err)
		}
	}
}
