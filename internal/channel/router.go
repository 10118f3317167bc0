package channel

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"OrdersParser/internal/domain"
)

// Parser captures a single marketplace variant (Etsy, Amazon, etc.).
type Parser interface {
	Channel() domain.Channel
	// Markers are literal substrings identifying the channel in raw markup.
	Markers() []string
	// Parse never fails; every field reports its own outcome.
	Parse(doc *goquery.Document, raw string) domain.ParsedOrder
}

// Router keeps parsers in priority order; the first matching marker wins.
type Router struct {
	parsers []Parser
}

// NewRouter builds a router over parsers in priority order.
func NewRouter(parsers ...Parser) *Router {
	r := &Router{}
	for _, p := range parsers {
		r.Register(p)
	}
	return r
}

// Register appends a parser at the lowest priority, replacing one for the same channel.
func (r *Router) Register(parser Parser) {
	for i, existing := range r.parsers {
		if existing.Channel() == parser.Channel() {
			r.parsers[i] = parser
			return
		}
	}
	r.parsers = append(r.parsers, parser)
}

// Classify picks the parser for a raw document. Unrecognised documents return false.
func (r *Router) Classify(raw string) (Parser, bool) {
	for _, parser := range r.parsers {
		for _, marker := range parser.Markers() {
			if strings.Contains(raw, marker) {
				return parser, true
			}
		}
	}
	return nil, false
}

// Channels lists registered channels in priority order.
func (r *Router) Channels() []domain.Channel {
	out := make([]domain.Channel, 0, len(r.parsers))
	for _, parser := range r.parsers {
		out = append(out, parser.Channel())
	}
	return out
}
