package parser

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"OrdersParser/internal/domain"
)

var titleCaser = cases.Title(language.English)

// cleanText folds NBSP and other compatibility characters and trims.
func cleanText(s string) string {
	return strings.TrimSpace(norm.NFKC.String(s))
}

// textField returns the trimmed text of the first node of sel.
func textField(sel *goquery.Selection, what string) domain.Field[string] {
	if sel.Length() == 0 {
		return domain.Missing[string](what + " not found")
	}
	text := cleanText(sel.First().Text())
	if text == "" {
		return domain.Missing[string](what + " is empty")
	}
	return domain.Ok(text)
}

// attrField returns an attribute of the first node of sel.
func attrField(sel *goquery.Selection, attr, what string) domain.Field[string] {
	if sel.Length() == 0 {
		return domain.Missing[string](what + " not found")
	}
	value, ok := sel.First().Attr(attr)
	value = strings.TrimSpace(value)
	if !ok || value == "" {
		return domain.Missing[string](what + " has no " + attr)
	}
	return domain.Ok(value)
}

// firstOf tries selectors in order and returns the first non-empty selection.
func firstOf(root *goquery.Selection, selectors ...string) *goquery.Selection {
	for _, selector := range selectors {
		if sel := root.Find(selector); sel.Length() > 0 {
			return sel.First()
		}
	}
	return root.Find(selectors[0])
}

// parseMoney accepts "$1,234.50", "CA$12", "-$3.10" and similar.
func parseMoney(raw string) domain.Field[float64] {
	text := cleanText(raw)
	text = strings.TrimPrefix(text, "CA")
	text = strings.NewReplacer("$", "", ",", "", "-", "", " ", "").Replace(text)
	if text == "" {
		return domain.Missing[float64]("empty amount")
	}
	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return domain.Malformed[float64](fmt.Sprintf("amount %q: %v", raw, err))
	}
	return domain.Ok(value)
}

func moneyOf(sel *goquery.Selection, what string) domain.Field[float64] {
	text := textField(sel, what)
	if !text.OK() {
		return domain.Missing[float64](text.Reason)
	}
	return parseMoney(text.Value)
}

func parseQuantity(raw string) domain.Field[int] {
	text := cleanText(raw)
	if text == "" {
		return domain.Missing[int]("empty quantity")
	}
	value, err := strconv.Atoi(text)
	if err != nil {
		return domain.Malformed[int](fmt.Sprintf("quantity %q: %v", raw, err))
	}
	return domain.Ok(value)
}

func quantityOf(sel *goquery.Selection, what string) domain.Field[int] {
	text := textField(sel, what)
	if !text.OK() {
		return domain.Missing[int](text.Reason)
	}
	return parseQuantity(text.Value)
}

// strippedStrings returns every non-blank text node under sel, trimmed.
func strippedStrings(sel *goquery.Selection) []string {
	var out []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if text := cleanText(n.Data); text != "" {
				out = append(out, text)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return out
}

// nodeText concatenates the stripped strings of one node without separators.
func nodeText(n *html.Node) string {
	return strings.Join(strippedStrings(goquery.NewDocumentFromNode(n).Selection), "")
}

// childTexts returns the non-blank text of every direct child (elements and text nodes).
func childTexts(sel *goquery.Selection) []string {
	var out []string
	if sel.Length() == 0 {
		return out
	}
	for c := sel.Nodes[0].FirstChild; c != nil; c = c.NextSibling {
		if text := nodeText(c); text != "" {
			out = append(out, text)
		}
	}
	return out
}

// ownText returns the first direct text child of sel.
func ownText(sel *goquery.Selection) string {
	if sel.Length() == 0 {
		return ""
	}
	for c := sel.Nodes[0].FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			if text := cleanText(c.Data); text != "" {
				return text
			}
		}
	}
	return ""
}

// listingLinks collects every occurrence of a listing URL in raw markup.
func listingLinks(raw string, expr *regexp.Regexp) []string {
	return expr.FindAllString(raw, -1)
}

func listingAt(links []string, idx int) domain.Field[string] {
	if len(links) == 0 {
		return domain.Missing[string]("no listing urls in document")
	}
	if idx >= len(links) {
		return domain.Missing[string](fmt.Sprintf("no listing url for item %d", idx))
	}
	return domain.Ok(links[idx])
}

// skuFromTitle takes the word before a trailing " (...)", or the last word.
// A one-letter last word falls back to the word before it.
func skuFromTitle(title domain.Field[string]) domain.Field[string] {
	if !title.OK() {
		return domain.Missing[string]("no title to derive sku from")
	}
	text := title.Value
	if strings.Contains(text, "(") {
		head, _, _ := strings.Cut(text, " (")
		words := strings.Fields(head)
		if len(words) == 0 {
			return domain.Malformed[string]("title has no sku word")
		}
		return domain.Ok(words[len(words)-1])
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return domain.Malformed[string]("title has no sku word")
	}
	sku := words[len(words)-1]
	if len([]rune(sku)) == 1 && len(words) > 1 {
		sku = words[len(words)-2]
	}
	return domain.Ok(sku)
}

var (
	sizePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(\d+)\s*x\s*(\d+)\b`),
		regexp.MustCompile(`(?i)\((\d+)\s*x\s*(\d+)\)`),
		regexp.MustCompile(`(?i)(\d+)"?\s*[hw]\s*x\s*(\d+)"?\s*[hw]`),
		regexp.MustCompile(`(?i)(\d+)\s*inches\s*(\d+)\s*inches`),
	}
	wallpaperExpr = regexp.MustCompile(`(?i)peel[\s_-]*(?:and|&|n)?[\s_-]*stick|non[\s_-]*woven`)
)

// sizeFromText finds a WxH pair in free text such as a SKU or product cell.
func sizeFromText(text string) domain.Field[domain.SizeSpec] {
	for _, expr := range sizePatterns {
		if m := expr.FindStringSubmatch(text); m != nil {
			spec, err := domain.NewSizeSpec(m[1], m[2])
			if err != nil {
				return domain.Malformed[domain.SizeSpec](err.Error())
			}
			return domain.Ok(spec)
		}
	}
	return domain.Missing[domain.SizeSpec]("no size in " + strconv.Quote(text))
}

// materialFromSKU maps wallpaper material markers to their display name.
func materialFromSKU(sku string) string {
	m := strings.ToLower(wallpaperExpr.FindString(sku))
	switch {
	case strings.Contains(m, "peel"):
		return "Peel and Stick"
	case strings.Contains(m, "woven"):
		return "Non-Woven"
	default:
		return ""
	}
}

func titleCase(s string) string {
	return strings.TrimSpace(titleCaser.String(strings.TrimSpace(s)))
}

// parseDate reads a date with the given layout.
func parseDate(raw, layout string) domain.Field[time.Time] {
	text := cleanText(raw)
	if text == "" {
		return domain.Missing[time.Time]("empty date")
	}
	value, err := time.Parse(layout, text)
	if err != nil {
		return domain.Malformed[time.Time](fmt.Sprintf("date %q: %v", raw, err))
	}
	return domain.Ok(value)
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

// nonDefaultSpeed returns the speed when it is not a Standard/Free tier.
func nonDefaultSpeed(speed domain.Field[string], defaults ...string) string {
	if !speed.OK() {
		return ""
	}
	for _, prefix := range defaults {
		if strings.HasPrefix(speed.Value, prefix) {
			return ""
		}
	}
	return speed.Value
}

type fieldLogger struct {
	logger *slog.Logger
}

func (l fieldLogger) debug(msg string, args ...any) {
	if l.logger != nil {
		l.logger.Debug(msg, args...)
	}
}

// report narrates a field outcome at debug level.
func report[T any](l fieldLogger, name string, f domain.Field[T]) domain.Field[T] {
	if f.OK() {
		l.debug("field extracted", "field", name, "value", f.Value)
	} else {
		l.debug("field degraded", "field", name, "state", f.State.String(), "reason", f.Reason)
	}
	return f
}
