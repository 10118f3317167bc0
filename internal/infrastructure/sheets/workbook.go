// Package sheets writes normalized order rows into the fulfilment workbook.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/xuri/excelize/v2"

	"OrdersParser/internal/domain"
	"OrdersParser/internal/ports"
)

// Sheet names, one per print route.
const (
	SheetColored = "Colored"
	SheetSmall   = "22 roll"
	SheetLarge   = "46 roll"
	SheetError   = "ERROR"
)

// Sheets lists every sheet the workbook carries, in tab order.
var Sheets = []string{SheetColored, SheetSmall, SheetLarge, SheetError}

const (
	orderFill  = "009900"
	statusFill = "FF0000"
)

// Columns shared by all rows of one order; merged vertically for multi-item orders.
var mergedColumns = []string{
	domain.ColPostalService, domain.ColShippingSpeed, domain.ColTrackLink,
	domain.ColItemsTotal, domain.ColShippingTotal, domain.ColShippingPrice, domain.ColTotal,
}

// Columns highlighted so an operator can spot multi-item orders.
var highlightedColumns = []string{
	domain.ColOrderID, domain.ColAddress, domain.ColLabelLink, domain.ColTrackID,
}

var coloredExtensions = map[string]bool{"png": true, "jpg": true, "jpeg": true, "eps": true}

// RouteSheet picks the destination sheet for an order.
func RouteSheet(extension string, smaller domain.Field[float64], threshold float64) string {
	ext := strings.ToLower(strings.TrimSpace(extension))
	if coloredExtensions[ext] {
		return SheetColored
	}
	if ext == "" || ext == strings.ToLower(domain.SentinelUnknown) || !smaller.OK() {
		return SheetError
	}
	if smaller.Value <= threshold {
		return SheetSmall
	}
	return SheetLarge
}

// Workbook is an excelize-backed SheetWriter. Every Append is saved to disk.
type Workbook struct {
	mu        sync.Mutex
	file      *excelize.File
	path      string
	threshold float64
	logger    *slog.Logger

	orderStyle  int
	statusStyle int
}

var _ ports.SheetWriter = (*Workbook)(nil)

// Open loads the workbook at path, creating it with header rows when absent.
func Open(path string, threshold float64, logger *slog.Logger) (*Workbook, error) {
	if logger == nil {
		logger = slog.Default()
	}
	file, err := excelize.OpenFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		file = excelize.NewFile()
	case err != nil:
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}

	w := &Workbook{file: file, path: path, threshold: threshold, logger: logger.With("component", "sheets")}
	if err := w.ensureSheets(); err != nil {
		_ = file.Close()
		return nil, err
	}
	if w.orderStyle, err = fillStyle(file, orderFill); err != nil {
		_ = file.Close()
		return nil, err
	}
	if w.statusStyle, err = fillStyle(file, statusFill); err != nil {
		_ = file.Close()
		return nil, err
	}
	return w, nil
}

func fillStyle(file *excelize.File, color string) (int, error) {
	id, err := file.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{color}},
	})
	if err != nil {
		return 0, fmt.Errorf("create fill style %s: %w", color, err)
	}
	return id, nil
}

func (w *Workbook) ensureSheets() error {
	for _, name := range Sheets {
		idx, err := w.file.GetSheetIndex(name)
		if err != nil {
			return fmt.Errorf("lookup sheet %s: %w", name, err)
		}
		if idx != -1 {
			continue
		}
		if _, err := w.file.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
		for i, header := range domain.Columns {
			cell, _ := excelize.CoordinatesToCellName(i+1, 1)
			if err := w.file.SetCellValue(name, cell, header); err != nil {
				return fmt.Errorf("write header %s!%s: %w", name, cell, err)
			}
		}
	}
	// Drop the default sheet of a fresh file.
	if idx, _ := w.file.GetSheetIndex("Sheet1"); idx != -1 {
		first, _ := w.file.GetSheetIndex(Sheets[0])
		w.file.SetActiveSheet(first)
		if err := w.file.DeleteSheet("Sheet1"); err != nil {
			return fmt.Errorf("drop default sheet: %w", err)
		}
	}
	return nil
}

// Append writes one order's rows to the routed sheet and saves the workbook.
func (w *Workbook) Append(ctx context.Context, items []domain.OrderItem, extension string, smaller domain.Field[float64]) (domain.AppendResult, error) {
	if len(items) == 0 {
		return domain.AppendResult{}, errors.New("append: no rows")
	}
	if err := ctx.Err(); err != nil {
		return domain.AppendResult{}, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	sheet := RouteSheet(extension, smaller, w.threshold)
	rows, err := w.file.GetRows(sheet)
	if err != nil {
		return domain.AppendResult{}, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	first := len(rows) + 1
	last := first + len(items) - 1

	for offset, item := range items {
		row := first + offset
		values := item.Values()
		for col, header := range domain.Columns {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := w.file.SetCellValue(sheet, cell, values[header]); err != nil {
				return domain.AppendResult{}, fmt.Errorf("write %s!%s: %w", sheet, cell, err)
			}
		}
		status := cellName(domain.ColStatus, row)
		if err := w.file.SetCellStyle(sheet, status, status, w.statusStyle); err != nil {
			return domain.AppendResult{}, fmt.Errorf("style %s!%s: %w", sheet, status, err)
		}
	}

	if len(items) > 1 {
		if err := w.decorateOrder(sheet, first, last); err != nil {
			return domain.AppendResult{}, err
		}
	}

	if err := w.save(); err != nil {
		return domain.AppendResult{}, err
	}
	w.logger.Debug("rows appended", "sheet", sheet, "first_row", first, "last_row", last)
	return domain.AppendResult{Sheet: sheet, FirstRow: first, LastRow: last}, nil
}

func (w *Workbook) decorateOrder(sheet string, first, last int) error {
	for _, header := range highlightedColumns {
		top, bottom := cellName(header, first), cellName(header, last)
		if err := w.file.SetCellStyle(sheet, top, bottom, w.orderStyle); err != nil {
			return fmt.Errorf("style %s!%s:%s: %w", sheet, top, bottom, err)
		}
	}
	for _, header := range mergedColumns {
		top, bottom := cellName(header, first), cellName(header, last)
		if err := w.file.MergeCell(sheet, top, bottom); err != nil {
			return fmt.Errorf("merge %s!%s:%s: %w", sheet, top, bottom, err)
		}
	}
	return nil
}

func (w *Workbook) save() error {
	if dir := filepath.Dir(w.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create workbook dir: %w", err)
		}
	}
	if err := w.file.SaveAs(w.path); err != nil {
		return fmt.Errorf("save workbook %s: %w", w.path, err)
	}
	return nil
}

// Close releases the underlying file.
func (w *Workbook) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}

func cellName(header string, row int) string {
	for i, column := range domain.Columns {
		if column == header {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			return cell
		}
	}
	return ""
}
