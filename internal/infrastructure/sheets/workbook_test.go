package sheets

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"OrdersParser/internal/domain"
)

func TestRouteSheet(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		ext     string
		smaller domain.Field[float64]
		want    string
	}{
		{"colored png", "png", domain.Malformed[float64]("n/a"), SheetColored},
		{"colored upper-case", "JPEG", domain.Ok(50.0), SheetColored},
		{"small roll boundary", "pdf", domain.Ok(22.0), SheetSmall},
		{"large roll", "svg", domain.Ok(22.5), SheetLarge},
		{"unknown extension", domain.SentinelUnknown, domain.Ok(10.0), SheetError},
		{"size not recovered", "pdf", domain.Malformed[float64]("bad"), SheetError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, RouteSheet(tc.ext, tc.smaller, 22))
		})
	}
}

func row(orderID, sku string, qty domain.Field[int]) domain.OrderItem {
	return domain.OrderItem{
		Status:        "Not Started",
		Channel:       domain.ChannelEtsy,
		OrderID:       orderID,
		SKU:           sku,
		Quantity:      qty,
		PostalService: "USPS",
		Total:         42.5,
	}
}

func TestAppendCreatesWorkbookAndMergesMultiItemOrders(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "orders.xlsx")
	wb, err := Open(path, 22, nil)
	require.NoError(t, err)

	res, err := wb.Append(context.Background(), []domain.OrderItem{
		row("A1", "SKU-1", domain.Ok(2)),
		row("A1", "SKU-2", domain.Malformed[int]("x")),
	}, "pdf", domain.Ok(12.0))
	require.NoError(t, err)
	assert.Equal(t, domain.AppendResult{Sheet: SheetSmall, FirstRow: 2, LastRow: 3}, res)

	res, err = wb.Append(context.Background(), []domain.OrderItem{row("B2", "SKU-3", domain.Ok(1))}, "png", domain.Ok(30.0))
	require.NoError(t, err)
	assert.Equal(t, SheetColored, res.Sheet)
	assert.Equal(t, 2, res.FirstRow)
	require.NoError(t, wb.Close())

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, Sheets, f.GetSheetList())

	header, err := f.GetCellValue(SheetSmall, "A1")
	require.NoError(t, err)
	assert.Equal(t, domain.ColStatus, header)

	sku, _ := f.GetCellValue(SheetSmall, "F3")
	assert.Equal(t, "SKU-2", sku)
	qty, _ := f.GetCellValue(SheetSmall, "K2")
	assert.Equal(t, "2", qty)
	badQty, _ := f.GetCellValue(SheetSmall, "K3")
	assert.Equal(t, domain.SentinelError, badQty)

	merges, err := f.GetMergeCells(SheetSmall)
	require.NoError(t, err)
	assert.Len(t, merges, len(mergedColumns))
	ranges := map[string]bool{}
	for _, m := range merges {
		ranges[m.GetStartAxis()+":"+m.GetEndAxis()] = true
	}
	assert.True(t, ranges["Q2:Q3"], "postal service merged, got %v", ranges)
	assert.True(t, ranges["W2:W3"], "total merged, got %v", ranges)

	single, err := f.GetMergeCells(SheetColored)
	require.NoError(t, err)
	assert.Empty(t, single)
}

func TestAppendReopensExistingWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.xlsx")

	wb, err := Open(path, 22, nil)
	require.NoError(t, err)
	_, err = wb.Append(context.Background(), []domain.OrderItem{row("A1", "S", domain.Ok(1))}, "eps", domain.Ok(1.0))
	require.NoError(t, err)
	require.NoError(t, wb.Close())

	wb, err = Open(path, 22, nil)
	require.NoError(t, err)
	defer wb.Close()
	res, err := wb.Append(context.Background(), []domain.OrderItem{row("B2", "S", domain.Ok(1))}, "eps", domain.Ok(1.0))
	require.NoError(t, err)
	assert.Equal(t, 3, res.FirstRow)
}

func TestAppendRejectsEmptyOrder(t *testing.T) {
	wb, err := Open(filepath.Join(t.TempDir(), "orders.xlsx"), 22, nil)
	require.NoError(t, err)
	defer wb.Close()

	_, err = wb.Append(context.Background(), nil, "png", domain.Ok(1.0))
	assert.Error(t, err)
}
