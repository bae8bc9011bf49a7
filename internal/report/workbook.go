package report

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/polkiloo/farmsupply/internal/domain/model"
)

// Sheet names of the exported workbook.
const (
	SheetOrders  = "Orders"
	SheetFarmers = "Farmers"
	SheetSummary = "Summary"
)

var (
	orderHeader  = []any{"Order ID", "Product", "Quantity", "Total Price (RWF)", "Ordered By", "Status", "Delivery Date", "Ordered At"}
	farmerHeader = []any{"Farmer ID", "Name", "Tel No", "Site", "Farm Size", "Harvest Per Season", "Status"}
)

// WriteWorkbook renders snap as an XLSX workbook into w.
func WriteWorkbook(w io.Writer, snap model.Snapshot, generatedAt time.Time) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetOrders); err != nil {
		return err
	}
	if _, err := f.NewSheet(SheetFarmers); err != nil {
		return err
	}
	if _, err := f.NewSheet(SheetSummary); err != nil {
		return err
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	if err := writeOrders(f, snap, header); err != nil {
		return fmt.Errorf("orders sheet: %w", err)
	}
	if err := writeFarmers(f, snap.Farmers, header); err != nil {
		return fmt.Errorf("farmers sheet: %w", err)
	}
	if err := writeSummary(f, Compute(snap), generatedAt, header); err != nil {
		return fmt.Errorf("summary sheet: %w", err)
	}

	_, err = f.WriteTo(w)
	return err
}

func writeOrders(f *excelize.File, snap model.Snapshot, header int) error {
	products := make(map[int64]string, len(snap.Products))
	for _, p := range snap.Products {
		products[p.ID] = p.Name
	}
	if err := writeHeader(f, SheetOrders, orderHeader, header); err != nil {
		return err
	}
	for i, o := range snap.Orders {
		name, ok := products[o.ProductID]
		if !ok {
			name = fmt.Sprintf("(missing product #%d)", o.ProductID)
		}
		row := []any{o.ID, name, o.Quantity, o.TotalPrice.InexactFloat64(), o.OrderedBy, string(o.Status), date(o.DeliveryDate), date(o.OrderedAt)}
		if err := f.SetSheetRow(SheetOrders, cell(1, i+2), &row); err != nil {
			return err
		}
	}
	return f.SetColWidth(SheetOrders, "B", "B", 28)
}

func writeFarmers(f *excelize.File, farmers []model.Farmer, header int) error {
	if err := writeHeader(f, SheetFarmers, farmerHeader, header); err != nil {
		return err
	}
	for i, fm := range farmers {
		row := []any{fm.ID, fm.Name, fm.TelNo, fm.Site, fm.FarmSize, fm.HarvestPerSeason, string(fm.ApprovalStatus)}
		if err := f.SetSheetRow(SheetFarmers, cell(1, i+2), &row); err != nil {
			return err
		}
	}
	return f.SetColWidth(SheetFarmers, "B", "B", 28)
}

func writeSummary(f *excelize.File, d Dashboard, generatedAt time.Time, header int) error {
	rows := [][]any{
		{"Metric", "Value"},
		{"Generated At", generatedAt.UTC().Format(time.RFC3339)},
		{"Farmers Pending", d.Farmers[model.StatePending]},
		{"Farmers Approved", d.Farmers[model.StateApproved]},
		{"Farmers Rejected", d.Farmers[model.StateRejected]},
		{"Products", d.Products},
		{"Stock On Hand", d.Stock},
		{"Orders Pending", d.Orders[model.StatePending]},
		{"Orders Approved", d.Orders[model.StateApproved]},
		{"Orders Rejected", d.Orders[model.StateRejected]},
		{"Orders Scheduled", d.Orders[model.StateScheduled]},
		{"Orders Delivered", d.Orders[model.StateDelivered]},
		{"Revenue (RWF)", d.Revenue.StringFixed(2)},
	}
	for i := range rows {
		if err := f.SetSheetRow(SheetSummary, cell(1, i+1), &rows[i]); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(SheetSummary, "A1", "B1", header); err != nil {
		return err
	}
	return f.SetColWidth(SheetSummary, "A", "A", 22)
}

func writeHeader(f *excelize.File, sheet string, cols []any, style int) error {
	if err := f.SetSheetRow(sheet, "A1", &cols); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(cols), 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", last, style)
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func date(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(dayLayout)
}
