package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/polkiloo/farmsupply/internal/domain/model"
)

func at(day int) *time.Time {
	t := time.Date(2026, 10, day, 9, 0, 0, 0, time.UTC)
	return &t
}

func sampleSnapshot() model.Snapshot {
	return model.Snapshot{
		Farmers: []model.Farmer{
			{ID: 1, Name: "Uwase", Site: "Musanze", ApprovalStatus: model.StateApproved},
			{ID: 2, Name: "Habimana", Site: "Huye", ApprovalStatus: model.StatePending},
		},
		Products: []model.Product{
			{ID: 3, Name: "Maize seed", QuantityOnHand: 40, UnitPrice: decimal.NewFromInt(500), OwnerFarmerID: 1},
			{ID: 4, Name: "Beans", QuantityOnHand: 10, UnitPrice: decimal.NewFromInt(300), OwnerFarmerID: 9},
		},
		Orders: []model.Order{
			{ID: 10, ProductID: 3, Quantity: 2, TotalPrice: decimal.NewFromInt(1000), Status: model.StateApproved, OrderedAt: at(1)},
			{ID: 11, ProductID: 3, Quantity: 1, TotalPrice: decimal.NewFromInt(500), Status: model.StatePending, OrderedAt: at(1)},
			{ID: 12, ProductID: 4, Quantity: 5, TotalPrice: decimal.RequireFromString("1500.50"), Status: model.StateDelivered, OrderedAt: at(3), DeliveryDate: at(5)},
			{ID: 13, ProductID: 77, Quantity: 1, TotalPrice: decimal.NewFromInt(90), Status: model.StateRejected},
		},
	}
}

func TestCompute(t *testing.T) {
	d := Compute(sampleSnapshot())

	assert.Equal(t, 1, d.Farmers[model.StateApproved])
	assert.Equal(t, 1, d.Farmers[model.StatePending])
	assert.Equal(t, 2, d.Products)
	assert.Equal(t, int64(50), d.Stock)
	assert.Equal(t, 1, d.Orders[model.StateRejected])
	assert.True(t, decimal.RequireFromString("2500.50").Equal(d.Revenue), d.Revenue.String())
	assert.Equal(t, []DayCount{{Day: "2026-10-01", Count: 2}, {Day: "2026-10-03", Count: 1}}, d.OrdersPerDay)
}

func TestComputeEmptySnapshot(t *testing.T) {
	d := Compute(model.Snapshot{})
	assert.True(t, d.Revenue.IsZero())
	assert.Empty(t, d.OrdersPerDay)
	assert.Zero(t, d.Stock)
}

func TestWriteWorkbook(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, sampleSnapshot(), time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC)))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetOrders, SheetFarmers, SheetSummary}, f.GetSheetList())

	orders, err := f.GetRows(SheetOrders)
	require.NoError(t, err)
	require.Len(t, orders, 5)
	assert.Equal(t, "Order ID", orders[0][0])
	assert.Equal(t, "Maize seed", orders[1][1])
	assert.Equal(t, "(missing product #77)", orders[4][1])
	assert.Equal(t, "2026-10-05", orders[3][6])

	farmers, err := f.GetRows(SheetFarmers)
	require.NoError(t, err)
	require.Len(t, farmers, 3)
	assert.Equal(t, "Habimana", farmers[2][1])

	revenue, err := f.GetCellValue(SheetSummary, "B13")
	require.NoError(t, err)
	assert.Equal(t, "2500.50", revenue)
}
