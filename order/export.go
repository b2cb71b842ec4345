package order

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Orders"

var exportHeader = []any{
	"Order", "Created", "Customer", "Email", "Phone", "Items",
	"Subtotal", "Delivery fee", "Total", "Payment method", "Payment status",
	"Status", "Paid at", "Confirmed by customer",
}

// WriteXLSX renders orders as a single-sheet workbook. Money columns are in
// major units.
func WriteXLSX(w io.Writer, orders []*Order) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(exportSheet, "A1", &exportHeader); err != nil {
		return err
	}

	for i, o := range orders {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{
			o.OrderNumber,
			formatMillis(o.CreatedAt),
			o.Customer.Name,
			o.Customer.Email,
			o.Customer.Phone,
			itemCount(o.Items),
			majorUnits(o.Subtotal),
			majorUnits(o.DeliveryFee),
			majorUnits(o.Total),
			string(o.PaymentMethod),
			string(o.PaymentStatus),
			string(o.Status),
			"",
			o.PaymentConfirmedByCustomer,
		}
		if o.PaidAt != nil {
			row[12] = formatMillis(*o.PaidAt)
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("order: write xlsx: %w", err)
	}
	return nil
}

func itemCount(items []Item) int {
	n := 0
	for _, it := range items {
		n += it.Quantity
	}
	return n
}

func majorUnits(minor int64) float64 {
	return float64(minor) / 100
}

func formatMillis(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}
