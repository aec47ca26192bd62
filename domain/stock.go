package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Stock is one supplier delivery. Its CreatedAt orders batches for FIFO
// deduction.
type Stock struct {
	ID         int64           `db:"id" json:"id"`
	SupplierID int64           `db:"supplier_id" json:"supplier_id"`
	TotalValue decimal.Decimal `db:"total_value" json:"total_value"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}

type StockItem struct {
	ID          int64           `db:"id" json:"id"`
	StockID     int64           `db:"stock_id" json:"stock_id"`
	MedicineID  int64           `db:"medicine_id" json:"medicine_id"`
	Quantity    int64           `db:"quantity" json:"quantity"`
	UnitPrice   decimal.Decimal `db:"unit_price" json:"unit_price"`
	Subtotal    decimal.Decimal `db:"subtotal" json:"subtotal"`
	ExpiryDate  *time.Time      `db:"expiry_date" json:"expiry_date,omitempty"`
	BatchNumber *string         `db:"batch_number" json:"batch_number,omitempty"`
}

// Batch is a StockItem paired with the receipt time of its parent Stock.
type Batch struct {
	StockItemID int64     `db:"id" json:"stock_item_id"`
	MedicineID  int64     `db:"medicine_id" json:"medicine_id"`
	Quantity    int64     `db:"quantity" json:"quantity"`
	ReceivedAt  time.Time `db:"received_at" json:"received_at"`
}

// StockRow is a StockItem joined with its medicine, batch and supplier.
type StockRow struct {
	StockItemID   int64           `db:"id" json:"id"`
	MedicineID    int64           `db:"medicine_id" json:"medicine_id"`
	MedicineName  string          `db:"medicine_name" json:"medicine_name"`
	MedicineUnit  *string         `db:"medicine_unit" json:"-"`
	Quantity      int64           `db:"quantity" json:"quantity"`
	UnitPrice     decimal.Decimal `db:"unit_price" json:"unit_price"`
	Subtotal      decimal.Decimal `db:"subtotal" json:"subtotal"`
	ExpiryDate    *time.Time      `db:"expiry_date" json:"expiry_date,omitempty"`
	BatchNumber   *string         `db:"batch_number" json:"batch_number,omitempty"`
	ReceivedAt    time.Time       `db:"received_at" json:"received_at"`
	SupplierName  string          `db:"supplier_name" json:"supplier_name"`
	SupplierPhone *string         `db:"supplier_phone" json:"supplier_phone,omitempty"`
	SupplierEmail *string         `db:"supplier_email" json:"supplier_email,omitempty"`
}

func (r StockRow) Unit() string { return unitOrDefault(r.MedicineUnit) }
