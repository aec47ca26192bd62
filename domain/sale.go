package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Sale struct {
	ID          int64           `db:"id" json:"id"`
	PatientName string          `db:"patient_name" json:"patient_name"`
	TotalAmount decimal.Decimal `db:"total_amount" json:"total_amount"`
	Description *string         `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}

type SaleItem struct {
	ID         int64           `db:"id" json:"id"`
	SaleID     int64           `db:"sale_id" json:"sale_id"`
	MedicineID int64           `db:"medicine_id" json:"medicine_id"`
	Quantity   int64           `db:"quantity" json:"quantity"`
	UnitPrice  decimal.Decimal `db:"unit_price" json:"unit_price"`
	Subtotal   decimal.Decimal `db:"subtotal" json:"subtotal"`
}

// SaleLine is a SaleItem joined with its medicine and the sale's timestamp.
type SaleLine struct {
	SaleItem
	MedicineName string    `db:"medicine_name" json:"medicine_name"`
	MedicineUnit *string   `db:"medicine_unit" json:"medicine_unit,omitempty"`
	SoldAt       time.Time `db:"sold_at" json:"sold_at"`
}
