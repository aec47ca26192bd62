package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"medstore/m/domain"
	"medstore/m/internal/apperr"
)

// InsertStock records a delivery header together with its items in one
// transaction. IDs are written back into stock and items.
func (s *Store) InsertStock(ctx context.Context, stock *domain.Stock, items []domain.StockItem) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin stock tx: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowxContext(ctx, tx.Rebind(`INSERT INTO stock (supplier_id, total_value, created_at) VALUES (?, ?, ?) RETURNING id`),
		stock.SupplierID, stock.TotalValue, stock.CreatedAt).Scan(&stock.ID)
	if err != nil {
		return fmt.Errorf("insert stock: %w", err)
	}

	insertItem := tx.Rebind(`INSERT INTO stock_items (stock_id, medicine_id, quantity, unit_price, subtotal, expiry_date, batch_number)
        VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`)
	for i := range items {
		item := &items[i]
		item.StockID = stock.ID
		if err := tx.QueryRowxContext(ctx, insertItem, item.StockID, item.MedicineID, item.Quantity,
			item.UnitPrice, item.Subtotal, item.ExpiryDate, nullIfEmpty(item.BatchNumber)).Scan(&item.ID); err != nil {
			return fmt.Errorf("insert stock item for medicine %d: %w", item.MedicineID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit stock: %w", err)
	}
	return nil
}

// AvailableBatches returns the medicine's batches with quantity left,
// oldest delivery first.
func (s *Store) AvailableBatches(ctx context.Context, medicineID int64) ([]domain.Batch, error) {
	var batches []domain.Batch
	err := s.selectAll(ctx, &batches, `SELECT si.id, si.medicine_id, si.quantity, s.created_at AS received_at
        FROM stock_items si
        JOIN stock s ON s.id = si.stock_id
        WHERE si.medicine_id = ? AND si.quantity > 0
        ORDER BY s.created_at ASC, si.id ASC`, medicineID)
	if err != nil {
		return nil, fmt.Errorf("load batches for medicine %d: %w", medicineID, err)
	}
	return batches, nil
}

// SetBatchQuantity overwrites the remaining quantity of one stock item.
func (s *Store) SetBatchQuantity(ctx context.Context, stockItemID, quantity int64) error {
	res, err := s.exec(ctx, `UPDATE stock_items SET quantity = ? WHERE id = ?`, quantity, stockItemID)
	if err != nil {
		return fmt.Errorf("update stock item %d: %w", stockItemID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("stock item %d", stockItemID)
	}
	return nil
}

// StockFilter narrows StockRows. Zero values disable a condition.
type StockFilter struct {
	MedicineID     int64
	InStockOnly    bool
	ExpiringBefore *time.Time
	OrderBy        StockOrder
}

type StockOrder int

const (
	OrderByQuantityDesc StockOrder = iota
	OrderByExpiryAsc
	OrderByReceivedAsc
)

func (o StockOrder) clause() string {
	switch o {
	case OrderByExpiryAsc:
		return "si.expiry_date ASC, si.id ASC"
	case OrderByReceivedAsc:
		return "s.created_at ASC, si.id ASC"
	default:
		return "si.quantity DESC, si.id ASC"
	}
}

// StockRows returns stock items joined with medicine, delivery and supplier.
func (s *Store) StockRows(ctx context.Context, f StockFilter) ([]domain.StockRow, error) {
	var (
		clauses []string
		args    []any
	)
	if f.MedicineID > 0 {
		clauses = append(clauses, "si.medicine_id = ?")
		args = append(args, f.MedicineID)
	}
	if f.InStockOnly {
		clauses = append(clauses, "si.quantity > 0")
	}
	if f.ExpiringBefore != nil {
		clauses = append(clauses, "si.expiry_date IS NOT NULL", "si.expiry_date <= ?")
		args = append(args, *f.ExpiringBefore)
	}

	query := `SELECT si.id, si.medicine_id, m.name AS medicine_name, m.unit AS medicine_unit,
            si.quantity, si.unit_price, si.subtotal, si.expiry_date, si.batch_number,
            s.created_at AS received_at, sp.name AS supplier_name, sp.phone AS supplier_phone, sp.email AS supplier_email
        FROM stock_items si
        JOIN medicines m ON m.id = si.medicine_id
        JOIN stock s ON s.id = si.stock_id
        JOIN suppliers sp ON sp.id = s.supplier_id`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY " + f.OrderBy.clause()

	var rows []domain.StockRow
	if err := s.selectAll(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("load stock rows: %w", err)
	}
	return rows, nil
}

// MedicineLevel is the total on-hand quantity and value of one medicine.
type MedicineLevel struct {
	MedicineID   int64
	MedicineName string
	MedicineUnit *string
	Quantity     int64
	Value        decimal.Decimal
}

// StockLevels sums remaining quantity and value per medicine across all
// batches. Medicines that never had stock are not listed. Values are added
// up here rather than in SQL, where SQLite would sum NUMERIC as floats.
func (s *Store) StockLevels(ctx context.Context) ([]MedicineLevel, error) {
	var rows []struct {
		MedicineID   int64           `db:"medicine_id"`
		MedicineName string          `db:"medicine_name"`
		MedicineUnit *string         `db:"medicine_unit"`
		Quantity     int64           `db:"quantity"`
		UnitPrice    decimal.Decimal `db:"unit_price"`
	}
	err := s.selectAll(ctx, &rows, `SELECT m.id AS medicine_id, m.name AS medicine_name, m.unit AS medicine_unit,
            si.quantity, si.unit_price
        FROM stock_items si
        JOIN medicines m ON m.id = si.medicine_id
        ORDER BY m.name, m.id, si.id`)
	if err != nil {
		return nil, fmt.Errorf("load stock levels: %w", err)
	}

	var levels []MedicineLevel
	for _, r := range rows {
		if n := len(levels); n == 0 || levels[n-1].MedicineID != r.MedicineID {
			levels = append(levels, MedicineLevel{
				MedicineID:   r.MedicineID,
				MedicineName: r.MedicineName,
				MedicineUnit: r.MedicineUnit,
			})
		}
		l := &levels[len(levels)-1]
		l.Quantity += r.Quantity
		l.Value = l.Value.Add(r.UnitPrice.Mul(decimal.NewFromInt(r.Quantity)))
	}
	return levels, nil
}
