package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"medstore/m/domain"
)

func (s *Store) InsertSale(ctx context.Context, sale *domain.Sale) error {
	id, err := s.insertReturningID(ctx, `INSERT INTO sales (patient_name, total_amount, description, created_at) VALUES (?, ?, ?, ?)`,
		sale.PatientName, sale.TotalAmount, nullIfEmpty(sale.Description), sale.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert sale: %w", err)
	}
	sale.ID = id
	return nil
}

// InsertSaleItems writes all lines of a sale in one transaction.
func (s *Store) InsertSaleItems(ctx context.Context, items []domain.SaleItem) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin sale items tx: %w", err)
	}
	defer tx.Rollback()

	stmt := tx.Rebind(`INSERT INTO sale_items (sale_id, medicine_id, quantity, unit_price, subtotal) VALUES (?, ?, ?, ?, ?) RETURNING id`)
	for i := range items {
		item := &items[i]
		if err := tx.QueryRowxContext(ctx, stmt, item.SaleID, item.MedicineID, item.Quantity, item.UnitPrice, item.Subtotal).Scan(&item.ID); err != nil {
			return fmt.Errorf("insert sale item for medicine %d: %w", item.MedicineID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit sale items: %w", err)
	}
	return nil
}

// SaleItemSubtotals reads back the stored subtotals of a sale.
func (s *Store) SaleItemSubtotals(ctx context.Context, saleID int64) ([]decimal.Decimal, error) {
	var subtotals []decimal.Decimal
	if err := s.selectAll(ctx, &subtotals, `SELECT subtotal FROM sale_items WHERE sale_id = ? ORDER BY id`, saleID); err != nil {
		return nil, fmt.Errorf("load subtotals for sale %d: %w", saleID, err)
	}
	return subtotals, nil
}

func (s *Store) CountSales(ctx context.Context) (int64, error) {
	n, err := s.count(ctx, "sales")
	if err != nil {
		return 0, fmt.Errorf("count sales: %w", err)
	}
	return n, nil
}

// SalesFilter narrows ListSales. Zero values disable a condition.
type SalesFilter struct {
	Patient string
	From    *time.Time
	To      *time.Time
	Limit   int
}

// ListSales returns sales newest first.
func (s *Store) ListSales(ctx context.Context, f SalesFilter) ([]domain.Sale, error) {
	var (
		clauses []string
		args    []any
	)
	if p := strings.TrimSpace(f.Patient); p != "" {
		clauses = append(clauses, "LOWER(patient_name) LIKE ?")
		args = append(args, "%"+strings.ToLower(p)+"%")
	}
	if f.From != nil {
		clauses = append(clauses, "created_at >= ?")
		args = append(args, *f.From)
	}
	if f.To != nil {
		clauses = append(clauses, "created_at < ?")
		args = append(args, *f.To)
	}

	query := `SELECT id, patient_name, total_amount, description, created_at FROM sales`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	var sales []domain.Sale
	if err := s.selectAll(ctx, &sales, query, args...); err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	return sales, nil
}

const saleLineSelect = `SELECT si.id, si.sale_id, si.medicine_id, si.quantity, si.unit_price, si.subtotal,
            m.name AS medicine_name, m.unit AS medicine_unit, s.created_at AS sold_at
        FROM sale_items si
        JOIN sales s ON s.id = si.sale_id
        JOIN medicines m ON m.id = si.medicine_id`

// LinesForSales loads the lines of the given sales grouped by sale id.
func (s *Store) LinesForSales(ctx context.Context, saleIDs []int64) (map[int64][]domain.SaleLine, error) {
	out := make(map[int64][]domain.SaleLine, len(saleIDs))
	if len(saleIDs) == 0 {
		return out, nil
	}
	query, args, err := sqlx.In(saleLineSelect+` WHERE si.sale_id IN (?) ORDER BY si.id`, saleIDs)
	if err != nil {
		return nil, fmt.Errorf("prepare sale lines query: %w", err)
	}
	var lines []domain.SaleLine
	if err := s.selectAll(ctx, &lines, query, args...); err != nil {
		return nil, fmt.Errorf("load sale lines: %w", err)
	}
	for _, l := range lines {
		out[l.SaleID] = append(out[l.SaleID], l)
	}
	return out, nil
}

// SaleLinesSince returns every sold line at or after since, oldest first.
// A zero since returns all lines.
func (s *Store) SaleLinesSince(ctx context.Context, since time.Time) ([]domain.SaleLine, error) {
	query := saleLineSelect
	var args []any
	if !since.IsZero() {
		query += ` WHERE s.created_at >= ?`
		args = append(args, since)
	}
	query += ` ORDER BY s.created_at ASC, si.id ASC`

	var lines []domain.SaleLine
	if err := s.selectAll(ctx, &lines, query, args...); err != nil {
		return nil, fmt.Errorf("load sale lines: %w", err)
	}
	return lines, nil
}
