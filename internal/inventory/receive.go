package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"medstore/m/domain"
	"medstore/m/internal/apperr"
	"medstore/m/internal/events"
)

const dateLayout = "2006-01-02"

// ReceiptLine is one medicine in a delivery. A medicine is identified by
// id or, when the id is zero, by exact name.
type ReceiptLine struct {
	MedicineID   int64           `json:"medicine_id"`
	MedicineName string          `json:"medicine_name"`
	Quantity     int64           `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	ExpiryDate   string          `json:"expiry_date"`
	BatchNumber  string          `json:"batch_number"`
}

type Receipt struct {
	SupplierID   int64         `json:"supplier_id"`
	SupplierName string        `json:"supplier_name"`
	Items        []ReceiptLine `json:"items"`
}

type Received struct {
	Stock domain.Stock       `json:"stock"`
	Items []domain.StockItem `json:"items"`
}

// Receive records a delivery: one Stock row valued at the sum of its
// lines and one StockItem per line.
func (s *Service) Receive(ctx context.Context, in Receipt) (*Received, error) {
	v := &apperr.Validation{}

	supplier, err := s.resolveSupplier(ctx, in)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		v.Problems = append(v.Problems, "supplier does not exist")
	case err != nil:
		return nil, err
	case supplier == nil:
		v.Problems = append(v.Problems, "supplier is required")
	}
	if len(in.Items) == 0 {
		v.Problems = append(v.Problems, "at least one item is required")
	}

	items := make([]domain.StockItem, 0, len(in.Items))
	total := decimal.Zero
	for i, line := range in.Items {
		item, problems, err := s.receiptItem(ctx, i+1, line)
		if err != nil {
			return nil, err
		}
		if len(problems) > 0 {
			v.Problems = append(v.Problems, problems...)
			continue
		}
		total = total.Add(item.Subtotal)
		items = append(items, item)
	}
	if len(v.Problems) > 0 {
		return nil, v
	}

	stock := domain.Stock{SupplierID: supplier.ID, TotalValue: total, CreatedAt: s.now()}
	if err := s.store.InsertStock(ctx, &stock, items); err != nil {
		return nil, err
	}

	s.log.Info("stock received",
		zap.Int64("stock_id", stock.ID),
		zap.Int64("supplier_id", supplier.ID),
		zap.Int("items", len(items)),
		zap.String("total_value", total.StringFixed(2)))

	payload := events.StockReceivedPayload{StockID: stock.ID, SupplierID: supplier.ID, TotalValue: total}
	for _, it := range items {
		payload.Items = append(payload.Items, events.ItemQty{MedicineID: it.MedicineID, Quantity: it.Quantity})
	}
	if err := s.events.Publish(ctx, events.EventStockReceived, stock.ID, payload); err != nil {
		s.log.Warn("publish stock received failed", zap.Int64("stock_id", stock.ID), zap.Error(err))
	}

	return &Received{Stock: stock, Items: items}, nil
}

// resolveSupplier returns nil, nil when the receipt names no supplier.
func (s *Service) resolveSupplier(ctx context.Context, in Receipt) (*domain.Supplier, error) {
	if in.SupplierID > 0 {
		return s.store.SupplierByID(ctx, in.SupplierID)
	}
	name := strings.TrimSpace(in.SupplierName)
	if name == "" {
		return nil, nil
	}
	return s.store.SupplierByName(ctx, name)
}

// receiptItem validates one line. Validation problems are returned
// separately from storage errors.
func (s *Service) receiptItem(ctx context.Context, n int, line ReceiptLine) (domain.StockItem, []string, error) {
	var problems []string
	item := domain.StockItem{Quantity: line.Quantity, UnitPrice: line.UnitPrice}

	switch {
	case line.MedicineID > 0:
		found, err := s.store.MedicinesByIDs(ctx, []int64{line.MedicineID})
		if err != nil {
			return item, nil, err
		}
		if _, ok := found[line.MedicineID]; !ok {
			problems = append(problems, fmt.Sprintf("item %d: medicine %d does not exist", n, line.MedicineID))
		}
		item.MedicineID = line.MedicineID
	case strings.TrimSpace(line.MedicineName) != "":
		m, err := s.store.MedicineByName(ctx, strings.TrimSpace(line.MedicineName))
		if errors.Is(err, apperr.ErrNotFound) {
			problems = append(problems, fmt.Sprintf("item %d: medicine %q does not exist", n, line.MedicineName))
		} else if err != nil {
			return item, nil, err
		} else {
			item.MedicineID = m.ID
		}
	default:
		problems = append(problems, fmt.Sprintf("item %d: medicine is required", n))
	}

	if line.Quantity < 1 || line.Quantity > MaxQuantity {
		problems = append(problems, fmt.Sprintf("item %d: quantity must be between 1 and %d", n, MaxQuantity))
	}
	if err := domain.CheckPrice(line.UnitPrice); err != nil {
		problems = append(problems, fmt.Sprintf("item %d: unit price %v", n, err))
	}
	if d := strings.TrimSpace(line.ExpiryDate); d != "" {
		t, err := time.Parse(dateLayout, d)
		if err != nil {
			problems = append(problems, fmt.Sprintf("item %d: expiry date must be YYYY-MM-DD", n))
		} else {
			item.ExpiryDate = &t
		}
	}
	if b := strings.TrimSpace(line.BatchNumber); b != "" {
		item.BatchNumber = &b
	}

	item.Subtotal = line.UnitPrice.Mul(decimal.NewFromInt(line.Quantity))
	return item, problems, nil
}
