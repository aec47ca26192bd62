// Package sales records sales and deducts the sold stock.
package sales

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
	"medstore/m/internal/inventory"
	"medstore/m/internal/store"
)

// Store is the persistence used by Service. *store.Store implements it.
type Store interface {
	MedicinesByIDs(ctx context.Context, ids []int64) (map[int64]domain.Medicine, error)
	InsertSale(ctx context.Context, sale *domain.Sale) error
	InsertSaleItems(ctx context.Context, items []domain.SaleItem) error
	SaleItemSubtotals(ctx context.Context, saleID int64) ([]decimal.Decimal, error)
	ListSales(ctx context.Context, f store.SalesFilter) ([]domain.Sale, error)
	LinesForSales(ctx context.Context, saleIDs []int64) (map[int64][]domain.SaleLine, error)
}

// Stock checks and deducts inventory. *inventory.Service implements it.
type Stock interface {
	CheckAvailability(ctx context.Context, reqs []inventory.Request) error
	Deduct(ctx context.Context, reqs []inventory.Request) (inventory.DeductResult, error)
}

type Service struct {
	store  Store
	stock  Stock
	events events.Publisher
	log    *zap.Logger
	now    func() time.Time
}

func NewService(st Store, stock Stock, pub events.Publisher, log *zap.Logger) *Service {
	if pub == nil {
		pub = events.Noop{}
	}
	return &Service{store: st, stock: stock, events: pub, log: log, now: time.Now}
}

// Line is one medicine sold. A nil UnitPrice uses the catalog price.
type Line struct {
	MedicineID int64            `json:"medicine_id"`
	Quantity   int64            `json:"quantity"`
	UnitPrice  *decimal.Decimal `json:"unit_price,omitempty"`
}

type NewSale struct {
	PatientName string  `json:"patient_name"`
	Description *string `json:"description,omitempty"`
	Items       []Line  `json:"items"`
	// TotalAmount is optional; when set it must match the items.
	TotalAmount *decimal.Decimal `json:"total_amount,omitempty"`
}

type Receipt struct {
	Sale      domain.Sale            `json:"sale"`
	Items     []domain.SaleItem      `json:"items"`
	Deduction inventory.DeductResult `json:"deduction"`
	Warnings  []string               `json:"warnings,omitempty"`
}

// Record validates the sale, checks stock, writes the sale and its items
// and deducts stock oldest batch first. The steps are not atomic: a
// failure after the sale row is written leaves it in place, and deduction
// problems are reported as warnings on the receipt.
func (s *Service) Record(ctx context.Context, in NewSale) (*Receipt, error) {
	sale, items, reqs, err := s.validate(ctx, in)
	if err != nil {
		return nil, err
	}

	if err := s.stock.CheckAvailability(ctx, reqs); err != nil {
		var short *inventory.ShortageError
		if errors.As(err, &short) {
			s.log.Info("sale rejected for insufficient stock",
				zap.String("patient", sale.PatientName),
				zap.Int("shortfalls", len(short.Shortfalls)))
		}
		return nil, err
	}

	if err := s.store.InsertSale(ctx, &sale); err != nil {
		return nil, err
	}
	for i := range items {
		items[i].SaleID = sale.ID
	}
	if err := s.store.InsertSaleItems(ctx, items); err != nil {
		s.log.Error("sale items not written", zap.Int64("sale_id", sale.ID), zap.Error(err))
		return nil, fmt.Errorf("sale %d created but items failed: %w", sale.ID, err)
	}

	rec := &Receipt{Sale: sale, Items: items}
	if w := s.verifyTotal(ctx, sale); w != "" {
		rec.Warnings = append(rec.Warnings, w)
	}

	res, err := s.stock.Deduct(ctx, reqs)
	rec.Deduction = res
	var problems []string
	for _, f := range res.Failures {
		problems = append(problems, f.Error())
	}
	if err != nil {
		problems = append(problems, err.Error())
	}
	if len(problems) > 0 {
		rec.Warnings = append(rec.Warnings, fmt.Sprintf(
			"Sale completed but stock deduction failed: %s. Please manually adjust stock levels.",
			strings.Join(problems, "; ")))
		s.log.Warn("stock deduction incomplete", zap.Int64("sale_id", sale.ID), zap.Strings("problems", problems))
		s.publishDeductionFailed(ctx, sale.ID, res.Failures)
	}

	s.log.Info("sale recorded",
		zap.Int64("sale_id", sale.ID),
		zap.Int("items", len(items)),
		zap.String("total", sale.TotalAmount.StringFixed(2)),
		zap.Int("warnings", len(rec.Warnings)))
	s.publishRecorded(ctx, rec)
	return rec, nil
}

func (s *Service) validate(ctx context.Context, in NewSale) (domain.Sale, []domain.SaleItem, []inventory.Request, error) {
	v := &apperr.Validation{}
	patient := strings.TrimSpace(in.PatientName)
	if patient == "" {
		v.Problems = append(v.Problems, "patient name is required")
	}
	if len(in.Items) == 0 {
		v.Problems = append(v.Problems, "at least one item is required")
	}

	ids := make([]int64, 0, len(in.Items))
	for i, l := range in.Items {
		n := i + 1
		if l.MedicineID <= 0 {
			v.Problems = append(v.Problems, fmt.Sprintf("item %d: medicine is required", n))
		} else {
			ids = append(ids, l.MedicineID)
		}
		if l.Quantity < 1 || l.Quantity > inventory.MaxQuantity {
			v.Problems = append(v.Problems, fmt.Sprintf("item %d: quantity must be between 1 and %d", n, inventory.MaxQuantity))
		}
		if l.UnitPrice != nil {
			if err := domain.CheckPrice(*l.UnitPrice); err != nil {
				v.Problems = append(v.Problems, fmt.Sprintf("item %d: unit price %v", n, err))
			}
		}
	}
	if len(v.Problems) > 0 {
		return domain.Sale{}, nil, nil, v
	}

	medicines, err := s.store.MedicinesByIDs(ctx, ids)
	if err != nil {
		return domain.Sale{}, nil, nil, err
	}

	total := decimal.Zero
	items := make([]domain.SaleItem, 0, len(in.Items))
	reqs := make([]inventory.Request, 0, len(in.Items))
	for i, l := range in.Items {
		m, ok := medicines[l.MedicineID]
		if !ok {
			v.Problems = append(v.Problems, fmt.Sprintf("item %d: medicine %d does not exist", i+1, l.MedicineID))
			continue
		}
		price := m.Price
		if l.UnitPrice != nil {
			price = *l.UnitPrice
		}
		subtotal := price.Mul(decimal.NewFromInt(l.Quantity))
		total = total.Add(subtotal)
		items = append(items, domain.SaleItem{MedicineID: m.ID, Quantity: l.Quantity, UnitPrice: price, Subtotal: subtotal})
		reqs = append(reqs, inventory.Request{MedicineID: m.ID, Name: m.Name, Quantity: l.Quantity})
	}
	if in.TotalAmount != nil && len(v.Problems) == 0 && !in.TotalAmount.Equal(total) {
		v.Problems = append(v.Problems, fmt.Sprintf("total amount %s does not match items total %s",
			in.TotalAmount.StringFixed(2), total.StringFixed(2)))
	}
	if len(v.Problems) > 0 {
		return domain.Sale{}, nil, nil, v
	}

	sale := domain.Sale{
		PatientName: patient,
		TotalAmount: total,
		Description: in.Description,
		CreatedAt:   s.now().UTC(),
	}
	return sale, items, reqs, nil
}

// verifyTotal re-reads the stored item subtotals and reports a mismatch
// with the sale total.
func (s *Service) verifyTotal(ctx context.Context, sale domain.Sale) string {
	subtotals, err := s.store.SaleItemSubtotals(ctx, sale.ID)
	if err != nil {
		s.log.Warn("sale total not verified", zap.Int64("sale_id", sale.ID), zap.Error(err))
		return fmt.Sprintf("Sale total could not be verified: %v", err)
	}
	sum := decimal.Sum(decimal.Zero, subtotals...)
	if !sum.Equal(sale.TotalAmount) {
		s.log.Warn("sale total mismatch",
			zap.Int64("sale_id", sale.ID),
			zap.String("total", sale.TotalAmount.StringFixed(2)),
			zap.String("items", sum.StringFixed(2)))
		return fmt.Sprintf("Sale total %s does not match item subtotals %s",
			sale.TotalAmount.StringFixed(2), sum.StringFixed(2))
	}
	return ""
}

func (s *Service) publishRecorded(ctx context.Context, rec *Receipt) {
	payload := events.SaleRecordedPayload{
		SaleID:      rec.Sale.ID,
		PatientName: rec.Sale.PatientName,
		TotalAmount: rec.Sale.TotalAmount,
		Warnings:    rec.Warnings,
	}
	for _, it := range rec.Items {
		payload.Items = append(payload.Items, events.ItemQty{MedicineID: it.MedicineID, Quantity: it.Quantity})
	}
	if err := s.events.Publish(ctx, events.EventSaleRecorded, rec.Sale.ID, payload); err != nil {
		s.log.Warn("publish sale recorded failed", zap.Int64("sale_id", rec.Sale.ID), zap.Error(err))
	}
}

func (s *Service) publishDeductionFailed(ctx context.Context, saleID int64, failures []inventory.DeductionFailure) {
	payload := events.StockDeductionFailedPayload{SaleID: saleID}
	for _, f := range failures {
		payload.Details = append(payload.Details, events.DeductionFailureDetail{
			MedicineID: f.MedicineID,
			Medicine:   f.Medicine,
			Remaining:  f.Remaining,
		})
	}
	if err := s.events.Publish(ctx, events.EventStockDeductionFailed, saleID, payload); err != nil {
		s.log.Warn("publish deduction failure failed", zap.Int64("sale_id", saleID), zap.Error(err))
	}
}
