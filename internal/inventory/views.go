package inventory

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"medstore/m/domain"
	"medstore/m/internal/store"
)

// Expiry urgency levels.
const (
	UrgencyExpired = "expired"
	UrgencyUrgent  = "urgent"
	UrgencyWarning = "warning"
)

func matches(search string, names ...string) bool {
	if search == "" {
		return true
	}
	for _, n := range names {
		if strings.Contains(strings.ToLower(n), search) {
			return true
		}
	}
	return false
}

// Overview lists every stock item, largest quantity first. search matches
// medicine or supplier names case-insensitively.
func (s *Service) Overview(ctx context.Context, search string) ([]domain.StockRow, error) {
	rows, err := s.store.StockRows(ctx, store.StockFilter{OrderBy: store.OrderByQuantityDesc})
	if err != nil {
		return nil, err
	}
	search = strings.ToLower(strings.TrimSpace(search))
	out := rows[:0]
	for _, r := range rows {
		if matches(search, r.MedicineName, r.SupplierName) {
			out = append(out, r)
		}
	}
	return out, nil
}

type SupplierShare struct {
	Name      string          `json:"name"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Phone     *string         `json:"phone,omitempty"`
	Email     *string         `json:"email,omitempty"`
}

type LowStockItem struct {
	MedicineID    int64           `json:"medicine_id"`
	Name          string          `json:"name"`
	Unit          string          `json:"unit"`
	TotalQuantity int64           `json:"total_quantity"`
	Suppliers     []SupplierShare `json:"suppliers"`
}

// LowStock groups stock per medicine and keeps medicines whose total
// across all batches is below the threshold, lowest first.
func (s *Service) LowStock(ctx context.Context, search string) ([]LowStockItem, error) {
	rows, err := s.store.StockRows(ctx, store.StockFilter{OrderBy: store.OrderByReceivedAsc})
	if err != nil {
		return nil, err
	}
	search = strings.ToLower(strings.TrimSpace(search))

	byMedicine := make(map[int64]*LowStockItem)
	var order []int64
	for _, r := range rows {
		item, ok := byMedicine[r.MedicineID]
		if !ok {
			item = &LowStockItem{MedicineID: r.MedicineID, Name: r.MedicineName, Unit: r.Unit()}
			byMedicine[r.MedicineID] = item
			order = append(order, r.MedicineID)
		}
		item.TotalQuantity += r.Quantity
		if r.Quantity > 0 {
			item.Suppliers = append(item.Suppliers, SupplierShare{
				Name:      r.SupplierName,
				Quantity:  r.Quantity,
				UnitPrice: r.UnitPrice,
				Phone:     r.SupplierPhone,
				Email:     r.SupplierEmail,
			})
		}
	}

	var out []LowStockItem
	for _, id := range order {
		item := byMedicine[id]
		if item.TotalQuantity >= s.opts.LowStockThreshold {
			continue
		}
		names := []string{item.Name}
		for _, sup := range item.Suppliers {
			names = append(names, sup.Name)
		}
		if matches(search, names...) {
			out = append(out, *item)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TotalQuantity != out[j].TotalQuantity {
			return out[i].TotalQuantity < out[j].TotalQuantity
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

type ExpiryAlert struct {
	domain.StockRow
	UnitName string `json:"unit"`
	DaysLeft int    `json:"days_left"`
	Urgency  string `json:"urgency"`
}

// Expiring lists in-stock batches expiring within the configured window,
// soonest first. Already expired batches are included.
func (s *Service) Expiring(ctx context.Context) ([]ExpiryAlert, error) {
	now := s.now()
	cutoff := now.AddDate(0, 0, s.opts.ExpiryWindowDays)
	rows, err := s.store.StockRows(ctx, store.StockFilter{
		InStockOnly:    true,
		ExpiringBefore: &cutoff,
		OrderBy:        store.OrderByExpiryAsc,
	})
	if err != nil {
		return nil, err
	}

	alerts := make([]ExpiryAlert, 0, len(rows))
	for _, r := range rows {
		days := DaysUntil(now, *r.ExpiryDate)
		alerts = append(alerts, ExpiryAlert{StockRow: r, UnitName: r.Unit(), DaysLeft: days, Urgency: Urgency(days)})
	}
	return alerts, nil
}

// DaysUntil returns the whole days from now to t, rounded up.
func DaysUntil(now, t time.Time) int {
	return int(math.Ceil(t.Sub(now).Hours() / 24))
}

func Urgency(daysLeft int) string {
	switch {
	case daysLeft < 0:
		return UrgencyExpired
	case daysLeft <= 7:
		return UrgencyUrgent
	default:
		return UrgencyWarning
	}
}

type StockValue struct {
	TotalValue decimal.Decimal `json:"total_value"`
	TotalUnits int64           `json:"total_units"`
}

// Value sums quantity × unit price and the units on hand across all batches.
func (s *Service) Value(ctx context.Context) (StockValue, error) {
	levels, err := s.store.StockLevels(ctx)
	if err != nil {
		return StockValue{}, err
	}
	v := StockValue{TotalValue: decimal.Zero}
	for _, l := range levels {
		v.TotalValue = v.TotalValue.Add(l.Value)
		v.TotalUnits += l.Quantity
	}
	return v, nil
}
