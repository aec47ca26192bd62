// Package reports aggregates sales and stock into dashboard figures.
package reports

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"medstore/m/domain"
	"medstore/m/internal/inventory"
)

// Store is the persistence used by Service. *store.Store implements it.
type Store interface {
	CountMedicines(ctx context.Context) (int64, error)
	CountSuppliers(ctx context.Context) (int64, error)
	CountSales(ctx context.Context) (int64, error)
	SaleLinesSince(ctx context.Context, since time.Time) ([]domain.SaleLine, error)
}

// Stock provides the stock figures. *inventory.Service implements it.
type Stock interface {
	LowStock(ctx context.Context, search string) ([]inventory.LowStockItem, error)
	Value(ctx context.Context) (inventory.StockValue, error)
}

type Service struct {
	store    Store
	stock    Stock
	currency string
	now      func() time.Time
}

func NewService(st Store, stock Stock, currency string) *Service {
	return &Service{store: st, stock: stock, currency: currency, now: time.Now}
}

// Display holds the overview figures formatted for the dashboard: compact
// for the cards, full for tooltips.
type Display struct {
	TotalStock     string `json:"total_stock"`
	Revenue        string `json:"revenue"`
	StockValue     string `json:"stock_value"`
	RevenueFull    string `json:"revenue_full"`
	StockValueFull string `json:"stock_value_full"`
}

type Overview struct {
	Medicines  int64           `json:"medicines"`
	Suppliers  int64           `json:"suppliers"`
	TotalStock int64           `json:"total_stock"`
	LowStock   int             `json:"low_stock"`
	Sales      int64           `json:"sales"`
	Revenue    decimal.Decimal `json:"revenue"`
	StockValue decimal.Decimal `json:"stock_value"`
	Currency   string          `json:"currency"`
	Display    Display         `json:"display"`
}

// Overview collects the dashboard counters. Revenue is the sum of sale
// item subtotals.
func (s *Service) Overview(ctx context.Context) (*Overview, error) {
	var (
		o   = &Overview{Currency: s.currency}
		err error
	)
	if o.Medicines, err = s.store.CountMedicines(ctx); err != nil {
		return nil, err
	}
	if o.Suppliers, err = s.store.CountSuppliers(ctx); err != nil {
		return nil, err
	}
	if o.Sales, err = s.store.CountSales(ctx); err != nil {
		return nil, err
	}

	value, err := s.stock.Value(ctx)
	if err != nil {
		return nil, err
	}
	o.TotalStock = value.TotalUnits
	o.StockValue = value.TotalValue

	low, err := s.stock.LowStock(ctx, "")
	if err != nil {
		return nil, err
	}
	o.LowStock = len(low)

	lines, err := s.store.SaleLinesSince(ctx, time.Time{})
	if err != nil {
		return nil, err
	}
	o.Revenue = decimal.Zero
	for _, l := range lines {
		o.Revenue = o.Revenue.Add(l.Subtotal)
	}

	o.Display = Display{
		TotalStock:     CompactCount(o.TotalStock),
		Revenue:        CompactMoney(o.Revenue, s.currency),
		StockValue:     CompactMoney(o.StockValue, s.currency),
		RevenueFull:    FormatMoney(o.Revenue, s.currency),
		StockValueFull: FormatMoney(o.StockValue, s.currency),
	}
	return o, nil
}

type MonthlyRevenue struct {
	Labels []string          `json:"labels"`
	Values []decimal.Decimal `json:"values"`
}

// Monthly buckets this year's sale item subtotals by month and returns a
// six month window: January to June until June, then the last six months.
func (s *Service) Monthly(ctx context.Context) (*MonthlyRevenue, error) {
	now := s.now().UTC()
	start := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	lines, err := s.store.SaleLinesSince(ctx, start)
	if err != nil {
		return nil, err
	}

	var buckets [12]decimal.Decimal
	for i := range buckets {
		buckets[i] = decimal.Zero
	}
	for _, l := range lines {
		m := l.SoldAt.UTC().Month() - 1
		buckets[m] = buckets[m].Add(l.Subtotal)
	}

	first := 0
	if cur := int(now.Month()) - 1; cur >= 5 {
		first = cur - 5
	}
	out := &MonthlyRevenue{}
	for m := first; m < first+6; m++ {
		out.Labels = append(out.Labels, time.Month(m + 1).String()[:3])
		out.Values = append(out.Values, buckets[m])
	}
	return out, nil
}

// Sort keys for Analytics.
const (
	SortByQuantity  = "quantity"
	SortByRevenue   = "revenue"
	SortByFrequency = "frequency"
)

type MedicineStats struct {
	MedicineID      int64           `json:"medicine_id"`
	Name            string          `json:"name"`
	Unit            string          `json:"unit"`
	TotalQuantity   int64           `json:"total_quantity"`
	TotalRevenue    decimal.Decimal `json:"total_revenue"`
	SalesCount      int             `json:"sales_count"`
	Frequency       int             `json:"frequency"`
	AverageQuantity decimal.Decimal `json:"average_quantity"`
	AveragePrice    decimal.Decimal `json:"average_price"`
}

// Analytics aggregates the sale lines of the last days per medicine,
// sorted by the given key (quantity when empty or unknown).
func (s *Service) Analytics(ctx context.Context, days int, sortBy string) ([]MedicineStats, error) {
	if days <= 0 {
		days = 30
	}
	lines, err := s.store.SaleLinesSince(ctx, s.now().UTC().AddDate(0, 0, -days))
	if err != nil {
		return nil, err
	}

	stats := make(map[int64]*MedicineStats)
	sales := make(map[int64]map[int64]struct{})
	var order []int64
	for _, l := range lines {
		st, ok := stats[l.MedicineID]
		if !ok {
			unit := "units"
			if l.MedicineUnit != nil && *l.MedicineUnit != "" {
				unit = *l.MedicineUnit
			}
			st = &MedicineStats{MedicineID: l.MedicineID, Name: l.MedicineName, Unit: unit, TotalRevenue: decimal.Zero}
			stats[l.MedicineID] = st
			sales[l.MedicineID] = make(map[int64]struct{})
			order = append(order, l.MedicineID)
		}
		st.TotalQuantity += l.Quantity
		st.TotalRevenue = st.TotalRevenue.Add(l.Subtotal)
		st.SalesCount++
		sales[l.MedicineID][l.SaleID] = struct{}{}
	}

	out := make([]MedicineStats, 0, len(order))
	for _, id := range order {
		st := stats[id]
		st.Frequency = len(sales[id])
		st.AverageQuantity = decimal.NewFromInt(st.TotalQuantity).Div(decimal.NewFromInt(int64(st.SalesCount))).Round(2)
		st.AveragePrice = st.TotalRevenue.Div(decimal.NewFromInt(st.TotalQuantity)).Round(2)
		out = append(out, *st)
	}

	sort.SliceStable(out, func(i, j int) bool {
		switch sortBy {
		case SortByRevenue:
			return out[i].TotalRevenue.GreaterThan(out[j].TotalRevenue)
		case SortByFrequency:
			return out[i].Frequency > out[j].Frequency
		default:
			return out[i].TotalQuantity > out[j].TotalQuantity
		}
	})
	return out, nil
}

// TopSelling returns the best sellers by quantity over the last 30 days.
func (s *Service) TopSelling(ctx context.Context, limit int) ([]MedicineStats, error) {
	if limit <= 0 {
		limit = 5
	}
	stats, err := s.Analytics(ctx, 30, SortByQuantity)
	if err != nil {
		return nil, err
	}
	if len(stats) > limit {
		stats = stats[:limit]
	}
	return stats, nil
}
