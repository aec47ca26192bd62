package sales

import (
	"context"
	"strings"
	"time"

	"medstore/m/domain"
	"medstore/m/internal/apperr"
	"medstore/m/internal/store"
)

const dateLayout = "2006-01-02"

// HistoryFilter dates are YYYY-MM-DD; To is inclusive.
type HistoryFilter struct {
	Patient string
	From    string
	To      string
	Limit   int
}

type SaleWithItems struct {
	domain.Sale
	Items []domain.SaleLine `json:"items"`
}

// History lists sales with their lines, newest first.
func (s *Service) History(ctx context.Context, f HistoryFilter) ([]SaleWithItems, error) {
	filter := store.SalesFilter{Patient: f.Patient, Limit: f.Limit}
	if d := strings.TrimSpace(f.From); d != "" {
		from, err := time.Parse(dateLayout, d)
		if err != nil {
			return nil, apperr.Invalid("start date must be YYYY-MM-DD")
		}
		filter.From = &from
	}
	if d := strings.TrimSpace(f.To); d != "" {
		to, err := time.Parse(dateLayout, d)
		if err != nil {
			return nil, apperr.Invalid("end date must be YYYY-MM-DD")
		}
		to = to.AddDate(0, 0, 1)
		filter.To = &to
	}
	if filter.From != nil && filter.To != nil && !filter.From.Before(*filter.To) {
		return nil, apperr.Invalid("start date must not be after end date")
	}

	list, err := s.store.ListSales(ctx, filter)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(list))
	for i, sale := range list {
		ids[i] = sale.ID
	}
	lines, err := s.store.LinesForSales(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]SaleWithItems, len(list))
	for i, sale := range list {
		out[i] = SaleWithItems{Sale: sale, Items: lines[sale.ID]}
		if out[i].Items == nil {
			out[i].Items = []domain.SaleLine{}
		}
	}
	return out, nil
}
