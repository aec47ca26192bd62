// Package inventory owns stock levels: availability checks, FIFO
// deduction, receipt of deliveries and the stock views built on them.
package inventory

import (
	"context"
	"fmt"
	"math"
	"strings"

	"medstore/m/domain"
	"medstore/m/internal/apperr"
)

// MaxQuantity caps the units of one medicine in a single request.
const MaxQuantity = math.MaxInt32

// BatchStore is the storage needed to check and deduct stock.
type BatchStore interface {
	AvailableBatches(ctx context.Context, medicineID int64) ([]domain.Batch, error)
	SetBatchQuantity(ctx context.Context, stockItemID, quantity int64) error
}

// Request asks for Quantity units of one medicine. Name is used in
// messages only.
type Request struct {
	MedicineID int64
	Name       string
	Quantity   int64
}

type Shortfall struct {
	MedicineID int64  `json:"medicine_id"`
	Name       string `json:"name"`
	Required   int64  `json:"required"`
	Available  int64  `json:"available"`
}

// ShortageError rejects an operation because at least one medicine has
// fewer units on hand than requested.
type ShortageError struct {
	Shortfalls []Shortfall
}

func (e *ShortageError) Error() string {
	var b strings.Builder
	b.WriteString("Insufficient stock for:")
	for _, s := range e.Shortfalls {
		fmt.Fprintf(&b, "\n• %s: Need %d, Available %d", s.Name, s.Required, s.Available)
	}
	return b.String()
}

// merge sums the quantities of repeated medicines, keeping first-seen order.
// Quantities outside 1..MaxQuantity, alone or summed, are a validation error.
func merge(reqs []Request) ([]Request, error) {
	idx := make(map[int64]int, len(reqs))
	out := make([]Request, 0, len(reqs))
	for _, r := range reqs {
		if r.Quantity < 1 || r.Quantity > MaxQuantity {
			return nil, apperr.Invalid("%s: quantity must be between 1 and %d", r.Name, MaxQuantity)
		}
		if i, ok := idx[r.MedicineID]; ok {
			if out[i].Quantity > MaxQuantity-r.Quantity {
				return nil, apperr.Invalid("%s: total quantity exceeds %d", r.Name, MaxQuantity)
			}
			out[i].Quantity += r.Quantity
			continue
		}
		idx[r.MedicineID] = len(out)
		out = append(out, r)
	}
	return out, nil
}

// Check verifies every requested medicine has enough units across its
// batches. It returns a *ShortageError naming each shortfall, and never
// writes.
func Check(ctx context.Context, st BatchStore, reqs []Request) error {
	merged, err := merge(reqs)
	if err != nil {
		return err
	}
	var shortfalls []Shortfall
	for _, r := range merged {
		batches, err := st.AvailableBatches(ctx, r.MedicineID)
		if err != nil {
			return fmt.Errorf("check stock for %s: %w", r.Name, err)
		}
		var available int64
		for _, b := range batches {
			available += b.Quantity
		}
		if available < r.Quantity {
			shortfalls = append(shortfalls, Shortfall{
				MedicineID: r.MedicineID,
				Name:       r.Name,
				Required:   r.Quantity,
				Available:  available,
			})
		}
	}
	if len(shortfalls) > 0 {
		return &ShortageError{Shortfalls: shortfalls}
	}
	return nil
}
