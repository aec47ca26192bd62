package inventory

import (
	"context"
	"fmt"
)

// Decrement records units taken from one batch.
type Decrement struct {
	StockItemID int64 `json:"stock_item_id"`
	MedicineID  int64 `json:"medicine_id"`
	Taken       int64 `json:"taken"`
	Left        int64 `json:"left"`
}

// DeductionFailure means a medicine's batches ran out before the request
// was met. Remaining is the undeducted quantity.
type DeductionFailure struct {
	MedicineID int64  `json:"medicine_id"`
	Medicine   string `json:"medicine"`
	Remaining  int64  `json:"remaining"`
}

func (f DeductionFailure) Error() string {
	return fmt.Sprintf("Could not fully deduct %s. Remaining: %d", f.Medicine, f.Remaining)
}

type DeductResult struct {
	Decrements []Decrement        `json:"decrements"`
	Failures   []DeductionFailure `json:"failures,omitempty"`
}

// Deduct removes the requested quantities oldest batch first. Each batch
// is written individually and never goes below zero. A medicine whose
// batches run out is recorded in Failures and the next one is processed.
// A storage error stops the walk; decrements already written stay.
func Deduct(ctx context.Context, st BatchStore, reqs []Request) (DeductResult, error) {
	var res DeductResult
	merged, err := merge(reqs)
	if err != nil {
		return res, err
	}
	for _, r := range merged {
		batches, err := st.AvailableBatches(ctx, r.MedicineID)
		if err != nil {
			return res, fmt.Errorf("load batches for %s: %w", r.Name, err)
		}

		remaining := r.Quantity
		for _, b := range batches {
			if remaining <= 0 {
				break
			}
			take := min(remaining, b.Quantity)
			if take <= 0 {
				continue
			}
			left := b.Quantity - take
			if err := st.SetBatchQuantity(ctx, b.StockItemID, left); err != nil {
				return res, fmt.Errorf("deduct %s from batch %d: %w", r.Name, b.StockItemID, err)
			}
			res.Decrements = append(res.Decrements, Decrement{
				StockItemID: b.StockItemID,
				MedicineID:  r.MedicineID,
				Taken:       take,
				Left:        left,
			})
			remaining -= take
		}

		if remaining > 0 {
			res.Failures = append(res.Failures, DeductionFailure{
				MedicineID: r.MedicineID,
				Medicine:   r.Name,
				Remaining:  remaining,
			})
		}
	}
	return res, nil
}
