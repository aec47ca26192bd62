package sales

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"medstore/m/domain"
	"medstore/m/internal/apperr"
	"medstore/m/internal/events"
	"medstore/m/internal/inventory"
	"medstore/m/internal/store"
	"medstore/m/internal/testdb"
)

var t0 = time.Date(2025, 2, 10, 9, 30, 0, 0, time.UTC)

type fixture struct {
	svc    *Service
	store  *store.Store
	inv    *inventory.Service
	events *events.Memory
	para   domain.Medicine
	amox   domain.Medicine
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

// newFixture stocks Paracetamol in an older batch of 5 and a newer batch
// of 10, and Amoxicillin in one batch of 4.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	st := store.New(testdb.Open(t))
	f := &fixture{store: st, events: &events.Memory{}}

	f.para = domain.Medicine{Name: "Paracetamol", Price: decimal.RequireFromString("2.50")}
	f.amox = domain.Medicine{Name: "Amoxicillin", Price: decimal.NewFromInt(12)}
	for _, m := range []*domain.Medicine{&f.para, &f.amox} {
		if err := st.InsertMedicine(ctx, m); err != nil {
			t.Fatalf("InsertMedicine: %v", err)
		}
	}
	sup := domain.Supplier{Name: "Acme Pharma", CreatedAt: t0}
	if err := st.InsertSupplier(ctx, &sup); err != nil {
		t.Fatalf("InsertSupplier: %v", err)
	}

	clock := t0
	f.inv = inventory.NewService(st, f.events, zap.NewNop(), inventory.Options{Now: func() time.Time { return clock }})
	for _, r := range []struct {
		at  time.Time
		med int64
		qty int64
	}{
		{t0.Add(-24 * time.Hour), f.para.ID, 10},
		{t0.Add(-48 * time.Hour), f.para.ID, 5},
		{t0.Add(-48 * time.Hour), f.amox.ID, 4},
	} {
		clock = r.at
		_, err := f.inv.Receive(ctx, inventory.Receipt{SupplierID: sup.ID, Items: []inventory.ReceiptLine{
			{MedicineID: r.med, Quantity: r.qty, UnitPrice: decimal.NewFromInt(1)},
		}})
		if err != nil {
			t.Fatalf("Receive: %v", err)
		}
	}

	f.svc = NewService(st, f.inv, f.events, zap.NewNop())
	f.svc.now = func() time.Time { return t0 }
	return f
}

func (f *fixture) quantities(t *testing.T, medicineID int64) []int64 {
	t.Helper()
	rows, err := f.store.StockRows(context.Background(), store.StockFilter{MedicineID: medicineID, OrderBy: store.OrderByReceivedAsc})
	if err != nil {
		t.Fatalf("StockRows: %v", err)
	}
	var out []int64
	for _, r := range rows {
		out = append(out, r.Quantity)
	}
	return out
}

func TestRecord_DeductsOldestBatchFirst(t *testing.T) {
	f := newFixture(t)
	rec, err := f.svc.Record(context.Background(), NewSale{
		PatientName: "  Jane Doe ",
		Items:       []Line{{MedicineID: f.para.ID, Quantity: 8}},
		TotalAmount: dec("20.00"),
	})
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if rec.Sale.ID == 0 || rec.Sale.PatientName != "Jane Doe" || !rec.Sale.TotalAmount.Equal(decimal.NewFromInt(20)) {
		t.Errorf("sale = %+v", rec.Sale)
	}
	if len(rec.Warnings) != 0 {
		t.Errorf("warnings = %v", rec.Warnings)
	}
	if got := f.quantities(t, f.para.ID); len(got) != 2 || got[0] != 0 || got[1] != 7 {
		t.Errorf("batches = %v, want [0 7]", got)
	}

	types := f.events.Types()
	if types[len(types)-1] != events.EventSaleRecorded {
		t.Errorf("last event = %s, want %s", types[len(types)-1], events.EventSaleRecorded)
	}
}

func TestRecord_InsufficientStockWritesNothing(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Record(context.Background(), NewSale{
		PatientName: "Jane",
		Items:       []Line{{MedicineID: f.para.ID, Quantity: 20}},
	})
	var short *inventory.ShortageError
	if !errors.As(err, &short) {
		t.Fatalf("Record() error = %v, want *ShortageError", err)
	}
	if !strings.Contains(err.Error(), "Paracetamol: Need 20, Available 15") {
		t.Errorf("message = %q", err.Error())
	}
	if got := f.quantities(t, f.para.ID); got[0] != 5 || got[1] != 10 {
		t.Errorf("batches changed: %v", got)
	}
	if n, _ := f.store.CountSales(context.Background()); n != 0 {
		t.Errorf("sales written = %d, want 0", n)
	}
}

func TestRecord_Validation(t *testing.T) {
	tests := []struct {
		name string
		in   func(f *fixture) NewSale
		want string
	}{
		{
			name: "missing patient",
			in:   func(f *fixture) NewSale { return NewSale{Items: []Line{{MedicineID: f.para.ID, Quantity: 1}}} },
			want: "patient name is required",
		},
		{
			name: "no items",
			in:   func(*fixture) NewSale { return NewSale{PatientName: "Jane"} },
			want: "at least one item is required",
		},
		{
			name: "zero quantity",
			in: func(f *fixture) NewSale {
				return NewSale{PatientName: "Jane", Items: []Line{{MedicineID: f.para.ID}}}
			},
			want: "item 1: quantity must be between 1 and 2147483647",
		},
		{
			name: "quantity that would overflow",
			in: func(f *fixture) NewSale {
				return NewSale{PatientName: "Jane", Items: []Line{
					{MedicineID: f.para.ID, Quantity: math.MaxInt64},
					{MedicineID: f.para.ID, Quantity: 2},
				}}
			},
			want: "item 1: quantity must be between 1 and 2147483647",
		},
		{
			name: "repeated lines above the cap",
			in: func(f *fixture) NewSale {
				return NewSale{PatientName: "Jane", Items: []Line{
					{MedicineID: f.para.ID, Quantity: inventory.MaxQuantity},
					{MedicineID: f.para.ID, Quantity: 1},
				}}
			},
			want: "Paracetamol: total quantity exceeds 2147483647",
		},
		{
			name: "fraction of a cent",
			in: func(f *fixture) NewSale {
				return NewSale{PatientName: "Jane", Items: []Line{{MedicineID: f.para.ID, Quantity: 3, UnitPrice: dec("0.333")}}}
			},
			want: "item 1: unit price cannot have more than 2 decimal places",
		},
		{
			name: "negative price",
			in: func(f *fixture) NewSale {
				return NewSale{PatientName: "Jane", Items: []Line{{MedicineID: f.para.ID, Quantity: 1, UnitPrice: dec("-1")}}}
			},
			want: "item 1: unit price cannot be negative",
		},
		{
			name: "unknown medicine",
			in: func(*fixture) NewSale {
				return NewSale{PatientName: "Jane", Items: []Line{{MedicineID: 404, Quantity: 1}}}
			},
			want: "item 1: medicine 404 does not exist",
		},
		{
			name: "total mismatch",
			in: func(f *fixture) NewSale {
				return NewSale{PatientName: "Jane", Items: []Line{{MedicineID: f.para.ID, Quantity: 2}}, TotalAmount: dec("6")}
			},
			want: "total amount 6.00 does not match items total 5.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.svc.Record(context.Background(), tt.in(f))
			if !apperr.IsValidation(err) {
				t.Fatalf("Record() error = %v, want validation", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want %q", err.Error(), tt.want)
			}
			if n, _ := f.store.CountSales(context.Background()); n != 0 {
				t.Errorf("sales written = %d, want 0", n)
			}
			if got := f.quantities(t, f.para.ID); got[0] != 5 || got[1] != 10 {
				t.Errorf("batches changed: %v", got)
			}
		})
	}
}

// raceStock passes the check but deducts against an emptied store, as
// when another sale takes the stock in between.
type raceStock struct {
	*inventory.Service
	drain func()
}

func (r raceStock) Deduct(ctx context.Context, reqs []inventory.Request) (inventory.DeductResult, error) {
	r.drain()
	return r.Service.Deduct(ctx, reqs)
}

func TestRecord_DeductionFailureIsAWarning(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.svc.stock = raceStock{Service: f.inv, drain: func() {
		rows, _ := f.store.StockRows(ctx, store.StockFilter{MedicineID: f.amox.ID})
		for _, r := range rows {
			if err := f.store.SetBatchQuantity(ctx, r.StockItemID, 1); err != nil {
				t.Errorf("SetBatchQuantity: %v", err)
			}
		}
	}}

	rec, err := f.svc.Record(ctx, NewSale{
		PatientName: "Jane",
		Items: []Line{
			{MedicineID: f.amox.ID, Quantity: 3},
			{MedicineID: f.para.ID, Quantity: 2, UnitPrice: dec("3")},
		},
	})
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	want := "Sale completed but stock deduction failed: Could not fully deduct Amoxicillin. Remaining: 2. Please manually adjust stock levels."
	if len(rec.Warnings) != 1 || rec.Warnings[0] != want {
		t.Errorf("warnings = %q, want %q", rec.Warnings, want)
	}
	if !rec.Sale.TotalAmount.Equal(decimal.NewFromInt(42)) {
		t.Errorf("total = %s, want 42", rec.Sale.TotalAmount)
	}
	if got := f.quantities(t, f.para.ID); got[0] != 3 {
		t.Errorf("paracetamol not deducted after amoxicillin failure: %v", got)
	}

	var sawFailure bool
	for _, typ := range f.events.Types() {
		if typ == events.EventStockDeductionFailed {
			sawFailure = true
		}
	}
	if !sawFailure {
		t.Errorf("events = %v, want %s", f.events.Types(), events.EventStockDeductionFailed)
	}
}

func TestHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i, patient := range []string{"Alice", "Bob"} {
		f.svc.now = func() time.Time { return t0.AddDate(0, 0, i) }
		if _, err := f.svc.Record(ctx, NewSale{PatientName: patient, Items: []Line{{MedicineID: f.para.ID, Quantity: 1}}}); err != nil {
			t.Fatalf("Record(%s): %v", patient, err)
		}
	}

	all, err := f.svc.History(ctx, HistoryFilter{})
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(all) != 2 || all[0].PatientName != "Bob" || len(all[0].Items) != 1 || all[0].Items[0].MedicineName != "Paracetamol" {
		t.Fatalf("History() = %+v", all)
	}

	day, err := f.svc.History(ctx, HistoryFilter{From: "2025-02-10", To: "2025-02-10"})
	if err != nil || len(day) != 1 || day[0].PatientName != "Alice" {
		t.Errorf("History(2025-02-10) = %+v, %v", day, err)
	}

	if _, err := f.svc.History(ctx, HistoryFilter{From: "10/02/2025"}); !apperr.IsValidation(err) {
		t.Errorf("bad date err = %v, want validation", err)
	}
}
