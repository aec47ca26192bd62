package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"medstore/m/domain"
	"medstore/m/internal/apperr"
	"medstore/m/internal/testdb"
)

var base = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

func newStore(t *testing.T) *Store {
	t.Helper()
	return New(testdb.Open(t))
}

func mustMedicine(t *testing.T, s *Store, name, price string) domain.Medicine {
	t.Helper()
	m := domain.Medicine{Name: name, Unit: strPtr("tablets"), Price: decimal.RequireFromString(price)}
	if err := s.InsertMedicine(context.Background(), &m); err != nil {
		t.Fatalf("InsertMedicine(%s): %v", name, err)
	}
	return m
}

func mustSupplier(t *testing.T, s *Store, name string) domain.Supplier {
	t.Helper()
	sup := domain.Supplier{Name: name, Phone: strPtr("555-0100"), CreatedAt: base}
	if err := s.InsertSupplier(context.Background(), &sup); err != nil {
		t.Fatalf("InsertSupplier(%s): %v", name, err)
	}
	return sup
}

func mustStock(t *testing.T, s *Store, supplierID int64, at time.Time, items ...domain.StockItem) []domain.StockItem {
	t.Helper()
	total := decimal.Zero
	for i := range items {
		items[i].Subtotal = items[i].UnitPrice.Mul(decimal.NewFromInt(items[i].Quantity))
		total = total.Add(items[i].Subtotal)
	}
	stock := domain.Stock{SupplierID: supplierID, TotalValue: total, CreatedAt: at}
	if err := s.InsertStock(context.Background(), &stock, items); err != nil {
		t.Fatalf("InsertStock: %v", err)
	}
	return items
}

func TestMedicines(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	para := mustMedicine(t, s, "Paracetamol", "2.50")
	mustMedicine(t, s, "Amoxicillin", "8")

	list, err := s.ListMedicines(ctx)
	if err != nil {
		t.Fatalf("ListMedicines: %v", err)
	}
	if len(list) != 2 || list[0].Name != "Amoxicillin" {
		t.Fatalf("ListMedicines = %+v, want 2 sorted by name", list)
	}

	got, err := s.MedicineByName(ctx, "Paracetamol")
	if err != nil {
		t.Fatalf("MedicineByName: %v", err)
	}
	if got.ID != para.ID || !got.Price.Equal(decimal.RequireFromString("2.5")) {
		t.Errorf("MedicineByName = %+v", got)
	}

	if _, err := s.MedicineByName(ctx, "Ibuprofen"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing medicine err = %v, want ErrNotFound", err)
	}

	dup := domain.Medicine{Name: "Paracetamol"}
	if err := s.InsertMedicine(ctx, &dup); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("duplicate insert err = %v, want ErrConflict", err)
	}

	got.Price = decimal.NewFromInt(3)
	got.Category = strPtr("  ")
	if err := s.UpdateMedicine(ctx, got); err != nil {
		t.Fatalf("UpdateMedicine: %v", err)
	}
	byID, err := s.MedicinesByIDs(ctx, []int64{para.ID, 999})
	if err != nil {
		t.Fatalf("MedicinesByIDs: %v", err)
	}
	if len(byID) != 1 || !byID[para.ID].Price.Equal(decimal.NewFromInt(3)) || byID[para.ID].Category != nil {
		t.Errorf("MedicinesByIDs = %+v", byID)
	}

	if n, _ := s.CountMedicines(ctx); n != 2 {
		t.Errorf("CountMedicines = %d, want 2", n)
	}
}

func TestSuppliers_DuplicateName(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	mustSupplier(t, s, "Acme Pharma")

	dup := domain.Supplier{Name: "Acme Pharma", CreatedAt: base}
	err := s.InsertSupplier(ctx, &dup)
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
	if err.Error() != "A supplier with this name already exists" {
		t.Errorf("message = %q", err.Error())
	}
}

func TestAvailableBatches_OldestFirst(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	para := mustMedicine(t, s, "Paracetamol", "2.50")
	sup := mustSupplier(t, s, "Acme Pharma")

	// Received out of order: the later insert has the earlier timestamp.
	newer := mustStock(t, s, sup.ID, base.Add(48*time.Hour),
		domain.StockItem{MedicineID: para.ID, Quantity: 10, UnitPrice: decimal.NewFromInt(1)})
	older := mustStock(t, s, sup.ID, base,
		domain.StockItem{MedicineID: para.ID, Quantity: 5, UnitPrice: decimal.NewFromInt(1)})
	mustStock(t, s, sup.ID, base.Add(time.Hour),
		domain.StockItem{MedicineID: para.ID, Quantity: 0, UnitPrice: decimal.NewFromInt(1)})

	batches, err := s.AvailableBatches(ctx, para.ID)
	if err != nil {
		t.Fatalf("AvailableBatches: %v", err)
	}
	if len(batches) != 2 {
		t.Fatalf("got %d batches, want 2 (empty batch excluded)", len(batches))
	}
	if batches[0].StockItemID != older[0].ID || batches[1].StockItemID != newer[0].ID {
		t.Errorf("order = %d,%d want %d,%d", batches[0].StockItemID, batches[1].StockItemID, older[0].ID, newer[0].ID)
	}
	if !batches[0].ReceivedAt.Equal(base) {
		t.Errorf("ReceivedAt = %v, want %v", batches[0].ReceivedAt, base)
	}

	if err := s.SetBatchQuantity(ctx, older[0].ID, 0); err != nil {
		t.Fatalf("SetBatchQuantity: %v", err)
	}
	batches, _ = s.AvailableBatches(ctx, para.ID)
	if len(batches) != 1 || batches[0].StockItemID != newer[0].ID {
		t.Errorf("after emptying oldest: %+v", batches)
	}

	if err := s.SetBatchQuantity(ctx, 12345, 1); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("unknown batch err = %v, want ErrNotFound", err)
	}
}

func TestStockRowsAndLevels(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	para := mustMedicine(t, s, "Paracetamol", "2.50")
	amox := mustMedicine(t, s, "Amoxicillin", "8")
	sup := mustSupplier(t, s, "Acme Pharma")

	soon := base.AddDate(0, 0, 5)
	later := base.AddDate(0, 6, 0)
	mustStock(t, s, sup.ID, base,
		domain.StockItem{MedicineID: para.ID, Quantity: 4, UnitPrice: decimal.RequireFromString("1.5"), ExpiryDate: &soon, BatchNumber: strPtr("P-1")},
		domain.StockItem{MedicineID: amox.ID, Quantity: 20, UnitPrice: decimal.NewFromInt(6), ExpiryDate: &later},
	)
	mustStock(t, s, sup.ID, base.Add(time.Hour),
		domain.StockItem{MedicineID: para.ID, Quantity: 3, UnitPrice: decimal.NewFromInt(2)},
	)

	rows, err := s.StockRows(ctx, StockFilter{})
	if err != nil {
		t.Fatalf("StockRows: %v", err)
	}
	if len(rows) != 3 || rows[0].MedicineName != "Amoxicillin" || rows[0].SupplierName != "Acme Pharma" {
		t.Fatalf("StockRows = %+v", rows)
	}

	cutoff := base.AddDate(0, 0, 30)
	expiring, err := s.StockRows(ctx, StockFilter{InStockOnly: true, ExpiringBefore: &cutoff, OrderBy: OrderByExpiryAsc})
	if err != nil {
		t.Fatalf("StockRows(expiring): %v", err)
	}
	if len(expiring) != 1 || expiring[0].MedicineID != para.ID || *expiring[0].BatchNumber != "P-1" {
		t.Errorf("expiring = %+v", expiring)
	}

	levels, err := s.StockLevels(ctx)
	if err != nil {
		t.Fatalf("StockLevels: %v", err)
	}
	if len(levels) != 2 {
		t.Fatalf("levels = %+v", levels)
	}
	// Sorted by name: Amoxicillin, Paracetamol.
	if levels[1].Quantity != 7 || !levels[1].Value.Equal(decimal.NewFromInt(12)) {
		t.Errorf("Paracetamol level = %+v, want 7 units worth 12", levels[1])
	}
}

func TestStockLevels_ExactCents(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	gauze := mustMedicine(t, s, "Gauze", "0.50")
	sup := mustSupplier(t, s, "Acme Pharma")
	mustStock(t, s, sup.ID, base,
		domain.StockItem{MedicineID: gauze.ID, Quantity: 1, UnitPrice: decimal.RequireFromString("0.10")},
		domain.StockItem{MedicineID: gauze.ID, Quantity: 1, UnitPrice: decimal.RequireFromString("0.20")},
	)

	levels, err := s.StockLevels(ctx)
	if err != nil {
		t.Fatalf("StockLevels: %v", err)
	}
	if len(levels) != 1 || levels[0].Quantity != 2 {
		t.Fatalf("levels = %+v", levels)
	}
	if got := levels[0].Value.String(); got != "0.3" {
		t.Errorf("Value = %s, want 0.3", got)
	}
}

func TestSales(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	para := mustMedicine(t, s, "Paracetamol", "2.50")

	for i, patient := range []string{"Alice Smith", "Bob Jones"} {
		sale := domain.Sale{PatientName: patient, TotalAmount: decimal.NewFromInt(5), CreatedAt: base.AddDate(0, i, 0)}
		if err := s.InsertSale(ctx, &sale); err != nil {
			t.Fatalf("InsertSale: %v", err)
		}
		items := []domain.SaleItem{{SaleID: sale.ID, MedicineID: para.ID, Quantity: 2, UnitPrice: decimal.RequireFromString("2.5"), Subtotal: decimal.NewFromInt(5)}}
		if err := s.InsertSaleItems(ctx, items); err != nil {
			t.Fatalf("InsertSaleItems: %v", err)
		}
		if items[0].ID == 0 {
			t.Error("sale item id not set")
		}
	}

	sales, err := s.ListSales(ctx, SalesFilter{Patient: "alice"})
	if err != nil {
		t.Fatalf("ListSales: %v", err)
	}
	if len(sales) != 1 || sales[0].PatientName != "Alice Smith" {
		t.Fatalf("ListSales(alice) = %+v", sales)
	}

	subtotals, err := s.SaleItemSubtotals(ctx, sales[0].ID)
	if err != nil || len(subtotals) != 1 || !subtotals[0].Equal(decimal.NewFromInt(5)) {
		t.Errorf("SaleItemSubtotals = %v, %v", subtotals, err)
	}

	lines, err := s.LinesForSales(ctx, []int64{sales[0].ID})
	if err != nil {
		t.Fatalf("LinesForSales: %v", err)
	}
	if l := lines[sales[0].ID]; len(l) != 1 || l[0].MedicineName != "Paracetamol" || !l[0].SoldAt.Equal(base) {
		t.Errorf("LinesForSales = %+v", lines)
	}

	recent, err := s.SaleLinesSince(ctx, base.AddDate(0, 0, 1))
	if err != nil || len(recent) != 1 {
		t.Errorf("SaleLinesSince = %+v, %v", recent, err)
	}
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	u := domain.User{Email: "Ann@Clinic.test", Password: "hash", CreatedAt: base, UpdatedAt: base}
	if err := s.InsertUser(ctx, &u); err != nil {
		t.Fatalf("InsertUser: %v", err)
	}
	dup := domain.User{Email: "ann@clinic.test", Password: "x", CreatedAt: base, UpdatedAt: base}
	if err := s.InsertUser(ctx, &dup); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("duplicate email err = %v, want ErrConflict", err)
	}

	if err := s.UpdateProfile(ctx, u.ID, "ann@new.test", strPtr("Ann Lee"), base.Add(time.Minute)); err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if err := s.UpdateAvatar(ctx, u.ID, "http://x/avatars/a.jpg", base.Add(time.Minute)); err != nil {
		t.Fatalf("UpdateAvatar: %v", err)
	}
	got, err := s.UserByEmail(ctx, "ANN@new.test")
	if err != nil {
		t.Fatalf("UserByEmail: %v", err)
	}
	if got.FullName == nil || *got.FullName != "Ann Lee" || got.AvatarURL == nil {
		t.Errorf("user = %+v", got)
	}

	if err := s.UpdatePassword(ctx, 999, "h", base); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("UpdatePassword(unknown) err = %v, want ErrNotFound", err)
	}
}
