package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"medstore/m/internal/apperr"
	"medstore/m/internal/store"
	"medstore/m/internal/testdb"
)

func newService(t *testing.T) *Service {
	t.Helper()
	return NewService(store.New(testdb.Open(t)), zap.NewNop())
}

func strPtr(s string) *string { return &s }

func TestSaveMedicine_UpsertByName(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	m, updated, err := svc.SaveMedicine(ctx, MedicineInput{Name: " Paracetamol ", Unit: strPtr("tablets"), Price: decimal.NewFromInt(2)})
	if err != nil || updated {
		t.Fatalf("SaveMedicine() = %+v, %v, %v", m, updated, err)
	}

	again, updated, err := svc.SaveMedicine(ctx, MedicineInput{Name: "Paracetamol", Category: strPtr("Analgesic"), Price: decimal.RequireFromString("2.75")})
	if err != nil || !updated {
		t.Fatalf("second SaveMedicine() updated = %v, err = %v", updated, err)
	}
	if again.ID != m.ID {
		t.Errorf("upsert created a new row: %d != %d", again.ID, m.ID)
	}

	list, err := svc.ListMedicines(ctx)
	if err != nil {
		t.Fatalf("ListMedicines() error = %v", err)
	}
	if len(list) != 1 || *list[0].Category != "Analgesic" || !list[0].Price.Equal(decimal.RequireFromString("2.75")) {
		t.Errorf("ListMedicines() = %+v", list)
	}
}

func TestSaveMedicine_Validation(t *testing.T) {
	tests := []struct {
		name string
		in   MedicineInput
	}{
		{name: "blank name", in: MedicineInput{Name: "   "}},
		{name: "negative price", in: MedicineInput{Name: "X", Price: decimal.NewFromInt(-1)}},
		{name: "fraction of a cent", in: MedicineInput{Name: "X", Price: decimal.RequireFromString("2.499")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := newService(t).SaveMedicine(context.Background(), tt.in); !apperr.IsValidation(err) {
				t.Errorf("SaveMedicine() error = %v, want validation", err)
			}
		})
	}
}

func TestAddSupplier(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	sup, err := svc.AddSupplier(ctx, SupplierInput{Name: "Acme Pharma", Phone: strPtr(""), Email: strPtr("orders@acme.test")})
	if err != nil {
		t.Fatalf("AddSupplier() error = %v", err)
	}
	if sup.ID == 0 {
		t.Error("supplier id not set")
	}

	_, err = svc.AddSupplier(ctx, SupplierInput{Name: "Acme Pharma"})
	if !errors.Is(err, apperr.ErrConflict) || err.Error() != "A supplier with this name already exists" {
		t.Errorf("duplicate AddSupplier() error = %v", err)
	}

	if _, err := svc.AddSupplier(ctx, SupplierInput{Name: "Bad", Email: strPtr("not-an-email")}); !apperr.IsValidation(err) {
		t.Errorf("bad email error = %v, want validation", err)
	}

	list, _ := svc.ListSuppliers(ctx)
	if len(list) != 1 || list[0].Phone != nil {
		t.Errorf("ListSuppliers() = %+v, want one supplier with NULL phone", list)
	}
}

func TestMedicineNames(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	m, _, err := svc.SaveMedicine(ctx, MedicineInput{Name: "Paracetamol", Price: decimal.NewFromInt(2)})
	if err != nil {
		t.Fatalf("SaveMedicine() error = %v", err)
	}

	names, err := svc.MedicineNames(ctx, []int64{m.ID, m.ID})
	if err != nil || names[m.ID] != "Paracetamol" {
		t.Errorf("MedicineNames() = %v, %v", names, err)
	}
	if _, err := svc.MedicineNames(ctx, []int64{m.ID, 77}); !apperr.IsValidation(err) {
		t.Errorf("MedicineNames(unknown) error = %v, want validation", err)
	}
}
