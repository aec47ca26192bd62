// Package catalog manages medicines and suppliers.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"medstore/m/domain"
	"medstore/m/internal/apperr"
)

// Store is the persistence used by Service. *store.Store implements it.
type Store interface {
	ListMedicines(ctx context.Context) ([]domain.Medicine, error)
	MedicineByName(ctx context.Context, name string) (*domain.Medicine, error)
	MedicinesByIDs(ctx context.Context, ids []int64) (map[int64]domain.Medicine, error)
	InsertMedicine(ctx context.Context, m *domain.Medicine) error
	UpdateMedicine(ctx context.Context, m *domain.Medicine) error
	ListSuppliers(ctx context.Context) ([]domain.Supplier, error)
	InsertSupplier(ctx context.Context, s *domain.Supplier) error
}

type Service struct {
	store Store
	log   *zap.Logger
	now   func() time.Time
}

func NewService(st Store, log *zap.Logger) *Service {
	return &Service{store: st, log: log, now: time.Now}
}

func (s *Service) ListMedicines(ctx context.Context) ([]domain.Medicine, error) {
	return s.store.ListMedicines(ctx)
}

// MedicineNames resolves medicine ids to names. Unknown ids are a
// validation error.
func (s *Service) MedicineNames(ctx context.Context, ids []int64) (map[int64]string, error) {
	found, err := s.store.MedicinesByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(found))
	v := &apperr.Validation{}
	for _, id := range ids {
		m, ok := found[id]
		if !ok {
			v.Problems = append(v.Problems, fmt.Sprintf("medicine %d does not exist", id))
			continue
		}
		names[id] = m.Name
	}
	if len(v.Problems) > 0 {
		return nil, v
	}
	return names, nil
}

type MedicineInput struct {
	Name        string          `json:"name"`
	Unit        *string         `json:"unit,omitempty"`
	Category    *string         `json:"category,omitempty"`
	Description *string         `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
}

// SaveMedicine inserts a medicine, or updates the one with the same name.
// updated reports which happened.
func (s *Service) SaveMedicine(ctx context.Context, in MedicineInput) (m *domain.Medicine, updated bool, err error) {
	name := strings.TrimSpace(in.Name)
	v := &apperr.Validation{}
	if name == "" {
		v.Problems = append(v.Problems, "medicine name is required")
	}
	if err := domain.CheckPrice(in.Price); err != nil {
		v.Problems = append(v.Problems, fmt.Sprintf("price %v", err))
	}
	if len(v.Problems) > 0 {
		return nil, false, v
	}

	existing, err := s.store.MedicineByName(ctx, name)
	switch {
	case err == nil:
		existing.Unit = in.Unit
		existing.Category = in.Category
		existing.Description = in.Description
		existing.Price = in.Price
		if err := s.store.UpdateMedicine(ctx, existing); err != nil {
			return nil, false, err
		}
		s.log.Info("medicine updated", zap.Int64("medicine_id", existing.ID), zap.String("name", name))
		return existing, true, nil
	case !errors.Is(err, apperr.ErrNotFound):
		return nil, false, err
	}

	m = &domain.Medicine{Name: name, Unit: in.Unit, Category: in.Category, Description: in.Description, Price: in.Price}
	if err := s.store.InsertMedicine(ctx, m); err != nil {
		return nil, false, err
	}
	s.log.Info("medicine added", zap.Int64("medicine_id", m.ID), zap.String("name", name))
	return m, false, nil
}

func (s *Service) ListSuppliers(ctx context.Context) ([]domain.Supplier, error) {
	return s.store.ListSuppliers(ctx)
}

type SupplierInput struct {
	Name    string  `json:"name"`
	Phone   *string `json:"phone,omitempty"`
	Email   *string `json:"email,omitempty"`
	Address *string `json:"address,omitempty"`
}

func (s *Service) AddSupplier(ctx context.Context, in SupplierInput) (*domain.Supplier, error) {
	name := strings.TrimSpace(in.Name)
	v := &apperr.Validation{}
	if name == "" {
		v.Problems = append(v.Problems, "supplier name is required")
	}
	if in.Email != nil && strings.TrimSpace(*in.Email) != "" {
		if _, err := mail.ParseAddress(strings.TrimSpace(*in.Email)); err != nil {
			v.Problems = append(v.Problems, "supplier email is invalid")
		}
	}
	if len(v.Problems) > 0 {
		return nil, v
	}

	sup := &domain.Supplier{
		Name:      name,
		Phone:     in.Phone,
		Email:     in.Email,
		Address:   in.Address,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.InsertSupplier(ctx, sup); err != nil {
		return nil, err
	}
	s.log.Info("supplier added", zap.Int64("supplier_id", sup.ID), zap.String("name", name))
	return sup, nil
}
