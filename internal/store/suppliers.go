package store

import (
	"context"
	"fmt"

	"medstore/m/domain"
	"medstore/m/internal/apperr"
)

const supplierColumns = `id, name, phone, email, address, created_at`

func (s *Store) ListSuppliers(ctx context.Context) ([]domain.Supplier, error) {
	var suppliers []domain.Supplier
	if err := s.selectAll(ctx, &suppliers, `SELECT `+supplierColumns+` FROM suppliers ORDER BY name`); err != nil {
		return nil, fmt.Errorf("list suppliers: %w", err)
	}
	return suppliers, nil
}

func (s *Store) CountSuppliers(ctx context.Context) (int64, error) {
	n, err := s.count(ctx, "suppliers")
	if err != nil {
		return 0, fmt.Errorf("count suppliers: %w", err)
	}
	return n, nil
}

func (s *Store) SupplierByName(ctx context.Context, name string) (*domain.Supplier, error) {
	var sup domain.Supplier
	if err := s.get(ctx, &sup, `SELECT `+supplierColumns+` FROM suppliers WHERE name = ?`, name); err != nil {
		if isNoRows(err) {
			return nil, apperr.NotFound("supplier %q", name)
		}
		return nil, fmt.Errorf("load supplier %q: %w", name, err)
	}
	return &sup, nil
}

func (s *Store) SupplierByID(ctx context.Context, id int64) (*domain.Supplier, error) {
	var sup domain.Supplier
	if err := s.get(ctx, &sup, `SELECT `+supplierColumns+` FROM suppliers WHERE id = ?`, id); err != nil {
		if isNoRows(err) {
			return nil, apperr.NotFound("supplier %d", id)
		}
		return nil, fmt.Errorf("load supplier %d: %w", id, err)
	}
	return &sup, nil
}

func (s *Store) InsertSupplier(ctx context.Context, sup *domain.Supplier) error {
	id, err := s.insertReturningID(ctx, `INSERT INTO suppliers (name, phone, email, address, created_at) VALUES (?, ?, ?, ?, ?)`,
		sup.Name, nullIfEmpty(sup.Phone), nullIfEmpty(sup.Email), nullIfEmpty(sup.Address), sup.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.Conflict("A supplier with this name already exists")
		}
		return fmt.Errorf("insert supplier: %w", err)
	}
	sup.ID = id
	return nil
}
