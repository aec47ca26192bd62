package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"medstore/m/domain"
	"medstore/m/internal/apperr"
)

const medicineColumns = `id, name, unit, category, description, price`

func (s *Store) ListMedicines(ctx context.Context) ([]domain.Medicine, error) {
	var medicines []domain.Medicine
	if err := s.selectAll(ctx, &medicines, `SELECT `+medicineColumns+` FROM medicines ORDER BY name`); err != nil {
		return nil, fmt.Errorf("list medicines: %w", err)
	}
	return medicines, nil
}

func (s *Store) CountMedicines(ctx context.Context) (int64, error) {
	n, err := s.count(ctx, "medicines")
	if err != nil {
		return 0, fmt.Errorf("count medicines: %w", err)
	}
	return n, nil
}

func (s *Store) MedicineByName(ctx context.Context, name string) (*domain.Medicine, error) {
	var m domain.Medicine
	if err := s.get(ctx, &m, `SELECT `+medicineColumns+` FROM medicines WHERE name = ?`, name); err != nil {
		if isNoRows(err) {
			return nil, apperr.NotFound("medicine %q", name)
		}
		return nil, fmt.Errorf("load medicine %q: %w", name, err)
	}
	return &m, nil
}

// MedicinesByIDs loads the given medicines keyed by id. Unknown ids are
// simply absent from the result.
func (s *Store) MedicinesByIDs(ctx context.Context, ids []int64) (map[int64]domain.Medicine, error) {
	out := make(map[int64]domain.Medicine, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	query, args, err := sqlx.In(`SELECT `+medicineColumns+` FROM medicines WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("prepare medicines query: %w", err)
	}
	var medicines []domain.Medicine
	if err := s.selectAll(ctx, &medicines, query, args...); err != nil {
		return nil, fmt.Errorf("load medicines: %w", err)
	}
	for _, m := range medicines {
		out[m.ID] = m
	}
	return out, nil
}

func (s *Store) InsertMedicine(ctx context.Context, m *domain.Medicine) error {
	id, err := s.insertReturningID(ctx, `INSERT INTO medicines (name, unit, category, description, price) VALUES (?, ?, ?, ?, ?)`,
		m.Name, nullIfEmpty(m.Unit), nullIfEmpty(m.Category), nullIfEmpty(m.Description), m.Price)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.Conflict("A medicine with this name already exists")
		}
		return fmt.Errorf("insert medicine: %w", err)
	}
	m.ID = id
	return nil
}

func (s *Store) UpdateMedicine(ctx context.Context, m *domain.Medicine) error {
	res, err := s.exec(ctx, `UPDATE medicines SET unit = ?, category = ?, description = ?, price = ? WHERE id = ?`,
		nullIfEmpty(m.Unit), nullIfEmpty(m.Category), nullIfEmpty(m.Description), m.Price, m.ID)
	if err != nil {
		return fmt.Errorf("update medicine %d: %w", m.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("medicine %d", m.ID)
	}
	return nil
}
