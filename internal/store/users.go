package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"medstore/m/domain"
	"medstore/m/internal/apperr"
)

const userColumns = `id, email, password, full_name, avatar_url, created_at, updated_at`

func (s *Store) InsertUser(ctx context.Context, u *domain.User) error {
	id, err := s.insertReturningID(ctx, `INSERT INTO users (email, password, full_name, avatar_url, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		strings.ToLower(u.Email), u.Password, nullIfEmpty(u.FullName), nullIfEmpty(u.AvatarURL), u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.Conflict("email already registered")
		}
		return fmt.Errorf("insert user: %w", err)
	}
	u.ID = id
	u.Email = strings.ToLower(u.Email)
	return nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	if err := s.get(ctx, &u, `SELECT `+userColumns+` FROM users WHERE email = ?`, strings.ToLower(email)); err != nil {
		if isNoRows(err) {
			return nil, apperr.NotFound("user %q", email)
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return &u, nil
}

func (s *Store) UserByID(ctx context.Context, id int64) (*domain.User, error) {
	var u domain.User
	if err := s.get(ctx, &u, `SELECT `+userColumns+` FROM users WHERE id = ?`, id); err != nil {
		if isNoRows(err) {
			return nil, apperr.NotFound("user %d", id)
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return &u, nil
}

func (s *Store) UpdatePassword(ctx context.Context, id int64, hash string, at time.Time) error {
	return s.updateUser(ctx, id, `UPDATE users SET password = ?, updated_at = ? WHERE id = ?`, hash, at, id)
}

// UpdateProfile sets the email and display name of a user.
func (s *Store) UpdateProfile(ctx context.Context, id int64, email string, fullName *string, at time.Time) error {
	err := s.updateUser(ctx, id, `UPDATE users SET email = ?, full_name = ?, updated_at = ? WHERE id = ?`,
		strings.ToLower(email), nullIfEmpty(fullName), at, id)
	if isUniqueViolation(err) {
		return apperr.Conflict("email already registered")
	}
	return err
}

func (s *Store) UpdateAvatar(ctx context.Context, id int64, url string, at time.Time) error {
	return s.updateUser(ctx, id, `UPDATE users SET avatar_url = ?, updated_at = ? WHERE id = ?`, url, at, id)
}

func (s *Store) updateUser(ctx context.Context, id int64, query string, args ...any) error {
	res, err := s.exec(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return err
		}
		return fmt.Errorf("update user %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("user %d", id)
	}
	return nil
}
