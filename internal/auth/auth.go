// Package auth handles accounts, sessions and profiles.
package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"medstore/m/domain"
	"medstore/m/internal/apperr"
)

const (
	minPasswordLength = 6
	AvatarBucket      = "avatars"
)

// Store is the persistence used by Service. *store.Store implements it.
type Store interface {
	InsertUser(ctx context.Context, u *domain.User) error
	UserByEmail(ctx context.Context, email string) (*domain.User, error)
	UserByID(ctx context.Context, id int64) (*domain.User, error)
	UpdatePassword(ctx context.Context, id int64, hash string, at time.Time) error
	UpdateProfile(ctx context.Context, id int64, email string, fullName *string, at time.Time) error
	UpdateAvatar(ctx context.Context, id int64, url string, at time.Time) error
}

// Bucket stores profile photos. *blob.Bucket implements it.
type Bucket interface {
	Upload(ctx context.Context, name, contentType string, r io.Reader, upsert bool) error
	PublicURL(name string) string
}

func errUnauthorized(cause error) error {
	if cause == nil {
		return apperr.ErrUnauthorized
	}
	return fmt.Errorf("%w: %v", apperr.ErrUnauthorized, cause)
}

type Service struct {
	store   Store
	tokens  *Tokens
	revoker Revoker
	avatars Bucket
	log     *zap.Logger
	now     func() time.Time
}

func NewService(st Store, tokens *Tokens, revoker Revoker, avatars Bucket, log *zap.Logger) *Service {
	if revoker == nil {
		revoker = NewMemoryRevoker()
	}
	return &Service{store: st, tokens: tokens, revoker: revoker, avatars: avatars, log: log, now: time.Now}
}

type Session struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      domain.User `json:"user"`
}

type RegisterInput struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	FullName *string `json:"full_name,omitempty"`
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

// Register creates an account and signs it in.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	v := &apperr.Validation{}
	if !validEmail(email) {
		v.Problems = append(v.Problems, "a valid email is required")
	}
	if len(in.Password) < minPasswordLength {
		v.Problems = append(v.Problems, fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	if len(v.Problems) > 0 {
		return nil, v
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("unable to secure password: %w", err)
	}
	now := s.now().UTC()
	u := &domain.User{Email: email, Password: string(hashed), FullName: in.FullName, CreatedAt: now, UpdatedAt: now}
	if err := s.store.InsertUser(ctx, u); err != nil {
		return nil, err
	}
	s.log.Info("user registered", zap.Int64("user_id", u.ID))
	return s.issue(*u)
}

// SignIn verifies the password and issues a session token.
func (s *Service) SignIn(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.store.UserByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, fmt.Errorf("invalid credentials: %w", apperr.ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
		return nil, fmt.Errorf("invalid credentials: %w", apperr.ErrUnauthorized)
	}
	return s.issue(*u)
}

func (s *Service) issue(u domain.User) (*Session, error) {
	token, claims, err := s.tokens.Issue(u, s.now())
	if err != nil {
		return nil, err
	}
	u.Password = ""
	return &Session{Token: token, ExpiresAt: claims.ExpiresAt.Time, User: u}, nil
}

// Authenticate parses a bearer token and rejects revoked sessions.
func (s *Service) Authenticate(ctx context.Context, token string) (*Claims, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	revoked, err := s.revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, fmt.Errorf("session ended: %w", apperr.ErrUnauthorized)
	}
	return claims, nil
}

func (s *Service) SignOut(ctx context.Context, claims *Claims) error {
	if err := s.revoker.Revoke(ctx, claims); err != nil {
		return err
	}
	s.log.Info("user signed out", zap.Int64("user_id", claims.UserID))
	return nil
}

// Session returns the signed-in user.
func (s *Service) Session(ctx context.Context, claims *Claims) (*domain.User, error) {
	u, err := s.store.UserByID(ctx, claims.UserID)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, fmt.Errorf("account no longer exists: %w", apperr.ErrUnauthorized)
	}
	return u, err
}

// ChangePassword replaces the password and ends the current session.
func (s *Service) ChangePassword(ctx context.Context, claims *Claims, current, next string) error {
	v := &apperr.Validation{}
	if current == "" {
		v.Problems = append(v.Problems, "current password is required")
	}
	if len(next) < minPasswordLength {
		v.Problems = append(v.Problems, fmt.Sprintf("new password must be at least %d characters", minPasswordLength))
	}
	if current != "" && current == next {
		v.Problems = append(v.Problems, "new password must be different from the current password")
	}
	if len(v.Problems) > 0 {
		return v
	}

	u, err := s.Session(ctx, claims)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(current)) != nil {
		return apperr.Invalid("current password is incorrect")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("unable to secure password: %w", err)
	}
	if err := s.store.UpdatePassword(ctx, u.ID, string(hashed), s.now().UTC()); err != nil {
		return err
	}
	s.log.Info("password changed", zap.Int64("user_id", u.ID))
	return s.SignOut(ctx, claims)
}

type ProfileInput struct {
	Email    string  `json:"email"`
	FullName *string `json:"full_name,omitempty"`
}

func (s *Service) UpdateProfile(ctx context.Context, claims *Claims, in ProfileInput) (*domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if !validEmail(email) {
		return nil, apperr.Invalid("a valid email is required")
	}
	if err := s.store.UpdateProfile(ctx, claims.UserID, email, in.FullName, s.now().UTC()); err != nil {
		return nil, err
	}
	return s.Session(ctx, claims)
}

// SetAvatar uploads a profile photo and stores its public URL on the user.
func (s *Service) SetAvatar(ctx context.Context, claims *Claims, contentType string, r io.Reader) (*domain.User, error) {
	if s.avatars == nil {
		return nil, errors.New("profile photo storage is not configured")
	}
	name := fmt.Sprintf("profile_%d_%s.jpg", claims.UserID, uuid.NewString())
	if err := s.avatars.Upload(ctx, name, contentType, r, true); err != nil {
		return nil, err
	}
	url := s.avatars.PublicURL(name)
	if err := s.store.UpdateAvatar(ctx, claims.UserID, url, s.now().UTC()); err != nil {
		return nil, err
	}
	s.log.Info("avatar updated", zap.Int64("user_id", claims.UserID), zap.String("object", name))
	return s.Session(ctx, claims)
}
