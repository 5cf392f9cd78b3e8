// Package auth registers and authenticates users and issues their tokens.
package auth

import (
	"context"
	"log/slog"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"folio/pkg/folio"
)

// Defaults for token lifetimes and hashing.
const (
	DefaultIssuer     = "folio"
	DefaultAccessTTL  = 7 * 24 * time.Hour
	DefaultRefreshTTL = 30 * 24 * time.Hour
	DefaultBcryptCost = 10

	minPasswordLength = 8
	maxPasswordLength = 128
	// bcrypt ignores everything past 72 bytes.
	bcryptMaxBytes = 72
)

const invalidCredentials = "Invalid email or password"

// Store is the persistence the service needs. *folio.Core implements it.
type Store interface {
	CreateUser(ctx context.Context, email, passwordHash, firstName, lastName string) (*folio.User, error)
	GetUserByEmail(ctx context.Context, email string) (*folio.User, error)
	GetUser(ctx context.Context, id string) (*folio.User, error)
	SaveRefreshToken(ctx context.Context, userID, token string, expiresAt time.Time) (*folio.RefreshToken, error)
	GetRefreshToken(ctx context.Context, token string) (*folio.RefreshToken, error)
	RotateRefreshToken(ctx context.Context, userID, oldToken, newToken string, expiresAt time.Time) error
	RevokeRefreshTokens(ctx context.Context, userID string) error
}

// Config controls token issuance.
type Config struct {
	Secret     string
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	BcryptCost int
	Now        func() time.Time
}

// Service implements registration, login and token rotation.
type Service struct {
	store  Store
	tokens *TokenIssuer
	cost   int
	now    func() time.Time
	logger *slog.Logger
}

// RegisterRequest is the payload for creating an account.
type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// Session is returned by register, login and refresh.
type Session struct {
	User         *folio.User `json:"user"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
	ExpiresIn    int64       `json:"expiresIn"`
}

// NewService validates cfg, fills defaults and returns a Service.
func NewService(store Store, cfg Config, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Issuer == "" {
		cfg.Issuer = DefaultIssuer
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = DefaultBcryptCost
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	tokens, err := NewTokenIssuer(cfg.Secret, cfg.Issuer, cfg.AccessTTL, cfg.RefreshTTL, cfg.Now)
	if err != nil {
		return nil, err
	}
	return &Service{store: store, tokens: tokens, cost: cfg.BcryptCost, now: cfg.Now, logger: logger}, nil
}

// Register creates an account and signs it in.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*Session, error) {
	email, err := validateEmail(req.Email)
	if err != nil {
		return nil, err
	}
	if err := validatePassword(req.Password); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword(passwordBytes(req.Password), s.cost)
	if err != nil {
		return nil, folio.WrapError(folio.ErrCodeInternal, "failed to hash password", err)
	}
	user, err := s.store.CreateUser(ctx, email, string(hash), req.FirstName, req.LastName)
	if err != nil {
		return nil, err
	}
	return s.startSession(ctx, user)
}

// Login checks credentials. Unknown emails and wrong passwords fail identically.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if folio.IsErrorCode(err, folio.ErrCodeNotFound) {
			return nil, folio.NewError(folio.ErrCodeUnauthorized, invalidCredentials)
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), passwordBytes(password)); err != nil {
		s.logger.Warn("login failed", "user_id", user.ID)
		return nil, folio.NewError(folio.ErrCodeUnauthorized, invalidCredentials)
	}
	return s.startSession(ctx, user)
}

// Refresh exchanges a live refresh token for a new token pair. The presented
// token is revoked, so each refresh token works once.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	invalid := folio.NewError(folio.ErrCodeUnauthorized, "Invalid refresh token")
	claims, err := s.tokens.Parse(refreshToken, TokenRefresh)
	if err != nil {
		return nil, invalid
	}
	stored, err := s.store.GetRefreshToken(ctx, refreshToken)
	if err != nil {
		if folio.IsErrorCode(err, folio.ErrCodeNotFound) {
			return nil, invalid
		}
		return nil, err
	}
	if stored.Revoked || !stored.ExpiresAt.After(s.now()) || stored.UserID != claims.Subject {
		return nil, invalid
	}
	user, err := s.store.GetUser(ctx, stored.UserID)
	if err != nil {
		if folio.IsErrorCode(err, folio.ErrCodeNotFound) {
			return nil, invalid
		}
		return nil, err
	}

	access, _, err := s.tokens.Issue(user, TokenAccess)
	if err != nil {
		return nil, folio.WrapError(folio.ErrCodeInternal, "failed to issue token", err)
	}
	refresh, refreshExp, err := s.tokens.Issue(user, TokenRefresh)
	if err != nil {
		return nil, folio.WrapError(folio.ErrCodeInternal, "failed to issue token", err)
	}
	if err := s.store.RotateRefreshToken(ctx, user.ID, refreshToken, refresh, refreshExp); err != nil {
		return nil, err
	}
	return s.session(user, access, refresh), nil
}

// Logout revokes every refresh token of the user.
func (s *Service) Logout(ctx context.Context, userID string) error {
	if err := s.store.RevokeRefreshTokens(ctx, userID); err != nil {
		return err
	}
	s.logger.Info("user logged out", "user_id", userID)
	return nil
}

// Me returns the authenticated user's profile.
func (s *Service) Me(ctx context.Context, userID string) (*folio.User, error) {
	return s.store.GetUser(ctx, userID)
}

// Authenticate validates an access token and returns its claims.
func (s *Service) Authenticate(accessToken string) (*Claims, error) {
	claims, err := s.tokens.Parse(accessToken, TokenAccess)
	if err != nil {
		return nil, folio.WrapError(folio.ErrCodeUnauthorized, "Invalid or expired token", err)
	}
	return claims, nil
}

func (s *Service) startSession(ctx context.Context, user *folio.User) (*Session, error) {
	access, _, err := s.tokens.Issue(user, TokenAccess)
	if err != nil {
		return nil, folio.WrapError(folio.ErrCodeInternal, "failed to issue token", err)
	}
	refresh, refreshExp, err := s.tokens.Issue(user, TokenRefresh)
	if err != nil {
		return nil, folio.WrapError(folio.ErrCodeInternal, "failed to issue token", err)
	}
	if _, err := s.store.SaveRefreshToken(ctx, user.ID, refresh, refreshExp); err != nil {
		return nil, err
	}
	return s.session(user, access, refresh), nil
}

func (s *Service) session(user *folio.User, access, refresh string) *Session {
	return &Session{
		User:         user,
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.tokens.AccessTTL() / time.Second),
	}
}

func validateEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", folio.NewError(folio.ErrCodeValidation, "Email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", folio.NewError(folio.ErrCodeValidation, "Invalid email address")
	}
	return email, nil
}

func validatePassword(password string) error {
	n := utf8.RuneCountInString(password)
	switch {
	case n < minPasswordLength:
		return folio.NewError(folio.ErrCodeValidation, "Password must be at least 8 characters")
	case n > maxPasswordLength:
		return folio.NewError(folio.ErrCodeValidation, "Password must be at most 128 characters")
	}
	return nil
}

func passwordBytes(password string) []byte {
	b := []byte(password)
	if len(b) > bcryptMaxBytes {
		b = b[:bcryptMaxBytes]
	}
	return b
}

