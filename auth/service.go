package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/princinho/hrmbackend/config"
	"github.com/princinho/hrmbackend/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 14 * 24 * time.Hour
	DefaultIssuer     = "hrm"
)

// UserStore is the slice of the user repository the service needs.
type UserStore interface {
	FindByUserName(ctx context.Context, userName string) (models.User, bool, error)
	FindByID(ctx context.Context, id string) (models.User, bool, error)
	SetPassword(ctx context.Context, id, hash string) (bool, error)
}

type TokenPair struct {
	AccessToken      string    `json:"accessToken"`
	RefreshToken     string    `json:"refreshToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}

// Service authenticates users and issues self-contained signed tokens.
// Nothing about issued tokens is stored, so they cannot be revoked before
// they expire.
type Service struct {
	users   UserStore
	access  signer
	refresh signer
	issuer  string
	cost    int
	now     func() time.Time
	log     *zap.Logger

	dummyOnce sync.Once
	dummyHash []byte
}

type Option func(*Service)

// WithClock overrides the time source used for issuing and validating tokens.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithBcryptCost sets the cost for hashes the service creates.
func WithBcryptCost(cost int) Option {
	return func(s *Service) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			s.cost = cost
		}
	}
}

func NewService(users UserStore, cfg config.AuthConfig, opts ...Option) (*Service, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, ErrMissingSecret
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, errors.New("auth: access and refresh secrets must differ")
	}
	s := &Service{
		users:   users,
		access:  signer{typ: TokenAccess, secret: []byte(cfg.AccessSecret), ttl: orDefault(cfg.AccessTTL, DefaultAccessTTL)},
		refresh: signer{typ: TokenRefresh, secret: []byte(cfg.RefreshSecret), ttl: orDefault(cfg.RefreshTTL, DefaultRefreshTTL)},
		issuer:  cfg.Issuer,
		cost:    bcrypt.DefaultCost,
		now:     time.Now,
		log:     zap.NewNop(),
	}
	if s.issuer == "" {
		s.issuer = DefaultIssuer
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

// HashPassword hashes at the service's configured cost.
func (s *Service) HashPassword(password string) (string, error) {
	return hashPassword(password, s.cost)
}

// burn spends one bcrypt comparison so unknown users cost as much as known ones.
func (s *Service) burn(password string) {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), s.cost)
	})
	_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
}

// Login checks the credentials and issues an access and a refresh token.
// A disabled account is reported only once the password has matched.
func (s *Service) Login(ctx context.Context, userName, password string) (TokenPair, error) {
	userName = strings.TrimSpace(userName)
	if userName == "" || password == "" {
		s.burn(password)
		return TokenPair{}, ErrInvalidCredentials
	}

	u, found, err := s.users.FindByUserName(ctx, userName)
	if err != nil {
		return TokenPair{}, err
	}
	if !found {
		s.burn(password)
		s.log.Info("login failed", zap.String("reason", "credentials"))
		return TokenPair{}, ErrInvalidCredentials
	}
	if err := VerifyPassword(u.PasswordHash, password); err != nil {
		s.log.Info("login failed", zap.String("reason", "credentials"))
		return TokenPair{}, ErrInvalidCredentials
	}
	if !u.IsActive {
		s.log.Info("login refused", zap.String("user_id", u.ID.Hex()), zap.String("reason", "disabled"))
		return TokenPair{}, ErrAccountDisabled
	}

	access, accessExp, err := s.sign(s.access, u)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, refreshExp, err := s.sign(s.refresh, u)
	if err != nil {
		return TokenPair{}, err
	}
	s.log.Debug("login ok", zap.String("user_id", u.ID.Hex()), zap.String("role", string(u.Role)))
	return TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// Validate checks an access token. Refresh tokens never validate here.
func (s *Service) Validate(token string) Validation {
	claims, status := s.parse(s.access, token)
	if status != StatusValid {
		return Validation{Status: status}
	}
	return Validation{Status: StatusValid, Identity: claims.Identity()}
}

// Refresh mints a new access token from a refresh token. The user is loaded
// again so role changes, deactivation and deletion take effect. The refresh
// token itself is not rotated.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, time.Time, error) {
	claims, status := s.parse(s.refresh, refreshToken)
	if status != StatusValid {
		return "", time.Time{}, Validation{Status: status}.Err()
	}

	u, found, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		return "", time.Time{}, err
	}
	if !found {
		return "", time.Time{}, ErrTokenInvalid
	}
	if !u.IsActive {
		return "", time.Time{}, ErrAccountDisabled
	}
	return s.sign(s.access, u)
}

// ChangePassword replaces the password after checking the current one.
func (s *Service) ChangePassword(ctx context.Context, userID, current, next string) error {
	u, found, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if !found {
		s.burn(current)
		return ErrInvalidCredentials
	}
	if err := VerifyPassword(u.PasswordHash, current); err != nil {
		return ErrInvalidCredentials
	}

	hash, err := s.HashPassword(next)
	if err != nil {
		return err
	}
	ok, err := s.users.SetPassword(ctx, userID, hash)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: user vanished during update", ErrInvalidCredentials)
	}
	s.log.Info("password changed", zap.String("user_id", userID))
	return nil
}
