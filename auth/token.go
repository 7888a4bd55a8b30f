package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/princinho/hrmbackend/models"
)

type TokenType string

const (
	TokenAccess  TokenType = "access"
	TokenRefresh TokenType = "refresh"
)

// Identity is what an access token proves about its bearer.
type Identity struct {
	UserID     string      `json:"userId"`
	EmployeeID int64       `json:"employeeId"`
	UserName   string      `json:"userName"`
	Role       models.Role `json:"role"`
}

// Claims represents JWT claims used across the service.
type Claims struct {
	UserID     string      `json:"uid"`
	EmployeeID int64       `json:"eid,omitempty"`
	UserName   string      `json:"usr,omitempty"`
	Role       models.Role `json:"role,omitempty"`
	Type       TokenType   `json:"typ"`
	jwt.RegisteredClaims
}

func (c *Claims) Identity() Identity {
	return Identity{UserID: c.UserID, EmployeeID: c.EmployeeID, UserName: c.UserName, Role: c.Role}
}

type Status int

const (
	StatusInvalid Status = iota
	StatusValid
	StatusExpired
)

func (s Status) String() string {
	switch s {
	case StatusValid:
		return "valid"
	case StatusExpired:
		return "expired"
	default:
		return "invalid"
	}
}

// Validation is the outcome of checking a token. Identity is set only when
// Status is StatusValid.
type Validation struct {
	Status   Status
	Identity Identity
}

func (v Validation) Valid() bool { return v.Status == StatusValid }

// Err maps the status onto ErrTokenExpired or ErrTokenInvalid; nil when valid.
func (v Validation) Err() error {
	switch v.Status {
	case StatusValid:
		return nil
	case StatusExpired:
		return ErrTokenExpired
	default:
		return ErrTokenInvalid
	}
}

type signer struct {
	typ    TokenType
	secret []byte
	ttl    time.Duration
}

func (s *Service) sign(sg signer, u models.User) (string, time.Time, error) {
	now := s.now().UTC()
	exp := now.Add(sg.ttl)
	claims := Claims{
		UserID: u.ID.Hex(),
		Type:   sg.typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   u.ID.Hex(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	}
	// Refresh tokens only name the user; identity is reloaded on use.
	if sg.typ == TokenAccess {
		claims.EmployeeID = u.EmployeeID
		claims.UserName = u.UserName
		claims.Role = u.Role
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(sg.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, exp, nil
}

func (s *Service) parse(sg signer, raw string) (*Claims, Status) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, StatusInvalid
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return sg.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired) && !errors.Is(err, jwt.ErrTokenSignatureInvalid):
		// Only a correctly signed token can be reported as expired.
		if claims.Type != sg.typ {
			return nil, StatusInvalid
		}
		return nil, StatusExpired
	default:
		return nil, StatusInvalid
	}

	if !parsed.Valid || claims.Type != sg.typ || claims.UserID == "" || claims.Subject != claims.UserID {
		return nil, StatusInvalid
	}
	return claims, StatusValid
}
