package auth_test

import (
	"context"
	"encoding/base64"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/princinho/hrmbackend/auth"
	"github.com/princinho/hrmbackend/config"
	"github.com/princinho/hrmbackend/models"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"golang.org/x/crypto/bcrypt"
)

type memUsers struct {
	mu    sync.Mutex
	users map[string]models.User
}

func newMemUsers() *memUsers { return &memUsers{users: map[string]models.User{}} }

func (m *memUsers) put(u models.User) models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID.IsZero() {
		u.ID = bson.NewObjectID()
	}
	m.users[u.ID.Hex()] = u
	return u
}

func (m *memUsers) remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, id)
}

func (m *memUsers) FindByUserName(_ context.Context, name string) (models.User, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.UserName == strings.ToLower(name) {
			return u, true, nil
		}
	}
	return models.User{}, false, nil
}

func (m *memUsers) FindByID(_ context.Context, id string) (models.User, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	return u, ok, nil
}

func (m *memUsers) SetPassword(_ context.Context, id, hash string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return false, nil
	}
	u.PasswordHash = hash
	m.users[id] = u
	return true, nil
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var testAuthConfig = config.AuthConfig{
	AccessSecret:  "access-secret-for-tests",
	RefreshSecret: "refresh-secret-for-tests",
	Issuer:        "hrm-test",
	AccessTTL:     15 * time.Minute,
	RefreshTTL:    24 * time.Hour,
}

func newService(t *testing.T) (*auth.Service, *memUsers, *clock) {
	t.Helper()
	users := newMemUsers()
	clk := &clock{now: time.Now().UTC()}
	svc, err := auth.NewService(users, testAuthConfig, auth.WithClock(clk.Now), auth.WithBcryptCost(bcrypt.MinCost))
	require.NoError(t, err)
	return svc, users, clk
}

func addUser(t *testing.T, svc *auth.Service, users *memUsers, name, password string, role models.Role, active bool) models.User {
	t.Helper()
	hash, err := svc.HashPassword(password)
	require.NoError(t, err)
	return users.put(models.User{
		EmployeeID:   int64(len(users.users) + 1),
		UserName:     name,
		FullName:     name,
		PasswordHash: hash,
		Role:         role,
		IsActive:     active,
	})
}

func TestNewService_Secrets(t *testing.T) {
	_, err := auth.NewService(newMemUsers(), config.AuthConfig{AccessSecret: "a"})
	require.ErrorIs(t, err, auth.ErrMissingSecret)

	_, err = auth.NewService(newMemUsers(), config.AuthConfig{AccessSecret: "same", RefreshSecret: "same"})
	require.Error(t, err)
}

func TestLogin_ValidateDecodesIdentity(t *testing.T) {
	svc, users, clk := newService(t)
	alice := addUser(t, svc, users, "alice", "correct horse", models.RoleEmployee, true)

	pair, err := svc.Login(context.Background(), " Alice ", "correct horse")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.True(t, pair.AccessExpiresAt.Before(pair.RefreshExpiresAt))
	require.WithinDuration(t, clk.Now().Add(15*time.Minute), pair.AccessExpiresAt, time.Second)

	v := svc.Validate(pair.AccessToken)
	require.True(t, v.Valid())
	require.NoError(t, v.Err())
	require.Equal(t, auth.Identity{
		UserID:     alice.ID.Hex(),
		EmployeeID: alice.EmployeeID,
		UserName:   "alice",
		Role:       models.RoleEmployee,
	}, v.Identity)
}

func TestLogin_UnknownUserAndWrongPasswordLookAlike(t *testing.T) {
	svc, users, _ := newService(t)
	addUser(t, svc, users, "alice", "correct horse", models.RoleEmployee, true)
	ctx := context.Background()

	_, wrongPassword := svc.Login(ctx, "alice", "wrong password")
	_, unknownUser := svc.Login(ctx, "mallory", "correct horse")
	_, empty := svc.Login(ctx, "", "")

	require.ErrorIs(t, wrongPassword, auth.ErrInvalidCredentials)
	require.ErrorIs(t, unknownUser, auth.ErrInvalidCredentials)
	require.ErrorIs(t, empty, auth.ErrInvalidCredentials)
	require.Equal(t, wrongPassword.Error(), unknownUser.Error())
}

func TestLogin_DisabledAccountOnlyAfterPasswordMatches(t *testing.T) {
	svc, users, _ := newService(t)
	addUser(t, svc, users, "bob", "correct horse", models.RoleManager, false)
	ctx := context.Background()

	_, err := svc.Login(ctx, "bob", "nope nope")
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, err = svc.Login(ctx, "bob", "correct horse")
	require.ErrorIs(t, err, auth.ErrAccountDisabled)
}

func TestValidate_Expired(t *testing.T) {
	svc, users, clk := newService(t)
	addUser(t, svc, users, "alice", "correct horse", models.RoleEmployee, true)

	pair, err := svc.Login(context.Background(), "alice", "correct horse")
	require.NoError(t, err)

	clk.Advance(16 * time.Minute)
	v := svc.Validate(pair.AccessToken)
	require.Equal(t, auth.StatusExpired, v.Status)
	require.ErrorIs(t, v.Err(), auth.ErrTokenExpired)
	require.Empty(t, v.Identity.UserID)
}

func TestValidate_Invalid(t *testing.T) {
	svc, users, _ := newService(t)
	addUser(t, svc, users, "alice", "correct horse", models.RoleEmployee, true)

	pair, err := svc.Login(context.Background(), "alice", "correct horse")
	require.NoError(t, err)

	parts := strings.Split(pair.AccessToken, ".")
	require.Len(t, parts, 3)
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	forged := strings.Replace(string(payload), `"Employee"`, `"SuperAdmin"`, 1)
	require.NotEqual(t, string(payload), forged)
	parts[1] = base64.RawURLEncoding.EncodeToString([]byte(forged))
	tampered := strings.Join(parts, ".")

	otherKey, err := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		UserID: "x",
		Type:   auth.TokenAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "hrm-test",
			Subject:   "x",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("some other secret"))
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"uid": "x", "typ": "access"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"tampered":      tampered,
		"wrong key":     otherKey,
		"alg none":      none,
		"refresh token": pair.RefreshToken,
		"garbage":       "not.a.token",
		"empty":         "",
	} {
		v := svc.Validate(token)
		require.Equal(t, auth.StatusInvalid, v.Status, name)
		require.ErrorIs(t, v.Err(), auth.ErrTokenInvalid, name)
	}
}

func TestValidate_ExpiredWithWrongKeyIsInvalid(t *testing.T) {
	svc, _, _ := newService(t)
	past := time.Now().Add(-time.Hour)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		UserID: "x",
		Type:   auth.TokenAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "hrm-test",
			Subject:   "x",
			ExpiresAt: jwt.NewNumericDate(past),
		},
	}).SignedString([]byte("some other secret"))
	require.NoError(t, err)

	require.Equal(t, auth.StatusInvalid, svc.Validate(token).Status)
}

func TestRefresh(t *testing.T) {
	svc, users, clk := newService(t)
	alice := addUser(t, svc, users, "alice", "correct horse", models.RoleEmployee, true)
	ctx := context.Background()

	pair, err := svc.Login(ctx, "alice", "correct horse")
	require.NoError(t, err)

	_, _, err = svc.Refresh(ctx, pair.AccessToken)
	require.ErrorIs(t, err, auth.ErrTokenInvalid)

	// Promotion shows up in the next access token.
	alice.Role = models.RoleDirector
	users.put(alice)
	clk.Advance(20 * time.Minute)

	require.Equal(t, auth.StatusExpired, svc.Validate(pair.AccessToken).Status)
	access, exp, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	require.True(t, exp.After(clk.Now()))
	v := svc.Validate(access)
	require.True(t, v.Valid())
	require.Equal(t, models.RoleDirector, v.Identity.Role)

	// Not rotated: the same refresh token keeps working.
	_, _, err = svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)

	alice.IsActive = false
	users.put(alice)
	_, _, err = svc.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, auth.ErrAccountDisabled)

	users.remove(alice.ID.Hex())
	_, _, err = svc.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, auth.ErrTokenInvalid)

	clk.Advance(25 * time.Hour)
	_, _, err = svc.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, auth.ErrTokenExpired)
}

func TestChangePassword(t *testing.T) {
	svc, users, _ := newService(t)
	u := addUser(t, svc, users, "carol", "old password", models.RoleEmployee, true)
	ctx := context.Background()

	err := svc.ChangePassword(ctx, u.ID.Hex(), "not it at all", "new password")
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)

	err = svc.ChangePassword(ctx, u.ID.Hex(), "old password", "short")
	require.ErrorIs(t, err, auth.ErrWeakPassword)

	err = svc.ChangePassword(ctx, u.ID.Hex(), "old password", strings.Repeat("p", auth.MaxPasswordBytes+8))
	require.ErrorIs(t, err, auth.ErrPasswordTooLong)

	err = svc.ChangePassword(ctx, bson.NewObjectID().Hex(), "old password", "new password")
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)

	require.NoError(t, svc.ChangePassword(ctx, u.ID.Hex(), "old password", "new password"))

	_, err = svc.Login(ctx, "carol", "old password")
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)
	_, err = svc.Login(ctx, "carol", "new password")
	require.NoError(t, err)
}

func TestValidationStatus(t *testing.T) {
	require.Equal(t, "valid", auth.StatusValid.String())
	require.Equal(t, "expired", auth.StatusExpired.String())
	require.Equal(t, "invalid", auth.Status(42).String())
	require.NoError(t, auth.Validation{Status: auth.StatusValid}.Err())
}
