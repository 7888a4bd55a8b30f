package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/princinho/hrmbackend/config"
	"github.com/princinho/hrmbackend/controllers"
	"github.com/princinho/hrmbackend/database"
	"github.com/princinho/hrmbackend/database/databasetest"
	"github.com/princinho/hrmbackend/models"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap/zaptest"
)

func testApp(t *testing.T) *app {
	t.Helper()
	cfg := config.Config{
		Env:            "dev",
		AllowedOrigins: []string{"https://hr.example.com"},
		Auth: config.AuthConfig{
			AccessSecret:  "main-access-secret",
			RefreshSecret: "main-refresh-secret",
		},
		Admin: config.AdminConfig{Username: "root", Password: "root-password"},
	}
	a, err := wire(cfg, zaptest.NewLogger(t), databasetest.Open(t))
	require.NoError(t, err)
	require.NoError(t, a.ensureIndexes(context.Background()))
	return a
}

func TestSeedAdmin_Idempotent(t *testing.T) {
	a := testApp(t)
	ctx := context.Background()

	created, err := seedAdmin(ctx, a)
	require.NoError(t, err)
	require.True(t, created)

	created, err = seedAdmin(ctx, a)
	require.NoError(t, err)
	require.False(t, created)

	admin, found, err := a.users.FindByUserName(ctx, "root")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, models.RoleSuperAdmin, admin.Role)
	require.Equal(t, int64(1), admin.EmployeeID)

	_, err = a.auth.Login(ctx, "root", "root-password")
	require.NoError(t, err)
}

func TestSeedAdmin_RequiresCredentials(t *testing.T) {
	a := testApp(t)
	a.cfg.Admin = config.AdminConfig{}
	_, err := seedAdmin(context.Background(), a)
	require.Error(t, err)
}

func TestRouter_PingMetricsAndCORS(t *testing.T) {
	a := testApp(t)
	r := newRouter(a, &controllers.Controller{Users: a.users, Teams: a.teams, Contracts: a.contracts, Attendance: a.attendance, Auth: a.auth, Log: a.log})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "pong")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, strings.Contains(w.Body.String(), "hrm_http_requests_total"), "metrics exposes request counter")

	req := httptest.NewRequest(http.MethodOptions, "/auth/login", nil)
	req.Header.Set("Origin", "https://hr.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, "https://hr.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users/me", nil))
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginLimiter(t *testing.T) {
	require.Nil(t, loginLimiter(config.AuthConfig{LoginPerMinute: 0}))

	a := testApp(t)
	ctrl := &controllers.Controller{Users: a.users, Auth: a.auth, Log: a.log, LoginLimiter: loginLimiter(config.AuthConfig{LoginPerMinute: 2})}
	r := newRouter(a, ctrl)

	login := func() int {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"userName":"nobody","password":"wrong-password"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}
	require.Equal(t, http.StatusUnauthorized, login())
	require.Equal(t, http.StatusUnauthorized, login())
	require.Equal(t, http.StatusTooManyRequests, login())
}

func TestWire_ClosesStoreOnError(t *testing.T) {
	client, err := mongo.Connect(options.Client().ApplyURI("mongodb://127.0.0.1:1/?directConnection=true"))
	require.NoError(t, err)
	store := database.FromDatabase(client.Database("hrm_wire"), time.Second)

	cfg := config.Config{Auth: config.AuthConfig{AccessSecret: "same", RefreshSecret: "same"}}
	_, err = wire(cfg, zaptest.NewLogger(t), store)
	require.Error(t, err)
	require.True(t, store.Closed())
}
