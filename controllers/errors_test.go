package controllers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/princinho/hrmbackend/auth"
	"github.com/princinho/hrmbackend/database"
	"github.com/princinho/hrmbackend/repository"
	"github.com/princinho/hrmbackend/storage"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

func TestClassify(t *testing.T) {
	dup := mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "E11000 duplicate key"}}}

	cases := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("%w: %q", repository.ErrInvalidID, "x"), http.StatusBadRequest, "invalid_id"},
		{repository.ErrImmutableField, http.StatusBadRequest, "invalid_input"},
		{auth.ErrWeakPassword, http.StatusBadRequest, "invalid_input"},
		{auth.ErrPasswordTooLong, http.StatusBadRequest, "invalid_input"},
		{auth.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
		{auth.ErrAccountDisabled, http.StatusForbidden, "account_disabled"},
		{auth.ErrTokenExpired, http.StatusUnauthorized, "token_expired"},
		{auth.ErrTokenInvalid, http.StatusUnauthorized, "token_invalid"},
		{storage.ErrFileTooLarge, http.StatusRequestEntityTooLarge, "file_too_large"},
		{storage.ErrNotConfigured, http.StatusServiceUnavailable, "storage_unavailable"},
		{database.Wrap("insert", "users", dup), http.StatusConflict, "duplicate"},
		{database.Wrap("find", "users", context.DeadlineExceeded), http.StatusServiceUnavailable, "storage_unavailable"},
		{database.Wrap("find", "users", errors.New("weird")), http.StatusInternalServerError, "internal"},
		{errors.New("anything"), http.StatusInternalServerError, "internal"},
	}
	for _, tc := range cases {
		got := classify(tc.err)
		require.Equal(t, tc.status, got.status, tc.err.Error())
		require.Equal(t, tc.code, got.code, tc.err.Error())
	}
}

func TestIntersectIDs(t *testing.T) {
	a, b, c := bson.NewObjectID(), bson.NewObjectID(), bson.NewObjectID()
	require.Equal(t, []bson.ObjectID{b}, intersectIDs([]bson.ObjectID{a, b, b}, []bson.ObjectID{c, b}))
	require.Equal(t, []bson.ObjectID{a, b}, intersectIDs([]bson.ObjectID{a, b}))
	require.NotNil(t, intersectIDs([]bson.ObjectID{a}, nil))
	require.Empty(t, intersectIDs([]bson.ObjectID{a}, nil))
	require.NotNil(t, intersectIDs())
}
