package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/princinho/hrmbackend/auth"
	"github.com/princinho/hrmbackend/database"
	"github.com/princinho/hrmbackend/repository"
	"github.com/princinho/hrmbackend/storage"
	"go.uber.org/zap"
)

type apiError struct {
	status int
	code   string
	expose bool // send err.Error() instead of a generic message
}

func classify(err error) apiError {
	switch {
	case errors.Is(err, repository.ErrInvalidID):
		return apiError{http.StatusBadRequest, "invalid_id", true}
	case errors.Is(err, repository.ErrImmutableField),
		errors.Is(err, repository.ErrInvalidUpdate),
		errors.Is(err, repository.ErrInvalidUser),
		errors.Is(err, repository.ErrInvalidTeam),
		errors.Is(err, repository.ErrInvalidContract),
		errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, auth.ErrPasswordTooLong):
		return apiError{http.StatusBadRequest, "invalid_input", true}
	case errors.Is(err, storage.ErrFileTooLarge):
		return apiError{http.StatusRequestEntityTooLarge, "file_too_large", true}
	case errors.Is(err, storage.ErrFileType), errors.Is(err, storage.ErrEmptyFile):
		return apiError{http.StatusBadRequest, "invalid_file", true}
	case errors.Is(err, storage.ErrNotConfigured):
		return apiError{http.StatusServiceUnavailable, "storage_unavailable", true}
	case errors.Is(err, auth.ErrInvalidCredentials):
		return apiError{http.StatusUnauthorized, "invalid_credentials", true}
	case errors.Is(err, auth.ErrAccountDisabled):
		return apiError{http.StatusForbidden, "account_disabled", true}
	case errors.Is(err, auth.ErrTokenExpired):
		return apiError{http.StatusUnauthorized, "token_expired", true}
	case errors.Is(err, auth.ErrTokenInvalid):
		return apiError{http.StatusUnauthorized, "token_invalid", true}
	}

	var se *database.StorageError
	if errors.As(err, &se) {
		switch {
		case se.Kind == database.KindDuplicateKey:
			return apiError{http.StatusConflict, "duplicate", false}
		case se.Transient():
			return apiError{http.StatusServiceUnavailable, "storage_unavailable", false}
		}
	}
	return apiError{http.StatusInternalServerError, "internal", false}
}

var genericMessages = map[string]string{
	"duplicate":           "already exists",
	"storage_unavailable": "service temporarily unavailable",
	"internal":            "internal error",
}

// fail writes err as JSON. Server-side failures are logged and their
// details are not sent to the client.
func (h *Controller) fail(c *gin.Context, err error) {
	e := classify(err)
	msg := genericMessages[e.code]
	if e.expose {
		msg = err.Error()
	}
	if e.status >= http.StatusInternalServerError {
		h.Log.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.String("code", e.code),
			zap.Error(err),
		)
	}
	c.AbortWithStatusJSON(e.status, gin.H{"error": msg, "code": e.code})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg, "code": "invalid_input"})
}

func notFound(c *gin.Context, what string) {
	c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": what + " not found", "code": "not_found"})
}
