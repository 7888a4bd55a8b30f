package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/princinho/hrmbackend/dto"
)

const (
	refreshCookie     = "refreshToken"
	refreshCookiePath = "/auth"
)

func (h *Controller) setRefreshCookie(c *gin.Context, token string, expires time.Time) {
	maxAge := int(time.Until(expires).Seconds())
	if token == "" {
		maxAge = -1
	}
	sameSite := http.SameSiteLaxMode
	if h.SecureCookies {
		sameSite = http.SameSiteNoneMode // for cross-site
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     refreshCookie,
		Value:    token,
		Path:     refreshCookiePath,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: sameSite,
	})
}

// POST /auth/login
func (h *Controller) Login() gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.LoginDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			badRequest(c, err.Error())
			return
		}

		pair, err := h.Auth.Login(c.Request.Context(), body.UserName, body.Password)
		if err != nil {
			h.fail(c, err)
			return
		}

		h.setRefreshCookie(c, pair.RefreshToken, pair.RefreshExpiresAt)
		c.JSON(http.StatusOK, pair)
	}
}

// POST /auth/refresh takes the refresh token from the body or the cookie.
func (h *Controller) Refresh() gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.RefreshDTO
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&body); err != nil {
				badRequest(c, err.Error())
				return
			}
		}
		token := body.RefreshToken
		if token == "" {
			token, _ = c.Cookie(refreshCookie)
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing refresh token", "code": "token_missing"})
			return
		}

		access, exp, err := h.Auth.Refresh(c.Request.Context(), token)
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"accessToken": access, "accessExpiresAt": exp})
	}
}

// POST /auth/logout clears the cookie. Issued tokens stay valid until they
// expire.
func (h *Controller) Logout() gin.HandlerFunc {
	return func(c *gin.Context) {
		h.setRefreshCookie(c, "", time.Time{})
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

// POST /users/me/password
func (h *Controller) ChangeMyPassword() gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.ChangeMyPasswordDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			badRequest(c, err.Error())
			return
		}
		userID, ok := currentUserID(c)
		if !ok {
			return
		}

		if err := h.Auth.ChangePassword(c.Request.Context(), userID.Hex(), body.CurrentPassword, body.NewPassword); err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
