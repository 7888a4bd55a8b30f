package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/princinho/hrmbackend/auth"
	"github.com/princinho/hrmbackend/metrics"
	"github.com/princinho/hrmbackend/middleware"
	"github.com/princinho/hrmbackend/models"
	"github.com/princinho/hrmbackend/repository"
	"github.com/princinho/hrmbackend/storage"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap"
)

// Controller holds the dependencies shared by every handler.
type Controller struct {
	Users      *repository.UserRepository
	Teams      *repository.TeamRepository
	Contracts  *repository.ContractRepository
	Attendance *repository.AttendanceRepository
	Auth       *auth.Service
	Avatars    *storage.Avatars // nil when object storage is not configured
	Log        *zap.Logger
	Now        func() time.Time

	// LoginLimiter throttles POST /auth/login when set.
	LoginLimiter *middleware.RateLimiter

	// SecureCookies marks the refresh cookie Secure; off for plain-http dev.
	SecureCookies bool
}

func (h *Controller) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

// Register mounts every route on r.
func (h *Controller) Register(r gin.IRouter) {
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	login := []gin.HandlerFunc{h.Login()}
	if h.LoginLimiter != nil {
		login = append([]gin.HandlerFunc{h.LoginLimiter.Middleware()}, login...)
	}
	r.POST("/auth/login", login...)
	r.POST("/auth/refresh", h.Refresh())
	r.POST("/auth/logout", h.Logout())

	authed := r.Group("/")
	authed.Use(middleware.AuthMiddleware(h.Auth))
	{
		authed.GET("/users/me", h.GetMe())
		authed.PATCH("/users/me", h.UpdateMe())
		authed.POST("/users/me/password", h.ChangeMyPassword())
		authed.POST("/users/me/avatar", h.UploadMyAvatar())

		authed.POST("/attendance/check-in", h.CheckIn())
		authed.POST("/attendance/check-out", h.CheckOut())
		authed.GET("/attendance/me", h.GetMyAttendance())
	}

	admin := authed.Group("/")
	admin.Use(middleware.RequireRole(models.RoleDirector, models.RoleSuperAdmin))
	{
		admin.GET("/users", h.GetUsers())
		admin.POST("/users", h.CreateUser())
		admin.GET("/users/:id", h.GetUser())
		admin.PATCH("/users/:id", h.UpdateUser())
		admin.DELETE("/users/:id", h.DeleteUser())

		admin.GET("/teams", h.GetTeams())
		admin.POST("/teams", h.CreateTeam())
		admin.GET("/teams/:id", h.GetTeam())
		admin.PATCH("/teams/:id", h.UpdateTeam())
		admin.DELETE("/teams/:id", h.DeleteTeam())
		admin.GET("/teams/:id/members", h.GetTeamMembers())
		admin.POST("/teams/:id/members", h.AddTeamMember())
		admin.DELETE("/teams/:id/members/:userId", h.RemoveTeamMember())

		admin.GET("/contracts", h.GetContracts())
		admin.POST("/contracts", h.CreateContract())
		admin.GET("/contracts/:id", h.GetContract())
		admin.PATCH("/contracts/:id", h.UpdateContract())
		admin.POST("/contracts/:id/terminate", h.TerminateContract())
		admin.DELETE("/contracts/:id", h.DeleteContract())

		admin.GET("/attendance/users/:id", h.GetUserAttendance())
	}
}

// currentUserID reads the authenticated user's id from the context.
func currentUserID(c *gin.Context) (bson.ObjectID, bool) {
	id, ok := middleware.CurrentIdentity(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
		return bson.ObjectID{}, false
	}
	oid, err := bson.ObjectIDFromHex(id.UserID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid auth context"})
		return bson.ObjectID{}, false
	}
	return oid, true
}
