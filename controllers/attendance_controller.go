package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/princinho/hrmbackend/database"
	"github.com/princinho/hrmbackend/dto"
	"github.com/princinho/hrmbackend/repository"
	"go.mongodb.org/mongo-driver/v2/bson"
)

const dayLayout = "2006-01-02"

// POST /attendance/check-in
func (h *Controller) CheckIn() gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.CheckInDTO
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&body); err != nil {
				badRequest(c, err.Error())
				return
			}
		}
		userID, ok := currentUserID(c)
		if !ok {
			return
		}

		rec, err := h.Attendance.CheckIn(c.Request.Context(), userID, h.now(), body.Note)
		if database.IsKind(err, database.KindDuplicateKey) {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "already checked in today", "code": "duplicate"})
			return
		}
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, rec)
	}
}

// POST /attendance/check-out
func (h *Controller) CheckOut() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		closed, err := h.Attendance.CheckOut(c.Request.Context(), userID, h.now())
		if err != nil {
			h.fail(c, err)
			return
		}
		if !closed {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "no open check-in today", "code": "not_checked_in"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

// GET /attendance/me?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *Controller) GetMyAttendance() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		h.listAttendance(c, userID)
	}
}

// GET /attendance/users/:id
func (h *Controller) GetUserAttendance() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := repository.ParseID(c.Param("id"))
		if err != nil {
			h.fail(c, err)
			return
		}
		h.listAttendance(c, userID)
	}
}

// listAttendance treats to as inclusive.
func (h *Controller) listAttendance(c *gin.Context, userID bson.ObjectID) {
	from, ok := parseDay(c, "from")
	if !ok {
		return
	}
	to, ok := parseDay(c, "to")
	if !ok {
		return
	}
	if !to.IsZero() {
		to = to.AddDate(0, 0, 1)
	}

	items, err := h.Attendance.FindByUser(c.Request.Context(), userID, from, to)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": len(items)})
}

func parseDay(c *gin.Context, key string) (time.Time, bool) {
	raw := c.Query(key)
	if raw == "" {
		return time.Time{}, true
	}
	t, err := time.Parse(dayLayout, raw)
	if err != nil {
		badRequest(c, key+" must be YYYY-MM-DD")
		return time.Time{}, false
	}
	return t, true
}
