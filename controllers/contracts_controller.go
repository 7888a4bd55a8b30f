package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/princinho/hrmbackend/dto"
	"github.com/princinho/hrmbackend/models"
	"github.com/princinho/hrmbackend/repository"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// POST /contracts
func (h *Controller) CreateContract() gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.CreateContractDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			badRequest(c, err.Error())
			return
		}
		ctx := c.Request.Context()

		user, found, err := h.Users.FindByID(ctx, body.UserID)
		if err != nil {
			h.fail(c, err)
			return
		}
		if !found {
			notFound(c, "user")
			return
		}

		contract := models.Contract{
			UserID:    user.ID,
			Title:     strings.TrimSpace(body.Title),
			Salary:    body.Salary,
			StartDate: body.StartDate.UTC(),
		}
		if body.EndDate != nil {
			end := body.EndDate.UTC()
			contract.EndDate = &end
		}
		if _, err := h.Contracts.Create(ctx, &contract); err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, contract)
	}
}

// GET /contracts?userId=&status=
func (h *Controller) GetContracts() gin.HandlerFunc {
	return func(c *gin.Context) {
		filter := bson.M{}
		if raw := c.Query("userId"); raw != "" {
			uid, err := repository.ParseID(raw)
			if err != nil {
				h.fail(c, err)
				return
			}
			filter["userId"] = uid
		}
		if status := strings.ToUpper(c.Query("status")); status != "" {
			if status != string(models.ContractStatusActive) && status != string(models.ContractStatusTerminated) {
				badRequest(c, "unknown status")
				return
			}
			filter["status"] = status
		}

		items, err := h.Contracts.Find(c.Request.Context(), filter, options.Find().SetSort(bson.D{{Key: "startDate", Value: -1}}))
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": items, "total": len(items)})
	}
}

// GET /contracts/:id
func (h *Controller) GetContract() gin.HandlerFunc {
	return func(c *gin.Context) {
		contract, found, err := h.Contracts.FindByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			h.fail(c, err)
			return
		}
		if !found {
			notFound(c, "contract")
			return
		}
		c.JSON(http.StatusOK, contract)
	}
}

// PATCH /contracts/:id
func (h *Controller) UpdateContract() gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.UpdateContractDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			badRequest(c, err.Error())
			return
		}

		set := bson.M{}
		if body.Title != nil {
			set["title"] = strings.TrimSpace(*body.Title)
		}
		if body.Salary != nil {
			set["salary"] = *body.Salary
		}
		if body.EndDate != nil {
			set["endDate"] = body.EndDate.UTC()
		}
		if len(set) == 0 {
			badRequest(c, "no updates provided")
			return
		}

		ctx := c.Request.Context()
		ok, err := h.Contracts.Update(ctx, c.Param("id"), repository.Set(set))
		if err != nil {
			h.fail(c, err)
			return
		}
		if !ok {
			notFound(c, "contract")
			return
		}
		contract, _, err := h.Contracts.FindByID(ctx, c.Param("id"))
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, contract)
	}
}

// POST /contracts/:id/terminate
func (h *Controller) TerminateContract() gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.TerminateContractDTO
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&body); err != nil {
				badRequest(c, err.Error())
				return
			}
		}
		at := h.now()
		if body.At != nil {
			at = body.At.UTC()
		}

		ok, err := h.Contracts.Terminate(c.Request.Context(), c.Param("id"), at)
		if err != nil {
			h.fail(c, err)
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "contract not found or not active", "code": "not_active"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

// DELETE /contracts/:id
func (h *Controller) DeleteContract() gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := h.Contracts.Delete(c.Request.Context(), c.Param("id"))
		if err != nil {
			h.fail(c, err)
			return
		}
		if !ok {
			notFound(c, "contract")
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
