package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/princinho/hrmbackend/dto"
	"github.com/princinho/hrmbackend/models"
	"github.com/princinho/hrmbackend/repository"
	"github.com/princinho/hrmbackend/utils"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap"
)

func addressOf(a *dto.AddressDTO) models.Address {
	if a == nil {
		return models.Address{}
	}
	return models.Address{
		Street:  strings.TrimSpace(a.Street),
		City:    strings.TrimSpace(a.City),
		Country: strings.TrimSpace(a.Country),
	}
}

// profileSet collects the profile fields both the admin and the self-service
// updates accept.
func profileSet(fullName, email, phone *string, addr *dto.AddressDTO) (bson.M, string) {
	set := bson.M{}
	if fullName != nil {
		v := strings.TrimSpace(*fullName)
		if v == "" {
			return nil, "fullName cannot be empty"
		}
		set["fullName"] = v
	}
	if email != nil {
		set["email"] = strings.ToLower(strings.TrimSpace(*email))
	}
	if phone != nil {
		set["phoneNumber"] = strings.TrimSpace(*phone)
	}
	if addr != nil {
		set["address"] = addressOf(addr)
	}
	return set, ""
}

// POST /users
func (h *Controller) CreateUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.CreateUserDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			badRequest(c, err.Error())
			return
		}

		hash, err := h.Auth.HashPassword(body.Password)
		if err != nil {
			h.fail(c, err)
			return
		}

		active := true
		if body.IsActive != nil {
			active = *body.IsActive
		}
		user := models.User{
			UserName:     body.UserName,
			PasswordHash: hash,
			FullName:     strings.TrimSpace(body.FullName),
			Email:        strings.ToLower(strings.TrimSpace(body.Email)),
			PhoneNumber:  strings.TrimSpace(body.PhoneNumber),
			Address:      addressOf(body.Address),
			Role:         models.Role(body.Role),
			IsActive:     active,
		}
		if _, err := h.Users.Create(c.Request.Context(), &user); err != nil {
			h.fail(c, err)
			return
		}

		c.JSON(http.StatusCreated, user)
	}
}

// GET /users?name=&role=&available=&contractable=&active=&page=&limit=
//
// available=true keeps users in no team; contractable=true keeps users with
// no contract in force today. The false values select the complement.
func (h *Controller) GetUsers() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		available, err := utils.ParseBoolQuery(c.Query("available"))
		if err != nil {
			badRequest(c, "available must be a boolean")
			return
		}
		contractable, err := utils.ParseBoolQuery(c.Query("contractable"))
		if err != nil {
			badRequest(c, "contractable must be a boolean")
			return
		}
		active, err := utils.ParseBoolQuery(c.Query("active"))
		if err != nil {
			badRequest(c, "active must be a boolean")
			return
		}

		filter := repository.UserFilter{
			Name:       c.Query("name"),
			Role:       models.Role(c.Query("role")),
			ActiveOnly: active != nil && *active,
		}
		if filter.Role != "" && !filter.Role.Valid() {
			badRequest(c, "unknown role")
			return
		}

		var include [][]bson.ObjectID
		if available != nil {
			members, err := h.Teams.MemberIDs(ctx)
			if err != nil {
				h.fail(c, err)
				return
			}
			if *available {
				filter.ExcludeIDs = append(filter.ExcludeIDs, members...)
			} else {
				include = append(include, members)
			}
		}
		if contractable != nil {
			contracted, err := h.Contracts.ActiveUserIDs(ctx, h.now())
			if err != nil {
				h.fail(c, err)
				return
			}
			if *contractable {
				filter.ExcludeIDs = append(filter.ExcludeIDs, contracted...)
			} else {
				include = append(include, contracted)
			}
		}
		if len(include) > 0 {
			filter.IncludeIDs = intersectIDs(include...)
		}

		page, limit, skip := utils.Page(c.Query("page"), c.Query("limit"), 50, 200)
		total, err := h.Users.Count(ctx, filter)
		if err != nil {
			h.fail(c, err)
			return
		}
		filter.Skip, filter.Limit = skip, int64(limit)
		items, err := h.Users.Search(ctx, filter)
		if err != nil {
			h.fail(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"items": items,
			"page":  page,
			"limit": limit,
			"total": total,
		})
	}
}

func intersectIDs(sets ...[]bson.ObjectID) []bson.ObjectID {
	out := make([]bson.ObjectID, 0)
	if len(sets) == 0 {
		return out
	}
	counts := map[bson.ObjectID]int{}
	for _, set := range sets {
		seen := map[bson.ObjectID]bool{}
		for _, id := range set {
			if !seen[id] {
				seen[id] = true
				counts[id]++
			}
		}
	}
	for _, id := range sets[0] {
		if counts[id] == len(sets) {
			out = append(out, id)
			counts[id] = 0
		}
	}
	return out
}

// GET /users/:id
func (h *Controller) GetUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, found, err := h.Users.FindByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			h.fail(c, err)
			return
		}
		if !found {
			notFound(c, "user")
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

// GET /users/me
func (h *Controller) GetMe() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		user, found, err := h.Users.FindByID(c.Request.Context(), userID.Hex())
		if err != nil {
			h.fail(c, err)
			return
		}
		if !found {
			notFound(c, "user")
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

// PATCH /users/:id
func (h *Controller) UpdateUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.UpdateUserDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			badRequest(c, err.Error())
			return
		}

		set, msg := profileSet(body.FullName, body.Email, body.PhoneNumber, body.Address)
		if msg != "" {
			badRequest(c, msg)
			return
		}
		if body.Role != nil {
			set["role"] = models.Role(*body.Role)
		}
		if body.IsActive != nil {
			set["isActive"] = *body.IsActive
		}
		h.applyUserUpdate(c, c.Param("id"), set)
	}
}

// PATCH /users/me
func (h *Controller) UpdateMe() gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.UpdateMeDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			badRequest(c, err.Error())
			return
		}
		userID, ok := currentUserID(c)
		if !ok {
			return
		}

		set, msg := profileSet(body.FullName, body.Email, body.PhoneNumber, body.Address)
		if msg != "" {
			badRequest(c, msg)
			return
		}
		h.applyUserUpdate(c, userID.Hex(), set)
	}
}

func (h *Controller) applyUserUpdate(c *gin.Context, id string, set bson.M) {
	if len(set) == 0 {
		badRequest(c, "no updates provided")
		return
	}
	ctx := c.Request.Context()

	ok, err := h.Users.Update(ctx, id, repository.Set(set))
	if err != nil {
		h.fail(c, err)
		return
	}
	if !ok {
		notFound(c, "user")
		return
	}

	user, _, err := h.Users.FindByID(ctx, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// DELETE /users/:id
func (h *Controller) DeleteUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if me, ok := currentUserID(c); !ok {
			return
		} else if me.Hex() == c.Param("id") {
			badRequest(c, "cannot delete your own account")
			return
		}

		ctx := c.Request.Context()
		ok, err := h.Users.Delete(ctx, c.Param("id"))
		if err != nil {
			h.fail(c, err)
			return
		}
		if !ok {
			notFound(c, "user")
			return
		}
		// Delete succeeded, so the id parses.
		uid, _ := repository.ParseID(c.Param("id"))
		if _, err := h.Teams.ForgetUser(ctx, uid); err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

// POST /users/me/avatar (multipart field "avatar")
func (h *Controller) UploadMyAvatar() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.Avatars == nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "avatar uploads are disabled", "code": "storage_unavailable"})
			return
		}
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		fh, err := c.FormFile("avatar")
		if err != nil {
			badRequest(c, "missing avatar file")
			return
		}
		ctx := c.Request.Context()

		previous, found, err := h.Users.FindByID(ctx, userID.Hex())
		if err != nil {
			h.fail(c, err)
			return
		}
		if !found {
			notFound(c, "user")
			return
		}

		avatar, err := h.Avatars.Upload(ctx, userID.Hex(), fh)
		if err != nil {
			h.fail(c, err)
			return
		}
		if _, err := h.Users.Update(ctx, userID.Hex(), repository.Set(bson.M{
			"avatarImageId": avatar.ObjectName,
			"avatarUrl":     avatar.URL,
		})); err != nil {
			_ = h.Avatars.Delete(ctx, avatar.ObjectName)
			h.fail(c, err)
			return
		}

		if err := h.Avatars.DeletePrevious(ctx, previous.AvatarImageID, previous.AvatarURL); err != nil {
			// best effort
			h.Log.Warn("delete previous avatar", zap.String("object", previous.AvatarImageID), zap.Error(err))
		}
		c.JSON(http.StatusOK, avatar)
	}
}
