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

// POST /teams
func (h *Controller) CreateTeam() gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.CreateTeamDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			badRequest(c, err.Error())
			return
		}

		members, err := repository.ParseIDs(body.MembersID)
		if err != nil {
			h.fail(c, err)
			return
		}
		team := models.Team{
			Name:        body.Name,
			Slug:        strings.ToLower(strings.TrimSpace(body.Slug)),
			Description: strings.TrimSpace(body.Description),
			MembersID:   members,
		}
		if body.LeaderID != "" {
			if team.LeaderID, err = repository.ParseID(body.LeaderID); err != nil {
				h.fail(c, err)
				return
			}
		}

		if _, err := h.Teams.Create(c.Request.Context(), &team); err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, team)
	}
}

// GET /teams
func (h *Controller) GetTeams() gin.HandlerFunc {
	return func(c *gin.Context) {
		teams, err := h.Teams.Find(c.Request.Context(), bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": teams, "total": len(teams)})
	}
}

// GET /teams/:id accepts an id or a slug.
func (h *Controller) GetTeam() gin.HandlerFunc {
	return func(c *gin.Context) {
		team, ok := h.loadTeam(c)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, team)
	}
}

func (h *Controller) loadTeam(c *gin.Context) (models.Team, bool) {
	ctx := c.Request.Context()
	key := c.Param("id")

	var (
		team  models.Team
		found bool
		err   error
	)
	if _, perr := repository.ParseID(key); perr == nil {
		team, found, err = h.Teams.FindByID(ctx, key)
	} else {
		team, found, err = h.Teams.FindBySlug(ctx, key)
	}
	if err != nil {
		h.fail(c, err)
		return models.Team{}, false
	}
	if !found {
		notFound(c, "team")
		return models.Team{}, false
	}
	return team, true
}

// PATCH /teams/:id
func (h *Controller) UpdateTeam() gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.UpdateTeamDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			badRequest(c, err.Error())
			return
		}

		set := bson.M{}
		unset := bson.M{}
		if body.Name != nil {
			v := strings.TrimSpace(*body.Name)
			if v == "" {
				badRequest(c, "name cannot be empty")
				return
			}
			set["name"] = v
		}
		if body.Description != nil {
			set["description"] = strings.TrimSpace(*body.Description)
		}
		if body.LeaderID != nil {
			if *body.LeaderID == "" {
				unset["leaderId"] = ""
			} else {
				leader, err := repository.ParseID(*body.LeaderID)
				if err != nil {
					h.fail(c, err)
					return
				}
				set["leaderId"] = leader
			}
		}
		if len(set) == 0 && len(unset) == 0 {
			badRequest(c, "no updates provided")
			return
		}

		update := bson.M{}
		if len(set) > 0 {
			update["$set"] = set
		}
		if len(unset) > 0 {
			update["$unset"] = unset
		}
		ctx := c.Request.Context()
		ok, err := h.Teams.Update(ctx, c.Param("id"), update)
		if err != nil {
			h.fail(c, err)
			return
		}
		if !ok {
			notFound(c, "team")
			return
		}
		team, _, err := h.Teams.FindByID(ctx, c.Param("id"))
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, team)
	}
}

// DELETE /teams/:id
func (h *Controller) DeleteTeam() gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := h.Teams.Delete(c.Request.Context(), c.Param("id"))
		if err != nil {
			h.fail(c, err)
			return
		}
		if !ok {
			notFound(c, "team")
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

// GET /teams/:id/members
func (h *Controller) GetTeamMembers() gin.HandlerFunc {
	return func(c *gin.Context) {
		team, ok := h.loadTeam(c)
		if !ok {
			return
		}
		members := team.MembersID
		if members == nil {
			members = []bson.ObjectID{}
		}
		users, err := h.Users.Search(c.Request.Context(), repository.UserFilter{IncludeIDs: members})
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": users, "total": len(users)})
	}
}

// POST /teams/:id/members
func (h *Controller) AddTeamMember() gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.TeamMemberDTO
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

		added, err := h.Teams.AddMember(ctx, c.Param("id"), user.ID)
		if err != nil {
			h.fail(c, err)
			return
		}
		if !added {
			if _, exists, err := h.Teams.FindByID(ctx, c.Param("id")); err != nil {
				h.fail(c, err)
				return
			} else if !exists {
				notFound(c, "team")
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"ok": true, "added": added})
	}
}

// DELETE /teams/:id/members/:userId
func (h *Controller) RemoveTeamMember() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := repository.ParseID(c.Param("userId"))
		if err != nil {
			h.fail(c, err)
			return
		}
		removed, err := h.Teams.RemoveMember(c.Request.Context(), c.Param("id"), userID)
		if err != nil {
			h.fail(c, err)
			return
		}
		if !removed {
			notFound(c, "team member")
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
