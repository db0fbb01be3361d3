package handlers

import (
	"net/http"

	"atlas/internal/database"
	"atlas/internal/realtime"
	"atlas/internal/services"

	"github.com/gin-gonic/gin"
)

// GetGroups handles GET /api/groups
func GetGroups(c *gin.Context) {
	userID, ok := actor(c)
	if !ok {
		return
	}
	groups, err := services.ListGroups(c.Request.Context(), database.GetDB(), userID)
	if err != nil {
		respondError(c, err, "fetch groups")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"groups": groups,
		"count":  len(groups),
	})
}

// CreateGroup handles POST /api/groups
func CreateGroup(c *gin.Context) {
	userID, ok := actor(c)
	if !ok {
		return
	}
	var req services.GroupInput
	if !bindJSON(c, &req) {
		return
	}

	group, err := services.CreateGroup(c.Request.Context(), database.GetDB(), userID, req)
	if err != nil {
		respondError(c, err, "create group")
		return
	}
	realtime.PublishGroup(userID, realtime.GroupCreated, group.ID)
	c.JSON(http.StatusCreated, group)
}

// GetGroupByID handles GET /api/groups/:id
func GetGroupByID(c *gin.Context) {
	userID, ok := actor(c)
	if !ok {
		return
	}
	groupID, ok := pathID(c, "group")
	if !ok {
		return
	}

	group, err := services.GetGroup(c.Request.Context(), database.GetDB(), userID, groupID)
	if err != nil {
		respondError(c, err, "fetch group")
		return
	}
	c.JSON(http.StatusOK, group)
}

// UpdateGroup handles PUT /api/groups/:id
func UpdateGroup(c *gin.Context) {
	userID, ok := actor(c)
	if !ok {
		return
	}
	groupID, ok := pathID(c, "group")
	if !ok {
		return
	}
	var req services.GroupPatch
	if !bindJSON(c, &req) {
		return
	}

	group, err := services.UpdateGroup(c.Request.Context(), database.GetDB(), userID, groupID, req)
	if err != nil {
		respondError(c, err, "update group")
		return
	}
	realtime.PublishGroup(userID, realtime.GroupUpdated, group.ID)
	c.JSON(http.StatusOK, group)
}

// DeleteGroup handles DELETE /api/groups/:id
// Member tasks are kept and lose their group.
func DeleteGroup(c *gin.Context) {
	userID, ok := actor(c)
	if !ok {
		return
	}
	groupID, ok := pathID(c, "group")
	if !ok {
		return
	}

	detached, err := services.DeleteGroup(c.Request.Context(), database.GetDB(), userID, groupID)
	if err != nil {
		respondError(c, err, "delete group")
		return
	}
	realtime.PublishGroup(userID, realtime.GroupDeleted, groupID)
	c.JSON(http.StatusOK, gin.H{
		"message":        "Group deleted successfully",
		"id":             groupID,
		"detached_tasks": detached,
	})
}
