package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"atlas/internal/database"
	"atlas/internal/realtime"
	"atlas/internal/services"

	"github.com/gin-gonic/gin"
)

// parseTaskFilter reads ?group=<id>|none&page=&limit= into a filter.
func parseTaskFilter(c *gin.Context) (services.TaskFilter, bool) {
	var f services.TaskFilter

	switch group := strings.TrimSpace(c.Query("group")); group {
	case "":
	case "none":
		f.WithoutGroup = true
	default:
		id, err := strconv.ParseUint(group, 10, 64)
		if err != nil || id == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "group must be a group id or \"none\""})
			return f, false
		}
		gid := uint(id)
		f.GroupID = &gid
	}

	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 {
			limit = 5
		}
		f.Limit = min(limit, services.MaxPageSize)

		page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
		if err != nil || page < 1 {
			page = 1
		}
		f.Page = page
	}
	return f, true
}

/*
*
GetTasks handles GET /api/tasks
Returns the authenticated user's tasks, newest first.
Optional query params: group (<id> or "none"), page and limit.
*/
func GetTasks(c *gin.Context) {
	userID, ok := actor(c)
	if !ok {
		return
	}
	filter, ok := parseTaskFilter(c)
	if !ok {
		return
	}

	tasks, total, err := services.ListTasks(c.Request.Context(), database.GetDB(), userID, filter)
	if err != nil {
		respondError(c, err, "fetch tasks")
		return
	}

	resp := gin.H{
		"tasks": tasks,
		"count": len(tasks), // number of items in this page
		"total": total,      // total tasks (all pages) for current filter
	}
	if filter.Limit > 0 {
		resp["page"] = filter.Page
		resp["limit"] = filter.Limit
	}
	c.JSON(http.StatusOK, resp)
}

/*
*
CreateTask handles POST /api/tasks
Creates a new task for the authenticated user
*/
func CreateTask(c *gin.Context) {
	userID, ok := actor(c)
	if !ok {
		return
	}

	var req services.TaskInput
	if !bindJSON(c, &req) {
		return
	}

	task, err := services.CreateTask(c.Request.Context(), database.GetDB(), userID, req)
	if err != nil {
		respondError(c, err, "create task")
		return
	}

	realtime.PublishTask(userID, realtime.TaskCreated, task.ID)
	c.JSON(http.StatusCreated, task)
}

// GetTaskByID handles GET /api/tasks/:id
// Returns a single task owned by the authenticated user
func GetTaskByID(c *gin.Context) {
	userID, ok := actor(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "task")
	if !ok {
		return
	}

	task, err := services.GetTask(c.Request.Context(), database.GetDB(), userID, taskID)
	if err != nil {
		respondError(c, err, "view")
		return
	}
	c.JSON(http.StatusOK, task)
}

// UpdateTask handles PUT /api/tasks/:id
// Updates a task owned by the authenticated user
func UpdateTask(c *gin.Context) {
	userID, ok := actor(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "task")
	if !ok {
		return
	}

	var req services.TaskPatch
	if !bindJSON(c, &req) {
		return
	}

	task, err := services.UpdateTask(c.Request.Context(), database.GetDB(), userID, taskID, req)
	if err != nil {
		respondError(c, err, "update")
		return
	}

	realtime.PublishTask(userID, realtime.TaskUpdated, task.ID)
	c.JSON(http.StatusOK, task)
}

// DeleteTask handles DELETE /api/tasks/:id?confirm=yes
// Deletes a task owned by the authenticated user. Without confirmation the
// request is a no-op.
func DeleteTask(c *gin.Context) {
	userID, ok := actor(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "task")
	if !ok {
		return
	}

	deleted, err := services.DeleteTask(c.Request.Context(), database.GetDB(), userID, taskID, confirmed(c))
	if err != nil {
		respondError(c, err, "delete")
		return
	}

	if !deleted {
		c.JSON(http.StatusOK, gin.H{
			"message": "Deletion not confirmed",
			"id":      taskID,
			"deleted": false,
		})
		return
	}

	realtime.PublishTask(userID, realtime.TaskDeleted, taskID)
	c.JSON(http.StatusOK, gin.H{
		"message": "Task deleted successfully",
		"id":      taskID,
		"deleted": true,
	})
}

// confirmed reads the delete confirmation from ?confirm= or a form field.
func confirmed(c *gin.Context) bool {
	v := c.Query("confirm")
	if v == "" {
		v = c.PostForm("confirm")
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "yes", "true", "1":
		return true
	}
	return false
}

// GetStats handles GET /api/stats
// Returns counts of the user's tasks by status and their total time spent.
func GetStats(c *gin.Context) {
	userID, ok := actor(c)
	if !ok {
		return
	}
	stats, err := services.Stats(c.Request.Context(), database.GetDB(), userID)
	if err != nil {
		respondError(c, err, "compute stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}
