package handlers

import (
	"net/http"

	"atlas/internal/database"
	"atlas/internal/realtime"
	"atlas/internal/services"

	"github.com/gin-gonic/gin"
)

// StartTimer handles POST /api/tasks/:id/timer/start
func StartTimer(c *gin.Context) {
	userID, ok := actor(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "task")
	if !ok {
		return
	}

	task, err := services.StartTimer(c.Request.Context(), database.GetDB(), userID, taskID)
	if err != nil {
		respondError(c, err, "start the timer on")
		return
	}

	realtime.PublishTask(userID, realtime.TimerStarted, task.ID)
	c.JSON(http.StatusOK, gin.H{
		"active":     true,
		"task_id":    task.ID,
		"started_at": task.TimerStartedAt,
	})
}

// StopTimer handles POST /api/tasks/:id/timer/stop
func StopTimer(c *gin.Context) {
	userID, ok := actor(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "task")
	if !ok {
		return
	}

	task, err := services.StopTimer(c.Request.Context(), database.GetDB(), userID, taskID)
	if err != nil {
		respondError(c, err, "stop the timer on")
		return
	}

	realtime.PublishTask(userID, realtime.TimerStopped, task.ID)
	c.JSON(http.StatusOK, gin.H{
		"task_id":         task.ID,
		"time_spent":      task.TimeSpent,
		"time_remaining":  task.TimeRemaining,
		"time_completion": task.TimeCompletion,
	})
}

// GetTimerStatus handles GET /api/tasks/:id/timer
func GetTimerStatus(c *gin.Context) {
	userID, ok := actor(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "task")
	if !ok {
		return
	}

	status, err := services.GetTimerStatus(c.Request.Context(), database.GetDB(), userID, taskID)
	if err != nil {
		respondError(c, err, "view the timer of")
		return
	}
	c.JSON(http.StatusOK, status)
}

// GetActiveTimer handles GET /api/timer/active
// Reports which of the user's tasks, if any, has a running timer.
func GetActiveTimer(c *gin.Context) {
	userID, ok := actor(c)
	if !ok {
		return
	}

	task, err := services.ActiveTimer(c.Request.Context(), database.GetDB(), userID)
	if err != nil {
		respondError(c, err, "check the active timer")
		return
	}
	if task == nil {
		c.JSON(http.StatusOK, gin.H{"has_active_timer": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"has_active_timer": true,
		"task_id":          task.ID,
		"task_title":       task.Title,
		"elapsed_seconds":  services.ElapsedSeconds(task),
	})
}
