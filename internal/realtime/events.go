package realtime

import (
	"encoding/json"
	"log/slog"
)

// Event types pushed to a user's connections.
const (
	TaskCreated  = "task_created"
	TaskUpdated  = "task_updated"
	TaskDeleted  = "task_deleted"
	TimerStarted = "timer_started"
	TimerStopped = "timer_stopped"
	GroupCreated = "group_created"
	GroupUpdated = "group_updated"
	GroupDeleted = "group_deleted"

	// Hello is sent once on connect with the running timer, if any.
	Hello = "hello"
)

const eventVersion = 1

// Event is the JSON envelope sent over the websocket.
type Event struct {
	Type    string `json:"type"`
	UserID  uint   `json:"userId"`
	TaskID  uint   `json:"taskId,omitempty"`
	GroupID uint   `json:"groupId,omitempty"`
	Version int    `json:"version"`

	ElapsedSeconds int64 `json:"elapsedSeconds,omitempty"`
}

// HelloMessage builds the greeting for a fresh connection. activeTaskID is 0
// when no timer is running.
func HelloMessage(userID, activeTaskID uint, elapsedSeconds int64) ([]byte, error) {
	return json.Marshal(Event{
		Type:           Hello,
		UserID:         userID,
		TaskID:         activeTaskID,
		Version:        eventVersion,
		ElapsedSeconds: elapsedSeconds,
	})
}

// Publish serializes an event for the user and broadcasts it on the hub.
func (h *Hub) Publish(userID uint, eventType string, taskID, groupID uint) {
	evt := Event{
		Type:    eventType,
		UserID:  userID,
		TaskID:  taskID,
		GroupID: groupID,
		Version: eventVersion,
	}
	bytes, err := json.Marshal(evt)
	if err != nil {
		slog.Warn("marshal realtime event", "type", eventType, "error", err)
		return
	}
	h.Broadcast(userID, bytes)
}

// PublishTask is shorthand for a task-scoped event on the global hub.
func PublishTask(userID uint, eventType string, taskID uint) {
	GetHub().Publish(userID, eventType, taskID, 0)
}

// PublishGroup is shorthand for a group-scoped event on the global hub.
func PublishGroup(userID uint, eventType string, groupID uint) {
	GetHub().Publish(userID, eventType, 0, groupID)
}
