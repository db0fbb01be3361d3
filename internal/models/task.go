package models

import (
	"time"
)

// TaskStatus represents the status of a task
type TaskStatus string

const (
	StatusPending    TaskStatus = "Pending"
	StatusInProgress TaskStatus = "In Progress"
	StatusCompleted  TaskStatus = "Completed"
)

// Valid reports whether s is one of the known statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// TaskPriority represents the priority of a task
type TaskPriority string

const (
	PriorityLow    TaskPriority = "Low"
	PriorityMedium TaskPriority = "Medium"
	PriorityHigh   TaskPriority = "High"
)

// Valid reports whether p is one of the known priorities.
func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// DateLayout is the storage format of Task.DueDate.
const DateLayout = "2006-01-02"

// Task represents a to-do item owned by a single user.
// TimerStartedAt is set only while IsTimerActive is true.
type Task struct {
	ID             uint         `json:"id" gorm:"primaryKey"`
	UserID         uint         `json:"-" gorm:"column:user_id;not null;index"`
	GroupID        *uint        `json:"group_id" gorm:"column:group_id;index"`
	Group          *Group       `json:"group,omitempty" gorm:"constraint:OnDelete:SET NULL"`
	Title          string       `json:"title" gorm:"size:255;not null"`
	Description    *string      `json:"description"`
	Priority       TaskPriority `json:"priority" gorm:"size:10;not null;default:'Medium'"`
	Status         TaskStatus   `json:"status" gorm:"size:20;not null;default:'Pending'"`
	DueDate        *string      `json:"due_date" gorm:"column:due_date"`
	Duration       *int         `json:"duration"`
	TimeSpent      *int         `json:"time_spent"`
	TimeRemaining  *int         `json:"time_remaining"`
	TimeCompletion *int         `json:"time_completion"`
	IsTimerActive  bool         `json:"is_timer_active" gorm:"not null;default:false;index"`
	TimerStartedAt *time.Time   `json:"timer_started_at"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// TableName specifies the table name for Task Model
func (Task) TableName() string {
	return "tasks"
}
