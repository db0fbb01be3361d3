package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"atlas/internal/models"

	"gorm.io/gorm"
)

// MaxPageSize caps TaskFilter.Limit.
const MaxPageSize = 100

// TaskInput holds the client-editable fields of a new task.
type TaskInput struct {
	Title          string              `json:"title" validate:"required,max=255"`
	Description    *string             `json:"description"`
	Priority       models.TaskPriority `json:"priority" validate:"omitempty,taskpriority"`
	Status         models.TaskStatus   `json:"status" validate:"omitempty,taskstatus"`
	DueDate        *string             `json:"due_date" validate:"omitempty,flexdate"`
	Duration       *int                `json:"duration" validate:"omitempty,min=0"`
	TimeSpent      *int                `json:"time_spent" validate:"omitempty,min=0"`
	TimeRemaining  *int                `json:"time_remaining"`
	TimeCompletion *int                `json:"time_completion"`
	GroupID        *uint               `json:"group_id"`
}

// TaskPatch is a partial update; nil fields are left alone. A blank
// Description or DueDate clears it and GroupID 0 detaches the group.
type TaskPatch struct {
	Title          *string              `json:"title"`
	Description    *string              `json:"description"`
	Priority       *models.TaskPriority `json:"priority"`
	Status         *models.TaskStatus   `json:"status"`
	DueDate        *string              `json:"due_date"`
	Duration       *int                 `json:"duration"`
	TimeSpent      *int                 `json:"time_spent"`
	TimeRemaining  *int                 `json:"time_remaining"`
	TimeCompletion *int                 `json:"time_completion"`
	GroupID        *uint                `json:"group_id"`
}

// TaskFilter narrows ListTasks. GroupID and WithoutGroup are exclusive.
// A zero Limit returns every matching task.
type TaskFilter struct {
	GroupID      *uint
	WithoutGroup bool
	Page         int
	Limit        int
}

// editableColumns are written by UpdateTask; timer columns are owned by the
// timer operations and never overwritten here.
var editableColumns = []string{
	"title", "description", "priority", "status", "due_date", "duration",
	"time_spent", "time_remaining", "time_completion", "group_id",
}

// ListTasks returns the user's tasks newest first plus the unpaginated total.
func ListTasks(ctx context.Context, db *gorm.DB, userID uint, f TaskFilter) ([]models.Task, int64, error) {
	if f.GroupID != nil && f.WithoutGroup {
		return nil, 0, fieldError("group", "Filter by a group or by no group, not both.")
	}

	query := db.WithContext(ctx).Model(&models.Task{}).Where("user_id = ?", userID)
	switch {
	case f.WithoutGroup:
		query = query.Where("group_id IS NULL")
	case f.GroupID != nil:
		query = query.Where("group_id = ?", *f.GroupID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count tasks: %w", err)
	}

	page := query.Session(&gorm.Session{}).Preload("Group").Order("created_at desc, id desc")
	if f.Limit > 0 {
		limit := min(f.Limit, MaxPageSize)
		offset := 0
		if f.Page > 1 {
			offset = (f.Page - 1) * limit
		}
		page = page.Limit(limit).Offset(offset)
	}

	tasks := []models.Task{}
	if err := page.Find(&tasks).Error; err != nil {
		return nil, 0, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, total, nil
}

// CreateTask validates in and stores a new task owned by userID.
func CreateTask(ctx context.Context, db *gorm.DB, userID uint, in TaskInput) (*models.Task, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = trimOptional(in.Description)
	in.DueDate = normalizeDate(in.DueDate)
	if in.Priority == "" {
		in.Priority = models.PriorityMedium
	}
	if in.Status == "" {
		in.Status = models.StatusPending
	}
	if in.GroupID != nil && *in.GroupID == 0 {
		in.GroupID = nil
	}

	db = db.WithContext(ctx)
	if err := validateTaskInput(db, userID, in); err != nil {
		return nil, err
	}

	task := models.Task{
		UserID:         userID,
		GroupID:        in.GroupID,
		Title:          in.Title,
		Description:    in.Description,
		Priority:       in.Priority,
		Status:         in.Status,
		DueDate:        in.DueDate,
		Duration:       in.Duration,
		TimeSpent:      in.TimeSpent,
		TimeRemaining:  in.TimeRemaining,
		TimeCompletion: in.TimeCompletion,
	}
	deriveTimeFields(&task)

	if err := db.Create(&task).Error; err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return &task, nil
}

// GetTask returns one of the user's tasks.
func GetTask(ctx context.Context, db *gorm.DB, userID, taskID uint) (*models.Task, error) {
	var task models.Task
	if err := db.WithContext(ctx).Preload("Group").First(&task, taskID).Error; err != nil {
		return nil, notFound(err, ErrTaskNotFound)
	}
	if task.UserID != userID {
		return nil, ErrForbidden
	}
	return &task, nil
}

// UpdateTask applies patch to one of the user's tasks.
func UpdateTask(ctx context.Context, db *gorm.DB, userID, taskID uint, patch TaskPatch) (*models.Task, error) {
	db = db.WithContext(ctx)

	var task models.Task
	if err := db.First(&task, taskID).Error; err != nil {
		return nil, notFound(err, ErrTaskNotFound)
	}
	if task.UserID != userID {
		return nil, ErrForbidden
	}

	in := inputFromTask(&task)
	if patch.Title != nil {
		in.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		in.Description = trimOptional(patch.Description)
	}
	if patch.Priority != nil {
		in.Priority = *patch.Priority
	}
	if patch.Status != nil {
		in.Status = *patch.Status
	}
	if patch.DueDate != nil {
		in.DueDate = normalizeDate(patch.DueDate)
	}
	if patch.Duration != nil {
		in.Duration = patch.Duration
	}
	if patch.TimeSpent != nil {
		in.TimeSpent = patch.TimeSpent
	}
	if patch.TimeRemaining != nil {
		in.TimeRemaining = patch.TimeRemaining
	}
	if patch.TimeCompletion != nil {
		in.TimeCompletion = patch.TimeCompletion
	}
	if patch.GroupID != nil {
		in.GroupID = patch.GroupID
		if *patch.GroupID == 0 {
			in.GroupID = nil
		}
	}

	verr := &ValidationError{}
	if err := validateTaskInput(db, userID, in); err != nil {
		if !errors.As(err, &verr) {
			return nil, err
		}
	}
	// Blank choices default on create only; an update must name one.
	if in.Priority == "" && !verr.Has("priority") {
		verr.Add("priority", "Select a valid choice.")
	}
	if in.Status == "" && !verr.Has("status") {
		verr.Add("status", "Select a valid choice.")
	}
	if err := verr.orNil(); err != nil {
		return nil, err
	}

	task.Title = in.Title
	task.Description = in.Description
	task.Priority = in.Priority
	task.Status = in.Status
	task.DueDate = in.DueDate
	task.Duration = in.Duration
	task.TimeSpent = in.TimeSpent
	task.TimeRemaining = in.TimeRemaining
	task.TimeCompletion = in.TimeCompletion
	task.GroupID = in.GroupID
	deriveTimeFields(&task)

	if err := db.Model(&task).Select(editableColumns).Updates(&task).Error; err != nil {
		return nil, fmt.Errorf("update task %d: %w", task.ID, err)
	}
	return GetTask(ctx, db, userID, task.ID)
}

// DeleteTask removes one of the user's tasks. Ownership is checked before
// the confirmation so an unconfirmed request still cannot probe other
// users' ids. It reports whether a row was deleted.
func DeleteTask(ctx context.Context, db *gorm.DB, userID, taskID uint, confirmed bool) (bool, error) {
	db = db.WithContext(ctx)

	var task models.Task
	if err := db.First(&task, taskID).Error; err != nil {
		return false, notFound(err, ErrTaskNotFound)
	}
	if task.UserID != userID {
		return false, ErrForbidden
	}
	if !confirmed {
		return false, nil
	}
	if err := db.Delete(&task).Error; err != nil {
		return false, fmt.Errorf("delete task %d: %w", task.ID, err)
	}
	return true, nil
}

func inputFromTask(t *models.Task) TaskInput {
	return TaskInput{
		Title:          t.Title,
		Description:    t.Description,
		Priority:       t.Priority,
		Status:         t.Status,
		DueDate:        t.DueDate,
		Duration:       t.Duration,
		TimeSpent:      t.TimeSpent,
		TimeRemaining:  t.TimeRemaining,
		TimeCompletion: t.TimeCompletion,
		GroupID:        t.GroupID,
	}
}

func validateTaskInput(db *gorm.DB, userID uint, in TaskInput) error {
	verr := &ValidationError{}
	if err := validateStruct(in); err != nil {
		if !errors.As(err, &verr) {
			return err
		}
	}
	if in.GroupID != nil && !verr.Has("group_id") {
		if _, err := findGroup(db, userID, *in.GroupID); err != nil {
			if !errors.Is(err, ErrGroupNotFound) {
				return err
			}
			verr.Add("group_id", "Select a valid choice. That choice is not one of the available choices.")
		}
	}
	return verr.orNil()
}

// deriveTimeFields keeps time_remaining equal to duration - time_spent and
// time_completion inside [0, 100].
func deriveTimeFields(t *models.Task) {
	t.TimeCompletion = clampPercent(t.TimeCompletion)
	if t.Duration != nil {
		remaining := *t.Duration - valueOr(t.TimeSpent)
		t.TimeRemaining = &remaining
	}
}
