package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"atlas/internal/models"

	"gorm.io/gorm"
)

// now is a small indirection to allow test stubbing.
var now = time.Now

// TimerStatus is the read-only view of a task's timer.
type TimerStatus struct {
	TaskID         uint              `json:"task_id"`
	IsActive       bool              `json:"is_active"`
	ElapsedSeconds int64             `json:"elapsed_seconds"`
	TimeSpent      *int              `json:"time_spent"`
	TimeRemaining  *int              `json:"time_remaining"`
	Duration       *int              `json:"duration"`
	Status         models.TaskStatus `json:"status"`
}

// ElapsedSeconds returns whole seconds since the task's timer started, or 0
// when the timer is not running.
func ElapsedSeconds(task *models.Task) int64 {
	if !task.IsTimerActive || task.TimerStartedAt == nil {
		return 0
	}
	elapsed := now().Sub(*task.TimerStartedAt)
	if elapsed < 0 {
		return 0
	}
	return int64(elapsed / time.Second)
}

// StartTimer makes taskID the user's only running timer. Any other running
// timer of the same user is stopped without accruing time and reset to
// Pending, inside the same transaction as the start.
func StartTimer(ctx context.Context, db *gorm.DB, userID, taskID uint) (*models.Task, error) {
	var task models.Task
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := loadOwnedTask(tx, userID, taskID, &task); err != nil {
			return err
		}

		err := tx.Model(&models.Task{}).
			Where("user_id = ? AND is_timer_active = ? AND id <> ?", userID, true, task.ID).
			Updates(map[string]any{
				"is_timer_active":  false,
				"timer_started_at": nil,
				"status":           models.StatusPending,
			}).Error
		if err != nil {
			return fmt.Errorf("stop other timers: %w", err)
		}

		startedAt := now()
		task.IsTimerActive = true
		task.TimerStartedAt = &startedAt
		task.Status = models.StatusInProgress
		err = tx.Model(&task).Updates(map[string]any{
			"is_timer_active":  true,
			"timer_started_at": startedAt,
			"status":           models.StatusInProgress,
		}).Error
		if err != nil {
			return fmt.Errorf("start timer on task %d: %w", task.ID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// StopTimer stops the task's timer and books the elapsed whole minutes into
// time_spent, recomputing time_remaining and time_completion when a duration
// is set. Stopping an idle timer is a no-op that returns the task unchanged.
func StopTimer(ctx context.Context, db *gorm.DB, userID, taskID uint) (*models.Task, error) {
	var task models.Task
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := loadOwnedTask(tx, userID, taskID, &task); err != nil {
			return err
		}
		if !task.IsTimerActive {
			return nil
		}

		applyElapsed(&task, now())

		res := tx.Model(&models.Task{}).
			Where("id = ? AND is_timer_active = ?", task.ID, true).
			Updates(map[string]any{
				"is_timer_active":  false,
				"timer_started_at": nil,
				"status":           models.StatusPending,
				"time_spent":       task.TimeSpent,
				"time_remaining":   task.TimeRemaining,
				"time_completion":  task.TimeCompletion,
			})
		if res.Error != nil {
			return fmt.Errorf("stop timer on task %d: %w", task.ID, res.Error)
		}
		if res.RowsAffected == 0 {
			// stopped concurrently; report what is stored now
			task = models.Task{}
			return tx.First(&task, taskID).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// applyElapsed folds the running interval ending at end into the task's
// time fields and clears the timer state.
func applyElapsed(task *models.Task, end time.Time) {
	minutes := 0
	if task.TimerStartedAt != nil {
		if elapsed := end.Sub(*task.TimerStartedAt); elapsed > 0 {
			minutes = int(elapsed / time.Minute)
		}
	}

	spent := valueOr(task.TimeSpent) + minutes
	task.TimeSpent = &spent

	if task.Duration != nil {
		remaining := *task.Duration - spent
		task.TimeRemaining = &remaining
		if spent > 0 && *task.Duration > 0 {
			completion := min(100, spent*100 / *task.Duration)
			task.TimeCompletion = &completion
		}
	}

	task.IsTimerActive = false
	task.TimerStartedAt = nil
	task.Status = models.StatusPending
}

// GetTimerStatus reports the timer state of one of the user's tasks.
func GetTimerStatus(ctx context.Context, db *gorm.DB, userID, taskID uint) (*TimerStatus, error) {
	var task models.Task
	if err := loadOwnedTask(db.WithContext(ctx), userID, taskID, &task); err != nil {
		return nil, err
	}
	return &TimerStatus{
		TaskID:         task.ID,
		IsActive:       task.IsTimerActive,
		ElapsedSeconds: ElapsedSeconds(&task),
		TimeSpent:      task.TimeSpent,
		TimeRemaining:  task.TimeRemaining,
		Duration:       task.Duration,
		Status:         task.Status,
	}, nil
}

// ActiveTimer returns the user's running task, or nil when none is running.
func ActiveTimer(ctx context.Context, db *gorm.DB, userID uint) (*models.Task, error) {
	var task models.Task
	err := db.WithContext(ctx).
		Where("user_id = ? AND is_timer_active = ?", userID, true).
		Order("timer_started_at desc").
		First(&task).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find active timer: %w", err)
	}
	return &task, nil
}

func loadOwnedTask(db *gorm.DB, userID, taskID uint, task *models.Task) error {
	if err := db.First(task, taskID).Error; err != nil {
		return notFound(err, ErrTaskNotFound)
	}
	if task.UserID != userID {
		return ErrForbidden
	}
	return nil
}
