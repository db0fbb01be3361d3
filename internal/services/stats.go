package services

import (
	"context"
	"fmt"

	"atlas/internal/models"

	"gorm.io/gorm"
)

// TaskStats summarizes one user's tasks.
type TaskStats struct {
	Pending          int64 `json:"pending"`
	InProgress       int64 `json:"in_progress"`
	Completed        int64 `json:"completed"`
	Total            int64 `json:"total"`
	TimeSpentMinutes int64 `json:"time_spent_minutes"`
	ActiveTimer      bool  `json:"active_timer"`
}

// Stats counts the user's tasks per status and sums their time spent.
func Stats(ctx context.Context, db *gorm.DB, userID uint) (*TaskStats, error) {
	db = db.WithContext(ctx)

	type row struct {
		Status string
		Count  int64
		Spent  int64
		Active int64
	}
	var rows []row
	err := db.Model(&models.Task{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(time_spent), 0) AS spent, " +
			"SUM(CASE WHEN is_timer_active THEN 1 ELSE 0 END) AS active").
		Where("user_id = ?", userID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("compute stats: %w", err)
	}

	var s TaskStats
	for _, r := range rows {
		switch models.TaskStatus(r.Status) {
		case models.StatusPending:
			s.Pending = r.Count
		case models.StatusInProgress:
			s.InProgress = r.Count
		case models.StatusCompleted:
			s.Completed = r.Count
		}
		s.Total += r.Count
		s.TimeSpentMinutes += r.Spent
		if r.Active > 0 {
			s.ActiveTimer = true
		}
	}
	return &s, nil
}
