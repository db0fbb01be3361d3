package models

import "time"

// DefaultGroupColor is used when a group is created without a color.
const DefaultGroupColor = "#3b82f6"

// Group is a named, colored label a user attaches to their tasks.
// Names are unique per user, not globally.
type Group struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	UserID      uint      `json:"-" gorm:"column:user_id;not null;uniqueIndex:idx_groups_user_name"`
	Name        string    `json:"name" gorm:"size:100;not null;uniqueIndex:idx_groups_user_name"`
	Description *string   `json:"description"`
	Color       string    `json:"color" gorm:"size:7;not null;default:'#3b82f6'"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName specifies the table name for Group Model
func (Group) TableName() string {
	return "groups"
}
