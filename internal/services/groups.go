package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"atlas/internal/models"

	"gorm.io/gorm"
)

const duplicateGroupName = "A group with this name already exists."

// GroupInput holds the client-editable fields of a group.
type GroupInput struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Description *string `json:"description"`
	Color       string  `json:"color" validate:"omitempty,hexcolor,max=7"`
}

// GroupPatch is a partial group update; nil fields are left alone.
type GroupPatch struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Color       *string `json:"color"`
}

// ListGroups returns the user's groups ordered by name.
func ListGroups(ctx context.Context, db *gorm.DB, userID uint) ([]models.Group, error) {
	groups := []models.Group{}
	if err := db.WithContext(ctx).Where("user_id = ?", userID).Order("name asc").Find(&groups).Error; err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	return groups, nil
}

// CreateGroup stores a new group, rejecting a name the user already uses.
func CreateGroup(ctx context.Context, db *gorm.DB, userID uint, in GroupInput) (*models.Group, error) {
	db = db.WithContext(ctx)
	in = normalizeGroupInput(in)
	if err := validateGroupInput(db, userID, 0, in); err != nil {
		return nil, err
	}

	group := models.Group{
		UserID:      userID,
		Name:        in.Name,
		Description: in.Description,
		Color:       in.Color,
	}
	if err := db.Create(&group).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fieldError("name", duplicateGroupName)
		}
		return nil, fmt.Errorf("create group: %w", err)
	}
	return &group, nil
}

// GetGroup returns one of the user's groups. Another user's group is
// reported as not found.
func GetGroup(ctx context.Context, db *gorm.DB, userID, groupID uint) (*models.Group, error) {
	return findGroup(db.WithContext(ctx), userID, groupID)
}

// UpdateGroup applies patch to one of the user's groups.
func UpdateGroup(ctx context.Context, db *gorm.DB, userID, groupID uint, patch GroupPatch) (*models.Group, error) {
	db = db.WithContext(ctx)
	group, err := findGroup(db, userID, groupID)
	if err != nil {
		return nil, err
	}

	in := GroupInput{Name: group.Name, Description: group.Description, Color: group.Color}
	if patch.Name != nil {
		in.Name = *patch.Name
	}
	if patch.Description != nil {
		in.Description = patch.Description
	}
	if patch.Color != nil {
		in.Color = *patch.Color
	}
	in = normalizeGroupInput(in)
	if err := validateGroupInput(db, userID, group.ID, in); err != nil {
		return nil, err
	}

	group.Name = in.Name
	group.Description = in.Description
	group.Color = in.Color
	err = db.Model(group).Select("name", "description", "color").Updates(group).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fieldError("name", duplicateGroupName)
		}
		return nil, fmt.Errorf("update group %d: %w", group.ID, err)
	}
	return group, nil
}

// DeleteGroup detaches the group's tasks and deletes the group in one
// transaction. The tasks themselves are kept. It returns how many tasks
// were detached.
func DeleteGroup(ctx context.Context, db *gorm.DB, userID, groupID uint) (int64, error) {
	var detached int64
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		group, err := findGroup(tx, userID, groupID)
		if err != nil {
			return err
		}
		res := tx.Model(&models.Task{}).Where("group_id = ?", group.ID).Update("group_id", nil)
		if res.Error != nil {
			return fmt.Errorf("detach tasks from group %d: %w", group.ID, res.Error)
		}
		detached = res.RowsAffected
		if err := tx.Delete(group).Error; err != nil {
			return fmt.Errorf("delete group %d: %w", group.ID, err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return detached, nil
}

func findGroup(db *gorm.DB, userID, groupID uint) (*models.Group, error) {
	var group models.Group
	err := db.Where("id = ? AND user_id = ?", groupID, userID).First(&group).Error
	if err != nil {
		return nil, notFound(err, ErrGroupNotFound)
	}
	return &group, nil
}

func normalizeGroupInput(in GroupInput) GroupInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = trimOptional(in.Description)
	in.Color = strings.ToLower(strings.TrimSpace(in.Color))
	if in.Color == "" {
		in.Color = models.DefaultGroupColor
	}
	return in
}

// validateGroupInput checks field rules and the per-user name uniqueness.
// selfID is excluded from the uniqueness check on update.
func validateGroupInput(db *gorm.DB, userID, selfID uint, in GroupInput) error {
	verr := &ValidationError{}
	if err := validateStruct(in); err != nil {
		if !errors.As(err, &verr) {
			return err
		}
	}
	if !verr.Has("name") {
		var count int64
		err := db.Model(&models.Group{}).
			Where("user_id = ? AND name = ? AND id <> ?", userID, in.Name, selfID).
			Count(&count).Error
		if err != nil {
			return fmt.Errorf("check group name: %w", err)
		}
		if count > 0 {
			verr.Add("name", duplicateGroupName)
		}
	}
	return verr.orNil()
}
