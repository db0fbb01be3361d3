package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"atlas/internal/models"
	"atlas/internal/testutil"

	"github.com/stretchr/testify/require"
)

func TestGroups_CRUD(t *testing.T) {
	db := testutil.MustInMemoryDB(t)
	alice := testutil.SeedUser(t, db, "alice", "SuperSecret123")
	r := newAPIRouter()
	token := tokenFor(t, alice)

	w := do(t, r, http.MethodPost, "/api/groups", token, map[string]any{"name": "Work"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var g models.Group
	decode(t, w, &g)
	require.Equal(t, models.DefaultGroupColor, g.Color)

	w = do(t, r, http.MethodPost, "/api/groups", token, map[string]any{"name": "Work"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "A group with this name already exists.")

	path := fmt.Sprintf("/api/groups/%d", g.ID)
	w = do(t, r, http.MethodPut, path, token, map[string]any{"color": "#00ff00"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"color":"#00ff00"`)

	var list struct {
		Groups []models.Group `json:"groups"`
		Count  int            `json:"count"`
	}
	decode(t, do(t, r, http.MethodGet, "/api/groups", token, nil), &list)
	require.Equal(t, 1, list.Count)

	task := testutil.SeedTask(t, db, alice.ID, "member")
	require.NoError(t, db.Model(&task).Update("group_id", g.ID).Error)

	w = do(t, r, http.MethodDelete, path, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"detached_tasks":1`)

	var stored models.Task
	require.NoError(t, db.First(&stored, task.ID).Error)
	require.Nil(t, stored.GroupID)
	require.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, path, token, nil).Code)
}

func TestGroups_OtherUserSeesNotFound(t *testing.T) {
	db := testutil.MustInMemoryDB(t)
	alice := testutil.SeedUser(t, db, "alice", "SuperSecret123")
	bob := testutil.SeedUser(t, db, "bob", "SuperSecret123")
	g := models.Group{UserID: alice.ID, Name: "Private", Color: models.DefaultGroupColor}
	require.NoError(t, db.Create(&g).Error)
	r := newAPIRouter()

	w := do(t, r, http.MethodGet, fmt.Sprintf("/api/groups/%d", g.ID), tokenFor(t, bob), nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	// bob cannot file a task under alice's group either
	w = do(t, r, http.MethodPost, "/api/tasks", tokenFor(t, bob), map[string]any{
		"title":    "sneaky",
		"group_id": g.ID,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), `"field":"group_id"`)
}
