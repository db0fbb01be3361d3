package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"atlas/internal/models"
	"atlas/internal/testutil"

	"github.com/stretchr/testify/require"
)

func requireFieldError(t *testing.T, err error, field string) {
	t.Helper()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
	require.True(t, verr.Has(field), "expected error on %q, got %+v", field, verr.Fields)
}

func TestCreateTask_ReadBackMatches(t *testing.T) {
	db := testutil.MustInMemoryDB(t)
	ctx := context.Background()
	alice := testutil.SeedUser(t, db, "alice", "SuperSecret123")

	created, err := CreateTask(ctx, db, alice.ID, TaskInput{
		Title:          "  Test Task ",
		Description:    testutil.StrPtr("Test description"),
		Priority:       models.PriorityHigh,
		DueDate:        testutil.StrPtr("1 May 2025"),
		Duration:       testutil.IntPtr(60),
		TimeSpent:      testutil.IntPtr(10),
		TimeCompletion: testutil.IntPtr(130),
	})
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	got, err := GetTask(ctx, db, alice.ID, created.ID)
	require.NoError(t, err)
	require.Equal(t, "Test Task", got.Title)
	require.Equal(t, "Test description", *got.Description)
	require.Equal(t, models.PriorityHigh, got.Priority)
	require.Equal(t, models.StatusPending, got.Status)
	require.Equal(t, "2025-05-01", *got.DueDate)
	require.Equal(t, 60, *got.Duration)
	require.Equal(t, 10, *got.TimeSpent)
	require.Equal(t, 50, *got.TimeRemaining)
	require.Equal(t, 100, *got.TimeCompletion)
	require.False(t, got.IsTimerActive)
	require.Nil(t, got.TimerStartedAt)

	require.Equal(t, created.Title, got.Title)
	require.Equal(t, *created.TimeRemaining, *got.TimeRemaining)
}

func TestCreateTask_Validation(t *testing.T) {
	db := testutil.MustInMemoryDB(t)
	ctx := context.Background()
	alice := testutil.SeedUser(t, db, "alice", "SuperSecret123")

	_, err := CreateTask(ctx, db, alice.ID, TaskInput{Title: "   "})
	requireFieldError(t, err, "title")

	_, err = CreateTask(ctx, db, alice.ID, TaskInput{Title: "x", Priority: "Urgent"})
	requireFieldError(t, err, "priority")

	_, err = CreateTask(ctx, db, alice.ID, TaskInput{Title: "x", Status: "Done"})
	requireFieldError(t, err, "status")

	_, err = CreateTask(ctx, db, alice.ID, TaskInput{Title: "x", DueDate: testutil.StrPtr("tomorrow")})
	requireFieldError(t, err, "due_date")

	_, err = CreateTask(ctx, db, alice.ID, TaskInput{Title: "x", Duration: testutil.IntPtr(-5)})
	requireFieldError(t, err, "duration")

	var verr *ValidationError
	_, err = CreateTask(ctx, db, alice.ID, TaskInput{Title: strings.Repeat("a", 256)})
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "Ensure this value has at most 255 characters.", verr.Fields[0].Message)

	var count int64
	require.NoError(t, db.Model(&models.Task{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestCreateTask_RejectsForeignGroup(t *testing.T) {
	db := testutil.MustInMemoryDB(t)
	ctx := context.Background()
	alice := testutil.SeedUser(t, db, "alice", "SuperSecret123")
	bob := testutil.SeedUser(t, db, "bob", "SuperSecret123")

	bobGroup, err := CreateGroup(ctx, db, bob.ID, GroupInput{Name: "Work"})
	require.NoError(t, err)

	_, err = CreateTask(ctx, db, alice.ID, TaskInput{Title: "x", GroupID: &bobGroup.ID})
	requireFieldError(t, err, "group_id")
}

func TestGetTask_OwnerChecks(t *testing.T) {
	db := testutil.MustInMemoryDB(t)
	ctx := context.Background()
	alice := testutil.SeedUser(t, db, "alice", "SuperSecret123")
	bob := testutil.SeedUser(t, db, "bob", "SuperSecret123")
	task := testutil.SeedTask(t, db, alice.ID, "private")

	_, err := GetTask(ctx, db, bob.ID, task.ID)
	require.ErrorIs(t, err, ErrForbidden)

	_, err = GetTask(ctx, db, alice.ID, task.ID+100)
	require.ErrorIs(t, err, ErrTaskNotFound)
}

func TestUpdateTask_PartialAndDerived(t *testing.T) {
	db := testutil.MustInMemoryDB(t)
	ctx := context.Background()
	alice := testutil.SeedUser(t, db, "alice", "SuperSecret123")

	task, err := CreateTask(ctx, db, alice.ID, TaskInput{
		Title:       "Draft",
		Description: testutil.StrPtr("keep me"),
		Duration:    testutil.IntPtr(30),
	})
	require.NoError(t, err)

	status := models.StatusCompleted
	updated, err := UpdateTask(ctx, db, alice.ID, task.ID, TaskPatch{
		Title:     testutil.StrPtr("Final"),
		Status:    &status,
		TimeSpent: testutil.IntPtr(12),
	})
	require.NoError(t, err)
	require.Equal(t, "Final", updated.Title)
	require.Equal(t, "keep me", *updated.Description)
	require.Equal(t, models.StatusCompleted, updated.Status)
	require.Equal(t, 18, *updated.TimeRemaining)

	updated, err = UpdateTask(ctx, db, alice.ID, task.ID, TaskPatch{Description: testutil.StrPtr("")})
	require.NoError(t, err)
	require.Nil(t, updated.Description)
}

func TestUpdateTask_RejectsBlankChoices(t *testing.T) {
	db := testutil.MustInMemoryDB(t)
	ctx := context.Background()
	alice := testutil.SeedUser(t, db, "alice", "SuperSecret123")
	task := testutil.SeedTask(t, db, alice.ID, "choices")

	blankPriority := models.TaskPriority("")
	blankStatus := models.TaskStatus("")
	_, err := UpdateTask(ctx, db, alice.ID, task.ID, TaskPatch{
		Priority: &blankPriority,
		Status:   &blankStatus,
	})
	requireFieldError(t, err, "priority")
	requireFieldError(t, err, "status")

	stored := reload(t, db, task.ID)
	require.Equal(t, models.PriorityMedium, stored.Priority)
	require.Equal(t, models.StatusPending, stored.Status)
}

func TestUpdateTask_DoesNotTouchTimer(t *testing.T) {
	db := testutil.MustInMemoryDB(t)
	ctx := context.Background()
	freezeClock(t)
	alice := testutil.SeedUser(t, db, "alice", "SuperSecret123")
	task := testutil.SeedTask(t, db, alice.ID, "running")

	_, err := StartTimer(ctx, db, alice.ID, task.ID)
	require.NoError(t, err)

	_, err = UpdateTask(ctx, db, alice.ID, task.ID, TaskPatch{Title: testutil.StrPtr("renamed")})
	require.NoError(t, err)

	got := reload(t, db, task.ID)
	require.True(t, got.IsTimerActive)
	require.NotNil(t, got.TimerStartedAt)
}

func TestUpdateTask_NonOwnerLeavesRecordUnchanged(t *testing.T) {
	db := testutil.MustInMemoryDB(t)
	ctx := context.Background()
	alice := testutil.SeedUser(t, db, "alice", "SuperSecret123")
	bob := testutil.SeedUser(t, db, "bob", "SuperSecret123")
	task := testutil.SeedTask(t, db, alice.ID, "original")

	_, err := UpdateTask(ctx, db, bob.ID, task.ID, TaskPatch{Title: testutil.StrPtr("hijacked")})
	require.ErrorIs(t, err, ErrForbidden)
	require.Equal(t, "original", reload(t, db, task.ID).Title)

	_, err = DeleteTask(ctx, db, bob.ID, task.ID, true)
	require.ErrorIs(t, err, ErrForbidden)
	require.Equal(t, "original", reload(t, db, task.ID).Title)
}

func TestDeleteTask_RequiresConfirmation(t *testing.T) {
	db := testutil.MustInMemoryDB(t)
	ctx := context.Background()
	alice := testutil.SeedUser(t, db, "alice", "SuperSecret123")
	task := testutil.SeedTask(t, db, alice.ID, "doomed")

	deleted, err := DeleteTask(ctx, db, alice.ID, task.ID, false)
	require.NoError(t, err)
	require.False(t, deleted)
	reload(t, db, task.ID)

	deleted, err = DeleteTask(ctx, db, alice.ID, task.ID, true)
	require.NoError(t, err)
	require.True(t, deleted)

	_, err = GetTask(ctx, db, alice.ID, task.ID)
	require.ErrorIs(t, err, ErrTaskNotFound)
}

func TestListTasks_ScopedNewestFirstAndGroupFilter(t *testing.T) {
	db := testutil.MustInMemoryDB(t)
	ctx := context.Background()
	alice := testutil.SeedUser(t, db, "alice", "SuperSecret123")
	bob := testutil.SeedUser(t, db, "bob", "SuperSecret123")

	work, err := CreateGroup(ctx, db, alice.ID, GroupInput{Name: "Work"})
	require.NoError(t, err)

	first, err := CreateTask(ctx, db, alice.ID, TaskInput{Title: "first"})
	require.NoError(t, err)
	second, err := CreateTask(ctx, db, alice.ID, TaskInput{Title: "second", GroupID: &work.ID})
	require.NoError(t, err)
	third, err := CreateTask(ctx, db, alice.ID, TaskInput{Title: "third"})
	require.NoError(t, err)
	testutil.SeedTask(t, db, bob.ID, "bob's")

	all, total, err := ListTasks(ctx, db, alice.ID, TaskFilter{})
	require.NoError(t, err)
	require.Equal(t, int64(3), total)
	require.Equal(t, []uint{third.ID, second.ID, first.ID}, taskIDs(all))

	grouped, _, err := ListTasks(ctx, db, alice.ID, TaskFilter{GroupID: &work.ID})
	require.NoError(t, err)
	require.Equal(t, []uint{second.ID}, taskIDs(grouped))
	require.NotNil(t, grouped[0].Group)
	require.Equal(t, "Work", grouped[0].Group.Name)

	ungrouped, _, err := ListTasks(ctx, db, alice.ID, TaskFilter{WithoutGroup: true})
	require.NoError(t, err)
	require.Equal(t, []uint{third.ID, first.ID}, taskIDs(ungrouped))

	paged, total, err := ListTasks(ctx, db, alice.ID, TaskFilter{Page: 2, Limit: 2})
	require.NoError(t, err)
	require.Equal(t, int64(3), total)
	require.Equal(t, []uint{first.ID}, taskIDs(paged))

	_, _, err = ListTasks(ctx, db, alice.ID, TaskFilter{GroupID: &work.ID, WithoutGroup: true})
	requireFieldError(t, err, "group")
}

func taskIDs(tasks []models.Task) []uint {
	ids := make([]uint, 0, len(tasks))
	for _, task := range tasks {
		ids = append(ids, task.ID)
	}
	return ids
}
