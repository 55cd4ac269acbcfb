package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sakif/cert-tracker/internal/apperror"
	"github.com/sakif/cert-tracker/internal/model"
)

type taskFixture struct {
	db      *DB
	user    *model.User
	project *model.Project
}

func newTaskFixture(t *testing.T) taskFixture {
	t.Helper()
	db := newTestDB(t)
	u := createTestUser(t, db, "ext-1", "alice")
	createTestCertification(t, db, "c1", 30)
	p := createTestProject(t, db, u.ID, "c1", "p")
	return taskFixture{db: db, user: u, project: p}
}

func TestCreateTask_PersistsOptionalFields(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()

	desc := "chapters 1-3"
	task := &model.Task{
		UserID:         f.user.ID,
		ProjectID:      f.project.ID,
		Title:          "read",
		Description:    &desc,
		EstimatedHours: 3,
		OrderIndex:     1,
	}
	if err := f.db.CreateTask(ctx, task); err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}

	found, err := f.db.GetTask(ctx, f.user.ID, task.ID)
	if err != nil {
		t.Fatalf("GetTask() error = %v", err)
	}
	if found.Description == nil || *found.Description != desc {
		t.Errorf("Description = %v, want %q", found.Description, desc)
	}
	if found.Notes != nil {
		t.Errorf("Notes = %v, want nil", *found.Notes)
	}
	if found.IsCompleted || found.IsPublic || found.CompletedAt != nil {
		t.Errorf("new task should start incomplete and private, got %+v", found)
	}
}

func TestCreateTask_ForeignProject(t *testing.T) {
	f := newTaskFixture(t)
	bob := createTestUser(t, f.db, "ext-b", "bob")

	task := &model.Task{UserID: bob.ID, ProjectID: f.project.ID, Title: "sneaky", EstimatedHours: 1}
	err := f.db.CreateTask(context.Background(), task)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("CreateTask() into foreign project error = %v, want ErrNotFound", err)
	}

	tasks, err := f.db.ListTasks(context.Background(), f.user.ID, f.project.ID)
	if err != nil {
		t.Fatalf("ListTasks() error = %v", err)
	}
	if len(tasks) != 0 {
		t.Errorf("ListTasks() returned %d, want 0", len(tasks))
	}
}

func TestCreateTask_RejectsNonPositiveHours(t *testing.T) {
	f := newTaskFixture(t)

	task := &model.Task{UserID: f.user.ID, ProjectID: f.project.ID, Title: "zero", EstimatedHours: 0}
	if err := f.db.CreateTask(context.Background(), task); err == nil {
		t.Error("CreateTask() with zero hours should violate the CHECK constraint")
	}
}

func TestListTasks_Ordering(t *testing.T) {
	f := newTaskFixture(t)

	c := createTestTask(t, f.db, f.user.ID, f.project.ID, "c", 1, 2)
	a := createTestTask(t, f.db, f.user.ID, f.project.ID, "a", 1, 1)
	time.Sleep(2 * time.Millisecond)
	b := createTestTask(t, f.db, f.user.ID, f.project.ID, "b", 1, 1)

	tasks, err := f.db.ListTasks(context.Background(), f.user.ID, f.project.ID)
	if err != nil {
		t.Fatalf("ListTasks() error = %v", err)
	}
	want := []string{a.ID, b.ID, c.ID}
	for i, id := range want {
		if tasks[i].ID != id {
			t.Errorf("tasks[%d] = %q (%s), want %q", i, tasks[i].ID, tasks[i].Title, id)
		}
	}
}

func TestNextOrderIndex(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()

	next, err := f.db.NextOrderIndex(ctx, f.user.ID, f.project.ID)
	if err != nil {
		t.Fatalf("NextOrderIndex() error = %v", err)
	}
	if next != 1 {
		t.Errorf("NextOrderIndex() on empty project = %d, want 1", next)
	}

	createTestTask(t, f.db, f.user.ID, f.project.ID, "a", 1, 4)
	createTestTask(t, f.db, f.user.ID, f.project.ID, "b", 1, 2)

	next, err = f.db.NextOrderIndex(ctx, f.user.ID, f.project.ID)
	if err != nil {
		t.Fatalf("NextOrderIndex() error = %v", err)
	}
	if next != 5 {
		t.Errorf("NextOrderIndex() = %d, want 5", next)
	}
}

func TestSaveTask_PublicRequiresCompleted(t *testing.T) {
	f := newTaskFixture(t)
	task := createTestTask(t, f.db, f.user.ID, f.project.ID, "a", 1, 1)

	task.IsPublic = true
	if err := f.db.SaveTask(context.Background(), task); err == nil {
		t.Error("SaveTask() with is_public on an incomplete task should violate the CHECK constraint")
	}
}

func TestTogglePublic(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()
	task := createTestTask(t, f.db, f.user.ID, f.project.ID, "a", 1, 1)

	_, err := f.db.TogglePublic(ctx, f.user.ID, task.ID)
	if !errors.Is(err, apperror.ErrDomainRule) {
		t.Fatalf("TogglePublic() on incomplete task error = %v, want ErrDomainRule", err)
	}
	unchanged, err := f.db.GetTask(ctx, f.user.ID, task.ID)
	if err != nil {
		t.Fatalf("GetTask() error = %v", err)
	}
	if unchanged.IsPublic {
		t.Error("failed TogglePublic() must not change the task")
	}

	task.SetCompleted(true, time.Now().UTC())
	if err := f.db.SaveTask(ctx, task); err != nil {
		t.Fatalf("SaveTask() error = %v", err)
	}

	toggled, err := f.db.TogglePublic(ctx, f.user.ID, task.ID)
	if err != nil {
		t.Fatalf("TogglePublic() error = %v", err)
	}
	if !toggled.IsPublic {
		t.Error("TogglePublic() on completed task should publish it")
	}

	toggled, err = f.db.TogglePublic(ctx, f.user.ID, task.ID)
	if err != nil {
		t.Fatalf("second TogglePublic() error = %v", err)
	}
	if toggled.IsPublic {
		t.Error("second TogglePublic() should unpublish it")
	}
}

func TestTogglePublic_NotFound(t *testing.T) {
	f := newTaskFixture(t)
	bob := createTestUser(t, f.db, "ext-b", "bob")
	task := createTestTask(t, f.db, f.user.ID, f.project.ID, "a", 1, 1)

	if _, err := f.db.TogglePublic(context.Background(), f.user.ID, "missing"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("TogglePublic(missing) error = %v, want ErrNotFound", err)
	}
	if _, err := f.db.TogglePublic(context.Background(), bob.ID, task.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("TogglePublic(foreign) error = %v, want ErrNotFound", err)
	}
}

func TestDeleteTask(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()
	task := createTestTask(t, f.db, f.user.ID, f.project.ID, "a", 1, 1)

	if err := f.db.DeleteTask(ctx, f.user.ID, task.ID); err != nil {
		t.Fatalf("DeleteTask() error = %v", err)
	}
	if err := f.db.DeleteTask(ctx, f.user.ID, task.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("second DeleteTask() error = %v, want ErrNotFound", err)
	}
}

func TestReorderTasks(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()
	a := createTestTask(t, f.db, f.user.ID, f.project.ID, "a", 1, 1)
	b := createTestTask(t, f.db, f.user.ID, f.project.ID, "b", 1, 2)
	c := createTestTask(t, f.db, f.user.ID, f.project.ID, "c", 1, 3)

	if err := f.db.ReorderTasks(ctx, f.user.ID, f.project.ID, []string{c.ID, a.ID, b.ID}); err != nil {
		t.Fatalf("ReorderTasks() error = %v", err)
	}

	tasks, err := f.db.ListTasks(ctx, f.user.ID, f.project.ID)
	if err != nil {
		t.Fatalf("ListTasks() error = %v", err)
	}
	for i, want := range []string{c.ID, a.ID, b.ID} {
		if tasks[i].ID != want || tasks[i].OrderIndex != i {
			t.Errorf("tasks[%d] = %s@%d, want %s@%d", i, tasks[i].ID, tasks[i].OrderIndex, want, i)
		}
	}
}

func TestReorderTasks_UnknownIDRollsBack(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()
	a := createTestTask(t, f.db, f.user.ID, f.project.ID, "a", 1, 1)
	b := createTestTask(t, f.db, f.user.ID, f.project.ID, "b", 1, 2)

	err := f.db.ReorderTasks(ctx, f.user.ID, f.project.ID, []string{b.ID, "missing", a.ID})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("ReorderTasks() error = %v, want ErrNotFound", err)
	}

	found, err := f.db.GetTask(ctx, f.user.ID, b.ID)
	if err != nil {
		t.Fatalf("GetTask() error = %v", err)
	}
	if found.OrderIndex != 2 {
		t.Errorf("b.OrderIndex = %d, want unchanged 2", found.OrderIndex)
	}
}
