package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sakif/cert-tracker/internal/apperror"
	"github.com/sakif/cert-tracker/internal/model"
)

func TestPublicQueries_OnlyPublicRows(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := createTestUser(t, db, "ext-a", "alice")
	createTestCertification(t, db, "c1", 30)

	public := createTestProject(t, db, u.ID, "c1", "shared")
	private := createTestProject(t, db, u.ID, "c1", "hidden")
	yes := true
	if err := db.UpdateProject(ctx, u.ID, public.ID, model.ProjectUpdate{IsPublic: &yes}); err != nil {
		t.Fatalf("UpdateProject() error = %v", err)
	}

	shown := createTestTask(t, db, u.ID, public.ID, "shown", 1, 1)
	createTestTask(t, db, u.ID, public.ID, "private", 1, 2)
	shown.SetCompleted(true, time.Now().UTC())
	if err := db.SaveTask(ctx, shown); err != nil {
		t.Fatalf("SaveTask() error = %v", err)
	}
	if _, err := db.TogglePublic(ctx, u.ID, shown.ID); err != nil {
		t.Fatalf("TogglePublic() error = %v", err)
	}

	projects, err := db.ListPublicProjects(ctx, "c1")
	if err != nil {
		t.Fatalf("ListPublicProjects() error = %v", err)
	}
	if len(projects) != 1 || projects[0].ID != public.ID {
		t.Fatalf("ListPublicProjects() = %v, want only %s", projects, public.ID)
	}
	if projects[0].OwnerName != "alice" {
		t.Errorf("OwnerName = %q, want alice", projects[0].OwnerName)
	}

	tasks, err := db.ListPublicTasks(ctx, public.ID)
	if err != nil {
		t.Fatalf("ListPublicTasks() error = %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != shown.ID {
		t.Errorf("ListPublicTasks() = %v, want only %s", tasks, shown.ID)
	}

	if _, err := db.GetPublicProject(ctx, private.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetPublicProject(private) error = %v, want ErrNotFound", err)
	}
	if _, err := db.GetPublicProject(ctx, public.ID); err != nil {
		t.Errorf("GetPublicProject(public) error = %v", err)
	}
}

func TestListPublicTasks_PrivateProjectHidesTasks(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := createTestUser(t, db, "ext-a", "alice")
	createTestCertification(t, db, "c1", 30)
	p := createTestProject(t, db, u.ID, "c1", "private")

	task := createTestTask(t, db, u.ID, p.ID, "done", 1, 1)
	task.SetCompleted(true, time.Now().UTC())
	if err := db.SaveTask(ctx, task); err != nil {
		t.Fatalf("SaveTask() error = %v", err)
	}
	if _, err := db.TogglePublic(ctx, u.ID, task.ID); err != nil {
		t.Fatalf("TogglePublic() error = %v", err)
	}

	tasks, err := db.ListPublicTasks(ctx, p.ID)
	if err != nil {
		t.Fatalf("ListPublicTasks() error = %v", err)
	}
	if len(tasks) != 0 {
		t.Errorf("ListPublicTasks() on private project returned %d, want 0", len(tasks))
	}
}
