package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/cert-tracker/internal/apperror"
	"github.com/sakif/cert-tracker/internal/model"
)

func createTestActivity(t *testing.T, db *DB, userID, projectID, message string) *model.Activity {
	t.Helper()
	a := &model.Activity{UserID: userID, ProjectID: projectID, Message: &message}
	if err := db.CreateActivity(context.Background(), a); err != nil {
		t.Fatalf("failed to create test activity: %v", err)
	}
	return a
}

func TestCreateActivity_ForeignProject(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "ext-a", "alice")
	bob := createTestUser(t, db, "ext-b", "bob")
	createTestCertification(t, db, "c1", 30)
	p := createTestProject(t, db, alice.ID, "c1", "p")

	msg := "not mine"
	err := db.CreateActivity(context.Background(), &model.Activity{UserID: bob.ID, ProjectID: p.ID, Message: &msg})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("CreateActivity() error = %v, want ErrNotFound", err)
	}
}

func TestListActivities_JoinsAndIsLiked(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := createTestUser(t, db, "ext-a", "alice")
	bob := createTestUser(t, db, "ext-b", "bob")
	createTestCertification(t, db, "c1", 30)
	p := createTestProject(t, db, alice.ID, "c1", "SAA prep")

	a := createTestActivity(t, db, alice.ID, p.ID, "finished week 1")
	if _, err := db.ToggleLike(ctx, bob.ID, a.ID); err != nil {
		t.Fatalf("ToggleLike() error = %v", err)
	}

	asBob, err := db.ListActivities(ctx, bob.ID, alice.ID)
	if err != nil {
		t.Fatalf("ListActivities() error = %v", err)
	}
	if len(asBob) != 1 {
		t.Fatalf("ListActivities() returned %d, want 1", len(asBob))
	}
	got := asBob[0]
	if got.PosterName != "alice" || got.ProjectName != "SAA prep" {
		t.Errorf("joined fields = %q/%q, want alice/SAA prep", got.PosterName, got.ProjectName)
	}
	if !got.IsLiked || got.LikesCount != 1 {
		t.Errorf("IsLiked=%v LikesCount=%d, want true/1", got.IsLiked, got.LikesCount)
	}

	asAlice, err := db.ListActivities(ctx, alice.ID, alice.ID)
	if err != nil {
		t.Fatalf("ListActivities() error = %v", err)
	}
	if asAlice[0].IsLiked {
		t.Error("IsLiked should be false for a viewer who has not liked the post")
	}
}

func TestToggleLike_TwiceRestoresState(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := createTestUser(t, db, "ext-a", "alice")
	bob := createTestUser(t, db, "ext-b", "bob")
	createTestCertification(t, db, "c1", 30)
	p := createTestProject(t, db, alice.ID, "c1", "p")
	a := createTestActivity(t, db, alice.ID, p.ID, "hi")

	first, err := db.ToggleLike(ctx, bob.ID, a.ID)
	if err != nil {
		t.Fatalf("ToggleLike() error = %v", err)
	}
	if !first.Liked || first.LikesCount != 1 {
		t.Errorf("first toggle = %+v, want liked with count 1", first)
	}

	second, err := db.ToggleLike(ctx, bob.ID, a.ID)
	if err != nil {
		t.Fatalf("second ToggleLike() error = %v", err)
	}
	if second.Liked || second.LikesCount != 0 {
		t.Errorf("second toggle = %+v, want unliked with count 0", second)
	}

	var rows int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM likes WHERE activity_id = ?`, a.ID).Scan(&rows); err != nil {
		t.Fatalf("counting likes: %v", err)
	}
	if rows != 0 {
		t.Errorf("like rows = %d, want 0", rows)
	}
}

func TestToggleLike_CountsDistinctViewers(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := createTestUser(t, db, "ext-a", "alice")
	bob := createTestUser(t, db, "ext-b", "bob")
	createTestCertification(t, db, "c1", 30)
	p := createTestProject(t, db, alice.ID, "c1", "p")
	a := createTestActivity(t, db, alice.ID, p.ID, "hi")

	if _, err := db.ToggleLike(ctx, alice.ID, a.ID); err != nil {
		t.Fatalf("ToggleLike(alice) error = %v", err)
	}
	res, err := db.ToggleLike(ctx, bob.ID, a.ID)
	if err != nil {
		t.Fatalf("ToggleLike(bob) error = %v", err)
	}
	if res.LikesCount != 2 {
		t.Errorf("LikesCount = %d, want 2", res.LikesCount)
	}
}

func TestToggleLike_UnknownActivity(t *testing.T) {
	db := newTestDB(t)
	u := createTestUser(t, db, "ext-a", "alice")

	_, err := db.ToggleLike(context.Background(), u.ID, "missing")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("ToggleLike() error = %v, want ErrNotFound", err)
	}
}
