package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/cert-tracker/internal/apperror"
	"github.com/sakif/cert-tracker/internal/model"
)

func TestListActiveCertifications_FiltersAndOrders(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	certs := []model.Certification{
		{ID: "c3", Name: "Zeta", Category: "cloud", DifficultyLevel: "2", IsActive: true},
		{ID: "c1", Name: "Beta", Category: "cloud", DifficultyLevel: "1", IsActive: true},
		{ID: "c2", Name: "Alpha", Category: "cloud", DifficultyLevel: "1", IsActive: true},
		{ID: "c4", Name: "Retired", Category: "cloud", DifficultyLevel: "1", IsActive: false},
	}
	for i := range certs {
		if err := db.UpsertCertification(ctx, &certs[i]); err != nil {
			t.Fatalf("UpsertCertification(%s) error = %v", certs[i].ID, err)
		}
	}

	got, err := db.ListActiveCertifications(ctx)
	if err != nil {
		t.Fatalf("ListActiveCertifications() error = %v", err)
	}

	want := []string{"c2", "c1", "c3"}
	if len(got) != len(want) {
		t.Fatalf("got %d certifications, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("certs[%d].ID = %q, want %q", i, got[i].ID, id)
		}
	}
}

func TestUpsertCertification_Updates(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	c := createTestCertification(t, db, "aws-saa", 90)

	c.Name = "Solutions Architect"
	c.EstimatedPeriod = 60
	if err := db.UpsertCertification(ctx, c); err != nil {
		t.Fatalf("UpsertCertification() error = %v", err)
	}

	found, err := db.GetCertification(ctx, "aws-saa")
	if err != nil {
		t.Fatalf("GetCertification() error = %v", err)
	}
	if found.Name != "Solutions Architect" || found.EstimatedPeriod != 60 {
		t.Errorf("got %+v, want updated name and period", found)
	}
}

func TestGetCertification_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetCertification(context.Background(), "nope")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetCertification() error = %v, want ErrNotFound", err)
	}
}
