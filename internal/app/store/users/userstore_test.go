package userstore_test

import (
	"errors"
	"testing"

	userstore "github.com/dalemusser/carecoord/internal/app/store/users"
	"github.com/dalemusser/carecoord/internal/domain/models"
	"github.com/dalemusser/carecoord/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestCreateAndDisplayName(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u, err := store.Create(ctx, models.User{FullName: "Dana Reyes", Email: "dana@example.com", Role: models.RoleCaregiver})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if u.Status != "active" || u.FullNameCI == "" {
		t.Errorf("defaults not applied: %+v", u)
	}

	name, err := store.DisplayName(ctx, u.ID)
	if err != nil {
		t.Fatalf("DisplayName failed: %v", err)
	}
	if name != "Dana Reyes" {
		t.Errorf("DisplayName = %q", name)
	}

	got, err := store.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Email != "dana@example.com" {
		t.Errorf("email = %q", got.Email)
	}

	if _, err := store.Create(ctx, models.User{FullName: "Other", Email: "dana@example.com"}); !errors.Is(err, userstore.ErrDuplicateEmail) {
		t.Errorf("expected ErrDuplicateEmail, got %v", err)
	}
	if _, err := store.DisplayName(ctx, primitive.NewObjectID()); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("expected ErrNoDocuments, got %v", err)
	}
}
