package profiles

import (
	"context"
	"testing"

	"github.com/teelab/storefront/pkg/auth"
	"github.com/teelab/storefront/pkg/db"
	"github.com/teelab/storefront/pkg/enums"
	pkgerrors "github.com/teelab/storefront/pkg/errors"
	"github.com/teelab/storefront/pkg/events"
	"github.com/teelab/storefront/pkg/kvstore"
)

func newTestService(t *testing.T) Service {
	t.Helper()
	client, err := db.NewInMemory()
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	kv, err := kvstore.New(client, 0, nil, nil)
	if err != nil {
		t.Fatalf("new kv: %v", err)
	}
	if err := kv.AutoMigrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	svc, err := NewService(ServiceParams{KV: kv, Bus: events.NewBus(nil, nil)})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestEnsureCreatesWithEmailLocalPart(t *testing.T) {
	svc := newTestService(t)

	sess := auth.Session{UserID: "creator-1", Email: "jane.doe@example.com", Role: enums.UserRoleCreator}
	profile, err := svc.Ensure(context.Background(), sess)
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if profile.CreatorID != "creator-1" {
		t.Fatalf("creator id %s", profile.CreatorID)
	}
	if profile.DisplayName != "jane.doe" {
		t.Fatalf("display name %q", profile.DisplayName)
	}
}

func TestEnsureFallsBackWithoutEmail(t *testing.T) {
	svc := newTestService(t)

	profile, err := svc.Ensure(context.Background(), auth.Session{UserID: "creator-1"})
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if profile.DisplayName != "Creator" {
		t.Fatalf("display name %q", profile.DisplayName)
	}
}

func TestEnsureIsIdempotent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	sess := auth.Session{UserID: "creator-1", Email: "jane@example.com"}

	if _, err := svc.Ensure(ctx, sess); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if _, err := svc.Update(ctx, sess, UpdateInput{DisplayName: "Jane D", Bio: "prints"}); err != nil {
		t.Fatalf("update: %v", err)
	}

	profile, err := svc.Ensure(ctx, sess)
	if err != nil {
		t.Fatalf("re-ensure: %v", err)
	}
	if profile.DisplayName != "Jane D" {
		t.Fatalf("ensure overwrote edits: %q", profile.DisplayName)
	}
}

func TestEnsureRequiresSession(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Ensure(context.Background(), auth.Session{})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestUpdateTrimsAndFallsBack(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	sess := auth.Session{UserID: "creator-1", Email: "jane@example.com"}

	profile, err := svc.Update(ctx, sess, UpdateInput{DisplayName: "   ", Bio: "  hand-drawn tees  "})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if profile.DisplayName != "jane" {
		t.Fatalf("blank name should fall back, got %q", profile.DisplayName)
	}
	if profile.Bio != "hand-drawn tees" {
		t.Fatalf("bio not trimmed: %q", profile.Bio)
	}
}

func TestGetByIDUnknownCreator(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.GetByID(context.Background(), "nobody")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestGetByIDReturnsPublicProfile(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	sess := auth.Session{UserID: "creator-1", Email: "jane@example.com"}

	if _, err := svc.Ensure(ctx, sess); err != nil {
		t.Fatalf("ensure: %v", err)
	}

	profile, err := svc.GetByID(ctx, "creator-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if profile.DisplayName != "jane" {
		t.Fatalf("display name %q", profile.DisplayName)
	}
}
