package designs

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/teelab/storefront/pkg/auth"
	"github.com/teelab/storefront/pkg/config"
	"github.com/teelab/storefront/pkg/db"
	"github.com/teelab/storefront/pkg/enums"
	"github.com/teelab/storefront/pkg/events"
	"github.com/teelab/storefront/pkg/kvstore"
)

func testDesign(id, assetKey string, status enums.DesignStatus, updatedAt time.Time) Design {
	return Design{
		ID:              id,
		OwnerID:         "creator-1",
		Title:           "Tee " + id,
		ProductType:     enums.ProductTypeTShirt,
		PrintArea:       enums.PrintAreaFront,
		BasePrice:       decimal.RequireFromString("34.99"),
		ArtworkAssetKey: assetKey,
		Status:          status,
		CreatedAt:       updatedAt,
		UpdatedAt:       updatedAt,
	}
}

func payloadBytes(t *testing.T, collection []Design) int64 {
	t.Helper()
	raw, err := json.Marshal(collection)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return int64(len(raw))
}

func newDegradationService(t *testing.T, quota int64) (*service, *fakeReleaser) {
	t.Helper()
	client, err := db.NewInMemory()
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	kv, err := kvstore.New(client, quota, nil, nil)
	if err != nil {
		t.Fatalf("new kv: %v", err)
	}
	if err := kv.AutoMigrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	releaser := &fakeReleaser{}
	svc, err := NewService(ServiceParams{
		KV:      kv,
		Bus:     events.NewBus(nil, nil),
		Assets:  releaser,
		Storage: config.StorageConfig{QuotaBytes: quota},
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc.(*service), releaser
}

func TestDegradationEvictsOldestDraftFirst(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	published := testDesign("p1", "artwork/p1", enums.DesignStatusPublished, base)
	oldDraft := testDesign("d1", "artwork/d1", enums.DesignStatusDraft, base.Add(time.Minute))
	newDraft := testDesign("d2", "artwork/d2", enums.DesignStatusDraft, base.Add(2*time.Minute))

	// Budget fits everything except the oldest draft.
	quota := payloadBytes(t, []Design{published, newDraft})
	svc, releaser := newDegradationService(t, quota)

	saved, err := svc.persistWithDegradation(context.Background(), []Design{published, oldDraft, newDraft})
	if err != nil {
		t.Fatalf("persist: %v", err)
	}

	if len(saved) != 2 || saved[0].ID != "p1" || saved[1].ID != "d2" {
		t.Fatalf("unexpected survivors: %+v", saved)
	}
	if len(releaser.released) != 1 || releaser.released[0] != "artwork/d1" {
		t.Fatalf("expected only d1's asset released, got %v", releaser.released)
	}
}

func TestDegradationNeverDropsPublishedWhileDraftsRemain(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	// The published record is older than both drafts; age must not matter.
	published := testDesign("p1", "artwork/p1", enums.DesignStatusPublished, base.Add(-time.Hour))
	d1 := testDesign("d1", "artwork/d1", enums.DesignStatusDraft, base)
	d2 := testDesign("d2", "artwork/d2", enums.DesignStatusDraft, base.Add(time.Minute))

	quota := payloadBytes(t, []Design{published})
	svc, releaser := newDegradationService(t, quota)

	saved, err := svc.persistWithDegradation(context.Background(), []Design{published, d1, d2})
	if err != nil {
		t.Fatalf("persist: %v", err)
	}

	if len(saved) != 1 || saved[0].ID != "p1" {
		t.Fatalf("published design should survive, got %+v", saved)
	}
	if len(releaser.released) != 2 {
		t.Fatalf("both drafts' assets should be released, got %v", releaser.released)
	}
	if releaser.released[0] != "artwork/d1" || releaser.released[1] != "artwork/d2" {
		t.Fatalf("eviction order wrong: %v", releaser.released)
	}
}

func TestDegradationFallsBackToFullClear(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	published := testDesign("p1", "artwork/p1", enums.DesignStatusPublished, base)

	// Budget only fits an empty collection.
	quota := payloadBytes(t, []Design{})
	svc, releaser := newDegradationService(t, quota)

	saved, err := svc.persistWithDegradation(context.Background(), []Design{published})
	if err != nil {
		t.Fatalf("persist: %v", err)
	}
	if len(saved) != 0 {
		t.Fatalf("expected full clear, got %+v", saved)
	}
	if len(releaser.released) != 1 || releaser.released[0] != "artwork/p1" {
		t.Fatalf("orphaned asset not released: %v", releaser.released)
	}
}

func TestCreateDraftSurvivesOwnEviction(t *testing.T) {
	quota := payloadBytes(t, []Design{})
	svc, _ := newDegradationService(t, quota)
	ctx := context.Background()

	sess := auth.Session{UserID: "creator-1", Role: enums.UserRoleCreator}
	design, err := svc.CreateDraft(ctx, sess, CreateDraftInput{
		Title:       "Doomed",
		ProductType: enums.ProductTypeTShirt,
		PrintArea:   enums.PrintAreaFront,
		BasePrice:   decimal.RequireFromString("34.99"),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if design == nil || design.Title != "Doomed" {
		t.Fatalf("caller still gets the draft back, got %+v", design)
	}

	mine, err := svc.ListForOwner(ctx, sess.UserID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(mine) != 0 {
		t.Fatalf("draft should have been evicted, got %d", len(mine))
	}
}
