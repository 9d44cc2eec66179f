package kvstore

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/teelab/storefront/pkg/db"
)

func newTestStore(t *testing.T, quota int64) *Store {
	t.Helper()
	client, err := db.NewInMemory()
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	store, err := New(client, quota, nil, nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if err := store.AutoMigrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return store
}

func TestWriteReadRoundTrip(t *testing.T) {
	store := newTestStore(t, 0)
	ctx := context.Background()

	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	if err := store.Write(ctx, "things", payload{Name: "tee", Count: 3}); err != nil {
		t.Fatalf("write: %v", err)
	}

	var got payload
	found, err := store.Read(ctx, "things", &got)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !found {
		t.Fatal("expected key to exist")
	}
	if got.Name != "tee" || got.Count != 3 {
		t.Fatalf("unexpected payload: %+v", got)
	}
}

func TestReadMissingKeyReportsAbsence(t *testing.T) {
	store := newTestStore(t, 0)

	var got map[string]any
	found, err := store.Read(context.Background(), "nope", &got)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if found {
		t.Fatal("expected absence")
	}
}

func TestCorruptEntryTreatedAsAbsent(t *testing.T) {
	store := newTestStore(t, 0)
	ctx := context.Background()

	err := store.client.DB().Create(&Entry{Key: "broken", Value: "{not json"}).Error
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	var got map[string]any
	found, err := store.Read(ctx, "broken", &got)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if found {
		t.Fatal("corrupt entry should read as absent")
	}

	exists, err := store.Exists(ctx, "broken")
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if !exists {
		t.Fatal("corrupt entry should still count as present")
	}
}

func TestWriteOverwritesInPlace(t *testing.T) {
	store := newTestStore(t, 0)
	ctx := context.Background()

	if err := store.Write(ctx, "k", []string{"a"}); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := store.Write(ctx, "k", []string{"b", "c"}); err != nil {
		t.Fatalf("second write: %v", err)
	}

	var got []string
	if _, err := store.Read(ctx, "k", &got); err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 2 || got[0] != "b" {
		t.Fatalf("unexpected value: %v", got)
	}
}

func TestQuotaRejectsOversizedWrite(t *testing.T) {
	store := newTestStore(t, 32)
	ctx := context.Background()

	err := store.Write(ctx, "big", strings.Repeat("x", 64))
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}

	exists, err := store.Exists(ctx, "big")
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if exists {
		t.Fatal("rejected write must not persist")
	}
}

func TestQuotaExcludesOwnKeyOnOverwrite(t *testing.T) {
	store := newTestStore(t, 40)
	ctx := context.Background()

	if err := store.Write(ctx, "k", strings.Repeat("a", 30)); err != nil {
		t.Fatalf("first write: %v", err)
	}
	// Replacing the same key must not double-count the old payload.
	if err := store.Write(ctx, "k", strings.Repeat("b", 30)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	// A second key sharing the pool does hit the budget.
	if err := store.Write(ctx, "other", strings.Repeat("c", 30)); !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
}

func TestDeleteAndUsedBytes(t *testing.T) {
	store := newTestStore(t, 0)
	ctx := context.Background()

	if err := store.Write(ctx, "a", "12345678"); err != nil {
		t.Fatalf("write: %v", err)
	}
	used, err := store.UsedBytes(ctx)
	if err != nil {
		t.Fatalf("used: %v", err)
	}
	if used == 0 {
		t.Fatal("expected non-zero usage")
	}

	if err := store.Delete(ctx, "a", "never-existed"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	used, err = store.UsedBytes(ctx)
	if err != nil {
		t.Fatalf("used after delete: %v", err)
	}
	if used != 0 {
		t.Fatalf("expected empty store, %d bytes in use", used)
	}
}
