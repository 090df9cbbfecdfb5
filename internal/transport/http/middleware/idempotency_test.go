package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

func TestMemoryIdempotencyReplaysAndConflicts(t *testing.T) {
	store := NewMemoryIdempotency()
	ctx := context.Background()
	hash := RequestHash([]byte(`{"targetId":"t1"}`))

	if _, found, err := store.Check(ctx, "emp-1", "events.append", "k1", hash); err != nil || found {
		t.Fatalf("expected empty store, found=%v err=%v", found, err)
	}
	if err := store.Save(ctx, "emp-1", "events.append", "k1", hash, json.RawMessage(`{"id":"ev-1"}`)); err != nil {
		t.Fatalf("save: %v", err)
	}

	stored, found, err := store.Check(ctx, "emp-1", "events.append", "k1", hash)
	if err != nil || !found {
		t.Fatalf("expected replay, found=%v err=%v", found, err)
	}
	if string(stored) != `{"id":"ev-1"}` {
		t.Fatalf("unexpected stored response %s", stored)
	}

	other := RequestHash([]byte(`{"targetId":"t2"}`))
	if _, _, err := store.Check(ctx, "emp-1", "events.append", "k1", other); !errors.Is(err, ErrIdempotencyConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if _, found, _ := store.Check(ctx, "emp-2", "events.append", "k1", hash); found {
		t.Fatal("keys must be scoped per user")
	}
}

func TestIdempotencyStoreNilIsDisabled(t *testing.T) {
	var store *IdempotencyStore
	if _, found, err := store.Check(context.Background(), "u", "e", "k", "h"); err != nil || found {
		t.Fatalf("nil store should be a no-op, found=%v err=%v", found, err)
	}
	if err := store.Save(context.Background(), "u", "e", "k", "h", nil); err != nil {
		t.Fatalf("nil store save: %v", err)
	}
}
