package task

import (
	"context"
	stdErrors "errors"
	"testing"
	"time"
)

func fixedClock(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}

func TestMemoryStoreCreateAssignsTimestampIDs(t *testing.T) {
	base := time.UnixMilli(1_700_000_000_000)
	store := NewMemoryStore(WithClock(fixedClock(base)))
	ctx := context.Background()

	first, err := store.Create(ctx, Task{Description: "first"})
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	second, err := store.Create(ctx, Task{Description: "second"})
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	if first.ID != base.UnixMilli() {
		t.Fatalf("expected timestamp id, got %d", first.ID)
	}
	if second.ID != first.ID+1 {
		t.Fatalf("colliding timestamp should be bumped: %d then %d", first.ID, second.ID)
	}

	all, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 || all[0].Description != "first" || all[1].Description != "second" {
		t.Fatalf("unexpected list: %+v", all)
	}
}

func TestMemoryStoreRejectsEmptyDescription(t *testing.T) {
	store := NewMemoryStore()
	if _, err := store.Create(context.Background(), Task{Description: "  "}); !stdErrors.Is(err, ErrTaskValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestMemoryStoreListReturnsCopies(t *testing.T) {
	store := NewMemoryStore(WithSeed(Task{ID: 1, Description: "keep"}))
	ctx := context.Background()

	all, _ := store.List(ctx)
	all[0].Description = "mutated"

	again, _ := store.List(ctx)
	if again[0].Description != "keep" {
		t.Fatalf("store leaked internal slice: %+v", again)
	}
}

func TestMemoryStoreUpdateAndDelete(t *testing.T) {
	store := NewMemoryStore(WithSeed(
		Task{ID: 1, Description: "a"},
		Task{ID: 2, Description: "b"},
		Task{ID: 3, Description: "c"},
	))
	ctx := context.Background()

	if _, err := store.Update(ctx, Task{ID: 2, Description: "b2", Completed: true}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := store.Delete(ctx, 1); err != nil {
		t.Fatalf("delete: %v", err)
	}
	// index must be rebuilt after the removal shifted positions
	if _, err := store.Update(ctx, Task{ID: 3, Description: "c2"}); err != nil {
		t.Fatalf("update after delete: %v", err)
	}

	all, _ := store.List(ctx)
	if len(all) != 2 || all[0].ID != 2 || !all[0].Completed || all[1].Description != "c2" {
		t.Fatalf("unexpected state: %+v", all)
	}
}

func TestMemoryStoreMissingIDIsNotFound(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if _, err := store.Update(ctx, Task{ID: 42, Description: "x"}); !stdErrors.Is(err, ErrTaskNotFound) {
		t.Fatalf("expected not found on update, got %v", err)
	}
	if err := store.Delete(ctx, 42); !IsTaskError(err, CodeTaskNotFound) {
		t.Fatalf("expected not found on delete, got %v", err)
	}
}

func TestMemoryStoreSeedSkipsDuplicatesAndAdvancesIDs(t *testing.T) {
	store := NewMemoryStore(
		WithSeed(Task{ID: 5_000_000_000_000, Description: "future"}, Task{ID: 5_000_000_000_000, Description: "dup"}),
		WithClock(fixedClock(time.UnixMilli(10))),
	)
	created, err := store.Create(context.Background(), Task{Description: "next"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID != 5_000_000_000_001 {
		t.Fatalf("id should advance past seeded ids, got %d", created.ID)
	}
	all, _ := store.List(context.Background())
	if len(all) != 2 {
		t.Fatalf("duplicate seed should be skipped: %+v", all)
	}
}
