package task

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	xerrors "TodoList/internal/errors"
)

func sampleTasks(n int) []Task {
	tasks := make([]Task, 0, n)
	for i := 0; i < n; i++ {
		tasks = append(tasks, Task{ID: int64(i + 1), Description: fmt.Sprintf("task %d", i), Completed: i%2 == 1})
	}
	return tasks
}

func TestFilterSearchIsCaseInsensitiveSubset(t *testing.T) {
	tasks := []Task{
		{ID: 1, Description: "Buy Milk"},
		{ID: 2, Description: "walk the dog"},
		{ID: 3, Description: "buy bread", Completed: true},
		{ID: 4, Description: "Call mom"},
	}

	got := Filter(tasks, "BUY", StatusAll)
	if len(got) != 2 || got[0].ID != 1 || got[1].ID != 3 {
		t.Fatalf("unexpected filter result: %+v", got)
	}

	for _, term := range []string{"", "b", "dog", "MOM", "zzz", " "} {
		filtered := Filter(tasks, term, StatusAll)
		kept := make(map[int64]bool, len(filtered))
		for _, task := range filtered {
			kept[task.ID] = true
			if !strings.Contains(strings.ToLower(task.Description), strings.ToLower(term)) {
				t.Fatalf("term %q kept non-matching task %+v", term, task)
			}
		}
		for _, task := range tasks {
			matches := strings.Contains(strings.ToLower(task.Description), strings.ToLower(term))
			if matches != kept[task.ID] {
				t.Fatalf("term %q: membership of %+v is %v, want %v", term, task, kept[task.ID], matches)
			}
		}
	}
}

func TestFilterEmptySearchMatchesEverything(t *testing.T) {
	tasks := sampleTasks(5)
	if got := Filter(tasks, "", StatusAll); len(got) != len(tasks) {
		t.Fatalf("expected %d tasks, got %d", len(tasks), len(got))
	}
}

func TestFilterStatusPartitionsAll(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for round := 0; round < 50; round++ {
		tasks := make([]Task, rng.Intn(12))
		for i := range tasks {
			tasks[i] = Task{ID: int64(i + 1), Description: fmt.Sprintf("item %d", rng.Intn(4)), Completed: rng.Intn(2) == 0}
		}
		term := fmt.Sprintf("%d", rng.Intn(4))

		all := Filter(tasks, term, StatusAll)
		active := Filter(tasks, term, StatusActive)
		completed := Filter(tasks, term, StatusCompleted)

		if len(active)+len(completed) != len(all) {
			t.Fatalf("round %d: %d active + %d completed != %d all", round, len(active), len(completed), len(all))
		}
		seen := make(map[int64]StatusFilter)
		for _, task := range active {
			if task.Completed {
				t.Fatalf("active filter kept completed task %+v", task)
			}
			seen[task.ID] = StatusActive
		}
		for _, task := range completed {
			if !task.Completed {
				t.Fatalf("completed filter kept active task %+v", task)
			}
			if _, dup := seen[task.ID]; dup {
				t.Fatalf("task %d appears in both partitions", task.ID)
			}
			seen[task.ID] = StatusCompleted
		}
		for _, task := range all {
			if _, ok := seen[task.ID]; !ok {
				t.Fatalf("task %d missing from partitions", task.ID)
			}
		}
	}
}

func TestFilterPreservesOrder(t *testing.T) {
	tasks := []Task{{ID: 9, Description: "c"}, {ID: 2, Description: "a"}, {ID: 5, Description: "b"}}
	got := Filter(tasks, "", StatusActive)
	for i := range tasks {
		if got[i].ID != tasks[i].ID {
			t.Fatalf("order changed: %+v", got)
		}
	}
}

func TestPaginateSevenItems(t *testing.T) {
	tasks := sampleTasks(7)

	cases := []struct {
		page     int
		wantIDs  []int64
		wantPage int
	}{
		{page: 1, wantIDs: []int64{1, 2, 3}, wantPage: 1},
		{page: 2, wantIDs: []int64{4, 5, 6}, wantPage: 2},
		{page: 3, wantIDs: []int64{7}, wantPage: 3},
		{page: 4, wantIDs: []int64{7}, wantPage: 3},
		{page: 100, wantIDs: []int64{7}, wantPage: 3},
		{page: 0, wantIDs: []int64{1, 2, 3}, wantPage: 1},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("page %d", tc.page), func(t *testing.T) {
			page := Paginate(tasks, tc.page, 3)
			if page.Number != tc.wantPage || page.TotalPages != 3 || page.TotalItems != 7 {
				t.Fatalf("unexpected page meta: %+v", page)
			}
			if len(page.Items) != len(tc.wantIDs) {
				t.Fatalf("expected %d items, got %d", len(tc.wantIDs), len(page.Items))
			}
			for i, id := range tc.wantIDs {
				if page.Items[i].ID != id {
					t.Fatalf("item %d: got id %d want %d", i, page.Items[i].ID, id)
				}
			}
		})
	}
}

func TestPaginateEmptyList(t *testing.T) {
	page := Paginate(nil, 5, 3)
	if page.Number != 1 || page.TotalPages != 1 || len(page.Items) != 0 {
		t.Fatalf("unexpected empty page: %+v", page)
	}
	if page.HasPrev() || page.HasNext() {
		t.Fatalf("single empty page has no neighbours: %+v", page)
	}
}

func TestPaginateDefaultsPageSize(t *testing.T) {
	page := Paginate(sampleTasks(4), 1, 0)
	if page.PageSize != DefaultPageSize || len(page.Items) != DefaultPageSize || !page.HasNext() {
		t.Fatalf("unexpected page: %+v", page)
	}
}

func TestComputeProgress(t *testing.T) {
	if p := ComputeProgress(nil); p.Total != 0 || p.Completed != 0 || p.Percentage != 0 {
		t.Fatalf("unexpected empty progress: %+v", p)
	}
	p := ComputeProgress([]Task{{Completed: true}, {}, {}, {Completed: true}})
	if p.Completed != 2 || p.Total != 4 || p.Percentage != 50 {
		t.Fatalf("unexpected progress: %+v", p)
	}
}

func TestQueryDerivesPageAndProgressFromFilteredList(t *testing.T) {
	tasks := []Task{
		{ID: 1, Description: "buy milk", Completed: true},
		{ID: 2, Description: "buy eggs"},
		{ID: 3, Description: "walk"},
		{ID: 4, Description: "buy bread"},
		{ID: 5, Description: "buy jam", Completed: true},
	}
	result := Query(tasks, WithSearch("buy"), WithPage(2), WithPageSize(3))
	if len(result.Filtered) != 4 {
		t.Fatalf("expected 4 filtered tasks, got %d", len(result.Filtered))
	}
	if result.Page.Number != 2 || len(result.Page.Items) != 1 || result.Page.Items[0].ID != 5 {
		t.Fatalf("unexpected page: %+v", result.Page)
	}
	if result.Progress.Completed != 2 || result.Progress.Total != 4 {
		t.Fatalf("progress should cover the whole filtered list: %+v", result.Progress)
	}

	fallback := Query(tasks, WithStatus("bogus"), WithPage(-3))
	if fallback.Options.Status != StatusAll || fallback.Options.Page != 1 || fallback.Options.PageSize != DefaultPageSize {
		t.Fatalf("unexpected defaults: %+v", fallback.Options)
	}
}

func TestStatusFilterCycle(t *testing.T) {
	s := StatusAll
	for _, want := range []StatusFilter{StatusActive, StatusCompleted, StatusAll} {
		s = s.Next()
		if s != want {
			t.Fatalf("got %s want %s", s, want)
		}
	}
	if got, ok := ParseStatusFilter(" Completed "); !ok || got != StatusCompleted {
		t.Fatalf("unexpected parse: %s %v", got, ok)
	}
	if _, ok := ParseStatusFilter("done"); ok {
		t.Fatal("unknown filter should not parse")
	}
}

func TestParseDate(t *testing.T) {
	if d, err := ParseDate(" 2025-01-31 "); err != nil || d != "2025-01-31" {
		t.Fatalf("unexpected parse: %q %v", d, err)
	}
	if d, err := ParseDate(""); err != nil || !d.IsZero() {
		t.Fatalf("empty date should be zero: %q %v", d, err)
	}
	if _, err := ParseDate("31/01/2025"); !IsTaskError(err, CodeTaskValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDraftValidate(t *testing.T) {
	if err := (Draft{Description: "   "}).Validate(); err != ErrTaskValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := (Draft{Description: "Buy milk"}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	d := Draft{Description: "  Buy milk ", File: " a.png "}.Normalize()
	if d.Description != "Buy milk" || d.File != "a.png" {
		t.Fatalf("unexpected normalized draft: %+v", d)
	}
}

func TestTaskCodesCarryBusyAndNotFound(t *testing.T) {
	if got := xerrors.CodeOf(ErrTaskBusy); got != CodeTaskBusy {
		t.Fatalf("busy error has code %s", got)
	}
	if got := xerrors.CodeOf(ErrTaskNotFound); got != CodeTaskNotFound {
		t.Fatalf("not found error has code %s", got)
	}
	for _, code := range []xerrors.Code{CodeTaskBusy, CodeTaskNotFound} {
		attr := xerrors.AttributesOf(code)
		if attr.Notify || attr.Severity != xerrors.SeverityInfo {
			t.Fatalf("%s should be a quiet info code, got %+v", code, attr)
		}
	}
	if xerrors.AttributesOf("BUSY") != xerrors.AttributesOf(xerrors.CodeUnknown) {
		t.Fatal("generic BUSY code should not be registered")
	}
}
