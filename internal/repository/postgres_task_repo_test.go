package repository

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func boolPtr(b bool) *bool { return &b }

func timePtr(t time.Time) *time.Time { return &t }

// --- buildListQuery ---

func TestBuildListQuery_OwnerOnly(t *testing.T) {
	query, args := buildListQuery(TaskQuery{OwnerID: "user-1", Limit: 50})

	if !strings.Contains(query, "WHERE user_id = $1") {
		t.Errorf("query should scope by user_id, got %q", query)
	}
	if !strings.Contains(query, "ORDER BY deadline ASC NULLS FIRST, created_at DESC") {
		t.Errorf("query should order by deadline nulls-first then created_at desc, got %q", query)
	}
	if !strings.HasSuffix(query, "LIMIT $2") {
		t.Errorf("query should end with LIMIT $2, got %q", query)
	}
	if strings.Contains(query, "OFFSET") {
		t.Errorf("query should not contain OFFSET when Offset=0, got %q", query)
	}

	want := []any{"user-1", 50}
	if !reflect.DeepEqual(args, want) {
		t.Errorf("args = %v, want %v", args, want)
	}
}

func TestBuildListQuery_AllFilters(t *testing.T) {
	before := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	after := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	query, args := buildListQuery(TaskQuery{
		OwnerID:        "user-1",
		IsComplete:     boolPtr(false),
		Category:       "work",
		DeadlineBefore: timePtr(before),
		DeadlineAfter:  timePtr(after),
		Limit:          10,
	})

	for _, clause := range []string{
		"AND is_complete = $2",
		"AND category = $3",
		"AND deadline <= $4",
		"AND deadline >= $5",
		"LIMIT $6",
	} {
		if !strings.Contains(query, clause) {
			t.Errorf("query should contain %q, got %q", clause, query)
		}
	}

	want := []any{"user-1", false, "work", before, after, 10}
	if !reflect.DeepEqual(args, want) {
		t.Errorf("args = %v, want %v", args, want)
	}
}

func TestBuildListQuery_OffsetTakesRangeForm(t *testing.T) {
	query, args := buildListQuery(TaskQuery{OwnerID: "user-1", Limit: 3, Offset: 4})

	if !strings.HasSuffix(query, "LIMIT $2 OFFSET $3") {
		t.Errorf("query should end with LIMIT/OFFSET placeholders, got %q", query)
	}

	want := []any{"user-1", 3, 4}
	if !reflect.DeepEqual(args, want) {
		t.Errorf("args = %v, want %v", args, want)
	}
}

func TestBuildListQuery_SingleFilter_PlaceholdersStayDense(t *testing.T) {
	query, args := buildListQuery(TaskQuery{
		OwnerID:  "user-1",
		Category: "home",
		Limit:    50,
	})

	if !strings.Contains(query, "AND category = $2") {
		t.Errorf("category placeholder should be $2 when it is the only filter, got %q", query)
	}
	if !strings.HasSuffix(query, "LIMIT $3") {
		t.Errorf("limit placeholder should be $3, got %q", query)
	}
	if len(args) != 3 {
		t.Errorf("len(args) = %d, want 3", len(args))
	}
}

// --- buildUpdateQuery ---

func TestBuildUpdateQuery_AllColumns(t *testing.T) {
	deadline := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	category := "errands"

	query, args := buildUpdateQuery("user-1", "task-9", TaskChanges{
		SetTitle:      true,
		Title:         "new title",
		SetCategory:   true,
		Category:      &category,
		SetDeadline:   true,
		Deadline:      &deadline,
		SetIsComplete: true,
		IsComplete:    true,
	})

	for _, clause := range []string{
		"title = $1",
		"category = $2",
		"deadline = $3",
		"is_complete = $4",
		"updated_at = now()",
		"WHERE id = $5 AND user_id = $6",
		"RETURNING",
	} {
		if !strings.Contains(query, clause) {
			t.Errorf("query should contain %q, got %q", clause, query)
		}
	}

	if len(args) != 6 {
		t.Fatalf("len(args) = %d, want 6", len(args))
	}
	if args[4] != "task-9" || args[5] != "user-1" {
		t.Errorf("WHERE args = %v/%v, want task-9/user-1", args[4], args[5])
	}
}

func TestBuildUpdateQuery_SingleColumn_ScopesByOwner(t *testing.T) {
	query, args := buildUpdateQuery("user-1", "task-9", TaskChanges{
		SetIsComplete: true,
		IsComplete:    true,
	})

	if !strings.Contains(query, "is_complete = $1") {
		t.Errorf("query should set only is_complete, got %q", query)
	}
	if strings.Contains(query, "title =") || strings.Contains(query, "deadline =") {
		t.Errorf("query should not touch unspecified columns, got %q", query)
	}
	if !strings.Contains(query, "WHERE id = $2 AND user_id = $3") {
		t.Errorf("query must scope by id AND user_id, got %q", query)
	}

	want := []any{true, "task-9", "user-1"}
	if !reflect.DeepEqual(args, want) {
		t.Errorf("args = %v, want %v", args, want)
	}
}

func TestBuildUpdateQuery_NilCategoryClearsColumn(t *testing.T) {
	_, args := buildUpdateQuery("user-1", "task-9", TaskChanges{
		SetCategory: true,
		Category:    nil,
	})

	// nilポインタがそのままプレースホルダ引数になり、SQL NULLとして書き込まれる
	if args[0] != (*string)(nil) {
		t.Errorf("args[0] = %v, want nil *string", args[0])
	}
}

// --- TaskChanges ---

func TestTaskChanges_Empty(t *testing.T) {
	if !(TaskChanges{}).Empty() {
		t.Error("zero TaskChanges should be Empty")
	}
	if (TaskChanges{SetTitle: true, Title: "x"}).Empty() {
		t.Error("TaskChanges with SetTitle should not be Empty")
	}
	if (TaskChanges{SetDeadline: true}).Empty() {
		t.Error("TaskChanges with SetDeadline (clear) should not be Empty")
	}
}
