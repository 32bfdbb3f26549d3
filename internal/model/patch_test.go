package model

import (
	"encoding/json"
	"testing"
	"time"
)

// Patchを含む更新ボディのデコードで3状態（未指定/null/値あり）が区別されること。
func TestPatch_UnmarshalJSON_ThreeStates(t *testing.T) {
	type body struct {
		Title    Patch[string]    `json:"title"`
		Category Patch[string]    `json:"category"`
		Deadline Patch[time.Time] `json:"deadline"`
	}

	var b body
	raw := `{"title": "buy milk", "category": null}`
	if err := json.Unmarshal([]byte(raw), &b); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	// 値あり
	if !b.Title.Set || b.Title.Null {
		t.Errorf("Title = {Set:%v Null:%v}, want {Set:true Null:false}", b.Title.Set, b.Title.Null)
	}
	if b.Title.Value != "buy milk" {
		t.Errorf("Title.Value = %q, want %q", b.Title.Value, "buy milk")
	}
	if !b.Title.Present() {
		t.Error("Title.Present() = false, want true")
	}

	// 明示的なnull
	if !b.Category.Set || !b.Category.Null {
		t.Errorf("Category = {Set:%v Null:%v}, want {Set:true Null:true}", b.Category.Set, b.Category.Null)
	}
	if b.Category.Present() {
		t.Error("Category.Present() = true, want false")
	}

	// 未指定
	if b.Deadline.Set {
		t.Error("Deadline.Set = true, want false")
	}
}

func TestPatch_UnmarshalJSON_TimeValue(t *testing.T) {
	type body struct {
		Deadline Patch[time.Time] `json:"deadline"`
	}

	var b body
	if err := json.Unmarshal([]byte(`{"deadline": "2024-01-03T00:00:00Z"}`), &b); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	want := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	if !b.Deadline.Present() || !b.Deadline.Value.Equal(want) {
		t.Errorf("Deadline = %v (present=%v), want %v", b.Deadline.Value, b.Deadline.Present(), want)
	}
}

func TestPatch_UnmarshalJSON_TypeMismatch_ReturnsError(t *testing.T) {
	type body struct {
		IsComplete Patch[bool] `json:"is_complete"`
	}

	var b body
	if err := json.Unmarshal([]byte(`{"is_complete": "yes"}`), &b); err == nil {
		t.Error("expected error for non-bool is_complete, got nil")
	}
}
