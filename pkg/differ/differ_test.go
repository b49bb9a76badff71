package differ

import (
	"slices"
	"testing"
)

func TestTextDiff_NoChanges(t *testing.T) {
	result := TextDiff("hello\nworld", "hello\nworld")
	if result.HasChanges() {
		t.Fatal("expected no changes")
	}
	if result.Summary() != "No changes detected" {
		t.Fatalf("unexpected summary: %s", result.Summary())
	}
	if result.Unified("a", "b") != "" {
		t.Fatal("expected empty unified output")
	}
}

func TestTextDiff_WithChanges(t *testing.T) {
	result := TextDiff("line1\nline2\nline3", "line1\nline2modified\nline3\nline4")

	if !slices.Equal(result.Removed, []string{"line2"}) {
		t.Fatalf("removed = %v", result.Removed)
	}
	if !slices.Equal(result.Added, []string{"line2modified", "line4"}) {
		t.Fatalf("added = %v", result.Added)
	}
	if result.Summary() != "2 additions, 1 deletions" {
		t.Fatalf("unexpected summary: %s", result.Summary())
	}
	want := "--- old\n+++ new\n-line2\n+line2modified\n+line4\n"
	if got := result.Unified("old", "new"); got != want {
		t.Fatalf("unified = %q", got)
	}
}

func TestLines_CountsDuplicates(t *testing.T) {
	result := Lines([]string{"a", "a", "b", ""}, []string{"a", "b", "b", "  "})
	if !slices.Equal(result.Removed, []string{"a"}) || !slices.Equal(result.Added, []string{"b"}) {
		t.Fatalf("unexpected diff: %+v", result)
	}
}

func TestTextDiff_AllNew(t *testing.T) {
	result := TextDiff("", "new content\nhere")
	if len(result.Added) != 2 || len(result.Removed) != 0 {
		t.Fatalf("unexpected diff: %+v", result)
	}
}
