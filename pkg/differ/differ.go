// Package differ compares two versions of a line list, such as the
// results of two quality runs.
package differ

import (
	"fmt"
	"strings"
)

// Result holds the lines only one side has.
type Result struct {
	Added   []string `json:"added"`
	Removed []string `json:"removed"`
	Stats   Stats    `json:"stats"`
}

// Stats holds counts of changes.
type Stats struct {
	Additions int `json:"additions"`
	Deletions int `json:"deletions"`
}

// Lines diffs old against new as multisets: a line present twice in old
// and once in new counts as one deletion. Blank lines are ignored and
// output keeps each side's order.
func Lines(oldLines, newLines []string) Result {
	remaining := make(map[string]int, len(newLines))
	for _, l := range newLines {
		if strings.TrimSpace(l) != "" {
			remaining[l]++
		}
	}

	var res Result
	matched := make(map[string]int, len(oldLines))
	for _, l := range oldLines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		if remaining[l] > 0 {
			remaining[l]--
			matched[l]++
			continue
		}
		res.Removed = append(res.Removed, l)
	}
	for _, l := range newLines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		if matched[l] > 0 {
			matched[l]--
			continue
		}
		res.Added = append(res.Added, l)
	}

	res.Stats = Stats{Additions: len(res.Added), Deletions: len(res.Removed)}
	return res
}

// TextDiff diffs two texts line by line.
func TextDiff(oldText, newText string) Result {
	if oldText == newText {
		return Result{}
	}
	return Lines(strings.Split(oldText, "\n"), strings.Split(newText, "\n"))
}

// HasChanges reports whether either side has unmatched lines.
func (r Result) HasChanges() bool { return len(r.Added) > 0 || len(r.Removed) > 0 }

// Unified renders removals then additions with -/+ markers.
func (r Result) Unified(oldName, newName string) string {
	if !r.HasChanges() {
		return ""
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "--- %s\n+++ %s\n", oldName, newName)
	for _, l := range r.Removed {
		sb.WriteString("-" + l + "\n")
	}
	for _, l := range r.Added {
		sb.WriteString("+" + l + "\n")
	}
	return sb.String()
}

// Summary returns a human-readable summary of the diff.
func (r Result) Summary() string {
	if !r.HasChanges() {
		return "No changes detected"
	}
	return fmt.Sprintf("%d additions, %d deletions", r.Stats.Additions, r.Stats.Deletions)
}
