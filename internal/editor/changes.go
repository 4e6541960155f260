package editor

import (
	"slices"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Changes summarises the pending edit against the last committed list.
type Changes struct {
	Added   []string
	Removed []string
	// Reordered is set when the names are the same but their order differs.
	Reordered bool
}

// Empty reports whether there is nothing to commit.
func (c Changes) Empty() bool {
	return len(c.Added) == 0 && len(c.Removed) == 0 && !c.Reordered
}

// Changes diffs the working test set against the committed one, line by line.
func (e *Editor) Changes() Changes {
	current := e.Names()
	if slices.Equal(current, e.committed) {
		return Changes{}
	}

	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(joinLines(e.committed), joinLines(current))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var c Changes
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			c.Added = append(c.Added, splitLines(d.Text)...)
		case diffmatchpatch.DiffDelete:
			c.Removed = append(c.Removed, splitLines(d.Text)...)
		}
	}

	if sameMultiset(c.Added, c.Removed) {
		return Changes{Reordered: true}
	}
	return c
}

func joinLines(names []string) string {
	var b strings.Builder
	for _, n := range names {
		b.WriteString(n)
		b.WriteByte('\n')
	}
	return b.String()
}

func splitLines(text string) []string {
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}

func sameMultiset(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	x, y := slices.Clone(a), slices.Clone(b)
	slices.Sort(x)
	slices.Sort(y)
	return slices.Equal(x, y)
}
