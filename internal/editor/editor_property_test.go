package editor

import (
	"slices"
	"testing"

	"pgregory.net/rapid"

	"github.com/zjrosen/prodtests/internal/prodtest"
)

func genRepo(t *rapid.T) *prodtest.Repository {
	name := rapid.StringMatching(`[A-Z][a-z]{2,6}`)
	common := rapid.SliceOfN(name, 1, 4).Draw(t, "common")
	lib := rapid.SliceOfN(name, 0, 6).Draw(t, "lib")
	library := append(slices.Clone(common), lib...)
	tests := rapid.SliceOfN(rapid.SampledFrom(library), 0, 6).Draw(t, "tests")
	return &prodtest.Repository{
		Common: common,
		Lib:    lib,
		Sets:   []prodtest.TestSet{{ID: "set", Name: "Set", Tests: tests}},
	}
}

func ids(items []Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

// The library is never changed by any sequence of edits.
func TestProperty_LibraryInvariant(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		e := New(WithIDFunc(counterIDs()))
		if err := e.Initialize(genRepo(rt), "set"); err != nil {
			rt.Fatal(err)
		}
		before := e.Library()

		steps := rapid.IntRange(0, 20).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			n := len(e.TestSet())
			switch op := rapid.IntRange(0, 2).Draw(rt, "op"); {
			case op == 0:
				e.Copy(rapid.IntRange(0, len(before)-1).Draw(rt, "from"), rapid.IntRange(0, n).Draw(rt, "to"))
			case op == 1 && n > 0:
				e.Reorder(rapid.IntRange(0, n-1).Draw(rt, "from"), rapid.IntRange(0, n-1).Draw(rt, "to"))
			case op == 2 && n > 0:
				e.Remove(rapid.IntRange(0, n-1).Draw(rt, "i"))
			}
		}

		if !slices.Equal(before, e.Library()) {
			rt.Fatalf("library changed: %v -> %v", before, e.Library())
		}
	})
}

// Copy inserts the library name at the target position under a new id.
func TestProperty_CopyInsertsClone(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		e := New(WithIDFunc(counterIDs()))
		if err := e.Initialize(genRepo(rt), "set"); err != nil {
			rt.Fatal(err)
		}
		lib := e.Library()
		prior := e.Names()
		from := rapid.IntRange(0, len(lib)-1).Draw(rt, "from")
		to := rapid.IntRange(0, len(prior)).Draw(rt, "to")

		e.Copy(from, to)

		want := slices.Insert(slices.Clone(prior), to, lib[from].Name)
		out, err := e.Commit([]prodtest.TestSet{{ID: "set"}})
		if err != nil {
			rt.Fatal(err)
		}
		if !slices.Equal(want, out[0].Tests) {
			rt.Fatalf("got %v, want %v", out[0].Tests, want)
		}
		if e.TestSet()[to].ID == lib[from].ID {
			rt.Fatalf("copy reused library id %s", lib[from].ID)
		}
	})
}

// Reorder preserves the multiset of ids.
func TestProperty_ReorderPreservesIDs(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		e := New(WithIDFunc(counterIDs()))
		if err := e.Initialize(genRepo(rt), "set"); err != nil {
			rt.Fatal(err)
		}
		n := len(e.TestSet())
		if n == 0 {
			rt.Skip("empty set")
		}
		before := ids(e.TestSet())

		e.Reorder(rapid.IntRange(0, n-1).Draw(rt, "from"), rapid.IntRange(0, n-1).Draw(rt, "to"))

		after := ids(e.TestSet())
		slices.Sort(before)
		slices.Sort(after)
		if !slices.Equal(before, after) {
			rt.Fatalf("ids changed: %v -> %v", before, after)
		}
	})
}

// Remove shrinks by one and keeps the relative order of the rest.
func TestProperty_RemovePreservesOrder(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		e := New(WithIDFunc(counterIDs()))
		if err := e.Initialize(genRepo(rt), "set"); err != nil {
			rt.Fatal(err)
		}
		n := len(e.TestSet())
		if n == 0 {
			rt.Skip("empty set")
		}
		before := ids(e.TestSet())
		i := rapid.IntRange(0, n-1).Draw(rt, "i")

		e.Remove(i)

		want := slices.Delete(slices.Clone(before), i, i+1)
		if !slices.Equal(want, ids(e.TestSet())) {
			rt.Fatalf("got %v, want %v", ids(e.TestSet()), want)
		}
	})
}
