// Package editor implements the two-pane test set editor: a read-only library
// of test names and an ordered, user-edited test set.
package editor

import (
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/zjrosen/prodtests/internal/log"
	"github.com/zjrosen/prodtests/internal/prodtest"
)

// ErrNotFound is returned by Initialize when the selected set is missing.
var ErrNotFound = fmt.Errorf("editor: %w", prodtest.ErrSetNotFound)

// Item wraps a test name with a display identity. Two items with the same
// name are distinct entries.
type Item struct {
	ID   string
	Name string
}

// IDFunc generates display ids.
type IDFunc func() string

// Collection names one of the editor's lists.
type Collection int

const (
	Library Collection = iota
	TestSet
)

func (c Collection) String() string {
	switch c {
	case Library:
		return "library"
	case TestSet:
		return "testset"
	default:
		return fmt.Sprintf("collection(%d)", int(c))
	}
}

// Location addresses a slot in a collection.
type Location struct {
	Collection Collection
	Index      int
}

// DragResult describes a completed drag gesture. Destination is nil when the
// item was dropped outside any list.
type DragResult struct {
	Source      Location
	Destination *Location
}

// Editor holds the working copy of one test set.
type Editor struct {
	library []Item
	testSet []Item

	setID     string
	committed []string
	newID     IDFunc
}

// Option configures an Editor.
type Option func(*Editor)

// WithIDFunc overrides display id generation.
func WithIDFunc(fn IDFunc) Option {
	return func(e *Editor) { e.newID = fn }
}

// New creates an empty editor.
func New(opts ...Option) *Editor {
	e := &Editor{newID: uuid.NewString}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Initialize loads the library and the set id from repo. Every name gets a
// fresh display id. The whole-library selection must be handled by the
// caller; it is not a stored set.
func (e *Editor) Initialize(repo *prodtest.Repository, setID string) error {
	set, ok := repo.FindSet(setID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, setID)
	}

	e.library = e.materialize(repo.Library())
	e.testSet = e.materialize(set.Tests)
	e.setID = setID
	e.committed = slices.Clone(set.Tests)

	log.Debug(log.CatEdit, "Editor initialized",
		"set", setID, "library", len(e.library), "tests", len(e.testSet))
	return nil
}

func (e *Editor) materialize(names []string) []Item {
	items := make([]Item, len(names))
	for i, name := range names {
		items[i] = Item{ID: e.newID(), Name: name}
	}
	return items
}

// SetID returns the id active since the last Initialize.
func (e *Editor) SetID() string { return e.setID }

// Library returns a copy of the library items.
func (e *Editor) Library() []Item { return slices.Clone(e.library) }

// TestSet returns a copy of the test set items.
func (e *Editor) TestSet() []Item { return slices.Clone(e.testSet) }

// Names projects the test set back to bare names.
func (e *Editor) Names() []string {
	names := make([]string, len(e.testSet))
	for i, it := range e.testSet {
		names[i] = it.Name
	}
	return names
}

// Copy inserts a clone of library[from] at testSet[to]. The clone gets a new
// display id; the library is unchanged.
func (e *Editor) Copy(from, to int) {
	checkIndex("copy source", from, len(e.library))
	checkIndex("copy destination", to, len(e.testSet)+1)

	clone := Item{ID: e.newID(), Name: e.library[from].Name}
	e.testSet = slices.Insert(e.testSet, to, clone)
}

// Move removes src[from] and inserts the same item at dst[to]. The library is
// read-only, so it can be neither end of a move.
func (e *Editor) Move(src Collection, from int, dst Collection, to int) {
	if src == Library || dst == Library {
		panic(fmt.Sprintf("editor: move %s -> %s: library is read-only", src, dst))
	}
	if src == dst {
		panic(fmt.Sprintf("editor: move within %s: use Reorder", src))
	}
	s, d := e.list(src), e.list(dst)
	*s, *d = transfer(*s, from, *d, to)
}

func (e *Editor) list(c Collection) *[]Item {
	switch c {
	case Library:
		return &e.library
	case TestSet:
		return &e.testSet
	default:
		panic(fmt.Sprintf("editor: unknown %s", c))
	}
}

// transfer removes src[from] and inserts it at dst[to], returning both
// slices. The moved item keeps its identity.
func transfer(src []Item, from int, dst []Item, to int) ([]Item, []Item) {
	checkIndex("move source", from, len(src))
	checkIndex("move destination", to, len(dst)+1)

	item := src[from]
	src = slices.Delete(slices.Clone(src), from, from+1)
	dst = slices.Insert(slices.Clone(dst), to, item)
	return src, dst
}

// Reorder moves testSet[from] to position to.
func (e *Editor) Reorder(from, to int) {
	checkIndex("reorder source", from, len(e.testSet))
	checkIndex("reorder destination", to, len(e.testSet))

	item := e.testSet[from]
	e.testSet = slices.Delete(e.testSet, from, from+1)
	e.testSet = slices.Insert(e.testSet, to, item)
}

// Remove deletes testSet[i].
func (e *Editor) Remove(i int) {
	checkIndex("remove", i, len(e.testSet))
	e.testSet = slices.Delete(e.testSet, i, i+1)
}

// Drop dispatches a drag gesture. Drops outside a list or onto the library
// are ignored. A drop within one list is always a reorder.
func (e *Editor) Drop(r DragResult) {
	if r.Destination == nil {
		return
	}
	dst := *r.Destination
	if dst.Collection == Library {
		return
	}

	switch {
	case r.Source.Collection == dst.Collection:
		e.Reorder(r.Source.Index, dst.Index)
	case r.Source.Collection == Library:
		e.Copy(r.Source.Index, dst.Index)
	default:
		e.Move(r.Source.Collection, r.Source.Index, dst.Collection, dst.Index)
	}
}

// Commit returns sets with the edited set's tests replaced. The record is
// matched by id, not position. The input slice is left untouched.
func (e *Editor) Commit(sets []prodtest.TestSet) ([]prodtest.TestSet, error) {
	out := prodtest.CloneSets(sets)
	for i := range out {
		if out[i].ID == e.setID {
			out[i].Tests = e.Names()
			e.committed = e.Names()
			log.Info(log.CatEdit, "Test set committed", "set", e.setID, "tests", len(out[i].Tests))
			return out, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, e.setID)
}

// IsNotFound reports whether err came from a missing test set.
func IsNotFound(err error) bool {
	return errors.Is(err, prodtest.ErrSetNotFound)
}

func checkIndex(op string, i, n int) {
	if i < 0 || i >= n {
		panic(fmt.Sprintf("editor: %s index %d out of range [0,%d)", op, i, n))
	}
}
