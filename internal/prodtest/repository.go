// Package prodtest defines the production-test repository model shared by
// the editor, the settings page and the run controller.
package prodtest

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ErrSetNotFound is returned when a test set id is not present in a repository.
var ErrSetNotFound = errors.New("test set not found")

// Repository is the backend's test catalog for one device part number.
// Common and Lib together form the library of runnable tests.
type Repository struct {
	Common   []string  `json:"common"`
	Lib      []string  `json:"lib"`
	Sets     []TestSet `json:"sets"`
	Settings Settings  `json:"settings"`
}

// TestSet is a named, ordered list of test names.
type TestSet struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Tests []string `json:"tests"`
}

// NewSetID returns a fresh client-side test set id.
func NewSetID() string {
	return uuid.NewString()
}

// Library returns common followed by lib.
func (r *Repository) Library() []string {
	lib := make([]string, 0, len(r.Common)+len(r.Lib))
	lib = append(lib, r.Common...)
	return append(lib, r.Lib...)
}

// IsEmpty reports whether the repository carries no tests at all. The
// backend answers an unknown part number with an empty object.
func (r *Repository) IsEmpty() bool {
	return r == nil || (len(r.Common) == 0 && len(r.Lib) == 0 && len(r.Sets) == 0)
}

// FindSet returns the set with the given id.
func (r *Repository) FindSet(id string) (TestSet, bool) {
	for _, s := range r.Sets {
		if s.ID == id {
			return s, true
		}
	}
	return TestSet{}, false
}

// Count returns the number of tests a run of sel executes.
func (r *Repository) Count(sel Selection) (int, error) {
	if sel.IsAll() {
		return len(r.Common) + len(r.Lib), nil
	}
	set, ok := r.FindSet(sel.ID())
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrSetNotFound, sel.ID())
	}
	return len(set.Tests), nil
}

// Clone returns a deep copy so optimistic edits never alias a cached snapshot.
func (r *Repository) Clone() *Repository {
	if r == nil {
		return nil
	}
	out := &Repository{
		Common:   cloneNames(r.Common),
		Lib:      cloneNames(r.Lib),
		Sets:     CloneSets(r.Sets),
		Settings: r.Settings.Clone(),
	}
	return out
}

// CloneSets deep-copies a slice of sets. The result is never nil.
func CloneSets(sets []TestSet) []TestSet {
	out := make([]TestSet, len(sets))
	for i, s := range sets {
		out[i] = TestSet{ID: s.ID, Name: s.Name, Tests: cloneNames(s.Tests)}
	}
	return out
}

// cloneNames copies names into a non-nil slice so an empty list encodes as [].
func cloneNames(names []string) []string {
	out := make([]string, len(names))
	copy(out, names)
	return out
}

// AddSet appends an empty set named "Test Set" and returns it.
func AddSet(sets []TestSet) ([]TestSet, TestSet) {
	set := TestSet{ID: NewSetID(), Name: "Test Set", Tests: []string{}}
	out := append(CloneSets(sets), set)
	return out, set
}

// RenameSet returns sets with the set id renamed. Blank names are rejected.
func RenameSet(sets []TestSet, id, name string) ([]TestSet, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("test set name cannot be empty")
	}
	out := CloneSets(sets)
	for i := range out {
		if out[i].ID == id {
			out[i].Name = name
			return out, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrSetNotFound, id)
}

// DeleteSet returns sets without the set id.
func DeleteSet(sets []TestSet, id string) ([]TestSet, error) {
	out := make([]TestSet, 0, len(sets))
	found := false
	for _, s := range CloneSets(sets) {
		if s.ID == id {
			found = true
			continue
		}
		out = append(out, s)
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrSetNotFound, id)
	}
	return out, nil
}

// Decode parses a repository response body. An empty body, JSON null or an
// empty object yields (nil, nil).
func Decode(data []byte) (*Repository, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" || trimmed == "{}" || trimmed == `""` {
		return nil, nil
	}
	var repo Repository
	if err := json.Unmarshal(data, &repo); err != nil {
		return nil, fmt.Errorf("decoding test repository: %w", err)
	}
	if repo.IsEmpty() {
		return nil, nil
	}
	return &repo, nil
}
