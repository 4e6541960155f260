package prodtest

// AllID is the wire id of the implicit set containing the whole library.
const AllID = "all"

// Selection identifies what a run executes: the whole library or one set.
// The zero value selects the whole library.
type Selection struct {
	id string
}

// AllTests selects every test in the library.
func AllTests() Selection { return Selection{} }

// ByID selects a stored test set.
func ByID(id string) Selection { return Selection{id: id} }

// ParseSelection converts a wire id back into a Selection.
func ParseSelection(wire string) Selection {
	if wire == "" || wire == AllID {
		return AllTests()
	}
	return ByID(wire)
}

// IsAll reports whether the selection is the whole library.
func (s Selection) IsAll() bool { return s.id == "" }

// ID returns the set id, or "" for AllTests.
func (s Selection) ID() string { return s.id }

// WireID returns the id sent to the backend.
func (s Selection) WireID() string {
	if s.IsAll() {
		return AllID
	}
	return s.id
}

func (s Selection) String() string { return s.WireID() }
