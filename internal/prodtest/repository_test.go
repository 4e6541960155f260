package prodtest

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleRepo() *Repository {
	return &Repository{
		Common: []string{"Common_Attn", "Common_Reset"},
		Lib:    []string{"Lib_Noise", "Lib_Rawdata", "Lib_Open"},
		Sets: []TestSet{
			{ID: "s1", Name: "Quick", Tests: []string{"Common_Reset", "Lib_Open"}},
			{ID: "s2", Name: "Full", Tests: []string{"Common_Attn"}},
		},
	}
}

func TestRepository_Library(t *testing.T) {
	repo := sampleRepo()
	require.Equal(t, []string{"Common_Attn", "Common_Reset", "Lib_Noise", "Lib_Rawdata", "Lib_Open"}, repo.Library())
}

func TestRepository_Count(t *testing.T) {
	repo := sampleRepo()

	n, err := repo.Count(AllTests())
	require.NoError(t, err)
	require.Equal(t, 5, n)

	n, err = repo.Count(ByID("s1"))
	require.NoError(t, err)
	require.Equal(t, 2, n)

	_, err = repo.Count(ByID("gone"))
	require.True(t, errors.Is(err, ErrSetNotFound))
}

func TestRepository_CloneDoesNotAlias(t *testing.T) {
	repo := sampleRepo()
	clone := repo.Clone()

	clone.Sets[0].Tests[0] = "changed"
	clone.Sets[0].Name = "changed"

	require.Equal(t, "Common_Reset", repo.Sets[0].Tests[0])
	require.Equal(t, "Quick", repo.Sets[0].Name)
}

func TestCloneSets_EmptyTestsEncodeAsArray(t *testing.T) {
	sets := CloneSets([]TestSet{
		{ID: "s1", Name: "Empty", Tests: []string{}},
		{ID: "s2", Name: "Decoded", Tests: nil},
	})

	data, err := json.Marshal(sets)
	require.NoError(t, err)
	require.JSONEq(t, `[{"id":"s1","name":"Empty","tests":[]},{"id":"s2","name":"Decoded","tests":[]}]`, string(data))

	data, err = json.Marshal((&Repository{}).Clone())
	require.NoError(t, err)
	require.Contains(t, string(data), `"common":[]`)
	require.Contains(t, string(data), `"lib":[]`)
	require.Contains(t, string(data), `"sets":[]`)
}

func TestAddRenameDeleteSet(t *testing.T) {
	sets := sampleRepo().Sets

	added, set := AddSet(sets)
	require.Len(t, added, 3)
	require.Len(t, sets, 2, "input must not be modified")
	require.Equal(t, "Test Set", set.Name)
	require.NotEmpty(t, set.ID)
	require.NotNil(t, set.Tests)

	renamed, err := RenameSet(added, set.ID, "  Burn-in ")
	require.NoError(t, err)
	require.Equal(t, "Burn-in", renamed[2].Name)
	require.Equal(t, "Test Set", added[2].Name)

	_, err = RenameSet(added, set.ID, "   ")
	require.Error(t, err)

	deleted, err := DeleteSet(renamed, "s1")
	require.NoError(t, err)
	require.Len(t, deleted, 2)
	require.Equal(t, "s2", deleted[0].ID)

	_, err = DeleteSet(renamed, "missing")
	require.ErrorIs(t, err, ErrSetNotFound)
}

func TestNewSetID_Unique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := NewSetID()
		require.False(t, seen[id])
		require.NotEqual(t, AllID, id)
		seen[id] = true
	}
}

func TestDecode(t *testing.T) {
	for _, body := range []string{"", "  ", "null", "{}", `""`, `{"common":[],"lib":[],"sets":[]}`} {
		repo, err := Decode([]byte(body))
		require.NoError(t, err, body)
		require.Nil(t, repo, body)
	}

	repo, err := Decode([]byte(`{"common":["a"],"lib":["b"],"sets":[{"id":"x","name":"X","tests":["a"]}],"settings":{}}`))
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, repo.Library())
	require.Equal(t, "X", repo.Sets[0].Name)

	_, err = Decode([]byte(`{"common":`))
	require.Error(t, err)
}

func TestSettings_PreservesUnknownKeys(t *testing.T) {
	in := `{"voltages":{"vdd":1800,"vled":"3300"},"reflash":{"enable":false},"i2cAddr":32,"bus":{"kind":"spi"}}`

	var s Settings
	require.NoError(t, json.Unmarshal([]byte(in), &s))

	require.True(t, s.HasVoltage("vdd"))
	require.False(t, s.HasVoltage("vpu"))
	v, ok := s.Voltage("vdd")
	require.True(t, ok)
	require.Equal(t, "1800", v)
	v, _ = s.Voltage("vled")
	require.Equal(t, "3300", v)
	require.NotNil(t, s.Reflash)
	require.False(t, s.Reflash.Enable)

	out, err := json.Marshal(s)
	require.NoError(t, err)
	require.JSONEq(t, in, string(out))
}

func TestSettings_WithoutVoltages(t *testing.T) {
	var s Settings
	require.NoError(t, json.Unmarshal([]byte(`{"other":true}`), &s))
	require.Nil(t, s.Voltages)
	require.False(t, s.HasVoltage("vdd"))

	out, err := json.Marshal(s)
	require.NoError(t, err)
	require.JSONEq(t, `{"other":true}`, string(out))
}
