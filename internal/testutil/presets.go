package testutil

import (
	"encoding/json"

	"github.com/zjrosen/prodtests/internal/history"
	"github.com/zjrosen/prodtests/internal/prodtest"
)

// StandardPartNumber is the full part number used by the presets.
const StandardPartNumber = "S3908-15.0.0"

// StandardSettings carries voltages, reflash and one unrelated key.
const StandardSettings = `{"voltages":{"vdd":1800,"vled":3300,"vddtx":1200,"vpu":1800},"reflash":{"enable":false},"retries":3}`

// StandardRepo is a small catalog: five library tests and two sets.
func StandardRepo() *prodtest.Repository {
	var settings prodtest.Settings
	if err := json.Unmarshal([]byte(StandardSettings), &settings); err != nil {
		panic(err)
	}
	return &prodtest.Repository{
		Common: []string{"Common_Open", "Common_Short"},
		Lib:    []string{"Lib_Noise", "Lib_Raw", "Lib_Delta"},
		Sets: []prodtest.TestSet{
			{ID: "s1", Name: "Quick", Tests: []string{"Common_Open", "Lib_Noise"}},
			{ID: "s2", Name: "Full", Tests: []string{"Common_Open", "Common_Short", "Lib_Noise", "Lib_Raw", "Lib_Delta"}},
		},
		Settings: settings,
	}
}

// WithStandardRuns adds a pass, a failure and an abort.
func (b *Builder) WithStandardRuns() *Builder {
	return b.
		WithRun("all", SetName("All")).
		WithRun("s1", SetName("Quick"), Progress(1, 2), FailedAt("Noise")).
		WithRun("s2", SetName("Full"), Progress(3, 5), Outcome(history.Aborted))
}
