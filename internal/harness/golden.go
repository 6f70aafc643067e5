package harness

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// RunWithGolden executes a scenario and compares its report against the
// golden file testdata/golden/{scenario.Name}.golden.
//
// Returns an error when the scenario itself fails to run; a report that
// runs but diverges from the golden file fails the test via goldie.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	report, err := Run(scenario)
	if err != nil {
		return err
	}
	return AssertGolden(t, scenario.Name, report)
}

// AssertGolden compares an already-computed report against a golden file.
func AssertGolden(t *testing.T, name string, report *Report) error {
	t.Helper()

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
