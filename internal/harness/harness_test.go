package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestScenarioGoldenFiles runs every scenario under testdata/scenarios and
// compares its report against the matching golden file.
func TestScenarioGoldenFiles(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths, "no scenario fixtures found")

	for _, path := range paths {
		scenario, err := LoadScenario(path)
		require.NoError(t, err, path)

		t.Run(scenario.Name, func(t *testing.T) {
			require.NoError(t, RunWithGolden(t, scenario))
		})
	}
}

func TestRunProducesDeterministicReport(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "er-triage-delay.yaml"))
	require.NoError(t, err)

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRunReportShape(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "er-triage-delay.yaml"))
	require.NoError(t, err)

	report, err := Run(scenario)
	require.NoError(t, err)

	assert.Equal(t, "er-triage-delay", report.Scenario)
	assert.Equal(t, "run-er-0001", report.Run.RunToken)
	assert.Equal(t, []string{"ER", "STA"}, report.Run.Profiles)
	assert.Equal(t, 1, report.Run.ViolationsCount)
	require.Len(t, report.Violations, 1)
	assert.Equal(t, "ER-001", string(report.Violations[0].RuleID))
	require.Len(t, report.Events, 2)
	assert.Equal(t, "admit", report.Events[0].Kind)
}

func TestRunAppliesProfileOverride(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "er-triage-delay.yaml"))
	require.NoError(t, err)
	scenario.Profiles = []string{"STA"}

	report, err := Run(scenario)
	require.NoError(t, err)

	// The only rule in the package is bound to ER, so nothing applies.
	assert.Equal(t, 0, report.Run.RulesEvaluated)
	assert.Empty(t, report.Violations)
}
