package agent

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/kestrona/ecmacore/scenarios"
	"github.com/kestrona/ecmacore/values"
)

type goldenStep struct {
	Action      string      `yaml:"action"`
	Value       interface{} `yaml:"value"`
	ExpectValue interface{} `yaml:"expect_value"`
	ExpectDone  bool        `yaml:"expect_done"`
	ExpectError string      `yaml:"expect_error"`
}

type goldenScenario struct {
	Name     string       `yaml:"name"`
	Scenario string       `yaml:"scenario"`
	Steps    []goldenStep `yaml:"steps"`
}

func loadGoldenScenarios(t *testing.T) []goldenScenario {
	t.Helper()
	raw, err := os.ReadFile("testdata/scenarios.yaml")
	require.NoError(t, err)

	var scns []goldenScenario
	require.NoError(t, yaml.Unmarshal(raw, &scns))
	return scns
}

func goldenToValue(raw interface{}) values.Value {
	switch v := raw.(type) {
	case nil:
		return values.Undefined
	case int:
		return values.Int(int64(v))
	case float64:
		return values.Number(v)
	case string:
		return values.String(v)
	default:
		panic("golden fixture: unsupported value type")
	}
}

// TestGolden_ScenarioFixtures replays every scripted sequence of
// resume/throw calls in testdata/scenarios.yaml against the matching
// entry in the scenario library, checking each step's iterator result
// (or thrown value) against the fixture's expectation.
func TestGolden_ScenarioFixtures(t *testing.T) {
	for _, gs := range loadGoldenScenarios(t) {
		gs := gs
		t.Run(gs.Name, func(t *testing.T) {
			s, ok := scenarios.Find(gs.Scenario)
			require.True(t, ok, "unknown scenario %q", gs.Scenario)

			a := New()
			g := NewSuspendedStart(a, s.Build(), nil, NewExecutionContext(values.Undefined, gs.Scenario))

			for i, step := range gs.Steps {
				var (
					result values.Value
					err    error
				)
				input := goldenToValue(step.Value)
				switch step.Action {
				case "resume":
					result, err = g.Resume(a, input)
				case "throw":
					result, err = g.ResumeThrow(a, input)
				default:
					t.Fatalf("step %d: unknown action %q", i, step.Action)
				}

				if step.ExpectError != "" {
					require.Error(t, err, "step %d", i)
					jsErr, ok := err.(*JsError)
					require.True(t, ok, "step %d", i)
					assert.Equal(t, step.ExpectError, jsErr.Value.String(), "step %d", i)
					continue
				}

				require.NoError(t, err, "step %d", i)
				obj := a.Object(result)
				assert.Equal(t, step.ExpectDone, obj.Get("done").ToBoolean(), "step %d done", i)
				if step.ExpectValue != nil {
					assert.Equal(t, goldenToValue(step.ExpectValue).String(), obj.Get("value").String(), "step %d value", i)
				}
			}
		})
	}
}
