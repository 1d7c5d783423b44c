package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"crucible/internal/atom"
	"crucible/internal/config"
	"crucible/internal/engine"
)

const sampleRuleset = `
templates:
  - name: p
    slots: [x]
  - name: q
    slots: [x]
  - name: pair
    slots: [x]

rules:
  - name: R
    when:
      - template: p
        slots: {x: "?v"}
      - template: q
        slots: {x: "?v"}
    then:
      - template: pair
        slots: {x: "?v"}
`

func TestInstallBuildsAWorkingRule(t *testing.T) {
	var rs Ruleset
	require.NoError(t, yaml.Unmarshal([]byte(sampleRuleset), &rs))

	env := engine.New(config.DefaultConfig())
	require.NoError(t, Install(env, &rs))

	_, err := env.Assert("p", map[string]*atom.Atom{"x": env.Atoms.InternInt(2)})
	require.NoError(t, err)
	_, err = env.Assert("q", map[string]*atom.Atom{"x": env.Atoms.InternInt(2)})
	require.NoError(t, err)

	fired, err := env.Run(-1)
	require.NoError(t, err)
	assert.Equal(t, 1, fired)

	pairTmpl, ok := env.Template("pair")
	require.True(t, ok)
	assert.Len(t, pairTmpl.Facts(), 1)
}

func TestInstallRejectsMissingTemplate(t *testing.T) {
	rs := &Ruleset{
		Rules: []RuleSpec{{
			Name: "Bad",
			When: []PatternSpec{{Template: "nope"}},
		}},
	}
	env := engine.New(config.DefaultConfig())
	err := Install(env, rs)
	assert.Error(t, err)
}
