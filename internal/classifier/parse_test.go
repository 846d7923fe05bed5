package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-triage/internal/domain"
)

func TestInterpretStrictJSON(t *testing.T) {
	got, ok := Interpret(`{"action":"resolve","response":"Clean the filter.","severity":"low","category":"drainage","urgency":"normal"}`)
	require.True(t, ok)
	assert.Equal(t, domain.Classification{
		Action:   domain.ActionResolve,
		Guidance: "Clean the filter.",
		Severity: domain.SeverityLow,
		Category: domain.CategoryDrainage,
		Urgency:  domain.UrgencyNormal,
	}, got)
}

func TestInterpretEmbeddedFragment(t *testing.T) {
	text := "Sure! Here is my analysis:\n```json\n{\"action\": \"create_ticket\", \"response\": \"A technician {should} inspect it.\", \"severity\": \"high\", \"category\": \"electrical\", \"urgency\": \"high\"}\n```\nHope that helps {really}."

	got, ok := Interpret(text)
	require.True(t, ok)
	assert.Equal(t, domain.ActionEscalate, got.Action)
	assert.Equal(t, "A technician {should} inspect it.", got.Guidance)
	assert.Equal(t, domain.SeverityHigh, got.Severity)
	assert.Equal(t, domain.CategoryElectrical, got.Category)
	assert.Equal(t, domain.UrgencyHigh, got.Urgency)
}

func TestInterpretFallsBack(t *testing.T) {
	cases := map[string]string{
		"empty":            "",
		"prose":            "I cannot help with that.",
		"unbalanced":       `{"action": "resolve", "response": "x"`,
		"wrong types":      `{"action": 7}`,
		"unknown action":   `{"action":"shrug","response":"x","severity":"low","category":"door","urgency":"normal"}`,
		"resolve no guide": `{"action":"resolve","response":"   ","severity":"low","category":"door","urgency":"normal"}`,
		"array":            `[{"action":"resolve"}]`,
	}
	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			got, _ := Interpret(text)
			assert.Equal(t, domain.FallbackClassification(), got)
		})
	}
}

func TestInterpretDefaultsUnknownFields(t *testing.T) {
	got, ok := Interpret(`{"action":"escalate","response":"","severity":"catastrophic","category":"plumbing","urgency":"asap"}`)
	require.True(t, ok)
	assert.Equal(t, domain.ActionEscalate, got.Action)
	assert.Equal(t, domain.SeverityMedium, got.Severity)
	assert.Equal(t, domain.CategoryOther, got.Category)
	assert.Equal(t, domain.UrgencyNormal, got.Urgency)
	assert.True(t, got.Valid())
}

func TestInterpretAlwaysValid(t *testing.T) {
	inputs := []string{
		`{"action":"RESOLVE","response":"ok","severity":"LOW","category":"Door","urgency":"HIGH"}`,
		`{"action":null,"response":null}`,
		`{}`,
		`}{`,
		`{"a":{"b":{"c":"}"}}}`,
		`garbage {"action":"provide_solution","response":"Run a hot wash.","severity":"x"} trailing`,
	}
	for _, in := range inputs {
		got, _ := Interpret(in)
		assert.True(t, got.Valid(), in)
	}
}

func TestExtractObjectHandlesEscapes(t *testing.T) {
	got, ok := extractObject(`prefix {"response":"say \"}\" now"} suffix`)
	require.True(t, ok)
	assert.Equal(t, `{"response":"say \"}\" now"}`, got)

	_, ok = extractObject("no braces here")
	assert.False(t, ok)
}

func TestBuildPromptEndsWithIssue(t *testing.T) {
	prompt := BuildPrompt("water leaking everywhere")
	assert.Contains(t, prompt, `"action": "resolve" or "escalate"`)
	assert.Contains(t, prompt, "\n\nUser issue: water leaking everywhere")
}
