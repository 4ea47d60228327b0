package flowdoc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Plugtour/plugconversa-pro-sub000/internal/apperr"
	"github.com/Plugtour/plugconversa-pro-sub000/internal/models"
)

func requireInvalid(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrValidation))
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, CodeInvalid, e.Code)
}

func TestParse_YAML(t *testing.T) {
	doc, err := Parse([]byte(`
version: 1
name: Welcome
steps:
  - key: ask
    type: condition
    message: Are you a customer?
    on_true: thanks
    on_false: pitch
  - key: pitch
    message: Let me tell you about us
    next: thanks
  - key: thanks
    message: Thanks!
`))
	require.NoError(t, err)
	assert.Equal(t, "Welcome", doc.Name)
	require.Len(t, doc.Steps, 3)
	assert.Equal(t, models.StepMessage, doc.Steps[1].Type, "type defaults to message")

	nodes := doc.Graph()
	require.Len(t, nodes, 3)
	assert.Equal(t, "thanks", nodes[0].True)
	assert.Equal(t, 2, nodes[2].Position)
}

func TestParse_JSON(t *testing.T) {
	doc, err := Parse([]byte(`{"name":"J","steps":[{"key":"a","next":"a"}]}`))
	require.NoError(t, err)
	assert.Equal(t, "a", doc.Steps[0].Next)
}

func TestParse_Invalid(t *testing.T) {
	cases := map[string]string{
		"empty":         "  ",
		"malformed":     "name: [unclosed",
		"missing name":  "steps: []",
		"missing key":   "name: x\nsteps:\n  - message: hi\n",
		"bad type":      "name: x\nsteps:\n  - key: a\n    type: jump\n",
		"duplicate key": "name: x\nsteps:\n  - key: a\n  - key: a\n",
		"dangling ref":  "name: x\nsteps:\n  - key: a\n    next: b\n",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(in))
			requireInvalid(t, err)
		})
	}
}

func TestFromFlow_RoundTrip(t *testing.T) {
	id := func(v int64) *int64 { return &v }
	flow := &models.Flow{
		Name: "Sales",
		Steps: []models.FlowStep{
			{ID: 10, Title: "start", Type: models.StepCondition, ConditionTrueID: id(11), ConditionFalseID: id(99)},
			{ID: 11, Title: "end", Type: models.StepMessage, NextStepID: id(10)},
		},
	}
	doc := FromFlow(flow)
	assert.Equal(t, "step-1", doc.Steps[0].Key)
	assert.Equal(t, "step-2", doc.Steps[0].True)
	assert.Empty(t, doc.Steps[0].False, "refs outside the flow are dropped")
	assert.Equal(t, "step-1", doc.Steps[1].Next)

	for _, format := range []string{FormatYAML, FormatJSON} {
		data, err := doc.Marshal(format)
		require.NoError(t, err)
		back, err := Parse(data)
		require.NoError(t, err, format)
		assert.Equal(t, doc, back, format)
	}

	_, err := doc.Marshal("xml")
	require.Error(t, err)
}

func TestChecksum(t *testing.T) {
	assert.Equal(t,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		Checksum(nil))
	assert.NotEqual(t, Checksum([]byte("a")), Checksum([]byte("b")))
}
