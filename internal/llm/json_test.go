package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONPlainObject(t *testing.T) {
	raw, err := ExtractJSON(`{"grade": 8.5}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"grade": 8.5}`, string(raw))
}

func TestExtractJSONCodeFence(t *testing.T) {
	input := "```json\n{\"student_name\": \"Alice\"}\n```"
	raw, err := ExtractJSON(input)
	require.NoError(t, err)
	assert.JSONEq(t, `{"student_name": "Alice"}`, string(raw))
}

func TestExtractJSONSurroundedByProse(t *testing.T) {
	input := `Sure! Here is the result you asked for: {"answers": [{"question_id": "q1", "grade": 7}]} Hope that helps.`
	raw, err := ExtractJSON(input)
	require.NoError(t, err)
	assert.JSONEq(t, `{"answers": [{"question_id": "q1", "grade": 7}]}`, string(raw))
}

func TestExtractJSONArray(t *testing.T) {
	raw, err := ExtractJSON("Results:\n[1, 2, 3]")
	require.NoError(t, err)
	assert.JSONEq(t, `[1, 2, 3]`, string(raw))
}

func TestExtractJSONBracesInsideStrings(t *testing.T) {
	input := `{"comment": "use f(x) = {x} here", "grade": 5}`
	raw, err := ExtractJSON(input)
	require.NoError(t, err)
	assert.JSONEq(t, input, string(raw))
}

func TestExtractJSONEscapedQuotes(t *testing.T) {
	input := `{"comment": "the word \"answer\" was missing"}`
	raw, err := ExtractJSON(input)
	require.NoError(t, err)
	assert.JSONEq(t, input, string(raw))
}

func TestExtractJSONNoJSON(t *testing.T) {
	_, err := ExtractJSON("I could not read the answer sheet, sorry.")
	assert.Error(t, err)
}

func TestExtractJSONUnbalanced(t *testing.T) {
	_, err := ExtractJSON(`{"grade": 8.5`)
	assert.Error(t, err)
}

func TestStripCodeFences(t *testing.T) {
	assert.Equal(t, `{"a": 1}`, StripCodeFences("```json\n{\"a\": 1}\n```"))
	assert.Equal(t, `{"a": 1}`, StripCodeFences("```\n{\"a\": 1}\n```"))
	assert.Equal(t, `{"a": 1}`, StripCodeFences(`{"a": 1}`))
}

func TestDecodeInto(t *testing.T) {
	var out struct {
		Summary string `json:"summary"`
	}
	err := DecodeInto("```json\n{\"summary\": \"solid class\"}\n```", &out)
	require.NoError(t, err)
	assert.Equal(t, "solid class", out.Summary)

	err = DecodeInto(`{"summary": 42}`, &out)
	assert.Error(t, err)
}
