package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateOptionsMultipleChoice(t *testing.T) {
	q := &Question{
		QuestionType: QuestionTypeMultipleChoice,
		Options:      json.RawMessage(`{"choices": [{"id": "a", "text": "Yes"}, {"id": "b", "text": "No"}]}`),
	}
	assert.NoError(t, q.ValidateOptions())

	q.Options = json.RawMessage(`{"choices": [{"id": "a", "text": "Only one"}]}`)
	assert.Error(t, q.ValidateOptions(), "fewer than 2 choices must be rejected")

	q.Options = json.RawMessage(`not json`)
	assert.Error(t, q.ValidateOptions())
}

func TestValidateOptionsTrueFalse(t *testing.T) {
	q := &Question{
		QuestionType: QuestionTypeTrueFalse,
		Options:      json.RawMessage(`{}`),
	}
	assert.NoError(t, q.ValidateOptions())
}

func TestValidateOptionsPoll(t *testing.T) {
	q := &Question{
		QuestionType: QuestionTypePoll,
		Options:      json.RawMessage(`{"choices": [{"id": "x", "text": "Cats"}, {"id": "y", "text": "Dogs"}]}`),
	}
	assert.NoError(t, q.ValidateOptions())

	q.Options = json.RawMessage(`{"choices": []}`)
	assert.Error(t, q.ValidateOptions())
}

func TestValidateOptionsUnknownType(t *testing.T) {
	q := &Question{QuestionType: "essay", Options: json.RawMessage(`{}`)}
	assert.Error(t, q.ValidateOptions())
}
