package ws

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightboard/brightboard-backend/internal/model"
)

func TestEnvelopeFlattensPayload(t *testing.T) {
	env := NewEnvelope(EventParticipantJoined, map[string]any{
		"display_name":      "Alice",
		"participant_count": 3,
	})

	raw, err := json.Marshal(env)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))

	assert.Equal(t, "participant_joined", out["type"])
	assert.Equal(t, "Alice", out["display_name"])
	assert.Equal(t, float64(3), out["participant_count"])
	assert.NotEmpty(t, out["timestamp"])
	// The payload must not nest under its own key.
	assert.NotContains(t, out, "payload")
}

func TestEnvelopeEmptyPayload(t *testing.T) {
	raw, err := json.Marshal(NewEnvelope(EventPing, nil))
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "ping", out["type"])
	assert.Len(t, out, 2)
}

func TestQuestionForBroadcastStripsAnswerKey(t *testing.T) {
	q := model.Question{
		ID:            uuid.New(),
		QuestionType:  model.QuestionTypeMultipleChoice,
		Text:          "What is 2 + 2?",
		Points:        10,
		OrderIndex:    1,
		Options:       json.RawMessage(`{"choices": [{"id": "a", "text": "3"}, {"id": "b", "text": "4"}]}`),
		CorrectAnswer: json.RawMessage(`{"answer": "b"}`),
	}

	payload := QuestionForBroadcast(q)
	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	assert.NotContains(t, string(raw), "correct_answer")

	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, q.Text, out["text"])
	assert.Equal(t, float64(10), out["points"])
}

func TestErrorPayloadShape(t *testing.T) {
	env := NewEnvelope(EventError, ErrorPayload("SUBMIT_REJECTED", "question already answered"))
	raw, err := json.Marshal(env)
	require.NoError(t, err)

	var out struct {
		Type  string `json:"type"`
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "error", out.Type)
	assert.Equal(t, "SUBMIT_REJECTED", out.Error.Code)
	assert.Equal(t, "question already answered", out.Error.Message)
}
