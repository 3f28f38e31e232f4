package service

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightboard/brightboard-backend/internal/domain"
	"github.com/brightboard/brightboard-backend/internal/model"
)

func evalDefaults() EvalDefaults {
	return EvalDefaults{CaseSensitive: false, MinKeywordMatch: 0.5}
}

func mcQuestion(points int) *model.Question {
	return &model.Question{
		QuestionType:  model.QuestionTypeMultipleChoice,
		Points:        points,
		Options:       json.RawMessage(`{"choices": [{"id": "a", "text": "3"}, {"id": "b", "text": "4"}]}`),
		CorrectAnswer: json.RawMessage(`{"answer": "b"}`),
	}
}

func TestEvaluateMultipleChoice(t *testing.T) {
	q := mcQuestion(10)

	ev, err := EvaluateAnswer(q, json.RawMessage(`{"selected": "b"}`), evalDefaults())
	require.NoError(t, err)
	require.NotNil(t, ev.IsCorrect)
	assert.True(t, *ev.IsCorrect)
	assert.Equal(t, 10, ev.PointsEarned)

	ev, err = EvaluateAnswer(q, json.RawMessage(`{"selected": "a"}`), evalDefaults())
	require.NoError(t, err)
	require.NotNil(t, ev.IsCorrect)
	assert.False(t, *ev.IsCorrect)
	assert.Equal(t, 0, ev.PointsEarned)
}

func TestEvaluateMultipleChoiceUnknownChoice(t *testing.T) {
	q := mcQuestion(10)

	_, err := EvaluateAnswer(q, json.RawMessage(`{"selected": "z"}`), evalDefaults())
	assert.True(t, domain.IsValidation(err))
}

func TestEvaluateMultipleChoiceMalformedSubmission(t *testing.T) {
	q := mcQuestion(10)

	_, err := EvaluateAnswer(q, json.RawMessage(`{"selected": ""}`), evalDefaults())
	assert.True(t, domain.IsValidation(err))

	_, err = EvaluateAnswer(q, json.RawMessage(`not json`), evalDefaults())
	assert.True(t, domain.IsValidation(err))
}

func TestEvaluateTrueFalse(t *testing.T) {
	q := &model.Question{
		QuestionType:  model.QuestionTypeTrueFalse,
		Points:        5,
		Options:       json.RawMessage(`{}`),
		CorrectAnswer: json.RawMessage(`{"answer": true}`),
	}

	ev, err := EvaluateAnswer(q, json.RawMessage(`{"selected": true}`), evalDefaults())
	require.NoError(t, err)
	assert.True(t, *ev.IsCorrect)
	assert.Equal(t, 5, ev.PointsEarned)

	ev, err = EvaluateAnswer(q, json.RawMessage(`{"selected": false}`), evalDefaults())
	require.NoError(t, err)
	assert.False(t, *ev.IsCorrect)
}

func TestEvaluateShortAnswerEquality(t *testing.T) {
	q := &model.Question{
		QuestionType:  model.QuestionTypeShortAnswer,
		Points:        8,
		Options:       json.RawMessage(`{}`),
		CorrectAnswer: json.RawMessage(`{"answer": "Jakarta"}`),
	}

	// Trimmed and case-insensitive by default.
	ev, err := EvaluateAnswer(q, json.RawMessage(`{"text": "  jakarta "}`), evalDefaults())
	require.NoError(t, err)
	assert.True(t, *ev.IsCorrect)
	assert.Equal(t, 8, ev.PointsEarned)

	ev, err = EvaluateAnswer(q, json.RawMessage(`{"text": "Bandung"}`), evalDefaults())
	require.NoError(t, err)
	assert.False(t, *ev.IsCorrect)
}

func TestEvaluateShortAnswerCaseSensitivity(t *testing.T) {
	q := &model.Question{
		QuestionType:  model.QuestionTypeShortAnswer,
		Points:        8,
		Options:       json.RawMessage(`{}`),
		CorrectAnswer: json.RawMessage(`{"answer": "Jakarta", "case_sensitive": true}`),
	}

	// The key overrides the instance default.
	ev, err := EvaluateAnswer(q, json.RawMessage(`{"text": "jakarta"}`), evalDefaults())
	require.NoError(t, err)
	assert.False(t, *ev.IsCorrect)

	ev, err = EvaluateAnswer(q, json.RawMessage(`{"text": "Jakarta"}`), evalDefaults())
	require.NoError(t, err)
	assert.True(t, *ev.IsCorrect)
}

func TestEvaluateShortAnswerKeywords(t *testing.T) {
	q := &model.Question{
		QuestionType:  model.QuestionTypeShortAnswer,
		Points:        10,
		Options:       json.RawMessage(`{}`),
		CorrectAnswer: json.RawMessage(`{"keywords": ["mitochondria", "energy", "cell"], "min_keywords": 2}`),
	}

	ev, err := EvaluateAnswer(q, json.RawMessage(`{"text": "The mitochondria produces energy"}`), evalDefaults())
	require.NoError(t, err)
	assert.True(t, *ev.IsCorrect)

	ev, err = EvaluateAnswer(q, json.RawMessage(`{"text": "Something about energy only"}`), evalDefaults())
	require.NoError(t, err)
	assert.False(t, *ev.IsCorrect)
}

func TestEvaluateShortAnswerKeywordsRatioDefault(t *testing.T) {
	// Without min_keywords the configured match ratio decides: at 0.5,
	// two of three keywords pass and one of three does not.
	q := &model.Question{
		QuestionType:  model.QuestionTypeShortAnswer,
		Points:        10,
		Options:       json.RawMessage(`{}`),
		CorrectAnswer: json.RawMessage(`{"keywords": ["chlorophyll", "sunlight", "glucose"]}`),
	}

	ev, err := EvaluateAnswer(q, json.RawMessage(`{"text": "Chlorophyll absorbs sunlight"}`), evalDefaults())
	require.NoError(t, err)
	assert.True(t, *ev.IsCorrect)
	assert.Equal(t, 10, ev.PointsEarned)

	ev, err = EvaluateAnswer(q, json.RawMessage(`{"text": "Something about glucose"}`), evalDefaults())
	require.NoError(t, err)
	assert.False(t, *ev.IsCorrect)

	// A stricter ratio wants all three.
	strict := EvalDefaults{MinKeywordMatch: 1.0}
	ev, err = EvaluateAnswer(q, json.RawMessage(`{"text": "Chlorophyll absorbs sunlight"}`), strict)
	require.NoError(t, err)
	assert.False(t, *ev.IsCorrect)
}

func TestRequiredKeywords(t *testing.T) {
	cases := []struct {
		name        string
		minKeywords int
		total       int
		ratio       float64
		want        int
	}{
		{"explicit min wins", 2, 3, 0.5, 2},
		{"explicit min capped at total", 5, 3, 0.5, 3},
		{"ratio rounds up", 0, 3, 0.5, 2},
		{"ratio full", 0, 4, 1.0, 4},
		{"ratio floor of one", 0, 1, 0.1, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, requiredKeywords(tc.minKeywords, tc.total, tc.ratio))
		})
	}
}

func TestEvaluateShortAnswerNoKey(t *testing.T) {
	q := &model.Question{
		QuestionType:  model.QuestionTypeShortAnswer,
		Points:        10,
		Options:       json.RawMessage(`{}`),
		CorrectAnswer: json.RawMessage(`{}`),
	}

	_, err := EvaluateAnswer(q, json.RawMessage(`{"text": "anything"}`), evalDefaults())
	assert.True(t, domain.IsValidation(err))
}

func TestEvaluatePoll(t *testing.T) {
	q := &model.Question{
		QuestionType:  model.QuestionTypePoll,
		Points:        10,
		Options:       json.RawMessage(`{"choices": [{"id": "x", "text": "Cats"}, {"id": "y", "text": "Dogs"}]}`),
		CorrectAnswer: json.RawMessage(`{"participation_points": 2}`),
	}

	ev, err := EvaluateAnswer(q, json.RawMessage(`{"selected": "x"}`), evalDefaults())
	require.NoError(t, err)
	assert.Nil(t, ev.IsCorrect, "polls have no notion of correctness")
	assert.Equal(t, 2, ev.PointsEarned)

	_, err = EvaluateAnswer(q, json.RawMessage(`{"selected": "nope"}`), evalDefaults())
	assert.True(t, domain.IsValidation(err))
}

func TestEvaluatePollWithoutKey(t *testing.T) {
	q := &model.Question{
		QuestionType: model.QuestionTypePoll,
		Options:      json.RawMessage(`{"choices": [{"id": "x", "text": "Cats"}, {"id": "y", "text": "Dogs"}]}`),
	}

	ev, err := EvaluateAnswer(q, json.RawMessage(`{"selected": "y"}`), evalDefaults())
	require.NoError(t, err)
	assert.Nil(t, ev.IsCorrect)
	assert.Equal(t, 0, ev.PointsEarned)
}

func TestEvaluateUnknownType(t *testing.T) {
	q := &model.Question{QuestionType: "essay"}

	_, err := EvaluateAnswer(q, json.RawMessage(`{}`), evalDefaults())
	assert.True(t, domain.IsValidation(err))
}

func TestRevealCorrectAnswer(t *testing.T) {
	correct := true
	incorrect := false

	mc := mcQuestion(10)
	assert.False(t, revealCorrectAnswer(mc, Evaluation{IsCorrect: &correct}),
		"a correct answer gets no reveal")
	assert.True(t, revealCorrectAnswer(mc, Evaluation{IsCorrect: &incorrect}))

	poll := &model.Question{QuestionType: model.QuestionTypePoll}
	assert.False(t, revealCorrectAnswer(poll, Evaluation{}),
		"polls never reveal anything")
}
