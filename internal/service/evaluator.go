package service

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/brightboard/brightboard-backend/internal/domain"
	"github.com/brightboard/brightboard-backend/internal/model"
)

// Evaluation is the graded outcome of one submitted answer. IsCorrect is nil
// for polls, which have no notion of correctness.
type Evaluation struct {
	IsCorrect    *bool
	PointsEarned int
}

// EvalDefaults carries the instance-wide short-answer settings a key can
// override per question.
type EvalDefaults struct {
	CaseSensitive bool
	// MinKeywordMatch is the fraction of keywords required when the key
	// gives keywords without min_keywords.
	MinKeywordMatch float64
}

// EvaluateAnswer grades a submission against the question's answer key.
// Malformed submissions surface as Validation errors; they never panic or
// silently score zero.
func EvaluateAnswer(q *model.Question, answer json.RawMessage, defaults EvalDefaults) (Evaluation, error) {
	switch q.QuestionType {
	case model.QuestionTypeMultipleChoice:
		return evaluateMultipleChoice(q, answer)
	case model.QuestionTypeTrueFalse:
		return evaluateTrueFalse(q, answer)
	case model.QuestionTypeShortAnswer:
		return evaluateShortAnswer(q, answer, defaults)
	case model.QuestionTypePoll:
		return evaluatePoll(q, answer)
	}
	return Evaluation{}, domain.Validation("unknown question type")
}

func evaluateMultipleChoice(q *model.Question, answer json.RawMessage) (Evaluation, error) {
	var key model.MultipleChoiceKey
	if err := json.Unmarshal(q.CorrectAnswer, &key); err != nil {
		return Evaluation{}, domain.Validation("question has no usable answer key")
	}
	var sub model.ChoiceSubmission
	if err := json.Unmarshal(answer, &sub); err != nil || sub.Selected == "" {
		return Evaluation{}, domain.Validation("answer must select a choice")
	}
	var opts model.MultipleChoiceOptions
	if err := json.Unmarshal(q.Options, &opts); err != nil {
		return Evaluation{}, domain.Validation("question options are malformed")
	}
	if !choiceExists(opts.Choices, sub.Selected) {
		return Evaluation{}, domain.Validation("selected choice does not exist")
	}

	correct := sub.Selected == key.Answer
	return scored(correct, q.Points), nil
}

func evaluateTrueFalse(q *model.Question, answer json.RawMessage) (Evaluation, error) {
	var key model.TrueFalseKey
	if err := json.Unmarshal(q.CorrectAnswer, &key); err != nil {
		return Evaluation{}, domain.Validation("question has no usable answer key")
	}
	var sub model.BoolSubmission
	if err := json.Unmarshal(answer, &sub); err != nil {
		return Evaluation{}, domain.Validation("answer must select true or false")
	}

	correct := sub.Selected == key.Answer
	return scored(correct, q.Points), nil
}

// evaluateShortAnswer grades either by whole-string equality or by keyword
// matching when the key carries keywords. Comparison is trimmed, and
// case-insensitive unless the key (or the instance default) says otherwise.
// Without an explicit min_keywords count the configured keyword-match ratio
// decides how many keywords must appear.
func evaluateShortAnswer(q *model.Question, answer json.RawMessage, defaults EvalDefaults) (Evaluation, error) {
	var key model.ShortAnswerKey
	if err := json.Unmarshal(q.CorrectAnswer, &key); err != nil {
		return Evaluation{}, domain.Validation("question has no usable answer key")
	}
	var sub model.TextSubmission
	if err := json.Unmarshal(answer, &sub); err != nil {
		return Evaluation{}, domain.Validation("answer must contain text")
	}

	caseSensitive := defaults.CaseSensitive
	if key.CaseSensitive != nil {
		caseSensitive = *key.CaseSensitive
	}
	normalise := func(s string) string {
		s = strings.TrimSpace(s)
		if !caseSensitive {
			s = strings.ToLower(s)
		}
		return s
	}
	given := normalise(sub.Text)

	if len(key.Keywords) > 0 {
		required := requiredKeywords(key.MinKeywords, len(key.Keywords), defaults.MinKeywordMatch)
		hits := 0
		for _, kw := range key.Keywords {
			if strings.Contains(given, normalise(kw)) {
				hits++
			}
		}
		return scored(hits >= required, q.Points), nil
	}

	if key.Answer == nil {
		return Evaluation{}, domain.Validation("question has no usable answer key")
	}
	return scored(given == normalise(*key.Answer), q.Points), nil
}

// evaluatePoll awards participation points for any valid choice. There is no
// right answer, so IsCorrect stays nil.
func evaluatePoll(q *model.Question, answer json.RawMessage) (Evaluation, error) {
	var sub model.ChoiceSubmission
	if err := json.Unmarshal(answer, &sub); err != nil || sub.Selected == "" {
		return Evaluation{}, domain.Validation("answer must select a choice")
	}
	var opts model.PollOptions
	if err := json.Unmarshal(q.Options, &opts); err != nil {
		return Evaluation{}, domain.Validation("question options are malformed")
	}
	if !choiceExists(opts.Choices, sub.Selected) {
		return Evaluation{}, domain.Validation("selected choice does not exist")
	}

	points := 0
	if len(q.CorrectAnswer) > 0 {
		var key model.PollKey
		if err := json.Unmarshal(q.CorrectAnswer, &key); err == nil {
			points = key.ParticipationPoints
		}
	}
	return Evaluation{PointsEarned: points}, nil
}

// requiredKeywords resolves how many keywords must match: the key's explicit
// min_keywords when given, otherwise the configured ratio of the keyword
// count, never below 1 and never above the count.
func requiredKeywords(minKeywords, total int, ratio float64) int {
	if minKeywords > 0 {
		if minKeywords > total {
			return total
		}
		return minKeywords
	}
	required := int(math.Ceil(ratio * float64(total)))
	if required < 1 {
		required = 1
	}
	if required > total {
		required = total
	}
	return required
}

func choiceExists(choices []model.Choice, id string) bool {
	for _, c := range choices {
		if c.ID == id {
			return true
		}
	}
	return false
}

func scored(correct bool, points int) Evaluation {
	ev := Evaluation{IsCorrect: &correct}
	if correct {
		ev.PointsEarned = points
	}
	return ev
}
