package model

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// QuestionType discriminates the tagged JSON unions below.
type QuestionType string

const (
	QuestionTypeMultipleChoice QuestionType = "multiple_choice"
	QuestionTypeTrueFalse      QuestionType = "true_false"
	QuestionTypeShortAnswer    QuestionType = "short_answer"
	QuestionTypePoll           QuestionType = "poll"
)

// Valid reports whether t is a known question type.
func (t QuestionType) Valid() bool {
	switch t {
	case QuestionTypeMultipleChoice, QuestionTypeTrueFalse, QuestionTypeShortAnswer, QuestionTypePoll:
		return true
	}
	return false
}

// Question represents a single quiz question. Options and CorrectAnswer are
// unions keyed by QuestionType; decode them with the typed structs below.
// OrderIndex values form the contiguous set 0..n-1 within a quiz at all
// observable times.
type Question struct {
	ID               uuid.UUID       `json:"id"`
	QuizID           uuid.UUID       `json:"quiz_id"`
	QuestionType     QuestionType    `json:"question_type"`
	Text             string          `json:"text"`
	OrderIndex       int             `json:"order_index"`
	Points           int             `json:"points"`
	TimeLimitSeconds *int            `json:"time_limit_seconds,omitempty"`
	Options          json.RawMessage `json:"options"`
	CorrectAnswer    json.RawMessage `json:"correct_answer,omitempty"`
	Explanation      *string         `json:"explanation,omitempty"`
	MediaURL         *string         `json:"media_url,omitempty"`
}

// ─── Options unions (question.options) ──────────────────────────────

// Choice is a selectable option for multiple-choice and poll questions.
type Choice struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// MultipleChoiceOptions is the options shape for multiple_choice.
type MultipleChoiceOptions struct {
	Choices        []Choice `json:"choices"`
	ShuffleOptions bool     `json:"shuffle_options,omitempty"`
}

// ShortAnswerOptions is the options shape for short_answer.
type ShortAnswerOptions struct {
	MaxLength   *int   `json:"max_length,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
}

// PollOptions is the options shape for poll.
type PollOptions struct {
	Choices []Choice `json:"choices"`
}

// ─── Answer-key unions (question.correct_answer) ────────────────────

// MultipleChoiceKey holds the correct choice id.
type MultipleChoiceKey struct {
	Answer string `json:"answer"`
}

// TrueFalseKey holds the correct boolean.
type TrueFalseKey struct {
	Answer bool `json:"answer"`
}

// ShortAnswerKey configures short-answer grading: either whole-string
// equality against Answer, or keyword matching when Keywords is set.
type ShortAnswerKey struct {
	Answer        *string  `json:"answer,omitempty"`
	Keywords      []string `json:"keywords,omitempty"`
	MinKeywords   int      `json:"min_keywords,omitempty"`
	CaseSensitive *bool    `json:"case_sensitive,omitempty"`
}

// PollKey carries the participation points awarded for answering a poll.
type PollKey struct {
	ParticipationPoints int `json:"participation_points"`
}

// ─── Submission unions (response.answer) ────────────────────────────

// ChoiceSubmission is the submitted answer for multiple_choice and poll.
type ChoiceSubmission struct {
	Selected string `json:"selected"`
}

// BoolSubmission is the submitted answer for true_false.
type BoolSubmission struct {
	Selected bool `json:"selected"`
}

// TextSubmission is the submitted answer for short_answer.
type TextSubmission struct {
	Text string `json:"text"`
}

// ValidateOptions decodes Options against the question type and rejects
// malformed unions before they reach storage.
func (q *Question) ValidateOptions() error {
	switch q.QuestionType {
	case QuestionTypeMultipleChoice:
		var opts MultipleChoiceOptions
		if err := json.Unmarshal(q.Options, &opts); err != nil {
			return fmt.Errorf("decode multiple_choice options: %w", err)
		}
		if len(opts.Choices) < 2 {
			return fmt.Errorf("multiple_choice requires at least 2 choices")
		}
	case QuestionTypeTrueFalse:
		// Options are {} for true/false.
	case QuestionTypeShortAnswer:
		var opts ShortAnswerOptions
		if err := json.Unmarshal(q.Options, &opts); err != nil {
			return fmt.Errorf("decode short_answer options: %w", err)
		}
	case QuestionTypePoll:
		var opts PollOptions
		if err := json.Unmarshal(q.Options, &opts); err != nil {
			return fmt.Errorf("decode poll options: %w", err)
		}
		if len(opts.Choices) < 2 {
			return fmt.Errorf("poll requires at least 2 choices")
		}
	default:
		return fmt.Errorf("unknown question type %q", q.QuestionType)
	}
	return nil
}

// AddQuestionRequest is the payload for adding a question to a quiz.
type AddQuestionRequest struct {
	QuestionType     string          `json:"question_type" binding:"required,oneof=multiple_choice true_false short_answer poll"`
	Text             string          `json:"text" binding:"required,min=1,max=2000"`
	Points           int             `json:"points" binding:"min=0"`
	TimeLimitSeconds *int            `json:"time_limit_seconds" binding:"omitempty,min=5,max=600"`
	Options          json.RawMessage `json:"options" binding:"required"`
	CorrectAnswer    json.RawMessage `json:"correct_answer" binding:"omitempty"`
	Explanation      *string         `json:"explanation" binding:"omitempty,max=2000"`
	MediaURL         *string         `json:"media_url" binding:"omitempty,max=1024"`
}

// ReorderQuestionsRequest replaces a quiz's question ordering. IDs must be a
// permutation of the quiz's current question ids.
type ReorderQuestionsRequest struct {
	QuestionIDs []uuid.UUID `json:"question_ids" binding:"required,min=1"`
}
