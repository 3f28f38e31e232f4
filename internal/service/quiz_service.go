package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/brightboard/brightboard-backend/internal/config"
	"github.com/brightboard/brightboard-backend/internal/domain"
	"github.com/brightboard/brightboard-backend/internal/model"
	"github.com/brightboard/brightboard-backend/internal/repository"
)

// QuizService handles quiz and question business logic.
type QuizService struct {
	cfg          *config.Config
	quizRepo     *repository.QuizRepository
	questionRepo *repository.QuestionRepository
}

// NewQuizService creates a new QuizService.
func NewQuizService(cfg *config.Config, quizRepo *repository.QuizRepository, questionRepo *repository.QuestionRepository) *QuizService {
	return &QuizService{cfg: cfg, quizRepo: quizRepo, questionRepo: questionRepo}
}

// Create creates a new draft quiz.
func (s *QuizService) Create(ctx context.Context, tenantID uuid.UUID, req *model.CreateQuizRequest) (*model.Quiz, error) {
	quiz := &model.Quiz{
		ClassID:     req.ClassID,
		Title:       req.Title,
		Description: req.Description,
		Settings:    req.Settings,
	}
	if err := s.quizRepo.Create(ctx, tenantID, quiz); err != nil {
		return nil, err
	}
	return quiz, nil
}

// GetByID retrieves a quiz with its questions.
func (s *QuizService) GetByID(ctx context.Context, tenantID, quizID uuid.UUID) (*model.Quiz, []model.Question, error) {
	quiz, err := s.quizRepo.GetByID(ctx, tenantID, quizID)
	if err != nil {
		return nil, nil, err
	}
	questions, err := s.questionRepo.ListByQuiz(ctx, tenantID, quizID)
	if err != nil {
		return nil, nil, err
	}
	return quiz, questions, nil
}

// List retrieves the tenant's quizzes.
func (s *QuizService) List(ctx context.Context, tenantID uuid.UUID) ([]model.Quiz, error) {
	return s.quizRepo.List(ctx, tenantID)
}

// Update applies partial edits. Publishing requires at least one question;
// status transitions other than draft→published→archived are rejected.
func (s *QuizService) Update(ctx context.Context, tenantID, quizID uuid.UUID, req *model.UpdateQuizRequest) (*model.Quiz, error) {
	quiz, err := s.quizRepo.GetByID(ctx, tenantID, quizID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		quiz.Title = *req.Title
	}
	if req.Description != nil {
		quiz.Description = req.Description
	}
	if len(req.Settings) > 0 {
		quiz.Settings = req.Settings
	}
	if req.Status != nil {
		next := model.QuizStatus(*req.Status)
		if err := s.checkTransition(ctx, tenantID, quiz, next); err != nil {
			return nil, err
		}
		quiz.Status = next
	}

	if err := s.quizRepo.Update(ctx, tenantID, quiz); err != nil {
		return nil, err
	}
	return quiz, nil
}

func (s *QuizService) checkTransition(ctx context.Context, tenantID uuid.UUID, quiz *model.Quiz, next model.QuizStatus) error {
	if next == quiz.Status {
		return nil
	}
	switch {
	case quiz.Status == model.QuizStatusDraft && next == model.QuizStatusPublished:
		n, err := s.quizRepo.CountQuestions(ctx, tenantID, quiz.ID)
		if err != nil {
			return err
		}
		if n == 0 {
			return domain.Precondition("cannot publish a quiz with no questions")
		}
		return nil
	case quiz.Status == model.QuizStatusPublished && next == model.QuizStatusArchived:
		return nil
	}
	return domain.Precondition(fmt.Sprintf("cannot transition quiz from %s to %s", quiz.Status, next))
}

// Delete soft-deletes a quiz. Historical session data survives.
func (s *QuizService) Delete(ctx context.Context, tenantID, quizID uuid.UUID) error {
	return s.quizRepo.SoftDelete(ctx, tenantID, quizID)
}

// AddQuestion validates the typed options/answer-key unions and appends the
// question, enforcing the per-quiz cap.
func (s *QuizService) AddQuestion(ctx context.Context, tenantID, quizID uuid.UUID, req *model.AddQuestionRequest) (*model.Question, error) {
	n, err := s.quizRepo.CountQuestions(ctx, tenantID, quizID)
	if err != nil {
		return nil, err
	}
	if n >= s.cfg.MaxQuestionsPerQuiz {
		return nil, domain.Precondition(fmt.Sprintf("quiz already has the maximum of %d questions", s.cfg.MaxQuestionsPerQuiz))
	}

	q := &model.Question{
		QuizID:           quizID,
		QuestionType:     model.QuestionType(req.QuestionType),
		Text:             req.Text,
		Points:           req.Points,
		TimeLimitSeconds: req.TimeLimitSeconds,
		Options:          req.Options,
		CorrectAnswer:    req.CorrectAnswer,
		Explanation:      req.Explanation,
		MediaURL:         req.MediaURL,
	}
	if err := s.validateQuestion(q); err != nil {
		return nil, err
	}
	if err := s.questionRepo.Add(ctx, tenantID, q); err != nil {
		return nil, err
	}
	return q, nil
}

// UpdateQuestion re-validates and persists edits to a question's content.
func (s *QuizService) UpdateQuestion(ctx context.Context, tenantID, questionID uuid.UUID, req *model.AddQuestionRequest) (*model.Question, error) {
	q, err := s.questionRepo.GetByID(ctx, tenantID, questionID)
	if err != nil {
		return nil, err
	}

	q.QuestionType = model.QuestionType(req.QuestionType)
	q.Text = req.Text
	q.Points = req.Points
	q.TimeLimitSeconds = req.TimeLimitSeconds
	q.Options = req.Options
	q.CorrectAnswer = req.CorrectAnswer
	q.Explanation = req.Explanation
	q.MediaURL = req.MediaURL

	if err := s.validateQuestion(q); err != nil {
		return nil, err
	}
	if err := s.questionRepo.Update(ctx, tenantID, q); err != nil {
		return nil, err
	}
	return q, nil
}

// DeleteQuestion removes a question; remaining order indices close ranks.
func (s *QuizService) DeleteQuestion(ctx context.Context, tenantID, questionID uuid.UUID) error {
	return s.questionRepo.Delete(ctx, tenantID, questionID)
}

// ReorderQuestions replaces the ordering with the given permutation.
func (s *QuizService) ReorderQuestions(ctx context.Context, tenantID, quizID uuid.UUID, req *model.ReorderQuestionsRequest) error {
	seen := make(map[uuid.UUID]struct{}, len(req.QuestionIDs))
	for _, id := range req.QuestionIDs {
		if _, dup := seen[id]; dup {
			return domain.Validation("question_ids contains duplicates")
		}
		seen[id] = struct{}{}
	}
	return s.questionRepo.Reorder(ctx, tenantID, quizID, req.QuestionIDs)
}

// validateQuestion checks the tagged unions and the answer-key requirement.
// Polls may omit the key; every gradable type must carry one.
func (s *QuizService) validateQuestion(q *model.Question) error {
	if !q.QuestionType.Valid() {
		return domain.Validation("unknown question type")
	}
	if err := q.ValidateOptions(); err != nil {
		return domain.Validation(err.Error())
	}
	if q.QuestionType == model.QuestionTypePoll {
		return nil
	}
	if len(q.CorrectAnswer) == 0 {
		return domain.Validation("correct_answer is required for gradable questions")
	}
	// Decode the key against its type now so grading never meets a
	// malformed one.
	var probe json.RawMessage = q.CorrectAnswer
	switch q.QuestionType {
	case model.QuestionTypeMultipleChoice:
		var key model.MultipleChoiceKey
		if err := json.Unmarshal(probe, &key); err != nil || key.Answer == "" {
			return domain.Validation("multiple_choice correct_answer must name a choice id")
		}
		var opts model.MultipleChoiceOptions
		if err := json.Unmarshal(q.Options, &opts); err == nil && !choiceExists(opts.Choices, key.Answer) {
			return domain.Validation("correct_answer references a choice that does not exist")
		}
	case model.QuestionTypeTrueFalse:
		var key model.TrueFalseKey
		if err := json.Unmarshal(probe, &key); err != nil {
			return domain.Validation("true_false correct_answer must be a boolean")
		}
	case model.QuestionTypeShortAnswer:
		var key model.ShortAnswerKey
		if err := json.Unmarshal(probe, &key); err != nil {
			return domain.Validation("short_answer correct_answer is malformed")
		}
		if key.Answer == nil && len(key.Keywords) == 0 {
			return domain.Validation("short_answer correct_answer needs an answer string or keywords")
		}
		if key.MinKeywords > len(key.Keywords) {
			return domain.Validation("min_keywords exceeds the number of keywords")
		}
	}
	return nil
}
