package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/brightboard/brightboard-backend/internal/config"
	"github.com/brightboard/brightboard-backend/internal/domain"
	"github.com/brightboard/brightboard-backend/internal/model"
	"github.com/brightboard/brightboard-backend/internal/repository"
)

// AssessmentService handles grading job creation, queueing and teacher
// review. The heavy lifting happens in the pipeline worker; this service owns
// the HTTP-facing state machine edges.
type AssessmentService struct {
	cfg            *config.Config
	assessmentRepo *repository.AssessmentRepository
	resultRepo     *repository.ResultRepository
	studentRepo    *repository.StudentRepository
	rdb            *redis.Client
	log            zerolog.Logger
}

// NewAssessmentService creates a new AssessmentService.
func NewAssessmentService(
	cfg *config.Config,
	assessmentRepo *repository.AssessmentRepository,
	resultRepo *repository.ResultRepository,
	studentRepo *repository.StudentRepository,
	rdb *redis.Client,
	log zerolog.Logger,
) *AssessmentService {
	return &AssessmentService{
		cfg:            cfg,
		assessmentRepo: assessmentRepo,
		resultRepo:     resultRepo,
		studentRepo:    studentRepo,
		rdb:            rdb,
		log:            log.With().Str("component", "assessment_service").Logger(),
	}
}

// Create validates the grading config, persists the QUEUED job and enqueues
// it for the worker.
func (s *AssessmentService) Create(ctx context.Context, tenantID uuid.UUID, req *model.CreateAssessmentRequest) (*model.Assessment, error) {
	if err := validateGradingConfig(&req.Config); err != nil {
		return nil, err
	}
	if req.Config.IsManualUpload {
		if err := validateManualBindings(&req.Config, req.AnswerSheetPaths); err != nil {
			return nil, err
		}
	}

	cfgJSON, err := json.Marshal(req.Config)
	if err != nil {
		return nil, fmt.Errorf("marshal grading config: %w", err)
	}

	assessment := &model.Assessment{
		Config:           cfgJSON,
		AnswerSheetPaths: req.AnswerSheetPaths,
		TotalPages:       req.TotalPages,
	}
	if err := s.assessmentRepo.Create(ctx, tenantID, assessment); err != nil {
		return nil, err
	}

	if err := s.rdb.RPush(ctx, config.WorkerKey.GradingJobsQueue, assessment.ID.String()).Err(); err != nil {
		// The row exists but never reached the queue. Fail the job rather
		// than leaving it QUEUED forever.
		s.log.Error().Err(err).
			Str("assessment_id", assessment.ID.String()).
			Msg("Failed to enqueue grading job")
		if ferr := s.assessmentRepo.SetStatus(ctx, assessment.ID, model.AssessmentStatusFailed); ferr != nil {
			s.log.Error().Err(ferr).Str("assessment_id", assessment.ID.String()).Msg("Failed to mark assessment FAILED")
		}
		return nil, domain.Transient("enqueue grading job", err)
	}

	s.log.Info().
		Str("assessment_id", assessment.ID.String()).
		Int("sheets", len(req.AnswerSheetPaths)).
		Msg("Grading job queued")
	return assessment, nil
}

// GetByID retrieves an assessment with its results and outsiders.
func (s *AssessmentService) GetByID(ctx context.Context, tenantID, assessmentID uuid.UUID) (*model.Assessment, []model.Result, []model.OutsiderStudent, error) {
	assessment, err := s.assessmentRepo.GetByID(ctx, tenantID, assessmentID)
	if err != nil {
		return nil, nil, nil, err
	}
	results, err := s.resultRepo.ListByAssessment(ctx, tenantID, assessmentID)
	if err != nil {
		return nil, nil, nil, err
	}
	outsiders, err := s.assessmentRepo.ListOutsiders(ctx, assessmentID)
	if err != nil {
		return nil, nil, nil, err
	}
	return assessment, results, outsiders, nil
}

// List retrieves the tenant's grading jobs.
func (s *AssessmentService) List(ctx context.Context, tenantID uuid.UUID) ([]model.Assessment, error) {
	return s.assessmentRepo.List(ctx, tenantID)
}

// TeacherEdit applies a grade override and completes the assessment once no
// result remains in PENDING_REVIEW.
func (s *AssessmentService) TeacherEdit(ctx context.Context, tenantID, assessmentID uuid.UUID, identity model.ResultIdentity, req *model.TeacherEditRequest) (*model.Result, error) {
	if err := identity.Validate(); err != nil {
		return nil, domain.Validation(err.Error())
	}

	assessment, err := s.assessmentRepo.GetByID(ctx, tenantID, assessmentID)
	if err != nil {
		return nil, err
	}
	switch assessment.Status {
	case model.AssessmentStatusPendingReview, model.AssessmentStatusCompleted:
	default:
		return nil, domain.Precondition(fmt.Sprintf("assessment is %s, grades are not editable yet", assessment.Status))
	}

	var gradingCfg model.GradingConfig
	if err := json.Unmarshal(assessment.Config, &gradingCfg); err != nil {
		return nil, fmt.Errorf("decode grading config: %w", err)
	}
	if err := validateGradeInRange(&gradingCfg, req.QuestionID, req.Grade); err != nil {
		return nil, err
	}

	result, err := s.resultRepo.TeacherEdit(ctx, tenantID, assessmentID, identity, req.QuestionID, req.Grade, req.Feedback)
	if err != nil {
		return nil, err
	}

	if assessment.Status == model.AssessmentStatusPendingReview {
		pending, err := s.resultRepo.CountPendingReview(ctx, assessmentID)
		if err != nil {
			return nil, err
		}
		if pending == 0 {
			if err := s.assessmentRepo.SetStatus(ctx, assessmentID, model.AssessmentStatusCompleted); err != nil {
				return nil, err
			}
			s.log.Info().
				Str("assessment_id", assessmentID.String()).
				Msg("All reviews resolved, assessment completed")
		}
	}
	return result, nil
}

// validateGradeInRange bounds a teacher override to the question's max
// score, 100 when the config gives none.
func validateGradeInRange(cfg *model.GradingConfig, questionID string, grade float64) error {
	q, ok := cfg.QuestionByID(questionID)
	if !ok {
		return domain.Validation(fmt.Sprintf("question %q is not part of this assessment", questionID))
	}
	maxScore := 100.0
	if q.MaxScore != nil {
		maxScore = float64(*q.MaxScore)
	}
	if grade < 0 || grade > maxScore {
		return domain.Validation(fmt.Sprintf("grade must be between 0 and %g", maxScore))
	}
	return nil
}

// validateManualBindings requires every sheet of a manual-upload job to name
// its student, since those jobs skip name extraction entirely.
func validateManualBindings(cfg *model.GradingConfig, paths []string) error {
	bound := make(map[string]bool, len(cfg.ManualEntities))
	for _, e := range cfg.ManualEntities {
		if strings.TrimSpace(e.Name) != "" {
			bound[e.SheetPath] = true
		}
	}
	for _, path := range paths {
		if !bound[path] {
			return domain.Validation(fmt.Sprintf("manual upload sheet %q has no student binding", path))
		}
	}
	return nil
}

func validateGradingConfig(cfg *model.GradingConfig) error {
	if cfg.AssessmentName == "" {
		return domain.Validation("assessmentName is required")
	}
	if len(cfg.Sections) == 0 {
		return domain.Validation("at least one section is required")
	}
	switch cfg.ScoringMethod {
	case model.ScoringPerQuestion, model.ScoringPerSection, model.ScoringTotalScore:
	default:
		return domain.Validation("unknown scoring method")
	}
	switch cfg.GradingMode {
	case model.GradingModeAnswerKey, model.GradingModeAutoGrade, model.GradingModeLibrary:
	default:
		return domain.Validation("unknown grading mode")
	}
	seen := make(map[string]struct{})
	for _, section := range cfg.Sections {
		if len(section.Questions) == 0 {
			return domain.Validation(fmt.Sprintf("section %q has no questions", section.Title))
		}
		for _, q := range section.Questions {
			if q.ID == "" || q.Text == "" {
				return domain.Validation("every question needs an id and text")
			}
			if _, dup := seen[q.ID]; dup {
				return domain.Validation(fmt.Sprintf("duplicate question id %q", q.ID))
			}
			seen[q.ID] = struct{}{}
		}
	}
	return nil
}
