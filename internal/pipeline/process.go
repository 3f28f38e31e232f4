// Package pipeline implements the bulk AI grading flow: answer sheets are
// matched to students, graded by several independent model runs, resolved by
// consensus and summarised. One Process call owns one assessment end to end.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/brightboard/brightboard-backend/internal/config"
	"github.com/brightboard/brightboard-backend/internal/llm"
	"github.com/brightboard/brightboard-backend/internal/model"
	"github.com/brightboard/brightboard-backend/internal/repository"
)

// Pipeline processes grading jobs. Safe for concurrent Process calls on
// distinct assessments.
type Pipeline struct {
	cfg            *config.Config
	llm            *llm.Client
	assessmentRepo *repository.AssessmentRepository
	resultRepo     *repository.ResultRepository
	airunRepo      *repository.AIRunRepository
	studentRepo    *repository.StudentRepository
	classRepo      *repository.ClassRepository
	rdb            *redis.Client
	log            zerolog.Logger
}

// New creates a grading pipeline.
func New(
	cfg *config.Config,
	llmClient *llm.Client,
	assessmentRepo *repository.AssessmentRepository,
	resultRepo *repository.ResultRepository,
	airunRepo *repository.AIRunRepository,
	studentRepo *repository.StudentRepository,
	classRepo *repository.ClassRepository,
	rdb *redis.Client,
	log zerolog.Logger,
) *Pipeline {
	return &Pipeline{
		cfg:            cfg,
		llm:            llmClient,
		assessmentRepo: assessmentRepo,
		resultRepo:     resultRepo,
		airunRepo:      airunRepo,
		studentRepo:    studentRepo,
		classRepo:      classRepo,
		rdb:            rdb,
		log:            log.With().Str("component", "grading_pipeline").Logger(),
	}
}

// sheetEntity binds one answer sheet to its resolved grading entity.
type sheetEntity struct {
	identity    model.ResultIdentity
	displayName string
	path        string
	attachment  llm.Attachment
}

// runAnswer is one question verdict inside a grading run response.
type runAnswer struct {
	QuestionID      string  `json:"question_id"`
	ExtractedAnswer string  `json:"extracted_answer"`
	Grade           float64 `json:"grade"`
	Comment         string  `json:"comment"`
}

type runResponse struct {
	Answers []runAnswer `json:"answers"`
}

// Process runs one assessment through the full pipeline. Any phase error
// fails the job: the assessment goes to FAILED and unfinalised results are
// marked accordingly. Already-written AI runs survive for diagnosis.
func (p *Pipeline) Process(ctx context.Context, assessmentID uuid.UUID) error {
	log := p.log.With().Str("assessment_id", assessmentID.String()).Logger()
	started := time.Now()

	assessment, err := p.assessmentRepo.GetByIDAny(ctx, assessmentID)
	if err != nil {
		return err
	}
	if assessment.Status != model.AssessmentStatusQueued {
		log.Warn().Str("status", string(assessment.Status)).Msg("Skipping assessment not in QUEUED")
		return nil
	}

	var gradingCfg model.GradingConfig
	if err := json.Unmarshal(assessment.Config, &gradingCfg); err != nil {
		p.fail(ctx, assessmentID, log)
		return fmt.Errorf("decode grading config: %w", err)
	}

	if err := p.assessmentRepo.SetStatus(ctx, assessmentID, model.AssessmentStatusProcessing); err != nil {
		return err
	}

	roster := p.loadRoster(ctx, assessment, &gradingCfg, log)

	entities, err := p.matchPhase(ctx, assessment, &gradingCfg, roster, log)
	if err != nil {
		p.fail(ctx, assessmentID, log)
		return err
	}

	if err := p.gradePhase(ctx, assessment, &gradingCfg, entities, log); err != nil {
		p.fail(ctx, assessmentID, log)
		return err
	}

	if err := p.finalisePhase(ctx, assessment, &gradingCfg, log); err != nil {
		p.fail(ctx, assessmentID, log)
		return err
	}

	log.Info().Dur("elapsed", time.Since(started)).Msg("Assessment processed")
	return nil
}

func (p *Pipeline) fail(ctx context.Context, assessmentID uuid.UUID, log zerolog.Logger) {
	if err := p.resultRepo.MarkFailed(ctx, assessmentID); err != nil {
		log.Error().Err(err).Msg("Failed to mark results FAILED")
	}
	if err := p.assessmentRepo.SetStatus(ctx, assessmentID, model.AssessmentStatusFailed); err != nil {
		log.Error().Err(err).Msg("Failed to mark assessment FAILED")
	}
}

// loadRoster fetches the class roster for matching. A missing class degrades
// to an empty roster: every sheet then becomes an outsider.
func (p *Pipeline) loadRoster(ctx context.Context, assessment *model.Assessment, cfg *model.GradingConfig, log zerolog.Logger) []model.Student {
	if cfg.ClassID == uuid.Nil {
		return nil
	}
	roster, err := p.classRepo.Roster(ctx, assessment.TenantID, cfg.ClassID)
	if err != nil {
		log.Warn().Err(err).Str("class_id", cfg.ClassID.String()).Msg("Roster unavailable, all sheets become outsiders")
		return nil
	}
	return roster
}

// matchPhase resolves every answer sheet to a grading entity and creates the
// PENDING_GRADE skeleton rows, one per (entity, question). A single bad sheet
// never fails the job: unreadable files are skipped, and a failed name
// extraction degrades to an unknown entity that still gets graded. Manual
// uploads carry their entity names in the config and bypass extraction.
func (p *Pipeline) matchPhase(ctx context.Context, assessment *model.Assessment, cfg *model.GradingConfig, roster []model.Student, log zerolog.Logger) ([]sheetEntity, error) {
	questions := cfg.AllQuestions()
	var entities []sheetEntity
	var skeletons []*model.Result

	for i, path := range assessment.AnswerSheetPaths {
		attachment, err := loadAttachment(path)
		if err != nil {
			log.Warn().Err(err).Str("sheet", path).Msg("Unreadable answer sheet skipped")
			continue
		}

		var name string
		if cfg.IsManualUpload {
			name = manualNameFor(cfg, path)
		} else {
			name, err = p.extractStudentName(ctx, attachment, fmt.Sprintf("%s-sheet%d", assessment.ID, i))
			if err != nil {
				log.Warn().Err(err).Str("sheet", path).Msg("Name extraction failed, sheet graded as unknown")
				name = ""
			}
		}

		identity, displayName, err := p.resolveEntity(ctx, assessment, roster, name)
		if err != nil {
			return nil, err
		}

		log.Info().
			Str("sheet", path).
			Str("entity", displayName).
			Bool("rostered", identity.StudentID != nil).
			Msg("Answer sheet matched")

		entity := sheetEntity{
			identity:    identity,
			displayName: displayName,
			path:        path,
			attachment:  attachment,
		}
		entities = append(entities, entity)
		skeletons = append(skeletons, skeletonRows(assessment.ID, identity, path, attachment.MIME, questions)...)

		p.reportProgress(ctx, assessment.ID, i+1, len(assessment.AnswerSheetPaths), "matching")
	}

	if err := p.resultRepo.CreateBatch(ctx, skeletons); err != nil {
		return nil, err
	}
	return entities, nil
}

// skeletonRows builds the PENDING_GRADE result rows for one matched sheet,
// one per question, each with a fresh report token.
func skeletonRows(assessmentID uuid.UUID, identity model.ResultIdentity, sheetPath, contentType string, questions []model.GradingQuestion) []*model.Result {
	rows := make([]*model.Result, 0, len(questions))
	for _, q := range questions {
		token := uuid.NewString()
		path := sheetPath
		ct := contentType
		rows = append(rows, &model.Result{
			AssessmentID:    assessmentID,
			QuestionID:      q.ID,
			Identity:        identity,
			Status:          model.ResultStatusPendingGrade,
			AnswerSheetPath: &path,
			ContentType:     &ct,
			ReportToken:     &token,
		})
	}
	return rows
}

// gradePhase grades every entity with independent staggered model runs and
// resolves them by consensus. Entity concurrency is bounded; a single failed
// run degrades that entity to review rather than failing the job.
func (p *Pipeline) gradePhase(ctx context.Context, assessment *model.Assessment, cfg *model.GradingConfig, entities []sheetEntity, log zerolog.Logger) error {
	results, err := p.resultRepo.ListByAssessmentAny(ctx, assessment.ID)
	if err != nil {
		return err
	}
	resultIndex := make(map[string]*model.Result, len(results))
	for i := range results {
		res := &results[i]
		resultIndex[res.Identity.EntityKey()+"/"+res.QuestionID] = res
	}

	var done int
	var doneMu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.GradingConcurrency)

	for i := range entities {
		entity := entities[i]
		g.Go(func() error {
			if err := p.gradeEntity(gctx, assessment, cfg, entity, resultIndex); err != nil {
				return err
			}
			doneMu.Lock()
			done++
			n := done
			doneMu.Unlock()
			p.reportProgress(gctx, assessment.ID, n, len(entities), "grading")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	log.Info().Int("entities", len(entities)).Msg("Grading phase complete")
	return nil
}

// gradeEntity runs the configured number of grading passes over one sheet,
// records every run and applies consensus per question.
func (p *Pipeline) gradeEntity(ctx context.Context, assessment *model.Assessment, cfg *model.GradingConfig, entity sheetEntity, resultIndex map[string]*model.Result) error {
	prompt := buildGradingPrompt(cfg)
	questions := cfg.AllQuestions()

	runResults := make([]runResponse, p.cfg.GradingRuns)
	runOK := make([]bool, p.cfg.GradingRuns)

	g, gctx := errgroup.WithContext(ctx)
	for run := 0; run < p.cfg.GradingRuns; run++ {
		delay := time.Duration(run) * p.cfg.GradingRunStagger
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case <-time.After(delay):
			}

			tag := fmt.Sprintf("%s-%s-run%d", assessment.ID, entity.displayName, run)
			raw, _, err := p.llm.CompleteVisionJSON(gctx, prompt, []llm.Attachment{entity.attachment}, llm.VisionOptions{
				LogTag: tag,
				Validate: func(raw json.RawMessage) error {
					var out runResponse
					if err := json.Unmarshal(raw, &out); err != nil {
						return err
					}
					if len(out.Answers) == 0 {
						return fmt.Errorf("no answers in response")
					}
					return nil
				},
			})
			if err != nil {
				// One lost run leaves the others to reach consensus. The
				// failure itself still lands in the audit trail.
				p.log.Warn().Err(err).Str("tag", tag).Msg("Grading run failed")
				p.recordFailedRun(gctx, assessment, entity, questions, run, err)
				return nil
			}

			var out runResponse
			if err := json.Unmarshal(raw, &out); err != nil {
				p.log.Warn().Err(err).Str("tag", tag).Msg("Grading run undecodable")
				p.recordFailedRun(gctx, assessment, entity, questions, run, err)
				return nil
			}
			runResults[run] = out
			runOK[run] = true

			for _, ans := range out.Answers {
				if _, known := cfg.QuestionByID(ans.QuestionID); !known {
					continue
				}
				grade := ans.Grade
				comment := ans.Comment
				airun := &model.AIModelRun{
					AssessmentID: assessment.ID,
					Identity:     entity.identity,
					QuestionID:   ans.QuestionID,
					RunIndex:     run,
					RawJSON:      raw,
					Grade:        &grade,
					Comment:      &comment,
				}
				if err := p.airunRepo.Create(gctx, airun); err != nil {
					p.log.Error().Err(err).Str("tag", tag).Msg("Failed to persist AI run")
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	// All of the entity's consensus outcomes commit in one transaction so a
	// concurrent read never sees the entity half decided.
	var writes []repository.ConsensusWrite
	for _, q := range questions {
		var runs []RunGrade
		var extracted string
		for run := 0; run < p.cfg.GradingRuns; run++ {
			if !runOK[run] {
				continue
			}
			for _, ans := range runResults[run].Answers {
				if ans.QuestionID != q.ID {
					continue
				}
				comment := ans.Comment
				runs = append(runs, RunGrade{Grade: ans.Grade, Feedback: &comment})
				if extracted == "" {
					extracted = ans.ExtractedAnswer
				}
			}
		}

		res, ok := resultIndex[entity.identity.EntityKey()+"/"+q.ID]
		if !ok {
			continue
		}

		outcome := Consensus(runs)
		write := repository.ConsensusWrite{
			ResultID: res.ID,
			Grade:    outcome.Grade,
			Feedback: outcome.Feedback,
			Status:   outcome.Status,
		}
		if extracted != "" {
			e := extracted
			write.ExtractedAnswer = &e
		}
		writes = append(writes, write)
		res.Grade = outcome.Grade
		res.Status = outcome.Status
	}
	return p.resultRepo.ApplyEntityConsensus(ctx, writes)
}

// recordFailedRun writes the audit rows for a grading run that produced no
// verdicts: one per question, raw_json carrying the error, no grade.
func (p *Pipeline) recordFailedRun(ctx context.Context, assessment *model.Assessment, entity sheetEntity, questions []model.GradingQuestion, run int, cause error) {
	raw, err := json.Marshal(map[string]string{"error": cause.Error()})
	if err != nil {
		raw = json.RawMessage(`{"error":"grading run failed"}`)
	}
	for _, q := range questions {
		airun := &model.AIModelRun{
			AssessmentID: assessment.ID,
			Identity:     entity.identity,
			QuestionID:   q.ID,
			RunIndex:     run,
			RawJSON:      raw,
		}
		if err := p.airunRepo.Create(ctx, airun); err != nil {
			p.log.Error().Err(err).
				Str("assessment_id", assessment.ID.String()).
				Str("question_id", q.ID).
				Msg("Failed to persist error run")
		}
	}
}

// finalisePhase settles the terminal status. A job with any result left for
// human review parks in PENDING_REVIEW right away: no summary or analytics
// run over grades that a teacher may still change. Fully decided jobs go
// through the summary phase and complete.
func (p *Pipeline) finalisePhase(ctx context.Context, assessment *model.Assessment, cfg *model.GradingConfig, log zerolog.Logger) error {
	pending, err := p.resultRepo.CountPendingReview(ctx, assessment.ID)
	if err != nil {
		return err
	}
	if pending > 0 {
		if err := p.assessmentRepo.SetStatus(ctx, assessment.ID, model.AssessmentStatusPendingReview); err != nil {
			return err
		}
		log.Info().Int("pending_review", pending).Msg("Assessment parked for teacher review")
		return nil
	}
	return p.summaryPhase(ctx, assessment, cfg, log)
}

// summaryPhase computes statistics, generates the narrative, refreshes the
// grade caches and completes the assessment.
func (p *Pipeline) summaryPhase(ctx context.Context, assessment *model.Assessment, cfg *model.GradingConfig, log zerolog.Logger) error {
	if err := p.assessmentRepo.SetStatus(ctx, assessment.ID, model.AssessmentStatusSummarising); err != nil {
		return err
	}

	results, err := p.resultRepo.ListByAssessmentAny(ctx, assessment.ID)
	if err != nil {
		return err
	}

	stats := ComputeStats(cfg, results)
	summary := p.generateSummary(ctx, cfg, stats)
	p.updateGradeCaches(ctx, assessment, cfg, results)

	if err := p.assessmentRepo.SetSummary(ctx, assessment.ID, summary, model.AssessmentStatusCompleted); err != nil {
		return err
	}

	log.Info().Msg("Summary phase complete")
	return nil
}

// reportProgress publishes coarse phase progress for polling clients.
// Best-effort: a cache failure never fails the job.
func (p *Pipeline) reportProgress(ctx context.Context, assessmentID uuid.UUID, done, total int, phase string) {
	key := config.CacheKey.AssessmentProgressKey(assessmentID.String())
	payload := fmt.Sprintf(`{"phase":%q,"done":%d,"total":%d}`, phase, done, total)
	if err := p.rdb.Set(ctx, key, payload, time.Hour).Err(); err != nil {
		p.log.Debug().Err(err).Msg("Failed to publish progress")
	}
}

// loadAttachment reads one answer sheet and infers its MIME from the
// extension.
func loadAttachment(path string) (llm.Attachment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return llm.Attachment{}, err
	}
	mime := "image/jpeg"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		mime = "image/png"
	case ".webp":
		mime = "image/webp"
	case ".pdf":
		mime = "application/pdf"
	}
	return llm.Attachment{Data: data, MIME: mime}, nil
}
