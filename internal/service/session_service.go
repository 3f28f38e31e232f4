package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/brightboard/brightboard-backend/internal/config"
	"github.com/brightboard/brightboard-backend/internal/domain"
	"github.com/brightboard/brightboard-backend/internal/model"
	"github.com/brightboard/brightboard-backend/internal/repository"
	"github.com/brightboard/brightboard-backend/internal/ws"
)

// finalLeaderboardLimit caps the standings frame broadcast when a session
// ends.
const finalLeaderboardLimit = 100

// SessionService runs live quiz sessions: room creation, joins, question
// progression, answer grading and leaderboard fan-out. All room broadcasts go
// through the registry; the database stays the source of truth for scores.
type SessionService struct {
	cfg             *config.Config
	sessionRepo     *repository.SessionRepository
	participantRepo *repository.ParticipantRepository
	responseRepo    *repository.ResponseRepository
	quizRepo        *repository.QuizRepository
	questionRepo    *repository.QuestionRepository
	studentRepo     *repository.StudentRepository
	auth            *AuthService
	registry        *ws.Registry
	rdb             *redis.Client
	caps            Caps
	log             zerolog.Logger

	// Sessions with score changes since the last leaderboard broadcast.
	dirtyMu sync.Mutex
	dirty   map[uuid.UUID]struct{}
}

// NewSessionService creates a new SessionService.
func NewSessionService(
	cfg *config.Config,
	sessionRepo *repository.SessionRepository,
	participantRepo *repository.ParticipantRepository,
	responseRepo *repository.ResponseRepository,
	quizRepo *repository.QuizRepository,
	questionRepo *repository.QuestionRepository,
	studentRepo *repository.StudentRepository,
	auth *AuthService,
	registry *ws.Registry,
	rdb *redis.Client,
	caps Caps,
	log zerolog.Logger,
) *SessionService {
	return &SessionService{
		cfg:             cfg,
		sessionRepo:     sessionRepo,
		participantRepo: participantRepo,
		responseRepo:    responseRepo,
		quizRepo:        quizRepo,
		questionRepo:    questionRepo,
		studentRepo:     studentRepo,
		auth:            auth,
		registry:        registry,
		rdb:             rdb,
		caps:            caps,
		log:             log.With().Str("component", "session_service").Logger(),
		dirty:           make(map[uuid.UUID]struct{}),
	}
}

// Create opens a waiting room for a published quiz. The quiz and its
// questions are frozen into the session snapshot, so later edits to the quiz
// never reach a running session. Room code collisions retry up to the
// configured limit.
func (s *SessionService) Create(ctx context.Context, tenantID uuid.UUID, req *model.CreateSessionRequest) (*model.Session, error) {
	quiz, err := s.quizRepo.GetByID(ctx, tenantID, req.QuizID)
	if err != nil {
		return nil, err
	}
	if quiz.Status != model.QuizStatusPublished {
		return nil, domain.Precondition("only published quizzes can be hosted")
	}

	questions, err := s.questionRepo.ListByQuiz(ctx, tenantID, quiz.ID)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, domain.Precondition("quiz has no questions")
	}

	snapshot, err := json.Marshal(model.SessionSnapshot{
		QuizID:    quiz.ID,
		Title:     quiz.Title,
		Settings:  quiz.Settings,
		Questions: questions,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}

	for attempt := 0; attempt < s.cfg.RoomCodeRetries; attempt++ {
		code, err := GenerateRoomCode(s.caps.Rand, s.cfg.RoomCodeLength)
		if err != nil {
			return nil, err
		}
		session := &model.Session{
			QuizID:         quiz.ID,
			RoomCode:       code,
			ConfigSnapshot: snapshot,
			TimeoutHours:   s.cfg.SessionTimeoutHours,
		}
		err = s.sessionRepo.Create(ctx, tenantID, session)
		if err == nil {
			if err := s.quizRepo.SetLastRoomCode(ctx, tenantID, quiz.ID, code); err != nil {
				s.log.Warn().Err(err).Str("quiz_id", quiz.ID.String()).Msg("Failed to record last room code")
			}
			return session, nil
		}
		if domain.ConflictCauseOf(err) != domain.ConflictRoomCodeTaken {
			return nil, err
		}
	}
	return nil, domain.Exhausted(fmt.Sprintf("could not allocate a unique room code after %d attempts", s.cfg.RoomCodeRetries))
}

// GetByID retrieves a session for its host.
func (s *SessionService) GetByID(ctx context.Context, tenantID, sessionID uuid.UUID) (*model.Session, error) {
	return s.sessionRepo.GetByID(ctx, tenantID, sessionID)
}

// Participants lists everyone in a session, tenant-scoped for the host view.
func (s *SessionService) Participants(ctx context.Context, tenantID, sessionID uuid.UUID) ([]model.Participant, error) {
	if _, err := s.sessionRepo.GetByID(ctx, tenantID, sessionID); err != nil {
		return nil, err
	}
	return s.participantRepo.ListBySession(ctx, sessionID)
}

// Join admits a participant into the room named by the code. Identity rules:
//   - external_id only:       rostered student (must exist)
//   - name only:              anonymous guest
//   - name + external_id:     identified guest (a claim, not a verified link)
//
// Guests receive a capability token. Display names clashing with someone
// already in the room get a numeric suffix.
func (s *SessionService) Join(ctx context.Context, roomCode string, req *model.JoinSessionRequest) (*model.Session, *model.Participant, error) {
	session, err := s.sessionRepo.GetByRoomCode(ctx, strings.ToUpper(strings.TrimSpace(roomCode)))
	if err != nil {
		return nil, nil, err
	}
	if session.Status.Terminal() {
		return nil, nil, domain.Precondition("session has ended")
	}

	count, err := s.participantRepo.CountBySession(ctx, session.ID)
	if err != nil {
		return nil, nil, err
	}
	if count >= s.cfg.MaxParticipantsPerSession {
		return nil, nil, domain.Precondition("session is full")
	}

	identity, err := s.resolveIdentity(ctx, session, req)
	if err != nil {
		return nil, nil, err
	}

	participant := &model.Participant{SessionID: session.ID, Identity: identity}
	if identity.Kind != model.IdentityStudent {
		token, err := s.auth.MintGuestToken()
		if err != nil {
			return nil, nil, err
		}
		participant.GuestToken = token
	}

	if err := s.participantRepo.Add(ctx, participant); err != nil {
		return nil, nil, err
	}

	s.registry.Broadcast(session.ID, ws.NewEnvelope(ws.EventParticipantJoined, map[string]any{
		"participant_id":    participant.ID,
		"display_name":      participant.DisplayName(),
		"participant_count": count + 1,
	}), nil)

	return session, participant, nil
}

func (s *SessionService) resolveIdentity(ctx context.Context, session *model.Session, req *model.JoinSessionRequest) (model.ParticipantIdentity, error) {
	name := strings.TrimSpace(req.Name)
	externalID := strings.TrimSpace(req.ExternalID)

	switch {
	case name == "" && externalID == "":
		return model.ParticipantIdentity{}, domain.Validation("name or external_id is required")

	case name == "":
		student, err := s.studentRepo.GetByExternalID(ctx, session.TenantID, externalID)
		if err != nil {
			return model.ParticipantIdentity{}, err
		}
		return model.ParticipantIdentity{
			Kind:       model.IdentityStudent,
			StudentID:  &student.ID,
			StudentRef: student.Name,
		}, nil

	case externalID == "":
		adorned, err := s.adornName(ctx, session.ID, name)
		if err != nil {
			return model.ParticipantIdentity{}, err
		}
		return model.ParticipantIdentity{Kind: model.IdentityGuest, GuestName: adorned}, nil

	default:
		adorned, err := s.adornName(ctx, session.ID, name)
		if err != nil {
			return model.ParticipantIdentity{}, err
		}
		return model.ParticipantIdentity{
			Kind:       model.IdentityIdentifiedGuest,
			GuestName:  adorned,
			StudentRef: externalID,
		}, nil
	}
}

// adornName appends " (2)", " (3)", ... until the name is unique in the room.
func (s *SessionService) adornName(ctx context.Context, sessionID uuid.UUID, name string) (string, error) {
	existing, err := s.participantRepo.DisplayNames(ctx, sessionID)
	if err != nil {
		return "", err
	}
	taken := make(map[string]struct{}, len(existing))
	for _, n := range existing {
		taken[strings.ToLower(n)] = struct{}{}
	}

	candidate := name
	for i := 2; ; i++ {
		if _, clash := taken[strings.ToLower(candidate)]; !clash {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s (%d)", name, i)
	}
}

// Start moves the room into in_progress and broadcasts the first question.
func (s *SessionService) Start(ctx context.Context, tenantID, sessionID uuid.UUID) (*model.Session, error) {
	session, err := s.sessionRepo.GetByID(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != model.SessionStatusWaiting {
		return nil, domain.Precondition(fmt.Sprintf("session is %s, not waiting", session.Status))
	}

	session, err = s.sessionRepo.Start(ctx, tenantID, sessionID, s.caps.Now())
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, domain.Precondition("session already started")
		}
		return nil, err
	}

	snap, err := session.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}

	s.registry.Broadcast(sessionID, ws.NewEnvelope(ws.EventSessionStarted, map[string]any{
		"session_id":     sessionID,
		"quiz_title":     snap.Title,
		"question_count": len(snap.Questions),
	}), nil)
	s.broadcastQuestion(sessionID, snap, 0)

	return session, nil
}

// Advance moves to the next question. Running past the last question is a
// precondition failure; the host ends the session instead.
func (s *SessionService) Advance(ctx context.Context, tenantID, sessionID uuid.UUID) (*model.Session, error) {
	session, err := s.sessionRepo.GetByID(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != model.SessionStatusInProgress {
		return nil, domain.Precondition(fmt.Sprintf("session is %s, not in progress", session.Status))
	}

	snap, err := session.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if session.CurrentQuestionIndex+1 >= len(snap.Questions) {
		return nil, domain.Precondition("no more questions, end the session instead")
	}

	session, err = s.sessionRepo.Advance(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}

	s.broadcastQuestion(sessionID, snap, session.CurrentQuestionIndex)
	return session, nil
}

func (s *SessionService) broadcastQuestion(sessionID uuid.UUID, snap *model.SessionSnapshot, index int) {
	q := snap.Questions[index]
	s.registry.Broadcast(sessionID, ws.NewEnvelope(ws.EventQuestionStarted, map[string]any{
		"question":       ws.QuestionForBroadcast(q),
		"question_index": index,
		"question_count": len(snap.Questions),
	}), nil)
}

// End terminates the session and broadcasts the final leaderboard. reason
// timeout is reserved for the scheduler.
func (s *SessionService) End(ctx context.Context, tenantID, sessionID uuid.UUID, reason model.EndReason) (*model.Session, error) {
	status := model.SessionStatusCompleted
	if reason == model.EndReasonCancelled {
		status = model.SessionStatusCancelled
	}

	session, err := s.sessionRepo.End(ctx, tenantID, sessionID, status, s.caps.Now(), reason == model.EndReasonTimeout)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, domain.Precondition("session already ended")
		}
		return nil, err
	}

	// Final standings go out as their own frame before the end notice, so
	// clients render them with the same handler as every other update.
	leaderboard, err := s.participantRepo.Leaderboard(ctx, sessionID)
	if err != nil {
		s.log.Error().Err(err).Str("session_id", sessionID.String()).Msg("Failed to load final leaderboard")
	} else {
		s.registry.Broadcast(sessionID, ws.NewEnvelope(ws.EventLeaderboardUpdate, map[string]any{
			"leaderboard": capLeaderboard(leaderboard),
		}), nil)
	}

	s.registry.Broadcast(sessionID, ws.NewEnvelope(ws.EventSessionEnded, map[string]any{
		"session_id": sessionID,
		"reason":     reason,
	}), nil)

	return session, nil
}

// SubmitAnswer grades a participant's answer to the current question and
// applies the score atomically. Duplicate submissions surface as
// Conflict(already_answered). The per-answer frames are immediate; the
// leaderboard refresh is batched. The returned key is non-nil only when the
// answer key should be echoed back to the submitter.
func (s *SessionService) SubmitAnswer(ctx context.Context, sessionID, participantID uuid.UUID, req *model.SubmitAnswerRequest) (*model.Response, json.RawMessage, error) {
	session, err := s.sessionRepo.GetByIDAny(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if session.Status != model.SessionStatusInProgress {
		return nil, nil, domain.Precondition("session is not accepting answers")
	}

	snap, err := session.Snapshot()
	if err != nil {
		return nil, nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if session.CurrentQuestionIndex < 0 || session.CurrentQuestionIndex >= len(snap.Questions) {
		return nil, nil, domain.Precondition("no question is active")
	}
	current := snap.Questions[session.CurrentQuestionIndex]
	if current.ID != req.QuestionID {
		return nil, nil, domain.Precondition("answers are only accepted for the current question")
	}

	eval, err := EvaluateAnswer(&current, req.Answer, EvalDefaults{
		CaseSensitive:   s.cfg.ShortAnswerCaseSensitive,
		MinKeywordMatch: s.cfg.ShortAnswerMinKeywordMatch,
	})
	if err != nil {
		return nil, nil, err
	}

	resp := &model.Response{
		SessionID:     sessionID,
		ParticipantID: participantID,
		QuestionID:    current.ID,
		Answer:        req.Answer,
		IsCorrect:     eval.IsCorrect,
		PointsEarned:  eval.PointsEarned,
		TimeTakenMs:   req.TimeTakenMs,
	}
	if err := s.responseRepo.SubmitWithScore(ctx, resp); err != nil {
		return nil, nil, err
	}

	s.broadcastAnswerStats(ctx, sessionID, current.ID)
	s.registry.BroadcastHosts(sessionID, ws.NewEnvelope(ws.EventParticipantAnswered, map[string]any{
		"participant_id": participantID,
		"question_id":    current.ID,
		"is_correct":     resp.IsCorrect,
	}))

	s.markDirty(sessionID)

	var reveal json.RawMessage
	if revealCorrectAnswer(&current, eval) {
		reveal = current.CorrectAnswer
	}
	return resp, reveal, nil
}

// capLeaderboard truncates the final standings frame.
func capLeaderboard(entries []model.LeaderboardEntry) []model.LeaderboardEntry {
	if len(entries) > finalLeaderboardLimit {
		return entries[:finalLeaderboardLimit]
	}
	return entries
}

// revealCorrectAnswer reports whether the key goes back to the submitter:
// only on a wrong answer, and never for polls, which have no right choice.
func revealCorrectAnswer(q *model.Question, eval Evaluation) bool {
	if q.QuestionType == model.QuestionTypePoll {
		return false
	}
	return eval.IsCorrect != nil && !*eval.IsCorrect
}

// broadcastAnswerStats pushes the host-only progress counters for the
// current question.
func (s *SessionService) broadcastAnswerStats(ctx context.Context, sessionID, questionID uuid.UUID) {
	answered, err := s.responseRepo.CountDistinctAnswered(ctx, sessionID, questionID)
	if err != nil {
		s.log.Warn().Err(err).Str("session_id", sessionID.String()).Msg("Failed to count answers for stats")
		return
	}
	total, err := s.participantRepo.CountBySession(ctx, sessionID)
	if err != nil {
		s.log.Warn().Err(err).Str("session_id", sessionID.String()).Msg("Failed to count participants for stats")
		return
	}
	completion := 0.0
	if total > 0 {
		completion = float64(answered) / float64(total) * 100
	}
	s.registry.BroadcastHosts(sessionID, ws.NewEnvelope(ws.EventStatsUpdate, map[string]any{
		"question_id":           questionID,
		"total_participants":    total,
		"answers_received":      answered,
		"completion_percentage": completion,
	}))
}

// Leaderboard returns the current ranking on demand.
func (s *SessionService) Leaderboard(ctx context.Context, sessionID uuid.UUID) ([]model.LeaderboardEntry, error) {
	return s.participantRepo.Leaderboard(ctx, sessionID)
}

// CurrentState builds the reconnect frame: status, active question (without
// its key) and the latest leaderboard.
func (s *SessionService) CurrentState(ctx context.Context, sessionID uuid.UUID) (map[string]any, error) {
	session, err := s.sessionRepo.GetByIDAny(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	snap, err := session.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}

	state := map[string]any{
		"session_id":     session.ID,
		"status":         session.Status,
		"quiz_title":     snap.Title,
		"question_count": len(snap.Questions),
		"question_index": session.CurrentQuestionIndex,
	}
	if session.Status == model.SessionStatusInProgress &&
		session.CurrentQuestionIndex >= 0 && session.CurrentQuestionIndex < len(snap.Questions) {
		state["question"] = ws.QuestionForBroadcast(snap.Questions[session.CurrentQuestionIndex])
	}
	if leaderboard, err := s.participantRepo.Leaderboard(ctx, sessionID); err == nil {
		state["leaderboard"] = leaderboard
	}
	return state, nil
}

// MarkPresence updates connection presence for a participant and notifies the
// room on departure. The redis presence counter is best-effort ops telemetry;
// it never gates anything.
func (s *SessionService) MarkPresence(ctx context.Context, sessionID, participantID uuid.UUID, active bool) {
	if err := s.participantRepo.SetActive(ctx, sessionID, participantID, active); err != nil {
		s.log.Warn().Err(err).
			Str("session_id", sessionID.String()).
			Str("participant_id", participantID.String()).
			Msg("Failed to update presence")
		return
	}

	key := config.CacheKey.SessionPresenceKey(sessionID.String())
	var counterErr error
	if active {
		pipe := s.rdb.TxPipeline()
		pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, 24*time.Hour)
		_, counterErr = pipe.Exec(ctx)
	} else {
		counterErr = s.rdb.Decr(ctx, key).Err()
	}
	if counterErr != nil {
		s.log.Debug().Err(counterErr).Str("session_id", sessionID.String()).Msg("Failed to update presence counter")
	}

	if !active {
		s.registry.Broadcast(sessionID, ws.NewEnvelope(ws.EventParticipantLeft, map[string]any{
			"participant_id": participantID,
		}), nil)
	}
}

// TouchParticipant refreshes a participant's liveness on heartbeat.
func (s *SessionService) TouchParticipant(ctx context.Context, sessionID, participantID uuid.UUID) error {
	return s.participantRepo.TouchLastSeen(ctx, sessionID, participantID)
}

// AuthoriseParticipant resolves a participant for the WebSocket upgrade.
// Guests must present their capability token; rostered students connect by
// participant id alone.
func (s *SessionService) AuthoriseParticipant(ctx context.Context, sessionID, participantID uuid.UUID, guestToken string) (*model.Participant, error) {
	participant, err := s.participantRepo.GetByID(ctx, sessionID, participantID)
	if err != nil {
		return nil, err
	}
	if participant.Identity.Kind != model.IdentityStudent {
		if !VerifyGuestToken(participant.GuestToken, guestToken) {
			return nil, domain.Authz("invalid guest token")
		}
	}
	return participant, nil
}

// markDirty queues a session for the next batched leaderboard broadcast.
func (s *SessionService) markDirty(sessionID uuid.UUID) {
	s.dirtyMu.Lock()
	s.dirty[sessionID] = struct{}{}
	s.dirtyMu.Unlock()
}

// RunLeaderboardBatcher coalesces leaderboard broadcasts: however many
// answers land inside one interval, each room sees at most one
// leaderboard_update per tick. Blocks until ctx is cancelled.
func (s *SessionService) RunLeaderboardBatcher(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.LeaderboardBatchInterval)
	defer ticker.Stop()

	s.log.Info().
		Dur("interval", s.cfg.LeaderboardBatchInterval).
		Msg("Leaderboard batcher started")

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("Leaderboard batcher stopped")
			return
		case <-ticker.C:
			s.dirtyMu.Lock()
			pending := s.dirty
			s.dirty = make(map[uuid.UUID]struct{})
			s.dirtyMu.Unlock()

			for sessionID := range pending {
				leaderboard, err := s.participantRepo.Leaderboard(ctx, sessionID)
				if err != nil {
					s.log.Warn().Err(err).
						Str("session_id", sessionID.String()).
						Msg("Failed to build leaderboard")
					continue
				}
				s.registry.Broadcast(sessionID, ws.NewEnvelope(ws.EventLeaderboardUpdate, map[string]any{
					"leaderboard": leaderboard,
				}), nil)
			}
		}
	}
}

// AutoEndExpired completes sessions that outlived their timeout. Used by the
// timeout worker.
func (s *SessionService) AutoEndExpired(ctx context.Context) (int, error) {
	expired, err := s.sessionRepo.ListTimedOut(ctx, s.caps.Now())
	if err != nil {
		return 0, err
	}
	ended := 0
	for _, session := range expired {
		if _, err := s.End(ctx, session.TenantID, session.ID, model.EndReasonTimeout); err != nil {
			s.log.Error().Err(err).
				Str("session_id", session.ID.String()).
				Msg("Failed to auto-end session")
			continue
		}
		ended++
	}
	return ended, nil
}
