package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"live-quiz-service/internal/domain"
	"live-quiz-service/internal/metrics"
)

// SessionStore abstracts durable session storage (in-memory, Redis, etc).
// Implementations key records by upper-cased code, return
// domain.ErrSessionNotFound for unknown codes/ids, and wrap infrastructure
// failures with domain.StoreFailure.
type SessionStore interface {
	Create(ctx context.Context, s *domain.Session) error
	GetByCode(ctx context.Context, code string) (*domain.Session, error)
	GetByID(ctx context.Context, id string) (*domain.Session, error)
	Update(ctx context.Context, s *domain.Session) error
	ListAll(ctx context.Context) ([]*domain.Session, error)
	Delete(ctx context.Context, code string) error
}

// QuizRepository loads quiz content (from cache/backing store) when a
// session is created by reference instead of an inline snapshot.
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// Notifier delivers state-change events to subscribers of a session code.
// Delivery is best-effort: clients resync from the store, so a dropped
// event is recovered by the next poll.
type Notifier interface {
	Publish(code string, event domain.Event)
}

// Config carries the coordinator's pacing knobs.
type Config struct {
	// DefaultTimeLimit is the per-question budget in seconds for sessions
	// that don't specify one. Defaults to 30.
	DefaultTimeLimit int
	// AutoAdvanceGrace is how long after timer expiry the coordinator waits
	// before advancing on the host's behalf. Defaults to 2s.
	AutoAdvanceGrace time.Duration
}

// Coordinator owns the session state machine. Every mutating operation
// serializes on a per-session lock, re-reads the authoritative record from
// the store, persists before broadcasting, and schedules/cancels the
// question timer inside the same critical section.
type Coordinator struct {
	store    SessionStore
	quizzes  QuizRepository
	notifier Notifier
	codes    *CodeGenerator
	log      *zap.Logger

	clock func() time.Time
	tick  time.Duration
	grace time.Duration
	limit int

	mu     sync.Mutex
	locks  map[string]*sync.Mutex
	timers *timerSet
}

func NewCoordinator(store SessionStore, quizzes QuizRepository, notifier Notifier, log *zap.Logger, cfg Config) *Coordinator {
	if cfg.DefaultTimeLimit <= 0 {
		cfg.DefaultTimeLimit = 30
	}
	if cfg.AutoAdvanceGrace <= 0 {
		cfg.AutoAdvanceGrace = 2 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Coordinator{
		store:    store,
		quizzes:  quizzes,
		notifier: notifier,
		codes:    NewCodeGenerator(),
		log:      log,
		clock:    time.Now,
		tick:     time.Second,
		grace:    cfg.AutoAdvanceGrace,
		limit:    cfg.DefaultTimeLimit,
		locks:    make(map[string]*sync.Mutex),
		timers:   newTimerSet(),
	}
}

// NewCoordinatorWithClock is test-only for deterministic timestamps and
// fast timers.
func NewCoordinatorWithClock(store SessionStore, quizzes QuizRepository, notifier Notifier, cfg Config, clock func() time.Time, tick time.Duration) *Coordinator {
	c := NewCoordinator(store, quizzes, notifier, zap.NewNop(), cfg)
	if clock != nil {
		c.clock = clock
	}
	if tick > 0 {
		c.tick = tick
	}
	return c
}

// sessionLock returns the mutex serializing mutations for one session id.
func (c *Coordinator) sessionLock(sessionID string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.locks[sessionID]
	if !ok {
		l = &sync.Mutex{}
		c.locks[sessionID] = l
	}
	return l
}

// CreateSessionRequest describes a new session. Exactly one of Quiz (inline
// snapshot) or QuizID (resolved through the quiz repository) must be set.
type CreateSessionRequest struct {
	Quiz              *domain.Quiz
	QuizID            string
	PrizeAmount       float64
	HostWallet        string
	QuestionTimeLimit int // seconds; 0 means the configured default
}

// CreateSession validates the quiz content, generates a join code and
// persists a new waiting session.
func (c *Coordinator) CreateSession(ctx context.Context, req CreateSessionRequest) (*domain.Session, error) {
	if req.HostWallet == "" {
		return nil, domain.ErrMissingHost
	}
	if req.PrizeAmount < 0 {
		return nil, domain.ErrNegativePrize
	}

	var quiz domain.Quiz
	switch {
	case req.Quiz != nil:
		quiz = *req.Quiz
	case req.QuizID != "":
		if c.quizzes == nil {
			return nil, domain.ErrQuizNotFound
		}
		loaded, err := c.quizzes.GetQuiz(ctx, req.QuizID)
		if err != nil {
			return nil, err
		}
		quiz = loaded
	default:
		return nil, domain.ErrEmptyQuiz
	}
	if len(quiz.Questions) == 0 {
		return nil, domain.ErrEmptyQuiz
	}
	for _, q := range quiz.Questions {
		if q.CorrectOptionID() == "" {
			return nil, domain.ErrNoCorrectOption
		}
	}

	code, err := c.codes.Generate(ctx, c.store)
	if err != nil {
		return nil, fmt.Errorf("generate code: %w", err)
	}

	limit := req.QuestionTimeLimit
	if limit <= 0 {
		limit = c.limit
	}

	now := c.clock()
	session := &domain.Session{
		ID:                   uuid.NewString(),
		Code:                 code,
		Quiz:                 quiz,
		HostWallet:           req.HostWallet,
		PrizeAmount:          req.PrizeAmount,
		Status:               domain.StatusWaiting,
		CurrentQuestionIndex: -1,
		QuestionTimeLimit:    limit,
		Participants:         []domain.Participant{},
		CreatedAt:            now,
	}

	if err := c.store.Create(ctx, session); err != nil {
		return nil, err
	}
	metrics.SessionsCreated.Inc()
	metrics.ActiveSessions.Inc()

	c.notifier.Publish(code, domain.SessionCreated{Session: session.Redacted()})
	c.log.Info("session created",
		zap.String("sessionId", session.ID),
		zap.String("code", code),
		zap.Int("questions", len(quiz.Questions)),
		zap.Float64("prize", req.PrizeAmount))
	return session.Redacted(), nil
}

// JoinSession admits a participant into a waiting session. Joining twice
// with the same wallet is an idempotent success returning the existing
// participant, so network retries never create duplicates.
func (c *Coordinator) JoinSession(ctx context.Context, code, wallet, displayName string) (*domain.Session, *domain.Participant, error) {
	code = NormalizeCode(code)
	if !ValidCode(code) {
		return nil, nil, domain.ErrInvalidCode
	}
	if wallet == "" {
		return nil, nil, domain.ErrMissingFields
	}

	// Resolve the id first; the lock is keyed by session id.
	probe, err := c.store.GetByCode(ctx, code)
	if err != nil {
		return nil, nil, err
	}

	lock := c.sessionLock(probe.ID)
	lock.Lock()
	defer lock.Unlock()

	session, err := c.store.GetByCode(ctx, code)
	if err != nil {
		return nil, nil, err
	}
	switch session.Status {
	case domain.StatusActive:
		return nil, nil, domain.ErrAlreadyStarted
	case domain.StatusEnded:
		return nil, nil, domain.ErrSessionEnded
	}

	if existing := session.FindParticipantByWallet(wallet); existing != nil {
		if !existing.Connected {
			existing.Connected = true
			if err := c.store.Update(ctx, session); err != nil {
				return nil, nil, err
			}
		}
		out := *existing
		return session.Redacted(), &out, nil
	}

	now := c.clock()
	participant := domain.Participant{
		ID:          uuid.NewString(),
		Wallet:      wallet,
		DisplayName: displayName,
		JoinedAt:    now,
		Connected:   true,
		Score:       0,
		Answers:     []domain.Answer{},
	}
	if participant.DisplayName == "" {
		participant.DisplayName = fmt.Sprintf("Player %d", len(session.Participants)+1)
	}
	session.Participants = append(session.Participants, participant)

	if err := c.store.Update(ctx, session); err != nil {
		return nil, nil, err
	}
	metrics.ParticipantsJoined.Inc()

	c.notifier.Publish(code, domain.ParticipantJoined{
		Participant:       participant,
		TotalParticipants: len(session.Participants),
	})
	c.log.Info("participant joined",
		zap.String("code", code),
		zap.String("participantId", participant.ID),
		zap.Int("total", len(session.Participants)))
	return session.Redacted(), &participant, nil
}

// StartSession moves a waiting session to active, reveals the first
// question and starts its countdown. Host-only.
func (c *Coordinator) StartSession(ctx context.Context, sessionID, hostWallet string) (*domain.Session, error) {
	if sessionID == "" || hostWallet == "" {
		return nil, domain.ErrMissingFields
	}

	lock := c.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := c.store.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.HostWallet != hostWallet {
		c.log.Warn("start rejected: not host", zap.String("sessionId", sessionID), zap.String("caller", hostWallet))
		return nil, domain.ErrNotHost
	}
	switch session.Status {
	case domain.StatusActive:
		return nil, domain.ErrNotWaiting
	case domain.StatusEnded:
		return nil, domain.ErrSessionEnded
	}

	now := c.clock()
	session.Status = domain.StatusActive
	session.CurrentQuestionIndex = 0
	session.QuestionStartTime = now
	session.StartedAt = &now

	if err := c.store.Update(ctx, session); err != nil {
		return nil, err
	}

	question, _ := session.CurrentQuestion()
	c.notifier.Publish(session.Code, domain.SessionStarted{
		SessionID: session.ID,
		Question:  domain.RedactQuestion(question),
		TimeLimit: session.QuestionTimeLimit,
	})
	c.startQuestionTimer(session.ID, session.Code, 0, session.QuestionTimeLimit)

	c.log.Info("session started", zap.String("sessionId", session.ID), zap.String("code", session.Code))
	return session.Redacted(), nil
}

// AdvanceQuestion moves an active session to the next question, or ends it
// when the last question is exhausted. Host-only.
func (c *Coordinator) AdvanceQuestion(ctx context.Context, sessionID, hostWallet string) (*domain.Session, error) {
	if sessionID == "" || hostWallet == "" {
		return nil, domain.ErrMissingFields
	}

	lock := c.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := c.store.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.HostWallet != hostWallet {
		c.log.Warn("advance rejected: not host", zap.String("sessionId", sessionID), zap.String("caller", hostWallet))
		return nil, domain.ErrNotHost
	}
	switch session.Status {
	case domain.StatusWaiting:
		return nil, domain.ErrNotActive
	case domain.StatusEnded:
		return nil, domain.ErrSessionEnded
	}

	if err := c.advanceLocked(ctx, session); err != nil {
		return nil, err
	}
	return session.Redacted(), nil
}

// advanceLocked performs the advance-or-end transition. Caller holds the
// session lock and has verified the session is active.
func (c *Coordinator) advanceLocked(ctx context.Context, session *domain.Session) error {
	c.timers.cancel(session.ID)

	next := session.CurrentQuestionIndex + 1
	if next >= len(session.Quiz.Questions) {
		return c.endLocked(ctx, session)
	}

	now := c.clock()
	session.CurrentQuestionIndex = next
	session.QuestionStartTime = now

	if err := c.store.Update(ctx, session); err != nil {
		return err
	}

	question, _ := session.CurrentQuestion()
	c.notifier.Publish(session.Code, domain.QuestionChanged{
		QuestionIndex: next,
		Question:      domain.RedactQuestion(question),
		TimeLimit:     session.QuestionTimeLimit,
		TimeLeft:      session.QuestionTimeLimit,
	})
	c.startQuestionTimer(session.ID, session.Code, next, session.QuestionTimeLimit)

	c.log.Info("question advanced", zap.String("sessionId", session.ID), zap.Int("index", next))
	return nil
}

// EndSession finishes an active session early. Host-only.
func (c *Coordinator) EndSession(ctx context.Context, sessionID, hostWallet string) (*domain.Session, error) {
	if sessionID == "" || hostWallet == "" {
		return nil, domain.ErrMissingFields
	}

	lock := c.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := c.store.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.HostWallet != hostWallet {
		c.log.Warn("end rejected: not host", zap.String("sessionId", sessionID), zap.String("caller", hostWallet))
		return nil, domain.ErrNotHost
	}
	switch session.Status {
	case domain.StatusWaiting:
		return nil, domain.ErrNotActive
	case domain.StatusEnded:
		return nil, domain.ErrSessionEnded
	}

	if err := c.endLocked(ctx, session); err != nil {
		return nil, err
	}
	return session.Redacted(), nil
}

// endLocked finalizes the session: cancels the timer, computes results once,
// persists, then broadcasts. Caller holds the session lock.
func (c *Coordinator) endLocked(ctx context.Context, session *domain.Session) error {
	c.timers.cancel(session.ID)

	now := c.clock()
	session.Status = domain.StatusEnded
	session.EndedAt = &now
	results := BuildResults(session, now)
	session.Results = &results

	if err := c.store.Update(ctx, session); err != nil {
		return err
	}
	metrics.SessionsEnded.Inc()
	metrics.ActiveSessions.Dec()

	c.notifier.Publish(session.Code, domain.SessionEnded{Results: results})
	c.log.Info("session ended",
		zap.String("sessionId", session.ID),
		zap.String("code", session.Code),
		zap.Int("participants", len(session.Participants)))
	return nil
}

// autoAdvance is the timer-expiry path. It re-reads authoritative state
// under the session lock and only advances if the question it was armed for
// is still current.
func (c *Coordinator) autoAdvance(sessionID string, questionIndex int) {
	ctx := context.Background()

	lock := c.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := c.store.GetByID(ctx, sessionID)
	if err != nil {
		c.log.Warn("auto-advance: session fetch failed", zap.String("sessionId", sessionID), zap.Error(err))
		return
	}
	if session.Status != domain.StatusActive || session.CurrentQuestionIndex != questionIndex {
		return // host already moved on
	}
	metrics.AutoAdvances.Inc()
	if err := c.advanceLocked(ctx, session); err != nil {
		c.log.Warn("auto-advance failed", zap.String("sessionId", sessionID), zap.Error(err))
	}
}

// AnswerOutcome summarizes one accepted submission.
type AnswerOutcome struct {
	IsCorrect       bool                      `json:"isCorrect"`
	Awarded         int                       `json:"awarded"`
	NewScore        int                       `json:"score"`
	CorrectOptionID string                    `json:"correctOptionId"`
	Leaderboard     []domain.LeaderboardEntry `json:"leaderboard"`
}

// SubmitAnswer validates and scores one answer for the current question.
// Elapsed time is always derived from the question's authoritative start
// timestamp at the moment the answer is accepted.
func (c *Coordinator) SubmitAnswer(ctx context.Context, sessionID, participantID, questionID, optionID string) (AnswerOutcome, error) {
	if sessionID == "" || participantID == "" || questionID == "" || optionID == "" {
		return AnswerOutcome{}, domain.ErrMissingFields
	}

	lock := c.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := c.store.GetByID(ctx, sessionID)
	if err != nil {
		return AnswerOutcome{}, err
	}
	outcome, err := c.submitLocked(ctx, session, participantID, questionID, optionID)
	if err != nil {
		if reason := domain.ReasonOf(err); reason != "" {
			metrics.AnswersRejected.WithLabelValues(reason).Inc()
		}
		return AnswerOutcome{}, err
	}
	metrics.AnswersAccepted.Inc()
	return outcome, nil
}

func (c *Coordinator) submitLocked(ctx context.Context, session *domain.Session, participantID, questionID, optionID string) (AnswerOutcome, error) {
	switch session.Status {
	case domain.StatusWaiting:
		return AnswerOutcome{}, domain.ErrNotActive
	case domain.StatusEnded:
		return AnswerOutcome{}, domain.ErrSessionEnded
	}

	participant := session.FindParticipantByID(participantID)
	if participant == nil {
		return AnswerOutcome{}, domain.ErrParticipantNotFound
	}

	question, ok := session.CurrentQuestion()
	if !ok {
		return AnswerOutcome{}, domain.ErrNotActive
	}
	if question.ID != questionID {
		return AnswerOutcome{}, domain.ErrStaleQuestion
	}
	if participant.HasAnswered(questionID) {
		return AnswerOutcome{}, domain.ErrAlreadyAnswered
	}

	var selected *domain.Option
	for i := range question.Options {
		if question.Options[i].ID == optionID {
			selected = &question.Options[i]
			break
		}
	}
	if selected == nil {
		return AnswerOutcome{}, domain.ErrOptionNotFound
	}

	now := c.clock()
	elapsed := now.Sub(session.QuestionStartTime)
	if elapsed < 0 {
		elapsed = 0
	}

	delta := ScoreDelta(selected.IsCorrect, elapsed.Milliseconds(), session.QuestionTimeLimit)
	participant.Answers = append(participant.Answers, domain.Answer{
		QuestionID:    questionID,
		OptionID:      optionID,
		IsCorrect:     selected.IsCorrect,
		ElapsedMillis: elapsed.Milliseconds(),
		AnsweredAt:    now,
	})
	participant.Score += delta
	Rerank(session)

	// Persist before broadcasting so clients never observe a state a crash
	// would roll back.
	if err := c.store.Update(ctx, session); err != nil {
		return AnswerOutcome{}, err
	}

	entries := Leaderboard(session)
	c.notifier.Publish(session.Code, domain.LeaderboardUpdated{Entries: entries})

	return AnswerOutcome{
		IsCorrect:       selected.IsCorrect,
		Awarded:         delta,
		NewScore:        participant.Score,
		CorrectOptionID: question.CorrectOptionID(),
		Leaderboard:     entries,
	}, nil
}

// LeaveSession marks a participant disconnected. The participant and their
// answers remain part of the session so final results stay complete.
func (c *Coordinator) LeaveSession(ctx context.Context, sessionID, participantID string) error {
	if sessionID == "" || participantID == "" {
		return domain.ErrMissingFields
	}

	lock := c.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := c.store.GetByID(ctx, sessionID)
	if err != nil {
		return err
	}
	participant := session.FindParticipantByID(participantID)
	if participant == nil {
		return domain.ErrParticipantNotFound
	}
	if !participant.Connected {
		return nil // already gone; leaving is idempotent
	}
	participant.Connected = false

	if err := c.store.Update(ctx, session); err != nil {
		return err
	}
	c.notifier.Publish(session.Code, domain.ParticipantLeft{
		ParticipantID:     participantID,
		TotalParticipants: len(session.Participants),
	})
	return nil
}

// PingSession is a lightweight existence check that never mutates state.
func (c *Coordinator) PingSession(ctx context.Context, code string) (domain.PingSummary, error) {
	code = NormalizeCode(code)
	if !ValidCode(code) {
		return domain.PingSummary{}, domain.ErrInvalidCode
	}
	session, err := c.store.GetByCode(ctx, code)
	if err != nil {
		return domain.PingSummary{}, err
	}
	return domain.PingSummary{
		Exists:           true,
		Title:            session.Quiz.Title,
		Code:             session.Code,
		Status:           session.Status,
		ParticipantCount: len(session.Participants),
		PrizeAmount:      session.PrizeAmount,
	}, nil
}

// GetSession returns the authoritative session state for poll-based resync,
// redacted while the session has not ended.
func (c *Coordinator) GetSession(ctx context.Context, code string) (*domain.Session, error) {
	code = NormalizeCode(code)
	if !ValidCode(code) {
		return nil, domain.ErrInvalidCode
	}
	session, err := c.store.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return session.Redacted(), nil
}

// GetLeaderboard returns the current scoreboard for a session.
func (c *Coordinator) GetLeaderboard(ctx context.Context, code string) ([]domain.LeaderboardEntry, error) {
	session, err := c.GetSession(ctx, code)
	if err != nil {
		return nil, err
	}
	return Leaderboard(session), nil
}

// GetResults returns the final summary of an ended session.
func (c *Coordinator) GetResults(ctx context.Context, code string) (domain.QuizResults, error) {
	code = NormalizeCode(code)
	if !ValidCode(code) {
		return domain.QuizResults{}, domain.ErrInvalidCode
	}
	session, err := c.store.GetByCode(ctx, code)
	if err != nil {
		return domain.QuizResults{}, err
	}
	if session.Status != domain.StatusEnded || session.Results == nil {
		return domain.QuizResults{}, domain.ErrNotEnded
	}
	return *session.Results, nil
}
