package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/medflow-health/intake-service/internal/engine"
	"github.com/medflow-health/intake-service/internal/events"
	"github.com/medflow-health/intake-service/internal/models"
	"github.com/medflow-health/intake-service/internal/utils"
)

// SessionService runs wizard sessions over quiz schemas. Sessions live in
// memory; their answer state is write-through persisted so a returning
// client resumes where it left off.
type SessionService interface {
	Start(ctx context.Context, quizSlug, clientID string) (*SessionInfo, error)
	Answer(ctx context.Context, sessionID, questionID string, value models.Value) (*engine.StepView, error)
	Current(ctx context.Context, sessionID string) (*engine.StepView, error)
	Next(ctx context.Context, sessionID string) (*NavigationResponse, error)
	Prev(ctx context.Context, sessionID string) (*NavigationResponse, error)
	Restart(ctx context.Context, sessionID string) (*engine.StepView, error)
	Session(sessionID string) (*engine.Session, error)
	End(sessionID string)
}

// SessionInfo is the response to a session start: the id to carry on
// subsequent calls plus the first step to render.
type SessionInfo struct {
	SessionID string          `json:"sessionId"`
	QuizSlug  string          `json:"quizSlug"`
	QuizName  string          `json:"quizName"`
	Resumed   bool            `json:"resumed"`
	Step      engine.StepView `json:"step"`
}

// NavigationResponse reports the outcome of a navigation request.
type NavigationResponse struct {
	Status   string           `json:"status"` // "blocked", "advanced", "finished", "exited", "moved"
	Step     *engine.StepView `json:"step,omitempty"`
	Complete bool             `json:"complete"`
}

type sessionEntry struct {
	session  *engine.Session
	quizSlug string
}

type sessionService struct {
	mu       sync.RWMutex
	sessions map[string]*sessionEntry

	quizzes   QuizService
	store     engine.StateStore
	publisher events.EventPublisher
	logger    *slog.Logger
	opLogger  *ServiceLogger
}

func NewSessionService(quizzes QuizService, store engine.StateStore, publisher events.EventPublisher, logger *slog.Logger) SessionService {
	return &sessionService{
		sessions:  make(map[string]*sessionEntry),
		quizzes:   quizzes,
		store:     store,
		publisher: publisher,
		logger:    logger,
		opLogger: NewServiceLogger(logger, LogConfig{
			Service:   "intake-service",
			Component: "session_service",
		}),
	}
}

// Start creates a session for the quiz and restores any persisted progress
// for the client. An empty clientID still works; persistence then keys on
// the quiz alone.
func (s *sessionService) Start(ctx context.Context, quizSlug, clientID string) (*SessionInfo, error) {
	sessionID := uuid.New().String()
	op := s.opLogger.WithOperation(ctx, "start_session", sessionID)

	cfg, err := s.quizzes.GetConfig(ctx, quizSlug)
	if err != nil {
		op.LogResult(quizSlug, err)
		return nil, err
	}

	var opts []engine.SessionOption
	if s.store != nil {
		opts = append(opts, engine.WithStateStore(scopedStore{inner: s.store, scope: clientID}))
	}
	session := engine.NewSession(cfg, utils.FromSlogLogger(s.logger), opts...)

	resumed := false
	if s.store != nil {
		before := session.Answers()
		if err := session.Restore(ctx); err != nil {
			s.logger.Warn("Failed to restore session state", "quiz", quizSlug, "error", err)
		} else {
			resumed = answersDiffer(before, session.Answers())
		}
	}

	s.mu.Lock()
	s.sessions[sessionID] = &sessionEntry{session: session, quizSlug: quizSlug}
	s.mu.Unlock()

	view, err := session.Current()
	if err != nil {
		op.LogResult(quizSlug, err)
		return nil, fmt.Errorf("%w: %v", ErrQuizInvalidSchema, err)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishIntakeEvent(ctx, events.NewSessionStartedEvent(sessionID, quizSlug, resumed)); err != nil {
			s.logger.Warn("Failed to publish session started event", "session_id", sessionID, "error", err)
		}
	}

	op.LogResult(quizSlug, nil)
	return &SessionInfo{
		SessionID: sessionID,
		QuizSlug:  quizSlug,
		QuizName:  cfg.Name,
		Resumed:   resumed,
		Step:      view,
	}, nil
}

func (s *sessionService) Answer(ctx context.Context, sessionID, questionID string, value models.Value) (*engine.StepView, error) {
	entry, err := s.entry(sessionID)
	if err != nil {
		return nil, err
	}

	if err := entry.session.SetAnswer(ctx, questionID, value); err != nil {
		return nil, NewValidationError("questionId", "unknown question", questionID)
	}

	view, err := entry.session.Current()
	if err != nil {
		return nil, err
	}
	return &view, nil
}

func (s *sessionService) Current(ctx context.Context, sessionID string) (*engine.StepView, error) {
	entry, err := s.entry(sessionID)
	if err != nil {
		return nil, err
	}
	view, err := entry.session.Current()
	if err != nil {
		return nil, err
	}
	return &view, nil
}

func (s *sessionService) Next(ctx context.Context, sessionID string) (*NavigationResponse, error) {
	entry, err := s.entry(sessionID)
	if err != nil {
		return nil, err
	}

	result := entry.session.Next(ctx)
	resp := &NavigationResponse{Complete: entry.session.IsComplete()}
	switch result {
	case engine.NavBlocked:
		resp.Status = "blocked"
	case engine.NavAdvanced:
		resp.Status = "advanced"
	case engine.NavFinished:
		resp.Status = "finished"
	}

	view, err := entry.session.Current()
	if err == nil {
		resp.Step = &view
	}
	return resp, nil
}

func (s *sessionService) Prev(ctx context.Context, sessionID string) (*NavigationResponse, error) {
	entry, err := s.entry(sessionID)
	if err != nil {
		return nil, err
	}

	resp := &NavigationResponse{Status: "moved", Complete: entry.session.IsComplete()}
	if entry.session.Prev(ctx) {
		resp.Status = "exited"
	}

	view, err := entry.session.Current()
	if err == nil {
		resp.Step = &view
	}
	return resp, nil
}

func (s *sessionService) Restart(ctx context.Context, sessionID string) (*engine.StepView, error) {
	entry, err := s.entry(sessionID)
	if err != nil {
		return nil, err
	}

	entry.session.Restart(ctx)
	view, err := entry.session.Current()
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// Session exposes the underlying engine session, used by submission.
func (s *sessionService) Session(sessionID string) (*engine.Session, error) {
	entry, err := s.entry(sessionID)
	if err != nil {
		return nil, err
	}
	return entry.session, nil
}

// End drops a session from the registry.
func (s *sessionService) End(sessionID string) {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
}

func (s *sessionService) entry(sessionID string) (*sessionEntry, error) {
	s.mu.RLock()
	entry, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return entry, nil
}

// answersDiffer reports whether any restored answer deviates from defaults.
func answersDiffer(a, b models.AnswerMap) bool {
	if len(a) != len(b) {
		return true
	}
	for k, v := range a {
		if !v.Equal(b[k]) {
			return true
		}
	}
	return false
}

// scopedStore namespaces persistence keys per client so concurrent intakes
// of the same quiz do not clobber each other.
type scopedStore struct {
	inner engine.StateStore
	scope string
}

func (s scopedStore) key(quizID string) string {
	if s.scope == "" {
		return quizID
	}
	return s.scope + ":" + quizID
}

func (s scopedStore) SaveAnswers(ctx context.Context, quizID string, answers models.AnswerMap) error {
	return s.inner.SaveAnswers(ctx, s.key(quizID), answers)
}

func (s scopedStore) LoadAnswers(ctx context.Context, quizID string) (models.AnswerMap, bool, error) {
	return s.inner.LoadAnswers(ctx, s.key(quizID))
}

func (s scopedStore) SaveStep(ctx context.Context, quizID string, index int) error {
	return s.inner.SaveStep(ctx, s.key(quizID), index)
}

func (s scopedStore) LoadStep(ctx context.Context, quizID string) (int, bool, error) {
	return s.inner.LoadStep(ctx, s.key(quizID))
}

func (s scopedStore) MarkCompleted(ctx context.Context, quizID string) error {
	return s.inner.MarkCompleted(ctx, s.key(quizID))
}

func (s scopedStore) Clear(ctx context.Context, quizID string) error {
	return s.inner.Clear(ctx, s.key(quizID))
}
