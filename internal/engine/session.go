package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/medflow-health/intake-service/internal/interpolate"
	"github.com/medflow-health/intake-service/internal/models"
	"github.com/medflow-health/intake-service/internal/rules"
	"github.com/medflow-health/intake-service/internal/utils"
	"github.com/medflow-health/intake-service/internal/validation"
)

// ErrUnknownQuestion is returned when an answer targets a question id that
// does not exist in the quiz schema.
var ErrUnknownQuestion = errors.New("unknown question")

// StateStore persists wizard progress between visits. The engine treats it as
// best-effort: save failures are logged, never surfaced to navigation.
type StateStore interface {
	SaveAnswers(ctx context.Context, quizID string, answers models.AnswerMap) error
	LoadAnswers(ctx context.Context, quizID string) (models.AnswerMap, bool, error)
	SaveStep(ctx context.Context, quizID string, index int) error
	LoadStep(ctx context.Context, quizID string) (int, bool, error)
	MarkCompleted(ctx context.Context, quizID string) error
	Clear(ctx context.Context, quizID string) error
}

// NavResult is the outcome of a forward navigation attempt.
type NavResult int

const (
	// NavBlocked means the current step is incomplete and the cursor did
	// not move.
	NavBlocked NavResult = iota
	// NavAdvanced means the cursor moved to the next visible step.
	NavAdvanced
	// NavFinished means the last visible step was already complete and the
	// wizard is ready for submission.
	NavFinished
)

// StepView is the display snapshot of the current step: interpolated copy
// plus position within the visible sequence and the coarse progress phase.
type StepView struct {
	Step          models.FormStep `json:"step"`
	Index         int             `json:"index"`
	TotalSteps    int             `json:"totalSteps"`
	ProgressIndex int             `json:"progressIndex"`
}

// Session is the mutable state of one wizard run: the answers, the cursor
// into the visible step sequence and the monotonic progress marker. All
// methods are safe for concurrent use; the quiz schema itself is read-only.
type Session struct {
	mu sync.Mutex

	quiz       *models.QuizConfig
	answers    models.AnswerMap
	cursor     int
	progress   int
	evaluator  *rules.Evaluator
	completion *CompletionEvaluator
	store      StateStore
	logger     utils.Logger
}

// SessionOption configures optional session collaborators.
type SessionOption func(*Session)

// WithStateStore enables write-through persistence of answers and cursor.
func WithStateStore(store StateStore) SessionOption {
	return func(s *Session) { s.store = store }
}

// WithFieldValidator overrides the validator used for completion checks.
func WithFieldValidator(fields *validation.FieldValidator) SessionOption {
	return func(s *Session) { s.completion = NewCompletionEvaluator(fields) }
}

// NewSession starts a fresh run of the quiz with every question pre-seeded
// with its unanswered default.
func NewSession(quiz *models.QuizConfig, logger utils.Logger, opts ...SessionOption) *Session {
	if logger == nil {
		logger = utils.NewDefaultLogger()
	}

	answers := make(models.AnswerMap)
	for _, q := range quiz.AllQuestions() {
		answers[q.ID] = q.DefaultAnswer()
	}

	s := &Session{
		quiz:       quiz,
		answers:    answers,
		evaluator:  rules.NewEvaluator(),
		completion: NewCompletionEvaluator(nil),
		logger:     logger.With("quiz", quiz.ID),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.syncProgressLocked()
	return s
}

// Restore loads persisted answers and repositions the cursor: the last step
// when the whole quiz is already complete, otherwise the first incomplete
// step. A missing or malformed saved state leaves the fresh defaults intact.
func (s *Session) Restore(ctx context.Context) error {
	if s.store == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	saved, ok, err := s.store.LoadAnswers(ctx, s.quiz.ID)
	if err != nil {
		return fmt.Errorf("restore %s: %w", s.quiz.ID, err)
	}
	if !ok {
		return nil
	}

	// Only restore answers for questions the current schema still has, so
	// stale keys from older schema versions cannot leak into payloads.
	for _, q := range s.quiz.AllQuestions() {
		if v, exists := saved[q.ID]; exists {
			s.answers[q.ID] = v
		}
	}

	visible := s.visibleStepsLocked()
	if len(visible) == 0 {
		s.cursor = 0
		return nil
	}

	// First incomplete step, or the last step when everything is complete.
	s.cursor = s.completion.NextIncompleteStepIndex(visible, s.answers)
	s.syncProgressLocked()
	return nil
}

// SetAnswer records an answer and re-evaluates visibility. Multiselect
// scalars are wrapped into single-element lists. If the visible sequence
// shrank underneath the cursor, the cursor resets to the first step.
func (s *Session) SetAnswer(ctx context.Context, questionID string, value models.Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	question, ok := s.findQuestionLocked(questionID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownQuestion, questionID)
	}

	if question.Type == models.TypeMultiSelect && value.Kind != models.KindList {
		if value.Kind == models.KindNull {
			value = models.ListValue()
		} else {
			value = models.ListValue(value.AsString())
		}
	}
	s.answers[questionID] = value

	visible := s.visibleStepsLocked()
	if s.cursor >= len(visible) {
		s.cursor = 0
	}
	s.syncProgressLocked()
	s.saveLocked(ctx)
	return nil
}

// Answers returns a snapshot of the current answer state.
func (s *Session) Answers() models.AnswerMap {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.answers.Clone()
}

// VisibleSteps returns the steps whose render conditions currently hold, in
// schema order.
func (s *Session) VisibleSteps() []models.FormStep {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visibleStepsLocked()
}

// Current returns the interpolated view of the step under the cursor.
func (s *Session) Current() (StepView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	visible := s.visibleStepsLocked()
	if len(visible) == 0 {
		return StepView{}, fmt.Errorf("quiz %s has no visible steps", s.quiz.ID)
	}
	if s.cursor >= len(visible) {
		s.cursor = 0
	}

	return StepView{
		Step:          interpolate.Step(visible[s.cursor], s.answers),
		Index:         s.cursor,
		TotalSteps:    len(visible),
		ProgressIndex: s.progress,
	}, nil
}

// Next attempts to advance past the current step. The move is refused while
// the step is incomplete; advancing past the last visible step reports the
// wizard finished instead of moving.
func (s *Session) Next(ctx context.Context) NavResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	visible := s.visibleStepsLocked()
	if len(visible) == 0 {
		return NavFinished
	}
	if s.cursor >= len(visible) {
		s.cursor = 0
	}

	if !s.completion.IsStepComplete(visible[s.cursor], s.answers) {
		return NavBlocked
	}
	if s.cursor == len(visible)-1 {
		return NavFinished
	}

	s.cursor++
	s.syncProgressLocked()
	s.saveLocked(ctx)
	return NavAdvanced
}

// Prev moves one step back. At the first step the cursor stays put and the
// caller is told the user is trying to leave the wizard.
func (s *Session) Prev(ctx context.Context) (exiting bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cursor == 0 {
		return true
	}
	s.cursor--
	s.saveLocked(ctx)
	return false
}

// Restart wipes the session back to defaults and clears persisted state.
func (s *Session) Restart(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.answers = make(models.AnswerMap)
	for _, q := range s.quiz.AllQuestions() {
		s.answers[q.ID] = q.DefaultAnswer()
	}
	s.cursor = 0
	s.progress = 0
	s.evaluator.ClearCache()
	s.syncProgressLocked()

	if s.store != nil {
		if err := s.store.Clear(ctx, s.quiz.ID); err != nil {
			s.logger.Warn("failed to clear persisted state", "error", err)
		}
	}
}

// Finalize wipes the in-progress state after a successful submission and
// flags the quiz as completed. The completed flag survives the wipe.
func (s *Session) Finalize(ctx context.Context) error {
	if s.store == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Clear(ctx, s.quiz.ID); err != nil {
		s.logger.Warn("failed to clear persisted state on finalize", "error", err)
	}
	if err := s.store.MarkCompleted(ctx, s.quiz.ID); err != nil {
		return fmt.Errorf("mark %s completed: %w", s.quiz.ID, err)
	}
	return nil
}

// IsComplete reports whether every visible step is complete.
func (s *Session) IsComplete() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	visible := s.visibleStepsLocked()
	return s.completion.LastCompletedStepIndex(visible, s.answers) == len(visible)-1
}

// Quiz exposes the read-only schema the session runs.
func (s *Session) Quiz() *models.QuizConfig {
	return s.quiz
}

func (s *Session) visibleStepsLocked() []models.FormStep {
	visible := make([]models.FormStep, 0, len(s.quiz.Steps))
	for _, step := range s.quiz.Steps {
		if s.evaluator.Evaluate(step.RenderCondition, s.answers) {
			visible = append(visible, step)
		}
	}
	return visible
}

func (s *Session) findQuestionLocked(questionID string) (models.Question, bool) {
	for _, step := range s.quiz.Steps {
		for _, q := range step.Questions {
			if q.ID == questionID {
				return q, true
			}
		}
	}
	return models.Question{}, false
}

// syncProgressLocked advances the coarse progress marker to the phase of the
// step under the cursor. The marker only moves forward; steps without a
// phase mapping leave it untouched.
func (s *Session) syncProgressLocked() {
	visible := s.visibleStepsLocked()
	if len(visible) == 0 || s.cursor >= len(visible) {
		return
	}
	if idx, ok := s.quiz.ProgressIndexFor(visible[s.cursor].ID); ok && idx > s.progress {
		s.progress = idx
	}
}

func (s *Session) saveLocked(ctx context.Context) {
	if s.store == nil {
		return
	}
	if err := s.store.SaveAnswers(ctx, s.quiz.ID, s.answers); err != nil {
		s.logger.Warn("failed to persist answers", "error", err)
	}
	if err := s.store.SaveStep(ctx, s.quiz.ID, s.cursor); err != nil {
		s.logger.Warn("failed to persist step cursor", "error", err)
	}
}
