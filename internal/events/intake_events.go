package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents different types of intake events
type EventType string

const (
	// Session events
	EventSessionStarted  EventType = "intake.session_started"
	EventSessionRestored EventType = "intake.session_restored"

	// Submission events
	EventSubmissionCompleted EventType = "intake.submission_completed"
	EventSubmissionFailed    EventType = "intake.submission_failed"
)

// IntakeEvent is the base event structure for all intake events
type IntakeEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Session event payloads

type SessionStartedEvent struct {
	SessionID string    `json:"session_id"`
	QuizSlug  string    `json:"quiz_slug"`
	Resumed   bool      `json:"resumed"`
	StartedAt time.Time `json:"started_at"`
}

// Submission event payloads

type SubmissionCompletedEvent struct {
	SubmissionID  uint      `json:"submission_id"`
	SessionID     string    `json:"session_id"`
	QuizSlug      string    `json:"quiz_slug"`
	QuizName      string    `json:"quiz_name"`
	Email         string    `json:"email"`
	QuestionCount int       `json:"question_count"`
	SubmittedAt   time.Time `json:"submitted_at"`
}

type SubmissionFailedEvent struct {
	SessionID string    `json:"session_id"`
	QuizSlug  string    `json:"quiz_slug"`
	Reason    string    `json:"reason"`
	FailedAt  time.Time `json:"failed_at"`
}

// Event factory functions

func NewSessionStartedEvent(sessionID, quizSlug string, resumed bool) *IntakeEvent {
	return &IntakeEvent{
		ID:        generateEventID(),
		Type:      EventSessionStarted,
		Timestamp: time.Now(),
		Source:    "intake-service",
		Version:   "1.0",
		Data: SessionStartedEvent{
			SessionID: sessionID,
			QuizSlug:  quizSlug,
			Resumed:   resumed,
			StartedAt: time.Now(),
		},
	}
}

func NewSubmissionCompletedEvent(submissionID uint, sessionID, quizSlug, quizName, email string, questionCount int, submittedAt time.Time) *IntakeEvent {
	return &IntakeEvent{
		ID:        generateEventID(),
		Type:      EventSubmissionCompleted,
		Timestamp: time.Now(),
		Source:    "intake-service",
		Version:   "1.0",
		Data: SubmissionCompletedEvent{
			SubmissionID:  submissionID,
			SessionID:     sessionID,
			QuizSlug:      quizSlug,
			QuizName:      quizName,
			Email:         email,
			QuestionCount: questionCount,
			SubmittedAt:   submittedAt,
		},
	}
}

func NewSubmissionFailedEvent(sessionID, quizSlug, reason string) *IntakeEvent {
	return &IntakeEvent{
		ID:        generateEventID(),
		Type:      EventSubmissionFailed,
		Timestamp: time.Now(),
		Source:    "intake-service",
		Version:   "1.0",
		Data: SubmissionFailedEvent{
			SessionID: sessionID,
			QuizSlug:  quizSlug,
			Reason:    reason,
			FailedAt:  time.Now(),
		},
	}
}

func generateEventID() string {
	return uuid.New().String()
}
