package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// FilePayload is the resolved file triple attached to FILE answers in the
// submission record.
type FilePayload struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Data        string `json:"data"`
}

// QuestionPayload is one flattened question entry of the submission record.
// Answer is a string, a []string or a []FilePayload depending on the
// question's api type.
type QuestionPayload struct {
	Question string      `json:"question"`
	Answer   interface{} `json:"answer"`
	Type     APIType     `json:"type"`
	Options  []string    `json:"options,omitempty"`
	Required bool        `json:"required,omitempty"`
}

// ShippingAddress is forwarded to the intake API verbatim when checkout
// supplies one.
type ShippingAddress struct {
	AddressLine1 string `json:"addressLine1"`
	AddressLine2 string `json:"addressLine2,omitempty"`
	City         string `json:"city"`
	State        string `json:"state"`
	PostalCode   string `json:"postalCode"`
	Country      string `json:"country"`
}

// SubmissionRecord is the flattened, submission-ready shape consumed by the
// external intake API.
type SubmissionRecord struct {
	QuizID          string            `json:"quizId"`
	FirstName       string            `json:"firstName"`
	LastName        string            `json:"lastName"`
	Email           string            `json:"email"`
	PhoneNumber     string            `json:"phoneNumber"`
	DOB             string            `json:"dob"`
	Gender          string            `json:"gender"`
	FormTitle       string            `json:"formTitle"`
	FormDescription string            `json:"formDescription"`
	ShippingAddress *ShippingAddress  `json:"shippingAddress,omitempty"`
	Questions       []QuestionPayload `json:"questions"`
	PromoCodes      map[string]string `json:"promoCodes"`
	SubmittedAt     time.Time         `json:"submittedAt"`
}

// Submission is the stored copy of a finalized submission record.
type Submission struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	QuizSlug    string         `json:"quiz_slug" gorm:"not null;index;size:120"`
	Payload     datatypes.JSON `json:"payload" gorm:"not null"`
	SubmittedAt time.Time      `json:"submitted_at" gorm:"not null;index"`

	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Submission) TableName() string {
	return "submissions"
}

// PersistedState is the secondary, larger-capacity persistence store backing
// the key-value adapter when a value exceeds the primary store's budget.
type PersistedState struct {
	Key       string    `json:"key" gorm:"primaryKey;size:255"`
	Value     []byte    `json:"value" gorm:"not null"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (PersistedState) TableName() string {
	return "persisted_states"
}
