package payload

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medflow-health/intake-service/internal/filestore"
	"github.com/medflow-health/intake-service/internal/models"
)

// stubFileStore serves canned uploads by id.
type stubFileStore struct {
	files map[string]filestore.FileData
}

func (s *stubFileStore) Save(context.Context, string, string, string) (string, error) {
	return "", nil
}

func (s *stubFileStore) Fetch(_ context.Context, fileID string) (filestore.FileData, error) {
	fd, ok := s.files[fileID]
	if !ok {
		return filestore.FileData{}, filestore.ErrFileNotFound
	}
	return fd, nil
}

func (s *stubFileStore) Delete(context.Context, string) error { return nil }

func payloadQuiz() *models.QuizConfig {
	return &models.QuizConfig{
		ID:          "weight-loss-intake",
		Name:        "Weight Loss Intake",
		Description: "GLP-1 eligibility intake",
		Steps: []models.FormStep{
			{
				ID: "about",
				Questions: []models.Question{
					{ID: "firstName", Question: "First name", Type: models.TypeText, APIType: models.APITypeText, Required: true},
					{ID: "hero", Type: models.TypeMarketing},
					{ID: "internal", Type: models.TypeText},
				},
			},
			{
				ID: "medical",
				Questions: []models.Question{
					{
						ID:       "gender",
						Question: "Gender",
						Type:     models.TypeSingleSelect,
						APIType:  models.APITypeSingleSelect,
						Options:  []string{"female", "male"},
					},
					{
						ID:       "conditions",
						Question: "Known conditions",
						Type:     models.TypeMultiSelect,
						APIType:  models.APITypeMultiSelect,
						Options:  []string{"asthma", "diabetes"},
					},
					{ID: "idPhoto", Question: "Photo ID", Type: models.TypeFileInput, APIType: models.APITypeFile},
					{ID: "optionalNotes", Question: "Notes", Type: models.TypeTextarea, APIType: models.APITypeText},
				},
			},
		},
	}
}

func TestBuild_SkipsPresentationalUntaggedAndUnanswered(t *testing.T) {
	b := NewBuilder(nil, nil)
	quiz := payloadQuiz()
	answers := models.AnswerMap{
		"firstName": models.StringValue("Dana"),
		"internal":  models.StringValue("hidden"),
		// optionalNotes left unanswered, gender null.
		"gender": models.NullValue(),
	}

	record := b.Build(context.Background(), quiz, quiz.Steps, answers, Options{})

	require.Len(t, record.Questions, 1)
	assert.Equal(t, "First name", record.Questions[0].Question)
	assert.Equal(t, "Dana", record.Questions[0].Answer)
	assert.Equal(t, models.APITypeText, record.Questions[0].Type)
	assert.True(t, record.Questions[0].Required)
}

func TestBuild_SingleSelectTakesFirstListElement(t *testing.T) {
	b := NewBuilder(nil, nil)
	quiz := payloadQuiz()
	answers := models.AnswerMap{"gender": models.ListValue("female", "male")}

	record := b.Build(context.Background(), quiz, quiz.Steps, answers, Options{})

	require.Len(t, record.Questions, 1)
	assert.Equal(t, "female", record.Questions[0].Answer)
	assert.Equal(t, []string{"female", "male"}, record.Questions[0].Options)
}

func TestBuild_MultiSelectAlwaysEmitsList(t *testing.T) {
	b := NewBuilder(nil, nil)
	quiz := payloadQuiz()

	// A legacy scalar answer still comes out as a list.
	record := b.Build(context.Background(), quiz, quiz.Steps,
		models.AnswerMap{"conditions": models.StringValue("asthma")}, Options{})
	require.Len(t, record.Questions, 1)
	assert.Equal(t, []string{"asthma"}, record.Questions[0].Answer)

	record = b.Build(context.Background(), quiz, quiz.Steps,
		models.AnswerMap{"conditions": models.ListValue("asthma", "diabetes")}, Options{})
	require.Len(t, record.Questions, 1)
	assert.Equal(t, []string{"asthma", "diabetes"}, record.Questions[0].Answer)
}

func TestBuild_FileAnswerWithInlineData(t *testing.T) {
	b := NewBuilder(nil, nil)
	quiz := payloadQuiz()
	content := base64.StdEncoding.EncodeToString([]byte("img"))
	answers := models.AnswerMap{
		"idPhoto": models.FileValue(&models.FileRef{
			Name:        "id.jpg",
			ContentType: "image/jpeg",
			Data:        content,
		}),
	}

	record := b.Build(context.Background(), quiz, quiz.Steps, answers, Options{})

	require.Len(t, record.Questions, 1)
	files, ok := record.Questions[0].Answer.([]models.FilePayload)
	require.True(t, ok)
	require.Len(t, files, 1)
	assert.Equal(t, "id.jpg", files[0].Name)
	assert.Equal(t, content, files[0].Data)
}

func TestBuild_FileAnswerResolvedFromStore(t *testing.T) {
	content := base64.StdEncoding.EncodeToString([]byte("img"))
	store := &stubFileStore{files: map[string]filestore.FileData{
		"f-1": {Name: "id.jpg", ContentType: "image/jpeg", Data: content, Size: 3},
	}}
	b := NewBuilder(store, nil)
	quiz := payloadQuiz()
	answers := models.AnswerMap{
		"idPhoto": models.FileValue(&models.FileRef{Name: "id.jpg", FileID: "f-1"}),
	}

	record := b.Build(context.Background(), quiz, quiz.Steps, answers, Options{})

	require.Len(t, record.Questions, 1)
	files, ok := record.Questions[0].Answer.([]models.FilePayload)
	require.True(t, ok)
	require.Len(t, files, 1)
	assert.Equal(t, content, files[0].Data)
}

func TestBuild_UnresolvableFileDegradesToEmptyList(t *testing.T) {
	b := NewBuilder(&stubFileStore{files: map[string]filestore.FileData{}}, nil)
	quiz := payloadQuiz()
	answers := models.AnswerMap{
		"idPhoto": models.FileValue(&models.FileRef{Name: "id.jpg", FileID: "gone"}),
	}

	record := b.Build(context.Background(), quiz, quiz.Steps, answers, Options{})

	require.Len(t, record.Questions, 1)
	files, ok := record.Questions[0].Answer.([]models.FilePayload)
	require.True(t, ok)
	assert.Empty(t, files)
}

func TestBuild_TopLevelFields(t *testing.T) {
	b := NewBuilder(nil, nil)
	quiz := payloadQuiz()
	answers := models.AnswerMap{
		"firstName":   models.StringValue("Dana"),
		"lastName":    models.StringValue("Reyes"),
		"email":       models.StringValue("dana@example.com"),
		"phoneNumber": models.StringValue("(555) 123-4567"),
		"gender":      models.StringValue("female"),
		"dobYear":     models.NumberValue(1990),
		"dobMonth":    models.NumberValue(7),
		"dobDay":      models.NumberValue(4),
	}

	record := b.Build(context.Background(), quiz, quiz.Steps, answers, Options{
		PromoCodes: map[string]string{"INTRO10": "applied"},
	})

	assert.Equal(t, "weight-loss-intake", record.QuizID)
	assert.Equal(t, "Dana", record.FirstName)
	assert.Equal(t, "Reyes", record.LastName)
	assert.Equal(t, "+15551234567", record.PhoneNumber)
	assert.Equal(t, "1990-07-04", record.DOB)
	assert.Equal(t, "FEMALE", record.Gender)
	assert.Equal(t, "Weight Loss Intake", record.FormTitle)
	assert.Equal(t, "GLP-1 eligibility intake", record.FormDescription)
	assert.Equal(t, map[string]string{"INTRO10": "applied"}, record.PromoCodes)
	assert.False(t, record.SubmittedAt.IsZero())
}

func TestBuild_LabelFallback(t *testing.T) {
	b := NewBuilder(nil, nil)
	quiz := &models.QuizConfig{
		ID: "q",
		Steps: []models.FormStep{{
			ID: "s",
			Questions: []models.Question{
				{ID: "mystery", Type: models.TypeText, APIType: models.APITypeText},
			},
		}},
	}

	record := b.Build(context.Background(), quiz, quiz.Steps,
		models.AnswerMap{"mystery": models.StringValue("x")}, Options{})

	require.Len(t, record.Questions, 1)
	assert.Equal(t, "Question mystery", record.Questions[0].Question)
}
