package payload

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/medflow-health/intake-service/internal/filestore"
	"github.com/medflow-health/intake-service/internal/models"
	"github.com/medflow-health/intake-service/internal/utils"
	"github.com/medflow-health/intake-service/internal/validation"
)

// Builder flattens answered questions into the submission record shape the
// downstream intake API expects. File answers resolve back to full content
// through the file store.
type Builder struct {
	files  filestore.Store
	logger utils.Logger
	now    func() time.Time
}

func NewBuilder(files filestore.Store, logger utils.Logger) *Builder {
	if logger == nil {
		logger = utils.NewDefaultLogger()
	}
	return &Builder{files: files, logger: logger, now: time.Now}
}

// Options carries submission fields that come from outside the answer map.
type Options struct {
	PromoCodes      map[string]string
	ShippingAddress *models.ShippingAddress
}

// Build assembles the submission record from the given step sequence. Only
// answered, non-presentational questions with an api type are emitted;
// everything else is silently skipped.
func (b *Builder) Build(ctx context.Context, quiz *models.QuizConfig, steps []models.FormStep, answers models.AnswerMap, opts Options) models.SubmissionRecord {
	record := models.SubmissionRecord{
		QuizID:          quiz.ID,
		FirstName:       answers.String("firstName"),
		LastName:        answers.String("lastName"),
		Email:           answers.String("email"),
		PhoneNumber:     phoneFor(answers),
		DOB:             dobFor(answers),
		Gender:          strings.ToUpper(answers.String("gender")),
		FormTitle:       quiz.Name,
		FormDescription: quiz.Description,
		ShippingAddress: opts.ShippingAddress,
		Questions:       []models.QuestionPayload{},
		PromoCodes:      opts.PromoCodes,
		SubmittedAt:     b.now().UTC(),
	}
	if record.PromoCodes == nil {
		record.PromoCodes = map[string]string{}
	}

	for _, step := range steps {
		for _, q := range step.Questions {
			entry, ok := b.buildEntry(ctx, q, answers)
			if !ok {
				continue
			}
			record.Questions = append(record.Questions, entry)
		}
	}
	return record
}

func (b *Builder) buildEntry(ctx context.Context, q models.Question, answers models.AnswerMap) (models.QuestionPayload, bool) {
	if q.Type.Presentational() || q.APIType == "" {
		return models.QuestionPayload{}, false
	}

	value, answered := answers.Get(q.ID)
	if !answered || value.IsEmpty() {
		return models.QuestionPayload{}, false
	}

	entry := models.QuestionPayload{
		Question: q.Label(),
		Type:     q.APIType,
		Options:  q.Options,
		Required: q.Required,
	}

	switch q.APIType {
	case models.APITypeMultiSelect:
		entry.Answer = value.AsList()
	case models.APITypeSingleSelect:
		entry.Answer = firstOf(value)
	case models.APITypeFile:
		entry.Answer = b.resolveFiles(ctx, q.ID, value)
	default:
		entry.Answer = value.AsString()
	}
	return entry, true
}

// firstOf collapses a legacy list-shaped single-select answer to its first
// element.
func firstOf(value models.Value) string {
	if value.Kind == models.KindList {
		if len(value.List) == 0 {
			return ""
		}
		return value.List[0]
	}
	return value.AsString()
}

// resolveFiles turns a file answer into resolved content triples. In-memory
// base64 is used as-is; persisted answers re-fetch content by file id. An
// unresolvable file degrades to an empty list so a lost upload cannot block
// the submission.
func (b *Builder) resolveFiles(ctx context.Context, questionID string, value models.Value) []models.FilePayload {
	ref := value.File
	if value.Kind != models.KindFile || ref == nil {
		return []models.FilePayload{}
	}

	if ref.Data != "" {
		return []models.FilePayload{{
			Name:        ref.Name,
			ContentType: ref.ContentType,
			Data:        ref.Data,
		}}
	}

	if ref.FileID != "" && b.files != nil {
		fd, err := b.files.Fetch(ctx, ref.FileID)
		if err == nil {
			return []models.FilePayload{{
				Name:        fd.Name,
				ContentType: fd.ContentType,
				Data:        fd.Data,
			}}
		}
		b.logger.Warn("file answer could not be resolved",
			"question", questionID, "fileId", ref.FileID, "error", err)
	}
	return []models.FilePayload{}
}

// phoneFor renders the phone answer in international format, falling back to
// the raw answer when it does not normalize.
func phoneFor(answers models.AnswerMap) string {
	raw := answers.String("phoneNumber")
	if raw == "" {
		raw = answers.String("phone")
	}
	if formatted, ok := validation.ToInternationalFormat(raw); ok {
		return formatted
	}
	return raw
}

// dobFor composes a date of birth from the split year/month/day answers,
// falling back to a single dob answer when present.
func dobFor(answers models.AnswerMap) string {
	year, yok := answers.Number("dobYear")
	month, mok := answers.Number("dobMonth")
	day, dok := answers.Number("dobDay")
	if yok && mok && dok {
		return fmt.Sprintf("%04d-%02d-%02d", int(year), int(month), int(day))
	}
	return answers.String("dob")
}
