package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"github.com/medflow-health/intake-service/internal/models"
	"github.com/medflow-health/intake-service/internal/utils"
)

// ErrNotFound is the sentinel stores return for missing keys.
var ErrNotFound = errors.New("key not found")

// Store is a flat byte-oriented key-value store. Implementations must return
// ErrNotFound for missing keys so the adapter can tell absence from failure.
type Store interface {
	Set(ctx context.Context, key string, value []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

const (
	answersKeyPrefix   = "medical-intake-form-data-"
	stepKeyPrefix      = "medical-intake-form-step-"
	completedKeyPrefix = "medical-intake-form-completed-"
)

// maxPrimaryPayload is the serialized-size ceiling for the primary store.
// Payloads above it go straight to the secondary store.
const maxPrimaryPayload = 2 * 1024 * 1024

var keySanitizer = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// Adapter persists wizard state across a primary store and an optional
// secondary fallback. Every write sanitizes file answers down to metadata
// first; base64 file content never reaches either store. Writes degrade
// tier by tier and finally drop with a log line, so a broken store slows
// nobody's intake down.
type Adapter struct {
	primary   Store
	secondary Store
	logger    utils.Logger
}

func NewAdapter(primary, secondary Store, logger utils.Logger) *Adapter {
	if logger == nil {
		logger = utils.NewDefaultLogger()
	}
	return &Adapter{primary: primary, secondary: secondary, logger: logger}
}

// SaveAnswers writes the sanitized answer map under the quiz's answers key.
func (a *Adapter) SaveAnswers(ctx context.Context, quizID string, answers models.AnswerMap) error {
	sanitized := SanitizeAnswers(answers)
	data, err := json.Marshal(sanitized)
	if err != nil {
		return fmt.Errorf("marshal answers for %s: %w", quizID, err)
	}

	key := answersKeyPrefix + sanitizeKeyPart(quizID)
	if a.write(ctx, quizID, key, data) {
		return nil
	}

	// Last resort: drop the file answers entirely and try the primary once
	// more with the slimmer payload.
	slim, err := json.Marshal(stripFileAnswers(sanitized))
	if err != nil {
		return fmt.Errorf("marshal slim answers for %s: %w", quizID, err)
	}
	if len(slim) <= maxPrimaryPayload {
		if err := a.primary.Set(ctx, key, slim); err == nil {
			a.logger.Warn("persisted answers without file metadata", "quiz", quizID)
			return nil
		}
	}

	a.logger.Error("dropping answer state, no store accepted it", "quiz", quizID, "size", len(data))
	return nil
}

// LoadAnswers reads the persisted answer map, trying the primary store
// first. Missing state reports ok=false; malformed state is discarded as if
// absent, so a corrupt blob can never wedge a restore.
func (a *Adapter) LoadAnswers(ctx context.Context, quizID string) (models.AnswerMap, bool, error) {
	data, ok := a.read(ctx, quizID, answersKeyPrefix+sanitizeKeyPart(quizID))
	if !ok {
		return nil, false, nil
	}

	var answers models.AnswerMap
	if err := json.Unmarshal(data, &answers); err != nil {
		a.logger.Warn("discarding malformed persisted answers", "quiz", quizID, "error", err)
		return nil, false, nil
	}
	return answers, true, nil
}

// SaveStep writes the cursor position.
func (a *Adapter) SaveStep(ctx context.Context, quizID string, index int) error {
	key := stepKeyPrefix + sanitizeKeyPart(quizID)
	if !a.write(ctx, quizID, key, []byte(strconv.Itoa(index))) {
		a.logger.Error("dropping step cursor, no store accepted it", "quiz", quizID)
	}
	return nil
}

// LoadStep reads the cursor position, ok=false when absent or malformed.
func (a *Adapter) LoadStep(ctx context.Context, quizID string) (int, bool, error) {
	data, ok := a.read(ctx, quizID, stepKeyPrefix+sanitizeKeyPart(quizID))
	if !ok {
		return 0, false, nil
	}
	index, err := strconv.Atoi(string(data))
	if err != nil {
		a.logger.Warn("discarding malformed persisted step", "quiz", quizID, "error", err)
		return 0, false, nil
	}
	return index, true, nil
}

// MarkCompleted flags the quiz as submitted.
func (a *Adapter) MarkCompleted(ctx context.Context, quizID string) error {
	key := completedKeyPrefix + sanitizeKeyPart(quizID)
	if !a.write(ctx, quizID, key, []byte("true")) {
		return fmt.Errorf("mark %s completed: no store accepted the flag", quizID)
	}
	return nil
}

// IsCompleted reports whether the quiz was submitted.
func (a *Adapter) IsCompleted(ctx context.Context, quizID string) bool {
	data, ok := a.read(ctx, quizID, completedKeyPrefix+sanitizeKeyPart(quizID))
	return ok && string(data) == "true"
}

// Clear removes all persisted state for the quiz from both tiers.
func (a *Adapter) Clear(ctx context.Context, quizID string) error {
	part := sanitizeKeyPart(quizID)
	var firstErr error
	for _, key := range []string{
		answersKeyPrefix + part,
		stepKeyPrefix + part,
		completedKeyPrefix + part,
	} {
		for _, store := range []Store{a.primary, a.secondary} {
			if store == nil {
				continue
			}
			if err := store.Delete(ctx, key); err != nil && !errors.Is(err, ErrNotFound) && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// write tries the primary, then the secondary. Oversized payloads skip the
// primary. Reports whether any tier accepted the value.
func (a *Adapter) write(ctx context.Context, quizID, key string, data []byte) bool {
	if len(data) <= maxPrimaryPayload {
		err := a.primary.Set(ctx, key, data)
		if err == nil {
			return true
		}
		a.logger.Warn("primary store rejected write", "quiz", quizID, "error", err)
	} else {
		a.logger.Info("payload exceeds primary store limit, using secondary",
			"quiz", quizID, "size", len(data))
	}

	if a.secondary == nil {
		return false
	}
	if err := a.secondary.Set(ctx, key, data); err != nil {
		a.logger.Warn("secondary store rejected write", "quiz", quizID, "error", err)
		return false
	}
	return true
}

func (a *Adapter) read(ctx context.Context, quizID, key string) ([]byte, bool) {
	data, err := a.primary.Get(ctx, key)
	if err == nil {
		return data, true
	}
	if !errors.Is(err, ErrNotFound) {
		a.logger.Warn("primary store read failed", "quiz", quizID, "error", err)
	}

	if a.secondary == nil {
		return nil, false
	}
	data, err = a.secondary.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			a.logger.Warn("secondary store read failed", "quiz", quizID, "error", err)
		}
		return nil, false
	}
	return data, true
}

// SanitizeAnswers strips base64 file content out of every file answer,
// keeping name, content type, size and the upload reference.
func SanitizeAnswers(answers models.AnswerMap) models.AnswerMap {
	out := answers.Clone()
	for id, v := range out {
		if v.Kind != models.KindFile || v.File == nil || v.File.Data == "" {
			continue
		}
		ref := *v.File
		ref.Data = ""
		out[id] = models.FileValue(&ref)
	}
	return out
}

func stripFileAnswers(answers models.AnswerMap) models.AnswerMap {
	out := make(models.AnswerMap, len(answers))
	for id, v := range answers {
		if v.Kind == models.KindFile {
			continue
		}
		out[id] = v
	}
	return out
}

// sanitizeKeyPart keeps quiz ids from smuggling separators into store keys.
func sanitizeKeyPart(quizID string) string {
	return keySanitizer.ReplaceAllString(quizID, "_")
}
