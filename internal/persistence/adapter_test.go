package persistence

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medflow-health/intake-service/internal/models"
)

// failingStore rejects the first n Set calls, then delegates to an inner
// MemoryStore.
type failingStore struct {
	inner    *MemoryStore
	failSets int
}

func (f *failingStore) Set(ctx context.Context, key string, value []byte) error {
	if f.failSets > 0 {
		f.failSets--
		return errors.New("store unavailable")
	}
	return f.inner.Set(ctx, key, value)
}

func (f *failingStore) Get(ctx context.Context, key string) ([]byte, error) {
	return f.inner.Get(ctx, key)
}

func (f *failingStore) Delete(ctx context.Context, key string) error {
	return f.inner.Delete(ctx, key)
}

func TestAdapter_AnswersRoundTrip(t *testing.T) {
	ctx := context.Background()
	adapter := NewAdapter(NewMemoryStore(), nil, nil)

	answers := models.AnswerMap{
		"firstName":  models.StringValue("Dana"),
		"weight":     models.NumberValue(220),
		"conditions": models.ListValue("asthma"),
	}
	require.NoError(t, adapter.SaveAnswers(ctx, "intake", answers))

	loaded, ok, err := adapter.LoadAnswers(ctx, "intake")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Dana", loaded.String("firstName"))
	assert.Equal(t, []string{"asthma"}, loaded["conditions"].AsList())

	n, nok := loaded.Number("weight")
	require.True(t, nok)
	assert.Equal(t, 220.0, n)
}

func TestAdapter_FileAnswersPersistMetadataOnly(t *testing.T) {
	ctx := context.Background()
	adapter := NewAdapter(NewMemoryStore(), nil, nil)

	answers := models.AnswerMap{
		"idPhoto": models.FileValue(&models.FileRef{
			Name:        "id.jpg",
			ContentType: "image/jpeg",
			FileID:      "f-123",
			Data:        strings.Repeat("QUJD", 1024),
			Size:        3072,
		}),
	}
	require.NoError(t, adapter.SaveAnswers(ctx, "intake", answers))

	// The caller's map is untouched.
	assert.NotEmpty(t, answers["idPhoto"].File.Data)

	loaded, ok, err := adapter.LoadAnswers(ctx, "intake")
	require.NoError(t, err)
	require.True(t, ok)

	ref := loaded["idPhoto"].File
	require.NotNil(t, ref)
	assert.Empty(t, ref.Data)
	assert.Equal(t, "id.jpg", ref.Name)
	assert.Equal(t, "f-123", ref.FileID)
	assert.Equal(t, int64(3072), ref.Size)
}

func TestAdapter_OversizedPayloadGoesToSecondary(t *testing.T) {
	ctx := context.Background()
	primary := NewMemoryStore()
	secondary := NewMemoryStore()
	adapter := NewAdapter(primary, secondary, nil)

	answers := models.AnswerMap{
		"notes": models.StringValue(strings.Repeat("x", maxPrimaryPayload+1)),
	}
	require.NoError(t, adapter.SaveAnswers(ctx, "intake", answers))

	assert.Equal(t, 0, primary.Len())
	assert.Equal(t, 1, secondary.Len())

	loaded, ok, err := adapter.LoadAnswers(ctx, "intake")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, loaded.String("notes"), maxPrimaryPayload+1)
}

func TestAdapter_PrimaryFailureFallsBackToSecondary(t *testing.T) {
	ctx := context.Background()
	primary := &failingStore{inner: NewMemoryStore(), failSets: 100}
	secondary := NewMemoryStore()
	adapter := NewAdapter(primary, secondary, nil)

	answers := models.AnswerMap{"firstName": models.StringValue("Dana")}
	require.NoError(t, adapter.SaveAnswers(ctx, "intake", answers))

	assert.Equal(t, 1, secondary.Len())

	loaded, ok, err := adapter.LoadAnswers(ctx, "intake")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Dana", loaded.String("firstName"))
}

func TestAdapter_SlimRetryDropsFileAnswers(t *testing.T) {
	ctx := context.Background()
	primary := &failingStore{inner: NewMemoryStore(), failSets: 1}
	adapter := NewAdapter(primary, nil, nil)

	answers := models.AnswerMap{
		"firstName": models.StringValue("Dana"),
		"idPhoto":   models.FileValue(&models.FileRef{Name: "id.jpg", FileID: "f-1"}),
	}
	require.NoError(t, adapter.SaveAnswers(ctx, "intake", answers))

	loaded, ok, err := adapter.LoadAnswers(ctx, "intake")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Dana", loaded.String("firstName"))
	_, hasFile := loaded["idPhoto"]
	assert.False(t, hasFile)
}

func TestAdapter_AllStoresFailingDropsSilently(t *testing.T) {
	ctx := context.Background()
	primary := &failingStore{inner: NewMemoryStore(), failSets: 100}
	secondary := &failingStore{inner: NewMemoryStore(), failSets: 100}
	adapter := NewAdapter(primary, secondary, nil)

	answers := models.AnswerMap{"firstName": models.StringValue("Dana")}
	assert.NoError(t, adapter.SaveAnswers(ctx, "intake", answers))

	_, ok, err := adapter.LoadAnswers(ctx, "intake")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAdapter_MalformedAnswersDiscarded(t *testing.T) {
	ctx := context.Background()
	primary := NewMemoryStore()
	adapter := NewAdapter(primary, nil, nil)

	require.NoError(t, primary.Set(ctx, "medical-intake-form-data-intake", []byte("{not json")))

	loaded, ok, err := adapter.LoadAnswers(ctx, "intake")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, loaded)
}

func TestAdapter_StepRoundTrip(t *testing.T) {
	ctx := context.Background()
	primary := NewMemoryStore()
	adapter := NewAdapter(primary, nil, nil)

	_, ok, err := adapter.LoadStep(ctx, "intake")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, adapter.SaveStep(ctx, "intake", 4))

	index, ok, err := adapter.LoadStep(ctx, "intake")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 4, index)

	require.NoError(t, primary.Set(ctx, "medical-intake-form-step-intake", []byte("four")))
	_, ok, err = adapter.LoadStep(ctx, "intake")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAdapter_CompletionFlag(t *testing.T) {
	ctx := context.Background()
	adapter := NewAdapter(NewMemoryStore(), nil, nil)

	assert.False(t, adapter.IsCompleted(ctx, "intake"))
	require.NoError(t, adapter.MarkCompleted(ctx, "intake"))
	assert.True(t, adapter.IsCompleted(ctx, "intake"))
}

func TestAdapter_ClearRemovesBothTiers(t *testing.T) {
	ctx := context.Background()
	primary := NewMemoryStore()
	secondary := NewMemoryStore()
	adapter := NewAdapter(primary, secondary, nil)

	require.NoError(t, adapter.SaveAnswers(ctx, "intake", models.AnswerMap{
		"firstName": models.StringValue("Dana"),
	}))
	require.NoError(t, adapter.SaveStep(ctx, "intake", 1))
	require.NoError(t, adapter.MarkCompleted(ctx, "intake"))

	require.NoError(t, adapter.Clear(ctx, "intake"))

	assert.Equal(t, 0, primary.Len())
	assert.Equal(t, 0, secondary.Len())
	assert.False(t, adapter.IsCompleted(ctx, "intake"))
}

func TestAdapter_KeySanitization(t *testing.T) {
	ctx := context.Background()
	primary := NewMemoryStore()
	adapter := NewAdapter(primary, nil, nil)

	require.NoError(t, adapter.SaveAnswers(ctx, "my quiz/v2", models.AnswerMap{
		"firstName": models.StringValue("Dana"),
	}))

	_, err := primary.Get(ctx, "medical-intake-form-data-my_quiz_v2")
	assert.NoError(t, err)
}
