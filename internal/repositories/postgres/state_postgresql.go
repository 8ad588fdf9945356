package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/medflow-health/intake-service/internal/models"
	"github.com/medflow-health/intake-service/internal/persistence"
)

// StatePostgreSQL is the database-backed persistence store. It serves as the
// fallback tier for values the primary store cannot hold.
type StatePostgreSQL struct {
	db *gorm.DB
}

func NewStatePostgreSQL(db *gorm.DB) persistence.Store {
	return &StatePostgreSQL{db: db}
}

// Set upserts the value under the key.
func (s *StatePostgreSQL) Set(ctx context.Context, key string, value []byte) error {
	state := models.PersistedState{
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now(),
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&state).Error
	if err != nil {
		return fmt.Errorf("failed to persist state %s: %w", key, err)
	}
	return nil
}

// Get reads the value under the key, ErrNotFound when absent.
func (s *StatePostgreSQL) Get(ctx context.Context, key string) ([]byte, error) {
	var state models.PersistedState
	err := s.db.WithContext(ctx).First(&state, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, persistence.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state %s: %w", key, err)
	}
	return state.Value, nil
}

// Delete removes the key; deleting an absent key is not an error.
func (s *StatePostgreSQL) Delete(ctx context.Context, key string) error {
	err := s.db.WithContext(ctx).Delete(&models.PersistedState{}, "key = ?", key).Error
	if err != nil {
		return fmt.Errorf("failed to delete state %s: %w", key, err)
	}
	return nil
}
