package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/angelmondragon/storefront/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SQL stores slots in the cart_slots table, one row per (scope, name).
type SQL struct {
	db *gorm.DB
}

// NewSQL binds the backend to the provided GORM connection.
func NewSQL(db *gorm.DB) (*SQL, error) {
	if db == nil {
		return nil, fmt.Errorf("gorm connection required")
	}
	return &SQL{db: db}, nil
}

func (s *SQL) conn(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return s.db
	}
	return s.db.WithContext(ctx)
}

func (s *SQL) Load(ctx context.Context, scope, name string) ([]byte, error) {
	var slot models.CartSlot
	err := s.conn(ctx).
		Where("scope = ? AND name = ?", scope, name).
		Take(&slot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSlotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load slot: %w", err)
	}
	return []byte(slot.Value), nil
}

func (s *SQL) Save(ctx context.Context, scope, name string, value []byte) error {
	slot := models.CartSlot{Scope: scope, Name: name, Value: string(value)}
	err := s.conn(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "scope"}, {Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&slot).Error
	if err != nil {
		return fmt.Errorf("save slot: %w", err)
	}
	return nil
}

func (s *SQL) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
