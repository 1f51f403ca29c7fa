package flowstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/saulo-duarte/engmcq-web/internal/quiz"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// FlowRecord is the row a flow is persisted as.
type FlowRecord struct {
	UserID    string         `gorm:"type:text;primaryKey" json:"user_id"`
	Kind      string         `gorm:"type:text;primaryKey" json:"kind"`
	FlowID    uuid.UUID      `gorm:"type:uuid;not null" json:"flow_id"`
	Stage     string         `gorm:"type:text;not null" json:"stage"`
	State     datatypes.JSON `gorm:"type:jsonb;not null" json:"state"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	ExpiresAt time.Time      `gorm:"not null;index" json:"expires_at"`
}

func (FlowRecord) TableName() string {
	return "quiz_flows"
}

type PostgresStore struct {
	db  *gorm.DB
	ttl time.Duration
}

func NewPostgresStore(db *gorm.DB, ttl time.Duration) *PostgresStore {
	return &PostgresStore{db: db, ttl: ttl}
}

// Connect opens the gorm connection used by the Postgres store and the
// migrate command.
func Connect(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to DB: %w", err)
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&FlowRecord{})
}

func (s *PostgresStore) Get(ctx context.Context, userID string, kind quiz.Kind) (*quiz.Flow, error) {
	var rec FlowRecord
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND kind = ? AND expires_at > ?", userID, string(kind), time.Now()).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, quiz.ErrFlowNotFound
	}
	if err != nil {
		return nil, err
	}

	var f quiz.Flow
	if err := json.Unmarshal(rec.State, &f); err != nil {
		return nil, fmt.Errorf("decode flow: %w", err)
	}
	return &f, nil
}

func (s *PostgresStore) Save(ctx context.Context, f *quiz.Flow) error {
	state, err := json.Marshal(f)
	if err != nil {
		return err
	}
	rec := FlowRecord{
		UserID:    f.UserID,
		Kind:      string(f.Kind),
		FlowID:    f.ID,
		Stage:     string(f.Stage),
		State:     datatypes.JSON(state),
		ExpiresAt: time.Now().Add(s.ttl),
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "kind"}},
			DoUpdates: clause.AssignmentColumns([]string{"flow_id", "stage", "state", "updated_at", "expires_at"}),
		}).
		Create(&rec).Error
}

func (s *PostgresStore) Delete(ctx context.Context, userID string, kind quiz.Kind) error {
	return s.db.WithContext(ctx).
		Where("user_id = ? AND kind = ?", userID, string(kind)).
		Delete(&FlowRecord{}).Error
}

// PurgeExpired removes rows past their expiry.
func (s *PostgresStore) PurgeExpired(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Where("expires_at <= ?", time.Now()).Delete(&FlowRecord{})
	return res.RowsAffected, res.Error
}
