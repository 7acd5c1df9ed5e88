package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// StorageEntryModel is the Postgres row backing one key.
// Values are kept as jsonb: envelopes and user snapshots are already JSON,
// raw token strings are stored as JSON string scalars.
type StorageEntryModel struct {
	Key       string         `gorm:"primaryKey;size:512"`
	Value     datatypes.JSON `gorm:"type:jsonb"`
	UpdatedAt time.Time
}

func (StorageEntryModel) TableName() string { return "storage_entries" }

// GormStorage implements DurableStorage on GORM + Postgres.
type GormStorage struct {
	db *gorm.DB
}

// NewGormStorage opens the DB and runs auto-migration.
func NewGormStorage(dsn string) (*GormStorage, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.AutoMigrate(&StorageEntryModel{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &GormStorage{db: db}, nil
}

func (s *GormStorage) Get(ctx context.Context, key string) (string, bool, error) {
	var row StorageEntryModel
	err := s.db.WithContext(ctx).First(&row, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %q: %w", key, err)
	}
	var value string
	if err := json.Unmarshal(row.Value, &value); err != nil {
		return "", false, fmt.Errorf("decode %q: %w", key, err)
	}
	return value, true, nil
}

func (s *GormStorage) Set(ctx context.Context, key, value string) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}
	row := StorageEntryModel{Key: key, Value: datatypes.JSON(encoded), UpdatedAt: time.Now().UTC()}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

func (s *GormStorage) Remove(ctx context.Context, key string) error {
	if err := s.db.WithContext(ctx).Delete(&StorageEntryModel{}, "key = ?", key).Error; err != nil {
		return fmt.Errorf("remove %q: %w", key, err)
	}
	return nil
}
