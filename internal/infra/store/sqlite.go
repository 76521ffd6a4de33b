package store

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// entry is one row of the kv_entries table.
type entry struct {
	Key       string `gorm:"column:kv_key;primaryKey"`
	Value     []byte
	UpdatedAt time.Time
}

func (entry) TableName() string {
	return "kv_entries"
}

// SQLiteStore keeps values in a SQLite database through gorm.
type SQLiteStore struct {
	db *gorm.DB
}

// NewSQLiteStore opens (or creates) the database at path and migrates the schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(err, "failed to create database directory")
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to open sqlite database")
	}
	if err := db.AutoMigrate(&entry{}); err != nil {
		return nil, errors.Wrap(err, "failed to migrate kv_entries")
	}
	return &SQLiteStore{db: db}, nil
}

// Get returns the value stored under key.
func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, error) {
	var e entry
	err := s.db.WithContext(ctx).Where("kv_key = ?", key).First(&e).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrapf(err, "sqlite get %q", key)
	}
	return e.Value, nil
}

// Set upserts value under key.
func (s *SQLiteStore) Set(ctx context.Context, key string, value []byte) error {
	e := entry{Key: key, Value: value, UpdatedAt: time.Now()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "kv_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&e).Error
	if err != nil {
		return errors.Wrapf(err, "sqlite set %q", key)
	}
	return nil
}

// Delete removes key.
func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if err := s.db.WithContext(ctx).Where("kv_key = ?", key).Delete(&entry{}).Error; err != nil {
		return errors.Wrapf(err, "sqlite delete %q", key)
	}
	return nil
}

// Close closes the underlying database handle.
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
