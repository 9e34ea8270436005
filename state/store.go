package state

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrNotProvisioned is returned by LoadOutputs when no apply has been
// recorded for the requested project/environment.
var ErrNotProvisioned = errors.New("no recorded outputs: provisioning has not been applied")

// Store persists outputs and the upload journal behind gorm. The default
// backend is a local sqlite file; a shared postgres backend can be selected
// by DSN instead.
type Store struct {
	db *gorm.DB
}

// NewSQLiteStore opens (and creates, along with its parent directory) the
// sqlite state file at path.
func NewSQLiteStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create state directory %q: %w", dir, err)
		}
	}
	return NewGormStore(sqlite.Open(path))
}

// NewPostgresStore opens a shared postgres state backend.
func NewPostgresStore(dsn string) (*Store, error) {
	return NewGormStore(postgres.Open(dsn))
}

// NewGormStore opens the store with the given dialector and migrates the
// schema.
func NewGormStore(dialector gorm.Dialector) (*Store, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open state store: %w", err)
	}
	if err := db.AutoMigrate(&Outputs{}, &Upload{}); err != nil {
		return nil, fmt.Errorf("migrate state store: %w", err)
	}
	return &Store{db: db}, nil
}

// SaveOutputs inserts or updates the outputs row for its project/environment.
func (s *Store) SaveOutputs(ctx context.Context, o *Outputs) error {
	existing, err := s.LoadOutputs(ctx, o.Project, o.Environment)
	switch {
	case errors.Is(err, ErrNotProvisioned):
		if o.ID == uuid.Nil {
			o.ID = uuid.New()
		}
		if err := s.db.WithContext(ctx).Create(o).Error; err != nil {
			return fmt.Errorf("record outputs: %w", err)
		}
		return nil
	case err != nil:
		return err
	}

	o.ID = existing.ID
	o.CreatedAt = existing.CreatedAt
	if err := s.db.WithContext(ctx).Save(o).Error; err != nil {
		return fmt.Errorf("update outputs: %w", err)
	}
	return nil
}

// LoadOutputs returns the recorded outputs for the given project and
// environment, or ErrNotProvisioned when no apply has been recorded.
func (s *Store) LoadOutputs(ctx context.Context, project, environment string) (*Outputs, error) {
	var o Outputs
	tx := s.db.WithContext(ctx).
		Where("project = ? AND environment = ?", project, environment)
	if err := tx.First(&o).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotProvisioned
		}
		return nil, fmt.Errorf("load outputs: %w", err)
	}
	return &o, nil
}

// ClearOutputs removes the recorded outputs after a destroy.
func (s *Store) ClearOutputs(ctx context.Context, project, environment string) error {
	tx := s.db.WithContext(ctx).
		Where("project = ? AND environment = ?", project, environment).
		Delete(&Outputs{})
	if tx.Error != nil {
		return fmt.Errorf("clear outputs: %w", tx.Error)
	}
	return nil
}

// RecordUpload appends one journal entry. Entries are never mutated.
func (s *Store) RecordUpload(ctx context.Context, u *Upload) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		return fmt.Errorf("record upload: %w", err)
	}
	return nil
}

// Uploads returns the journal for the given project and environment, newest
// first.
func (s *Store) Uploads(ctx context.Context, project, environment string) ([]Upload, error) {
	var us []Upload
	tx := s.db.WithContext(ctx).
		Where("project = ? AND environment = ?", project, environment).
		Order("created_at DESC")
	if err := tx.Find(&us).Error; err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	return us, nil
}
