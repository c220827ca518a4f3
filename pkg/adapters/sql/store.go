// Package sql provides a relational FlowchartStore backed by gorm.
//
// Nodes and edges are kept as ordered JSON columns on a single row per
// flowchart, so a replace is a single-row write.
package sql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/flowcharts/pkg/domain"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type flowchartRecord struct {
	ID        string        `gorm:"primaryKey;size:36"`
	Nodes     []domain.Node `gorm:"serializer:json;type:text;not null"`
	Edges     []domain.Edge `gorm:"serializer:json;type:text;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (flowchartRecord) TableName() string {
	return "flowcharts"
}

func (r *flowchartRecord) toDomain() *domain.Flowchart {
	fc := &domain.Flowchart{ID: r.ID, Nodes: r.Nodes, Edges: r.Edges}
	fc.Normalize()
	return fc
}

// Store implements ports.FlowchartStore on top of a gorm database.
type Store struct {
	db *gorm.DB
}

// Open connects to the database with the given driver and migrates the schema.
func Open(driver, dsn string) (*Store, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverSQLite:
		dialector = sqlite.Open(dsn)
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if driver == DriverSQLite {
		// SQLite allows a single writer; queue callers on one connection instead of failing with SQLITE_BUSY.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to access sql pool: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	return New(db)
}

// New wraps an existing gorm connection and migrates the schema.
func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&flowchartRecord{}); err != nil {
		return nil, fmt.Errorf("failed to auto migrate database: %w", err)
	}
	return &Store{db: db}, nil
}

// Create validates the flowchart and inserts it under a fresh UUID.
func (s *Store) Create(ctx context.Context, fc *domain.Flowchart) (string, error) {
	if err := fc.Validate(); err != nil {
		return "", err
	}

	stored := fc.Clone()
	stored.Normalize()
	rec := flowchartRecord{Nodes: stored.Nodes, Edges: stored.Edges}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for {
			rec.ID = uuid.NewString()
			var count int64
			if err := tx.Model(&flowchartRecord{}).Where("id = ?", rec.ID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				break
			}
		}
		return tx.Create(&rec).Error
	})
	if err != nil {
		return "", fmt.Errorf("failed to insert flowchart: %w", err)
	}
	return rec.ID, nil
}

// Get loads the flowchart row.
func (s *Store) Get(ctx context.Context, id string) (*domain.Flowchart, error) {
	var rec flowchartRecord
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrFlowchartNotFound
		}
		return nil, fmt.Errorf("failed to load flowchart: %w", err)
	}
	return rec.toDomain(), nil
}

// Update replaces nodes and edges inside a transaction holding the row lock.
func (s *Store) Update(ctx context.Context, id string, fc *domain.Flowchart) (*domain.Flowchart, error) {
	if fc == nil {
		return nil, domain.ErrNilFlowchart
	}
	var rec flowchartRecord
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx
		if tx.Dialector.Name() == DriverPostgres {
			// SQLite serializes writers itself and has no row locks.
			query = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		err := query.Where("id = ?", id).First(&rec).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrFlowchartNotFound
			}
			return err
		}

		if err := fc.Validate(); err != nil {
			return err
		}

		replacement := fc.Clone()
		replacement.Normalize()
		rec.Nodes = replacement.Nodes
		rec.Edges = replacement.Edges
		return tx.Save(&rec).Error
	})
	if err != nil {
		if errors.Is(err, domain.ErrFlowchartNotFound) || errors.Is(err, domain.ErrInvalidFlowchart) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update flowchart: %w", err)
	}
	return rec.toDomain(), nil
}

// Delete removes the flowchart row.
func (s *Store) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&flowchartRecord{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete flowchart: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrFlowchartNotFound
	}
	return nil
}

// List returns all flowchart IDs.
func (s *Store) List(ctx context.Context) ([]string, error) {
	ids := []string{}
	if err := s.db.WithContext(ctx).Model(&flowchartRecord{}).Order("id").Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list flowcharts: %w", err)
	}
	return ids, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
