package sqlite

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/zeusync/vehicore/internal/core/observability/log"
	"github.com/zeusync/vehicore/internal/core/storage"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var _ storage.VariableStore = (*Store)(nil)

type variableRow struct {
	EntityID  string  `gorm:"primaryKey;size:64"`
	Key       string  `gorm:"primaryKey;size:128"`
	Value     float64 `gorm:"not null"`
	UpdatedAt time.Time
}

func (variableRow) TableName() string { return "entity_variables" }

// Store keeps variables in a SQLite database through gorm.
type Store struct {
	db     *gorm.DB
	logger log.Log
	closed atomic.Bool

	saves, loads, errs atomic.Uint64
}

// Open opens (creating if needed) the database at path and migrates the
// schema. An empty path opens a private in-memory database.
func Open(path string, lg log.Log) (*Store, error) {
	if lg == nil {
		lg = log.NewNop()
	}
	dsn := path
	if dsn == "" {
		dsn = fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		CreateBatchSize:        500,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("access sql interface: %w", err)
	}
	// SQLite allows a single writer; one connection also keeps a
	// shared in-memory database alive.
	sqlDB.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA synchronous = NORMAL;",
		"PRAGMA busy_timeout = 5000;",
	}
	for _, pragma := range pragmas {
		if err = db.Exec(pragma).Error; err != nil {
			return nil, fmt.Errorf("set pragma %q: %w", pragma, err)
		}
	}

	if err = db.AutoMigrate(&variableRow{}); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	lg.Info("variable store opened", log.String("path", path))
	return &Store{db: db, logger: lg}, nil
}

func (s *Store) Save(ctx context.Context, entityID string, values map[string]float64) error {
	if err := s.check(entityID); err != nil {
		return err
	}
	now := time.Now()
	rows := make([]variableRow, 0, len(values))
	for k, v := range values {
		rows = append(rows, variableRow{EntityID: entityID, Key: k, Value: v, UpdatedAt: now})
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("entity_id = ?", entityID).Delete(&variableRow{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		s.errs.Add(1)
		return fmt.Errorf("save variables of %s: %w", entityID, err)
	}
	s.saves.Add(1)
	s.logger.Debug("variables saved", log.String("entity", entityID), log.Int("count", len(rows)))
	return nil
}

func (s *Store) Load(ctx context.Context, entityID string) (map[string]float64, error) {
	if err := s.check(entityID); err != nil {
		return nil, err
	}
	var rows []variableRow
	if err := s.db.WithContext(ctx).Where("entity_id = ?", entityID).Find(&rows).Error; err != nil {
		s.errs.Add(1)
		return nil, fmt.Errorf("load variables of %s: %w", entityID, err)
	}
	s.loads.Add(1)
	out := make(map[string]float64, len(rows))
	for _, r := range rows {
		out[r.Key] = r.Value
	}
	return out, nil
}

// Entities lists the IDs that have stored variables.
func (s *Store) Entities(ctx context.Context) ([]string, error) {
	if s.closed.Load() {
		return nil, storage.ErrClosed
	}
	var ids []string
	err := s.db.WithContext(ctx).Model(&variableRow{}).
		Distinct("entity_id").Order("entity_id").Pluck("entity_id", &ids).Error
	if err != nil {
		s.errs.Add(1)
		return nil, fmt.Errorf("list entities: %w", err)
	}
	return ids, nil
}

func (s *Store) Statistics() storage.Statistics {
	return storage.Statistics{
		Saves:  s.saves.Load(),
		Loads:  s.loads.Load(),
		Errors: s.errs.Load(),
	}
}

func (s *Store) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) check(entityID string) error {
	if s.closed.Load() {
		return storage.ErrClosed
	}
	if entityID == "" {
		return storage.ErrEmptyEntityID
	}
	return nil
}
