// Package sqlite implements the store contracts on gorm and the pure-Go
// modernc sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"

	"fxbot/internal/store"
	"fxbot/internal/store/model"
)

const maxConns = 4

// Store owns the shared connection pool. Every Connect checks out one
// dedicated connection that is returned on Session.Close.
type Store struct {
	db    *gorm.DB
	sqlDB *sql.DB
}

var _ store.Connector = (*Store)(nil)

func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := gorm.Open(sqlite.Dialector{DriverName: "sqlite", DSN: dsn}, &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if err := db.AutoMigrate(&model.TradeModel{}, &model.FundamentalModel{}, &model.EventLogModel{}); err != nil {
		return nil, fmt.Errorf("migrate %s: %w", path, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(maxConns)
	sqlDB.SetMaxIdleConns(maxConns)
	return &Store{db: db, sqlDB: sqlDB}, nil
}

// Connect blocks until a connection is free or ctx is done.
func (s *Store) Connect(ctx context.Context) (store.Session, error) {
	conn, err := s.sqlDB.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	tx := s.db.Session(&gorm.Session{Context: ctx, NewDB: true})
	tx.Statement.ConnPool = conn
	return &session{db: tx, conn: conn}, nil
}

func (s *Store) Close() error {
	if s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

type session struct {
	db   *gorm.DB
	conn *sql.Conn
	once sync.Once
	err  error
}

func (s *session) Trades() store.TradeRepository             { return NewTradeRepo(s.db) }
func (s *session) Fundamentals() store.FundamentalRepository { return NewFundamentalRepo(s.db) }
func (s *session) Events() store.EventRepository             { return NewEventRepo(s.db) }

func (s *session) Close() error {
	s.once.Do(func() { s.err = s.conn.Close() })
	return s.err
}
