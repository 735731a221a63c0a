package cohort

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ahump20/lone-star-legends-championship-sub006/internal/analysis"
	"github.com/ahump20/lone-star-legends-championship-sub006/internal/database"
)

// SQLiteStore persists tables across restarts in a local SQLite file.
type SQLiteStore struct {
	db  *database.DB
	now func() time.Time
}

func NewSQLiteStore(db *database.DB) *SQLiteStore {
	return &SQLiteStore{db: db, now: time.Now}
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (analysis.Table, bool, error) {
	stmt, err := s.db.GetPreparedStatement(database.StmtGetCohortTable)
	if err != nil {
		return nil, false, err
	}

	var (
		data      string
		expiresAt time.Time
	)
	err = stmt.QueryRowContext(ctx, key).Scan(&data, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("sqlite get %s: %w", key, err)
	}
	if !expiresAt.After(s.now()) {
		return nil, false, nil
	}

	var table analysis.Table
	if err := json.Unmarshal([]byte(data), &table); err != nil {
		return nil, false, fmt.Errorf("decode sqlite table %s: %w", key, err)
	}
	return table, true, nil
}

func (s *SQLiteStore) Put(ctx context.Context, key string, table analysis.Table, ttl time.Duration) error {
	data, err := json.Marshal(table)
	if err != nil {
		return fmt.Errorf("encode table %s: %w", key, err)
	}
	stmt, err := s.db.GetPreparedStatement(database.StmtPutCohortTable)
	if err != nil {
		return err
	}
	now := s.now().UTC()
	if _, err := stmt.ExecContext(ctx, key, string(data), now.Add(ttl), now); err != nil {
		return fmt.Errorf("sqlite put %s: %w", key, err)
	}
	return nil
}

// Purge deletes expired rows and returns how many were removed.
func (s *SQLiteStore) Purge(ctx context.Context) (int64, error) {
	stmt, err := s.db.GetPreparedStatement(database.StmtPurgeCohortTables)
	if err != nil {
		return 0, err
	}
	res, err := stmt.ExecContext(ctx, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("sqlite purge: %w", err)
	}
	return res.RowsAffected()
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
