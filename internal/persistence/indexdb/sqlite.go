// Package indexdb keeps a write-behind SQLite index of path queries
// and grid edits. The action log remains the source of truth; rows
// here exist so operators can query recent traffic cheaply.
package indexdb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"
)

type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool
}

type reqKind int

const (
	reqQuery reqKind = iota + 1
	reqEdit
)

type req struct {
	kind  reqKind
	query QueryRow
	edit  EditRow
}

// QueryRow is one completed path query.
type QueryRow struct {
	TimeMs     int64
	Session    string
	Revision   uint64
	StartX     int
	StartY     int
	DestX      int
	DestY      int
	MessyX     bool
	MessyY     bool
	Found      bool
	Waypoints  int
	Distance   float64
	DurationMs int64
}

// EditRow is one grid cell edit, keyed by the revision it produced.
type EditRow struct {
	Revision uint64
	CellID   int
	Blocked  bool
	TimeMs   int64
}

func Open(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan req, 8192),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	// WAL suits the append-only write pattern; NORMAL is enough
	// durability for a secondary index.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS path_queries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			time_ms INTEGER NOT NULL,
			session TEXT NOT NULL,
			revision INTEGER NOT NULL,
			start_x INTEGER NOT NULL,
			start_y INTEGER NOT NULL,
			dest_x INTEGER NOT NULL,
			dest_y INTEGER NOT NULL,
			messy_x INTEGER NOT NULL,
			messy_y INTEGER NOT NULL,
			found INTEGER NOT NULL,
			waypoints INTEGER NOT NULL,
			distance REAL NOT NULL,
			duration_ms INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_queries_revision ON path_queries(revision);`,
		`CREATE TABLE IF NOT EXISTS grid_edits (
			revision INTEGER PRIMARY KEY,
			cell_id INTEGER NOT NULL,
			blocked INTEGER NOT NULL,
			time_ms INTEGER NOT NULL
		);`,
		`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1');`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Close drains pending writes, commits them and closes the database.
func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) WritePathQuery(row QueryRow) {
	if s == nil || s.closed.Load() {
		return
	}
	select {
	case s.ch <- req{kind: reqQuery, query: row}:
	default:
		// Drop if the indexer falls behind; the action log keeps the record.
	}
}

func (s *SQLiteIndex) WriteEdit(row EditRow) {
	if s == nil || s.closed.Load() {
		return
	}
	select {
	case s.ch <- req{kind: reqEdit, edit: row}:
	default:
	}
}

// RecentQueries returns up to limit of the newest path query rows,
// newest first.
func (s *SQLiteIndex) RecentQueries(limit int) ([]QueryRow, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`SELECT time_ms,session,revision,start_x,start_y,dest_x,dest_y,messy_x,messy_y,found,waypoints,distance,duration_ms
		FROM path_queries ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []QueryRow
	for rows.Next() {
		var r QueryRow
		if err := rows.Scan(&r.TimeMs, &r.Session, &r.Revision, &r.StartX, &r.StartY, &r.DestX, &r.DestY,
			&r.MessyX, &r.MessyY, &r.Found, &r.Waypoints, &r.Distance, &r.DurationMs); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// EditsSince returns the grid edits with revision > rev, oldest first.
func (s *SQLiteIndex) EditsSince(rev uint64) ([]EditRow, error) {
	rows, err := s.db.Query(`SELECT revision,cell_id,blocked,time_ms FROM grid_edits WHERE revision > ? ORDER BY revision ASC`, int64(rev))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EditRow
	for rows.Next() {
		var r EditRow
		if err := rows.Scan(&r.Revision, &r.CellID, &r.Blocked, &r.TimeMs); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertQuery, _ := s.db.Prepare(`INSERT INTO path_queries(time_ms,session,revision,start_x,start_y,dest_x,dest_y,messy_x,messy_y,found,waypoints,distance,duration_ms)
		VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	insertEdit, _ := s.db.Prepare(`INSERT OR REPLACE INTO grid_edits(revision,cell_id,blocked,time_ms) VALUES(?,?,?,?)`)
	defer func() {
		if insertQuery != nil {
			_ = insertQuery.Close()
		}
		if insertEdit != nil {
			_ = insertEdit.Close()
		}
	}()

	var (
		tx      *sql.Tx
		opCount int
	)
	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
	}

	apply := func(r req) {
		begin()
		if tx == nil {
			return
		}
		switch r.kind {
		case reqQuery:
			q := r.query
			if insertQuery == nil {
				return
			}
			if _, err := tx.Stmt(insertQuery).Exec(
				q.TimeMs, q.Session, int64(q.Revision),
				q.StartX, q.StartY, q.DestX, q.DestY,
				q.MessyX, q.MessyY, q.Found, q.Waypoints, q.Distance, q.DurationMs,
			); err != nil {
				rollback()
				return
			}
			opCount++
		case reqEdit:
			e := r.edit
			if insertEdit == nil {
				return
			}
			if _, err := tx.Stmt(insertEdit).Exec(int64(e.Revision), e.CellID, e.Blocked, e.TimeMs); err != nil {
				rollback()
				return
			}
			opCount++
		}
	}

	for r := range s.ch {
		apply(r)
		if opCount >= 512 {
			commit()
			continue
		}
		// Commit as soon as the channel goes quiet so readers see
		// fresh rows without waiting for a batch to fill.
		select {
		case next, ok := <-s.ch:
			if !ok {
				commit()
				return
			}
			apply(next)
		default:
			commit()
		}
	}

	commit()
}
