// Package indexdb keeps a sqlite read-model of progress over time. The
// in-memory snapshot is rebuilt from ground truth every pass, so this index
// is what survives restarts: one row per sync pass, plus the first time
// each advancement was ever observed complete.
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

	"github.com/LuizLoyola/AATool/internal/tracker/progress"
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
	reqPass reqKind = iota + 1
	reqCompletion
	reqFlush
)

type req struct {
	kind       reqKind
	pass       passRow
	completion completionRow
	flush      chan struct{}
}

type passRow struct {
	At               string
	Category         string
	Version          string
	Players          int
	AdvancementsDone int
	InGameTimeMS     int64
	Deaths           int
}

type completionRow struct {
	Advancement string
	Player      string
	At          string
}

// PassSummary is one recorded sync pass, newest-first from LastPasses.
type PassSummary struct {
	ID               int64
	At               string
	Category         string
	Version          string
	Players          int
	AdvancementsDone int
	InGameTime       time.Duration
	Deaths           int
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
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
		ch: make(chan req, 4096),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	// WAL suits the append-style write pattern; the index is a secondary
	// record, so NORMAL durability is enough.
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
		`CREATE TABLE IF NOT EXISTS passes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			at TEXT NOT NULL,
			category TEXT NOT NULL,
			version TEXT NOT NULL,
			players INTEGER NOT NULL,
			advancements_done INTEGER NOT NULL,
			in_game_time_ms INTEGER NOT NULL,
			deaths INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_passes_at ON passes(at);`,
		`CREATE TABLE IF NOT EXISTS first_completions (
			advancement TEXT PRIMARY KEY,
			player TEXT NOT NULL,
			at TEXT NOT NULL
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

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

// RecordPass enqueues one completed sync pass. Non-blocking: if the writer
// falls behind, the pass is dropped; the next pass carries fresher data
// anyway.
func (s *SQLiteIndex) RecordPass(state *progress.WorldState) {
	if s == nil || s.closed.Load() || state == nil {
		return
	}
	row := passRow{
		At:               time.Now().UTC().Format(time.RFC3339),
		Category:         state.GameCategory,
		Version:          state.GameVersion,
		Players:          len(state.Players),
		AdvancementsDone: len(state.CompletedAdvancements),
		InGameTimeMS:     state.InGameTime.Milliseconds(),
		Deaths:           state.Deaths,
	}
	select {
	case s.ch <- req{kind: reqPass, pass: row}:
	default:
	}

	// First completions are INSERT OR IGNOREd, so replaying the same
	// state each pass cannot move an already-recorded time.
	for pid, c := range state.Players {
		for advID, at := range c.Advancements {
			when := at
			if when.IsZero() {
				when = time.Now()
			}
			comp := completionRow{
				Advancement: advID,
				Player:      pid.String(),
				At:          when.UTC().Format(time.RFC3339),
			}
			select {
			case s.ch <- req{kind: reqCompletion, completion: comp}:
			default:
			}
		}
	}
}

// LastPasses returns up to n recorded passes, newest first.
func (s *SQLiteIndex) LastPasses(ctx context.Context, n int) ([]PassSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, at, category, version, players, advancements_done, in_game_time_ms, deaths
		 FROM passes ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PassSummary
	for rows.Next() {
		var p PassSummary
		var ms int64
		if err := rows.Scan(&p.ID, &p.At, &p.Category, &p.Version, &p.Players, &p.AdvancementsDone, &ms, &p.Deaths); err != nil {
			return nil, err
		}
		p.InGameTime = time.Duration(ms) * time.Millisecond
		out = append(out, p)
	}
	return out, rows.Err()
}

// FirstCompletion reports who first completed an advancement and when, as
// recorded across the lifetime of this index.
func (s *SQLiteIndex) FirstCompletion(ctx context.Context, advID string) (player, at string, ok bool, err error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT player, at FROM first_completions WHERE advancement = ?`, advID)
	switch err := row.Scan(&player, &at); err {
	case nil:
		return player, at, true, nil
	case sql.ErrNoRows:
		return "", "", false, nil
	default:
		return "", "", false, err
	}
}

// Flush blocks until every request enqueued before the call is written.
// Intended for tests and shutdown paths.
func (s *SQLiteIndex) Flush() {
	if s == nil || s.closed.Load() {
		return
	}
	done := make(chan struct{})
	select {
	case s.ch <- req{kind: reqFlush, flush: done}:
		<-done
	default:
	}
}

func (s *SQLiteIndex) loop() {
	insertPass, _ := s.db.Prepare(
		`INSERT INTO passes(at,category,version,players,advancements_done,in_game_time_ms,deaths)
		 VALUES(?,?,?,?,?,?,?)`)
	insertCompletion, _ := s.db.Prepare(
		`INSERT OR IGNORE INTO first_completions(advancement,player,at) VALUES(?,?,?)`)
	defer func() {
		if insertPass != nil {
			_ = insertPass.Close()
		}
		if insertCompletion != nil {
			_ = insertCompletion.Close()
		}
	}()

	for r := range s.ch {
		switch r.kind {
		case reqPass:
			if insertPass == nil {
				continue
			}
			_, _ = insertPass.Exec(
				r.pass.At,
				r.pass.Category,
				r.pass.Version,
				r.pass.Players,
				r.pass.AdvancementsDone,
				r.pass.InGameTimeMS,
				r.pass.Deaths,
			)
		case reqCompletion:
			if insertCompletion == nil {
				continue
			}
			_, _ = insertCompletion.Exec(
				r.completion.Advancement,
				r.completion.Player,
				r.completion.At,
			)
		case reqFlush:
			close(r.flush)
		}
	}
}
