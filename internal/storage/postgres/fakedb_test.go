package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/jmoiron/sqlx"
)

type statement struct {
	query string
	args  []driver.Value
}

// recordingDB is a database/sql driver that records statements and serves canned rows.
type recordingDB struct {
	mu      sync.Mutex
	execs   []statement
	queries []statement
	execErr error
	columns []string
	rows    [][]driver.Value
}

func newTestDB(t *testing.T, rec *recordingDB) *sqlx.DB {
	t.Helper()
	db := sqlx.NewDb(sql.OpenDB(rec), "postgres")
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func (r *recordingDB) Connect(context.Context) (driver.Conn, error) { return &recordingConn{db: r}, nil }
func (r *recordingDB) Driver() driver.Driver                         { return recordingDriver{db: r} }

func (r *recordingDB) lastExec() statement {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.execs) == 0 {
		return statement{}
	}
	return r.execs[len(r.execs)-1]
}

type recordingDriver struct{ db *recordingDB }

func (d recordingDriver) Open(string) (driver.Conn, error) { return &recordingConn{db: d.db}, nil }

type recordingConn struct{ db *recordingDB }

func (c *recordingConn) Prepare(query string) (driver.Stmt, error) {
	return &recordingStmt{db: c.db, query: query}, nil
}
func (c *recordingConn) Close() error              { return nil }
func (c *recordingConn) Begin() (driver.Tx, error) { return nil, errors.New("transactions not supported") }

type recordingStmt struct {
	db    *recordingDB
	query string
}

func (s *recordingStmt) Close() error  { return nil }
func (s *recordingStmt) NumInput() int { return -1 }

func (s *recordingStmt) Exec(args []driver.Value) (driver.Result, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.execs = append(s.db.execs, statement{query: s.query, args: args})
	if s.db.execErr != nil {
		return nil, s.db.execErr
	}
	return driver.RowsAffected(1), nil
}

func (s *recordingStmt) Query(args []driver.Value) (driver.Rows, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.queries = append(s.db.queries, statement{query: s.query, args: args})
	return &cannedRows{columns: s.db.columns, rows: s.db.rows}, nil
}

type cannedRows struct {
	columns []string
	rows    [][]driver.Value
	pos     int
}

func (r *cannedRows) Columns() []string { return r.columns }
func (r *cannedRows) Close() error      { return nil }

func (r *cannedRows) Next(dest []driver.Value) error {
	if r.pos >= len(r.rows) {
		return io.EOF
	}
	copy(dest, r.rows[r.pos])
	r.pos++
	return nil
}
