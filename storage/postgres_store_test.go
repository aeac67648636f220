package storage

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"property-recommender/models"
	"property-recommender/utils"
)

// execLog records every statement the store sends and fails the ones that
// contain failOn.
type execLog struct {
	mu     sync.Mutex
	stmts  []string
	failOn string
}

func (l *execLog) exec(query string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	q := strings.Join(strings.Fields(query), " ")
	l.stmts = append(l.stmts, q)
	if l.failOn != "" && strings.Contains(q, l.failOn) {
		return errors.New("connection reset by peer")
	}
	return nil
}

func (l *execLog) count(prefix string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, s := range l.stmts {
		if strings.HasPrefix(s, prefix) {
			n++
		}
	}
	return n
}

// index returns the position of the last statement starting with prefix.
func (l *execLog) index(prefix string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := len(l.stmts) - 1; i >= 0; i-- {
		if strings.HasPrefix(l.stmts[i], prefix) {
			return i
		}
	}
	return -1
}

type recordingConnector struct{ log *execLog }

func (c recordingConnector) Connect(context.Context) (driver.Conn, error) {
	return recordingConn(c), nil
}

func (c recordingConnector) Driver() driver.Driver { return recordingDriver(c) }

type recordingDriver struct{ log *execLog }

func (d recordingDriver) Open(string) (driver.Conn, error) { return recordingConn(d), nil }

type recordingConn struct{ log *execLog }

func (c recordingConn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("prepared statements not supported")
}

func (c recordingConn) Close() error { return nil }

func (c recordingConn) Begin() (driver.Tx, error) {
	if err := c.log.exec("BEGIN"); err != nil {
		return nil, err
	}
	return recordingTx(c), nil
}

func (c recordingConn) ExecContext(_ context.Context, query string, _ []driver.NamedValue) (driver.Result, error) {
	if err := c.log.exec(query); err != nil {
		return nil, err
	}
	return driver.RowsAffected(0), nil
}

type recordingTx struct{ log *execLog }

func (t recordingTx) Commit() error   { return t.log.exec("COMMIT") }
func (t recordingTx) Rollback() error { return t.log.exec("ROLLBACK") }

func newRecordingStore(t *testing.T, log *execLog) *PostgresStore {
	t.Helper()
	db := sql.OpenDB(recordingConnector{log: log})
	t.Cleanup(func() { db.Close() })

	store, err := NewPostgresStore(context.Background(), db, 3, utils.NewLoggerTo(io.Discard, utils.LevelError))
	if err != nil {
		t.Fatalf("NewPostgresStore: %v", err)
	}
	return store
}

func manyListings(n int) []*models.Listing {
	out := make([]*models.Listing, n)
	for i := range out {
		out[i] = &models.Listing{PropertyID: int64(i + 1), BHK: 2, Rent: 10000, City: fmt.Sprintf("City%d", i%4)}
	}
	return out
}

func TestPostgresWriteSwapsInOneTransaction(t *testing.T) {
	log := &execLog{}
	store := newRecordingStore(t, log)

	if err := store.Write(context.Background(), manyListings(120)); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if got := log.count("INSERT INTO properties_staging"); got != 3 {
		t.Errorf("staging batches = %d; want 3", got)
	}
	order := []string{
		"TRUNCATE properties_staging",
		"INSERT INTO properties_staging",
		"BEGIN",
		"DELETE FROM properties",
		"INSERT INTO properties (",
		"COMMIT",
	}
	prev := -1
	for _, prefix := range order {
		idx := log.index(prefix)
		if idx <= prev {
			t.Fatalf("statement %q at %d; want after %d in %q", prefix, idx, prev, log.stmts)
		}
		prev = idx
	}
	if got := log.count("ROLLBACK"); got != 0 {
		t.Errorf("rollbacks = %d; want 0", got)
	}
}

func TestPostgresWriteFailedBatchKeepsTable(t *testing.T) {
	log := &execLog{failOn: "INSERT INTO properties_staging"}
	store := newRecordingStore(t, log)

	err := store.Write(context.Background(), manyListings(120))
	if err == nil || !strings.Contains(err.Error(), "postgres: stage rows") {
		t.Fatalf("Write() = %v; want staging error", err)
	}
	for _, prefix := range []string{"BEGIN", "DELETE FROM properties", "COMMIT"} {
		if got := log.count(prefix); got != 0 {
			t.Errorf("%q ran %d times after a failed batch; want 0", prefix, got)
		}
	}
}

func TestPostgresWriteFailedCopyRollsBack(t *testing.T) {
	log := &execLog{failOn: "FROM properties_staging"}
	store := newRecordingStore(t, log)

	err := store.Write(context.Background(), manyListings(10))
	if err == nil || !strings.Contains(err.Error(), "postgres: copy staged rows") {
		t.Fatalf("Write() = %v; want copy error", err)
	}
	if got := log.count("DELETE FROM properties"); got != 1 {
		t.Errorf("deletes = %d; want 1", got)
	}
	if got := log.count("ROLLBACK"); got != 1 {
		t.Errorf("rollbacks = %d; want 1", got)
	}
	if got := log.count("COMMIT"); got != 0 {
		t.Errorf("commits = %d; want 0", got)
	}
}
