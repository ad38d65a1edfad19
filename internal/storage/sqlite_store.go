package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/denisok6893-rgb/lokao-advisor/internal/domain"
	"github.com/denisok6893-rgb/lokao-advisor/internal/logging"
	"github.com/denisok6893-rgb/lokao-advisor/internal/pilot"
)

// SQLiteStore persists payments and pilot state with one transaction per mutation.
// Writes go through db, whose transactions start IMMEDIATE; View reads go through
// ro, a query-only handle with deferred transactions that never waits on writers.
type SQLiteStore struct {
	db  *sql.DB
	ro  *sql.DB
	log *logging.Logger
}

func OpenSQLite(path string, log *logging.Logger) (*SQLiteStore, error) {
	rwDSN := path + "?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000&_txlock=immediate"
	roDSN := path + "?_foreign_keys=on&_busy_timeout=5000&_txlock=deferred&_query_only=on"
	if strings.Contains(path, "?") {
		rwDSN, roDSN = path, path
	}
	db, err := sql.Open("sqlite3", rwDSN)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	ro, err := sql.Open("sqlite3", roDSN)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db, ro: ro, log: logging.OrNop(log).With("store", "sqlite")}, nil
}

func (s *SQLiteStore) Close() error {
	return errors.Join(s.ro.Close(), s.db.Close())
}

func (s *SQLiteStore) EnsureSchema() error {
	const schema = `
CREATE TABLE IF NOT EXISTS payments (
  token TEXT PRIMARY KEY,
  status TEXT NOT NULL,
  data_json TEXT NOT NULL DEFAULT '{}'
);
CREATE TABLE IF NOT EXISTS pilot_window (
  id INTEGER PRIMARY KEY CHECK (id = 1),
  window_start TEXT NOT NULL,
  window_end TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS pilot_cpfs (
  cpf_hash TEXT PRIMARY KEY,
  report_token TEXT NOT NULL DEFAULT '',
  created_at TEXT NOT NULL DEFAULT '',
  feedback_at TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS pilot_tokens (
  token TEXT PRIMARY KEY,
  cpf_hash TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS pilot_feedback (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  token TEXT NOT NULL,
  cpf_hash TEXT NOT NULL,
  ts TEXT NOT NULL,
  answers_json TEXT NOT NULL DEFAULT '{}'
);
CREATE TABLE IF NOT EXISTS pilot_events (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  ts TEXT NOT NULL,
  tipo TEXT NOT NULL,
  cpf_hash TEXT NOT NULL DEFAULT '',
  token TEXT NOT NULL DEFAULT '',
  ip_hash TEXT NOT NULL DEFAULT '',
  ua TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_pilot_feedback_token ON pilot_feedback(token);
`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// ---- payments ----

func (s *SQLiteStore) GetPayment(ctx context.Context, token string) (domain.PaymentRecord, bool, error) {
	return s.getPayment(ctx, s.ro, token)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *SQLiteStore) getPayment(ctx context.Context, q queryRower, token string) (domain.PaymentRecord, bool, error) {
	var rec domain.PaymentRecord
	var status, dataJSON string
	err := q.QueryRowContext(ctx, `SELECT status, data_json FROM payments WHERE token = ?`, token).
		Scan(&status, &dataJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.PaymentRecord{}, false, nil
	}
	if err != nil {
		return domain.PaymentRecord{}, false, err
	}
	rec.Status = domain.PaymentStatus(status)
	if err := json.Unmarshal([]byte(dataJSON), &rec.Data); err != nil {
		s.log.Warn("payment data unreadable, using empty data", "lookup", shortRef(token), "error", err)
		rec.Data = nil
	}
	return rec, true, nil
}

func (s *SQLiteStore) RegisterPending(ctx context.Context, token string, data map[string]string) (domain.PaymentRecord, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.PaymentRecord{}, err
	}
	defer func() { _ = tx.Rollback() }()

	cur, _, err := s.getPayment(ctx, tx, token)
	if err != nil {
		return domain.PaymentRecord{}, err
	}
	rec := mergePending(cur, data)
	dataJSON, err := json.Marshal(rec.Data)
	if err != nil {
		return domain.PaymentRecord{}, err
	}
	if _, err := tx.ExecContext(ctx, `
INSERT INTO payments (token, status, data_json) VALUES (?, ?, ?)
ON CONFLICT(token) DO UPDATE SET status = excluded.status, data_json = excluded.data_json
`, token, string(rec.Status), string(dataJSON)); err != nil {
		return domain.PaymentRecord{}, err
	}
	return rec, tx.Commit()
}

func (s *SQLiteStore) MarkPaid(ctx context.Context, token string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE payments SET status = ? WHERE token = ?`, string(domain.PaymentPaid), token)
	if err != nil {
		return false, err
	}
	aff, _ := res.RowsAffected()
	return aff > 0, nil
}

// ---- pilot ----

func (s *SQLiteStore) Update(ctx context.Context, fn func(pilot.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(&sqlitePilotTx{ctx: ctx, tx: tx, log: s.log}); err != nil {
		return err
	}
	return tx.Commit()
}

// View runs fn in a read-only snapshot that is always rolled back.
// It does not take the write lock, so it neither waits for nor blocks Update.
func (s *SQLiteStore) View(ctx context.Context, fn func(pilot.Tx) error) error {
	tx, err := s.ro.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	return fn(&sqlitePilotTx{ctx: ctx, tx: tx, log: s.log})
}

type sqlitePilotTx struct {
	ctx context.Context
	tx  *sql.Tx
	log *logging.Logger
}

func (t *sqlitePilotTx) exec(query string, args ...any) error {
	_, err := t.tx.ExecContext(t.ctx, query, args...)
	return err
}

func (t *sqlitePilotTx) Window() (domain.PilotWindow, error) {
	var start, end string
	err := t.tx.QueryRowContext(t.ctx, `SELECT window_start, window_end FROM pilot_window WHERE id = 1`).
		Scan(&start, &end)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.PilotWindow{}, nil
	}
	if err != nil {
		return domain.PilotWindow{}, err
	}
	s, ok1 := domain.ParseTime(start)
	e, ok2 := domain.ParseTime(end)
	if !ok1 || !ok2 {
		return domain.PilotWindow{}, nil
	}
	return domain.PilotWindow{Start: s, End: e}, nil
}

func (t *sqlitePilotTx) SetWindow(w domain.PilotWindow) error {
	return t.exec(`
INSERT INTO pilot_window (id, window_start, window_end) VALUES (1, ?, ?)
ON CONFLICT(id) DO UPDATE SET window_start = excluded.window_start, window_end = excluded.window_end
`, domain.FormatTime(w.Start), domain.FormatTime(w.End))
}

func (t *sqlitePilotTx) CPF(hash string) (domain.PilotCPFRecord, bool, error) {
	var rec domain.PilotCPFRecord
	err := t.tx.QueryRowContext(t.ctx,
		`SELECT report_token, created_at, feedback_at FROM pilot_cpfs WHERE cpf_hash = ?`, hash).
		Scan(&rec.ReportToken, &rec.CreatedAt, &rec.FeedbackSubmittedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.PilotCPFRecord{}, false, nil
	}
	if err != nil {
		return domain.PilotCPFRecord{}, false, err
	}
	return rec, true, nil
}

func (t *sqlitePilotTx) PutCPF(hash string, rec domain.PilotCPFRecord) error {
	return t.exec(`
INSERT INTO pilot_cpfs (cpf_hash, report_token, created_at, feedback_at) VALUES (?, ?, ?, ?)
ON CONFLICT(cpf_hash) DO UPDATE SET
  report_token = excluded.report_token,
  created_at = excluded.created_at,
  feedback_at = excluded.feedback_at
`, hash, rec.ReportToken, rec.CreatedAt, rec.FeedbackSubmittedAt)
}

func (t *sqlitePilotTx) DeleteCPF(hash string) error {
	return t.exec(`DELETE FROM pilot_cpfs WHERE cpf_hash = ?`, hash)
}

func (t *sqlitePilotTx) TokenOwner(token string) (string, bool, error) {
	var hash string
	err := t.tx.QueryRowContext(t.ctx, `SELECT cpf_hash FROM pilot_tokens WHERE token = ?`, token).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return hash, hash != "", nil
}

func (t *sqlitePilotTx) PutToken(token, hash string) error {
	return t.exec(`INSERT OR REPLACE INTO pilot_tokens (token, cpf_hash) VALUES (?, ?)`, token, hash)
}

func (t *sqlitePilotTx) DeleteToken(token string) error {
	return t.exec(`DELETE FROM pilot_tokens WHERE token = ?`, token)
}

func (t *sqlitePilotTx) AppendFeedback(f domain.FeedbackRecord) error {
	answers, err := json.Marshal(f.Answers)
	if err != nil {
		return err
	}
	return t.exec(`INSERT INTO pilot_feedback (token, cpf_hash, ts, answers_json) VALUES (?, ?, ?, ?)`,
		f.Token, f.CPFHash, f.Timestamp, string(answers))
}

func (t *sqlitePilotTx) DeleteFeedback(token string) error {
	return t.exec(`DELETE FROM pilot_feedback WHERE token = ?`, token)
}

func (t *sqlitePilotTx) RecentFeedback(limit int) ([]domain.FeedbackRecord, error) {
	rows, err := t.tx.QueryContext(t.ctx, `
SELECT token, cpf_hash, ts, answers_json FROM (
  SELECT id, token, cpf_hash, ts, answers_json FROM pilot_feedback ORDER BY id DESC LIMIT ?
) ORDER BY id ASC
`, limitOrAll(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.FeedbackRecord
	for rows.Next() {
		var f domain.FeedbackRecord
		var answers string
		if err := rows.Scan(&f.Token, &f.CPFHash, &f.Timestamp, &answers); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(answers), &f.Answers); err != nil {
			t.log.Warn("feedback answers unreadable, using empty answers", "lookup", shortRef(f.Token), "error", err)
			f.Answers = map[string]string{}
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (t *sqlitePilotTx) AppendEvent(ev domain.AuditEvent) error {
	return t.exec(`INSERT INTO pilot_events (ts, tipo, cpf_hash, token, ip_hash, ua) VALUES (?, ?, ?, ?, ?, ?)`,
		ev.Timestamp, ev.Type, ev.CPFHash, ev.Token, ev.IPHash, ev.UserAgent)
}

func (t *sqlitePilotTx) RecentEvents(limit int) ([]domain.AuditEvent, error) {
	rows, err := t.tx.QueryContext(t.ctx, `
SELECT ts, tipo, cpf_hash, token, ip_hash, ua FROM (
  SELECT id, ts, tipo, cpf_hash, token, ip_hash, ua FROM pilot_events ORDER BY id DESC LIMIT ?
) ORDER BY id ASC
`, limitOrAll(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.AuditEvent
	for rows.Next() {
		var ev domain.AuditEvent
		if err := rows.Scan(&ev.Timestamp, &ev.Type, &ev.CPFHash, &ev.Token, &ev.IPHash, &ev.UserAgent); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (t *sqlitePilotTx) Counts() (domain.PilotCounts, error) {
	var c domain.PilotCounts
	err := t.tx.QueryRowContext(t.ctx, `
SELECT
  (SELECT COUNT(*) FROM pilot_cpfs WHERE report_token <> ''),
  (SELECT COUNT(*) FROM pilot_cpfs WHERE feedback_at <> ''),
  (SELECT COUNT(*) FROM pilot_events)
`).Scan(&c.Generated, &c.Feedback, &c.Events)
	return c, err
}

// shortRef keeps a token prefix for log correlation.
func shortRef(token string) string {
	if len(token) > 8 {
		return token[:8]
	}
	return token
}

// limitOrAll maps a non-positive limit to SQLite's "no limit".
func limitOrAll(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}
