package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/enrich-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	kind       TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'running',
	input      INTEGER NOT NULL DEFAULT 0,
	summary    TEXT,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS stage_events (
	id             TEXT PRIMARY KEY,
	run_id         TEXT NOT NULL,
	entity_id      TEXT NOT NULL,
	stage          TEXT NOT NULL,
	success        INTEGER NOT NULL,
	skipped        INTEGER NOT NULL DEFAULT 0,
	fields_changed TEXT,
	error          TEXT,
	at             DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS companies (
	id         TEXT PRIMARY KEY,
	run_id     TEXT NOT NULL REFERENCES runs(id),
	name       TEXT NOT NULL,
	domain     TEXT,
	data       TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS leads (
	id          TEXT PRIMARY KEY,
	run_id      TEXT NOT NULL REFERENCES runs(id),
	email       TEXT,
	provider_id TEXT,
	data        TEXT NOT NULL,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS social_cache (
	cache_key  TEXT PRIMARY KEY,
	payload    TEXT NOT NULL,
	cached_at  DATETIME NOT NULL,
	expires_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
CREATE INDEX IF NOT EXISTS idx_stage_events_run_id ON stage_events(run_id);
CREATE INDEX IF NOT EXISTS idx_companies_domain ON companies(domain);
CREATE INDEX IF NOT EXISTS idx_leads_email ON leads(email);
CREATE INDEX IF NOT EXISTS idx_social_cache_expires_at ON social_cache(expires_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRun(ctx context.Context, kind model.RunKind, input int) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, kind, status, input, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, string(kind), string(model.RunStatusRunning), input, now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	return &model.Run{
		ID:        id,
		Kind:      kind,
		Status:    model.RunStatusRunning,
		Input:     input,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *SQLiteStore) CompleteRun(ctx context.Context, runID string, status model.RunStatus, summary *model.RunSummary) error {
	var summaryJSON sql.NullString
	if summary != nil {
		b, err := json.Marshal(summary)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal summary")
		}
		summaryJSON = sql.NullString{String: string(b), Valid: true}
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, summary = ?, updated_at = ? WHERE id = ?`,
		string(status), summaryJSON, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, kind, status, input, summary, created_at, updated_at FROM runs WHERE id = ?`,
		runID,
	)
	return scanRun(row)
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, kind, status, input, summary, created_at, updated_at FROM runs WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.Kind != "" {
		query += ` AND kind = ?`
		args = append(args, string(filter.Kind))
	}
	if !filter.CreatedAfter.IsZero() {
		query += ` AND created_at > ?`
		args = append(args, filter.CreatedAfter.UTC())
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, listLimit(filter.Limit))

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func (s *SQLiteStore) RecordStageEvent(ctx context.Context, ev model.StageEvent) error {
	return s.RecordStageEvents(ctx, []model.StageEvent{ev})
}

// RecordStageEvents inserts evs in a single transaction.
func (s *SQLiteStore) RecordStageEvents(ctx context.Context, evs []model.StageEvent) error {
	if len(evs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin stage events")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO stage_events (id, run_id, entity_id, stage, success, skipped, fields_changed, error, at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare stage event")
	}
	defer stmt.Close()

	for _, ev := range evs {
		row, err := stageEventRow(ev)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return eris.Wrapf(err, "sqlite: insert stage event %s/%s", ev.EntityID, ev.Stage)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit stage events")
}

func (s *SQLiteStore) ListStageEvents(ctx context.Context, runID string) ([]model.StageEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, entity_id, stage, success, skipped, fields_changed, error, at
		 FROM stage_events WHERE run_id = ? ORDER BY at, rowid`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list stage events")
	}
	defer rows.Close()

	var out []model.StageEvent
	for rows.Next() {
		var ev model.StageEvent
		var fields, errText sql.NullString
		if err := rows.Scan(&ev.RunID, &ev.EntityID, &ev.Stage, &ev.Success, &ev.Skipped, &fields, &errText, &ev.At); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan stage event")
		}
		if fields.Valid && fields.String != "" {
			if err := json.Unmarshal([]byte(fields.String), &ev.FieldsChanged); err != nil {
				return nil, eris.Wrap(err, "sqlite: unmarshal fields changed")
			}
		}
		ev.Error = errText.String
		out = append(out, ev)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list stage events iterate")
}

func (s *SQLiteStore) SaveCompany(ctx context.Context, runID string, c model.Company) (string, error) {
	id := entityID(c.ID)
	c.ID = id
	data, err := json.Marshal(c)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: marshal company")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO companies (id, run_id, name, domain, data, created_at) VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET run_id = excluded.run_id, name = excluded.name,
		 domain = excluded.domain, data = excluded.data`,
		id, runID, c.Name, c.Domain, string(data), time.Now().UTC(),
	)
	if err != nil {
		return "", eris.Wrapf(err, "sqlite: save company %s", c.Name)
	}
	return id, nil
}

func (s *SQLiteStore) SaveLead(ctx context.Context, runID string, l model.Lead) (string, error) {
	id := entityID(l.ID)
	l.ID = id
	data, err := json.Marshal(l)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: marshal lead")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO leads (id, run_id, email, provider_id, data, created_at) VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET run_id = excluded.run_id, email = excluded.email,
		 provider_id = excluded.provider_id, data = excluded.data`,
		id, runID, l.Email, l.ProviderID, string(data), time.Now().UTC(),
	)
	if err != nil {
		return "", eris.Wrapf(err, "sqlite: save lead %s", l.FullName())
	}
	return id, nil
}

func (s *SQLiteStore) GetCachedSocial(ctx context.Context, key string) ([]byte, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM social_cache WHERE cache_key = ? AND expires_at > ?`,
		key, time.Now().UTC(),
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get cached social")
	}
	return []byte(payload), nil
}

func (s *SQLiteStore) SetCachedSocial(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO social_cache (cache_key, payload, cached_at, expires_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (cache_key) DO UPDATE SET payload = excluded.payload,
		 cached_at = excluded.cached_at, expires_at = excluded.expires_at`,
		key, string(data), now, now.Add(ttl),
	)
	return eris.Wrap(err, "sqlite: set cached social")
}

func (s *SQLiteStore) DeleteExpiredSocial(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM social_cache WHERE expires_at <= ?`, time.Now().UTC(),
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete expired social")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

func entityID(id string) string {
	if id != "" {
		return id
	}
	return uuid.New().String()
}

func stageEventRow(ev model.StageEvent) ([]any, error) {
	var fields any
	if len(ev.FieldsChanged) > 0 {
		b, err := json.Marshal(ev.FieldsChanged)
		if err != nil {
			return nil, eris.Wrap(err, "marshal fields changed")
		}
		fields = string(b)
	}
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	return []any{
		uuid.New().String(), ev.RunID, ev.EntityID, ev.Stage,
		ev.Success, ev.Skipped, fields, ev.Error, at.UTC(),
	}, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*model.Run, error) {
	var r model.Run
	var summaryJSON sql.NullString

	err := row.Scan(&r.ID, &r.Kind, &r.Status, &r.Input, &summaryJSON, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.New("run not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan run")
	}

	if summaryJSON.Valid && summaryJSON.String != "" {
		r.Summary = &model.RunSummary{}
		if err := json.Unmarshal([]byte(summaryJSON.String), r.Summary); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal summary")
		}
	}
	return &r, nil
}
