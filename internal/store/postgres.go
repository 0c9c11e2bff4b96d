package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/enrich-cli/internal/db"
	"github.com/sells-group/enrich-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// preparedStatements lists queries to prepare on each new connection for
// the operations run once per entity.
var preparedStatements = map[string]string{
	"insert_run":        `INSERT INTO runs (id, kind, status, input, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`,
	"complete_run":      `UPDATE runs SET status = $1, summary = $2, updated_at = $3 WHERE id = $4`,
	"get_run":           `SELECT id, kind, status, input, summary, created_at, updated_at FROM runs WHERE id = $1`,
	"get_cached_social": `SELECT payload FROM social_cache WHERE cache_key = $1 AND expires_at > now()`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg db.PoolConfig) (*PostgresStore, error) {
	pool, err := db.Connect(ctx, connString, poolCfg, func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	})
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool. The caller keeps ownership of it.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	kind       TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'running',
	input      INTEGER NOT NULL DEFAULT 0,
	summary    JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS stage_events (
	id             TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	run_id         TEXT NOT NULL,
	entity_id      TEXT NOT NULL,
	stage          TEXT NOT NULL,
	success        BOOLEAN NOT NULL,
	skipped        BOOLEAN NOT NULL DEFAULT false,
	fields_changed TEXT,
	error          TEXT,
	at             TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS companies (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	run_id     TEXT NOT NULL REFERENCES runs(id),
	name       TEXT NOT NULL,
	domain     TEXT,
	data       JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS leads (
	id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	run_id      TEXT NOT NULL REFERENCES runs(id),
	email       TEXT,
	provider_id TEXT,
	data        JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS social_cache (
	cache_key  TEXT PRIMARY KEY,
	payload    JSONB NOT NULL,
	cached_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	expires_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_stage_events_run_id ON stage_events(run_id);
CREATE INDEX IF NOT EXISTS idx_companies_domain ON companies(domain);
CREATE INDEX IF NOT EXISTS idx_leads_email ON leads(lower(email));
CREATE INDEX IF NOT EXISTS idx_social_cache_expires_at ON social_cache(expires_at);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateRun(ctx context.Context, kind model.RunKind, input int) (*model.Run, error) {
	id := entityID("")
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO runs (id, kind, status, input, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		id, string(kind), string(model.RunStatusRunning), input, now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
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

func (s *PostgresStore) CompleteRun(ctx context.Context, runID string, status model.RunStatus, summary *model.RunSummary) error {
	var summaryJSON []byte
	if summary != nil {
		b, err := json.Marshal(summary)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal summary")
		}
		summaryJSON = b
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, summary = $2, updated_at = $3 WHERE id = $4`,
		string(status), summaryJSON, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	r, err := scanPgRun(s.pool.QueryRow(ctx,
		`SELECT id, kind, status, input, summary, created_at, updated_at FROM runs WHERE id = $1`,
		runID,
	))
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}
	return r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, kind, status, input, summary, created_at, updated_at FROM runs WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	if filter.Kind != "" {
		query += fmt.Sprintf(` AND kind = $%d`, argIdx)
		args = append(args, string(filter.Kind))
		argIdx++
	}
	if !filter.CreatedAfter.IsZero() {
		query += fmt.Sprintf(` AND created_at > $%d`, argIdx)
		args = append(args, filter.CreatedAfter.UTC())
		argIdx++
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d`, argIdx)
	args = append(args, listLimit(filter.Limit))
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanPgRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

func (s *PostgresStore) RecordStageEvent(ctx context.Context, ev model.StageEvent) error {
	row, err := stageEventRow(ev)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO stage_events (id, run_id, entity_id, stage, success, skipped, fields_changed, error, at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		row...,
	)
	return eris.Wrapf(err, "postgres: insert stage event %s/%s", ev.EntityID, ev.Stage)
}

var stageEventColumns = []string{"id", "run_id", "entity_id", "stage", "success", "skipped", "fields_changed", "error", "at"}

// RecordStageEvents bulk-loads evs with COPY.
func (s *PostgresStore) RecordStageEvents(ctx context.Context, evs []model.StageEvent) error {
	rows := make([][]any, 0, len(evs))
	for _, ev := range evs {
		row, err := stageEventRow(ev)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}
	_, err := db.CopyFrom(ctx, s.pool, "stage_events", stageEventColumns, rows)
	return eris.Wrap(err, "postgres: record stage events")
}

func (s *PostgresStore) ListStageEvents(ctx context.Context, runID string) ([]model.StageEvent, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT run_id, entity_id, stage, success, skipped, fields_changed, error, at
		 FROM stage_events WHERE run_id = $1 ORDER BY at`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list stage events")
	}
	defer rows.Close()

	var out []model.StageEvent
	for rows.Next() {
		var ev model.StageEvent
		var fields, errText *string
		if err := rows.Scan(&ev.RunID, &ev.EntityID, &ev.Stage, &ev.Success, &ev.Skipped, &fields, &errText, &ev.At); err != nil {
			return nil, eris.Wrap(err, "postgres: scan stage event")
		}
		if fields != nil && *fields != "" {
			if err := json.Unmarshal([]byte(*fields), &ev.FieldsChanged); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal fields changed")
			}
		}
		if errText != nil {
			ev.Error = *errText
		}
		out = append(out, ev)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list stage events iterate")
}

func (s *PostgresStore) SaveCompany(ctx context.Context, runID string, c model.Company) (string, error) {
	id := entityID(c.ID)
	c.ID = id
	data, err := json.Marshal(c)
	if err != nil {
		return "", eris.Wrap(err, "postgres: marshal company")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO companies (id, run_id, name, domain, data) VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO UPDATE SET run_id = $2, name = $3, domain = $4, data = $5`,
		id, runID, c.Name, c.Domain, data,
	)
	if err != nil {
		return "", eris.Wrapf(err, "postgres: save company %s", c.Name)
	}
	return id, nil
}

func (s *PostgresStore) SaveLead(ctx context.Context, runID string, l model.Lead) (string, error) {
	id := entityID(l.ID)
	l.ID = id
	data, err := json.Marshal(l)
	if err != nil {
		return "", eris.Wrap(err, "postgres: marshal lead")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO leads (id, run_id, email, provider_id, data) VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO UPDATE SET run_id = $2, email = $3, provider_id = $4, data = $5`,
		id, runID, l.Email, l.ProviderID, data,
	)
	if err != nil {
		return "", eris.Wrapf(err, "postgres: save lead %s", l.FullName())
	}
	return id, nil
}

func (s *PostgresStore) GetCachedSocial(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT payload FROM social_cache WHERE cache_key = $1 AND expires_at > now()`,
		key,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "postgres: get cached social")
	}
	return data, nil
}

func (s *PostgresStore) SetCachedSocial(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	now := time.Now().UTC()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO social_cache (cache_key, payload, cached_at, expires_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (cache_key) DO UPDATE SET payload = $2, cached_at = $3, expires_at = $4`,
		key, data, now, now.Add(ttl),
	)
	return eris.Wrap(err, "postgres: set cached social")
}

func (s *PostgresStore) DeleteExpiredSocial(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM social_cache WHERE expires_at <= now()`)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete expired social")
	}
	return int(tag.RowsAffected()), nil
}

func scanPgRun(row pgx.Row) (*model.Run, error) {
	var r model.Run
	var kind, status string
	var summary []byte

	if err := row.Scan(&r.ID, &kind, &status, &r.Input, &summary, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	r.Kind = model.RunKind(kind)
	r.Status = model.RunStatus(status)
	if len(summary) > 0 {
		r.Summary = &model.RunSummary{}
		if err := json.Unmarshal(summary, r.Summary); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal summary")
		}
	}
	return &r, nil
}
