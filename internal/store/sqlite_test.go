package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/enrich-cli/internal/model"
)

func newTestSQLite(t *testing.T) Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestSQLiteStore(t *testing.T) {
	storeTestSuite(t, newTestSQLite)
}

func storeTestSuite(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("CreateAndGetRun", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		run, err := s.CreateRun(ctx, model.RunKindCompanies, 3)
		require.NoError(t, err)
		assert.NotEmpty(t, run.ID)
		assert.Equal(t, model.RunStatusRunning, run.Status)

		got, err := s.GetRun(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, run.ID, got.ID)
		assert.Equal(t, model.RunKindCompanies, got.Kind)
		assert.Equal(t, 3, got.Input)
		assert.Nil(t, got.Summary)
	})

	t.Run("CompleteRun", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		run, err := s.CreateRun(ctx, model.RunKindLeads, 2)
		require.NoError(t, err)

		summary := &model.RunSummary{
			Stats: model.ValidationStats{
				Total: 2, Passed: 1, Filtered: 1,
				RulesFailed: map[string]int{"required_name_fields": 1},
			},
			Errors:   []string{"acme: apollo: unexpected status 500"},
			Cost:     map[string]float64{"apollo": 0.02},
			Calls:    map[string]int{"apollo": 2},
			Duration: 1200,
		}
		require.NoError(t, s.CompleteRun(ctx, run.ID, model.RunStatusComplete, summary))

		got, err := s.GetRun(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, model.RunStatusComplete, got.Status)
		require.NotNil(t, got.Summary)
		assert.Equal(t, 1, got.Summary.Stats.RulesFailed["required_name_fields"])
		assert.Equal(t, []string{"acme: apollo: unexpected status 500"}, got.Summary.Errors)
		assert.InDelta(t, 0.02, got.Summary.Cost["apollo"], 1e-9)
	})

	t.Run("CompleteRunNotFound", func(t *testing.T) {
		s := newStore(t)
		err := s.CompleteRun(context.Background(), "missing", model.RunStatusFailed, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})

	t.Run("GetRunNotFound", func(t *testing.T) {
		s := newStore(t)
		_, err := s.GetRun(context.Background(), "missing")
		require.Error(t, err)
	})

	t.Run("ListRunsFilters", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		before := time.Now().UTC().Add(-time.Minute)
		a, err := s.CreateRun(ctx, model.RunKindCompanies, 1)
		require.NoError(t, err)
		_, err = s.CreateRun(ctx, model.RunKindLeads, 1)
		require.NoError(t, err)
		require.NoError(t, s.CompleteRun(ctx, a.ID, model.RunStatusFailed, nil))

		all, err := s.ListRuns(ctx, RunFilter{})
		require.NoError(t, err)
		assert.Len(t, all, 2)

		failed, err := s.ListRuns(ctx, RunFilter{Status: model.RunStatusFailed})
		require.NoError(t, err)
		require.Len(t, failed, 1)
		assert.Equal(t, a.ID, failed[0].ID)

		leads, err := s.ListRuns(ctx, RunFilter{Kind: model.RunKindLeads})
		require.NoError(t, err)
		assert.Len(t, leads, 1)

		recent, err := s.ListRuns(ctx, RunFilter{CreatedAfter: before})
		require.NoError(t, err)
		assert.Len(t, recent, 2)

		future, err := s.ListRuns(ctx, RunFilter{CreatedAfter: time.Now().UTC().Add(time.Hour)})
		require.NoError(t, err)
		assert.Empty(t, future)

		page, err := s.ListRuns(ctx, RunFilter{Limit: 1, Offset: 1})
		require.NoError(t, err)
		assert.Len(t, page, 1)
	})

	t.Run("StageEvents", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		run, err := s.CreateRun(ctx, model.RunKindCompanies, 1)
		require.NoError(t, err)

		at := time.Now().UTC()
		require.NoError(t, s.RecordStageEvent(ctx, model.StageEvent{
			RunID: run.ID, EntityID: "acme", Stage: "apollo", Success: true,
			FieldsChanged: []string{"name", "domain"}, At: at,
		}))
		require.NoError(t, s.RecordStageEvents(ctx, []model.StageEvent{
			{RunID: run.ID, EntityID: "acme", Stage: "enrichlayer", Skipped: true, At: at.Add(time.Second)},
			{RunID: run.ID, EntityID: "acme", Stage: "hunter", Error: "hunter: unexpected status 500", At: at.Add(2 * time.Second)},
		}))
		require.NoError(t, s.RecordStageEvents(ctx, nil))

		evs, err := s.ListStageEvents(ctx, run.ID)
		require.NoError(t, err)
		require.Len(t, evs, 3)
		assert.Equal(t, "apollo", evs[0].Stage)
		assert.True(t, evs[0].Success)
		assert.Equal(t, []string{"name", "domain"}, evs[0].FieldsChanged)
		assert.True(t, evs[1].Skipped)
		assert.Empty(t, evs[1].FieldsChanged)
		assert.False(t, evs[2].Success)
		assert.Equal(t, "hunter: unexpected status 500", evs[2].Error)
	})

	t.Run("SaveCompanyAndLead", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		run, err := s.CreateRun(ctx, model.RunKindLeads, 1)
		require.NoError(t, err)

		id, err := s.SaveCompany(ctx, run.ID, model.Company{Name: "Acme Labs", Domain: "acme-labs.com"})
		require.NoError(t, err)
		assert.NotEmpty(t, id)

		again, err := s.SaveCompany(ctx, run.ID, model.Company{ID: id, Name: "Acme Labs Inc"})
		require.NoError(t, err)
		assert.Equal(t, id, again)

		leadID, err := s.SaveLead(ctx, run.ID, model.Lead{FirstName: "Jane", LastName: "Doe", Email: "jane@acme.com"})
		require.NoError(t, err)
		assert.NotEmpty(t, leadID)

		fixed, err := s.SaveLead(ctx, run.ID, model.Lead{ID: "lead-1", FirstName: "John", LastName: "Roe"})
		require.NoError(t, err)
		assert.Equal(t, "lead-1", fixed)
	})

	t.Run("SocialCache", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		data, err := s.GetCachedSocial(ctx, "social|email:jane@acme.com")
		require.NoError(t, err)
		assert.Nil(t, data)

		require.NoError(t, s.SetCachedSocial(ctx, "social|email:jane@acme.com", []byte(`{"twitter":"https://twitter.com/jdoe"}`), time.Hour))
		data, err = s.GetCachedSocial(ctx, "social|email:jane@acme.com")
		require.NoError(t, err)
		assert.JSONEq(t, `{"twitter":"https://twitter.com/jdoe"}`, string(data))

		require.NoError(t, s.SetCachedSocial(ctx, "stale", []byte(`{}`), -time.Hour))
		data, err = s.GetCachedSocial(ctx, "stale")
		require.NoError(t, err)
		assert.Nil(t, data)

		n, err := s.DeleteExpiredSocial(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})
}
