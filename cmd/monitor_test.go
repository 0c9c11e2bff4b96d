//go:build !integration

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/enrich-cli/internal/config"
	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/internal/monitoring"
)

func monitorConfig(t *testing.T, webhook string) *config.Config {
	c := testConfig(t)
	c.Monitoring = config.MonitoringConfig{
		WebhookURL:           webhook,
		CheckIntervalSecs:    300,
		LookbackWindowHours:  24,
		FailureRateThreshold: 0.25,
		FilterRateThreshold:  0.5,
		CostThresholdUSD:     1,
	}
	return c
}

func TestMonitorCmd_Once(t *testing.T) {
	var posts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		posts.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg = monitorConfig(t, srv.URL)

	// Seed one expensive run.
	ctx := context.Background()
	st, err := openStore(ctx)
	require.NoError(t, err)
	run, err := st.CreateRun(ctx, model.RunKindCompanies, 3)
	require.NoError(t, err)
	require.NoError(t, st.CompleteRun(ctx, run.ID, model.RunStatusComplete, &model.RunSummary{
		Stats: model.ValidationStats{Total: 3, Passed: 3},
		Cost:  map[string]float64{"coresignal": 2.5},
	}))
	require.NoError(t, st.Close())

	monitorOnce = true
	t.Cleanup(func() { monitorOnce = false })

	var out bytes.Buffer
	monitorCmd.SetContext(ctx)
	monitorCmd.SetOut(&out)
	t.Cleanup(func() { monitorCmd.SetOut(nil) })

	require.NoError(t, monitorCmd.RunE(monitorCmd, nil))

	var alerts []monitoring.Alert
	require.NoError(t, json.Unmarshal(out.Bytes(), &alerts))
	require.Len(t, alerts, 1)
	assert.Equal(t, monitoring.AlertCostOverrun, alerts[0].Type)
	assert.Equal(t, int32(1), posts.Load())
}

func TestMonitorCmd_RequiresWebhook(t *testing.T) {
	cfg = monitorConfig(t, "")
	monitorCmd.SetContext(context.Background())
	err := monitorCmd.RunE(monitorCmd, nil)
	assert.ErrorContains(t, err, "monitoring.webhook_url is required")
}

func TestMonitorSnapshotCmd(t *testing.T) {
	cfg = monitorConfig(t, "http://unused")

	var out bytes.Buffer
	monitorSnapshotCmd.SetContext(context.Background())
	monitorSnapshotCmd.SetOut(&out)
	t.Cleanup(func() { monitorSnapshotCmd.SetOut(nil) })

	require.NoError(t, monitorSnapshotCmd.RunE(monitorSnapshotCmd, nil))

	var snap monitoring.MetricsSnapshot
	require.NoError(t, json.Unmarshal(out.Bytes(), &snap))
	assert.Equal(t, 0, snap.RunsTotal)
	assert.Equal(t, 24, snap.LookbackHours)
}
