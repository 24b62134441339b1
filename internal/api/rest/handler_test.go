package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	domain "github.com/oshokin/safehome/internal/domain/security"
	"github.com/oshokin/safehome/internal/metrics"
	repository "github.com/oshokin/safehome/internal/repository/security"
	"github.com/oshokin/safehome/internal/service/security"
)

var errLogsUnavailable = errors.New("logs unavailable")

// brokenLogs fails every log read.
type brokenLogs struct {
	*security.Manager
}

func (brokenLogs) Logs(context.Context) ([]domain.LogEntry, error) {
	return nil, errLogsUnavailable
}

func newTestServer(t *testing.T, wrap func(*security.Manager) Service) (*httptest.Server, *security.Manager) {
	t.Helper()

	var (
		ctx  = context.Background()
		repo = repository.NewSeededMemoryRepository()
		reg  = prometheus.NewRegistry()
	)

	observer, err := metrics.New(reg)
	require.NoError(t, err)

	manager, err := security.NewManager(ctx, repo, security.NewLogManager(repo), security.WithObserver(observer))
	require.NoError(t, err)

	var service Service = manager
	if wrap != nil {
		service = wrap(manager)
	}

	srv := httptest.NewServer(NewHandler(service, reg).Router(ctx))
	t.Cleanup(srv.Close)

	return srv, manager
}

func get(t *testing.T, url string) (int, []byte) {
	t.Helper()

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, body
}

func TestHandler_Health(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, nil)

	code, body := get(t, srv.URL+"/healthz")
	require.Equal(t, http.StatusOK, code)
	require.JSONEq(t, `{"status":"ok"}`, string(body))
}

func TestHandler_Status(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	srv, manager := newTestServer(t, nil)

	require.NoError(t, manager.SetSecurityModeName(ctx, "Away"))

	_, _, err := manager.Update(ctx, false)
	require.NoError(t, err)

	code, body := get(t, srv.URL+"/api/v1/status")
	require.Equal(t, http.StatusOK, code)

	var status statusView
	require.NoError(t, json.Unmarshal(body, &status))
	require.NotNil(t, status.ActiveMode)
	require.Equal(t, "Away", *status.ActiveMode)
	require.Len(t, status.Sensors, 10)
	require.Equal(t, "entry", status.Sensors[0].Kind)
	require.True(t, status.Sensors[0].Armed)
	require.False(t, status.Sensors[3].Armed)
	require.Equal(t, "motion", status.Sensors[9].Kind)
	require.Len(t, status.Modes, 4)
}

func TestHandler_Zones(t *testing.T) {
	t.Parallel()

	srv, manager := newTestServer(t, nil)

	zone, err := manager.AddSecurityZone(context.Background())
	require.NoError(t, err)

	code, body := get(t, srv.URL+"/api/v1/zones/1")
	require.Equal(t, http.StatusOK, code)

	var view zoneView
	require.NoError(t, json.Unmarshal(body, &view))
	require.Equal(t, zone.ID, view.ID)
	require.True(t, view.Enabled)
	require.Empty(t, view.Sensors)
	require.InDelta(t, 150, view.Rect.Up, 0)
	require.InDelta(t, 240, view.Rect.Right, 0)

	code, _ = get(t, srv.URL+"/api/v1/zones/7")
	require.Equal(t, http.StatusNotFound, code)
}

func TestHandler_LogsAndMetrics(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	srv, manager := newTestServer(t, nil)

	require.NoError(t, manager.SetSecurityModeName(ctx, "Away"))
	require.NoError(t, manager.Intrude(1))

	_, _, err := manager.Update(ctx, false)
	require.NoError(t, err)

	code, body := get(t, srv.URL+"/api/v1/logs")
	require.Equal(t, http.StatusOK, code)

	var logs []logView
	require.NoError(t, json.Unmarshal(body, &logs))
	require.Len(t, logs, 1)
	require.Equal(t, "[1]", logs[0].Description)

	code, body = get(t, srv.URL+"/metrics")
	require.Equal(t, http.StatusOK, code)
	require.True(t, strings.Contains(string(body), "safehome_alarms_total 1"))
	require.True(t, strings.Contains(string(body), "safehome_armed_sensors 3"))
}

func TestHandler_LogsFailure(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, func(m *security.Manager) Service {
		return brokenLogs{Manager: m}
	})

	code, body := get(t, srv.URL+"/api/v1/logs")
	require.Equal(t, http.StatusInternalServerError, code)
	require.JSONEq(t, `{"error":"internal error"}`, string(body))
}

func TestHandler_RequestID(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, nil)

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL+"/healthz", nil)
	require.NoError(t, err)

	req.Header.Set(requestIDHeader, "panel-42")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, "panel-42", resp.Header.Get(requestIDHeader))

	resp, err = http.DefaultClient.Do(req.Clone(context.Background()))
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.NotEmpty(t, resp.Header.Get(requestIDHeader))
}
