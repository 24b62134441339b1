package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/safehome/internal/api/grpc/panel"
	"github.com/oshokin/safehome/internal/config"
	domain "github.com/oshokin/safehome/internal/domain/security"
	"github.com/oshokin/safehome/internal/service/common"
	"github.com/oshokin/safehome/internal/service/server"
)

// freeAddress reserves a loopback port and releases it for the server under test.
func freeAddress(t *testing.T) string {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	addr := l.Addr().String()
	_ = l.Close()

	return addr
}

// startServer runs safehome-server with a temporary config backed by SQLite.
// Returns a stop function that waits for the server to exit.
func startServer(t *testing.T, cfg *config.Config) (stop func()) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	cfgPath := filepath.Join(t.TempDir(), "settings.yaml")

	require.NoError(t, config.Save(cfgPath, cfg))

	done := make(chan error, 1)

	go func() {
		done <- server.Run(ctx, &server.Options{ConfigPath: cfgPath})
	}()

	// Wait briefly for server to start listening.
	time.Sleep(150 * time.Millisecond)

	return func() {
		cancel()

		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("server did not stop")
		}
	}
}

// TestGRPC_Roundtrip starts the real server and drives an intrusion through the control panel.
func TestGRPC_Roundtrip(t *testing.T) {
	t.Parallel()

	var (
		addr     = freeAddress(t)
		httpAddr = freeAddress(t)
		dbPath   = filepath.Join(t.TempDir(), "safehome.db")
	)

	stop := startServer(t, &config.Config{
		ServerAddress: addr,
		HTTPAddress:   httpAddr,
		Storage:       config.StorageSQLite,
		DatabaseFile:  dbPath,
		PollInterval:  20 * time.Millisecond,
		ResetDetected: true,
		Timeout:       5 * time.Second,
	})
	defer stop()

	ctx := context.Background()

	c, err := common.Dial(ctx, addr,
		common.WithCallTimeout(3*time.Second),
		common.WithActor(&domain.Actor{Hostname: "test-hostname", Username: "test-user"}))
	require.NoError(t, err)

	defer func() {
		_ = c.Close()
	}()

	_, err = c.SetSecurityMode(ctx, "Away")
	require.NoError(t, err)

	_, err = c.SetSensor(ctx, domain.SensorRef{Kind: domain.KindEntry, ID: 2}, panel.ActionIntrude)
	require.NoError(t, err)

	// The poll loop records the intrusion and releases the sensor.
	require.Eventually(t, func() bool {
		resp, err := c.Logs(ctx)
		if err != nil {
			return false
		}

		return len(resp.GetFields()[panel.FieldLogs].GetListValue().GetValues()) > 0
	}, 3*time.Second, 20*time.Millisecond)

	resp, err := c.Logs(ctx)
	require.NoError(t, err)

	entry := resp.GetFields()[panel.FieldLogs].GetListValue().GetValues()[0].GetStructValue()
	require.Equal(t, "[2]", entry.GetFields()[panel.FieldDescription].GetStringValue())

	// The same log is visible over HTTP.
	httpResp, err := http.Get(fmt.Sprintf("http://%s/api/v1/logs", httpAddr)) //nolint:noctx // Test request.
	require.NoError(t, err)

	defer func() {
		_ = httpResp.Body.Close()
	}()

	require.Equal(t, http.StatusOK, httpResp.StatusCode)

	var logs []map[string]any
	require.NoError(t, json.NewDecoder(httpResp.Body).Decode(&logs))
	require.NotEmpty(t, logs)

	// Verify storage was created on disk.
	_, err = os.Stat(dbPath)
	require.NoError(t, err)
}

// TestGRPC_StatePersistsAcrossRestarts checks that SQLite storage keeps the active mode.
func TestGRPC_StatePersistsAcrossRestarts(t *testing.T) {
	t.Parallel()

	var (
		addr   = freeAddress(t)
		dbPath = filepath.Join(t.TempDir(), "safehome.db")
		cfg    = &config.Config{
			ServerAddress: addr,
			Storage:       config.StorageSQLite,
			DatabaseFile:  dbPath,
			Timeout:       5 * time.Second,
		}
		actor = &domain.Actor{Hostname: "test-hostname", Username: "test-user"}
		ctx   = context.Background()
	)

	stop := startServer(t, cfg)

	c, err := common.Dial(ctx, addr, common.WithCallTimeout(3*time.Second), common.WithActor(actor))
	require.NoError(t, err)

	_, err = c.SetSecurityMode(ctx, "Overnight")
	require.NoError(t, err)

	_, err = c.AddSecurityZone(ctx)
	require.NoError(t, err)

	_ = c.Close()

	stop()

	stop = startServer(t, cfg)
	defer stop()

	c, err = common.Dial(ctx, addr, common.WithCallTimeout(3*time.Second))
	require.NoError(t, err)

	defer func() {
		_ = c.Close()
	}()

	status, err := c.Status(ctx)
	require.NoError(t, err)
	require.Equal(t, "Overnight", status.GetFields()[panel.FieldActiveMode].GetStringValue())
	require.Len(t, status.GetFields()[panel.FieldZones].GetListValue().GetValues(), 1)
}
