package client

import (
	"bytes"
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/safehome/internal/api/grpc/panel"
	"github.com/oshokin/safehome/internal/config"
	domain "github.com/oshokin/safehome/internal/domain/security"
	repository "github.com/oshokin/safehome/internal/repository/security"
	"github.com/oshokin/safehome/internal/service/security"
)

// startPanel serves a seeded manager on a loopback port and returns a config path pointing at it.
func startPanel(t *testing.T) (string, *security.Manager) {
	t.Helper()

	ctx := context.Background()
	repo := repository.NewSeededMemoryRepository()

	m, err := security.NewManager(ctx, repo, security.NewLogManager(repo))
	require.NoError(t, err)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := grpc.NewServer()
	panel.RegisterControlPanelServer(srv, panel.NewServer(m))

	go func() {
		_ = srv.Serve(lis) //nolint:errcheck // Serve returns once the test stops the server.
	}()

	t.Cleanup(srv.Stop)

	cfgPath := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, config.Save(cfgPath, &config.Config{
		ServerAddress: lis.Addr().String(),
		Timeout:       3 * time.Second,
	}))

	return cfgPath, m
}

func TestRun_SetModeAndStatus(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cfgPath, m := startPanel(t)

	var out bytes.Buffer

	require.NoError(t, Run(ctx, &Options{ConfigPath: cfgPath, Out: &out}, SetMode("Home")))

	name, ok := m.ActiveSecurityMode()
	require.True(t, ok)
	require.Equal(t, "Home", name)

	out.Reset()
	require.NoError(t, Run(ctx, &Options{ConfigPath: cfgPath, Out: &out}, Status()))

	var status structpb.Struct
	require.NoError(t, protojson.Unmarshal(out.Bytes(), &status))
	require.Equal(t, "Home", status.GetFields()[panel.FieldActiveMode].GetStringValue())
}

func TestRun_SensorAndZoneActions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cfgPath, m := startPanel(t)
	opts := &Options{ConfigPath: cfgPath, Out: &bytes.Buffer{}}

	ref, err := ParseSensorRef("entry", "4")
	require.NoError(t, err)

	require.NoError(t, Run(ctx, opts, Sensor(ref, panel.ActionBypass)))
	require.True(t, m.Bypassed(4))

	require.NoError(t, Run(ctx, opts, AddZone()))
	require.NoError(t, Run(ctx, opts, ZoneArm(1, false)))

	zone, err := m.SecurityZone(1)
	require.NoError(t, err)
	require.False(t, zone.Enabled)

	require.NoError(t, Run(ctx, opts, RemoveZone(1)))
	require.Empty(t, m.SecurityZones())
}

func TestRun_ServerErrorIsReturned(t *testing.T) {
	t.Parallel()

	cfgPath, _ := startPanel(t)

	err := Run(context.Background(), &Options{ConfigPath: cfgPath, Out: &bytes.Buffer{}}, RemoveZone(42))
	require.Error(t, err)
}

func TestParseSensorRef(t *testing.T) {
	t.Parallel()

	ref, err := ParseSensorRef("motion", "2")
	require.NoError(t, err)
	require.Equal(t, domain.SensorRef{Kind: domain.KindMotion, ID: 2}, ref)

	_, err = ParseSensorRef("camera", "1")
	require.Error(t, err)

	_, err = ParseSensorRef("entry", "0")
	require.ErrorIs(t, err, errInvalidSensorID)
}

func TestParseZoneID(t *testing.T) {
	t.Parallel()

	id, err := ParseZoneID("3")
	require.NoError(t, err)
	require.Equal(t, 3, id)

	_, err = ParseZoneID("x")
	require.ErrorIs(t, err, errInvalidZoneID)
}
