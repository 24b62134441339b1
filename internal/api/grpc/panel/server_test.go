package panel

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	domain "github.com/oshokin/safehome/internal/domain/security"
	repository "github.com/oshokin/safehome/internal/repository/security"
	"github.com/oshokin/safehome/internal/service/security"
)

const bufSize = 1 << 20

// startPanel serves a control panel over the default floor plan on an in-memory listener.
func startPanel(t *testing.T) (*ControlPanelClient, *security.Manager) {
	t.Helper()

	repo := repository.NewSeededMemoryRepository()

	manager, err := security.NewManager(context.Background(), repo, security.NewLogManager(repo))
	require.NoError(t, err)

	lis := bufconn.Listen(bufSize)
	srv := grpc.NewServer()
	RegisterControlPanelServer(srv, NewServer(manager))

	go func() {
		_ = srv.Serve(lis)
	}()

	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()
	})

	return NewControlPanelClient(conn), manager
}

func request(t *testing.T, fields map[string]any) *structpb.Struct {
	t.Helper()

	fields[FieldActor] = ActorFields(&domain.Actor{Hostname: "panel-host", Username: "tester"})

	req, err := structpb.NewStruct(fields)
	require.NoError(t, err)

	return req
}

// TestServer_StatusAndMode selects a mode remotely and reads it back.
func TestServer_StatusAndMode(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client, manager := startPanel(t)

	resp, err := client.Call(ctx, MethodGetStatus, nil)
	require.NoError(t, err)
	require.Len(t, resp.GetFields()[FieldSensors].GetListValue().GetValues(), 10)
	require.Len(t, resp.GetFields()[FieldModes].GetListValue().GetValues(), 4)
	require.Nil(t, resp.GetFields()[FieldActiveMode].AsInterface())

	resp, err = client.Call(ctx, MethodSetSecurityMode, request(t, map[string]any{FieldMode: "Away"}))
	require.NoError(t, err)
	require.Equal(t, "Away", resp.GetFields()[FieldActiveMode].GetStringValue())

	name, ok := manager.ActiveSecurityMode()
	require.True(t, ok)
	require.Equal(t, "Away", name)

	_, err = client.Call(ctx, MethodSetSecurityMode, request(t, map[string]any{FieldMode: nil}))
	require.NoError(t, err)

	_, ok = manager.ActiveSecurityMode()
	require.False(t, ok)
}

// TestServer_Zones creates, moves, arms and removes a zone remotely.
func TestServer_Zones(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client, _ := startPanel(t)

	resp, err := client.Call(ctx, MethodAddSecurityZone, request(t, map[string]any{}))
	require.NoError(t, err)
	require.InDelta(t, 1, resp.GetFields()[FieldID].GetNumberValue(), 0)

	resp, err = client.Call(ctx, MethodUpdateSecurityZone, request(t, map[string]any{
		FieldZone: 1,
		FieldRect: map[string]any{FieldUp: 90, FieldDown: 70, FieldLeft: 10, FieldRight: 30},
	}))
	require.NoError(t, err)
	require.Equal(t, []any{float64(1), float64(9)}, resp.GetFields()[FieldSensors].GetListValue().AsSlice())

	_, err = client.Call(ctx, MethodSetZoneArm, request(t, map[string]any{FieldZone: 1, FieldEnabled: false}))
	require.NoError(t, err)

	_, err = client.Call(ctx, MethodRemoveSecurityZone, request(t, map[string]any{FieldZone: 1}))
	require.NoError(t, err)
}

// TestServer_SensorActionsAndLogs intrudes an armed sensor and reads the log.
func TestServer_SensorActionsAndLogs(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client, manager := startPanel(t)

	for _, action := range []string{ActionArm, ActionIntrude} {
		_, err := client.Call(ctx, MethodSetSensor, request(t, map[string]any{
			FieldKind:   "motion",
			FieldID:     2,
			FieldAction: action,
		}))
		require.NoError(t, err)
	}

	_, tripped, err := manager.Update(ctx, false)
	require.NoError(t, err)
	require.Equal(t, []domain.Handle{10}, tripped)

	resp, err := client.Call(ctx, MethodListLogs, nil)
	require.NoError(t, err)

	logs := resp.GetFields()[FieldLogs].GetListValue().GetValues()
	require.Len(t, logs, 1)
	require.Equal(t, "[2]", logs[0].GetStructValue().GetFields()[FieldDescription].GetStringValue())
}

// TestServer_ErrorCodes checks domain errors surface as gRPC status codes.
func TestServer_ErrorCodes(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client, _ := startPanel(t)

	tests := []struct {
		name   string
		method string
		fields map[string]any
		code   codes.Code
	}{
		{
			name:   "unknown mode",
			method: MethodSetSecurityMode,
			fields: map[string]any{FieldMode: "Party"},
			code:   codes.NotFound,
		},
		{
			name:   "unknown zone",
			method: MethodSetZoneArm,
			fields: map[string]any{FieldZone: 5, FieldEnabled: true},
			code:   codes.NotFound,
		},
		{
			name:   "unknown sensor",
			method: MethodSetSensor,
			fields: map[string]any{FieldKind: "entry", FieldID: 42, FieldAction: ActionArm},
			code:   codes.NotFound,
		},
		{
			name:   "bypass not started",
			method: MethodSetSensor,
			fields: map[string]any{FieldKind: "entry", FieldID: 1, FieldAction: ActionBypassFinish},
			code:   codes.NotFound,
		},
		{
			name:   "unknown action",
			method: MethodSetSensor,
			fields: map[string]any{FieldKind: "entry", FieldID: 1, FieldAction: "explode"},
			code:   codes.InvalidArgument,
		},
		{
			name:   "unknown kind",
			method: MethodSetSensor,
			fields: map[string]any{FieldKind: "camera", FieldID: 1, FieldAction: ActionArm},
			code:   codes.InvalidArgument,
		},
		{
			name:   "fractional zone id",
			method: MethodRemoveSecurityZone,
			fields: map[string]any{FieldZone: 1.5},
			code:   codes.InvalidArgument,
		},
		{
			name:   "missing rect",
			method: MethodUpdateSecurityZone,
			fields: map[string]any{FieldZone: 1},
			code:   codes.InvalidArgument,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := client.Call(ctx, tt.method, request(t, tt.fields))
			require.Error(t, err)
			require.Equal(t, tt.code, status.Code(err))
		})
	}
}
