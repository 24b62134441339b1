package panel

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	domain "github.com/oshokin/safehome/internal/domain/security"
	"github.com/oshokin/safehome/internal/geometry"
	"github.com/oshokin/safehome/internal/logger"
	"github.com/oshokin/safehome/internal/service/security"
)

// Service abstracts the security manager operations the transport depends on.
type Service interface {
	Snapshot() security.Status
	Logs(ctx context.Context) ([]domain.LogEntry, error)

	SetSecurityModeName(ctx context.Context, name string) error
	SetSecurityModeIndex(ctx context.Context, index *int) error

	AddSecurityZone(ctx context.Context) (security.ZoneStatus, error)
	UpdateSecurityZone(ctx context.Context, id int, area geometry.Rect) ([]domain.Handle, error)
	RemoveSecurityZone(ctx context.Context, id int) error
	SetSecurityZoneArm(ctx context.Context, id int, enabled bool) error
	SecurityZone(id int) (security.ZoneStatus, error)

	SensorHandle(ref domain.SensorRef) (domain.Handle, error)
	SetSensorArm(ctx context.Context, h domain.Handle, arm *bool) error
	SetSensorPower(ctx context.Context, h domain.Handle, on bool) error
	SensorBypass(ctx context.Context, h domain.Handle) error
	SensorBypassFinish(ctx context.Context, h domain.Handle) error
	Intrude(h domain.Handle) error
	Release(h domain.Handle) error
}

// Server implements the ControlPanel gRPC API.
type Server struct {
	// service provides the security manager operations.
	service Service
}

var _ ControlPanelServer = (*Server)(nil)

var errUnknownAction = errors.New("unknown sensor action")

// NewServer wires the provided service implementation into a gRPC handler.
func NewServer(service Service) *Server {
	return &Server{
		service: service,
	}
}

// GetStatus returns a snapshot of sensors, zones and modes.
func (s *Server) GetStatus(_ context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	return s.status()
}

// SetSecurityMode activates the mode named in the mode field; null or a
// missing field deactivates every mode.
func (s *Server) SetSecurityMode(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	ctx = withActor(ctx, req)

	var (
		mode, ok  = req.GetFields()[FieldMode]
		_, isNull = mode.GetKind().(*structpb.Value_NullValue)
		err       error
	)

	if !ok || isNull {
		err = s.service.SetSecurityModeIndex(ctx, nil)
	} else {
		var name string
		if name, err = stringFrom(req, FieldMode); err != nil {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}

		err = s.service.SetSecurityModeName(ctx, name)
	}

	if err != nil {
		return nil, toStatusError(ctx, err)
	}

	logger.InfoKV(ctx, "Security mode changed", "mode", mode.AsInterface())

	return s.status()
}

// AddSecurityZone creates a zone over the default rectangle and returns it.
func (s *Server) AddSecurityZone(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	ctx = withActor(ctx, req)

	zone, err := s.service.AddSecurityZone(ctx)
	if err != nil {
		return nil, toStatusError(ctx, err)
	}

	logger.InfoKV(ctx, "Security zone added", "zone", zone.ID)

	return encode(zoneToStruct(zone))
}

// UpdateSecurityZone moves the zone to the rectangle in the rect field.
func (s *Server) UpdateSecurityZone(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	ctx = withActor(ctx, req)

	id, err := intFrom(req, FieldZone)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	area, err := rectFrom(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	if _, err = s.service.UpdateSecurityZone(ctx, id, area); err != nil {
		return nil, toStatusError(ctx, err)
	}

	zone, err := s.service.SecurityZone(id)
	if err != nil {
		return nil, toStatusError(ctx, err)
	}

	logger.InfoKV(ctx, "Security zone updated", "zone", id, "sensors", len(zone.Sensors))

	return encode(zoneToStruct(zone))
}

// RemoveSecurityZone deletes the zone in the zone field.
func (s *Server) RemoveSecurityZone(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	ctx = withActor(ctx, req)

	id, err := intFrom(req, FieldZone)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	if err = s.service.RemoveSecurityZone(ctx, id); err != nil {
		return nil, toStatusError(ctx, err)
	}

	logger.InfoKV(ctx, "Security zone removed", "zone", id)

	return s.status()
}

// SetZoneArm enables or disables the zone in the zone field.
func (s *Server) SetZoneArm(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	ctx = withActor(ctx, req)

	id, err := intFrom(req, FieldZone)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	enabled, err := boolFrom(req, FieldEnabled)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	if err = s.service.SetSecurityZoneArm(ctx, id, enabled); err != nil {
		return nil, toStatusError(ctx, err)
	}

	logger.InfoKV(ctx, "Security zone armed", "zone", id, "enabled", enabled)

	return s.status()
}

// SetSensor applies the action field to the sensor named by kind and id.
func (s *Server) SetSensor(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	ctx = withActor(ctx, req)

	ref, err := sensorRefFrom(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	action, err := stringFrom(req, FieldAction)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	h, err := s.service.SensorHandle(ref)
	if err != nil {
		return nil, toStatusError(ctx, err)
	}

	if err = s.applySensorAction(ctx, h, action); err != nil {
		if errors.Is(err, errUnknownAction) {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}

		return nil, toStatusError(ctx, err)
	}

	logger.InfoKV(ctx, "Sensor changed", "sensor", ref.String(), "action", action)

	return s.status()
}

// ListLogs returns the intrusion log.
func (s *Server) ListLogs(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	entries, err := s.service.Logs(ctx)
	if err != nil {
		return nil, toStatusError(ctx, err)
	}

	return encode(logsToStruct(entries))
}

func (s *Server) applySensorAction(ctx context.Context, h domain.Handle, action string) error {
	switch action {
	case ActionArm:
		arm := true

		return s.service.SetSensorArm(ctx, h, &arm)
	case ActionDisarm:
		arm := false

		return s.service.SetSensorArm(ctx, h, &arm)
	case ActionAuto:
		return s.service.SetSensorArm(ctx, h, nil)
	case ActionOn:
		return s.service.SetSensorPower(ctx, h, true)
	case ActionOff:
		return s.service.SetSensorPower(ctx, h, false)
	case ActionIntrude:
		return s.service.Intrude(h)
	case ActionRelease:
		return s.service.Release(h)
	case ActionBypass:
		return s.service.SensorBypass(ctx, h)
	case ActionBypassFinish:
		return s.service.SensorBypassFinish(ctx, h)
	default:
		return fmt.Errorf("%w: %q", errUnknownAction, action)
	}
}

func (s *Server) status() (*structpb.Struct, error) {
	return encode(statusToStruct(s.service.Snapshot()))
}

func encode(msg *structpb.Struct, err error) (*structpb.Struct, error) {
	if err != nil {
		return nil, status.Error(codes.Internal, "unable to encode response")
	}

	return msg, nil
}

// withActor scopes the logger to the actor that sent the request.
func withActor(ctx context.Context, req *structpb.Struct) context.Context {
	if actor := actorFrom(req); actor != nil {
		return logger.WithKV(ctx, "actor", actor.String())
	}

	return ctx
}

// toStatusError maps domain errors to gRPC codes.
func toStatusError(ctx context.Context, err error) error {
	switch {
	case domain.IsNotFound(err):
		return status.Error(codes.NotFound, err.Error())
	case domain.IsAlreadyExists(err):
		return status.Error(codes.AlreadyExists, err.Error())
	default:
		logger.ErrorKV(ctx, "Control panel request failed", "error", err)

		return status.Error(codes.Internal, "unable to apply change")
	}
}
