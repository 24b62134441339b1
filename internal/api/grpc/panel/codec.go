package panel

import (
	"errors"
	"fmt"
	"math"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	domain "github.com/oshokin/safehome/internal/domain/security"
	"github.com/oshokin/safehome/internal/geometry"
	"github.com/oshokin/safehome/internal/service/security"
)

// Request and response field names.
const (
	FieldActor       = "actor"
	FieldHostname    = "hostname"
	FieldUsername    = "username"
	FieldMode        = "mode"
	FieldZone        = "zone"
	FieldRect        = "rect"
	FieldEnabled     = "enabled"
	FieldKind        = "kind"
	FieldID          = "id"
	FieldAction      = "action"
	FieldLogs        = "logs"
	FieldUp          = "up"
	FieldDown        = "down"
	FieldLeft        = "left"
	FieldRight       = "right"
	FieldActiveMode  = "active_mode"
	FieldAlarm       = "alarm_pending"
	FieldSensors     = "sensors"
	FieldZones       = "zones"
	FieldModes       = "modes"
	FieldTimestamp   = "timestamp"
	FieldDescription = "description"
)

// Sensor actions accepted by SetSensor.
const (
	ActionArm          = "arm"
	ActionDisarm       = "disarm"
	ActionAuto         = "auto"
	ActionOn           = "on"
	ActionOff          = "off"
	ActionIntrude      = "intrude"
	ActionRelease      = "release"
	ActionBypass       = "bypass"
	ActionBypassFinish = "bypass-finish"
)

var (
	errFieldMissing = errors.New("field is required")
	errFieldType    = errors.New("field has a wrong type")
)

// ActorFields encodes an actor for the actor request field.
func ActorFields(actor *domain.Actor) map[string]any {
	if actor == nil {
		return nil
	}

	return map[string]any{
		FieldHostname: actor.Hostname,
		FieldUsername: actor.Username,
	}
}

// RectFields encodes a rectangle in up, down, left, right form.
func RectFields(r geometry.Rect) map[string]any {
	return map[string]any{
		FieldUp:    r.UpLeft.Y,
		FieldDown:  r.DownRight.Y,
		FieldLeft:  r.UpLeft.X,
		FieldRight: r.DownRight.X,
	}
}

func actorFrom(req *structpb.Struct) *domain.Actor {
	actor := req.GetFields()[FieldActor].GetStructValue()
	if actor == nil {
		return nil
	}

	return &domain.Actor{
		Hostname: actor.GetFields()[FieldHostname].GetStringValue(),
		Username: actor.GetFields()[FieldUsername].GetStringValue(),
	}
}

func stringFrom(req *structpb.Struct, key string) (string, error) {
	v, ok := req.GetFields()[key]
	if !ok {
		return "", fmt.Errorf("%s: %w", key, errFieldMissing)
	}

	s, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", fmt.Errorf("%s: %w", key, errFieldType)
	}

	return s.StringValue, nil
}

func numberFrom(req *structpb.Struct, key string) (float64, error) {
	v, ok := req.GetFields()[key]
	if !ok {
		return 0, fmt.Errorf("%s: %w", key, errFieldMissing)
	}

	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, fmt.Errorf("%s: %w", key, errFieldType)
	}

	return n.NumberValue, nil
}

func intFrom(req *structpb.Struct, key string) (int, error) {
	n, err := numberFrom(req, key)
	if err != nil {
		return 0, err
	}

	if n != math.Trunc(n) || n < math.MinInt32 || n > math.MaxInt32 {
		return 0, fmt.Errorf("%s: %w", key, errFieldType)
	}

	return int(n), nil
}

func boolFrom(req *structpb.Struct, key string) (bool, error) {
	v, ok := req.GetFields()[key]
	if !ok {
		return false, fmt.Errorf("%s: %w", key, errFieldMissing)
	}

	b, ok := v.GetKind().(*structpb.Value_BoolValue)
	if !ok {
		return false, fmt.Errorf("%s: %w", key, errFieldType)
	}

	return b.BoolValue, nil
}

func rectFrom(req *structpb.Struct) (geometry.Rect, error) {
	rect := req.GetFields()[FieldRect].GetStructValue()
	if rect == nil {
		return geometry.Rect{}, fmt.Errorf("%s: %w", FieldRect, errFieldMissing)
	}

	var edges [4]float64

	for i, key := range []string{FieldUp, FieldDown, FieldLeft, FieldRight} {
		n, err := numberFrom(rect, key)
		if err != nil {
			return geometry.Rect{}, fmt.Errorf("%s.%w", FieldRect, err)
		}

		edges[i] = n
	}

	return geometry.NewRect(edges[0], edges[1], edges[2], edges[3]), nil
}

func sensorRefFrom(req *structpb.Struct) (domain.SensorRef, error) {
	kindName, err := stringFrom(req, FieldKind)
	if err != nil {
		return domain.SensorRef{}, err
	}

	kind, err := domain.ParseSensorKind(kindName)
	if err != nil {
		return domain.SensorRef{}, err
	}

	id, err := intFrom(req, FieldID)
	if err != nil {
		return domain.SensorRef{}, err
	}

	return domain.SensorRef{Kind: kind, ID: id}, nil
}

func handlesValue(handles []domain.Handle) []any {
	values := make([]any, 0, len(handles))
	for _, h := range handles {
		values = append(values, float64(h))
	}

	return values
}

func zoneFields(zone security.ZoneStatus) map[string]any {
	return map[string]any{
		FieldID:      zone.ID,
		FieldRect:    RectFields(zone.Area),
		FieldEnabled: zone.Enabled,
		FieldSensors: handlesValue(zone.Sensors),
	}
}

func zoneToStruct(zone security.ZoneStatus) (*structpb.Struct, error) {
	return structpb.NewStruct(zoneFields(zone))
}

func statusToStruct(status security.Status) (*structpb.Struct, error) {
	var activeMode any
	if status.ActiveMode != "" {
		activeMode = status.ActiveMode
	}

	sensors := make([]any, 0, len(status.Sensors))

	for _, s := range status.Sensors {
		var arm any
		if s.Arm != nil {
			arm = *s.Arm
		}

		sensors = append(sensors, map[string]any{
			"handle":   float64(s.Handle),
			FieldKind:  s.Ref.Kind.String(),
			FieldID:    s.Ref.ID,
			"area":     s.Area.String(),
			"on":       s.On,
			"arm":      arm,
			"armed":    s.Armed,
			"tripped":  s.Tripped,
			"bypassed": s.Bypassed,
		})
	}

	zones := make([]any, 0, len(status.Zones))
	for _, z := range status.Zones {
		zones = append(zones, zoneFields(z))
	}

	modes := make([]any, 0, len(status.Modes))

	for _, m := range status.Modes {
		modes = append(modes, map[string]any{
			"name":       m.Name,
			FieldSensors: handlesValue(m.Sensors),
			"active":     m.Active,
		})
	}

	return structpb.NewStruct(map[string]any{
		FieldActiveMode: activeMode,
		FieldAlarm:      status.AlarmPending,
		FieldSensors:    sensors,
		FieldZones:      zones,
		FieldModes:      modes,
	})
}

func logsToStruct(entries []domain.LogEntry) (*structpb.Struct, error) {
	logs := make([]any, 0, len(entries))

	for _, entry := range entries {
		logs = append(logs, map[string]any{
			FieldID:          entry.ID,
			FieldTimestamp:   entry.Timestamp.Format(time.RFC3339),
			FieldDescription: entry.Description,
		})
	}

	return structpb.NewStruct(map[string]any{FieldLogs: logs})
}
