package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/safehome/internal/config"
	domain "github.com/oshokin/safehome/internal/domain/security"
	"github.com/oshokin/safehome/internal/geometry"
	"github.com/oshokin/safehome/internal/logger"
	"github.com/oshokin/safehome/internal/service/common"
)

// Options configures the control panel connection.
type Options struct {
	// ConfigPath to YAML settings file, defaults to standard filename if empty.
	ConfigPath string

	// ServerAddress overrides server address from config when specified.
	ServerAddress string

	// Out receives the server response; stdout when nil.
	Out io.Writer
}

// Action is one control panel request.
type Action func(ctx context.Context, c *common.Client) (*structpb.Struct, error)

var (
	errInvalidSensorID = errors.New("sensor id must be a positive integer")
	errInvalidZoneID   = errors.New("zone id must be a positive integer")
)

// Run connects to the server, performs action and prints the response as JSON.
func Run(ctx context.Context, opts *Options, action Action) error {
	ctx = logger.WithName(ctx, "safehome-panel")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	serverAddress := cfg.ServerAddress
	if opts.ServerAddress != "" {
		serverAddress = opts.ServerAddress
	}

	// Identify current user and hostname for the audit trail.
	actor, err := common.DetectActor()
	if err != nil {
		return err
	}

	c, err := common.Dial(ctx, serverAddress, common.WithCallTimeout(cfg.Timeout), common.WithActor(actor))
	if err != nil {
		return err
	}

	defer func() {
		_ = c.Close()
	}()

	logger.DebugKV(ctx, "Calling control panel", "server_address", serverAddress, "actor", actor.String())

	resp, err := action(ctx, c)
	if err != nil {
		return err
	}

	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	return printResponse(out, resp)
}

// Status prints the full snapshot.
func Status() Action {
	return func(ctx context.Context, c *common.Client) (*structpb.Struct, error) {
		return c.Status(ctx)
	}
}

// Logs prints the intrusion log.
func Logs() Action {
	return func(ctx context.Context, c *common.Client) (*structpb.Struct, error) {
		return c.Logs(ctx)
	}
}

// SetMode activates the named mode; an empty name deactivates every mode.
func SetMode(name string) Action {
	return func(ctx context.Context, c *common.Client) (*structpb.Struct, error) {
		return c.SetSecurityMode(ctx, name)
	}
}

// AddZone creates a zone over the default rectangle.
func AddZone() Action {
	return func(ctx context.Context, c *common.Client) (*structpb.Struct, error) {
		return c.AddSecurityZone(ctx)
	}
}

// UpdateZone moves zone id to area.
func UpdateZone(id int, area geometry.Rect) Action {
	return func(ctx context.Context, c *common.Client) (*structpb.Struct, error) {
		return c.UpdateSecurityZone(ctx, id, area)
	}
}

// RemoveZone deletes zone id.
func RemoveZone(id int) Action {
	return func(ctx context.Context, c *common.Client) (*structpb.Struct, error) {
		return c.RemoveSecurityZone(ctx, id)
	}
}

// ZoneArm enables or disables zone id.
func ZoneArm(id int, enabled bool) Action {
	return func(ctx context.Context, c *common.Client) (*structpb.Struct, error) {
		return c.SetZoneArm(ctx, id, enabled)
	}
}

// Sensor applies a sensor action such as arm, off or bypass.
func Sensor(ref domain.SensorRef, action string) Action {
	return func(ctx context.Context, c *common.Client) (*structpb.Struct, error) {
		return c.SetSensor(ctx, ref, action)
	}
}

// ParseSensorRef parses the kind and id command arguments.
func ParseSensorRef(kind, id string) (domain.SensorRef, error) {
	k, err := domain.ParseSensorKind(kind)
	if err != nil {
		return domain.SensorRef{}, err
	}

	n, err := strconv.Atoi(id)
	if err != nil || n <= 0 {
		return domain.SensorRef{}, fmt.Errorf("%w: %q", errInvalidSensorID, id)
	}

	return domain.SensorRef{Kind: k, ID: n}, nil
}

// ParseZoneID parses a zone id argument.
func ParseZoneID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", errInvalidZoneID, s)
	}

	return id, nil
}

func printResponse(out io.Writer, resp *structpb.Struct) error {
	data, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(resp)
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}

	if _, err = fmt.Fprintln(out, string(data)); err != nil {
		return fmt.Errorf("write response: %w", err)
	}

	return nil
}
