//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/safehome/internal/api/grpc/panel"
	"github.com/oshokin/safehome/internal/config"
	domain "github.com/oshokin/safehome/internal/domain/security"
	"github.com/oshokin/safehome/internal/geometry"
	"github.com/oshokin/safehome/internal/version"
)

// Client wraps the gRPC ControlPanel client with convenience helpers.
type Client struct {
	// conn is the underlying gRPC connection to the SafeHome server.
	conn *grpc.ClientConn
	// api is the ControlPanel client.
	api *panel.ControlPanelClient
	// actor is attached to every mutating request.
	actor *domain.Actor

	// callTimeout is the default timeout for individual RPC calls.
	callTimeout time.Duration
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a default timeout for service calls.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

// WithActor sets the actor reported to the server for changes.
func WithActor(actor *domain.Actor) Option {
	return func(c *Client) {
		c.actor = actor.Clone()
	}
}

var (
	// errAddressRequired is returned when a required address value is missing.
	errAddressRequired = errors.New("address must be provided")
	// errActorRequired is returned when a change is requested without an actor.
	errActorRequired = errors.New("actor must be provided")
)

// Dial establishes a gRPC connection to the SafeHome server.
// Note: this uses insecure transport credentials; deploy on a trusted network
// or terminate TLS in a proxy until native TLS is added.
func Dial(_ context.Context, address string, opts ...Option) (*Client, error) {
	if address == "" {
		return nil, errAddressRequired
	}

	conn, err := grpc.NewClient(address,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUserAgent(version.UserAgent("safehome-panel")),
	)
	if err != nil {
		return nil, fmt.Errorf("dial safehome server: %w", err)
	}

	client := &Client{
		conn:        conn,
		api:         panel.NewControlPanelClient(conn),
		callTimeout: config.DefaultTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}

	return c.conn.Close()
}

// Status returns the current snapshot of the security core.
func (c *Client) Status(ctx context.Context) (*structpb.Struct, error) {
	return c.call(ctx, panel.MethodGetStatus, nil, false)
}

// Logs returns the intrusion log.
func (c *Client) Logs(ctx context.Context) (*structpb.Struct, error) {
	return c.call(ctx, panel.MethodListLogs, nil, false)
}

// SetSecurityMode activates the named mode; an empty name deactivates every mode.
func (c *Client) SetSecurityMode(ctx context.Context, name string) (*structpb.Struct, error) {
	var mode any
	if name != "" {
		mode = name
	}

	return c.call(ctx, panel.MethodSetSecurityMode, map[string]any{panel.FieldMode: mode}, true)
}

// AddSecurityZone creates a zone over the default rectangle.
func (c *Client) AddSecurityZone(ctx context.Context) (*structpb.Struct, error) {
	return c.call(ctx, panel.MethodAddSecurityZone, map[string]any{}, true)
}

// UpdateSecurityZone moves the zone to area.
func (c *Client) UpdateSecurityZone(ctx context.Context, id int, area geometry.Rect) (*structpb.Struct, error) {
	return c.call(ctx, panel.MethodUpdateSecurityZone, map[string]any{
		panel.FieldZone: id,
		panel.FieldRect: panel.RectFields(area),
	}, true)
}

// RemoveSecurityZone deletes the zone.
func (c *Client) RemoveSecurityZone(ctx context.Context, id int) (*structpb.Struct, error) {
	return c.call(ctx, panel.MethodRemoveSecurityZone, map[string]any{panel.FieldZone: id}, true)
}

// SetZoneArm enables or disables the zone.
func (c *Client) SetZoneArm(ctx context.Context, id int, enabled bool) (*structpb.Struct, error) {
	return c.call(ctx, panel.MethodSetZoneArm, map[string]any{
		panel.FieldZone:    id,
		panel.FieldEnabled: enabled,
	}, true)
}

// SetSensor applies one of the panel sensor actions to the sensor.
func (c *Client) SetSensor(ctx context.Context, ref domain.SensorRef, action string) (*structpb.Struct, error) {
	return c.call(ctx, panel.MethodSetSensor, map[string]any{
		panel.FieldKind:   ref.Kind.String(),
		panel.FieldID:     ref.ID,
		panel.FieldAction: action,
	}, true)
}

func (c *Client) call(ctx context.Context, method string, fields map[string]any, mutating bool) (*structpb.Struct, error) {
	if mutating && c.actor == nil {
		return nil, errActorRequired
	}

	if fields == nil {
		fields = make(map[string]any)
	}

	if c.actor != nil {
		fields[panel.FieldActor] = panel.ActorFields(c.actor)
	}

	req, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", method, err)
	}

	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.Call(callCtx, method, req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}

	return resp, nil
}

// callContext returns a context with the client's call timeout if configured,
// otherwise a cancellable child context without a deadline.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}
