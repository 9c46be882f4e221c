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
	"google.golang.org/protobuf/types/known/wrapperspb"

	api "github.com/oshokin/alarm-scheduler/internal/api/grpc/alarm"
	"github.com/oshokin/alarm-scheduler/internal/config"
)

// Client wraps the SchedulerService client with convenience helpers.
type Client struct {
	// conn is the underlying gRPC connection to the scheduler.
	conn *grpc.ClientConn
	// api is the SchedulerService client stub.
	api *api.SchedulerServiceClient

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

// errAddressRequired is returned when a required address value is missing.
var errAddressRequired = errors.New("address must be provided")

// Dial creates a client for the scheduler control API.
// Note: this uses insecure transport credentials; the control API is meant
// for loopback or a trusted network.
func Dial(_ context.Context, address string, opts ...Option) (*Client, error) {
	if address == "" {
		return nil, errAddressRequired
	}

	conn, err := grpc.NewClient(address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial alarm scheduler: %w", err)
	}

	client := &Client{
		conn:        conn,
		api:         api.NewSchedulerServiceClient(conn),
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

// Submit sends one command line and returns the rendered output records.
// Scheduler failures come back as classified errors.
func (c *Client) Submit(ctx context.Context, line string) (string, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.Submit(callCtx, wrapperspb.String(line))
	if err != nil {
		return "", fmt.Errorf("submit: %w", api.FromStatus(err))
	}

	return resp.GetValue(), nil
}

// ListAlarms fetches the pending alarms ordered by deadline.
func (c *Client) ListAlarms(ctx context.Context) (*structpb.ListValue, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	list, err := c.api.ListAlarms(callCtx)
	if err != nil {
		return nil, fmt.Errorf("list alarms: %w", api.FromStatus(err))
	}

	return list, nil
}

// callContext returns a context with the client's call timeout if configured,
// otherwise a cancellable child context without a deadline.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}
