// Package engine verifies a provisioned Docker daemon over its API.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/client"
)

const pingTimeout = 5 * time.Second

// EngineAPI is the slice of the Docker SDK client used for post-install
// verification. An interface so tests can run without a daemon.
type EngineAPI interface {
	// Ping tests the connection to the Docker daemon.
	Ping(ctx context.Context) (types.Ping, error)

	// ServerVersion returns version information from the daemon.
	ServerVersion(ctx context.Context) (types.Version, error)

	// Close closes the client connection.
	Close() error
}

// Client wraps the Docker SDK client.
type Client struct {
	api EngineAPI
}

// NewClient creates a new Docker client connection from the environment.
func NewClient() (*Client, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}

	return &Client{api: cli}, nil
}

// NewClientWithAPI creates a Client with a custom API implementation,
// primarily for tests.
func NewClientWithAPI(api EngineAPI) *Client {
	return &Client{api: api}
}

// Ping tests the connection to the Docker daemon.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if _, err := c.api.Ping(ctx); err != nil {
		return fmt.Errorf("ping docker: %w", err)
	}

	return nil
}

// ServerVersion returns the daemon's reported version string.
func (c *Client) ServerVersion(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	v, err := c.api.ServerVersion(ctx)
	if err != nil {
		return "", fmt.Errorf("server version: %w", err)
	}

	return v.Version, nil
}

// Close closes the client connection.
func (c *Client) Close() error {
	if c.api != nil {
		return c.api.Close()
	}
	return nil
}
