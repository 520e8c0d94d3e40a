// Package dockerx wraps the Docker SDK behind the small surface the
// analyzer needs: connection state and mount snapshots.
package dockerx

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
)

// pingTimeout bounds every daemon liveness probe.
const pingTimeout = 5 * time.Second

// Client is a lazy wrapper around the Docker SDK client. Construction
// never fails; connection problems surface on first use and through
// Status. Safe for concurrent use: handlers and the job runner share
// one instance.
type Client struct {
	sock string

	mu  sync.Mutex
	cli *client.Client
}

// New builds a client for the given socket path. An empty path falls
// back to DOCKER_HOST and then the platform default.
func New(sock string) *Client {
	return &Client{sock: sock}
}

// connect initializes the SDK client on first use. Failures are not
// cached, so a daemon that comes up later is picked up on the next call.
func (c *Client) connect() (*client.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cli != nil {
		return c.cli, nil
	}

	opts := []client.Opt{client.WithAPIVersionNegotiation()}
	switch {
	case c.sock != "":
		if _, err := os.Stat(c.sock); os.IsNotExist(err) {
			return nil, fmt.Errorf("docker socket %s does not exist", c.sock)
		}
		opts = append(opts, client.WithHost("unix://"+c.sock))
	case os.Getenv(client.EnvOverrideHost) != "":
		opts = append(opts, client.FromEnv)
	default:
		opts = append(opts, client.WithHostFromEnv())
	}

	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing Docker client: %w", err)
	}

	log.Debug("Docker client initialized", "socket", c.sock)
	c.cli = cli
	return cli, nil
}

// Status describes the daemon connection as reported to the dashboard.
type Status struct {
	Connected bool   `json:"connected"`
	Version   string `json:"version,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Status probes the daemon. It never returns an error; failure is a
// disconnected status with the reason attached.
func (c *Client) Status(ctx context.Context) Status {
	cli, err := c.connect()
	if err != nil {
		return Status{Connected: false, Error: err.Error()}
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	ping, err := cli.Ping(ctx)
	if err != nil {
		return Status{Connected: false, Error: fmt.Sprintf("cannot connect to Docker daemon: %s", err)}
	}
	return Status{Connected: true, Version: ping.APIVersion}
}

// Close releases the underlying SDK client, if one was established.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cli == nil {
		return nil
	}
	return c.cli.Close()
}

func (c *Client) listContainers(ctx context.Context) ([]container.Summary, error) {
	cli, err := c.connect()
	if err != nil {
		return nil, err
	}
	list, err := cli.ContainerList(ctx, container.ListOptions{All: true})
	if err != nil {
		return nil, fmt.Errorf("error listing containers: %w", err)
	}
	return list, nil
}
