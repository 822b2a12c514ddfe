package convert

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
)

const (
	// DefaultGotenbergImage is the Gotenberg release used for office
	// document conversion.
	DefaultGotenbergImage = "gotenberg/gotenberg:8"

	// DefaultGotenbergContainerName names the managed container.
	DefaultGotenbergContainerName = "vellum-gotenberg"

	// DefaultGotenbergPort is the host port the container binds to.
	DefaultGotenbergPort = "3000"

	gotenbergContainerPort = "3000/tcp"
	gotenbergLabel         = "vellum-gotenberg"
)

// ContainerStatus is the observed state of the Gotenberg container.
type ContainerStatus string

const (
	StatusRunning  ContainerStatus = "running"
	StatusStopped  ContainerStatus = "stopped"
	StatusNotFound ContainerStatus = "not_found"
	StatusStarting ContainerStatus = "starting"
)

// GotenbergManager manages a Gotenberg Docker container so document
// conversion works without a local LibreOffice installation.
type GotenbergManager struct {
	cli           *client.Client
	containerName string
	imageName     string
	hostPort      string
	logger        *slog.Logger
}

// GotenbergManagerConfig configures the container manager. Zero values use
// the package defaults.
type GotenbergManagerConfig struct {
	ContainerName string
	Image         string
	HostPort      string
	Logger        *slog.Logger
}

// NewGotenbergManager creates a manager using Docker environment defaults.
func NewGotenbergManager(cfg GotenbergManagerConfig) (*GotenbergManager, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}

	if cfg.ContainerName == "" {
		cfg.ContainerName = DefaultGotenbergContainerName
	}
	if cfg.Image == "" {
		cfg.Image = DefaultGotenbergImage
	}
	if cfg.HostPort == "" {
		cfg.HostPort = DefaultGotenbergPort
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &GotenbergManager{
		cli:           cli,
		containerName: cfg.ContainerName,
		imageName:     cfg.Image,
		hostPort:      cfg.HostPort,
		logger:        cfg.Logger,
	}, nil
}

// Close closes the Docker client.
func (m *GotenbergManager) Close() error {
	return m.cli.Close()
}

// URL returns the Gotenberg endpoint for the bound host port.
func (m *GotenbergManager) URL() string {
	return fmt.Sprintf("http://localhost:%s", m.hostPort)
}

// Start ensures the Gotenberg container is running and ready, creating it
// if needed.
func (m *GotenbergManager) Start(ctx context.Context) error {
	if _, err := m.cli.Ping(ctx); err != nil {
		return fmt.Errorf("docker is not running: %w", err)
	}

	status, containerID, err := m.containerStatus(ctx)
	if err != nil {
		return err
	}

	switch status {
	case StatusRunning:
		return nil
	case StatusStopped:
		m.logger.Debug("starting existing gotenberg container", "container", m.containerName)
		if err := m.cli.ContainerStart(ctx, containerID, container.StartOptions{}); err != nil {
			return fmt.Errorf("failed to start existing container: %w", err)
		}
		return m.waitForReady(ctx, 30*time.Second)
	case StatusNotFound:
		return m.createAndStart(ctx)
	default:
		return fmt.Errorf("container in unexpected state: %s", status)
	}
}

// Stop stops the Gotenberg container if it exists.
func (m *GotenbergManager) Stop(ctx context.Context) error {
	status, containerID, err := m.containerStatus(ctx)
	if err != nil {
		return err
	}
	if status == StatusNotFound {
		return nil
	}

	timeout := 10
	if err := m.cli.ContainerStop(ctx, containerID, container.StopOptions{Timeout: &timeout}); err != nil {
		return fmt.Errorf("failed to stop container: %w", err)
	}
	return nil
}

// Remove stops and removes the Gotenberg container.
func (m *GotenbergManager) Remove(ctx context.Context) error {
	status, containerID, err := m.containerStatus(ctx)
	if err != nil {
		return err
	}
	if status == StatusNotFound {
		return nil
	}

	if status == StatusRunning {
		if err := m.Stop(ctx); err != nil {
			return err
		}
	}

	if err := m.cli.ContainerRemove(ctx, containerID, container.RemoveOptions{Force: true}); err != nil {
		return fmt.Errorf("failed to remove container: %w", err)
	}
	return nil
}

// Status returns the current container status.
func (m *GotenbergManager) Status(ctx context.Context) (ContainerStatus, error) {
	status, _, err := m.containerStatus(ctx)
	return status, err
}

func (m *GotenbergManager) createAndStart(ctx context.Context) error {
	if err := m.ensureImage(ctx); err != nil {
		return err
	}

	m.logger.Info("creating gotenberg container",
		"container", m.containerName,
		"image", m.imageName,
		"port", m.hostPort)

	containerConfig := &container.Config{
		Image:  m.imageName,
		Labels: map[string]string{gotenbergLabel: "true"},
		ExposedPorts: nat.PortSet{
			gotenbergContainerPort: struct{}{},
		},
	}

	hostConfig := &container.HostConfig{
		PortBindings: nat.PortMap{
			gotenbergContainerPort: []nat.PortBinding{
				{HostIP: "127.0.0.1", HostPort: m.hostPort},
			},
		},
	}

	resp, err := m.cli.ContainerCreate(ctx, containerConfig, hostConfig, nil, nil, m.containerName)
	if err != nil {
		return fmt.Errorf("failed to create container: %w", err)
	}

	if err := m.cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		_ = m.cli.ContainerRemove(ctx, resp.ID, container.RemoveOptions{Force: true})
		return fmt.Errorf("failed to start container: %w", err)
	}

	return m.waitForReady(ctx, 30*time.Second)
}

func (m *GotenbergManager) containerStatus(ctx context.Context) (ContainerStatus, string, error) {
	filterArgs := filters.NewArgs()
	filterArgs.Add("name", m.containerName)

	containers, err := m.cli.ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filterArgs,
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to list containers: %w", err)
	}
	if len(containers) == 0 {
		return StatusNotFound, "", nil
	}

	c := containers[0]
	switch c.State {
	case "running":
		return StatusRunning, c.ID, nil
	case "exited", "dead":
		return StatusStopped, c.ID, nil
	case "created", "restarting":
		return StatusStarting, c.ID, nil
	default:
		return ContainerStatus(c.State), c.ID, nil
	}
}

func (m *GotenbergManager) waitForReady(ctx context.Context, timeout time.Duration) error {
	return NewGotenbergConverter(m.URL(), nil, m.logger).WaitReady(ctx, timeout)
}

func (m *GotenbergManager) ensureImage(ctx context.Context) error {
	_, err := m.cli.ImageInspect(ctx, m.imageName)
	if err == nil {
		return nil
	}

	m.logger.Info("pulling gotenberg image", "image", m.imageName)
	reader, err := m.cli.ImagePull(ctx, m.imageName, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("failed to pull image: %w", err)
	}
	defer reader.Close()

	// Drain reader to complete the pull.
	_, err = io.Copy(io.Discard, reader)
	return err
}
