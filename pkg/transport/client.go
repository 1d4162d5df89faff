package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aircare/purifier-agent/internal/models"
	"github.com/aircare/purifier-agent/internal/state"
	"github.com/rs/zerolog"
)

const defaultRequestTimeout = 5 * time.Second

// DeviceClient defines the typed operations of the device's /api surface.
type DeviceClient interface {
	Ping(ctx context.Context) (models.PingData, error)
	Status(ctx context.Context) (models.StatusData, error)
	Control(ctx context.Context, req models.ControlRequest) error
	ScanNetworks(ctx context.Context) ([]models.WifiNetwork, error)
	ConfigureStation(ctx context.Context, cfg models.StationConfig) (models.StationStatus, error)
	Events(ctx context.Context) ([]models.DeviceEvent, error)
}

// EndpointSource supplies the device endpoint in effect at request time, so
// a user override takes effect without rebuilding the client.
type EndpointSource interface {
	Endpoint() state.Endpoint
}

// Client issues HTTP requests against the device's local-network endpoint,
// enforcing the endpoint's request timeout and normalizing failures into the
// transport error taxonomy. It is stateless across calls.
type Client struct {
	endpoints EndpointSource
	http      *http.Client
	logger    zerolog.Logger
}

// NewClient creates a device transport bound to an endpoint source.
func NewClient(endpoints EndpointSource, logger zerolog.Logger) *Client {
	return &Client{
		endpoints: endpoints,
		// Timeouts are applied per request via context so in-flight
		// requests share the cancellation path.
		http:   &http.Client{},
		logger: logger,
	}
}

// BaseURL returns the request base for the current endpoint. The port is
// appended only when it differs from 80.
func (c *Client) BaseURL() string {
	ep := c.endpoints.Endpoint()
	if ep.Port == 0 || ep.Port == 80 {
		return fmt.Sprintf("http://%s/api", ep.Host)
	}
	return fmt.Sprintf("http://%s:%d/api", ep.Host, ep.Port)
}

// Ping issues the lightweight reachability probe.
func (c *Client) Ping(ctx context.Context) (models.PingData, error) {
	var data models.PingData
	err := c.do(ctx, http.MethodGet, "/ping", nil, &data)
	return data, err
}

// Status fetches the device's full status report.
func (c *Client) Status(ctx context.Context) (models.StatusData, error) {
	var data models.StatusData
	err := c.do(ctx, http.MethodGet, "/status", nil, &data)
	return data, err
}

// Control pushes a fan control command. The device echo is not consumed.
func (c *Client) Control(ctx context.Context, req models.ControlRequest) error {
	return c.do(ctx, http.MethodPost, "/control", req, nil)
}

// ScanNetworks lists Wi-Fi networks visible to the device.
func (c *Client) ScanNetworks(ctx context.Context) ([]models.WifiNetwork, error) {
	var networks []models.WifiNetwork
	err := c.do(ctx, http.MethodGet, "/wifi-scan", nil, &networks)
	return networks, err
}

// ConfigureStation provisions the device's upstream Wi-Fi credentials.
func (c *Client) ConfigureStation(ctx context.Context, cfg models.StationConfig) (models.StationStatus, error) {
	var status models.StationStatus
	err := c.do(ctx, http.MethodPost, "/wifi-config", cfg, &status)
	return status, err
}

// Events fetches the device's onboard event log.
func (c *Client) Events(ctx context.Context) ([]models.DeviceEvent, error) {
	var events []models.DeviceEvent
	err := c.do(ctx, http.MethodGet, "/events", nil, &events)
	return events, err
}

// do performs one request/response cycle: timeout from the current endpoint,
// envelope decode, error normalization.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	ep := c.endpoints.Endpoint()
	timeout := ep.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL()+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
			return &Error{Kind: KindTimeout, cause: err}
		}
		return &Error{Kind: KindNetwork, cause: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Kind: KindNetwork, cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{Kind: KindHTTP, Status: resp.StatusCode, Body: string(raw)}
	}

	var envelope models.Envelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return &Error{Kind: KindMalformed, cause: err}
	}
	if !envelope.OK {
		return ErrDeviceRejected
	}
	if out != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return &Error{Kind: KindMalformed, cause: err}
		}
	}

	return nil
}
