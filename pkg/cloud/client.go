package cloud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/aircare/purifier-agent/internal/models"
	"github.com/rs/zerolog"
)

// Store defines the append/query operations against the cloud data store's
// measurements and events tables.
type Store interface {
	InsertMeasurement(ctx context.Context, record models.MeasurementRecord) error
	InsertEvent(ctx context.Context, record models.EventRecord) error
	Measurements(ctx context.Context, deviceID string, since time.Time) ([]models.MeasurementPoint, error)
}

// Client talks to a PostgREST-style cloud store with a static anonymous key.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  zerolog.Logger
}

// NewClient creates a cloud store client. baseURL is the project root
// (without the /rest/v1 suffix).
func NewClient(baseURL, apiKey string, timeout time.Duration, logger zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// InsertMeasurement appends one row to the measurements table.
func (c *Client) InsertMeasurement(ctx context.Context, record models.MeasurementRecord) error {
	return c.insert(ctx, "measurements", record)
}

// InsertEvent appends one row to the events table.
func (c *Client) InsertEvent(ctx context.Context, record models.EventRecord) error {
	return c.insert(ctx, "events", record)
}

// Measurements returns the device's samples since the given lower bound,
// ordered ascending by timestamp.
func (c *Client) Measurements(ctx context.Context, deviceID string, since time.Time) ([]models.MeasurementPoint, error) {
	query := url.Values{}
	query.Set("select", "timestamp,air_quality_value")
	query.Set("device_id", "eq."+deviceID)
	query.Set("timestamp", "gte."+since.UTC().Format(time.RFC3339))
	query.Set("order", "timestamp.asc")

	endpoint := fmt.Sprintf("%s/rest/v1/measurements?%s", c.baseURL, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build measurements query: %w", err)
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("measurements query failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read measurements response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("measurements query returned status %d: %s", resp.StatusCode, raw)
	}

	var points []models.MeasurementPoint
	if err := json.Unmarshal(raw, &points); err != nil {
		return nil, fmt.Errorf("failed to decode measurements response: %w", err)
	}
	return points, nil
}

// insert performs a plain row insert with no upsert or conflict handling.
func (c *Client) insert(ctx context.Context, table string, row any) error {
	payload, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("failed to encode %s row: %w", table, err)
	}

	endpoint := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, table)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build %s insert: %w", table, err)
	}
	c.authorize(req)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=minimal")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s insert failed: %w", table, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s insert returned status %d: %s", table, resp.StatusCode, body)
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
}
