package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	httputil "reservations/pkg/http"
	"reservations/pkg/model"
)

const (
	defaultAPITimeout    = 10 * time.Second
	IdempotencyKeyHeader = "Idempotency-Key"
)

// APIError is a non-2xx reply from the reservations API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Details    map[string]any
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api error %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// APIClient talks to the reservations HTTP API. Times are exchanged in the
// server's yyyy-MM-dd HH:mm boundary format.
type APIClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultAPITimeout},
	}
}

func (c *APIClient) Ready(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/ready", nil, nil, nil)
}

func (c *APIClient) CreateResource(ctx context.Context, r model.Resource) (*model.Resource, error) {
	var out model.Resource
	if err := c.do(ctx, http.MethodPost, "/api/v1/resources", r, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *APIClient) ListResources(ctx context.Context, resourceType string) ([]model.Resource, error) {
	path := "/api/v1/resources"
	if resourceType != "" {
		path += "?" + url.Values{"type": {resourceType}}.Encode()
	}
	var out []model.Resource
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *APIClient) GetResource(ctx context.Context, id int64) (*model.Resource, error) {
	var out model.Resource
	if err := c.do(ctx, http.MethodGet, resourcePath(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *APIClient) DeleteResource(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, resourcePath(id), nil, nil, nil)
}

// CreateBooking sends idempotencyKey when it is not empty, so a retried call
// replays the first reply instead of booking twice.
func (c *APIClient) CreateBooking(ctx context.Context, req model.BookingCreate, idempotencyKey string) (*model.BookingView, error) {
	var headers map[string]string
	if idempotencyKey != "" {
		headers = map[string]string{IdempotencyKeyHeader: idempotencyKey}
	}
	var out model.BookingView
	if err := c.do(ctx, http.MethodPost, "/api/v1/bookings", req, headers, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *APIClient) CancelBooking(ctx context.Context, id int64) (*model.BookingView, error) {
	var out model.BookingView
	if err := c.do(ctx, http.MethodPost, bookingPath(id)+"/cancel", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *APIClient) DeleteBooking(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, bookingPath(id), nil, nil, nil)
}

// BookingHistory lists every booking with its resource, newest start first.
func (c *APIClient) BookingHistory(ctx context.Context) ([]model.BookingView, error) {
	var out []model.BookingView
	if err := c.do(ctx, http.MethodGet, "/api/v1/bookings", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *APIClient) ResourceBookings(ctx context.Context, resourceID int64) ([]model.BookingView, error) {
	var out []model.BookingView
	if err := c.do(ctx, http.MethodGet, resourcePath(resourceID)+"/bookings", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *APIClient) CheckAvailability(ctx context.Context, resourceID int64, start, end string) (*model.ResourceAvailabilityView, error) {
	query := url.Values{"start": {start}, "end": {end}}
	var out model.ResourceAvailabilityView
	if err := c.do(ctx, http.MethodGet, resourcePath(resourceID)+"/availability?"+query.Encode(), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *APIClient) ListAvailability(ctx context.Context, start, end, resourceType string) ([]model.ResourceAvailabilityView, error) {
	query := url.Values{"start": {start}, "end": {end}}
	if resourceType != "" {
		query.Set("type", resourceType)
	}
	var out []model.ResourceAvailabilityView
	if err := c.do(ctx, http.MethodGet, "/api/v1/availability?"+query.Encode(), nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FreeSlots lists the free slots of day (yyyy-MM-dd) using the server's
// configured business hours and slot width.
func (c *APIClient) FreeSlots(ctx context.Context, resourceID int64, day string) ([]model.SlotView, error) {
	query := url.Values{"date": {day}}
	var out []model.SlotView
	if err := c.do(ctx, http.MethodGet, resourcePath(resourceID)+"/slots?"+query.Encode(), nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func resourcePath(id int64) string {
	return "/api/v1/resources/" + strconv.FormatInt(id, 10)
}

func bookingPath(id int64) string {
	return "/api/v1/bookings/" + strconv.FormatInt(id, 10)
}

// do sends body as JSON and unwraps the {"data": ...} envelope into out.
func (c *APIClient) do(ctx context.Context, method, path string, body any, headers map[string]string, out any) error {
	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp.StatusCode, respBody)
	}
	if out == nil || len(respBody) == 0 {
		return nil
	}

	envelope := struct {
		Data any `json:"data"`
	}{Data: out}
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeAPIError(status int, body []byte) error {
	apiErr := &APIError{StatusCode: status, Message: http.StatusText(status)}

	var errResp httputil.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil {
		if errResp.Error != "" {
			apiErr.Message = errResp.Error
		}
		apiErr.Code = errResp.Code
		apiErr.Details = errResp.Details
	}
	return apiErr
}
