package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/vietcare/booking-assistant/pkg/logging"
)

const (
	defaultTimeout       = 15 * time.Second
	defaultRetryAttempts = 2
	defaultRetryBaseWait = 300 * time.Millisecond
)

// Client talks to the booking gateway over its REST surface.
type Client struct {
	baseURL       string
	token         string
	httpClient    *http.Client
	logger        *logging.Logger
	retryAttempts int
	retryBaseWait time.Duration
}

// NewClient creates a gateway client. token may be empty for deployments
// without bearer auth.
func NewClient(baseURL, token string, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	return &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		token:         token,
		httpClient:    &http.Client{Timeout: defaultTimeout},
		logger:        logger,
		retryAttempts: defaultRetryAttempts,
		retryBaseWait: defaultRetryBaseWait,
	}
}

// WithTimeout overrides the per-request timeout.
func (c *Client) WithTimeout(d time.Duration) *Client {
	if d > 0 {
		c.httpClient.Timeout = d
	}
	return c
}

// WithRetries configures read-operation retries. attempts is the number of
// retries after the first try; base is the initial backoff delay.
func (c *Client) WithRetries(attempts int, base time.Duration) *Client {
	if attempts >= 0 {
		c.retryAttempts = attempts
	}
	if base > 0 {
		c.retryBaseWait = base
	}
	return c
}

// ListHospitals returns the bookable hospitals.
func (c *Client) ListHospitals(ctx context.Context) ([]Option, error) {
	var records []HospitalRecord
	if err := c.doWithRetry(ctx, http.MethodGet, "/hospitals", nil, &records); err != nil {
		return nil, err
	}
	options := make([]Option, 0, len(records))
	for _, r := range records {
		options = append(options, r.toOption())
	}
	return options, nil
}

// ListDepartments returns the departments of one hospital.
func (c *Client) ListDepartments(ctx context.Context, hospitalID string) ([]Option, error) {
	var records []DepartmentRecord
	body := map[string]string{"hospitalId": hospitalID}
	if err := c.doWithRetry(ctx, http.MethodPost, "/getDepartmentsByHospitalId", body, &records); err != nil {
		return nil, err
	}
	options := make([]Option, 0, len(records))
	for _, r := range records {
		options = append(options, r.toOption())
	}
	return options, nil
}

// ListDoctors returns the doctors of one department.
func (c *Client) ListDoctors(ctx context.Context, departmentID string) ([]Option, error) {
	var records []DoctorRecord
	body := map[string]string{"departmentId": departmentID}
	if err := c.doWithRetry(ctx, http.MethodPost, "/getDoctorByDepartment", body, &records); err != nil {
		return nil, err
	}
	options := make([]Option, 0, len(records))
	for _, r := range records {
		options = append(options, r.toOption())
	}
	return options, nil
}

// GetSchedule returns the open HH:MM slots for a doctor on date (yyyy-MM-dd).
func (c *Client) GetSchedule(ctx context.Context, doctorID, date string) ([]string, error) {
	var out ScheduleResponse
	body := map[string]string{"doctorId": doctorID, "date": date}
	if err := c.doWithRetry(ctx, http.MethodPost, "/doctor/getSchedule", body, &out); err != nil {
		return nil, err
	}
	return out.AvailableSlots, nil
}

// CreateBooking submits an appointment. Submissions are never retried; a
// failed call may still have been accepted upstream.
func (c *Client) CreateBooking(ctx context.Context, req BookingRequest) (*BookingResponse, error) {
	var out BookingResponse
	if err := c.do(ctx, http.MethodPost, "/appointment", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// doWithRetry wraps do with bounded exponential backoff for read operations.
func (c *Client) doWithRetry(ctx context.Context, method, path string, body, out any) error {
	var lastErr error
	for attempt := 0; attempt <= c.retryAttempts; attempt++ {
		if attempt > 0 {
			wait := c.retryBaseWait * time.Duration(1<<(attempt-1))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
			c.logger.Debug("catalog: retrying request", "path", path, "attempt", attempt)
		}
		lastErr = c.do(ctx, method, path, body, out)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return lastErr
		}
	}
	return lastErr
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if c.baseURL == "" {
		return fmt.Errorf("catalog: missing base URL")
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("catalog: marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("catalog: create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("catalog: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn("catalog: gateway error",
			"path", path,
			"status", resp.StatusCode,
			"body", string(snippet),
		)
		return fmt.Errorf("catalog: %s %s: status %d", method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("catalog: decode response: %w", err)
	}
	return nil
}
