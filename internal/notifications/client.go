package notifications

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"sheet_geocoder/internal/retry"

	"github.com/rs/zerolog/log"
)

type Client struct {
	httpClient *http.Client
	baseURL    string
	topic      string
	enabled    bool
	retry      retry.Config
}

// RunReport is what gets announced after a successful write-back
type RunReport struct {
	SpreadsheetID string
	Rows          int
	Unresolved    int
	Jittered      int
	Elapsed       time.Duration
}

type NotificationError struct {
	Type       string
	StatusCode int
	Underlying error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("notification failed [%s]: %v", e.Type, e.Underlying)
}

func (e *NotificationError) Unwrap() error { return e.Underlying }

func (e *NotificationError) IsRetryable() bool {
	switch e.Type {
	case "network", "server", "rate_limit":
		return true
	case "auth", "client":
		return false
	default:
		return e.StatusCode >= 500
	}
}

// isRetryable lets anything that is not a NotificationError through to a retry
func isRetryable(err error) bool {
	var notifErr *NotificationError
	if errors.As(err, &notifErr) {
		return notifErr.IsRetryable()
	}
	return true
}

func NewClient(baseURL, topic string, enabled bool, retryConfig retry.Config) *Client {
	retryConfig.Retryable = isRetryable
	return &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: strings.TrimSuffix(baseURL, "/"),
		topic:   topic,
		enabled: enabled,
		retry:   retryConfig,
	}
}

func (c *Client) SendNotification(ctx context.Context, message string) error {
	if !c.enabled {
		log.Debug().Msg("Notifications disabled, skipping")
		return nil
	}

	_, err := retry.WithRetry(ctx, c.retry, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.send(ctx, message)
	})
	return err
}

func (c *Client) send(ctx context.Context, message string) error {
	url := fmt.Sprintf("%s/%s", c.baseURL, c.topic)

	log.Debug().
		Str("url", url).
		Str("message", message).
		Msg("Sending notification")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBufferString(message))
	if err != nil {
		return &NotificationError{Type: "client", Underlying: err}
	}
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("Title", "Sheet geocoding finished")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NotificationError{Type: "network", Underlying: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return &NotificationError{
			Type:       categorizeHTTPError(resp.StatusCode),
			StatusCode: resp.StatusCode,
			Underlying: fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status),
		}
	}

	log.Debug().Int("status_code", resp.StatusCode).Msg("Notification sent successfully")
	return nil
}

// NotifyRunComplete announces a finished run. Failures are logged only.
func (c *Client) NotifyRunComplete(ctx context.Context, report RunReport) {
	if !c.enabled {
		return
	}
	if err := c.SendNotification(ctx, FormatRunReport(report)); err != nil {
		log.Warn().Err(err).Msg("Failed to send run notification")
	}
}

func FormatRunReport(report RunReport) string {
	var sb strings.Builder

	if report.Rows == 1 {
		sb.WriteString("Geocoded 1 row")
	} else {
		sb.WriteString(fmt.Sprintf("Geocoded %d rows", report.Rows))
	}
	sb.WriteString(fmt.Sprintf(" in %s\n", report.Elapsed.Round(time.Millisecond)))

	if report.Unresolved > 0 {
		sb.WriteString(fmt.Sprintf("Unresolved: %d (written as 0,0)\n", report.Unresolved))
	}
	if report.Jittered > 0 {
		sb.WriteString(fmt.Sprintf("Jittered duplicates: %d\n", report.Jittered))
	}
	if report.SpreadsheetID != "" {
		sb.WriteString(fmt.Sprintf("Sheet: https://docs.google.com/spreadsheets/d/%s\n", report.SpreadsheetID))
	}

	return strings.TrimSuffix(sb.String(), "\n")
}

func categorizeHTTPError(statusCode int) string {
	switch {
	case statusCode == 401 || statusCode == 403:
		return "auth"
	case statusCode == 429:
		return "rate_limit"
	case statusCode >= 400 && statusCode < 500:
		return "client"
	case statusCode >= 500:
		return "server"
	default:
		return "unknown"
	}
}
