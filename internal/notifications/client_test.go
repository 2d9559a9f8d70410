package notifications

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"sheet_geocoder/internal/retry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testRetry = retry.Config{
	MaxRetries: 2,
	BaseDelay:  time.Millisecond,
	MaxDelay:   5 * time.Millisecond,
	Timeout:    time.Second,
}

func TestSendNotificationPostsToTopic(t *testing.T) {
	var path, body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		b, _ := io.ReadAll(r.Body)
		body = string(b)
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/", "geo-topic", true, testRetry)
	require.NoError(t, client.SendNotification(context.Background(), "hello"))

	assert.Equal(t, "/geo-topic", path)
	assert.Equal(t, "hello", body)
}

func TestSendNotificationDisabled(t *testing.T) {
	var hits int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "t", false, testRetry)
	require.NoError(t, client.SendNotification(context.Background(), "ignored"))
	client.NotifyRunComplete(context.Background(), RunReport{Rows: 1})

	assert.Zero(t, atomic.LoadInt64(&hits))
}

func TestSendNotificationRetriesServerErrors(t *testing.T) {
	var hits int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt64(&hits, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "t", true, testRetry)
	require.NoError(t, client.SendNotification(context.Background(), "eventually"))
	assert.Equal(t, int64(3), atomic.LoadInt64(&hits))
}

func TestSendNotificationDoesNotRetryAuthErrors(t *testing.T) {
	var hits int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "t", true, testRetry)
	err := client.SendNotification(context.Background(), "denied")

	require.Error(t, err)
	var notifErr *NotificationError
	require.ErrorAs(t, err, &notifErr)
	assert.Equal(t, "auth", notifErr.Type)
	assert.Equal(t, int64(1), atomic.LoadInt64(&hits))
}

func TestFormatRunReport(t *testing.T) {
	msg := FormatRunReport(RunReport{
		SpreadsheetID: "abc",
		Rows:          12,
		Unresolved:    2,
		Jittered:      3,
		Elapsed:       1500 * time.Millisecond,
	})

	assert.Equal(t, "Geocoded 12 rows in 1.5s\n"+
		"Unresolved: 2 (written as 0,0)\n"+
		"Jittered duplicates: 3\n"+
		"Sheet: https://docs.google.com/spreadsheets/d/abc", msg)

	assert.Equal(t, "Geocoded 1 row in 20ms", FormatRunReport(RunReport{Rows: 1, Elapsed: 20 * time.Millisecond}))
}
