package http

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsMiddleware_StatusCodes(t *testing.T) {
	httpRequestsTotal.Reset()

	tests := []struct {
		name       string
		statusCode int
	}{
		{"success 200", http.StatusOK},
		{"created 201", http.StatusCreated},
		{"bad request 400", http.StatusBadRequest},
		{"not found 404", http.StatusNotFound},
		{"server error 500", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := MetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
			}))

			req := httptest.NewRequest("POST", "/publish", nil)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.statusCode {
				t.Errorf("expected status %d, got %d", tt.statusCode, w.Code)
			}
		})
	}
}

func TestMetricsMiddleware_RequestAndResponseSize(t *testing.T) {
	httpRequestSize.Reset()
	httpResponseSize.Reset()

	responseBody := []byte(`{"status":"accepted"}`)
	handler := MetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(responseBody)
	}))

	body := strings.NewReader("hub.mode=subscribe&hub.topic=https://example.com/feed")
	req := httptest.NewRequest("POST", "/subscribe", body)
	req.ContentLength = int64(body.Len())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Body.Len() != len(responseBody) {
		t.Errorf("expected response size %d, got %d", len(responseBody), w.Body.Len())
	}
}

func TestResponseWriter(t *testing.T) {
	w := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

	rw.WriteHeader(http.StatusCreated)
	if rw.statusCode != http.StatusCreated {
		t.Errorf("expected status code %d, got %d", http.StatusCreated, rw.statusCode)
	}

	data := []byte("test response")
	n, err := rw.Write(data)
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if n != len(data) {
		t.Errorf("expected to write %d bytes, wrote %d", len(data), n)
	}
	if rw.size != len(data) {
		t.Errorf("expected size %d, got %d", len(data), rw.size)
	}
}

func TestMetricsHandler(t *testing.T) {
	handler := MetricsHandler()
	if handler == nil {
		t.Fatal("MetricsHandler() returned nil")
	}

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("expected status OK; got %v", rr.Code)
	}
	if rr.Body.Len() == 0 {
		t.Error("metrics endpoint returned empty body")
	}
}

func TestRecordPublish(t *testing.T) {
	RecordPublish(true)
	RecordPublish(false)
}

func TestRecordVerificationOutcome(t *testing.T) {
	RecordVerificationOutcome("subscribe", true)
	RecordVerificationOutcome("unsubscribe", false)
}

func TestRecordFetchDuration(t *testing.T) {
	RecordFetchDuration(250 * time.Millisecond)
	RecordFetchDuration(0)
}

func TestRecordFetchError(t *testing.T) {
	RecordFetchError("transport")
	RecordFetchError("invalid_content")
}

func TestUpdateTopicsTotal(t *testing.T) {
	UpdateTopicsTotal(42)

	count := testutil.CollectAndCount(topicsTotal)
	if count == 0 {
		t.Error("expected topicsTotal metric to be registered")
	}
}
