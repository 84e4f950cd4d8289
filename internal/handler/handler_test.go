package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fintrack/fintrack/internal/handler/dto"
	"github.com/fintrack/fintrack/internal/metrics"
)

func TestHandler_Index(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	New().Index(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", ct)
	}

	var response map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response["name"] != "fintrack" || response["version"] != Version {
		t.Errorf("unexpected body: %v", response)
	}
}

func TestHandler_Fallbacks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		serve      func(http.ResponseWriter, *http.Request)
		wantStatus int
		wantCode   string
	}{
		{"not found", New().NotFound, http.StatusNotFound, codeNotFound},
		{"method not allowed", New().MethodNotAllowed, http.StatusMethodNotAllowed, codeMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			tt.serve(rec, httptest.NewRequest(http.MethodGet, "/nowhere", nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var body dto.ErrorResponse
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Code != tt.wantCode || body.Message == "" {
				t.Errorf("body = %+v", body)
			}
		})
	}
}

func TestMetricsHandler(t *testing.T) {
	t.Parallel()

	recorder := metrics.NewInMemory()
	recorder.IncRecordCreated("expense")
	recorder.IncLogin("failed")

	rec := httptest.NewRecorder()
	NewMetricsHandler(recorder).Metrics(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rec.Body.String()
	for _, line := range []string{
		`fintrack_records_created_total{kind="expense"} 1`,
		`fintrack_records_created_total{kind="income"} 0`,
		`fintrack_logins_total{status="failed"} 1`,
		`fintrack_rate_limited_total{scope="ip"} 0`,
	} {
		if !strings.Contains(body, line) {
			t.Errorf("missing %q in:\n%s", line, body)
		}
	}
}

func TestMetricsHandler_Unavailable(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	NewMetricsHandler(nil).Metrics(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestDeletedMessage(t *testing.T) {
	t.Parallel()

	if got := deletedMessage("expense"); got != "Expense deleted" {
		t.Errorf("got %q", got)
	}
}
