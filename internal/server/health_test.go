package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

// mockHealthChecker implements HealthChecker for testing
type mockHealthChecker struct {
	liveness  bool
	readiness bool
	status    map[string]string
}

func (m *mockHealthChecker) Liveness() bool {
	return m.liveness
}

func (m *mockHealthChecker) Readiness(ctx context.Context) (bool, map[string]string) {
	return m.readiness, m.status
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) HealthResponse {
	t.Helper()
	var response HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return response
}

func TestLivenessHandler(t *testing.T) {
	tests := []struct {
		name       string
		liveness   bool
		wantCode   int
		wantStatus string
	}{
		{"alive", true, http.StatusOK, "alive"},
		{"not alive", false, http.StatusServiceUnavailable, "not alive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := LivenessHandler(&mockHealthChecker{liveness: tt.liveness}, testLogger())
			w := httptest.NewRecorder()
			handler(w, httptest.NewRequest(http.MethodGet, "/health/live", nil))

			if w.Code != tt.wantCode {
				t.Errorf("status code = %d, want %d", w.Code, tt.wantCode)
			}
			if got := w.Header().Get("Content-Type"); got != "application/json" {
				t.Errorf("Content-Type = %q", got)
			}
			if response := decode(t, w); response.Status != tt.wantStatus {
				t.Errorf("status = %s, want %s", response.Status, tt.wantStatus)
			}
		})
	}
}

func TestReadinessHandler(t *testing.T) {
	tests := []struct {
		name       string
		readiness  bool
		status     map[string]string
		wantCode   int
		wantStatus string
	}{
		{
			name:       "ready",
			readiness:  true,
			status:     map[string]string{"pipeline": "ok", "writer": "ok"},
			wantCode:   http.StatusOK,
			wantStatus: "ready",
		},
		{
			name:       "not ready",
			readiness:  false,
			status:     map[string]string{"pipeline": "not consuming", "writer": "ok"},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "not ready",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := &mockHealthChecker{readiness: tt.readiness, status: tt.status}
			handler := ReadinessHandler(checker, testLogger())
			w := httptest.NewRecorder()
			handler(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

			if w.Code != tt.wantCode {
				t.Errorf("status code = %d, want %d", w.Code, tt.wantCode)
			}
			response := decode(t, w)
			if response.Status != tt.wantStatus {
				t.Errorf("status = %s, want %s", response.Status, tt.wantStatus)
			}
			if len(response.Checks) != len(tt.status) {
				t.Errorf("checks = %v, want %v", response.Checks, tt.status)
			}
			for name, want := range tt.status {
				if response.Checks[name] != want {
					t.Errorf("checks[%s] = %q, want %q", name, response.Checks[name], want)
				}
			}
		})
	}
}

func TestHandlers_Methods(t *testing.T) {
	checker := &mockHealthChecker{liveness: true, readiness: true}
	handlers := map[string]http.HandlerFunc{
		"live":  LivenessHandler(checker, testLogger()),
		"ready": ReadinessHandler(checker, testLogger()),
	}

	tests := []struct {
		method   string
		wantCode int
	}{
		{http.MethodGet, http.StatusOK},
		{http.MethodHead, http.StatusOK},
		{http.MethodPost, http.StatusMethodNotAllowed},
		{http.MethodPut, http.StatusMethodNotAllowed},
		{http.MethodDelete, http.StatusMethodNotAllowed},
	}

	for name, handler := range handlers {
		for _, tt := range tests {
			t.Run(name+"/"+tt.method, func(t *testing.T) {
				w := httptest.NewRecorder()
				handler(w, httptest.NewRequest(tt.method, "/health/"+name, nil))
				if w.Code != tt.wantCode {
					t.Errorf("status code = %d, want %d", w.Code, tt.wantCode)
				}
			})
		}
	}
}
