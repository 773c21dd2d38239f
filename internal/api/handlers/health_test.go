package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

type stubChecker struct {
	status  string
	message string
}

func (s stubChecker) CheckReady(context.Context) (string, string) {
	return s.status, s.message
}

func TestHealthLive(t *testing.T) {
	h := NewHealthHandler(nil, nil, nil)
	rec := httptest.NewRecorder()
	h.HealthLive(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	var body healthLiveResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusOK || body.Status != "ok" || body.Service != "tasktracker-api" {
		t.Errorf("неожиданный ответ: %d %+v", rec.Code, body)
	}
}

func TestHealthReady(t *testing.T) {
	tests := []struct {
		name       string
		pg, idp    ReadinessChecker
		wantStatus string
		wantCode   int
	}{
		{"всё доступно", stubChecker{status: "ok"}, stubChecker{status: "ok"}, "ok", http.StatusOK},
		{"JWKS деградирован", stubChecker{status: "ok"}, stubChecker{status: "degraded", message: "медленно"}, "degraded", http.StatusOK},
		{"БД недоступна", stubChecker{status: "fail"}, stubChecker{status: "ok"}, "fail", http.StatusServiceUnavailable},
		{"нет checker", nil, stubChecker{status: "ok"}, "fail", http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(tt.pg, tt.idp, nil)
			rec := httptest.NewRecorder()
			h.HealthReady(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

			var body healthReadyResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatal(err)
			}
			if rec.Code != tt.wantCode || body.Status != tt.wantStatus {
				t.Errorf("ожидалось %d/%s, получено %d/%s", tt.wantCode, tt.wantStatus, rec.Code, body.Status)
			}
		})
	}
}

func TestGetOpenAPISpec(t *testing.T) {
	h := NewHealthHandler(nil, nil, []byte("openapi: 3.0.3\n"))
	rec := httptest.NewRecorder()
	h.GetOpenAPISpec(rec, httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil))
	if rec.Header().Get("Content-Type") != "application/yaml" || rec.Body.String() != "openapi: 3.0.3\n" {
		t.Errorf("неожиданный ответ: %q %q", rec.Header().Get("Content-Type"), rec.Body.String())
	}
}

func TestOverallStatus(t *testing.T) {
	tests := []struct {
		in   []string
		want string
	}{
		{[]string{"ok", "ok"}, "ok"},
		{[]string{"ok", "degraded"}, "degraded"},
		{[]string{"degraded", "fail"}, "fail"},
	}
	for _, tt := range tests {
		if got := overallStatus(tt.in...); got != tt.want {
			t.Errorf("overallStatus(%v) = %q, ожидалось %q", tt.in, got, tt.want)
		}
	}
}
