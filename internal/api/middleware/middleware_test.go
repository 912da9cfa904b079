package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// TestNormalizePath проверяет метки путей для метрик.
func TestNormalizePath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/health/live", "/health/live"},
		{"/api/files", "/api/files"},
		{"/api/files/upload", "/api/files/upload"},
		{"/api/files/5f0c7a5e-8d1b-4b8e-9f1a-2c3d4e5f6a7b", "/api/files/{id}"},
		{"/api/files/1700000000000-abc123xyz-report.pdf", "/api/files/{id}"},
		{"/api/files/a/b", "other"},
		{"/wp-admin", "other"},
	}
	for _, tt := range tests {
		if got := normalizePath(tt.path); got != tt.want {
			t.Errorf("normalizePath(%q) = %q, ожидалось %q", tt.path, got, tt.want)
		}
	}
}

// TestRecoverer проверяет 500 без подробностей вне режима разработки.
func TestRecoverer(t *testing.T) {
	panicking := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})

	tests := []struct {
		name      string
		devMode   bool
		wantStack bool
	}{
		{"production", false, false},
		{"development", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			Recoverer(testLogger(), tt.devMode)(panicking).
				ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/files", nil))

			if rec.Code != http.StatusInternalServerError {
				t.Fatalf("ожидался 500, получен %d", rec.Code)
			}

			var body map[string]any
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if body["code"] != "INTERNAL_ERROR" {
				t.Errorf("code = %v", body["code"])
			}
			_, hasStack := body["stack"]
			if hasStack != tt.wantStack {
				t.Errorf("stack в ответе: %v, ожидалось %v", hasStack, tt.wantStack)
			}
			if tt.wantStack && body["error"] != "boom" {
				t.Errorf("error = %v", body["error"])
			}
		})
	}
}

// TestResponseWriter_FirstStatusWins проверяет фиксацию первого статуса.
func TestResponseWriter_FirstStatusWins(t *testing.T) {
	rw := newResponseWriter(httptest.NewRecorder())
	_, _ = rw.Write([]byte("ok"))
	rw.WriteHeader(http.StatusTeapot)

	if rw.statusCode != http.StatusOK {
		t.Errorf("statusCode = %d, ожидался 200", rw.statusCode)
	}
	if rw.written != 2 {
		t.Errorf("written = %d", rw.written)
	}
}

// TestRequestLogger_PassesThrough проверяет, что ответ не изменяется.
func TestRequestLogger_PassesThrough(t *testing.T) {
	handler := MetricsMiddleware()(RequestLogger(testLogger())(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/files/x", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("статус = %d", rec.Code)
	}
}
