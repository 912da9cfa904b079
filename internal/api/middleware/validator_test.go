package middleware

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bigkaa/goartstore/dashboard-module/internal/api/openapi"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestRequestValidator проверяет query-параметры по встроенному контракту.
func TestRequestValidator(t *testing.T) {
	v, err := NewRequestValidator(openapi.Spec, testLogger())
	if err != nil {
		t.Fatalf("NewRequestValidator: %v", err)
	}

	handler := v.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name   string
		method string
		target string
		status int
	}{
		{"без параметров", http.MethodGet, "/api/files", http.StatusOK},
		{"все параметры", http.MethodGet, "/api/files?category=image&search=cat&sort=name&page=2&limit=12", http.StatusOK},
		{"категория all", http.MethodGet, "/api/files?category=all", http.StatusOK},
		{"неизвестная категория", http.MethodGet, "/api/files?category=bogus", http.StatusBadRequest},
		{"неизвестная сортировка", http.MethodGet, "/api/files?sort=random", http.StatusBadRequest},
		{"page не число", http.MethodGet, "/api/files?page=abc", http.StatusBadRequest},
		{"page ноль", http.MethodGet, "/api/files?page=0", http.StatusBadRequest},
		{"limit отрицательный", http.MethodGet, "/api/activities?limit=-1", http.StatusBadRequest},
		{"неизвестный тип события", http.MethodGet, "/api/activities?type=rename", http.StatusBadRequest},
		{"тип события", http.MethodGet, "/api/activities?type=upload", http.StatusOK},
		{"произвольный период", http.MethodGet, "/api/analytics/trend-data?period=1y", http.StatusOK},
		{"файл по id", http.MethodGet, "/api/files/1700000000000-abc123xyz-report.pdf", http.StatusOK},
		{"профиль без токена", http.MethodGet, "/api/auth/profile", http.StatusOK},
		{"путь вне контракта", http.MethodGet, "/health/live?x=1", http.StatusOK},
		{"метод вне контракта", http.MethodGet, "/api/files/upload?page=abc", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, nil)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Errorf("статус = %d, ожидался %d (тело: %s)", rec.Code, tt.status, rec.Body.String())
			}
		})
	}
}

// TestRequestValidator_ErrorBody проверяет код ошибки и имя параметра в сообщении.
func TestRequestValidator_ErrorBody(t *testing.T) {
	v, err := NewRequestValidator(openapi.Spec, testLogger())
	if err != nil {
		t.Fatalf("NewRequestValidator: %v", err)
	}
	handler := v.Middleware()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("обработчик не должен вызываться")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/files?limit=many", nil))

	var body struct {
		Success bool   `json:"success"`
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if body.Success || body.Code != "VALIDATION_ERROR" {
		t.Errorf("тело = %+v", body)
	}
	if body.Message != `Некорректное значение параметра "limit"` {
		t.Errorf("message = %q", body.Message)
	}
}

// TestNewRequestValidator_BrokenSpec проверяет отказ для некорректного документа.
func TestNewRequestValidator_BrokenSpec(t *testing.T) {
	if _, err := NewRequestValidator([]byte("openapi: [broken"), testLogger()); err == nil {
		t.Error("ожидалась ошибка загрузки документа")
	}
}
