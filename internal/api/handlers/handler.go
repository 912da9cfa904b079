// handler.go — общие части обработчиков API: конверт ответа,
// привязка query-параметров и перевод ошибок сервисного слоя в HTTP.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	apierrors "github.com/bigkaa/goartstore/dashboard-module/internal/api/errors"
	"github.com/bigkaa/goartstore/dashboard-module/internal/auth"
	"github.com/bigkaa/goartstore/dashboard-module/internal/domain/model"
	"github.com/bigkaa/goartstore/dashboard-module/internal/service"
)

// envelope — конверт успешного ответа API.
type envelope struct {
	Success    bool              `json:"success"`
	Message    string            `json:"message,omitempty"`
	Data       any               `json:"data,omitempty"`
	Pagination *model.Pagination `json:"pagination,omitempty"`
	Count      *int              `json:"count,omitempty"`
	Period     string            `json:"period,omitempty"`
}

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeData записывает успешный ответ с данными.
func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

// writePage записывает страницу данных с пагинацией.
func writePage(w http.ResponseWriter, data any, p model.Pagination) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: data, Pagination: &p})
}

// responder переводит ошибки сервисного слоя в ответы API.
type responder struct {
	devMode bool
	logger  *slog.Logger
}

// fail записывает ответ ошибки. Неизвестные ошибки логируются и дают 500;
// текст ошибки попадает в ответ только в режиме разработки.
func (rs responder) fail(w http.ResponseWriter, r *http.Request, err error) {
	rs.failWithData(w, r, err, nil)
}

// failWithData записывает ответ ошибки с частичным результатом в поле data.
func (rs responder) failWithData(w http.ResponseWriter, r *http.Request, err error, data any) {
	status, code, message := classify(err)
	detail := apierrors.Detail{Data: data}

	if status == http.StatusInternalServerError {
		rs.logger.Error("Ошибка обработки запроса",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		if rs.devMode {
			detail.Error = err.Error()
		}
	}
	apierrors.WriteDetailed(w, status, code, message, detail)
}

// classify переводит ошибку сервисного слоя в статус, код и сообщение.
func classify(err error) (status int, code, message string) {
	switch {
	case errors.Is(err, service.ErrValidation), errors.Is(err, auth.ErrValidation):
		return http.StatusBadRequest, apierrors.CodeValidationError, err.Error()
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, apierrors.CodeNotFound, "Файл не найден"
	case errors.Is(err, auth.ErrUserNotFound):
		return http.StatusNotFound, apierrors.CodeNotFound, "Пользователь не найден"
	case errors.Is(err, service.ErrConflict), errors.Is(err, auth.ErrConflict):
		return http.StatusConflict, apierrors.CodeConflict, err.Error()
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized, apierrors.CodeUnauthorized, err.Error()
	case errors.Is(err, service.ErrUnavailable):
		return http.StatusServiceUnavailable, apierrors.CodeServiceUnavailable, "База данных недоступна, операция невозможна"
	case errors.Is(err, service.ErrInProgress):
		return http.StatusConflict, apierrors.CodeReconcileInProgress, "Сверка уже выполняется"
	default:
		return http.StatusInternalServerError, apierrors.CodeInternalError, "Внутренняя ошибка сервера"
	}
}

// intValue возвращает значение указателя или 0.
func intValue(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

// stringValue возвращает значение указателя или пустую строку.
func stringValue(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
