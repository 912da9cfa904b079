// Пакет errors — ответы с ошибками в формате Dashboard Module.
// Единый формат: {"success": false, "code": "...", "message": "..."}.
// Все HTTP-ответы с ошибками должны использовать WriteError.
package errors //nolint:revive // конфликт имени со stdlib, импортируется как apierrors

import (
	"encoding/json"
	"net/http"
)

// Коды ошибок API.
const (
	CodeValidationError     = "VALIDATION_ERROR"
	CodeNotFound            = "NOT_FOUND"
	CodeConflict            = "CONFLICT"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeServiceUnavailable  = "SERVICE_UNAVAILABLE"
	CodeReconcileInProgress = "RECONCILE_IN_PROGRESS"
	CodeInternalError       = "INTERNAL_ERROR"
)

// errorBody — тело ответа ошибки.
type errorBody struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	// Error и Stack заполняются только в режиме разработки
	Error string `json:"error,omitempty"`
	Stack string `json:"stack,omitempty"`
	// Data — результат, успевший получиться до ошибки
	Data any `json:"data,omitempty"`
}

// Detail — подробности ошибки: текст и стек для режима разработки,
// частичный результат операции.
type Detail struct {
	Error string
	Stack string
	Data  any
}

// WriteError записывает ответ ошибки в стандартном формате.
// statusCode — HTTP статус-код, code — машиночитаемый код, message — описание.
func WriteError(w http.ResponseWriter, statusCode int, code, message string) {
	writeBody(w, statusCode, errorBody{Code: code, Message: message})
}

// WriteDetailed записывает ответ ошибки с текстом ошибки и стеком.
func WriteDetailed(w http.ResponseWriter, statusCode int, code, message string, d Detail) {
	writeBody(w, statusCode, errorBody{
		Code:    code,
		Message: message,
		Error:   d.Error,
		Stack:   d.Stack,
		Data:    d.Data,
	})
}

func writeBody(w http.ResponseWriter, statusCode int, body errorBody) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}

// --- Конструкторы для типичных ошибок ---

// ValidationError — 400 некорректные входные данные.
func ValidationError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, CodeValidationError, message)
}

// NotFound — 404 ресурс не найден.
func NotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, CodeNotFound, message)
}

// Unauthorized — 401 требуется аутентификация.
func Unauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, CodeUnauthorized, message)
}

// InternalError — 500 внутренняя ошибка.
func InternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, CodeInternalError, message)
}
