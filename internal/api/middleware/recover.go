package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	apierrors "github.com/bigkaa/goartstore/dashboard-module/internal/api/errors"
)

// Recoverer перехватывает панику обработчика и отвечает 500.
// В режиме разработки ответ содержит текст паники и стек.
func Recoverer(logger *slog.Logger, devMode bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				// Штатное прерывание ответа, повторно поднимаем для net/http
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				stack := debug.Stack()
				logger.Error("Паника в обработчике HTTP",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("panic", fmt.Sprint(rec)),
					slog.String("stack", string(stack)),
				)

				if devMode {
					apierrors.WriteDetailed(w, http.StatusInternalServerError, apierrors.CodeInternalError,
						"Внутренняя ошибка сервера",
						apierrors.Detail{Error: fmt.Sprint(rec), Stack: string(stack)})
					return
				}
				apierrors.InternalError(w, "Внутренняя ошибка сервера")
			}()

			next.ServeHTTP(w, r)
		})
	}
}
