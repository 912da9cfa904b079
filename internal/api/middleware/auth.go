// auth.go — Bearer-аутентификация по токену сессии.
// Токены выпускаются и проверяются локально (HS256), идентификатор
// пользователя помещается в контекст запроса.
package middleware

import (
	"context"
	"net/http"
	"strings"

	apierrors "github.com/bigkaa/goartstore/dashboard-module/internal/api/errors"
)

// contextKey — тип для ключей контекста (избегаем коллизий).
type contextKey string

// ContextKeyUserID — идентификатор пользователя из токена.
const ContextKeyUserID contextKey = "user_id"

// Authenticator — проверка токена сессии.
type Authenticator interface {
	// Authenticate возвращает идентификатор пользователя или ошибку.
	Authenticate(token string) (string, error)
}

// BearerAuth возвращает middleware, требующий заголовок Authorization: Bearer <token>.
func BearerAuth(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				apierrors.Unauthorized(w, "Отсутствует заголовок Authorization")
				return
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				apierrors.Unauthorized(w, "Неверный формат Authorization: ожидается Bearer <token>")
				return
			}

			token := strings.TrimSpace(parts[1])
			if token == "" {
				apierrors.Unauthorized(w, "Пустой Bearer token")
				return
			}

			userID, err := auth.Authenticate(token)
			if err != nil {
				apierrors.Unauthorized(w, "Невалидный или просроченный токен")
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyUserID, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext извлекает идентификатор пользователя из контекста.
func UserIDFromContext(ctx context.Context) string {
	userID, _ := ctx.Value(ContextKeyUserID).(string)
	return userID
}
