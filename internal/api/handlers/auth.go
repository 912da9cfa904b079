// auth.go — HTTP handlers регистрации, входа и профиля.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	apierrors "github.com/bigkaa/goartstore/dashboard-module/internal/api/errors"
	"github.com/bigkaa/goartstore/dashboard-module/internal/api/middleware"
	"github.com/bigkaa/goartstore/dashboard-module/internal/auth"
)

// maxCredentialsBody — предельный размер тела запроса с учётными данными.
const maxCredentialsBody = 64 << 10

// AuthService — учётные записи пользователей.
type AuthService interface {
	Signup(email, password string) (*auth.Session, error)
	Login(email, password string) (*auth.Session, error)
	Profile(userID string) (*auth.PublicUser, error)
}

// AuthHandler — обработчик endpoints аутентификации.
type AuthHandler struct {
	auth AuthService
	responder
}

// NewAuthHandler создаёт обработчик endpoints аутентификации.
func NewAuthHandler(svc AuthService, devMode bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auth: svc,
		responder: responder{
			devMode: devMode,
			logger:  logger.With(slog.String("component", "auth_handler")),
		},
	}
}

// credentials — тело запросов signup и login.
type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// decodeCredentials читает учётные данные из тела запроса.
func decodeCredentials(w http.ResponseWriter, r *http.Request) (credentials, bool) {
	var c credentials
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCredentialsBody)).Decode(&c); err != nil {
		apierrors.ValidationError(w, "Некорректное тело запроса: ожидается JSON {email, password}")
		return c, false
	}
	return c, true
}

// Signup обрабатывает POST /api/auth/signup.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	c, ok := decodeCredentials(w, r)
	if !ok {
		return
	}

	sess, err := h.auth.Signup(c.Email, c.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{
		Success: true,
		Message: "Пользователь зарегистрирован",
		Data:    sess,
	})
}

// Login обрабатывает POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	c, ok := decodeCredentials(w, r)
	if !ok {
		return
	}

	sess, err := h.auth.Login(c.Email, c.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Message: "Вход выполнен",
		Data:    sess,
	})
}

// GetProfile обрабатывает GET /api/auth/profile.
// Требует BearerAuth middleware.
func (h *AuthHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, err := h.auth.Profile(middleware.UserIDFromContext(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"user": user})
}
