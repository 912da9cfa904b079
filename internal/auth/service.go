package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// minPasswordLength — минимальная длина пароля.
const minPasswordLength = 6

var (
	// ErrValidation — не заполнены обязательные поля или слишком короткий пароль.
	ErrValidation = errors.New("ошибка валидации")
	// ErrConflict — пользователь с таким email уже существует.
	ErrConflict = errors.New("пользователь с таким email уже существует")
	// ErrInvalidCredentials — неизвестный email или неверный пароль.
	ErrInvalidCredentials = errors.New("неверный email или пароль")
	// ErrUserNotFound — пользователь из токена больше не существует.
	ErrUserNotFound = errors.New("пользователь не найден")
)

// Session — результат регистрации или входа.
type Session struct {
	User  PublicUser `json:"user"`
	Token string     `json:"token"`
}

// UserStore — хранилище учётных записей.
type UserStore interface {
	Load() []*User
	Save(users []*User) error
}

// Service — регистрация, вход и профиль пользователя.
type Service struct {
	store      UserStore
	tokens     *TokenManager
	bcryptCost int
	logger     *slog.Logger
	now        func() time.Time

	// mu сериализует чтение-изменение-запись внутри процесса
	mu sync.Mutex
}

// NewService создаёт сервис аутентификации.
func NewService(store UserStore, tokens *TokenManager, bcryptCost int, logger *slog.Logger) *Service {
	return &Service{
		store:      store,
		tokens:     tokens,
		bcryptCost: bcryptCost,
		logger:     logger.With(slog.String("component", "auth")),
		now:        time.Now,
	}
}

// Signup регистрирует пользователя и выпускает токен.
func (s *Service) Signup(email, password string) (*Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email и пароль обязательны", ErrValidation)
	}
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("%w: пароль должен содержать не менее %d символов", ErrValidation, minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("ошибка хэширования пароля: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users := s.store.Load()
	ids := make(map[string]bool, len(users))
	for _, u := range users {
		if u.Email == email {
			return nil, ErrConflict
		}
		ids[u.ID] = true
	}

	// Идентификатор — время регистрации в миллисекундах, уникальный в пределах файла
	now := s.now().UTC()
	id := now.UnixMilli()
	for ids[strconv.FormatInt(id, 10)] {
		id++
	}

	user := &User{
		ID:           strconv.FormatInt(id, 10),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
	}
	users = append(users, user)
	if err := s.store.Save(users); err != nil {
		return nil, fmt.Errorf("ошибка сохранения пользователя: %w", err)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("ошибка выпуска токена: %w", err)
	}

	s.logger.Info("Пользователь зарегистрирован", slog.String("user_id", user.ID))
	return &Session{User: user.Public(), Token: token}, nil
}

// Login проверяет учётные данные и выпускает токен.
func (s *Service) Login(email, password string) (*Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email и пароль обязательны", ErrValidation)
	}

	user := s.findBy(func(u *User) bool { return u.Email == email })
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("ошибка выпуска токена: %w", err)
	}
	return &Session{User: user.Public(), Token: token}, nil
}

// Profile возвращает пользователя по идентификатору из токена.
func (s *Service) Profile(userID string) (*PublicUser, error) {
	user := s.findBy(func(u *User) bool { return u.ID == userID })
	if user == nil {
		return nil, ErrUserNotFound
	}
	p := user.Public()
	return &p, nil
}

// Authenticate проверяет токен и возвращает идентификатор пользователя.
func (s *Service) Authenticate(token string) (string, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}

func (s *Service) findBy(match func(*User) bool) *User {
	for _, u := range s.store.Load() {
		if match(u) {
			return u
		}
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
