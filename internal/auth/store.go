// Пакет auth — учётные записи пользователей дашборда.
// Пользователи хранятся в JSON-файле; пароли — bcrypt-хэши;
// сессия — HS256 JWT с claim userId.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// User — учётная запись в файле пользователей.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password"`
	CreatedAt    time.Time `json:"createdAt"`
}

// PublicUser — учётная запись без хэша пароля.
type PublicUser struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// Public возвращает представление пользователя для ответа API.
func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Email: u.Email, CreatedAt: u.CreatedAt}
}

// FileStore — хранилище пользователей в JSON-файле.
// Запись выполняется через временный файл и rename, файл никогда не остаётся
// частично записанным. Между процессами чтение-изменение-запись не синхронизировано.
type FileStore struct {
	path   string
	logger *slog.Logger
}

// NewFileStore создаёт хранилище. Директория и пустой файл создаются при необходимости.
func NewFileStore(path string, logger *slog.Logger) (*FileStore, error) {
	s := &FileStore{
		path:   path,
		logger: logger.With(slog.String("component", "user_store")),
	}
	if err := s.ensure(); err != nil {
		return nil, err
	}
	return s, nil
}

// ensure создаёт директорию и файл с пустым списком.
func (s *FileStore) ensure() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return fmt.Errorf("ошибка создания директории пользователей: %w", err)
	}
	if _, err := os.Stat(s.path); errors.Is(err, os.ErrNotExist) {
		return s.Save(nil)
	} else if err != nil {
		return fmt.Errorf("ошибка проверки файла пользователей: %w", err)
	}
	return nil
}

// Load читает всех пользователей.
// Отсутствующий или повреждённый файл даёт пустой список (с записью в лог).
func (s *FileStore) Load() []*User {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Error("Ошибка чтения файла пользователей",
				slog.String("path", s.path),
				slog.String("error", err.Error()),
			)
		}
		return []*User{}
	}

	var users []*User
	if err := json.Unmarshal(data, &users); err != nil {
		s.logger.Error("Файл пользователей повреждён, используется пустой список",
			slog.String("path", s.path),
			slog.String("error", err.Error()),
		)
		return []*User{}
	}
	if users == nil {
		users = []*User{}
	}
	return users
}

// Save записывает список пользователей целиком.
func (s *FileStore) Save(users []*User) error {
	if users == nil {
		users = []*User{}
	}
	data, err := json.MarshalIndent(users, "", "  ")
	if err != nil {
		return fmt.Errorf("ошибка сериализации пользователей: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return fmt.Errorf("ошибка создания директории пользователей: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("ошибка создания временного файла: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("ошибка записи временного файла: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("ошибка fsync временного файла: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("ошибка закрытия временного файла: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("ошибка переименования файла пользователей: %w", err)
	}
	return nil
}
