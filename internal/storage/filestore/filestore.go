// Пакет filestore — операции с физическими файлами в директории загрузок.
// Запись через временный файл с fsync и атомарным rename, удаление,
// перечисление содержимого директории.
package filestore

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	nanoid "github.com/jaevor/go-nanoid"
)

// tmpSuffix — суффикс временных файлов незавершённой записи.
const tmpSuffix = ".tmp"

// sniffLen — сколько первых байт содержимого сохраняется для определения MIME-типа.
const sniffLen = 3072

// tokenAlphabet и tokenLength — случайная часть имени файла (base36, 9 символов).
const (
	tokenAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	tokenLength   = 9
)

// ErrNotFound — файл с указанным именем отсутствует в директории.
var ErrNotFound = errors.New("файл не найден в директории загрузок")

// FileStore — управление физическими файлами на диске.
type FileStore struct {
	// dataDir — директория хранения файлов (DM_UPLOAD_DIR)
	dataDir string
	// token — генератор случайной части имени
	token func() string
	// now — источник времени (подменяется в тестах)
	now func() time.Time
}

// SaveResult — результат сохранения файла на диск.
type SaveResult struct {
	// StorageName — имя файла в dataDir
	StorageName string
	// FullPath — абсолютный путь файла на диске
	FullPath string
	// Size — размер записанных данных в байтах
	Size int64
	// Head — первые байты содержимого для определения MIME-типа
	Head []byte
}

// Entry — файл в директории загрузок.
type Entry struct {
	Name     string
	FullPath string
	Size     int64
	ModTime  time.Time
}

// New создаёт новый FileStore. Создаёт директорию, если она не существует.
func New(dataDir string) (*FileStore, error) {
	abs, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("некорректный путь директории %s: %w", dataDir, err)
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, fmt.Errorf("не удалось создать директорию данных %s: %w", abs, err)
	}

	token, err := nanoid.CustomASCII(tokenAlphabet, tokenLength)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания генератора имён: %w", err)
	}

	return &FileStore{dataDir: abs, token: token, now: time.Now}, nil
}

// SaveFile записывает данные из reader на диск.
// Формат имени: {epoch-ms}-{token}-{originalName}.
//
// Паттерн: temp файл → запись → fsync → atomic rename.
// При ошибке temp файл удаляется.
func (fs *FileStore) SaveFile(reader io.Reader, originalName string) (*SaveResult, error) {
	storageName := fs.GenerateStorageName(originalName)
	fullPath := filepath.Join(fs.dataDir, storageName)
	tmpPath := fullPath + tmpSuffix

	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания временного файла: %w", err)
	}

	head := &headBuffer{limit: sniffLen}
	size, err := io.Copy(f, io.TeeReader(reader, head))
	if err != nil {
		f.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("ошибка записи данных: %w", err)
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("ошибка fsync: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("ошибка закрытия файла: %w", err)
	}

	if err := os.Rename(tmpPath, fullPath); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("ошибка атомарного переименования: %w", err)
	}

	return &SaveResult{
		StorageName: storageName,
		FullPath:    fullPath,
		Size:        size,
		Head:        head.buf,
	}, nil
}

// DataDir возвращает путь к директории данных.
func (fs *FileStore) DataDir() string {
	return fs.dataDir
}

// CheckReady проверяет, что директория загрузок существует.
// Возвращает статус ("ok", "fail") и сообщение для readiness probe.
func (fs *FileStore) CheckReady() (status, message string) {
	info, err := os.Stat(fs.dataDir)
	if err != nil {
		return "fail", fmt.Sprintf("директория загрузок недоступна: %v", err)
	}
	if !info.IsDir() {
		return "fail", fmt.Sprintf("%s не является директорией", fs.dataDir)
	}
	return "ok", fs.dataDir
}

// DeleteFile удаляет файл с диска по абсолютному пути или имени.
// Возвращает nil, если файл уже не существует.
func (fs *FileStore) DeleteFile(pathOrName string) error {
	fullPath := pathOrName
	if !filepath.IsAbs(fullPath) {
		fullPath = filepath.Join(fs.dataDir, pathOrName)
	}

	err := os.Remove(fullPath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("ошибка удаления файла %s: %w", pathOrName, err)
	}
	return nil
}

// List возвращает файлы директории загрузок.
// Поддиректории и незавершённые временные файлы пропускаются.
// Отсутствующая директория эквивалентна пустой.
func (fs *FileStore) List() ([]Entry, error) {
	dirEntries, err := os.ReadDir(fs.dataDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("ошибка чтения директории %s: %w", fs.dataDir, err)
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		if de.IsDir() || strings.HasSuffix(de.Name(), tmpSuffix) {
			continue
		}
		info, err := de.Info()
		if err != nil {
			// Файл удалён между ReadDir и Info
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}
		entries = append(entries, Entry{
			Name:     de.Name(),
			FullPath: filepath.Join(fs.dataDir, de.Name()),
			Size:     info.Size(),
			ModTime:  info.ModTime(),
		})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// Find ищет файл по точному совпадению имени.
// Возвращает ErrNotFound, если совпадения нет.
func (fs *FileStore) Find(name string) (Entry, error) {
	entries, err := fs.List()
	if err != nil {
		return Entry{}, err
	}
	for _, e := range entries {
		if e.Name == name {
			return e, nil
		}
	}
	return Entry{}, ErrNotFound
}

// GenerateStorageName генерирует имя файла для хранения на диске.
// Формат: {epoch-ms}-{9 символов base36}-{originalName}.
// Пример: 1700000000000-abc123xyz-report.pdf
func (fs *FileStore) GenerateStorageName(originalName string) string {
	ms := strconv.FormatInt(fs.now().UnixMilli(), 10)
	return ms + "-" + fs.token() + "-" + SafeName(originalName)
}

// OriginalName восстанавливает исходное имя из имени файла на диске:
// всё после первых двух частей, разделённых '-'.
// Если частей меньше трёх, возвращается имя целиком.
func OriginalName(storageName string) string {
	parts := strings.Split(storageName, "-")
	if len(parts) > 2 {
		if name := strings.Join(parts[2:], "-"); name != "" {
			return name
		}
	}
	return storageName
}

// SafeName сводит имя, переданное клиентом, к базовому имени файла,
// чтобы запись не вышла за пределы директории загрузок.
func SafeName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	name = strings.TrimSuffix(name, tmpSuffix)
	if name == "." || name == ".." || name == "/" || name == "" {
		return "file"
	}
	return name
}

// headBuffer накапливает первые limit байт проходящего потока.
type headBuffer struct {
	buf   []byte
	limit int
}

func (h *headBuffer) Write(p []byte) (int, error) {
	if rest := h.limit - len(h.buf); rest > 0 {
		if len(p) < rest {
			rest = len(p)
		}
		h.buf = append(h.buf, p[:rest]...)
	}
	return len(p), nil
}
