package repository

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/bigkaa/goartstore/dashboard-module/internal/config"
	"github.com/bigkaa/goartstore/dashboard-module/internal/database"
	"github.com/bigkaa/goartstore/dashboard-module/internal/domain/category"
	"github.com/bigkaa/goartstore/dashboard-module/internal/domain/model"
)

// --- Тесты построителей запросов ---

// TestBuildListWhere_Empty проверяет, что удалённые записи исключаются всегда.
func TestBuildListWhere_Empty(t *testing.T) {
	where, args := buildListWhere(model.FileQuery{}, 1)

	if where != "WHERE NOT is_deleted" {
		t.Errorf("where = %q, ожидалось 'WHERE NOT is_deleted'", where)
	}
	if len(args) != 0 {
		t.Errorf("args count = %d, ожидался 0", len(args))
	}
}

// TestBuildListWhere_CategoryAll проверяет, что "all" не фильтрует.
func TestBuildListWhere_CategoryAll(t *testing.T) {
	where, args := buildListWhere(model.FileQuery{Category: "all"}, 1)

	if strings.Contains(where, "category") {
		t.Errorf("where = %q, фильтр по категории не ожидался", where)
	}
	if len(args) != 0 {
		t.Errorf("args count = %d, ожидался 0", len(args))
	}
}

// TestBuildListWhere_CategoryAndSearch проверяет нумерацию параметров.
func TestBuildListWhere_CategoryAndSearch(t *testing.T) {
	where, args := buildListWhere(model.FileQuery{Category: "image", Search: "50%_off"}, 1)

	if !strings.Contains(where, "category = $1") {
		t.Errorf("where = %q, ожидалось 'category = $1'", where)
	}
	if !strings.Contains(where, "original_name ILIKE $2") {
		t.Errorf("where = %q, ожидалось 'original_name ILIKE $2'", where)
	}
	if !strings.Contains(where, "metadata->>'description' ILIKE $2") {
		t.Errorf("where = %q, ожидался поиск по описанию", where)
	}
	if len(args) != 2 {
		t.Fatalf("args count = %d, ожидалось 2", len(args))
	}
	if args[1] != `%50\%\_off%` {
		t.Errorf("args[1] = %v, ожидался экранированный шаблон", args[1])
	}
}

// TestBuildOrderBy проверяет whitelist сортировок.
func TestBuildOrderBy(t *testing.T) {
	tests := []struct {
		sort model.SortKey
		want string
	}{
		{model.SortNewest, "ORDER BY created_at DESC"},
		{model.SortOldest, "ORDER BY created_at ASC"},
		{model.SortName, `ORDER BY original_name COLLATE "C" ASC`},
		{model.SortSize, "ORDER BY size DESC"},
		{"; DROP TABLE files", "ORDER BY created_at DESC"},
	}
	for _, tt := range tests {
		got := buildOrderBy(tt.sort)
		if !strings.HasPrefix(got, tt.want) {
			t.Errorf("buildOrderBy(%q) = %q, ожидалось начало %q", tt.sort, got, tt.want)
		}
	}
}

// TestBuildActivityWhere проверяет фильтр по типу события.
func TestBuildActivityWhere(t *testing.T) {
	where, args := buildActivityWhere(model.ActivityQuery{})
	if where != "" || len(args) != 0 {
		t.Errorf("без фильтра: where = %q, args = %v", where, args)
	}

	where, args = buildActivityWhere(model.ActivityQuery{Type: "upload"})
	if where != "WHERE type = $1" || len(args) != 1 || args[0] != "upload" {
		t.Errorf("с фильтром: where = %q, args = %v", where, args)
	}
}

// TestIsUniqueViolation проверяет распознавание кода 23505.
func TestIsUniqueViolation(t *testing.T) {
	if !isUniqueViolation(&pgconn.PgError{Code: "23505"}) {
		t.Error("23505 должен распознаваться как нарушение уникальности")
	}
	if isUniqueViolation(&pgconn.PgError{Code: "23503"}) {
		t.Error("23503 не является нарушением уникальности")
	}
	if isUniqueViolation(errors.New("другая ошибка")) {
		t.Error("обычная ошибка не является нарушением уникальности")
	}
}

// --- Интеграционные тесты ---

// setupTestDB запускает PostgreSQL контейнер, применяет миграции.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("Пропуск интеграционного теста: TEST_INTEGRATION не установлена")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"docker.io/postgres:17-alpine",
		postgres.WithDatabase("dashboard_test"),
		postgres.WithUsername("dashboard"),
		postgres.WithPassword("test-password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("Не удалось запустить PostgreSQL контейнер: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Ошибка остановки контейнера: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Не удалось получить host контейнера: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Не удалось получить port контейнера: %v", err)
	}

	t.Setenv("DM_DB_HOST", host)
	t.Setenv("DM_DB_PORT", port.Port())
	t.Setenv("DM_DB_NAME", "dashboard_test")
	t.Setenv("DM_DB_USER", "dashboard")
	t.Setenv("DM_DB_PASSWORD", "test-password")
	t.Setenv("DM_DB_SSL_MODE", "disable")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if err := database.Migrate(cfg, logger); err != nil {
		t.Fatalf("Ошибка миграций: %v", err)
	}

	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		t.Fatalf("Ошибка подключения: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

// newFile создаёт тестовую запись файла.
func newFile(name string, size int64, cat category.Category, createdAt time.Time) *model.FileRecord {
	storageName := "1700000000000-" + uuid.NewString()[:9] + "-" + name
	return &model.FileRecord{
		ID:           uuid.NewString(),
		OriginalName: name,
		StorageName:  storageName,
		StoragePath:  "/uploads/" + storageName,
		MIMEType:     "application/octet-stream",
		Size:         size,
		Category:     cat,
		Metadata:     model.FileMetadata{Description: "desc " + name, Tags: []string{"tag-" + name}},
		CreatedAt:    createdAt,
	}
}

// TestFileRepository_Integration проверяет CRUD и выборки таблицы files.
func TestFileRepository_Integration(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewFileRepository(pool)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	a := newFile("alpha.png", 100, category.Image, base)
	a.Stats = &model.FileStats{ProcessingTime: 12.5, Accuracy: 100, ProcessedAt: base}
	b := newFile("beta.pdf", 300, category.Document, base.Add(time.Hour))
	c := newFile("gamma.png", 200, category.Image, base.Add(2*time.Hour))
	for _, f := range []*model.FileRecord{a, b, c} {
		if err := repo.Create(ctx, f); err != nil {
			t.Fatalf("Create(%s): %v", f.OriginalName, err)
		}
	}

	// Дубликат storage_name
	dup := newFile("dup.png", 1, category.Image, base)
	dup.StorageName = a.StorageName
	if err := repo.Create(ctx, dup); !errors.Is(err, ErrConflict) {
		t.Errorf("дубликат storage_name: ожидался ErrConflict, получено %v", err)
	}

	got, err := repo.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Stats == nil || got.Stats.Accuracy != 100 {
		t.Errorf("Stats = %+v, ожидалась accuracy 100", got.Stats)
	}
	if len(got.Metadata.Tags) != 1 || got.Metadata.Tags[0] != "tag-alpha.png" {
		t.Errorf("Metadata = %+v", got.Metadata)
	}

	recs, total, err := repo.List(ctx, model.FileQuery{Category: "image", Sort: model.SortSize}.Normalize())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 2 || recs[0].ID != c.ID {
		t.Errorf("List(image, size) total=%d первый=%s, ожидалось 2 и gamma", total, recs[0].OriginalName)
	}

	// Поиск по тегу
	_, total, err = repo.List(ctx, model.FileQuery{Search: "TAG-BETA"}.Normalize())
	if err != nil {
		t.Fatalf("List(search): %v", err)
	}
	if total != 1 {
		t.Errorf("поиск по тегу: total=%d, ожидалось 1", total)
	}

	// Мягкое удаление
	if err := repo.MarkDeleted(ctx, b.ID); err != nil {
		t.Fatalf("MarkDeleted: %v", err)
	}
	if err := repo.MarkDeleted(ctx, b.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("повторный MarkDeleted: ожидался ErrNotFound, получено %v", err)
	}
	if _, err := repo.GetByID(ctx, b.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID удалённой записи: ожидался ErrNotFound, получено %v", err)
	}
	if _, err := repo.GetByID(ctx, "not-a-uuid"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID не-UUID: ожидался ErrNotFound, получено %v", err)
	}

	active, err := repo.ListActive(ctx)
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(active) != 2 {
		t.Errorf("ListActive: %d записей, ожидалось 2", len(active))
	}
}

// TestActivityRepository_Integration проверяет журнал активности.
func TestActivityRepository_Integration(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewActivityRepository(pool)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	types := []model.ActivityType{model.ActivityUpload, model.ActivityUpload, model.ActivityDelete}
	for i, typ := range types {
		err := repo.Create(ctx, &model.ActivityRecord{
			ID:        uuid.NewString(),
			Type:      typ,
			FileName:  "f.txt",
			Status:    model.ActivitySuccess,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	recs, total, err := repo.List(ctx, model.ActivityQuery{}.Normalize())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 3 || recs[0].Type != model.ActivityDelete {
		t.Errorf("List: total=%d первый=%s, ожидалось 3 и delete", total, recs[0].Type)
	}

	counts, err := repo.CountByType(ctx)
	if err != nil {
		t.Fatalf("CountByType: %v", err)
	}
	if counts["upload"] != 2 || counts["delete"] != 1 {
		t.Errorf("CountByType = %v", counts)
	}

	n, err := repo.Clear(ctx)
	if err != nil || n != 3 {
		t.Errorf("Clear = %d, %v; ожидалось 3", n, err)
	}
}

// TestSnapshotRepository_Integration проверяет сохранение и выборку снимков.
func TestSnapshotRepository_Integration(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewSnapshotRepository(pool)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		err := repo.Create(ctx, &model.AnalyticsSnapshot{
			ID:             uuid.NewString(),
			Timestamp:      base.Add(time.Duration(i) * time.Hour),
			TotalFiles:     i,
			CategoryCounts: map[string]int{"image": i},
			CategorySizes:  map[string]int64{"image": int64(i * 10)},
			PeakUploadTime: "14:00",
		})
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	snaps, err := repo.ListRecent(ctx, 2)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(snaps) != 2 || snaps[0].TotalFiles != 2 {
		t.Errorf("ListRecent: %d снимков, первый totalFiles=%d", len(snaps), snaps[0].TotalFiles)
	}
	if snaps[0].CategorySizes["image"] != 20 {
		t.Errorf("CategorySizes = %v", snaps[0].CategorySizes)
	}
}
