package dirscan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/bigkaa/goartstore/dashboard-module/internal/domain/category"
	"github.com/bigkaa/goartstore/dashboard-module/internal/domain/model"
	"github.com/bigkaa/goartstore/dashboard-module/internal/storage"
	"github.com/bigkaa/goartstore/dashboard-module/internal/storage/filestore"
)

// newTestStore создаёт Store во временной директории.
func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	fs, err := filestore.New(dir)
	if err != nil {
		t.Fatalf("ошибка создания FileStore: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(fs, logger), dir
}

// writeFile создаёт файл заданного размера с заданным mtime.
func writeFile(t *testing.T, dir, name string, size int, mtime time.Time) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, make([]byte, size), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatal(err)
	}
}

// TestGet_ReconstructsRecord проверяет восстановление записи из имени файла.
func TestGet_ReconstructsRecord(t *testing.T) {
	s, dir := newTestStore(t)
	mtime := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	name := "1700000000000-abc123xyz-report.pdf"
	writeFile(t, dir, name, 2048, mtime)

	rec, err := s.Get(context.Background(), name)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.ID != name {
		t.Errorf("ID = %q, ожидалось имя файла", rec.ID)
	}
	if rec.OriginalName != "report.pdf" {
		t.Errorf("OriginalName = %q, ожидалось report.pdf", rec.OriginalName)
	}
	if rec.MIMEType != "application/pdf" || rec.Category != category.Document {
		t.Errorf("MIME/категория = %s/%s, ожидалось application/pdf/document", rec.MIMEType, rec.Category)
	}
	if rec.Size != 2048 {
		t.Errorf("Size = %d, ожидалось 2048", rec.Size)
	}
	if !rec.CreatedAt.Equal(mtime) {
		t.Errorf("CreatedAt = %v, ожидалось %v", rec.CreatedAt, mtime)
	}
}

// TestGet_UnknownExtensionSniffed проверяет определение типа по содержимому.
func TestGet_UnknownExtensionSniffed(t *testing.T) {
	s, dir := newTestStore(t)
	name := "1700000000000-abc123xyz-blob.dat"
	png := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}
	if err := os.WriteFile(filepath.Join(dir, name), png, 0o600); err != nil {
		t.Fatal(err)
	}

	rec, err := s.Get(context.Background(), name)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.MIMEType != "image/png" || rec.Category != category.Image {
		t.Errorf("MIME/категория = %s/%s, ожидалось image/png/image", rec.MIMEType, rec.Category)
	}
}

// TestGet_OggIsAudio проверяет, что .ogg относится к аудио, как и при загрузке audio/ogg.
func TestGet_OggIsAudio(t *testing.T) {
	s, dir := newTestStore(t)
	name := "1700000000000-abc123xyz-song.ogg"
	writeFile(t, dir, name, 16, time.Now())

	rec, err := s.Get(context.Background(), name)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.MIMEType != "audio/ogg" || rec.Category != category.Audio {
		t.Errorf("MIME/категория = %s/%s, ожидалось audio/ogg/audio", rec.MIMEType, rec.Category)
	}
	if want := category.Of("audio/ogg"); rec.Category != want {
		t.Errorf("категория %s расходится с загрузкой (%s)", rec.Category, want)
	}
}

// TestGet_ExactMatchOnly проверяет, что поиск идёт только по точному имени.
func TestGet_ExactMatchOnly(t *testing.T) {
	s, dir := newTestStore(t)
	writeFile(t, dir, "1700000000000-abc123xyz-report.pdf", 1, time.Now())

	_, err := s.Get(context.Background(), "report.pdf")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("ожидался storage.ErrNotFound, получено %v", err)
	}
}

// TestList_Pagination проверяет разбиение 25 записей по 12.
func TestList_Pagination(t *testing.T) {
	s, dir := newTestStore(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 25; i++ {
		writeFile(t, dir, fmt.Sprintf("17000000000%02d-abc123xyz-f%02d.txt", i, i), 10, base.Add(time.Duration(i)*time.Minute))
	}

	want := []int{12, 12, 1}
	for page, n := range want {
		recs, total, err := s.List(context.Background(), model.FileQuery{Page: page + 1, Limit: 12})
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if total != 25 {
			t.Errorf("total = %d, ожидалось 25", total)
		}
		if len(recs) != n {
			t.Errorf("страница %d: %d записей, ожидалось %d", page+1, len(recs), n)
		}
	}

	recs, _, _ := s.List(context.Background(), model.FileQuery{Page: 4, Limit: 12})
	if len(recs) != 0 {
		t.Errorf("страница за пределами: %d записей, ожидалось 0", len(recs))
	}
}

// TestList_SortAndFilter проверяет сортировки, категорию и поиск.
func TestList_SortAndFilter(t *testing.T) {
	s, dir := newTestStore(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	writeFile(t, dir, "1700000000001-aaaaaaaaa-beta.png", 300, base.Add(1*time.Hour))
	writeFile(t, dir, "1700000000002-bbbbbbbbb-Alpha.pdf", 100, base.Add(2*time.Hour))
	writeFile(t, dir, "1700000000003-ccccccccc-alpha.mp3", 200, base.Add(3*time.Hour))

	ctx := context.Background()
	names := func(recs []*model.FileRecord) []string {
		out := make([]string, 0, len(recs))
		for _, r := range recs {
			out = append(out, r.OriginalName)
		}
		return out
	}

	tests := []struct {
		name  string
		query model.FileQuery
		want  []string
	}{
		{"newest по умолчанию", model.FileQuery{}, []string{"alpha.mp3", "Alpha.pdf", "beta.png"}},
		{"oldest", model.FileQuery{Sort: model.SortOldest}, []string{"beta.png", "Alpha.pdf", "alpha.mp3"}},
		{"name побайтово", model.FileQuery{Sort: model.SortName}, []string{"Alpha.pdf", "alpha.mp3", "beta.png"}},
		{"size по убыванию", model.FileQuery{Sort: model.SortSize}, []string{"beta.png", "alpha.mp3", "Alpha.pdf"}},
		{"категория", model.FileQuery{Category: "image"}, []string{"beta.png"}},
		{"категория all", model.FileQuery{Category: "all", Sort: model.SortName}, []string{"Alpha.pdf", "alpha.mp3", "beta.png"}},
		{"поиск без учёта регистра", model.FileQuery{Search: "ALPHA", Sort: model.SortName}, []string{"Alpha.pdf", "alpha.mp3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs, total, err := s.List(ctx, tt.query)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			got := names(recs)
			if total != len(tt.want) || fmt.Sprint(got) != fmt.Sprint(tt.want) {
				t.Errorf("получено %v (total %d), ожидалось %v", got, total, tt.want)
			}
		})
	}
}

// TestList_MissingDirectory проверяет пустой результат при отсутствии директории.
func TestList_MissingDirectory(t *testing.T) {
	s, dir := newTestStore(t)
	if err := os.RemoveAll(dir); err != nil {
		t.Fatal(err)
	}

	recs, total, err := s.List(context.Background(), model.FileQuery{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 0 || len(recs) != 0 {
		t.Errorf("ожидался пустой результат, получено %d/%d", len(recs), total)
	}
}

// TestCreate_SynthesizesID проверяет, что запись получает случайный UUID.
func TestCreate_SynthesizesID(t *testing.T) {
	s, _ := newTestStore(t)

	rec, err := s.Create(context.Background(), &model.FileRecord{StorageName: "x"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := uuid.Parse(rec.ID); err != nil {
		t.Errorf("ID = %q не является UUID: %v", rec.ID, err)
	}
	if rec.CreatedAt.IsZero() {
		t.Error("CreatedAt не заполнен")
	}
}

// TestDelete проверяет удаление и not-found.
func TestDelete(t *testing.T) {
	s, dir := newTestStore(t)
	name := "1700000000000-abc123xyz-report.pdf"
	writeFile(t, dir, name, 1, time.Now())
	ctx := context.Background()

	rec, err := s.Delete(ctx, name)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if rec.OriginalName != "report.pdf" {
		t.Errorf("OriginalName = %q", rec.OriginalName)
	}
	if _, err := os.Stat(filepath.Join(dir, name)); !os.IsNotExist(err) {
		t.Error("файл не удалён с диска")
	}

	if _, err := s.Delete(ctx, name); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("повторное удаление: ожидался ErrNotFound, получено %v", err)
	}
}
