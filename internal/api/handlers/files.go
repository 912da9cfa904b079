// files.go — HTTP handlers файловых операций: Upload, List, Get, Delete.
package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	apierrors "github.com/bigkaa/goartstore/dashboard-module/internal/api/errors"
	"github.com/bigkaa/goartstore/dashboard-module/internal/domain/model"
	"github.com/bigkaa/goartstore/dashboard-module/internal/service"
)

// multipartMemory — объём multipart-формы в памяти, остальное во временных файлах.
const multipartMemory = 32 << 20

// defaultContentType — тип содержимого части без заголовка Content-Type.
const defaultContentType = "application/octet-stream"

// FileService — операции с файлами.
type FileService interface {
	Upload(ctx context.Context, inputs []service.UploadInput, md model.FileMetadata) ([]*model.FileRecord, error)
	List(ctx context.Context, q model.FileQuery) ([]*model.FileRecord, model.Pagination, error)
	Get(ctx context.Context, id string) (*model.FileRecord, error)
	Delete(ctx context.Context, id string) (*model.FileRecord, error)
}

// FilesHandler — обработчик файловых endpoints.
type FilesHandler struct {
	files FileService
	responder
}

// NewFilesHandler создаёт обработчик файловых endpoints.
func NewFilesHandler(files FileService, devMode bool, logger *slog.Logger) *FilesHandler {
	return &FilesHandler{
		files: files,
		responder: responder{
			devMode: devMode,
			logger:  logger.With(slog.String("component", "files_handler")),
		},
	}
}

// partialUpload — файлы пакета, сохранённые до ошибки.
type partialUpload struct {
	Uploaded []service.FileView `json:"uploaded"`
	Count    int                `json:"count"`
}

// listFilesParams — query-параметры GET /api/files.
type listFilesParams struct {
	Category *string
	Search   *string
	Sort     *string
	Page     *int
	Limit    *int
}

// bindListFilesParams привязывает query-параметры списка файлов.
func bindListFilesParams(r *http.Request) (listFilesParams, error) {
	var p listFilesParams
	query := r.URL.Query()
	for name, dest := range map[string]any{
		"category": &p.Category,
		"search":   &p.Search,
		"sort":     &p.Sort,
		"page":     &p.Page,
		"limit":    &p.Limit,
	} {
		if err := runtime.BindQueryParameter("form", true, false, name, query, dest); err != nil {
			return p, fmt.Errorf("%w: параметр %s: %v", service.ErrValidation, name, err)
		}
	}
	return p, nil
}

// UploadFiles обрабатывает POST /api/files/upload.
// Multipart form: files или file (один или несколько), metadata (опционально, JSON).
func (h *FilesHandler) UploadFiles(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		apierrors.ValidationError(w, fmt.Sprintf("Ошибка парсинга multipart: %s", err.Error()))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	md, err := service.ParseMetadata(r.FormValue("metadata"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	headers := make([]*multipart.FileHeader, 0, len(r.MultipartForm.File["files"])+len(r.MultipartForm.File["file"]))
	headers = append(headers, r.MultipartForm.File["files"]...)
	headers = append(headers, r.MultipartForm.File["file"]...)
	inputs := make([]service.UploadInput, 0, len(headers))
	opened := make([]multipart.File, 0, len(headers))
	defer func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}()

	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			apierrors.ValidationError(w, fmt.Sprintf("Не удалось прочитать файл %q", fh.Filename))
			return
		}
		opened = append(opened, f)

		contentType := fh.Header.Get("Content-Type")
		if contentType == "" {
			contentType = defaultContentType
		}
		inputs = append(inputs, service.UploadInput{
			Name:     fh.Filename,
			MIMEType: contentType,
			Size:     fh.Size,
			Content:  f,
		})
	}

	records, err := h.files.Upload(r.Context(), inputs, md)
	views := make([]service.FileView, 0, len(records))
	for _, rec := range records {
		views = append(views, service.NewFileView(rec))
	}
	if err != nil {
		if len(views) == 0 {
			h.fail(w, r, err)
			return
		}
		// Файлы до ошибочного уже сохранены
		h.failWithData(w, r, err, partialUpload{Uploaded: views, Count: len(views)})
		return
	}

	count := len(views)
	writeJSON(w, http.StatusCreated, envelope{
		Success: true,
		Message: fmt.Sprintf("Загружено файлов: %d", count),
		Data:    views,
		Count:   &count,
	})
}

// ListFiles обрабатывает GET /api/files.
// Фильтры: category, search. Сортировка: sort. Пагинация: page, limit.
func (h *FilesHandler) ListFiles(w http.ResponseWriter, r *http.Request) {
	params, err := bindListFilesParams(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	records, page, err := h.files.List(r.Context(), model.FileQuery{
		Category: stringValue(params.Category),
		Search:   stringValue(params.Search),
		Sort:     model.SortKey(stringValue(params.Sort)),
		Page:     intValue(params.Page),
		Limit:    intValue(params.Limit),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	views := make([]service.FileView, 0, len(records))
	for _, rec := range records {
		views = append(views, service.NewFileView(rec))
	}
	writePage(w, views, page)
}

// GetFile обрабатывает GET /api/files/{id}.
func (h *FilesHandler) GetFile(w http.ResponseWriter, r *http.Request) {
	rec, err := h.files.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, service.NewFileView(rec))
}

// DeleteFile обрабатывает DELETE /api/files/{id}.
func (h *FilesHandler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	if _, err := h.files.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: "Файл удалён"})
}
