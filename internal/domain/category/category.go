// Пакет category — классификация файлов по MIME-типу.
// Статическая таблица из 40 известных MIME-типов, сгруппированных
// в семь категорий. Неизвестный тип даёт категорию unknown и расширение bin.
package category

import (
	"strings"
)

// Category — семантическая категория файла.
type Category string

// Допустимые категории.
const (
	Image    Category = "image"
	Video    Category = "video"
	Audio    Category = "audio"
	Document Category = "document"
	JSON     Category = "json"
	Code     Category = "code"
	Archive  Category = "archive"
	Unknown  Category = "unknown"
)

// All — sentinel фильтра "все категории".
const All = "all"

// FallbackExtension — расширение для неизвестных MIME-типов.
const FallbackExtension = "bin"

// Result — результат классификации MIME-типа.
type Result struct {
	Category  Category
	Extension string
}

// entry — строка таблицы классификации.
type entry struct {
	mimeType  string
	category  Category
	extension string
}

// table — таблица известных MIME-типов. Порядок важен для ByExtension:
// при совпадении расширения побеждает первая запись.
var table = []entry{
	{"image/jpeg", Image, "jpg"},
	{"image/png", Image, "png"},
	{"image/gif", Image, "gif"},
	{"image/webp", Image, "webp"},
	{"image/svg+xml", Image, "svg"},
	{"image/bmp", Image, "bmp"},
	{"image/tiff", Image, "tiff"},
	{"image/x-icon", Image, "ico"},
	{"video/mp4", Video, "mp4"},
	{"video/mpeg", Video, "mpeg"},
	{"video/webm", Video, "webm"},
	{"video/ogg", Video, "ogg"},
	{"video/quicktime", Video, "mov"},
	{"video/x-msvideo", Video, "avi"},
	{"video/x-matroska", Video, "mkv"},
	{"audio/mpeg", Audio, "mp3"},
	{"audio/wav", Audio, "wav"},
	{"audio/ogg", Audio, "ogg"},
	{"audio/flac", Audio, "flac"},
	{"audio/aac", Audio, "aac"},
	{"audio/webm", Audio, "weba"},
	{"application/pdf", Document, "pdf"},
	{"text/plain", Document, "txt"},
	{"application/msword", Document, "doc"},
	{"application/vnd.openxmlformats-officedocument.wordprocessingml.document", Document, "docx"},
	{"application/vnd.ms-excel", Document, "xls"},
	{"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", Document, "xlsx"},
	{"text/csv", Document, "csv"},
	{"application/json", JSON, "json"},
	{"text/javascript", Code, "js"},
	{"text/css", Code, "css"},
	{"text/html", Code, "html"},
	{"application/xml", Code, "xml"},
	{"text/xml", Code, "xml"},
	{"text/x-python", Code, "py"},
	{"text/x-java", Code, "java"},
	{"application/zip", Archive, "zip"},
	{"application/x-rar-compressed", Archive, "rar"},
	{"application/x-7z-compressed", Archive, "7z"},
	{"application/gzip", Archive, "gz"},
}

// byMIME и byExtension — индексы таблицы, строятся при инициализации пакета.
var (
	byMIME      = make(map[string]entry, len(table))
	byExtension = make(map[string]string, len(table))
)

// extensionOverrides — MIME-тип для расширений, которые встречаются
// в таблице несколько раз. Для остальных побеждает первая запись.
var extensionOverrides = map[string]string{
	"ogg": "audio/ogg",
}

func init() {
	for _, e := range table {
		byMIME[e.mimeType] = e
		if _, exists := byExtension[e.extension]; !exists {
			byExtension[e.extension] = e.mimeType
		}
	}
	for ext, mimeType := range extensionOverrides {
		byExtension[ext] = mimeType
	}
}

// Classify возвращает категорию и каноническое расширение для MIME-типа.
// Регистр и параметры (";charset=utf-8") игнорируются.
// Для неизвестного типа — Unknown и FallbackExtension.
func Classify(mimeType string) Result {
	if e, ok := byMIME[normalize(mimeType)]; ok {
		return Result{Category: e.category, Extension: e.extension}
	}
	return Result{Category: Unknown, Extension: FallbackExtension}
}

// Of — сокращение для Classify(mimeType).Category.
func Of(mimeType string) Category {
	return Classify(mimeType).Category
}

// IsAllowed сообщает, есть ли MIME-тип в таблице (фильтр загрузки).
func IsAllowed(mimeType string) bool {
	_, ok := byMIME[normalize(mimeType)]
	return ok
}

// ByExtension возвращает MIME-тип по расширению файла (с точкой или без).
// Второе значение — false, если расширение не известно таблице.
func ByExtension(ext string) (string, bool) {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	mimeType, ok := byExtension[ext]
	return mimeType, ok
}

// Categories возвращает семь фиксированных категорий в порядке отображения.
func Categories() []Category {
	return []Category{Image, Video, Audio, Document, JSON, Code, Archive}
}

// Valid сообщает, является ли строка одной из категорий (включая unknown).
func Valid(s string) bool {
	switch Category(s) {
	case Image, Video, Audio, Document, JSON, Code, Archive, Unknown:
		return true
	}
	return false
}

// normalize приводит MIME-тип к виду ключа таблицы.
func normalize(mimeType string) string {
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}
