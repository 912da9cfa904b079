package model

import "testing"

// TestNewPagination проверяет вычисление количества страниц.
func TestNewPagination(t *testing.T) {
	tests := []struct {
		name  string
		total int
		limit int
		pages int
	}{
		{name: "пусто", total: 0, limit: 12, pages: 0},
		{name: "меньше страницы", total: 5, limit: 12, pages: 1},
		{name: "ровно страница", total: 12, limit: 12, pages: 1},
		{name: "25 по 12", total: 25, limit: 12, pages: 3},
		{name: "нулевой limit", total: 10, limit: 0, pages: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPagination(tt.total, 1, tt.limit)
			if p.Pages != tt.pages {
				t.Errorf("Pages = %d, ожидалось %d", p.Pages, tt.pages)
			}
		})
	}
}

// TestFileQuery_Normalize проверяет значения по умолчанию и ограничения.
func TestFileQuery_Normalize(t *testing.T) {
	q := FileQuery{Page: 0, Limit: 0, Sort: "bogus"}.Normalize()
	if q.Page != 1 || q.Limit != DefaultFileLimit || q.Sort != SortNewest {
		t.Errorf("Normalize() = %+v, ожидались page=1 limit=12 sort=newest", q)
	}

	q = FileQuery{Page: 3, Limit: 1000, Sort: SortSize}.Normalize()
	if q.Limit != MaxLimit || q.Sort != SortSize {
		t.Errorf("Normalize() = %+v, ожидались limit=%d sort=size", q, MaxLimit)
	}
	if q.Offset() != 2*MaxLimit {
		t.Errorf("Offset() = %d, ожидался %d", q.Offset(), 2*MaxLimit)
	}
}

// TestFileQuery_HasCategory проверяет sentinel "all".
func TestFileQuery_HasCategory(t *testing.T) {
	if (FileQuery{}).HasCategory() {
		t.Error("пустая категория не должна фильтровать")
	}
	if (FileQuery{Category: "all"}).HasCategory() {
		t.Error("категория all не должна фильтровать")
	}
	if !(FileQuery{Category: "image"}).HasCategory() {
		t.Error("категория image должна фильтровать")
	}
}

// TestActivityQuery_Normalize проверяет лимит журнала по умолчанию.
func TestActivityQuery_Normalize(t *testing.T) {
	q := ActivityQuery{}.Normalize()
	if q.Page != 1 || q.Limit != DefaultActivityLimit {
		t.Errorf("Normalize() = %+v, ожидались page=1 limit=10", q)
	}
	if !ValidActivityType("upload") || ValidActivityType("rename") {
		t.Error("ValidActivityType работает некорректно")
	}
}
