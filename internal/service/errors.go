// errors.go — ошибки бизнес-логики сервисного слоя.
package service

import "errors"

var (
	// ErrNotFound — ресурс не найден.
	ErrNotFound = errors.New("ресурс не найден")
	// ErrConflict — конфликт (дублирующийся ресурс).
	ErrConflict = errors.New("конфликт — ресурс уже существует")
	// ErrValidation — ошибка валидации входных данных.
	ErrValidation = errors.New("ошибка валидации")
	// ErrUnavailable — операция требует PostgreSQL, а он недоступен.
	ErrUnavailable = errors.New("база данных недоступна")
	// ErrInProgress — сверка уже выполняется.
	ErrInProgress = errors.New("операция уже выполняется")
)
