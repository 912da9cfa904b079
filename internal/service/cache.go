// CacheService — LRU-кэш записей о файлах с TTL.
// Обёртка над hashicorp/golang-lru/v2/expirable.
package service

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/goartstore/dashboard-module/internal/domain/model"
)

// Prometheus-метрики кэша.
var (
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dm_cache_hits_total",
		Help: "Общее количество попаданий в LRU-кэш записей о файлах.",
	})
	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dm_cache_misses_total",
		Help: "Общее количество промахов LRU-кэша записей о файлах.",
	})
)

// CacheService — LRU-кэш записей о файлах с автоматическим TTL.
//
// Ключ — UUID записи в PostgreSQL. FileService читает и заполняет кэш
// только пока выбран режим PostgreSQL; в деградированном режиме Get идёт
// мимо кэша, так как идентификатором там служит имя файла на диске.
// Delete снимает запись из кэша в любом режиме. Файл, удалённый с диска
// в деградированном режиме, остаётся активной записью в PostgreSQL, поэтому
// после восстановления базы кэш может отдавать её до истечения TTL;
// расхождение записи и диска показывает сверка (missing_file).
type CacheService struct {
	cache *expirable.LRU[string, *model.FileRecord]
}

// NewCacheService создаёт LRU-кэш с указанным максимальным размером и TTL.
func NewCacheService(maxSize int, ttl time.Duration) *CacheService {
	cache := expirable.NewLRU[string, *model.FileRecord](maxSize, nil, ttl)
	return &CacheService{cache: cache}
}

// Get возвращает запись из кэша по идентификатору.
// Обновляет Prometheus-метрики hit/miss.
func (c *CacheService) Get(id string) (*model.FileRecord, bool) {
	val, ok := c.cache.Get(id)
	if ok {
		cacheHitsTotal.Inc()
		return val, true
	}
	cacheMissesTotal.Inc()
	return nil, false
}

// Set добавляет или обновляет запись в кэше.
func (c *CacheService) Set(id string, record *model.FileRecord) {
	c.cache.Add(id, record)
}

// Delete удаляет запись из кэша.
func (c *CacheService) Delete(id string) {
	c.cache.Remove(id)
}
