// Package cache содержит пайплайн кеширования ответов медиатора и контракты,
// от которых он зависит: провайдер кеша и сериализатор ответов.
package cache

import "time"

// CacheType определяет, где запрос хочет кешировать ответ.
type CacheType int

const (
	// CacheTypeNone отключает кеширование.
	CacheTypeNone CacheType = iota
	// CacheTypeDistributed кеширует ответ в провайдере кеша.
	CacheTypeDistributed
)

// String возвращает имя типа кеша.
func (t CacheType) String() string {
	switch t {
	case CacheTypeNone:
		return "none"
	case CacheTypeDistributed:
		return "distributed"
	default:
		return "unknown"
	}
}

// Cacheable реализуется запросами, ответы на которые можно кешировать.
type Cacheable interface {
	// CacheKey возвращает ключ кеша. Пустая строка означает отсутствие ключа.
	CacheKey() string

	// CacheDuration возвращает время жизни записи.
	CacheDuration() time.Duration

	// CacheType возвращает тип кеширования.
	CacheType() CacheType

	// IsNoCache сообщает, что кеширование отключено для этого экземпляра запроса.
	IsNoCache() bool
}

// NoCacheFlag встраивается в запрос и реализует флаг отказа от кеширования.
// IsNoCache объявлен на значении, поэтому запрос, переданный по значению,
// по-прежнему удовлетворяет Cacheable.
type NoCacheFlag struct {
	noCache bool
}

// SetNoCache отключает кеширование для этого экземпляра запроса.
func (f *NoCacheFlag) SetNoCache() {
	f.noCache = true
}

// IsNoCache сообщает, отключено ли кеширование.
func (f NoCacheFlag) IsNoCache() bool {
	return f.noCache
}

// shouldCache решает, нужна ли попытка обращения к кешу.
func shouldCache(req any) (Cacheable, bool) {
	c, ok := req.(Cacheable)
	if !ok {
		return nil, false
	}
	if c.IsNoCache() || c.CacheType() == CacheTypeNone || c.CacheKey() == "" {
		return nil, false
	}
	return c, true
}
