package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Provider определяет контракт хранилища "ключ-значение", в которое пайплайн
// кеширования складывает сериализованные ответы. Истечение срока жизни записей
// целиком на стороне провайдера.
type Provider interface {
	// Add сохраняет значение по ключу. expires <= 0 означает бессрочное хранение.
	Add(ctx context.Context, key string, value []byte, expires time.Duration) error

	// Get возвращает значение и признак его наличия.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)

	// Exist сообщает, есть ли значение по ключу.
	Exist(ctx context.Context, key string) (bool, error)

	// Delete удаляет значение по ключу.
	Delete(ctx context.Context, key string) error

	// CheckConnection сообщает, доступно ли хранилище.
	CheckConnection(ctx context.Context) bool
}

// MemoryProvider - внутрипроцессный провайдер на основе go-cache.
type MemoryProvider struct {
	store *gocache.Cache
}

// NewMemoryProvider создает провайдер, очищающий просроченные записи
// с интервалом cleanupInterval.
func NewMemoryProvider(cleanupInterval time.Duration) *MemoryProvider {
	return &MemoryProvider{
		store: gocache.New(gocache.NoExpiration, cleanupInterval),
	}
}

// Add сохраняет копию значения.
func (p *MemoryProvider) Add(_ context.Context, key string, value []byte, expires time.Duration) error {
	if expires <= 0 {
		expires = gocache.NoExpiration
	}
	p.store.Set(key, append([]byte(nil), value...), expires)
	return nil
}

// Get возвращает копию значения.
func (p *MemoryProvider) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := p.store.Get(key)
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v.([]byte)...), true, nil
}

// Exist сообщает, есть ли непросроченная запись.
func (p *MemoryProvider) Exist(_ context.Context, key string) (bool, error) {
	_, ok := p.store.Get(key)
	return ok, nil
}

// Delete удаляет запись.
func (p *MemoryProvider) Delete(_ context.Context, key string) error {
	p.store.Delete(key)
	return nil
}

// CheckConnection всегда возвращает true.
func (p *MemoryProvider) CheckConnection(context.Context) bool {
	return true
}
