package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// CacheService - in-memory кэш с TTL и сбросом по префиксу. Хранит сводки.
type CacheService struct {
	mu    sync.RWMutex
	cache map[string]*cacheEntry
	stop  chan struct{}
	once  sync.Once
}

type cacheEntry struct {
	data      interface{}
	expiresAt time.Time
}

// NewCacheService создаёт кэш и запускает фоновую очистку просроченных записей.
func NewCacheService(cleanupInterval time.Duration) *CacheService {
	cs := &CacheService{
		cache: make(map[string]*cacheEntry),
		stop:  make(chan struct{}),
	}
	if cleanupInterval > 0 {
		go cs.cleanup(cleanupInterval)
	}
	return cs
}

// Get возвращает значение, если оно есть и не просрочено.
func (cs *CacheService) Get(key string) (interface{}, bool) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	entry, exists := cs.cache[key]
	if !exists || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.data, true
}

// Set сохраняет значение на ttl.
func (cs *CacheService) Set(key string, value interface{}, ttl time.Duration) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	cs.cache[key] = &cacheEntry{
		data:      value,
		expiresAt: time.Now().Add(ttl),
	}
}

// Delete удаляет ключ.
func (cs *CacheService) Delete(key string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	delete(cs.cache, key)
}

// InvalidateByPrefix удаляет все ключи с префиксом.
func (cs *CacheService) InvalidateByPrefix(prefix string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	for key := range cs.cache {
		if strings.HasPrefix(key, prefix) {
			delete(cs.cache, key)
		}
	}
}

// InvalidateSummaries сбрасывает сводки указанных пользователей и сводку администратора.
func (cs *CacheService) InvalidateSummaries(userIDs ...uuid.UUID) {
	cs.Delete(AdminSummaryCacheKey())
	for _, id := range userIDs {
		cs.InvalidateByPrefix(summaryPrefix + id.String() + ":")
	}
}

// InvalidateAllSummaries сбрасывает все сводки. Используется при каскадном удалении услуги.
func (cs *CacheService) InvalidateAllSummaries() {
	cs.InvalidateByPrefix(summaryPrefix)
	cs.Delete(AdminSummaryCacheKey())
}

// Close останавливает фоновую очистку.
func (cs *CacheService) Close() {
	cs.once.Do(func() { close(cs.stop) })
}

func (cs *CacheService) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-cs.stop:
			return
		case <-ticker.C:
			cs.mu.Lock()
			now := time.Now()
			for key, entry := range cs.cache {
				if now.After(entry.expiresAt) {
					delete(cs.cache, key)
				}
			}
			cs.mu.Unlock()
		}
	}
}

const summaryPrefix = "summary:"

// Генераторы ключей
func AdminSummaryCacheKey() string {
	return "admin_summary"
}

func SummaryCacheKey(userID uuid.UUID, role string) string {
	return summaryPrefix + userID.String() + ":" + role
}

// GetOrSet возвращает значение из кэша или вычисляет и сохраняет его.
func (cs *CacheService) GetOrSet(
	ctx context.Context,
	key string,
	ttl time.Duration,
	fn func(ctx context.Context) (interface{}, error),
) (interface{}, error) {
	if value, found := cs.Get(key); found {
		return value, nil
	}

	value, err := fn(ctx)
	if err != nil {
		return nil, err
	}

	cs.Set(key, value, ttl)
	return value, nil
}
