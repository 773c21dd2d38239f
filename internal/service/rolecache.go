// rolecache.go — кэш действующих ролей пользователей для авторизации.
// Обёртка над hashicorp/golang-lru/v2/expirable: роль перечитывается из БД
// не чаще раза в TTL, поэтому смена роли применяется без повторного входа.
package service

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus-метрики кэша ролей.
var (
	roleCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tasktracker_role_cache_hits_total",
		Help: "Общее количество попаданий в кэш ролей.",
	})
	roleCacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tasktracker_role_cache_misses_total",
		Help: "Общее количество промахов кэша ролей.",
	})
)

// RoleResolver возвращает текущую роль пользователя (реализуется AuthService).
type RoleResolver interface {
	RoleOf(ctx context.Context, userID int64) (string, error)
}

// RoleCache — LRU-кэш user id → имя роли с TTL.
// При ttl == 0 кэш отключён и каждый запрос идёт в источник.
type RoleCache struct {
	source RoleResolver
	cache  *expirable.LRU[int64, string]
}

// NewRoleCache создаёт кэш ролей поверх source.
func NewRoleCache(source RoleResolver, maxSize int, ttl time.Duration) *RoleCache {
	c := &RoleCache{source: source}
	if ttl > 0 {
		c.cache = expirable.NewLRU[int64, string](maxSize, nil, ttl)
	}
	return c
}

// RoleOf возвращает роль из кэша либо из источника. Ошибки источника
// не кэшируются.
func (c *RoleCache) RoleOf(ctx context.Context, userID int64) (string, error) {
	if c.cache != nil {
		if role, ok := c.cache.Get(userID); ok {
			roleCacheHitsTotal.Inc()
			return role, nil
		}
		roleCacheMissesTotal.Inc()
	}

	role, err := c.source.RoleOf(ctx, userID)
	if err != nil {
		return "", err
	}
	if c.cache != nil {
		c.cache.Add(userID, role)
	}
	return role, nil
}

// Invalidate удаляет роль пользователя из кэша.
func (c *RoleCache) Invalidate(userID int64) {
	if c.cache != nil {
		c.cache.Remove(userID)
	}
}

// Purge очищает кэш (переименование или удаление роли затрагивает
// всех её пользователей).
func (c *RoleCache) Purge() {
	if c.cache != nil {
		c.cache.Purge()
	}
}
