// Package cache stores recent upstream readings so repeated live predictions
// for the same location do not hit the upstream API.
package cache

import (
	"fmt"

	"aqi-prediction-service/internal/config"
	"aqi-prediction-service/internal/core/domain"
	ports "aqi-prediction-service/internal/core/ports/output"
)

// Store is a ReadingCache that owns resources.
type Store interface {
	ports.ReadingCache
	Close() error
}

// New builds the store selected by cfg.Backend. The "none" backend returns
// a nil Store.
func New(cfg *config.CacheConfig) (Store, error) {
	switch cfg.Backend {
	case config.CacheBackendNone:
		return nil, nil
	case config.CacheBackendMemory:
		return NewMemory(cfg.Size, cfg.TTL), nil
	case config.CacheBackendRedis:
		store, err := NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.TTL)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

func clone(r *domain.Reading) *domain.Reading {
	if r == nil {
		return nil
	}
	out := *r
	out.Values = make(map[string]float64, len(r.Values))
	for k, v := range r.Values {
		out.Values[k] = v
	}
	return &out
}
