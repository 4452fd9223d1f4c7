package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"aqi-prediction-service/internal/core/domain"
)

const defaultTTL = 5 * time.Minute

// Memory is an in-process LRU with per-entry expiry.
type Memory struct {
	lru *expirable.LRU[string, *domain.Reading]
}

func NewMemory(size int, ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Memory{lru: expirable.NewLRU[string, *domain.Reading](size, nil, ttl)}
}

func (m *Memory) Get(_ context.Context, key string) (*domain.Reading, bool, error) {
	r, ok := m.lru.Get(key)
	if !ok {
		return nil, false, nil
	}
	return clone(r), true, nil
}

func (m *Memory) Put(_ context.Context, key string, reading *domain.Reading) error {
	m.lru.Add(key, clone(reading))
	return nil
}

func (m *Memory) Len() int {
	return m.lru.Len()
}

func (m *Memory) Close() error {
	m.lru.Purge()
	return nil
}
