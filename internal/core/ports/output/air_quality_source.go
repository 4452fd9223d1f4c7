package ports

import (
	"context"

	"aqi-prediction-service/internal/core/domain"
)

// AirQualitySource fetches the latest upstream readings for a location.
// Values are keyed by feature name; features the source cannot provide are absent.
type AirQualitySource interface {
	Latest(ctx context.Context, loc domain.Location) (*domain.Reading, error)
}

// ReadingCache holds recent readings per location key.
type ReadingCache interface {
	Get(ctx context.Context, key string) (*domain.Reading, bool, error)
	Put(ctx context.Context, key string, reading *domain.Reading) error
}
