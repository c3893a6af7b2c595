package redis

import (
	"context"
	"time"

	"campuspark/internal/domain"
)

// SpotStoreInterface defines the spot and hidden-spot operations of the local cache.
type SpotStoreInterface interface {
	GetSpots(ctx context.Context) ([]domain.Spot, error)
	SaveSpots(ctx context.Context, spots []domain.Spot) error
	GetHiddenSpots(ctx context.Context) (domain.HiddenSpotSet, error)
	ReplaceHiddenSpots(ctx context.Context, set domain.HiddenSpotSet) error
}

// VehicleStoreInterface defines the vehicle profile operations of the local cache.
type VehicleStoreInterface interface {
	GetVehicle(ctx context.Context) (*domain.Vehicle, error)
	SaveVehicle(ctx context.Context, v *domain.Vehicle) error
}

// BalanceStoreInterface defines the cached balance operations.
type BalanceStoreInterface interface {
	GetBalance(ctx context.Context) (float64, bool, error)
	SetBalance(ctx context.Context, balance float64) error
}

// LocationStoreInterface defines the interface for spot location operations.
type LocationStoreInterface interface {
	IndexSpots(ctx context.Context, spots ...domain.Spot) error
	FindNearbySpots(ctx context.Context, lat, lng, radiusKm float64) ([]SpotLocation, error)
}

// LockStoreInterface defines the interface for distributed locking.
type LockStoreInterface interface {
	AcquireBalanceLock(ctx context.Context, userID int, ttl time.Duration) (bool, error)
	ReleaseBalanceLock(ctx context.Context, userID int) error
}

// Ensure concrete types implement interfaces.
var (
	_ SpotStoreInterface     = (*CacheStore)(nil)
	_ VehicleStoreInterface  = (*CacheStore)(nil)
	_ BalanceStoreInterface  = (*CacheStore)(nil)
	_ LocationStoreInterface = (*SpotLocationStore)(nil)
	_ LockStoreInterface     = (*LockStore)(nil)
)
