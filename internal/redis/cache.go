package redis

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/redis/go-redis/v9"

	"campuspark/internal/domain"
)

// Key names of the local cache.
const (
	spotsKey       = "parking:spots:v3"
	hiddenSpotsKey = "parking:hidden_spots:v1"
	balanceKey     = "parking:user_balance"
	vehicleKey     = "parking:vehicle_data"
)

// CacheStore is the local cache of spots, hidden spots, balance and the
// vehicle profile. Missing keys are reported as absent, not as errors.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// GetSpots returns the stored spot list, or nil if none is stored.
func (s *CacheStore) GetSpots(ctx context.Context) ([]domain.Spot, error) {
	data, err := s.client.Get(ctx, spotsKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var spots []domain.Spot
	if err := json.Unmarshal(data, &spots); err != nil {
		return nil, err
	}
	return spots, nil
}

// SaveSpots replaces the stored spot list.
func (s *CacheStore) SaveSpots(ctx context.Context, spots []domain.Spot) error {
	data, err := json.Marshal(spots)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, spotsKey, data, 0).Err()
}

// GetHiddenSpots returns the hidden-spot set.
func (s *CacheStore) GetHiddenSpots(ctx context.Context) (domain.HiddenSpotSet, error) {
	members, err := s.client.SMembers(ctx, hiddenSpotsKey).Result()
	if err != nil {
		return nil, err
	}

	set := domain.NewHiddenSpotSet()
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			// Skip entries written by older clients.
			continue
		}
		set.Add(id)
	}
	return set, nil
}

// ReplaceHiddenSpots atomically replaces the hidden-spot set.
func (s *CacheStore) ReplaceHiddenSpots(ctx context.Context, set domain.HiddenSpotSet) error {
	ids := set.IDs()
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, hiddenSpotsKey)
		if len(ids) > 0 {
			members := make([]interface{}, 0, len(ids))
			for _, id := range ids {
				members = append(members, strconv.FormatInt(id, 10))
			}
			pipe.SAdd(ctx, hiddenSpotsKey, members...)
		}
		return nil
	})
	return err
}

// GetBalance returns the cached balance and whether one is stored.
func (s *CacheStore) GetBalance(ctx context.Context) (float64, bool, error) {
	v, err := s.client.Get(ctx, balanceKey).Float64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return v, true, nil
}

// SetBalance stores the balance as a decimal string.
func (s *CacheStore) SetBalance(ctx context.Context, balance float64) error {
	return s.client.Set(ctx, balanceKey, strconv.FormatFloat(balance, 'f', 2, 64), 0).Err()
}

// GetVehicle returns the stored vehicle profile, or nil if none is stored.
func (s *CacheStore) GetVehicle(ctx context.Context) (*domain.Vehicle, error) {
	data, err := s.client.Get(ctx, vehicleKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // Cache miss
		}
		return nil, err
	}

	var v domain.Vehicle
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// SaveVehicle stores the vehicle profile.
func (s *CacheStore) SaveVehicle(ctx context.Context, v *domain.Vehicle) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, vehicleKey, data, 0).Err()
}
