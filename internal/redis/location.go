package redis

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"

	"campuspark/internal/domain"
)

const spotLocationKey = "parking:spots:geo"

// SpotLocation is a spot found by a radius search.
type SpotLocation struct {
	SpotID     int64
	Lat        float64
	Lng        float64
	DistanceKm float64
}

// SpotLocationStore indexes spot coordinates with Redis GEO commands.
type SpotLocationStore struct {
	client *redis.Client
}

// NewSpotLocationStore creates a new SpotLocationStore.
func NewSpotLocationStore(client *redis.Client) *SpotLocationStore {
	return &SpotLocationStore{client: client}
}

// IndexSpots adds or updates the coordinates of spots.
func (s *SpotLocationStore) IndexSpots(ctx context.Context, spots ...domain.Spot) error {
	if len(spots) == 0 {
		return nil
	}

	locations := make([]*redis.GeoLocation, 0, len(spots))
	for _, sp := range spots {
		locations = append(locations, &redis.GeoLocation{
			Name:      strconv.FormatInt(sp.ID, 10),
			Longitude: sp.Longitude,
			Latitude:  sp.Latitude,
		})
	}
	return s.client.GeoAdd(ctx, spotLocationKey, locations...).Err()
}

// FindNearbySpots returns spots within radiusKm of (lat, lng), nearest first.
func (s *SpotLocationStore) FindNearbySpots(ctx context.Context, lat, lng, radiusKm float64) ([]SpotLocation, error) {
	results, err := s.client.GeoRadius(ctx, spotLocationKey, lng, lat, &redis.GeoRadiusQuery{
		Radius:    radiusKm,
		Unit:      "km",
		WithCoord: true,
		WithDist:  true,
		Sort:      "ASC",
	}).Result()
	if err != nil {
		return nil, err
	}

	locations := make([]SpotLocation, 0, len(results))
	for _, r := range results {
		id, err := strconv.ParseInt(r.Name, 10, 64)
		if err != nil {
			continue
		}
		locations = append(locations, SpotLocation{
			SpotID:     id,
			Lat:        r.Latitude,
			Lng:        r.Longitude,
			DistanceKm: r.Dist,
		})
	}

	return locations, nil
}

// RemoveSpot removes a spot from the geo index.
func (s *SpotLocationStore) RemoveSpot(ctx context.Context, spotID int64) error {
	return s.client.ZRem(ctx, spotLocationKey, strconv.FormatInt(spotID, 10)).Err()
}
