package service

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"campuspark/internal/domain"
	"campuspark/internal/redis"
)

// VehicleService manages the vehicle profile.
type VehicleService struct {
	store redis.VehicleStoreInterface
	log   *logrus.Entry
}

// NewVehicleService creates a new VehicleService.
func NewVehicleService(store redis.VehicleStoreInterface, log *logrus.Entry) *VehicleService {
	return &VehicleService{store: store, log: log}
}

// Get returns the stored profile, storing the sample profile on first use.
func (s *VehicleService) Get(ctx context.Context) (*domain.Vehicle, error) {
	v, err := s.store.GetVehicle(ctx)
	if err != nil {
		return nil, err
	}
	if v != nil {
		return v, nil
	}

	sample := domain.SampleVehicle()
	if err := s.store.SaveVehicle(ctx, &sample); err != nil {
		s.log.WithError(err).Warn("failed to store sample vehicle")
	}
	return &sample, nil
}

// Save validates and stores the profile. Plate and model are required.
func (s *VehicleService) Save(ctx context.Context, v domain.Vehicle) (*domain.Vehicle, error) {
	v.Plate = strings.ToUpper(strings.TrimSpace(v.Plate))
	v.Model = strings.TrimSpace(v.Model)
	v.Color = strings.TrimSpace(v.Color)
	if v.Plate == "" || v.Model == "" {
		return nil, ErrVehicleIncomplete
	}

	if v.VehicleID == "" {
		current, err := s.store.GetVehicle(ctx)
		if err != nil {
			return nil, err
		}
		if current != nil {
			v.VehicleID = current.VehicleID
		} else {
			v.VehicleID = domain.SampleVehicle().VehicleID
		}
	}

	if err := s.store.SaveVehicle(ctx, &v); err != nil {
		return nil, err
	}
	return &v, nil
}
