package service

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"tenant-portal-backend/internal/domain"
	"tenant-portal-backend/internal/logger"
	"tenant-portal-backend/internal/repository"
)

type houseService struct {
	houseRepo repository.HouseRepository
}

func NewHouseService(houseRepo repository.HouseRepository) HouseService {
	return &houseService{houseRepo: houseRepo}
}

func (s *houseService) CreateHouse(ctx context.Context, principal domain.Principal, houseNo string, price decimal.Decimal) (*domain.House, error) {
	logger.EnterMethod("houseService.CreateHouse", "adminID", principal.UserID, "houseNo", houseNo)

	if err := requireAdmin(principal); err != nil {
		return nil, err
	}

	houseNo = strings.TrimSpace(houseNo)
	if err := validateHouse(houseNo, price); err != nil {
		return nil, err
	}

	house := &domain.House{
		HouseNo:      houseNo,
		Price:        price.Round(2),
		Availability: domain.HouseAvailable,
	}
	if err := s.houseRepo.Create(ctx, house); err != nil {
		logger.ExitMethodWithError("houseService.CreateHouse", err, "houseNo", houseNo)
		return nil, err
	}

	logger.ExitMethod("houseService.CreateHouse", "houseID", house.ID)
	return house, nil
}

func (s *houseService) ListHouses(ctx context.Context, principal domain.Principal, availability domain.HouseAvailability) ([]domain.House, error) {
	if !principal.IsAuthenticated() {
		return nil, domain.ErrUnauthenticated
	}
	switch availability {
	case "", domain.HouseAvailable, domain.HouseRented:
	default:
		return nil, domain.NewValidationError("invalid availability filter", map[string]string{"availability": "must be available or rented"})
	}
	return s.houseRepo.List(ctx, availability)
}

func (s *houseService) GetHouse(ctx context.Context, principal domain.Principal, houseID int32) (*domain.House, error) {
	if !principal.IsAuthenticated() {
		return nil, domain.ErrUnauthenticated
	}
	return s.houseRepo.GetByID(ctx, houseID)
}

func (s *houseService) UpdateHouse(ctx context.Context, principal domain.Principal, houseID int32, houseNo string, price decimal.Decimal) (*domain.House, error) {
	logger.EnterMethod("houseService.UpdateHouse", "adminID", principal.UserID, "houseID", houseID, "houseNo", houseNo)

	if err := requireAdmin(principal); err != nil {
		return nil, err
	}
	houseNo = strings.TrimSpace(houseNo)
	if err := validateHouse(houseNo, price); err != nil {
		return nil, err
	}

	house := &domain.House{ID: houseID, HouseNo: houseNo, Price: price.Round(2)}
	if err := s.houseRepo.Update(ctx, house); err != nil {
		logger.ExitMethodWithError("houseService.UpdateHouse", err, "houseID", houseID)
		return nil, err
	}

	logger.ExitMethod("houseService.UpdateHouse", "houseID", house.ID, "availability", house.Availability)
	return house, nil
}

func validateHouse(houseNo string, price decimal.Decimal) error {
	fields := map[string]string{}
	if houseNo == "" {
		fields["houseNo"] = "is required"
	}
	if !price.IsPositive() {
		fields["price"] = "must be greater than zero"
	}
	if len(fields) > 0 {
		return domain.NewValidationError("invalid house details", fields)
	}
	return nil
}
