package service

import (
	"context"
	"errors"
	"time"

	"tenant-portal-backend/internal/domain"
	"tenant-portal-backend/internal/logger"
	"tenant-portal-backend/internal/repository"
)

type rentalService struct {
	rentalRepo repository.RentalRepository
	houseRepo  repository.HouseRepository
	userRepo   repository.UserRepository
	now        Clock
	loc        *time.Location
}

func NewRentalService(
	rentalRepo repository.RentalRepository,
	houseRepo repository.HouseRepository,
	userRepo repository.UserRepository,
	now Clock,
	loc *time.Location,
) RentalService {
	return &rentalService{
		rentalRepo: rentalRepo,
		houseRepo:  houseRepo,
		userRepo:   userRepo,
		now:        defaultClock(now),
		loc:        defaultLocation(loc),
	}
}

func (s *rentalService) today() time.Time {
	return s.now().In(s.loc)
}

func (s *rentalService) RefreshTenantRentals(ctx context.Context, principal domain.Principal, tenantID int32) ([]domain.Rental, error) {
	logger.EnterMethod("rentalService.RefreshTenantRentals", "userID", principal.UserID, "tenantID", tenantID)

	if !principal.IsAuthenticated() {
		return nil, domain.ErrUnauthenticated
	}
	if !principal.CanActFor(tenantID) {
		return nil, domain.ErrForbidden
	}

	rentals, err := s.rentalRepo.ListByTenant(ctx, tenantID)
	if err != nil {
		logger.ExitMethodWithError("rentalService.RefreshTenantRentals", err, "tenantID", tenantID)
		return nil, err
	}
	if len(rentals) == 0 {
		return nil, domain.ErrRentalNotFound
	}

	writes, err := ageRentals(ctx, s.rentalRepo, rentals, s.today().Day())
	if err != nil {
		logger.ExitMethodWithError("rentalService.RefreshTenantRentals", err, "tenantID", tenantID)
		return nil, err
	}
	if writes > 0 {
		if rentals, err = s.rentalRepo.ListByTenant(ctx, tenantID); err != nil {
			return nil, err
		}
	}

	logger.ExitMethod("rentalService.RefreshTenantRentals", "tenantID", tenantID, "count", len(rentals), "writes", writes)
	return rentals, nil
}

// ageRentals applies the day-of-month rule to every active, unpaid rental
// and writes only the ones whose status changes. It returns the number of
// writes.
func ageRentals(ctx context.Context, repo repository.RentalRepository, rentals []domain.Rental, day int) (int, error) {
	next := domain.AgeStatus(day)
	writes := 0
	for i := range rentals {
		rt := &rentals[i]
		if !rt.IsActive() || rt.PaymentStatus == domain.RentalPaymentPaid || rt.PaymentStatus == next {
			continue
		}
		if err := repo.UpdatePaymentStatus(ctx, rt.ID, next); err != nil {
			return writes, err
		}
		rt.PaymentStatus = next
		writes++
	}
	return writes, nil
}

func (s *rentalService) AssignRental(ctx context.Context, principal domain.Principal, tenantID, houseID int32) (*domain.Rental, error) {
	logger.EnterMethod("rentalService.AssignRental", "adminID", principal.UserID, "tenantID", tenantID, "houseID", houseID)

	if err := requireAdmin(principal); err != nil {
		return nil, err
	}
	if tenantID <= 0 || houseID <= 0 {
		return nil, domain.NewValidationError("tenant and house are required", nil)
	}

	tenant, err := s.userRepo.GetByID(ctx, tenantID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NewValidationError("tenant does not exist", map[string]string{"tenantId": "unknown tenant"})
	}
	if err != nil {
		return nil, err
	}
	if tenant.Role != domain.RoleTenant {
		return nil, domain.NewValidationError("rentals can only be assigned to tenants", map[string]string{"tenantId": "not a tenant"})
	}

	house, err := s.houseRepo.GetByID(ctx, houseID)
	if err != nil {
		return nil, err
	}
	claimed, err := s.houseRepo.SetAvailability(ctx, houseID, domain.HouseAvailable, domain.HouseRented)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, domain.ErrHouseUnavailable
	}
	house.Availability = domain.HouseRented

	today := s.today()
	rental := &domain.Rental{
		TenantID:        tenantID,
		HouseID:         houseID,
		StartDate:       today,
		Amount:          house.Price,
		NextPaymentDate: domain.NextDueDate(today),
		PaymentStatus:   domain.RentalPaymentPending,
		RentalStatus:    domain.RentalStatusActive,
		House:           house,
	}
	if err := s.rentalRepo.Create(ctx, rental); err != nil {
		if _, rerr := s.houseRepo.SetAvailability(ctx, houseID, domain.HouseRented, domain.HouseAvailable); rerr != nil {
			logger.Error("Failed to release house after rental create failure", "houseID", houseID, "error", rerr)
		}
		logger.ExitMethodWithError("rentalService.AssignRental", err, "houseID", houseID)
		return nil, err
	}

	logger.ExitMethod("rentalService.AssignRental", "rentalID", rental.ID)
	return rental, nil
}

func (s *rentalService) EndRental(ctx context.Context, principal domain.Principal, rentalID int32) (*domain.Rental, error) {
	logger.EnterMethod("rentalService.EndRental", "adminID", principal.UserID, "rentalID", rentalID)

	if err := requireAdmin(principal); err != nil {
		return nil, err
	}
	rental, err := s.rentalRepo.GetByID(ctx, rentalID)
	if err != nil {
		return nil, err
	}
	if !rental.IsActive() {
		return rental, nil
	}

	if err := s.rentalRepo.End(ctx, rentalID, s.today()); err != nil {
		logger.ExitMethodWithError("rentalService.EndRental", err, "rentalID", rentalID)
		return nil, err
	}
	if _, err := s.houseRepo.SetAvailability(ctx, rental.HouseID, domain.HouseRented, domain.HouseAvailable); err != nil {
		logger.ExitMethodWithError("rentalService.EndRental", err, "rentalID", rentalID)
		return nil, err
	}

	logger.ExitMethod("rentalService.EndRental", "rentalID", rentalID)
	return s.rentalRepo.GetByID(ctx, rentalID)
}

func (s *rentalService) ListRentals(ctx context.Context, principal domain.Principal) ([]domain.Rental, error) {
	if err := requireAdmin(principal); err != nil {
		return nil, err
	}
	return s.rentalRepo.ListAll(ctx)
}

func (s *rentalService) GetRental(ctx context.Context, principal domain.Principal, rentalID int32) (*domain.Rental, error) {
	if !principal.IsAuthenticated() {
		return nil, domain.ErrUnauthenticated
	}
	rental, err := s.rentalRepo.GetByID(ctx, rentalID)
	if err != nil {
		return nil, err
	}
	if !principal.CanActFor(rental.TenantID) {
		return nil, domain.ErrForbidden
	}
	return rental, nil
}

type billingService struct {
	rentalRepo repository.RentalRepository
	now        Clock
	loc        *time.Location
}

func NewBillingService(rentalRepo repository.RentalRepository, now Clock, loc *time.Location) BillingService {
	return &billingService{
		rentalRepo: rentalRepo,
		now:        defaultClock(now),
		loc:        defaultLocation(loc),
	}
}

// AgeAllRentals runs the aging rule for every tenant with an active rental.
// A failure for one tenant is logged and does not stop the sweep.
func (s *billingService) AgeAllRentals(ctx context.Context) (int, error) {
	logger.EnterMethod("billingService.AgeAllRentals")

	tenantIDs, err := s.rentalRepo.ListActiveTenantIDs(ctx)
	if err != nil {
		logger.ExitMethodWithError("billingService.AgeAllRentals", err)
		return 0, err
	}

	day := s.now().In(s.loc).Day()
	total, failed := 0, 0
	for _, tenantID := range tenantIDs {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		rentals, err := s.rentalRepo.ListByTenant(ctx, tenantID)
		if err != nil {
			logger.Error("Failed to load rentals for aging", "tenantID", tenantID, "error", err)
			failed++
			continue
		}
		writes, err := ageRentals(ctx, s.rentalRepo, rentals, day)
		total += writes
		if err != nil {
			logger.Error("Failed to age rentals", "tenantID", tenantID, "error", err)
			failed++
		}
	}

	logger.ExitMethod("billingService.AgeAllRentals", "tenants", len(tenantIDs), "writes", total, "failed", failed)
	return total, nil
}

// RolloverBillingCycle opens the current billing period: paid rentals that
// are not paid through it go back to pending and fall due on the 5th.
func (s *billingService) RolloverBillingCycle(ctx context.Context) (int64, error) {
	today := s.now().In(s.loc)
	period := domain.BillingPeriod(today)
	logger.EnterMethod("billingService.RolloverBillingCycle", "period", period)

	n, err := s.rentalRepo.RolloverPaid(ctx, period, domain.DueDateOf(today))
	if err != nil {
		logger.ExitMethodWithError("billingService.RolloverBillingCycle", err, "period", period)
		return 0, err
	}
	logger.ExitMethod("billingService.RolloverBillingCycle", "period", period, "rentals", n)
	return n, nil
}

func requireAdmin(principal domain.Principal) error {
	if !principal.IsAuthenticated() {
		return domain.ErrUnauthenticated
	}
	if !principal.IsAdmin() {
		return domain.ErrForbidden
	}
	return nil
}

func defaultClock(now Clock) Clock {
	if now == nil {
		return time.Now
	}
	return now
}

func defaultLocation(loc *time.Location) *time.Location {
	if loc == nil {
		return time.UTC
	}
	return loc
}
