package service_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"tenant-portal-backend/internal/domain"
)

// MockUserRepo
type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) GetByID(ctx context.Context, id int32) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

// MockHouseRepo
type MockHouseRepo struct {
	mock.Mock
}

func (m *MockHouseRepo) Create(ctx context.Context, house *domain.House) error {
	args := m.Called(ctx, house)
	return args.Error(0)
}
func (m *MockHouseRepo) GetByID(ctx context.Context, id int32) (*domain.House, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.House), args.Error(1)
}
func (m *MockHouseRepo) List(ctx context.Context, availability domain.HouseAvailability) ([]domain.House, error) {
	args := m.Called(ctx, availability)
	return args.Get(0).([]domain.House), args.Error(1)
}
func (m *MockHouseRepo) Update(ctx context.Context, house *domain.House) error {
	args := m.Called(ctx, house)
	return args.Error(0)
}
func (m *MockHouseRepo) SetAvailability(ctx context.Context, id int32, from, to domain.HouseAvailability) (bool, error) {
	args := m.Called(ctx, id, from, to)
	return args.Bool(0), args.Error(1)
}

// MockRentalRepo
type MockRentalRepo struct {
	mock.Mock
}

func (m *MockRentalRepo) Create(ctx context.Context, rental *domain.Rental) error {
	args := m.Called(ctx, rental)
	return args.Error(0)
}
func (m *MockRentalRepo) GetByID(ctx context.Context, id int32) (*domain.Rental, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Rental), args.Error(1)
}
func (m *MockRentalRepo) ListByTenant(ctx context.Context, tenantID int32) ([]domain.Rental, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Rental), args.Error(1)
}
func (m *MockRentalRepo) ListAll(ctx context.Context) ([]domain.Rental, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Rental), args.Error(1)
}
func (m *MockRentalRepo) ListActiveTenantIDs(ctx context.Context) ([]int32, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int32), args.Error(1)
}
func (m *MockRentalRepo) UpdatePaymentStatus(ctx context.Context, id int32, status domain.RentalPaymentStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}
func (m *MockRentalRepo) MarkSettled(ctx context.Context, id int32, paidThrough string, nextDue time.Time, status domain.RentalPaymentStatus) error {
	args := m.Called(ctx, id, paidThrough, nextDue, status)
	return args.Error(0)
}
func (m *MockRentalRepo) End(ctx context.Context, id int32, endDate time.Time) error {
	args := m.Called(ctx, id, endDate)
	return args.Error(0)
}
func (m *MockRentalRepo) RolloverPaid(ctx context.Context, period string, nextDue time.Time) (int64, error) {
	args := m.Called(ctx, period, nextDue)
	return args.Get(0).(int64), args.Error(1)
}

// MockPaymentRepo
type MockPaymentRepo struct {
	mock.Mock
}

func (m *MockPaymentRepo) Create(ctx context.Context, payment *domain.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}
func (m *MockPaymentRepo) GetByID(ctx context.Context, id int32) (*domain.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}
func (m *MockPaymentRepo) ListByTenant(ctx context.Context, tenantID int32) ([]domain.Payment, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).([]domain.Payment), args.Error(1)
}
func (m *MockPaymentRepo) List(ctx context.Context, filter domain.PaymentFilter) ([]domain.Payment, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Payment), args.Error(1)
}
func (m *MockPaymentRepo) Transition(ctx context.Context, id int32, from, to domain.PaymentStatus, settledAt *time.Time, reason string) (bool, error) {
	args := m.Called(ctx, id, from, to, settledAt, reason)
	return args.Bool(0), args.Error(1)
}

// MockPublisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, tenantID int32, event domain.PaymentEvent) error {
	args := m.Called(ctx, tenantID, event)
	return args.Error(0)
}

// MockEmailService
type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) SendPaymentDecision(ctx context.Context, to *domain.User, payment *domain.Payment) error {
	args := m.Called(ctx, to, payment)
	return args.Error(0)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func strPtr(s string) *string { return &s }
