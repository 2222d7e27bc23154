package http_test

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"tenant-portal-backend/internal/domain"
	"tenant-portal-backend/internal/receipt"
	"tenant-portal-backend/internal/service"
)

// MockPaymentService
type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) SubmitPayment(ctx context.Context, principal domain.Principal, in service.SubmitPaymentInput) (*service.PaymentResult, error) {
	args := m.Called(ctx, principal, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PaymentResult), args.Error(1)
}
func (m *MockPaymentService) GetPayment(ctx context.Context, principal domain.Principal, id int32) (*domain.Payment, error) {
	args := m.Called(ctx, principal, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}
func (m *MockPaymentService) ListMyPayments(ctx context.Context, principal domain.Principal) ([]domain.Payment, error) {
	args := m.Called(ctx, principal)
	return args.Get(0).([]domain.Payment), args.Error(1)
}
func (m *MockPaymentService) ListPayments(ctx context.Context, principal domain.Principal, filter domain.PaymentFilter) ([]domain.Payment, error) {
	args := m.Called(ctx, principal, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Payment), args.Error(1)
}
func (m *MockPaymentService) ApprovePayment(ctx context.Context, principal domain.Principal, id int32) (*domain.Payment, error) {
	args := m.Called(ctx, principal, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}
func (m *MockPaymentService) RejectPayment(ctx context.Context, principal domain.Principal, id int32, reason string) (*domain.Payment, error) {
	args := m.Called(ctx, principal, id, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

// MockRentalService
type MockRentalService struct {
	mock.Mock
}

func (m *MockRentalService) RefreshTenantRentals(ctx context.Context, principal domain.Principal, tenantID int32) ([]domain.Rental, error) {
	args := m.Called(ctx, principal, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Rental), args.Error(1)
}
func (m *MockRentalService) AssignRental(ctx context.Context, principal domain.Principal, tenantID, houseID int32) (*domain.Rental, error) {
	args := m.Called(ctx, principal, tenantID, houseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Rental), args.Error(1)
}
func (m *MockRentalService) EndRental(ctx context.Context, principal domain.Principal, id int32) (*domain.Rental, error) {
	args := m.Called(ctx, principal, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Rental), args.Error(1)
}
func (m *MockRentalService) ListRentals(ctx context.Context, principal domain.Principal) ([]domain.Rental, error) {
	args := m.Called(ctx, principal)
	return args.Get(0).([]domain.Rental), args.Error(1)
}
func (m *MockRentalService) GetRental(ctx context.Context, principal domain.Principal, id int32) (*domain.Rental, error) {
	args := m.Called(ctx, principal, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Rental), args.Error(1)
}

// MockHouseService
type MockHouseService struct {
	mock.Mock
}

func (m *MockHouseService) CreateHouse(ctx context.Context, principal domain.Principal, houseNo string, price decimal.Decimal) (*domain.House, error) {
	args := m.Called(ctx, principal, houseNo, price)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.House), args.Error(1)
}
func (m *MockHouseService) ListHouses(ctx context.Context, principal domain.Principal, availability domain.HouseAvailability) ([]domain.House, error) {
	args := m.Called(ctx, principal, availability)
	return args.Get(0).([]domain.House), args.Error(1)
}
func (m *MockHouseService) GetHouse(ctx context.Context, principal domain.Principal, id int32) (*domain.House, error) {
	args := m.Called(ctx, principal, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.House), args.Error(1)
}
func (m *MockHouseService) UpdateHouse(ctx context.Context, principal domain.Principal, id int32, houseNo string, price decimal.Decimal) (*domain.House, error) {
	args := m.Called(ctx, principal, id, houseNo, price)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.House), args.Error(1)
}

// MockReceiptService
type MockReceiptService struct {
	mock.Mock
}

func (m *MockReceiptService) GetReceipt(ctx context.Context, principal domain.Principal, id int32) (*receipt.Receipt, error) {
	args := m.Called(ctx, principal, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*receipt.Receipt), args.Error(1)
}
func (m *MockReceiptService) RenderReceipt(ctx context.Context, principal domain.Principal, id int32) ([]byte, error) {
	args := m.Called(ctx, principal, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}
