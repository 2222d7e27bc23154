package service_test

import (
	"bytes"
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tenant-portal-backend/internal/domain"
	"tenant-portal-backend/internal/notify"
	"tenant-portal-backend/internal/paylock"
	"tenant-portal-backend/internal/receipt"
	"tenant-portal-backend/internal/service"
	"tenant-portal-backend/internal/storage"
)

// memStore is an in-memory implementation of every repository, enough to
// drive a payment through its whole lifecycle.
type memStore struct {
	mu       sync.Mutex
	users    map[int32]domain.User
	houses   map[int32]domain.House
	rentals  map[int32]domain.Rental
	payments map[int32]domain.Payment
	nextID   int32
}

func newMemStore() *memStore {
	return &memStore{
		users:    map[int32]domain.User{},
		houses:   map[int32]domain.House{},
		rentals:  map[int32]domain.Rental{},
		payments: map[int32]domain.Payment{},
		nextID:   100,
	}
}

func (s *memStore) id() int32 { s.nextID++; return s.nextID }

type memUsers struct{ *memStore }
type memHouses struct{ *memStore }
type memRentals struct{ *memStore }
type memPayments struct{ *memStore }

func (s memUsers) GetByID(_ context.Context, id int32) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

func (s memHouses) Create(_ context.Context, h *domain.House) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	h.ID = s.id()
	s.houses[h.ID] = *h
	return nil
}

func (s memHouses) GetByID(_ context.Context, id int32) (*domain.House, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.houses[id]
	if !ok {
		return nil, domain.ErrHouseNotFound
	}
	return &h, nil
}

func (s memHouses) List(_ context.Context, availability domain.HouseAvailability) ([]domain.House, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.House
	for _, h := range s.houses {
		if availability == "" || h.Availability == availability {
			out = append(out, h)
		}
	}
	return out, nil
}

func (s memHouses) Update(_ context.Context, h *domain.House) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.houses[h.ID]
	if !ok {
		return domain.ErrHouseNotFound
	}
	cur.HouseNo, cur.Price = h.HouseNo, h.Price
	s.houses[h.ID] = cur
	*h = cur
	return nil
}

func (s memHouses) SetAvailability(_ context.Context, id int32, from, to domain.HouseAvailability) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.houses[id]
	if !ok || h.Availability != from {
		return false, nil
	}
	h.Availability = to
	s.houses[id] = h
	return true, nil
}

func (s memRentals) withHouse(rt domain.Rental) domain.Rental {
	h := s.houses[rt.HouseID]
	rt.House = &h
	return rt
}

func (s memRentals) Create(_ context.Context, rt *domain.Rental) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rt.ID = s.id()
	s.rentals[rt.ID] = *rt
	return nil
}

func (s memRentals) GetByID(_ context.Context, id int32) (*domain.Rental, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rt, ok := s.rentals[id]
	if !ok {
		return nil, domain.ErrRentalNotFound
	}
	rt = s.withHouse(rt)
	return &rt, nil
}

func (s memRentals) ListByTenant(_ context.Context, tenantID int32) ([]domain.Rental, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.Rental{}
	for _, rt := range s.rentals {
		if rt.TenantID == tenantID {
			out = append(out, s.withHouse(rt))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s memRentals) ListAll(ctx context.Context) ([]domain.Rental, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.Rental{}
	for _, rt := range s.rentals {
		out = append(out, s.withHouse(rt))
	}
	return out, nil
}

func (s memRentals) ListActiveTenantIDs(context.Context) ([]int32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := map[int32]bool{}
	var ids []int32
	for _, rt := range s.rentals {
		if rt.IsActive() && !seen[rt.TenantID] {
			seen[rt.TenantID] = true
			ids = append(ids, rt.TenantID)
		}
	}
	return ids, nil
}

func (s memRentals) update(id int32, fn func(*domain.Rental)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rt, ok := s.rentals[id]
	if !ok {
		return domain.ErrRentalNotFound
	}
	fn(&rt)
	s.rentals[id] = rt
	return nil
}

func (s memRentals) UpdatePaymentStatus(_ context.Context, id int32, status domain.RentalPaymentStatus) error {
	return s.update(id, func(rt *domain.Rental) { rt.PaymentStatus = status })
}

func (s memRentals) MarkSettled(_ context.Context, id int32, paidThrough string, nextDue time.Time, status domain.RentalPaymentStatus) error {
	return s.update(id, func(rt *domain.Rental) {
		if rt.PaidThrough == nil || *rt.PaidThrough < paidThrough {
			rt.PaidThrough = &paidThrough
		}
		if nextDue.After(rt.NextPaymentDate) {
			rt.NextPaymentDate = nextDue
		}
		rt.PaymentStatus = status
	})
}

func (s memRentals) End(_ context.Context, id int32, endDate time.Time) error {
	return s.update(id, func(rt *domain.Rental) {
		rt.RentalStatus = domain.RentalStatusEnded
		rt.EndDate = &endDate
	})
}

func (s memRentals) RolloverPaid(_ context.Context, period string, nextDue time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, rt := range s.rentals {
		if rt.IsActive() && rt.PaymentStatus == domain.RentalPaymentPaid && !rt.IsPaidFor(period) {
			rt.PaymentStatus = domain.RentalPaymentPending
			rt.NextPaymentDate = nextDue
			s.rentals[id] = rt
			n++
		}
	}
	return n, nil
}

func (s memPayments) Create(_ context.Context, p *domain.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.payments {
		if existing.RentalID == p.RentalID && existing.Month == p.Month && existing.Status != domain.PaymentStatusFailed {
			return domain.ErrDuplicatePayment
		}
	}
	p.ID = s.id()
	s.payments[p.ID] = *p
	return nil
}

func (s memPayments) GetByID(_ context.Context, id int32) (*domain.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[id]
	if !ok {
		return nil, domain.ErrPaymentNotFound
	}
	return &p, nil
}

func (s memPayments) ListByTenant(_ context.Context, tenantID int32) ([]domain.Payment, error) {
	return s.List(context.Background(), domain.PaymentFilter{TenantID: tenantID})
}

func (s memPayments) List(_ context.Context, f domain.PaymentFilter) ([]domain.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.Payment{}
	for _, p := range s.payments {
		if (f.TenantID == 0 || p.TenantID == f.TenantID) && (f.Status == "" || p.Status == f.Status) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s memPayments) Transition(_ context.Context, id int32, from, to domain.PaymentStatus, settledAt *time.Time, reason string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[id]
	if !ok {
		return false, domain.ErrPaymentNotFound
	}
	if p.Status != from {
		return false, nil
	}
	p.Status = to
	p.SettledAt = settledAt
	p.FailureReason = reason
	s.payments[id] = p
	return true, nil
}

type recordingConn struct {
	mu     sync.Mutex
	events []domain.PaymentEvent
}

func (c *recordingConn) Write(_ context.Context, v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := v.(domain.PaymentEvent); ok {
		c.events = append(c.events, e)
	}
	return nil
}

func (c *recordingConn) Close() error { return nil }

func TestPaymentLifecycle_CashApprovalToReceipt(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2025, 11, 3, 9, 0, 0, 0, time.UTC)
	now := func() time.Time { return clock }

	store := newMemStore()
	users, houses, rentals, payments := memUsers{store}, memHouses{store}, memRentals{store}, memPayments{store}
	store.users[3] = domain.User{ID: 3, Name: "Jane Wanjiku", Email: "jane@example.com", Role: domain.RoleTenant}

	hub := notify.NewHub(time.Second)
	conn := &recordingConn{}
	hub.Register(3, "conn-1", conn)

	archive, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	houseSvc := service.NewHouseService(houses)
	rentalSvc := service.NewRentalService(rentals, houses, users, now, time.UTC)
	paymentSvc := service.NewPaymentService(payments, rentals, users, paylock.NewLocalLocker(), hub,
		notify.NewMailer("", "rent@example.com", "Rent Office", "Ksh"),
		service.PaymentConfig{PhoneRegion: "KE", Location: time.UTC, Now: now})
	receiptSvc := service.NewReceiptService(payments, houses, users, archive, nil,
		receipt.Options{Currency: "Ksh", Company: "Gonye Enterprises"})

	house, err := houseSvc.CreateHouse(ctx, admin, "A1", decimal.NewFromInt(15000))
	require.NoError(t, err)
	rental, err := rentalSvc.AssignRental(ctx, admin, 3, house.ID)
	require.NoError(t, err)

	res, err := paymentSvc.SubmitPayment(ctx, tenant, service.SubmitPaymentInput{
		RentalID: rental.ID, Method: domain.PaymentMethodCash, Month: "2025-11",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPending, res.Payment.Status)
	assert.True(t, res.Payment.Amount.Equal(decimal.NewFromInt(15000)))
	assert.Nil(t, res.Payment.TransactionID)

	_, err = paymentSvc.SubmitPayment(ctx, tenant, service.SubmitPaymentInput{
		RentalID: rental.ID, Method: domain.PaymentMethodCash, Month: "2025-11",
	})
	assert.ErrorIs(t, err, domain.ErrDuplicatePayment)

	_, err = receiptSvc.GetReceipt(ctx, tenant, res.Payment.ID)
	assert.ErrorIs(t, err, domain.ErrNotSettled)

	clock = clock.Add(2 * time.Hour)
	approved, err := paymentSvc.ApprovePayment(ctx, admin, res.Payment.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusSuccessful, approved.Status)

	require.Len(t, conn.events, 1)
	assert.Equal(t, domain.EventPaymentApproved, conn.events[0].Type)
	assert.Equal(t, res.Payment.ID, conn.events[0].Payment.ID)
	assert.Equal(t, domain.PaymentStatusSuccessful, conn.events[0].Payment.Status)

	_, err = paymentSvc.ApprovePayment(ctx, admin, res.Payment.ID)
	require.NoError(t, err)
	assert.Len(t, conn.events, 1)

	refreshed, err := rentalSvc.RefreshTenantRentals(ctx, tenant, 3)
	require.NoError(t, err)
	require.Len(t, refreshed, 1)
	assert.Equal(t, domain.RentalPaymentPaid, refreshed[0].PaymentStatus)
	require.NotNil(t, refreshed[0].PaidThrough)
	assert.Equal(t, "2025-11", *refreshed[0].PaidThrough)
	assert.Equal(t, time.Date(2025, 12, 5, 0, 0, 0, 0, time.UTC), refreshed[0].NextPaymentDate)

	r, err := receiptSvc.GetReceipt(ctx, tenant, res.Payment.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jane Wanjiku", r.TenantName)
	assert.Equal(t, "A1", r.HouseNo)
	assert.Equal(t, "November 2025", r.Month)
	assert.Equal(t, "cash", r.Method)
	assert.Equal(t, "Ksh 15,000", r.Amount)
	assert.Equal(t, clock, r.IssueDate)

	doc, err := receiptSvc.RenderReceipt(ctx, tenant, res.Payment.ID)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(doc, []byte("%PDF")))

	exists, _, err := archive.Exists(ctx, service.ReceiptKey(res.Payment.ID))
	require.NoError(t, err)
	assert.True(t, exists)

	again, err := receiptSvc.RenderReceipt(ctx, admin, res.Payment.ID)
	require.NoError(t, err)
	assert.Equal(t, doc, again)

	_, err = receiptSvc.RenderReceipt(ctx, domain.Principal{UserID: 9, Role: domain.RoleTenant}, res.Payment.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestPaymentLifecycle_RejectThenRetry(t *testing.T) {
	ctx := context.Background()
	now := fixedClock(time.Date(2025, 11, 12, 9, 0, 0, 0, time.UTC))

	store := newMemStore()
	users, houses, rentals, payments := memUsers{store}, memHouses{store}, memRentals{store}, memPayments{store}
	store.users[3] = domain.User{ID: 3, Name: "Jane", Role: domain.RoleTenant}
	store.houses[7] = domain.House{ID: 7, HouseNo: "A1", Price: decimal.NewFromInt(9000), Availability: domain.HouseAvailable}

	hub := notify.NewHub(time.Second)
	conn := &recordingConn{}
	hub.Register(3, "c", conn)

	rentalSvc := service.NewRentalService(rentals, houses, users, now, time.UTC)
	paymentSvc := service.NewPaymentService(payments, rentals, users, nil, hub, nil,
		service.PaymentConfig{Location: time.UTC, Now: now})

	rental, err := rentalSvc.AssignRental(ctx, admin, 3, 7)
	require.NoError(t, err)

	first, err := paymentSvc.SubmitPayment(ctx, tenant, service.SubmitPaymentInput{RentalID: rental.ID, Method: domain.PaymentMethodCash, Month: "2025-11"})
	require.NoError(t, err)

	rejected, err := paymentSvc.RejectPayment(ctx, admin, first.Payment.ID, "not received")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusFailed, rejected.Status)
	assert.Equal(t, "not received", rejected.FailureReason)
	require.Len(t, conn.events, 1)
	assert.Equal(t, domain.EventPaymentRejected, conn.events[0].Type)

	_, err = paymentSvc.ApprovePayment(ctx, admin, first.Payment.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	retry, err := paymentSvc.SubmitPayment(ctx, tenant, service.SubmitPaymentInput{RentalID: rental.ID, Method: domain.PaymentMethodCash, Month: "2025-11"})
	require.NoError(t, err)
	assert.NotEqual(t, first.Payment.ID, retry.Payment.ID)

	aged, err := rentalSvc.RefreshTenantRentals(ctx, tenant, 3)
	require.NoError(t, err)
	assert.Equal(t, domain.RentalPaymentLate, aged[0].PaymentStatus)

	ended, err := rentalSvc.EndRental(ctx, admin, rental.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RentalStatusEnded, ended.RentalStatus)
	assert.Equal(t, domain.HouseAvailable, store.houses[7].Availability)

	_, err = paymentSvc.SubmitPayment(ctx, tenant, service.SubmitPaymentInput{RentalID: rental.ID, Method: domain.PaymentMethodCash, Month: "2025-12"})
	assert.ErrorIs(t, err, domain.ErrRentalEnded)
}
