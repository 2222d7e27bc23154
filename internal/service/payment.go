package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"tenant-portal-backend/internal/domain"
	"tenant-portal-backend/internal/logger"
	"tenant-portal-backend/internal/notify"
	"tenant-portal-backend/internal/paylock"
	"tenant-portal-backend/internal/repository"
)

type PaymentConfig struct {
	// PhoneRegion is the default region for numbers without a country code.
	PhoneRegion string
	Location    *time.Location
	Now         Clock
}

type paymentService struct {
	paymentRepo repository.PaymentRepository
	rentalRepo  repository.RentalRepository
	userRepo    repository.UserRepository
	locker      paylock.Locker
	publisher   notify.Publisher
	emailSvc    EmailService
	validate    *validator.Validate
	region      string
	loc         *time.Location
	now         Clock
}

func NewPaymentService(
	paymentRepo repository.PaymentRepository,
	rentalRepo repository.RentalRepository,
	userRepo repository.UserRepository,
	locker paylock.Locker,
	publisher notify.Publisher,
	emailSvc EmailService,
	cfg PaymentConfig,
) PaymentService {
	if locker == nil {
		locker = paylock.NewLocalLocker()
	}
	region := cfg.PhoneRegion
	if region == "" {
		region = "KE"
	}
	return &paymentService{
		paymentRepo: paymentRepo,
		rentalRepo:  rentalRepo,
		userRepo:    userRepo,
		locker:      locker,
		publisher:   publisher,
		emailSvc:    emailSvc,
		validate:    newValidator(),
		region:      region,
		loc:         defaultLocation(cfg.Location),
		now:         defaultClock(cfg.Now),
	}
}

func (s *paymentService) SubmitPayment(ctx context.Context, principal domain.Principal, in SubmitPaymentInput) (*PaymentResult, error) {
	logger.EnterMethod("paymentService.SubmitPayment", "userID", principal.UserID, "rentalID", in.RentalID, "method", in.Method, "month", in.Month)

	if !principal.IsAuthenticated() {
		return nil, domain.ErrUnauthenticated
	}

	rental, err := s.rentalRepo.GetByID(ctx, in.RentalID)
	if err != nil {
		logger.ExitMethodWithError("paymentService.SubmitPayment", err, "rentalID", in.RentalID)
		return nil, err
	}
	if !rental.BelongsTo(principal.UserID) {
		return nil, domain.ErrForbidden
	}
	if !rental.IsActive() {
		return nil, domain.ErrRentalEnded
	}

	in.Method = domain.PaymentMethod(strings.ToLower(strings.TrimSpace(string(in.Method))))
	in.Month = strings.TrimSpace(in.Month)
	if err := s.validate.Struct(in); err != nil {
		return nil, validationError(err)
	}

	now := s.now()
	if err := s.checkBillingMonth(rental, in.Month, now); err != nil {
		return nil, err
	}
	outcome := domain.OutcomeFor(in.Method)
	payment := &domain.Payment{
		RentalID:    rental.ID,
		TenantID:    rental.TenantID,
		HouseID:     rental.HouseID,
		Amount:      rental.Amount,
		Method:      in.Method,
		Month:       in.Month,
		Status:      outcome.InitialStatus(),
		PaymentDate: now,
	}

	if in.Method != domain.PaymentMethodCash {
		if strings.TrimSpace(in.PhoneNumber) != "" {
			phone, err := normalizePhone(in.PhoneNumber, s.region)
			if err != nil {
				return nil, err
			}
			payment.PhoneNumber = &phone
		}
		txn := strings.TrimSpace(in.TransactionID)
		if txn == "" {
			txn = fmt.Sprintf("TXN-%d", now.UnixMilli())
		}
		payment.TransactionID = &txn
	}
	if _, settled := outcome.(domain.Settled); settled {
		payment.SettledAt = &now
	}

	lock, err := s.locker.Obtain(ctx, paylock.Key(rental.ID, in.Month))
	switch {
	case errors.Is(err, paylock.ErrLocked):
		return nil, domain.ErrDuplicatePayment
	case err != nil:
		logger.Warn("Payment lock unavailable, relying on storage constraint", "rentalID", rental.ID, "error", err)
	default:
		defer func() {
			if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
				logger.Warn("Failed to release payment lock", "rentalID", rental.ID, "error", err)
			}
		}()
	}

	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		logger.ExitMethodWithError("paymentService.SubmitPayment", err, "rentalID", rental.ID)
		return nil, err
	}

	if _, settled := outcome.(domain.Settled); settled {
		s.settleRental(ctx, payment)
		s.announce(ctx, payment)
	}

	logger.ExitMethod("paymentService.SubmitPayment", "paymentID", payment.ID, "status", payment.Status)
	return &PaymentResult{Payment: *payment, Outcome: outcome}, nil
}

func (s *paymentService) GetPayment(ctx context.Context, principal domain.Principal, paymentID int32) (*domain.Payment, error) {
	if !principal.IsAuthenticated() {
		return nil, domain.ErrUnauthenticated
	}
	payment, err := s.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if !principal.CanActFor(payment.TenantID) {
		return nil, domain.ErrForbidden
	}
	return payment, nil
}

func (s *paymentService) ListMyPayments(ctx context.Context, principal domain.Principal) ([]domain.Payment, error) {
	if !principal.IsAuthenticated() {
		return nil, domain.ErrUnauthenticated
	}
	return s.paymentRepo.ListByTenant(ctx, principal.UserID)
}

func (s *paymentService) ListPayments(ctx context.Context, principal domain.Principal, filter domain.PaymentFilter) ([]domain.Payment, error) {
	if err := requireAdmin(principal); err != nil {
		return nil, err
	}
	if filter.Status != "" && filter.Status != domain.PaymentStatusPending && !filter.Status.IsTerminal() {
		return nil, domain.NewValidationError("invalid status filter", map[string]string{"status": "must be pending, successful or failed"})
	}
	return s.paymentRepo.List(ctx, filter)
}

// ApprovePayment settles a pending payment exactly once. Approving an
// already successful payment returns it unchanged without a second
// notification.
func (s *paymentService) ApprovePayment(ctx context.Context, principal domain.Principal, paymentID int32) (*domain.Payment, error) {
	logger.EnterMethod("paymentService.ApprovePayment", "adminID", principal.UserID, "paymentID", paymentID)

	if err := requireAdmin(principal); err != nil {
		return nil, err
	}

	now := s.now()
	changed, err := s.paymentRepo.Transition(ctx, paymentID, domain.PaymentStatusPending, domain.PaymentStatusSuccessful, &now, "")
	if err != nil {
		logger.ExitMethodWithError("paymentService.ApprovePayment", err, "paymentID", paymentID)
		return nil, err
	}
	payment, err := s.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	if !changed {
		if payment.Status != domain.PaymentStatusSuccessful {
			return nil, domain.ErrInvalidTransition
		}
		// Settlement is monotonic, so repeating it heals a rental update
		// lost after an earlier approval.
		s.settleRental(ctx, payment)
		logger.ExitMethod("paymentService.ApprovePayment", "paymentID", paymentID, "changed", false)
		return payment, nil
	}

	s.settleRental(ctx, payment)
	s.announce(ctx, payment)

	logger.ExitMethod("paymentService.ApprovePayment", "paymentID", paymentID, "changed", true)
	return payment, nil
}

func (s *paymentService) RejectPayment(ctx context.Context, principal domain.Principal, paymentID int32, reason string) (*domain.Payment, error) {
	logger.EnterMethod("paymentService.RejectPayment", "adminID", principal.UserID, "paymentID", paymentID)

	if err := requireAdmin(principal); err != nil {
		return nil, err
	}

	reason = strings.TrimSpace(reason)
	changed, err := s.paymentRepo.Transition(ctx, paymentID, domain.PaymentStatusPending, domain.PaymentStatusFailed, nil, reason)
	if err != nil {
		logger.ExitMethodWithError("paymentService.RejectPayment", err, "paymentID", paymentID)
		return nil, err
	}
	payment, err := s.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	if !changed {
		if payment.Status != domain.PaymentStatusFailed {
			return nil, domain.ErrInvalidTransition
		}
		return payment, nil
	}

	s.announce(ctx, payment)
	logger.ExitMethod("paymentService.RejectPayment", "paymentID", paymentID)
	return payment, nil
}

// checkBillingMonth bounds month to the rental's first period and at most
// MaxAdvancePeriods past the current one.
func (s *paymentService) checkBillingMonth(rental *domain.Rental, month string, now time.Time) error {
	first := domain.BillingPeriod(rental.StartDate.In(s.loc))
	last, err := domain.AddPeriods(domain.BillingPeriod(now.In(s.loc)), domain.MaxAdvancePeriods)
	if err != nil {
		return err
	}
	switch {
	case month < first:
		return domain.NewValidationError("invalid payment details", map[string]string{
			"month": fmt.Sprintf("is before the rental started (%s)", first),
		})
	case month > last:
		return domain.NewValidationError("invalid payment details", map[string]string{
			"month": fmt.Sprintf("must not be later than %s", last),
		})
	}
	return nil
}

// settleRental records the payment's month against its rental. Failures are
// logged: the payment itself is already durable.
func (s *paymentService) settleRental(ctx context.Context, p *domain.Payment) {
	rental, err := s.rentalRepo.GetByID(ctx, p.RentalID)
	if err != nil {
		logger.Error("Failed to load rental for settlement", "rentalID", p.RentalID, "paymentID", p.ID, "error", err)
		return
	}

	paidThrough := p.Month
	if rental.PaidThrough != nil && *rental.PaidThrough > paidThrough {
		paidThrough = *rental.PaidThrough
	}
	status := rental.PaymentStatus
	if paidThrough >= domain.BillingPeriod(s.now().In(s.loc)) {
		status = domain.RentalPaymentPaid
	}
	nextDue, err := domain.DueDateAfter(paidThrough, s.loc)
	if err != nil {
		logger.Error("Invalid billing month on settled payment", "paymentID", p.ID, "month", p.Month, "error", err)
		return
	}

	if err := s.rentalRepo.MarkSettled(ctx, rental.ID, paidThrough, nextDue, status); err != nil {
		logger.Error("Failed to settle rental", "rentalID", rental.ID, "paymentID", p.ID, "error", err)
	}
}

// announce pushes the payment's terminal status to its tenant and sends the
// e-mail notice. Delivery is best-effort.
func (s *paymentService) announce(ctx context.Context, p *domain.Payment) {
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, p.TenantID, domain.EventForStatus(*p)); err != nil {
			logger.Warn("Payment event not delivered", "tenantID", p.TenantID, "paymentID", p.ID, "error", err)
		}
	}

	if s.emailSvc == nil {
		return
	}
	tenant, err := s.userRepo.GetByID(ctx, p.TenantID)
	if err != nil {
		logger.Warn("Cannot load tenant for payment notice", "tenantID", p.TenantID, "error", err)
		return
	}
	if err := s.emailSvc.SendPaymentDecision(ctx, tenant, p); err != nil {
		logger.Warn("Payment notice e-mail failed", "tenantID", p.TenantID, "paymentID", p.ID, "error", err)
	}
}
