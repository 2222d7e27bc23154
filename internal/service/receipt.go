package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"tenant-portal-backend/internal/domain"
	"tenant-portal-backend/internal/logger"
	"tenant-portal-backend/internal/receipt"
	"tenant-portal-backend/internal/repository"
	"tenant-portal-backend/internal/storage"
)

type receiptService struct {
	paymentRepo repository.PaymentRepository
	houseRepo   repository.HouseRepository
	userRepo    repository.UserRepository
	archive     storage.Storage
	renderer    *receipt.PDFRenderer
	opts        receipt.Options
}

// NewReceiptService builds receipts from stored payments. archive may be
// nil, in which case every request renders afresh.
func NewReceiptService(
	paymentRepo repository.PaymentRepository,
	houseRepo repository.HouseRepository,
	userRepo repository.UserRepository,
	archive storage.Storage,
	renderer *receipt.PDFRenderer,
	opts receipt.Options,
) ReceiptService {
	if renderer == nil {
		renderer = receipt.NewPDFRenderer(receipt.DefaultTheme())
	}
	return &receiptService{
		paymentRepo: paymentRepo,
		houseRepo:   houseRepo,
		userRepo:    userRepo,
		archive:     archive,
		renderer:    renderer,
		opts:        opts,
	}
}

func ReceiptKey(paymentID int32) string {
	return fmt.Sprintf("receipts/%d.pdf", paymentID)
}

func (s *receiptService) GetReceipt(ctx context.Context, principal domain.Principal, paymentID int32) (*receipt.Receipt, error) {
	logger.EnterMethod("receiptService.GetReceipt", "userID", principal.UserID, "paymentID", paymentID)

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
	if payment.Status != domain.PaymentStatusSuccessful {
		return nil, domain.ErrNotSettled
	}

	// Missing house or tenant rows print as N/A rather than failing.
	house, err := s.houseRepo.GetByID(ctx, payment.HouseID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		house = nil
	}
	tenant, err := s.userRepo.GetByID(ctx, payment.TenantID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		tenant = nil
	}

	r, err := receipt.Build(payment, house, tenant, s.opts)
	if err != nil {
		return nil, err
	}
	logger.ExitMethod("receiptService.GetReceipt", "paymentID", paymentID, "number", r.Number)
	return r, nil
}

func (s *receiptService) RenderReceipt(ctx context.Context, principal domain.Principal, paymentID int32) ([]byte, error) {
	r, err := s.GetReceipt(ctx, principal, paymentID)
	if err != nil {
		return nil, err
	}

	key := ReceiptKey(paymentID)
	if s.archive != nil {
		if doc, err := s.readArchived(ctx, key); err == nil {
			return doc, nil
		} else if !errors.Is(err, storage.ErrNotExist) {
			logger.Warn("Receipt archive read failed, rendering", "key", key, "error", err)
		}
	}

	doc, err := s.renderer.Bytes(r)
	if err != nil {
		return nil, fmt.Errorf("failed to render receipt: %w", err)
	}

	if s.archive != nil {
		logger.ExternalServiceCall("storage", "save", "key", key, "size", len(doc))
		err := s.archive.Save(ctx, key, receipt.ContentTypePDF, bytes.NewReader(doc))
		logger.ExternalServiceResult("storage", "save", err, "key", key)
	}
	return doc, nil
}

func (s *receiptService) readArchived(ctx context.Context, key string) ([]byte, error) {
	rc, err := s.archive.Open(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
