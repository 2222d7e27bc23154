package postgres

import (
	"context"
	"fmt"
	"time"

	"tenant-portal-backend/internal/domain"
	"tenant-portal-backend/internal/logger"
)

type paymentRepository struct {
	conn
}

const paymentColumns = `id, rental_id, tenant_id, house_id, amount, method, phone_number, transaction_id,
	month, status, payment_date, settled_at, failure_reason`

const paymentListColumns = `p.id, p.rental_id, p.tenant_id, p.house_id, p.amount, p.method, p.phone_number,
	p.transaction_id, p.month, p.status, p.payment_date, p.settled_at, p.failure_reason,
	COALESCE(u.name, ''), COALESCE(u.email, ''), COALESCE(h.house_no, '')`

func scanPayment(s scanner) (domain.Payment, error) {
	var p domain.Payment
	err := s.Scan(&p.ID, &p.RentalID, &p.TenantID, &p.HouseID, &p.Amount, &p.Method, &p.PhoneNumber, &p.TransactionID,
		&p.Month, &p.Status, &p.PaymentDate, &p.SettledAt, &p.FailureReason)
	return p, err
}

func (r *paymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	if p.PaymentDate.IsZero() {
		p.PaymentDate = time.Now().UTC()
	}

	logger.DatabaseCall("INSERT", "payments", "rentalID", p.RentalID, "month", p.Month, "status", p.Status)
	query := `INSERT INTO payments (rental_id, tenant_id, house_id, amount, method, phone_number, transaction_id, month, status, payment_date, settled_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING id`
	err := r.db.QueryRowContext(ctx, query, p.RentalID, p.TenantID, p.HouseID, p.Amount, p.Method, p.PhoneNumber,
		p.TransactionID, p.Month, p.Status, p.PaymentDate, p.SettledAt).Scan(&p.ID)
	logger.DatabaseResult("INSERT", 1, err, "paymentID", p.ID)
	if isUniqueViolation(err) {
		return domain.ErrDuplicatePayment
	}
	return translate("create payment", err, nil)
}

func (r *paymentRepository) GetByID(ctx context.Context, id int32) (*domain.Payment, error) {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	p, err := scanPayment(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, translate("get payment", err, domain.ErrPaymentNotFound)
	}
	return &p, nil
}

func (r *paymentRepository) ListByTenant(ctx context.Context, tenantID int32) ([]domain.Payment, error) {
	return r.List(ctx, domain.PaymentFilter{TenantID: tenantID})
}

func scanPaymentListing(s scanner) (domain.Payment, error) {
	var p domain.Payment
	err := s.Scan(&p.ID, &p.RentalID, &p.TenantID, &p.HouseID, &p.Amount, &p.Method, &p.PhoneNumber, &p.TransactionID,
		&p.Month, &p.Status, &p.PaymentDate, &p.SettledAt, &p.FailureReason,
		&p.TenantName, &p.TenantEmail, &p.HouseNo)
	return p, err
}

// List returns payments newest first with the tenant and house joined in.
func (r *paymentRepository) List(ctx context.Context, filter domain.PaymentFilter) ([]domain.Payment, error) {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	query := `SELECT ` + paymentListColumns + ` FROM payments p
	          LEFT JOIN users u ON u.id = p.tenant_id
	          LEFT JOIN houses h ON h.id = p.house_id
	          WHERE 1=1`
	var args []any
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND p.status = $%d", len(args))
	}
	if filter.TenantID > 0 {
		args = append(args, filter.TenantID)
		query += fmt.Sprintf(" AND p.tenant_id = $%d", len(args))
	}
	query += " ORDER BY p.payment_date DESC, p.id DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit, filter.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	logger.DatabaseCall("SELECT", "payments", "status", filter.Status, "tenantID", filter.TenantID)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.DatabaseResult("SELECT", 0, err)
		return nil, translate("list payments", err, nil)
	}
	defer rows.Close()

	payments := []domain.Payment{}
	for rows.Next() {
		p, err := scanPaymentListing(rows)
		if err != nil {
			return nil, translate("list payments", err, nil)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, translate("list payments", err, nil)
	}
	logger.DatabaseResult("SELECT", int64(len(payments)), nil)
	return payments, nil
}

func (r *paymentRepository) Transition(ctx context.Context, id int32, from, to domain.PaymentStatus, settledAt *time.Time, reason string) (bool, error) {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	logger.DatabaseCall("UPDATE", "payments", "paymentID", id, "from", from, "to", to)
	query := `UPDATE payments SET status = $1, settled_at = $2, failure_reason = $3 WHERE id = $4 AND status = $5`
	res, err := r.db.ExecContext(ctx, query, to, settledAt, reason, id, from)
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err, "paymentID", id)
		return false, translate("transition payment", err, nil)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, translate("transition payment", err, nil)
	}
	logger.DatabaseResult("UPDATE", n, nil, "paymentID", id)
	return n == 1, nil
}
