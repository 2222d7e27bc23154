package postgres

import (
	"context"
	"time"

	"tenant-portal-backend/internal/domain"
	"tenant-portal-backend/internal/logger"
)

type rentalRepository struct {
	conn
}

const rentalColumns = `r.id, r.tenant_id, r.house_id, r.start_date, r.end_date, r.amount,
	r.next_payment_date, r.payment_status, r.rental_status, r.paid_through, r.created_on, r.updated_on,
	h.id, h.house_no, h.price, h.availability`

const rentalFrom = ` FROM rentals r JOIN houses h ON h.id = r.house_id`

func scanRental(s scanner) (domain.Rental, error) {
	var rt domain.Rental
	h := &domain.House{}
	err := s.Scan(&rt.ID, &rt.TenantID, &rt.HouseID, &rt.StartDate, &rt.EndDate, &rt.Amount,
		&rt.NextPaymentDate, &rt.PaymentStatus, &rt.RentalStatus, &rt.PaidThrough, &rt.CreatedOn, &rt.UpdatedOn,
		&h.ID, &h.HouseNo, &h.Price, &h.Availability)
	if err != nil {
		return rt, err
	}
	rt.House = h
	return rt, nil
}

func (r *rentalRepository) Create(ctx context.Context, rt *domain.Rental) error {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	now := time.Now().UTC()
	rt.CreatedOn, rt.UpdatedOn = now, now
	if rt.RentalStatus == "" {
		rt.RentalStatus = domain.RentalStatusActive
	}
	if rt.PaymentStatus == "" {
		rt.PaymentStatus = domain.RentalPaymentPending
	}

	logger.DatabaseCall("INSERT", "rentals", "tenantID", rt.TenantID, "houseID", rt.HouseID)
	query := `INSERT INTO rentals (tenant_id, house_id, start_date, amount, next_payment_date, payment_status, rental_status, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	err := r.db.QueryRowContext(ctx, query, rt.TenantID, rt.HouseID, rt.StartDate, rt.Amount, rt.NextPaymentDate,
		rt.PaymentStatus, rt.RentalStatus, rt.CreatedOn, rt.UpdatedOn).Scan(&rt.ID)
	logger.DatabaseResult("INSERT", 1, err, "rentalID", rt.ID)
	return translate("create rental", err, nil)
}

func (r *rentalRepository) GetByID(ctx context.Context, id int32) (*domain.Rental, error) {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	query := `SELECT ` + rentalColumns + rentalFrom + ` WHERE r.id = $1`
	rt, err := scanRental(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, translate("get rental", err, domain.ErrRentalNotFound)
	}
	return &rt, nil
}

func (r *rentalRepository) ListByTenant(ctx context.Context, tenantID int32) ([]domain.Rental, error) {
	query := `SELECT ` + rentalColumns + rentalFrom + ` WHERE r.tenant_id = $1 ORDER BY r.start_date DESC, r.id DESC`
	return r.list(ctx, "list tenant rentals", query, tenantID)
}

func (r *rentalRepository) ListAll(ctx context.Context) ([]domain.Rental, error) {
	query := `SELECT ` + rentalColumns + rentalFrom + ` ORDER BY r.created_on DESC, r.id DESC`
	return r.list(ctx, "list rentals", query)
}

func (r *rentalRepository) list(ctx context.Context, op, query string, args ...any) ([]domain.Rental, error) {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	logger.DatabaseCall("SELECT", "rentals JOIN houses", "args", args)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.DatabaseResult("SELECT", 0, err)
		return nil, translate(op, err, nil)
	}
	defer rows.Close()

	rentals := []domain.Rental{}
	for rows.Next() {
		rt, err := scanRental(rows)
		if err != nil {
			return nil, translate(op, err, nil)
		}
		rentals = append(rentals, rt)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(op, err, nil)
	}
	logger.DatabaseResult("SELECT", int64(len(rentals)), nil)
	return rentals, nil
}

func (r *rentalRepository) ListActiveTenantIDs(ctx context.Context) ([]int32, error) {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	query := `SELECT DISTINCT tenant_id FROM rentals WHERE rental_status = $1 ORDER BY tenant_id`
	rows, err := r.db.QueryContext(ctx, query, domain.RentalStatusActive)
	if err != nil {
		return nil, translate("list active tenants", err, nil)
	}
	defer rows.Close()

	var ids []int32
	for rows.Next() {
		var id int32
		if err := rows.Scan(&id); err != nil {
			return nil, translate("list active tenants", err, nil)
		}
		ids = append(ids, id)
	}
	return ids, translate("list active tenants", rows.Err(), nil)
}

func (r *rentalRepository) UpdatePaymentStatus(ctx context.Context, id int32, status domain.RentalPaymentStatus) error {
	query := `UPDATE rentals SET payment_status = $1, updated_on = $2 WHERE id = $3`
	return r.exec(ctx, "update rental payment status", query, status, time.Now().UTC(), id)
}

func (r *rentalRepository) MarkSettled(ctx context.Context, id int32, paidThrough string, nextDue time.Time, status domain.RentalPaymentStatus) error {
	query := `UPDATE rentals
	          SET paid_through = GREATEST(COALESCE(paid_through, $1), $1),
	              next_payment_date = GREATEST(next_payment_date, $2),
	              payment_status = $3, updated_on = $4
	          WHERE id = $5`
	return r.exec(ctx, "settle rental", query, paidThrough, nextDue, status, time.Now().UTC(), id)
}

func (r *rentalRepository) End(ctx context.Context, id int32, endDate time.Time) error {
	query := `UPDATE rentals SET rental_status = $1, end_date = $2, updated_on = $3 WHERE id = $4`
	return r.exec(ctx, "end rental", query, domain.RentalStatusEnded, endDate, time.Now().UTC(), id)
}

func (r *rentalRepository) RolloverPaid(ctx context.Context, period string, nextDue time.Time) (int64, error) {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	logger.DatabaseCall("UPDATE", "rentals", "operation", "rollover", "period", period)
	query := `UPDATE rentals
	          SET payment_status = $1, next_payment_date = $2, updated_on = $3
	          WHERE rental_status = $4 AND payment_status = $5 AND (paid_through IS NULL OR paid_through < $6)`
	res, err := r.db.ExecContext(ctx, query, domain.RentalPaymentPending, nextDue, time.Now().UTC(),
		domain.RentalStatusActive, domain.RentalPaymentPaid, period)
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err)
		return 0, translate("rollover rentals", err, nil)
	}
	n, err := res.RowsAffected()
	logger.DatabaseResult("UPDATE", n, err)
	return n, translate("rollover rentals", err, nil)
}

func (r *rentalRepository) exec(ctx context.Context, op, query string, args ...any) error {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	logger.DatabaseCall("UPDATE", "rentals", "operation", op)
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err)
		return translate(op, err, nil)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return translate(op, err, nil)
	}
	logger.DatabaseResult("UPDATE", n, nil)
	if n == 0 {
		return domain.ErrRentalNotFound
	}
	return nil
}
