package postgres

import (
	"context"

	"tenant-portal-backend/internal/domain"
	"tenant-portal-backend/internal/logger"
)

type houseRepository struct {
	conn
}

func (r *houseRepository) Create(ctx context.Context, h *domain.House) error {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	if h.Availability == "" {
		h.Availability = domain.HouseAvailable
	}
	logger.DatabaseCall("INSERT", "houses", "houseNo", h.HouseNo)
	query := `INSERT INTO houses (house_no, price, availability) VALUES ($1, $2, $3) RETURNING id`
	err := r.db.QueryRowContext(ctx, query, h.HouseNo, h.Price, h.Availability).Scan(&h.ID)
	logger.DatabaseResult("INSERT", 1, err, "houseID", h.ID)
	if isUniqueViolation(err) {
		return domain.NewValidationError("house number already exists", map[string]string{"houseNo": h.HouseNo})
	}
	return translate("create house", err, nil)
}

func (r *houseRepository) GetByID(ctx context.Context, id int32) (*domain.House, error) {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	h := &domain.House{}
	query := `SELECT id, house_no, price, availability FROM houses WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&h.ID, &h.HouseNo, &h.Price, &h.Availability)
	if err != nil {
		return nil, translate("get house", err, domain.ErrHouseNotFound)
	}
	return h, nil
}

func (r *houseRepository) Update(ctx context.Context, h *domain.House) error {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	logger.DatabaseCall("UPDATE", "houses", "houseID", h.ID, "houseNo", h.HouseNo)
	query := `UPDATE houses SET house_no = $1, price = $2 WHERE id = $3 RETURNING availability`
	err := r.db.QueryRowContext(ctx, query, h.HouseNo, h.Price, h.ID).Scan(&h.Availability)
	logger.DatabaseResult("UPDATE", 1, err, "houseID", h.ID)
	if isUniqueViolation(err) {
		return domain.NewValidationError("house number already exists", map[string]string{"houseNo": h.HouseNo})
	}
	return translate("update house", err, domain.ErrHouseNotFound)
}

// List returns houses ordered by number. An empty availability lists all.
func (r *houseRepository) List(ctx context.Context, availability domain.HouseAvailability) ([]domain.House, error) {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	query := `SELECT id, house_no, price, availability FROM houses`
	var args []any
	if availability != "" {
		query += ` WHERE availability = $1`
		args = append(args, availability)
	}
	query += ` ORDER BY house_no`

	logger.DatabaseCall("SELECT", "houses", "availability", availability)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.DatabaseResult("SELECT", 0, err)
		return nil, translate("list houses", err, nil)
	}
	defer rows.Close()

	houses := []domain.House{}
	for rows.Next() {
		var h domain.House
		if err := rows.Scan(&h.ID, &h.HouseNo, &h.Price, &h.Availability); err != nil {
			return nil, translate("list houses", err, nil)
		}
		houses = append(houses, h)
	}
	if err := rows.Err(); err != nil {
		return nil, translate("list houses", err, nil)
	}
	logger.DatabaseResult("SELECT", int64(len(houses)), nil)
	return houses, nil
}

func (r *houseRepository) SetAvailability(ctx context.Context, id int32, from, to domain.HouseAvailability) (bool, error) {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	logger.DatabaseCall("UPDATE", "houses", "houseID", id, "from", from, "to", to)
	query := `UPDATE houses SET availability = $1 WHERE id = $2 AND availability = $3`
	res, err := r.db.ExecContext(ctx, query, to, id, from)
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err, "houseID", id)
		return false, translate("set house availability", err, nil)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, translate("set house availability", err, nil)
	}
	logger.DatabaseResult("UPDATE", n, nil, "houseID", id)
	return n == 1, nil
}
