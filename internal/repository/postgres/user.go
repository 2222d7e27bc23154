package postgres

import (
	"context"

	"tenant-portal-backend/internal/domain"
	"tenant-portal-backend/internal/logger"
)

type userRepository struct {
	conn
}

func (r *userRepository) GetByID(ctx context.Context, id int32) (*domain.User, error) {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	logger.DatabaseCall("SELECT", "users", "userID", id)
	u := &domain.User{}
	query := `SELECT id, name, email, phone_number, role FROM users WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&u.ID, &u.Name, &u.Email, &u.PhoneNumber, &u.Role)
	if err != nil {
		logger.DatabaseResult("SELECT", 0, err, "userID", id)
		return nil, translate("get user", err, domain.ErrNotFound)
	}
	return u, nil
}
