package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"time"

	"github.com/lib/pq"

	"tenant-portal-backend/internal/domain"
	"tenant-portal-backend/internal/logger"
	"tenant-portal-backend/internal/repository"
)

const uniqueViolation = "23505"

//go:embed schema.sql
var schema string

type Store struct {
	db *sql.DB
	repository.UserRepository
	repository.HouseRepository
	repository.RentalRepository
	repository.PaymentRepository
}

// NewStore wires every repository over db. A positive timeout bounds each
// statement.
func NewStore(db *sql.DB, timeout time.Duration) *Store {
	c := conn{db: db, timeout: timeout}
	return &Store{
		db:                db,
		UserRepository:    &userRepository{c},
		HouseRepository:   &houseRepository{c},
		RentalRepository:  &rentalRepository{c},
		PaymentRepository: &paymentRepository{c},
	}
}

func (s *Store) DB() *sql.DB { return s.db }

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return domain.Persistence("ping", err)
	}
	return nil
}

// Migrate creates the tables and indexes this service owns. It is safe to
// run on every start.
func Migrate(ctx context.Context, db *sql.DB) error {
	logger.DatabaseCall("MIGRATE", "schema")
	_, err := db.ExecContext(ctx, schema)
	logger.DatabaseResult("MIGRATE", 0, err)
	if err != nil {
		return domain.Persistence("migrate", err)
	}
	return nil
}

type conn struct {
	db      *sql.DB
	timeout time.Duration
}

func (c conn) ctx(parent context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, c.timeout)
}

// translate maps driver errors onto domain errors. notFound is returned for
// sql.ErrNoRows.
func translate(op string, err error, notFound error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) && notFound != nil {
		return notFound
	}
	return domain.Persistence(op, err)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

type scanner interface {
	Scan(dest ...any) error
}
