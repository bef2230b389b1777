package repositories

import (
	"context"
	"database/sql"
	"errors"

	intconfig "tiketku/internal/config"
	"tiketku/internal/domain"
	"tiketku/internal/domain/models"
)

type BookingRepository struct {
	DB *sql.DB
}

func (r BookingRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

const bookingColumns = `id, trip_id, booking_reference, passenger_count, total_amount, status, payment_status, COALESCE(requester_id,0), created_at`

func scanBooking(row *sql.Row) (models.Booking, error) {
	var b models.Booking
	var status, payStatus string
	err := row.Scan(
		&b.ID,
		&b.TripID,
		&b.BookingReference,
		&b.PassengerCount,
		&b.TotalAmount,
		&status,
		&payStatus,
		&b.RequesterID,
		&b.CreatedAt,
	)
	if err != nil {
		return models.Booking{}, err
	}
	b.Status = models.BookingStatus(status)
	b.PaymentStatus = models.BookingPaymentStatus(payStatus)
	return b, nil
}

// CreateTx inserts the booking inside the coordinator's transaction and
// populates the generated ID. created_at is written from the caller's clock
// so the creation response carries the same timestamp as the row. Duplicate
// booking_reference surfaces as the driver's 1062 error for the caller's
// regenerate-and-retry loop.
func (r BookingRepository) CreateTx(ctx context.Context, tx *sql.Tx, b *models.Booking) error {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO bookings (trip_id, booking_reference, passenger_count, total_amount, status, payment_status, requester_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		b.TripID, b.BookingReference, b.PassengerCount, b.TotalAmount, b.Status, b.PaymentStatus, nullIfZero(b.RequesterID), b.CreatedAt,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = id
	return nil
}

func (r BookingRepository) GetByID(ctx context.Context, id int64) (models.Booking, error) {
	row := r.db().QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=? LIMIT 1`, id)
	b, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Booking{}, domain.NotFoundError{Resource: "booking", Err: err}
	}
	if err != nil {
		return models.Booking{}, domain.PersistenceError{Op: "get booking", Err: err}
	}
	return b, nil
}

func (r BookingRepository) GetByReference(ctx context.Context, ref string) (models.Booking, error) {
	row := r.db().QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE booking_reference=? LIMIT 1`, ref)
	b, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Booking{}, domain.NotFoundError{Resource: "booking", Err: err}
	}
	if err != nil {
		return models.Booking{}, domain.PersistenceError{Op: "get booking", Err: err}
	}
	return b, nil
}

// GetForUpdateTx locks the booking row so status transitions serialize.
func (r BookingRepository) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id int64) (models.Booking, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=? FOR UPDATE`, id)
	b, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Booking{}, domain.NotFoundError{Resource: "booking", Err: err}
	}
	if err != nil {
		return models.Booking{}, domain.PersistenceError{Op: "lock booking", Err: err}
	}
	return b, nil
}

// TransitionTx moves a booking between statuses, conditional on the current
// status so concurrent transitions cannot double-apply. Returns false when
// the booking was not in any of the expected statuses.
func (r BookingRepository) TransitionTx(ctx context.Context, tx *sql.Tx, id int64, from []models.BookingStatus, to models.BookingStatus, payStatus models.BookingPaymentStatus) (bool, error) {
	if len(from) == 0 {
		return false, domain.ValidationError{Field: "from", Msg: "status asal kosong"}
	}
	query := `UPDATE bookings SET status=?, payment_status=?, updated_at=NOW() WHERE id=? AND status IN (?`
	args := []any{to, payStatus, id, from[0]}
	for _, s := range from[1:] {
		query += ",?"
		args = append(args, s)
	}
	query += ")"
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return false, domain.PersistenceError{Op: "transition booking", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, domain.PersistenceError{Op: "transition booking", Err: err}
	}
	return n == 1, nil
}

func nullIfZero(n int64) any {
	if n == 0 {
		return nil
	}
	return n
}
