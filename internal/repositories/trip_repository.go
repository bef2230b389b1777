package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	intconfig "tiketku/internal/config"
	"tiketku/internal/domain"
	"tiketku/internal/domain/models"
)

// TripRepository reads trip rows and mutates the available_seats counter.
// The counter is only ever touched through ReserveSeatsTx/ReleaseSeatsTx,
// both of which run inside the caller's transaction so the decrement commits
// or rolls back together with the booking rows.
type TripRepository struct {
	DB *sql.DB
}

func (r TripRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

const tripColumns = `id, route_from, route_to, departure_time, total_seats, available_seats, base_price, status`

func scanTrip(row *sql.Row) (models.Trip, error) {
	var t models.Trip
	var status string
	err := row.Scan(
		&t.ID,
		&t.RouteFrom,
		&t.RouteTo,
		&t.DepartureTime,
		&t.TotalSeats,
		&t.AvailableSeats,
		&t.BasePrice,
		&status,
	)
	if err != nil {
		return models.Trip{}, err
	}
	t.Status = models.TripStatus(status)
	return t, nil
}

// GetByID fetches a trip outside any transaction, for read-only paths.
func (r TripRepository) GetByID(ctx context.Context, id int64) (models.Trip, error) {
	row := r.db().QueryRowContext(ctx, `SELECT `+tripColumns+` FROM trips WHERE id=? LIMIT 1`, id)
	t, err := scanTrip(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Trip{}, domain.NotFoundError{Resource: "trip", Err: err}
	}
	if err != nil {
		return models.Trip{}, domain.PersistenceError{Op: "get trip", Err: err}
	}
	return t, nil
}

// ListUpcoming returns scheduled trips departing after the given time,
// soonest first.
func (r TripRepository) ListUpcoming(ctx context.Context, after time.Time, limit int) ([]models.Trip, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := r.db().QueryContext(ctx, `
		SELECT `+tripColumns+`
		FROM trips
		WHERE status = ? AND departure_time > ?
		ORDER BY departure_time
		LIMIT ?`,
		models.TripScheduled, after, limit,
	)
	if err != nil {
		return nil, domain.PersistenceError{Op: "list trips", Err: err}
	}
	defer rows.Close()

	out := []models.Trip{}
	for rows.Next() {
		var t models.Trip
		var status string
		if err := rows.Scan(&t.ID, &t.RouteFrom, &t.RouteTo, &t.DepartureTime, &t.TotalSeats, &t.AvailableSeats, &t.BasePrice, &status); err != nil {
			return nil, domain.PersistenceError{Op: "scan trip", Err: err}
		}
		t.Status = models.TripStatus(status)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.PersistenceError{Op: "list trips", Err: err}
	}
	return out, nil
}

// GetForUpdateTx locks the trip row for the duration of the transaction.
// Reservation and cancellation on the same trip serialize on this lock, so
// the seat counter is never raced. No external I/O may happen while the
// lock is held.
func (r TripRepository) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id int64) (models.Trip, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+tripColumns+` FROM trips WHERE id=? FOR UPDATE`, id)
	t, err := scanTrip(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Trip{}, domain.NotFoundError{Resource: "trip", Err: err}
	}
	if err != nil {
		return models.Trip{}, domain.PersistenceError{Op: "lock trip", Err: err}
	}
	return t, nil
}

// ReserveSeatsTx decrements available_seats only when enough seats remain.
// The WHERE clause makes read-check-decrement a single statement; zero rows
// affected means the capacity check failed and nothing was mutated.
func (r TripRepository) ReserveSeatsTx(ctx context.Context, tx *sql.Tx, tripID int64, count int) (bool, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE trips
		SET available_seats = available_seats - ?
		WHERE id = ? AND status = ? AND available_seats >= ?`,
		count, tripID, models.TripScheduled, count,
	)
	if err != nil {
		return false, domain.PersistenceError{Op: "reserve seats", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, domain.PersistenceError{Op: "reserve seats", Err: err}
	}
	return n == 1, nil
}

// ReleaseSeatsTx returns seats to inventory, guarded so available_seats can
// never exceed total_seats.
func (r TripRepository) ReleaseSeatsTx(ctx context.Context, tx *sql.Tx, tripID int64, count int) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE trips
		SET available_seats = available_seats + ?
		WHERE id = ? AND available_seats + ? <= total_seats`,
		count, tripID, count,
	)
	if err != nil {
		return domain.PersistenceError{Op: "release seats", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.PersistenceError{Op: "release seats", Err: err}
	}
	if n == 0 {
		return domain.ConflictError{Resource: "trip", Msg: "pelepasan kursi melebihi kapasitas"}
	}
	return nil
}
