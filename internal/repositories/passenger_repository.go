package repositories

import (
	"context"
	"database/sql"

	intconfig "tiketku/internal/config"
	"tiketku/internal/domain"
	"tiketku/internal/domain/models"
)

type PassengerRepository struct {
	DB *sql.DB
}

func (r PassengerRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

// CreateBulkTx inserts all passengers of a booking in one statement, inside
// the booking transaction. Passengers never exist without their booking.
func (r PassengerRepository) CreateBulkTx(ctx context.Context, tx *sql.Tx, bookingID int64, passengers []models.PassengerInput) error {
	if len(passengers) == 0 {
		return nil
	}
	query := `INSERT INTO passengers (booking_id, full_name, age, phone) VALUES `
	args := make([]any, 0, len(passengers)*4)
	for i, p := range passengers {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?)"
		args = append(args, bookingID, p.FullName, p.Age, p.Phone)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// ListByBooking returns passengers ordered by insertion.
func (r PassengerRepository) ListByBooking(ctx context.Context, bookingID int64) ([]models.Passenger, error) {
	rows, err := r.db().QueryContext(ctx, `
		SELECT id, booking_id, full_name, age, COALESCE(phone,'')
		FROM passengers
		WHERE booking_id=?
		ORDER BY id`, bookingID)
	if err != nil {
		return nil, domain.PersistenceError{Op: "list passengers", Err: err}
	}
	defer rows.Close()

	out := []models.Passenger{}
	for rows.Next() {
		var p models.Passenger
		if err := rows.Scan(&p.ID, &p.BookingID, &p.FullName, &p.Age, &p.Phone); err != nil {
			return nil, domain.PersistenceError{Op: "scan passenger", Err: err}
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.PersistenceError{Op: "list passengers", Err: err}
	}
	return out, nil
}
