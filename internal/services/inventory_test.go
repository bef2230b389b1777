package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"tiketku/internal/domain"
	"tiketku/internal/repositories"
)

func tripRow(id int64, available int, status string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "route_from", "route_to", "departure_time", "total_seats", "available_seats", "base_price", "status",
	}).AddRow(id, "Jakarta", "Bandung", time.Now().Add(24*time.Hour), 40, available, int64(150000), status)
}

func beginTx(t *testing.T, db *sql.DB, mock sqlmock.Sqlmock) *sql.Tx {
	t.Helper()
	mock.ExpectBegin()
	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("begin error: %v", err)
	}
	return tx
}

func TestReserveTxDecrementsWhenAvailable(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	tx := beginTx(t, db, mock)
	mock.ExpectQuery("SELECT (.+) FROM trips WHERE").
		WillReturnRows(tripRow(1, 10, "scheduled"))
	mock.ExpectExec("UPDATE trips").
		WillReturnResult(sqlmock.NewResult(0, 1))

	inv := SeatInventory{TripRepo: repositories.TripRepository{DB: db}}
	trip, err := inv.ReserveTx(context.Background(), tx, 1, 2)
	if err != nil {
		t.Fatalf("reserve error: %v", err)
	}
	if trip.AvailableSeats != 8 {
		t.Fatalf("available_seats salah: got %d want 8", trip.AvailableSeats)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestReserveTxCapacityExceeded(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	tx := beginTx(t, db, mock)
	mock.ExpectQuery("SELECT (.+) FROM trips WHERE").
		WillReturnRows(tripRow(1, 1, "scheduled"))
	// UPDATE mengenai 0 baris: kursi tidak cukup
	mock.ExpectExec("UPDATE trips").
		WillReturnResult(sqlmock.NewResult(0, 0))

	inv := SeatInventory{TripRepo: repositories.TripRepository{DB: db}}
	_, err = inv.ReserveTx(context.Background(), tx, 1, 3)
	if !domain.IsCapacity(err) {
		t.Fatalf("expected CapacityError, got %v", err)
	}
	var capErr domain.CapacityError
	if !errors.As(err, &capErr) {
		t.Fatalf("errors.As gagal: %v", err)
	}
	if capErr.Requested != 3 || capErr.Available != 1 {
		t.Fatalf("isi CapacityError salah: %+v", capErr)
	}
}

func TestReserveTxRejectsNonScheduledTrip(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	tx := beginTx(t, db, mock)
	mock.ExpectQuery("SELECT (.+) FROM trips WHERE").
		WillReturnRows(tripRow(1, 10, "cancelled"))

	inv := SeatInventory{TripRepo: repositories.TripRepository{DB: db}}
	_, err = inv.ReserveTx(context.Background(), tx, 1, 2)
	if !domain.IsPolicyViolation(err) {
		t.Fatalf("expected PolicyViolation, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("tidak boleh ada UPDATE untuk trip non-scheduled: %v", err)
	}
}

func TestReleaseTxOverflowConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	tx := beginTx(t, db, mock)
	mock.ExpectExec("UPDATE trips").
		WillReturnResult(sqlmock.NewResult(0, 0))

	inv := SeatInventory{TripRepo: repositories.TripRepository{DB: db}}
	err = inv.ReleaseTx(context.Background(), tx, 1, 5)
	if !domain.IsConflict(err) {
		t.Fatalf("expected ConflictError saat pelepasan melebihi kapasitas, got %v", err)
	}
}
