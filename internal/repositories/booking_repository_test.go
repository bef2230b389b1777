package repositories

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"tiketku/internal/domain"
	"tiketku/internal/domain/models"
)

func TestTransitionTxConditionalOnCurrentStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("begin error: %v", err)
	}

	mock.ExpectExec("UPDATE bookings SET status").
		WithArgs("cancelled", "pending", int64(5), "pending", "confirmed").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := BookingRepository{DB: db}
	ok, err := repo.TransitionTx(context.Background(), tx, 5,
		[]models.BookingStatus{models.BookingPending, models.BookingConfirmed},
		models.BookingCancelled, models.BookingPaymentPending)
	if err != nil {
		t.Fatalf("transition error: %v", err)
	}
	if !ok {
		t.Fatalf("transisi valid harus mengenai satu baris")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTransitionTxNoopWhenStatusAlreadyMoved(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("begin error: %v", err)
	}

	mock.ExpectExec("UPDATE bookings SET status").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := BookingRepository{DB: db}
	ok, err := repo.TransitionTx(context.Background(), tx, 5,
		[]models.BookingStatus{models.BookingPending},
		models.BookingConfirmed, models.BookingPaymentPaid)
	if err != nil {
		t.Fatalf("transition error: %v", err)
	}
	if ok {
		t.Fatalf("status yang sudah bergeser harus no-op")
	}
}

func TestTransitionTxRejectsEmptyFromSet(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("begin error: %v", err)
	}

	repo := BookingRepository{DB: db}
	_, err = repo.TransitionTx(context.Background(), tx, 5, nil, models.BookingConfirmed, models.BookingPaymentPaid)
	if !domain.IsValidation(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestGetByReferenceNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM bookings WHERE booking_reference=").
		WithArgs("TK-MISSING1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	repo := BookingRepository{DB: db}
	_, err = repo.GetByReference(context.Background(), "TK-MISSING1")
	if !domain.IsNotFound(err) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}
