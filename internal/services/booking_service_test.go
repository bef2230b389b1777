package services

import (
	"context"
	"database/sql"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"

	"tiketku/internal/domain"
	"tiketku/internal/domain/models"
	"tiketku/internal/queue"
	"tiketku/internal/repositories"
)

type dispatcherRecorder struct {
	mu        sync.Mutex
	created   int
	cancelled int
	settled   int
}

func (d *dispatcherRecorder) BookingCreated(queue.BookingCreatedEvent) {
	d.mu.Lock()
	d.created++
	d.mu.Unlock()
}

func (d *dispatcherRecorder) BookingCancelled(queue.BookingCancelledEvent) {
	d.mu.Lock()
	d.cancelled++
	d.mu.Unlock()
}

func (d *dispatcherRecorder) PaymentSettled(queue.PaymentSettledEvent) {
	d.mu.Lock()
	d.settled++
	d.mu.Unlock()
}

func (d *dispatcherRecorder) counts() (int, int, int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.created, d.cancelled, d.settled
}

func silentAudit() AuditRecorder {
	return AuditRecorder{Insert: func(context.Context, models.AuditEntry) error { return nil }}
}

func newBookingService(db *sql.DB, disp *dispatcherRecorder) *BookingService {
	tripRepo := repositories.TripRepository{DB: db}
	return &BookingService{
		DB:                 db,
		TripRepo:           tripRepo,
		BookingRepo:        repositories.BookingRepository{DB: db},
		PassengerRepo:      repositories.PassengerRepository{DB: db},
		Inventory:          SeatInventory{TripRepo: tripRepo},
		Audit:              silentAudit(),
		Notifier:           disp,
		CancellationCutoff: 2 * time.Hour,
	}
}

func bookingRow(id, tripID int64, status, payStatus string, count int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "trip_id", "booking_reference", "passenger_count", "total_amount", "status", "payment_status", "requester_id", "created_at",
	}).AddRow(id, tripID, "TK-TEST1234", count, int64(40000), status, payStatus, int64(0), time.Now())
}

func twoPassengers() []models.PassengerInput {
	return []models.PassengerInput{
		{FullName: "Budi Santoso", Age: 30, Phone: "0811"},
		{FullName: "Sari Santoso", Age: 28},
	}
}

func TestCreateBookingRollsBackWhenPassengerInsertFails(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM trips WHERE").
		WillReturnRows(tripRow(1, 10, "scheduled"))
	mock.ExpectExec("UPDATE trips").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO bookings").
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectExec("INSERT INTO passengers").
		WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	disp := &dispatcherRecorder{}
	svc := newBookingService(db, disp)

	_, err = svc.CreateBooking(context.Background(), domain.Guest(), CreateBookingInput{
		TripID:        1,
		PaymentMethod: "cash",
		Passengers:    twoPassengers(),
	})
	if !domain.IsPersistence(err) {
		t.Fatalf("expected PersistenceError, got %v", err)
	}
	if created, _, _ := disp.counts(); created != 0 {
		t.Fatalf("tidak boleh ada event setelah rollback, got %d", created)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateBookingRetriesOnReferenceCollision(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM trips WHERE").
		WillReturnRows(tripRow(1, 10, "scheduled"))
	mock.ExpectExec("UPDATE trips").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO bookings").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	mock.ExpectExec("INSERT INTO bookings").
		WillReturnResult(sqlmock.NewResult(9, 1))
	mock.ExpectExec("INSERT INTO passengers").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	disp := &dispatcherRecorder{}
	svc := newBookingService(db, disp)
	now := time.Date(2026, 8, 20, 9, 30, 0, 0, time.UTC)
	svc.Now = func() time.Time { return now }

	b, err := svc.CreateBooking(context.Background(), domain.Guest(), CreateBookingInput{
		TripID:        1,
		PaymentMethod: "cash",
		Passengers:    twoPassengers(),
	})
	if err != nil {
		t.Fatalf("create error: %v", err)
	}
	if b.ID != 9 {
		t.Fatalf("booking id salah: got %d want 9", b.ID)
	}
	if b.BookingReference == "" {
		t.Fatalf("referensi kosong")
	}
	if b.TotalAmount != 300000 {
		t.Fatalf("total salah: got %d want 300000", b.TotalAmount)
	}
	// timestamp respons sama dengan yang ditulis ke baris
	if !b.CreatedAt.Equal(now) {
		t.Fatalf("created_at salah: got %v want %v", b.CreatedAt, now)
	}
	if created, _, _ := disp.counts(); created != 1 {
		t.Fatalf("event booking.created harus 1, got %d", created)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateBookingValidation(t *testing.T) {
	svc := &BookingService{}
	cases := []CreateBookingInput{
		{TripID: 0, PaymentMethod: "cash", Passengers: twoPassengers()},
		{TripID: 1, PaymentMethod: "cash"},
		{TripID: 1, PaymentMethod: "pulsa", Passengers: twoPassengers()},
		{TripID: 1, PaymentMethod: "cash", Passengers: []models.PassengerInput{{FullName: "  ", Age: 20}}},
		{TripID: 1, PaymentMethod: "cash", Passengers: []models.PassengerInput{{FullName: "A", Age: -1}}},
	}
	for i, in := range cases {
		if _, err := svc.CreateBooking(context.Background(), domain.Guest(), in); !domain.IsValidation(err) {
			t.Fatalf("case %d: expected ValidationError, got %v", i, err)
		}
	}
}

func TestCancelBookingAtCutoffRejected(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	departure := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM bookings WHERE").
		WillReturnRows(bookingRow(5, 1, "pending", "pending", 2))
	mock.ExpectQuery("SELECT (.+) FROM trips WHERE").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "route_from", "route_to", "departure_time", "total_seats", "available_seats", "base_price", "status",
		}).AddRow(1, "Jakarta", "Bandung", departure, 40, 10, int64(150000), "scheduled"))
	mock.ExpectRollback()

	disp := &dispatcherRecorder{}
	svc := newBookingService(db, disp)
	// tepat di batas jendela: harus ditolak
	svc.Now = func() time.Time { return departure.Add(-2 * time.Hour) }

	_, err = svc.CancelBooking(context.Background(), domain.Guest(), 5)
	if !domain.IsPolicyViolation(err) {
		t.Fatalf("expected PolicyViolation di batas cutoff, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCancelBookingJustBeforeCutoffSucceeds(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	departure := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM bookings WHERE").
		WillReturnRows(bookingRow(5, 1, "pending", "pending", 2))
	mock.ExpectQuery("SELECT (.+) FROM trips WHERE").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "route_from", "route_to", "departure_time", "total_seats", "available_seats", "base_price", "status",
		}).AddRow(1, "Jakarta", "Bandung", departure, 40, 10, int64(150000), "scheduled"))
	mock.ExpectExec("UPDATE trips").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE bookings").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	disp := &dispatcherRecorder{}
	svc := newBookingService(db, disp)
	svc.Now = func() time.Time { return departure.Add(-2*time.Hour - time.Second) }

	b, err := svc.CancelBooking(context.Background(), domain.Guest(), 5)
	if err != nil {
		t.Fatalf("cancel error: %v", err)
	}
	if b.Status != models.BookingCancelled {
		t.Fatalf("status salah: got %s want cancelled", b.Status)
	}
	if _, cancelled, _ := disp.counts(); cancelled != 1 {
		t.Fatalf("event booking.cancelled harus 1, got %d", cancelled)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCancelBookingAlreadyCancelledConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM bookings WHERE").
		WillReturnRows(bookingRow(5, 1, "cancelled", "pending", 2))
	mock.ExpectRollback()

	svc := newBookingService(db, &dispatcherRecorder{})
	_, err = svc.CancelBooking(context.Background(), domain.Guest(), 5)
	if !domain.IsConflict(err) {
		t.Fatalf("expected ConflictError untuk booking terminal, got %v", err)
	}
}

// fakeInventory models the serialized seat counter the DB row lock provides.
type fakeInventory struct {
	mu        sync.Mutex
	trip      models.Trip
	available int
}

func (f *fakeInventory) ReserveTx(ctx context.Context, tx *sql.Tx, tripID int64, count int) (models.Trip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.available < count {
		return models.Trip{}, domain.CapacityError{TripID: tripID, Requested: count, Available: f.available}
	}
	f.available -= count
	t := f.trip
	t.AvailableSeats = f.available
	return t, nil
}

func (f *fakeInventory) ReleaseTx(ctx context.Context, tx *sql.Tx, tripID int64, count int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.available += count
	return nil
}

func TestCreateBookingConcurrentNeverOversells(t *testing.T) {
	const totalSeats = 60
	const workers = 40
	const seatsEach = 2

	inv := &fakeInventory{
		trip: models.Trip{
			ID:            1,
			RouteFrom:     "Jakarta",
			RouteTo:       "Bandung",
			DepartureTime: time.Now().Add(24 * time.Hour),
			TotalSeats:    totalSeats,
			BasePrice:     100000,
			Status:        models.TripScheduled,
		},
		available: totalSeats,
	}

	var nextID atomic.Int64
	disp := &dispatcherRecorder{}
	svc := &BookingService{
		Inventory: inv,
		Audit:     silentAudit(),
		Notifier:  disp,
		TxRunner: func(ctx context.Context, fn func(tx *sql.Tx) error) error {
			return fn(nil)
		},
		CreateBookingTx: func(ctx context.Context, tx *sql.Tx, b *models.Booking) error {
			b.ID = nextID.Add(1)
			return nil
		},
		CreatePassengersTx: func(ctx context.Context, tx *sql.Tx, bookingID int64, passengers []models.PassengerInput) error {
			return nil
		},
	}

	var succeeded, capacity atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CreateBooking(context.Background(), domain.Guest(), CreateBookingInput{
				TripID:        1,
				PaymentMethod: "cash",
				Passengers:    twoPassengers(),
			})
			switch {
			case err == nil:
				succeeded.Add(1)
			case domain.IsCapacity(err):
				capacity.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := succeeded.Load(); got != totalSeats/seatsEach {
		t.Fatalf("booking sukses %d, want %d", got, totalSeats/seatsEach)
	}
	if got := capacity.Load(); got != workers-totalSeats/seatsEach {
		t.Fatalf("CapacityError %d, want %d", got, workers-totalSeats/seatsEach)
	}
	if inv.available != 0 {
		t.Fatalf("sisa kursi %d, want 0", inv.available)
	}
	if created, _, _ := disp.counts(); created != totalSeats/seatsEach {
		t.Fatalf("event booking.created %d, want %d", created, totalSeats/seatsEach)
	}
}
