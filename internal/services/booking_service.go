package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"tiketku/internal/domain"
	"tiketku/internal/domain/models"
	"tiketku/internal/gateway"
	"tiketku/internal/queue"
	"tiketku/internal/repositories"
	"tiketku/internal/utils"
)

// CreateBookingInput is the coordinator's request to reserve seats and
// register passengers in one atomic unit.
type CreateBookingInput struct {
	TripID        int64                   `json:"trip_id"`
	PaymentMethod string                  `json:"payment_method"`
	Passengers    []models.PassengerInput `json:"passengers"`
}

// BookingDetail is a booking with its passengers and trip, as returned to
// read callers.
type BookingDetail struct {
	Booking    models.Booking     `json:"booking"`
	Passengers []models.Passenger `json:"passengers"`
	Trip       models.Trip        `json:"trip"`
}

// BookingService coordinates seat reservation, booking and passenger
// creation, and time-windowed cancellation. Each mutation runs in a single
// transaction; notifications and payment initiation happen strictly after
// commit.
type BookingService struct {
	DB            *sql.DB
	TripRepo      repositories.TripRepository
	BookingRepo   repositories.BookingRepository
	PassengerRepo repositories.PassengerRepository
	Inventory     Inventory
	Audit         AuditRecorder
	Notifier      Dispatcher
	// InitiatePayment starts the payment flow for a committed booking. The
	// call is detached from the request so a slow provider cannot hold the
	// booking response.
	InitiatePayment func(ctx context.Context, b models.Booking, method, contactPhone string)

	// CancellationCutoff is how long before departure cancellations close.
	CancellationCutoff time.Duration

	// Overridable seams for tests.
	TxRunner           TxRunner
	CreateBookingTx    func(ctx context.Context, tx *sql.Tx, b *models.Booking) error
	CreatePassengersTx func(ctx context.Context, tx *sql.Tx, bookingID int64, passengers []models.PassengerInput) error
	Now                func() time.Time

	RequestID string
}

func (s *BookingService) runTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	if s.TxRunner != nil {
		return s.TxRunner(ctx, fn)
	}
	return runTx(ctx, s.DB, fn)
}

func (s *BookingService) createBookingTx(ctx context.Context, tx *sql.Tx, b *models.Booking) error {
	if s.CreateBookingTx != nil {
		return s.CreateBookingTx(ctx, tx, b)
	}
	return s.BookingRepo.CreateTx(ctx, tx, b)
}

func (s *BookingService) createPassengersTx(ctx context.Context, tx *sql.Tx, bookingID int64, passengers []models.PassengerInput) error {
	if s.CreatePassengersTx != nil {
		return s.CreatePassengersTx(ctx, tx, bookingID, passengers)
	}
	return s.PassengerRepo.CreateBulkTx(ctx, tx, bookingID, passengers)
}

func (s *BookingService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return utils.NowUTC()
}

// CreateBooking reserves seats, creates the booking and all its passengers
// atomically, then hands the committed booking to payment initiation. Any
// failure inside the transaction rolls the whole unit back, seats included.
func (s *BookingService) CreateBooking(ctx context.Context, principal domain.Principal, in CreateBookingInput) (models.Booking, error) {
	if err := validateCreateBooking(in); err != nil {
		return models.Booking{}, err
	}

	var (
		booking models.Booking
		trip    models.Trip
	)
	err := s.runTx(ctx, func(tx *sql.Tx) error {
		locked, err := s.Inventory.ReserveTx(ctx, tx, in.TripID, len(in.Passengers))
		if err != nil {
			return err
		}
		trip = locked

		b := models.Booking{
			TripID:         in.TripID,
			PassengerCount: len(in.Passengers),
			TotalAmount:    PriceTotal(trip.BasePrice, in.Passengers),
			Status:         models.BookingPending,
			PaymentStatus:  models.BookingPaymentPending,
			RequesterID:    principal.UserID,
			CreatedAt:      s.now(),
		}
		if err := s.insertWithReference(ctx, tx, &b); err != nil {
			return err
		}
		if err := s.createPassengersTx(ctx, tx, b.ID, in.Passengers); err != nil {
			return domain.PersistenceError{Op: "create passengers", Err: err}
		}
		booking = b
		return nil
	})
	if err != nil {
		return models.Booking{}, err
	}

	s.Audit.Record(ctx, principal.Actor(), models.AuditActionCreate, "booking", booking.ID, nil, booking)
	utils.LogEvent(s.RequestID, "booking", "create",
		fmt.Sprintf("booking %s dibuat (trip %d, %d penumpang, total %s)",
			booking.BookingReference, booking.TripID, booking.PassengerCount, utils.FormatRupiah(booking.TotalAmount)))

	contactPhone := in.Passengers[0].Phone
	s.Notifier.BookingCreated(queue.BookingCreatedEvent{
		BookingID:        booking.ID,
		BookingReference: booking.BookingReference,
		TripID:           trip.ID,
		RouteFrom:        trip.RouteFrom,
		RouteTo:          trip.RouteTo,
		DepartureTime:    utils.FormatDateTime(trip.DepartureTime),
		PassengerCount:   booking.PassengerCount,
		TotalAmount:      booking.TotalAmount,
		ContactPhone:     contactPhone,
		CreatedAt:        utils.FormatDateTime(booking.CreatedAt),
	})

	if s.InitiatePayment != nil {
		go s.InitiatePayment(context.Background(), booking, in.PaymentMethod, contactPhone)
	}
	return booking, nil
}

// insertWithReference inserts the booking, regenerating the reference on a
// duplicate-key collision. Only the INSERT statement rolls back on 1062, so
// retrying inside the open transaction is safe.
func (s *BookingService) insertWithReference(ctx context.Context, tx *sql.Tx, b *models.Booking) error {
	for attempt := 1; attempt <= refMaxAttempts; attempt++ {
		ref, err := NewBookingReference()
		if err != nil {
			return err
		}
		b.BookingReference = ref
		err = s.createBookingTx(ctx, tx, b)
		if err == nil {
			return nil
		}
		if !isDuplicateKey(err) {
			return domain.PersistenceError{Op: "create booking", Err: err}
		}
		utils.LogEvent(s.RequestID, "booking", "create",
			fmt.Sprintf("referensi %s bentrok, coba lagi (%d/%d)", ref, attempt, refMaxAttempts))
	}
	return domain.ConflictError{Resource: "booking_reference", Msg: "gagal membuat referensi unik"}
}

// CancelBooking releases the booking's seats and marks it cancelled, both in
// one transaction. Allowed only while departure is more than the cutoff away.
func (s *BookingService) CancelBooking(ctx context.Context, principal domain.Principal, bookingID int64) (models.Booking, error) {
	var (
		booking models.Booking
		before  models.Booking
	)
	err := s.runTx(ctx, func(tx *sql.Tx) error {
		b, err := s.BookingRepo.GetForUpdateTx(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		if principal.Role != "admin" && b.RequesterID != 0 && b.RequesterID != principal.UserID {
			return domain.NotFoundError{Resource: "booking"}
		}
		if b.Status.Terminal() {
			return domain.ConflictError{Resource: "booking", Msg: "booking sudah " + string(b.Status)}
		}
		trip, err := s.TripRepo.GetForUpdateTx(ctx, tx, b.TripID)
		if err != nil {
			return err
		}
		cutoff := trip.DepartureTime.Add(-s.CancellationCutoff)
		if !s.now().Before(cutoff) {
			return domain.PolicyViolation{
				Rule: "cancellation_window",
				Msg:  fmt.Sprintf("pembatalan ditutup %s sebelum keberangkatan", s.CancellationCutoff),
			}
		}
		if err := s.Inventory.ReleaseTx(ctx, tx, b.TripID, b.PassengerCount); err != nil {
			return err
		}
		ok, err := s.BookingRepo.TransitionTx(ctx, tx, b.ID,
			[]models.BookingStatus{models.BookingPending, models.BookingConfirmed},
			models.BookingCancelled, b.PaymentStatus)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ConflictError{Resource: "booking", Msg: "status berubah saat pembatalan"}
		}
		before = b
		booking = b
		booking.Status = models.BookingCancelled
		return nil
	})
	if err != nil {
		return models.Booking{}, err
	}

	s.Audit.Record(ctx, principal.Actor(), models.AuditActionCancel, "booking", booking.ID, before, booking)
	utils.LogEvent(s.RequestID, "booking", "cancel",
		fmt.Sprintf("booking %s dibatalkan, %d kursi dikembalikan", booking.BookingReference, booking.PassengerCount))
	s.Notifier.BookingCancelled(queue.BookingCancelledEvent{
		BookingID:        booking.ID,
		BookingReference: booking.BookingReference,
		TripID:           booking.TripID,
		SeatsReleased:    booking.PassengerCount,
		CancelledAt:      utils.FormatDateTime(s.now()),
	})
	return booking, nil
}

// GetBooking returns a booking with its passengers and trip. Non-admin
// callers only see their own bookings.
func (s *BookingService) GetBooking(ctx context.Context, principal domain.Principal, bookingID int64) (BookingDetail, error) {
	b, err := s.BookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return BookingDetail{}, err
	}
	return s.detail(ctx, principal, b)
}

// GetBookingByReference resolves the human-facing booking code.
func (s *BookingService) GetBookingByReference(ctx context.Context, principal domain.Principal, ref string) (BookingDetail, error) {
	b, err := s.BookingRepo.GetByReference(ctx, strings.ToUpper(strings.TrimSpace(ref)))
	if err != nil {
		return BookingDetail{}, err
	}
	return s.detail(ctx, principal, b)
}

func (s *BookingService) detail(ctx context.Context, principal domain.Principal, b models.Booking) (BookingDetail, error) {
	if principal.Role != "admin" && b.RequesterID != 0 && b.RequesterID != principal.UserID {
		return BookingDetail{}, domain.NotFoundError{Resource: "booking"}
	}
	passengers, err := s.PassengerRepo.ListByBooking(ctx, b.ID)
	if err != nil {
		return BookingDetail{}, err
	}
	trip, err := s.TripRepo.GetByID(ctx, b.TripID)
	if err != nil {
		return BookingDetail{}, err
	}
	return BookingDetail{Booking: b, Passengers: passengers, Trip: trip}, nil
}

func validateCreateBooking(in CreateBookingInput) error {
	if in.TripID <= 0 {
		return domain.ValidationError{Field: "trip_id", Msg: "wajib diisi"}
	}
	if len(in.Passengers) == 0 {
		return domain.ValidationError{Field: "passengers", Msg: "minimal satu penumpang"}
	}
	if !gateway.KnownMethod(in.PaymentMethod) {
		return domain.ValidationError{Field: "payment_method", Msg: "metode pembayaran tidak dikenal"}
	}
	for i, p := range in.Passengers {
		if strings.TrimSpace(p.FullName) == "" {
			return domain.ValidationError{Field: fmt.Sprintf("passengers[%d].full_name", i), Msg: "wajib diisi"}
		}
		if p.Age < 0 || p.Age > 120 {
			return domain.ValidationError{Field: fmt.Sprintf("passengers[%d].age", i), Msg: "umur tidak valid"}
		}
	}
	return nil
}

// MySQL error 1062: duplicate entry for a unique index.
func isDuplicateKey(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}
