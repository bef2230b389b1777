package services

import (
	"context"
	"database/sql"

	"tiketku/internal/domain"
	"tiketku/internal/domain/models"
	"tiketku/internal/repositories"
)

// Inventory is the seat-counter contract the coordinator depends on. All
// mutation of trips.available_seats goes through this interface; no other
// component touches the column.
type Inventory interface {
	// ReserveTx atomically checks and decrements the counter inside the
	// caller's transaction and returns the locked trip. Fails with
	// CapacityError when fewer than count seats remain, with
	// PolicyViolation when the trip is not scheduled, and never partially
	// decrements.
	ReserveTx(ctx context.Context, tx *sql.Tx, tripID int64, count int) (models.Trip, error)
	// ReleaseTx returns seats to the counter. Safe only when paired 1:1
	// with a prior successful ReserveTx; the coordinator calls it exactly
	// once per cancelled booking.
	ReleaseTx(ctx context.Context, tx *sql.Tx, tripID int64, count int) error
}

// SeatInventory is the MySQL-backed Inventory. The trip row lock taken by
// GetForUpdateTx makes reservation and cancellation on the same trip
// mutually exclusive; the conditional UPDATE keeps the counter in
// [0, total_seats] under arbitrary concurrency.
type SeatInventory struct {
	TripRepo repositories.TripRepository
}

func (s SeatInventory) ReserveTx(ctx context.Context, tx *sql.Tx, tripID int64, count int) (models.Trip, error) {
	if count <= 0 {
		return models.Trip{}, domain.ValidationError{Field: "count", Msg: "jumlah kursi tidak valid"}
	}
	trip, err := s.TripRepo.GetForUpdateTx(ctx, tx, tripID)
	if err != nil {
		return models.Trip{}, err
	}
	if !trip.Bookable() {
		return models.Trip{}, domain.PolicyViolation{Rule: "trip_not_bookable", Msg: "trip tidak menerima booking"}
	}
	ok, err := s.TripRepo.ReserveSeatsTx(ctx, tx, tripID, count)
	if err != nil {
		return models.Trip{}, err
	}
	if !ok {
		return models.Trip{}, domain.CapacityError{TripID: tripID, Requested: count, Available: trip.AvailableSeats}
	}
	trip.AvailableSeats -= count
	return trip, nil
}

func (s SeatInventory) ReleaseTx(ctx context.Context, tx *sql.Tx, tripID int64, count int) error {
	if count <= 0 {
		return domain.ValidationError{Field: "count", Msg: "jumlah kursi tidak valid"}
	}
	return s.TripRepo.ReleaseSeatsTx(ctx, tx, tripID, count)
}
