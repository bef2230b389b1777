package repositories

import (
	"context"
	"database/sql"
	"errors"

	intconfig "tiketku/internal/config"
	"tiketku/internal/domain"
	"tiketku/internal/domain/models"
)

type PaymentRepository struct {
	DB *sql.DB
}

func (r PaymentRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

const paymentColumns = `id, booking_id, payment_ref, provider, COALESCE(provider_transaction_id,''), method, amount, status, created_at`

func scanPayment(row *sql.Row) (models.Payment, error) {
	var p models.Payment
	var status string
	err := row.Scan(
		&p.ID,
		&p.BookingID,
		&p.PaymentRef,
		&p.Provider,
		&p.ProviderTransactionID,
		&p.Method,
		&p.Amount,
		&status,
		&p.CreatedAt,
	)
	if err != nil {
		return models.Payment{}, err
	}
	p.Status = models.PaymentStatus(status)
	return p, nil
}

// Create inserts a new payment attempt. Runs outside the booking
// transaction: initiation happens after the booking committed.
func (r PaymentRepository) Create(ctx context.Context, p *models.Payment) error {
	res, err := r.db().ExecContext(ctx, `
		INSERT INTO payments (booking_id, payment_ref, provider, provider_transaction_id, method, amount, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.BookingID, p.PaymentRef, p.Provider, nullIfEmpty(p.ProviderTransactionID), p.Method, p.Amount, p.Status,
	)
	if err != nil {
		return domain.PersistenceError{Op: "create payment", Err: err}
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.PersistenceError{Op: "create payment", Err: err}
	}
	p.ID = id
	return nil
}

// SetProviderTransactionID records the gateway's transaction id once known.
// The column carries a unique index per provider; a duplicate means the
// gateway replayed an initiation and is surfaced as ConflictError.
func (r PaymentRepository) SetProviderTransactionID(ctx context.Context, paymentID int64, providerTxID string) error {
	_, err := r.db().ExecContext(ctx,
		`UPDATE payments SET provider_transaction_id=?, updated_at=NOW() WHERE id=?`,
		providerTxID, paymentID,
	)
	if err != nil {
		return domain.PersistenceError{Op: "set provider tx id", Err: err}
	}
	return nil
}

func (r PaymentRepository) GetByRef(ctx context.Context, ref string) (models.Payment, error) {
	row := r.db().QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE payment_ref=? LIMIT 1`, ref)
	p, err := scanPayment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Payment{}, domain.NotFoundError{Resource: "payment", Err: err}
	}
	if err != nil {
		return models.Payment{}, domain.PersistenceError{Op: "get payment", Err: err}
	}
	return p, nil
}

// GetByProviderTransactionID resolves an inbound webhook to a payment row.
func (r PaymentRepository) GetByProviderTransactionID(ctx context.Context, provider, providerTxID string) (models.Payment, error) {
	row := r.db().QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE provider=? AND provider_transaction_id=? LIMIT 1`,
		provider, providerTxID,
	)
	p, err := scanPayment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Payment{}, domain.NotFoundError{Resource: "payment", Err: err}
	}
	if err != nil {
		return models.Payment{}, domain.PersistenceError{Op: "get payment", Err: err}
	}
	return p, nil
}

// GetForUpdateTx locks a payment row for a state transition.
func (r PaymentRepository) GetForUpdateTx(ctx context.Context, tx *sql.Tx, ref string) (models.Payment, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE payment_ref=? FOR UPDATE`, ref)
	p, err := scanPayment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Payment{}, domain.NotFoundError{Resource: "payment", Err: err}
	}
	if err != nil {
		return models.Payment{}, domain.PersistenceError{Op: "lock payment", Err: err}
	}
	return p, nil
}

// TransitionTx updates payment status conditional on the current status, so
// a replayed webhook can never apply the same transition twice. Returns
// false when the payment was not in any of the expected statuses.
func (r PaymentRepository) TransitionTx(ctx context.Context, tx *sql.Tx, paymentID int64, from []models.PaymentStatus, to models.PaymentStatus) (bool, error) {
	if len(from) == 0 {
		return false, domain.ValidationError{Field: "from", Msg: "status asal kosong"}
	}
	query := `UPDATE payments SET status=?, updated_at=NOW() WHERE id=? AND status IN (?`
	args := []any{to, paymentID, from[0]}
	for _, s := range from[1:] {
		query += ",?"
		args = append(args, s)
	}
	query += ")"
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return false, domain.PersistenceError{Op: "transition payment", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, domain.PersistenceError{Op: "transition payment", Err: err}
	}
	return n == 1, nil
}

// ListUnsettled returns payments still waiting on the provider, oldest
// first. The reconciliation worker walks this list.
func (r PaymentRepository) ListUnsettled(ctx context.Context, limit int) ([]models.Payment, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.db().QueryContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE status IN (?, ?) ORDER BY id LIMIT ?`,
		models.PaymentInitiated, models.PaymentPending, limit,
	)
	if err != nil {
		return nil, domain.PersistenceError{Op: "list unsettled payments", Err: err}
	}
	defer rows.Close()

	out := []models.Payment{}
	for rows.Next() {
		var p models.Payment
		var status string
		if err := rows.Scan(&p.ID, &p.BookingID, &p.PaymentRef, &p.Provider, &p.ProviderTransactionID, &p.Method, &p.Amount, &status, &p.CreatedAt); err != nil {
			return nil, domain.PersistenceError{Op: "scan payment", Err: err}
		}
		p.Status = models.PaymentStatus(status)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.PersistenceError{Op: "list unsettled payments", Err: err}
	}
	return out, nil
}

// CountCompletedForBookingTx counts settled payments for the booking,
// excluding the given payment. Used under the booking lock to keep the
// at-most-one-completed invariant.
func (r PaymentRepository) CountCompletedForBookingTx(ctx context.Context, tx *sql.Tx, bookingID, excludePaymentID int64) (int, error) {
	var n int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM payments WHERE booking_id=? AND status=? AND id<>?`,
		bookingID, models.PaymentCompleted, excludePaymentID,
	).Scan(&n)
	if err != nil {
		return 0, domain.PersistenceError{Op: "count completed payments", Err: err}
	}
	return n, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
