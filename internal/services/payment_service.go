package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"tiketku/internal/domain"
	"tiketku/internal/domain/models"
	"tiketku/internal/gateway"
	"tiketku/internal/queue"
	"tiketku/internal/repositories"
	"tiketku/internal/utils"
)

// PaymentService owns the payment lifecycle: initiation against the
// provider, reconciliation of provider events (webhook and polling), and
// refunds. Provider events arrive at-least-once and unordered; every state
// change is a conditional transition, so replays and races collapse into
// no-ops instead of double-applies.
type PaymentService struct {
	DB          *sql.DB
	PaymentRepo repositories.PaymentRepository
	BookingRepo repositories.BookingRepository
	Audit       AuditRecorder
	Gateway     gateway.Gateway
	Guard       *WebhookGuard
	Notifier    Dispatcher

	PollInterval    time.Duration
	MaxPollAttempts int

	TxRunner  TxRunner
	Now       func() time.Time
	RequestID string
}

func (s *PaymentService) runTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	if s.TxRunner != nil {
		return s.TxRunner(ctx, fn)
	}
	return runTx(ctx, s.DB, fn)
}

func (s *PaymentService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return utils.NowUTC()
}

func newPaymentRef() string {
	return "PAY-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
}

// Initiate registers a payment attempt and starts it at the provider. A
// provider failure marks the attempt failed and leaves the booking pending,
// so the caller can retry with a fresh attempt.
func (s *PaymentService) Initiate(ctx context.Context, b models.Booking, method, contactPhone string) (models.Payment, error) {
	if !gateway.KnownMethod(method) {
		return models.Payment{}, domain.ValidationError{Field: "payment_method", Msg: "metode pembayaran tidak dikenal"}
	}
	if b.Status.Terminal() {
		return models.Payment{}, domain.PolicyViolation{Rule: "booking_terminal", Msg: "booking sudah " + string(b.Status)}
	}
	if b.PaymentStatus == models.BookingPaymentPaid {
		return models.Payment{}, domain.ConflictError{Resource: "payment", Msg: "booking sudah dibayar"}
	}

	p := models.Payment{
		BookingID:  b.ID,
		PaymentRef: newPaymentRef(),
		Provider:   s.Gateway.Name(),
		Method:     method,
		Amount:     b.TotalAmount,
		Status:     models.PaymentInitiated,
	}
	if err := s.PaymentRepo.Create(ctx, &p); err != nil {
		return models.Payment{}, err
	}

	res, err := s.Gateway.Initiate(ctx, gateway.InitiateRequest{
		PaymentRef: p.PaymentRef,
		Amount:     p.Amount,
		Currency:   "IDR",
		Method:     method,
		Customer:   gateway.CustomerInfo{Phone: contactPhone},
	})
	if err != nil {
		if _, _, ferr := s.settle(ctx, "system", p.PaymentRef, gateway.StatusFailed, 0); ferr != nil {
			utils.LogEvent(s.RequestID, "payment", "initiate", "gagal tandai failed: "+ferr.Error())
		}
		return models.Payment{}, domain.PaymentError{Provider: p.Provider, Msg: "inisiasi gagal", Err: err}
	}

	if err := s.PaymentRepo.SetProviderTransactionID(ctx, p.ID, res.TransactionID); err != nil {
		return models.Payment{}, err
	}
	p.ProviderTransactionID = res.TransactionID
	p.Instructions = res.Instructions

	s.Audit.Record(ctx, "system", models.AuditActionPaymentInitiated, "payment", p.ID, nil, p)
	utils.LogEvent(s.RequestID, "payment", "initiate",
		fmt.Sprintf("pembayaran %s dimulai (%s, %s)", p.PaymentRef, p.Provider, utils.FormatRupiah(p.Amount)))

	switch res.Status {
	case gateway.StatusCompleted, gateway.StatusFailed:
		_, updated, err := s.settle(ctx, "system", p.PaymentRef, res.Status, 0)
		if err != nil {
			return models.Payment{}, err
		}
		updated.Instructions = p.Instructions
		return updated, nil
	default:
		if _, _, err := s.apply(ctx, p.PaymentRef, gateway.StatusPending, 0); err != nil {
			return models.Payment{}, err
		}
		p.Status = models.PaymentPending
		return p, nil
	}
}

// IngestWebhook processes one provider notification. Duplicates, unknown
// transactions, unintelligible payloads and already-applied statuses are all
// acknowledged as no-ops; a returned error tells the provider to redeliver,
// so only retryable failures return one.
func (s *PaymentService) IngestWebhook(ctx context.Context, ev gateway.WebhookEvent) error {
	status, ok := ev.EventStatus()
	if !ok {
		// Redelivery cannot make the event intelligible. Ack and keep a
		// trace instead of feeding a provider retry loop.
		utils.LogEvent(s.RequestID, "webhook", "ingest", "event tidak dikenal, diabaikan: "+ev.Event)
		return nil
	}
	if ev.Data.ID == "" {
		utils.LogEvent(s.RequestID, "webhook", "ingest", "data.id kosong, diabaikan: "+ev.Event)
		return nil
	}
	provider := s.Gateway.Name()

	if !s.Guard.Acquire(ctx, provider, ev.Data.ID, string(status)) {
		utils.LogEvent(s.RequestID, "webhook", "ingest",
			fmt.Sprintf("duplikat %s/%s (%s), dilewati", provider, ev.Data.ID, status))
		return nil
	}

	p, err := s.PaymentRepo.GetByProviderTransactionID(ctx, provider, ev.Data.ID)
	if domain.IsNotFound(err) {
		// Unknown transaction id. Ack so the provider stops retrying, but
		// keep a trace for reconciliation.
		utils.LogEvent(s.RequestID, "webhook", "ingest",
			fmt.Sprintf("transaksi %s/%s tidak dikenal, diabaikan", provider, ev.Data.ID))
		return nil
	}
	if err != nil {
		s.Guard.Release(ctx, provider, ev.Data.ID, string(status))
		return err
	}

	applied, _, err := s.settle(ctx, "webhook", p.PaymentRef, status, ev.Data.Amount)
	if err != nil {
		s.Guard.Release(ctx, provider, ev.Data.ID, string(status))
		return err
	}
	if !applied {
		utils.LogEvent(s.RequestID, "webhook", "ingest",
			fmt.Sprintf("status %s untuk %s sudah diterapkan, no-op", status, p.PaymentRef))
	}
	return nil
}

// PollStatus asks the provider for the current status and reconciles it.
// Settled payments are returned as-is without a provider round trip.
func (s *PaymentService) PollStatus(ctx context.Context, paymentRef string) (models.Payment, error) {
	p, err := s.PaymentRepo.GetByRef(ctx, paymentRef)
	if err != nil {
		return models.Payment{}, err
	}
	if p.Status.Settled() || p.ProviderTransactionID == "" {
		return p, nil
	}
	status, err := s.Gateway.Verify(ctx, p.ProviderTransactionID)
	if err != nil {
		return models.Payment{}, domain.PaymentError{Provider: p.Provider, Msg: "verifikasi gagal", Err: err}
	}
	if status == gateway.StatusPending {
		if p.Status == models.PaymentInitiated {
			if _, _, err := s.apply(ctx, p.PaymentRef, gateway.StatusPending, 0); err != nil {
				return models.Payment{}, err
			}
			p.Status = models.PaymentPending
		}
		return p, nil
	}
	_, updated, err := s.settle(ctx, "poll", p.PaymentRef, status, 0)
	if err != nil {
		return models.Payment{}, err
	}
	return updated, nil
}

// AwaitSettlement polls until the payment settles, the attempt budget runs
// out or the context ends. Exhausting the budget leaves the payment pending;
// the decision to fail it belongs to the provider, never to a timeout here.
func (s *PaymentService) AwaitSettlement(ctx context.Context, paymentRef string) (models.Payment, error) {
	interval := s.PollInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	attempts := s.MaxPollAttempts
	if attempts <= 0 {
		attempts = 12
	}

	var last models.Payment
	for i := 1; i <= attempts; i++ {
		p, err := s.PollStatus(ctx, paymentRef)
		if err != nil {
			return models.Payment{}, err
		}
		if p.Status.Settled() {
			return p, nil
		}
		last = p
		if i == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return last, ctx.Err()
		case <-time.After(interval):
		}
	}
	utils.LogEvent(s.RequestID, "payment", "await",
		fmt.Sprintf("%s masih %s setelah %d percobaan", paymentRef, last.Status, attempts))
	return last, nil
}

// RunReconciler periodically sweeps unsettled payments against the
// provider until the context ends. It backstops lost webhooks: any status
// the webhook path missed is picked up on the next sweep.
func (s *PaymentService) RunReconciler(ctx context.Context, every time.Duration) {
	if every <= 0 {
		every = time.Minute
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.reconcilePending(ctx)
		}
	}
}

func (s *PaymentService) reconcilePending(ctx context.Context) {
	pending, err := s.PaymentRepo.ListUnsettled(ctx, 100)
	if err != nil {
		utils.LogEvent(s.RequestID, "payment", "reconcile", "gagal ambil daftar pending: "+err.Error())
		return
	}
	for _, p := range pending {
		if _, err := s.PollStatus(ctx, p.PaymentRef); err != nil {
			utils.LogEvent(s.RequestID, "payment", "reconcile",
				fmt.Sprintf("gagal rekonsiliasi %s: %v", p.PaymentRef, err))
		}
		if ctx.Err() != nil {
			return
		}
	}
}

// Refund reverses a completed payment. Cancellation never touches money by
// itself; refunds are an explicit, admin-initiated step.
func (s *PaymentService) Refund(ctx context.Context, principal domain.Principal, paymentRef string) (models.Payment, error) {
	if principal.Role != "admin" {
		return models.Payment{}, domain.PolicyViolation{Rule: "refund_admin_only", Msg: "refund hanya untuk admin"}
	}
	p, err := s.PaymentRepo.GetByRef(ctx, paymentRef)
	if err != nil {
		return models.Payment{}, err
	}
	if p.Status != models.PaymentCompleted {
		return models.Payment{}, domain.PolicyViolation{Rule: "refund_requires_completed", Msg: "refund hanya untuk pembayaran selesai"}
	}
	status, err := s.Gateway.Refund(ctx, p.ProviderTransactionID, p.Amount)
	if err != nil {
		return models.Payment{}, domain.PaymentError{Provider: p.Provider, Msg: "refund gagal", Err: err}
	}
	if status != gateway.StatusRefunded {
		// Provider processes the refund out-of-band and will webhook the
		// final state.
		utils.LogEvent(s.RequestID, "payment", "refund",
			fmt.Sprintf("refund %s diterima provider, menunggu konfirmasi", p.PaymentRef))
		return p, nil
	}
	_, updated, err := s.settle(ctx, principal.Actor(), p.PaymentRef, gateway.StatusRefunded, 0)
	if err != nil {
		return models.Payment{}, err
	}
	return updated, nil
}

// settle applies a final provider status, then audits and notifies exactly
// once, only when the transition actually happened.
func (s *PaymentService) settle(ctx context.Context, actor, paymentRef string, status gateway.Status, amount int64) (bool, models.Payment, error) {
	applied, p, err := s.apply(ctx, paymentRef, status, amount)
	if err != nil {
		return false, models.Payment{}, err
	}
	if !applied {
		return false, p, nil
	}

	action := models.AuditActionPaymentCompleted
	switch status {
	case gateway.StatusFailed:
		action = models.AuditActionPaymentFailed
	case gateway.StatusRefunded:
		action = models.AuditActionRefund
	}
	s.Audit.Record(ctx, actor, action, "payment", p.ID, nil, p)
	utils.LogEvent(s.RequestID, "payment", "settle",
		fmt.Sprintf("pembayaran %s menjadi %s (%s)", p.PaymentRef, p.Status, utils.FormatRupiah(p.Amount)))

	b, berr := s.BookingRepo.GetByID(ctx, p.BookingID)
	if berr != nil {
		utils.LogEvent(s.RequestID, "payment", "settle", "gagal baca booking untuk notifikasi: "+berr.Error())
		return true, p, nil
	}
	s.Notifier.PaymentSettled(queue.PaymentSettledEvent{
		BookingID:        b.ID,
		BookingReference: b.BookingReference,
		PaymentRef:       p.PaymentRef,
		Provider:         p.Provider,
		Status:           string(p.Status),
		Amount:           p.Amount,
		SettledAt:        utils.FormatDateTime(s.now()),
	})
	return true, p, nil
}

// apply runs one provider status against the payment and booking rows in a
// single transaction. Both rows move together or not at all; a status the
// payment has already passed produces applied=false with no writes.
func (s *PaymentService) apply(ctx context.Context, paymentRef string, status gateway.Status, amount int64) (bool, models.Payment, error) {
	var (
		applied bool
		payment models.Payment
	)
	err := s.runTx(ctx, func(tx *sql.Tx) error {
		p, err := s.PaymentRepo.GetForUpdateTx(ctx, tx, paymentRef)
		if err != nil {
			return err
		}
		payment = p

		if status == gateway.StatusCompleted && amount > 0 && amount != p.Amount {
			return domain.ConflictError{
				Resource: "payment",
				Msg:      fmt.Sprintf("jumlah tidak cocok: provider %d, tercatat %d", amount, p.Amount),
			}
		}

		switch status {
		case gateway.StatusPending:
			applied, err = s.PaymentRepo.TransitionTx(ctx, tx, p.ID,
				[]models.PaymentStatus{models.PaymentInitiated}, models.PaymentPending)
			if err != nil {
				return err
			}
			if applied {
				payment.Status = models.PaymentPending
			}
			return nil

		case gateway.StatusCompleted:
			applied, err = s.PaymentRepo.TransitionTx(ctx, tx, p.ID,
				[]models.PaymentStatus{models.PaymentInitiated, models.PaymentPending}, models.PaymentCompleted)
			if err != nil {
				return err
			}
			if !applied {
				return nil
			}
			b, err := s.BookingRepo.GetForUpdateTx(ctx, tx, p.BookingID)
			if err != nil {
				return err
			}
			n, err := s.PaymentRepo.CountCompletedForBookingTx(ctx, tx, b.ID, p.ID)
			if err != nil {
				return err
			}
			if n > 0 {
				return domain.ConflictError{Resource: "payment", Msg: "booking sudah punya pembayaran selesai"}
			}
			ok, err := s.BookingRepo.TransitionTx(ctx, tx, b.ID,
				[]models.BookingStatus{models.BookingPending},
				models.BookingConfirmed, models.BookingPaymentPaid)
			if err != nil {
				return err
			}
			if !ok {
				// Money arrived for a booking that already left pending,
				// usually a cancellation that raced the settlement. The
				// payment stays completed and waits for an explicit refund.
				utils.LogEvent(s.RequestID, "payment", "settle",
					fmt.Sprintf("pembayaran %s selesai tetapi booking %d berstatus %s", p.PaymentRef, b.ID, b.Status))
			}
			payment.Status = models.PaymentCompleted
			return nil

		case gateway.StatusFailed:
			applied, err = s.PaymentRepo.TransitionTx(ctx, tx, p.ID,
				[]models.PaymentStatus{models.PaymentInitiated, models.PaymentPending}, models.PaymentFailed)
			if err != nil {
				return err
			}
			if !applied {
				return nil
			}
			// Booking stays pending so the customer can retry with a new
			// attempt; only the payment summary flips to failed.
			if _, err := s.BookingRepo.TransitionTx(ctx, tx, p.BookingID,
				[]models.BookingStatus{models.BookingPending},
				models.BookingPending, models.BookingPaymentFailed); err != nil {
				return err
			}
			payment.Status = models.PaymentFailed
			return nil

		case gateway.StatusRefunded:
			applied, err = s.PaymentRepo.TransitionTx(ctx, tx, p.ID,
				[]models.PaymentStatus{models.PaymentCompleted}, models.PaymentRefunded)
			if err != nil {
				return err
			}
			if !applied {
				return nil
			}
			if _, err := s.BookingRepo.TransitionTx(ctx, tx, p.BookingID,
				[]models.BookingStatus{models.BookingConfirmed},
				models.BookingRefunded, models.BookingPaymentRefunded); err != nil {
				return err
			}
			payment.Status = models.PaymentRefunded
			return nil

		default:
			return domain.ValidationError{Field: "status", Msg: "status provider tidak dikenal: " + string(status)}
		}
	})
	if err != nil {
		return false, models.Payment{}, err
	}
	return applied, payment, nil
}
