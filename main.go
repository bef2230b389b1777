package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	intconfig "tiketku/internal/config"
	"tiketku/internal/domain"
	"tiketku/internal/domain/models"
	"tiketku/internal/gateway"
	router "tiketku/internal/http"
	"tiketku/internal/queue"
	"tiketku/internal/repositories"
	"tiketku/internal/services"
	"tiketku/internal/tickets"
	"tiketku/internal/utils"
)

func main() {
	env := intconfig.LoadEnv()
	if env.GinMode != "" {
		gin.SetMode(env.GinMode)
	}

	db := intconfig.ConnectDB(env)
	defer intconfig.CloseDB()

	redisClient := intconfig.NewRedisClient(env)
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	} else {
		log.Println("Redis tidak tersedia, dedup webhook jatuh ke database")
	}

	gw := selectGateway(env)
	notifier := services.QueueDispatcher{Publisher: queue.Publisher{URL: env.AMQPURL}}

	tripRepo := repositories.TripRepository{DB: db}
	bookingRepo := repositories.BookingRepository{DB: db}
	passengerRepo := repositories.PassengerRepository{DB: db}
	paymentRepo := repositories.PaymentRepository{DB: db}
	audit := services.AuditRecorder{Repo: repositories.AuditRepository{DB: db}}

	paymentSvc := &services.PaymentService{
		DB:              db,
		PaymentRepo:     paymentRepo,
		BookingRepo:     bookingRepo,
		Audit:           audit,
		Gateway:         gw,
		Guard:           &services.WebhookGuard{Client: redisClient, TTL: 24 * time.Hour},
		Notifier:        notifier,
		PollInterval:    env.PollInterval,
		MaxPollAttempts: env.MaxPollAttempts,
	}

	bookingSvc := &services.BookingService{
		DB:                 db,
		TripRepo:           tripRepo,
		BookingRepo:        bookingRepo,
		PassengerRepo:      passengerRepo,
		Inventory:          services.SeatInventory{TripRepo: tripRepo},
		Audit:              audit,
		Notifier:           notifier,
		CancellationCutoff: env.CancellationCutoff,
		InitiatePayment: func(ctx context.Context, b models.Booking, method, contactPhone string) {
			p, err := paymentSvc.Initiate(ctx, b, method, contactPhone)
			if err != nil {
				utils.LogEvent("", "payment", "initiate",
					"inisiasi untuk "+b.BookingReference+" gagal: "+err.Error())
				return
			}
			// Card and cash settle inside Initiate; out-of-band methods get
			// a bounded polling watcher until the webhook or budget decides.
			if gateway.Immediate(method) || p.Status.Settled() {
				return
			}
			if _, err := paymentSvc.AwaitSettlement(ctx, p.PaymentRef); err != nil {
				utils.LogEvent("", "payment", "await",
					"menunggu "+p.PaymentRef+" gagal: "+err.Error())
			}
		},
	}

	ticketSvc := tickets.Service{
		Load: func(ctx context.Context, principal domain.Principal, bookingID int64) (tickets.Detail, error) {
			d, err := bookingSvc.GetBooking(ctx, principal, bookingID)
			if err != nil {
				return tickets.Detail{}, err
			}
			return tickets.Detail{Booking: d.Booking, Passengers: d.Passengers, Trip: d.Trip}, nil
		},
	}

	r := router.NewRouter(router.Deps{
		Env:      env,
		Bookings: bookingSvc,
		Payments: paymentSvc,
		Tickets:  ticketSvc,
		Trips:    tripRepo,
		Audit:    audit.Repo,
	})

	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	go paymentSvc.RunReconciler(workerCtx, env.PollInterval)

	srv := &http.Server{
		Addr:              env.AppAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       20 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("Server berjalan di http://localhost%s", env.AppAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Gagal menjalankan server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("Mematikan server...")
	stopWorker()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Shutdown server gagal: %v", err)
	}

	log.Println("Server berhenti dengan aman.")
}

func selectGateway(env intconfig.Env) gateway.Gateway {
	switch env.PaymentProvider {
	case "counter", "":
		return gateway.NewCounterGateway()
	default:
		log.Printf("Provider %q tidak dikenal, memakai counter", env.PaymentProvider)
		return gateway.NewCounterGateway()
	}
}
