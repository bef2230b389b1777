// Package tickets renders the e-ticket PDF for a paid booking.
package tickets

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/phpdave11/gofpdf"

	"tiketku/internal/domain"
	"tiketku/internal/domain/models"
	"tiketku/internal/utils"
)

// BookingLoader yields the booking detail the ticket is rendered from.
// Matches BookingService.GetBooking so the service plugs in directly.
type BookingLoader func(ctx context.Context, principal domain.Principal, bookingID int64) (Detail, error)

// Detail is the render input: booking, its passengers and its trip.
type Detail struct {
	Booking    models.Booking
	Passengers []models.Passenger
	Trip       models.Trip
}

// Service generates e-ticket PDFs. Tickets exist only for confirmed, paid
// bookings; anything else is a policy violation, not a rendering concern.
type Service struct {
	Load      BookingLoader
	RequestID string
}

func (s Service) GenerateETicket(ctx context.Context, principal domain.Principal, bookingID int64) ([]byte, string, error) {
	d, err := s.Load(ctx, principal, bookingID)
	if err != nil {
		return nil, "", err
	}
	if d.Booking.Status != models.BookingConfirmed || d.Booking.PaymentStatus != models.BookingPaymentPaid {
		return nil, "", domain.PolicyViolation{Rule: "eticket_requires_paid", Msg: "e-ticket hanya untuk booking yang sudah dibayar"}
	}
	utils.LogEvent(s.RequestID, "tickets", "generate_eticket", fmt.Sprintf("booking_id=%d", bookingID))
	return buildETicketPDF(d)
}

func buildETicketPDF(d Detail) ([]byte, string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("E-Ticket", false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "E-TICKET")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		fmt.Sprintf("Kode Booking   : %s", d.Booking.BookingReference),
		fmt.Sprintf("Rute           : %s -> %s", safe(d.Trip.RouteFrom, "-"), safe(d.Trip.RouteTo, "-")),
		fmt.Sprintf("Keberangkatan  : %s", utils.FormatDateTime(d.Trip.DepartureTime)),
		fmt.Sprintf("Jumlah Kursi   : %d", d.Booking.PassengerCount),
		fmt.Sprintf("Total          : %s", utils.FormatRupiah(d.Booking.TotalAmount)),
		fmt.Sprintf("Status         : %s / %s", d.Booking.Status, d.Booking.PaymentStatus),
	}
	for _, s := range lines {
		pdf.Cell(0, 7, s)
		pdf.Ln(7)
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, "Penumpang:")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 11)
	for i, p := range d.Passengers {
		pdf.Cell(0, 6, fmt.Sprintf("%d) %s (%d th)", i+1, safe(p.FullName, "-"), p.Age))
		pdf.Ln(6)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, "Catatan: E-ticket ini berlaku untuk seluruh penumpang pada booking di atas. Harap tunjukkan saat keberangkatan.", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("ETICKET_%s.pdf", safeFilenamePart(d.Booking.BookingReference))
	return buf.Bytes(), filename, nil
}

func safe(v, fallback string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	return v
}

func safeFilenamePart(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "NA"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "_", "\\", "_", ":", "_", "*", "_", "?", "_", "\"", "_", "<", "_", ">", "_", "|", "_")
	s = replacer.Replace(s)
	if len(s) > 40 {
		s = s[:40]
	}
	return s
}
