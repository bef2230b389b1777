package services

import (
	"testing"

	"tiketku/internal/domain/models"
)

func TestPriceTotalChildDiscount(t *testing.T) {
	passengers := []models.PassengerInput{
		{FullName: "Budi", Age: 30},
		{FullName: "Sari", Age: 4},
	}
	got := PriceTotal(20000, passengers)
	if got != 30000 {
		t.Fatalf("total salah: got %d want 30000", got)
	}
}

func TestPriceTotalHalfRoundsUp(t *testing.T) {
	passengers := []models.PassengerInput{{FullName: "Sari", Age: 2}}
	// 15001 / 2 = 7500.5, dibulatkan ke atas
	got := PriceTotal(15001, passengers)
	if got != 7501 {
		t.Fatalf("pembulatan salah: got %d want 7501", got)
	}
}

func TestPriceTotalAgeBoundary(t *testing.T) {
	// umur 5 membayar penuh, umur 4 setengah
	full := PriceTotal(10000, []models.PassengerInput{{FullName: "A", Age: 5}})
	if full != 10000 {
		t.Fatalf("umur 5 harus tarif penuh, got %d", full)
	}
	half := PriceTotal(10000, []models.PassengerInput{{FullName: "B", Age: 4}})
	if half != 5000 {
		t.Fatalf("umur 4 harus setengah tarif, got %d", half)
	}
}

func TestPriceTotalDeterministic(t *testing.T) {
	passengers := []models.PassengerInput{
		{FullName: "A", Age: 40},
		{FullName: "B", Age: 3},
		{FullName: "C", Age: 1},
	}
	first := PriceTotal(33333, passengers)
	for i := 0; i < 10; i++ {
		if got := PriceTotal(33333, passengers); got != first {
			t.Fatalf("hasil berubah antar pemanggilan: %d vs %d", got, first)
		}
	}
}

func TestPriceTotalNonPositiveBase(t *testing.T) {
	if got := PriceTotal(0, []models.PassengerInput{{FullName: "A", Age: 20}}); got != 0 {
		t.Fatalf("base 0 harus total 0, got %d", got)
	}
}
