package services

import (
	"tiketku/internal/domain/models"
	"tiketku/internal/utils"
)

// Passengers strictly younger than this ride at half fare.
const childFareAgeLimit = 5

// PriceTotal computes the booking total: base fare per passenger, half fare
// for children under five, rounded half up to whole Rupiah. Pure and
// deterministic, so retries and audit replays always reproduce the same
// amount.
func PriceTotal(basePrice int64, passengers []models.PassengerInput) int64 {
	if basePrice <= 0 {
		return 0
	}
	var total int64
	for _, p := range passengers {
		if p.Age < childFareAgeLimit {
			total += utils.HalfUp(basePrice)
			continue
		}
		total += basePrice
	}
	return total
}
