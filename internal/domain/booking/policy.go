package booking

import "time"

// CancellationCutoff is the time-to-departure below which a passenger
// cancellation splits the payment with the driver.
const CancellationCutoff = 24 * time.Hour

// RefundSplit returns the passenger/driver fractions for a passenger-initiated
// cancellation at `now`. More than 24h before departure the passenger is
// refunded in full; at exactly 24h or closer the payment splits 50/50.
func RefundSplit(departure, now time.Time) (passenger, driver float64) {
	if departure.Sub(now) > CancellationCutoff {
		return 1.0, 0
	}
	return 0.5, 0.5
}
