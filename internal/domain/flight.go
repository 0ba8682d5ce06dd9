package domain

import "time"

// FlightStatus enumerates lifecycle states for flights.
type FlightStatus string

const (
	StatusScheduled FlightStatus = "Scheduled"
	StatusBoarding  FlightStatus = "Boarding"
	StatusDeparted  FlightStatus = "Departed"
	StatusLanded    FlightStatus = "Landed"
)

// Flight is the aggregate shown on the departure board.
type Flight struct {
	ID            int64
	FlightNumber  string
	Destination   string
	DepartureTime time.Time
	Gate          string
	Status        FlightStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

const (
	boardingWindow = 30 * time.Minute
	departedWindow = time.Hour
)

// ClassifyStatus derives a flight's status from its departure time and a
// caller-supplied clock reading. It is pure: callers must reuse one `now`
// snapshot across a whole evaluation pass so that flights near a boundary
// are classified consistently.
//
// diff = departure - now:
//
//	diff > 30m              -> Scheduled
//	0 < diff <= 30m         -> Boarding
//	now <= departure + 1h   -> Departed
//	otherwise               -> Landed
func ClassifyStatus(departureTime, now time.Time) FlightStatus {
	diff := departureTime.Sub(now)

	if diff > boardingWindow {
		return StatusScheduled
	}
	if diff > 0 {
		return StatusBoarding
	}
	if !now.After(departureTime.Add(departedWindow)) {
		return StatusDeparted
	}
	return StatusLanded
}
