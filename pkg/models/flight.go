package models

// Canonical destination columns of a flight record.
const (
	FlightDate        = "flight_date"
	FlightStatus      = "flight_status"
	DepartureAirport  = "departure_airport"
	DepartureTimezone = "departure_timezone"
	ArrivalAirport    = "arrival_airport"
	ArrivalTimezone   = "arrival_timezone"
	ArrivalTerminal   = "arrival_terminal"
	AirlineName       = "airline_name"
	FlightNumber      = "flight_number"
)

// FlightColumns lists the canonical columns in table order.
var FlightColumns = []string{
	FlightDate,
	FlightStatus,
	DepartureAirport,
	DepartureTimezone,
	ArrivalAirport,
	ArrivalTimezone,
	ArrivalTerminal,
	AirlineName,
	FlightNumber,
}

// FlightStatuses is the set of values flight_status is expected to take.
var FlightStatuses = []string{"active", "scheduled", "landed", "cancelled", "diverted", "incident", "delayed"}

// DelimiterFields carry a '/' separator in the source data that is rewritten
// before load.
var DelimiterFields = []string{DepartureTimezone, ArrivalTimezone, ArrivalTerminal}

const (
	// PathSeparator is the character rewritten in delimiter fields.
	PathSeparator = "/"
	// SeparatorReplacement replaces every PathSeparator occurrence.
	SeparatorReplacement = " - "
)
