package models

import (
	"encoding/json"
	"fmt"
)

// Field types understood by the transformer.
const (
	TypeText     = "text"
	TypeDatetime = "datetime"
)

// MappingSchema describes how API fields become destination columns.
type MappingSchema struct {
	Table  string         `json:"table"`
	Fields []FieldMapping `json:"fields"`
}

// FieldMapping renames one source field to its destination column.
type FieldMapping struct {
	Source    string `json:"source"`
	Target    string `json:"target"`
	Type      string `json:"type"`
	Delimited bool   `json:"delimited,omitempty"`
}

// DefaultFlightMapping is the AviationStack flights mapping.
func DefaultFlightMapping() *MappingSchema {
	return &MappingSchema{
		Table: "flights",
		Fields: []FieldMapping{
			{Source: "flight_date", Target: FlightDate, Type: TypeText},
			{Source: "flight_status", Target: FlightStatus, Type: TypeText},
			{Source: "departure.airport", Target: DepartureAirport, Type: TypeText},
			{Source: "departure.timezone", Target: DepartureTimezone, Type: TypeText, Delimited: true},
			{Source: "arrival.airport", Target: ArrivalAirport, Type: TypeText},
			{Source: "arrival.timezone", Target: ArrivalTimezone, Type: TypeText, Delimited: true},
			{Source: "arrival.terminal", Target: ArrivalTerminal, Type: TypeText, Delimited: true},
			{Source: "airline.name", Target: AirlineName, Type: TypeText},
			{Source: "flight.number", Target: FlightNumber, Type: TypeText},
		},
	}
}

// SourceColumns returns the source-side names in mapping order.
func (m *MappingSchema) SourceColumns() []string {
	out := make([]string, len(m.Fields))
	for i, f := range m.Fields {
		out[i] = f.Source
	}
	return out
}

// TargetColumns returns the destination names in mapping order.
func (m *MappingSchema) TargetColumns() []string {
	out := make([]string, len(m.Fields))
	for i, f := range m.Fields {
		out[i] = f.Target
	}
	return out
}

// Validate checks that the mapping targets exactly the canonical flight columns.
// Every sink and the quality suite are keyed on those names.
func (m *MappingSchema) Validate() error {
	if m.Table == "" {
		return fmt.Errorf("mapping: table name is required")
	}
	if len(m.Fields) != len(FlightColumns) {
		return fmt.Errorf("mapping: expected %d fields, got %d", len(FlightColumns), len(m.Fields))
	}
	seen := make(map[string]bool, len(m.Fields))
	for _, f := range m.Fields {
		if f.Source == "" {
			return fmt.Errorf("mapping: field %q has no source", f.Target)
		}
		switch f.Type {
		case "", TypeText, TypeDatetime:
		default:
			return fmt.Errorf("mapping: field %q has unknown type %q", f.Target, f.Type)
		}
		if seen[f.Target] {
			return fmt.Errorf("mapping: duplicate target %q", f.Target)
		}
		seen[f.Target] = true
	}
	for _, c := range FlightColumns {
		if !seen[c] {
			return fmt.Errorf("mapping: canonical column %q is not mapped", c)
		}
	}
	return nil
}

// LoadMapping parses a mapping document and validates it.
func LoadMapping(data []byte) (*MappingSchema, error) {
	var m MappingSchema
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	if m.Table == "" {
		m.Table = "flights"
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}
