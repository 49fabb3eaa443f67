package domain

import (
	"github.com/google/uuid"

	dErrors "clinic/pkg/domain-errors"
)

// Typed identifiers keep patient and appointment IDs from being swapped at
// compile time. Construct them with the Parse* functions at trust boundaries.
type (
	PatientID     uuid.UUID
	AppointmentID uuid.UUID
)

// NewPatientID returns a fresh random patient ID.
func NewPatientID() PatientID { return PatientID(uuid.New()) }

// NewAppointmentID returns a fresh random appointment ID.
func NewAppointmentID() AppointmentID { return AppointmentID(uuid.New()) }

func (id PatientID) String() string { return uuid.UUID(id).String() }
func (id PatientID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id AppointmentID) String() string { return uuid.UUID(id).String() }
func (id AppointmentID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id PatientID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *PatientID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

func (id AppointmentID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *AppointmentID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

// ParsePatientID parses a non-nil UUID.
//
// Errors: CodeInvalidInput when the value is empty, malformed, or the nil UUID.
func ParsePatientID(s string) (PatientID, error) {
	u, err := parseUUID(s, "patient ID")
	return PatientID(u), err
}

// ParseAppointmentID parses a non-nil UUID.
//
// Errors: CodeInvalidInput when the value is empty, malformed, or the nil UUID.
func ParseAppointmentID(s string) (AppointmentID, error) {
	u, err := parseUUID(s, "appointment ID")
	return AppointmentID(u), err
}

func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be nil")
	}
	return u, nil
}
