package models

import (
	"time"

	"clinic/pkg/cpf"
	id "clinic/pkg/domain"
	dErrors "clinic/pkg/domain-errors"
)

// DateLayout is the wire and storage layout for calendar dates.
const DateLayout = "2006-01-02"

const (
	MaxNameLength    = 200
	MaxPhoneLength   = 20
	MaxEmailLength   = 100
	MaxAddressLength = 300
)

// Patient is a registered clinic patient.
//
// Invariants:
//   - Name is non-empty and at most 200 characters
//   - CPF carries valid check digits and is unique across patients
//   - BirthDate, when set, is not after CreatedAt's calendar day
type Patient struct {
	ID        id.PatientID
	Name      string
	CPF       cpf.Identifier
	Phone     string
	Email     string
	BirthDate *time.Time
	Address   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Fields are the mutable attributes of a patient after request parsing.
type Fields struct {
	Name      string
	CPF       cpf.Identifier
	Phone     string
	Email     string
	BirthDate *time.Time
	Address   string
}

func NewPatient(patientID id.PatientID, f Fields, now time.Time) (*Patient, error) {
	if f.Name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "patient name cannot be empty")
	}
	if !f.CPF.Valid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "patient CPF must have valid check digits")
	}
	p := &Patient{ID: patientID, CreatedAt: now}
	p.Apply(f, now)
	return p, nil
}

// Apply overwrites the mutable fields. A nil BirthDate keeps the stored one.
func (p *Patient) Apply(f Fields, now time.Time) {
	p.Name = f.Name
	p.CPF = f.CPF
	p.Phone = f.Phone
	p.Email = f.Email
	p.Address = f.Address
	if f.BirthDate != nil {
		bd := *f.BirthDate
		p.BirthDate = &bd
	}
	p.UpdatedAt = now
}
