package models

import (
	"strings"
	"time"
	"unicode/utf8"

	"clinic/pkg/cpf"
	dErrors "clinic/pkg/domain-errors"
	textutil "clinic/pkg/platform/strings"
)

// PatientRequest is the create and update payload.
type PatientRequest struct {
	Name      string `json:"name"`
	CPF       string `json:"cpf"`
	Phone     string `json:"phone,omitempty"`
	Email     string `json:"email,omitempty"`
	BirthDate string `json:"birth_date,omitempty"`
	Address   string `json:"address,omitempty"`
}

func (r *PatientRequest) Normalize() {
	if r == nil {
		return
	}
	textutil.SquishAll(&r.Name, &r.Address)
	r.CPF = strings.TrimSpace(r.CPF)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Email = strings.TrimSpace(r.Email)
	r.BirthDate = strings.TrimSpace(r.BirthDate)
}

// Validate checks the request against today's date and returns the parsed
// fields. Follows validation order: Size -> Required -> Syntax -> Semantic.
// A malformed CPF is a bad request; a CPF with wrong check digits is a
// validation error.
func (r *PatientRequest) Validate(today time.Time) (Fields, error) {
	if r == nil {
		return Fields{}, dErrors.New(dErrors.CodeBadRequest, "request is required")
	}

	if utf8.RuneCountInString(r.Name) > MaxNameLength {
		return Fields{}, dErrors.New(dErrors.CodeValidation, "name must be 200 characters or less")
	}
	if utf8.RuneCountInString(r.Phone) > MaxPhoneLength {
		return Fields{}, dErrors.New(dErrors.CodeValidation, "phone must be 20 characters or less")
	}
	if utf8.RuneCountInString(r.Email) > MaxEmailLength {
		return Fields{}, dErrors.New(dErrors.CodeValidation, "email must be 100 characters or less")
	}
	if utf8.RuneCountInString(r.Address) > MaxAddressLength {
		return Fields{}, dErrors.New(dErrors.CodeValidation, "address must be 300 characters or less")
	}

	if r.Name == "" {
		return Fields{}, dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if r.CPF == "" {
		return Fields{}, dErrors.New(dErrors.CodeValidation, "cpf is required")
	}

	identifier, err := cpf.Parse(r.CPF)
	if err != nil {
		return Fields{}, dErrors.Wrap(err, dErrors.CodeBadRequest, "cpf must be 11 digits (raw or ddd.ddd.ddd-dd)")
	}
	if r.Email != "" && !strings.Contains(r.Email, "@") {
		return Fields{}, dErrors.New(dErrors.CodeValidation, "email must contain @")
	}
	var birthDate *time.Time
	if r.BirthDate != "" {
		bd, err := time.Parse(DateLayout, r.BirthDate)
		if err != nil {
			return Fields{}, dErrors.New(dErrors.CodeValidation, "birth_date must be YYYY-MM-DD")
		}
		birthDate = &bd
	}

	if !identifier.Valid() {
		return Fields{}, dErrors.New(dErrors.CodeValidation, "cpf check digits are invalid")
	}
	if birthDate != nil {
		y, m, d := today.Date()
		if birthDate.After(time.Date(y, m, d, 0, 0, 0, 0, time.UTC)) {
			return Fields{}, dErrors.New(dErrors.CodeValidation, "birth_date cannot be in the future")
		}
	}

	return Fields{
		Name:      r.Name,
		CPF:       identifier,
		Phone:     r.Phone,
		Email:     r.Email,
		BirthDate: birthDate,
		Address:   r.Address,
	}, nil
}
