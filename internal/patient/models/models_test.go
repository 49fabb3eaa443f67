package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinic/pkg/cpf"
	id "clinic/pkg/domain"
	dErrors "clinic/pkg/domain-errors"
)

var today = time.Date(2025, 6, 15, 14, 0, 0, 0, time.UTC)

func validRequest() *PatientRequest {
	return &PatientRequest{
		Name:      "  Maria da Silva ",
		CPF:       "529.982.247-25",
		Phone:     "(11) 91234-5678",
		Email:     "maria@example.com",
		BirthDate: "1980-02-29",
		Address:   "Rua das Flores, 10, São Paulo/SP",
	}
}

func TestPatientRequest_Validate(t *testing.T) {
	t.Run("valid request parses fields", func(t *testing.T) {
		req := validRequest()
		req.Normalize()
		f, err := req.Validate(today)
		require.NoError(t, err)
		assert.Equal(t, "Maria da Silva", f.Name)
		assert.Equal(t, "52998224725", f.CPF.Digits())
		require.NotNil(t, f.BirthDate)
		assert.Equal(t, "1980-02-29", f.BirthDate.Format(DateLayout))
	})

	t.Run("interior whitespace collapsed", func(t *testing.T) {
		req := validRequest()
		req.Name = "Maria  da\tSilva"
		req.Normalize()
		f, err := req.Validate(today)
		require.NoError(t, err)
		assert.Equal(t, "Maria da Silva", f.Name)
	})

	t.Run("raw cpf accepted", func(t *testing.T) {
		req := validRequest()
		req.CPF = "11144447747"
		_, err := req.Validate(today)
		require.NoError(t, err)
	})

	cases := []struct {
		name   string
		mutate func(r *PatientRequest)
		code   dErrors.Code
	}{
		{"missing name", func(r *PatientRequest) { r.Name = "" }, dErrors.CodeValidation},
		{"long name", func(r *PatientRequest) { r.Name = strings.Repeat("a", 201) }, dErrors.CodeValidation},
		{"missing cpf", func(r *PatientRequest) { r.CPF = "" }, dErrors.CodeValidation},
		{"malformed cpf", func(r *PatientRequest) { r.CPF = "5299822472" }, dErrors.CodeBadRequest},
		{"letters in cpf", func(r *PatientRequest) { r.CPF = "529.982.247-2X" }, dErrors.CodeBadRequest},
		{"wrong check digits", func(r *PatientRequest) { r.CPF = "529.982.247-26" }, dErrors.CodeValidation},
		{"email without at", func(r *PatientRequest) { r.Email = "maria.example.com" }, dErrors.CodeValidation},
		{"long phone", func(r *PatientRequest) { r.Phone = strings.Repeat("9", 21) }, dErrors.CodeValidation},
		{"long email", func(r *PatientRequest) { r.Email = strings.Repeat("a", 95) + "@x.com" }, dErrors.CodeValidation},
		{"long address", func(r *PatientRequest) { r.Address = strings.Repeat("r", 301) }, dErrors.CodeValidation},
		{"bad birth date", func(r *PatientRequest) { r.BirthDate = "15/06/1990" }, dErrors.CodeValidation},
		{"future birth date", func(r *PatientRequest) { r.BirthDate = "2025-06-16" }, dErrors.CodeValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validRequest()
			tc.mutate(req)
			req.Normalize()
			_, err := req.Validate(today)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, tc.code), "got %v", err)
		})
	}

	t.Run("birth date today allowed", func(t *testing.T) {
		req := validRequest()
		req.BirthDate = "2025-06-15"
		_, err := req.Validate(today)
		assert.NoError(t, err)
	})

	t.Run("name length counts characters not bytes", func(t *testing.T) {
		req := validRequest()
		req.Name = strings.Repeat("ã", 200)
		_, err := req.Validate(today)
		assert.NoError(t, err)
	})

	t.Run("nil request", func(t *testing.T) {
		var req *PatientRequest
		_, err := req.Validate(today)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}

func TestNewPatient(t *testing.T) {
	f := Fields{Name: "Ana", CPF: cpf.MustParse("52998224725")}
	p, err := NewPatient(id.NewPatientID(), f, today)
	require.NoError(t, err)
	assert.Equal(t, today, p.CreatedAt)
	assert.Equal(t, today, p.UpdatedAt)
	assert.Nil(t, p.BirthDate)

	_, err = NewPatient(id.NewPatientID(), Fields{Name: "Ana", CPF: cpf.MustParse("52998224726")}, today)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))

	_, err = NewPatient(id.NewPatientID(), Fields{CPF: cpf.MustParse("52998224725")}, today)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func TestPatient_ApplyKeepsBirthDateWhenOmitted(t *testing.T) {
	bd := time.Date(1990, 1, 2, 0, 0, 0, 0, time.UTC)
	p, err := NewPatient(id.NewPatientID(), Fields{Name: "Ana", CPF: cpf.MustParse("52998224725"), BirthDate: &bd}, today)
	require.NoError(t, err)

	later := today.Add(time.Hour)
	p.Apply(Fields{Name: "Ana Souza", CPF: cpf.MustParse("52998224725")}, later)
	require.NotNil(t, p.BirthDate)
	assert.Equal(t, bd, *p.BirthDate)
	assert.Equal(t, "Ana Souza", p.Name)
	assert.Equal(t, later, p.UpdatedAt)
	assert.Equal(t, today, p.CreatedAt)
}

func TestToResponse(t *testing.T) {
	bd := time.Date(1990, 1, 2, 0, 0, 0, 0, time.UTC)
	p := &Patient{ID: id.NewPatientID(), Name: "Ana", CPF: cpf.MustParse("52998224725"), BirthDate: &bd}
	resp := ToResponse(p)
	assert.Equal(t, "529.982.247-25", resp.CPF)
	assert.Equal(t, "52998224725", resp.CPFDigits)
	assert.Equal(t, "1990-01-02", resp.BirthDate)
	assert.Len(t, ToResponses([]*Patient{p, p}), 2)
}
