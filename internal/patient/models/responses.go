package models

import (
	"time"
)

// PatientResponse is the JSON representation of a patient. CPF is shown in
// display form with the raw digits alongside.
type PatientResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CPF       string    `json:"cpf"`
	CPFDigits string    `json:"cpf_digits"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	BirthDate string    `json:"birth_date,omitempty"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func ToResponse(p *Patient) PatientResponse {
	resp := PatientResponse{
		ID:        p.ID.String(),
		Name:      p.Name,
		CPF:       p.CPF.String(),
		CPFDigits: p.CPF.Digits(),
		Phone:     p.Phone,
		Email:     p.Email,
		Address:   p.Address,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	if p.BirthDate != nil {
		resp.BirthDate = p.BirthDate.Format(DateLayout)
	}
	return resp
}

func ToResponses(patients []*Patient) []PatientResponse {
	out := make([]PatientResponse, 0, len(patients))
	for _, p := range patients {
		out = append(out, ToResponse(p))
	}
	return out
}
