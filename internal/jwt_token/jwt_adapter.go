package jwttoken

import (
	"clinic/internal/platform/middleware"
)

func ToMiddlewareClaims(claims *Claims) *middleware.StaffClaims {
	return &middleware.StaffClaims{
		Staff:   claims.Staff,
		TokenID: claims.ID,
	}
}

// JWTServiceAdapter satisfies middleware.TokenValidator.
type JWTServiceAdapter struct {
	service *JWTService
}

func NewJWTServiceAdapter(service *JWTService) *JWTServiceAdapter {
	return &JWTServiceAdapter{service: service}
}

func (a *JWTServiceAdapter) ValidateToken(tokenString string) (*middleware.StaffClaims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return ToMiddlewareClaims(claims), nil
}
