package jwttoken

import (
	authmw "biblio/pkg/platform/middleware/auth"
)

func ToMiddlewareClaims(claims *Claims) *authmw.Claims {
	return &authmw.Claims{
		AccountID: claims.AccountID,
		Email:     claims.Email,
		Role:      claims.Role,
	}
}

// JWTServiceAdapter lets the auth middleware validate tokens without importing jwt.
type JWTServiceAdapter struct {
	service *JWTService
}

func NewJWTServiceAdapter(service *JWTService) *JWTServiceAdapter {
	return &JWTServiceAdapter{service: service}
}

func (a *JWTServiceAdapter) ValidateToken(tokenString string) (*authmw.Claims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return ToMiddlewareClaims(claims), nil
}
