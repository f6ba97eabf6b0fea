package models

import (
	"time"

	id "biblio/pkg/domain"
)

// RegistrationToken lets a PROVISIONAL account set its password once.
type RegistrationToken struct {
	Token     string       `json:"token"`
	AccountID id.AccountID `json:"account_id"`
	ExpiresAt time.Time    `json:"expires_at"`
}

func NewRegistrationToken(token string, accountID id.AccountID, ttl time.Duration, now time.Time) *RegistrationToken {
	return &RegistrationToken{
		Token:     token,
		AccountID: accountID,
		ExpiresAt: now.Add(ttl),
	}
}

func (t *RegistrationToken) IsExpiredAt(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
