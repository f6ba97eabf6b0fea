package models

import (
	catalogmodels "biblio/internal/catalog/models"
)

// LoanDetails is a loan joined with its book and member for listings.
// Book or Member is nil when the record has since been deleted.
type LoanDetails struct {
	Loan   *Loan
	Book   *catalogmodels.Book
	Member *catalogmodels.Member
}

// MemberName returns the member's name or an empty string when the member is gone.
func (d LoanDetails) MemberName() string {
	if d.Member == nil {
		return ""
	}
	return d.Member.Name
}
