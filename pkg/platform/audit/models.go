package audit

import (
	"context"
	"time"
)

// EventCategory classifies events by their primary purpose so sinks can route
// and retain them differently.
type EventCategory string

const (
	// CategoryLedger covers events that move money or change what a member owes.
	CategoryLedger EventCategory = "ledger"

	// CategorySecurity covers authentication and account-status events.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine circulation and catalog activity.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID        string            `json:"id"`
	Category  EventCategory     `json:"category"`
	Timestamp time.Time         `json:"timestamp"`
	Action    string            `json:"action"`
	Subject   string            `json:"subject"`
	ActorID   string            `json:"actor_id,omitempty"`
	Reason    string            `json:"reason,omitempty"`
	Amount    int64             `json:"amount,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
	Details   map[string]string `json:"details,omitempty"`
}

// Store persists or forwards events.
type Store interface {
	Append(ctx context.Context, event Event) error
}

type AuditEvent string

const (
	// Circulation events
	EventLoanCreated  AuditEvent = "loan_created"
	EventLoanApproved AuditEvent = "loan_approved"
	EventLoanRejected AuditEvent = "loan_rejected"
	EventLoanReturned AuditEvent = "loan_returned"
	EventLoanOverdue  AuditEvent = "loan_overdue"
	EventFinePaid     AuditEvent = "fine_paid"

	// Catalog events
	EventBookCreated   AuditEvent = "book_created"
	EventBookUpdated   AuditEvent = "book_updated"
	EventBookDeleted   AuditEvent = "book_deleted"
	EventMemberCreated AuditEvent = "member_created"
	EventMemberUpdated AuditEvent = "member_updated"
	EventMemberDeleted AuditEvent = "member_deleted"

	// Account events
	EventAccountRequested AuditEvent = "account_requested"
	EventAccountApproved  AuditEvent = "account_approved"
	EventAccountRejected  AuditEvent = "account_rejected"
	EventAccountActivated AuditEvent = "account_activated"
	EventPasswordChanged  AuditEvent = "password_changed"
	EventLoginSucceeded   AuditEvent = "login_succeeded"
	EventLoginFailed      AuditEvent = "login_failed"
)

// eventCategories maps each event to its category. Unlisted events are operations.
var eventCategories = map[AuditEvent]EventCategory{
	EventLoanReturned: CategoryLedger,
	EventFinePaid:     CategoryLedger,

	EventAccountApproved:  CategorySecurity,
	EventAccountRejected:  CategorySecurity,
	EventAccountActivated: CategorySecurity,
	EventPasswordChanged:  CategorySecurity,
	EventLoginSucceeded:   CategorySecurity,
	EventLoginFailed:      CategorySecurity,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}
