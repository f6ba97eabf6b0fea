package domain

import (
	"github.com/google/uuid"

	dErrors "biblio/pkg/domain-errors"
)

// Typed identifiers keep a BookID from being passed where a MemberID is expected.
// All of them wrap a uuid.UUID and share the same parsing rules.
type (
	BookID    uuid.UUID
	MemberID  uuid.UUID
	LoanID    uuid.UUID
	AccountID uuid.UUID
)

func NewBookID() BookID       { return BookID(uuid.New()) }
func NewMemberID() MemberID   { return MemberID(uuid.New()) }
func NewLoanID() LoanID       { return LoanID(uuid.New()) }
func NewAccountID() AccountID { return AccountID(uuid.New()) }

func (id BookID) String() string    { return uuid.UUID(id).String() }
func (id MemberID) String() string  { return uuid.UUID(id).String() }
func (id LoanID) String() string    { return uuid.UUID(id).String() }
func (id AccountID) String() string { return uuid.UUID(id).String() }

func (id BookID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id MemberID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id LoanID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id AccountID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// MarshalText renders identifiers as canonical UUID strings in JSON and other text encodings.
func (id BookID) MarshalText() ([]byte, error)    { return []byte(id.String()), nil }
func (id MemberID) MarshalText() ([]byte, error)  { return []byte(id.String()), nil }
func (id LoanID) MarshalText() ([]byte, error)    { return []byte(id.String()), nil }
func (id AccountID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *BookID) UnmarshalText(b []byte) error    { return unmarshalUUID(b, (*uuid.UUID)(id)) }
func (id *MemberID) UnmarshalText(b []byte) error  { return unmarshalUUID(b, (*uuid.UUID)(id)) }
func (id *LoanID) UnmarshalText(b []byte) error    { return unmarshalUUID(b, (*uuid.UUID)(id)) }
func (id *AccountID) UnmarshalText(b []byte) error { return unmarshalUUID(b, (*uuid.UUID)(id)) }

func unmarshalUUID(b []byte, dst *uuid.UUID) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*dst = u
	return nil
}

// ParseBookID parses external input into a BookID.
//
// Errors: CodeInvalidInput when the value is empty, malformed or the nil UUID.
func ParseBookID(s string) (BookID, error) {
	u, err := parseUUID(s, "book id")
	return BookID(u), err
}

// ParseMemberID parses external input into a MemberID.
func ParseMemberID(s string) (MemberID, error) {
	u, err := parseUUID(s, "member id")
	return MemberID(u), err
}

// ParseLoanID parses external input into a LoanID.
func ParseLoanID(s string) (LoanID, error) {
	u, err := parseUUID(s, "loan id")
	return LoanID(u), err
}

// ParseAccountID parses external input into an AccountID.
func ParseAccountID(s string) (AccountID, error) {
	u, err := parseUUID(s, "account id")
	return AccountID(u), err
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
