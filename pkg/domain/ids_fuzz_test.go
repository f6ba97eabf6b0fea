package domain

import (
	"testing"
	"unicode/utf8"
)

// FuzzParseLoanID tests that parsing never panics on arbitrary input
// and always returns either a valid ID or an error.
func FuzzParseLoanID(f *testing.F) {
	f.Add("")
	f.Add("550e8400-e29b-41d4-a716-446655440000")
	f.Add("00000000-0000-0000-0000-000000000000")
	f.Add("not-a-uuid")
	f.Add("'; DROP TABLE loans;--")
	f.Add(string([]byte{0x00, 0x01, 0x02}))

	f.Fuzz(func(t *testing.T, input string) {
		id, err := ParseLoanID(input)
		if err == nil {
			roundTrip, err2 := ParseLoanID(id.String())
			if err2 != nil {
				t.Errorf("valid ID failed round-trip: %v", err2)
			}
			if roundTrip != id {
				t.Error("round-trip changed ID value")
			}
			if id.IsNil() {
				t.Error("nil ID accepted")
			}
		}
		if !utf8.ValidString(input) && err == nil {
			t.Error("non-UTF8 input was accepted")
		}
	})
}

// FuzzIsValidISBN checks the validator agrees with a plain digit count.
func FuzzIsValidISBN(f *testing.F) {
	f.Add("9780306406157")
	f.Add("978030640615")
	f.Add("97803064061570")
	f.Add("978-0306406157")

	f.Fuzz(func(t *testing.T, input string) {
		want := len(input) == 13
		for i := 0; i < len(input) && want; i++ {
			if input[i] < '0' || input[i] > '9' {
				want = false
			}
		}
		if got := IsValidISBN(input); got != want {
			t.Errorf("IsValidISBN(%q) = %v, want %v", input, got, want)
		}
	})
}
