package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Format rules for catalog identifiers. These are the only accepted shapes at the
// trust boundary; stores assume values were checked before persisting.
var (
	isbnPattern         = regexp.MustCompile(`^\d{13}$`)
	nationalIDPattern   = regexp.MustCompile(`^\d{7,8}$`)
	emailPattern        = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	memberNumberPattern = regexp.MustCompile(`^SOC\d{3,}$`)
	memberNumberPrefix  = "SOC"
)

// IsValidISBN reports whether s is exactly 13 ASCII digits.
func IsValidISBN(s string) bool {
	return isbnPattern.MatchString(s)
}

// IsValidNationalID reports whether s is a 7 or 8 digit DNI.
func IsValidNationalID(s string) bool {
	return nationalIDPattern.MatchString(s)
}

func IsValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// IsValidMemberNumber reports whether s is "SOC" followed by at least three digits.
func IsValidMemberNumber(s string) bool {
	return memberNumberPattern.MatchString(s)
}

// NextMemberNumber returns the member number following the highest one in existing.
// Values that are not valid member numbers are ignored. An empty set yields SOC001;
// numbers past SOC999 grow to four digits and beyond.
func NextMemberNumber(existing []string) string {
	highest := 0
	for _, n := range existing {
		if !memberNumberPattern.MatchString(n) {
			continue
		}
		v, err := strconv.Atoi(strings.TrimPrefix(n, memberNumberPrefix))
		if err != nil {
			continue
		}
		if v > highest {
			highest = v
		}
	}
	return fmt.Sprintf("%s%03d", memberNumberPrefix, highest+1)
}
