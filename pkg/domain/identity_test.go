package domain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidISBN(t *testing.T) {
	cases := map[string]bool{
		"9780306406157":  true,
		"0000000000000":  true,
		"978030640615":   false,
		"97803064061570": false,
		"978-030640615":  false,
		"978030640615X":  false,
		"":               false,
		" 9780306406157": false,
	}
	for in, want := range cases {
		assert.Equal(t, want, IsValidISBN(in), "isbn %q", in)
	}
}

func TestIsValidNationalID(t *testing.T) {
	cases := map[string]bool{
		"1234567":    true,
		"12345678":   true,
		"123456":     false,
		"123456789":  false,
		"1234567a":   false,
		"12.345.678": false,
	}
	for in, want := range cases {
		assert.Equal(t, want, IsValidNationalID(in), "dni %q", in)
	}
}

func TestIsValidEmail(t *testing.T) {
	assert.True(t, IsValidEmail("ana@biblioteca.org"))
	assert.False(t, IsValidEmail("ana@biblioteca"))
	assert.False(t, IsValidEmail("ana biblioteca@x.org"))
	assert.False(t, IsValidEmail("@x.org"))
}

func TestNextMemberNumber(t *testing.T) {
	t.Run("empty set starts at SOC001", func(t *testing.T) {
		assert.Equal(t, "SOC001", NextMemberNumber(nil))
	})

	t.Run("continues after the highest suffix", func(t *testing.T) {
		existing := make([]string, 0, 7)
		for i := 1; i <= 7; i++ {
			existing = append(existing, fmt.Sprintf("SOC%03d", i))
		}
		assert.Equal(t, "SOC008", NextMemberNumber(existing))
	})

	t.Run("uses maximum rather than count", func(t *testing.T) {
		assert.Equal(t, "SOC043", NextMemberNumber([]string{"SOC002", "SOC042", "SOC010"}))
	})

	t.Run("ignores malformed numbers", func(t *testing.T) {
		assert.Equal(t, "SOC004", NextMemberNumber([]string{"SOC003", "X999", "SOC", "SOCabc"}))
	})

	t.Run("ignores suffixes that are not plain digits", func(t *testing.T) {
		assert.Equal(t, "SOC004", NextMemberNumber([]string{"SOC003", "SOC+500", "SOC-900", "SOC 700"}))
	})

	t.Run("grows past SOC999", func(t *testing.T) {
		assert.Equal(t, "SOC1000", NextMemberNumber([]string{"SOC998", "SOC999"}))
		assert.Equal(t, "SOC1001", NextMemberNumber([]string{"SOC999", "SOC1000"}))
	})

	t.Run("generated numbers are well formed", func(t *testing.T) {
		assert.True(t, IsValidMemberNumber(NextMemberNumber([]string{"SOC099"})))
		assert.True(t, IsValidMemberNumber(NextMemberNumber([]string{"SOC999"})))
	})
}

func TestIsValidMemberNumber(t *testing.T) {
	cases := map[string]bool{
		"SOC001":  true,
		"SOC999":  true,
		"SOC1000": true,
		"SOC01":   false,
		"SOC+500": false,
		"soc001":  false,
		"SOC001 ": false,
	}
	for in, want := range cases {
		assert.Equal(t, want, IsValidMemberNumber(in), "member number %q", in)
	}
}
