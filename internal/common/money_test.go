package common

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestQuantize(t *testing.T) {
	cases := []struct {
		value        string
		divisibility int
		want         string
	}{
		{"1.23456789", 2, "1.23"},
		{"1.999", 2, "1.99"},
		{"1.23456789", 8, "1.23456789"},
		{"100", 2, "100"},
		{"0.009", 2, "0"},
	}

	for _, tc := range cases {
		got := Quantize(decimal.RequireFromString(tc.value), tc.divisibility)
		if !got.Equal(decimal.RequireFromString(tc.want)) {
			t.Errorf("Quantize(%s, %d): expected %s, got %s",
				tc.value, tc.divisibility, tc.want, got.String())
		}
	}
}

func TestToCents(t *testing.T) {
	cases := []struct {
		value        string
		divisibility int
		want         int64
	}{
		{"1.23", 2, 123},
		{"1.239", 2, 123},
		{"0.00000001", 8, 1},
		{"100", 0, 100},
		{"0.009", 2, 0},
	}

	for _, tc := range cases {
		if got := ToCents(decimal.RequireFromString(tc.value), tc.divisibility); got != tc.want {
			t.Errorf("ToCents(%s, %d): expected %d, got %d",
				tc.value, tc.divisibility, tc.want, got)
		}
	}
}

func TestFromCents_RoundTrip(t *testing.T) {
	amounts := []int64{0, 1, 123, 10000000000}
	for _, amount := range amounts {
		for _, divisibility := range []int{0, 2, 8} {
			value := FromCents(amount, divisibility)
			if got := ToCents(value, divisibility); got != amount {
				t.Errorf("Round trip of %d at divisibility %d gave %d", amount, divisibility, got)
			}
		}
	}

	if got := FromCents(123, 2); !got.Equal(decimal.RequireFromString("1.23")) {
		t.Errorf("FromCents(123, 2): expected 1.23, got %s", got.String())
	}
}
