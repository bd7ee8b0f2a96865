package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidAddress(t *testing.T) {
	cases := []struct {
		name string
		in   string
		ok   bool
	}{
		{name: "valid", in: "0x52908400098527886E0F7030069857D2E4169EE7", ok: true},
		{name: "valid_lowercase", in: "0xde709f2102306220921060314715629080e2fb77", ok: true},
		{name: "missing_prefix", in: "52908400098527886E0F7030069857D2E4169EE7", ok: false},
		{name: "too_short", in: "0x5290840009852788", ok: false},
		{name: "too_long", in: "0x52908400098527886E0F7030069857D2E4169EE700", ok: false},
		{name: "non_hex", in: "0x52908400098527886E0F7030069857D2E4169EZZ", ok: false},
		{name: "empty", in: "", ok: false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.ok, ValidAddress(tc.in))
		})
	}
}

func TestValidAmount(t *testing.T) {
	cases := []struct {
		name string
		in   string
		ok   bool
	}{
		{name: "integer", in: "100", ok: true},
		{name: "fraction", in: "1.5", ok: true},
		{name: "trailing_dot", in: "1.", ok: false},
		{name: "max_fraction_digits", in: "0.123456789012345678", ok: true},
		{name: "too_many_fraction_digits", in: "0.1234567890123456789", ok: false},
		{name: "negative", in: "-1", ok: false},
		{name: "not_a_number", in: "abc", ok: false},
		{name: "comma_separator", in: "1,5", ok: false},
		{name: "empty", in: "", ok: false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.ok, ValidAmount(tc.in))
		})
	}
}

func TestScaleToBaseUnits(t *testing.T) {
	cases := []struct {
		name     string
		amount   string
		decimals uint8
		want     string
		wantErr  bool
	}{
		{name: "one_point_five_two_decimals", amount: "1.5", decimals: 2, want: "150"},
		{name: "one_point_five_eighteen_decimals", amount: "1.5", decimals: 18, want: "1500000000000000000"},
		{name: "integer", amount: "42", decimals: 6, want: "42000000"},
		{name: "zero", amount: "0", decimals: 18, want: "0"},
		{name: "full_precision", amount: "0.000000000000000001", decimals: 18, want: "1"},
		{name: "too_precise_for_token", amount: "1.005", decimals: 2, wantErr: true},
		{name: "any_fraction_on_zero_decimals", amount: "0.1", decimals: 0, wantErr: true},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			amount, err := decimal.NewFromString(tc.amount)
			require.NoError(t, err)

			got, err := ScaleToBaseUnits(amount, tc.decimals)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got.String())
		})
	}
}
