package domain

import (
	"testing"
)

func TestRCode_IsValid(t *testing.T) {
	cases := []struct {
		code RCode
		want bool
	}{
		{0, true}, {1, true}, {2, false}, {3, true}, {4, false}, {16, false}, {0xFFFF, false},
	}
	for _, tc := range cases {
		if got := tc.code.IsValid(); got != tc.want {
			t.Errorf("IsValid(%d) = %v, want %v", tc.code, got, tc.want)
		}
	}
}

func TestRCode_String(t *testing.T) {
	cases := []struct {
		code RCode
		want string
	}{
		{0, "NOERROR"}, {1, "FORMERR"}, {3, "NXDOMAIN"},
		{2, "UNKNOWN(2)"}, {255, "UNKNOWN(255)"}, {0xFFFF, "UNKNOWN(65535)"},
	}
	for _, tc := range cases {
		if got := tc.code.String(); got != tc.want {
			t.Errorf("String(%d) = %v, want %v", tc.code, got, tc.want)
		}
	}
}
