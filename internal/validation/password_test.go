package validation

import (
	"errors"
	"strings"
	"testing"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantRule Rule
	}{
		{name: "valid", password: "abc123!", wantRule: ""},
		{name: "valid_min_length", password: "a1!bcd", wantRule: ""},
		{name: "valid_max_length", password: "abcdefghijklmno1#x", wantRule: ""},
		{name: "empty", password: "", wantRule: RuleLength},
		{name: "too_short", password: "abc12", wantRule: RuleLength},
		{name: "too_long", password: "abcdefghijklmnop1#x", wantRule: RuleLength},
		{name: "length_checked_before_digit", password: "abc", wantRule: RuleLength},
		{name: "missing_digit", password: "abcdef!", wantRule: RuleDigit},
		{name: "missing_special", password: "abcdef1", wantRule: RuleSpecial},
		{name: "special_outside_set", password: "abcdef1~", wantRule: RuleSpecial},
		{name: "quote_is_special", password: "abcde1\"", wantRule: ""},
		{name: "multibyte_counts_runes", password: "ééééé1!", wantRule: ""},
	}
	for _, tc := range tests {
		err := ValidatePassword(tc.password)
		if tc.wantRule == "" {
			if err != nil {
				t.Fatalf("%s: unexpected error: %v", tc.name, err)
			}
			continue
		}
		var verr *Error
		if !errors.As(err, &verr) {
			t.Fatalf("%s: expected *Error, got %v", tc.name, err)
		}
		if verr.Rule != tc.wantRule {
			t.Fatalf("%s: expected rule %q, got %q", tc.name, tc.wantRule, verr.Rule)
		}
		if verr.Error() != Reason(tc.wantRule) {
			t.Fatalf("%s: unexpected reason %q", tc.name, verr.Error())
		}
	}
}

func TestValidatePasswordLengthBoundaries(t *testing.T) {
	for n := 0; n <= 25; n++ {
		pwd := "1!" + strings.Repeat("a", max(n-2, 0))
		if n < 2 {
			pwd = strings.Repeat("a", n)
		}
		err := ValidatePassword(pwd)
		inRange := n >= MinPasswordLength && n <= MaxPasswordLength
		var verr *Error
		isLength := errors.As(err, &verr) && verr.Rule == RuleLength
		if inRange && err != nil {
			t.Fatalf("length %d: unexpected error %v", n, err)
		}
		if !inRange && !isLength {
			t.Fatalf("length %d: expected length violation, got %v", n, err)
		}
	}
}

func TestReasonMessages(t *testing.T) {
	want := map[Rule]string{
		RuleLength:  "Password must be 6–18 characters.",
		RuleDigit:   "Password must include at least one number.",
		RuleSpecial: "Password must include one special character.",
	}
	for rule, msg := range want {
		if got := Reason(rule); got != msg {
			t.Fatalf("rule %s: expected %q, got %q", rule, msg, got)
		}
	}
}

func TestCheckRequired(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		want     error
	}{
		{name: "ok", email: "a@b.com", password: "x", want: nil},
		{name: "missing_email", email: "", password: "x", want: ErrEmailRequired},
		{name: "padded_email_not_normalized", email: " a@b.com ", password: "x", want: ErrEmailFormat},
		{name: "bad_email_reported_before_missing_password", email: "nope", password: "", want: ErrEmailFormat},
		{name: "missing_password", email: "a@b.com", password: "", want: ErrPasswordRequired},
		{name: "bad_email", email: "not-an-email", password: "x", want: ErrEmailFormat},
		{name: "display_name_rejected", email: "Bob <a@b.com>", password: "x", want: ErrEmailFormat},
	}
	for _, tc := range tests {
		err := CheckRequired(tc.email, tc.password)
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  a@b.com\t"); got != "a@b.com" {
		t.Fatalf("expected trimmed email, got %q", got)
	}
	if err := CheckRequired(NormalizeEmail("   "), "x"); !errors.Is(err, ErrEmailRequired) {
		t.Fatalf("expected blank email to be required, got %v", err)
	}
}
