package validation

import (
	"errors"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	MinPasswordLength = 6
	MaxPasswordLength = 18
)

type Rule string

const (
	RuleLength  Rule = "length"
	RuleDigit   Rule = "digit"
	RuleSpecial Rule = "special"
)

// Error reports the first password rule a candidate violated.
type Error struct {
	Rule   Rule
	Reason string
}

func (e *Error) Error() string { return e.Reason }

var (
	ErrEmailRequired    = errors.New("email is required")
	ErrPasswordRequired = errors.New("password is required")
	ErrEmailFormat      = errors.New("email address is not valid")
)

var (
	digitRe   = regexp.MustCompile(`[0-9]`)
	specialRe = regexp.MustCompile(`[!@#$%^&*(),.?":{}|<>]`)
)

var reasons = map[Rule]string{
	RuleLength:  "Password must be 6–18 characters.",
	RuleDigit:   "Password must include at least one number.",
	RuleSpecial: "Password must include one special character.",
}

// ValidatePassword checks length, digit and special-character rules in that
// order and stops at the first violation.
func ValidatePassword(password string) error {
	n := utf8.RuneCountInString(password)
	if n < MinPasswordLength || n > MaxPasswordLength {
		return violation(RuleLength)
	}
	if !digitRe.MatchString(password) {
		return violation(RuleDigit)
	}
	if !specialRe.MatchString(password) {
		return violation(RuleSpecial)
	}
	return nil
}

// Reason returns the user-facing message for rule.
func Reason(rule Rule) string { return reasons[rule] }

func violation(rule Rule) *Error {
	return &Error{Rule: rule, Reason: reasons[rule]}
}

// NormalizeEmail strips the surrounding whitespace a browser removes from an
// email input's value.
func NormalizeEmail(email string) string {
	return strings.TrimSpace(email)
}

// CheckRequired mirrors the native constraint checks of an HTML form with
// required email and password inputs, reporting the first invalid field in
// form order. Callers pass the email through NormalizeEmail first. It runs
// before submission and is independent of the password policy.
func CheckRequired(email, password string) error {
	if email == "" {
		return ErrEmailRequired
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email, "@") {
		return ErrEmailFormat
	}
	if password == "" {
		return ErrPasswordRequired
	}
	return nil
}
