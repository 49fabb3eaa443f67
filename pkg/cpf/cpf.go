// Package cpf generates and validates CPF numbers, the 11-digit national
// tax identifier whose last two digits are modulo-11 check digits computed
// from the first nine.
//
// The package is pure: no I/O, no shared mutable state. Randomness for the
// free digits is injected through DigitSource.
package cpf

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
)

const (
	// Length is the number of digits in a CPF.
	Length = 11
	// FreeDigits is the number of digits not constrained by the checksum.
	FreeDigits = 9
)

// ErrInvalidCheckDigits is returned by ParseValid when a well-formed CPF has
// check digits that do not match its free digits.
var ErrInvalidCheckDigits = errors.New("cpf: check digits do not match")

// FormatError reports input that is not shaped like a CPF. A check-digit
// mismatch is not a format error.
type FormatError struct {
	Input  string
	Reason string
}

func (e *FormatError) Error() string {
	if e.Input == "" {
		return "cpf: " + e.Reason
	}
	return fmt.Sprintf("cpf: %s: %q", e.Reason, e.Input)
}

// IsFormatError reports whether err is or wraps a *FormatError.
func IsFormatError(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}

// Identifier is an 11-digit CPF. The zero value is not a valid identifier.
type Identifier [Length]uint8

// DigitSource supplies free digits. Implementations must return values in [0,9].
type DigitSource interface {
	Digit() int
}

// DigitSourceFunc adapts a function to DigitSource.
type DigitSourceFunc func() int

func (f DigitSourceFunc) Digit() int { return f() }

// RandSource draws uniform digits from r.
func RandSource(r *rand.Rand) DigitSource {
	return DigitSourceFunc(func() int { return r.IntN(10) })
}

type globalSource struct{}

func (globalSource) Digit() int { return rand.IntN(10) }

// Generate builds a valid identifier from nine digits drawn from src.
// A nil src uses the process-wide random generator.
func Generate(src DigitSource) Identifier {
	if src == nil {
		src = globalSource{}
	}
	var free [FreeDigits]int
	for i := range free {
		free[i] = src.Digit()
	}
	id, err := GenerateFrom(free[:])
	if err != nil {
		// only reachable with a DigitSource that breaks its contract
		panic(err)
	}
	return id
}

// GenerateFrom builds a valid identifier from nine caller-chosen digits.
func GenerateFrom(free []int) (Identifier, error) {
	var id Identifier
	if len(free) != FreeDigits {
		return id, &FormatError{Reason: fmt.Sprintf("expected %d free digits, got %d", FreeDigits, len(free))}
	}
	for i, d := range free {
		if d < 0 || d > 9 {
			return id, &FormatError{Reason: fmt.Sprintf("digit %d out of range: %d", i, d)}
		}
		id[i] = uint8(d)
	}
	id[9] = checkDigit(id[:9])
	id[10] = checkDigit(id[:10])
	return id, nil
}

// Validate reports whether seq carries correct check digits. It returns a
// *FormatError when seq is not exactly 11 digits in [0,9].
func Validate(seq []int) (bool, error) {
	if len(seq) != Length {
		return false, &FormatError{Reason: fmt.Sprintf("expected %d digits, got %d", Length, len(seq))}
	}
	var id Identifier
	for i, d := range seq {
		if d < 0 || d > 9 {
			return false, &FormatError{Reason: fmt.Sprintf("digit %d out of range: %d", i, d)}
		}
		id[i] = uint8(d)
	}
	return id.Valid(), nil
}

// checkDigit computes the modulo-11 check digit over digits using weights
// len(digits)+1 down to 2. A result of 10 or 11 becomes 0.
func checkDigit(digits []uint8) uint8 {
	weight := len(digits) + 1
	sum := 0
	for i, d := range digits {
		sum += (weight - i) * int(d)
	}
	dv := 11 - sum%11
	if dv >= 10 {
		return 0
	}
	return uint8(dv)
}

// Parse reads a CPF in raw ("12345678909") or display ("123.456.789-09")
// form. It does not check the digits; see ParseValid.
func Parse(s string) (Identifier, error) {
	var id Identifier
	switch len(s) {
	case Length:
		for i := 0; i < Length; i++ {
			c := s[i]
			if c < '0' || c > '9' {
				return Identifier{}, &FormatError{Input: s, Reason: "non-digit character"}
			}
			id[i] = c - '0'
		}
		return id, nil
	case Length + 3:
		n := 0
		for i := 0; i < len(s); i++ {
			c := s[i]
			switch i {
			case 3, 7:
				if c != '.' {
					return Identifier{}, &FormatError{Input: s, Reason: "expected '.' separator"}
				}
				continue
			case 11:
				if c != '-' {
					return Identifier{}, &FormatError{Input: s, Reason: "expected '-' separator"}
				}
				continue
			}
			if c < '0' || c > '9' {
				return Identifier{}, &FormatError{Input: s, Reason: "non-digit character"}
			}
			id[n] = c - '0'
			n++
		}
		return id, nil
	default:
		return Identifier{}, &FormatError{Input: s, Reason: "expected 11 digits or ddd.ddd.ddd-dd"}
	}
}

// ParseValid parses s and requires correct check digits.
func ParseValid(s string) (Identifier, error) {
	id, err := Parse(s)
	if err != nil {
		return Identifier{}, err
	}
	if !id.Valid() {
		return Identifier{}, ErrInvalidCheckDigits
	}
	return id, nil
}

// MustParse is Parse that panics. Use only in tests and fixtures.
func MustParse(s string) Identifier {
	id, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return id
}

// Valid reports whether the check digits match the free digits.
func (id Identifier) Valid() bool {
	for _, d := range id {
		if d > 9 {
			return false
		}
	}
	return id[9] == checkDigit(id[:9]) && id[10] == checkDigit(id[:10])
}

// Ints returns the digits as a slice, suitable for Validate.
func (id Identifier) Ints() []int {
	out := make([]int, Length)
	for i, d := range id {
		out[i] = int(d)
	}
	return out
}

// Digits returns the raw 11-character form used as the storage key.
func (id Identifier) Digits() string {
	var b [Length]byte
	for i, d := range id {
		b[i] = '0' + d
	}
	return string(b[:])
}

// String returns the display form ddd.ddd.ddd-dd.
func (id Identifier) String() string {
	raw := id.Digits()
	var sb strings.Builder
	sb.Grow(Length + 3)
	sb.WriteString(raw[0:3])
	sb.WriteByte('.')
	sb.WriteString(raw[3:6])
	sb.WriteByte('.')
	sb.WriteString(raw[6:9])
	sb.WriteByte('-')
	sb.WriteString(raw[9:11])
	return sb.String()
}

// MarshalText encodes the display form.
func (id Identifier) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText accepts raw or display form. Check digits are not enforced
// here; callers validate at the domain boundary.
func (id *Identifier) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
