// Package strings provides string cleanup helpers for request normalization.
package strings

import (
	"strings"
)

// Squish trims s and collapses every interior run of whitespace into a
// single space.
//
// Example:
//
//	Squish("  Maria   da\tSilva ")
//	// Returns: "Maria da Silva"
func Squish(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// SquishAll applies Squish to each pointed-to value in place. Nil pointers
// are skipped.
func SquishAll(values ...*string) {
	for _, v := range values {
		if v != nil {
			*v = Squish(*v)
		}
	}
}
