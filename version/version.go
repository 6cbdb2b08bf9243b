// Package version implements the engine's Version value: a parsed,
// non-negative decimal schema version with total numeric ordering and a
// canonical textual form, as required by spec §3 (Data Model) and the
// round-trip invariant between directory names and display/log text.
package version

import (
	"math/big"
	"regexp"

	"go.hackfix.me/schemamigrate/migrateerrors"
)

// syntax matches the decimal numeric form accepted in directory names:
// one or more digits, optionally followed by a dot and one or more digits.
// No sign, no exponent, no thousands separators.
var syntax = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)

// Version is a parsed schema version. The zero Version (as returned by
// Zero) denotes "schema absent".
//
// Version is comparable numerically via Compare, but two Versions built
// from different textual forms of the same number (e.g. "0" and "0.00")
// are numerically equal while preserving their own String() form.
type Version struct {
	raw string
	num *big.Rat
}

// Zero returns the sentinel version representing an absent schema.
func Zero() Version {
	return Version{raw: "0", num: big.NewRat(0, 1)}
}

// Parse parses a canonical textual version such as "0.01", "1", or "2.10".
// It returns a *migrateerrors.Error of KindBadVersionSyntax if s is not a
// non-negative decimal number.
func Parse(s string) (Version, error) {
	if !syntax.MatchString(s) {
		return Version{}, migrateerrors.Wrap(migrateerrors.KindBadVersionSyntax,
			"version text is not a non-negative decimal number", migrateerrors.ErrBadVersionSyntax,
			"text", s)
	}

	num, ok := new(big.Rat).SetString(s)
	if !ok {
		return Version{}, migrateerrors.Wrap(migrateerrors.KindBadVersionSyntax,
			"failed parsing version as a number", migrateerrors.ErrBadVersionSyntax, "text", s)
	}

	return Version{raw: s, num: num}, nil
}

// MustParse parses s like Parse, but panics on error. Intended for tests and
// compile-time-known constants, not for directory names read from disk.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// String returns the canonical textual form the Version was parsed from
// (e.g. the directory name it came from), not a re-rendered numeric form.
func (v Version) String() string {
	if v.num == nil {
		return "0"
	}
	return v.raw
}

// IsZero reports whether v is numerically zero, regardless of its textual
// form ("0" and "0.00" are both zero).
func (v Version) IsZero() bool {
	return v.num == nil || v.num.Sign() == 0
}

// Compare returns -1, 0, or 1 as v is numerically less than, equal to, or
// greater than other.
func (v Version) Compare(other Version) int {
	a, b := v.num, other.num
	if a == nil {
		a = big.NewRat(0, 1)
	}
	if b == nil {
		b = big.NewRat(0, 1)
	}
	return a.Cmp(b)
}

// Less reports whether v is numerically less than other.
func (v Version) Less(other Version) bool {
	return v.Compare(other) < 0
}

// Equal reports whether v and other are numerically equal.
func (v Version) Equal(other Version) bool {
	return v.Compare(other) == 0
}

// Key returns a normalized representation of v's numeric value suitable for
// use as a map key (graph vertex identity), independent of the textual form
// used to parse it.
func (v Version) Key() string {
	if v.num == nil {
		return "0"
	}
	return v.num.RatString()
}
