package gacha

import (
	"fmt"
	"strings"
)

// Tier is a character rank. The zero value is not a valid tier.
type Tier string

const (
	TierUZPlus Tier = "uz+"
	TierUZ     Tier = "uz"
	TierZZZ    Tier = "zzz"
	TierZZ     Tier = "zz"
	TierZ      Tier = "z"
	TierSSS    Tier = "sss"
	TierSS     Tier = "ss"
	TierS      Tier = "s"
	TierA      Tier = "a"
	TierB      Tier = "b"
	TierC      Tier = "c"
	TierD      Tier = "d"
	TierE      Tier = "e"
)

// rankPoints maps every valid tier to the points a single draw of it awards.
var rankPoints = map[Tier]int{
	TierUZPlus: 10,
	TierUZ:     8,
	TierZZZ:    6,
	TierZZ:     4,
	TierZ:      2,
	TierSSS:    1,
	TierSS:     1,
	TierS:      1,
	TierA:      1,
	TierB:      1,
	TierC:      1,
	TierD:      1,
	TierE:      1,
}

// Tiers lists the valid tiers from highest to lowest value.
func Tiers() []Tier {
	return []Tier{
		TierUZPlus, TierUZ, TierZZZ, TierZZ, TierZ,
		TierSSS, TierSS, TierS, TierA, TierB, TierC, TierD, TierE,
	}
}

// ParseTier normalizes s (trim + lower-case) and checks it against the point table.
func ParseTier(s string) (Tier, error) {
	t := Tier(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := rankPoints[t]; !ok {
		return "", fmt.Errorf("unknown rank tier %q", s)
	}
	return t, nil
}

// Valid reports whether t is a known tier
func (t Tier) Valid() bool {
	_, ok := rankPoints[t]
	return ok
}

// Points returns the point value of t. Unknown tiers are worth 0.
func (t Tier) Points() int {
	return rankPoints[t]
}

// Label is the upper-cased form shown to users
func (t Tier) Label() string {
	return strings.ToUpper(string(t))
}

func (t Tier) String() string {
	return string(t)
}
