package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidCadence is returned for cadence values outside the known set.
var ErrInvalidCadence = errors.New("invalid cadence")

// Cadence is the repetition period of a habit. It defines what "consecutive"
// means when computing streaks.
type Cadence string

const (
	CadenceDaily   Cadence = "daily"
	CadenceWeekly  Cadence = "weekly"
	CadenceMonthly Cadence = "monthly"
)

// Cadences lists every supported cadence.
var Cadences = []Cadence{CadenceDaily, CadenceWeekly, CadenceMonthly}

// Valid reports whether c is one of the supported cadences.
func (c Cadence) Valid() bool {
	switch c {
	case CadenceDaily, CadenceWeekly, CadenceMonthly:
		return true
	default:
		return false
	}
}

func (c Cadence) String() string {
	return string(c)
}

// ParseCadence parses a case-insensitive cadence name.
func ParseCadence(s string) (Cadence, error) {
	c := Cadence(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q (expected daily, weekly or monthly)", ErrInvalidCadence, s)
	}
	return c, nil
}
