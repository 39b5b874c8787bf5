// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package types

import "fmt"

// Fate is the final classification of a domain after it went through the
// checking pipeline.
type Fate int

// The possible fates of a checked domain.
const (
	Undecided Fate = iota // domain not (yet) classified.
	Alive                 // domain resolved and/or answered on a web port.
	DeadDNS               // no configured DNS server could resolve the domain.
	DeadTCP               // domain resolved partially, but no web port answered.
)

// String returns the clear-text representation of a Fate value.
func (f Fate) String() string {
	switch f {
	case Undecided:
		return "undecided"
	case Alive:
		return "alive"
	case DeadDNS:
		return "dead (DNS)"
	case DeadTCP:
		return "dead (TCP)"
	}
	return fmt.Sprintf("Fate(%d)", f)
}

// IsDead returns true if the domain ended up in one of the two dead
// classifications.
func (f Fate) IsDead() bool {
	switch f {
	case DeadDNS, DeadTCP:
		return true
	default:
		return false
	}
}
