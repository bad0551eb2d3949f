// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.12
//

package sp3

import (
	"fmt"
	"strconv"
	"strings"
)

// Type representing satellite system like 'G'
type SysType byte

// Check validity of satellite system
func (p SysType) IsValid() bool {
	return strings.IndexByte(sysLetters, byte(p)) >= 0
}

// GPS, GLONASS, Galileo, BeiDou, QZSS, NavIC, SBAS, LEO
const sysLetters = "GRECJISL"

// Satellite identifier like "G10"
type SatID struct {
	Sys SysType
	PRN int
}

// Parse a 3-character satellite id. A blank system letter (SP3-a) means GPS.
func ParseSatID(s string) (SatID, error) {
	if len(s) < 2 || len(s) > 3 {
		return SatID{}, fmt.Errorf("invalid satellite id %q", s)
	}
	if len(s) == 2 {
		s = " " + s
	}
	sys := SysType(s[0])
	if sys == ' ' {
		sys = 'G'
	}
	if !sys.IsValid() {
		return SatID{}, fmt.Errorf("unknown satellite system '%c'", sys)
	}
	prn, err := strconv.Atoi(strings.TrimSpace(s[1:]))
	if err != nil || prn <= 0 {
		return SatID{}, fmt.Errorf("invalid satellite number in %q", s)
	}
	return SatID{Sys: sys, PRN: prn}, nil
}

func (p SatID) String() string {
	return fmt.Sprintf("%c%02d", p.Sys, p.PRN)
}

// Ordering by (system letter, number)
func (p SatID) Compare(b SatID) int {
	if p.Sys != b.Sys {
		return int(p.Sys) - int(b.Sys)
	}
	return p.PRN - b.PRN
}

// Constellation declared in the %c descriptor line
type Constellation byte

const Mixed Constellation = 'M'

func ParseConstellation(s string) (Constellation, error) {
	s = strings.TrimSpace(s)
	if len(s) != 1 {
		return 0, fmt.Errorf("invalid constellation %q", s)
	}
	c := Constellation(s[0])
	if c != Mixed && !SysType(c).IsValid() {
		return 0, fmt.Errorf("unknown constellation %q", s)
	}
	return c, nil
}

func (p Constellation) String() string {
	if p == Mixed {
		return "Mixed"
	}
	return string(rune(p))
}
