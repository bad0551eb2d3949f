// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.15
//

package sp3

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/exp/slices"
)

// ------------------------------------
// Debug print function
// ------------------------------------

var logOut io.Writer = os.Stderr

// Redirect debug output (stderr by default)
func SetLogOutput(w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	logOut = w
}

func PrintA(format string, a ...any) {
	fmt.Fprintf(logOut, format, a...)
}

func PrintAIf(cond bool, format string, a ...any) {
	if cond {
		PrintA(format, a...)
	}
}

// Debug display level
var DBG_ int

// Debug display
func PrintD(v int, format string, a ...any) {
	PrintAIf(DBG_ >= v, format, a...)
}

func PrintE(err error) {
	fmt.Fprintf(logOut, "err=%s\n", err.Error())
}

// ------------------------------------
// For command argument parsing
// ------------------------------------

type SatVar []SatID

func (p *SatVar) Set(s string) error {
	*p = []SatID{}
	for _, a := range strings.Split(s, ",") {
		sat, err := ParseSatID(strings.TrimSpace(a))
		if err != nil {
			return err
		}
		*p = append(*p, sat)
	}
	return nil
}

func (p *SatVar) String() string {
	if p == nil {
		return ""
	}
	a := make([]string, len(*p))
	for i, s := range *p {
		a[i] = s.String()
	}
	return strings.Join(a, ",")
}

func (p *SatVar) Contains(s SatID) bool {
	return p != nil && slices.Contains(*p, s)
}

// Date and Time Parser (for command arguments)
type TimeStr time.Time

func (p *TimeStr) MarshalText() (text []byte, err error) {
	if time.Time(*p).IsZero() {
		return []byte{}, nil
	}
	return []byte(time.Time(*p).Format("2006/01/02 15:04:05")), nil
}

func (p *TimeStr) UnmarshalText(text []byte) error {
	s := string(text)
	t, err := time.Parse("2006/01/02 15:04:05", s)
	if err != nil {
		return err
	}
	*p = TimeStr(t)
	return nil
}

func (p *TimeStr) IsZero() bool {
	return time.Time(*p).IsZero()
}

// Reading of this date and time in the given scale
func (p *TimeStr) Epoch(scale TimeScale) Epoch {
	return Epoch{Time: time.Time(*p), Scale: scale}
}

// ------------------------------------
// Others
// ------------------------------------

// Sort the list of satellites (system letter then number)
func Sorted(s []SatID) []SatID {
	s2 := slices.Clone(s)
	slices.SortFunc(s2, func(a, b SatID) int {
		return a.Compare(b)
	})
	return s2
}
