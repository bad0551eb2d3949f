// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.12
//

package sp3

// SP3 file layout (revisions a to d)
// https://files.igs.org/pub/data/format/sp3d.pdf
//

// Line markers
const (
	markerLine1      = "#"
	markerLine2      = "##"
	markerSatList    = "+ "
	markerAccuracy   = "++"
	markerDescriptor = "%c"
	markerFloatBase  = "%f"
	markerIntBase    = "%i"
	markerComment    = "/*"
	markerEpoch      = "*  "
	markerPosition   = 'P'
	markerVelocity   = 'V'
	markerEOF        = "EOF"
)

// Column widths
const (
	minLine1Len      = 59 // Header line #1 (agency may be shorter than 4 characters)
	line2Len         = 60 // Header line #2 (exact)
	minDescriptorLen = 60 // %c line carrying constellation and time scale
	minRecordLen     = 60 // P and V records up to the clock column
	commentOffset    = 3  // Comment text starts after "/* "
	satsPerLine      = 17 // Satellite ids per + / ++ line
	minSatLines      = 5  // Minimum number of + / ++ lines
)

// Clock column value meaning "no data"
const (
	clockSentinel    = 999999.999999
	clockSentinelTag = "999999."
)

// Unit conversions applied by the assembly stage
const (
	usToSec       = 1e-6  // Position record clock [us] -> [s]
	dmsToKms      = 1e-4  // Velocity record components [dm/s] -> [km/s]
	subNsToSecSec = 1e-10 // Velocity record clock rate [1e-4 us/s] -> [s/s]
)
