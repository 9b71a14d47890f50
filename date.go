package fatimg

import (
	"time"
)

// There is no clock source: every created entry carries this timestamp.
var placeholderTime = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)

// ParseDate reads a FAT date stamp. Its bits are, from LSB to MSB:
//
//	0-4:  day of month, 1-31
//	5-8:  month of year, 1-12
//	9-15: years since 1980, 0-127
//
// The result always has a time of 00:00:00 UTC. A day or month of 0 is
// invalid and returns time.Time{}, so IsZero can be used to detect it.
// A month above 12 carries over into the next year.
func ParseDate(input uint16) time.Time {
	dayOfMonth := input & 0x1F
	monthOfYear := input & 0x1E0 >> 5
	yearSince1980 := input & 0xFE00 >> 9

	if dayOfMonth == 0 || monthOfYear == 0 {
		return time.Time{}
	}

	return time.Date(1980+int(yearSince1980), time.Month(monthOfYear), int(dayOfMonth), 0, 0, 0, 0, time.UTC)
}

// ParseTime reads a FAT time stamp with a granularity of 2 seconds. Its bits
// are, from LSB to MSB:
//
//	0-4:   2 second count, 0-29
//	5-10:  minutes, 0-59
//	11-15: hours, 0-23
//
// The result is on January 1, year 1, so midnight is time.Time{}.
// Out of range values are capped at 23:59:59.
func ParseTime(input uint16) time.Time {
	seconds := int(input&0x1F) * 2
	minutes := input & 0x7E0 >> 5
	hours := input & 0xF800 >> 11

	result := time.Date(1, 1, 1, int(hours), int(minutes), seconds, 0, time.UTC)

	if result.Day() > 1 {
		return time.Date(1, 1, 1, 23, 59, 59, 0, time.UTC)
	}

	return result
}

// PackDate encodes the date part of t. Years before 1980 are not representable.
func PackDate(t time.Time) uint16 {
	return uint16(t.Year()-1980)<<9 |
		uint16(t.Month())<<5 |
		uint16(t.Day())
}

// PackTime encodes the time part of t, rounding seconds down to an even value.
func PackTime(t time.Time) uint16 {
	return uint16(t.Hour())<<11 |
		uint16(t.Minute())<<5 |
		uint16(t.Second()/2)
}
