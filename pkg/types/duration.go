package types

import "time"

// Duration is a purchasable access package.
type Duration string

const (
	Duration1d  Duration = "1d"
	Duration7d  Duration = "7d"
	Duration30d Duration = "30d"
)

// AllDurations lists packages in menu order.
var AllDurations = []Duration{Duration1d, Duration7d, Duration30d}

// Millis returns the entitlement length in milliseconds. Unknown values map
// to 0 and must be rejected before a transaction is created.
func (d Duration) Millis() int64 {
	switch d {
	case Duration1d:
		return 86_400_000
	case Duration7d:
		return 604_800_000
	case Duration30d:
		return 2_592_000_000
	}
	return 0
}

func (d Duration) Valid() bool {
	return d.Millis() > 0
}

func (d Duration) AsDuration() time.Duration {
	return time.Duration(d.Millis()) * time.Millisecond
}

// Label is the human-readable package name used on keyboards.
func (d Duration) Label() string {
	switch d {
	case Duration1d:
		return "1 day"
	case Duration7d:
		return "7 days"
	case Duration30d:
		return "30 days"
	}
	return string(d)
}
