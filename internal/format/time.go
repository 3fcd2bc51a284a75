package format

import "time"

const (
	filetimeOffset = 116444736000000000 // difference between FILETIME epoch and Unix epoch in 100ns units
	filetimeUnit   = 100                // FILETIME units are 100ns
)

// FiletimeToTime converts a Windows FILETIME to time.Time. ok is false for
// zero or pre-1970 stamps, which hives use to mean "never written".
func FiletimeToTime(v uint64) (time.Time, bool) {
	if v <= filetimeOffset {
		return time.Time{}, false
	}
	d := v - filetimeOffset
	sec := d / (uint64(time.Second) / filetimeUnit)
	nsec := (d % (uint64(time.Second) / filetimeUnit)) * filetimeUnit
	return time.Unix(int64(sec), int64(nsec)).UTC(), true
}

// TimeToFiletime converts a time.Time to a Windows FILETIME.
func TimeToFiletime(t time.Time) uint64 {
	ns := t.UnixNano()
	if ns < 0 {
		ns = 0
	}
	return uint64(ns)/filetimeUnit + filetimeOffset
}
