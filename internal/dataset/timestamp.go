package dataset

import (
	"fmt"
	"strconv"
	"time"
)

// SplitTimestamp slices a YYYYMMDD or YYYYMMDDHH token into its calendar parts
func SplitTimestamp(ts string, digits int) ([]int, error) {
	if len(ts) != digits {
		return nil, fmt.Errorf("timestamp %q has %d digits, want %d", ts, len(ts), digits)
	}
	for _, r := range ts {
		if r < '0' || r > '9' {
			return nil, fmt.Errorf("timestamp %q contains a non-digit", ts)
		}
	}

	bounds := [][2]int{{0, 4}, {4, 6}, {6, 8}}
	if digits == 10 {
		bounds = append(bounds, [2]int{8, 10})
	}

	parts := make([]int, 0, len(bounds))
	for _, b := range bounds {
		v, _ := strconv.Atoi(ts[b[0]:b[1]])
		parts = append(parts, v)
	}

	if parts[1] < 1 || parts[1] > 12 || parts[2] < 1 || parts[2] > 31 {
		return nil, fmt.Errorf("timestamp %q is not a calendar date", ts)
	}
	if len(parts) == 4 && parts[3] > 23 {
		return nil, fmt.Errorf("timestamp %q has hour %d", ts, parts[3])
	}
	return parts, nil
}

// ToISO converts a DWD timestamp token to "YYYY-MM-DD" or "YYYY-MM-DD HH:00:00".
// Tokens of unexpected length are returned unchanged.
func ToISO(ts string) string {
	switch len(ts) {
	case 8:
		return ts[0:4] + "-" + ts[4:6] + "-" + ts[6:8]
	case 10:
		return ts[0:4] + "-" + ts[4:6] + "-" + ts[6:8] + " " + ts[8:10] + ":00:00"
	default:
		return ts
	}
}

// LatestCompleteToken is the newest timestamp a recent file published at now
// can contain: the last hour or the last day before today.
func LatestCompleteToken(now time.Time, digits int) string {
	y := now.AddDate(0, 0, -1)
	tok := y.Format("20060102")
	if digits == 10 {
		tok += "23"
	}
	return tok
}

// CoversDate reports whether the timestamp token ts reaches the YYYYMMDD date
func CoversDate(ts, date string) bool {
	if len(ts) < 8 || len(date) < 8 {
		return false
	}
	return ts[:8] >= date[:8]
}
