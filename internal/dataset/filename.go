package dataset

import (
	"fmt"
	"path"
	"strconv"
	"strings"
)

// Window file suffixes used by the archive
const (
	HistoricalSuffix = "_hist.zip"
	RecentSuffix     = "_akt.zip"
)

func stemTokens(name string) []string {
	base := path.Base(name)
	if i := strings.Index(base, "."); i >= 0 {
		base = base[:i]
	}
	return strings.Split(base, "_")
}

// StationOf extracts the station id encoded in a data file name,
// e.g. 3 from "stundenwerte_TU_00003_19500401_20110331_hist.zip"
func (d Descriptor) StationOf(name string) (int, error) {
	tokens := stemTokens(name)
	if d.StationToken >= len(tokens) {
		return 0, fmt.Errorf("file name %q has no station token", name)
	}
	id, err := strconv.Atoi(tokens[d.StationToken])
	if err != nil {
		return 0, fmt.Errorf("file name %q: station token %q: %w", name, tokens[d.StationToken], err)
	}
	return id, nil
}

// HistoricalEndOf returns the YYYYMMDD end date of a historical file name
func (d Descriptor) HistoricalEndOf(name string) (string, bool) {
	if !IsHistoricalFile(name) {
		return "", false
	}
	tokens := stemTokens(name)
	if d.HistEndToken >= len(tokens) {
		return "", false
	}
	end := tokens[d.HistEndToken]
	if _, err := SplitTimestamp(end, 8); err != nil {
		return "", false
	}
	return end, true
}

// IsHistoricalFile reports whether name is a historical window archive
func IsHistoricalFile(name string) bool {
	return strings.HasSuffix(name, HistoricalSuffix)
}

// IsRecentFile reports whether name is a recent window archive
func IsRecentFile(name string) bool {
	return strings.HasSuffix(name, RecentSuffix)
}

// IsDataMember reports whether a zip member carries the readings
func (d Descriptor) IsDataMember(member string) bool {
	return strings.HasPrefix(path.Base(member), d.MemberPrefix)
}
