package dataset

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"dwdcdc/internal/constants"
)

var commentRe = regexp.MustCompile(`\([^)]*\)`)

// ParseStationSelection parses a comma separated station list. Each entry may
// carry a parenthesised comment, e.g. "722(Brocken), 5792 (Zugspitze)".
// Duplicates are dropped while keeping the first position.
func ParseStationSelection(s string) ([]int, error) {
	var out []int
	seen := map[int]bool{}

	for _, part := range strings.Split(commentRe.ReplaceAllString(s, ""), ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.Atoi(part)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("%s: %q", constants.GetErrorMessage(constants.ErrCodeInvalidStationList), part)
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out, nil
}
