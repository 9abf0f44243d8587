package providers

import (
	"context"

	"dwdcdc/internal/dataset"
)

// Archive is the remote file server the engine mirrors from
type Archive interface {
	// List returns the file names of a remote directory in listing order.
	// With stations given, only data files whose name carries one of them are returned.
	List(ctx context.Context, d dataset.Descriptor, dir string, stations ...int) ([]string, error)

	// Download returns the complete content of a remote file
	Download(ctx context.Context, path string) ([]byte, error)
}

// FilterByStation keeps the names whose station token is in stations.
// Names without a parseable station token are dropped.
func FilterByStation(d dataset.Descriptor, names []string, stations []int) []string {
	if len(stations) == 0 {
		return names
	}
	want := make(map[int]bool, len(stations))
	for _, s := range stations {
		want[s] = true
	}

	out := make([]string, 0)
	for _, name := range names {
		id, err := d.StationOf(name)
		if err != nil {
			continue
		}
		if want[id] {
			out = append(out, name)
		}
	}
	return out
}
