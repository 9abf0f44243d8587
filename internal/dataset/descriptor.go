// Package dataset describes the per-dataset file layouts of the DWD Climate
// Data Center archive and parses their rows into typed tuples.
//
// A dataset is data, not code: every layout difference between e.g. hourly
// air temperature and the daily climate summary lives in a Descriptor.
package dataset

import (
	"fmt"
	"strings"

	"dwdcdc/internal/constants"
)

// ColumnKind is the declared type of a data column
type ColumnKind string

const (
	KindInt   ColumnKind = "int"
	KindFloat ColumnKind = "float"
	KindText  ColumnKind = "text"
)

// Column maps one raw field to a typed table column
type Column struct {
	Name     string     `yaml:"name"`
	Index    int        `yaml:"index"` // position in the raw row
	Kind     ColumnKind `yaml:"kind"`
	Nullable bool       `yaml:"nullable"`
}

// StationListSource locates the station description file of a dataset
type StationListSource struct {
	Dir  string `yaml:"dir"`
	File string `yaml:"file"`
}

// Descriptor declares everything the engine needs to know about one dataset.
// Raw rows always start with the station id and the timestamp token.
type Descriptor struct {
	Name            string            `yaml:"name"`
	Table           string            `yaml:"table"`
	Path            string            `yaml:"path"`
	HistoricalDir   string            `yaml:"historical_dir"`
	RecentDir       string            `yaml:"recent_dir"`
	StationList     StationListSource `yaml:"station_list"`
	Delimiter       string            `yaml:"delimiter"`
	Fields          int               `yaml:"fields"`
	TimestampDigits int               `yaml:"timestamp_digits"`
	NullSentinel    string            `yaml:"null_sentinel"`
	StationToken    int               `yaml:"station_token"`
	HistEndToken    int               `yaml:"hist_end_token"`
	MemberPrefix    string            `yaml:"member_prefix"`
	Columns         []Column          `yaml:"columns"`
}

// Reserved leading columns of every reading table
const (
	ColStation   = "station"
	ColTimestamp = "dwdts"
)

// WithDefaults fills the DWD conventions into unset fields
func (d Descriptor) WithDefaults() Descriptor {
	if d.HistoricalDir == "" {
		d.HistoricalDir = "historical"
	}
	if d.RecentDir == "" {
		d.RecentDir = "recent"
	}
	if d.Delimiter == "" {
		d.Delimiter = ";"
	}
	if d.NullSentinel == "" {
		d.NullSentinel = "-999"
	}
	if d.StationToken == 0 {
		d.StationToken = 2
	}
	if d.HistEndToken == 0 {
		d.HistEndToken = 4
	}
	if d.MemberPrefix == "" {
		d.MemberPrefix = "produkt_"
	}
	if d.Table == "" && d.Name != "" {
		d.Table = "readings_" + d.Name
	}
	return d
}

// Validate checks the descriptor for internal consistency
func (d Descriptor) Validate() error {
	var problems []string

	if d.Name == "" {
		problems = append(problems, "name is empty")
	}
	if d.Path == "" {
		problems = append(problems, "path is empty")
	}
	if d.TimestampDigits != 8 && d.TimestampDigits != 10 {
		problems = append(problems, fmt.Sprintf("timestamp_digits must be 8 or 10, got %d", d.TimestampDigits))
	}
	if d.Fields < 2 {
		problems = append(problems, fmt.Sprintf("fields must be at least 2, got %d", d.Fields))
	}
	if len(d.Columns) == 0 {
		problems = append(problems, "no columns declared")
	}

	seen := map[string]bool{ColStation: true, ColTimestamp: true, "year": true, "month": true, "day": true, "hour": true}
	for _, c := range d.Columns {
		if seen[c.Name] {
			problems = append(problems, fmt.Sprintf("column %q is reserved or duplicated", c.Name))
		}
		seen[c.Name] = true
		if c.Index < 2 || c.Index >= d.Fields {
			problems = append(problems, fmt.Sprintf("column %q index %d outside 2..%d", c.Name, c.Index, d.Fields-1))
		}
		switch c.Kind {
		case KindInt, KindFloat, KindText:
		default:
			problems = append(problems, fmt.Sprintf("column %q has unknown kind %q", c.Name, c.Kind))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%s: dataset %q: %s", constants.ErrCodeConfigMalformed, d.Name, strings.Join(problems, "; "))
	}
	return nil
}

// Hourly reports whether timestamps carry an hour part
func (d Descriptor) Hourly() bool {
	return d.TimestampDigits == 10
}

// ColumnNames returns the reading table's column order
func (d Descriptor) ColumnNames() []string {
	names := []string{ColStation, ColTimestamp, "year", "month", "day"}
	if d.Hourly() {
		names = append(names, "hour")
	}
	for _, c := range d.Columns {
		names = append(names, c.Name)
	}
	return names
}

// Dir returns the remote directory of a window relative to the base URL
func (d Descriptor) Dir(mode string) string {
	switch mode {
	case constants.SyncModeHistorical:
		return d.Path + "/" + d.HistoricalDir
	case constants.SyncModeRecent:
		return d.Path + "/" + d.RecentDir
	default:
		return d.Path + "/" + d.StationList.Dir
	}
}
