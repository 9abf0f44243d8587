package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"dwdcdc/internal/constants"
	"dwdcdc/internal/dataset"
)

// FileConfig is the optional YAML configuration file:
//
//	stations: "722(Brocken), 5792(Zugspitze)"
//	all_stations: false
//	datasets:
//	  - name: rr
//	    path: hourly/precipitation
//	    ...
type FileConfig struct {
	Stations    StationSelection     `yaml:"stations"`
	AllStations bool                 `yaml:"all_stations"`
	Datasets    []dataset.Descriptor `yaml:"datasets"`
}

// StationSelection accepts a comma separated string or a YAML list
type StationSelection []int

func (s *StationSelection) UnmarshalYAML(value *yaml.Node) error {
	var text string
	switch value.Kind {
	case yaml.ScalarNode:
		text = value.Value
	case yaml.SequenceNode:
		items := make([]string, 0, len(value.Content))
		for _, n := range value.Content {
			items = append(items, n.Value)
		}
		text = strings.Join(items, ",")
	default:
		return fmt.Errorf("stations: expected string or list at line %d", value.Line)
	}

	ids, err := dataset.ParseStationSelection(text)
	if err != nil {
		return err
	}
	*s = ids
	return nil
}

// LoadFile reads and parses a YAML configuration file
func LoadFile(path string) (*FileConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return ParseFile(raw)
}

// ParseFile parses YAML configuration content
func ParseFile(raw []byte) (*FileConfig, error) {
	var fc FileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return nil, fmt.Errorf("%s: %w", constants.ErrCodeConfigMalformed, err)
	}
	for i, d := range fc.Datasets {
		d = d.WithDefaults()
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("datasets[%d]: %w", i, err)
		}
		fc.Datasets[i] = d
	}
	return &fc, nil
}
