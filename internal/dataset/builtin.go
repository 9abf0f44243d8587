package dataset

import (
	"fmt"
	"sort"
	"sync"

	"dwdcdc/internal/constants"
)

// AirTemperatureHourly is "hourly/air_temperature":
// STATIONS_ID;MESS_DATUM;QN_9;TT_TU;RF_TU;eor
var AirTemperatureHourly = Descriptor{
	Name: "at2h",
	Path: "hourly/air_temperature",
	StationList: StationListSource{
		Dir:  "historical",
		File: "TU_Stundenwerte_Beschreibung_Stationen.txt",
	},
	Fields:          6,
	TimestampDigits: 10,
	Columns: []Column{
		{Name: "qn", Index: 2, Kind: KindInt},
		{Name: "temp", Index: 3, Kind: KindFloat, Nullable: true},
		{Name: "humid", Index: 4, Kind: KindFloat, Nullable: true},
	},
}.WithDefaults()

// ClimateDaily is "daily/kl":
// STATIONS_ID;MESS_DATUM;QN_3;FX;FM;QN_4;RSK;RSKF;SDK;SHK_TAG;NM;VPM;PM;TMK;UPM;TXK;TNK;TGK;eor
var ClimateDaily = Descriptor{
	Name: "kl",
	Path: "daily/kl",
	StationList: StationListSource{
		Dir:  "recent",
		File: "KL_Tageswerte_Beschreibung_Stationen.txt",
	},
	Fields:          19,
	TimestampDigits: 8,
	Columns: []Column{
		{Name: "qn_3", Index: 2, Kind: KindInt, Nullable: true},
		{Name: "wind_max", Index: 3, Kind: KindFloat, Nullable: true},
		{Name: "wind_avg", Index: 4, Kind: KindFloat, Nullable: true},
		{Name: "qn_4", Index: 5, Kind: KindInt, Nullable: true},
		{Name: "precip", Index: 6, Kind: KindFloat, Nullable: true},
		{Name: "precip_form", Index: 7, Kind: KindInt, Nullable: true},
		{Name: "sunshine", Index: 8, Kind: KindFloat, Nullable: true},
		{Name: "snow_depth", Index: 9, Kind: KindInt, Nullable: true},
		{Name: "cloud_cover", Index: 10, Kind: KindFloat, Nullable: true},
		{Name: "vapor_pressure", Index: 11, Kind: KindFloat, Nullable: true},
		{Name: "pressure", Index: 12, Kind: KindFloat, Nullable: true},
		{Name: "temp_avg", Index: 13, Kind: KindFloat, Nullable: true},
		{Name: "humidity", Index: 14, Kind: KindFloat, Nullable: true},
		{Name: "temp_max", Index: 15, Kind: KindFloat, Nullable: true},
		{Name: "temp_min", Index: 16, Kind: KindFloat, Nullable: true},
		{Name: "temp_ground_min", Index: 17, Kind: KindFloat, Nullable: true},
	},
}.WithDefaults()

// Registry holds the datasets known to a process
type Registry struct {
	mu          sync.RWMutex
	descriptors map[string]Descriptor
}

// NewRegistry returns a registry preloaded with the built-in datasets
func NewRegistry() *Registry {
	r := &Registry{descriptors: make(map[string]Descriptor)}
	r.descriptors[AirTemperatureHourly.Name] = AirTemperatureHourly
	r.descriptors[ClimateDaily.Name] = ClimateDaily
	return r
}

// Register adds or replaces a dataset after validating it
func (r *Registry) Register(d Descriptor) error {
	d = d.WithDefaults()
	if err := d.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.descriptors[d.Name] = d
	return nil
}

// Lookup returns the descriptor for name
func (r *Registry) Lookup(name string) (Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.descriptors[name]
	if !ok {
		return Descriptor{}, fmt.Errorf("%s: %q", constants.GetErrorMessage(constants.ErrCodeUnknownDataset), name)
	}
	return d, nil
}

// All returns every registered descriptor ordered by name
func (r *Registry) All() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Descriptor, 0, len(r.descriptors))
	for _, d := range r.descriptors {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
