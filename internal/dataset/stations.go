package dataset

import (
	"fmt"
	"strconv"
	"strings"
)

var stateShort = map[string]string{
	"Baden-Württemberg":      "BaWü",
	"Bayern":                 "BY",
	"Berlin":                 "BER",
	"Brandenburg":            "BB",
	"Bremen":                 "HB",
	"Hamburg":                "HH",
	"Hessen":                 "HE",
	"Mecklenburg-Vorpommern": "MV",
	"Niedersachsen":          "NDS",
	"Nordrhein-Westfalen":    "NRW",
	"Rheinland-Pfalz":        "RLP",
	"Saarland":               "SL",
	"Sachsen":                "SN",
	"Sachsen-Anhalt":         "ST",
	"Schleswig-Holstein":     "SH",
	"Thüringen":              "TH",
}

// StateShort abbreviates a German state name, "?" if unknown
func StateShort(state string) string {
	if s, ok := stateShort[state]; ok {
		return s
	}
	return "?"
}

// StationRecord is one line of a station description file
type StationRecord struct {
	Station     int
	DateFrom    string // YYYYMMDD
	DateTo      string // YYYYMMDD
	Elevation   int
	Latitude    float64
	Longitude   float64
	Name        string
	State       string
	StateShort  string
	Description string
}

// ParseStationLines parses the fixed-width station description file:
//
//	04692 20080301 20181130            229     50.8534    7.9966 Siegen (Kläranlage)   Nordrhein-Westfalen
//
// Header and ruler lines are skipped. Newer files append an "Abgabe" column
// ("Frei"), which is ignored.
func ParseStationLines(file string, lines []string) ([]StationRecord, error) {
	var out []StationRecord

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "Stations_id") || strings.HasPrefix(trimmed, "-----") {
			continue
		}

		parts := strings.Fields(trimmed)
		if len(parts) >= 9 && parts[len(parts)-1] == "Frei" {
			parts = parts[:len(parts)-1]
		}
		if len(parts) < 8 {
			return nil, &MalformedRowError{File: file, Line: i + 1, Row: parts, Reason: fmt.Sprintf("expected at least 8 fields, got %d", len(parts))}
		}

		rec, err := stationFromParts(parts)
		if err != nil {
			return nil, &MalformedRowError{File: file, Line: i + 1, Row: parts, Reason: "bad station line", Err: err}
		}
		out = append(out, rec)
	}
	return out, nil
}

func stationFromParts(parts []string) (StationRecord, error) {
	var rec StationRecord
	var err error

	if rec.Station, err = strconv.Atoi(parts[0]); err != nil {
		return rec, err
	}
	for _, d := range parts[1:3] {
		if _, err := SplitTimestamp(d, 8); err != nil {
			return rec, err
		}
	}
	rec.DateFrom, rec.DateTo = parts[1], parts[2]
	if rec.Elevation, err = strconv.Atoi(parts[3]); err != nil {
		return rec, err
	}
	if rec.Latitude, err = strconv.ParseFloat(parts[4], 64); err != nil {
		return rec, err
	}
	if rec.Longitude, err = strconv.ParseFloat(parts[5], 64); err != nil {
		return rec, err
	}

	rec.Name = strings.Join(parts[6:len(parts)-1], " ")
	rec.State = parts[len(parts)-1]
	rec.StateShort = StateShort(rec.State)
	rec.Description = fmt.Sprintf("%d: %s [%s]", rec.Station, rec.Name, rec.StateShort)
	return rec, nil
}
