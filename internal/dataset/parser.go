package dataset

import (
	"fmt"
	"strconv"
	"strings"
)

// Row is a parsed reading in the order of Descriptor.ColumnNames.
// Values are int64, float64, string or nil.
type Row []interface{}

// Station returns the station id of the row
func (r Row) Station() int64 {
	return r[0].(int64)
}

// Timestamp returns the raw timestamp token of the row
func (r Row) Timestamp() string {
	return r[1].(string)
}

// Parser turns raw rows of one file into typed rows
type Parser struct {
	desc Descriptor
	file string
}

// NewParser returns a parser for rows of file laid out as desc
func NewParser(desc Descriptor, file string) *Parser {
	return &Parser{desc: desc, file: file}
}

// IsHeader reports whether line is the column header of a data member
func (p *Parser) IsHeader(line string) bool {
	first := strings.TrimSpace(strings.SplitN(line, p.desc.Delimiter, 2)[0])
	return strings.EqualFold(first, "STATIONS_ID")
}

// ParseLine splits a raw line on the delimiter and parses it
func (p *Parser) ParseLine(lineNo int, line string) (Row, error) {
	fields := strings.Split(strings.TrimRight(line, "\r\n"), p.desc.Delimiter)
	row, err := p.Parse(fields)
	if err != nil {
		if mre, ok := err.(*MalformedRowError); ok {
			mre.Line = lineNo
		}
		return nil, err
	}
	return row, nil
}

// Parse converts already split raw fields into a typed row
func (p *Parser) Parse(fields []string) (Row, error) {
	d := p.desc
	if len(fields) != d.Fields {
		return nil, p.malformed(fields, fmt.Sprintf("expected %d fields, got %d", d.Fields, len(fields)), nil)
	}

	station, err := strconv.ParseInt(strings.TrimSpace(fields[0]), 10, 64)
	if err != nil {
		return nil, p.malformed(fields, "station id is not an integer", err)
	}

	ts := strings.TrimSpace(fields[1])
	parts, err := SplitTimestamp(ts, d.TimestampDigits)
	if err != nil {
		return nil, p.malformed(fields, "bad timestamp", err)
	}

	row := make(Row, 0, 2+len(parts)+len(d.Columns))
	row = append(row, station, ts)
	for _, v := range parts {
		row = append(row, int64(v))
	}

	for _, c := range d.Columns {
		raw := strings.TrimSpace(fields[c.Index])
		if raw == d.NullSentinel {
			if !c.Nullable {
				return nil, p.malformed(fields, fmt.Sprintf("column %s is missing but not nullable", c.Name), nil)
			}
			row = append(row, nil)
			continue
		}
		v, err := convert(c.Kind, raw)
		if err != nil {
			return nil, p.malformed(fields, fmt.Sprintf("column %s: %q is not %s", c.Name, raw, c.Kind), err)
		}
		row = append(row, v)
	}

	return row, nil
}

// Serialize renders the stored fields of row back into raw field order.
// Fields no column maps to are written as "eor" at the end and empty otherwise.
func (p *Parser) Serialize(row Row) []string {
	d := p.desc
	out := make([]string, d.Fields)
	out[0] = strconv.FormatInt(row.Station(), 10)
	out[1] = row.Timestamp()
	offset := 5
	if d.Hourly() {
		offset = 6
	}
	for i, c := range d.Columns {
		out[c.Index] = FormatValue(row[offset+i], d.NullSentinel)
	}
	out[d.Fields-1] = "eor"
	return out
}

// Map returns the row keyed by column name
func (p *Parser) Map(row Row) map[string]interface{} {
	names := p.desc.ColumnNames()
	m := make(map[string]interface{}, len(names))
	for i, n := range names {
		m[n] = row[i]
	}
	return m
}

func (p *Parser) malformed(fields []string, reason string, err error) error {
	return &MalformedRowError{File: p.file, Row: fields, Reason: reason, Err: err}
}

func convert(kind ColumnKind, raw string) (interface{}, error) {
	switch kind {
	case KindInt:
		return strconv.ParseInt(raw, 10, 64)
	case KindFloat:
		return strconv.ParseFloat(raw, 64)
	default:
		return raw, nil
	}
}

// FormatValue renders a typed value as it appears in a raw file
func FormatValue(v interface{}, sentinel string) string {
	switch t := v.(type) {
	case nil:
		return sentinel
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}
