package services

import (
	"archive/zip"
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"dwdcdc/internal/constants"
	"dwdcdc/internal/dataset"
	"dwdcdc/internal/logging"
	"dwdcdc/internal/providers"
	"dwdcdc/internal/storage"
)

// FetchedFile is the parsed content of one remote data file
type FetchedFile struct {
	Path    string
	Station int
	Rows    []dataset.Row
	MinTS   string
	MaxTS   string
	Bytes   int
}

// DataFileService downloads data files and parses them into rows
type DataFileService struct {
	archive providers.Archive
	mirror  storage.RawMirror
}

func NewDataFileService(archive providers.Archive, mirror storage.RawMirror) *DataFileService {
	if mirror == nil {
		mirror = storage.NopMirror{}
	}
	return &DataFileService{
		archive: archive,
		mirror:  mirror,
	}
}

// Fetch downloads remotePath completely and parses its data member in file order.
// A file without data rows is returned with no rows and no error.
func (svc *DataFileService) Fetch(ctx context.Context, d dataset.Descriptor, remotePath string) (*FetchedFile, error) {
	name := path.Base(remotePath)
	station, err := d.StationOf(name)
	if err != nil {
		return nil, &dataset.MalformedRowError{File: name, Reason: "file name carries no station id", Err: err}
	}

	raw, err := svc.archive.Download(ctx, remotePath)
	if err != nil {
		return nil, err
	}

	if err := svc.mirror.Put(ctx, remotePath, raw); err != nil {
		logging.Warn("Raw mirror upload failed", "path", remotePath, "error", err.Error())
	}

	member, memberName, err := openDataMember(d, name, raw)
	if err != nil {
		return nil, err
	}
	defer member.Close()

	out := &FetchedFile{Path: remotePath, Station: station, Bytes: len(raw)}
	parser := dataset.NewParser(d, memberName)

	scanner := bufio.NewScanner(charmap.ISO8859_1.NewDecoder().Reader(member))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" || parser.IsHeader(line) {
			continue
		}

		row, err := parser.ParseLine(lineNo, line)
		if err != nil {
			return nil, err
		}
		if int(row.Station()) != station {
			return nil, &dataset.MalformedRowError{
				File:   memberName,
				Line:   lineNo,
				Row:    strings.Split(line, d.Delimiter),
				Reason: fmt.Sprintf("%s: row station %d in file of station %d", constants.ErrCodeStationMixed, row.Station(), station),
			}
		}

		ts := row.Timestamp()
		if out.MinTS == "" || ts < out.MinTS {
			out.MinTS = ts
		}
		if ts > out.MaxTS {
			out.MaxTS = ts
		}
		out.Rows = append(out.Rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, &dataset.MalformedRowError{File: memberName, Line: lineNo, Reason: "read failed", Err: err}
	}

	return out, nil
}

// openDataMember returns the produkt_* member of a zip archive, or the
// payload itself for plain text files
func openDataMember(d dataset.Descriptor, name string, raw []byte) (io.ReadCloser, string, error) {
	if !strings.HasSuffix(strings.ToLower(name), ".zip") {
		return io.NopCloser(bytes.NewReader(raw)), name, nil
	}

	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, name, &dataset.MalformedRowError{File: name, Reason: "not a zip archive", Err: err}
	}

	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !d.IsDataMember(f.Name) {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, name, &dataset.MalformedRowError{File: name + ":" + f.Name, Reason: "cannot open member", Err: err}
		}
		return rc, f.Name, nil
	}

	return nil, name, &dataset.MalformedRowError{
		File:   name,
		Reason: fmt.Sprintf("%s: %s", constants.ErrCodeNoDataMember, constants.GetErrorMessage(constants.ErrCodeNoDataMember)),
	}
}
