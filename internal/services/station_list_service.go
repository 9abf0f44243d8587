package services

import (
	"context"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"dwdcdc/internal/dataset"
	"dwdcdc/internal/logging"
	"dwdcdc/internal/providers"
	"dwdcdc/internal/storage"
)

// StationListService downloads and parses a dataset's station description file
type StationListService struct {
	archive providers.Archive
	mirror  storage.RawMirror
}

func NewStationListService(archive providers.Archive, mirror storage.RawMirror) *StationListService {
	if mirror == nil {
		mirror = storage.NopMirror{}
	}
	return &StationListService{archive: archive, mirror: mirror}
}

// Path is the remote path of the station list of d
func (svc *StationListService) Path(d dataset.Descriptor) string {
	return d.Path + "/" + d.StationList.Dir + "/" + d.StationList.File
}

// Fetch returns the stations listed for d. The file is ISO-8859-1 encoded.
func (svc *StationListService) Fetch(ctx context.Context, d dataset.Descriptor) ([]dataset.StationRecord, error) {
	remotePath := svc.Path(d)

	raw, err := svc.archive.Download(ctx, remotePath)
	if err != nil {
		return nil, err
	}
	if err := svc.mirror.Put(ctx, remotePath, raw); err != nil {
		logging.Warn("Raw mirror upload failed", "path", remotePath, "error", err.Error())
	}

	text, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return nil, err
	}

	lines := strings.Split(strings.ReplaceAll(string(text), "\r\n", "\n"), "\n")
	return dataset.ParseStationLines(d.StationList.File, lines)
}
