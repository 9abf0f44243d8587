package jobs

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"dwdcdc/internal/constants"
	"dwdcdc/internal/dataset"
	"dwdcdc/internal/db"
	"dwdcdc/internal/db/repositories"
	"dwdcdc/internal/logging"
	"dwdcdc/internal/metrics"
	"dwdcdc/internal/providers"
	"dwdcdc/internal/services"
	"dwdcdc/internal/storage"
)

// Request selects what one sync invocation does
type Request struct {
	Dataset     string `json:"dataset"`
	Mode        string `json:"mode"`
	Stations    []int  `json:"stations,omitempty"`
	AllStations bool   `json:"all_stations,omitempty"`
	SkipCovered bool   `json:"skip_covered,omitempty"`
}

// SyncJob is the sync orchestrator. Stations and files are processed one at
// a time in listing order; a failure of one station never aborts the others.
type SyncJob struct {
	store       *db.Store
	registry    *dataset.Registry
	archive     providers.Archive
	files       *services.DataFileService
	stationList *services.StationListService
	stations    *repositories.StationRepo
	bookmarks   *repositories.BookmarkRepo
	readings    *repositories.ReadingRepo
	runs        *repositories.SyncRunRepo
	metrics     *metrics.MetricsRegistry

	pause time.Duration
	now   func() time.Time
	mu    sync.Mutex
}

// NewSyncJob wires the orchestrator. mirror and m may be nil.
func NewSyncJob(
	store *db.Store,
	registry *dataset.Registry,
	archive providers.Archive,
	mirror storage.RawMirror,
	m *metrics.MetricsRegistry,
) *SyncJob {
	return &SyncJob{
		store:       store,
		registry:    registry,
		archive:     archive,
		files:       services.NewDataFileService(archive, mirror),
		stationList: services.NewStationListService(archive, mirror),
		stations:    repositories.NewStationRepo(store.Gorm),
		bookmarks:   repositories.NewBookmarkRepo(store.Gorm),
		readings:    repositories.NewReadingRepo(store.Gorm),
		runs:        repositories.NewSyncRunRepo(store.Gorm),
		metrics:     m,
		now:         time.Now,
	}
}

// SetPause sets the wait between two file downloads
func (j *SyncJob) SetPause(d time.Duration) {
	j.pause = d
}

// LastRun returns the most recent recorded run of a dataset. A recent run
// also carries the stored bookmarks of the dataset.
func (j *SyncJob) LastRun(ctx context.Context, name string) (*Summary, error) {
	run, err := j.runs.Last(ctx, name)
	if err != nil || run == nil {
		return nil, err
	}
	s := &Summary{
		RunID:             run.ID,
		Dataset:           run.Dataset,
		Mode:              run.Mode,
		Status:            run.Status,
		StartedAt:         run.StartedAt,
		StationsAttempted: run.StationsAttempted,
		FilesFetched:      run.FilesFetched,
		RowsWritten:       run.RowsWritten,
	}
	if run.FinishedAt != nil {
		s.FinishedAt = *run.FinishedAt
	}

	if run.Mode == constants.SyncModeRecent {
		bms, err := j.bookmarks.List(ctx, name)
		if err != nil {
			return nil, err
		}
		s.Bookmarks = make(map[int]string, len(bms))
		for _, b := range bms {
			s.Bookmarks[b.Station] = b.Dwdts
		}
	}
	return s, nil
}

// Run validates req and executes it. A *ConfigError is returned before any
// network call when the request is unusable; otherwise the summary carries
// every station's outcome and the error is nil.
func (j *SyncJob) Run(ctx context.Context, req Request) (*Summary, error) {
	d, err := j.validate(ctx, req)
	if err != nil {
		return nil, err
	}

	if !j.mu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer j.mu.Unlock()

	summary := &Summary{
		RunID:     uuid.NewString(),
		Dataset:   d.Name,
		Mode:      req.Mode,
		StartedAt: j.now(),
	}
	log := logging.WithRun(summary.RunID, d.Name, req.Mode)
	log.Infow("Sync run started", "stations", len(req.Stations), "all_stations", req.AllStations)

	switch req.Mode {
	case constants.SyncModeStations:
		j.runStations(ctx, log, d, summary)
	case constants.SyncModeHistorical:
		j.runStationBatch(ctx, log, d, req, summary, j.syncHistoricalStation)
	case constants.SyncModeRecent:
		j.runStationBatch(ctx, log, d, req, summary, j.syncRecentStation)
	}

	summary.finish(j.now())
	j.metrics.RunFinished(d.Name, req.Mode, summary.Status, summary.FinishedAt.Sub(summary.StartedAt))

	if err := j.runs.Save(ctx, summary.Record()); err != nil {
		log.Warnw("Failed to record sync run", "error", err)
	}

	log.Infow("Sync run finished",
		"status", summary.Status,
		"stations_attempted", summary.StationsAttempted,
		"stations_failed", len(summary.Failed()),
		"files_fetched", summary.FilesFetched,
		"rows_written", summary.RowsWritten,
		"duration", summary.FinishedAt.Sub(summary.StartedAt).String(),
	)
	return summary, nil
}

func (j *SyncJob) validate(ctx context.Context, req Request) (dataset.Descriptor, error) {
	d, err := CheckRequest(j.registry, req)
	if err != nil || req.Mode == constants.SyncModeStations {
		return d, err
	}
	if err := j.store.VerifyReadingsTable(ctx, d); err != nil {
		return dataset.Descriptor{}, &ConfigError{Code: constants.ErrCodeSchemaInvalid, Message: err.Error()}
	}
	return d, nil
}

// CheckRequest validates mode, dataset and station selection of req against
// registry. It needs no store, so callers can reject a request before wiring one.
func CheckRequest(registry *dataset.Registry, req Request) (dataset.Descriptor, error) {
	if !constants.IsValidMode(req.Mode) {
		return dataset.Descriptor{}, configErr(constants.ErrCodeInvalidMode, fmt.Sprintf("got %q", req.Mode))
	}
	d, err := registry.Lookup(req.Dataset)
	if err != nil {
		return dataset.Descriptor{}, configErr(constants.ErrCodeUnknownDataset, fmt.Sprintf("%q", req.Dataset))
	}
	if req.Mode == constants.SyncModeStations {
		return d, nil
	}
	if len(req.Stations) == 0 && !req.AllStations {
		return dataset.Descriptor{}, configErr(constants.ErrCodeEmptyStationSelection, "")
	}
	return d, nil
}

// runStations replaces the station table with the remote station list
func (j *SyncJob) runStations(ctx context.Context, log *zap.SugaredLogger, d dataset.Descriptor, summary *Summary) {
	records, err := j.stationList.Fetch(ctx, d)
	if err != nil {
		summary.Error = err.Error()
		log.Errorw("Failed to fetch station list", "path", j.stationList.Path(d), "error", err)
		return
	}
	summary.FilesFetched = 1

	written, err := j.stations.UpsertAll(ctx, toStationModels(records))
	if err != nil {
		summary.Error = err.Error()
		log.Errorw("Failed to store station list", "error", err)
		return
	}
	summary.RowsWritten = written
	log.Infow("Station list stored", "stations", len(records))
}

type stationSyncFunc func(ctx context.Context, log *zap.SugaredLogger, d dataset.Descriptor, req Request, station int) StationResult

// runStationBatch runs fn for every selected station and isolates failures
func (j *SyncJob) runStationBatch(ctx context.Context, log *zap.SugaredLogger, d dataset.Descriptor, req Request, summary *Summary, fn stationSyncFunc) {
	stations := req.Stations
	if req.AllStations && len(stations) == 0 {
		var err error
		stations, err = j.listedStations(ctx, d, req.Mode)
		if err != nil {
			summary.Error = err.Error()
			log.Errorw("Failed to enumerate stations", "error", err)
			return
		}
		log.Infow("Stations enumerated from listing", "stations", len(stations))
	}

	for _, st := range stations {
		if err := ctx.Err(); err != nil {
			summary.Error = err.Error()
			log.Warnw("Sync run cancelled", "error", err)
			return
		}
		res := fn(ctx, log.With("station", st), d, req, st)
		j.metrics.StationOutcome(d.Name, req.Mode, res.Outcome)
		summary.add(res)
	}
}

// listedStations derives the station ids present in a window's listing
func (j *SyncJob) listedStations(ctx context.Context, d dataset.Descriptor, mode string) ([]int, error) {
	names, err := j.archive.List(ctx, d, d.Dir(mode))
	if err != nil {
		return nil, err
	}
	seen := map[int]bool{}
	var out []int
	for _, name := range names {
		if !isWindowFile(mode, name) {
			continue
		}
		st, err := d.StationOf(name)
		if err != nil || seen[st] {
			continue
		}
		seen[st] = true
		out = append(out, st)
	}
	sort.Ints(out)
	return out, nil
}

// windowFiles lists the data files of one station in a window
func (j *SyncJob) windowFiles(ctx context.Context, d dataset.Descriptor, mode string, station int) ([]string, error) {
	names, err := j.archive.List(ctx, d, d.Dir(mode), station)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(names))
	for _, name := range names {
		if isWindowFile(mode, name) {
			out = append(out, d.Dir(mode)+"/"+name)
		}
	}
	return out, nil
}

func isWindowFile(mode, name string) bool {
	if mode == constants.SyncModeRecent {
		return dataset.IsRecentFile(name)
	}
	return strings.HasSuffix(name, ".zip")
}

func (j *SyncJob) wait(ctx context.Context, first bool) {
	if first || j.pause <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(j.pause):
	}
}

func (r *StationResult) fail(err error) {
	r.Outcome = constants.OutcomeFailed
	r.Errors = append(r.Errors, err.Error())
}

func fileName(remotePath string) string {
	return path.Base(remotePath)
}
