package jobs

import (
	"encoding/json"
	"strconv"
	"time"

	"dwdcdc/internal/constants"
	gormModels "dwdcdc/internal/models/gorm"
)

// StationResult is the outcome of one station within a run
type StationResult struct {
	Station      int      `json:"station"`
	Outcome      string   `json:"outcome"`
	Files        int      `json:"files"`
	FilesSkipped int      `json:"files_skipped,omitempty"`
	RowsParsed   int64    `json:"rows_parsed"`
	RowsWritten  int64    `json:"rows_written"`
	Bookmark     string   `json:"bookmark,omitempty"`
	Errors       []string `json:"errors,omitempty"`
}

// Summary is returned to the caller of every sync invocation
type Summary struct {
	RunID             string          `json:"run_id"`
	Dataset           string          `json:"dataset"`
	Mode              string          `json:"mode"`
	Status            string          `json:"status"`
	StartedAt         time.Time       `json:"started_at"`
	FinishedAt        time.Time       `json:"finished_at"`
	StationsAttempted int             `json:"stations_attempted"`
	FilesFetched      int             `json:"files_fetched"`
	RowsWritten       int64           `json:"rows_written"`
	Error             string          `json:"error,omitempty"` // run level failure, e.g. station list download
	Stations          []StationResult `json:"stations,omitempty"`

	// Stored bookmark per station, only set on a recent summary read back by LastRun
	Bookmarks map[int]string `json:"bookmarks,omitempty"`
}

// Failed returns the stations that failed
func (s *Summary) Failed() []StationResult {
	var out []StationResult
	for _, r := range s.Stations {
		if r.Outcome == constants.OutcomeFailed {
			out = append(out, r)
		}
	}
	return out
}

// Station returns the result of one station, nil if it was not attempted
func (s *Summary) Station(id int) *StationResult {
	for i := range s.Stations {
		if s.Stations[i].Station == id {
			return &s.Stations[i]
		}
	}
	return nil
}

func (s *Summary) add(r StationResult) {
	s.Stations = append(s.Stations, r)
	s.StationsAttempted++
	s.FilesFetched += r.Files
	s.RowsWritten += r.RowsWritten
}

func (s *Summary) finish(now time.Time) {
	s.FinishedAt = now
	switch {
	case s.Error != "" || len(s.Failed()) > 0:
		s.Status = constants.RunStatusPartialFailure
	case s.FilesFetched == 0 && s.RowsWritten == 0:
		s.Status = constants.RunStatusNoWork
	default:
		s.Status = constants.RunStatusSuccess
	}
}

// Record converts the summary into its persisted form
func (s *Summary) Record() *gormModels.SyncRun {
	run := &gormModels.SyncRun{
		ID:                s.RunID,
		Dataset:           s.Dataset,
		Mode:              s.Mode,
		Status:            s.Status,
		StationsAttempted: s.StationsAttempted,
		StationsFailed:    len(s.Failed()),
		FilesFetched:      s.FilesFetched,
		RowsWritten:       s.RowsWritten,
		StartedAt:         s.StartedAt,
	}
	if !s.FinishedAt.IsZero() {
		finished := s.FinishedAt
		run.FinishedAt = &finished
	}

	errs := map[string][]string{}
	if s.Error != "" {
		errs["run"] = []string{s.Error}
	}
	for _, r := range s.Failed() {
		errs[strconv.Itoa(r.Station)] = r.Errors
	}
	if len(errs) > 0 {
		if b, err := json.Marshal(errs); err == nil {
			run.Errors = string(b)
		}
	}
	return run
}
