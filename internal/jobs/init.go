package jobs

import (
	"context"
	"time"

	"dwdcdc/internal/constants"
)

// InitializeJobs starts the daily recent sync for every named dataset
func InitializeJobs(
	ctx context.Context,
	job *SyncJob,
	datasets []string,
	stations []int,
	allStations bool,
	at string,
) (*Scheduler, error) {
	requests := make([]Request, 0, len(datasets))
	for _, name := range datasets {
		requests = append(requests, Request{
			Dataset:     name,
			Mode:        constants.SyncModeRecent,
			Stations:    stations,
			AllStations: allStations,
		})
	}

	s := NewScheduler(job, requests, at, time.Local)
	if err := s.Start(ctx); err != nil {
		return nil, err
	}
	return s, nil
}
