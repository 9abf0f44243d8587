package constants

// Sync modes selectable on the command line and the jobs API
const (
	SyncModeStations   = "stations"
	SyncModeHistorical = "historical"
	SyncModeRecent     = "recent"
)

// Per-station outcomes reported in a run summary
const (
	OutcomeSucceeded       = "succeeded"
	OutcomeFailed          = "failed"
	OutcomeSkippedEmpty    = "skipped-empty"
	OutcomeSkippedUpToDate = "skipped-up-to-date"
)

// Overall run status
const (
	RunStatusSuccess        = "success"
	RunStatusNoWork         = "no-work"
	RunStatusPartialFailure = "partial-failure"
)

// IsValidMode reports whether mode is one of the known sync modes
func IsValidMode(mode string) bool {
	switch mode {
	case SyncModeStations, SyncModeHistorical, SyncModeRecent:
		return true
	}
	return false
}
