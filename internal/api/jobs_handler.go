package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"dwdcdc/internal/auth"
	"dwdcdc/internal/constants"
	"dwdcdc/internal/dataset"
	"dwdcdc/internal/jobs"
	"dwdcdc/internal/logging"
)

// SyncRunner is the part of the orchestrator the jobs API drives
type SyncRunner interface {
	Run(ctx context.Context, req jobs.Request) (*jobs.Summary, error)
	LastRun(ctx context.Context, dataset string) (*jobs.Summary, error)
}

// TriggerSyncRequest is the body of POST /api/v1/jobs/sync
type TriggerSyncRequest struct {
	Dataset     string `json:"dataset"`
	Mode        string `json:"mode"`
	Stations    string `json:"stations,omitempty"` // "722(Brocken), 5792"
	AllStations bool   `json:"all_stations,omitempty"`
	SkipCovered bool   `json:"skip_covered,omitempty"`
}

// JobsHandler handles manual sync triggering
type JobsHandler struct {
	runner   SyncRunner
	defaults jobs.Request
}

// NewJobsHandler creates a jobs handler. Requests without a station
// selection fall back to the one in defaults.
func NewJobsHandler(runner SyncRunner, defaults jobs.Request) *JobsHandler {
	return &JobsHandler{
		runner:   runner,
		defaults: defaults,
	}
}

// TriggerSync runs one sync synchronously and returns its summary
// @Summary Trigger a sync run
// @Tags jobs
// @Accept json
// @Produce json
// @Param body body TriggerSyncRequest true "Dataset, mode and optional station list"
// @Success 200 {object} jobs.Summary
// @Failure 400 {object} responses.APIResponse[any]
// @Failure 401 {object} responses.APIResponse[any]
// @Failure 409 {object} responses.APIResponse[any]
// @Router /api/v1/jobs/sync [post]
func (h *JobsHandler) TriggerSync() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body TriggerSyncRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
			respondWithError(w, http.StatusBadRequest, constants.ErrCodeConfigMalformed, "Invalid request body")
			return
		}

		req := jobs.Request{
			Dataset:     body.Dataset,
			Mode:        body.Mode,
			AllStations: body.AllStations,
			SkipCovered: body.SkipCovered,
		}
		if body.Stations != "" {
			stations, err := dataset.ParseStationSelection(body.Stations)
			if err != nil {
				respondWithError(w, http.StatusBadRequest, constants.ErrCodeInvalidStationList, err.Error())
				return
			}
			req.Stations = stations
		}
		if len(req.Stations) == 0 && !req.AllStations {
			req.Stations = h.defaults.Stations
			req.AllStations = h.defaults.AllStations
		}
		if req.Dataset == "" {
			req.Dataset = h.defaults.Dataset
		}

		caller := ""
		if claims := auth.GetJobsClaims(r.Context()); claims != nil {
			caller = claims.Caller()
		}
		logging.Info("Sync triggered through API", "caller", caller, "dataset", req.Dataset, "mode", req.Mode)

		// The run outlives a dropped client connection
		summary, err := h.runner.Run(context.WithoutCancel(r.Context()), req)
		if err != nil {
			var ce *jobs.ConfigError
			switch {
			case errors.As(err, &ce):
				respondWithError(w, http.StatusBadRequest, ce.Code, ce.Message)
			case errors.Is(err, jobs.ErrRunInProgress):
				respondWithError(w, http.StatusConflict, "RUN_IN_PROGRESS", err.Error())
			default:
				respondWithError(w, http.StatusInternalServerError, "", err.Error())
			}
			return
		}

		respondWithSuccess(w, http.StatusOK, summary)
	}
}

// LastRun returns the summary of the most recent run of a dataset
// @Summary Last sync run
// @Tags jobs
// @Produce json
// @Param dataset query string true "Dataset name"
// @Success 200 {object} jobs.Summary
// @Failure 404 {object} responses.APIResponse[any]
// @Router /api/v1/jobs/last [get]
func (h *JobsHandler) LastRun() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Query().Get("dataset")
		if name == "" {
			name = h.defaults.Dataset
		}

		summary, err := h.runner.LastRun(r.Context(), name)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, constants.ErrCodeStoreFailure, err.Error())
			return
		}
		if summary == nil {
			respondWithError(w, http.StatusNotFound, "", "no run recorded for "+name)
			return
		}
		respondWithSuccess(w, http.StatusOK, summary)
	}
}
