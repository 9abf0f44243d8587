package api

import (
	"encoding/json"
	"net/http"
	"time"

	"dwdcdc/internal/dataset"
	"dwdcdc/internal/db"
	"dwdcdc/internal/models/entities"
)

// HealthCheckHandler handles GET /healthCheck
//
// @Summary Health check
// @Description Verifies the store is reachable and every dataset table is usable.
// @Tags Misc
// @Success 200 {object} entities.HealthCheckResponse
// @Failure 503 {object} entities.HealthCheckResponse
// @Router /healthCheck [get]
func HealthCheckHandler(store *db.Store, registry *dataset.Registry, upSince time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		services := make(map[string]entities.ServiceStatus)

		dbStatus := "ok"
		dbDetails := store.Driver + " connected"
		if err := store.SQLX.PingContext(r.Context()); err != nil {
			dbStatus = "down"
			dbDetails = err.Error()
		}
		services["database"] = entities.ServiceStatus{
			Status:  dbStatus,
			Details: dbDetails,
		}

		var names []string
		for _, d := range registry.All() {
			names = append(names, d.Name)
			st := entities.ServiceStatus{Status: "ok", Details: d.Table}
			if err := store.VerifyReadingsTable(r.Context(), d); err != nil {
				st = entities.ServiceStatus{Status: "down", Details: err.Error()}
			}
			services["table:"+d.Table] = st
		}

		overallStatus := "ok"
		for _, svc := range services {
			if svc.Status != "ok" {
				overallStatus = "down"
				break
			}
		}

		resp := entities.HealthCheckResponse{
			Services: services,
			Status:   overallStatus,
			Datasets: names,
			UpSince:  upSince,
			Uptime:   time.Since(upSince).Round(time.Second).String(),
		}

		w.Header().Set("Content-Type", "application/json")
		if overallStatus != "ok" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}
