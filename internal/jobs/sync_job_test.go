package jobs

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"dwdcdc/internal/constants"
	"dwdcdc/internal/dataset"
	"dwdcdc/internal/db"
	"dwdcdc/internal/db/repositories"
	"dwdcdc/internal/logging"
	"dwdcdc/internal/providers"
)

func TestMain(m *testing.M) {
	logging.SetLogger(zap.NewNop().Sugar())
	os.Exit(m.Run())
}

const at2hHeader = "STATIONS_ID;MESS_DATUM;QN_9;TT_TU;RF_TU;eor"

// fakeArchive serves directory listings and file payloads from memory
type fakeArchive struct {
	dirs      map[string][]string
	files     map[string][]byte
	failList  map[int]error // per filtered station
	downloads []string
}

func newFakeArchive() *fakeArchive {
	return &fakeArchive{
		dirs:     map[string][]string{},
		files:    map[string][]byte{},
		failList: map[int]error{},
	}
}

func (a *fakeArchive) List(ctx context.Context, d dataset.Descriptor, dir string, stations ...int) ([]string, error) {
	for _, st := range stations {
		if err, ok := a.failList[st]; ok {
			return nil, err
		}
	}
	names, ok := a.dirs[dir]
	if !ok {
		return nil, &providers.TransportError{Code: constants.ErrCodeRemoteNotFound, Path: dir}
	}
	return providers.FilterByStation(d, names, stations), nil
}

func (a *fakeArchive) Download(ctx context.Context, path string) ([]byte, error) {
	a.downloads = append(a.downloads, path)
	b, ok := a.files[path]
	if !ok {
		return nil, &providers.TransportError{Code: constants.ErrCodeRemoteNotFound, Path: path}
	}
	return b, nil
}

// put adds or republishes a zipped at2h data file in dir
func (a *fakeArchive) put(t *testing.T, dir, name string, lines ...string) {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("produkt_tu_stunde_" + strings.TrimSuffix(name, ".zip") + ".txt")
	if err != nil {
		t.Fatal(err)
	}
	content := at2hHeader + "\r\n" + strings.Join(lines, "\r\n") + "\r\n"
	if _, err := w.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if _, ok := a.files[dir+"/"+name]; !ok {
		a.dirs[dir] = append(a.dirs[dir], name)
	}
	a.files[dir+"/"+name] = buf.Bytes()
}

func histName(st int) string {
	return fmt.Sprintf("stundenwerte_TU_%05d_19950101_20101231_hist.zip", st)
}

func aktName(st int) string {
	return fmt.Sprintf("stundenwerte_TU_%05d_akt.zip", st)
}

func row(st int, ts, temp string) string {
	return fmt.Sprintf("%11d;%s;    1;%6s;  85.0;eor", st, ts, temp)
}

const (
	histDir   = "hourly/air_temperature/historical"
	recentDir = "hourly/air_temperature/recent"
)

func setupJob(t *testing.T, archive providers.Archive) (*SyncJob, *db.Store) {
	t.Helper()
	store, err := db.Open(db.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	if err := store.Bootstrap(context.Background(), dataset.AirTemperatureHourly); err != nil {
		t.Fatalf("Failed to bootstrap: %v", err)
	}

	job := NewSyncJob(store, dataset.NewRegistry(), archive, nil, nil)
	job.now = func() time.Time { return time.Date(2026, 3, 2, 11, 0, 0, 0, time.UTC) }
	return job, store
}

func countRows(t *testing.T, store *db.Store, st int) int64 {
	t.Helper()
	n, err := repositories.NewReadingRepo(store.Gorm).Count(context.Background(), dataset.AirTemperatureHourly, st)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	return n
}

func TestSyncJob_Historical_BatchIsolation(t *testing.T) {
	archive := newFakeArchive()
	archive.put(t, histDir, histName(44), row(44, "1995010100", "1.0"), row(44, "1995010101", "1.5"))
	archive.put(t, histDir, histName(73), row(73, "1995010100", "2.0"))
	archive.put(t, histDir, histName(91), row(91, "1995010100", "3.0"), row(91, "1995010101", "-999"))
	archive.failList[73] = &providers.TransportError{Code: constants.ErrCodeNetworkError, Message: "connection reset", Retryable: true}

	job, store := setupJob(t, archive)

	summary, err := job.Run(context.Background(), Request{
		Dataset:  "at2h",
		Mode:     constants.SyncModeHistorical,
		Stations: []int{44, 73, 91},
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if summary.Status != constants.RunStatusPartialFailure {
		t.Errorf("Expected status %s, got %s", constants.RunStatusPartialFailure, summary.Status)
	}
	if summary.StationsAttempted != 3 {
		t.Errorf("Expected 3 stations attempted, got %d", summary.StationsAttempted)
	}
	if summary.RowsWritten != 4 {
		t.Errorf("Expected 4 rows written, got %d", summary.RowsWritten)
	}

	for st, want := range map[int]string{44: constants.OutcomeSucceeded, 73: constants.OutcomeFailed, 91: constants.OutcomeSucceeded} {
		res := summary.Station(st)
		if res == nil {
			t.Fatalf("Station %d missing from summary", st)
		}
		if res.Outcome != want {
			t.Errorf("Station %d: expected outcome %s, got %s", st, want, res.Outcome)
		}
	}
	if errs := summary.Station(73).Errors; len(errs) != 1 || !strings.Contains(errs[0], constants.ErrCodeNetworkError) {
		t.Errorf("Expected one NETWORK_ERROR for station 73, got %v", errs)
	}

	if n := countRows(t, store, 44); n != 2 {
		t.Errorf("Expected 2 rows for station 44, got %d", n)
	}
	if n := countRows(t, store, 73); n != 0 {
		t.Errorf("Expected no rows for station 73, got %d", n)
	}
	if n := countRows(t, store, 91); n != 2 {
		t.Errorf("Expected 2 rows for station 91, got %d", n)
	}

	last, err := job.LastRun(context.Background(), "at2h")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if last == nil || last.RunID != summary.RunID {
		t.Errorf("Expected last run %s to be recorded, got %+v", summary.RunID, last)
	}
}

func TestSyncJob_Historical_MalformedFileRolledBack(t *testing.T) {
	archive := newFakeArchive()
	archive.put(t, histDir, histName(44), row(44, "1995010100", "1.0"), "44;1995010101;1;2.0")

	job, store := setupJob(t, archive)

	summary, err := job.Run(context.Background(), Request{Dataset: "at2h", Mode: constants.SyncModeHistorical, Stations: []int{44}})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if res := summary.Station(44); res.Outcome != constants.OutcomeFailed {
		t.Errorf("Expected station 44 to fail, got %s", res.Outcome)
	}
	if n := countRows(t, store, 44); n != 0 {
		t.Errorf("Expected a malformed file to contribute no rows, got %d", n)
	}
}

func TestSyncJob_Historical_SkippedEmpty(t *testing.T) {
	archive := newFakeArchive()
	archive.put(t, histDir, histName(44), row(44, "1995010100", "1.0"))

	job, _ := setupJob(t, archive)

	summary, err := job.Run(context.Background(), Request{Dataset: "at2h", Mode: constants.SyncModeHistorical, Stations: []int{5}})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if res := summary.Station(5); res.Outcome != constants.OutcomeSkippedEmpty {
		t.Errorf("Expected skipped-empty, got %s", res.Outcome)
	}
	if summary.Status != constants.RunStatusNoWork {
		t.Errorf("Expected status %s, got %s", constants.RunStatusNoWork, summary.Status)
	}
	if len(archive.downloads) != 0 {
		t.Errorf("Expected no downloads, got %v", archive.downloads)
	}
}

func TestSyncJob_Historical_SkipCovered(t *testing.T) {
	archive := newFakeArchive()
	archive.put(t, histDir, histName(44), row(44, "1995010100", "1.0"), row(44, "2010123123", "1.5"))

	job, _ := setupJob(t, archive)
	req := Request{Dataset: "at2h", Mode: constants.SyncModeHistorical, Stations: []int{44}, SkipCovered: true}

	if _, err := job.Run(context.Background(), req); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	summary, err := job.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	res := summary.Station(44)
	if res.FilesSkipped != 1 || res.Files != 0 {
		t.Errorf("Expected the covered file to be skipped, got %+v", res)
	}
	if len(archive.downloads) != 1 {
		t.Errorf("Expected one download over both runs, got %d", len(archive.downloads))
	}
}

func TestSyncJob_HistoricalThenRecent_FirstSeenWins(t *testing.T) {
	archive := newFakeArchive()
	archive.put(t, histDir, histName(5906), row(5906, "1995010100", "-999"))
	archive.put(t, recentDir, aktName(5906), row(5906, "1995010100", "5.3"), row(5906, "1995010101", "5.1"))

	job, store := setupJob(t, archive)
	ctx := context.Background()

	if _, err := job.Run(ctx, Request{Dataset: "at2h", Mode: constants.SyncModeHistorical, Stations: []int{5906}}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	summary, err := job.Run(ctx, Request{Dataset: "at2h", Mode: constants.SyncModeRecent, Stations: []int{5906}})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if summary.RowsWritten != 1 {
		t.Errorf("Expected 1 new row from the recent file, got %d", summary.RowsWritten)
	}

	got, err := repositories.NewReadingRepo(store.Gorm).Get(ctx, dataset.AirTemperatureHourly, 5906, "1995010100")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if got["temp"] != nil {
		t.Errorf("Expected the historical NULL temperature to be kept, got %v", got["temp"])
	}
	if n := countRows(t, store, 5906); n != 2 {
		t.Errorf("Expected 2 rows, got %d", n)
	}
}

func TestSyncJob_Recent_AdvancesBookmark(t *testing.T) {
	archive := newFakeArchive()
	archive.put(t, recentDir, aktName(44),
		row(44, "2026022822", "1.0"),
		row(44, "2026022823", "1.5"),
	)

	job, store := setupJob(t, archive)
	ctx := context.Background()
	req := Request{Dataset: "at2h", Mode: constants.SyncModeRecent, Stations: []int{44}}

	summary, err := job.Run(ctx, req)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	res := summary.Station(44)
	if res.Outcome != constants.OutcomeSucceeded || res.Bookmark != "2026022823" {
		t.Errorf("Expected success with bookmark 2026022823, got %+v", res)
	}

	bm, err := repositories.NewBookmarkRepo(store.Gorm).Get(ctx, "at2h", 44)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if bm == nil || *bm != "2026022823" {
		t.Fatalf("Expected stored bookmark 2026022823, got %v", bm)
	}

	// A second run re-fetches the file but writes nothing new
	summary, err = job.Run(ctx, req)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if summary.RowsWritten != 0 {
		t.Errorf("Expected no rows on replay, got %d", summary.RowsWritten)
	}
	if n := countRows(t, store, 44); n != 2 {
		t.Errorf("Expected 2 rows, got %d", n)
	}
}

func TestSyncJob_Recent_SkipsUpToDateStation(t *testing.T) {
	archive := newFakeArchive()
	archive.put(t, recentDir, aktName(44), row(44, "2026030123", "1.0"))

	job, _ := setupJob(t, archive)
	ctx := context.Background()
	req := Request{Dataset: "at2h", Mode: constants.SyncModeRecent, Stations: []int{44}}

	if _, err := job.Run(ctx, req); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	summary, err := job.Run(ctx, req)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if res := summary.Station(44); res.Outcome != constants.OutcomeSkippedUpToDate {
		t.Errorf("Expected skipped-up-to-date, got %s", res.Outcome)
	}
	if len(archive.downloads) != 1 {
		t.Errorf("Expected a single download, got %d", len(archive.downloads))
	}
}

func TestSyncJob_AllStations(t *testing.T) {
	archive := newFakeArchive()
	archive.put(t, recentDir, aktName(91), row(91, "2026022823", "1.0"))
	archive.put(t, recentDir, aktName(44), row(44, "2026022823", "1.0"))
	archive.dirs[recentDir] = append(archive.dirs[recentDir], "Beschreibung_Stationen.txt")

	job, _ := setupJob(t, archive)

	summary, err := job.Run(context.Background(), Request{Dataset: "at2h", Mode: constants.SyncModeRecent, AllStations: true})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if summary.StationsAttempted != 2 {
		t.Fatalf("Expected 2 stations, got %d", summary.StationsAttempted)
	}
	if summary.Stations[0].Station != 44 || summary.Stations[1].Station != 91 {
		t.Errorf("Expected stations in ascending order, got %+v", summary.Stations)
	}
	if summary.Status != constants.RunStatusSuccess {
		t.Errorf("Expected status %s, got %s", constants.RunStatusSuccess, summary.Status)
	}
}

func TestSyncJob_Stations(t *testing.T) {
	archive := newFakeArchive()
	list := strings.Join([]string{
		"Stations_id von_datum bis_datum Stationshoehe geoBreite geoLaenge Stationsname Bundesland",
		"----------- --------- --------- ------------- --------- --------- ----------------------------------------- ----------",
		"00722 19510101 20260301           1134     51.7986   10.6183 Brocken                                  Sachsen-Anhalt",
		"05792 19000801 20260301           2956     47.4210   10.9848 Zugspitze                                Bayern",
	}, "\r\n")
	archive.files[histDir+"/"+dataset.AirTemperatureHourly.StationList.File] = []byte(list)

	job, store := setupJob(t, archive)

	summary, err := job.Run(context.Background(), Request{Dataset: "at2h", Mode: constants.SyncModeStations})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if summary.Status != constants.RunStatusSuccess {
		t.Errorf("Expected status %s, got %s (%s)", constants.RunStatusSuccess, summary.Status, summary.Error)
	}

	st, err := repositories.NewStationRepo(store.Gorm).Get(context.Background(), 5792)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if st == nil || st.Name != "Zugspitze" || st.IsoDateFrom != "1900-08-01" {
		t.Errorf("Unexpected station row %+v", st)
	}
}

func TestSyncJob_Stations_DownloadFailure(t *testing.T) {
	job, _ := setupJob(t, newFakeArchive())

	summary, err := job.Run(context.Background(), Request{Dataset: "at2h", Mode: constants.SyncModeStations})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if summary.Status != constants.RunStatusPartialFailure || summary.Error == "" {
		t.Errorf("Expected a failed run with an error, got %+v", summary)
	}
}

func TestSyncJob_ConfigErrors(t *testing.T) {
	archive := newFakeArchive()
	job, _ := setupJob(t, archive)

	tests := []struct {
		name string
		req  Request
		code string
	}{
		{"invalid mode", Request{Dataset: "at2h", Mode: "both", Stations: []int{1}}, constants.ErrCodeInvalidMode},
		{"unknown dataset", Request{Dataset: "sunshine", Mode: constants.SyncModeRecent, Stations: []int{1}}, constants.ErrCodeUnknownDataset},
		{"empty selection", Request{Dataset: "at2h", Mode: constants.SyncModeHistorical}, constants.ErrCodeEmptyStationSelection},
		{"missing table", Request{Dataset: "kl", Mode: constants.SyncModeRecent, Stations: []int{1}}, constants.ErrCodeSchemaInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			summary, err := job.Run(context.Background(), tt.req)
			if summary != nil {
				t.Errorf("Expected no summary, got %+v", summary)
			}
			var ce *ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("Expected ConfigError, got %v", err)
			}
			if ce.Code != tt.code {
				t.Errorf("Expected code %s, got %s", tt.code, ce.Code)
			}
		})
	}

	if len(archive.downloads) != 0 {
		t.Errorf("Expected no network calls, got %v", archive.downloads)
	}
}

func TestSyncJob_RunInProgress(t *testing.T) {
	job, _ := setupJob(t, newFakeArchive())

	job.mu.Lock()
	defer job.mu.Unlock()

	_, err := job.Run(context.Background(), Request{Dataset: "at2h", Mode: constants.SyncModeStations})
	if !errors.Is(err, ErrRunInProgress) {
		t.Errorf("Expected ErrRunInProgress, got %v", err)
	}
}

func TestSummary_Record(t *testing.T) {
	s := &Summary{RunID: "r1", Dataset: "at2h", Mode: constants.SyncModeRecent, StartedAt: time.Now()}
	s.add(StationResult{Station: 44, Outcome: constants.OutcomeSucceeded, Files: 1, RowsWritten: 10})
	s.add(StationResult{Station: 73, Outcome: constants.OutcomeFailed, Errors: []string{"boom"}})
	s.finish(time.Now())

	run := s.Record()
	if run.StationsFailed != 1 || run.RowsWritten != 10 || run.FilesFetched != 1 {
		t.Errorf("Unexpected record %+v", run)
	}
	if run.Errors != `{"73":["boom"]}` {
		t.Errorf("Unexpected errors %s", run.Errors)
	}
	if run.FinishedAt == nil {
		t.Error("Expected finished_at to be set")
	}
}
