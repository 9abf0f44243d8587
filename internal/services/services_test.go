package services

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"golang.org/x/text/encoding/charmap"

	"dwdcdc/internal/constants"
	"dwdcdc/internal/dataset"
	"dwdcdc/internal/providers"
)

type mockArchive struct {
	ListFunc     func(ctx context.Context, d dataset.Descriptor, dir string, stations ...int) ([]string, error)
	DownloadFunc func(ctx context.Context, path string) ([]byte, error)
}

func (m *mockArchive) List(ctx context.Context, d dataset.Descriptor, dir string, stations ...int) ([]string, error) {
	return m.ListFunc(ctx, d, dir, stations...)
}

func (m *mockArchive) Download(ctx context.Context, path string) ([]byte, error) {
	return m.DownloadFunc(ctx, path)
}

type mockMirror struct {
	puts []string
	err  error
}

func (m *mockMirror) Put(_ context.Context, path string, _ []byte) error {
	m.puts = append(m.puts, path)
	return m.err
}

func buildZip(t *testing.T, members map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range members {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func serving(payload []byte) *mockArchive {
	return &mockArchive{
		DownloadFunc: func(ctx context.Context, path string) ([]byte, error) {
			return payload, nil
		},
	}
}

const produkt = "STATIONS_ID;MESS_DATUM;QN_9;TT_TU;RF_TU;eor\n" +
	"      5906;1995010101;    3;   1.2;  90.0;eor\n" +
	"      5906;1995010100;    3;  -999;  91.0;eor\n" +
	"\n"

func TestDataFileService_Fetch(t *testing.T) {
	payload := buildZip(t, map[string]string{
		"Metadaten_Geographie_05906.txt":                "ignored",
		"produkt_tu_stunde_19490101_20191231_05906.txt": produkt,
	})
	mirror := &mockMirror{err: errors.New("bucket gone")}
	svc := NewDataFileService(serving(payload), mirror)

	f, err := svc.Fetch(context.Background(), dataset.AirTemperatureHourly,
		"hourly/air_temperature/historical/stundenwerte_TU_05906_19490101_19951231_hist.zip")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if f.Station != 5906 || len(f.Rows) != 2 {
		t.Fatalf("Expected 2 rows of 5906, got %d rows of %d", len(f.Rows), f.Station)
	}
	if f.Rows[0].Timestamp() != "1995010101" {
		t.Errorf("Expected file order to be kept, got %s first", f.Rows[0].Timestamp())
	}
	if f.MinTS != "1995010100" || f.MaxTS != "1995010101" {
		t.Errorf("Unexpected range %s..%s", f.MinTS, f.MaxTS)
	}
	if f.Rows[1][7] != nil {
		t.Errorf("Expected sentinel temp to be nil, got %v", f.Rows[1][7])
	}
	if len(mirror.puts) != 1 {
		t.Errorf("Expected mirror attempt despite failure, got %v", mirror.puts)
	}
}

func TestDataFileService_Fetch_EmptyFile(t *testing.T) {
	payload := buildZip(t, map[string]string{
		"produkt_tu_stunde_20250101_20261017_00003.txt": "STATIONS_ID;MESS_DATUM;QN_9;TT_TU;RF_TU;eor\n",
	})
	svc := NewDataFileService(serving(payload), nil)

	f, err := svc.Fetch(context.Background(), dataset.AirTemperatureHourly, "stundenwerte_TU_00003_akt.zip")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(f.Rows) != 0 || f.MaxTS != "" {
		t.Errorf("Expected empty result, got %+v", f)
	}
}

func TestDataFileService_Fetch_MalformedRow(t *testing.T) {
	payload := buildZip(t, map[string]string{
		"produkt_tu_stunde_x_05906.txt": produkt + "5906;1995010102;3;1.0;eor\n",
	})
	svc := NewDataFileService(serving(payload), nil)

	_, err := svc.Fetch(context.Background(), dataset.AirTemperatureHourly, "stundenwerte_TU_05906_akt.zip")
	var mre *dataset.MalformedRowError
	if !errors.As(err, &mre) {
		t.Fatalf("Expected MalformedRowError, got %v", err)
	}
	if mre.Line != 5 {
		t.Errorf("Expected line 5, got %d", mre.Line)
	}
}

func TestDataFileService_Fetch_ForeignStation(t *testing.T) {
	payload := buildZip(t, map[string]string{
		"produkt_tu_stunde_x_05906.txt": "5906;1995010100;3;1.0;2.0;eor\n44;1995010100;3;1.0;2.0;eor\n",
	})
	svc := NewDataFileService(serving(payload), nil)

	_, err := svc.Fetch(context.Background(), dataset.AirTemperatureHourly, "stundenwerte_TU_05906_akt.zip")
	var mre *dataset.MalformedRowError
	if !errors.As(err, &mre) || !strings.Contains(mre.Reason, constants.ErrCodeStationMixed) {
		t.Errorf("Expected station mismatch, got %v", err)
	}
}

func TestDataFileService_Fetch_NoDataMember(t *testing.T) {
	payload := buildZip(t, map[string]string{"Metadaten_Parameter.txt": "x"})
	svc := NewDataFileService(serving(payload), nil)

	_, err := svc.Fetch(context.Background(), dataset.AirTemperatureHourly, "stundenwerte_TU_05906_akt.zip")
	var mre *dataset.MalformedRowError
	if !errors.As(err, &mre) || !strings.Contains(mre.Reason, constants.ErrCodeNoDataMember) {
		t.Errorf("Expected missing member error, got %v", err)
	}
}

func TestDataFileService_Fetch_TransportError(t *testing.T) {
	svc := NewDataFileService(&mockArchive{
		DownloadFunc: func(ctx context.Context, path string) ([]byte, error) {
			return nil, &providers.TransportError{Code: constants.ErrCodeNetworkError, Retryable: true}
		},
	}, nil)

	_, err := svc.Fetch(context.Background(), dataset.AirTemperatureHourly, "stundenwerte_TU_05906_akt.zip")
	if !providers.IsTransportError(err) {
		t.Errorf("Expected TransportError, got %v", err)
	}
}

func TestStationListService_Fetch(t *testing.T) {
	text := "Stations_id von_datum bis_datum Stationshoehe geoBreite geoLaenge Stationsname Bundesland Abgabe\r\n" +
		"----------- --------- --------- ------------- --------- --------- ----------------------------------------- ---------- ------\r\n" +
		"00722 19580101 20261017           1134     51.7986   10.6183 Brocken                                  Sachsen-Anhalt                           Frei\r\n" +
		"05906 19490101 20261017             96     49.5063    8.5584 Mannheim                                 Baden-Württemberg                        Frei\r\n"
	latin1, err := charmap.ISO8859_1.NewEncoder().String(text)
	if err != nil {
		t.Fatal(err)
	}

	var requested string
	svc := NewStationListService(&mockArchive{
		DownloadFunc: func(ctx context.Context, path string) ([]byte, error) {
			requested = path
			return []byte(latin1), nil
		},
	}, nil)

	recs, err := svc.Fetch(context.Background(), dataset.AirTemperatureHourly)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if requested != "hourly/air_temperature/historical/TU_Stundenwerte_Beschreibung_Stationen.txt" {
		t.Errorf("Unexpected path %s", requested)
	}
	if len(recs) != 2 {
		t.Fatalf("Expected 2 stations, got %d", len(recs))
	}
	if recs[1].State != "Baden-Württemberg" || recs[1].Description != "5906: Mannheim [BaWü]" {
		t.Errorf("Expected decoded umlauts, got %+v", recs[1])
	}
	if recs[0].StateShort != "ST" || recs[0].Elevation != 1134 {
		t.Errorf("Unexpected first record %+v", recs[0])
	}
}
