package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestS3Mirror_Key(t *testing.T) {
	m, err := NewS3Mirror("id", "secret", "http://localhost:9000", "bucket", "", "")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	got := m.Key("/hourly/air_temperature/recent/stundenwerte_TU_00003_akt.zip")
	if got != "dwd/hourly/air_temperature/recent/stundenwerte_TU_00003_akt.zip" {
		t.Errorf("Unexpected key %s", got)
	}
}

func TestS3Mirror_Put(t *testing.T) {
	var method, path string
	var body []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	m, err := NewS3Mirror("id", "secret", server.URL, "raw", "us-east-1", "mirror/")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if err := m.Put(context.Background(), "daily/kl/recent/tageswerte_KL_00044_akt.zip", []byte("PK\x03\x04")); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if method != http.MethodPut {
		t.Errorf("Expected PUT, got %s", method)
	}
	if path != "/raw/mirror/daily/kl/recent/tageswerte_KL_00044_akt.zip" {
		t.Errorf("Unexpected path %s", path)
	}
	if len(body) == 0 {
		t.Error("Expected a request body")
	}
}

func TestNewS3Mirror_RequiresBucket(t *testing.T) {
	if _, err := NewS3Mirror("id", "secret", "", "", "", ""); err == nil {
		t.Error("Expected error without bucket")
	}
}
