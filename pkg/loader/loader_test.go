package loader

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

const recordsCSV = "Localidade,DS,Fluência\n" +
	"Batticaloa,Manmunai North,Falantes\n" +
	"Batticaloa,Eravur,\n"

const districtsJSON = `{"type":"FeatureCollection","features":[
 {"type":"Feature","properties":{"NAME_1":"Batticaloa"},"geometry":null}
]}`

const subDistrictsJSON = `{"type":"FeatureCollection","features":[
 {"type":"Feature","properties":{"NAME_1":"Batticaloa","NAME_2":"ManmunaiNorth"},"geometry":null},
 {"type":"Feature","properties":{"NAME_1":"Batticaloa","NAME_2":"Eravur"},"geometry":null}
]}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func fastOptions() Options {
	return Options{Backoff: time.Millisecond}
}

func TestLoad_Files(t *testing.T) {
	dir := t.TempDir()
	src := Sources{
		Records:      writeFile(t, dir, "data.csv", recordsCSV),
		Districts:    writeFile(t, dir, "gadm41_LKA_1.json", districtsJSON),
		SubDistricts: writeFile(t, dir, "gadm41_LKA_2.json", subDistrictsJSON),
	}

	data, err := Load(context.Background(), src, fastOptions())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(data.Records) != 2 || len(data.Districts) != 1 || len(data.SubDistricts) != 2 {
		t.Fatalf("loaded %d records, %d districts, %d sub-districts",
			len(data.Records), len(data.Districts), len(data.SubDistricts))
	}
	if _, ok := data.Records[1].Get("Fluência"); ok {
		t.Error("empty cell should be missing")
	}
	if data.SubDistricts[0].Fine != "ManmunaiNorth" || data.SubDistricts[0].Coarse != "Batticaloa" {
		t.Errorf("sub-district = %+v", data.SubDistricts[0])
	}
}

func TestLoad_HTTP(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch r.URL.Path {
		case "/data.csv":
			w.Write([]byte(recordsCSV))
		case "/districts.json":
			w.Write([]byte(districtsJSON))
		case "/subdistricts.json":
			w.Write([]byte(subDistrictsJSON))
		default:
			http.NotFound(w, r)
		}
	}))
	defer ts.Close()

	data, err := Load(context.Background(), Sources{
		Records:      ts.URL + "/data.csv",
		Districts:    ts.URL + "/districts.json",
		SubDistricts: ts.URL + "/subdistricts.json",
	}, fastOptions())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(data.Records) != 2 {
		t.Errorf("records = %d, want 2", len(data.Records))
	}
	if hits.Load() != 3 {
		t.Errorf("requests = %d, want 3", hits.Load())
	}
}

func TestLoad_SourceError(t *testing.T) {
	dir := t.TempDir()
	src := Sources{
		Records:      writeFile(t, dir, "data.csv", recordsCSV),
		Districts:    writeFile(t, dir, "d.json", "not json"),
		SubDistricts: writeFile(t, dir, "s.json", subDistrictsJSON),
	}

	_, err := Load(context.Background(), src, fastOptions())
	var se *SourceError
	if !errors.As(err, &se) {
		t.Fatalf("expected SourceError, got %v", err)
	}
	if se.Source != SourceDistricts {
		t.Errorf("source = %q, want %q", se.Source, SourceDistricts)
	}
	if !strings.Contains(err.Error(), "d.json") {
		t.Errorf("error should name the location: %v", err)
	}
}

func TestLoad_MissingLocation(t *testing.T) {
	_, err := Load(context.Background(), Sources{}, fastOptions())
	var se *SourceError
	if !errors.As(err, &se) {
		t.Fatalf("expected SourceError, got %v", err)
	}
}

func TestFetch_Retry(t *testing.T) {
	var attempts atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer ts.Close()

	data, err := fastOptions().fetch(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("fetch with retries: %v", err)
	}
	if string(data) != "ok" {
		t.Errorf("body = %q", data)
	}
	if attempts.Load() != 3 {
		t.Errorf("attempts = %d, want 3", attempts.Load())
	}
}

func TestFetch_AllFail(t *testing.T) {
	var attempts atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	opts := fastOptions()
	opts.Attempts = 2
	_, err := opts.fetch(context.Background(), ts.URL)
	if err == nil {
		t.Fatal("expected error after all attempts fail")
	}
	if !strings.Contains(err.Error(), "503") {
		t.Errorf("error should carry the last status: %v", err)
	}
	if attempts.Load() != 2 {
		t.Errorf("attempts = %d, want 2", attempts.Load())
	}
}

func TestFetch_Cancelled(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := (Options{Backoff: time.Hour}).fetch(ctx, ts.URL); err == nil {
		t.Fatal("expected error with cancelled context")
	}
}
