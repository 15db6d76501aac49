package responseformat

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vmihailenco/msgpack/v5"
)

type arrival struct {
	Planet  string  `json:"planet"`
	ArrTime float64 `json:"arr_time"`
}

func TestWriteResponseFormats(t *testing.T) {
	f := NewFormatter()
	want := arrival{Planet: "moon", ArrTime: 73500}

	t.Run("json by default", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/stalta/moon", nil)
		if err := f.WriteResponse(rec, req, want, map[string]string{"X-Request-ID": "r1"}); err != nil {
			t.Fatal(err)
		}
		if ct := rec.Header().Get("Content-Type"); ct != ContentTypeJSON {
			t.Errorf("Content-Type = %q", ct)
		}
		if rec.Header().Get("Access-Control-Allow-Origin") != "*" || rec.Header().Get("X-Request-ID") != "r1" {
			t.Errorf("missing headers: %v", rec.Header())
		}
		var got arrival
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil || got != want {
			t.Errorf("decoded %+v, %v", got, err)
		}
	})

	t.Run("msgpack uses json field names", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/stalta/moon?format=msgpack", nil)
		if err := f.WriteResponse(rec, req, want, nil); err != nil {
			t.Fatal(err)
		}
		if ct := rec.Header().Get("Content-Type"); ct != ContentTypeMsgPack {
			t.Errorf("Content-Type = %q", ct)
		}
		var got map[string]any
		if err := msgpack.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatal(err)
		}
		if got["planet"] != "moon" {
			t.Errorf("expected planet key, got %v", got)
		}
	})
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/events/mars", nil)
	body := ErrorResponse{Error: "no peak", Kind: "no_peak_found", Channel: "x"}
	if err := NewFormatter().WriteError(rec, req, http.StatusUnprocessableEntity, body); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d", rec.Code)
	}
	var got map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got["kind"] != "no_peak_found" {
		t.Errorf("unexpected body %v", got)
	}
	if _, ok := got["params"]; ok {
		t.Error("empty params should be omitted")
	}
}
