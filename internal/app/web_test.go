package app

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestIMUCacheHandlers(t *testing.T) {
	c := &imuCache{}

	for _, h := range []http.HandlerFunc{c.handleSample, c.handleStatus} {
		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("empty cache: code = %d", rec.Code)
		}
	}

	if err := c.onRaw([]byte(`{"time":"2026-01-02T03:04:05Z","ax":1,"ay":2,"az":3,"gx":4,"gy":5,"gz":6}`)); err != nil {
		t.Fatal(err)
	}
	if err := c.onStatus([]byte(`{"stage":"Ready","available":true,"state":{"sample_rate_hz":500}}`)); err != nil {
		t.Fatal(err)
	}
	if err := c.onScaled([]byte(`not json`)); err == nil {
		t.Error("expected unmarshal error")
	}

	rec := httptest.NewRecorder()
	c.handleSample(rec, httptest.NewRequest(http.MethodGet, "/api/imu", nil))
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "application/json" {
		t.Fatalf("code = %d, content type %q", rec.Code, rec.Header().Get("Content-Type"))
	}
	var body struct {
		Raw struct {
			Ax, Gz int16
		} `json:"raw"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Raw.Ax != 1 || body.Raw.Gz != 6 {
		t.Errorf("body = %s", rec.Body)
	}

	rec = httptest.NewRecorder()
	c.handleStatus(rec, httptest.NewRequest(http.MethodGet, "/api/imu/status", nil))
	var st IMUStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
		t.Fatal(err)
	}
	if st.Stage != "Ready" || st.State.SampleRateHz != 500 {
		t.Errorf("status = %+v", st)
	}
}
