package seqta

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"attendance-monitoring/internal/attendance"
)

const oneRecordXML = `<response>
  <timestamp>2024-11-11T10:00:00</timestamp>
  <data>
    <student_code>S100</student_code>
    <absence_date>2024-11-11</absence_date>
    <period_code>3</period_code>
    <attendance_code>unexplained</attendance_code>
    <trigger_absentee_sms>false</trigger_absentee_sms>
    <considered_late>false</considered_late>
    <resolved>false</resolved>
    <on_campus>false</on_campus>
    <authorised>false</authorised>
    <start_time>09:00:00</start_time>
    <end_time>09:45:00</end_time>
  </data>
</response>`

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, "mgm", "secret", zap.NewNop()), srv
}

func TestFetch_Success(t *testing.T) {
	var gotDate string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "mgm" || pass != "secret" {
			t.Errorf("basic auth = %q/%q ok=%v", user, pass, ok)
		}
		gotDate = r.URL.Query().Get("date")
		w.Write([]byte(oneRecordXML))
	})

	records, err := client.Fetch(context.Background(), time.Date(2024, 11, 11, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if gotDate != "2024-11-11" {
		t.Errorf("date query = %q, want 2024-11-11", gotDate)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].StudentCode != "S100" || records[0].PeriodCode != 3 {
		t.Errorf("record = %+v", records[0])
	}
}

func TestFetch_NonSuccessStatus(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := client.Fetch(context.Background(), time.Date(2024, 11, 11, 0, 0, 0, 0, time.UTC))
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", statusErr.Code)
	}
}

func TestFetch_SchemaErrorPropagates(t *testing.T) {
	// Envelope missing student_code: the whole batch must fail unchanged.
	body := `<response><timestamp>t</timestamp><data><absence_date>2024-11-11</absence_date></data></response>`
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	})

	_, err := client.Fetch(context.Background(), time.Date(2024, 11, 11, 0, 0, 0, 0, time.UTC))
	var schemaErr *attendance.SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
}

func TestFetch_DumpRawIsBestEffort(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(oneRecordXML))
	})
	client.DumpRaw = true
	client.DumpPath = filepath.Join(t.TempDir(), "raw.json")

	if _, err := client.Fetch(context.Background(), time.Date(2024, 11, 11, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if _, err := os.Stat(client.DumpPath); err != nil {
		t.Errorf("raw dump not written: %v", err)
	}

	// An unwritable dump path must not fail the fetch.
	client.DumpPath = filepath.Join(t.TempDir(), "missing", "raw.json")
	if _, err := client.Fetch(context.Background(), time.Date(2024, 11, 11, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("Fetch failed on dump error: %v", err)
	}
}
