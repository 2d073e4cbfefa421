package reconcile

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"attendance-monitoring/internal/attendance"
	"attendance-monitoring/internal/cache"
	"attendance-monitoring/internal/refdata"
)

type stubCache struct {
	records []attendance.Record
}

func (s *stubCache) GetOrFetch(ctx context.Context, startDate time.Time, fetch cache.FetchFunc) ([]attendance.Record, error) {
	return s.records, nil
}

type stubProvider struct {
	instances []refdata.ClassInstance
	periods   []refdata.Period
	students  []refdata.Student
}

func (s *stubProvider) ClassInstances(ctx context.Context) ([]refdata.ClassInstance, error) {
	return s.instances, nil
}

func (s *stubProvider) Periods(ctx context.Context) ([]refdata.Period, error) {
	return s.periods, nil
}

func (s *stubProvider) Students(ctx context.Context) ([]refdata.Student, error) {
	return s.students, nil
}

func day(d int) time.Time {
	return time.Date(2024, 11, d, 0, 0, 0, 0, time.UTC)
}

func exception(student string, date time.Time, period int, code string, resolved bool) attendance.Record {
	return attendance.Record{
		StudentCode:    student,
		AbsenceDate:    date,
		PeriodCode:     period,
		AttendanceCode: code,
		Resolved:       resolved,
		StartTime:      "09:00:00",
		EndTime:        "09:45:00",
	}
}

func scenario() (*stubCache, *stubProvider) {
	return &stubCache{
			records: []attendance.Record{
				exception("S100", day(11), 3, "unexplained", false),
			},
		}, &stubProvider{
			instances: []refdata.ClassInstance{
				{PeriodID: 7, Code: "MATH10A", Date: day(11), Start: "09:00:00", End: "09:45:00"},
			},
			periods: []refdata.Period{{ID: 7, Code: "3"}},
			students: []refdata.Student{
				{Code: "S100", FirstName: "Alex", Surname: "Nguyen"},
			},
		}
}

func newTestEngine(c cache.Store, p refdata.Provider) *Engine {
	e := New(c, nil, p, zap.NewNop())
	e.now = func() time.Time { return time.Date(2024, 12, 2, 10, 30, 0, 0, time.UTC) }
	return e
}

func TestFilterExceptions(t *testing.T) {
	records := []attendance.Record{
		exception("S1", day(11), 1, "absenceapproved-parent", false),
		exception("S2", day(11), 2, "unexplained", true),
		exception("S3", day(11), 3, "unexplained", false),
	}
	got := FilterExceptions(records)
	if len(got) != 1 {
		t.Fatalf("expected 1 record after filter, got %d", len(got))
	}
	if got[0].StudentCode != "S3" {
		t.Errorf("kept record = %+v, want S3", got[0])
	}
}

func TestBuildClassPeriods_NonStrictCast(t *testing.T) {
	instances := []refdata.ClassInstance{
		{PeriodID: 7, Date: day(11)},
		{PeriodID: 8, Date: day(11)},
		{PeriodID: 9, Date: day(11)},
	}
	periods := []refdata.Period{
		{ID: 7, Code: "3"},
		{ID: 8, Code: "HomeRoom"},
	}

	got := BuildClassPeriods(instances, periods)
	// Period id 9 has no label row: inner join drops it.
	if len(got) != 2 {
		t.Fatalf("expected 2 class periods, got %d", len(got))
	}
	if got[0].Period == nil || *got[0].Period != 3 {
		t.Errorf("numeric label should coerce, got %+v", got[0])
	}
	// A non-numeric label yields a nil period, never an error.
	if got[1].Period != nil {
		t.Errorf("non-numeric label should yield nil period, got %d", *got[1].Period)
	}
}

func TestWindowStart(t *testing.T) {
	e := newTestEngine(&stubCache{}, &stubProvider{})
	want := time.Date(2024, 12, 2, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -7*18)
	if got := e.WindowStart(); !got.Equal(want) {
		t.Errorf("WindowStart = %v, want %v", got, want)
	}
}

func TestReconcile_EndToEnd(t *testing.T) {
	c, p := scenario()
	rows, err := newTestEngine(c, p).Reconcile(context.Background())
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected exactly 1 worklist row, got %d", len(rows))
	}
	row := rows[0]
	if row.StudentCode != "S100" || row.PeriodCode != 3 {
		t.Errorf("row = %+v", row)
	}
	if row.PeriodID != 7 || row.ClassCode != "MATH10A" {
		t.Errorf("class join fields wrong: %+v", row)
	}
	if row.FirstName != "Alex" || row.Surname != "Nguyen" {
		t.Errorf("student join fields wrong: %+v", row)
	}
}

func TestReconcile_RemovingAnyInputYieldsNothing(t *testing.T) {
	t.Run("no matching class period", func(t *testing.T) {
		c, p := scenario()
		p.instances = nil
		rows, err := newTestEngine(c, p).Reconcile(context.Background())
		if err != nil {
			t.Fatalf("Reconcile failed: %v", err)
		}
		if len(rows) != 0 {
			t.Errorf("expected 0 rows, got %d", len(rows))
		}
	})

	t.Run("no matching student", func(t *testing.T) {
		c, p := scenario()
		p.students = nil
		rows, err := newTestEngine(c, p).Reconcile(context.Background())
		if err != nil {
			t.Fatalf("Reconcile failed: %v", err)
		}
		if len(rows) != 0 {
			t.Errorf("expected 0 rows, got %d", len(rows))
		}
	})

	t.Run("no attendance exception", func(t *testing.T) {
		c, p := scenario()
		c.records = nil
		rows, err := newTestEngine(c, p).Reconcile(context.Background())
		if err != nil {
			t.Fatalf("Reconcile failed: %v", err)
		}
		if len(rows) != 0 {
			t.Errorf("expected 0 rows, got %d", len(rows))
		}
	})
}

func TestReconcile_JoinExclusivity(t *testing.T) {
	c, p := scenario()
	// Same student, different period: no scheduled instance for period 5.
	c.records = append(c.records, exception("S100", day(11), 5, "unexplained", false))
	// Known period but a student missing from the directory snapshot.
	c.records = append(c.records, exception("S999", day(11), 3, "unexplained", false))

	rows, err := newTestEngine(c, p).Reconcile(context.Background())
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected only the fully matched row, got %d", len(rows))
	}
	if rows[0].StudentCode != "S100" || rows[0].PeriodCode != 3 {
		t.Errorf("row = %+v", rows[0])
	}
}

func TestReconcile_MistypedPeriodExcluded(t *testing.T) {
	c, p := scenario()
	p.periods = []refdata.Period{{ID: 7, Code: "HomeRoom"}}

	rows, err := newTestEngine(c, p).Reconcile(context.Background())
	if err != nil {
		t.Fatalf("Reconcile should not fail on a non-numeric label: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("expected 0 rows, got %d", len(rows))
	}
}

func TestSortWorklist(t *testing.T) {
	rows := []Absence{
		{StudentCode: "C", AbsenceDate: day(12), PeriodCode: 1},
		{StudentCode: "B", AbsenceDate: day(11), PeriodCode: 4},
		{StudentCode: "A", AbsenceDate: day(11), PeriodCode: 2},
	}
	SortWorklist(rows)
	for i, code := range []string{"A", "B", "C"} {
		if rows[i].StudentCode != code {
			t.Fatalf("order = %s %s %s, want A B C",
				rows[0].StudentCode, rows[1].StudentCode, rows[2].StudentCode)
		}
	}
}
