// Package reconcile joins attendance exceptions against the class-period
// timetable and the student directory to produce the follow-up worklist.
package reconcile

import (
	"context"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"attendance-monitoring/internal/attendance"
	"attendance-monitoring/internal/cache"
	"attendance-monitoring/internal/metrics"
	"attendance-monitoring/internal/refdata"
)

// lookbackDays is the fixed query window: 18 weeks back from today.
const lookbackDays = 7 * 18

// approvedMarker flags attendance codes whose absence is already approved.
const approvedMarker = "absenceapproved"

// ClassPeriod is a scheduled lesson occurrence with its period label
// coerced to a numeric code. Period is nil when the label is non-numeric;
// such rows legitimately never join.
type ClassPeriod struct {
	PeriodID    int64
	ClassCode   string
	ClassDate   time.Time
	ClassStart  string
	ClassEnd    string
	PeriodLabel string
	Period      *int
}

// Engine runs the end-to-end reconciliation pipeline. Stages execute
// strictly in dependency order on the calling goroutine.
type Engine struct {
	cache    cache.Store
	fetch    cache.FetchFunc
	provider refdata.Provider
	now      func() time.Time
	log      *zap.Logger
}

// New wires the engine to its collaborators.
func New(c cache.Store, fetch cache.FetchFunc, provider refdata.Provider, log *zap.Logger) *Engine {
	return &Engine{cache: c, fetch: fetch, provider: provider, now: time.Now, log: log}
}

// WindowStart computes the query window's start date: today minus the fixed
// lookback, at UTC midnight.
func (e *Engine) WindowStart() time.Time {
	t := e.now().UTC()
	today := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return today.AddDate(0, 0, -lookbackDays)
}

// Reconcile produces the worklist of unresolved, unapproved absences that
// match a scheduled class period and a directory entry. Both joins are
// inner: unmatched rows drop out silently.
func (e *Engine) Reconcile(ctx context.Context) ([]Absence, error) {
	start := e.WindowStart()
	records, err := e.cache.GetOrFetch(ctx, start, e.fetch)
	if err != nil {
		return nil, err
	}

	filtered := FilterExceptions(records)
	e.log.Debug("attendance exceptions filtered",
		zap.Int("fetched", len(records)), zap.Int("remaining", len(filtered)))

	instances, err := e.provider.ClassInstances(ctx)
	if err != nil {
		return nil, err
	}
	periods, err := e.provider.Periods(ctx)
	if err != nil {
		return nil, err
	}
	classPeriods := BuildClassPeriods(instances, periods)

	students, err := e.provider.Students(ctx)
	if err != nil {
		return nil, err
	}

	out := joinWorklist(filtered, classPeriods, students, e.log)
	metrics.WorklistRows.Set(float64(len(out)))
	e.log.Info("worklist reconciled",
		zap.Time("window_start", start), zap.Int("rows", len(out)))
	return out, nil
}

// FilterExceptions keeps rows that are neither approved nor resolved. Both
// conditions must hold for a row to remain.
func FilterExceptions(records []attendance.Record) []attendance.Record {
	out := make([]attendance.Record, 0, len(records))
	for _, r := range records {
		if strings.Contains(r.AttendanceCode, approvedMarker) {
			continue
		}
		if r.Resolved {
			continue
		}
		out = append(out, r)
	}
	return out
}

// BuildClassPeriods joins class instances to their period labels and
// coerces each label to a numeric period code. The label join is inner;
// the cast is non-strict, a failure yields a nil Period, never an error.
func BuildClassPeriods(instances []refdata.ClassInstance, periods []refdata.Period) []ClassPeriod {
	labels := make(map[int64]string, len(periods))
	for _, p := range periods {
		labels[p.ID] = p.Code
	}

	out := make([]ClassPeriod, 0, len(instances))
	for _, ci := range instances {
		label, ok := labels[ci.PeriodID]
		if !ok {
			continue
		}
		cp := ClassPeriod{
			PeriodID:    ci.PeriodID,
			ClassCode:   ci.Code,
			ClassDate:   ci.Date,
			ClassStart:  ci.Start,
			ClassEnd:    ci.End,
			PeriodLabel: label,
		}
		if n, err := strconv.Atoi(strings.TrimSpace(label)); err == nil {
			cp.Period = &n
		}
		out = append(out, cp)
	}
	return out
}

type periodKey struct {
	date   string
	period int
}

func joinWorklist(records []attendance.Record, classPeriods []ClassPeriod, students []refdata.Student, log *zap.Logger) []Absence {
	// At most one scheduled instance exists per (date, period); a duplicate
	// means a malformed timetable export, keep the first and say so.
	schedule := make(map[periodKey]ClassPeriod, len(classPeriods))
	for _, cp := range classPeriods {
		if cp.Period == nil {
			continue
		}
		k := periodKey{date: cp.ClassDate.Format("2006-01-02"), period: *cp.Period}
		if _, dup := schedule[k]; dup {
			log.Warn("duplicate class period instance",
				zap.String("date", k.date), zap.Int("period", k.period))
			continue
		}
		schedule[k] = cp
	}

	directory := make(map[string]refdata.Student, len(students))
	for _, st := range students {
		directory[st.Code] = st
	}

	out := make([]Absence, 0, len(records))
	for _, r := range records {
		cp, ok := schedule[periodKey{date: r.DateKey(), period: r.PeriodCode}]
		if !ok {
			continue
		}
		st, ok := directory[r.StudentCode]
		if !ok {
			continue
		}
		out = append(out, Absence{
			StudentCode:    r.StudentCode,
			AbsenceDate:    r.AbsenceDate,
			PeriodCode:     r.PeriodCode,
			AttendanceCode: r.AttendanceCode,
			StartTime:      r.StartTime,
			EndTime:        r.EndTime,
			Comments:       r.Comments,
			PeriodID:       cp.PeriodID,
			ClassCode:      cp.ClassCode,
			ClassStart:     cp.ClassStart,
			ClassEnd:       cp.ClassEnd,
			FirstName:      st.FirstName,
			Surname:        st.Surname,
			PreferredName:  st.PreferredName,
			DOB:            st.DOB,
			Gender:         st.Gender,
			RollGroup:      st.RollGroup,
			CampusCode:     st.CampusCode,
			Email:          st.Email,
		})
	}
	return out
}
