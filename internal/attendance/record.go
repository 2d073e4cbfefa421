package attendance

import (
	"time"
)

// Record is one reported attendance exception for a student, period and date.
// Records are immutable once a download completes: they are produced by the
// SEQTA client (or rehydrated from cache) and only ever read after that.
type Record struct {
	StudentCode        string    `parquet:"student_code" validate:"required"`
	AbsenceDate        time.Time `parquet:"absence_date"`
	PeriodCode         int       `parquet:"period_code"`
	AttendanceCode     string    `parquet:"attendance_code" validate:"required"`
	TriggerAbsenteeSMS bool      `parquet:"trigger_absentee_sms"`
	ConsideredLate     bool      `parquet:"considered_late"`
	Resolved           bool      `parquet:"resolved"`
	OnCampus           bool      `parquet:"on_campus"`
	Authorised         bool      `parquet:"authorised"`
	StartTime          string    `parquet:"start_time" validate:"required"`
	EndTime            string    `parquet:"end_time" validate:"required"`
	Comments           string    `parquet:"comments,optional"`
}

// DateKey returns the absence date in ISO form, the canonical join and cache key.
func (r Record) DateKey() string {
	return r.AbsenceDate.Format("2006-01-02")
}

// TableColumns implements persist.Tabular.
func (r Record) TableColumns() []string {
	return []string{
		"student_code", "absence_date", "period_code", "attendance_code",
		"trigger_absentee_sms", "considered_late", "resolved", "on_campus",
		"authorised", "start_time", "end_time", "comments",
	}
}

// TableValues implements persist.Tabular.
func (r Record) TableValues() []any {
	return []any{
		r.StudentCode, r.AbsenceDate, r.PeriodCode, r.AttendanceCode,
		r.TriggerAbsenteeSMS, r.ConsideredLate, r.Resolved, r.OnCampus,
		r.Authorised, r.StartTime, r.EndTime, r.Comments,
	}
}
