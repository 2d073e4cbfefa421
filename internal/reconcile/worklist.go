package reconcile

import (
	"sort"
	"time"
)

// Absence is one row of the reconciled worklist: an unresolved, unapproved
// attendance exception joined to its scheduled class period and the
// student's directory entry.
type Absence struct {
	StudentCode    string    `parquet:"student_code"`
	AbsenceDate    time.Time `parquet:"absence_date"`
	PeriodCode     int       `parquet:"period_code"`
	AttendanceCode string    `parquet:"attendance_code"`
	StartTime      string    `parquet:"start_time"`
	EndTime        string    `parquet:"end_time"`
	Comments       string    `parquet:"comments,optional"`

	PeriodID   int64  `parquet:"period_id"`
	ClassCode  string `parquet:"code"`
	ClassStart string `parquet:"class_start_time"`
	ClassEnd   string `parquet:"class_end_time"`

	FirstName     string `parquet:"Student First Name"`
	Surname       string `parquet:"Student Surname"`
	PreferredName string `parquet:"Student Preferred Name"`
	DOB           string `parquet:"Student DOB"`
	Gender        string `parquet:"Student Gender"`
	RollGroup     string `parquet:"Roll Group"`
	CampusCode    string `parquet:"Campus Code"`
	Email         string `parquet:"Student Email"`
}

// TableColumns implements persist.Tabular.
func (a Absence) TableColumns() []string {
	return []string{
		"student_code", "absence_date", "period_code", "attendance_code",
		"start_time", "end_time", "comments",
		"period_id", "code", "class_start_time", "class_end_time",
		"Student First Name", "Student Surname", "Student Preferred Name",
		"Student DOB", "Student Gender", "Roll Group", "Campus Code",
		"Student Email",
	}
}

// TableValues implements persist.Tabular.
func (a Absence) TableValues() []any {
	return []any{
		a.StudentCode, a.AbsenceDate, a.PeriodCode, a.AttendanceCode,
		a.StartTime, a.EndTime, a.Comments,
		a.PeriodID, a.ClassCode, a.ClassStart, a.ClassEnd,
		a.FirstName, a.Surname, a.PreferredName,
		a.DOB, a.Gender, a.RollGroup, a.CampusCode,
		a.Email,
	}
}

// SortWorklist orders rows by absence date, then period code. The engine
// returns rows unordered; this is the display ordering callers apply.
func SortWorklist(rows []Absence) {
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].AbsenceDate.Equal(rows[j].AbsenceDate) {
			return rows[i].AbsenceDate.Before(rows[j].AbsenceDate)
		}
		return rows[i].PeriodCode < rows[j].PeriodCode
	})
}
