package refdata

import "time"

// ClassInstance is one scheduled lesson occurrence from the timetable export.
// Period references the period table by id; Code is the class code.
type ClassInstance struct {
	PeriodID int64     `parquet:"period"`
	Code     string    `parquet:"code"`
	Date     time.Time `parquet:"date"`
	Start    string    `parquet:"start"`
	End      string    `parquet:"end"`
}

// Period maps a period id to its human-readable label. Labels are source
// codes and may be non-numeric.
type Period struct {
	ID   int64  `parquet:"id"`
	Code string `parquet:"code"`
}

// Student is the fixed projection of the student directory view used by
// reconciliation. Student codes are unique within a directory snapshot.
type Student struct {
	Code          string `parquet:"Student Code"`
	FirstName     string `parquet:"Student First Name"`
	Surname       string `parquet:"Student Surname"`
	PreferredName string `parquet:"Student Preferred Name"`
	DOB           string `parquet:"Student DOB"`
	Gender        string `parquet:"Student Gender"`
	RollGroup     string `parquet:"Roll Group"`
	CampusCode    string `parquet:"Campus Code"`
	Email         string `parquet:"Student Email"`
}
