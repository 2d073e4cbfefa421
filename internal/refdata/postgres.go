package refdata

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"
)

// postgresStore queries the source tables directly instead of going through
// parquet exports. Column shapes match the exported tables so the rest of
// the pipeline is store-agnostic.
type postgresStore struct {
	db  *sql.DB
	log *zap.Logger
}

func (s *postgresStore) ClassInstances(ctx context.Context) ([]ClassInstance, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT period, COALESCE(code, ''), date,
		       COALESCE(start::text, ''), COALESCE("end"::text, '')
		FROM classinstance
	`)
	if err != nil {
		return nil, fmt.Errorf("query classinstance: %w", err)
	}
	defer rows.Close()

	var out []ClassInstance
	for rows.Next() {
		var ci ClassInstance
		if err := rows.Scan(&ci.PeriodID, &ci.Code, &ci.Date, &ci.Start, &ci.End); err != nil {
			return nil, fmt.Errorf("scan classinstance: %w", err)
		}
		out = append(out, ci)
	}
	s.log.Debug("reference table queried", zap.String("table", "classinstance"), zap.Int("rows", len(out)))
	return out, rows.Err()
}

func (s *postgresStore) Periods(ctx context.Context) ([]Period, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, COALESCE(code, '') FROM period`)
	if err != nil {
		return nil, fmt.Errorf("query period: %w", err)
	}
	defer rows.Close()

	var out []Period
	for rows.Next() {
		var p Period
		if err := rows.Scan(&p.ID, &p.Code); err != nil {
			return nil, fmt.Errorf("scan period: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *postgresStore) Students(ctx context.Context) ([]Student, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT "Student Code",
		       COALESCE("Student First Name", ''),
		       COALESCE("Student Surname", ''),
		       COALESCE("Student Preferred Name", ''),
		       COALESCE("Student DOB"::text, ''),
		       COALESCE("Student Gender", ''),
		       COALESCE("Roll Group", ''),
		       COALESCE("Campus Code", ''),
		       COALESCE("Student Email", '')
		FROM vw_student_details
	`)
	if err != nil {
		return nil, fmt.Errorf("query vw_student_details: %w", err)
	}
	defer rows.Close()

	var out []Student
	for rows.Next() {
		var st Student
		if err := rows.Scan(&st.Code, &st.FirstName, &st.Surname, &st.PreferredName,
			&st.DOB, &st.Gender, &st.RollGroup, &st.CampusCode, &st.Email); err != nil {
			return nil, fmt.Errorf("scan vw_student_details: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}
