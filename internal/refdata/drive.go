package refdata

import (
	"context"
	"fmt"
	"os"

	"github.com/parquet-go/parquet-go"
	"go.uber.org/zap"

	"attendance-monitoring/internal/drive"
)

// driveTables maps (source, table) to the Drive file ID of its parquet
// export. An absent entry means the table is not published to Drive.
var driveTables = map[DataSource]map[string]string{
	SourcePostgres: {
		"subject":                    "1fJ7l2qUQpkmTV9AqVe7JSEqqcFhBnVmz",
		"programmegrade":             "1b3V2dOjCr6wzmPDFaYrVQ1mRT93OUq0y",
		"summarised_student_details": "1kaN3lRVkwzX8cW9tFrDdR4H30qcQjG9L",
		"summarised_academic_result": "1az_v-_ceMZrQIhQrZnpwaATpndPSHH1-",
		"vw_student_details":         "1pv8qStJ7Qvq9WvFU9K1PX9-tNfLjizOO",
		"classinstance":              "1aU65uOhoEFQMdHK57WPjQyLmxJVM5te2",
		"period":                     "1fJDgv8Fj-Kj_d5O8can5NHcAR8pFljoC",
	},
	SourceSQLServer: {},
}

// driveStore downloads reference tables from the Drive table store.
type driveStore struct {
	client *drive.Client
	log    *zap.Logger
}

func driveTable[T any](ctx context.Context, s *driveStore, source DataSource, table string) ([]T, error) {
	fileID, ok := driveTables[source][table]
	if !ok {
		return nil, &NotFoundError{Store: StoreDrive, Source: source, Table: table}
	}
	path, err := s.client.DownloadTemp(ctx, fileID)
	if err != nil {
		return nil, fmt.Errorf("fetch reference table %s/%s: %w", source, table, err)
	}
	defer os.Remove(path)

	rows, err := parquet.ReadFile[T](path)
	if err != nil {
		return nil, fmt.Errorf("read reference table %s/%s: %w", source, table, err)
	}
	s.log.Debug("reference table downloaded",
		zap.String("table", table), zap.String("file_id", fileID), zap.Int("rows", len(rows)))
	return rows, nil
}

func (s *driveStore) ClassInstances(ctx context.Context) ([]ClassInstance, error) {
	return driveTable[ClassInstance](ctx, s, SourcePostgres, "classinstance")
}

func (s *driveStore) Periods(ctx context.Context) ([]Period, error) {
	return driveTable[Period](ctx, s, SourcePostgres, "period")
}

func (s *driveStore) Students(ctx context.Context) ([]Student, error) {
	return driveTable[Student](ctx, s, SourcePostgres, "vw_student_details")
}
