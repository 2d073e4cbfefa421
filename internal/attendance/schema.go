package attendance

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// SchemaError reports the first invalid field of an attendance envelope.
// Index is the zero-based record position, or -1 for envelope-level faults.
type SchemaError struct {
	Index  int
	Field  string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("attendance envelope: field %q: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("attendance record %d: field %q: %s", e.Index, e.Field, e.Reason)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("parquet"), ",", 2)[0]
		if name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// ParseEnvelope converts a decoded attendance payload into records.
//
// The mapping mirrors the xmltodict shape of the SEQTA body: a top-level
// "response" holding "timestamp" and "data". A single record decodes as a
// bare map rather than a one-element list and both forms are accepted.
// Validation is all-or-nothing: the first invalid field fails the whole
// batch and no records are returned.
func ParseEnvelope(doc map[string]any) ([]Record, error) {
	resp, ok := doc["response"].(map[string]any)
	if !ok {
		return nil, &SchemaError{Index: -1, Field: "response", Reason: "missing or not a mapping"}
	}

	var items []any
	switch data := resp["data"].(type) {
	case []any:
		items = data
	case map[string]any:
		items = []any{data}
	case nil:
		return nil, &SchemaError{Index: -1, Field: "data", Reason: "missing"}
	default:
		return nil, &SchemaError{Index: -1, Field: "data", Reason: "not a list"}
	}

	records := make([]Record, 0, len(items))
	for i, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			return nil, &SchemaError{Index: i, Field: "data", Reason: "entry is not a mapping"}
		}
		rec, err := parseRecord(i, entry)
		if err != nil {
			return nil, err
		}
		if err := validate.Struct(rec); err != nil {
			if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
				return nil, &SchemaError{Index: i, Field: errs[0].Field(), Reason: "failed " + errs[0].Tag()}
			}
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseRecord(index int, m map[string]any) (Record, error) {
	var rec Record
	var err error

	if rec.StudentCode, err = textField(index, m, "student_code"); err != nil {
		return Record{}, err
	}
	if rec.AbsenceDate, err = dateField(index, m, "absence_date"); err != nil {
		return Record{}, err
	}
	if rec.PeriodCode, err = intField(index, m, "period_code"); err != nil {
		return Record{}, err
	}
	if rec.AttendanceCode, err = textField(index, m, "attendance_code"); err != nil {
		return Record{}, err
	}
	for _, f := range []struct {
		key string
		dst *bool
	}{
		{"trigger_absentee_sms", &rec.TriggerAbsenteeSMS},
		{"considered_late", &rec.ConsideredLate},
		{"resolved", &rec.Resolved},
		{"on_campus", &rec.OnCampus},
		{"authorised", &rec.Authorised},
	} {
		if *f.dst, err = boolField(index, m, f.key); err != nil {
			return Record{}, err
		}
	}
	if rec.StartTime, err = timeField(index, m, "start_time"); err != nil {
		return Record{}, err
	}
	if rec.EndTime, err = timeField(index, m, "end_time"); err != nil {
		return Record{}, err
	}

	// comments is the one optional field; absence means no comment.
	if raw, ok := m["comments"]; ok && raw != nil {
		if s, ok := raw.(string); ok {
			rec.Comments = s
		}
	}
	return rec, nil
}

func rawText(m map[string]any, key string) (string, bool) {
	v, ok := m[key]
	if !ok || v == nil {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, true
	case bool:
		return strconv.FormatBool(t), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	default:
		return "", false
	}
}

func textField(index int, m map[string]any, key string) (string, error) {
	s, ok := rawText(m, key)
	if !ok {
		return "", &SchemaError{Index: index, Field: key, Reason: "missing"}
	}
	return s, nil
}

func boolField(index int, m map[string]any, key string) (bool, error) {
	s, err := textField(index, m, key)
	if err != nil {
		return false, err
	}
	switch strings.ToLower(s) {
	case "true", "1":
		return true, nil
	case "false", "0":
		return false, nil
	}
	return false, &SchemaError{Index: index, Field: key, Reason: fmt.Sprintf("invalid boolean %q", s)}
}

func intField(index int, m map[string]any, key string) (int, error) {
	s, err := textField(index, m, key)
	if err != nil {
		return 0, err
	}
	n, convErr := strconv.Atoi(strings.TrimSpace(s))
	if convErr != nil {
		return 0, &SchemaError{Index: index, Field: key, Reason: fmt.Sprintf("invalid integer %q", s)}
	}
	return n, nil
}

func dateField(index int, m map[string]any, key string) (time.Time, error) {
	s, err := textField(index, m, key)
	if err != nil {
		return time.Time{}, err
	}
	d, convErr := time.Parse("2006-01-02", strings.TrimSpace(s))
	if convErr != nil {
		return time.Time{}, &SchemaError{Index: index, Field: key, Reason: fmt.Sprintf("invalid date %q", s)}
	}
	return d, nil
}

// timeField normalises a time of day to HH:MM:SS; seconds are optional input.
func timeField(index int, m map[string]any, key string) (string, error) {
	s, err := textField(index, m, key)
	if err != nil {
		return "", err
	}
	s = strings.TrimSpace(s)
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, convErr := time.Parse(layout, s); convErr == nil {
			return t.Format("15:04:05"), nil
		}
	}
	return "", &SchemaError{Index: index, Field: key, Reason: fmt.Sprintf("invalid time %q", s)}
}
