package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"

	"golang.org/x/text/unicode/norm"
)

// FeatureRecord is a single customer row. A nil field is the null sentinel
// used when the caller did not supply that column.
type FeatureRecord struct {
	Age                       *int64   `json:"Age"`
	Gender                    *string  `json:"Gender"`
	MaritalStatus             *string  `json:"Marital Status"`
	Occupation                *string  `json:"Occupation"`
	MonthlyIncome             *string  `json:"Monthly Income"`
	EducationalQualifications *string  `json:"Educational Qualifications"`
	FamilySize                *int64   `json:"Family size"`
	Latitude                  *float64 `json:"latitude"`
	Longitude                 *float64 `json:"longitude"`
	PinCode                   *int64   `json:"Pin code"`
	Output                    *string  `json:"Output"`
}

// DecodeError reports a value that cannot be placed into a FeatureRecord.
type DecodeError struct {
	Field string
	Err   error
}

func (e *DecodeError) Error() string {
	if e.Field == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("field %q: %v", e.Field, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

var (
	errEmptyBody  = errors.New("request body is empty")
	errNotObject  = errors.New("request body must be a JSON object")
	errNotInteger = errors.New("expected an integer")
	errNotNumber  = errors.New("expected a number")
	errNotString  = errors.New("expected a string")
	errTrailing   = errors.New("unexpected data after JSON object")
)

// float64 bounds of int64; 1<<63 itself is not representable as int64.
const (
	minInt64Float = -(1 << 63)
	maxInt64Float = 1 << 63
)

// Int, Float and Str build non-null field values.
func Int(v int64) *int64       { return &v }
func Float(v float64) *float64 { return &v }
func Str(v string) *string     { return &v }

// DecodeRecord reads one JSON object and reindexes it onto Schema.
func DecodeRecord(r io.Reader) (FeatureRecord, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return FeatureRecord{}, &DecodeError{Err: errEmptyBody}
		}
		return FeatureRecord{}, &DecodeError{Err: fmt.Errorf("invalid JSON: %w", err)}
	}
	if _, err := dec.Token(); err != io.EOF {
		return FeatureRecord{}, &DecodeError{Err: errTrailing}
	}
	values, ok := raw.(map[string]any)
	if !ok {
		return FeatureRecord{}, &DecodeError{Err: errNotObject}
	}
	return RecordFromMap(values)
}

// RecordFromMap builds a record from a loosely typed mapping. Columns
// outside Schema are dropped; absent or null columns stay nil.
func RecordFromMap(values map[string]any) (FeatureRecord, error) {
	var rec FeatureRecord
	for _, spec := range Schema {
		raw, ok := values[spec.Name]
		if !ok || raw == nil {
			continue
		}
		if err := rec.set(spec, raw); err != nil {
			return FeatureRecord{}, &DecodeError{Field: spec.Name, Err: err}
		}
	}
	return rec, nil
}

func (r *FeatureRecord) set(spec FieldSpec, raw any) error {
	switch spec.Kind {
	case KindInteger:
		v, err := asInteger(raw)
		if err != nil {
			return err
		}
		*r.intField(spec.Name) = &v
	case KindFloat:
		v, err := asFloat(raw)
		if err != nil {
			return err
		}
		*r.floatField(spec.Name) = &v
	case KindCategorical:
		s, ok := raw.(string)
		if !ok {
			return errNotString
		}
		s = norm.NFC.String(s)
		*r.stringField(spec.Name) = &s
	default:
		return fmt.Errorf("unsupported field kind %q", spec.Kind)
	}
	return nil
}

func (r *FeatureRecord) intField(name string) **int64 {
	switch name {
	case ColAge:
		return &r.Age
	case ColFamilySize:
		return &r.FamilySize
	default:
		return &r.PinCode
	}
}

func (r *FeatureRecord) floatField(name string) **float64 {
	if name == ColLatitude {
		return &r.Latitude
	}
	return &r.Longitude
}

func (r *FeatureRecord) stringField(name string) **string {
	switch name {
	case ColGender:
		return &r.Gender
	case ColMaritalStatus:
		return &r.MaritalStatus
	case ColOccupation:
		return &r.Occupation
	case ColMonthlyIncome:
		return &r.MonthlyIncome
	case ColEducation:
		return &r.EducationalQualifications
	default:
		return &r.Output
	}
}

// Row returns the record in ExpectedColumns order: nil for null, float64
// for numeric columns, string for categorical ones.
func (r FeatureRecord) Row() []any {
	return []any{
		intValue(r.Age),
		stringValue(r.Gender),
		stringValue(r.MaritalStatus),
		stringValue(r.Occupation),
		stringValue(r.MonthlyIncome),
		stringValue(r.EducationalQualifications),
		intValue(r.FamilySize),
		floatValue(r.Latitude),
		floatValue(r.Longitude),
		intValue(r.PinCode),
		stringValue(r.Output),
	}
}

// Missing lists the columns that hold the null sentinel.
func (r FeatureRecord) Missing() []string {
	var missing []string
	for i, value := range r.Row() {
		if value == nil {
			missing = append(missing, Schema[i].Name)
		}
	}
	return missing
}

// Validate checks the non-null columns against the Schema domains. The
// JSON endpoint leaves this to the preprocessor; interactive front-ends
// call it before predicting.
func (r FeatureRecord) Validate() error {
	for i, value := range r.Row() {
		spec := Schema[i]
		switch v := value.(type) {
		case float64:
			if spec.Bounded && (v < spec.Min || v > spec.Max) {
				return &DecodeError{Field: spec.Name, Err: fmt.Errorf("%g outside [%g, %g]", v, spec.Min, spec.Max)}
			}
		case string:
			if !spec.HasChoice(v) {
				return &DecodeError{Field: spec.Name, Err: fmt.Errorf("%q is not one of %q", v, spec.Choices)}
			}
		}
	}
	return nil
}

// Key is a canonical encoding of the row, stable across equal records.
func (r FeatureRecord) Key() string {
	payload, err := json.Marshal(r.Row())
	if err != nil {
		return ""
	}
	return string(payload)
}

func intValue(v *int64) any {
	if v == nil {
		return nil
	}
	return float64(*v)
}

func floatValue(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func stringValue(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func asInteger(raw any) (int64, error) {
	switch v := raw.(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i, nil
		}
		f, err := v.Float64()
		if err != nil {
			return 0, errNotInteger
		}
		return asInteger(f)
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) ||
			v < minInt64Float || v >= maxInt64Float {
			return 0, errNotInteger
		}
		return int64(v), nil
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	default:
		return 0, errNotInteger
	}
}

func asFloat(raw any) (float64, error) {
	switch v := raw.(type) {
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, errNotNumber
		}
		return f, nil
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	default:
		return 0, errNotNumber
	}
}
