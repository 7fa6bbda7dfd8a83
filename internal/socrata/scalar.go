package socrata

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// SODA renders most numeric columns as JSON strings, occasionally as bare
// numbers, and absent values as "", null, or a missing key. The scalar types
// below accept all of those; a value that cannot be parsed decodes as absent
// rather than failing the row, matching the partial-data tolerance of the
// rest of the pipeline.

var jsonNull = []byte("null")

// Float is a nullable float column
type Float struct {
	Value float64
	Valid bool
}

// Int is a nullable integer column
type Int struct {
	Value int64
	Valid bool
}

// Date is a nullable floating-timestamp column
type Date struct {
	Value time.Time
	Valid bool
}

// String is a text column that tolerates numeric rendering. Identifier
// columns (BBLs, codes) occasionally arrive as bare JSON numbers.
type String struct {
	Value string
	Valid bool
}

// UnmarshalJSON implements json.Unmarshaler
func (f *Float) UnmarshalJSON(data []byte) error {
	*f = Float{}
	s, ok, err := scalarText(data)
	if err != nil || !ok {
		return err
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil // Unparseable value decodes as absent
	}
	f.Value, f.Valid = v, true
	return nil
}

// MarshalJSON implements json.Marshaler
func (f Float) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return jsonNull, nil
	}
	return json.Marshal(f.Value)
}

// Ptr returns the value as a pointer, nil when absent
func (f Float) Ptr() *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Value
	return &v
}

// UnmarshalJSON implements json.Unmarshaler
func (i *Int) UnmarshalJSON(data []byte) error {
	*i = Int{}
	s, ok, err := scalarText(data)
	if err != nil || !ok {
		return err
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		// Integer columns sometimes arrive as "3.00"
		fv, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || fv != float64(int64(fv)) {
			return nil
		}
		v = int64(fv)
	}
	i.Value, i.Valid = v, true
	return nil
}

// MarshalJSON implements json.Marshaler
func (i Int) MarshalJSON() ([]byte, error) {
	if !i.Valid {
		return jsonNull, nil
	}
	return json.Marshal(i.Value)
}

// Ptr returns the value as a pointer, nil when absent
func (i Int) Ptr() *int64 {
	if !i.Valid {
		return nil
	}
	v := i.Value
	return &v
}

// IntPtr returns the value as an int pointer, nil when absent
func (i Int) IntPtr() *int {
	if !i.Valid {
		return nil
	}
	v := int(i.Value)
	return &v
}

// dateLayouts covers the floating-timestamp forms SODA emits
var dateLayouts = []string{
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	time.DateOnly,
}

// UnmarshalJSON implements json.Unmarshaler
func (d *Date) UnmarshalJSON(data []byte) error {
	*d = Date{}
	s, ok, err := scalarText(data)
	if err != nil || !ok {
		return err
	}
	for _, layout := range dateLayouts {
		if t, perr := time.Parse(layout, s); perr == nil {
			d.Value, d.Valid = t, true
			return nil
		}
	}
	return nil
}

// MarshalJSON implements json.Marshaler
func (d Date) MarshalJSON() ([]byte, error) {
	if !d.Valid {
		return jsonNull, nil
	}
	return json.Marshal(d.Value.Format(time.DateOnly))
}

// Ptr returns the value as a pointer, nil when absent
func (d Date) Ptr() *time.Time {
	if !d.Valid {
		return nil
	}
	v := d.Value
	return &v
}

// UnmarshalJSON implements json.Unmarshaler
func (s *String) UnmarshalJSON(data []byte) error {
	*s = String{}
	text, ok, err := scalarText(data)
	if err != nil || !ok {
		return err
	}
	s.Value, s.Valid = text, true
	return nil
}

// MarshalJSON implements json.Marshaler
func (s String) MarshalJSON() ([]byte, error) {
	if !s.Valid {
		return jsonNull, nil
	}
	return json.Marshal(s.Value)
}

// String returns the text content, empty when absent
func (s String) String() string {
	return s.Value
}

// scalarText extracts the trimmed text content of a scalar JSON token.
// ok is false for null, empty strings, and whitespace-only strings.
func scalarText(data []byte) (s string, ok bool, err error) {
	if bytes.Equal(data, jsonNull) {
		return "", false, nil
	}
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return "", false, err
		}
		str = strings.TrimSpace(str)
		if str == "" {
			return "", false, nil
		}
		return str, true, nil
	}
	return string(data), true, nil
}
