package events

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

const (
	dateLayout     = "2006-01-02"
	datetimeLayout = "2006-01-02 15:04:05.999999"

	// NullText is how a NULL column is rendered.
	NullText = "NULL"
)

// Render serializes events as a JSON array with one object per event.
// Object keys follow column order and every value is rendered as a string.
// Values are written verbatim: characters such as & < > are not escaped.
func Render(events []Event) (string, error) {
	rows := make([]renderedRow, 0, len(events))
	for _, e := range events {
		row := orderedmap.New[string, string](len(e.Fields))
		for _, f := range e.Fields {
			row.Set(f.Column, FormatValue(f))
		}
		rows = append(rows, renderedRow{row})
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rows); err != nil {
		return "", fmt.Errorf("failed to render events: %w", err)
	}
	return string(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
}

// renderedRow marshals its pairs in insertion order without HTML escaping.
// The map's own MarshalJSON escapes every value.
type renderedRow struct {
	*orderedmap.OrderedMap[string, string]
}

func (r renderedRow) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	buf.WriteByte('{')
	for pair := r.Oldest(); pair != nil; pair = pair.Next() {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		if err := encodeString(enc, &buf, pair.Key); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := encodeString(enc, &buf, pair.Value); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// encodeString writes s as a JSON string, dropping the newline Encode appends.
func encodeString(enc *json.Encoder, buf *bytes.Buffer, s string) error {
	if err := enc.Encode(s); err != nil {
		return err
	}
	buf.Truncate(buf.Len() - 1)
	return nil
}

// FormatValue returns the textual form of a single field.
func FormatValue(f Field) string {
	switch v := f.Value.(type) {
	case nil:
		return NullText
	case string:
		return v
	case time.Time:
		return formatTime(f.Type, v)
	case TimeOfDay:
		return v.String()
	case int64:
		return strconv.FormatInt(v, 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}

func formatTime(typeName string, t time.Time) string {
	switch typeName {
	case "DATE":
		return t.Format(dateLayout)
	case "DATETIME", "TIMESTAMP":
		return t.Format(datetimeLayout)
	}
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format(dateLayout)
	}
	return t.Format(datetimeLayout)
}
