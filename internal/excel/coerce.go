package excel

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"techniknet-backend/internal/models"

	"github.com/xuri/excelize/v2"
)

const dateLayout = "2006-01-02"

// isBlank reports missing, empty and not-a-number cells.
func isBlank(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	case float64:
		return math.IsNaN(x)
	case *time.Time:
		return x == nil
	}
	return false
}

// String trims and stringifies a cell. Blank cells become "".
func String(v any) string {
	if isBlank(v) {
		return ""
	}
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case float64:
		if x == math.Trunc(x) && math.Abs(x) < 1e15 {
			return strconv.FormatInt(int64(x), 10)
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case time.Time:
		return x.Format("2006-01-02 15:04:05")
	case *time.Time:
		return x.Format("2006-01-02 15:04:05")
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

// parseInt parses a float and truncates it toward zero. "nan", "none" and "null"
// count as absent.
func parseInt(v any) (int, bool) {
	if isBlank(v) {
		return 0, false
	}

	var f float64
	switch x := v.(type) {
	case int:
		return x, true
	case int64:
		return int(x), true
	case float64:
		f = x
	case string:
		s := strings.ToLower(strings.TrimSpace(x))
		switch s {
		case "nan", "none", "null":
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) || f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int(f), true
}

// Int returns def for blank or unparsable cells.
func Int(v any, def int) int {
	if n, ok := parseInt(v); ok {
		return n
	}
	return def
}

// OptionalInt returns nil for blank or unparsable cells.
func OptionalInt(v any) *int {
	if n, ok := parseInt(v); ok {
		return &n
	}
	return nil
}

// Status maps a status code or label to the code; unknown text is kept.
func Status(v any) string {
	return models.ParseStatus(String(v))
}

// Date accepts time values, numeric Excel serials and text whose first
// whitespace-delimited token is YYYY-MM-DD; trailing time-of-day text is ignored.
// Numeric-looking text is not a date.
// Anything else is nil. Results are expressed in loc; values without a zone
// (UTC, which is what excelize produces for serial dates) keep their wall clock.
func Date(v any, loc *time.Location) *time.Time {
	if loc == nil {
		loc = time.Local
	}
	if isBlank(v) {
		return nil
	}

	switch x := v.(type) {
	case time.Time:
		return anchor(x, loc)
	case *time.Time:
		return anchor(*x, loc)
	case float64:
		return fromSerial(x, loc)
	case int:
		return fromSerial(float64(x), loc)
	case string:
		fields := strings.Fields(x)
		if len(fields) == 0 {
			return nil
		}
		if t, err := time.ParseInLocation(dateLayout, fields[0], loc); err == nil {
			return &t
		}
	}
	return nil
}

func fromSerial(f float64, loc *time.Location) *time.Time {
	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return nil
	}
	t, err := excelize.ExcelDateToTime(f, false)
	if err != nil {
		return nil
	}
	return anchor(t, loc)
}

func anchor(t time.Time, loc *time.Location) *time.Time {
	if t.IsZero() {
		return nil
	}
	if t.Location() == time.UTC {
		t = time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
	} else {
		t = t.In(loc)
	}
	return &t
}
