package export

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/ccdb/internal/domain/complaint"
	"github.com/kailas-cloud/ccdb/internal/domain/search/result"
)

// DisplayDateLayout is the date form used in exported files.
const DisplayDateLayout = "01/02/2006"

// formattedSource maps derived export fields to the source date they render.
var formattedSource = map[string]string{
	complaint.FieldDateReceivedFormatted:      complaint.FieldDateReceived,
	complaint.FieldDateSentToCompanyFormatted: complaint.FieldDateSentToCompany,
}

// Row renders a hit as export values, one per header. Absent fields render
// as "".
func Row(hit *result.Hit, headers []complaint.Header) []string {
	row := make([]string, len(headers))
	for i, h := range headers {
		if src, ok := formattedSource[h.Field]; ok {
			row[i] = FormatDate(Value(hit.Source[src]))
			continue
		}
		row[i] = Value(hit.Source[h.Field])
	}
	return row
}

// Value renders one source value. List values are joined with the bullet
// delimiter so items containing hyphens or commas stay recoverable.
func Value(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []string:
		return strings.Join(x, complaint.Delimiter)
	case []any:
		parts := make([]string, len(x))
		for i, item := range x {
			parts[i] = Value(item)
		}
		return strings.Join(parts, complaint.Delimiter)
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	default:
		return fmt.Sprint(x)
	}
}

// FormatDate turns a stored YYYY-MM-DD date (optionally followed by a time
// part) into MM/DD/YYYY. Values that do not parse are returned unchanged.
func FormatDate(s string) string {
	if len(s) < len(time.DateOnly) {
		return s
	}
	t, err := time.Parse(time.DateOnly, s[:len(time.DateOnly)])
	if err != nil {
		return s
	}
	return t.Format(DisplayDateLayout)
}
