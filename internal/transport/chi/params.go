package chi

import (
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/oapi-codegen/runtime"
	"github.com/oapi-codegen/runtime/types"

	"github.com/kailas-cloud/ccdb/internal/domain/search/format"
	"github.com/kailas-cloud/ccdb/internal/domain/search/request"
)

// Validation messages, worded like the public API has always returned them.
const (
	msgRequired   = "This field is required."
	msgBlank      = "This field may not be blank."
	msgInteger    = "A valid integer is required."
	msgDate       = "Date has wrong format. Use one of these formats instead: YYYY[-MM[-DD]]."
	msgPagination = "frm is not zero or a multiple of size"
)

// fieldErrors maps parameter names to their validation messages;
// cross-field errors live under "non_field_errors".
type fieldErrors map[string][]string

func (e fieldErrors) add(field, msg string) { e[field] = append(e[field], msg) }

// parseSearchParams binds and validates the search query string. A positive
// defaultSize replaces the page size used when size is absent.
func parseSearchParams(q url.Values, defaultSize int) (request.Params, fieldErrors) {
	p := request.Defaults()
	if defaultSize > 0 {
		p.Size = defaultSize
	}
	errs := fieldErrors{}

	if s, ok := bindChoice(q, "format", errs, format.Default, format.CSV, format.JSON); ok {
		p.Format = s
	}
	if s, ok := bindChoice(q, "field", errs, request.Fields...); ok {
		p.Field = s
	}
	if s, ok := bindChoice(q, "sort", errs, request.Sorts...); ok {
		p.Sort = s
	}

	if n, ok := bindBoundedInt(q, "frm", 0, request.MaxOffset, errs); ok {
		p.Frm = n
	}
	if n, ok := bindBoundedInt(q, "size", 0, request.MaxSize, errs); ok {
		p.Size = n
	}

	if q.Has("search_term") {
		p.SearchTerm = q.Get("search_term")
	}

	for _, d := range request.Dimensions {
		var values []string
		if err := runtime.BindQueryParameter("form", true, false, string(d), q, &values); err != nil {
			errs.add(string(d), err.Error())
			continue
		}
		values, ok := trimValues(values)
		if !ok {
			errs.add(string(d), msgBlank)
			continue
		}
		if len(values) > 0 {
			p = p.WithFilter(d, values...)
		}
	}

	p.DateReceived.Min = bindDate(q, "date_received_min", errs)
	p.DateReceived.Max = bindDate(q, "date_received_max", errs)
	p.CompanyReceived.Min = bindDate(q, "company_received_min", errs)
	p.CompanyReceived.Max = bindDate(q, "company_received_max", errs)

	p.NoAggs = bindBool(q, "no_aggs", errs)
	p.NoHighlight = bindBool(q, "no_highlight", errs)

	if len(errs) == 0 && !p.PaginationValid() {
		errs.add("non_field_errors", msgPagination)
	}
	if len(errs) > 0 {
		return request.Params{}, errs
	}
	return p, nil
}

// trimValues strips surrounding whitespace from every value and reports
// false when one of them is left empty.
func trimValues(values []string) ([]string, bool) {
	for i, v := range values {
		values[i] = strings.TrimSpace(v)
		if values[i] == "" {
			return nil, false
		}
	}
	return values, true
}

func bindChoice[T ~string](q url.Values, name string, errs fieldErrors, choices ...T) (T, bool) {
	var zero T
	if !q.Has(name) {
		return zero, false
	}
	v := T(q.Get(name))
	if !slices.Contains(choices, v) {
		errs.add(name, fmt.Sprintf("%q is not a valid choice.", string(v)))
		return zero, false
	}
	return v, true
}

func bindBoundedInt(q url.Values, name string, minVal, maxVal int, errs fieldErrors) (int, bool) {
	if !q.Has(name) {
		return 0, false
	}
	var n int
	if err := runtime.BindQueryParameter("form", true, true, name, q, &n); err != nil {
		errs.add(name, msgInteger)
		return 0, false
	}
	switch {
	case n < minVal:
		errs.add(name, "Ensure this value is greater than or equal to "+strconv.Itoa(minVal)+".")
		return 0, false
	case n > maxVal:
		errs.add(name, "Ensure this value is less than or equal to "+strconv.Itoa(maxVal)+".")
		return 0, false
	}
	return n, true
}

// bindDate accepts YYYY-MM-DD, YYYY-MM and YYYY; partial dates start at
// the first day of the period.
func bindDate(q url.Values, name string, errs fieldErrors) *time.Time {
	if !q.Has(name) {
		return nil
	}
	var d types.Date
	if err := runtime.BindQueryParameter("form", true, true, name, q, &d); err == nil {
		return &d.Time
	}
	raw := q.Get(name)
	for _, layout := range []string{"2006-01", "2006"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	errs.add(name, msgDate)
	return nil
}

// Accepted boolean spellings, compared case-insensitively.
var (
	trueValues  = []string{"true", "t", "yes", "y", "on", "1"}
	falseValues = []string{"false", "f", "no", "n", "off", "0"}
)

func bindBool(q url.Values, name string, errs fieldErrors) bool {
	if !q.Has(name) {
		return false
	}
	raw := q.Get(name)
	v := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case slices.Contains(trueValues, v):
		return true
	case slices.Contains(falseValues, v):
		return false
	}
	errs.add(name, fmt.Sprintf("%q is not a valid boolean.", raw))
	return false
}
