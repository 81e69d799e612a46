package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/ccdb/internal/db"
	"github.com/kailas-cloud/ccdb/internal/domain/search/filter"
)

const countField = "__count"

// Search runs a filtered, paginated FT.SEARCH.
func (s *Store) Search(ctx context.Context, q *db.SearchQuery) (*db.SearchResult, error) {
	if q.IndexName == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if q.Offset < 0 || q.Limit < 0 {
		return nil, fmt.Errorf("offset and limit must not be negative")
	}

	args := []string{q.IndexName, queryString(q.Filters)}

	if q.WithScores {
		args = append(args, "WITHSCORES")
	}

	if h := q.Highlight; h != nil && len(h.Fields) > 0 {
		args = append(args, "HIGHLIGHT", "FIELDS", strconv.Itoa(len(h.Fields)))
		args = append(args, h.Fields...)
		if h.Open != "" || h.Close != "" {
			args = append(args, "TAGS", h.Open, h.Close)
		}
	}

	if q.SortBy != "" {
		dir := "DESC"
		if q.SortAsc {
			dir = "ASC"
		}
		args = append(args, "SORTBY", q.SortBy, dir)
	}

	args = append(args,
		"LIMIT", strconv.Itoa(q.Offset), strconv.Itoa(q.Limit),
		"DIALECT", "2",
	)

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, searchErr(db.OpSearch, q.IndexName, err)
	}

	return parseSearchResult(raw, q.WithScores)
}

// Count returns the number of documents matching the filters (FT.SEARCH LIMIT 0 0).
func (s *Store) Count(ctx context.Context, q *db.SearchQuery) (int, error) {
	if q.IndexName == "" {
		return 0, fmt.Errorf("index name is required")
	}
	cmd := s.b().Arbitrary("FT.SEARCH").
		Args(q.IndexName, queryString(q.Filters), "LIMIT", "0", "0", "DIALECT", "2").
		Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return 0, searchErr(db.OpSearch, q.IndexName, err)
	}
	if len(raw) == 0 {
		return 0, nil
	}
	total, err := raw[0].AsInt64()
	if err != nil {
		return 0, fmt.Errorf("parse count: %w", err)
	}
	return int(total), nil
}

// AggregateTerms runs one FT.AGGREGATE GROUPBY per query in a single DoMulti round-trip.
func (s *Store) AggregateTerms(ctx context.Context, qs []db.TermsQuery) ([]db.TermsResult, error) {
	if len(qs) == 0 {
		return nil, nil
	}

	cmds := make([]rueidis.Completed, len(qs))
	for i := range qs {
		args, err := buildAggregateArgs(&qs[i])
		if err != nil {
			return nil, err
		}
		cmds[i] = s.b().Arbitrary("FT.AGGREGATE").Args(args...).Build()
	}

	results := s.client.DoMulti(ctx, cmds...)
	out := make([]db.TermsResult, len(results))

	for i, res := range results {
		raw, err := res.ToArray()
		if err != nil {
			return nil, searchErr(db.OpAggregate, qs[i].IndexName, fmt.Errorf("field %s: %w", qs[i].Field, err))
		}
		out[i] = db.TermsResult{Field: qs[i].Field, Buckets: parseAggregateRows(raw, qs[i].Field)}
	}

	return out, nil
}

func buildAggregateArgs(q *db.TermsQuery) ([]string, error) {
	if q.IndexName == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if q.Field == "" {
		return nil, fmt.Errorf("aggregation field is required")
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 10
	}

	field := "@" + q.Field
	args := []string{q.IndexName, queryString(q.Filters), "LOAD", "1", field}
	if q.Separator != "" {
		args = append(args, "APPLY", fmt.Sprintf("split(%s, %q)", field, q.Separator), "AS", q.Field)
	}
	args = append(args,
		"GROUPBY", "1", field,
		"REDUCE", "COUNT", "0", "AS", countField,
		"SORTBY", "2", "@"+countField, "DESC",
		"MAX", strconv.Itoa(limit),
		"DIALECT", "2",
	)
	return args, nil
}

// searchErr classifies a failed query: a missing index, a query the server
// rejected, or a transport failure.
func searchErr(op, index string, err error) error {
	if isUnknownIndex(err) {
		return &db.Error{Op: op, Err: fmt.Errorf("%w: %s: %w", db.ErrIndexNotFound, index, err)}
	}
	if _, ok := rueidis.IsRedisErr(err); ok {
		return &db.Error{Op: op, Err: fmt.Errorf("%w: %w", db.ErrQuery, err)}
	}
	return &db.Error{Op: op, Err: err}
}

// --- Result parsing ---

func parseSearchResult(raw []rueidis.RedisMessage, withScores bool) (*db.SearchResult, error) {
	if len(raw) == 0 {
		return &db.SearchResult{}, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}

	// [total, key, (score,) fields, key, (score,) fields, ...]
	stride := 2
	if withScores {
		stride = 3
	}

	entries := make([]db.SearchEntry, 0, (len(raw)-1)/stride)
	for i := 1; i+stride-1 < len(raw); i += stride {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}

		entry := db.SearchEntry{Key: key}

		if withScores {
			scoreStr, err := raw[i+1].ToString()
			if err != nil {
				continue
			}
			score, err := strconv.ParseFloat(scoreStr, 64)
			if err != nil {
				continue
			}
			entry.Score = score
		}

		fields, err := raw[i+stride-1].ToArray()
		if err != nil {
			continue
		}
		entry.Fields = parseFieldPairs(fields)

		entries = append(entries, entry)
	}

	return &db.SearchResult{Total: int(total), Entries: entries}, nil
}

func parseAggregateRows(raw []rueidis.RedisMessage, field string) []db.TermBucket {
	if len(raw) < 2 {
		return nil
	}
	buckets := make([]db.TermBucket, 0, len(raw)-1)
	for _, row := range raw[1:] {
		pairs, err := row.ToArray()
		if err != nil {
			continue
		}
		m := parseFieldPairs(pairs)
		value := m[field]
		if value == "" {
			continue
		}
		count, err := strconv.ParseInt(m[countField], 10, 64)
		if err != nil {
			continue
		}
		buckets = append(buckets, db.TermBucket{Value: value, Count: count})
	}
	return buckets
}

func parseFieldPairs(fields []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil {
			continue
		}
		value, err := fields[j+1].ToString()
		if err != nil {
			continue
		}
		m[name] = value
	}
	return m
}

// --- Filter building ---

func queryString(expr filter.Expression) string {
	if q := buildFilter(expr); q != "" {
		return q
	}
	return "*"
}

// buildFilter translates filter.Expression into an FT query string.
func buildFilter(expr filter.Expression) string {
	if expr.IsEmpty() {
		return ""
	}

	var parts []string

	for _, cond := range expr.Must() {
		parts = appendPart(parts, buildCondition(cond))
	}

	for _, cond := range expr.Filter() {
		parts = appendPart(parts, buildCondition(cond))
	}

	if shouldParts := buildGroup(expr.Should(), " | "); shouldParts != "" {
		parts = append(parts, shouldParts)
	}

	return strings.Join(parts, " ")
}

func buildCondition(cond filter.Condition) string {
	switch cond.Kind() {
	case filter.KindMatch:
		return buildMatch(cond.Fields(), cond.Text())
	case filter.KindTerms:
		return buildTagFilter(cond.Key(), cond.Values())
	case filter.KindPrefix:
		return fmt.Sprintf("@%s:{%s*}", cond.Key(), tagEscaper.Replace(cond.Text()))
	case filter.KindDateRange:
		return buildDateFilter(cond.Key(), cond.GTE(), cond.LTE())
	case filter.KindAny:
		return buildGroup(cond.Children(), " | ")
	case filter.KindAll:
		return buildGroup(cond.Children(), " ")
	default:
		return ""
	}
}

func buildGroup(conditions []filter.Condition, sep string) string {
	if len(conditions) == 0 {
		return ""
	}
	parts := make([]string, 0, len(conditions))
	for _, cond := range conditions {
		parts = appendPart(parts, buildCondition(cond))
	}
	if len(parts) == 0 {
		return ""
	}
	return "(" + strings.Join(parts, sep) + ")"
}

func appendPart(parts []string, part string) []string {
	if part == "" {
		return parts
	}
	return append(parts, part)
}

// buildMatch matches any of the terms of text in any of the fields. Text
// without a single token matches nothing and renders as "".
func buildMatch(fields []string, text string) string {
	terms := matchTokens(text)
	if len(terms) == 0 {
		return ""
	}
	return fmt.Sprintf("@%s:(%s)", strings.Join(fields, "|"), strings.Join(terms, "|"))
}

func buildTagFilter(key string, values []string) string {
	escaped := make([]string, len(values))
	for i, v := range values {
		escaped[i] = tagEscaper.Replace(v)
	}
	return fmt.Sprintf("@%s:{%s}", key, strings.Join(escaped, " | "))
}

// buildDateFilter renders an inclusive range over a numeric field holding
// the unix seconds of a UTC calendar date.
func buildDateFilter(key string, gte, lte *time.Time) string {
	minBound := "-inf"
	maxBound := "+inf"

	if gte != nil {
		minBound = strconv.FormatInt(DateSeconds(*gte), 10)
	}
	if lte != nil {
		maxBound = strconv.FormatInt(DateSeconds(*lte), 10)
	}

	return fmt.Sprintf("@%s:[%s %s]", key, minBound, maxBound)
}

// DateSeconds returns the unix seconds of t's calendar date at UTC midnight,
// the encoding of indexed date fields.
func DateSeconds(t time.Time) int64 {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix()
}

// --- Query helpers ---

var tagEscaper = strings.NewReplacer(
	",", "\\,",
	".", "\\.",
	"<", "\\<",
	">", "\\>",
	"{", "\\{",
	"}", "\\}",
	"\"", "\\\"",
	"'", "\\'",
	":", "\\:",
	";", "\\;",
	"!", "\\!",
	"@", "\\@",
	"#", "\\#",
	"$", "\\$",
	"%", "\\%",
	"^", "\\^",
	"&", "\\&",
	"*", "\\*",
	"(", "\\(",
	")", "\\)",
	"-", "\\-",
	"+", "\\+",
	"=", "\\=",
	"~", "\\~",
	"|", "\\|",
	"/", "\\/",
	"?", "\\?",
	" ", "\\ ",
)

// matchTokens splits text the way the engine tokenizes indexed text: any
// ASCII punctuation except '_' and any whitespace ends a token.
func matchTokens(text string) []string {
	return strings.FieldsFunc(text, isTokenSeparator)
}

func isTokenSeparator(r rune) bool {
	if unicode.IsSpace(r) {
		return true
	}
	if r >= utf8.RuneSelf || r == '_' {
		return false
	}
	return unicode.IsPunct(r) || unicode.IsSymbol(r)
}
