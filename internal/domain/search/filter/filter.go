package filter

import (
	"fmt"
	"slices"
	"time"
)

// MaxConditionsPerGroup is the maximum number of conditions per clause list.
const MaxConditionsPerGroup = 32

// Expression is a boolean query context: every must and filter condition has
// to hold, and at least one should condition when any are present. Only must
// conditions contribute to relevance scoring.
type Expression struct {
	must   []Condition
	filter []Condition
	should []Condition
}

// NewExpression validates and creates a filter Expression.
func NewExpression(must, filter, should []Condition) (Expression, error) {
	if len(must) > MaxConditionsPerGroup {
		return Expression{}, fmt.Errorf("too many must conditions (max %d)", MaxConditionsPerGroup)
	}
	if len(filter) > MaxConditionsPerGroup {
		return Expression{}, fmt.Errorf("too many filter conditions (max %d)", MaxConditionsPerGroup)
	}
	if len(should) > MaxConditionsPerGroup {
		return Expression{}, fmt.Errorf("too many should conditions (max %d)", MaxConditionsPerGroup)
	}
	return Expression{must: must, filter: filter, should: should}, nil
}

// Must returns the scored conditions.
func (e Expression) Must() []Condition { return e.must }

// Filter returns the non-scored conditions.
func (e Expression) Filter() []Condition { return e.filter }

// Should returns the optional conditions.
func (e Expression) Should() []Condition { return e.should }

// IsEmpty reports whether the expression has no conditions.
func (e Expression) IsEmpty() bool {
	return len(e.must) == 0 && len(e.filter) == 0 && len(e.should) == 0
}

// Kind discriminates condition variants.
type Kind int

const (
	// KindMatch is a full-text match over one or more text fields.
	KindMatch Kind = iota + 1
	// KindTerms matches when the field equals any of the values.
	KindTerms
	// KindDateRange is an inclusive calendar-date interval.
	KindDateRange
	// KindAny holds when at least one child holds.
	KindAny
	// KindAll holds when every child holds.
	KindAll
	// KindPrefix matches values starting with a prefix.
	KindPrefix
)

// Condition is a single clause of an Expression.
type Condition struct {
	kind     Kind
	key      string
	fields   []string
	text     string
	values   []string
	gte      *time.Time
	lte      *time.Time
	children []Condition
}

// NewMatch creates a full-text match of text against fields.
func NewMatch(fields []string, text string) (Condition, error) {
	if len(fields) == 0 {
		return Condition{}, fmt.Errorf("match requires at least one field")
	}
	if text == "" {
		return Condition{}, fmt.Errorf("match text is required")
	}
	return Condition{kind: KindMatch, fields: slices.Clone(fields), text: text}, nil
}

// NewTerms creates a "value is one of" condition. Empty values are rejected.
func NewTerms(key string, values []string) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	if len(values) == 0 {
		return Condition{}, fmt.Errorf("terms filter on %q requires at least one value", key)
	}
	if slices.Contains(values, "") {
		return Condition{}, fmt.Errorf("terms filter on %q has an empty value", key)
	}
	return Condition{kind: KindTerms, key: key, values: slices.Clone(values)}, nil
}

// NewDateRange creates an inclusive date range. At least one bound is required.
func NewDateRange(key string, gte, lte *time.Time) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	if gte == nil && lte == nil {
		return Condition{}, fmt.Errorf("at least one range boundary is required")
	}
	return Condition{kind: KindDateRange, key: key, gte: gte, lte: lte}, nil
}

// NewPrefix creates a "value starts with" condition.
func NewPrefix(key, prefix string) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	if prefix == "" {
		return Condition{}, fmt.Errorf("prefix is required")
	}
	return Condition{kind: KindPrefix, key: key, text: prefix}, nil
}

// NewAny creates a disjunction of children.
func NewAny(children ...Condition) (Condition, error) {
	if len(children) == 0 {
		return Condition{}, fmt.Errorf("any requires at least one condition")
	}
	return Condition{kind: KindAny, children: slices.Clone(children)}, nil
}

// NewAll creates a conjunction of children.
func NewAll(children ...Condition) (Condition, error) {
	if len(children) == 0 {
		return Condition{}, fmt.Errorf("all requires at least one condition")
	}
	return Condition{kind: KindAll, children: slices.Clone(children)}, nil
}

// Kind returns the condition variant.
func (c Condition) Kind() Kind { return c.kind }

// Key returns the field name of terms and range conditions.
func (c Condition) Key() string { return c.key }

// Fields returns the text fields of a match condition.
func (c Condition) Fields() []string { return c.fields }

// Text returns the free text of a match condition or the prefix of a
// prefix condition.
func (c Condition) Text() string { return c.text }

// Values returns the accepted values of a terms condition.
func (c Condition) Values() []string { return c.values }

// GTE returns the inclusive lower bound.
func (c Condition) GTE() *time.Time { return c.gte }

// LTE returns the inclusive upper bound.
func (c Condition) LTE() *time.Time { return c.lte }

// Children returns the nested conditions of any/all conditions.
func (c Condition) Children() []Condition { return c.children }

// MapKeys returns a copy of e with every condition key passed through fn.
// Match fields are left untouched.
func (e Expression) MapKeys(fn func(string) string) Expression {
	return Expression{
		must:   mapConditions(e.must, fn),
		filter: mapConditions(e.filter, fn),
		should: mapConditions(e.should, fn),
	}
}

func mapConditions(conds []Condition, fn func(string) string) []Condition {
	if conds == nil {
		return nil
	}
	out := make([]Condition, len(conds))
	for i, c := range conds {
		if c.key != "" {
			c.key = fn(c.key)
		}
		c.children = mapConditions(c.children, fn)
		out[i] = c
	}
	return out
}
