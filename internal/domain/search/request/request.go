package request

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/kailas-cloud/ccdb/internal/domain"
	"github.com/kailas-cloud/ccdb/internal/domain/complaint"
	"github.com/kailas-cloud/ccdb/internal/domain/search/format"
)

// Search parameter limits.
const (
	DefaultSize = 10
	// MaxOffset bounds both frm and size.
	MaxOffset = 10_000_000
	MaxSize   = 10_000_000
)

// Sort is the requested result ordering.
type Sort string

// Sort constants.
const (
	RelevanceDesc   Sort = "relevance_desc"
	RelevanceAsc    Sort = "relevance_asc"
	CreatedDateDesc Sort = "created_date_desc"
	CreatedDateAsc  Sort = "created_date_asc"
)

// Sorts lists every accepted sort value.
var Sorts = []Sort{RelevanceDesc, RelevanceAsc, CreatedDateDesc, CreatedDateAsc}

// IsValid checks if the sort is one of the supported values.
func (s Sort) IsValid() bool { return slices.Contains(Sorts, s) }

// IsRelevance reports whether the sort orders by match score.
func (s Sort) IsRelevance() bool { return s == RelevanceDesc || s == RelevanceAsc }

// Field is the text field the search term is matched against.
type Field string

// Field constants.
const (
	FieldNarrative      Field = complaint.FieldComplaintWhatHappened
	FieldPublicResponse Field = complaint.FieldCompanyPublicResponse
	// FieldAll matches every text field.
	FieldAll Field = "all"
)

// Fields lists every accepted search field.
var Fields = []Field{FieldNarrative, FieldPublicResponse, FieldAll}

// IsValid checks if the field is one of the supported values.
func (f Field) IsValid() bool { return slices.Contains(Fields, f) }

// EngineFields returns the index fields the search term is matched against.
func (f Field) EngineFields() []string {
	if f == FieldAll {
		return slices.Clone(complaint.TextFields)
	}
	return []string{string(f)}
}

// Dimension is a categorical multi-value filter parameter.
type Dimension string

// Filter dimensions, named as they appear in the query string.
const (
	DimCompany                 Dimension = "company"
	DimProduct                 Dimension = "product"
	DimIssue                   Dimension = "issue"
	DimState                   Dimension = "state"
	DimZipCode                 Dimension = "zip_code"
	DimTimely                  Dimension = "timely"
	DimConsumerDisputed        Dimension = "consumer_disputed"
	DimCompanyResponse         Dimension = "company_response"
	DimCompanyPublicResponse   Dimension = "company_public_response"
	DimConsumerConsentProvided Dimension = "consumer_consent_provided"
	DimHasNarrative            Dimension = "has_narrative"
	DimSubmittedVia            Dimension = "submitted_via"
	DimTags                    Dimension = "tags"
)

// Dimensions lists the filter dimensions in compilation order.
var Dimensions = []Dimension{
	DimCompany, DimProduct, DimIssue, DimState, DimZipCode, DimTimely,
	DimConsumerDisputed, DimCompanyResponse, DimCompanyPublicResponse,
	DimConsumerConsentProvided, DimHasNarrative, DimSubmittedVia, DimTags,
}

// EngineField returns the index field a dimension filters on.
func (d Dimension) EngineField() string { return string(d) }

// DateRange is an optional inclusive calendar-date interval.
// Either bound may be nil.
type DateRange struct {
	Min *time.Time
	Max *time.Time
}

// IsEmpty reports whether neither bound is set.
func (r DateRange) IsEmpty() bool { return r.Min == nil && r.Max == nil }

// Params is the normalized, validated search parameter set.
// Treat values as immutable: use the With* helpers to derive variants.
type Params struct {
	Format     format.Format
	Field      Field
	Frm        int
	Size       int
	Sort       Sort
	SearchTerm string

	Filters map[Dimension][]string

	DateReceived    DateRange
	CompanyReceived DateRange

	NoAggs      bool
	NoHighlight bool
}

// Defaults returns the parameter set of a request without any parameters.
func Defaults() Params {
	return Params{
		Format: format.Default,
		Field:  FieldNarrative,
		Frm:    0,
		Size:   DefaultSize,
		Sort:   RelevanceDesc,
	}
}

// Validate checks enums, bounds and the pagination invariant.
func (p Params) Validate() error {
	if !p.Format.IsValid() {
		return fmt.Errorf("%w: unknown format %q", domain.ErrInvalidQuery, p.Format)
	}
	if !p.Field.IsValid() {
		return fmt.Errorf("%w: unknown field %q", domain.ErrInvalidQuery, p.Field)
	}
	if !p.Sort.IsValid() {
		return fmt.Errorf("%w: unknown sort %q", domain.ErrInvalidQuery, p.Sort)
	}
	if p.Frm < 0 || p.Frm > MaxOffset {
		return fmt.Errorf("%w: frm must be between 0 and %d", domain.ErrInvalidQuery, MaxOffset)
	}
	if p.Size < 0 || p.Size > MaxSize {
		return fmt.Errorf("%w: size must be between 0 and %d", domain.ErrInvalidQuery, MaxSize)
	}
	if !p.PaginationValid() {
		return fmt.Errorf("%w: frm is not zero or a multiple of size", domain.ErrInvalidQuery)
	}
	for d, values := range p.Filters {
		if !slices.Contains(Dimensions, d) {
			return fmt.Errorf("%w: unknown filter %q", domain.ErrInvalidQuery, d)
		}
		if slices.Contains(values, "") {
			return fmt.Errorf("%w: blank %s value", domain.ErrInvalidQuery, d)
		}
	}
	return nil
}

// PaginationValid reports whether frm is zero or a multiple of a positive size.
func (p Params) PaginationValid() bool {
	if p.Frm == 0 || p.Size == 0 {
		return true
	}
	return p.Frm%p.Size == 0
}

// Filter returns a copy of the values of one dimension (nil when absent).
func (p Params) Filter(d Dimension) []string {
	v := p.Filters[d]
	if len(v) == 0 {
		return nil
	}
	return slices.Clone(v)
}

// FilteredDimensions lists the dimensions with at least one value, in
// compilation order.
func (p Params) FilteredDimensions() []Dimension {
	out := make([]Dimension, 0, len(p.Filters))
	for _, d := range Dimensions {
		if len(p.Filters[d]) > 0 {
			out = append(out, d)
		}
	}
	return out
}

// WithFilter returns a copy of p with the dimension set to values.
func (p Params) WithFilter(d Dimension, values ...string) Params {
	filters := maps.Clone(p.Filters)
	if filters == nil {
		filters = make(map[Dimension][]string)
	}
	filters[d] = slices.Clone(values)
	p.Filters = filters
	return p
}

// WithPage returns a copy of p with the given offset and page length.
func (p Params) WithPage(frm, size int) Params {
	p.Frm = frm
	p.Size = size
	return p
}
