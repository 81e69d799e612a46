// Package complaint holds the fixed field tables of the complaint index:
// source fields, export headers and aggregation policy.
package complaint

import "slices"

// Delimiter joins the parts of a hierarchical value ("Mortgage•FHA mortgage")
// and the items of list values in exports.
const Delimiter = "•"

// DefaultChunkSize bounds the number of documents fetched per engine
// round-trip during an export.
const DefaultChunkSize = 512

// Source field names as stored in the index.
const (
	FieldCompany                 = "company"
	FieldCompanyPublicResponse   = "company_public_response"
	FieldCompanyResponse         = "company_response"
	FieldComplaintID             = "complaint_id"
	FieldComplaintWhatHappened   = "complaint_what_happened"
	FieldConsumerConsentProvided = "consumer_consent_provided"
	FieldConsumerDisputed        = "consumer_disputed"
	FieldDateReceived            = "date_received"
	FieldDateSentToCompany       = "date_sent_to_company"
	FieldHasNarrative            = "has_narrative"
	FieldIssue                   = "issue"
	FieldProduct                 = "product"
	FieldState                   = "state"
	FieldSubmittedVia            = "submitted_via"
	FieldSubIssue                = "sub_issue"
	FieldSubProduct              = "sub_product"
	FieldTags                    = "tags"
	FieldTimely                  = "timely"
	FieldZipCode                 = "zip_code"
)

// Derived export fields holding display-formatted dates.
const (
	FieldDateReceivedFormatted      = "date_received_formatted"
	FieldDateSentToCompanyFormatted = "date_sent_to_company_formatted"
)

// SourceFields is the canonical ordered list of document fields.
var SourceFields = []string{
	FieldCompany,
	FieldCompanyPublicResponse,
	FieldCompanyResponse,
	FieldComplaintID,
	FieldComplaintWhatHappened,
	FieldConsumerConsentProvided,
	FieldConsumerDisputed,
	FieldDateReceived,
	FieldDateSentToCompany,
	FieldHasNarrative,
	FieldIssue,
	FieldProduct,
	FieldState,
	FieldSubmittedVia,
	FieldSubIssue,
	FieldSubProduct,
	FieldTags,
	FieldTimely,
	FieldZipCode,
}

// TextFields are the full-text searchable fields.
var TextFields = []string{FieldComplaintWhatHappened, FieldCompanyPublicResponse}

// Header pairs an export column's source field with its display label.
type Header struct {
	Field string
	Label string
}

// ExportHeaders is the fixed column order and labels of CSV exports.
// Changing either breaks file-format compatibility for consumers.
var ExportHeaders = []Header{
	{FieldDateReceivedFormatted, "Date received"},
	{FieldProduct, "Product"},
	{FieldSubProduct, "Sub-product"},
	{FieldIssue, "Issue"},
	{FieldSubIssue, "Sub-issue"},
	{FieldComplaintWhatHappened, "Consumer complaint narrative"},
	{FieldCompanyPublicResponse, "Company public response"},
	{FieldCompany, "Company"},
	{FieldState, "State"},
	{FieldZipCode, "ZIP code"},
	{FieldTags, "Tags"},
	{FieldConsumerConsentProvided, "Consumer consent provided?"},
	{FieldSubmittedVia, "Submitted via"},
	{FieldDateSentToCompanyFormatted, "Date sent to company"},
	{FieldCompanyResponse, "Company response to consumer"},
	{FieldTimely, "Timely response?"},
	{FieldConsumerDisputed, "Consumer disputed?"},
	{FieldComplaintID, "Complaint ID"},
}

// BaseAggExclude is always excluded from aggregation.
var BaseAggExclude = []string{FieldCompany, FieldZipCode}

// SubField returns the child field of a hierarchical field
// (product → sub_product, issue → sub_issue).
func SubField(field string) (string, bool) {
	switch field {
	case FieldProduct:
		return FieldSubProduct, true
	case FieldIssue:
		return FieldSubIssue, true
	default:
		return "", false
	}
}

// IsDateField reports whether the field stores a calendar date.
func IsDateField(field string) bool {
	return field == FieldDateReceived || field == FieldDateSentToCompany
}

// ListFields hold multiple values per document.
var ListFields = []string{FieldTags}

// IsListField reports whether the field holds multiple values.
func IsListField(field string) bool {
	return slices.Contains(ListFields, field)
}
