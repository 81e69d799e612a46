package complaint

import (
	"github.com/kailas-cloud/ccdb/internal/db"
	domcomplaint "github.com/kailas-cloud/ccdb/internal/domain/complaint"
)

// ListSeparator joins list values inside a hash field. It doubles as the TAG
// separator of every categorical field so values containing commas stay whole.
const ListSeparator = "|"

// Index attributes that differ from the source field they are built from.
const (
	attrDateReceived          = "date_received_ts"
	attrDateSentToCompany     = "date_sent_to_company_ts"
	attrCompanyPublicResponse = "company_public_response_raw"
)

// tagFields are the categorical fields filtered by exact value.
var tagFields = []string{
	domcomplaint.FieldCompany,
	domcomplaint.FieldCompanyResponse,
	domcomplaint.FieldComplaintID,
	domcomplaint.FieldConsumerConsentProvided,
	domcomplaint.FieldConsumerDisputed,
	domcomplaint.FieldHasNarrative,
	domcomplaint.FieldIssue,
	domcomplaint.FieldProduct,
	domcomplaint.FieldState,
	domcomplaint.FieldSubmittedVia,
	domcomplaint.FieldSubIssue,
	domcomplaint.FieldSubProduct,
	domcomplaint.FieldTags,
	domcomplaint.FieldTimely,
	domcomplaint.FieldZipCode,
}

// attribute maps a query key to the index attribute holding it.
func attribute(key string) string {
	switch key {
	case domcomplaint.FieldDateReceived:
		return attrDateReceived
	case domcomplaint.FieldDateSentToCompany:
		return attrDateSentToCompany
	case domcomplaint.FieldCompanyPublicResponse:
		return attrCompanyPublicResponse
	default:
		return key
	}
}

// buildIndex returns the FT schema over complaint hashes. Dates are indexed
// as sortable unix seconds next to their display strings.
func buildIndex(name, prefix string) (*db.IndexDefinition, error) {
	b := db.NewIndex(name).OnHash().Prefix(prefix)

	for _, f := range domcomplaint.TextFields {
		b.Text(f)
	}
	for _, f := range tagFields {
		b.TagWithOpts(f, ListSeparator, false)
	}
	b.TagWithOpts(domcomplaint.FieldCompanyPublicResponse, ListSeparator, false).As(attrCompanyPublicResponse)
	b.Numeric(attrDateReceived).Sortable()
	b.Numeric(attrDateSentToCompany).Sortable()

	return b.Build()
}
