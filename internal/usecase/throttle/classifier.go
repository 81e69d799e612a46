package throttle

import (
	domthrottle "github.com/kailas-cloud/ccdb/internal/domain/throttle"
)

// Classifier tells UI traffic from anonymous traffic by the declared
// Referer. The header is client supplied: the result selects a quota and
// grants no access.
type Classifier struct {
	uiURL string
}

// NewClassifier creates a classifier trusting exactly one UI URL. An empty
// URL classifies every request as anonymous.
func NewClassifier(uiURL string) Classifier {
	return Classifier{uiURL: uiURL}
}

// Classify returns UI iff referer equals the configured URL byte for byte.
func (c Classifier) Classify(referer string) domthrottle.Classification {
	if c.uiURL != "" && referer == c.uiURL {
		return domthrottle.UI
	}
	return domthrottle.Anonymous
}
