package domain

// Decision is the outcome of a coverage query.
type Decision string

// Decisions.
const (
	DecisionApproved    Decision = "approved"
	DecisionRejected    Decision = "rejected"
	DecisionNeedsReview Decision = "needs_review"
)

// IsValid returns true if the decision is recognised.
func (d Decision) IsValid() bool {
	switch d {
	case DecisionApproved, DecisionRejected, DecisionNeedsReview:
		return true
	default:
		return false
	}
}

// Label returns the display label for the decision.
func (d Decision) Label() string {
	switch d {
	case DecisionApproved:
		return "APPROVED"
	case DecisionRejected:
		return "REJECTED"
	case DecisionNeedsReview:
		return "NEEDS REVIEW"
	default:
		return "UNKNOWN"
	}
}

// ClauseReference points at a chunk that supported a decision.
type ClauseReference struct {
	ClauseID        string
	ClauseText      string
	DocumentName    string
	PageNumber      *int
	ConfidenceScore float64
}

// DecisionResponse is a structured answer to a coverage query.
type DecisionResponse struct {
	Decision          Decision
	Amount            *float64
	Justification     string
	ReferencedClauses []ClauseReference
	ExtractedEntities EntityExtraction
	ConfidenceScore   float64
	ProcessingTimeMs  int64
}
