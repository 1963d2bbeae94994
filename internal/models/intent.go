package models

// Intent is the user goal behind a query.
type Intent string

const (
	IntentSummary        Intent = "summary"
	IntentContributors   Intent = "contributors"
	IntentLanguage       Intent = "language"
	IntentRecentActivity Intent = "recent_activity"
)

// Valid reports whether i is one of the known intents.
func (i Intent) Valid() bool {
	switch i {
	case IntentSummary, IntentContributors, IntentLanguage, IntentRecentActivity:
		return true
	}
	return false
}
