package domain

// Category is the closed set of issue categories a report can be filed under.
// The value is the wire code sent to the backend.
type Category string

const (
	CategoryInfrastructure Category = "infrastructure"
	CategoryEnvironment    Category = "environment"
	CategoryPublicSafety   Category = "public_safety"
	CategorySafety         Category = "safety"
	CategoryTraffic        Category = "traffic"
	CategoryTransportation Category = "transportation"
	CategoryUtilities      Category = "utilities"
	CategoryOther          Category = "other"
)

// Categories lists every recognized category in display order.
var Categories = []Category{
	CategoryInfrastructure,
	CategoryEnvironment,
	CategoryPublicSafety,
	CategorySafety,
	CategoryTraffic,
	CategoryTransportation,
	CategoryUtilities,
	CategoryOther,
}

func (c Category) String() string { return string(c) }

func (c Category) IsValid() bool {
	switch c {
	case CategoryInfrastructure, CategoryEnvironment, CategoryPublicSafety, CategorySafety,
		CategoryTraffic, CategoryTransportation, CategoryUtilities, CategoryOther:
		return true
	}
	return false
}

// Label returns the human-readable name shown in pickers.
func (c Category) Label() string {
	switch c {
	case CategoryInfrastructure:
		return "Infrastructure"
	case CategoryEnvironment:
		return "Environment"
	case CategoryPublicSafety:
		return "Public Safety"
	case CategorySafety:
		return "Safety"
	case CategoryTraffic:
		return "Traffic"
	case CategoryTransportation:
		return "Transportation"
	case CategoryUtilities:
		return "Utilities"
	case CategoryOther:
		return "Other"
	}
	return string(c)
}

// ParseCategory resolves user input to a Category. Both the wire code and the
// label are accepted, ignoring case and separators. The second result is
// false when the input names no recognized category.
func ParseCategory(s string) (Category, bool) {
	key := NormalizeKey(s)
	if key == "" {
		return "", false
	}
	for _, c := range Categories {
		if key == string(c) || key == NormalizeKey(c.Label()) {
			return c, true
		}
	}
	return "", false
}

// ReportStatus is the server-side lifecycle state of a report.
type ReportStatus string

const (
	ReportStatusPending    ReportStatus = "pending"
	ReportStatusInProgress ReportStatus = "in_progress"
	ReportStatusResolved   ReportStatus = "resolved"
	ReportStatusRejected   ReportStatus = "rejected"
)

func (s ReportStatus) String() string { return string(s) }

func (s ReportStatus) IsValid() bool {
	switch s {
	case ReportStatusPending, ReportStatusInProgress, ReportStatusResolved, ReportStatusRejected:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions are expected.
func (s ReportStatus) IsTerminal() bool {
	return s == ReportStatusResolved || s == ReportStatusRejected
}

// AuthState is the client's view of the session.
type AuthState string

const (
	AuthStateUnauthenticated AuthState = "unauthenticated"
	AuthStateAuthenticating  AuthState = "authenticating"
	AuthStateAuthenticated   AuthState = "authenticated"
)

func (s AuthState) String() string { return string(s) }
