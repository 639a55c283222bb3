package domain

// Gender is the gender parsed from a query.
type Gender string

// Genders. The empty value means unset.
const (
	GenderUnset  Gender = ""
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// IsValid returns true if the gender is male or female.
func (g Gender) IsValid() bool {
	return g == GenderMale || g == GenderFemale
}

// EntityExtraction holds optional structured fields parsed from a query.
// A nil pointer means the field was not found, which is distinct from a zero value.
type EntityExtraction struct {
	// Age in years, 0-120.
	Age *int

	// Gender is male, female or unset.
	Gender Gender

	// Procedure is a medical procedure, e.g. "knee surgery".
	Procedure *string

	// Location is a city name, title-cased.
	Location *string

	// PolicyDuration is normalised as "<n> months" or "<n> years".
	PolicyDuration *string

	// PolicyType is the kind of policy, when a model pass names one.
	PolicyType *string

	// Amount is a non-negative currency amount in rupees.
	Amount *float64

	// Date is a free-form date.
	Date *string
}

// IsEmpty returns true if no field is set.
func (e EntityExtraction) IsEmpty() bool {
	return e.Age == nil && !e.Gender.IsValid() && e.Procedure == nil &&
		e.Location == nil && e.PolicyDuration == nil && e.PolicyType == nil &&
		e.Amount == nil && e.Date == nil
}

// Merge returns a copy of e with every field set in override replacing e's value.
// Fields absent from override keep e's value.
func (e EntityExtraction) Merge(override EntityExtraction) EntityExtraction {
	out := e
	if override.Age != nil {
		out.Age = override.Age
	}
	if override.Gender.IsValid() {
		out.Gender = override.Gender
	}
	if override.Procedure != nil {
		out.Procedure = override.Procedure
	}
	if override.Location != nil {
		out.Location = override.Location
	}
	if override.PolicyDuration != nil {
		out.PolicyDuration = override.PolicyDuration
	}
	if override.PolicyType != nil {
		out.PolicyType = override.PolicyType
	}
	if override.Amount != nil {
		out.Amount = override.Amount
	}
	if override.Date != nil {
		out.Date = override.Date
	}
	return out
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
